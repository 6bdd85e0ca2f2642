package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	models "storefront/model"
	"storefront/pricing"
	"storefront/state"
)

// ErrInvalidCheckout wraps every checkout form problem.
var ErrInvalidCheckout = errors.New("invalid checkout")

const paymentCard = "credit_card"

var knownPayments = map[string]bool{
	paymentCard:  true,
	"paypal":     true,
	"apple_pay":  true,
	"google_pay": true,
}

func (in CheckoutInput) validate() error {
	a := in.ShippingAddress
	for field, v := range map[string]string{
		"firstName": a.FirstName,
		"lastName":  a.LastName,
		"email":     a.Email,
		"address":   a.Address,
		"city":      a.City,
		"zipCode":   a.ZipCode,
		"country":   a.Country,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: shipping %s is required", ErrInvalidCheckout, field)
		}
	}
	p := in.Payment
	if p.Type == "" {
		p.Type = paymentCard
	}
	if !knownPayments[p.Type] {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidCheckout, p.Type)
	}
	if p.Type == paymentCard {
		if n := len(digits(p.CardNumber)); n < 12 || n > 19 {
			return fmt.Errorf("%w: card number must have 12 to 19 digits", ErrInvalidCheckout)
		}
	}
	return nil
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cardBrand(number string) string {
	switch {
	case strings.HasPrefix(number, "4"):
		return "visa"
	case strings.HasPrefix(number, "34"), strings.HasPrefix(number, "37"):
		return "amex"
	case len(number) >= 2 && number[0] == '5' && number[1] >= '1' && number[1] <= '5':
		return "mastercard"
	case strings.HasPrefix(number, "6011"), strings.HasPrefix(number, "65"):
		return "discover"
	}
	return "card"
}

// sanitize keeps what an order may show about a payment: never the full
// number or the CVV.
func sanitize(p PaymentInput) models.PaymentMethod {
	if p.Type == "" {
		p.Type = paymentCard
	}
	out := models.PaymentMethod{Type: p.Type, CardholderName: strings.TrimSpace(p.CardholderName)}
	if p.Type == paymentCard {
		n := digits(p.CardNumber)
		out.CardBrand = cardBrand(n)
		out.Last4 = n[len(n)-4:]
		out.Expiry = p.Expiry
	}
	return out
}

// Checkout turns the client's cart into an order for the signed-in user and
// empties the cart.
func (s *Service) Checkout(ctx context.Context, clientID string, in CheckoutInput) (models.Order, error) {
	sess, unlock, err := s.open(ctx, clientID)
	if err != nil {
		return models.Order{}, err
	}
	defer unlock()

	uid := sess.auth.UserID()
	if uid == "" {
		return models.Order{}, ErrUnauthorized
	}
	if err := in.validate(); err != nil {
		return models.Order{}, err
	}
	cart, err := state.LoadCart(ctx, sess.ns, state.KeyCart)
	if err != nil {
		return models.Order{}, err
	}
	items := cart.Items()
	if len(items) == 0 {
		return models.Order{}, ErrCartEmpty
	}
	quote := pricing.QuoteFor(cart.Total())

	unlockUser := s.users.lockFor(uid)
	defer unlockUser()
	orders := state.NewOrders(s.kv, s.orderOp...)
	if err := orders.LoadOrders(ctx, uid); err != nil {
		return models.Order{}, err
	}
	order, err := orders.CreateOrder(ctx, models.Order{
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   sanitize(in.Payment),
		Subtotal:        quote.Subtotal,
		Shipping:        quote.Shipping,
		Tax:             quote.Tax,
		Total:           quote.Total,
	})
	if err != nil {
		return models.Order{}, err
	}
	if err := cart.ClearCart(ctx); err != nil {
		// the order is already stored; report and carry on
		s.log.Error("clear cart after checkout", "client_id", clientID, "order_id", order.ID, "error", err)
	}
	s.log.Info("order placed", "client_id", clientID, "user_id", uid, "order_id", order.ID,
		"items", len(items), "total", order.Total)
	return order, nil
}
