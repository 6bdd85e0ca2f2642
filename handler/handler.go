package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"storefront/auth"
	"storefront/catalog"
	models "storefront/model"
	"storefront/service"
)

// ClientHeader identifies the client (one browser, in storefront terms) a
// request belongs to. Requests without it get a fresh id back in the same
// header.
const ClientHeader = "X-Client-ID"

type ctxKey struct{}

// limiterIdle is the shortest time an unused auth limiter is kept.
const limiterIdle = 10 * time.Minute

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// Handler is the HTTP layer that talks to service.Service
type Handler struct {
	svc service.ServiceInterface
	log *slog.Logger

	authLimit rate.Limit
	authBurst int
	idleAfter time.Duration
	now       func() time.Time

	mu        sync.Mutex
	limiters  map[string]*visitor
	lastSweep time.Time
}

type Options struct {
	Logger *slog.Logger
	// AuthRatePerMinute caps login and register attempts per remote address;
	// 0 disables.
	AuthRatePerMinute int
	AuthBurst         int
}

// NewHandler returns a Handler instance
func NewHandler(s service.ServiceInterface, opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{
		svc:       s,
		log:       log.With("component", "http"),
		authLimit: rate.Inf,
		authBurst: opts.AuthBurst,
		idleAfter: limiterIdle,
		now:       time.Now,
		limiters:  make(map[string]*visitor),
	}
	if opts.AuthRatePerMinute > 0 {
		h.authLimit = rate.Limit(float64(opts.AuthRatePerMinute) / 60)
		if h.authBurst < 1 {
			h.authBurst = 1
		}
		// an evicted limiter must not hand back a burst it had not yet refilled
		refill := time.Duration(float64(h.authBurst) / float64(h.authLimit) * float64(time.Second))
		if refill > h.idleAfter {
			h.idleAfter = refill
		}
	}
	return h
}

// RegisterRoutes registers all routes on the provided router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.Use(h.logRequests, h.withClient)

	// Auth
	r.Handle("/auth/login", h.limitAuth(http.HandlerFunc(h.Login))).Methods("POST")
	r.Handle("/auth/register", h.limitAuth(http.HandlerFunc(h.Register))).Methods("POST")
	r.HandleFunc("/auth/logout", h.Logout).Methods("POST")
	r.HandleFunc("/auth/profile", h.Profile).Methods("GET")
	r.HandleFunc("/auth/profile", h.UpdateProfile).Methods("PUT")

	// Products
	r.HandleFunc("/products", h.ListProducts).Methods("GET")
	r.HandleFunc("/products/{id:[0-9]+}", h.GetProduct).Methods("GET")
	r.HandleFunc("/products/{id:[0-9]+}/related", h.RelatedProducts).Methods("GET")
	r.HandleFunc("/categories", h.Categories).Methods("GET")
	r.HandleFunc("/brands", h.Brands).Methods("GET")

	// Cart
	r.HandleFunc("/cart", h.GetCart).Methods("GET")
	r.HandleFunc("/cart/items", h.AddToCart).Methods("POST")
	r.HandleFunc("/cart/items/{id:[0-9]+}", h.UpdateCartItem).Methods("PUT")
	r.HandleFunc("/cart/items/{id:[0-9]+}", h.RemoveCartItem).Methods("DELETE")
	r.HandleFunc("/cart/clear", h.ClearCart).Methods("POST")

	// Wishlist
	r.HandleFunc("/wishlist", h.GetWishlist).Methods("GET")
	r.HandleFunc("/wishlist/items", h.AddToWishlist).Methods("POST")
	r.HandleFunc("/wishlist/items/{id:[0-9]+}", h.InWishlist).Methods("GET")
	r.HandleFunc("/wishlist/items/{id:[0-9]+}", h.RemoveFromWishlist).Methods("DELETE")
	r.HandleFunc("/wishlist/clear", h.ClearWishlist).Methods("POST")

	// Orders
	r.HandleFunc("/orders", h.ListOrders).Methods("GET")
	r.HandleFunc("/orders", h.Checkout).Methods("POST")
	r.HandleFunc("/orders/{id}", h.GetOrder).Methods("GET")
}

// --- request / response shapes ---
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type productReq struct {
	ProductID int64 `json:"productId"`
}

type quantityReq struct {
	Quantity int `json:"quantity"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// fail maps service errors to status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidClient),
		errors.Is(err, service.ErrInvalidCheckout),
		errors.Is(err, service.ErrCartEmpty),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrTermsNotAccepted),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidCredentials):
		writeErr(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		writeErr(w, http.StatusConflict, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeErr(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}

func clientID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return id
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil
}

// --- Middleware ---

func (h *Handler) withClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(ClientHeader)
		if id == "" {
			id = uuid.NewString()
		} else if _, err := uuid.Parse(id); err != nil {
			writeErr(w, http.StatusBadRequest, service.ErrInvalidClient.Error())
			return
		}
		w.Header().Set(ClientHeader, id)
		ctx := context.WithValue(r.Context(), ctxKey{}, id)
		if tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
			ctx = service.WithBearer(ctx, strings.TrimSpace(tok))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		h.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"duration", m.Duration,
		)
	})
}

// remoteHost is the auth limiting key. A client id is issued to anyone who
// leaves the header out.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// allow takes one auth attempt from key's bucket, dropping buckets that
// have been idle long enough to be full again.
func (h *Handler) allow(key string) bool {
	now := h.now()
	h.mu.Lock()
	defer h.mu.Unlock()
	if now.Sub(h.lastSweep) >= h.idleAfter {
		for k, v := range h.limiters {
			if now.Sub(v.seen) >= h.idleAfter {
				delete(h.limiters, k)
			}
		}
		h.lastSweep = now
	}
	v, ok := h.limiters[key]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(h.authLimit, h.authBurst)}
		h.limiters[key] = v
	}
	v.seen = now
	return v.lim.AllowN(now, 1)
}

func (h *Handler) limitAuth(next http.Handler) http.Handler {
	if h.authLimit == rate.Inf {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.allow(remoteHost(r)) {
			writeErr(w, http.StatusTooManyRequests, "too many attempts, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Handler ---

// Login handles POST /auth/login
// body: { "email": "...", "password": "..." }
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeErr(w, http.StatusBadRequest, "email and password are required")
		return
	}
	sess, err := h.svc.Login(r.Context(), clientID(r), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// Register handles POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	sess, err := h.svc.Register(r.Context(), clientID(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// Logout handles POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), clientID(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

// Profile handles GET /auth/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Profile(r.Context(), clientID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateProfile handles PUT /auth/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch models.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := h.svc.UpdateProfile(r.Context(), clientID(r), patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ListProducts handles GET /products?search=&category=&brand=&minPrice=&maxPrice=&inStock=&onSale=
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.Filter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
	}
	for name, dst := range map[string]**float64{"minPrice": &f.MinPrice, "maxPrice": &f.MaxPrice} {
		if v := q.Get(name); v != "" {
			p, err := strconv.ParseFloat(v, 64)
			if err != nil {
				writeErr(w, http.StatusBadRequest, name+" must be a number")
				return
			}
			*dst = &p
		}
	}
	for name, dst := range map[string]*bool{"inStock": &f.InStock, "onSale": &f.OnSale} {
		if v := q.Get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				writeErr(w, http.StatusBadRequest, name+" must be true or false")
				return
			}
			*dst = b
		}
	}
	list, err := h.svc.ListProducts(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetProduct handles GET /products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid product id")
		return
	}
	p, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RelatedProducts handles GET /products/{id}/related
func (h *Handler) RelatedProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid product id")
		return
	}
	ps, err := h.svc.RelatedProducts(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": ps})
}

// Brands handles GET /brands
func (h *Handler) Brands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Brands(r.Context()))
}

// Categories handles GET /categories
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Categories(r.Context()))
}

// GetCart handles GET /cart
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetCart(r.Context(), clientID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// AddToCart handles POST /cart/items
// body: { "productId": 1 }
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == 0 {
		writeErr(w, http.StatusBadRequest, "productId is required")
		return
	}
	v, err := h.svc.AddToCart(r.Context(), clientID(r), req.ProductID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UpdateCartItem handles PUT /cart/items/{id}
// body: { "quantity": 2 }. Quantities below 1 leave the cart unchanged.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req quantityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	v, err := h.svc.UpdateCartItem(r.Context(), clientID(r), id, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// RemoveCartItem handles DELETE /cart/items/{id}
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid product id")
		return
	}
	v, err := h.svc.RemoveCartItem(r.Context(), clientID(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// ClearCart handles POST /cart/clear
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.ClearCart(r.Context(), clientID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// GetWishlist handles GET /wishlist
func (h *Handler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.GetWishlist(r.Context(), clientID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// AddToWishlist handles POST /wishlist/items
// body: { "productId": 1 }
func (h *Handler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	var req productReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == 0 {
		writeErr(w, http.StatusBadRequest, "productId is required")
		return
	}
	items, err := h.svc.AddToWishlist(r.Context(), clientID(r), req.ProductID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// InWishlist handles GET /wishlist/items/{id}
func (h *Handler) InWishlist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid product id")
		return
	}
	in, err := h.svc.InWishlist(r.Context(), clientID(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"inWishlist": in})
}

// RemoveFromWishlist handles DELETE /wishlist/items/{id}
func (h *Handler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid product id")
		return
	}
	items, err := h.svc.RemoveFromWishlist(r.Context(), clientID(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// ClearWishlist handles POST /wishlist/clear
func (h *Handler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearWishlist(r.Context(), clientID(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": []models.Product{}})
}

// ListOrders handles GET /orders
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListOrders(r.Context(), clientID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// Checkout handles POST /orders
// body: { "shippingAddress": {...}, "paymentMethod": {...} }
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req service.CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	ord, err := h.svc.Checkout(r.Context(), clientID(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ord)
}

// GetOrder handles GET /orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ord, err := h.svc.GetOrder(r.Context(), clientID(r), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ord)
}
