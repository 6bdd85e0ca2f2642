package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	models "storefront/model"
	"storefront/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrTermsNotAccepted   = errors.New("you must agree to the terms and conditions")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// Demo account seeded into every directory.
const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "password"
	DemoName     = "Demo User"

	defaultAvatar = "/images/avatar.png"
	minPassword   = 8
)

var emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Authenticator verifies credentials and creates accounts. The storefront
// only needs this contract; a real identity provider can stand behind it.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	Register(ctx context.Context, in RegisterInput) (models.User, error)
}

type RegisterInput struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	AgreeToTerms    bool   `json:"agreeToTerms"`
}

// Validate applies the registration form rules in the order the form
// reports them.
func (in RegisterInput) Validate() error {
	if in.Password != in.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if !in.AgreeToTerms {
		return ErrTermsNotAccepted
	}
	if err := ValidateEmail(in.Email); err != nil {
		return err
	}
	if len(in.Password) < minPassword {
		return ErrWeakPassword
	}
	return nil
}

// ValidateEmail checks the address format the sign-up form accepts.
func ValidateEmail(email string) error {
	if !emailRE.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

type account struct {
	User         models.User `json:"user"`
	PasswordHash []byte      `json:"passwordHash"`
}

// Directory is an Authenticator that keeps accounts in a KV, one key per
// lowercased email.
type Directory struct {
	kv   store.KV
	cost int

	// writeMu serialises the check-then-write of Register and UpdateProfile
	// so an email maps to one account. Hashing happens outside it.
	writeMu sync.Mutex
}

// NewDirectory returns a directory and makes sure the demo account exists.
func NewDirectory(ctx context.Context, kv store.KV, cost int) (*Directory, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	d := &Directory{kv: kv, cost: cost}
	_, found, err := d.lookup(ctx, DemoEmail)
	if err != nil {
		return nil, err
	}
	if !found {
		// the demo password is shorter than the register rule allows
		demo := models.User{ID: "1", Email: DemoEmail, Name: DemoName, Avatar: defaultAvatar}
		if err := d.put(ctx, demo, DemoPassword); err != nil {
			return nil, fmt.Errorf("seed demo account: %w", err)
		}
	}
	return d, nil
}

func accountKey(email string) string {
	return "account_" + strings.ToLower(strings.TrimSpace(email))
}

func (d *Directory) lookup(ctx context.Context, email string) (account, bool, error) {
	raw, ok, err := d.kv.Get(ctx, accountKey(email))
	if err != nil || !ok {
		return account{}, false, err
	}
	var a account
	if err := json.Unmarshal(raw, &a); err != nil {
		return account{}, false, fmt.Errorf("decode account: %w", err)
	}
	return a, true, nil
}

func (d *Directory) put(ctx context.Context, u models.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return err
	}
	return d.write(ctx, account{User: u, PasswordHash: hash})
}

func (d *Directory) write(ctx context.Context, a account) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return d.kv.Set(ctx, accountKey(a.User.Email), raw)
}

func (d *Directory) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	a, found, err := d.lookup(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	if !found {
		return models.User{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return a.User, nil
}

func (d *Directory) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	if err := in.Validate(); err != nil {
		return models.User{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), d.cost)
	if err != nil {
		return models.User{}, err
	}
	u := models.User{
		ID:     uuid.NewString(),
		Email:  strings.TrimSpace(in.Email),
		Name:   strings.TrimSpace(in.FirstName + " " + in.LastName),
		Avatar: defaultAvatar,
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	_, found, err := d.lookup(ctx, in.Email)
	if err != nil {
		return models.User{}, err
	}
	if found {
		return models.User{}, ErrEmailTaken
	}
	if err := d.write(ctx, account{User: u, PasswordHash: hash}); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// UpdateProfile rewrites the stored user for an account, keeping the
// password. A changed email moves the account to the new key.
func (d *Directory) UpdateProfile(ctx context.Context, oldEmail string, u models.User) error {
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	a, found, err := d.lookup(ctx, oldEmail)
	if err != nil {
		return err
	}
	if !found {
		return ErrInvalidCredentials
	}
	if accountKey(u.Email) != accountKey(oldEmail) {
		if _, taken, err := d.lookup(ctx, u.Email); err != nil {
			return err
		} else if taken {
			return ErrEmailTaken
		}
	}
	a.User = u
	if err := d.write(ctx, a); err != nil {
		return err
	}
	if accountKey(u.Email) != accountKey(oldEmail) {
		return d.kv.Delete(ctx, accountKey(oldEmail))
	}
	return nil
}
