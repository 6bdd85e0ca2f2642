package state

import (
	"context"
	"errors"

	models "storefront/model"
	"storefront/store"
)

// ErrNoSession is returned by operations that need a signed-in user.
var ErrNoSession = errors.New("not signed in")

// Auth holds the signed-in session of one client. It does not check
// credentials; that is the caller's job.
type Auth struct {
	kv      store.KV
	session *models.Session
}

// LoadAuth restores a session from the auth_token and user_data keys. Both
// must be present for the session to count.
func LoadAuth(ctx context.Context, kv store.KV) (*Auth, error) {
	a := &Auth{kv: kv}
	raw, ok, err := kv.Get(ctx, KeyAuthToken)
	if err != nil {
		return nil, err
	}
	if !ok || len(raw) == 0 {
		return a, nil
	}
	var user models.User
	if err := load(ctx, kv, KeyUserData, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return a, nil
	}
	a.session = &models.Session{User: user, Token: string(raw)}
	return a, nil
}

func (a *Auth) Login(ctx context.Context, user models.User, token string) error {
	if err := a.kv.Set(ctx, KeyAuthToken, []byte(token)); err != nil {
		return err
	}
	if err := save(ctx, a.kv, KeyUserData, user); err != nil {
		return err
	}
	a.session = &models.Session{User: user, Token: token}
	return nil
}

func (a *Auth) Logout(ctx context.Context) error {
	a.session = nil
	if err := a.kv.Delete(ctx, KeyAuthToken); err != nil {
		return err
	}
	return a.kv.Delete(ctx, KeyUserData)
}

// UpdateUser applies patch to the signed-in user.
func (a *Auth) UpdateUser(ctx context.Context, patch models.UserPatch) (models.User, error) {
	if a.session == nil {
		return models.User{}, ErrNoSession
	}
	updated := patch.Apply(a.session.User)
	if err := save(ctx, a.kv, KeyUserData, updated); err != nil {
		return models.User{}, err
	}
	a.session.User = updated
	return updated, nil
}

// Session returns the current session, or false when signed out.
func (a *Auth) Session() (models.Session, bool) {
	if a.session == nil {
		return models.Session{}, false
	}
	return *a.session, true
}

func (a *Auth) IsAuthenticated() bool { return a.session != nil }

// UserID is the signed-in user's id, "" when signed out.
func (a *Auth) UserID() string {
	if a.session == nil {
		return ""
	}
	return a.session.User.ID
}
