package models

type User struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// UserPatch carries the profile fields a signed-in user may change.
// Nil fields are left untouched.
type UserPatch struct {
	Email  *string `json:"email,omitempty"`
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// Apply returns u with the non-nil patch fields applied. The id never changes.
func (p UserPatch) Apply(u User) User {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	return u
}

// Session is the signed-in user together with the token issued at login.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}
