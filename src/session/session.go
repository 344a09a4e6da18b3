package session

import (
	"context"

	"github.com/theleywin/love-on-the-pixel/src/errs"
)

// Session identifies the account a request runs as.
type Session struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	// AccessToken is forwarded to backends that enforce row-level security.
	AccessToken string `json:"-"`
}

type ctxKey struct{}

// With returns a copy of ctx carrying s.
func With(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// Current returns the session attached to ctx, or nil when the request is anonymous.
func Current(ctx context.Context) *Session {
	s, ok := ctx.Value(ctxKey{}).(Session)
	if !ok || s.UserID == "" {
		return nil
	}
	return &s
}

// Require is Current that fails with errs.ErrNotAuthenticated instead of returning nil.
func Require(ctx context.Context) (Session, error) {
	s := Current(ctx)
	if s == nil {
		return Session{}, errs.ErrNotAuthenticated
	}
	return *s, nil
}
