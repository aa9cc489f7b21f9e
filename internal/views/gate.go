// Package views holds the view controllers a front end mounts: they own the
// displayed state for listings, feeds, comments and the profile hub.
package views

import (
	"errors"

	"petpal/internal/session"
)

// ErrLoading is returned while the session is still being restored
var ErrLoading = errors.New("session is loading")

// AuthState is the read side of the session manager
type AuthState interface {
	Loading() bool
	IsAuthenticated() bool
}

// Gate guards protected views
type Gate struct {
	auth AuthState
}

// NewGate creates a gate over auth
func NewGate(auth AuthState) *Gate {
	return &Gate{auth: auth}
}

// Require returns nil when a protected view may render. ErrLoading means
// the front end should wait; session.ErrSignInRequired means it should send
// the user to sign in.
func (g *Gate) Require() error {
	switch {
	case g.auth.Loading():
		return ErrLoading
	case !g.auth.IsAuthenticated():
		return session.ErrSignInRequired
	default:
		return nil
	}
}
