package session

import (
	"maps"
	"slices"
	"time"
)

// State is a position in the session lifecycle
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Claims are the fields decoded from a bearer token
type Claims struct {
	Subject   string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero when the token carries no exp
	Raw       map[string]any
}

// Session represents the authenticated user's client-side identity
type Session struct {
	Token                 string         `json:"-"`
	SubjectID             string         `json:"subject_id"`
	ExpiresAtEpochSeconds int64          `json:"expires_at"`
	Roles                 []string       `json:"roles,omitempty"`
	Claims                map[string]any `json:"claims,omitempty"`
}

func newSession(token string, c Claims) *Session {
	s := &Session{
		Token:     token,
		SubjectID: c.Subject,
		Roles:     c.Roles,
		Claims:    c.Raw,
	}
	if !c.ExpiresAt.IsZero() {
		s.ExpiresAtEpochSeconds = c.ExpiresAt.Unix()
	}
	return s
}

// ExpiresAt returns the expiry as a time, zero if the token never expires
func (s *Session) ExpiresAt() time.Time {
	if s.ExpiresAtEpochSeconds == 0 {
		return time.Time{}
	}
	return time.Unix(s.ExpiresAtEpochSeconds, 0)
}

// Expired reports whether the session's expiry lies at or before now
func (s *Session) Expired(now time.Time) bool {
	if s.ExpiresAtEpochSeconds == 0 {
		return false
	}
	return now.Unix() >= s.ExpiresAtEpochSeconds
}

// HasRole reports whether the token grants role
func (s *Session) HasRole(role string) bool {
	return slices.Contains(s.Roles, role)
}

func (s *Session) clone() *Session {
	cp := *s
	cp.Roles = slices.Clone(s.Roles)
	cp.Claims = maps.Clone(s.Claims)
	return &cp
}
