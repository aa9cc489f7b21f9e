// Package session owns the client-side authentication lifecycle: decoding the
// persisted bearer token and tracking whether a valid user is logged in.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"petpal/internal/logger"
	"petpal/internal/tokenstore"
)

// Listener is called after every state transition, and again when a login
// replaces the current session with a different one
type Listener func(State)

// Option configures a Manager
type Option func(*Manager)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = logger.OrNop(l) }
}

// WithListener registers a transition listener. Listeners registered here
// also observe the startup Loading transition.
func WithListener(fn Listener) Option {
	return func(m *Manager) { m.listeners = append(m.listeners, fn) }
}

// Manager is the single source of truth for "is there a valid logged-in
// user right now". A session is either fully valid or absent.
type Manager struct {
	store   tokenstore.Store
	decoder *Decoder
	now     func() time.Time
	log     *zap.Logger

	mu        sync.RWMutex
	listeners []Listener
	state     State
	session   *Session
	// cleared is true once the store is known to hold no token
	cleared bool
}

// NewManager creates a manager and initializes it from any persisted token.
// The read-and-decode pass completes before NewManager returns.
func NewManager(ctx context.Context, store tokenstore.Store, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		decoder: NewDecoder(),
		now:     time.Now,
		log:     zap.NewNop(),
		state:   StateUninitialized,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.transition(StateLoading, nil)
	m.restore(ctx)
	return m
}

// restore performs the single startup pass. Errors end in Unauthenticated.
func (m *Manager) restore(ctx context.Context) {
	token, err := m.store.Get(ctx)
	if err != nil {
		if !errors.Is(err, tokenstore.ErrNotFound) {
			m.log.Warn("token store unavailable, session will not survive restart", zap.Error(err))
		} else {
			m.mu.Lock()
			m.cleared = true
			m.mu.Unlock()
		}
		m.transition(StateUnauthenticated, nil)
		return
	}

	sess, err := m.open(token)
	if err != nil {
		m.log.Info("discarding persisted token", zap.Error(err))
		m.clearStore(ctx)
		m.transition(StateUnauthenticated, nil)
		return
	}

	m.log.Debug("session restored",
		zap.String("subject_id", sess.SubjectID),
		zap.Time("expires_at", sess.ExpiresAt()),
	)
	m.transition(StateAuthenticated, sess)
}

// open decodes token and rejects it if expired
func (m *Manager) open(token string) (*Session, error) {
	claims, err := m.decoder.Decode(token)
	if err != nil {
		return nil, err
	}
	sess := newSession(token, claims)
	if sess.Expired(m.now()) {
		return nil, ErrTokenExpired
	}
	return sess, nil
}

// Login stores token and makes it the current session. A token that fails
// to decode or has expired leaves the manager Unauthenticated with an empty
// store, and the decode error is returned.
func (m *Manager) Login(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	sess, err := m.open(token)
	if err != nil {
		m.log.Warn("login rejected", zap.Error(err))
		m.Logout(ctx)
		return nil, err
	}

	if err := m.store.Set(ctx, token); err != nil {
		m.log.Warn("failed to persist token, session will not survive restart", zap.Error(err))
	} else {
		m.mu.Lock()
		m.cleared = false
		m.mu.Unlock()
	}

	m.transition(StateAuthenticated, sess)
	m.log.Info("logged in", zap.String("subject_id", sess.SubjectID))
	return sess.clone(), nil
}

// Logout clears the store and moves to Unauthenticated. It never fails and
// calling it again has no further effect.
func (m *Manager) Logout(ctx context.Context) {
	m.clearStore(ctx)
	m.transition(StateUnauthenticated, nil)
}

func (m *Manager) clearStore(ctx context.Context) {
	m.mu.RLock()
	cleared := m.cleared
	m.mu.RUnlock()
	if cleared {
		return
	}

	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn("failed to clear token store", zap.Error(err))
		return
	}
	m.mu.Lock()
	m.cleared = true
	m.mu.Unlock()
}

// Validate re-checks the current session's expiry and logs out if it has
// passed. It reports whether the manager is still authenticated.
func (m *Manager) Validate(ctx context.Context) bool {
	m.mu.RLock()
	sess := m.session
	m.mu.RUnlock()

	if sess == nil {
		return false
	}
	if sess.Expired(m.now()) {
		m.log.Info("session expired", zap.String("subject_id", sess.SubjectID))
		m.Logout(ctx)
		return false
	}
	return true
}

// Token returns the bearer token for an outgoing request
func (m *Manager) Token(ctx context.Context) (string, bool) {
	if !m.Validate(ctx) {
		return "", false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return "", false
	}
	return m.session.Token, true
}

// IsAuthenticated reports the current state without side effects
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateAuthenticated
}

// Loading reports whether the startup pass is still running
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateUninitialized || m.state == StateLoading
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// CurrentSession returns a copy of the current session
func (m *Manager) CurrentSession() (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return nil, false
	}
	return m.session.clone(), true
}

// ActiveSession re-checks expiry, then returns a copy of the current
// session. An expired session is logged out and reported as absent.
func (m *Manager) ActiveSession(ctx context.Context) (*Session, bool) {
	if !m.Validate(ctx) {
		return nil, false
	}
	return m.CurrentSession()
}

// Subscribe registers a listener for later transitions
func (m *Manager) Subscribe(fn Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) transition(to State, sess *Session) {
	m.mu.Lock()
	from := m.state
	replaced := m.session != nil && sess != nil && m.session.Token != sess.Token
	m.state = to
	m.session = sess
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	if from == to && !replaced {
		return
	}
	m.log.Debug("session state changed",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)
	for _, fn := range listeners {
		fn(to)
	}
}
