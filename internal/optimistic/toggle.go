// Package optimistic implements toggle-style mutations that update the
// displayed state before the server confirms, then reconcile with the
// server's membership list or roll back.
package optimistic

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"petpal/internal/logger"
	"petpal/internal/notify"
	"petpal/internal/session"
)

// ErrBusy is reported when a mutation for the same entity is still in flight
var ErrBusy = errors.New("mutation already in flight")

// ErrSignInRequired is reported when there is no authenticated session
var ErrSignInRequired = session.ErrSignInRequired

// Display is what the user sees for a toggle: the active flag and its counter
type Display struct {
	Active bool `json:"active"`
	Count  int  `json:"count"`
}

// ConfirmFunc performs the server call and returns the authoritative
// membership list for the entity
type ConfirmFunc func(ctx context.Context, entityID string) ([]string, error)

// SessionSource exposes the current session. Implementations re-check
// expiry so an expired token counts as signed out.
type SessionSource interface {
	ActiveSession(ctx context.Context) (*session.Session, bool)
}

// Request describes one toggle
type Request struct {
	EntityID string
	Current  Display

	// Action names the toggle in notifications, e.g. "like this post"
	Action string

	// Apply updates the displayed state. It is called once before the
	// server call and once after it resolves.
	Apply func(Display)

	Confirm ConfirmFunc
}

// Result of a toggle
type Result int

const (
	Confirmed Result = iota
	RolledBack
	Busy
	SignInRequired
)

func (r Result) String() string {
	switch r {
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled back"
	case Busy:
		return "busy"
	case SignInRequired:
		return "sign in required"
	default:
		return "unknown"
	}
}

// Outcome is returned by Toggle
type Outcome struct {
	Result  Result
	Display Display
	Err     error
}

// Toggler runs optimistic toggles with one in-flight mutation per entity.
type Toggler struct {
	sessions SessionSource
	notifier notify.Notifier
	log      *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// New creates a Toggler
func New(sessions SessionSource, notifier notify.Notifier, log *zap.Logger) *Toggler {
	if notifier == nil {
		notifier = notify.Multi{}
	}
	return &Toggler{
		sessions: sessions,
		notifier: notifier,
		log:      logger.OrNop(log),
		inFlight: make(map[string]struct{}),
	}
}

// InFlight reports whether a mutation for entityID is pending
func (t *Toggler) InFlight(entityID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.inFlight[entityID]
	return ok
}

// Toggle flips req.Current immediately, calls req.Confirm, then reconciles
// with the server's membership list or restores req.Current on failure.
// Errors are reported through the notifier and Outcome, never returned.
func (t *Toggler) Toggle(ctx context.Context, req Request) Outcome {
	sess, ok := t.sessions.ActiveSession(ctx)
	if !ok {
		t.notifier.Notify(notify.Notification{
			Level:   notify.LevelInfo,
			Title:   "Sign in required",
			Message: fmt.Sprintf("Sign in to %s.", req.Action),
		})
		return Outcome{Result: SignInRequired, Display: req.Current, Err: ErrSignInRequired}
	}

	if !t.acquire(req.EntityID) {
		t.log.Debug("toggle ignored, previous mutation pending", zap.String("entity_id", req.EntityID))
		return Outcome{Result: Busy, Display: req.Current, Err: ErrBusy}
	}
	defer t.release(req.EntityID)

	prev := req.Current
	req.Apply(Flip(prev))

	members, err := req.Confirm(ctx, req.EntityID)
	if err != nil {
		req.Apply(prev)
		t.log.Warn("toggle rolled back",
			zap.String("entity_id", req.EntityID),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		t.notifier.Notify(notify.Notification{
			Level:   notify.LevelError,
			Title:   "Something went wrong",
			Message: fmt.Sprintf("Could not %s. Please try again.", req.Action),
			Err:     err,
		})
		return Outcome{Result: RolledBack, Display: prev, Err: err}
	}

	final := Reconcile(members, sess.SubjectID)
	req.Apply(final)
	return Outcome{Result: Confirmed, Display: final}
}

func (t *Toggler) acquire(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.inFlight[id]; busy {
		return false
	}
	t.inFlight[id] = struct{}{}
	return true
}

func (t *Toggler) release(id string) {
	t.mu.Lock()
	delete(t.inFlight, id)
	t.mu.Unlock()
}

// Flip returns the optimistic guess for toggling d. The counter never goes
// below zero.
func Flip(d Display) Display {
	if d.Active {
		return Display{Active: false, Count: max(d.Count-1, 0)}
	}
	return Display{Active: true, Count: max(d.Count, 0) + 1}
}

// Reconcile derives the displayed state from a server membership list
func Reconcile(members []string, userID string) Display {
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		seen[m] = struct{}{}
	}
	_, active := seen[userID]
	return Display{Active: active && userID != "", Count: len(seen)}
}
