package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petpal/internal/notify"
	"petpal/internal/session"
)

type fakeSessions struct {
	sess *session.Session
}

func (f fakeSessions) ActiveSession(context.Context) (*session.Session, bool) {
	return f.sess, f.sess != nil
}

func signedIn(id string) fakeSessions {
	return fakeSessions{sess: &session.Session{SubjectID: id}}
}

// displayLog records every Apply call
type displayLog struct {
	mu  sync.Mutex
	all []Display
}

func (d *displayLog) apply(v Display) {
	d.mu.Lock()
	d.all = append(d.all, v)
	d.mu.Unlock()
}

func (d *displayLog) last() Display {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.all[len(d.all)-1]
}

func TestToggle_HappyPath(t *testing.T) {
	rec := notify.NewRecorder()
	tg := New(signedIn("u1"), rec, nil)
	var shown displayLog

	var optimistic Display
	out := tg.Toggle(context.Background(), Request{
		EntityID: "pet-1",
		Action:   "favorite this pet",
		Current:  Display{Active: false, Count: 0},
		Apply:    shown.apply,
		Confirm: func(ctx context.Context, id string) ([]string, error) {
			optimistic = shown.last()
			return []string{"u1"}, nil
		},
	})

	assert.Equal(t, Display{Active: true, Count: 1}, optimistic, "flip happens before the server call")
	assert.Equal(t, Confirmed, out.Result)
	assert.Equal(t, Display{Active: true, Count: 1}, out.Display)
	assert.Equal(t, Display{Active: true, Count: 1}, shown.last())
	assert.Empty(t, rec.All())
}

func TestToggle_ServerRejection(t *testing.T) {
	rec := notify.NewRecorder()
	tg := New(signedIn("u1"), rec, nil)
	var shown displayLog

	out := tg.Toggle(context.Background(), Request{
		EntityID: "post-1",
		Action:   "like this post",
		Current:  Display{Active: false, Count: 0},
		Apply:    shown.apply,
		Confirm: func(ctx context.Context, id string) ([]string, error) {
			return nil, errors.New("HTTP 500")
		},
	})

	require.Len(t, shown.all, 2)
	assert.Equal(t, Display{Active: true, Count: 1}, shown.all[0])
	assert.Equal(t, Display{Active: false, Count: 0}, shown.all[1])
	assert.Equal(t, RolledBack, out.Result)
	assert.EqualError(t, out.Err, "HTTP 500")

	n, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelError, n.Level)
	assert.Contains(t, n.Message, "like this post")
}

func TestToggle_RollbackRestoresExactValues(t *testing.T) {
	starts := []Display{
		{Active: false, Count: 0},
		{Active: false, Count: 7},
		{Active: true, Count: 1},
		{Active: true, Count: 12},
		{Active: true, Count: 0}, // inconsistent input still restored verbatim
	}
	for _, start := range starts {
		tg := New(signedIn("u1"), nil, nil)
		var shown displayLog
		out := tg.Toggle(context.Background(), Request{
			EntityID: "e",
			Current:  start,
			Apply:    shown.apply,
			Confirm: func(context.Context, string) ([]string, error) {
				return nil, errors.New("offline")
			},
		})
		assert.Equal(t, start, shown.last(), "start %+v", start)
		assert.Equal(t, start, out.Display)
	}
}

func TestToggle_ServerWinsOverGuess(t *testing.T) {
	tg := New(signedIn("u1"), nil, nil)
	var shown displayLog

	out := tg.Toggle(context.Background(), Request{
		EntityID: "post-1",
		Current:  Display{Active: false, Count: 2},
		Apply:    shown.apply,
		Confirm: func(context.Context, string) ([]string, error) {
			// someone else's like landed, ours did not
			return []string{"u2", "u3", "u4"}, nil
		},
	})

	assert.Equal(t, Display{Active: true, Count: 3}, shown.all[0])
	assert.Equal(t, Display{Active: false, Count: 3}, out.Display)
	assert.Equal(t, out.Display, shown.last())
}

func TestToggle_SignInRequired(t *testing.T) {
	rec := notify.NewRecorder()
	tg := New(fakeSessions{}, rec, nil)
	called := false

	out := tg.Toggle(context.Background(), Request{
		EntityID: "pet-1",
		Action:   "favorite this pet",
		Apply:    func(Display) { called = true },
		Confirm: func(context.Context, string) ([]string, error) {
			called = true
			return nil, nil
		},
	})

	assert.False(t, called)
	assert.Equal(t, SignInRequired, out.Result)
	assert.ErrorIs(t, out.Err, ErrSignInRequired)
	n, ok := rec.Last()
	require.True(t, ok)
	assert.Contains(t, n.Message, "Sign in to favorite this pet")
}

func TestToggle_InFlightGuard(t *testing.T) {
	tg := New(signedIn("u1"), nil, nil)
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex

	confirm := func(ctx context.Context, id string) ([]string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
		return []string{"u1"}, nil
	}

	done := make(chan Outcome)
	go func() {
		done <- tg.Toggle(context.Background(), Request{
			EntityID: "post-1", Apply: func(Display) {}, Confirm: confirm,
		})
	}()

	require.Eventually(t, func() bool { return tg.InFlight("post-1") }, time.Second, time.Millisecond)

	second := tg.Toggle(context.Background(), Request{
		EntityID: "post-1", Current: Display{Active: true, Count: 1}, Apply: func(Display) {}, Confirm: confirm,
	})
	assert.Equal(t, Busy, second.Result)
	assert.Equal(t, Display{Active: true, Count: 1}, second.Display)

	// other entities are not blocked
	other := tg.Toggle(context.Background(), Request{
		EntityID: "post-2", Apply: func(Display) {},
		Confirm: func(context.Context, string) ([]string, error) { return nil, nil },
	})
	assert.Equal(t, Confirmed, other.Result)

	close(release)
	first := <-done
	assert.Equal(t, Confirmed, first.Result)
	assert.False(t, tg.InFlight("post-1"))

	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()
}

func TestFlip_CounterFloor(t *testing.T) {
	d := Display{Active: true, Count: 0}
	for i := 0; i < 10; i++ {
		d = Flip(d)
		assert.GreaterOrEqual(t, d.Count, 0)
	}
	assert.Equal(t, Display{Active: false, Count: 0}, Flip(Display{Active: true, Count: 0}))
	assert.Equal(t, Display{Active: true, Count: 1}, Flip(Display{Active: false, Count: -3}))
}

func TestToggle_CounterNeverNegative(t *testing.T) {
	tg := New(signedIn("u1"), nil, nil)
	d := Display{Active: true, Count: 0}
	for i := 0; i < 6; i++ {
		fail := i%2 == 0
		out := tg.Toggle(context.Background(), Request{
			EntityID: "e",
			Current:  d,
			Apply: func(v Display) {
				assert.GreaterOrEqual(t, v.Count, 0)
			},
			Confirm: func(context.Context, string) ([]string, error) {
				if fail {
					return nil, errors.New("nope")
				}
				return nil, nil
			},
		})
		d = out.Display
		assert.GreaterOrEqual(t, d.Count, 0)
	}
}

func TestReconcile(t *testing.T) {
	assert.Equal(t, Display{Active: true, Count: 2}, Reconcile([]string{"u1", "u2", "u1"}, "u1"))
	assert.Equal(t, Display{Active: false, Count: 0}, Reconcile(nil, "u1"))
	assert.Equal(t, Display{Active: false, Count: 1}, Reconcile([]string{""}, ""))
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "rolled back", RolledBack.String())
	assert.Equal(t, "busy", Busy.String())
}
