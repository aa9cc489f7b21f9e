package views

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"petpal/internal/api"
	"petpal/internal/logger"
	"petpal/internal/notify"
	"petpal/internal/optimistic"
)

// ErrUnknownEntity is returned when toggling an entity the board never loaded
var ErrUnknownEntity = errors.New("entity not on this board")

// ListFunc fetches a board's entities
type ListFunc[T api.Likeable] func(ctx context.Context) ([]T, error)

// Item is an entity with its displayed toggle state
type Item[T api.Likeable] struct {
	Entity  T
	Display optimistic.Display
}

// BoardDeps are the collaborators every board shares
type BoardDeps struct {
	Sessions optimistic.SessionSource
	Toggler  *optimistic.Toggler
	Notifier notify.Notifier
	Log      *zap.Logger
}

// Board is a list of likeable entities with optimistic toggles
type Board[T api.Likeable] struct {
	list    ListFunc[T]
	confirm optimistic.ConfirmFunc
	action  string
	what    string
	deps    BoardDeps
	log     *zap.Logger

	mu         sync.Mutex
	mounted    bool
	generation int
	items      []T
	display    map[string]optimistic.Display
}

// NewBoard creates a board. Action names the toggle in notifications and
// what names the listed entities.
func NewBoard[T api.Likeable](list ListFunc[T], confirm optimistic.ConfirmFunc, action, what string, deps BoardDeps) *Board[T] {
	if deps.Notifier == nil {
		deps.Notifier = notify.Multi{}
	}
	if deps.Toggler == nil {
		deps.Toggler = optimistic.New(deps.Sessions, deps.Notifier, deps.Log)
	}
	return &Board[T]{
		list:    list,
		confirm: confirm,
		action:  action,
		what:    what,
		deps:    deps,
		log:     logger.OrNop(deps.Log),
		display: map[string]optimistic.Display{},
	}
}

// PetLister is the part of the API a pet board needs
type PetLister interface {
	ListPets(ctx context.Context, f api.PetFilter) ([]api.Pet, error)
	TogglePetLove(ctx context.Context, petID string) ([]string, error)
}

// NewPetBoard lists adoption pets with favorite toggles
func NewPetBoard(c PetLister, f api.PetFilter, deps BoardDeps) *Board[api.Pet] {
	return NewBoard[api.Pet](
		func(ctx context.Context) ([]api.Pet, error) { return c.ListPets(ctx, f) },
		c.TogglePetLove,
		"favorite this pet",
		"pets",
		deps,
	)
}

// PostLister is the part of the API a post feed needs
type PostLister interface {
	ListPosts(ctx context.Context, page, limit int) ([]api.Post, error)
	TogglePostLike(ctx context.Context, postID string) ([]string, error)
}

// NewPostFeed lists community posts with like toggles
func NewPostFeed(c PostLister, page, limit int, deps BoardDeps) *Board[api.Post] {
	return NewBoard[api.Post](
		func(ctx context.Context) ([]api.Post, error) { return c.ListPosts(ctx, page, limit) },
		c.TogglePostLike,
		"like this post",
		"posts",
		deps,
	)
}

func (b *Board[T]) subject(ctx context.Context) string {
	if b.deps.Sessions == nil {
		return ""
	}
	if sess, ok := b.deps.Sessions.ActiveSession(ctx); ok {
		return sess.SubjectID
	}
	return ""
}

// Mount fetches the entities. A failure is reported to the user and
// returned; a response arriving after Unmount is discarded.
func (b *Board[T]) Mount(ctx context.Context) error {
	b.mu.Lock()
	b.generation++
	gen := b.generation
	b.mounted = true
	b.mu.Unlock()

	items, err := b.list(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.mounted || gen != b.generation {
		b.log.Debug("discarding response for unmounted board", zap.String("board", b.what))
		return nil
	}
	if err != nil {
		b.deps.Notifier.Notify(notify.Notification{
			Level:   notify.LevelError,
			Title:   "Something went wrong",
			Message: fmt.Sprintf("Could not load %s. Please try again.", b.what),
			Err:     err,
		})
		return fmt.Errorf("load %s: %w", b.what, err)
	}

	userID := b.subject(ctx)
	b.items = items
	b.display = make(map[string]optimistic.Display, len(items))
	for _, it := range items {
		b.display[it.EntityID()] = optimistic.Reconcile(it.Members(), userID)
	}
	return nil
}

// Unmount detaches the board; pending responses no longer change it
func (b *Board[T]) Unmount() {
	b.mu.Lock()
	b.mounted = false
	b.generation++
	b.mu.Unlock()
}

// Items returns a snapshot of the displayed entities
func (b *Board[T]) Items() []Item[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Item[T], 0, len(b.items))
	for _, it := range b.items {
		out = append(out, Item[T]{Entity: it, Display: b.display[it.EntityID()]})
	}
	return out
}

// Display returns what is shown for one entity
func (b *Board[T]) Display(id string) (optimistic.Display, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.display[id]
	return d, ok
}

// Toggle flips an entity optimistically and reconciles with the server
func (b *Board[T]) Toggle(ctx context.Context, id string) optimistic.Outcome {
	b.mu.Lock()
	current, ok := b.display[id]
	gen := b.generation
	b.mu.Unlock()
	if !ok {
		return optimistic.Outcome{Result: optimistic.RolledBack, Err: ErrUnknownEntity}
	}

	return b.deps.Toggler.Toggle(ctx, optimistic.Request{
		EntityID: id,
		Current:  current,
		Action:   b.action,
		Apply: func(d optimistic.Display) {
			b.mu.Lock()
			defer b.mu.Unlock()
			if b.mounted && gen == b.generation {
				b.display[id] = d
			}
		},
		Confirm: b.confirm,
	})
}
