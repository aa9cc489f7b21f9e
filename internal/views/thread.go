package views

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"petpal/internal/api"
	"petpal/internal/logger"
	"petpal/internal/notify"
	"petpal/internal/optimistic"
	"petpal/internal/session"
)

// MaxCommentLength is the longest comment the backend accepts
const MaxCommentLength = 500

// CommentAPI is the part of the API a thread needs
type CommentAPI interface {
	ListComments(ctx context.Context, postID string) ([]api.Comment, error)
	AddComment(ctx context.Context, postID, body string) (*api.Comment, error)
	DeleteComment(ctx context.Context, commentID string) error
}

// Thread shows the comments of one post
type Thread struct {
	postID   string
	api      CommentAPI
	sessions optimistic.SessionSource
	notifier notify.Notifier
	log      *zap.Logger

	mu         sync.Mutex
	mounted    bool
	generation int
	comments   []api.Comment
}

// NewThread creates a comment thread for postID
func NewThread(postID string, c CommentAPI, sessions optimistic.SessionSource, notifier notify.Notifier, log *zap.Logger) *Thread {
	if notifier == nil {
		notifier = notify.Multi{}
	}
	return &Thread{
		postID:   postID,
		api:      c,
		sessions: sessions,
		notifier: notifier,
		log:      logger.OrNop(log),
	}
}

// Mount loads the comments
func (t *Thread) Mount(ctx context.Context) error {
	t.mu.Lock()
	t.generation++
	gen := t.generation
	t.mounted = true
	t.mu.Unlock()

	list, err := t.api.ListComments(ctx, t.postID)

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.mounted || gen != t.generation {
		return nil
	}
	if err != nil {
		t.fail("load comments", err)
		return fmt.Errorf("load comments: %w", err)
	}
	t.comments = list
	return nil
}

// Unmount detaches the thread
func (t *Thread) Unmount() {
	t.mu.Lock()
	t.mounted = false
	t.generation++
	t.mu.Unlock()
}

// Comments returns a snapshot, oldest first
func (t *Thread) Comments() []api.Comment {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.comments)
}

// Add posts a comment as the signed-in user
func (t *Thread) Add(ctx context.Context, body string) (*api.Comment, error) {
	if _, ok := t.sessions.ActiveSession(ctx); !ok {
		t.notifier.Notify(notify.Notification{
			Level:   notify.LevelInfo,
			Title:   "Sign in required",
			Message: "Sign in to comment.",
		})
		return nil, session.ErrSignInRequired
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, errors.New("comment is empty")
	}
	if utf8.RuneCountInString(body) > MaxCommentLength {
		return nil, fmt.Errorf("comment too long (max %d characters)", MaxCommentLength)
	}

	t.mu.Lock()
	gen := t.generation
	t.mu.Unlock()

	cm, err := t.api.AddComment(ctx, t.postID, body)
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.fail("post your comment", err)
		return nil, err
	}
	if t.mounted && gen == t.generation {
		t.comments = append(t.comments, *cm)
	}
	return cm, nil
}

// Remove deletes one of the user's comments
func (t *Thread) Remove(ctx context.Context, commentID string) error {
	if _, ok := t.sessions.ActiveSession(ctx); !ok {
		return session.ErrSignInRequired
	}

	err := t.api.DeleteComment(ctx, commentID)
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.fail("delete the comment", err)
		return err
	}
	t.comments = slices.DeleteFunc(t.comments, func(c api.Comment) bool { return c.ID == commentID })
	return nil
}

// fail reports a user-visible error; callers hold t.mu
func (t *Thread) fail(action string, err error) {
	t.log.Warn("comment request failed", zap.String("post_id", t.postID), zap.String("action", action), zap.Error(err))
	t.notifier.Notify(notify.Notification{
		Level:   notify.LevelError,
		Title:   "Something went wrong",
		Message: fmt.Sprintf("Could not %s. Please try again.", action),
		Err:     err,
	})
}
