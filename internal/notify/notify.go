// Package notify carries user-visible alerts from background operations to
// whatever front end is showing them.
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Level of a notification
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notification is a single user-visible message
type Notification struct {
	Level   Level
	Title   string
	Message string
	Err     error
	At      time.Time
}

// Notifier receives notifications
type Notifier interface {
	Notify(Notification)
}

// Func adapts a function to Notifier
type Func func(Notification)

func (f Func) Notify(n Notification) { f(n) }

// Recorder keeps every notification it receives
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Notify records n
func (r *Recorder) Notify(n Notification) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	r.mu.Lock()
	r.all = append(r.all, n)
	r.mu.Unlock()
}

// All returns a copy of every recorded notification
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.all...)
}

// Last returns the most recent notification
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Notification{}, false
	}
	return r.all[len(r.all)-1], true
}

// Drain returns and forgets every recorded notification
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.all
	r.all = nil
	return out
}

// LogNotifier writes notifications to a logger
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier creates a notifier backed by log
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify logs n at a level matching n.Level
func (l *LogNotifier) Notify(n Notification) {
	fields := []zap.Field{zap.String("title", n.Title)}
	if n.Err != nil {
		fields = append(fields, zap.Error(n.Err))
	}
	switch n.Level {
	case LevelError:
		l.log.Error(n.Message, fields...)
	case LevelWarn:
		l.log.Warn(n.Message, fields...)
	default:
		l.log.Info(n.Message, fields...)
	}
}

// Multi fans a notification out to several notifiers
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, x := range m {
		x.Notify(n)
	}
}
