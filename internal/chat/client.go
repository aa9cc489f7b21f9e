// Package chat connects the signed-in user to the hosted chat service.
package chat

import (
	"context"
	"strings"
	"time"
)

// Credentials authenticate a chat connection
type Credentials struct {
	APIKey string
	UserID string
	Token  string
}

// Message is one chat message
type Message struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	SentAt    time.Time `json:"sent_at"`
}

// Subscription stops delivery when unsubscribed
type Subscription interface {
	Unsubscribe() error
}

// Client is a real-time chat connection
type Client interface {
	Connect(ctx context.Context, creds Credentials) error
	Watch(ctx context.Context, channelID string, fn func(Message)) (Subscription, error)
	Send(ctx context.Context, channelID string, msg Message) error
	Close()
}

// DirectChannelID returns the channel shared by two members. The result does
// not depend on argument order.
func DirectChannelID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "dm." + sanitize(a) + "." + sanitize(b)
}

// sanitize keeps ids usable as subject tokens
func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, id)
}
