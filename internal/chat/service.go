package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"petpal/internal/api"
	"petpal/internal/logger"
	"petpal/internal/session"
)

// SessionSource exposes the current session
type SessionSource interface {
	ActiveSession(ctx context.Context) (*session.Session, bool)
}

// TokenExchanger trades the session for a chat token
type TokenExchanger interface {
	ChatToken(ctx context.Context) (*api.ChatToken, error)
}

// Service opens chat for the signed-in user
type Service struct {
	sessions SessionSource
	tokens   TokenExchanger
	client   Client
	apiKey   string
	log      *zap.Logger

	userID string
}

// NewService creates a chat service using client for the connection
func NewService(sessions SessionSource, tokens TokenExchanger, client Client, apiKey string, log *zap.Logger) *Service {
	return &Service{
		sessions: sessions,
		tokens:   tokens,
		client:   client,
		apiKey:   apiKey,
		log:      logger.OrNop(log),
	}
}

// Connect exchanges the session for a chat token and connects
func (s *Service) Connect(ctx context.Context) error {
	sess, ok := s.sessions.ActiveSession(ctx)
	if !ok {
		return session.ErrSignInRequired
	}

	tok, err := s.tokens.ChatToken(ctx)
	if err != nil {
		return fmt.Errorf("get chat token: %w", err)
	}
	userID := tok.UserID
	if userID == "" {
		userID = sess.SubjectID
	}

	if err := s.client.Connect(ctx, Credentials{APIKey: s.apiKey, UserID: userID, Token: tok.Token}); err != nil {
		return err
	}
	s.userID = userID
	s.log.Info("chat ready", zap.String("user_id", userID))
	return nil
}

// UserID is the connected chat identity
func (s *Service) UserID() string {
	return s.userID
}

// SendDirect messages another member, e.g. a pet's owner
func (s *Service) SendDirect(ctx context.Context, to, text string) error {
	if s.userID == "" {
		return ErrNotConnected
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("message is empty")
	}
	return s.client.Send(ctx, DirectChannelID(s.userID, to), Message{SenderID: s.userID, Text: text})
}

// WatchDirect delivers the conversation with another member to fn
func (s *Service) WatchDirect(ctx context.Context, with string, fn func(Message)) (Subscription, error) {
	if s.userID == "" {
		return nil, ErrNotConnected
	}
	return s.client.Watch(ctx, DirectChannelID(s.userID, with), fn)
}

// Close ends the connection
func (s *Service) Close() {
	s.client.Close()
	s.userID = ""
}
