package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"petpal/internal/logger"
)

// SubjectPrefix is prepended to channel ids to form NATS subjects
const SubjectPrefix = "chat."

const flushTimeout = 5 * time.Second

// ErrNotConnected is returned before Connect succeeds or after Close
var ErrNotConnected = errors.New("chat: not connected")

// NATSClient is a Client backed by a NATS connection
type NATSClient struct {
	url  string
	name string
	log  *zap.Logger

	mu     sync.RWMutex
	conn   *nats.Conn
	userID string
}

// NewNATSClient creates a client for the server at url. Nothing is dialed
// until Connect.
func NewNATSClient(url string, log *zap.Logger) *NATSClient {
	return &NATSClient{url: url, name: "petpal", log: logger.OrNop(log)}
}

// Connect dials the chat server with the API key and chat token as user
// credentials. A connected client is closed first.
func (c *NATSClient) Connect(ctx context.Context, creds Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := 5 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}

	conn, err := nats.Connect(c.url,
		nats.Name(c.name),
		nats.UserInfo(creds.APIKey, creds.Token),
		nats.Timeout(timeout),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				c.log.Warn("chat disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			c.log.Info("chat reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return fmt.Errorf("connect to chat: %w", err)
	}

	c.mu.Lock()
	old := c.conn
	c.conn = conn
	c.userID = creds.UserID
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}
	c.log.Debug("chat connected", zap.String("user_id", creds.UserID))
	return nil
}

func (c *NATSClient) current() (*nats.Conn, string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil || c.conn.IsClosed() {
		return nil, "", ErrNotConnected
	}
	return c.conn, c.userID, nil
}

// Watch delivers messages on channelID to fn until the subscription ends.
// Malformed payloads are logged and skipped.
func (c *NATSClient) Watch(ctx context.Context, channelID string, fn func(Message)) (Subscription, error) {
	conn, _, err := c.current()
	if err != nil {
		return nil, err
	}

	sub, err := conn.Subscribe(SubjectPrefix+channelID, func(m *nats.Msg) {
		var msg Message
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			c.log.Warn("dropping malformed chat message", zap.String("subject", m.Subject), zap.Error(err))
			return
		}
		fn(msg)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", channelID, err)
	}
	if err := flush(ctx, conn); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("subscribe %s: %w", channelID, err)
	}
	return sub, nil
}

// Send publishes msg on channelID. Id, channel, sender and time are filled
// in when empty.
func (c *NATSClient) Send(ctx context.Context, channelID string, msg Message) error {
	conn, userID, err := c.current()
	if err != nil {
		return err
	}

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.ChannelID = channelID
	if msg.SenderID == "" {
		msg.SenderID = userID
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := conn.Publish(SubjectPrefix+channelID, data); err != nil {
		return fmt.Errorf("publish to %s: %w", channelID, err)
	}
	return flush(ctx, conn)
}

// flush waits for the server to process pending writes. NATS needs a
// deadline, so one is added when ctx has none.
func flush(ctx context.Context, conn *nats.Conn) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flushTimeout)
		defer cancel()
	}
	return conn.FlushWithContext(ctx)
}

// Close drains and closes the connection
func (c *NATSClient) Close() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return
	}
	if err := conn.Drain(); err != nil {
		conn.Close()
	}
}
