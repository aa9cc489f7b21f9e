package chat

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runServer(t *testing.T) *server.Server {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	})
	require.NoError(t, err)
	go ns.Start()
	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS server failed to start")
	}
	t.Cleanup(ns.Shutdown)
	return ns
}

func TestNATSClient_SendAndWatch(t *testing.T) {
	ns := runServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := NewNATSClient(ns.ClientURL(), nil)
	require.NoError(t, alice.Connect(ctx, Credentials{APIKey: "key", UserID: "u-1", Token: "tok-1"}))
	defer alice.Close()

	bob := NewNATSClient(ns.ClientURL(), nil)
	require.NoError(t, bob.Connect(ctx, Credentials{APIKey: "key", UserID: "u-2", Token: "tok-2"}))
	defer bob.Close()

	channel := DirectChannelID("u-1", "u-2")
	got := make(chan Message, 1)
	sub, err := bob.Watch(ctx, channel, func(m Message) { got <- m })
	require.NoError(t, err)
	defer sub.Unsubscribe()

	// no deadline on the send context
	require.NoError(t, alice.Send(context.Background(), channel, Message{Text: "is Rex still available?"}))

	select {
	case m := <-got:
		assert.Equal(t, "is Rex still available?", m.Text)
		assert.Equal(t, "u-1", m.SenderID)
		assert.Equal(t, channel, m.ChannelID)
		assert.NotEmpty(t, m.ID)
		assert.False(t, m.SentAt.IsZero())
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}

func TestNATSClient_NotConnected(t *testing.T) {
	c := NewNATSClient("nats://127.0.0.1:1", nil)
	ctx := context.Background()

	assert.ErrorIs(t, c.Send(ctx, "x", Message{Text: "hi"}), ErrNotConnected)
	_, err := c.Watch(ctx, "x", func(Message) {})
	assert.ErrorIs(t, err, ErrNotConnected)
	c.Close()
}

func TestDirectChannelID(t *testing.T) {
	assert.Equal(t, DirectChannelID("u-1", "u-2"), DirectChannelID("u-2", "u-1"))
	assert.Equal(t, "dm.a_b.c", DirectChannelID("c", "a.b"))
	assert.NotEqual(t, DirectChannelID("u-1", "u-2"), DirectChannelID("u-1", "u-3"))
}
