package tokenstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petpal/internal/config"
)

// exerciseStore runs the shared Set/Get/Clear contract against a backend
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "tok-1"))
	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	require.NoError(t, s.Set(ctx, "tok-2"))
	got, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Get(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	// clearing twice is fine
	require.NoError(t, s.Clear(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	exerciseStore(t, NewFileStore(path))
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "token")

	require.NoError(t, NewFileStore(path).Set(ctx, "persisted"))

	got, err := NewFileStore(path).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_BlankFileIsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	_, err := NewFileStore(path).Get(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

// fakeRedis is an in-memory redisCmdable
type fakeRedis struct {
	data    map[string]string
	err     error
	lastTTL time.Duration
}

func newFakeRedis() *fakeRedis { return &fakeRedis{data: map[string]string{}} }

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.data[key] = value.(string)
	f.lastTTL = expiration
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	v, ok := f.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func TestRedisStore(t *testing.T) {
	fake := newFakeRedis()
	s := newRedisStore(fake, "")
	exerciseStore(t, s)
	assert.Equal(t, "petpal:token", s.key)
}

func TestRedisStore_UsesKeyWithoutTTL(t *testing.T) {
	fake := newFakeRedis()
	s := newRedisStore(fake, "app:tok")

	require.NoError(t, s.Set(context.Background(), "abc"))
	assert.Equal(t, "abc", fake.data["app:tok"])
	assert.Equal(t, time.Duration(0), fake.lastTTL)
}

func TestRedisStore_Unavailable(t *testing.T) {
	fake := newFakeRedis()
	fake.err = errors.New("connection refused")
	s := newRedisStore(fake, "k")

	_, err := s.Get(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Error(t, s.Set(context.Background(), "x"))
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")

	fs, ok := Open(&config.Config{TokenStore: config.StoreFile, TokenFile: path}, nil).(*FileStore)
	require.True(t, ok)
	assert.Equal(t, path, fs.Path())

	_, ok = Open(&config.Config{TokenStore: config.StoreMemory}, nil).(*MemoryStore)
	assert.True(t, ok)

	_, ok = Open(&config.Config{TokenStore: config.StoreRedis, RedisAddr: "localhost:0"}, nil).(*RedisStore)
	assert.True(t, ok)
}
