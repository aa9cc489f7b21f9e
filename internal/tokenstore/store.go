// Package tokenstore persists the single bearer token the client holds.
// Stores are raw key-value accessors; they never inspect the token.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"petpal/internal/config"
	"petpal/internal/logger"
)

// ErrNotFound is returned by Get when no token has been stored or it was cleared
var ErrNotFound = errors.New("token not found")

// Store defines the interface for token storage operations
type Store interface {
	Set(ctx context.Context, token string) error
	Get(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// Open returns the backend selected by cfg. A backend that cannot be opened
// degrades to an in-memory store, so the token survives only as long as the
// process does.
func Open(cfg *config.Config, log *zap.Logger) Store {
	log = logger.OrNop(log)

	switch cfg.TokenStore {
	case config.StoreMemory:
		return NewMemoryStore()
	case config.StoreRedis:
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TokenKey)
	default:
		path := cfg.TokenFile
		if path == "" {
			p, err := DefaultPath()
			if err != nil {
				log.Warn("token persistence unavailable, using memory store", zap.Error(err))
				return NewMemoryStore()
			}
			path = p
		}
		return NewFileStore(path)
	}
}

// DefaultPath returns <user config dir>/petpal/token
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "petpal", "token"), nil
}
