// Package storage persists the small pieces of state that must survive a
// restart: the pinned message reference per chat and the last-known user
// roster for ban detection.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	logx "streamnotify/pkg/logx"
)

var ErrDisabled = errors.New("storage disabled")

// Store is the minimal key-value API the bot uses.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Has(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Config configures storage. If Driver is empty or "none", storage is
// disabled and Open returns (nil, nil).
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // 0 means default
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}

// Well-known keys.
const KeyUsers = "users"

// PinKey is the per-chat key remembering the pinned message id.
func PinKey(chatID int64) string {
	return fmt.Sprintf("chat_%d", chatID)
}
