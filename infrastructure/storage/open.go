// Package storage implements the relay's Gateway on Badger and on sqlite.
package storage

import (
	"chat-relay/errors"
	"chat-relay/repositories"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const (
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

type Options struct {
	Driver         string
	BadgerFilepath string
	SQLiteFilepath string
}

// Open returns the Gateway selected by opts.Driver.
func Open(opts Options, log *slog.Logger) (repositories.Gateway, error) {
	switch strings.ToLower(opts.Driver) {
	case DriverBadger, "":
		return OpenBadger(opts.BadgerFilepath, log)
	case DriverSQLite:
		if dir := filepath.Dir(opts.SQLiteFilepath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite directory: %w", err)
			}
		}
		return NewSQLiteGateway(opts.SQLiteFilepath, log)
	default:
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownStorageDriver, opts.Driver)
	}
}

func OpenBadger(path string, log *slog.Logger) (*BadgerGateway, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING))
	if err != nil {
		return nil, fmt.Errorf("database opening failed: %w", err)
	}
	gateway, err := NewBadgerGateway(db, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return gateway, nil
}
