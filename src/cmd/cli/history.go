package main

import (
	"context"
	"errors"

	"hserr-agent/src/config"
	"hserr-agent/src/store"
)

var errNoHistory = errors.New("no history database configured; pass --db, or set HSERR_SQLITE_PATH or POSTGRES_DSN")

// openHistory opens the report history. An explicit path or
// HSERR_SQLITE_PATH selects SQLite; otherwise POSTGRES_DSN selects the
// shared store the agents write to.
func openHistory(ctx context.Context, cfg *config.Config, dbPath string) (store.Store, error) {
	if dbPath == "" {
		dbPath = cfg.SQLitePath
	}
	switch {
	case dbPath != "":
		return store.NewSQLiteStore(ctx, dbPath)
	case cfg.PostgresDSN != "":
		return store.NewPostgresStore(ctx, cfg.PostgresDSN)
	}
	return nil, errNoHistory
}
