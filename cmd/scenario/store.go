package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"scenario-engine/db/clickhouse"
	"scenario-engine/db/postgres"
	"scenario-engine/db/sqlite"
	"scenario-engine/internal/store"
	"scenario-engine/pkg/platform"
)

type storeOptions struct {
	Kind   string
	DSN    string
	APIKey string
}

func storeOptionsFrom(c *cli.Context) storeOptions {
	return storeOptions{
		Kind:   strings.ToLower(c.String("store")),
		DSN:    c.String("dsn"),
		APIKey: c.String("api-key"),
	}
}

func noopClose() error { return nil }

// openStore returns the configured backend and a function that releases it.
func openStore(ctx context.Context, opts storeOptions) (store.Store, func() error, error) {
	switch opts.Kind {
	case "memory":
		return store.NewMemoryStore(), noopClose, nil

	case "sqlite", "":
		dsn := opts.DSN
		if dsn == "" {
			dsn = "scenarios.db"
		}
		s, err := sqlite.Open(dsn)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case "postgres":
		s, err := postgres.Open(ctx, opts.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, s.Close, nil

	case "clickhouse":
		var (
			s   *clickhouse.Store
			err error
		)
		switch {
		case opts.DSN == "":
			s, err = clickhouse.NewStore(clickhouse.DefaultConfig())
		case strings.HasPrefix(opts.DSN, "clickhouse://"), strings.HasPrefix(opts.DSN, "tcp://"):
			s, err = clickhouse.NewStoreFromDSN(opts.DSN)
		default:
			return nil, nil, fmt.Errorf("clickhouse store needs --dsn as clickhouse://host:port/db or tcp://host:port, got %q", opts.DSN)
		}
		if err != nil {
			return nil, nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, s.Close, nil

	case "http":
		if opts.DSN == "" || !strings.HasPrefix(opts.DSN, "http") {
			return nil, nil, fmt.Errorf("http store needs --dsn set to the server URL, got %q", opts.DSN)
		}
		client := platform.NewHTTPClient(3, 10*time.Second)
		client.APIKey = opts.APIKey
		return store.NewHTTPStore(opts.DSN, client), noopClose, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q (sqlite, postgres, clickhouse, memory, http)", opts.Kind)
	}
}
