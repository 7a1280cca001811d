package postgres

import (
	"context"
	"os"
	"testing"

	"scenario-engine/internal/simulation"
	"scenario-engine/internal/store"
)

var _ store.Store = (*Store)(nil)
var _ store.Lister = (*Store)(nil)

// Runs only when SCENARIO_TEST_POSTGRES_DSN points at a disposable database.
func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("SCENARIO_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SCENARIO_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	owner := "pg-test-owner"
	in := simulation.DefaultInput()
	in.SponsorCount = 3
	if err := s.Save(ctx, owner, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	in.SponsorCount = 4
	if err := s.Save(ctx, owner, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, owner)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.SponsorCount != 4 {
		t.Fatalf("Load = %+v, want sponsor count 4", got)
	}
	if missing, err := s.Load(ctx, "pg-test-missing"); err != nil || missing != nil {
		t.Fatalf("Load missing = %v, %v", missing, err)
	}
}
