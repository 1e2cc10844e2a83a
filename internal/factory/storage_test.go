package factory

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pantrylab/pantry-service/internal/config"
)

func TestNewStoreMemoryDriver(t *testing.T) {
	cfg := config.NewForTesting()
	st, err := NewStore(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if st == nil {
		t.Fatal("expected store, got nil")
	}
}

func TestNewStorePostgresRequiresDSN(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.DBDriver = "postgres"
	cfg.PostgresDSN = ""
	if _, err := NewStore(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected error for missing DSN")
	}
}

func TestNewStoreSpannerRequiresCoordinates(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.DBDriver = "spanner"
	if _, err := NewStore(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected error for missing spanner coordinates")
	}
}

func TestNewStoreRejectsUnknownDriver(t *testing.T) {
	cfg := config.NewForTesting()
	cfg.DBDriver = "oracle"
	if _, err := NewStore(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
