package store

import (
	"path/filepath"
	"testing"

	"github.com/stellarlinkco/sandbench/internal/config"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("NilConfig", func(t *testing.T) {
		if _, err := Open(nil); err == nil {
			t.Fatal("expected error for nil config")
		}
	})

	t.Run("Memory", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Storage.Type = "memory"
		st, err := Open(cfg)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer st.Close()
	})

	t.Run("SQLiteDefaultType", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Storage.Path = filepath.Join(t.TempDir(), "bench.db")
		st, err := Open(cfg)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer st.Close()
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Storage.Type = "postgres"
		if _, err := Open(cfg); err == nil {
			t.Fatal("expected error for unsupported type")
		}
	})
}
