package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

// flakyStore is a backup tier whose writes can be made to fail.
type flakyStore struct {
	saves int
	fail  bool
	keys  map[string]bool
}

func (s *flakyStore) Save(ctx context.Context, key string, data []byte, contentType string) error {
	s.saves++
	if s.fail {
		return errors.New("backup unavailable")
	}
	if s.keys == nil {
		s.keys = map[string]bool{}
	}
	s.keys[key] = true
	return nil
}

func (s *flakyStore) Exists(ctx context.Context, key string) bool { return s.keys[key] }
func (s *flakyStore) Type() string                                { return "flaky" }

func TestTieredStore(t *testing.T) {
	ctx := context.Background()

	t.Run("writes_both_tiers", func(t *testing.T) {
		dir := t.TempDir()
		backup := &flakyStore{}
		s := NewTieredStore(NewLocalStore(dir), backup, zerolog.Nop())

		if err := s.Save(ctx, "2026-08-23/ep.json", []byte("{}"), "application/json"); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "2026-08-23", "ep.json")); err != nil {
			t.Errorf("local tier missing file: %v", err)
		}
		if backup.saves != 1 {
			t.Errorf("backup saves = %d, want 1", backup.saves)
		}
		if s.Type() != "tiered" {
			t.Errorf("Type = %q", s.Type())
		}
	})

	t.Run("backup_failure_is_not_fatal", func(t *testing.T) {
		dir := t.TempDir()
		s := NewTieredStore(NewLocalStore(dir), &flakyStore{fail: true}, zerolog.Nop())

		if err := s.Save(ctx, "k/ep.srt", []byte("1\n"), "text/plain"); err != nil {
			t.Fatalf("Save should succeed on local tier alone: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "k", "ep.srt")); err != nil {
			t.Errorf("local tier missing file: %v", err)
		}
	})

	t.Run("local_failure_is_fatal", func(t *testing.T) {
		dir := t.TempDir()
		// A file where the store expects a directory makes local writes fail.
		if err := os.WriteFile(filepath.Join(dir, "blocked"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		s := NewTieredStore(NewLocalStore(filepath.Join(dir, "blocked")), &flakyStore{}, zerolog.Nop())

		if err := s.Save(ctx, "a/b.json", []byte("{}"), "application/json"); err == nil {
			t.Error("expected error when the local tier cannot write")
		}
	})

	t.Run("exists_falls_back_to_backup", func(t *testing.T) {
		backup := &flakyStore{keys: map[string]bool{"only/backup.json": true}}
		s := NewTieredStore(NewLocalStore(t.TempDir()), backup, zerolog.Nop())

		if !s.Exists(ctx, "only/backup.json") {
			t.Error("Exists should consult the backup tier")
		}
		if s.Exists(ctx, "nowhere.json") {
			t.Error("Exists = true for absent key")
		}
	})
}
