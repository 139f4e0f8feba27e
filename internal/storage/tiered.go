package storage

import (
	"context"

	"github.com/rs/zerolog"
)

// TieredStore combines a local archive (source of truth) with a remote
// backup. Write path: save locally first and never block on the backup; a
// backup failure costs durability, not the transcript.
type TieredStore struct {
	local  Store
	backup Store
	log    zerolog.Logger
}

// NewTieredStore creates a tiered local-primary + remote-backup store.
func NewTieredStore(local, backup Store, log zerolog.Logger) *TieredStore {
	return &TieredStore{
		local:  local,
		backup: backup,
		log:    log.With().Str("component", "tiered-store").Logger(),
	}
}

// Save writes to the local tier first (fatal on failure), then the backup
// tier (warning on failure).
func (s *TieredStore) Save(ctx context.Context, key string, data []byte, contentType string) error {
	if err := s.local.Save(ctx, key, data, contentType); err != nil {
		return err
	}
	if err := s.backup.Save(ctx, key, data, contentType); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("backup write failed")
	}
	return nil
}

// Exists checks the local tier first, then the backup.
func (s *TieredStore) Exists(ctx context.Context, key string) bool {
	if s.local.Exists(ctx, key) {
		return true
	}
	return s.backup.Exists(ctx, key)
}

func (s *TieredStore) Type() string { return "tiered" }
