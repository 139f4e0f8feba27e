package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/podscribe/podscribe/internal/config"
)

// Store archives transcript outputs (JSON and SRT) outside the primary
// output directory, for publication or long-term retention.
type Store interface {
	// Save stores one output file. key format: {YYYY-MM-DD}/{filename}
	Save(ctx context.Context, key string, data []byte, contentType string) error

	// Exists checks whether an archived file is present.
	Exists(ctx context.Context, key string) bool

	// Type returns "local" or "s3".
	Type() string
}

// New creates a Store from config: a local directory archive, tiered with an
// S3 backup when a bucket is configured. S3 credentials and bucket access
// are verified at startup so misconfiguration fails fast.
func New(cfg *config.Config, localDir string, log zerolog.Logger) (Store, error) {
	local := NewLocalStore(localDir)
	if !cfg.S3Enabled() {
		return local, nil
	}

	s3store, err := NewS3Store(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("s3 init failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s3store.HeadBucket(ctx); err != nil {
		return nil, fmt.Errorf("s3 startup check failed (bucket=%q endpoint=%q): %w",
			cfg.S3Bucket, cfg.S3Endpoint, err)
	}
	log.Info().Str("bucket", cfg.S3Bucket).Str("endpoint", cfg.S3Endpoint).Msg("s3 connection verified")

	return NewTieredStore(local, s3store, log), nil
}

// ArchiveKey builds the date-partitioned key for an output file.
func ArchiveKey(at time.Time, filename string) string {
	return at.Format("2006-01-02") + "/" + filename
}
