package database

import (
	"context"
	"encoding/json"
	"time"
)

// TranscriptRow is one indexed transcript. The full JSON document lives in
// the transcript column; the remaining columns exist for listing and search.
type TranscriptRow struct {
	ID            int64           `json:"id"`
	Source        string          `json:"source"`
	Model         string          `json:"model"`
	Language      string          `json:"language"`
	Duration      float64         `json:"duration"`
	SegmentsCount int             `json:"segments_count"`
	FullText      string          `json:"full_text"`
	Transcript    json.RawMessage `json:"transcript,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ensureSchema creates the transcripts table on first connect. A single
// table with no migration chain is enough for this index.
func (db *DB) ensureSchema(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transcripts (
			id              BIGSERIAL PRIMARY KEY,
			source          TEXT NOT NULL,
			model           TEXT NOT NULL,
			language        TEXT NOT NULL,
			duration        DOUBLE PRECISION NOT NULL,
			segments_count  INTEGER NOT NULL,
			full_text       TEXT NOT NULL,
			transcript      JSONB NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS transcripts_created_at_idx ON transcripts (created_at DESC);
	`)
	return err
}

// InsertTranscript stores one transcript and returns its id.
func (db *DB) InsertTranscript(ctx context.Context, row *TranscriptRow) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO transcripts (source, model, language, duration, segments_count, full_text, transcript)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		row.Source, row.Model, row.Language, row.Duration,
		row.SegmentsCount, row.FullText, row.Transcript,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ListTranscripts returns recent transcripts, newest first, without the full
// JSON document.
func (db *DB) ListTranscripts(ctx context.Context, limit, offset int) ([]TranscriptRow, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, source, model, language, duration, segments_count, full_text, created_at
		FROM transcripts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TranscriptRow{}
	for rows.Next() {
		var r TranscriptRow
		if err := rows.Scan(&r.ID, &r.Source, &r.Model, &r.Language,
			&r.Duration, &r.SegmentsCount, &r.FullText, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetTranscript returns one transcript with its full JSON document, or
// pgx.ErrNoRows if absent.
func (db *DB) GetTranscript(ctx context.Context, id int64) (*TranscriptRow, error) {
	var r TranscriptRow
	err := db.Pool.QueryRow(ctx, `
		SELECT id, source, model, language, duration, segments_count, full_text, transcript, created_at
		FROM transcripts
		WHERE id = $1`, id).
		Scan(&r.ID, &r.Source, &r.Model, &r.Language, &r.Duration,
			&r.SegmentsCount, &r.FullText, &r.Transcript, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// SearchTranscripts does a simple substring search over full_text.
func (db *DB) SearchTranscripts(ctx context.Context, query string, limit int) ([]TranscriptRow, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, source, model, language, duration, segments_count, full_text, created_at
		FROM transcripts
		WHERE full_text ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC
		LIMIT $2`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TranscriptRow{}
	for rows.Next() {
		var r TranscriptRow
		if err := rows.Scan(&r.ID, &r.Source, &r.Model, &r.Language,
			&r.Duration, &r.SegmentsCount, &r.FullText, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
