// Package entries provides the PostgreSQL-backed repository for voice-journal
// entry persistence.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/voxjournal/voxjournal/internal/common"
	"github.com/voxjournal/voxjournal/internal/dbx"
	"github.com/voxjournal/voxjournal/internal/server/models"
)

// PostgresRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new entry row and returns it with the server-assigned ID
// and timestamps. Nothing about a recording is durable before this succeeds.
func (r *PostgresRepository) Create(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	query := `
		INSERT INTO entries (user_id, title, audio_path, processed_path, transcription, duration_sec)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		entry.UserID, entry.Title, entry.AudioPath, entry.ProcessedPath, entry.Transcription, entry.DurationSec).
		Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entry, nil
}

// GetByID returns the entry owned by userID, or common.ErrNotFound. The
// owner check is part of the query so a caller can never read another
// user's row.
func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.Entry, error) {
	query := `
		SELECT id, user_id, title, audio_path, processed_path, transcription, duration_sec, created_at, updated_at
		FROM entries
		WHERE id = $1 AND user_id = $2
	`
	item := &models.Entry{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&item.ID, &item.UserID, &item.Title, &item.AudioPath, &item.ProcessedPath,
		&item.Transcription, &item.DurationSec, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return item, nil
}

// ListByUser returns all entries for userID, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Entry, error) {
	query := `
		SELECT id, user_id, title, audio_path, processed_path, transcription, duration_sec, created_at, updated_at
		FROM entries
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		var item models.Entry
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Title, &item.AudioPath, &item.ProcessedPath,
			&item.Transcription, &item.DurationSec, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateTranscription rewrites the transcript column and bumps updated_at.
// It never touches duration_sec or the storage paths.
func (r *PostgresRepository) UpdateTranscription(ctx context.Context, userID, id, transcription string) error {
	query := `
		UPDATE entries
		SET transcription = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID, transcription)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Delete removes the entry row owned by userID.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `
		DELETE FROM entries
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
