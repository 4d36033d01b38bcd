package entries

import (
	"context"

	"github.com/voxjournal/voxjournal/internal/server/models"
)

type Repository interface {
	// Create inserts a new entry and fills in the server-assigned ID and
	// timestamps. This is the pipeline's commit point.
	Create(ctx context.Context, entry *models.Entry) (*models.Entry, error)

	// GetByID returns the entry with the given ID if it belongs to userID.
	GetByID(ctx context.Context, userID, id string) (*models.Entry, error)

	// ListByUser returns all of the user's entries, newest first.
	ListByUser(ctx context.Context, userID string) ([]*models.Entry, error)

	// UpdateTranscription overwrites only the transcript and bumps
	// updated_at. Duration and storage paths are never touched.
	UpdateTranscription(ctx context.Context, userID, id, transcription string) error

	// Delete removes the row. The caller is responsible for storage cleanup.
	Delete(ctx context.Context, userID, id string) error
}
