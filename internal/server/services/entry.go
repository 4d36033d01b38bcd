package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/voxjournal/voxjournal/internal/common"
	"github.com/voxjournal/voxjournal/internal/logging"
	"github.com/voxjournal/voxjournal/internal/server/models"
	"github.com/voxjournal/voxjournal/internal/server/repositories/repomanager"
	"github.com/voxjournal/voxjournal/internal/server/storage"
	"github.com/voxjournal/voxjournal/internal/server/transcribe"
)

// nowFunc is a seam for deterministic titles and storage keys in tests.
var nowFunc = time.Now

// SaveRequest carries one finalized recording through the pipeline.
type SaveRequest struct {
	// Audio is the finalized blob from the client's recording session.
	Audio []byte
	// ContentType of the blob as reported by the upload (e.g. "audio/wav").
	// It drives the stored object's extension and MIME type.
	ContentType string
	// Title is optional; a date-based title is generated when empty.
	Title string
	// DurationSec is the wall-clock duration measured by the client during
	// recording. This value is authoritative and stored as-is.
	DurationSec int
	// LanguageCode is an optional explicit transcription language.
	LanguageCode string
}

// PlaybackInfo is what a client needs to play a stored entry: a fresh
// signed URL and the authoritative duration to reconcile against the media
// element's self-reported one.
type PlaybackInfo struct {
	URL         string
	DurationSec int
	ExpiresIn   time.Duration
}

// EntryService owns the recording pipeline: upload, transcription,
// persistence, playback resolution and deletion. Steps run strictly in
// sequence; upload and persistence must succeed, transcription is
// best-effort.
type EntryService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	store        storage.ObjectStorage
	transcriber  *transcribe.Service
	signedURLTTL time.Duration
	logger       logging.Logger
}

func NewEntryService(db *sql.DB, m repomanager.RepositoryManager, store storage.ObjectStorage,
	t *transcribe.Service, signedURLTTL time.Duration, l logging.Logger) *EntryService {
	return &EntryService{
		db:           db,
		repomanager:  m,
		store:        store,
		transcriber:  t,
		signedURLTTL: signedURLTTL,
		logger:       l.With("module", "entries"),
	}
}

// Save runs the pipeline for one recording: upload, transcribe, persist.
//
// Failure semantics:
//   - upload failure: ErrUploadFailed, no row is created;
//   - transcription trouble: never a failure, the stage substitutes a
//     placeholder;
//   - persistence failure: ErrPersistenceFailed; the uploaded object is left
//     behind (orphaned, logged) rather than silently lost.
func (s *EntryService) Save(ctx context.Context, userID string, req *SaveRequest) (*models.Entry, error) {
	if userID == "" {
		return nil, common.ErrUnauthorized
	}
	if len(req.Audio) == 0 {
		return nil, fmt.Errorf("%w: empty recording", common.ErrUploadFailed)
	}

	now := nowFunc()

	filename := storage.RecordingFilename(now, req.ContentType)
	key := storage.OwnerKey(userID, filename)
	audioPath, err := s.store.Upload(ctx, key, bytes.NewReader(req.Audio), req.ContentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUploadFailed, err)
	}

	// Total function: always yields text, possibly a placeholder.
	text := s.transcriber.Text(ctx, req.Audio, filename, req.LanguageCode)

	title := req.Title
	if title == "" {
		title = "Journal entry " + now.Format("2006-01-02 15:04")
	}

	entry := &models.Entry{
		UserID:        userID,
		Title:         title,
		AudioPath:     audioPath,
		ProcessedPath: audioPath,
		Transcription: text,
		DurationSec:   req.DurationSec,
	}

	repo := s.repomanager.Entries(s.db)
	saved, err := repo.Create(ctx, entry)
	if err != nil {
		s.logger.Error(ctx, "entry persistence failed, uploaded object orphaned",
			"key", audioPath, "error", err.Error())
		return nil, fmt.Errorf("%w: %v", common.ErrPersistenceFailed, err)
	}

	s.logger.Info(ctx, "entry saved", "entry_id", saved.ID, "duration_sec", saved.DurationSec)
	return saved, nil
}

// List returns the user's entries, newest first.
func (s *EntryService) List(ctx context.Context, userID string) ([]*models.Entry, error) {
	if userID == "" {
		return nil, common.ErrUnauthorized
	}
	return s.repomanager.Entries(s.db).ListByUser(ctx, userID)
}

// Get returns one entry owned by userID.
func (s *EntryService) Get(ctx context.Context, userID, id string) (*models.Entry, error) {
	if userID == "" {
		return nil, common.ErrUnauthorized
	}
	return s.repomanager.Entries(s.db).GetByID(ctx, userID, id)
}

// Playback mints a fresh signed URL for the entry's audio and returns it
// together with the stored duration. URLs are never cached across calls:
// each playback session requests its own.
func (s *EntryService) Playback(ctx context.Context, userID, id string) (*PlaybackInfo, error) {
	entry, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	url, err := s.store.SignedURL(ctx, entry.AudioPath, s.signedURLTTL)
	if err != nil {
		return nil, fmt.Errorf("error signing playback url: %w", err)
	}

	return &PlaybackInfo{
		URL:         url,
		DurationSec: entry.DurationSec,
		ExpiresIn:   s.signedURLTTL,
	}, nil
}

// RegenerateTranscription re-runs the transcription stage over the stored
// blob and overwrites the transcript. This is destructive: callers are
// responsible for user confirmation. Duration and storage paths are never
// touched; only updated_at moves.
func (s *EntryService) RegenerateTranscription(ctx context.Context, userID, id, languageCode string) (*models.Entry, error) {
	entry, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	audio, err := s.store.Download(ctx, entry.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("error fetching stored audio: %w", err)
	}

	text := s.transcriber.Text(ctx, audio, entry.AudioPath, languageCode)

	repo := s.repomanager.Entries(s.db)
	if err := repo.UpdateTranscription(ctx, userID, id, text); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrPersistenceFailed, err)
	}

	return repo.GetByID(ctx, userID, id)
}

// Delete removes the entry's storage objects and its row. Object removal is
// best-effort: a storage failure is logged and swallowed, the row delete
// proceeds. A row-delete failure makes the whole operation fail; the row is
// the source of truth for whether an entry exists.
func (s *EntryService) Delete(ctx context.Context, userID, id string) error {
	entry, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.store.Remove(ctx, entry.StoragePaths()); err != nil {
		s.logger.Warn(ctx, "storage cleanup failed, continuing with row delete",
			"entry_id", id, "error", err.Error())
	}

	repo := s.repomanager.Entries(s.db)
	if err := repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrPersistenceFailed, err)
	}

	s.logger.Info(ctx, "entry deleted", "entry_id", id)
	return nil
}
