// Package models defines server-side data models persisted in the database.
package models

import "time"

// Entry is one persisted voice-journal record: a reference to the uploaded
// audio plus its transcript and metadata.
type Entry struct {
	// ID is the server-assigned identifier.
	ID string
	// UserID is the owner; every entry has exactly one.
	UserID string
	// Title is a human-readable label, generated from the save time when
	// the client does not supply one.
	Title string

	// AudioPath is the owner-prefixed object-storage key of the recording.
	// An entry is never persisted without it.
	AudioPath string
	// ProcessedPath is the key of a post-processed rendition. It may equal
	// AudioPath; no transformation step is assumed to exist.
	ProcessedPath string

	// Transcription is optional text. Empty means transcription failed or
	// was deferred; the entry is still valid.
	Transcription string

	// DurationSec is the recording length in seconds as measured by the
	// client's own wall-clock timer during capture. It is set exactly once,
	// at creation, and is never recomputed from the audio file: the file's
	// self-reported duration is not trusted.
	DurationSec int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StoragePaths returns the distinct object-storage keys backing the entry.
// Original and processed references may be identical.
func (e *Entry) StoragePaths() []string {
	paths := []string{e.AudioPath}
	if e.ProcessedPath != "" && e.ProcessedPath != e.AudioPath {
		paths = append(paths, e.ProcessedPath)
	}
	return paths
}
