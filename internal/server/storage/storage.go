// Package storage abstracts the object store holding uploaded recordings.
// Keys are always prefixed with the owner's user ID; that prefix is the
// access-control boundary enforced by bucket policy.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// ObjectStorage is the contract the entry pipeline depends on.
type ObjectStorage interface {
	// Upload writes the blob under key and returns the key as the stable
	// reference. No partial-write recovery: an interrupted upload fails and
	// must be restarted from a fresh blob.
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)

	// Download returns the stored object's bytes (used for transcript
	// regeneration).
	Download(ctx context.Context, key string) ([]byte, error)

	// SignedURL mints a fresh time-boxed read URL for key. Callers must not
	// persist or reuse the URL past its expiry.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Remove deletes the given keys. Best-effort: the caller decides
	// whether a failure is fatal.
	Remove(ctx context.Context, keys []string) error
}

// OwnerKey builds the owner-scoped object key for a recording filename.
func OwnerKey(userID, filename string) string {
	return fmt.Sprintf("%s/%s", userID, filename)
}

// RecordingFilename generates the object filename for a recording finalized
// at time t. The extension follows the uploaded blob's content type.
func RecordingFilename(t time.Time, contentType string) string {
	return fmt.Sprintf("recording_%d%s", t.Unix(), extensionFor(contentType))
}

// extensionFor maps an upload MIME type onto the stored object's extension.
// Unknown types get a neutral .bin rather than a wrong label.
func extensionFor(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "wav"):
		return ".wav"
	case strings.Contains(ct, "webm"):
		return ".webm"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	case strings.Contains(ct, "mpeg"), strings.Contains(ct, "mp3"):
		return ".mp3"
	default:
		return ".bin"
	}
}
