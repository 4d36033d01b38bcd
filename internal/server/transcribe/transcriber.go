// Package transcribe submits recorded audio to the speech-to-text service
// and applies the degradation policy: the pipeline never fails a save
// because of transcription.
package transcribe

import "context"

// Transcriber converts an audio blob into text. Implementations may fail;
// the Service wrapper above them may not.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, languageCode string) (string, error)
}
