package transcribe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/voxjournal/voxjournal/internal/language"
	"github.com/voxjournal/voxjournal/internal/logging"
)

// APIKeyPrefix is the fixed prefix a well-formed transcription credential
// carries. Anything else counts as malformed and switches the stage into
// placeholder mode.
const APIKeyPrefix = "sk-"

// nowFunc is a seam for deterministic placeholder timestamps in tests.
var nowFunc = time.Now

// Service is the pipeline's transcription stage. Its Text method is total:
// it always returns a non-empty string and never an error, so the save step
// can never fail because of transcription.
type Service struct {
	transcriber     Transcriber
	apiKey          string
	enabled         bool
	defaultLanguage string
	logger          logging.Logger
}

func NewService(t Transcriber, apiKey string, enabled bool, defaultLanguage string, l logging.Logger) *Service {
	if defaultLanguage == "" {
		defaultLanguage = language.DefaultCode
	}
	return &Service{
		transcriber:     t,
		apiKey:          apiKey,
		enabled:         enabled,
		defaultLanguage: defaultLanguage,
		logger:          l.With("module", "transcribe"),
	}
}

// CredentialOK reports whether the configured credential is present and
// well-formed. A bad credential is a recognized, non-fatal condition.
func (s *Service) CredentialOK() bool {
	return strings.HasPrefix(s.apiKey, APIKeyPrefix)
}

// Text transcribes the audio blob, resolving the language as
// explicit > service default. On any degraded or failing condition it
// returns a deterministic placeholder instead of an error.
func (s *Service) Text(ctx context.Context, audio []byte, filename, languageCode string) string {
	lang := language.Resolve(languageCode, s.defaultLanguage, false, "")

	if !s.enabled || !s.CredentialOK() {
		s.logger.Warn(ctx, "transcription unavailable, using placeholder",
			"enabled", s.enabled, "credential_ok", s.CredentialOK())
		return UnavailablePlaceholder(len(audio))
	}

	text, err := s.transcriber.Transcribe(ctx, audio, filename, lang)
	if err != nil {
		s.logger.Error(ctx, "transcription failed, using placeholder", "error", err.Error())
		return FailurePlaceholder(err)
	}
	if text == "" {
		// The service answered with nothing; keep the entry valid anyway.
		return UnavailablePlaceholder(len(audio))
	}
	return text
}

// UnavailablePlaceholder is substituted when the integration is disabled or
// the credential is absent/malformed. It embeds the timestamp and the blob's
// size so the rest of the pipeline completes normally.
func UnavailablePlaceholder(sizeBytes int) string {
	return fmt.Sprintf("[transcription placeholder: service unavailable at %s, audio %d bytes]",
		nowFunc().UTC().Format(time.RFC3339), sizeBytes)
}

// FailurePlaceholder is substituted when the credential is valid but the
// remote call failed. The error message is embedded rather than propagated.
func FailurePlaceholder(err error) string {
	return fmt.Sprintf("[transcription failed: %s]", err.Error())
}
