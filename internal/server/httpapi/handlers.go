// Package httpapi exposes the journal over HTTP/JSON. Routes are versioned
// under /api/v1; everything except auth and health requires a Bearer token.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voxjournal/voxjournal/internal/common"
	"github.com/voxjournal/voxjournal/internal/logging"
	"github.com/voxjournal/voxjournal/internal/server/models"
	"github.com/voxjournal/voxjournal/internal/server/services"
)

// maxUploadBytes caps a single recording upload.
const maxUploadBytes = 64 << 20

// UserProvider is the slice of UserService the handlers need.
type UserProvider interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

// EntryProvider is the slice of EntryService the handlers need.
type EntryProvider interface {
	Save(ctx context.Context, userID string, req *services.SaveRequest) (*models.Entry, error)
	List(ctx context.Context, userID string) ([]*models.Entry, error)
	Get(ctx context.Context, userID, id string) (*models.Entry, error)
	Playback(ctx context.Context, userID, id string) (*services.PlaybackInfo, error)
	RegenerateTranscription(ctx context.Context, userID, id, languageCode string) (*models.Entry, error)
	Delete(ctx context.Context, userID, id string) error
}

// Handler holds route implementations.
type Handler struct {
	users   UserProvider
	entries EntryProvider
	logger  logging.Logger
}

func NewHandler(users UserProvider, entries EntryProvider, logger logging.Logger) *Handler {
	return &Handler{users: users, entries: entries, logger: logger.With("module", "httpapi")}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps service-level sentinels onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, "entry not found")
	case errors.Is(err, common.ErrUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrUploadFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, common.ErrPersistenceFailed):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Error(r.Context(), "registration failed", "error", err.Error())
		writeError(w, http.StatusConflict, "could not register user")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": user.ID, "email": user.Email})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	pair, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	pair, err := h.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

type entryResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Transcription string    `json:"transcription"`
	DurationSec   int       `json:"duration_sec"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toEntryResponse(e *models.Entry) entryResponse {
	return entryResponse{
		ID:            e.ID,
		Title:         e.Title,
		Transcription: e.Transcription,
		DurationSec:   e.DurationSec,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// createEntry accepts a multipart form with the recording blob under "audio"
// and optional "title", "duration_sec" and "language" fields.
func (h *Handler) createEntry(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form with an audio part")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio part is required")
		return
	}
	defer file.Close()

	// The stored object carries whatever MIME type the client declared for
	// the part; absent one, stay neutral rather than guess.
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read audio part")
		return
	}

	durationSec := 0
	if v := r.FormValue("duration_sec"); v != "" {
		durationSec, err = strconv.Atoi(v)
		if err != nil || durationSec < 0 {
			writeError(w, http.StatusBadRequest, "duration_sec must be a non-negative integer")
			return
		}
	}

	entry, err := h.entries.Save(r.Context(), userID, &services.SaveRequest{
		Audio:        audio,
		ContentType:  contentType,
		Title:        r.FormValue("title"),
		DurationSec:  durationSec,
		LanguageCode: r.FormValue("language"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	list, err := h.entries.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]entryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, toEntryResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	entry, err := h.entries.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponse(entry))
}

type playbackResponse struct {
	URL              string `json:"url"`
	DurationSec      int    `json:"duration_sec"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

func (h *Handler) playback(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	info, err := h.entries.Playback(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playbackResponse{
		URL:              info.URL,
		DurationSec:      info.DurationSec,
		ExpiresInSeconds: int(info.ExpiresIn.Seconds()),
	})
}

type regenerateRequest struct {
	Language string `json:"language"`
}

func (h *Handler) regenerateTranscription(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req regenerateRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}
	}

	entry, err := h.entries.RegenerateTranscription(r.Context(), userID, chi.URLParam(r, "id"), req.Language)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	if err := h.entries.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
