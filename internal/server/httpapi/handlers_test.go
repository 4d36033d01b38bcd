package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxjournal/voxjournal/internal/common"
	"github.com/voxjournal/voxjournal/internal/logging"
	"github.com/voxjournal/voxjournal/internal/server/auth"
	"github.com/voxjournal/voxjournal/internal/server/models"
	"github.com/voxjournal/voxjournal/internal/server/services"
)

var testSecret = []byte("test-secret")

type fakeUsers struct {
	registerErr error
	loginErr    error
	refreshErr  error
}

func (f *fakeUsers) Register(ctx context.Context, email, password string) (*models.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.User{ID: "u1", Email: email}, nil
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*services.TokenPair, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &services.TokenPair{AccessToken: "at", RefreshToken: "rt"}, nil
}

func (f *fakeUsers) RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &services.TokenPair{AccessToken: "at2", RefreshToken: "rt2"}, nil
}

type fakeEntries struct {
	saveFn       func(ctx context.Context, userID string, req *services.SaveRequest) (*models.Entry, error)
	listFn       func(ctx context.Context, userID string) ([]*models.Entry, error)
	getFn        func(ctx context.Context, userID, id string) (*models.Entry, error)
	playbackFn   func(ctx context.Context, userID, id string) (*services.PlaybackInfo, error)
	regenerateFn func(ctx context.Context, userID, id, languageCode string) (*models.Entry, error)
	deleteFn     func(ctx context.Context, userID, id string) error
}

func (f *fakeEntries) Save(ctx context.Context, userID string, req *services.SaveRequest) (*models.Entry, error) {
	return f.saveFn(ctx, userID, req)
}

func (f *fakeEntries) List(ctx context.Context, userID string) ([]*models.Entry, error) {
	return f.listFn(ctx, userID)
}

func (f *fakeEntries) Get(ctx context.Context, userID, id string) (*models.Entry, error) {
	return f.getFn(ctx, userID, id)
}

func (f *fakeEntries) Playback(ctx context.Context, userID, id string) (*services.PlaybackInfo, error) {
	return f.playbackFn(ctx, userID, id)
}

func (f *fakeEntries) RegenerateTranscription(ctx context.Context, userID, id, languageCode string) (*models.Entry, error) {
	return f.regenerateFn(ctx, userID, id, languageCode)
}

func (f *fakeEntries) Delete(ctx context.Context, userID, id string) error {
	return f.deleteFn(ctx, userID, id)
}

func newTestRouter(users UserProvider, entries EntryProvider) http.Handler {
	log := logging.NewJSONLogger()
	return NewRouter(NewHandler(users, entries, log), testSecret, log)
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, testSecret, time.Minute)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRegister(t *testing.T) {
	router := newTestRouter(&fakeUsers{}, &fakeEntries{})

	body := `{"email":"a@b.c","password":"pass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "a@b.c")
}

func TestRegister_MissingFields(t *testing.T) {
	router := newTestRouter(&fakeUsers{}, &fakeEntries{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"email":"a@b.c"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_BadCredentials(t *testing.T) {
	router := newTestRouter(&fakeUsers{loginErr: common.ErrUnauthorized}, &fakeEntries{})

	body := `{"email":"a@b.c","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh(t *testing.T) {
	router := newTestRouter(&fakeUsers{}, &fakeEntries{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"rt"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "at2", resp.AccessToken)
}

func TestEntries_RequireToken(t *testing.T) {
	router := newTestRouter(&fakeUsers{}, &fakeEntries{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entries/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEntries_ExpiredToken(t *testing.T) {
	router := newTestRouter(&fakeUsers{}, &fakeEntries{})

	token, err := auth.GenerateToken("u1", testSecret, -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entries/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")
}

func multipartRecording(t *testing.T, fields map[string]string, audio []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if audio != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="audio"; filename="recording.wav"`)
		h.Set("Content-Type", "audio/wav")
		fw, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = fw.Write(audio)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCreateEntry(t *testing.T) {
	var gotUserID string
	var gotReq *services.SaveRequest
	entries := &fakeEntries{
		saveFn: func(ctx context.Context, userID string, req *services.SaveRequest) (*models.Entry, error) {
			gotUserID = userID
			gotReq = req
			return &models.Entry{ID: "e1", Title: req.Title, DurationSec: req.DurationSec}, nil
		},
	}
	router := newTestRouter(&fakeUsers{}, entries)

	body, contentType := multipartRecording(t, map[string]string{
		"title":        "Morning pages",
		"duration_sec": "42",
		"language":     "spa",
	}, []byte("audio-bytes"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries/", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearerFor(t, "u1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u1", gotUserID)
	assert.Equal(t, []byte("audio-bytes"), gotReq.Audio)
	assert.Equal(t, "audio/wav", gotReq.ContentType, "the part's declared type must be forwarded")
	assert.Equal(t, "Morning pages", gotReq.Title)
	assert.Equal(t, 42, gotReq.DurationSec)
	assert.Equal(t, "spa", gotReq.LanguageCode)
}

func TestCreateEntry_MissingAudio(t *testing.T) {
	router := newTestRouter(&fakeUsers{}, &fakeEntries{})

	body, contentType := multipartRecording(t, map[string]string{"title": "x"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries/", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearerFor(t, "u1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEntry_BadDuration(t *testing.T) {
	router := newTestRouter(&fakeUsers{}, &fakeEntries{})

	body, contentType := multipartRecording(t, map[string]string{"duration_sec": "-3"}, []byte("a"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries/", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearerFor(t, "u1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateEntry_UploadFailure(t *testing.T) {
	entries := &fakeEntries{
		saveFn: func(ctx context.Context, userID string, req *services.SaveRequest) (*models.Entry, error) {
			return nil, common.ErrUploadFailed
		},
	}
	router := newTestRouter(&fakeUsers{}, entries)

	body, contentType := multipartRecording(t, nil, []byte("a"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries/", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", bearerFor(t, "u1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestListEntries(t *testing.T) {
	entries := &fakeEntries{
		listFn: func(ctx context.Context, userID string) ([]*models.Entry, error) {
			return []*models.Entry{{ID: "e2"}, {ID: "e1"}}, nil
		},
	}
	router := newTestRouter(&fakeUsers{}, entries)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entries/", nil)
	req.Header.Set("Authorization", bearerFor(t, "u1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var list []entryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "e2", list[0].ID)
}

func TestGetEntry_NotFound(t *testing.T) {
	entries := &fakeEntries{
		getFn: func(ctx context.Context, userID, id string) (*models.Entry, error) {
			return nil, common.ErrNotFound
		},
	}
	router := newTestRouter(&fakeUsers{}, entries)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entries/ghost", nil)
	req.Header.Set("Authorization", bearerFor(t, "u1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlayback(t *testing.T) {
	entries := &fakeEntries{
		playbackFn: func(ctx context.Context, userID, id string) (*services.PlaybackInfo, error) {
			assert.Equal(t, "e1", id)
			return &services.PlaybackInfo{URL: "https://signed.example/x", DurationSec: 12, ExpiresIn: time.Hour}, nil
		},
	}
	router := newTestRouter(&fakeUsers{}, entries)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/entries/e1/playback", nil)
	req.Header.Set("Authorization", bearerFor(t, "u1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp playbackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://signed.example/x", resp.URL)
	assert.Equal(t, 12, resp.DurationSec)
	assert.Equal(t, 3600, resp.ExpiresInSeconds)
}

func TestRegenerateTranscription(t *testing.T) {
	var gotLang string
	entries := &fakeEntries{
		regenerateFn: func(ctx context.Context, userID, id, languageCode string) (*models.Entry, error) {
			gotLang = languageCode
			return &models.Entry{ID: id, Transcription: "new"}, nil
		},
	}
	router := newTestRouter(&fakeUsers{}, entries)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries/e1/transcription", strings.NewReader(`{"language":"deu"}`))
	req.Header.Set("Authorization", bearerFor(t, "u1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deu", gotLang)
	assert.Contains(t, rec.Body.String(), "new")
}

func TestDeleteEntry(t *testing.T) {
	var deleted string
	entries := &fakeEntries{
		deleteFn: func(ctx context.Context, userID, id string) error {
			deleted = id
			return nil
		},
	}
	router := newTestRouter(&fakeUsers{}, entries)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/entries/e1", nil)
	req.Header.Set("Authorization", bearerFor(t, "u1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "e1", deleted)
}

func TestDeleteEntry_RowFailure(t *testing.T) {
	entries := &fakeEntries{
		deleteFn: func(ctx context.Context, userID, id string) error {
			return errors.Join(common.ErrPersistenceFailed, errors.New("db down"))
		},
	}
	router := newTestRouter(&fakeUsers{}, entries)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/entries/e1", nil)
	req.Header.Set("Authorization", bearerFor(t, "u1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(&fakeUsers{}, &fakeEntries{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/healthz", normalizePath("/healthz"))
	assert.Equal(t, "/api/v1/entries/", normalizePath("/api/v1/entries/"))
	assert.Equal(t, "/api/v1/entries/{id}", normalizePath("/api/v1/entries/abc-123"))
	assert.Equal(t, "/api/v1/entries/{id}/playback", normalizePath("/api/v1/entries/abc-123/playback"))
}
