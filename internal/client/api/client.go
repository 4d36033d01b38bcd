// Package api is the client-side HTTP wrapper for the journal server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voxjournal/voxjournal/internal/common"
)

// Entry mirrors the server's entry payload.
type Entry struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Transcription string    `json:"transcription"`
	DurationSec   int       `json:"duration_sec"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PlaybackInfo mirrors the server's playback payload.
type PlaybackInfo struct {
	URL              string `json:"url"`
	DurationSec      int    `json:"duration_sec"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// TokenPair is returned by login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Client talks to the journal server. Not safe for concurrent use while
// tokens are being swapped.
type Client struct {
	baseURL     string
	http        *http.Client
	accessToken string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
}

// SetAccessToken installs the Bearer token used on entry endpoints.
func (c *Client) SetAccessToken(token string) {
	c.accessToken = token
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	msg := body.Error
	if msg == "" {
		msg = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", common.ErrUnauthorized, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", common.ErrNotFound, msg)
	case http.StatusBadGateway:
		return fmt.Errorf("%w: %s", common.ErrUploadFailed, msg)
	default:
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, msg)
	}
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, email, password string) error {
	return c.postJSON(ctx, "/api/v1/auth/register", credentials{Email: email, Password: password}, nil)
}

func (c *Client) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	var pair TokenPair
	if err := c.postJSON(ctx, "/api/v1/auth/login", credentials{Email: email, Password: password}, &pair); err != nil {
		return nil, err
	}
	c.accessToken = pair.AccessToken
	return &pair, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	in := map[string]string{"refresh_token": refreshToken}
	if err := c.postJSON(ctx, "/api/v1/auth/refresh", in, &pair); err != nil {
		return nil, err
	}
	c.accessToken = pair.AccessToken
	return &pair, nil
}

// SaveEntry uploads a finalized recording with its wall-clock duration. The
// audio part is declared as WAV, which is what the capture pipeline emits.
func (c *Client) SaveEntry(ctx context.Context, audio []byte, title string, durationSec int, language string) (*Entry, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="audio"; filename="recording.wav"`)
	h.Set("Content-Type", "audio/wav")
	fw, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, err
	}
	if title != "" {
		if err := mw.WriteField("title", title); err != nil {
			return nil, err
		}
	}
	if err := mw.WriteField("duration_sec", strconv.Itoa(durationSec)); err != nil {
		return nil, err
	}
	if language != "" {
		if err := mw.WriteField("language", language); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/v1/entries/", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var entry Entry
	if err := c.do(req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) ListEntries(ctx context.Context) ([]Entry, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/entries/", nil)
	if err != nil {
		return nil, err
	}
	var out []Entry
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetEntry(ctx context.Context, id string) (*Entry, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/entries/"+id, nil)
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := c.do(req, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Playback requests a fresh signed URL; callers must not reuse it past its
// expiry window.
func (c *Client) Playback(ctx context.Context, id string) (*PlaybackInfo, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/entries/"+id+"/playback", nil)
	if err != nil {
		return nil, err
	}
	var info PlaybackInfo
	if err := c.do(req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// RegenerateTranscription destructively overwrites the entry's transcript.
// Callers are responsible for confirming with the user first.
func (c *Client) RegenerateTranscription(ctx context.Context, id, language string) (*Entry, error) {
	var entry Entry
	in := map[string]string{"language": language}
	if err := c.postJSON(ctx, "/api/v1/entries/"+id+"/transcription", in, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/v1/entries/"+id, nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
