package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// WhisperClient calls a whisper-style audio/transcriptions endpoint with a
// multipart payload and a bearer credential.
type WhisperClient struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

type whisperResponse struct {
	Text string `json:"text"`
}

func NewWhisperClient(endpoint, apiKey, model string) *WhisperClient {
	return &WhisperClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: 2 * time.Minute},
	}
}

func (w *WhisperClient) Transcribe(ctx context.Context, audio []byte, filename, languageCode string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("model", w.model); err != nil {
		return "", err
	}
	if languageCode != "" {
		if err := mw.WriteField("language", languageCode); err != nil {
			return "", err
		}
	}

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(audio); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcription http %d: %s", resp.StatusCode, string(b))
	}

	var wr whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return "", err
	}

	return wr.Text, nil
}
