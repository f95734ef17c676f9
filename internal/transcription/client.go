package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"artisan-voice-go/internal/logger"
)

// Transcriber converts a cleaned audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// HTTPTranscriber speaks to a whisper-style transcription server:
// POST {base}/transcribe with the file as multipart form data, JSON
// {"text": "..."} back. Transient server trouble is retried with
// exponential backoff; client errors are permanent.
type HTTPTranscriber struct {
	baseURL string
	fs      afero.Fs
	client  *http.Client
	log     *logrus.Entry
}

func NewHTTPTranscriber(fs afero.Fs, baseURL string, timeout time.Duration) (*HTTPTranscriber, error) {
	if baseURL == "" {
		return nil, errors.New("TRANSCRIBE_URL not set")
	}
	return &HTTPTranscriber{
		baseURL: baseURL,
		fs:      fs,
		client:  &http.Client{Timeout: timeout},
		log:     logger.WithComponent("transcription"),
	}, nil
}

type transcribeResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

func (t *HTTPTranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	endpoint := fmt.Sprintf("%s/transcribe", t.baseURL)
	log := t.log.WithField("audio_path", path)
	log.Info("starting transcription")

	audio, err := afero.ReadFile(t.fs, path)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}

	var out transcribeResponse
	var lastErr error

	operation := func() error {
		// the multipart body is consumed per attempt, so rebuild it each time
		var b bytes.Buffer
		w := multipart.NewWriter(&b)
		part, err := w.CreateFormFile("audio_file", filepath.Base(path))
		if err != nil {
			return backoff.Permanent(err)
		}
		if _, err := part.Write(audio); err != nil {
			return backoff.Permanent(err)
		}
		w.Close()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &b)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", w.FormDataContentType())

		resp, err := t.client.Do(req)
		if err != nil {
			lastErr = err
			log.WithError(err).Warn("transcribe request failed")
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("transcription server error: %s", body)
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("transcription rejected: status=%d body=%s", resp.StatusCode, body)
			return backoff.Permanent(lastErr)
		}
		if err := json.Unmarshal(body, &out); err != nil {
			lastErr = fmt.Errorf("json decode error: %v body=%s", err, string(body))
			return lastErr
		}
		if out.Error != "" {
			lastErr = fmt.Errorf("transcription failed: %s", out.Error)
			return backoff.Permanent(lastErr)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr != nil {
			return "", lastErr
		}
		return "", err
	}

	log.WithField("transcript_len", len(out.Text)).Info("transcription completed")
	return out.Text, nil
}
