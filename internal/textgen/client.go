package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"artisan-voice-go/internal/logger"
)

// Params are the deterministic decoding settings used for every generation
// task. No sampling anywhere: identical input and weights give identical
// output.
type Params struct {
	MaxNewTokens      int  `json:"max_new_tokens"`
	NumBeams          int  `json:"num_beams"`
	NoRepeatNgramSize int  `json:"no_repeat_ngram_size"`
	EarlyStopping     bool `json:"early_stopping"`
}

// Client talks to a local text-generation inference server hosting the
// summarization and instruction-following models. One call per request, no
// retries: a failed sub-task is the caller's problem to surface.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logrus.Entry
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("TEXTGEN_URL not set")
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     logger.WithComponent("textgen"),
	}, nil
}

type summarizeRequest struct {
	Text      string `json:"text"`
	MaxLength int    `json:"max_length"`
	MinLength int    `json:"min_length"`
	DoSample  bool   `json:"do_sample"`
}

type summarizeResponse struct {
	SummaryText string `json:"summary_text"`
}

// Summarize condenses text with bounded output length and sampling disabled.
func (c *Client) Summarize(ctx context.Context, text string, maxLen, minLen int) (string, error) {
	var out summarizeResponse
	err := c.post(ctx, "/summarize", summarizeRequest{
		Text:      text,
		MaxLength: maxLen,
		MinLength: minLen,
		DoSample:  false,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.SummaryText, nil
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Params
}

type generateResponse struct {
	GeneratedText string `json:"generated_text"`
}

// Generate runs an instruction prompt through the text-generation model.
func (c *Client) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	var out generateResponse
	if err := c.post(ctx, "/generate", generateRequest{Prompt: prompt, Params: p}, &out); err != nil {
		return "", err
	}
	return out.GeneratedText, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithField("path", path).WithError(err).Warn("textgen request failed")
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("textgen %s: status=%d body=%s", path, resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("textgen %s: decode: %v body=%s", path, err, body)
	}
	return nil
}
