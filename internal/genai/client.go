package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"artisan-voice-go/internal/logger"
)

// FailureKind tags why a generation call produced no text.
type FailureKind int

const (
	FailureNone FailureKind = iota
	// FailureConfig: no credential configured on the server.
	FailureConfig
	// FailureTransport: request error, timeout or non-2xx status.
	FailureTransport
	// FailureMalformed: 2xx response missing the expected fields.
	FailureMalformed
)

// Result is the outcome of one remote generation call: either text or a
// tagged failure. The HTTP boundary renders failures with Sentinel so the
// post endpoint always answers with a normal-shaped body.
type Result struct {
	Text   string
	Kind   FailureKind
	Reason string
}

func (r Result) OK() bool { return r.Kind == FailureNone }

// Sentinel renders the result in the caller-facing bracketed-text
// convention. Successful results pass through unchanged.
func (r Result) Sentinel() string {
	switch r.Kind {
	case FailureConfig:
		return "[Configuration Error: GEMINI_API_KEY not set on the server.]"
	case FailureTransport:
		return fmt.Sprintf("[Gemini API Error: %s] Please check your API key and model access.", r.Reason)
	case FailureMalformed:
		return "[Gemini API returned an unexpected response format.]"
	default:
		return r.Text
	}
}

// Client is the adapter to the remote generative-text API. One outbound call
// per invocation, no retries; resilience belongs to a wrapping layer.
type Client struct {
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
	log     *logrus.Entry
}

func NewClient(baseURL, model, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     logger.WithComponent("genai"),
	}
}

type generateContentRequest struct {
	Contents []contentPart `json:"contents"`
}

type contentPart struct {
	Parts []textPart `json:"parts"`
}

type textPart struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateContent sends one prompt as a single-part request and returns the
// first candidate's text.
func (c *Client) GenerateContent(ctx context.Context, prompt string) Result {
	if c.apiKey == "" {
		c.log.Warn("generation requested without an API key")
		return Result{Kind: FailureConfig}
	}

	// credential travels as a query parameter, per the API's auth scheme
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))

	payload, err := json.Marshal(generateContentRequest{
		Contents: []contentPart{{Parts: []textPart{{Text: prompt}}}},
	})
	if err != nil {
		return Result{Kind: FailureTransport, Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Result{Kind: FailureTransport, Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).Warn("generation request failed")
		return Result{Kind: FailureTransport, Reason: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.WithField("http_status", resp.StatusCode).Warn("generation returned error status")
		return Result{Kind: FailureTransport, Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	var parsed generateContentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{Kind: FailureMalformed, Reason: err.Error()}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		c.log.Warn("generation response missing candidates")
		return Result{Kind: FailureMalformed, Reason: "no candidates in response"}
	}
	return Result{Text: parsed.Candidates[0].Content.Parts[0].Text}
}
