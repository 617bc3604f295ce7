// Package tts provides the client and engine for the external XTTS voice
// cloning service. The service is an opaque synthesis capability: text plus a
// reference clip in, WAV audio out.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// API endpoints and paths.
const (
	apiCloneSpeech = "/v1/clone/speech"
	apiHealth      = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeWAV    = "audio/wav"
)

// Error messages.
const (
	errUnexpectedContentType   = "unexpected content type: expected audio/wav, got %s"
	errFmtServiceErrorWithCode = "synthesis service error (%s): %s (code: %s)"
	errFmtServiceNonOKStatus   = "synthesis service returned non-OK status: %s, body: %s"
)

// Static errors.
var (
	// ErrTextEmpty indicates an empty synthesis text.
	ErrTextEmpty = errors.New("text cannot be empty")
	// ErrEmptyAudio indicates the service returned zero audio bytes.
	ErrEmptyAudio = errors.New("received empty audio data")
)

// HTTPClient is a client for the standalone voice cloning HTTP service.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
}

// Request defines the JSON payload for a voice cloning request.
type Request struct {
	// Text contains the input text to render. Must be non-empty.
	Text string `json:"text"`

	// SpeakerRefPath is the path to the reference audio clip whose voice is
	// cloned. The service must be able to read this path.
	SpeakerRefPath string `json:"speaker_ref_path"`

	// Language is the target language code (e.g. "en", "zh-cn").
	Language string `json:"language"`

	// Temperature controls randomness in generation.
	Temperature float64 `json:"temperature"`

	// RepetitionPenalty discourages wandering repetition. Higher is more
	// stable.
	RepetitionPenalty float64 `json:"repetition_penalty"`

	// Speed scales the speech rate; 1.0 is the reference pace.
	Speed float64 `json:"speed"`
}

// ErrorResponse represents a structured error response from the service.
type ErrorResponse struct {
	// Detail contains a human-readable error description.
	Detail string `json:"detail"`

	// ErrorCode provides a machine-readable error classification.
	ErrorCode string `json:"error_code,omitempty"`
}

// NewHTTPClient creates and configures an HTTP client for the cloning
// service. The baseURL should include protocol and port (e.g.
// "http://localhost:8020"). The timeout applies to every request; synthesis
// of a single segment can take tens of seconds on CPU-only hosts.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CloneSpeech sends a cloning request and returns the raw WAV audio data.
// Callers are responsible for writing the data to disk; this client never
// holds more than one segment's audio at a time.
func (c *HTTPClient) CloneSpeech(ctx context.Context, req Request) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrTextEmpty
	}

	requestBody, marshalErr := json.Marshal(req)
	if marshalErr != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", marshalErr)
	}

	url := c.baseURL + apiCloneSpeech

	httpReq, reqErr := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		url,
		bytes.NewBuffer(requestBody),
	)
	if reqErr != nil {
		return nil, fmt.Errorf("failed to create request: %w", reqErr)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeWAV)

	resp, doErr := c.httpClient.Do(httpReq)
	if doErr != nil {
		return nil, fmt.Errorf(
			"failed to send request to synthesis service at %s: %w",
			c.baseURL,
			doErr,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	contentType := resp.Header.Get(headerContentType)
	if contentType != contentTypeWAV {
		return nil, fmt.Errorf(errUnexpectedContentType, contentType)
	}

	audioData, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", readErr)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}

// HealthCheck verifies that the synthesis service is running. Perform it
// before a long batch to fail fast when the service is down.
func (c *HTTPClient) HealthCheck(ctx context.Context) error {
	url := c.baseURL + apiHealth

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if reqErr != nil {
		return fmt.Errorf("failed to create health check request: %w", reqErr)
	}

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return fmt.Errorf(
			"health check failed for service at %s: %w",
			c.baseURL,
			doErr,
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

// parseErrorResponse attempts to decode a structured JSON error from the
// service, falling back to the raw body so diagnostics are preserved.
func (c *HTTPClient) parseErrorResponse(resp *http.Response) error {
	var errorResp ErrorResponse

	decodeErr := json.NewDecoder(resp.Body).Decode(&errorResp)
	if decodeErr == nil {
		return fmt.Errorf(errFmtServiceErrorWithCode,
			resp.Status, errorResp.Detail, errorResp.ErrorCode)
	}

	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf(errFmtServiceNonOKStatus, resp.Status, string(body))
}
