// Package transcribe relays uploaded media to the external transcription
// service's batch endpoints.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Kind classifies an upload by its media type.
type Kind string

const (
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// Endpoint path segments, selected by kind.
const (
	audioPath = "/analyze/audio/transcribe"
	videoPath = "/analyze/video/transcribe"
)

// allowedTypes is the fixed MIME allow-list for uploads.
var allowedTypes = map[string]bool{
	"audio/mpeg":      true, // MP3
	"audio/wav":       true, // WAV
	"audio/m4a":       true, // M4A
	"video/mp4":       true, // MP4
	"video/quicktime": true, // MOV
	"video/x-msvideo": true, // AVI
}

// AllowedType reports whether the declared MIME type is accepted.
func AllowedType(mimeType string) bool {
	return allowedTypes[mimeType]
}

// Classify returns the media kind for an allowed MIME type.
func Classify(mimeType string) Kind {
	if strings.HasPrefix(mimeType, "video/") {
		return KindVideo
	}
	return KindAudio
}

// File is one uploaded media payload, held in memory only.
type File struct {
	Name string
	MIME string
	Data []byte
}

// Result is the parsed and validated response from a batch transcription.
// Data carries the upstream payload verbatim for relaying; the named fields
// are validated views into it.
type Result struct {
	Duration  float64         `json:"duration"`
	WordCount int             `json:"word_count"`
	Language  string          `json:"language"`
	SRTURL    string          `json:"srt_url"`
	Data      json.RawMessage `json:"-"`
}

// UpstreamError reports a non-2xx response from the transcription service.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("transcription service returned status %d", e.StatusCode)
}

// ErrBadUpstreamBody indicates the service answered 2xx but the body did not
// carry a usable data payload.
var ErrBadUpstreamBody = errors.New("malformed transcription service response")

// Client calls the external transcription service's batch endpoints.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a batch transcription client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Transcribe forwards one media file to the endpoint selected by its kind
// and returns the validated result. Uses multipart/form-data with a single
// "file" field, mirroring what the service expects from direct uploads.
func (c *Client) Transcribe(ctx context.Context, f File) (*Result, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	// CreateFormFile would stamp the part application/octet-stream; the
	// service gets the type the browser declared.
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(f.Name)))
	if f.MIME != "" {
		header.Set("Content-Type", f.MIME)
	}
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, fmt.Errorf("copy media data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	url := c.baseURL + audioPath
	if Classify(f.MIME) == KindVideo {
		url = c.baseURL + videoPath
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: upstreamMessage(body)}
	}

	return parseResult(body)
}

// parseResult validates the upstream envelope rather than trusting its shape.
func parseResult(body []byte) (*Result, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadUpstreamBody, err)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, fmt.Errorf("%w: missing data payload", ErrBadUpstreamBody)
	}

	var result Result
	if err := json.Unmarshal(envelope.Data, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadUpstreamBody, err)
	}
	if result.Duration < 0 {
		return nil, fmt.Errorf("%w: negative duration %v", ErrBadUpstreamBody, result.Duration)
	}
	result.Data = envelope.Data
	return &result, nil
}

// upstreamMessage pulls a human-readable message out of an error body.
// Falls back to the raw body when it is not the expected JSON shape.
func upstreamMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		switch {
		case e.Message != "":
			return e.Message
		case e.Error != "":
			return e.Error
		case e.Detail != "":
			return e.Detail
		}
	}
	return strings.TrimSpace(string(body))
}
