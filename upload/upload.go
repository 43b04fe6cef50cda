// Package upload sends the exported icons to the remote icon library.
//
// The library endpoint accepts a multipart form with the PNG file in the "source"
// field and the icon base name in the "name" field, and replies with a JSON object:
// {"success": true, "name": "final-name"} or {"error": "...", "details": "..."}.
package upload

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

// EndpointEnv is the environment variable holding the default endpoint.
const EndpointEnv = "CUTOUT_UPLOAD_URL"

// maxReplySize caps the size of the decoded JSON reply.
const maxReplySize = 1 << 20

// ErrNoName is returned when the icon has no base name.
var ErrNoName = errors.New("missing icon name")

// Result is the reply of the icon library.
type Result struct {
	Success bool   `json:"success"`
	Name    string `json:"name"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// Error is returned when the library rejects the upload.
type Error struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Details != "" {
		return fmt.Sprintf("upload failed (HTTP %d): %s: %s", e.StatusCode, msg, e.Details)
	}
	return fmt.Sprintf("upload failed (HTTP %d): %s", e.StatusCode, msg)
}

// Client uploads icons to the library endpoint.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewClient creates a client with a default timeout.
func NewClient(endpoint string) *Client {
	return &Client{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Filename returns the name of the uploaded file.
func Filename(name, suffix string) string {
	return name + suffix + ".png"
}

// Upload posts the PNG encoded icon under the "<name><suffix>.png" file name.
// The returned result holds the final name assigned by the library.
func (c *Client) Upload(ctx context.Context, name, suffix string, data []byte) (*Result, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNoName
	}
	if c.Endpoint == "" {
		return nil, errors.New("no upload endpoint configured")
	}

	body, contentType, err := encodeForm(name, suffix, data)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("could not create the upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	res, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer res.Body.Close()

	var result Result
	// The error replies are not always JSON encoded.
	decErr := json.NewDecoder(io.LimitReader(res.Body, maxReplySize)).Decode(&result)

	if res.StatusCode < 200 || res.StatusCode > 299 || !result.Success {
		return nil, &Error{
			StatusCode: res.StatusCode,
			Message:    result.Error,
			Details:    result.Details,
		}
	}
	if decErr != nil {
		return nil, fmt.Errorf("could not decode the upload reply: %w", decErr)
	}
	return &result, nil
}

func encodeForm(name, suffix string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="source"; filename=%q`, Filename(name, suffix)))
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("name", name); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
