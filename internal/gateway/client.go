package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/gallery/internal/logging"
	"github.com/muurk/gallery/internal/urls"
	"github.com/muurk/gallery/internal/validation"
	"github.com/muurk/gallery/internal/version"
)

const (
	// DefaultBaseURL is the remote endpoint the gallery talks to directly
	DefaultBaseURL = urls.Endpoint

	// DefaultUserID is the fixed client identifier sent with every listing request
	DefaultUserID = "108"

	// DefaultCategory is the listing category tag
	DefaultCategory = "popular"

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 15 * time.Second

	// MinTimeout and MaxTimeout bound the configurable timeout budget
	MinTimeout = 10 * time.Second
	MaxTimeout = 15 * time.Second

	// GetDataPath and SaveDataPath are the endpoint paths relative to BaseURL
	GetDataPath  = "getdata.php"
	SaveDataPath = "savedata.php"

	// ImageField is the multipart field carrying the image binary
	ImageField = "user_image"

	// maxResponseBytes caps how much of a response body is read
	maxResponseBytes = 10 << 20
)

// Client talks to the remote gallery endpoint
type Client struct {
	// BaseURL is the endpoint root (e.g. "http://dev3.xicomtechnologies.com/xttest"
	// or "http://localhost:3001/api" when going through the proxy)
	BaseURL string

	// UserID is the client identifier sent to getdata.php
	UserID string

	// Category is the listing type sent to getdata.php
	Category string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client
}

// NewClient creates a gateway client for baseURL with default settings
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		UserID:     DefaultUserID,
		Category:   DefaultCategory,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// SetTimeout sets the HTTP request timeout, clamped to the 10-15s budget
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = ClampTimeout(timeout)
}

// ClampTimeout keeps a timeout inside [MinTimeout, MaxTimeout]. Zero means default.
func ClampTimeout(timeout time.Duration) time.Duration {
	switch {
	case timeout <= 0:
		return DefaultTimeout
	case timeout < MinTimeout:
		return MinTimeout
	case timeout > MaxTimeout:
		return MaxTimeout
	default:
		return timeout
	}
}

// endpointURL joins BaseURL and an endpoint path
func (c *Client) endpointURL(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + path
}

// FetchImages retrieves one page of images starting at offset.
// Malformed or unsuccessful responses yield an empty page and a nil error so
// pagination can stop gracefully; only network failures are returned.
func (c *Client) FetchImages(ctx context.Context, offset int) (*ImageListPage, error) {
	if offset < 0 {
		return nil, NewInvalidInputError(GetDataPath, fmt.Sprintf("offset must be non-negative, got %d", offset))
	}

	fields := map[string]string{
		"user_id": c.UserID,
		"offset":  strconv.Itoa(offset),
		"type":    c.Category,
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, key := range []string{"user_id", "offset", "type"} {
		if err := w.WriteField(key, fields[key]); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", key, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	statusCode, respBody, err := c.post(ctx, GetDataPath, w.FormDataContentType(), &body, fields)
	if err != nil {
		return nil, err
	}

	if statusCode != http.StatusOK {
		logging.Warn("Listing request returned non-200, treating as empty page",
			zap.Int("status_code", statusCode),
			zap.Int("offset", offset),
		)
		return emptyPage(), nil
	}

	page, err := parseListing(respBody)
	if err != nil {
		logging.Warn("Malformed listing response, treating as empty page",
			zap.Int("offset", offset),
			zap.Error(err),
		)
		return emptyPage(), nil
	}

	return page, nil
}

// parseListing decodes a getdata.php body. Anything but a success envelope
// is reported as a malformed response.
func parseListing(body []byte) (*ImageListPage, error) {
	var env listingEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, NewMalformedResponseError(GetDataPath, err)
	}

	if env.Status != StatusSuccess {
		return nil, NewMalformedResponseError(GetDataPath, fmt.Errorf("status %q", env.Status))
	}
	if env.Images == nil {
		return nil, NewMalformedResponseError(GetDataPath, fmt.Errorf("missing images array"))
	}

	page := &ImageListPage{Images: make([]ImageItem, 0, len(env.Images))}
	for _, rec := range env.Images {
		page.Images = append(page.Images, rec.toImageItem())
	}

	page.Total = int(env.Total)
	if page.Total < len(page.Images) {
		page.Total = len(page.Images)
	}

	return page, nil
}

// SubmitUserData sends the form fields and the selected image to savedata.php.
// A missing image fails before any network call.
func (c *Client) SubmitUserData(ctx context.Context, payload *SubmissionPayload) (*SubmissionResult, error) {
	if payload == nil || payload.Image.IsZero() {
		return nil, NewMissingImageError()
	}

	form := payload.Form

	// Contact details stay out of the logs
	fields := map[string]string{ImageField: string(payload.Image)}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range validation.Fields {
		if err := w.WriteField(f.String(), form.Get(f)); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", f, err)
		}
	}

	// Resolved once per submission
	attacher := SelectAttacher(payload.Image, c.HTTPClient)
	if err := attacher.Attach(ctx, w, ImageField, payload.Image); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	statusCode, respBody, err := c.post(ctx, SaveDataPath, w.FormDataContentType(), &body, fields)
	if err != nil {
		return nil, err
	}

	if statusCode != http.StatusOK {
		return nil, NewStatusError(statusCode, SaveDataPath, respBody)
	}

	result := &SubmissionResult{Success: true, Message: DefaultSuccessMessage}

	// The endpoint may answer with a JSON message; plain bodies are fine too
	var env saveEnvelope
	if err := json.Unmarshal(respBody, &env); err == nil && strings.TrimSpace(env.Message) != "" {
		result.Message = strings.TrimSpace(env.Message)
	}

	return result, nil
}

// post performs a single POST and returns the status code and body
func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader, fields map[string]string) (int, []byte, error) {
	endpoint := c.endpointURL(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return 0, nil, &GatewayError{
			Type:     ErrTypeTransport,
			Message:  "failed to create request",
			Endpoint: path,
			Err:      err,
		}
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent("gallery"))

	logging.LogGatewayRequest(http.MethodPost, endpoint, fields)
	start := time.Now()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, ClassifyNetworkError(err, path)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, ClassifyNetworkError(err, path)
	}

	logging.LogGatewayResponse(endpoint, resp.StatusCode, time.Since(start), respBody)

	return resp.StatusCode, respBody, nil
}
