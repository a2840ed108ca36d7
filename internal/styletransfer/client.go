package styletransfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const apiKeyHeader = "x-api-key"

// maxResultSize caps the downloaded output image.
const maxResultSize = 20 << 20

// Client drives the upload, generate and poll workflow of the remote
// image-generation service.
type Client struct {
	httpClient *http.Client
	config     Config
	clock      Clock
}

// Option configures a Client
type Option func(*Client)

// WithClock replaces the wall clock used between polls
func WithClock(clock Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new style-transfer client
func NewClient(config Config, opts ...Option) *Client {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	c := &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
		clock:  RealClock,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Output is a finished remote job.
type Output struct {
	ImageURL  string
	OrderID   string
	OutputURL string
	Attempts  int
	Image     []byte
}

// Run uploads image, submits a generation for style and polls until the
// job is done, failed, or out of attempts. obs may be nil.
func (c *Client) Run(ctx context.Context, image []byte, style string, obs Observer) (*Output, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	out := &Output{}

	fail := func(state State, err error) (*Output, error) {
		obs.Transition(Transition{
			State:    state,
			ImageURL: out.ImageURL,
			OrderID:  out.OrderID,
			Attempt:  out.Attempts,
			Err:      err,
		})
		return nil, err
	}

	obs.Transition(Transition{State: StateUploading})
	imageURL, err := c.Upload(ctx, image)
	if err != nil {
		return fail(StateFailed, err)
	}
	out.ImageURL = imageURL

	orderID, err := c.Submit(ctx, imageURL, PromptFor(style))
	if err != nil {
		return fail(StateFailed, err)
	}
	out.OrderID = orderID
	obs.Transition(Transition{State: StateSubmitted, ImageURL: imageURL, OrderID: orderID})

	var lastErr error
	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return fail(StateFailed, ctx.Err())
		case <-c.clock.After(c.config.PollInterval):
		}

		out.Attempts = attempt
		obs.Transition(Transition{State: StatePolling, ImageURL: imageURL, OrderID: orderID, Attempt: attempt})

		status, err := c.Status(ctx, orderID)
		if err != nil {
			if ctx.Err() != nil {
				return fail(StateFailed, ctx.Err())
			}
			// 4xx will not change on retry.
			if IsClientError(err) {
				return fail(StateFailed, fmt.Errorf("%w: order %s: %w", ErrJobFailed, orderID, err))
			}
			lastErr = err
			continue
		}

		switch status.Status {
		case StatusActive:
			if status.OutputURL == "" {
				return fail(StateFailed, fmt.Errorf("%w: active job without output_url", ErrInvalidResponse))
			}
			out.OutputURL = status.OutputURL
			img, err := c.Download(ctx, status.OutputURL)
			if err != nil {
				return fail(StateFailed, err)
			}
			out.Image = img
			obs.Transition(Transition{
				State:     StateDone,
				ImageURL:  imageURL,
				OrderID:   orderID,
				Attempt:   attempt,
				OutputURL: status.OutputURL,
			})
			return out, nil
		case StatusFailed:
			msg := status.Error
			if msg == "" {
				msg = "remote reported failed"
			}
			return fail(StateFailed, fmt.Errorf("%w: order %s: %s", ErrJobFailed, orderID, msg))
		}
	}

	if lastErr != nil {
		return fail(StateTimeout, fmt.Errorf("%w: order %s after %d attempts: %v", ErrJobTimeout, orderID, c.config.MaxAttempts, lastErr))
	}
	return fail(StateTimeout, fmt.Errorf("%w: order %s after %d attempts", ErrJobTimeout, orderID, c.config.MaxAttempts))
}

// Upload asks for a pre-signed target and PUTs the image to it. It returns
// the reference the generate call expects.
func (c *Client) Upload(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("%w: empty image", ErrUpload)
	}

	var target UploadURLResponse
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("upload-url"), struct{}{}, &target); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpload, err)
	}
	if target.UploadURL == "" || target.ImageURL == "" {
		return "", fmt.Errorf("%w: %w: missing upload_url or image_url", ErrUpload, ErrInvalidResponse)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.UploadURL, bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("%w: create request: %v", ErrUpload, err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	req.ContentLength = int64(len(image))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: put image: %w", ErrUpload, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: put image returned status %d", ErrUpload, resp.StatusCode)
	}
	return target.ImageURL, nil
}

// Submit starts a generation job and returns its order id.
func (c *Client) Submit(ctx context.Context, imageURL, prompt string) (string, error) {
	var resp GenerateResponse
	req := GenerateRequest{ImageURL: imageURL, Prompt: prompt}
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("generate"), req, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSubmit, err)
	}
	if resp.OrderID == "" {
		return "", fmt.Errorf("%w: %w: missing order_id", ErrSubmit, ErrInvalidResponse)
	}
	return resp.OrderID, nil
}

// Status queries a job once.
func (c *Client) Status(ctx context.Context, orderID string) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("status", orderID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Download fetches the generated image. Output URLs are pre-signed, so the
// API key is not sent.
func (c *Client) Download(ctx context.Context, outputURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, outputURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrDownload, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownload, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: status %d", ErrDownload, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResultSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrDownload, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrDownload)
	}
	if len(data) > maxResultSize {
		return nil, fmt.Errorf("%w: result larger than %d bytes", ErrDownload, maxResultSize)
	}
	return data, nil
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.Join(escaped, "/")
}

// doJSON executes a single authenticated JSON request
func (c *Client) doJSON(ctx context.Context, method, target string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(apiKeyHeader, c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}

	return nil
}

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("style transfer returned status %d: %s", e.Code, e.Body)
}

// IsClientError reports whether err carries a 4xx status.
func IsClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 400 && se.Code < 500
}
