package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 1 << 20

// ErrBodyTooLarge is the cause of a TransportError for a response body
// over maxBodyBytes.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// HTTPClient performs requests over net/http.
type HTTPClient struct {
	client *http.Client
	logger *slog.Logger
}

// NewHTTPClient wraps client; nil means http.DefaultClient.
func NewHTTPClient(client *http.Client, logger *slog.Logger) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{client: client, logger: logger}
}

// Do sends a GET. Any status is a Response; only a failure to get one is
// an error, always a *TransportError.
func (c *HTTPClient) Do(ctx context.Context, req Request) (Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return Response{}, &TransportError{URL: req.URL, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Response{}, &TransportError{URL: req.URL, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return Response{}, &TransportError{URL: req.URL, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(raw) > maxBodyBytes {
		return Response{}, &TransportError{URL: req.URL, Err: ErrBodyTooLarge}
	}

	c.logger.Debug("remote response",
		"url", req.URL,
		"status", resp.StatusCode,
		"bytes", len(raw),
	)

	return Response{Status: resp.StatusCode, Body: NewBody(raw)}, nil
}
