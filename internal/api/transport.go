package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single bridge request
const DefaultTimeout = 10 * time.Second

// Response is the raw answer to a bridge request
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport sends one request to the bridge. A nil body sends no payload.
type Transport interface {
	Do(ctx context.Context, method, url string, body []byte) (*Response, error)
}

// HTTPTransport is the net/http backed Transport
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport whose requests give up after timeout
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPTransport{
		client: &http.Client{Timeout: timeout},
	}
}

// Do performs the request and reads the whole body
func (t *HTTPTransport) Do(ctx context.Context, method, url string, body []byte) (resp *Response, err error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := httpResp.Body.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", cerr)
		}
	}()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{StatusCode: httpResp.StatusCode, Body: data}, nil
}
