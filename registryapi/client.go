// Package registryapi is the shared HTTP client every component talks
// through to reach the registry, modeled on the teacher's internal HTTP
// client layer: a single retrying transport plus a structured error
// envelope, so that callers recognize server conditions by error code
// rather than by Go type or raw status code.
package registryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/jsr-io/jsr-publish/dcontext"
)

// Client is the shared HTTP client used by auth, ensure, upload and
// provenance. A single instance is constructed by the caller of the
// orchestrator (the CLI) and passed by pointer to every concurrent upload
// task; retryablehttp.Client
// is documented safe for concurrent use, satisfying the "must be safe to
// clone" requirement on the shared transport.
type Client struct {
	HTTP    *retryablehttp.Client
	APIBase string
	WebBase string
}

// New builds a Client whose transport retries only transport-level
// failures (connection resets, 5xx) — it never retries after a response
// body has been successfully decoded, so business-logic retry decisions
// (duplicate detection, poll recovery) stay entirely with the callers in
// upload and auth.
func New(apiBase, webBase string) *Client {
	hc := retryablehttp.NewClient()
	hc.Logger = nil
	// Once retries of a 5xx are exhausted, hand back the last response so
	// its {code, message, data} envelope still reaches the caller.
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &Client{HTTP: hc, APIBase: apiBase, WebBase: webBase}
}

// Do issues req (already built against c.APIBase/c.WebBase) and returns
// the raw response. Transport-level failures are wrapped in
// *TransportError; the caller is responsible for closing resp.Body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	rreq, err := retryablehttp.FromRequest(req)
	if err != nil {
		return nil, &TransportError{URL: req.URL.String(), Err: err}
	}
	resp, err := c.HTTP.Do(rreq)
	if err != nil {
		return nil, &TransportError{URL: req.URL.String(), Err: err}
	}
	return resp, nil
}

// DoJSON issues a request with an optional JSON body and decodes a
// successful response into out (which may be nil if the caller does not
// need the body). On a non-2xx response it decodes the {code, message,
// data} error envelope into a *ServerError.
func (c *Client) DoJSON(ctx context.Context, method, url string, headers http.Header, body interface{}, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body for %s: %w", url, err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	contentType := ""
	if body != nil {
		contentType = "application/json"
	}
	return c.doRaw(ctx, method, url, headers, contentType, bodyReader, out)
}

// DoRawBody issues a request whose body is already-encoded bytes (e.g. a
// gzipped tarball) rather than a value to be JSON-marshaled, decoding a
// JSON response the same way DoJSON does.
func (c *Client) DoRawBody(ctx context.Context, method, url string, headers http.Header, contentType string, body []byte, out interface{}) error {
	return c.doRaw(ctx, method, url, headers, contentType, bytes.NewReader(body), out)
}

func (c *Client) doRaw(ctx context.Context, method, url string, headers http.Header, contentType string, bodyReader io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", url, err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	dcontext.GetLogger(ctx).Debugf("%s %s", method, url)

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body from %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serverErr := &ServerError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(raw, serverErr); jsonErr != nil {
			serverErr.Message = string(raw)
		}
		return serverErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response body from %s: %w", url, err)
	}
	return nil
}

// NotFound reports whether err is a *ServerError carrying HTTP 404,
// the shape used across the codebase to detect "entity does not exist"
// without a dedicated error code from the registry.
func NotFound(err error) bool {
	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		return false
	}
	return serverErr.StatusCode == http.StatusNotFound
}
