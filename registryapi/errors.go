package registryapi

import "fmt"

// ServerError is the structured error envelope the registry returns on a
// non-2xx JSON response: {code, message, data}. Downstream code
// recognizes recoverable conditions ("authorizationPending",
// "duplicateVersionPublish") by Code, never by Go type identity, so that
// a single ServerError type can flow through every layer uniformly.
type ServerError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`

	// StatusCode is the HTTP status the response carried, kept for
	// logging and for errors with no recognized Code.
	StatusCode int `json:"-"`
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("registry error (%d %s): %s", e.StatusCode, e.Code, e.Message)
}

// TransportError wraps a failure that occurred before any response body
// could be parsed: DNS, connection reset, TLS, or a transport-level
// error retryablehttp gave up retrying.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error requesting %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
