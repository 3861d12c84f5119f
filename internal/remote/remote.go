package remote

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
)

// Request is a GET against URL with the given headers.
type Request struct {
	URL    string
	Header map[string]string
}

// Response is a completed exchange. A non-2xx Status is still a Response,
// not an error.
type Response struct {
	Status int
	Body   Body
}

// OK reports whether the status is 2xx.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Unauthorized reports whether the status is 401.
func (r Response) Unauthorized() bool {
	return r.Status == http.StatusUnauthorized
}

// Requester performs requests. Implementations must be safe for concurrent
// use.
type Requester interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// TransportError means no usable response was received.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// BasicCredential encodes user:pass for an Authorization: Basic header.
func BasicCredential(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}

// BasicAuthHeader returns the header map carrying credential.
func BasicAuthHeader(credential string) map[string]string {
	return map[string]string{"Authorization": "Basic " + credential}
}
