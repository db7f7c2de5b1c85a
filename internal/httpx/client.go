package httpx

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewClient returns an HTTP client for calls to neighbouring services. Requests carry
// the trace context and the inbound request id.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(requestIDTransport{next: http.DefaultTransport}),
	}
}

type requestIDTransport struct {
	next http.RoundTripper
}

func (t requestIDTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	id := RequestIDFromContext(r.Context())
	if id == "" || r.Header.Get(RequestIDHeader) != "" {
		return t.next.RoundTrip(r)
	}
	r = r.Clone(r.Context())
	r.Header.Set(RequestIDHeader, id)
	return t.next.RoundTrip(r)
}
