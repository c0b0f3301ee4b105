package storage

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/halstead/image-delivery-backend/interfaces"
)

// HTTPBackend serves http:// and https:// locations by issuing a single
// GET request and streaming the response body.
//
// The backend attaches no meaning to response status codes: whatever the
// server sends back is the object, and a 404 HTML page streams as
// faithfully as a 200 disk image. Verifying that a location points at the
// intended object is the metadata owner's job. Transport errors are
// returned untranslated, and no size verification is performed since a
// Content-Length header is not authoritative.
//
// Requests deliberately carry no deadline of their own: image bodies can
// be tens of gigabytes, so cancellation is left entirely to the caller's
// context.
type HTTPBackend struct {
	client *http.Client
	log    *slog.Logger
}

// NewHTTPBackend creates an HTTP backend using a default client with no
// request timeout.
func NewHTTPBackend(log *slog.Logger) *HTTPBackend {
	return &HTTPBackend{
		client: &http.Client{},
		log:    log,
	}
}

// Get issues a GET request for loc and returns the response body as a
// chunk stream. The body is closed when the stream is exhausted, errors,
// or is closed early.
//
// With a connector override in place the scheme check is skipped, so
// tests can route any scheme through a substitute client.
func (b *HTTPBackend) Get(ctx context.Context, loc interfaces.Location, expectedSize int64, opts ...interfaces.GetOption) (interfaces.ChunkStream, error) {
	o := interfaces.ApplyGetOptions(opts)

	conn := interfaces.HTTPConnector(b.client)
	if o.HTTPConnector != nil {
		conn = o.HTTPConnector
	} else if loc.Scheme != "http" && loc.Scheme != "https" {
		return nil, interfaces.NewBackendError("scheme %s is not served by the HTTP backend", loc.Scheme)
	}

	// Request the URI exactly as given so query strings (signed URLs) and
	// escaping survive.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc.Raw, nil)
	if err != nil {
		return nil, interfaces.NewBackendError("building request for %s: %v", loc.Raw, err)
	}

	resp, err := conn.Do(req)
	if err != nil {
		return nil, err
	}

	b.log.Debug("Opened HTTP image source",
		slog.String("url", loc.Raw),
		slog.Int("status", resp.StatusCode))

	return NewChunkReader(resp.Body, DefaultChunkSize), nil
}
