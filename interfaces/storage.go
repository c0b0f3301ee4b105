package interfaces

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// SizeUnknown disables size verification for a retrieval. Backends that
// perform a pre-flight size check skip it when the caller passes this value.
const SizeUnknown int64 = -1

// Location is a parsed storage location URI. It is produced by
// ParseLocation and consumed by storage backends; callers normally never
// build one by hand.
type Location struct {
	// Raw is the URI exactly as supplied by the caller. Backends that
	// recover credentials from the authority component work on Raw, since
	// generic URI parsing strips or reorders credential fields.
	Raw string

	// Scheme is the URI scheme, lowercased by URI normalization. The
	// backend registry looks it up exactly, with no further folding.
	Scheme string

	// Netloc is the authority component, including any user:password@
	// prefix present in the URI.
	Netloc string

	// Path is the path component, with its leading slash preserved.
	Path string

	// Query holds the decoded query parameters, if any.
	Query url.Values
}

// ParseLocation splits a storage location URI into its generic components.
// It validates only URI syntax, not the scheme: dispatching to a backend
// and rejecting unknown schemes is the job of the backend registry.
// Malformed URIs are reported as ErrInvalidLocationURI.
func ParseLocation(uri string) (Location, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	netloc := parsed.Host
	if parsed.User != nil {
		netloc = parsed.User.String() + "@" + parsed.Host
	}

	return Location{
		Raw:    uri,
		Scheme: parsed.Scheme,
		Netloc: netloc,
		Path:   parsed.Path,
		Query:  parsed.Query(),
	}, nil
}

// ChunkStream is a lazy, forward-only sequence of byte chunks backed by an
// open resource (file handle, HTTP response body, object store
// connection). Chunks are produced on demand; nothing is read from the
// resource until Next is called.
//
// Every chunk is a freshly allocated slice that the caller owns. All
// chunks have the stream's configured chunk size except possibly the last.
//
// The stream releases its resource on its own when Next returns io.EOF or
// any other error. Callers that abandon a stream early must call Close;
// calling Close on an exhausted stream is a harmless no-op, so
//
//	stream, err := backend.Get(ctx, loc, size)
//	if err != nil { ... }
//	defer stream.Close()
//
// is always correct.
type ChunkStream interface {
	// Next returns the next chunk of object data. It returns io.EOF once
	// the stream is exhausted, and keeps returning io.EOF on further
	// calls. Any other error means the underlying read failed; the stream
	// is dead afterwards.
	Next() ([]byte, error)

	// Close releases the underlying resource. It is safe to call Close
	// multiple times and after exhaustion.
	Close() error
}

// Backend retrieves stored objects as chunk streams. One Backend instance
// serves all locations of its scheme family and holds no per-object state,
// so a single instance is shared by any number of concurrent retrievals.
//
// expectedSize is the object size the caller believes is stored, in bytes,
// or SizeUnknown. Backends that can learn the stored size without reading
// data (the object store backends) verify it before returning a stream and
// report a mismatch as a *BackendError.
//
// Errors a backend detects itself (malformed credential URIs, size
// mismatches, scheme misuse) surface as *BackendError. Failures of the
// underlying transport or filesystem are returned as-is, untranslated.
type Backend interface {
	Get(ctx context.Context, loc Location, expectedSize int64, opts ...GetOption) (ChunkStream, error)
}

// Retriever dispatches location URIs to storage backends. Implemented by
// the storage backend registry; declared here so that consumers like the
// image data handler can be tested against a substitute.
type Retriever interface {
	GetFromBackend(ctx context.Context, uri string, expectedSize int64, opts ...GetOption) (ChunkStream, error)
}

// FileOpener opens a resolved filesystem path for reading. The default is
// os.Open; tests substitute recording variants.
type FileOpener func(path string) (io.ReadCloser, error)

// HTTPConnector issues a single HTTP request. Satisfied by *http.Client.
type HTTPConnector interface {
	Do(req *http.Request) (*http.Response, error)
}

// ObjectStoreCredentials are the connection parameters recovered from an
// object store location URI.
type ObjectStoreCredentials struct {
	// User is the account or access key name.
	User string

	// APIKey is the account secret.
	APIKey string

	// AuthURL is the service or authentication endpoint,
	// e.g. "https://auth.example.com/v1.0".
	AuthURL string
}

// ObjectStoreConnector establishes an authenticated object store session.
// The swift and s3 backends each install a default connector speaking to
// the real service; tests substitute fakes through WithObjectConnector.
type ObjectStoreConnector interface {
	Connect(ctx context.Context, creds ObjectStoreCredentials) (ObjectStoreSession, error)
}

// ObjectStoreSession is an authenticated connection to an object store.
type ObjectStoreSession interface {
	// Object resolves a container and object name to a handle without
	// reading object data.
	Object(ctx context.Context, container, object string) (ObjectHandle, error)
}

// ObjectHandle is a resolved reference to a stored object.
type ObjectHandle interface {
	// Size reports the object size recorded by the store, in bytes.
	Size() int64

	// Open starts reading the object's data.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// GetOptions carries per-retrieval overrides. The zero value selects every
// backend's real default mechanism; the With* options exist so tests can
// substitute the network and filesystem edges without touching the backend
// registry.
type GetOptions struct {
	FileOpener      FileOpener
	HTTPConnector   HTTPConnector
	ObjectConnector ObjectStoreConnector
}

// GetOption customizes a single retrieval.
type GetOption func(*GetOptions)

// ApplyGetOptions folds opts into a GetOptions struct.
func ApplyGetOptions(opts []GetOption) GetOptions {
	var o GetOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithFileOpener overrides how the filesystem backend opens resolved
// paths.
func WithFileOpener(open FileOpener) GetOption {
	return func(o *GetOptions) { o.FileOpener = open }
}

// WithHTTPConnector overrides the HTTP client used by the HTTP backend.
// With an override in place the backend performs no scheme check, so a
// test connector can serve any scheme.
func WithHTTPConnector(conn HTTPConnector) GetOption {
	return func(o *GetOptions) { o.HTTPConnector = conn }
}

// WithObjectConnector overrides the object store connector used by the
// swift and s3 backends.
func WithObjectConnector(conn ObjectStoreConnector) GetOption {
	return func(o *GetOptions) { o.ObjectConnector = conn }
}

// Storage subsystem errors.
var (
	// ErrInvalidLocationURI indicates a location URI that does not parse
	// as a URI at all.
	ErrInvalidLocationURI = errors.New("invalid storage location URI")

	// ErrImageNotFound indicates an image ID unknown to the metadata
	// index.
	ErrImageNotFound = errors.New("image not found")
)

// UnsupportedBackendError reports a location URI whose scheme has no
// registered backend.
type UnsupportedBackendError struct {
	// Scheme is the offending URI scheme, verbatim.
	Scheme string
}

func (e *UnsupportedBackendError) Error() string {
	return fmt.Sprintf("unsupported backend scheme: %s", e.Scheme)
}

// BackendError reports a failure a backend detected itself: a credential
// URI that does not match the backend's expected shape, a stored object
// whose size contradicts the caller's expectation, or a location handed to
// a backend that cannot serve its scheme. Transport and filesystem errors
// are never wrapped in a BackendError.
type BackendError struct {
	Msg string
}

func (e *BackendError) Error() string {
	return e.Msg
}

// NewBackendError builds a *BackendError with a formatted message.
func NewBackendError(format string, args ...any) *BackendError {
	return &BackendError{Msg: fmt.Sprintf(format, args...)}
}
