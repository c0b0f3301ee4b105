package storage

import (
	"context"
	"log/slog"
	"sort"

	"github.com/halstead/image-delivery-backend/interfaces"
)

// Config carries the construction-time settings of the individual
// backends.
type Config struct {
	// FilesystemRoot is the directory the file:// backend serves from.
	// It must exist.
	FilesystemRoot string
}

// BackendRegistry maps URI schemes to storage backends and dispatches
// retrievals. The scheme table is built once here and never changes:
// file, http, https, swift and s3. Tests vary backend behavior through
// per-call GetOptions, not by editing the table.
//
// The registry is safe for concurrent use.
type BackendRegistry struct {
	backends map[string]interfaces.Backend
	log      *slog.Logger
}

// NewBackendRegistry creates a registry with all supported backends
// registered.
func NewBackendRegistry(cfg Config, log *slog.Logger) (*BackendRegistry, error) {
	if log == nil {
		log = slog.Default()
	}

	fileBackend, err := NewFilesystemBackend(cfg.FilesystemRoot, log)
	if err != nil {
		return nil, err
	}
	httpBackend := NewHTTPBackend(log)

	return &BackendRegistry{
		backends: map[string]interfaces.Backend{
			"file":  fileBackend,
			"http":  httpBackend,
			"https": httpBackend,
			"swift": NewObjectStoreBackend(log),
			"s3":    NewS3Backend(log),
		},
		log: log,
	}, nil
}

// BackendFor returns the backend registered for scheme. The lookup is
// exact: schemes arrive lowercased from URI parsing and the table holds
// only lowercase entries. An unknown scheme yields
// *interfaces.UnsupportedBackendError.
func (r *BackendRegistry) BackendFor(scheme string) (interfaces.Backend, error) {
	backend, ok := r.backends[scheme]
	if !ok {
		return nil, &interfaces.UnsupportedBackendError{Scheme: scheme}
	}
	return backend, nil
}

// Schemes returns the registered URI schemes, sorted, for startup logs
// and diagnostics.
func (r *BackendRegistry) Schemes() []string {
	schemes := make([]string, 0, len(r.backends))
	for scheme := range r.backends {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

// GetFromBackend parses uri, dispatches it to the backend serving its
// scheme and returns the object as a chunk stream. Backend errors are
// propagated unmodified; the registry adds no translation of its own.
//
// expectedSize is handed through to the backend, which may verify it
// against the stored object before streaming (see the package
// documentation). Pass interfaces.SizeUnknown when no size is on record.
func (r *BackendRegistry) GetFromBackend(ctx context.Context, uri string, expectedSize int64, opts ...interfaces.GetOption) (interfaces.ChunkStream, error) {
	loc, err := interfaces.ParseLocation(uri)
	if err != nil {
		return nil, err
	}

	backend, err := r.BackendFor(loc.Scheme)
	if err != nil {
		return nil, err
	}

	r.log.Debug("Dispatching retrieval",
		slog.String("scheme", loc.Scheme),
		slog.String("uri", uri),
		slog.Int64("expectedSize", expectedSize))

	return backend.Get(ctx, loc, expectedSize, opts...)
}
