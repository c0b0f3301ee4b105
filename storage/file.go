package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/halstead/image-delivery-backend/interfaces"
)

// FilesystemBackend serves file:// locations from a configured root
// directory. Every location is resolved against the root and must stay
// inside it; symlinks under the root are resolved with the root as a
// boundary, so a link pointing outside cannot expose foreign files.
//
// The backend performs no size verification. Open errors from the
// filesystem are returned untranslated.
type FilesystemBackend struct {
	root string
	log  *slog.Logger
}

// NewFilesystemBackend creates a filesystem backend rooted at root. The
// directory must exist; nothing is created.
func NewFilesystemBackend(root string, log *slog.Logger) (*FilesystemBackend, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving filesystem root: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("filesystem root unavailable: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("filesystem root %s is not a directory", abs)
	}

	return &FilesystemBackend{root: abs, log: log}, nil
}

// Get opens the file addressed by loc and returns it as a chunk stream.
// expectedSize is ignored: the filesystem records no authoritative size to
// verify against ahead of reading.
func (b *FilesystemBackend) Get(ctx context.Context, loc interfaces.Location, expectedSize int64, opts ...interfaces.GetOption) (interfaces.ChunkStream, error) {
	o := interfaces.ApplyGetOptions(opts)

	path, err := b.resolve(loc)
	if err != nil {
		return nil, err
	}

	open := o.FileOpener
	if open == nil {
		open = defaultFileOpener
	}

	f, err := open(path)
	if err != nil {
		return nil, err
	}

	b.log.Debug("Opened image file",
		slog.String("path", path),
		slog.String("uri", loc.Raw))

	return NewChunkReader(f, DefaultChunkSize), nil
}

// resolve maps a location to an absolute path under the backend root.
// Absolute URI paths must already lie inside the root; relative ones are
// taken relative to it. Either way the result may not escape.
func (b *FilesystemBackend) resolve(loc interfaces.Location) (string, error) {
	// A relative file URI like file://images/disk.img parses with the
	// first segment as the authority; fold it back into the path.
	p := loc.Path
	if loc.Netloc != "" {
		p = loc.Netloc + p
	}
	if p == "" {
		return "", interfaces.NewBackendError("file URI %s has no path", loc.Raw)
	}

	var rel string
	if filepath.IsAbs(p) {
		r, err := filepath.Rel(b.root, filepath.Clean(p))
		if err != nil {
			return "", interfaces.NewBackendError("file URI %s resolves outside the storage root %s", loc.Raw, b.root)
		}
		rel = r
	} else {
		rel = filepath.Clean(p)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", interfaces.NewBackendError("file URI %s resolves outside the storage root %s", loc.Raw, b.root)
	}

	resolved, err := securejoin.SecureJoin(b.root, rel)
	if err != nil {
		return "", interfaces.NewBackendError("file URI %s does not resolve to a usable path: %v", loc.Raw, err)
	}
	return resolved, nil
}

func defaultFileOpener(path string) (io.ReadCloser, error) {
	return os.Open(path)
}
