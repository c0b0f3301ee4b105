package storage

import "io"

// DefaultChunkSize is the unit in which backends hand image data to
// callers. 4 KiB keeps per-chunk allocations small while staying large
// enough that relay loops are not syscall-bound.
const DefaultChunkSize = 4096

// ChunkReader adapts an open io.ReadCloser into an interfaces.ChunkStream.
// It reads nothing until Next is called and closes the source exactly
// once: on exhaustion, on the first read error, or on Close, whichever
// comes first.
//
// Every backend in this package returns its data through a ChunkReader,
// so the chunking and release semantics are identical across schemes.
type ChunkReader struct {
	src       io.ReadCloser
	chunkSize int
	done      bool
}

// NewChunkReader creates a chunk stream over src producing chunks of
// chunkSize bytes. A non-positive chunkSize selects DefaultChunkSize.
func NewChunkReader(src io.ReadCloser, chunkSize int) *ChunkReader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ChunkReader{src: src, chunkSize: chunkSize}
}

// Next returns the next chunk of data from the source. Chunks are full
// chunkSize slices except possibly the last one. Each chunk is a fresh
// allocation owned by the caller.
//
// Next returns io.EOF once the source is drained and on every call after
// that. A read error closes the source and is returned untranslated; the
// stream yields io.EOF from then on.
func (c *ChunkReader) Next() ([]byte, error) {
	if c.done {
		return nil, io.EOF
	}

	buf := make([]byte, c.chunkSize)
	n, err := io.ReadFull(c.src, buf)
	switch {
	case err == nil:
		return buf, nil
	case err == io.ErrUnexpectedEOF:
		// Source ended mid-chunk; the partial chunk is still data. The
		// next call observes the EOF and releases the source.
		return buf[:n], nil
	case err == io.EOF:
		c.release()
		return nil, io.EOF
	default:
		c.release()
		return nil, err
	}
}

// Close releases the underlying source. It is safe to call multiple times
// and after the stream is exhausted.
func (c *ChunkReader) Close() error {
	if c.done {
		return nil
	}
	return c.release()
}

func (c *ChunkReader) release() error {
	c.done = true
	return c.src.Close()
}
