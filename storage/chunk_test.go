package storage

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackingReadCloser records whether Close was called on the wrapped
// reader.
type trackingReadCloser struct {
	io.Reader
	closed     bool
	closeCalls int
}

func (t *trackingReadCloser) Close() error {
	t.closed = true
	t.closeCalls++
	return nil
}

// failingReader yields some data, then a read error.
type failingReader struct {
	data []byte
	err  error
	pos  int
}

func (f *failingReader) Read(p []byte) (int, error) {
	if f.pos >= len(f.data) {
		return 0, f.err
	}
	n := copy(p, f.data[f.pos:])
	f.pos += n
	return n, nil
}

func drainChunks(t *testing.T, stream *ChunkReader) [][]byte {
	t.Helper()
	var chunks [][]byte
	for {
		chunk, err := stream.Next()
		if err == io.EOF {
			return chunks
		}
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
}

func TestChunkReaderSplitsIntoFixedChunks(t *testing.T) {
	src := &trackingReadCloser{Reader: strings.NewReader("fakedata")}
	stream := NewChunkReader(src, 2)

	chunks := drainChunks(t, stream)

	require.Len(t, chunks, 4)
	assert.Equal(t, []byte("fa"), chunks[0])
	assert.Equal(t, []byte("ke"), chunks[1])
	assert.Equal(t, []byte("da"), chunks[2])
	assert.Equal(t, []byte("ta"), chunks[3])
	assert.True(t, src.closed, "exhausting the stream must close the source")
}

func TestChunkReaderChunkCounts(t *testing.T) {
	testCases := []struct {
		name       string
		size       int
		chunkSize  int
		wantChunks int
		wantLast   int
	}{
		{name: "empty source", size: 0, chunkSize: 4, wantChunks: 0},
		{name: "single byte", size: 1, chunkSize: 4, wantChunks: 1, wantLast: 1},
		{name: "exactly one chunk", size: 4, chunkSize: 4, wantChunks: 1, wantLast: 4},
		{name: "one byte over", size: 5, chunkSize: 4, wantChunks: 2, wantLast: 1},
		{name: "several full chunks", size: 12, chunkSize: 4, wantChunks: 3, wantLast: 4},
		{name: "several chunks with remainder", size: 14, chunkSize: 4, wantChunks: 4, wantLast: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := bytes.Repeat([]byte("x"), tc.size)
			src := &trackingReadCloser{Reader: bytes.NewReader(data)}
			stream := NewChunkReader(src, tc.chunkSize)

			chunks := drainChunks(t, stream)

			require.Len(t, chunks, tc.wantChunks)
			for i, chunk := range chunks {
				if i < len(chunks)-1 {
					assert.Len(t, chunk, tc.chunkSize, "only the final chunk may be short")
				}
			}
			if tc.wantChunks > 0 {
				assert.Len(t, chunks[len(chunks)-1], tc.wantLast)
			}
			assert.Equal(t, data, bytes.Join(chunks, nil))
			assert.True(t, src.closed)
		})
	}
}

func TestChunkReaderExhaustedStreamStaysEmpty(t *testing.T) {
	src := &trackingReadCloser{Reader: strings.NewReader("fakedata")}
	stream := NewChunkReader(src, 2)

	drainChunks(t, stream)

	// Iterating again yields no chunks and no new error.
	for i := 0; i < 3; i++ {
		chunk, err := stream.Next()
		assert.Nil(t, chunk)
		assert.Equal(t, io.EOF, err)
	}
	assert.Equal(t, 1, src.closeCalls, "the source must be closed exactly once")
}

func TestChunkReaderCloseOnAbandonment(t *testing.T) {
	src := &trackingReadCloser{Reader: strings.NewReader("some longer data that will not be read fully")}
	stream := NewChunkReader(src, 4)

	chunk, err := stream.Next()
	require.NoError(t, err)
	require.Len(t, chunk, 4)

	require.NoError(t, stream.Close())
	assert.True(t, src.closed, "abandoning a stream must close the source")

	// Close is idempotent and the stream reads nothing more.
	require.NoError(t, stream.Close())
	assert.Equal(t, 1, src.closeCalls)

	_, err = stream.Next()
	assert.Equal(t, io.EOF, err)
}

func TestChunkReaderPropagatesReadErrors(t *testing.T) {
	readErr := errors.New("connection reset")
	src := &trackingReadCloser{Reader: &failingReader{data: []byte("partial!"), err: readErr}}
	stream := NewChunkReader(src, 8)

	chunk, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, []byte("partial!"), chunk)

	_, err = stream.Next()
	assert.Equal(t, readErr, err, "read errors must surface untranslated")
	assert.True(t, src.closed, "a read error must close the source")

	_, err = stream.Next()
	assert.Equal(t, io.EOF, err)
}

func TestChunkReaderChunksAreIndependent(t *testing.T) {
	src := &trackingReadCloser{Reader: strings.NewReader("aabbcc")}
	stream := NewChunkReader(src, 2)

	first, err := stream.Next()
	require.NoError(t, err)
	second, err := stream.Next()
	require.NoError(t, err)

	// Mutating an earlier chunk must not affect later ones.
	first[0] = 'Z'
	assert.Equal(t, []byte("bb"), second)
}

func TestChunkReaderDefaultChunkSize(t *testing.T) {
	data := bytes.Repeat([]byte("y"), DefaultChunkSize+100)
	src := &trackingReadCloser{Reader: bytes.NewReader(data)}
	stream := NewChunkReader(src, 0)

	chunks := drainChunks(t, stream)

	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], DefaultChunkSize)
	assert.Len(t, chunks[1], 100)
}
