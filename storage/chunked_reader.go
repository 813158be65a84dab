package storage

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/thanos-io/objstore"
	"golang.org/x/sync/errgroup"
)

const defaultReadConcurrency = 16

// rangeReader reads a single object through ranged GETs.
type rangeReader struct {
	ctx    context.Context
	bucket objstore.BucketReader
	name   string
}

func (r rangeReader) ReadAt(p []byte, off int64) (int, error) {
	rc, err := r.bucket.GetRange(r.ctx, r.name, off, int64(len(p)))
	if err != nil {
		return 0, errors.Wrapf(err, "failed to get range %d-%d of %s", off, off+int64(len(p)), r.name)
	}
	defer rc.Close()
	return io.ReadFull(rc, p)
}

// chunkedReader splits a read into parts of at most maxReadSize bytes and
// fetches them concurrently.
type chunkedReader struct {
	maxReadSize      int
	concurrencyLimit int
	reader           io.ReaderAt
}

func newChunkedReader(reader io.ReaderAt, maxReadSize int) *chunkedReader {
	return &chunkedReader{
		maxReadSize:      maxReadSize,
		concurrencyLimit: defaultReadConcurrency,
		reader:           reader,
	}
}

func (r chunkedReader) ReadAt(p []byte, off int64) (int, error) {
	var g errgroup.Group
	g.SetLimit(r.concurrencyLimit)
	for bytesRead := 0; bytesRead < len(p); bytesRead += r.maxReadSize {
		readUntil := minInt(bytesRead+r.maxReadSize, len(p))
		part := p[bytesRead:readUntil]
		partOffset := int64(bytesRead) + off
		g.Go(func() error {
			_, err := r.reader.ReadAt(part, partOffset)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(p), nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
