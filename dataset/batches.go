package dataset

import (
	"bytes"
	"context"
	"io"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/file"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
	"github.com/pkg/errors"
)

const DefaultBatchSize = 100_000

// BatchReader is a single-pass producer of record batches.
// NextBatch returns io.EOF once the input is exhausted. A returned record is
// owned by the reader and is only valid until the next call to NextBatch.
type BatchReader interface {
	io.Closer
	NextBatch() (arrow.Record, error)
	MaxBatchSize() int64
	NumRows() int64
}

type FileBatchReader struct {
	batchSize int64
	pqReader  *file.Reader
	records   pqarrow.RecordReader
}

// NewFileBatchReader decodes a parquet file held in memory into batches of at
// most batchSize rows. Batches span row group boundaries.
func NewFileBatchReader(ctx context.Context, data []byte, batchSize int64, mem memory.Allocator) (*FileBatchReader, error) {
	if batchSize <= 0 {
		return nil, errors.Errorf("batch size must be positive, got %d", batchSize)
	}
	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed opening parquet file")
	}
	return newFileBatchReader(ctx, pqReader, batchSize, mem)
}

// ReadAll decodes the whole file as a single record covering every row group.
func ReadAll(ctx context.Context, r parquet.ReaderAtSeeker, mem memory.Allocator) (*FileBatchReader, error) {
	pqReader, err := file.NewParquetReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed opening parquet file")
	}
	batchSize := pqReader.NumRows()
	if batchSize == 0 {
		batchSize = 1
	}
	return newFileBatchReader(ctx, pqReader, batchSize, mem)
}

func newFileBatchReader(ctx context.Context, pqReader *file.Reader, batchSize int64, mem memory.Allocator) (reader *FileBatchReader, err error) {
	defer func() {
		if p := recover(); p != nil {
			pqReader.Close()
			reader, err = nil, errors.Errorf("failed reading parquet metadata: %v", p)
		}
	}()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{
		Parallel:  false,
		BatchSize: batchSize,
	}, mem)
	if err != nil {
		pqReader.Close()
		return nil, errors.Wrap(err, "failed creating arrow reader")
	}

	records, err := arrowReader.GetRecordReader(ctx, nil, nil)
	if err != nil {
		pqReader.Close()
		return nil, errors.Wrap(err, "failed creating record reader")
	}

	return &FileBatchReader{
		batchSize: batchSize,
		pqReader:  pqReader,
		records:   records,
	}, nil
}

func (r *FileBatchReader) NextBatch() (batch arrow.Record, err error) {
	// The record reader panics when a column chunk fails to decode.
	defer func() {
		if p := recover(); p != nil {
			batch, err = nil, errors.Errorf("failed decoding record batch: %v", p)
		}
	}()
	return r.records.Read()
}

func (r *FileBatchReader) MaxBatchSize() int64 {
	return r.batchSize
}

func (r *FileBatchReader) NumRows() int64 {
	return r.pqReader.NumRows()
}

// Schema is the file schema, available even when the file has no rows.
func (r *FileBatchReader) Schema() *arrow.Schema {
	return r.records.Schema()
}

func (r *FileBatchReader) Close() error {
	r.records.Release()
	return r.pqReader.Close()
}
