package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"Shopify/taxi-parquet-loader/dataset"
	"Shopify/taxi-parquet-loader/load"
	"Shopify/taxi-parquet-loader/schema"
	"Shopify/taxi-parquet-loader/storage"
)

// NotFoundError is returned when the source file does not exist.
type NotFoundError struct {
	Path      string
	Container string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("File %s not found in bucket %s", e.Path, e.Container)
}

type Options struct {
	// Path of the source file inside the source container.
	Path string
	// Table is the destination table name reported back to the caller.
	Table string
	// BatchSize is the maximum number of rows decoded and written at once.
	BatchSize int64
}

// BatchEvent describes a batch after it has been written.
type BatchEvent struct {
	Index       int
	TotalRows   int64
	Disposition load.Disposition
	Cleaned     dataset.CleanedBatch
}

type OpenBatchesFunc func(ctx context.Context, data []byte, batchSize int64) (dataset.BatchReader, error)

type PipelineOption func(*Pipeline)

// WithOpenBatches replaces the parquet decoder.
func WithOpenBatches(open OpenBatchesFunc) PipelineOption {
	return func(p *Pipeline) {
		p.openBatches = open
	}
}

// WithBatchObserver registers a callback invoked after every written batch.
func WithBatchObserver(observer func(BatchEvent)) PipelineOption {
	return func(p *Pipeline) {
		p.observers = append(p.observers, observer)
	}
}

// Pipeline loads one source file into one destination table. Each call to Run is
// a full refresh: the first batch replaces the table and later batches append.
type Pipeline struct {
	logger      log.Logger
	source      storage.BlobSource
	destination load.Destination
	opts        Options
	metrics     *metrics

	openBatches OpenBatchesFunc
	observers   []func(BatchEvent)
}

func NewPipeline(logger log.Logger, reg prometheus.Registerer, source storage.BlobSource, destination load.Destination, opts Options, options ...PipelineOption) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = dataset.DefaultBatchSize
	}
	p := &Pipeline{
		logger:      logger,
		source:      source,
		destination: destination,
		opts:        opts,
		metrics:     newMetrics(reg),
		openBatches: openFileBatches,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func openFileBatches(ctx context.Context, data []byte, batchSize int64) (dataset.BatchReader, error) {
	return dataset.NewFileBatchReader(ctx, data, batchSize, memory.NewGoAllocator())
}

func (p *Pipeline) Run(ctx context.Context) Result {
	if err := p.runRecovered(ctx); err != nil {
		level.Error(p.logger).Log("msg", "pipeline failed", "err", err)
		p.metrics.invocations.WithLabelValues("failure").Inc()
		return Failure(err)
	}

	level.Info(p.logger).Log("msg", "data processed and loaded", "table", p.opts.Table)
	p.metrics.invocations.WithLabelValues("success").Inc()
	return Success(p.opts.Table)
}

// runRecovered turns a panic anywhere in the invocation into an error.
func (p *Pipeline) runRecovered(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("unexpected failure: %v", r)
		}
	}()
	return p.run(ctx)
}

func (p *Pipeline) run(ctx context.Context) error {
	container := p.source.Container()
	level.Info(p.logger).Log("msg", "accessing file", "bucket", container, "path", p.opts.Path)
	exists, err := p.source.Exists(ctx, p.opts.Path)
	if err != nil {
		return err
	}
	if !exists {
		return &NotFoundError{Path: p.opts.Path, Container: container}
	}

	level.Info(p.logger).Log("msg", "downloading file", "path", p.opts.Path)
	data, err := p.source.Fetch(ctx, p.opts.Path)
	if err != nil {
		return err
	}
	p.metrics.sourceBytes.Set(float64(len(data)))

	reader, err := p.openBatches(ctx, data, p.opts.BatchSize)
	if err != nil {
		return errors.Wrap(err, "open parquet file")
	}
	defer reader.Close()

	level.Info(p.logger).Log("msg", "processing file in batches", "rows", reader.NumRows(), "batch_size", reader.MaxBatchSize())
	var (
		index     int
		totalRows int64
	)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := reader.NextBatch()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "decode batch %d", index)
		}

		level.Info(p.logger).Log("msg", "processing batch", "batch", index, "rows", batch.NumRows())
		cleaned, err := dataset.Clean(batch)
		if err != nil {
			return err
		}
		p.metrics.rowsRead.Add(float64(cleaned.NumRead))
		p.metrics.rowsDropped.Add(float64(cleaned.NumDropped()))

		if err := p.write(ctx, index, cleaned.Rows); err != nil {
			return err
		}
		totalRows += int64(len(cleaned.Rows))
		p.notify(BatchEvent{
			Index:       index,
			TotalRows:   totalRows,
			Disposition: load.DispositionFor(index),
			Cleaned:     cleaned,
		})
		index++
	}

	// An empty file still refreshes the table.
	if index == 0 {
		if err := p.write(ctx, 0, nil); err != nil {
			return err
		}
		p.notify(BatchEvent{Disposition: load.Replace})
	}
	level.Info(p.logger).Log("msg", "all batches loaded", "batches", index, "rows", totalRows)
	return nil
}

func (p *Pipeline) write(ctx context.Context, index int, trips []schema.Trip) error {
	disposition := load.DispositionFor(index)
	level.Info(p.logger).Log("msg", "loading batch to table", "batch", index, "table", p.opts.Table, "rows", len(trips), "disposition", disposition)

	start := time.Now()
	if err := p.destination.Write(ctx, trips, disposition); err != nil {
		return errors.Wrapf(err, "write batch %d to %s", index, p.opts.Table)
	}
	p.metrics.batchWriteDuration.Observe(time.Since(start).Seconds())
	p.metrics.batches.Inc()
	p.metrics.rowsWritten.Add(float64(len(trips)))
	return nil
}

func (p *Pipeline) notify(event BatchEvent) {
	for _, observer := range p.observers {
		observer(event)
	}
}
