package load

import (
	"bytes"
	"context"

	"cloud.google.com/go/bigquery"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	"Shopify/taxi-parquet-loader/schema"
)

// Destination receives cleaned row sets. Write returns only once the write
// has completed or failed.
type Destination interface {
	Write(ctx context.Context, trips []schema.Trip, disposition Disposition) error
}

type BigQueryOption func(*BigQueryDestination)

// WithLocation pins load jobs to a BigQuery location such as "US".
func WithLocation(location string) BigQueryOption {
	return func(d *BigQueryDestination) {
		d.location = location
	}
}

// WithStager uploads each encoded batch to object storage and loads it from
// there instead of sending the bytes inline with the job request.
func WithStager(stager *GCSStager) BigQueryOption {
	return func(d *BigQueryDestination) {
		d.stager = stager
	}
}

// BigQueryDestination writes cleaned batches through BigQuery load jobs.
type BigQueryDestination struct {
	logger     log.Logger
	client     *bigquery.Client
	ref        TableRef
	location   string
	stager     *GCSStager
	tripSchema *schema.TripSchema
}

func NewBigQueryDestination(logger log.Logger, client *bigquery.Client, ref TableRef, opts ...BigQueryOption) *BigQueryDestination {
	d := &BigQueryDestination{
		logger:     logger,
		client:     client,
		ref:        ref,
		tripSchema: schema.MakeTripSchema(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *BigQueryDestination) Write(ctx context.Context, trips []schema.Trip, disposition Disposition) error {
	data, err := EncodeParquet(d.tripSchema, trips)
	if err != nil {
		return errors.Wrap(err, "encode batch")
	}

	source, cleanup, err := d.loadSource(ctx, data)
	if err != nil {
		return err
	}
	defer cleanup()

	loader := d.table().LoaderFrom(source)
	loader.CreateDisposition = bigquery.CreateIfNeeded
	loader.WriteDisposition = disposition.writeDisposition()
	loader.Location = d.location

	job, err := loader.Run(ctx)
	if err != nil {
		return errors.Wrapf(err, "start load job into %s", d.ref)
	}
	level.Debug(d.logger).Log("msg", "load job started", "job", job.ID(), "table", d.ref, "disposition", disposition, "rows", len(trips))

	status, err := job.Wait(ctx)
	if err != nil {
		return errors.Wrapf(err, "wait for load job %s", job.ID())
	}
	if err := status.Err(); err != nil {
		return errors.Wrapf(err, "load job %s failed", job.ID())
	}
	return nil
}

func (d *BigQueryDestination) table() *bigquery.Table {
	if d.ref.Project == "" {
		return d.client.Dataset(d.ref.Dataset).Table(d.ref.Table)
	}
	return d.client.DatasetInProject(d.ref.Project, d.ref.Dataset).Table(d.ref.Table)
}

func (d *BigQueryDestination) loadSource(ctx context.Context, data []byte) (bigquery.LoadSource, func(), error) {
	if d.stager == nil {
		source := bigquery.NewReaderSource(bytes.NewReader(data))
		source.SourceFormat = bigquery.Parquet
		source.AutoDetect = true
		return source, func() {}, nil
	}

	object, err := d.stager.Stage(ctx, data)
	if err != nil {
		return nil, nil, err
	}
	source := bigquery.NewGCSReference(object.URI())
	source.SourceFormat = bigquery.Parquet
	source.AutoDetect = true

	cleanup := func() {
		if err := d.stager.Remove(ctx, object); err != nil {
			level.Warn(d.logger).Log("msg", "failed to remove staged batch", "object", object.URI(), "err", err)
		}
	}
	return source, cleanup, nil
}
