package main

import (
	"context"
	"io"
	"time"

	"cloud.google.com/go/bigquery"
	gcsStorage "cloud.google.com/go/storage"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"Shopify/taxi-parquet-loader/config"
	"Shopify/taxi-parquet-loader/load"
	"Shopify/taxi-parquet-loader/storage"
)

const bucketComponent = "taxi-loader"

type dependencies struct {
	source      *storage.BucketSource
	destination *load.BigQueryDestination
	closers     []io.Closer
}

func setup(ctx context.Context, logger log.Logger, conf config.Config) (*dependencies, error) {
	level.Info(logger).Log("msg", "initializing clients")
	deps := &dependencies{}

	bkt, err := storage.NewBucket(ctx, logger, conf.Source.BucketConfig, bucketComponent)
	if err != nil {
		return nil, errors.Wrap(err, "create source bucket")
	}
	deps.source = storage.NewBucketSource(conf.Source.Bucket, bkt, storage.WithChunkSize(conf.Source.ChunkSize))
	deps.closers = append(deps.closers, deps.source)

	ref, err := conf.TableRef()
	if err != nil {
		deps.Close(logger)
		return nil, err
	}

	var clientOpts []option.ClientOption
	if conf.Destination.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(conf.Destination.CredentialsFile))
	}
	project := ref.Project
	if project == "" {
		project = bigquery.DetectProjectID
	}
	bqClient, err := bigquery.NewClient(ctx, project, clientOpts...)
	if err != nil {
		deps.Close(logger)
		return nil, errors.Wrap(err, "create bigquery client")
	}
	deps.closers = append(deps.closers, bqClient)

	bqOpts := []load.BigQueryOption{load.WithLocation(conf.Destination.Location)}
	if conf.Destination.StagingBucket != "" {
		gcsClient, err := gcsStorage.NewClient(ctx, clientOpts...)
		if err != nil {
			deps.Close(logger)
			return nil, errors.Wrap(err, "create staging client")
		}
		deps.closers = append(deps.closers, gcsClient)

		stager := load.NewGCSStager(gcsClient, conf.Destination.StagingBucket, conf.Destination.StagingPrefix)
		sweepStaging(ctx, logger, stager, conf.Destination.StagingMaxAge)
		bqOpts = append(bqOpts, load.WithStager(stager))
	}
	deps.destination = load.NewBigQueryDestination(logger, bqClient, ref, bqOpts...)
	return deps, nil
}

// sweepStaging removes batches left behind by earlier interrupted invocations.
func sweepStaging(ctx context.Context, logger log.Logger, stager *load.GCSStager, maxAge time.Duration) {
	removed, err := stager.Sweep(ctx, time.Now().Add(-maxAge))
	if err != nil {
		level.Warn(logger).Log("msg", "failed to sweep staged batches", "err", err)
		return
	}
	if removed > 0 {
		level.Info(logger).Log("msg", "removed stale staged batches", "count", removed)
	}
}

func (d *dependencies) Close(logger log.Logger) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			level.Warn(logger).Log("msg", "failed to close client", "err", err)
		}
	}
}
