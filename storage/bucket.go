package storage

import (
	"context"
	"io"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/thanos-io/objstore"
	"github.com/thanos-io/objstore/providers/filesystem"
	"github.com/thanos-io/objstore/providers/gcs"
	"github.com/thanos-io/objstore/providers/s3"
	"gopkg.in/yaml.v3"
)

type Provider string

const (
	GCS        Provider = "GCS"
	S3         Provider = "S3"
	FILESYSTEM Provider = "FILESYSTEM"
)

// BucketConfig selects an object storage provider. Config holds provider specific
// settings in the same shape objstore expects; Bucket is merged into it.
// For FILESYSTEM the bucket is a local directory.
type BucketConfig struct {
	Type   Provider               `yaml:"type"`
	Bucket string                 `yaml:"bucket"`
	Config map[string]interface{} `yaml:"config"`
}

func NewBucket(ctx context.Context, logger log.Logger, conf BucketConfig, component string) (objstore.Bucket, error) {
	switch Provider(strings.ToUpper(string(conf.Type))) {
	case GCS:
		providerConf, err := conf.providerConfig("bucket")
		if err != nil {
			return nil, err
		}
		return gcs.NewBucket(ctx, logger, providerConf, component)
	case S3:
		providerConf, err := conf.providerConfig("bucket")
		if err != nil {
			return nil, err
		}
		return s3.NewBucket(logger, providerConf, component)
	case FILESYSTEM:
		return filesystem.NewBucket(conf.Bucket)
	default:
		return nil, errors.Errorf("unsupported bucket type %q", conf.Type)
	}
}

func (c BucketConfig) providerConfig(bucketKey string) ([]byte, error) {
	merged := make(map[string]interface{}, len(c.Config)+1)
	for k, v := range c.Config {
		merged[k] = v
	}
	merged[bucketKey] = c.Bucket

	out, err := yaml.Marshal(merged)
	if err != nil {
		return nil, errors.Wrap(err, "failed marshalling bucket config")
	}
	return out, nil
}

// BlobSource gives whole-object access to a single container.
type BlobSource interface {
	Container() string
	Exists(ctx context.Context, name string) (bool, error)
	Fetch(ctx context.Context, name string) ([]byte, error)
}

type SourceOption func(*BucketSource)

// WithChunkSize downloads objects larger than size as concurrent ranged reads
// of at most size bytes each.
func WithChunkSize(size int) SourceOption {
	return func(s *BucketSource) {
		s.chunkSize = size
	}
}

type BucketSource struct {
	container string
	bucket    objstore.Bucket
	chunkSize int
}

func NewBucketSource(container string, bucket objstore.Bucket, opts ...SourceOption) *BucketSource {
	s := &BucketSource{
		container: container,
		bucket:    bucket,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s BucketSource) Container() string {
	return s.container
}

func (s BucketSource) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := s.bucket.Exists(ctx, name)
	if err != nil {
		return false, errors.Wrapf(err, "failed checking %s in bucket %s", name, s.container)
	}
	return ok, nil
}

// Fetch reads the whole object into memory.
func (s BucketSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	attrs, err := s.bucket.Attributes(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get attributes for "+name)
	}

	data := make([]byte, attrs.Size)
	if s.chunkSize > 0 && attrs.Size > int64(s.chunkSize) {
		reader := newChunkedReader(rangeReader{ctx: ctx, bucket: s.bucket, name: name}, s.chunkSize)
		if _, err := reader.ReadAt(data, 0); err != nil {
			return nil, errors.Wrap(err, "failed reading "+name)
		}
		return data, nil
	}

	reader, err := s.bucket.Get(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get "+name)
	}
	defer reader.Close()

	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, errors.Wrap(err, "failed reading "+name)
	}
	return data, nil
}

func (s BucketSource) Close() error {
	return s.bucket.Close()
}
