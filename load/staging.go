package load

import (
	"context"
	"crypto/rand"
	"fmt"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/googleapis/gax-go/v2"
	"github.com/oklog/ulid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
)

const (
	stagedObjectSuffix = ".parquet"
	deleteConcurrency  = 16
)

// StagedObject is an encoded batch uploaded for a load job.
type StagedObject struct {
	Bucket string
	Name   string
}

func (o StagedObject) URI() string {
	return fmt.Sprintf("gs://%s/%s", o.Bucket, o.Name)
}

// GCSStager uploads encoded batches under a prefix of a staging bucket.
type GCSStager struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSStager(client *storage.Client, bucket, prefix string) *GCSStager {
	return &GCSStager{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (s *GCSStager) Stage(ctx context.Context, data []byte) (StagedObject, error) {
	object := StagedObject{Bucket: s.bucket, Name: stagedObjectName(s.prefix, time.Now())}

	w := s.client.Bucket(s.bucket).Object(object.Name).NewWriter(ctx)
	w.ContentType = "application/vnd.apache.parquet"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return StagedObject{}, errors.Wrapf(err, "upload %s", object.URI())
	}
	if err := w.Close(); err != nil {
		return StagedObject{}, errors.Wrapf(err, "upload %s", object.URI())
	}
	return object, nil
}

func (s *GCSStager) Remove(ctx context.Context, object StagedObject) error {
	err := s.client.Bucket(object.Bucket).Object(object.Name).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}

// Sweep deletes staged batches last updated before the cutoff. These are left
// behind by invocations that were interrupted between upload and removal.
func (s *GCSStager) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	query := &storage.Query{Prefix: s.prefix + "/"}
	if err := query.SetAttrSelection([]string{"Name", "Updated"}); err != nil {
		return 0, err
	}

	var stale []StagedObject
	it := s.client.Bucket(s.bucket).Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, errors.Wrapf(err, "list gs://%s/%s", s.bucket, s.prefix)
		}
		if isStaleStagedObject(attrs.Name, attrs.Updated, cutoff) {
			stale = append(stale, StagedObject{Bucket: s.bucket, Name: attrs.Name})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)
	for _, object := range stale {
		object := object
		g.Go(func() error {
			return s.sweepObject(gctx, object)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, errors.Wrap(err, "remove staged batches")
	}
	return len(stale), nil
}

// sweepObject retries deletes since nothing else will pick the object up again.
func (s *GCSStager) sweepObject(ctx context.Context, object StagedObject) error {
	handle := s.client.Bucket(object.Bucket).Object(object.Name).Retryer(
		storage.WithBackoff(gax.Backoff{
			Initial:    time.Second,
			Max:        30 * time.Second,
			Multiplier: 2,
		}),
		storage.WithPolicy(storage.RetryAlways),
	)
	if err := handle.Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return errors.Wrapf(err, "delete %s", object.URI())
	}
	return nil
}

func stagedObjectName(prefix string, now time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(now), rand.Reader)
	return path.Join(prefix, id.String()+stagedObjectSuffix)
}

func isStaleStagedObject(name string, updated, cutoff time.Time) bool {
	if !strings.HasSuffix(name, stagedObjectSuffix) {
		return false
	}
	id, err := ulid.Parse(strings.TrimSuffix(path.Base(name), stagedObjectSuffix))
	if err != nil {
		return false
	}
	if updated.IsZero() {
		updated = ulid.Time(id.Time())
	}
	return updated.Before(cutoff)
}
