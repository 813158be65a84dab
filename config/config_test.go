package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"Shopify/taxi-parquet-loader/load"
	"Shopify/taxi-parquet-loader/storage"
)

func TestDefault(t *testing.T) {
	conf, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), conf)
	require.Equal(t, storage.GCS, conf.Source.Type)
	require.Equal(t, "nyc-taxi-data-nyc-taxi-pipeline", conf.Source.Bucket)
	require.Equal(t, "raw/yellow_tripdata_2023-01.parquet", conf.Source.Path)
	require.Equal(t, "nyc_taxi_pipeline.taxi_trips", conf.Destination.Table)
	require.Equal(t, int64(100000), conf.BatchSize)
	require.Zero(t, conf.Source.ChunkSize)
}

func TestLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
source:
  type: s3
  bucket: taxi
  path: 2023/01.parquet
  chunk_size: 8388608
  config:
    endpoint: localhost:9000
    insecure: true
destination:
  project: analytics
  table: trips.yellow
  staging_bucket: taxi-staging
  staging_max_age: 2h
batch_size: 5000
`), 0o600))

	conf, err := Load(file)
	require.NoError(t, err)
	require.Equal(t, storage.Provider("s3"), conf.Source.Type)
	require.Equal(t, "taxi", conf.Source.Bucket)
	require.Equal(t, "2023/01.parquet", conf.Source.Path)
	require.Equal(t, 8*1024*1024, conf.Source.ChunkSize)
	require.Equal(t, map[string]interface{}{"endpoint": "localhost:9000", "insecure": true}, conf.Source.Config)
	require.Equal(t, "taxi-staging", conf.Destination.StagingBucket)
	require.Equal(t, "staging", conf.Destination.StagingPrefix)
	require.Equal(t, 2*time.Hour, conf.Destination.StagingMaxAge)
	require.Equal(t, int64(5000), conf.BatchSize)

	ref, err := conf.TableRef()
	require.NoError(t, err)
	require.Equal(t, load.TableRef{Project: "analytics", Dataset: "trips", Table: "yellow"}, ref)
}

func TestParseInvalid(t *testing.T) {
	cases := []struct {
		name   string
		config string
		err    string
	}{
		{name: "unknown field", config: "batch_sise: 10", err: "field batch_sise not found"},
		{name: "zero batch size", config: "batch_size: 0", err: "batch size must be positive"},
		{name: "bad table", config: "destination:\n  table: trips", err: "invalid table name"},
		{name: "bad source type", config: "source:\n  type: azure", err: "unsupported source type"},
		{name: "empty path", config: "source:\n  path: \"\"", err: "source path is required"},
		{name: "negative chunk size", config: "source:\n  chunk_size: -1", err: "chunk size must not be negative"},
	}
	for _, tcase := range cases {
		t.Run(tcase.name, func(t *testing.T) {
			_, err := Parse([]byte(tcase.config))
			require.ErrorContains(t, err, tcase.err)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	conf, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, Default(), conf)
}

func TestTableRefKeepsExplicitProject(t *testing.T) {
	conf := Default()
	conf.Destination.Project = "fallback"
	conf.Destination.Table = "explicit.nyc_taxi_pipeline.taxi_trips"

	ref, err := conf.TableRef()
	require.NoError(t, err)
	require.Equal(t, "explicit", ref.Project)
}
