package ingest

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestResult(t *testing.T) {
	success := Success("nyc_taxi_pipeline.taxi_trips")
	require.True(t, success.OK())
	require.NoError(t, success.Err())
	require.Equal(t, "nyc_taxi_pipeline.taxi_trips", success.Table())
	require.Equal(t, "Data processed and loaded to nyc_taxi_pipeline.taxi_trips", success.Message())
	require.Equal(t, 200, success.StatusCode())

	failure := Failure(&NotFoundError{Path: "raw/a.parquet", Container: "bucket"})
	require.False(t, failure.OK())
	require.Equal(t, "Error: File raw/a.parquet not found in bucket bucket", failure.Message())
	require.Equal(t, 500, failure.StatusCode())

	wrapped := Failure(errors.Wrap(errors.New("connection reset"), "write batch 3 to t"))
	require.Equal(t, "Error: write batch 3 to t: connection reset", wrapped.Message())
}
