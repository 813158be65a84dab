package load

import (
	"testing"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/require"
)

func TestDispositionFor(t *testing.T) {
	require.Equal(t, Replace, DispositionFor(0))
	for _, i := range []int{1, 2, 17, 1000} {
		require.Equal(t, Append, DispositionFor(i))
	}
}

func TestWriteDisposition(t *testing.T) {
	require.Equal(t, bigquery.WriteTruncate, Replace.writeDisposition())
	require.Equal(t, bigquery.WriteAppend, Append.writeDisposition())
	require.Equal(t, "REPLACE", Replace.String())
	require.Equal(t, "APPEND", Append.String())
}
