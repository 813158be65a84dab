package load

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStagedObjectName(t *testing.T) {
	now := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	first := stagedObjectName("staging", now)
	second := stagedObjectName("staging", now)

	require.True(t, strings.HasPrefix(first, "staging/"))
	require.True(t, strings.HasSuffix(first, ".parquet"))
	require.NotEqual(t, first, second)
	require.Equal(t, "gs://bucket/"+first, StagedObject{Bucket: "bucket", Name: first}.URI())
}

func TestIsStaleStagedObject(t *testing.T) {
	created := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	name := stagedObjectName("staging", created)
	cutoff := created.Add(time.Hour)

	cases := []struct {
		name    string
		object  string
		updated time.Time
		stale   bool
	}{
		{name: "updated before cutoff", object: name, updated: created, stale: true},
		{name: "updated after cutoff", object: name, updated: cutoff.Add(time.Minute)},
		{name: "falls back to id time", object: name, stale: true},
		{name: "foreign object", object: "staging/manual-upload.parquet", updated: created},
		{name: "not parquet", object: "staging/notes.txt", updated: created},
	}
	for _, tcase := range cases {
		t.Run(tcase.name, func(t *testing.T) {
			require.Equal(t, tcase.stale, isStaleStagedObject(tcase.object, tcase.updated, cutoff))
		})
	}
}
