package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/alecthomas/kingpin.v2"

	"Shopify/taxi-parquet-loader/config"
)

func TestOptionsOverrideConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("batch_size: 10\nsource:\n  path: a.parquet\n"), 0o600))

	cases := []struct {
		name string
		args []string

		expectedBatchSize int64
		expectedPath      string
		expectedTable     string
	}{
		{
			name:              "defaults",
			expectedBatchSize: config.Default().BatchSize,
			expectedPath:      config.Default().Source.Path,
			expectedTable:     config.Default().Destination.Table,
		},
		{
			name:              "file",
			args:              []string{"--config.file", file},
			expectedBatchSize: 10,
			expectedPath:      "a.parquet",
			expectedTable:     config.Default().Destination.Table,
		},
		{
			name:              "flags win over file",
			args:              []string{"--config.file", file, "--batch-size", "2", "--source.path", "b.parquet", "--destination.table", "d.t"},
			expectedBatchSize: 2,
			expectedPath:      "b.parquet",
			expectedTable:     "d.t",
		},
	}
	for _, tcase := range cases {
		t.Run(tcase.name, func(t *testing.T) {
			app := kingpin.New("taxi-loader", "")
			opts := Options{}
			opts.BindFlags(app)
			_, err := app.Parse(tcase.args)
			require.NoError(t, err)

			conf, err := opts.config()
			require.NoError(t, err)
			require.Equal(t, tcase.expectedBatchSize, conf.BatchSize)
			require.Equal(t, tcase.expectedPath, conf.Source.Path)
			require.Equal(t, tcase.expectedTable, conf.Destination.Table)
		})
	}
}

func TestOptionsRejectInvalidOverride(t *testing.T) {
	app := kingpin.New("taxi-loader", "")
	opts := Options{}
	opts.BindFlags(app)
	_, err := app.Parse([]string{"--batch-size=-5"})
	require.NoError(t, err)

	_, err = opts.config()
	require.ErrorContains(t, err, "batch size must be positive")
}
