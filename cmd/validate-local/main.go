package main

import (
	"context"
	"io"
	"os"

	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"

	"Shopify/taxi-parquet-loader/dataset"
)

func main() {
	app := kingpin.New("validate-local", "Clean a local taxi trip parquet file without loading it anywhere.")
	path := app.Arg("file", "Parquet file to validate.").Default("yellow_tripdata_2023-01.parquet").String()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := log.With(log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr)), "ts", log.DefaultTimestampUTC)
	rows, err := validate(context.Background(), logger, *path)
	if err != nil {
		level.Error(logger).Log("msg", "validation failed", "file", *path, "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log("msg", "processed rows", "rows", rows)
}

// validate reads the whole file at once and returns the number of rows left after cleaning.
func validate(ctx context.Context, logger log.Logger, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader, err := dataset.ReadAll(ctx, f, memory.NewGoAllocator())
	if err != nil {
		return 0, err
	}
	defer reader.Close()
	level.Info(logger).Log("msg", "parquet read successfully", "rows", reader.NumRows())

	if missing := dataset.MissingColumns(reader.Schema()); len(missing) > 0 {
		return 0, &dataset.MissingColumnsError{Columns: missing}
	}

	var rows int
	for {
		record, err := reader.NextBatch()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		cleaned, err := dataset.Clean(record)
		if err != nil {
			return 0, errors.Wrap(err, "clean rows")
		}
		rows += len(cleaned.Rows)
	}
	return rows, nil
}
