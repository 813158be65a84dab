package load

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/segmentio/parquet-go"

	"Shopify/taxi-parquet-loader/schema"
)

const (
	maxPageSize     = 64 * 1024
	writeBufferSize = 256 * 1024
	rowsPerWrite    = 4 * 1024
)

// EncodeParquet serialises a cleaned row set into a single parquet file. An empty
// row set still produces a file carrying the full schema.
func EncodeParquet(tripSchema *schema.TripSchema, trips []schema.Trip) ([]byte, error) {
	var buffer bytes.Buffer
	if err := writeTrips(&buffer, tripSchema, trips); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func writeTrips(w io.Writer, tripSchema *schema.TripSchema, trips []schema.Trip) error {
	writer := parquet.NewGenericWriter[any](w,
		tripSchema.ParquetSchema(),
		parquet.WriteBufferSize(writeBufferSize),
		parquet.PageBufferSize(maxPageSize),
		parquet.DataPageStatistics(true),
	)

	rows := make([]parquet.Row, 0, rowsPerWrite)
	for start := 0; start < len(trips); start += rowsPerWrite {
		end := start + rowsPerWrite
		if end > len(trips) {
			end = len(trips)
		}
		rows = rows[:0]
		for _, trip := range trips[start:end] {
			rows = append(rows, tripSchema.MakeTripRow(trip))
		}
		if _, err := writer.WriteRows(rows); err != nil {
			return errors.Wrap(err, "failed writing rows")
		}
	}

	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "failed closing writer")
	}
	return nil
}
