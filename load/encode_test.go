package load

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/segmentio/parquet-go"
	"github.com/stretchr/testify/require"

	"Shopify/taxi-parquet-loader/dataset"
	"Shopify/taxi-parquet-loader/schema"
)

func TestEncodeParquet(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	trips := make([]schema.Trip, 0, 3*rowsPerWrite+5)
	for i := 0; i < cap(trips); i++ {
		trips = append(trips, schema.Trip{
			PickupDatetime:  start.Add(time.Duration(i) * time.Second),
			DropoffDatetime: start.Add(time.Duration(i)*time.Second + 10*time.Minute),
			TripDistance:    float64(i) / 10,
			PassengerCount:  float64(i % 5),
		})
	}

	data, err := EncodeParquet(schema.MakeTripSchema(), trips)
	require.NoError(t, err)

	decoded := decodeTrips(t, data)
	require.Equal(t, trips, decoded)
}

// Enough rows for the timestamp columns to span many pages and miniblocks, with
// irregular sub-second steps between neighbouring values.
func TestEncodeParquetTimestampsRoundTrip(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	trips := make([]schema.Trip, 0, 10_000)
	for i := 0; i < cap(trips); i++ {
		pickup := start.Add(time.Duration(i)*time.Second + time.Duration(i*7919%1_000_000)*time.Microsecond)
		trips = append(trips, schema.Trip{
			PickupDatetime:  pickup,
			DropoffDatetime: pickup.Add(time.Duration(i%3600)*time.Second + 250*time.Microsecond),
			TripDistance:    float64(i%97) / 7,
			PassengerCount:  float64(i % 6),
		})
	}

	tripSchema := schema.MakeTripSchema()
	data, err := EncodeParquet(tripSchema, trips)
	require.NoError(t, err)

	t.Run("arrow reader", func(t *testing.T) {
		decoded := decodeTrips(t, data)
		require.Len(t, decoded, len(trips))
		for i := range trips {
			require.Equal(t, trips[i], decoded[i], "row %d", i)
		}
	})

	t.Run("parquet reader", func(t *testing.T) {
		file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
		require.NoError(t, err)

		var decoded []schema.Trip
		for _, rowGroup := range file.RowGroups() {
			rowGroupRows := rowGroup.Rows()
			for {
				rows := make([]parquet.Row, 512)
				n, err := rowGroupRows.ReadRows(rows)
				for _, row := range rows[:n] {
					trip, err := tripSchema.TripFromRow(row)
					require.NoError(t, err)
					decoded = append(decoded, trip)
				}
				if err == io.EOF || n == 0 {
					break
				}
				require.NoError(t, err)
			}
			require.NoError(t, rowGroupRows.Close())
		}
		require.Equal(t, trips, decoded)
	})
}

func TestEncodeParquetEmpty(t *testing.T) {
	data, err := EncodeParquet(schema.MakeTripSchema(), nil)
	require.NoError(t, err)

	reader, err := dataset.NewFileBatchReader(context.Background(), data, dataset.DefaultBatchSize, memory.NewGoAllocator())
	require.NoError(t, err)
	defer reader.Close()
	require.Equal(t, int64(0), reader.NumRows())
}

func decodeTrips(t *testing.T, data []byte) []schema.Trip {
	reader, err := dataset.NewFileBatchReader(context.Background(), data, dataset.DefaultBatchSize, memory.NewGoAllocator())
	require.NoError(t, err)
	defer reader.Close()

	var trips []schema.Trip
	for {
		batch, err := reader.NextBatch()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		cleaned, err := dataset.Clean(batch)
		require.NoError(t, err)
		require.Zero(t, cleaned.NumDropped())
		trips = append(trips, cleaned.Rows...)
	}
	return trips
}
