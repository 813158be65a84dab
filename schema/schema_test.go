package schema

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/segmentio/parquet-go"
	"github.com/stretchr/testify/require"
)

func TestTripSchema(t *testing.T) {
	tripSchema := MakeTripSchema()

	columns := tripSchema.ParquetSchema().Columns()
	require.Len(t, columns, len(RequiredColumns))
	for i, name := range RequiredColumns {
		require.Equal(t, []string{name}, columns[i])
	}

	pickup, ok := tripSchema.ParquetSchema().Lookup(PickupDatetimeColumn)
	require.True(t, ok)
	require.Equal(t, PickupDatetimePos, pickup.ColumnIndex)

	passengers, ok := tripSchema.ParquetSchema().Lookup(PassengerCountColumn)
	require.True(t, ok)
	require.Equal(t, PassengerCountPos, passengers.ColumnIndex)
}

func TestTripRoundTrip(t *testing.T) {
	tripSchema := MakeTripSchema()
	trips := []Trip{
		{
			PickupDatetime:  time.Date(2023, 1, 1, 0, 32, 10, 0, time.UTC),
			DropoffDatetime: time.Date(2023, 1, 1, 0, 40, 36, 0, time.UTC),
			TripDistance:    0.97,
			PassengerCount:  1,
		},
		{
			PickupDatetime:  time.Date(2023, 1, 1, 0, 55, 8, 123456000, time.UTC),
			DropoffDatetime: time.Date(2023, 1, 1, 1, 1, 27, 0, time.UTC),
			TripDistance:    1.1,
			PassengerCount:  2,
		},
	}

	var buffer bytes.Buffer
	writer := parquet.NewGenericWriter[any](&buffer, tripSchema.ParquetSchema())
	rows := make([]parquet.Row, 0, len(trips))
	for _, trip := range trips {
		rows = append(rows, tripSchema.MakeTripRow(trip))
	}
	_, err := writer.WriteRows(rows)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	file, err := parquet.OpenFile(bytes.NewReader(buffer.Bytes()), int64(buffer.Len()))
	require.NoError(t, err)
	require.Equal(t, int64(len(trips)), file.NumRows())

	readRows := make([]parquet.Row, len(trips))
	fileRows := file.RowGroups()[0].Rows()
	defer fileRows.Close()
	n, err := fileRows.ReadRows(readRows)
	if err != io.EOF {
		require.NoError(t, err)
	}
	require.Equal(t, len(trips), n)

	for i, row := range readRows[:n] {
		trip, err := tripSchema.TripFromRow(row)
		require.NoError(t, err)
		require.Equal(t, trips[i], trip)
	}
}
