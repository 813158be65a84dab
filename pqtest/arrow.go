package pqtest

import (
	"bytes"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/apache/arrow/go/v14/parquet"
	"github.com/apache/arrow/go/v14/parquet/compress"
	"github.com/apache/arrow/go/v14/parquet/pqarrow"
)

// TimestampTrip mirrors the published taxi exports, which store datetimes as
// microsecond timestamps without a time zone.
type TimestampTrip struct {
	PickupDatetime  *time.Time
	DropoffDatetime *time.Time
	PassengerCount  *float64
	TripDistance    *float64
}

func ValidTimestampTrip(pickup, dropoff time.Time, distance, passengers float64) TimestampTrip {
	return TimestampTrip{
		PickupDatetime:  &pickup,
		DropoffDatetime: &dropoff,
		PassengerCount:  &passengers,
		TripDistance:    &distance,
	}
}

func Time(t time.Time) *time.Time { return &t }

var timestampTripSchema = arrow.NewSchema([]arrow.Field{
	{Name: "VendorID", Type: arrow.PrimitiveTypes.Int64},
	{Name: "tpep_pickup_datetime", Type: &arrow.TimestampType{Unit: arrow.Microsecond}, Nullable: true},
	{Name: "tpep_dropoff_datetime", Type: &arrow.TimestampType{Unit: arrow.Microsecond}, Nullable: true},
	{Name: "passenger_count", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	{Name: "trip_distance", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
}, nil)

// CreateTimestampFile writes trips through the arrow parquet writer, starting a
// new row group every rowGroupSize rows.
func CreateTimestampFile(rowGroupSize int64, trips []TimestampTrip) ([]byte, error) {
	mem := memory.NewGoAllocator()
	builder := array.NewRecordBuilder(mem, timestampTripSchema)
	defer builder.Release()

	vendors := builder.Field(0).(*array.Int64Builder)
	pickups := builder.Field(1).(*array.TimestampBuilder)
	dropoffs := builder.Field(2).(*array.TimestampBuilder)
	passengers := builder.Field(3).(*array.Float64Builder)
	distances := builder.Field(4).(*array.Float64Builder)
	for _, trip := range trips {
		vendors.Append(1)
		appendTimestamp(pickups, trip.PickupDatetime)
		appendTimestamp(dropoffs, trip.DropoffDatetime)
		appendFloat(passengers, trip.PassengerCount)
		appendFloat(distances, trip.TripDistance)
	}
	record := builder.NewRecord()
	defer record.Release()

	var buffer bytes.Buffer
	writer, err := pqarrow.NewFileWriter(timestampTripSchema, &buffer,
		parquet.NewWriterProperties(
			parquet.WithMaxRowGroupLength(rowGroupSize),
			parquet.WithCompression(compress.Codecs.Snappy),
		),
		pqarrow.DefaultWriterProps(),
	)
	if err != nil {
		return nil, err
	}
	if err := writer.Write(record); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func appendTimestamp(b *array.TimestampBuilder, t *time.Time) {
	if t == nil {
		b.AppendNull()
		return
	}
	b.Append(arrow.Timestamp(t.UnixMicro()))
}

func appendFloat(b *array.Float64Builder, f *float64) {
	if f == nil {
		b.AppendNull()
		return
	}
	b.Append(*f)
}
