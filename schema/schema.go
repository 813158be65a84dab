package schema

import (
	"fmt"
	"reflect"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/parquet-go"
	"github.com/segmentio/parquet-go/compress"
	"github.com/segmentio/parquet-go/encoding"
)

const (
	PickupDatetimeColumn  = "tpep_pickup_datetime"
	DropoffDatetimeColumn = "tpep_dropoff_datetime"
	TripDistanceColumn    = "trip_distance"
	PassengerCountColumn  = "passenger_count"

	PickupDatetimePos  = 0
	DropoffDatetimePos = 1
	TripDistancePos    = 2
	PassengerCountPos  = 3
)

// RequiredColumns lists the source columns every record batch must carry,
// in the order they are projected into the cleaned row set.
var RequiredColumns = []string{
	PickupDatetimeColumn,
	DropoffDatetimeColumn,
	TripDistanceColumn,
	PassengerCountColumn,
}

// Trip is a single cleaned taxi trip. Every field is known to be present.
type Trip struct {
	PickupDatetime  time.Time
	DropoffDatetime time.Time
	// TripDistance is the distance reported by the taximeter, in miles.
	TripDistance float64
	// PassengerCount is kept as a float to match the source file, which stores it as a double.
	PassengerCount float64
}

func (t Trip) String() string {
	return fmt.Sprintf("{%s %s %g %g}",
		t.PickupDatetime.Format(time.RFC3339Nano),
		t.DropoffDatetime.Format(time.RFC3339Nano),
		t.TripDistance,
		t.PassengerCount,
	)
}

type tripRow struct{}

func (c tripRow) String() string { return "trip" }

func (c tripRow) Type() parquet.Type { return groupType{} }

func (c tripRow) Optional() bool { return false }

func (c tripRow) Repeated() bool { return false }

func (c tripRow) Required() bool { return true }

func (c tripRow) Leaf() bool { return false }

func (c tripRow) Fields() []parquet.Field {
	fields := make([]parquet.Field, 4)
	fields[PickupDatetimePos] = newTimestampColumn(PickupDatetimeColumn)
	fields[DropoffDatetimePos] = newTimestampColumn(DropoffDatetimeColumn)
	fields[TripDistancePos] = newDoubleColumn(TripDistanceColumn)
	fields[PassengerCountPos] = newDoubleColumn(PassengerCountColumn)
	return fields
}

func (c tripRow) Encoding() encoding.Encoding { return nil }

func (c tripRow) Compression() compress.Codec { return nil }

func (c tripRow) GoType() reflect.Type { return reflect.TypeOf(tripRow{}) }

// TripSchema is the parquet layout of a cleaned row set. Column order is fixed
// so that the destination infers the same table schema for every batch.
type TripSchema struct {
	schema *parquet.Schema
}

func MakeTripSchema() *TripSchema {
	return &TripSchema{
		schema: parquet.NewSchema("trip", tripRow{}),
	}
}

func (s *TripSchema) ParquetSchema() *parquet.Schema {
	return s.schema
}

func (s *TripSchema) MakeTripRow(trip Trip) parquet.Row {
	row := make(parquet.Row, 4)
	row[PickupDatetimePos] = parquet.Int64Value(trip.PickupDatetime.UnixMicro()).Level(0, 0, PickupDatetimePos)
	row[DropoffDatetimePos] = parquet.Int64Value(trip.DropoffDatetime.UnixMicro()).Level(0, 0, DropoffDatetimePos)
	row[TripDistancePos] = parquet.DoubleValue(trip.TripDistance).Level(0, 0, TripDistancePos)
	row[PassengerCountPos] = parquet.DoubleValue(trip.PassengerCount).Level(0, 0, PassengerCountPos)
	return row
}

// TripFromRow is the inverse of MakeTripRow.
func (s *TripSchema) TripFromRow(row parquet.Row) (Trip, error) {
	if len(row) != 4 {
		return Trip{}, errors.Errorf("expected 4 values in trip row, got %d", len(row))
	}
	return Trip{
		PickupDatetime:  time.UnixMicro(row[PickupDatetimePos].Int64()).UTC(),
		DropoffDatetime: time.UnixMicro(row[DropoffDatetimePos].Int64()).UTC(),
		TripDistance:    row[TripDistancePos].Double(),
		PassengerCount:  row[PassengerCountPos].Double(),
	}, nil
}
