package pqtest

import (
	"bytes"

	"github.com/segmentio/parquet-go"
)

// Trip mirrors the raw taxi export: datetimes stored as text, every column nullable.
type Trip struct {
	PickupDatetime  *string  `parquet:"tpep_pickup_datetime,optional"`
	DropoffDatetime *string  `parquet:"tpep_dropoff_datetime,optional"`
	TripDistance    *float64 `parquet:"trip_distance,optional"`
	PassengerCount  *float64 `parquet:"passenger_count,optional"`
	VendorID        int64    `parquet:"VendorID"`
}

// TripWithoutPassengers lacks the passenger_count column.
type TripWithoutPassengers struct {
	PickupDatetime  *string  `parquet:"tpep_pickup_datetime,optional"`
	DropoffDatetime *string  `parquet:"tpep_dropoff_datetime,optional"`
	TripDistance    *float64 `parquet:"trip_distance,optional"`
}

func ValidTrip(pickup, dropoff string, distance, passengers float64) Trip {
	return Trip{
		PickupDatetime:  &pickup,
		DropoffDatetime: &dropoff,
		TripDistance:    &distance,
		PassengerCount:  &passengers,
		VendorID:        1,
	}
}

func String(s string) *string { return &s }

func Float(f float64) *float64 { return &f }

// CreateFile writes every part as its own row group and returns the encoded file.
func CreateFile[T any](parts ...[]T) ([]byte, error) {
	var buffer bytes.Buffer
	writer := parquet.NewGenericWriter[T](&buffer,
		parquet.PageBufferSize(4),
	)

	for _, part := range parts {
		if _, err := writer.Write(part); err != nil {
			return nil, err
		}
		if err := writer.Flush(); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
