package dataset

import (
	"github.com/apache/arrow/go/v14/arrow"

	"Shopify/taxi-parquet-loader/schema"
)

// CleanedBatch holds the rows of one record batch that survived cleaning.
type CleanedBatch struct {
	Rows []schema.Trip
	// NumRead is the number of rows in the source batch before cleaning.
	NumRead int64
}

func (b CleanedBatch) NumDropped() int64 {
	return b.NumRead - int64(len(b.Rows))
}

// Clean validates that record carries every required column, projects it to those
// columns, coerces the datetime columns and drops every row with a missing value.
// A datetime that cannot be parsed is treated as missing.
func Clean(record arrow.Record) (CleanedBatch, error) {
	if missing := MissingColumns(record.Schema()); len(missing) > 0 {
		return CleanedBatch{}, &MissingColumnsError{Columns: missing}
	}

	pickups, pickupsValid := coerceDatetimes(lookupColumn(record, schema.PickupDatetimeColumn))
	dropoffs, dropoffsValid := coerceDatetimes(lookupColumn(record, schema.DropoffDatetimeColumn))
	distances, distancesValid, err := coerceFloats(schema.TripDistanceColumn, lookupColumn(record, schema.TripDistanceColumn))
	if err != nil {
		return CleanedBatch{}, err
	}
	passengers, passengersValid, err := coerceFloats(schema.PassengerCountColumn, lookupColumn(record, schema.PassengerCountColumn))
	if err != nil {
		return CleanedBatch{}, err
	}

	numRows := int(record.NumRows())
	rows := make([]schema.Trip, 0, numRows)
	for i := 0; i < numRows; i++ {
		if !pickupsValid[i] || !dropoffsValid[i] || !distancesValid[i] || !passengersValid[i] {
			continue
		}
		rows = append(rows, schema.Trip{
			PickupDatetime:  pickups[i],
			DropoffDatetime: dropoffs[i],
			TripDistance:    distances[i],
			PassengerCount:  passengers[i],
		})
	}

	return CleanedBatch{
		Rows:    rows,
		NumRead: record.NumRows(),
	}, nil
}
