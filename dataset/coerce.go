package dataset

import (
	"math"
	"strings"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/pkg/errors"
)

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 MST",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// coerceDatetimes converts a column to UTC times. Values that are null or cannot
// be interpreted as a point in time are reported invalid instead of failing.
func coerceDatetimes(column arrow.Array) ([]time.Time, []bool) {
	values := make([]time.Time, column.Len())
	valid := make([]bool, column.Len())

	var at func(i int) (time.Time, bool)
	switch col := column.(type) {
	case *array.Timestamp:
		unit := col.DataType().(*arrow.TimestampType).Unit
		at = func(i int) (time.Time, bool) {
			return timestampToTime(int64(col.Value(i)), unit), true
		}
	case *array.Date32:
		at = func(i int) (time.Time, bool) {
			return time.Unix(int64(col.Value(i))*86400, 0).UTC(), true
		}
	case *array.Date64:
		at = func(i int) (time.Time, bool) {
			return time.UnixMilli(int64(col.Value(i))).UTC(), true
		}
	case *array.Int64:
		at = func(i int) (time.Time, bool) {
			return time.Unix(0, col.Value(i)).UTC(), true
		}
	case *array.String:
		at = func(i int) (time.Time, bool) {
			return parseDatetime(col.Value(i))
		}
	case *array.LargeString:
		at = func(i int) (time.Time, bool) {
			return parseDatetime(col.Value(i))
		}
	case *array.Binary:
		at = func(i int) (time.Time, bool) {
			return parseDatetime(col.ValueString(i))
		}
	default:
		return values, valid
	}

	for i := 0; i < column.Len(); i++ {
		if column.IsNull(i) {
			continue
		}
		values[i], valid[i] = at(i)
	}
	return values, valid
}

func timestampToTime(v int64, unit arrow.TimeUnit) time.Time {
	switch unit {
	case arrow.Second:
		return time.Unix(v, 0).UTC()
	case arrow.Millisecond:
		return time.UnixMilli(v).UTC()
	case arrow.Microsecond:
		return time.UnixMicro(v).UTC()
	default:
		return time.Unix(0, v).UTC()
	}
}

func parseDatetime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// coerceFloats widens a numeric column to float64. NaN counts as missing.
func coerceFloats(name string, column arrow.Array) ([]float64, []bool, error) {
	var at func(i int) float64
	switch col := column.(type) {
	case *array.Float64:
		at = col.Value
	case *array.Float32:
		at = func(i int) float64 { return float64(col.Value(i)) }
	case *array.Int64:
		at = func(i int) float64 { return float64(col.Value(i)) }
	case *array.Int32:
		at = func(i int) float64 { return float64(col.Value(i)) }
	case *array.Int16:
		at = func(i int) float64 { return float64(col.Value(i)) }
	case *array.Int8:
		at = func(i int) float64 { return float64(col.Value(i)) }
	case *array.Uint64:
		at = func(i int) float64 { return float64(col.Value(i)) }
	case *array.Uint32:
		at = func(i int) float64 { return float64(col.Value(i)) }
	case *array.Uint16:
		at = func(i int) float64 { return float64(col.Value(i)) }
	case *array.Uint8:
		at = func(i int) float64 { return float64(col.Value(i)) }
	case *array.Null:
		return make([]float64, column.Len()), make([]bool, column.Len()), nil
	default:
		return nil, nil, errors.Errorf("column %s has non-numeric type %s", name, column.DataType())
	}

	values := make([]float64, column.Len())
	valid := make([]bool, column.Len())
	for i := 0; i < column.Len(); i++ {
		if column.IsNull(i) {
			continue
		}
		values[i] = at(i)
		valid[i] = !math.IsNaN(values[i])
	}
	return values, valid, nil
}
