package dataset

import (
	"fmt"
	"strings"

	"github.com/apache/arrow/go/v14/arrow"
	"golang.org/x/exp/slices"

	"Shopify/taxi-parquet-loader/schema"
)

// MissingColumnsError is returned when a batch lacks one or more required columns.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing columns in parquet: [%s]", strings.Join(e.Columns, ", "))
}

// MissingColumns returns the required columns absent from s, in required order.
// Names are matched exactly.
func MissingColumns(s *arrow.Schema) []string {
	present := make([]string, 0, len(s.Fields()))
	for _, field := range s.Fields() {
		present = append(present, field.Name)
	}

	var missing []string
	for _, name := range schema.RequiredColumns {
		if !slices.Contains(present, name) {
			missing = append(missing, name)
		}
	}
	return missing
}

func lookupColumn(record arrow.Record, name string) arrow.Array {
	indices := record.Schema().FieldIndices(name)
	if len(indices) == 0 {
		return nil
	}
	return record.Column(indices[0])
}
