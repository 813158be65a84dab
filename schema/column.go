package schema

import (
	"reflect"

	"github.com/segmentio/parquet-go"
	"github.com/segmentio/parquet-go/compress/snappy"
	"github.com/segmentio/parquet-go/deprecated"
	"github.com/segmentio/parquet-go/format"
)

type column struct {
	parquet.Node
	name string
}

func newColumn(name string, node parquet.Node) *column {
	return &column{Node: node, name: name}
}

// Microsecond precision is the finest unit the destination accepts for TIMESTAMP columns.
// Values stay PLAIN encoded: arrow readers decode segmentio's DELTA_BINARY_PACKED pages
// with shifted values once a column chunk spans several miniblocks.
func newTimestampColumn(name string) *column {
	node := parquet.Timestamp(parquet.Microsecond)
	node = parquet.Compressed(node, &snappy.Codec{})
	return newColumn(name, node)
}

func newDoubleColumn(name string) *column {
	node := parquet.Leaf(parquet.DoubleType)
	node = parquet.Compressed(node, &snappy.Codec{})
	return newColumn(name, node)
}

func (l column) Name() string { return l.name }

func (l column) Value(base reflect.Value) reflect.Value { return base }

type groupType struct {
	parquet.Type
}

func (groupType) String() string { return "group" }

func (groupType) Length() int { return 0 }

func (groupType) EstimateSize(int) int { return 0 }

func (groupType) EstimateNumValues(int) int { return 0 }

func (groupType) ColumnOrder() *format.ColumnOrder { return nil }

func (groupType) PhysicalType() *format.Type { return nil }

func (groupType) LogicalType() *format.LogicalType { return nil }

func (groupType) ConvertedType() *deprecated.ConvertedType { return nil }
