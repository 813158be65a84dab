package load

import "cloud.google.com/go/bigquery"

// Disposition decides whether a write replaces or extends the destination table.
type Disposition int

const (
	Replace Disposition = iota
	Append
)

// DispositionFor returns the disposition of the batch at the given position in
// an invocation: the first batch replaces the table, every later one appends.
func DispositionFor(batchIndex int) Disposition {
	if batchIndex == 0 {
		return Replace
	}
	return Append
}

func (d Disposition) String() string {
	switch d {
	case Replace:
		return "REPLACE"
	case Append:
		return "APPEND"
	default:
		return "UNKNOWN"
	}
}

func (d Disposition) writeDisposition() bigquery.TableWriteDisposition {
	if d == Replace {
		return bigquery.WriteTruncate
	}
	return bigquery.WriteAppend
}
