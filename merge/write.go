package merge

import (
	"errors"
)

// ErrInsertFailedNoID is returned when no shard reported an insert id
var ErrInsertFailedNoID = errors.New("insert failed: no shard returned an insert id")

// WriteResult is what one shard reported for a write statement
type WriteResult struct {
	Shard    string
	Affected int64
	InsertID interface{} // nil when the shard reported none
}

// AffectedCount sums the affected rows of every shard
func AffectedCount(results []WriteResult) int64 {
	var total int64
	for _, r := range results {
		total += r.Affected
	}
	return total
}

// InsertID returns the id reported by the first shard that reported one
func InsertID(results []WriteResult) (interface{}, error) {
	for _, r := range results {
		if r.InsertID != nil {
			return r.InsertID, nil
		}
	}
	return nil, ErrInsertFailedNoID
}
