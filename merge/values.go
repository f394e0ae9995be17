package merge

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// toFloat64 reads v as a number. Any integer or float kind qualifies, and
// so does text holding a number: drivers commonly return DECIMAL as text.
func toFloat64(v interface{}) (float64, bool) {
	if s, ok := toString(v); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case !rv.IsValid():
		return 0, false
	case rv.CanInt():
		return float64(rv.Int()), true
	case rv.CanUint():
		return float64(rv.Uint()), true
	case rv.CanFloat():
		return rv.Float(), true
	}
	return 0, false
}

// toInt64 reads v as an integer without losing precision
func toInt64(v interface{}) (int64, bool) {
	if s, ok := toString(v); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return n, err == nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case !rv.IsValid():
		return 0, false
	case rv.CanInt():
		return rv.Int(), true
	case rv.CanUint():
		if u := rv.Uint(); u <= math.MaxInt64 {
			return int64(u), true
		}
	}
	return 0, false
}

// addValues sums two partial aggregates. NULL is the identity, two integers
// stay integral and anything else becomes float64.
func addValues(a, b interface{}) (interface{}, error) {
	switch {
	case a == nil:
		return b, nil
	case b == nil:
		return a, nil
	}

	if ai, ok := toInt64(a); ok {
		if bi, ok := toInt64(b); ok {
			return ai + bi, nil
		}
	}

	af, ok := toFloat64(a)
	if !ok {
		return nil, fmt.Errorf("cannot convert %T to number", a)
	}
	bf, ok := toFloat64(b)
	if !ok {
		return nil, fmt.Errorf("cannot convert %T to number", b)
	}
	return af + bf, nil
}

// compareValues returns -1, 0 or +1 as a sorts before, with or after b.
// NULL sorts first. Timestamps compare as instants, numbers and numeric
// text by value, other text bytewise and false before true. Values of
// unrelated types compare equal.
func compareValues(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
		return 0
	}

	if af, ok := toFloat64(a); ok {
		if bf, ok := toFloat64(b); ok {
			return cmp.Compare(af, bf)
		}
	}

	if as, ok := toString(a); ok {
		if bs, ok := toString(b); ok {
			return strings.Compare(as, bs)
		}
		return 0
	}

	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			return cmp.Compare(boolRank(ab), boolRank(bb))
		}
	}
	return 0
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func toString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case []byte:
		return string(val), true
	}
	return "", false
}

// keyPart renders a group-by value so equal values from different shards
// map to the same group
func keyPart(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string, []byte:
		s, _ := toString(val)
		return "s:" + s
	case time.Time:
		return "t:" + val.UTC().Format(time.RFC3339Nano)
	}
	if f, ok := toFloat64(v); ok {
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	}
	return fmt.Sprintf("%T:%v", v, v)
}
