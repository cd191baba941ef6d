package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// NullText is the rendering of a null attribute value.
const NullText = "NULL"

// Value is a canonical attribute value. Null, NaN, and empty strings all
// collapse to the invalid Value so that "absent" and "explicit null" never
// compare as different.
type Value struct {
	Text  string
	Valid bool
}

// Null returns the null sentinel.
func Null() Value { return Value{} }

// Text returns a valid Value holding s, or the null sentinel for "".
func Text(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{Text: s, Valid: true}
}

// String renders the value, using NullText for the sentinel.
func (v Value) String() string {
	if !v.Valid {
		return NullText
	}
	return v.Text
}

// ValueOf converts a driver value into its canonical form. Integral floats
// render without a fractional part so that a NUMBER read as 10.0 by one
// driver equals the 10 read by another.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case string:
		return Text(x)
	case []byte:
		return Text(string(x))
	case float64:
		return floatValue(x)
	case float32:
		return floatValue(float64(x))
	case int:
		return Text(strconv.Itoa(x))
	case int8, int16, int32, int64:
		return Text(fmt.Sprintf("%d", x))
	case uint, uint8, uint16, uint32, uint64:
		return Text(fmt.Sprintf("%d", x))
	case bool:
		return Text(strconv.FormatBool(x))
	case time.Time:
		return Text(x.UTC().Format(time.RFC3339Nano))
	case fmt.Stringer:
		return Text(x.String())
	default:
		return Text(fmt.Sprint(x))
	}
}

func floatValue(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}
	return Text(strconv.FormatFloat(f, 'f', -1, 64))
}

// Identifier normalizes an object or sub-object name: surrounding whitespace
// is removed and the result is upper-cased.
func Identifier(v any) string {
	val := ValueOf(v)
	if !val.Valid {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(val.Text))
}

// RawString renders a driver value for value comparison: null becomes the
// empty string and everything else uses the canonical text.
func RawString(v any) string {
	val := ValueOf(v)
	if !val.Valid {
		return ""
	}
	return val.Text
}
