// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrUnsupportedValue is returned when a raw value has no Value representation.
var ErrUnsupportedValue = errors.New("unsupported cell value")

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "null"
	}
}

// TimeLayout is used to stringify time values that have no column formatter.
var TimeLayout = "02/01/2006 15:04:05"

// Value is a single cell: null, string, number, bool or time.
// The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	t    time.Time
}

// NullValue returns the null Value.
func NullValue() Value { return Value{} }

// StringValue returns a string Value.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue returns a numeric Value.
func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }

// IntValue returns a numeric Value holding i.
func IntValue(i int64) Value { return Value{kind: KindNumber, num: float64(i)} }

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// TimeValue returns a time Value.
func TimeValue(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float64 returns the number held by v, or 0 for other kinds.
func (v Value) Float64() float64 { return v.num }

// Bool returns the boolean held by v, or false for other kinds.
func (v Value) Bool() bool { return v.b }

// Time returns the time held by v, or the zero time for other kinds.
func (v Value) Time() time.Time { return v.t }

// Text returns the string held by v, or "" for other kinds.
func (v Value) Text() string { return v.str }

// String renders v for display. Null renders as the empty string, numbers use
// the shortest representation that round-trips.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if math.IsInf(v.num, 0) || math.IsNaN(v.num) {
			return strconv.FormatFloat(v.num, 'g', -1, 64)
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(TimeLayout)
	default:
		return ""
	}
}

// Equal reports whether v and o hold the same kind and value.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && Compare(v, o) == 0
}

// MarshalJSON encodes v as the matching JSON scalar. Times use RFC 3339.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindTime:
		return json.Marshal(v.t.Format(time.RFC3339))
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON scalar into v. Objects and arrays are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// FromAny converts a decoded JSON value or a Go scalar into a Value.
// Maps, slices and other composite types return ErrUnsupportedValue.
func FromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return x, nil
	case string:
		return StringValue(x), nil
	case bool:
		return BoolValue(x), nil
	case float64:
		return NumberValue(x), nil
	case float32:
		return NumberValue(float64(x)), nil
	case int:
		return IntValue(int64(x)), nil
	case int8:
		return IntValue(int64(x)), nil
	case int16:
		return IntValue(int64(x)), nil
	case int32:
		return IntValue(int64(x)), nil
	case int64:
		return IntValue(x), nil
	case uint:
		return NumberValue(float64(x)), nil
	case uint8:
		return NumberValue(float64(x)), nil
	case uint16:
		return NumberValue(float64(x)), nil
	case uint32:
		return NumberValue(float64(x)), nil
	case uint64:
		return NumberValue(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return StringValue(x.String()), nil
		}
		return NumberValue(f), nil
	case time.Time:
		return TimeValue(x), nil
	case *time.Time:
		if x == nil {
			return NullValue(), nil
		}
		return TimeValue(*x), nil
	case *string:
		if x == nil {
			return NullValue(), nil
		}
		return StringValue(*x), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, raw)
	}
}

// Compare orders two values. Values of the same kind use their natural order.
// Null sorts after every non-null value; otherwise mixed kinds order by kind.
// It returns 0 only when both values are equal.
func Compare(a, b Value) int {
	switch {
	case a.kind == KindNull && b.kind == KindNull:
		return 0
	case a.kind == KindNull:
		return 1
	case b.kind == KindNull:
		return -1
	case a.kind != b.kind:
		return cmp.Compare(a.kind, b.kind)
	}

	switch a.kind {
	case KindString:
		return strings.Compare(a.str, b.str)
	case KindNumber:
		return cmp.Compare(a.num, b.num)
	case KindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		default:
			return 1
		}
	case KindTime:
		return a.t.Compare(b.t)
	}
	return 0
}

// Row is one record keyed by column data key.
type Row map[string]Value

// Get returns the value stored under key, or null when the key is absent.
func (r Row) Get(key string) Value {
	return r[key]
}

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RowFromMap converts a decoded JSON object into a Row.
func RowFromMap(m map[string]any) (Row, error) {
	row := make(Row, len(m))
	for k, raw := range m {
		v, err := FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		row[k] = v
	}
	return row, nil
}

// RowsFromMaps converts a slice of decoded JSON objects into rows.
func RowsFromMaps(ms []map[string]any) ([]Row, error) {
	rows := make([]Row, 0, len(ms))
	for i, m := range ms {
		row, err := RowFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
