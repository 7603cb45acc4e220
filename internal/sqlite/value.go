package sqlite

import (
	"encoding/binary"
	"math"
	"strconv"
	"unicode/utf8"
)

// ValueKind is the dynamic storage class of a decoded value.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindInt
	KindFloat
	KindText
	KindBlob
)

// Value is one decoded record column. Exactly the field selected by Kind is
// meaningful.
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Text  string
	Blob  []byte
}

// NullValue returns the SQL NULL value.
func NullValue() Value { return Value{Kind: KindNull} }

// IntValue returns an integer value.
func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

// FloatValue returns a floating point value.
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// TextValue returns a text value.
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

// BlobValue returns a blob value.
func BlobValue(b []byte) Value { return Value{Kind: KindBlob, Blob: b} }

// IsNull reports whether the value is SQL NULL.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Render formats the value for result output: NULL as "null", integers in
// decimal, floats in shortest round-trip decimal, text verbatim, blobs as
// their raw bytes when they form valid UTF-8.
func (v Value) Render() (string, error) {
	switch v.Kind {
	case KindNull:
		return "null", nil
	case KindInt:
		return strconv.FormatInt(v.Int, 10), nil
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64), nil
	case KindText:
		return v.Text, nil
	case KindBlob:
		if !utf8.Valid(v.Blob) {
			return "", newDatabaseError("render_value", 0, ErrInvalidRecord, map[string]interface{}{
				"reason": "blob is not valid utf-8",
			})
		}
		return string(v.Blob), nil
	default:
		return "", newDatabaseError("render_value", 0, ErrInvalidRecord, map[string]interface{}{
			"kind": v.Kind,
		})
	}
}

// class ranks storage classes the way SQLite orders mixed types:
// NULL < numeric < text < blob.
func (v Value) class() int {
	switch v.Kind {
	case KindNull:
		return 0
	case KindInt, KindFloat:
		return 1
	case KindText:
		return 2
	default:
		return 3
	}
}

func (v Value) numeric() float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Float
}

// Compare orders two values for B-tree descent. Values of different storage
// classes order by class; integers and floats compare numerically, text and
// blobs bytewise.
func Compare(a, b Value) int {
	if ca, cb := a.class(), b.class(); ca != cb {
		if ca < cb {
			return -1
		}
		return 1
	}
	switch a.Kind {
	case KindNull:
		return 0
	case KindInt:
		if b.Kind == KindInt {
			switch {
			case a.Int < b.Int:
				return -1
			case a.Int > b.Int:
				return 1
			}
			return 0
		}
		return compareFloats(a.numeric(), b.numeric())
	case KindFloat:
		return compareFloats(a.numeric(), b.numeric())
	case KindText:
		if a.Text < b.Text {
			return -1
		}
		if a.Text > b.Text {
			return 1
		}
		return 0
	default:
		return compareBytes(a.Blob, b.Blob)
	}
}

// Equal implements equality-predicate semantics: NULL matches nothing and
// values of different storage classes never compare equal.
func Equal(a, b Value) bool {
	if a.IsNull() || b.IsNull() {
		return false
	}
	if a.class() != b.class() {
		return false
	}
	return Compare(a, b) == 0
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// serialTypeSize returns the payload width of a serial type in bytes.
func serialTypeSize(t uint64) (int, error) {
	switch t {
	case 0, 8, 9:
		return 0, nil
	case 1:
		return 1, nil
	case 2:
		return 2, nil
	case 3:
		return 3, nil
	case 4:
		return 4, nil
	case 5:
		return 6, nil
	case 6, 7:
		return 8, nil
	case 10, 11:
		return 0, newDatabaseError("serial_type_size", 0, ErrUnsupportedSerialType, map[string]interface{}{
			"serial_type": t,
		})
	default:
		if t&1 == 0 {
			return int(t-12) / 2, nil
		}
		return int(t-13) / 2, nil
	}
}

// decodeValue constructs a typed value from its serial type and payload
// bytes, which must already be exactly the declared width.
func decodeValue(t uint64, b []byte) (Value, error) {
	switch t {
	case 0:
		return NullValue(), nil
	case 1:
		return IntValue(int64(int8(b[0]))), nil
	case 2:
		return IntValue(int64(int16(binary.BigEndian.Uint16(b)))), nil
	case 3:
		return IntValue(signExtend(uint64(b[0])<<16|uint64(b[1])<<8|uint64(b[2]), 24)), nil
	case 4:
		return IntValue(int64(int32(binary.BigEndian.Uint32(b)))), nil
	case 5:
		v := uint64(binary.BigEndian.Uint32(b[:4]))<<16 | uint64(binary.BigEndian.Uint16(b[4:6]))
		return IntValue(signExtend(v, 48)), nil
	case 6:
		return IntValue(int64(binary.BigEndian.Uint64(b))), nil
	case 7:
		return FloatValue(math.Float64frombits(binary.BigEndian.Uint64(b))), nil
	case 8:
		return IntValue(0), nil
	case 9:
		return IntValue(1), nil
	case 10, 11:
		return Value{}, newDatabaseError("decode_value", 0, ErrUnsupportedSerialType, map[string]interface{}{
			"serial_type": t,
		})
	default:
		if t&1 == 0 {
			return BlobValue(b), nil
		}
		if !utf8.Valid(b) {
			return Value{}, newDatabaseError("decode_value", 0, ErrInvalidRecord, map[string]interface{}{
				"reason": "text is not valid utf-8",
			})
		}
		return TextValue(string(b)), nil
	}
}

func signExtend(v uint64, bits uint) int64 {
	shift := 64 - bits
	return int64(v<<shift) >> shift
}
