package ember

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a tagged-union runtime value, the result of evaluating an
// expression. It mirrors the shape of a Variable (tag + where the backing
// bytes live) but carries the bits directly rather than an address,
// keeping a parse-time literal representation distinct from a bound
// storage location.
//
// Exactly one of the payload fields is meaningful for a given Tag:
// IntVal for integer/char/bool/IntPtr tags, FloatVal for float/double/
// decimal, and Addr for every reference-kind tag (a heap payload address,
// or NullAddr).
type Value struct {
	Tag      ValueTag
	IntVal   int64
	FloatVal float64
	Addr     int

	// TypeName carries the declared struct/class/enum/interface name for
	// TagStruct/TagClass/TagEnum values, so member lookup and ToString()
	// can find the declaration without a second table keyed by address.
	TypeName string
}

func VoidValue() Value { return Value{Tag: TagVoid} }

func IntValue(tag ValueTag, v int64) Value { return Value{Tag: tag, IntVal: v} }

func BoolValue(b bool) Value {
	if b {
		return Value{Tag: TagBool, IntVal: 1}
	}
	return Value{Tag: TagBool, IntVal: 0}
}

func CharValue(r rune) Value { return Value{Tag: TagChar, IntVal: int64(r)} }

func FloatValue(tag ValueTag, v float64) Value { return Value{Tag: tag, FloatVal: v} }

func RefValue(tag ValueTag, addr int, typeName string) Value {
	return Value{Tag: tag, Addr: addr, TypeName: typeName}
}

func NullValue(tag ValueTag) Value { return Value{Tag: tag, Addr: NullAddr} }

func (v Value) IsNull() bool { return v.Tag.IsReferenceKind() && v.Addr == NullAddr }

func (v Value) Bool() bool { return v.IntVal != 0 }

// Truthy implements the language's condition-evaluation rule: bool values
// use their own truth, everything else is an error at the call site
// (the grammar only permits bool-typed conditions), so Truthy only needs
// to handle TagBool.
func (v Value) Truthy() bool { return v.Tag == TagBool && v.IntVal != 0 }

// Numeric extracts a value's numeric content as a float64, widening
// integers, for use by the arithmetic and comparison evaluators before
// they narrow back to the result tag.
func (v Value) Numeric() float64 {
	if IsFloatingTag(v.Tag) {
		return v.FloatVal
	}
	return float64(v.IntVal)
}

// String renders a value the way the `ToString()` native renders it: for
// debugging and default Write/WriteLine formatting. It does not consult
// heap payloads (arrays, strings, structs) — callers needing that, like
// the string-builtin evaluator, read through the Memory first and pass
// the resolved text in as a TagString Value with Addr set; this method
// stays a pure, Memory-free formatter for scalars and lets higher layers
// own heap-backed rendering.
func (v Value) String() string {
	switch v.Tag {
	case TagVoid:
		return "void"
	case TagBool:
		return strconv.FormatBool(v.IntVal != 0)
	case TagChar:
		return string(rune(v.IntVal))
	case TagFloat, TagDouble, TagDecimal:
		return formatFloat(v.FloatVal)
	case TagNullable:
		if v.IsNull() {
			return "null"
		}
		return fmt.Sprintf("%d", v.IntVal)
	default:
		if IsIntegerTag(v.Tag) {
			if IsUnsignedTag(v.Tag) {
				return strconv.FormatUint(uint64(v.IntVal), 10)
			}
			return strconv.FormatInt(v.IntVal, 10)
		}
		if v.Tag.IsReferenceKind() {
			if v.IsNull() {
				return "null"
			}
			return fmt.Sprintf("%s@%d", v.Tag, v.Addr)
		}
		return fmt.Sprintf("%v", v.IntVal)
	}
}

// formatFloat uses Go's culture-invariant shortest round-trip formatting,
// matching the language's invariant-culture float rendering without
// pulling in a locale package.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}
