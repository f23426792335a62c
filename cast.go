package ember

import (
	"fmt"
	"strconv"
)

// Cast implements checked numeric/reference coercion: every numeric
// conversion routes through Decimal as the canonical wide intermediate so
// a single widen-then-narrow path covers both promotions and checked
// narrowing, favoring one normalized internal representation over a
// conversion matrix. mem is consulted for the TagString source/target
// cases, where the actual bytes live on the heap rather than inline in the
// Value, and for boxing a value into a TagObject target.
func Cast(mem *Memory, v Value, target ValueTag) (Value, error) {
	if v.Tag == target {
		return v, nil
	}

	switch {
	case target == TagString:
		s, err := stringify(mem, v)
		if err != nil {
			return Value{}, err
		}
		addr, err := mem.AllocString(s)
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: TagString, Addr: addr}, nil

	case IsIntegerTag(target) || target == TagChar || target == TagBool:
		wide, err := toDecimal(mem, v)
		if err != nil {
			return Value{}, err
		}
		n := int64(wide)
		if overflowsInt(n, target) {
			return Value{}, ArithmeticError{Message: fmt.Sprintf("value %v does not fit in %s", wide, target)}
		}
		return Value{Tag: target, IntVal: n}, nil

	case IsFloatingTag(target):
		wide, err := toDecimal(mem, v)
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: target, FloatVal: wide}, nil

	case target.IsReferenceKind():
		if v.Tag.IsReferenceKind() {
			return Value{Tag: target, Addr: v.Addr, TypeName: v.TypeName}, nil
		}
		if target == TagObject {
			addr, err := mem.Box(v)
			if err != nil {
				return Value{}, err
			}
			return Value{Tag: TagObject, Addr: addr}, nil
		}
		return Value{}, TypeError{Message: fmt.Sprintf("cannot cast %s to %s", v.Tag, target)}

	default:
		return Value{}, TypeError{Message: fmt.Sprintf("cannot cast %s to %s", v.Tag, target)}
	}
}

func stringify(mem *Memory, v Value) (string, error) {
	if v.Tag == TagString {
		if v.IsNull() {
			return "", nil
		}
		return mem.ReadString(v.Addr)
	}
	return v.String(), nil
}

// toDecimal widens any scalar value to a float64 acting as Decimal, the
// canonical wide type casts route through.
func toDecimal(mem *Memory, v Value) (float64, error) {
	switch {
	case v.Tag == TagBool, v.Tag == TagChar:
		return v.Numeric(), nil
	case IsIntegerTag(v.Tag):
		return v.Numeric(), nil
	case IsFloatingTag(v.Tag):
		return v.FloatVal, nil
	case v.Tag == TagString:
		s, err := stringify(mem, v)
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, TypeError{Message: fmt.Sprintf("cannot convert string %q to a number", s)}
		}
		return f, nil
	default:
		return 0, TypeError{Message: fmt.Sprintf("cannot convert %s to a number", v.Tag)}
	}
}

func overflowsInt(n int64, target ValueTag) bool {
	switch target {
	case TagInt8:
		return n < -128 || n > 127
	case TagUInt8, TagBool:
		return n < 0 || n > 255
	case TagInt16:
		return n < -32768 || n > 32767
	case TagUInt16, TagChar:
		return n < 0 || n > 65535
	case TagInt32:
		return n < -2147483648 || n > 2147483647
	case TagUInt32:
		return n < 0 || n > 4294967295
	default:
		return false
	}
}

// castFeasible reports whether a value of tag `from` could plausibly
// convert to `to`, without performing the conversion. Used by overload
// scoring (function.go), which only needs a feasibility check and has no
// Memory to dereference an actual string payload with.
func castFeasible(from, to ValueTag) bool {
	if from == to {
		return true
	}
	switch {
	case to == TagString:
		return true
	case IsIntegerTag(to) || to == TagChar || to == TagBool:
		return IsIntegerTag(from) || from == TagChar || from == TagBool || IsFloatingTag(from) || from == TagString
	case IsFloatingTag(to):
		return IsIntegerTag(from) || from == TagChar || IsFloatingTag(from) || from == TagString
	case to.IsReferenceKind():
		return from.IsReferenceKind()
	default:
		return false
	}
}
