package ember

import (
	"fmt"
	"strconv"
	"strings"
)

// RegisterStdlib declares the fixed set of native callables the evaluator
// assumes are pre-registered, per the minimal standard-library surface:
// print/Write/WriteLine (each overloaded for int, double, string), typeof,
// sizeof, ToString, Align, InRange, and GetTest. stdout receives the text
// of every print/Write/WriteLine call; when consoleOutput is false it is
// left a no-op by the caller.
func RegisterStdlib(ctx *ExecutionContext, stdout func(string)) {
	ctx.Stdout = stdout

	writer := func(newline bool) NativeFunc {
		return func(ctx *ExecutionContext, args []Value) (Value, error) {
			if len(args) != 1 {
				return Value{}, TypeError{Message: "expected exactly one argument"}
			}
			s, err := displayString(ctx.Mem, args[0])
			if err != nil {
				return Value{}, err
			}
			if newline {
				s += "\n"
			}
			ctx.Stdout(s)
			return VoidValue(), nil
		}
	}
	for _, name := range []string{"print", "WriteLine"} {
		for _, tag := range []ValueTag{TagInt32, TagDouble, TagString} {
			ctx.DeclareFunc(&Function{Name: name, Params: []Param{{Name: "value", TypeName: tag.String()}}, Native: writer(true)})
		}
	}
	for _, tag := range []ValueTag{TagInt32, TagDouble, TagString} {
		ctx.DeclareFunc(&Function{Name: "Write", Params: []Param{{Name: "value", TypeName: tag.String()}}, Native: writer(false)})
	}

	ctx.DeclareFunc(&Function{Name: "typeof", Params: []Param{{Name: "value", TypeName: "object"}}, Native: nativeTypeof})
	ctx.DeclareFunc(&Function{Name: "sizeof", Params: []Param{{Name: "value", TypeName: "object"}}, Native: nativeSizeof})
	ctx.DeclareFunc(&Function{Name: "ToString", Params: []Param{{Name: "value", TypeName: "object"}}, Native: nativeToString})
	ctx.DeclareFunc(&Function{Name: "ToString", Params: []Param{{Name: "value", TypeName: "object"}, {Name: "format", TypeName: "string"}}, Native: nativeToString})
	ctx.DeclareFunc(&Function{Name: "Align", Params: []Param{{Name: "value", TypeName: "object"}, {Name: "width", TypeName: "int"}}, Native: nativeAlign})
	ctx.DeclareFunc(&Function{Name: "InRange", Params: []Param{{Name: "container", TypeName: "object"}}, Native: nativeInRange})
	ctx.DeclareFunc(&Function{Name: "InRange", Params: []Param{{Name: "container", TypeName: "object"}, {Name: "start", TypeName: "int"}}, Native: nativeInRange})
	ctx.DeclareFunc(&Function{Name: "InRange", Params: []Param{{Name: "container", TypeName: "object"}, {Name: "start", TypeName: "int"}, {Name: "end", TypeName: "int"}}, Native: nativeInRange})
	ctx.DeclareFunc(&Function{Name: "GetTest", Params: nil, Native: nativeGetTest})
}

// displayString renders v the way print/Write/WriteLine/ToString do,
// reading through Memory for TagString rather than relying on
// Value.String(), which stays deliberately Memory-free.
func displayString(mem *Memory, v Value) (string, error) {
	if v.Tag == TagString {
		if v.IsNull() {
			return "", nil
		}
		return mem.ReadString(v.Addr)
	}
	return v.String(), nil
}

func nativeTypeof(ctx *ExecutionContext, args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, TypeError{Message: "typeof expects one argument"}
	}
	v := args[0]
	name := v.Tag.String()
	if v.TypeName != "" {
		name = v.TypeName
	}
	addr, err := ctx.Mem.AllocString(name)
	if err != nil {
		return Value{}, err
	}
	return Value{Tag: TagString, Addr: addr}, nil
}

func nativeSizeof(ctx *ExecutionContext, args []Value) (Value, error) {
	if len(args) != 1 {
		return Value{}, TypeError{Message: "sizeof expects one argument"}
	}
	return IntValue(TagInt32, int64(Sizeof(args[0].Tag))), nil
}

func nativeToString(ctx *ExecutionContext, args []Value) (Value, error) {
	if len(args) == 0 {
		return Value{}, TypeError{Message: "ToString expects at least one argument"}
	}
	s, err := displayString(ctx.Mem, args[0])
	if err != nil {
		return Value{}, err
	}
	if len(args) == 2 && args[1].Tag == TagString {
		format, err := displayString(ctx.Mem, args[1])
		if err != nil {
			return Value{}, err
		}
		s = applyNumericFormat(args[0], format, s)
	}
	addr, err := ctx.Mem.AllocString(s)
	if err != nil {
		return Value{}, err
	}
	return Value{Tag: TagString, Addr: addr}, nil
}

// applyNumericFormat supports the small format-specifier vocabulary the
// interpolation splitter (splitAlignFormat) already recognizes: "F n"
// fixed-point with n decimal digits, "X"/"x" hex for integers, anything
// else is passed through unchanged.
func applyNumericFormat(v Value, format, fallback string) string {
	format = strings.TrimSpace(format)
	if format == "" {
		return fallback
	}
	switch {
	case strings.HasPrefix(format, "F") || strings.HasPrefix(format, "f"):
		digits := 2
		if n, err := strconv.Atoi(format[1:]); err == nil {
			digits = n
		}
		return strconv.FormatFloat(v.Numeric(), 'f', digits, 64)
	case format == "X":
		return strings.ToUpper(strconv.FormatInt(v.IntVal, 16))
	case format == "x":
		return strconv.FormatInt(v.IntVal, 16)
	default:
		return fallback
	}
}

func nativeAlign(ctx *ExecutionContext, args []Value) (Value, error) {
	if len(args) != 2 {
		return Value{}, TypeError{Message: "Align expects (value, width)"}
	}
	s, err := displayString(ctx.Mem, args[0])
	if err != nil {
		return Value{}, err
	}
	text := applyAlignment(s, int(args[1].IntVal))
	addr, err := ctx.Mem.AllocString(text)
	if err != nil {
		return Value{}, err
	}
	return Value{Tag: TagString, Addr: addr}, nil
}

// nativeInRange slices container (string or array) per the half-open
// [start, end) convention, defaulting start to 0 and end to the
// container's length when omitted.
func nativeInRange(ctx *ExecutionContext, args []Value) (Value, error) {
	if len(args) == 0 {
		return Value{}, TypeError{Message: "InRange expects a container argument"}
	}
	container := args[0]
	start := 0
	if len(args) >= 2 {
		start = int(args[1].IntVal)
	}

	if container.Tag == TagString {
		s, err := ctx.Mem.ReadString(container.Addr)
		if err != nil {
			return Value{}, err
		}
		runes := []rune(s)
		end := len(runes)
		if len(args) >= 3 {
			end = int(args[2].IntVal)
		}
		if start < 0 || end > len(runes) || start > end {
			return Value{}, IndexOutOfRange{Index: start, Length: len(runes)}
		}
		addr, err := ctx.Mem.AllocString(string(runes[start:end]))
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: TagString, Addr: addr}, nil
	}

	if container.Tag == TagArray {
		elemTag, _ := TagForTypeName(container.TypeName)
		elemSize := Sizeof(elemTag)
		if elemSize == 0 {
			elemSize = 4
		}
		size, _, err := ctx.Mem.BlockInfo(container.Addr)
		if err != nil {
			return Value{}, err
		}
		length := size / elemSize
		end := length
		if len(args) >= 3 {
			end = int(args[2].IntVal)
		}
		if start < 0 || end > length || start > end {
			return Value{}, IndexOutOfRange{Index: start, Length: length}
		}
		out, err := ctx.Mem.Malloc(elemSize*(end-start), TagArray)
		if err != nil {
			return Value{}, err
		}
		raw, err := ctx.Mem.ReadBytes(container.Addr+start*elemSize, elemSize*(end-start))
		if err != nil {
			return Value{}, err
		}
		if err := ctx.Mem.WriteBytes(out, raw); err != nil {
			return Value{}, err
		}
		return Value{Tag: TagArray, Addr: out, TypeName: container.TypeName}, nil
	}

	return Value{}, TypeError{Message: fmt.Sprintf("InRange is not supported for %s", container.Tag)}
}

// nativeGetTest is a host-supplied hook for embedders wiring a
// test-double callable into guest code; the default binding returns a
// closure over a no-op native so `GetTest()()` never fails to resolve.
func nativeGetTest(ctx *ExecutionContext, args []Value) (Value, error) {
	addr, err := ctx.newSyntheticAddr(TagObject)
	if err != nil {
		return Value{}, err
	}
	ctx.closures[addr] = &closureVal{Lambda: &LambdaExprNode{ExprBody: true, Body: &NullLitNode{}}}
	return Value{Tag: TagObject, Addr: addr, TypeName: "Func"}, nil
}

// stdlibMethod resolves a built-in instance-style call (`value.Name(...)`)
// that is not a user-declared method, covering Length/Count and Add for
// arrays plus Length for strings. It returns the computed value; Add's
// caller (evalMethodCall) is responsible for writing the grown array back
// into the base lvalue, since this function only sees the value copy.
func stdlibMethod(name string) (func(ctx *ExecutionContext, base Value, args []Value) (Value, error), bool) {
	switch name {
	case "Length", "Count":
		return methodLength, true
	case "Add":
		return methodAdd, true
	}
	return nil, false
}

func methodLength(ctx *ExecutionContext, base Value, args []Value) (Value, error) {
	switch base.Tag {
	case TagString:
		s, err := ctx.Mem.ReadString(base.Addr)
		if err != nil {
			return Value{}, err
		}
		return IntValue(TagInt32, int64(len([]rune(s)))), nil
	case TagArray:
		elemTag, _ := TagForTypeName(base.TypeName)
		elemSize := Sizeof(elemTag)
		if elemSize == 0 {
			elemSize = 4
		}
		size, _, err := ctx.Mem.BlockInfo(base.Addr)
		if err != nil {
			return Value{}, err
		}
		return IntValue(TagInt32, int64(size/elemSize)), nil
	default:
		return Value{}, TypeError{Message: fmt.Sprintf("Length is not supported for %s", base.Tag)}
	}
}

// methodAdd grows an array by one element, copying the old payload into a
// freshly malloc'd block the same way string reallocation-on-grow works
// (Memory.AssignString): no in-place resize is attempted since the
// first-fit allocator never splits or grows a block.
func methodAdd(ctx *ExecutionContext, base Value, args []Value) (Value, error) {
	if base.Tag != TagArray {
		return Value{}, TypeError{Message: "Add is only supported on arrays"}
	}
	if len(args) != 1 {
		return Value{}, TypeError{Message: "Add expects exactly one argument"}
	}
	elemTag, _ := TagForTypeName(base.TypeName)
	elemSize := Sizeof(elemTag)
	if elemSize == 0 {
		elemSize = 4
	}
	size, _, err := ctx.Mem.BlockInfo(base.Addr)
	if err != nil {
		return Value{}, err
	}
	length := size / elemSize
	raw, err := ctx.Mem.ReadBytes(base.Addr, size)
	if err != nil {
		return Value{}, err
	}
	out, err := ctx.Mem.Malloc(elemSize*(length+1), TagArray)
	if err != nil {
		return Value{}, err
	}
	if err := ctx.Mem.WriteBytes(out, raw); err != nil {
		return Value{}, err
	}
	grown := Value{Tag: TagArray, Addr: out, TypeName: base.TypeName}
	tail := args[0]
	switch {
	case IsFloatingTag(elemTag):
		if err := ctx.Mem.WriteFloat(out+length*elemSize, elemTag, tail.Numeric()); err != nil {
			return Value{}, err
		}
	case elemTag.IsReferenceKind() || elemTag == TagIntPtr:
		if err := ctx.Mem.WriteRef(out+length*elemSize, tail.Addr); err != nil {
			return Value{}, err
		}
	default:
		if err := ctx.Mem.WriteInt(out+length*elemSize, elemTag, tail.IntVal); err != nil {
			return Value{}, err
		}
	}
	return grown, nil
}
