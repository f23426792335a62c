package ember

import (
	"fmt"
	"strings"
)

// ValueTag is the closed set of primitive and composite tags that classify
// in-memory layout and reference-ness: the one runtime "type" representation
// the evaluator needs, standing in for target-language reflection.
type ValueTag int

const (
	TagVoid ValueTag = iota
	TagInt8
	TagUInt8
	TagInt16
	TagUInt16
	TagInt32
	TagUInt32
	TagInt64
	TagUInt64
	TagFloat
	TagDouble
	TagDecimal
	TagChar
	TagBool
	TagIntPtr
	TagDateTime
	TagTimeSpan
	TagPoint
	TagVector3
	TagString
	TagArray
	TagObject
	TagStruct
	TagClass
	TagTuple
	TagDictionary
	TagReference
	TagNullable
	TagEnum
)

var tagNames = map[ValueTag]string{
	TagVoid: "void", TagInt8: "sbyte", TagUInt8: "byte", TagInt16: "short",
	TagUInt16: "ushort", TagInt32: "int", TagUInt32: "uint", TagInt64: "long",
	TagUInt64: "ulong", TagFloat: "float", TagDouble: "double",
	TagDecimal: "decimal", TagChar: "char", TagBool: "bool",
	TagIntPtr: "IntPtr", TagDateTime: "DateTime", TagTimeSpan: "TimeSpan",
	TagPoint: "Point", TagVector3: "Vector3", TagString: "string",
	TagArray: "Array", TagObject: "Object", TagStruct: "Struct",
	TagClass: "Class", TagTuple: "Tuple", TagDictionary: "Dictionary",
	TagReference: "Reference", TagNullable: "Nullable", TagEnum: "Enum",
}

func (t ValueTag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return fmt.Sprintf("tag(%d)", int(t))
}

// IsReferenceKind reports whether a stack slot tagged t holds a heap
// address (or -1 for null) rather than an inline value.
func (t ValueTag) IsReferenceKind() bool {
	switch t {
	case TagString, TagArray, TagObject, TagStruct, TagClass, TagTuple,
		TagDictionary, TagNullable, TagEnum:
		return true
	default:
		return false
	}
}

func (t ValueTag) IsValueKind() bool { return !t.IsReferenceKind() }

// Sizeof returns the in-stack footprint in bytes of a variable tagged t
// (reference-kind tags occupy 4 bytes holding a heap address).
func Sizeof(t ValueTag) int {
	switch t {
	case TagInt8, TagUInt8, TagBool:
		return 1
	case TagInt16, TagUInt16, TagChar:
		return 2
	case TagInt32, TagUInt32, TagFloat, TagIntPtr:
		return 4
	case TagInt64, TagUInt64, TagDouble, TagDateTime, TagTimeSpan:
		return 8
	case TagDecimal:
		return 16
	case TagPoint:
		return 8 // two 4-byte ints
	case TagVector3:
		return 12 // three 4-byte floats
	default:
		if t.IsReferenceKind() {
			return 4
		}
		return 0
	}
}

// IsIntegerTag reports whether t is one of the signed/unsigned integer
// widths (used for arithmetic dispatch and numeric-literal typing).
func IsIntegerTag(t ValueTag) bool {
	switch t {
	case TagInt8, TagUInt8, TagInt16, TagUInt16, TagInt32, TagUInt32, TagInt64, TagUInt64:
		return true
	default:
		return false
	}
}

func IsFloatingTag(t ValueTag) bool {
	return t == TagFloat || t == TagDouble || t == TagDecimal
}

func IsUnsignedTag(t ValueTag) bool {
	switch t {
	case TagUInt8, TagUInt16, TagUInt32, TagUInt64:
		return true
	default:
		return false
	}
}

// tagForTypeName maps a parsed type-name string to its ValueTag for the
// primitive and well-known domain types; composite/user types resolve to
// TagStruct/TagClass/TagEnum/TagArray by the caller, which already knows
// which declared type it is instantiating.
var tagForTypeName = map[string]ValueTag{
	"void": TagVoid, "sbyte": TagInt8, "byte": TagUInt8, "short": TagInt16,
	"ushort": TagUInt16, "int": TagInt32, "uint": TagUInt32, "long": TagInt64,
	"ulong": TagUInt64, "float": TagFloat, "double": TagDouble,
	"decimal": TagDecimal, "char": TagChar, "bool": TagBool,
	"IntPtr": TagIntPtr, "DateTime": TagDateTime, "TimeSpan": TagTimeSpan,
	"Point": TagPoint, "Vector3": TagVector3, "string": TagString,
	"object": TagObject,
}

func TagForTypeName(name string) (ValueTag, bool) {
	if strings.HasSuffix(name, "*") {
		return TagIntPtr, true
	}
	t, ok := tagForTypeName[name]
	return t, ok
}
