package ember

import (
	"fmt"
	"strconv"
	"strings"
)

// Evaluator implements Visitor by walking the tree directly against an
// ExecutionContext: one struct holding mutable run state, Visit methods
// doing the actual work rather than building an intermediate program
// representation or compiling to bytecode — this is a tree-walker.
type Evaluator struct {
	Ctx *ExecutionContext

	// catchStack holds the error each currently-active catch block is
	// handling, innermost last, so a bare `throw;` (rethrow) inside a
	// catch can recover the original failure instead of needing its own
	// operand.
	catchStack []error
}

func NewEvaluator(ctx *ExecutionContext) *Evaluator { return &Evaluator{Ctx: ctx} }

func (e *Evaluator) eval(n Node) (Signal, error) {
	if err := e.Ctx.Check(); err != nil {
		return Signal{}, err
	}
	return n.Accept(e)
}

// evalValue evaluates an expression node and extracts its Value, erroring
// if the node produced no value (a statement accidentally used as an
// expression — the parser shouldn't allow this, but defend anyway).
func (e *Evaluator) evalValue(n Node) (Value, error) {
	sig, err := e.eval(n)
	if err != nil {
		return Value{}, err
	}
	if sig.Value == nil {
		return VoidValue(), nil
	}
	return *sig.Value, nil
}

// Run executes a parsed program: function/type/enum declarations are
// hoisted and registered first (the parser already sorts them ahead of
// other statements), then remaining top-level statements execute in
// order, giving forward references a declare-before-use model.
func (e *Evaluator) Run(prog *ProgramNode) error {
	sig, err := e.execStmts(prog.Stmts)
	if err != nil {
		return err
	}
	return unresolvedSignalErr(sig)
}

// unresolvedSignalErr converts a goto/goto-case/goto-default signal that
// escaped every enclosing statement list and switch without being resolved
// into the UnresolvedName/TypeError the spec calls for, rather than
// letting it pass silently as a successful completion. Called wherever a
// signal is about to stop bubbling: the top-level program and every
// function/method/closure body.
func unresolvedSignalErr(sig Signal) error {
	switch sig.Kind {
	case SignalGoto:
		return UnresolvedName{Name: sig.Label}
	case SignalGotoCase, SignalGotoDefault:
		return TypeError{Message: "goto case/default used outside of a switch"}
	default:
		return nil
	}
}

// ---- Literal parsing ----

func parseIntLiteral(text string, tag ValueTag) (Value, error) {
	clean := strings.ReplaceAll(text, "_", "")
	base := 10
	switch {
	case strings.HasPrefix(clean, "0x") || strings.HasPrefix(clean, "0X"):
		base = 16
		clean = clean[2:]
	case strings.HasPrefix(clean, "0b") || strings.HasPrefix(clean, "0B"):
		base = 2
		clean = clean[2:]
	}
	n, err := strconv.ParseUint(clean, base, 64)
	if err != nil {
		return Value{}, LexicalError{Message: fmt.Sprintf("invalid integer literal `%s`", text)}
	}
	return Value{Tag: tag, IntVal: int64(n)}, nil
}

func parseFloatLiteral(text string, tag ValueTag) (Value, error) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil {
		return Value{}, LexicalError{Message: fmt.Sprintf("invalid float literal `%s`", text)}
	}
	return Value{Tag: tag, FloatVal: f}, nil
}

// ---- Variable read/write ----

func (e *Evaluator) readVar(v Variable) (Value, error) {
	mem := e.Ctx.Mem
	switch {
	case v.Tag == TagFloat || v.Tag == TagDouble || v.Tag == TagDecimal:
		f, err := mem.ReadFloat(v.Address, v.Tag)
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: v.Tag, FloatVal: f}, nil
	case v.Tag == TagIntPtr || v.Tag.IsReferenceKind():
		addr, err := mem.ReadRef(v.Address)
		if err != nil {
			return Value{}, err
		}
		if v.Tag == TagObject && addr != NullAddr {
			boxed, ok, err := mem.Unbox(addr)
			if err != nil {
				return Value{}, err
			}
			if ok {
				return boxed, nil
			}
		}
		return Value{Tag: v.Tag, Addr: addr, TypeName: v.TypeName}, nil
	default:
		n, err := mem.ReadInt(v.Address, v.Tag)
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: v.Tag, IntVal: n}, nil
	}
}

func (e *Evaluator) writeVar(v Variable, val Value) error {
	mem := e.Ctx.Mem
	switch {
	case v.Tag == TagFloat || v.Tag == TagDouble || v.Tag == TagDecimal:
		return mem.WriteFloat(v.Address, v.Tag, val.Numeric())
	case v.Tag == TagString:
		newAddr, err := mem.AssignString(func() int {
			cur, _ := mem.ReadRef(v.Address)
			return cur
		}(), stringPayload(mem, val))
		if err != nil {
			return err
		}
		return mem.WriteRef(v.Address, newAddr)
	case v.Tag == TagObject && !val.Tag.IsReferenceKind() && val.Tag != TagIntPtr:
		addr, err := mem.Box(val)
		if err != nil {
			return err
		}
		return mem.WriteRef(v.Address, addr)
	case v.Tag.IsReferenceKind() || v.Tag == TagIntPtr:
		return mem.WriteRef(v.Address, val.Addr)
	default:
		return mem.WriteInt(v.Address, v.Tag, val.IntVal)
	}
}

func stringPayload(mem *Memory, v Value) string {
	if v.Tag != TagString || v.IsNull() {
		return ""
	}
	s, _ := mem.ReadString(v.Addr)
	return s
}

// declareLocal stack-allocates storage for a new local, records it in the
// current scope, and initializes it from init if non-nil or with tag's
// zero value otherwise.
func (e *Evaluator) declareLocal(name string, tag ValueTag, init Value, hasInit bool) error {
	variable, err := e.Ctx.Mem.Stackalloc(tag)
	if err != nil {
		return err
	}
	if hasInit && (tag == TagIntPtr || tag.IsReferenceKind()) {
		variable.TypeName = init.TypeName
	}
	if err := e.Ctx.Declare(name, variable); err != nil {
		return err
	}
	if hasInit {
		return e.writeVar(variable, init)
	}
	return e.writeVar(variable, zeroValue(tag))
}

// tagForDeclaredType resolves a parsed type-name string (primitive,
// array, enum, or struct/class) to its runtime ValueTag. Used wherever a
// declaration or a pointer dereference only has the type-name string on
// hand. A user-declared struct/class name is checked first, so it shadows
// a built-in type of the same name (such as Point).
func (e *Evaluator) tagForDeclaredType(name string) ValueTag {
	if decl, isType := e.Ctx.LookupType(name); isType {
		if decl.IsClass {
			return TagClass
		}
		return TagStruct
	}
	if tag, known := TagForTypeName(name); known {
		return tag
	}
	if strings.HasSuffix(name, "[]") {
		return TagArray
	}
	if _, isEnum := e.Ctx.LookupEnum(name); isEnum {
		return TagEnum
	}
	return TagObject
}

func zeroValue(tag ValueTag) Value {
	if tag.IsReferenceKind() {
		return NullValue(tag)
	}
	return Value{Tag: tag}
}

// ---- Struct/class layout ----

// typeLayout computes (name, offset, tag) for every field of a declared
// struct/class, flattening inherited fields ahead of the declaring type's
// own, matching the language's single-inheritance model.
type fieldLayout struct {
	Name   string
	Tag    ValueTag
	Offset int
	TypeName string
}

func (e *Evaluator) typeLayout(decl *TypeDeclNode) []fieldLayout {
	var layout []fieldLayout
	if decl.BaseName != "" {
		if base, ok := e.Ctx.LookupType(decl.BaseName); ok {
			layout = append(layout, e.typeLayout(base)...)
		}
	}
	offset := 0
	if len(layout) > 0 {
		offset = layout[len(layout)-1].Offset + Sizeof(layout[len(layout)-1].Tag)
	}
	for _, f := range decl.Fields {
		tag, known := TagForTypeName(f.TypeName)
		if !known {
			if _, isEnum := e.Ctx.LookupEnum(f.TypeName); isEnum {
				tag = TagInt32
			} else if _, isType := e.Ctx.LookupType(f.TypeName); isType {
				tag = TagObject
			} else {
				tag = TagObject
			}
		}
		layout = append(layout, fieldLayout{Name: f.Name, Tag: tag, Offset: offset, TypeName: f.TypeName})
		offset += Sizeof(tag)
	}
	return layout
}

func (e *Evaluator) typeSize(decl *TypeDeclNode) int {
	layout := e.typeLayout(decl)
	if len(layout) == 0 {
		return 0
	}
	last := layout[len(layout)-1]
	return last.Offset + Sizeof(last.Tag)
}

func findField(layout []fieldLayout, name string) (fieldLayout, bool) {
	for _, f := range layout {
		if f.Name == name {
			return f, true
		}
	}
	return fieldLayout{}, false
}
