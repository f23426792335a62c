package ember

import "fmt"

// ---- Calls ----

func (e *Evaluator) VisitCallExpr(n *CallExprNode) (Signal, error) {
	// Method call: base.Name(args)
	if member, ok := n.Callee.(*MemberExprNode); ok {
		return e.evalMethodCall(member, n)
	}

	ident, ok := n.Callee.(*IdentNode)
	if !ok {
		// Calling a closure value held in a variable/expression.
		callee, err := e.evalValue(n.Callee)
		if err != nil {
			return Signal{}, err
		}
		args, err := e.evalArgs(n)
		if err != nil {
			return Signal{}, err
		}
		return e.callClosure(callee, args)
	}

	args, err := e.evalArgs(n)
	if err != nil {
		return Signal{}, err
	}

	overloads := e.Ctx.Overloads(ident.Name)
	if len(overloads) == 0 {
		if v, ok := e.Ctx.Resolve(ident.Name); ok {
			val, err := e.readVar(v)
			if err != nil {
				return Signal{}, err
			}
			return e.callClosure(val, args)
		}
		return Signal{}, UnresolvedName{Name: ident.Name}
	}
	fn, err := ResolveOverload(overloads, args)
	if err != nil {
		return Signal{}, err
	}
	v, err := e.invoke(fn, args)
	if err != nil {
		return Signal{}, err
	}
	return valueSignal(v), nil
}

func (e *Evaluator) evalArgs(n *CallExprNode) ([]Value, error) {
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := e.evalValue(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (e *Evaluator) invoke(fn *Function, args []Value) (Value, error) {
	if fn.Native != nil {
		return callNative(e.Ctx, fn, args)
	}
	if err := e.Ctx.EnterCall(); err != nil {
		return Value{}, err
	}
	defer e.Ctx.ExitCall()

	e.Ctx.PushScope()
	defer e.Ctx.PopScope()

	if err := e.bindParams(fn.Params, args); err != nil {
		return Value{}, err
	}

	sig, err := e.eval(fn.Body)
	if err != nil {
		return Value{}, err
	}
	if sig.Kind == SignalReturn && sig.Value != nil {
		return *sig.Value, nil
	}
	if err := unresolvedSignalErr(sig); err != nil {
		return Value{}, err
	}
	return VoidValue(), nil
}

func callNative(ctx *ExecutionContext, fn *Function, args []Value) (Value, error) {
	return fn.Native(ctx, args)
}

func (e *Evaluator) bindParams(params []Param, args []Value) error {
	hasParams := len(params) > 0 && params[len(params)-1].IsParams
	fixed := params
	if hasParams {
		fixed = params[:len(params)-1]
	}
	for i, p := range fixed {
		var argVal Value
		if i < len(args) {
			argVal = args[i]
		} else if p.Default != nil {
			v, err := e.evalValue(p.Default)
			if err != nil {
				return err
			}
			argVal = v
		}
		tag, known := TagForTypeName(p.TypeName)
		if !known {
			tag = argVal.Tag
		}
		coerced, err := Cast(e.Ctx.Mem, argVal, tag)
		if err != nil {
			coerced = argVal
		}
		if err := e.declareLocal(p.Name, tag, coerced, true); err != nil {
			return err
		}
	}
	if hasParams {
		last := params[len(params)-1]
		elemTag, _ := TagForTypeName(last.TypeName)
		rest := args[min(len(fixed), len(args)):]
		arr, err := e.allocArray(elemTag, last.TypeName, len(rest))
		if err != nil {
			return err
		}
		for i, v := range rest {
			if err := e.writeArrayElem(arr.Addr, elemTag, i, v); err != nil {
				return err
			}
		}
		if err := e.declareLocal(last.Name, TagArray, arr, true); err != nil {
			return err
		}
	}
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (e *Evaluator) callClosure(callee Value, args []Value) (Signal, error) {
	cl := e.Ctx.Closure(callee.Addr)
	if cl == nil {
		return Signal{}, TypeError{Message: "value is not callable"}
	}
	if err := e.Ctx.EnterCall(); err != nil {
		return Signal{}, err
	}
	defer e.Ctx.ExitCall()

	savedScopes := e.Ctx.scopes
	e.Ctx.scopes = append(append([]*Scope{}, cl.Captured...))
	e.Ctx.PushScope()
	defer func() {
		e.Ctx.PopScope()
		e.Ctx.scopes = savedScopes
	}()

	for i, name := range cl.Lambda.ParamNames {
		var v Value
		if i < len(args) {
			v = args[i]
		}
		tag := v.Tag
		if i < len(cl.Lambda.ParamTags) {
			if t, known := TagForTypeName(cl.Lambda.ParamTags[i]); known {
				tag = t
			}
		}
		if err := e.declareLocal(name, tag, v, true); err != nil {
			return Signal{}, err
		}
	}

	if cl.Lambda.ExprBody {
		val, err := e.evalValue(cl.Lambda.Body)
		if err != nil {
			return Signal{}, err
		}
		return valueSignal(val), nil
	}
	sig, err := e.eval(cl.Lambda.Body)
	if err != nil {
		return Signal{}, err
	}
	if sig.Kind == SignalReturn && sig.Value != nil {
		return valueSignal(*sig.Value), nil
	}
	if err := unresolvedSignalErr(sig); err != nil {
		return Signal{}, err
	}
	return valueSignal(VoidValue()), nil
}

func (e *Evaluator) evalMethodCall(member *MemberExprNode, call *CallExprNode) (Signal, error) {
	base, err := e.evalValue(member.Base)
	if err != nil {
		return Signal{}, err
	}
	args, err := e.evalArgs(call)
	if err != nil {
		return Signal{}, err
	}

	if base.Tag == TagObject || base.Tag == TagStruct || base.Tag == TagClass {
		if decl, ok := e.Ctx.LookupType(base.TypeName); ok {
			qualified := base.TypeName + "." + member.Member
			if overloads := e.Ctx.Overloads(qualified); len(overloads) > 0 {
				// Registered methods (see VisitTypeDecl) carry only their own
				// declared params, not a synthetic receiver slot, matching
				// invokeMethod binding "this" separately from fn.Params below.
				fn, err := ResolveOverload(overloads, args)
				if err != nil {
					return Signal{}, err
				}
				v, err := e.invokeMethod(fn, base, args)
				if err != nil {
					return Signal{}, err
				}
				return valueSignal(v), nil
			}
			_ = decl
		}
	}

	// Native member call (e.g. string/array builtins dispatched by name).
	if fn, ok := stdlibMethod(member.Member); ok {
		v, err := fn(e.Ctx, base, args)
		if err != nil {
			return Signal{}, err
		}
		// Add grows an array into a freshly allocated block; when the
		// receiver is a plain variable, write the new address back so the
		// caller observes the grown array, mirroring string
		// reallocation-on-grow semantics.
		if member.Member == "Add" {
			if ident, ok := member.Base.(*IdentNode); ok {
				if variable, ok := e.Ctx.Resolve(ident.Name); ok {
					if err := e.writeVar(variable, v); err != nil {
						return Signal{}, err
					}
				}
			}
		}
		return valueSignal(v), nil
	}

	return Signal{}, UnresolvedName{Name: member.Member}
}

func (e *Evaluator) invokeMethod(fn *Function, self Value, args []Value) (Value, error) {
	if err := e.Ctx.EnterCall(); err != nil {
		return Value{}, err
	}
	defer e.Ctx.ExitCall()
	e.Ctx.PushScope()
	defer e.Ctx.PopScope()

	selfTag := self.Tag
	if err := e.declareLocal("this", selfTag, self, true); err != nil {
		return Value{}, err
	}
	if err := e.bindParams(fn.Params, args); err != nil {
		return Value{}, err
	}
	sig, err := e.eval(fn.Body)
	if err != nil {
		return Value{}, err
	}
	if sig.Kind == SignalReturn && sig.Value != nil {
		return *sig.Value, nil
	}
	if err := unresolvedSignalErr(sig); err != nil {
		return Value{}, err
	}
	return VoidValue(), nil
}

// ---- Arrays ----

func (e *Evaluator) allocArray(elemTag ValueTag, elemType string, length int) (Value, error) {
	size := Sizeof(elemTag)
	if size == 0 {
		size = 4
	}
	addr, err := e.Ctx.Mem.Malloc(size*length, TagArray)
	if err != nil {
		return Value{}, err
	}
	return Value{Tag: TagArray, Addr: addr, TypeName: elemType}, nil
}

func (e *Evaluator) arrayLength(arrAddr int, elemTag ValueTag) (int, error) {
	size, _, err := e.Ctx.Mem.BlockInfo(arrAddr)
	if err != nil {
		return 0, err
	}
	elemSize := Sizeof(elemTag)
	if elemSize == 0 {
		elemSize = 4
	}
	return size / elemSize, nil
}

func (e *Evaluator) arrayElemAddr(arrAddr int, elemTag ValueTag, index int) (int, int, error) {
	length, err := e.arrayLength(arrAddr, elemTag)
	if err != nil {
		return 0, 0, err
	}
	elemSize := Sizeof(elemTag)
	if elemSize == 0 {
		elemSize = 4
	}
	if index < 0 || index >= length {
		return 0, 0, IndexOutOfRange{Index: index, Length: length}
	}
	return arrAddr + index*elemSize, length, nil
}

func (e *Evaluator) writeArrayElem(arrAddr int, elemTag ValueTag, index int, v Value) error {
	addr, _, err := e.arrayElemAddr(arrAddr, elemTag, index)
	if err != nil {
		return err
	}
	switch {
	case IsFloatingTag(elemTag):
		return e.Ctx.Mem.WriteFloat(addr, elemTag, v.Numeric())
	case elemTag.IsReferenceKind() || elemTag == TagIntPtr:
		return e.Ctx.Mem.WriteRef(addr, v.Addr)
	default:
		return e.Ctx.Mem.WriteInt(addr, elemTag, v.IntVal)
	}
}

func (e *Evaluator) readArrayElem(arrAddr int, elemTag ValueTag, index int) (Value, error) {
	addr, _, err := e.arrayElemAddr(arrAddr, elemTag, index)
	if err != nil {
		return Value{}, err
	}
	switch {
	case IsFloatingTag(elemTag):
		f, err := e.Ctx.Mem.ReadFloat(addr, elemTag)
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: elemTag, FloatVal: f}, nil
	case elemTag.IsReferenceKind() || elemTag == TagIntPtr:
		r, err := e.Ctx.Mem.ReadRef(addr)
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: elemTag, Addr: r}, nil
	default:
		n, err := e.Ctx.Mem.ReadInt(addr, elemTag)
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: elemTag, IntVal: n}, nil
	}
}

func (e *Evaluator) VisitNewArray(n *NewArrayNode) (Signal, error) {
	if len(n.Dims) == 0 {
		return Signal{}, TypeError{Message: "array declaration requires at least one dimension"}
	}
	lenVal, err := e.evalValue(n.Dims[0])
	if err != nil {
		return Signal{}, err
	}
	length := int(lenVal.IntVal)
	if length < 0 {
		return Signal{}, ArithmeticError{Message: "negative array length"}
	}
	arr, err := e.allocArray(n.ElemTag, n.ElemType, length)
	if err != nil {
		return Signal{}, err
	}
	return valueSignal(arr), nil
}

func (e *Evaluator) VisitIndexExpr(n *IndexExprNode) (Signal, error) {
	base, err := e.evalValue(n.Base)
	if err != nil {
		return Signal{}, err
	}

	if n.IsSlice {
		return e.evalSlice(n, base)
	}

	idxVal, err := e.evalValue(n.Index)
	if err != nil {
		return Signal{}, err
	}
	index := int(idxVal.IntVal)

	if base.Tag == TagString {
		s, err := e.Ctx.Mem.ReadString(base.Addr)
		if err != nil {
			return Signal{}, err
		}
		runes := []rune(s)
		if n.FromEnd {
			index = len(runes) - index
		}
		if index < 0 || index >= len(runes) {
			return Signal{}, IndexOutOfRange{Index: index, Length: len(runes)}
		}
		return valueSignal(CharValue(runes[index])), nil
	}

	elemTag := e.tagForDeclaredType(base.TypeName)
	if n.FromEnd {
		length, err := e.arrayLength(base.Addr, elemTag)
		if err != nil {
			return Signal{}, err
		}
		index = length - index
	}
	v, err := e.readArrayElem(base.Addr, elemTag, index)
	if err != nil {
		return Signal{}, err
	}
	if elemTag.IsReferenceKind() || elemTag == TagIntPtr {
		v.TypeName = base.TypeName
	}
	return valueSignal(v), nil
}

func (e *Evaluator) evalSlice(n *IndexExprNode, base Value) (Signal, error) {
	start := 0
	if n.SliceStart != nil {
		v, err := e.evalValue(n.SliceStart)
		if err != nil {
			return Signal{}, err
		}
		start = int(v.IntVal)
	}
	if base.Tag == TagString {
		s, err := e.Ctx.Mem.ReadString(base.Addr)
		if err != nil {
			return Signal{}, err
		}
		runes := []rune(s)
		end := len(runes)
		if n.SliceEnd != nil {
			v, err := e.evalValue(n.SliceEnd)
			if err != nil {
				return Signal{}, err
			}
			end = int(v.IntVal)
		}
		if start < 0 || end > len(runes) || start > end {
			return Signal{}, IndexOutOfRange{Index: start, Length: len(runes)}
		}
		addr, err := e.Ctx.Mem.AllocString(string(runes[start:end]))
		if err != nil {
			return Signal{}, err
		}
		return valueSignal(Value{Tag: TagString, Addr: addr}), nil
	}
	elemTag := e.tagForDeclaredType(base.TypeName)
	length, err := e.arrayLength(base.Addr, elemTag)
	if err != nil {
		return Signal{}, err
	}
	end := length
	if n.SliceEnd != nil {
		v, err := e.evalValue(n.SliceEnd)
		if err != nil {
			return Signal{}, err
		}
		end = int(v.IntVal)
	}
	if start < 0 || end > length || start > end {
		return Signal{}, IndexOutOfRange{Index: start, Length: length}
	}
	out, err := e.allocArray(elemTag, base.TypeName, end-start)
	if err != nil {
		return Signal{}, err
	}
	for i := start; i < end; i++ {
		v, err := e.readArrayElem(base.Addr, elemTag, i)
		if err != nil {
			return Signal{}, err
		}
		if err := e.writeArrayElem(out.Addr, elemTag, i-start, v); err != nil {
			return Signal{}, err
		}
	}
	return valueSignal(out), nil
}

func (e *Evaluator) assignIndex(n *IndexExprNode, val Value) error {
	base, err := e.evalValue(n.Base)
	if err != nil {
		return err
	}
	idxVal, err := e.evalValue(n.Index)
	if err != nil {
		return err
	}
	index := int(idxVal.IntVal)
	elemTag := e.tagForDeclaredType(base.TypeName)
	if n.FromEnd {
		length, err := e.arrayLength(base.Addr, elemTag)
		if err != nil {
			return err
		}
		index = length - index
	}
	return e.writeArrayElem(base.Addr, elemTag, index, val)
}

// ---- Struct/class member access ----

func (e *Evaluator) VisitMemberExpr(n *MemberExprNode) (Signal, error) {
	// Enum member access: EnumName.Member
	if ident, ok := n.Base.(*IdentNode); ok {
		if enumDecl, isEnum := e.Ctx.LookupEnum(ident.Name); isEnum {
			val, err := e.evalEnumMember(enumDecl, n.Member)
			if err != nil {
				return Signal{}, err
			}
			return valueSignal(val), nil
		}
	}

	base, err := e.evalValue(n.Base)
	if err != nil {
		return Signal{}, err
	}
	if base.Tag == TagArray && n.Member == "Length" {
		elemTag := e.tagForDeclaredType(base.TypeName)
		length, err := e.arrayLength(base.Addr, elemTag)
		if err != nil {
			return Signal{}, err
		}
		return valueSignal(IntValue(TagInt32, int64(length))), nil
	}
	if base.Tag == TagString && n.Member == "Length" {
		s, err := e.Ctx.Mem.ReadString(base.Addr)
		if err != nil {
			return Signal{}, err
		}
		return valueSignal(IntValue(TagInt32, int64(len([]rune(s))))), nil
	}
	decl, ok := e.Ctx.LookupType(base.TypeName)
	if !ok {
		return Signal{}, UnresolvedName{Name: n.Member}
	}
	layout := e.typeLayout(decl)
	f, ok := findField(layout, n.Member)
	if !ok {
		return Signal{}, UnresolvedName{Name: n.Member}
	}
	addr := base.Addr + f.Offset
	result, err := e.readTypedAt(addr, f.Tag)
	if err != nil {
		return Signal{}, err
	}
	result.TypeName = f.TypeName
	return valueSignal(result), nil
}

func (e *Evaluator) readTypedAt(addr int, tag ValueTag) (Value, error) {
	switch {
	case IsFloatingTag(tag):
		f, err := e.Ctx.Mem.ReadFloat(addr, tag)
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: tag, FloatVal: f}, nil
	case tag.IsReferenceKind() || tag == TagIntPtr:
		r, err := e.Ctx.Mem.ReadRef(addr)
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: tag, Addr: r}, nil
	default:
		n, err := e.Ctx.Mem.ReadInt(addr, tag)
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: tag, IntVal: n}, nil
	}
}

func (e *Evaluator) writeTypedAt(addr int, tag ValueTag, v Value) error {
	switch {
	case IsFloatingTag(tag):
		return e.Ctx.Mem.WriteFloat(addr, tag, v.Numeric())
	case tag.IsReferenceKind() || tag == TagIntPtr:
		return e.Ctx.Mem.WriteRef(addr, v.Addr)
	default:
		return e.Ctx.Mem.WriteInt(addr, tag, v.IntVal)
	}
}

func (e *Evaluator) evalEnumMember(decl *EnumDeclNode, member string) (Value, error) {
	var cur int64 = 0
	for _, m := range decl.Members {
		if m.Value != nil {
			v, err := e.evalValue(m.Value)
			if err != nil {
				return Value{}, err
			}
			cur = v.IntVal
		}
		if m.Name == member {
			return Value{Tag: TagEnum, IntVal: cur, TypeName: decl.Name}, nil
		}
		cur++
	}
	return Value{}, UnresolvedName{Name: member}
}

func (e *Evaluator) assignMember(n *MemberExprNode, val Value) error {
	base, err := e.evalValue(n.Base)
	if err != nil {
		return err
	}
	decl, ok := e.Ctx.LookupType(base.TypeName)
	if !ok {
		return UnresolvedName{Name: n.Member}
	}
	layout := e.typeLayout(decl)
	f, ok := findField(layout, n.Member)
	if !ok {
		return UnresolvedName{Name: n.Member}
	}
	return e.writeTypedAt(base.Addr+f.Offset, f.Tag, val)
}

// ---- Object construction ----

func (e *Evaluator) VisitNewObject(n *NewObjectNode) (Signal, error) {
	decl, ok := e.Ctx.LookupType(n.TypeName)
	if !ok {
		return Signal{}, UnresolvedName{Name: n.TypeName}
	}
	size := e.typeSize(decl)
	tag := TagStruct
	if decl.IsClass {
		tag = TagClass
	}
	addr, err := e.Ctx.Mem.Malloc(size, tag)
	if err != nil {
		return Signal{}, err
	}
	val := Value{Tag: tag, Addr: addr, TypeName: n.TypeName}

	layout := e.typeLayout(decl)
	for _, f := range layout {
		var fv Value
		if decl2, _, def := findDefaultFor(decl, f.Name); def != nil {
			v, err := e.evalValue(def)
			if err != nil {
				return Signal{}, err
			}
			fv = v
			_ = decl2
		} else {
			fv = zeroValue(f.Tag)
		}
		if err := e.writeTypedAt(addr+f.Offset, f.Tag, fv); err != nil {
			return Signal{}, err
		}
	}

	for _, m := range decl.Methods {
		if m.IsConstructor {
			args, err := e.evalNewArgs(n)
			if err != nil {
				return Signal{}, err
			}
			if _, err := e.invokeMethod(&Function{Name: m.Name, Params: m.Params, ReturnType: m.ReturnType, Body: m.Body}, val, args); err != nil {
				return Signal{}, err
			}
			break
		}
	}
	return valueSignal(val), nil
}

func (e *Evaluator) evalNewArgs(n *NewObjectNode) ([]Value, error) {
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := e.evalValue(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func findDefaultFor(decl *TypeDeclNode, name string) (*TypeDeclNode, FieldDecl, Node) {
	for _, f := range decl.Fields {
		if f.Name == name {
			return decl, f, f.Default
		}
	}
	return decl, FieldDecl{}, nil
}

// ---- Tuples ----

// tupleStride is the fixed per-item byte width this evaluator uses for
// tuple storage: 1 tag byte followed by 8 value bytes (raw int64 or
// float64 bit pattern, or a heap address for reference-kind items). Tuple
// byte layout is otherwise unconstrained; a uniform stride keeps indexing
// arithmetic simple at the cost of padding narrow fields.
const tupleStride = 9

func (e *Evaluator) VisitTupleLit(n *TupleLitNode) (Signal, error) {
	addr, err := e.Ctx.Mem.Malloc(tupleStride*len(n.Items), TagTuple)
	if err != nil {
		return Signal{}, err
	}
	for i, item := range n.Items {
		v, err := e.evalValue(item)
		if err != nil {
			return Signal{}, err
		}
		if err := e.writeTupleItem(addr, i, v); err != nil {
			return Signal{}, err
		}
	}
	return valueSignal(Value{Tag: TagTuple, Addr: addr}), nil
}

func (e *Evaluator) writeTupleItem(tupleAddr, index int, v Value) error {
	base := tupleAddr + index*tupleStride
	if err := e.Ctx.Mem.WriteBytes(base, []byte{byte(v.Tag)}); err != nil {
		return err
	}
	if IsFloatingTag(v.Tag) {
		return e.Ctx.Mem.WriteFloat(base+1, TagDouble, v.FloatVal)
	}
	if v.Tag.IsReferenceKind() || v.Tag == TagIntPtr {
		return e.Ctx.Mem.WriteInt(base+1, TagInt64, int64(v.Addr))
	}
	return e.Ctx.Mem.WriteInt(base+1, TagInt64, v.IntVal)
}

func (e *Evaluator) readTupleItem(tupleAddr int, index int) (Value, error) {
	base := tupleAddr + index*tupleStride
	b, err := e.Ctx.Mem.ReadBytes(base, 1)
	if err != nil {
		return Value{}, err
	}
	tag := ValueTag(b[0])
	if IsFloatingTag(tag) {
		f, err := e.Ctx.Mem.ReadFloat(base+1, TagDouble)
		if err != nil {
			return Value{}, err
		}
		return Value{Tag: tag, FloatVal: f}, nil
	}
	n, err := e.Ctx.Mem.ReadInt(base+1, TagInt64)
	if err != nil {
		return Value{}, err
	}
	if tag.IsReferenceKind() || tag == TagIntPtr {
		return Value{Tag: tag, Addr: int(n)}, nil
	}
	return Value{Tag: tag, IntVal: n}, nil
}

// ---- Dictionaries ----

func (e *Evaluator) VisitDictLit(n *DictLitNode) (Signal, error) {
	dv, err := e.Ctx.NewDict()
	if err != nil {
		return Signal{}, err
	}
	d := e.Ctx.Dict(dv.Addr)
	for i := range n.Keys {
		k, err := e.evalValue(n.Keys[i])
		if err != nil {
			return Signal{}, err
		}
		v, err := e.evalValue(n.Vals[i])
		if err != nil {
			return Signal{}, err
		}
		d.set(k, v, e.valuesEqual)
	}
	return valueSignal(dv), nil
}

func (e *Evaluator) valuesEqual(a, b Value) bool {
	if a.Tag == TagString && b.Tag == TagString {
		return e.stringOf(a) == e.stringOf(b)
	}
	if a.Tag.IsReferenceKind() && b.Tag.IsReferenceKind() {
		return a.Addr == b.Addr
	}
	if IsFloatingTag(a.Tag) || IsFloatingTag(b.Tag) {
		return a.Numeric() == b.Numeric()
	}
	return a.IntVal == b.IntVal
}

// ---- Lambdas ----

func (e *Evaluator) VisitLambdaExpr(n *LambdaExprNode) (Signal, error) {
	v, err := e.Ctx.NewClosure(n)
	if err != nil {
		return Signal{}, err
	}
	return valueSignal(v), nil
}

// ---- Casts ----

func (e *Evaluator) VisitCastExpr(n *CastExprNode) (Signal, error) {
	v, err := e.evalValue(n.Operand)
	if err != nil {
		return Signal{}, err
	}
	target, known := TagForTypeName(n.TypeName)
	if !known {
		return valueSignal(Value{Tag: TagObject, Addr: v.Addr, TypeName: n.TypeName}), nil
	}
	out, err := Cast(e.Ctx.Mem, v, target)
	if err != nil {
		return Signal{}, err
	}
	return valueSignal(out), nil
}

// ---- Pattern expressions ----

func (e *Evaluator) VisitIsExpr(n *IsExprNode) (Signal, error) {
	v, err := e.evalValue(n.Operand)
	if err != nil {
		return Signal{}, err
	}
	ok, err := e.matchPattern(n.Pattern, v)
	if err != nil {
		return Signal{}, err
	}
	return valueSignal(BoolValue(ok)), nil
}

func (e *Evaluator) VisitSwitchExpr(n *SwitchExprNode) (Signal, error) {
	v, err := e.evalValue(n.Operand)
	if err != nil {
		return Signal{}, err
	}
	for _, arm := range n.Arms {
		matched, err := e.matchPattern(arm.Pattern, v)
		if err != nil {
			return Signal{}, err
		}
		if !matched {
			continue
		}
		if arm.Guard != nil {
			g, err := e.evalValue(arm.Guard)
			if err != nil {
				return Signal{}, err
			}
			if !g.Truthy() {
				continue
			}
		}
		res, err := e.evalValue(arm.Result)
		if err != nil {
			return Signal{}, err
		}
		return valueSignal(res), nil
	}
	return Signal{}, TypeError{Message: fmt.Sprintf("no switch expression arm matched value of type %s", v.Tag)}
}
