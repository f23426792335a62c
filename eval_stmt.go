package ember

// ---- Program / statement-list execution ----

// execStmts runs a statement list with the same declare-before-use
// hoisting Run performs at the top level (func/type/enum/interface/
// namespace declarations register before any statement executes), then
// walks the remainder in order. A label table is built once per list so a
// SignalGoto targeting one of this list's own labels resumes here instead
// of unwinding further — goto is resolved at entry into a statement list;
// anything else (break/continue/return, or a goto/goto-case/goto-default
// this list can't resolve) bubbles to the caller.
func (e *Evaluator) execStmts(stmts []Node) (Signal, error) {
	for _, s := range stmts {
		if isDeclNode(s) {
			if _, err := e.eval(s); err != nil {
				return Signal{}, err
			}
		}
	}
	labels := make(map[string]int)
	for i, s := range stmts {
		if l, ok := s.(*LabelNode); ok {
			labels[l.Name] = i
		}
	}
	i := 0
	for i < len(stmts) {
		if isDeclNode(stmts[i]) {
			i++
			continue
		}
		sig, err := e.eval(stmts[i])
		if err != nil {
			return Signal{}, err
		}
		switch sig.Kind {
		case SignalGoto:
			if idx, ok := labels[sig.Label]; ok {
				i = idx
				continue
			}
			return sig, nil
		case SignalBreak, SignalContinue, SignalReturn, SignalGotoCase, SignalGotoDefault:
			return sig, nil
		}
		i++
	}
	return none(), nil
}

func (e *Evaluator) VisitProgram(n *ProgramNode) (Signal, error) {
	return e.execStmts(n.Stmts)
}

func (e *Evaluator) VisitBlock(n *BlockNode) (Signal, error) {
	e.Ctx.PushScope()
	defer e.Ctx.PopScope()
	return e.execStmts(n.Stmts)
}

func (e *Evaluator) VisitEmptyStmt(n *EmptyStmtNode) (Signal, error) { return none(), nil }

func (e *Evaluator) VisitExprStmt(n *ExprStmtNode) (Signal, error) {
	if _, err := e.eval(n.Expr); err != nil {
		return Signal{}, err
	}
	return none(), nil
}

// VisitDecl declares one or more locals from a `var`/typed declaration
// statement, coercing each initializer to the declared tag the same
// tolerant way bindParams coerces call arguments: a failed Cast falls
// back to the raw value rather than aborting, since the parser does not
// itself enforce assignability.
func (e *Evaluator) VisitDecl(n *DeclNode) (Signal, error) {
	for i, name := range n.Names {
		var initNode Node
		if i < len(n.Inits) {
			initNode = n.Inits[i]
		}
		if initNode == nil {
			tag := e.tagForDeclaredType(n.TypeName)
			if err := e.declareLocal(name, tag, Value{}, false); err != nil {
				return Signal{}, err
			}
			continue
		}
		val, err := e.evalValue(initNode)
		if err != nil {
			return Signal{}, err
		}
		tag := val.Tag
		if !n.IsVar {
			tag = e.tagForDeclaredType(n.TypeName)
		}
		coerced, err := Cast(e.Ctx.Mem, val, tag)
		if err != nil {
			coerced = val
		}
		if err := e.declareLocal(name, tag, coerced, true); err != nil {
			return Signal{}, err
		}
	}
	return none(), nil
}

// ---- Control flow ----

// VisitIf pushes a scope before evaluating Cond so a pattern binding
// introduced there (an `is`/declaration pattern, CondBindNames) stays
// visible through whichever branch runs.
func (e *Evaluator) VisitIf(n *IfNode) (Signal, error) {
	e.Ctx.PushScope()
	defer e.Ctx.PopScope()
	cond, err := e.evalValue(n.Cond)
	if err != nil {
		return Signal{}, err
	}
	if cond.Truthy() {
		return e.eval(n.Then)
	}
	if n.Else != nil {
		return e.eval(n.Else)
	}
	return none(), nil
}

func (e *Evaluator) VisitWhile(n *WhileNode) (Signal, error) {
	for {
		if err := e.Ctx.Check(); err != nil {
			return Signal{}, err
		}
		e.Ctx.PushScope()
		cond, err := e.evalValue(n.Cond)
		if err != nil {
			e.Ctx.PopScope()
			return Signal{}, err
		}
		if !cond.Truthy() {
			e.Ctx.PopScope()
			return none(), nil
		}
		sig, err := e.eval(n.Body)
		e.Ctx.PopScope()
		if err != nil {
			return Signal{}, err
		}
		switch sig.Kind {
		case SignalBreak:
			return none(), nil
		case SignalReturn, SignalGoto, SignalGotoCase, SignalGotoDefault:
			return sig, nil
		}
	}
}

func (e *Evaluator) VisitDoWhile(n *DoWhileNode) (Signal, error) {
	for {
		if err := e.Ctx.Check(); err != nil {
			return Signal{}, err
		}
		e.Ctx.PushScope()
		sig, err := e.eval(n.Body)
		if err != nil {
			e.Ctx.PopScope()
			return Signal{}, err
		}
		switch sig.Kind {
		case SignalBreak:
			e.Ctx.PopScope()
			return none(), nil
		case SignalReturn, SignalGoto, SignalGotoCase, SignalGotoDefault:
			e.Ctx.PopScope()
			return sig, nil
		}
		cond, err := e.evalValue(n.Cond)
		e.Ctx.PopScope()
		if err != nil {
			return Signal{}, err
		}
		if !cond.Truthy() {
			return none(), nil
		}
	}
}

func (e *Evaluator) VisitFor(n *ForNode) (Signal, error) {
	e.Ctx.PushScope()
	defer e.Ctx.PopScope()
	if n.Init != nil {
		if _, err := e.eval(n.Init); err != nil {
			return Signal{}, err
		}
	}
	for {
		if err := e.Ctx.Check(); err != nil {
			return Signal{}, err
		}
		if n.Cond != nil {
			cond, err := e.evalValue(n.Cond)
			if err != nil {
				return Signal{}, err
			}
			if !cond.Truthy() {
				return none(), nil
			}
		}
		e.Ctx.PushScope()
		sig, err := e.eval(n.Body)
		e.Ctx.PopScope()
		if err != nil {
			return Signal{}, err
		}
		switch sig.Kind {
		case SignalBreak:
			return none(), nil
		case SignalReturn, SignalGoto, SignalGotoCase, SignalGotoDefault:
			return sig, nil
		}
		if n.Post != nil {
			if _, err := e.eval(n.Post); err != nil {
				return Signal{}, err
			}
		}
	}
}

// bindForeachVars declares the per-iteration loop variable(s): a single
// name binds the whole element, multiple names destructure a tuple
// element the same way assignTo's TupleLitNode case does.
func (e *Evaluator) bindForeachVars(names []string, v Value) error {
	if len(names) == 1 {
		return e.declareLocal(names[0], v.Tag, v, true)
	}
	for i, name := range names {
		item, err := e.readTupleItem(v.Addr, i)
		if err != nil {
			return err
		}
		if err := e.declareLocal(name, item.Tag, item, true); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) VisitForeach(n *ForeachNode) (Signal, error) {
	coll, err := e.evalValue(n.Collection)
	if err != nil {
		return Signal{}, err
	}
	switch coll.Tag {
	case TagString:
		s, err := e.Ctx.Mem.ReadString(coll.Addr)
		if err != nil {
			return Signal{}, err
		}
		for _, r := range s {
			sig, err, done := e.foreachIteration(n, CharValue(r))
			if err != nil || done {
				return sig, err
			}
		}
		return none(), nil

	case TagArray:
		elemTag := e.tagForDeclaredType(coll.TypeName)
		length, err := e.arrayLength(coll.Addr, elemTag)
		if err != nil {
			return Signal{}, err
		}
		for i := 0; i < length; i++ {
			v, err := e.readArrayElem(coll.Addr, elemTag, i)
			if err != nil {
				return Signal{}, err
			}
			if elemTag.IsReferenceKind() || elemTag == TagIntPtr {
				v.TypeName = coll.TypeName
			}
			sig, err, done := e.foreachIteration(n, v)
			if err != nil || done {
				return sig, err
			}
		}
		return none(), nil

	case TagDictionary:
		d := e.Ctx.Dict(coll.Addr)
		for i := range d.keys {
			if err := e.Ctx.Check(); err != nil {
				return Signal{}, err
			}
			e.Ctx.PushScope()
			var bindErr error
			if len(n.VarNames) >= 2 {
				if bindErr = e.declareLocal(n.VarNames[0], d.keys[i].Tag, d.keys[i], true); bindErr == nil {
					bindErr = e.declareLocal(n.VarNames[1], d.vals[i].Tag, d.vals[i], true)
				}
			} else {
				bindErr = e.declareLocal(n.VarNames[0], d.keys[i].Tag, d.keys[i], true)
			}
			if bindErr != nil {
				e.Ctx.PopScope()
				return Signal{}, bindErr
			}
			sig, err := e.eval(n.Body)
			e.Ctx.PopScope()
			if err != nil {
				return Signal{}, err
			}
			switch sig.Kind {
			case SignalBreak:
				return none(), nil
			case SignalReturn, SignalGoto, SignalGotoCase, SignalGotoDefault:
				return sig, nil
			}
		}
		return none(), nil

	default:
		return Signal{}, TypeError{Message: "value is not enumerable in a foreach"}
	}
}

// foreachIteration runs one loop body execution over element v, returning
// done=true when the caller should stop iterating (break, or a signal
// that must bubble further).
func (e *Evaluator) foreachIteration(n *ForeachNode, v Value) (Signal, error, bool) {
	if err := e.Ctx.Check(); err != nil {
		return Signal{}, err, true
	}
	e.Ctx.PushScope()
	if err := e.bindForeachVars(n.VarNames, v); err != nil {
		e.Ctx.PopScope()
		return Signal{}, err, true
	}
	sig, err := e.eval(n.Body)
	e.Ctx.PopScope()
	if err != nil {
		return Signal{}, err, true
	}
	switch sig.Kind {
	case SignalBreak:
		return none(), nil, true
	case SignalReturn, SignalGoto, SignalGotoCase, SignalGotoDefault:
		return sig, nil, true
	}
	return none(), nil, false
}

// ---- switch statement ----

func (e *Evaluator) selectCase(cases []SwitchCaseNode, val Value) (int, error) {
	defaultIdx := -1
	for i, c := range cases {
		if c.Pattern == nil {
			defaultIdx = i
			continue
		}
		matched, err := e.matchPattern(c.Pattern, val)
		if err != nil {
			return -1, err
		}
		if !matched {
			continue
		}
		if c.Guard != nil {
			g, err := e.evalValue(c.Guard)
			if err != nil {
				return -1, err
			}
			if !g.Truthy() {
				continue
			}
		}
		return i, nil
	}
	return defaultIdx, nil
}

func (e *Evaluator) findCaseByValue(cases []SwitchCaseNode, target Value) (int, error) {
	for i, c := range cases {
		if c.Pattern == nil {
			continue
		}
		matched, err := e.matchPattern(c.Pattern, target)
		if err != nil {
			return -1, err
		}
		if matched {
			return i, nil
		}
	}
	return -1, nil
}

func (e *Evaluator) findDefaultCase(cases []SwitchCaseNode) int {
	for i, c := range cases {
		if c.Pattern == nil {
			return i
		}
	}
	return -1
}

// VisitSwitchStmt resolves the first matching case (or the default, if
// none match) and runs cases in sequence from there, since a case body
// without a trailing break falls through to the next one — `goto case`/
// `goto default` retarget the cursor instead of unwinding.
func (e *Evaluator) VisitSwitchStmt(n *SwitchStmtNode) (Signal, error) {
	val, err := e.evalValue(n.Operand)
	if err != nil {
		return Signal{}, err
	}
	e.Ctx.PushScope()
	defer e.Ctx.PopScope()

	start, err := e.selectCase(n.Cases, val)
	if err != nil {
		return Signal{}, err
	}
	if start < 0 {
		return none(), nil
	}
	for idx := start; idx < len(n.Cases); idx++ {
		sig, err := e.execStmts(n.Cases[idx].Body)
		if err != nil {
			return Signal{}, err
		}
		switch sig.Kind {
		case SignalBreak:
			return none(), nil
		case SignalGotoCase:
			next, err := e.findCaseByValue(n.Cases, *sig.Value)
			if err != nil {
				return Signal{}, err
			}
			if next < 0 {
				return Signal{}, TypeError{Message: "goto case target not found"}
			}
			idx = next - 1
			continue
		case SignalGotoDefault:
			next := e.findDefaultCase(n.Cases)
			if next < 0 {
				return Signal{}, TypeError{Message: "goto default target not found"}
			}
			idx = next - 1
			continue
		case SignalReturn, SignalContinue, SignalGoto:
			return sig, nil
		}
	}
	return none(), nil
}

// ---- try/throw, return/break/continue/goto/label ----

func (e *Evaluator) errorValue(err error) (Value, error) {
	addr, aerr := e.Ctx.Mem.AllocString(err.Error())
	if aerr != nil {
		return Value{}, aerr
	}
	return Value{Tag: TagString, Addr: addr}, nil
}

// VisitTry runs Body, routes any non-cancellation error through CatchBody
// (binding CatchName to the failure's message, per ThrownError's own
// doc comment: the catch variable always observes a String), and always
// runs FinallyBody last. Cancellation is deliberately not catchable: it
// must unwind through a try the same way it unwinds through everything
// else.
func (e *Evaluator) VisitTry(n *TryNode) (Signal, error) {
	sig, err := e.eval(n.Body)
	if err != nil {
		if _, cancelled := err.(Cancelled); !cancelled && n.CatchBody != nil {
			e.Ctx.PushScope()
			if n.CatchName != "" {
				msg, verr := e.errorValue(err)
				if verr != nil {
					e.Ctx.PopScope()
					return Signal{}, verr
				}
				if derr := e.declareLocal(n.CatchName, TagString, msg, true); derr != nil {
					e.Ctx.PopScope()
					return Signal{}, derr
				}
			}
			e.catchStack = append(e.catchStack, err)
			sig, err = e.eval(n.CatchBody)
			e.catchStack = e.catchStack[:len(e.catchStack)-1]
			e.Ctx.PopScope()
		}
	}
	if n.FinallyBody != nil {
		fsig, ferr := e.eval(n.FinallyBody)
		if ferr != nil {
			return Signal{}, ferr
		}
		if fsig.Kind != SignalNone {
			return fsig, nil
		}
	}
	if err != nil {
		return Signal{}, err
	}
	return sig, nil
}

// VisitThrow handles both `throw expr;` and the bare rethrow form
// `throw;`, which only makes sense inside a catch block and re-raises
// whatever that catch is currently handling.
func (e *Evaluator) VisitThrow(n *ThrowNode) (Signal, error) {
	if n.Expr == nil {
		if len(e.catchStack) == 0 {
			return Signal{}, TypeError{Message: "throw; outside of a catch block"}
		}
		return Signal{}, e.catchStack[len(e.catchStack)-1]
	}
	v, err := e.evalValue(n.Expr)
	if err != nil {
		return Signal{}, err
	}
	return Signal{}, ThrownError{Message: e.stringOf(v)}
}

func (e *Evaluator) VisitReturn(n *ReturnNode) (Signal, error) {
	if n.Value == nil {
		return returnSignal(nil), nil
	}
	v, err := e.evalValue(n.Value)
	if err != nil {
		return Signal{}, err
	}
	return returnSignal(&v), nil
}

func (e *Evaluator) VisitBreak(n *BreakNode) (Signal, error) { return breakSignal(), nil }

func (e *Evaluator) VisitContinue(n *ContinueNode) (Signal, error) { return continueSignal(), nil }

func (e *Evaluator) VisitGoto(n *GotoNode) (Signal, error) {
	switch {
	case n.IsDefault:
		return gotoDefaultSignal(), nil
	case n.CaseExpr != nil:
		v, err := e.evalValue(n.CaseExpr)
		if err != nil {
			return Signal{}, err
		}
		return gotoCaseSignal(v), nil
	default:
		return gotoSignal(n.Label), nil
	}
}

func (e *Evaluator) VisitLabel(n *LabelNode) (Signal, error) {
	return e.eval(n.Stmt)
}

// ---- using, namespace ----

// disposeScopeVars best-effort-calls a `Dispose()` method on every
// reference-kind local the current scope declared, for the resource form
// of `using`. A type with no registered Dispose overload is left alone.
func (e *Evaluator) disposeScopeVars() {
	scope := e.Ctx.CurrentScope()
	for _, v := range scope.vars {
		if v.TypeName == "" {
			continue
		}
		overloads := e.Ctx.Overloads(v.TypeName + ".Dispose")
		if len(overloads) == 0 {
			continue
		}
		val, err := e.readVar(v)
		if err != nil {
			continue
		}
		fn, err := ResolveOverload(overloads, nil)
		if err != nil {
			continue
		}
		e.invokeMethod(fn, val, nil)
	}
}

func (e *Evaluator) VisitUsing(n *UsingNode) (Signal, error) {
	if n.Namespace != "" {
		return none(), nil
	}
	e.Ctx.PushScope()
	defer e.Ctx.PopScope()
	if n.Decl != nil {
		if _, err := e.eval(n.Decl); err != nil {
			return Signal{}, err
		}
	}
	sig, err := e.eval(n.Body)
	e.disposeScopeVars()
	if err != nil {
		return Signal{}, err
	}
	return sig, nil
}

func (e *Evaluator) VisitNamespace(n *NamespaceNode) (Signal, error) {
	return e.execStmts(n.Decls)
}

// ---- declarations ----

func (e *Evaluator) VisitFuncDecl(n *FuncDeclNode) (Signal, error) {
	e.Ctx.DeclareFunc(&Function{
		Name:       n.Name,
		Params:     n.Params,
		ReturnType: n.ReturnType,
		Body:       n.Body,
	})
	return none(), nil
}

// VisitTypeDecl registers the struct/class layout and, separately, one
// FunctionTable entry per non-constructor method under "Type.Method" —
// the qualified name evalMethodCall looks up. Constructors are not
// registered there; VisitNewObject invokes decl.Methods directly.
func (e *Evaluator) VisitTypeDecl(n *TypeDeclNode) (Signal, error) {
	e.Ctx.DeclareType(n)
	for _, m := range n.Methods {
		if m.IsConstructor {
			continue
		}
		e.Ctx.DeclareFunc(&Function{
			Name:       n.Name + "." + m.Name,
			Params:     m.Params,
			ReturnType: m.ReturnType,
			Body:       m.Body,
		})
	}
	return none(), nil
}

func (e *Evaluator) VisitEnumDecl(n *EnumDeclNode) (Signal, error) {
	e.Ctx.DeclareEnum(n)
	return none(), nil
}

// VisitInterfaceDecl is a no-op at runtime: interfaces are parsed but not
// enforced.
func (e *Evaluator) VisitInterfaceDecl(n *InterfaceDeclNode) (Signal, error) {
	return none(), nil
}
