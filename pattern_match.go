package ember

// matchPattern evaluates a Pattern against a Value, implementing
// PatternVisitor against the current ExecutionContext so BindingPattern can
// declare into the live scope, mirroring the way VisitXxx methods on
// Evaluator already close over e.Ctx for statement/expression evaluation.
func (e *Evaluator) matchPattern(p Pattern, v Value) (bool, error) {
	m := &patternMatcher{e: e, v: v}
	return p.Accept(m)
}

type patternMatcher struct {
	e *Evaluator
	v Value
}

func (m *patternMatcher) VisitDiscardPattern(p *DiscardPattern) (bool, error) {
	return true, nil
}

func (m *patternMatcher) VisitNullPattern(p *NullPattern) (bool, error) {
	return m.v.IsNull(), nil
}

// typeMatches reports whether v's runtime type satisfies typeName, walking
// the base-class chain for struct/class values so `is Base b` matches a
// derived instance under the language's single-inheritance model.
func (m *patternMatcher) typeMatches(typeName string) bool {
	v := m.v
	if tag, known := TagForTypeName(typeName); known {
		return v.Tag == tag
	}
	if v.Tag == TagStruct || v.Tag == TagClass || v.Tag == TagObject {
		name := v.TypeName
		for name != "" {
			if name == typeName {
				return true
			}
			decl, ok := m.e.Ctx.LookupType(name)
			if !ok {
				break
			}
			name = decl.BaseName
		}
		return false
	}
	if v.Tag == TagEnum || v.Tag == TagArray {
		return v.TypeName == typeName
	}
	return false
}

func (m *patternMatcher) VisitTypePattern(p *TypePattern) (bool, error) {
	if m.v.IsNull() {
		return false, nil
	}
	return m.typeMatches(p.TypeName), nil
}

func (m *patternMatcher) VisitBindingPattern(p *BindingPattern) (bool, error) {
	if m.v.IsNull() {
		return false, nil
	}
	if !m.typeMatches(p.TypeName) {
		return false, nil
	}
	tag, known := TagForTypeName(p.TypeName)
	if !known {
		tag = m.v.Tag
	}
	if err := m.e.declareLocal(p.Name, tag, m.v, true); err != nil {
		return false, err
	}
	return true, nil
}

func (m *patternMatcher) VisitConstPattern(p *ConstPattern) (bool, error) {
	want, err := m.e.evalValue(p.Expr)
	if err != nil {
		return false, err
	}
	return m.e.valuesEqual(m.v, want), nil
}

func (m *patternMatcher) VisitRelationalPattern(p *RelationalPattern) (bool, error) {
	rhs, err := m.e.evalValue(p.Expr)
	if err != nil {
		return false, err
	}
	var op BinaryOp
	switch p.Op {
	case RelLt:
		op = OpLt
	case RelLe:
		op = OpLe
	case RelGt:
		op = OpGt
	case RelGe:
		op = OpGe
	}
	result, err := compareValues(op, m.v, rhs, m.e)
	if err != nil {
		return false, err
	}
	return result.Bool(), nil
}

func (m *patternMatcher) VisitLogicalPattern(p *LogicalPattern) (bool, error) {
	left, err := p.Left.Accept(m)
	if err != nil {
		return false, err
	}
	if p.Op == LogicalAnd {
		if !left {
			return false, nil
		}
		return p.Right.Accept(m)
	}
	if left {
		return true, nil
	}
	return p.Right.Accept(m)
}

func (m *patternMatcher) VisitNotPattern(p *NotPattern) (bool, error) {
	matched, err := p.Inner.Accept(m)
	if err != nil {
		return false, err
	}
	return !matched, nil
}

func (m *patternMatcher) VisitGuardPattern(p *GuardPattern) (bool, error) {
	matched, err := p.Inner.Accept(m)
	if err != nil || !matched {
		return false, err
	}
	g, err := m.e.evalValue(p.Guard)
	if err != nil {
		return false, err
	}
	return g.Truthy(), nil
}
