package ember

// parsePattern parses the pattern grammar: `_`, `null`, `T`, `T x`, a
// constant expression, a relational `op C`, `not A`, and the `and`/`or`
// combinators, which bind looser than everything else so `A and B or C`
// parses as `(A and B) or C` via standard left-associative combinators.
func (p *Parser) parsePattern() Pattern {
	return p.parseOrPattern()
}

func (p *Parser) parseOrPattern() Pattern {
	left := p.parseAndPattern()
	for p.atKeyword("or") {
		start := left.Range()
		p.advance()
		right := p.parseAndPattern()
		left = &LogicalPattern{Rg: NewRange(start.Start, right.Range().End), Op: LogicalOr, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAndPattern() Pattern {
	left := p.parsePrimaryPattern()
	for p.atKeyword("and") {
		start := left.Range()
		p.advance()
		right := p.parsePrimaryPattern()
		left = &LogicalPattern{Rg: NewRange(start.Start, right.Range().End), Op: LogicalAnd, Left: left, Right: right}
	}
	if p.atKeyword("when") {
		start := left.Range()
		p.advance()
		guard := p.parseExpr()
		left = &GuardPattern{Rg: NewRange(start.Start, guard.Range().End), Inner: left, Guard: guard}
	}
	return left
}

func (p *Parser) parsePrimaryPattern() Pattern {
	start := p.cur().Rg
	switch {
	case p.atKeyword("not"):
		p.advance()
		inner := p.parsePrimaryPattern()
		return &NotPattern{Rg: NewRange(start.Start, inner.Range().End), Inner: inner}
	case p.cur().Type == TokenIdent && p.cur().Text == "_":
		t := p.advance()
		return &DiscardPattern{Rg: t.Rg}
	case p.atKeyword("null"):
		t := p.advance()
		return &NullPattern{Rg: t.Rg}
	case p.cur().Type == TokenOperator && isRelationalOpText(p.cur().Text):
		op := relationalOpFromText(p.cur().Text)
		p.advance()
		expr := p.parseBinary(10)
		return &RelationalPattern{Rg: NewRange(start.Start, expr.Range().End), Op: op, Expr: expr}
	case p.atOp("("):
		p.advance()
		inner := p.parsePattern()
		p.expectOp(")")
		return inner
	case (p.cur().Type == TokenIdent || p.atPrimitiveType()) && p.peekIsPatternBinding():
		typeName := p.advance().Text
		name, rg, _ := p.expectIdent()
		return &BindingPattern{Rg: NewRange(start.Start, rg.End), TypeName: typeName, Name: name}
	case p.cur().Type == TokenIdent || p.atPrimitiveType():
		t := p.advance()
		return &TypePattern{Rg: NewRange(start.Start, t.Rg.End), TypeName: t.Text}
	default:
		expr := p.parseBinary(10)
		return &ConstPattern{Rg: NewRange(start.Start, expr.Range().End), Expr: expr}
	}
}

func isRelationalOpText(s string) bool {
	switch s {
	case "<", "<=", ">", ">=":
		return true
	default:
		return false
	}
}

func relationalOpFromText(s string) RelationalOp {
	switch s {
	case "<":
		return RelLt
	case "<=":
		return RelLe
	case ">":
		return RelGt
	default:
		return RelGe
	}
}

// peekIsPatternBinding detects `TypeName ident` (a binding pattern) versus
// a bare `TypeName` type pattern, by checking whether a second identifier
// immediately follows.
func (p *Parser) peekIsPatternBinding() bool {
	save := p.lex.Save()
	defer p.lex.Restore(save)
	p.lex.Next()
	return p.cur().Type == TokenIdent
}
