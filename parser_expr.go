package ember

import (
	"math"
	"strings"
)

// parser_expr.go implements precedence-climbing expression parsing over a
// fixed C-family precedence table.

var binaryPrecedence = map[string]int{
	"??": 1,
	"||": 2,
	"&&": 3,
	"|":  4,
	"^":  5,
	"&":  6,
	"==": 7, "!=": 7,
	"<": 8, "<=": 8, ">": 8, ">=": 8,
	"<<": 9, ">>": 9, ">>>": 9,
	"+": 10, "-": 10,
	"*": 11, "/": 11, "%": 11,
	"**": 12,
}

var binaryOpByText = map[string]BinaryOp{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpMod, "**": OpPow,
	"<<": OpShl, ">>": OpShr, ">>>": OpUShr, "<": OpLt, "<=": OpLe, ">": OpGt,
	">=": OpGe, "==": OpEq, "!=": OpNe, "&": OpBitAnd, "^": OpBitXor,
	"|": OpBitOr, "&&": OpAnd, "||": OpOr, "??": OpCoalesce,
}

var assignOpByText = map[string]AssignOp{
	"=": AssignSet, "+=": AssignAdd, "-=": AssignSub, "*=": AssignMul,
	"/=": AssignDiv, "%=": AssignMod, "<<=": AssignShl, ">>=": AssignShr,
	"&=": AssignBitAnd, "|=": AssignBitOr, "^=": AssignBitXor, "??=": AssignCoalesce,
	">>>=": AssignUShr,
}

func (p *Parser) parseExpr() Node { return p.parseAssignExpr() }

func (p *Parser) parseAssignExpr() Node {
	left := p.parseTernary()
	if p.cur().Type == TokenOperator {
		if op, ok := assignOpByText[p.cur().Text]; ok {
			p.advance()
			value := p.parseAssignExpr()
			return &AssignExprNode{Rg: NewRange(left.Range().Start, value.Range().End), Op: op, LHS: left, Value: value}
		}
	}
	return left
}

func (p *Parser) parseTernary() Node {
	cond := p.parseBinary(1)
	if p.atOp("?") {
		p.advance()
		then := p.parseAssignExpr()
		p.expectOp(":")
		els := p.parseAssignExpr()
		return &TernaryExprNode{Rg: NewRange(cond.Range().Start, els.Range().End), Cond: cond, Then: then, Else: els}
	}
	return cond
}

func (p *Parser) parseBinary(minPrec int) Node {
	left := p.parseUnary()
	for {
		if p.atKeyword("is") {
			p.advance()
			pat := p.parsePattern()
			left = &IsExprNode{Rg: NewRange(left.Range().Start, pat.Range().End), Operand: left, Pattern: pat}
			continue
		}
		if p.atKeyword("switch") {
			left = p.parseSwitchExpr(left)
			continue
		}
		if p.cur().Type != TokenOperator {
			break
		}
		text := p.cur().Text
		prec, ok := binaryPrecedence[text]
		if !ok || prec < minPrec {
			break
		}
		op := binaryOpByText[text]
		p.advance()
		nextMin := prec + 1
		if op == OpPow {
			nextMin = prec // right-associative
		}
		right := p.parseBinary(nextMin)
		left = &BinaryExprNode{Rg: NewRange(left.Range().Start, right.Range().End), Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseSwitchExpr(operand Node) Node {
	start := operand.Range()
	p.advance() // 'switch'
	p.expectOp("{")
	var arms []SwitchExprArm
	for !p.atOp("}") && p.cur().Type != TokenEOF {
		pat := p.parsePattern()
		var guard Node
		if p.atKeyword("when") {
			p.advance()
			guard = p.parseExpr()
		}
		p.expectOp("=>")
		result := p.parseAssignExpr()
		arms = append(arms, SwitchExprArm{Pattern: pat, Guard: guard, Result: result})
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	end := p.cur().Rg
	p.expectOp("}")
	return &SwitchExprNode{Rg: NewRange(start.Start, end.End), Operand: operand, Arms: arms}
}

func (p *Parser) parseUnary() Node {
	start := p.cur().Rg
	switch {
	case p.atOp("-"):
		p.advance()
		operand := p.parseUnary()
		return &UnaryExprNode{Rg: NewRange(start.Start, operand.Range().End), Op: OpNeg, Operand: operand}
	case p.atOp("!"):
		p.advance()
		operand := p.parseUnary()
		return &UnaryExprNode{Rg: NewRange(start.Start, operand.Range().End), Op: OpNot, Operand: operand}
	case p.atOp("~"):
		p.advance()
		operand := p.parseUnary()
		return &UnaryExprNode{Rg: NewRange(start.Start, operand.Range().End), Op: OpBitNot, Operand: operand}
	case p.atOp("++"):
		p.advance()
		operand := p.parseUnary()
		return &UnaryExprNode{Rg: NewRange(start.Start, operand.Range().End), Op: OpPreInc, Operand: operand}
	case p.atOp("--"):
		p.advance()
		operand := p.parseUnary()
		return &UnaryExprNode{Rg: NewRange(start.Start, operand.Range().End), Op: OpPreDec, Operand: operand}
	case p.atOp("&"):
		p.advance()
		operand := p.parseUnary()
		return &UnaryExprNode{Rg: NewRange(start.Start, operand.Range().End), Op: OpAddrOf, Operand: operand}
	case p.atOp("*"):
		p.advance()
		operand := p.parseUnary()
		return &UnaryExprNode{Rg: NewRange(start.Start, operand.Range().End), Op: OpDeref, Operand: operand}
	case p.atOp("(") && p.isCastAhead():
		p.advance()
		typeName := p.parseTypeName()
		p.expectOp(")")
		operand := p.parseUnary()
		return &CastExprNode{Rg: NewRange(start.Start, operand.Range().End), TypeName: typeName, Operand: operand}
	default:
		return p.parsePostfix()
	}
}

// isCastAhead distinguishes a parenthesized cast `(int)x` from a
// parenthesized expression `(x + y)` by looking ahead for `) <unary-start>`
// immediately following a type name, using lexer Save/Restore rather than
// extending lookahead depth globally.
func (p *Parser) isCastAhead() bool {
	save := p.lex.Save()
	defer p.lex.Restore(save)

	p.lex.Next() // consume '('
	if p.cur().Type != TokenIdent && p.cur().Type != TokenKeyword {
		return false
	}
	if _, known := TagForTypeName(p.cur().Text); !known && !startsUpper(p.cur().Text) {
		return false
	}
	p.lex.Next()
	for p.cur().Type == TokenOperator && (p.cur().Text == "[" || p.cur().Text == "?") {
		p.lex.Next()
		if p.cur().Text == "]" {
			p.lex.Next()
		}
	}
	if !(p.cur().Type == TokenOperator && p.cur().Text == ")") {
		return false
	}
	p.lex.Next()
	switch p.cur().Type {
	case TokenIdent, TokenNumber, TokenString, TokenChar, TokenInterpString:
		return true
	case TokenOperator:
		return p.cur().Text == "(" || p.cur().Text == "-" || p.cur().Text == "!" || p.cur().Text == "~"
	default:
		return false
	}
}

func startsUpper(s string) bool { return len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' }

func (p *Parser) parsePostfix() Node {
	expr := p.parsePrimary()
	for {
		switch {
		case p.atOp("."):
			p.advance()
			name, rg, _ := p.expectIdent()
			expr = &MemberExprNode{Rg: NewRange(expr.Range().Start, rg.End), Base: expr, Member: name}
		case p.atOp("("):
			args, names, end := p.parseArgs()
			expr = &CallExprNode{Rg: NewRange(expr.Range().Start, end), Callee: expr, Args: args, ArgNames: names}
		case p.atOp("["):
			expr = p.parseIndex(expr)
		case p.atOp("++"):
			r := p.advance().Rg
			expr = &UnaryExprNode{Rg: NewRange(expr.Range().Start, r.End), Op: OpPostInc, Operand: expr}
		case p.atOp("--"):
			r := p.advance().Rg
			expr = &UnaryExprNode{Rg: NewRange(expr.Range().Start, r.End), Op: OpPostDec, Operand: expr}
		default:
			return expr
		}
	}
}

func (p *Parser) parseArgs() ([]Node, []string, int) {
	p.expectOp("(")
	var args []Node
	var names []string
	namedSeen := false
	for !p.atOp(")") && p.cur().Type != TokenEOF {
		name := ""
		if p.cur().Type == TokenIdent && p.peekIsColonArg() {
			name, _, _ = p.expectIdent()
			p.expectOp(":")
			namedSeen = true
		} else if namedSeen {
			p.errs = append(p.errs, ParseError{Message: "positional argument cannot follow a named argument", Span: p.span()})
		}
		args = append(args, p.parseAssignExpr())
		names = append(names, name)
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	end := p.cur().Rg.End
	p.expectOp(")")
	return args, names, end
}

func (p *Parser) peekIsColonArg() bool {
	save := p.lex.Save()
	defer p.lex.Restore(save)
	p.lex.Next()
	return p.cur().Type == TokenOperator && p.cur().Text == ":"
}

func (p *Parser) parseIndex(base Node) Node {
	start := base.Range()
	p.advance() // '['
	fromEnd := false
	if p.atOp("^") {
		p.advance()
		fromEnd = true
	}
	var idx Node
	if !p.atOp("..") {
		idx = p.parseExpr()
	}
	if p.atOp("..") {
		p.advance()
		var sliceEnd Node
		if !p.atOp("]") {
			sliceEnd = p.parseExpr()
		}
		end := p.cur().Rg.End
		p.expectOp("]")
		return &IndexExprNode{Rg: NewRange(start.Start, end), Base: base, IsSlice: true, SliceStart: idx, SliceEnd: sliceEnd}
	}
	end := p.cur().Rg.End
	p.expectOp("]")
	return &IndexExprNode{Rg: NewRange(start.Start, end), Base: base, Index: idx, FromEnd: fromEnd}
}

func (p *Parser) parsePrimary() Node {
	start := p.cur().Rg
	switch {
	case p.cur().Type == TokenNumber:
		return p.parseNumberLit()
	case p.cur().Type == TokenChar:
		t := p.advance()
		r := []rune(t.Text)
		var v rune
		if len(r) > 0 {
			v = r[0]
		}
		return &CharLitNode{Rg: t.Rg, Value: v}
	case p.cur().Type == TokenString:
		t := p.advance()
		return &StringLitNode{Rg: t.Rg, Value: t.Text}
	case p.cur().Type == TokenInterpString:
		return p.parseInterpString()
	case p.atKeyword("true"):
		t := p.advance()
		return &BoolLitNode{Rg: t.Rg, Value: true}
	case p.atKeyword("false"):
		t := p.advance()
		return &BoolLitNode{Rg: t.Rg, Value: false}
	case p.atKeyword("null"):
		t := p.advance()
		return &NullLitNode{Rg: t.Rg}
	case p.atKeyword("new"):
		return p.parseNew()
	case p.atKeyword("this"):
		t := p.advance()
		return &IdentNode{Rg: t.Rg, Name: "this"}
	case p.isLambdaAhead():
		return p.parseLambda()
	case p.atOp("("):
		return p.parseParenOrTuple()
	case p.atOp("["):
		return p.parseDictLit()
	case p.cur().Type == TokenIdent:
		t := p.advance()
		return &IdentNode{Rg: t.Rg, Name: t.Text}
	default:
		err := ParseError{Message: "expected expression, found `" + p.cur().Text + "`", Span: p.span()}
		p.errs = append(p.errs, err)
		p.advance()
		return p.missing(start, err)
	}
}

func (p *Parser) parseNumberLit() Node {
	t := p.advance()
	suffix := strings.ToLower(t.NumSuffix)
	text := t.Text[:len(t.Text)-len(t.NumSuffix)]
	isFloat := strings.Contains(text, ".") || strings.Contains(strings.ToLower(text), "e") && !strings.HasPrefix(text, "0x")
	switch suffix {
	case "f":
		return &FloatLitNode{Rg: t.Rg, Text: text, Tag: TagFloat}
	case "d":
		return &FloatLitNode{Rg: t.Rg, Text: text, Tag: TagDouble}
	case "m":
		return &FloatLitNode{Rg: t.Rg, Text: text, Tag: TagDecimal}
	case "u":
		return &IntLitNode{Rg: t.Rg, Text: text, Tag: TagUInt32}
	case "l":
		return &IntLitNode{Rg: t.Rg, Text: text, Tag: TagInt64}
	case "ul", "lu":
		return &IntLitNode{Rg: t.Rg, Text: text, Tag: TagUInt64}
	}
	if isFloat {
		return &FloatLitNode{Rg: t.Rg, Text: text, Tag: TagDouble}
	}
	tag := TagInt32
	if v, err := parseIntLiteral(text, TagUInt64); err == nil {
		switch n := uint64(v.IntVal); {
		case n > math.MaxInt64:
			tag = TagUInt64
		case n > math.MaxUint32:
			tag = TagInt64
		case n > math.MaxInt32:
			tag = TagUInt32
		}
	}
	return &IntLitNode{Rg: t.Rg, Text: text, Tag: tag}
}

func (p *Parser) parseInterpString() Node {
	t := p.advance()
	// The lexer hands back raw text between `$"` and `"`; split it here on
	// unescaped `{...}` spans rather than in the lexer, keeping expression
	// parsing (which needs a full Parser, not just a Lexer) out of
	// tokenization.
	lits, exprSrcs := splitInterpolation(t.Text)
	var exprs []Node
	var aligns []Node
	var formats []string
	for _, src := range exprSrcs {
		exprText, align, format := splitAlignFormat(src)
		sub := NewParser(exprText, t.Rg.String())
		exprs = append(exprs, sub.parseExpr())
		formats = append(formats, format)
		if align != "" {
			asub := NewParser(align, t.Rg.String())
			aligns = append(aligns, asub.parseExpr())
		} else {
			aligns = append(aligns, nil)
		}
	}
	return &InterpStringNode{Rg: t.Rg, Literals: lits, Exprs: exprs, Alignment: aligns, Format: formats}
}

// splitInterpolation splits on top-level `{expr}` spans, doubling `{{`/`}}`
// to escape a literal brace.
func splitInterpolation(s string) ([]string, []string) {
	var lits []string
	var exprs []string
	var cur strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		if c == '{' && i+1 < len(s) && s[i+1] == '{' {
			cur.WriteByte('{')
			i += 2
			continue
		}
		if c == '}' && i+1 < len(s) && s[i+1] == '}' {
			cur.WriteByte('}')
			i += 2
			continue
		}
		if c == '{' {
			lits = append(lits, cur.String())
			cur.Reset()
			depth := 1
			j := i + 1
			start := j
			for j < len(s) && depth > 0 {
				if s[j] == '{' {
					depth++
				} else if s[j] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				j++
			}
			exprs = append(exprs, s[start:j])
			i = j + 1
			continue
		}
		cur.WriteByte(c)
		i++
	}
	lits = append(lits, cur.String())
	return lits, exprs
}

func splitAlignFormat(src string) (expr, align, format string) {
	expr = src
	if idx := strings.IndexByte(expr, ':'); idx >= 0 {
		format = expr[idx+1:]
		expr = expr[:idx]
	}
	if idx := strings.IndexByte(expr, ','); idx >= 0 {
		align = strings.TrimSpace(expr[idx+1:])
		expr = expr[:idx]
	}
	return expr, align, format
}

func (p *Parser) parseNew() Node {
	start := p.advance().Rg // 'new'
	typeName := p.parseTypeName()
	if p.atOp("[") {
		var dims []Node
		for p.atOp("[") {
			p.advance()
			if !p.atOp("]") {
				dims = append(dims, p.parseExpr())
			} else {
				dims = append(dims, nil)
			}
			p.expectOp("]")
		}
		elemTag, _ := TagForTypeName(typeName)
		end := p.cur().Rg
		return &NewArrayNode{Rg: NewRange(start.Start, end.End), ElemTag: elemTag, ElemType: typeName, Dims: dims}
	}
	var args []Node
	end := start
	if p.atOp("(") {
		args, _, _ = p.parseArgs()
		end = p.cur().Rg
	}
	return &NewObjectNode{Rg: NewRange(start.Start, end.End), TypeName: typeName, Args: args}
}

func (p *Parser) parseParenOrTuple() Node {
	start := p.advance().Rg // '('
	var items []Node
	items = append(items, p.parseAssignExpr())
	isTuple := false
	for p.atOp(",") {
		isTuple = true
		p.advance()
		items = append(items, p.parseAssignExpr())
	}
	end := p.cur().Rg
	p.expectOp(")")
	if isTuple {
		return &TupleLitNode{Rg: NewRange(start.Start, end.End), Items: items}
	}
	return items[0]
}

func (p *Parser) parseDictLit() Node {
	start := p.advance().Rg // '['
	var keys, vals []Node
	for !p.atOp("]") && p.cur().Type != TokenEOF {
		k := p.parseAssignExpr()
		p.expectOp(":")
		v := p.parseAssignExpr()
		keys = append(keys, k)
		vals = append(vals, v)
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	end := p.cur().Rg
	p.expectOp("]")
	return &DictLitNode{Rg: NewRange(start.Start, end.End), Keys: keys, Vals: vals}
}

// isLambdaAhead detects `ident =>` and `(params) =>` without consuming.
func (p *Parser) isLambdaAhead() bool {
	save := p.lex.Save()
	defer p.lex.Restore(save)

	if p.cur().Type == TokenIdent {
		p.lex.Next()
		return p.cur().Type == TokenOperator && p.cur().Text == "=>"
	}
	if !p.atOp("(") {
		return false
	}
	depth := 0
	for {
		if p.atOp("(") {
			depth++
		} else if p.atOp(")") {
			depth--
			if depth == 0 {
				p.lex.Next()
				return p.cur().Type == TokenOperator && p.cur().Text == "=>"
			}
		} else if p.cur().Type == TokenEOF {
			return false
		}
		p.lex.Next()
	}
}

func (p *Parser) parseLambda() Node {
	start := p.cur().Rg
	var names []string
	var tags []string
	if p.cur().Type == TokenIdent {
		n, _, _ := p.expectIdent()
		names = append(names, n)
		tags = append(tags, "")
	} else {
		p.advance() // '('
		for !p.atOp(")") && p.cur().Type != TokenEOF {
			tag := ""
			if p.isDeclStart() {
				tag = p.parseTypeName()
			}
			n, _, _ := p.expectIdent()
			names = append(names, n)
			tags = append(tags, tag)
			if p.atOp(",") {
				p.advance()
				continue
			}
			break
		}
		p.expectOp(")")
	}
	p.expectOp("=>")
	if p.atOp("{") {
		body := p.parseBlock()
		return &LambdaExprNode{Rg: NewRange(start.Start, body.Range().End), ParamNames: names, ParamTags: tags, Body: body}
	}
	body := p.parseAssignExpr()
	return &LambdaExprNode{Rg: NewRange(start.Start, body.Range().End), ParamNames: names, ParamTags: tags, Body: body, ExprBody: true}
}
