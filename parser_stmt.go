package ember

// parser_stmt.go continues Parser with statement-level grammar: blocks,
// control flow, declarations-as-statements, and switch/try/using forms.

func (p *Parser) parseBlock() Node {
	start := p.cur().Rg
	if _, err := p.expectOp("{"); err != nil {
		p.recover()
		return p.missing(start, err)
	}
	var stmts []Node
	for !p.atOp("}") && p.cur().Type != TokenEOF {
		stmts = append(stmts, p.parseStatement())
	}
	end := p.cur().Rg
	p.expectOp("}")
	return &BlockNode{Rg: NewRange(start.Start, end.End), Stmts: stmts}
}

func (p *Parser) parseStatement() Node {
	switch {
	case p.atOp("{"):
		return p.parseBlock()
	case p.atOp(";"):
		r := p.advance().Rg
		return &EmptyStmtNode{Rg: r}
	case p.atKeyword("if"):
		return p.parseIf()
	case p.atKeyword("while"):
		return p.parseWhile()
	case p.atKeyword("do"):
		return p.parseDoWhile()
	case p.atKeyword("for"):
		return p.parseFor()
	case p.atKeyword("foreach"):
		return p.parseForeach()
	case p.atKeyword("switch"):
		return p.parseSwitchStmt()
	case p.atKeyword("try"):
		return p.parseTry()
	case p.atKeyword("throw"):
		return p.parseThrow()
	case p.atKeyword("return"):
		return p.parseReturn()
	case p.atKeyword("break"):
		r := p.advance().Rg
		end, _ := p.expectOp(";")
		return &BreakNode{Rg: NewRange(r.Start, end.Rg.End)}
	case p.atKeyword("continue"):
		r := p.advance().Rg
		end, _ := p.expectOp(";")
		return &ContinueNode{Rg: NewRange(r.Start, end.Rg.End)}
	case p.atKeyword("goto"):
		return p.parseGoto()
	case p.atKeyword("using"):
		return p.parseUsing()
	case p.atKeyword("function"):
		return p.parseFuncDecl()
	case p.atKeyword("class"), p.atKeyword("struct"):
		return p.parseTypeDecl()
	case p.atKeyword("enum"):
		return p.parseEnumDecl()
	case p.atKeyword("interface"):
		return p.parseInterfaceDecl()
	case p.atFuncDeclStart():
		return p.parseFuncDecl()
	case p.atKeyword("var") || p.atPrimitiveType() || p.isDeclStart():
		return p.parseDeclStatement(true)
	case p.cur().Type == TokenIdent && p.peekIsLabel():
		return p.parseLabel()
	default:
		return p.parseExprStatement()
	}
}

// isDeclStart heuristically detects `TypeName ident` / `TypeName ident =`
// to distinguish a declaration statement from an expression statement,
// since both can start with an identifier. It looks ahead with lexer
// Save/Restore rather than adding a second token of lookahead to the
// lexer itself.
func (p *Parser) isDeclStart() bool {
	if p.cur().Type != TokenIdent {
		return false
	}
	save := p.lex.Save()
	defer p.lex.Restore(save)

	p.lex.Next()
	for p.cur().Type == TokenOperator && (p.cur().Text == "<" || p.cur().Text == "[" || p.cur().Text == "?" || p.cur().Text == ">" || p.cur().Text == "," || p.cur().Text == "." || p.cur().Text == "*") || p.atPrimitiveType() {
		if p.cur().Text == "[" {
			p.lex.Next()
			if !p.atOp("]") {
				return false // `a[i] = ...` is an element assignment
			}
		}
		p.lex.Next()
	}
	return p.cur().Type == TokenIdent
}

// atFuncDeclStart detects `TypeName ident (` — a function declared without
// the `function` keyword, the language's normal C-family shape (e.g.
// `int fact(int n){...}`). It must run before isDeclStart's
// decl-statement dispatch, since both start with the same token shape and
// only diverge at the `(` that follows the name. Lookahead is done with
// lexer Save/Restore so no parser state or diagnostics are produced for a
// guess that turns out wrong.
func (p *Parser) atFuncDeclStart() bool {
	if p.cur().Type != TokenKeyword && p.cur().Type != TokenIdent {
		return false
	}
	if !p.atPrimitiveType() && p.cur().Type != TokenIdent {
		return false
	}
	save := p.lex.Save()
	defer p.lex.Restore(save)

	p.lex.Next() // base type name
	for {
		switch {
		case p.cur().Type == TokenOperator && p.cur().Text == "<":
			depth := 1
			p.lex.Next()
			for depth > 0 && p.cur().Type != TokenEOF {
				switch {
				case p.cur().Type == TokenOperator && p.cur().Text == "<":
					depth++
				case p.cur().Type == TokenOperator && (p.cur().Text == ">" || p.cur().Text == ">>" || p.cur().Text == ">>>"):
					depth -= len(p.cur().Text)
				}
				p.lex.Next()
			}
			continue
		case p.cur().Type == TokenOperator && p.cur().Text == "[":
			p.lex.Next()
			if p.cur().Type == TokenOperator && p.cur().Text == "]" {
				p.lex.Next()
			}
			continue
		case p.cur().Type == TokenOperator && (p.cur().Text == "*" || p.cur().Text == "?"):
			p.lex.Next()
			continue
		}
		break
	}
	if p.cur().Type != TokenIdent {
		return false
	}
	p.lex.Next()
	return p.cur().Type == TokenOperator && p.cur().Text == "("
}

// atPrimitiveType reports whether the current token is one of the
// built-in type keywords (int, string, bool, ...). These lex as
// TokenKeyword rather than TokenIdent, so isDeclStart's ident-based
// lookahead never fires for them; no keyword otherwise starts a valid
// expression, so treating one as a declaration start is unambiguous.
func (p *Parser) atPrimitiveType() bool {
	if p.cur().Type != TokenKeyword {
		return false
	}
	_, ok := tagForTypeName[p.cur().Text]
	return ok
}

func (p *Parser) peekIsLabel() bool {
	save := p.lex.Save()
	defer p.lex.Restore(save)
	p.lex.Next()
	return p.cur().Type == TokenOperator && p.cur().Text == ":"
}

func (p *Parser) parseLabel() Node {
	name, rg, _ := p.expectIdent()
	p.expectOp(":")
	stmt := p.parseStatement()
	return &LabelNode{Rg: NewRange(rg.Start, stmt.Range().End), Name: name, Stmt: stmt}
}

func (p *Parser) parseExprStatement() Node {
	start := p.cur().Rg
	expr := p.parseExpr()
	end, _ := p.expectOp(";")
	return &ExprStmtNode{Rg: NewRange(start.Start, end.Rg.End), Expr: expr}
}

// parseDeclStatement parses `TypeName name [= expr] (, name [= expr])*;`
// or `var name = expr;`. When requireSemi is false (the `using (decl)`
// form) the trailing `;` is not consumed.
func (p *Parser) parseDeclStatement(requireSemi bool) Node {
	start := p.cur().Rg
	isVar := p.atKeyword("var")
	isConst := p.atKeyword("const")
	if isVar || isConst {
		p.advance()
	}
	typeName := ""
	if !isVar {
		typeName = p.parseTypeName()
	}
	var names []string
	var inits []Node
	for {
		name, _, _ := p.expectIdent()
		names = append(names, name)
		if p.atOp("=") {
			p.advance()
			inits = append(inits, p.parseAssignExpr())
		} else {
			inits = append(inits, nil)
		}
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	end := p.cur().Rg
	if requireSemi {
		semi, _ := p.expectOp(";")
		end = semi.Rg
	}
	return &DeclNode{Rg: NewRange(start.Start, end.End), TypeName: typeName, IsVar: isVar, IsConst: isConst, Names: names, Inits: inits}
}

func (p *Parser) parseIf() Node {
	start := p.advance().Rg // 'if'
	p.expectOp("(")
	cond := p.parseExpr()
	p.expectOp(")")
	then := p.parseStatement()
	var els Node
	end := then.Range()
	if p.atKeyword("else") {
		p.advance()
		els = p.parseStatement()
		end = els.Range()
	}
	return &IfNode{Rg: NewRange(start.Start, end.End), Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhile() Node {
	start := p.advance().Rg // 'while'
	p.expectOp("(")
	cond := p.parseExpr()
	p.expectOp(")")
	body := p.parseStatement()
	return &WhileNode{Rg: NewRange(start.Start, body.Range().End), Cond: cond, Body: body}
}

func (p *Parser) parseDoWhile() Node {
	start := p.advance().Rg // 'do'
	body := p.parseStatement()
	p.expectKeyword("while")
	p.expectOp("(")
	cond := p.parseExpr()
	p.expectOp(")")
	end, _ := p.expectOp(";")
	return &DoWhileNode{Rg: NewRange(start.Start, end.Rg.End), Body: body, Cond: cond}
}

func (p *Parser) parseFor() Node {
	start := p.advance().Rg // 'for'
	p.expectOp("(")
	var init Node
	if !p.atOp(";") {
		if p.isDeclStart() || p.atKeyword("var") || p.atPrimitiveType() {
			init = p.parseDeclStatement(false)
		} else {
			init = p.parseExpr()
		}
	}
	p.expectOp(";")
	var cond Node
	if !p.atOp(";") {
		cond = p.parseExpr()
	}
	p.expectOp(";")
	var post Node
	if !p.atOp(")") {
		post = p.parseExpr()
	}
	p.expectOp(")")
	body := p.parseStatement()
	return &ForNode{Rg: NewRange(start.Start, body.Range().End), Init: init, Cond: cond, Post: post, Body: body}
}

func (p *Parser) parseForeach() Node {
	start := p.advance().Rg // 'foreach'
	p.expectOp("(")
	var names []string
	if p.atOp("(") {
		p.advance()
		for !p.atOp(")") {
			p.parseTypeName()
			n, _, _ := p.expectIdent()
			names = append(names, n)
			if p.atOp(",") {
				p.advance()
				continue
			}
			break
		}
		p.expectOp(")")
	} else {
		p.parseTypeName()
		n, _, _ := p.expectIdent()
		names = append(names, n)
	}
	p.expectKeyword("in")
	coll := p.parseExpr()
	p.expectOp(")")
	body := p.parseStatement()
	return &ForeachNode{Rg: NewRange(start.Start, body.Range().End), VarNames: names, Collection: coll, Body: body}
}

func (p *Parser) parseSwitchStmt() Node {
	start := p.advance().Rg // 'switch'
	p.expectOp("(")
	operand := p.parseExpr()
	p.expectOp(")")
	p.expectOp("{")
	var cases []SwitchCaseNode
	for !p.atOp("}") && p.cur().Type != TokenEOF {
		var sc SwitchCaseNode
		if p.atKeyword("case") {
			p.advance()
			sc.Pattern = p.parsePattern()
			if p.atKeyword("when") {
				p.advance()
				sc.Guard = p.parseExpr()
			}
		} else {
			p.expectKeyword("default")
		}
		p.expectOp(":")
		for !p.atKeyword("case") && !p.atKeyword("default") && !p.atOp("}") && p.cur().Type != TokenEOF {
			sc.Body = append(sc.Body, p.parseStatement())
		}
		cases = append(cases, sc)
	}
	end := p.cur().Rg
	p.expectOp("}")
	return &SwitchStmtNode{Rg: NewRange(start.Start, end.End), Operand: operand, Cases: cases}
}

func (p *Parser) parseTry() Node {
	start := p.advance().Rg // 'try'
	body := p.parseBlock()
	catchName := ""
	var catchBody Node
	if p.atKeyword("catch") {
		p.advance()
		if p.atOp("(") {
			p.advance()
			typeOrName := p.parseTypeName()
			if p.cur().Type == TokenIdent {
				catchName, _, _ = p.expectIdent()
			} else {
				catchName = typeOrName // `catch (e)`: a lone name binds the message
			}
			p.expectOp(")")
		}
		catchBody = p.parseBlock()
	}
	var finallyBody Node
	end := body.Range()
	if catchBody != nil {
		end = catchBody.Range()
	}
	if p.atKeyword("finally") {
		p.advance()
		finallyBody = p.parseBlock()
		end = finallyBody.Range()
	}
	return &TryNode{Rg: NewRange(start.Start, end.End), Body: body, CatchName: catchName, CatchBody: catchBody, FinallyBody: finallyBody}
}

func (p *Parser) parseThrow() Node {
	start := p.advance().Rg // 'throw'
	var expr Node
	if !p.atOp(";") {
		expr = p.parseExpr()
	}
	end, _ := p.expectOp(";")
	return &ThrowNode{Rg: NewRange(start.Start, end.Rg.End), Expr: expr}
}

func (p *Parser) parseReturn() Node {
	start := p.advance().Rg // 'return'
	var val Node
	if !p.atOp(";") {
		val = p.parseExpr()
	}
	end, _ := p.expectOp(";")
	return &ReturnNode{Rg: NewRange(start.Start, end.Rg.End), Value: val}
}

func (p *Parser) parseGoto() Node {
	start := p.advance().Rg // 'goto'
	if p.atKeyword("case") {
		p.advance()
		expr := p.parseExpr()
		end, _ := p.expectOp(";")
		return &GotoNode{Rg: NewRange(start.Start, end.Rg.End), CaseExpr: expr}
	}
	if p.atKeyword("default") {
		p.advance()
		end, _ := p.expectOp(";")
		return &GotoNode{Rg: NewRange(start.Start, end.Rg.End), IsDefault: true}
	}
	label, _, _ := p.expectIdent()
	end, _ := p.expectOp(";")
	return &GotoNode{Rg: NewRange(start.Start, end.Rg.End), Label: label}
}
