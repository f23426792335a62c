package ember

import "fmt"

// Parser is a hand-written recursive-descent parser with Pratt-style
// precedence climbing for expressions: a single-token lookahead driven by
// the lexer, diagnostics accumulated rather than aborting on the first
// error, and statement-boundary recovery that resynchronizes on the next
// `;` or `}` and emits a MissingNode placeholder so the rest of the
// program still parses.
type Parser struct {
	lex  *Lexer
	errs []error
}

func NewParser(src, file string) *Parser {
	return &Parser{lex: NewLexer(src, file)}
}

func (p *Parser) Errors() []error { return p.errs }

func (p *Parser) cur() Token { return p.lex.Cur() }

func (p *Parser) at(tt TokenType, text string) bool {
	t := p.cur()
	return t.Type == tt && (text == "" || t.Text == text)
}

func (p *Parser) atKeyword(kw string) bool { return p.at(TokenKeyword, kw) }
func (p *Parser) atOp(op string) bool      { return p.at(TokenOperator, op) }

func (p *Parser) advance() Token {
	t := p.cur()
	if _, err := p.lex.Next(); err != nil {
		p.errs = append(p.errs, err)
	}
	return t
}

func (p *Parser) expectOp(op string) (Token, error) {
	if !p.atOp(op) {
		err := ParseError{Message: fmt.Sprintf("expected `%s`, found `%s`", op, p.cur().Text), Span: p.span()}
		p.errs = append(p.errs, err)
		return p.cur(), err
	}
	return p.advance(), nil
}

func (p *Parser) expectKeyword(kw string) (Token, error) {
	if !p.atKeyword(kw) {
		err := ParseError{Message: fmt.Sprintf("expected `%s`, found `%s`", kw, p.cur().Text), Span: p.span()}
		p.errs = append(p.errs, err)
		return p.cur(), err
	}
	return p.advance(), nil
}

func (p *Parser) expectIdent() (string, Range, error) {
	if p.cur().Type != TokenIdent {
		err := ParseError{Message: fmt.Sprintf("expected identifier, found `%s`", p.cur().Text), Span: p.span()}
		p.errs = append(p.errs, err)
		return "", p.cur().Rg, err
	}
	t := p.advance()
	return t.Text, t.Rg, nil
}

func (p *Parser) span() Span {
	loc := p.lex.Location()
	return NewSpan(loc, loc)
}

// recover skips tokens until a statement boundary (`;`, `}`, or EOF), a
// coarse resynchronization strategy that keeps producing a tree after a
// syntax error instead of aborting the whole parse.
func (p *Parser) recover() {
	for {
		if p.atOp(";") {
			p.advance()
			return
		}
		if p.atOp("}") || p.cur().Type == TokenEOF {
			return
		}
		p.advance()
	}
}

func (p *Parser) missing(start Range, err error) *MissingNode {
	return &MissingNode{Rg: start, Err: err}
}

// ---- Program ----

func (p *Parser) ParseProgram() *ProgramNode {
	start := p.cur().Rg
	var decls, rest []Node
	for p.cur().Type != TokenEOF {
		stmt := p.parseTopLevel()
		if isDeclNode(stmt) {
			decls = append(decls, stmt)
		} else {
			rest = append(rest, stmt)
		}
	}
	stmts := append(decls, rest...)
	return &ProgramNode{Rg: NewRange(start.Start, p.cur().Rg.End), Stmts: stmts}
}

func isDeclNode(n Node) bool {
	switch n.(type) {
	case *FuncDeclNode, *TypeDeclNode, *EnumDeclNode, *InterfaceDeclNode, *NamespaceNode:
		return true
	default:
		return false
	}
}

func (p *Parser) parseTopLevel() Node {
	switch {
	case p.atKeyword("namespace"):
		return p.parseNamespace()
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
	default:
		return p.parseStatement()
	}
}

func (p *Parser) parseNamespace() Node {
	start := p.advance().Rg // 'namespace'
	name, _, _ := p.expectIdent()
	for p.atOp(".") {
		p.advance()
		part, _, _ := p.expectIdent()
		name += "." + part
	}
	if _, err := p.expectOp("{"); err != nil {
		p.recover()
		return p.missing(start, err)
	}
	var decls []Node
	for !p.atOp("}") && p.cur().Type != TokenEOF {
		decls = append(decls, p.parseTopLevel())
	}
	end := p.cur().Rg
	p.expectOp("}")
	return &NamespaceNode{Rg: NewRange(start.Start, end.End), Name: name, Decls: decls}
}

func (p *Parser) parseUsing() Node {
	start := p.advance().Rg // 'using'
	if p.cur().Type == TokenIdent {
		name, _, _ := p.expectIdent()
		for p.atOp(".") {
			p.advance()
			part, _, _ := p.expectIdent()
			name += "." + part
		}
		end, _ := p.expectOp(";")
		return &UsingNode{Rg: NewRange(start.Start, end.Rg.End), Namespace: name}
	}
	if _, err := p.expectOp("("); err != nil {
		p.recover()
		return p.missing(start, err)
	}
	decl := p.parseDeclStatement(false)
	p.expectOp(")")
	body := p.parseStatement()
	return &UsingNode{Rg: NewRange(start.Start, body.Range().End), Decl: decl, Body: body}
}

// ---- Declarations ----

func (p *Parser) parseParamList() []Param {
	p.expectOp("(")
	var params []Param
	for !p.atOp(")") && p.cur().Type != TokenEOF {
		var param Param
		if p.atKeyword("params") {
			p.advance()
			param.IsParams = true
		}
		if p.atKeyword("out") {
			p.advance()
			param.IsOut = true
		}
		if p.atKeyword("ref") {
			p.advance()
			param.IsRef = true
		}
		param.TypeName = p.parseTypeName()
		param.Name, _, _ = p.expectIdent()
		if p.atOp("=") {
			p.advance()
			param.Default = p.parseExpr()
		}
		params = append(params, param)
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	p.expectOp(")")
	return params
}

func (p *Parser) parseTypeName() string {
	if p.cur().Type != TokenIdent && p.cur().Type != TokenKeyword {
		err := ParseError{Message: fmt.Sprintf("expected type name, found `%s`", p.cur().Text), Span: p.span()}
		p.errs = append(p.errs, err)
		return ""
	}
	name := p.advance().Text
	for p.atOp("<") {
		p.advance()
		name += "<" + p.parseTypeName()
		for p.atOp(",") {
			p.advance()
			name += "," + p.parseTypeName()
		}
		p.lex.Split()
		p.expectOp(">")
		name += ">"
	}
	for p.atOp("[") {
		save := p.lex.Save()
		p.advance()
		if !p.atOp("]") {
			// a sized `new T[n]`: leave the `[` for the caller
			p.lex.Restore(save)
			break
		}
		p.advance()
		name += "[]"
	}
	for p.atOp("*") {
		p.advance()
		name += "*"
	}
	if p.atOp("?") {
		p.advance()
		name += "?"
	}
	return name
}

// parseFuncDecl parses a function declaration, with or without the
// optional `function` keyword: `function int fact(int n){...}` and the
// bare `int fact(int n){...}` C-family shape are both accepted, the
// latter routed here by atFuncDeclStart's lookahead.
func (p *Parser) parseFuncDecl() Node {
	start := p.cur().Rg
	if p.atKeyword("function") {
		start = p.advance().Rg
	}
	retType := p.parseTypeName()
	name, _, _ := p.expectIdent()
	params := p.parseParamList()
	body := p.parseBlock()
	return &FuncDeclNode{
		Rg: NewRange(start.Start, body.Range().End), Name: name,
		ReturnType: retType, Params: params, Body: body,
	}
}

func (p *Parser) parseTypeDecl() Node {
	kw := p.cur()
	isClass := kw.Text == "class"
	start := p.advance().Rg // 'class' | 'struct'
	name, _, _ := p.expectIdent()
	baseName := ""
	if p.atOp(":") {
		p.advance()
		baseName = p.parseTypeName()
	}
	p.expectOp("{")
	var fields []FieldDecl
	var methods []MethodDecl
	for !p.atOp("}") && p.cur().Type != TokenEOF {
		typeName := p.parseTypeName()
		memberName := typeName // constructor: `Name(params) { ... }` has no return type
		if !(typeName == name && p.atOp("(")) {
			memberName, _, _ = p.expectIdent()
		}
		if p.atOp("(") {
			params := p.parseParamList()
			body := p.parseBlock()
			methods = append(methods, MethodDecl{FuncDeclNode: &FuncDeclNode{
				Rg: body.Range(), Name: memberName, ReturnType: typeName, Params: params, Body: body,
			}, IsConstructor: memberName == name})
			continue
		}
		var def Node
		if p.atOp("=") {
			p.advance()
			def = p.parseExpr()
		}
		p.expectOp(";")
		fields = append(fields, FieldDecl{Name: memberName, TypeName: typeName, Default: def})
	}
	end := p.cur().Rg
	p.expectOp("}")
	return &TypeDeclNode{Rg: NewRange(start.Start, end.End), IsClass: isClass, Name: name, BaseName: baseName, Fields: fields, Methods: methods}
}

func (p *Parser) parseEnumDecl() Node {
	start := p.advance().Rg // 'enum'
	name, _, _ := p.expectIdent()
	underlying := "int"
	if p.atOp(":") {
		p.advance()
		underlying = p.parseTypeName()
	}
	p.expectOp("{")
	var members []EnumMember
	for !p.atOp("}") && p.cur().Type != TokenEOF {
		memberName, _, _ := p.expectIdent()
		var val Node
		if p.atOp("=") {
			p.advance()
			val = p.parseExpr()
		}
		members = append(members, EnumMember{Name: memberName, Value: val})
		if p.atOp(",") {
			p.advance()
			continue
		}
		break
	}
	end := p.cur().Rg
	p.expectOp("}")
	return &EnumDeclNode{Rg: NewRange(start.Start, end.End), Name: name, Underlying: underlying, Members: members}
}

func (p *Parser) parseInterfaceDecl() Node {
	start := p.advance().Rg // 'interface'
	name, _, _ := p.expectIdent()
	p.expectOp("{")
	depth := 1
	for depth > 0 && p.cur().Type != TokenEOF {
		if p.atOp("{") {
			depth++
		} else if p.atOp("}") {
			depth--
			if depth == 0 {
				break
			}
		}
		p.advance()
	}
	end := p.cur().Rg
	p.expectOp("}")
	return &InterfaceDeclNode{Rg: NewRange(start.Start, end.End), Name: name}
}
