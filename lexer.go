package ember

import (
	"fmt"
	"strings"
)

// Lexer produces a single-lookahead stream of classified tokens with
// literal text preserved. Its cursor/line/column bookkeeping and
// save/restore pair operate over a dedicated token stream rather than the
// parser itself scanning runes.
type Lexer struct {
	input  []rune
	file   string
	cursor int
	line   int
	column int

	cur Token

	// pendingAfterSplit holds the remainder of a compound operator split
	// by Split() until the next advance() call surfaces it as a token.
	pendingAfterSplit string
}

func NewLexer(src, file string) *Lexer {
	l := &Lexer{input: []rune(src), file: file}
	l.advance()
	return l
}

func (l *Lexer) Location() Location {
	return Location{Line: int32(l.line + 1), Column: int32(l.column + 1), Cursor: l.cursor, File: l.file}
}

func (l *Lexer) peekRune() rune {
	if l.cursor >= len(l.input) {
		return eof
	}
	return l.input[l.cursor]
}

func (l *Lexer) peekRuneAt(off int) rune {
	if l.cursor+off >= len(l.input) {
		return eof
	}
	return l.input[l.cursor+off]
}

func (l *Lexer) advanceRune() rune {
	c := l.peekRune()
	if c == eof {
		return eof
	}
	l.cursor++
	if c == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
	return c
}

// Cur returns the current (already-lexed) token.
func (l *Lexer) Cur() Token { return l.cur }

// Next advances the lexer and returns the newly current token.
func (l *Lexer) Next() (Token, error) {
	if err := l.advance(); err != nil {
		return Token{}, err
	}
	return l.cur, nil
}

// LexerState is a saved lexer position a caller can rewind to.
type LexerState struct {
	cursor, line, column int
	cur                  Token
}

func (l *Lexer) Save() LexerState {
	return LexerState{cursor: l.cursor, line: l.line, column: l.column, cur: l.cur}
}

func (l *Lexer) Restore(s LexerState) {
	l.cursor, l.line, l.column, l.cur = s.cursor, s.line, s.column, s.cur
}

// Split breaks a compound operator token like ">>" or ">>>" into its first
// rune, which becomes the current token; the remainder becomes the next
// token the lexer yields. This resolves
// generic-closer ambiguity (`List<List<int>>`) without a distinct
// tokenization mode.
func (l *Lexer) Split() {
	if len(l.cur.Text) <= 1 {
		return
	}
	first := l.cur.Text[:1]
	rest := l.cur.Text[1:]
	l.cur = Token{Type: TokenOperator, Text: first, Rg: NewRange(l.cur.Rg.Start, l.cur.Rg.Start+1)}
	l.pendingAfterSplit = rest
}

func (l *Lexer) advance() error {
	if l.pendingAfterSplit != "" {
		start := l.cursor - len(l.pendingAfterSplit)
		l.cur = Token{Type: TokenOperator, Text: l.pendingAfterSplit, Rg: NewRange(start, l.cursor)}
		l.pendingAfterSplit = ""
		return nil
	}

	l.skipTrivia()
	start := l.cursor
	startLoc := l.Location()

	c := l.peekRune()
	if c == eof {
		l.cur = Token{Type: TokenEOF, Rg: NewRange(start, start)}
		return nil
	}

	switch {
	case isIdentStart(c):
		return l.lexIdent(start)
	case isDigit(c):
		return l.lexNumber(start)
	case c == '"':
		return l.lexString(start, false, false)
	case c == '\'':
		return l.lexChar(start)
	case c == '@' && l.peekRuneAt(1) == '"':
		l.advanceRune()
		return l.lexString(start, true, false)
	case c == '@' && l.peekRuneAt(1) == '$' && l.peekRuneAt(2) == '"':
		l.advanceRune()
		l.advanceRune()
		return l.lexString(start, true, true)
	case c == '$' && l.peekRuneAt(1) == '@' && l.peekRuneAt(2) == '"':
		l.advanceRune()
		l.advanceRune()
		return l.lexString(start, true, true)
	case c == '$' && l.peekRuneAt(1) == '"':
		l.advanceRune()
		return l.lexString(start, false, true)
	default:
		return l.lexOperator(start, startLoc)
	}
}

func (l *Lexer) skipTrivia() {
	for {
		c := l.peekRune()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advanceRune()
		case c == '/' && l.peekRuneAt(1) == '/':
			for l.peekRune() != '\n' && l.peekRune() != eof {
				l.advanceRune()
			}
		case c == '/' && l.peekRuneAt(1) == '*':
			l.advanceRune()
			l.advanceRune()
			for !(l.peekRune() == '*' && l.peekRuneAt(1) == '/') && l.peekRune() != eof {
				l.advanceRune()
			}
			l.advanceRune()
			l.advanceRune()
		case c == '#':
			for l.peekRune() != '\n' && l.peekRune() != eof {
				l.advanceRune()
			}
		default:
			return
		}
	}
}

func isIdentStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c rune) bool { return isIdentStart(c) || isDigit(c) }

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func (l *Lexer) lexIdent(start int) error {
	for isIdentCont(l.peekRune()) {
		l.advanceRune()
	}
	text := string(l.input[start:l.cursor])
	typ := TokenIdent
	if isKeyword(text) {
		typ = TokenKeyword
	}
	l.cur = Token{Type: typ, Text: text, Rg: NewRange(start, l.cursor)}
	return nil
}

func (l *Lexer) lexNumber(start int) error {
	if l.peekRune() == '0' && (l.peekRuneAt(1) == 'x' || l.peekRuneAt(1) == 'X') {
		l.advanceRune()
		l.advanceRune()
		for isHexDigit(l.peekRune()) || l.peekRune() == '_' {
			l.advanceRune()
		}
	} else if l.peekRune() == '0' && (l.peekRuneAt(1) == 'b' || l.peekRuneAt(1) == 'B') {
		l.advanceRune()
		l.advanceRune()
		for l.peekRune() == '0' || l.peekRune() == '1' || l.peekRune() == '_' {
			l.advanceRune()
		}
	} else {
		for isDigit(l.peekRune()) || l.peekRune() == '_' {
			l.advanceRune()
		}
		if l.peekRune() == '.' && isDigit(l.peekRuneAt(1)) {
			l.advanceRune()
			for isDigit(l.peekRune()) || l.peekRune() == '_' {
				l.advanceRune()
			}
		}
		if l.peekRune() == 'e' || l.peekRune() == 'E' {
			save := l.cursor
			l.advanceRune()
			if l.peekRune() == '+' || l.peekRune() == '-' {
				l.advanceRune()
			}
			if isDigit(l.peekRune()) {
				for isDigit(l.peekRune()) {
					l.advanceRune()
				}
			} else {
				l.cursor = save
			}
		}
	}

	suffixStart := l.cursor
	for isSuffixRune(l.peekRune()) {
		l.advanceRune()
	}
	suffix := string(l.input[suffixStart:l.cursor])

	text := string(l.input[start:l.cursor])
	l.cur = Token{Type: TokenNumber, Text: text, Rg: NewRange(start, l.cursor), NumSuffix: suffix}
	return nil
}

func isHexDigit(c rune) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isSuffixRune(c rune) bool {
	switch c {
	case 'f', 'F', 'd', 'D', 'm', 'M', 'u', 'U', 'l', 'L':
		return true
	default:
		return false
	}
}

func (l *Lexer) lexChar(start int) error {
	l.advanceRune() // opening '
	var sb strings.Builder
	if l.peekRune() == '\\' {
		l.advanceRune()
		esc, err := l.readEscape()
		if err != nil {
			return err
		}
		sb.WriteRune(esc)
	} else {
		c := l.advanceRune()
		if c == eof {
			return LexicalError{Message: "unterminated char literal", Span: NewSpan(l.Location(), l.Location())}
		}
		sb.WriteRune(c)
	}
	if l.peekRune() != '\'' {
		return LexicalError{Message: "unterminated char literal", Span: NewSpan(l.Location(), l.Location())}
	}
	l.advanceRune()
	l.cur = Token{Type: TokenChar, Text: sb.String(), Rg: NewRange(start, l.cursor)}
	return nil
}

func (l *Lexer) lexString(start int, verbatim, interpolated bool) error {
	l.advanceRune() // opening quote
	var sb strings.Builder
	for {
		c := l.peekRune()
		if c == eof {
			return LexicalError{Message: "unterminated string literal", Span: NewSpan(l.Location(), l.Location())}
		}
		if c == '"' {
			if verbatim && l.peekRuneAt(1) == '"' {
				l.advanceRune()
				l.advanceRune()
				sb.WriteRune('"')
				continue
			}
			l.advanceRune()
			break
		}
		if !verbatim && c == '\\' {
			l.advanceRune()
			esc, err := l.readEscape()
			if err != nil {
				return err
			}
			sb.WriteRune(esc)
			continue
		}
		sb.WriteRune(l.advanceRune())
	}
	typ := TokenString
	if interpolated {
		typ = TokenInterpString
	}
	l.cur = Token{Type: typ, Text: sb.String(), Rg: NewRange(start, l.cursor), Verbatim: verbatim}
	return nil
}

func (l *Lexer) readEscape() (rune, error) {
	c := l.advanceRune()
	switch c {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case '0':
		return 0, nil
	case '\\':
		return '\\', nil
	case '\'':
		return '\'', nil
	case '"':
		return '"', nil
	case 'a':
		return '\a', nil
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case 'v':
		return '\v', nil
	default:
		return 0, LexicalError{
			Message: fmt.Sprintf("bad escape sequence `\\%c`", c),
			Span:    NewSpan(l.Location(), l.Location()),
		}
	}
}

// operatorTable is matched longest-first: every multi-rune operator must
// appear ahead of any of its own single-rune prefixes, or the shorter
// operator wins the match and the longer one can never be lexed (".."
// ahead of ".", for instance).
var operatorTable = []string{
	">>>=", "<<=", ">>=", "??=", "**", ">>>", "<<", "==", "!=", ">=", "<=",
	"&&", "||", "??", "=>", "++", "--", "+=", "-=", "*=", "/=", "%=", "&=",
	"|=", "^=", ">>", "..", "+", "-", "*", "/", "%", "!", "~", "&", "|", "^", "=",
	">", "<", "?", ".", ",", ":", ";", "(", ")", "{", "}", "[", "]",
}

func (l *Lexer) lexOperator(start int, startLoc Location) error {
	for _, op := range operatorTable {
		if l.matchLiteral(op) {
			for range op {
				l.advanceRune()
			}
			l.cur = Token{Type: TokenOperator, Text: op, Rg: NewRange(start, l.cursor)}
			return nil
		}
	}
	c := l.advanceRune()
	return LexicalError{
		Message: fmt.Sprintf("unrecognized character `%c`", c),
		Span:    NewSpan(startLoc, l.Location()),
	}
}

func (l *Lexer) matchLiteral(s string) bool {
	for i, want := range s {
		if l.peekRuneAt(i) != want {
			return false
		}
	}
	return true
}
