package ember

import "fmt"

// TokenType classifies a lexeme. Keeping it a small closed enum (rather than
// a string) lets the parser switch on token kind cheaply, the same way
// operators are classified by small enums in ast.go.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenKeyword
	TokenNumber
	TokenString
	TokenInterpString
	TokenChar
	TokenOperator
	TokenPunct
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "eof"
	case TokenIdent:
		return "identifier"
	case TokenKeyword:
		return "keyword"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenInterpString:
		return "interpolated-string"
	case TokenChar:
		return "char"
	case TokenOperator:
		return "operator"
	case TokenPunct:
		return "punctuator"
	default:
		return "unknown"
	}
}

// Token is a single classified lexeme with its literal text preserved and
// the Range it spans in the source.
type Token struct {
	Type TokenType
	Text string
	Rg   Range

	// Verbatim marks a @"..." string whose "" escapes denote one quote
	// rather than C-style backslash escapes.
	Verbatim bool
	// NumSuffix carries a numeric literal's type suffix, if any
	// ("f","d","m","u","l","ul","lu" - case preserved from source).
	NumSuffix string
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Type, t.Text, t.Rg)
}

var keywords = map[string]bool{
	"var": true, "const": true, "if": true, "else": true, "while": true,
	"do": true, "for": true, "foreach": true, "in": true, "switch": true,
	"case": true, "default": true, "when": true, "try": true, "catch": true,
	"finally": true, "throw": true, "return": true, "break": true,
	"continue": true, "goto": true, "using": true, "namespace": true,
	"class": true, "struct": true, "interface": true, "enum": true,
	"new": true, "this": true, "base": true, "null": true, "true": true,
	"false": true, "is": true, "as": true, "and": true, "or": true,
	"not": true, "void": true, "int": true, "uint": true, "long": true,
	"ulong": true, "short": true, "ushort": true, "byte": true, "sbyte": true,
	"float": true, "double": true, "decimal": true, "char": true,
	"bool": true, "string": true, "object": true, "params": true,
	"out": true, "ref": true, "static": true, "public": true,
	"private": true, "protected": true, "async": true, "await": true,
	"lock": true, "yield": true, "function": true,
}

func isKeyword(s string) bool { return keywords[s] }
