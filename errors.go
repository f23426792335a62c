package ember

import "fmt"

// LexicalError is raised for a malformed token: unterminated string/char,
// bad escape, or an unrecognized character under the cursor.
type LexicalError struct {
	Message string
	Span    Span
}

func (e LexicalError) Error() string { return fmt.Sprintf("%s @ %s", e.Message, e.Span) }

// ParseError is raised for a syntactic violation. The parser records it and
// synchronizes to the next statement boundary rather than aborting.
type ParseError struct {
	Message string
	Span    Span
}

func (e ParseError) Error() string { return fmt.Sprintf("%s @ %s", e.Message, e.Span) }

// TypeError is raised when an assignment or call cannot coerce a value to
// the expected tag.
type TypeError struct {
	Message string
	Span    Span
}

func (e TypeError) Error() string { return fmt.Sprintf("%s @ %s", e.Message, e.Span) }

// UnresolvedName is raised for an unknown variable, function, or label.
type UnresolvedName struct {
	Name string
	Span Span
}

func (e UnresolvedName) Error() string {
	return fmt.Sprintf("unresolved name `%s` @ %s", e.Name, e.Span)
}

// ArithmeticError is raised for integer overflow in a checked context, or
// integer divide-by-zero.
type ArithmeticError struct {
	Message string
	Span    Span
}

func (e ArithmeticError) Error() string { return fmt.Sprintf("%s @ %s", e.Message, e.Span) }

// IndexOutOfRange is raised when an array index falls outside [0, length).
type IndexOutOfRange struct {
	Index  int
	Length int
	Span   Span
}

func (e IndexOutOfRange) Error() string {
	return fmt.Sprintf("index %d out of range [0, %d) @ %s", e.Index, e.Length, e.Span)
}

// InvalidMemory is raised for stack/heap bounds violations, null
// dereferences, double frees, or pointers into dead memory.
type InvalidMemory struct {
	Message string
	Span    Span
}

func (e InvalidMemory) Error() string { return fmt.Sprintf("%s @ %s", e.Message, e.Span) }

// StackOverflow is raised when the scope cap, call-depth cap, or stack
// region is exhausted.
type StackOverflow struct {
	Message string
}

func (e StackOverflow) Error() string { return e.Message }

// OutOfMemory is raised when the heap region is exhausted or a declaration
// cap (scopes, variables) is exceeded.
type OutOfMemory struct {
	Message string
}

func (e OutOfMemory) Error() string { return e.Message }

// Cancelled is raised when the cancellation context is signaled.
type Cancelled struct{}

func (e Cancelled) Error() string { return "cancelled" }

// ThrownError wraps a user `throw expr;` value. Its Error() is the message
// produced by converting the thrown value to a string; a `catch` clause
// binds this message into the catch variable as a String.
type ThrownError struct {
	Message string
	Span    Span
}

func (e ThrownError) Error() string { return e.Message }
