package ember

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Ast is the module's single public entry point: a fresh memory image and
// execution context bound to an optional cancellation context, exposing
// parse-then-evaluate, native registration, and cancellation as the whole
// surface the CLI driver (and any other host) needs. It is named Ast
// rather than something more generic like Interpreter because it treats
// the parsed tree and the thing that walks it as one object.
type Ast struct {
	Config *Config
	Ctx    *ExecutionContext
	cancel context.CancelFunc
}

// NewAst creates an evaluator with a fresh memory image sized from cfg (or
// the defaults — 4 KiB total, 1 KiB stack — when cfg is nil). ctx, when
// nil, defaults to context.Background(); pass a context.WithTimeout or
// context.WithCancel result to drive cooperative cancellation.
func NewAst(ctx context.Context, cfg *Config) *Ast {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg == nil {
		cfg = NewConfig()
	}
	return &Ast{
		Config: cfg,
		Ctx:    NewExecutionContext(ctx, cfg),
	}
}

// NewAstWithTimeout is a convenience constructor for the common
// run-with-a-deadline case (e.g. a runaway `while(true){}` that should
// terminate with Cancelled after some duration): it wraps
// context.WithTimeout so a host doesn't need to import "context" itself.
// The returned cancel func should be deferred by the caller to release
// the timer early when Interpret returns before the deadline.
func NewAstWithTimeout(d time.Duration, cfg *Config) (*Ast, context.CancelFunc) {
	c, cancel := context.WithTimeout(context.Background(), d)
	a := NewAst(c, cfg)
	a.cancel = cancel
	return a, cancel
}

// Cancel signals this Ast's execution context, the moment-to-moment
// equivalent of a cancellation token being flipped. It is safe to call
// before, during, or after Interpret; Interpret surfaces a Cancelled error
// the next time the evaluator checks in (every statement boundary and
// loop-iteration top).
func (a *Ast) Cancel() {
	if a.cancel != nil {
		a.cancel()
	}
}

// ParseResult holds a parsed program together with any diagnostics the
// parser recovered from (parsing does not abort on the first ParseError).
type ParseResult struct {
	Program     *ProgramNode
	Diagnostics []error
}

// Parse lexes and parses code without evaluating it, exposing the parser's
// recovered diagnostics for a caller (the CLI's `parse` subcommand, or a
// test) that wants the tree without running it.
func (a *Ast) Parse(code string) ParseResult {
	p := NewParser(code, "")
	prog := p.ParseProgram()
	return ParseResult{Program: prog, Diagnostics: p.Errors()}
}

// Interpret parses and executes code. When consoleOutput is true, print,
// WriteLine, and Write (each overloaded for int, double, string) are bound
// to the host's standard output via stdout; when printTree is true the
// parsed tree is rendered with PrintTree before evaluation begins. A
// fatal evaluation error is returned as-is: on an uncaught exception or a
// cancellation, the interpreter terminates and surfaces the error upward.
// Parse diagnostics are only surfaced (as a joined ParseError) when
// evaluation itself did not already fail.
func (a *Ast) Interpret(code string, consoleOutput bool, printTree bool, stdout func(string)) error {
	if stdout == nil {
		stdout = func(string) {}
	}
	if consoleOutput {
		RegisterStdlib(a.Ctx, stdout)
	} else {
		RegisterStdlib(a.Ctx, func(string) {})
	}

	res := a.Parse(code)
	if printTree {
		stdout(PrintTree(res.Program))
	}

	ev := NewEvaluator(a.Ctx)
	if err := ev.Run(res.Program); err != nil {
		return err
	}
	if len(res.Diagnostics) > 0 {
		msgs := make([]string, len(res.Diagnostics))
		for i, d := range res.Diagnostics {
			msgs[i] = d.Error()
		}
		return ParseError{Message: strings.Join(msgs, "; ")}
	}
	return nil
}

// RegisterNative appends callable to the overload set for name. It is the
// host-facing counterpart of RegisterStdlib: console I/O sinks, a
// `GetTest()` host object, or any other external collaborator is wired in
// through this one call, keeping the function registry's
// append-only-during-execution contract in one place.
func (a *Ast) RegisterNative(name string, fn NativeFunc, params []Param, returnType string) {
	a.Ctx.DeclareFunc(&Function{Name: name, Params: params, ReturnType: returnType, Native: fn})
}

// PrintTree renders a parsed program as an indented listing. It is a
// second, visitor-free walker, kept deliberately independent of Visitor
// (the evaluator's one dispatch surface) rather than grown as methods on
// the node types themselves.
func PrintTree(prog *ProgramNode) string {
	var b strings.Builder
	b.WriteString("Program\n")
	for _, s := range prog.Stmts {
		printNode(&b, s, 1)
	}
	return b.String()
}

func printNode(b *strings.Builder, n Node, depth int) {
	if n == nil {
		return
	}
	fmt.Fprintf(b, "%s%s\n", strings.Repeat("  ", depth), describeNode(n))
	for _, child := range nodeChildren(n) {
		printNode(b, child, depth+1)
	}
}

// describeNode is a one-line label for n: its Go type name (stripped of
// the package qualifier and "Node" suffix) plus, for leaf literals and
// identifiers, the node's own String().
func describeNode(n Node) string {
	name := fmt.Sprintf("%T", n)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "Node")
	switch n.(type) {
	case *IntLitNode, *FloatLitNode, *BoolLitNode, *CharLitNode, *StringLitNode,
		*IdentNode, *NullLitNode, *LabelNode:
		return fmt.Sprintf("%s(%s)", name, n.String())
	default:
		return name
	}
}

// nodeChildren returns n's direct structural children, for PrintTree's
// walk. Only container/composite node kinds are expanded; leaf nodes
// (literals, identifiers) return nil. This intentionally covers the node
// kinds most useful to inspect in a tree dump rather than every field
// reflectively.
func nodeChildren(n Node) []Node {
	nonNil := func(ns ...Node) []Node {
		var out []Node
		for _, c := range ns {
			if c != nil {
				out = append(out, c)
			}
		}
		return out
	}
	switch t := n.(type) {
	case *ProgramNode:
		return t.Stmts
	case *BlockNode:
		return t.Stmts
	case *ExprStmtNode:
		return nonNil(t.Expr)
	case *DeclNode:
		var kids []Node
		for _, init := range t.Inits {
			if init != nil {
				kids = append(kids, init)
			}
		}
		return kids
	case *IfNode:
		return nonNil(t.Cond, t.Then, t.Else)
	case *WhileNode:
		return nonNil(t.Cond, t.Body)
	case *DoWhileNode:
		return nonNil(t.Body, t.Cond)
	case *ForNode:
		return nonNil(t.Init, t.Cond, t.Post, t.Body)
	case *ForeachNode:
		return nonNil(t.Collection, t.Body)
	case *ReturnNode:
		return nonNil(t.Value)
	case *ThrowNode:
		return nonNil(t.Expr)
	case *BinaryExprNode:
		return nonNil(t.Left, t.Right)
	case *UnaryExprNode:
		return nonNil(t.Operand)
	case *AssignExprNode:
		return nonNil(t.LHS, t.Value)
	case *TernaryExprNode:
		return nonNil(t.Cond, t.Then, t.Else)
	case *CallExprNode:
		kids := []Node{t.Callee}
		kids = append(kids, t.Args...)
		return kids
	case *IndexExprNode:
		return nonNil(t.Base, t.Index, t.SliceStart, t.SliceEnd)
	case *MemberExprNode:
		return nonNil(t.Base)
	case *NewArrayNode:
		return t.Dims
	case *NewObjectNode:
		return t.Args
	case *TupleLitNode:
		return t.Items
	case *DictLitNode:
		var kids []Node
		for i := range t.Keys {
			kids = append(kids, t.Keys[i], t.Vals[i])
		}
		return kids
	case *LambdaExprNode:
		return nonNil(t.Body)
	case *CastExprNode:
		return nonNil(t.Operand)
	case *IsExprNode:
		return nonNil(t.Operand)
	case *SwitchExprNode:
		kids := []Node{t.Operand}
		for _, arm := range t.Arms {
			kids = append(kids, nonNil(arm.Guard, arm.Result)...)
		}
		return kids
	case *FuncDeclNode:
		return nonNil(t.Body)
	case *TryNode:
		kids := nonNil(t.Body, t.CatchBody, t.FinallyBody)
		return kids
	case *SwitchStmtNode:
		kids := []Node{t.Operand}
		for _, c := range t.Cases {
			kids = append(kids, nonNil(c.Guard)...)
			kids = append(kids, c.Body...)
		}
		return kids
	case *LabelNode:
		return nonNil(t.Stmt)
	case *UsingNode:
		return nonNil(t.Decl, t.Body)
	case *NamespaceNode:
		return t.Decls
	default:
		return nil
	}
}
