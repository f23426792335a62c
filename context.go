package ember

import (
	"context"
	"fmt"
)

// ExecutionContext is the evaluator's mutable run state: the memory
// image, the scope stack, the function and type registries, label targets
// for goto resolution, and the call-depth counter. It is threaded through
// every Visit call the way a dispatch loop threads its state through
// instruction handling, generalized here to a tree-walking visitor.
type ExecutionContext struct {
	Mem    *Memory
	Config *Config

	scopes    []*Scope
	funcs     *FunctionTable
	types     map[string]*TypeDeclNode
	enums     map[string]*EnumDeclNode
	labels    map[string]Node // current function body's label -> labeled statement
	callDepth int

	MaxCallDepth int
	MaxScopes    int
	MaxVariables int

	ctx context.Context

	Stdout func(string)

	// dicts and closures back TagDictionary values and lambda/function
	// values: both need content richer than a flat byte layout (a hash
	// table, a captured-scope snapshot), so each is kept in a Go-level
	// side table keyed by the heap address of a zero-payload Memory block
	// allocated purely to give the value a GC-participating address. The
	// spec leaves dictionary/closure internal representation unspecified
	// (open question, recorded in DESIGN.md); this is the resolution.
	dicts    map[int]*orderedDict
	closures map[int]*closureVal
	nextSynthetic int
}

type orderedDict struct {
	keys []Value
	vals []Value
}

type closureVal struct {
	Lambda  *LambdaExprNode
	Captured []*Scope
}

// NewExecutionContext builds a fresh context wired to cfg's limits and a
// cancellation context, following Go's cooperative-cancellation
// convention: ctx is an idiomatic substitute for a cancellation-token
// parameter, threaded through blocking/long-running operations, and a
// `while(true){}` loop body is exactly that kind of operation here.
func NewExecutionContext(ctx context.Context, cfg *Config) *ExecutionContext {
	if cfg == nil {
		cfg = NewConfig()
	}
	ec := &ExecutionContext{
		Mem:          NewMemoryFromConfig(cfg),
		Config:       cfg,
		funcs:        newFunctionTable(),
		types:        make(map[string]*TypeDeclNode),
		enums:        make(map[string]*EnumDeclNode),
		labels:       make(map[string]Node),
		MaxCallDepth: cfg.GetInt("context.max_call_depth"),
		MaxScopes:    cfg.GetInt("context.max_scopes"),
		MaxVariables: cfg.GetInt("context.max_variables"),
		ctx:          ctx,
		Stdout:       func(string) {},
		dicts:        make(map[int]*orderedDict),
		closures:     make(map[int]*closureVal),
	}
	ec.PushScope()
	return ec
}

// Check returns Cancelled if the wrapping context.Context has been
// cancelled. The evaluator's eval helper polls it before every node visit,
// so a cancelled run stops at the next node it reaches.
func (ec *ExecutionContext) Check() error {
	select {
	case <-ec.ctx.Done():
		return Cancelled{}
	default:
		return nil
	}
}

// ---- Scope stack ----

func (ec *ExecutionContext) PushScope() *Scope {
	s := newScope(ec.Mem.AllocPointer())
	ec.scopes = append(ec.scopes, s)
	return s
}

// PopScope pops the top scope, runs a mark-sweep collection seeded by
// every remaining live scope's reachable heap addresses, and restores the
// stack bump pointer to the popped scope's entry checkpoint. Collection
// happens at every scope exit rather than being incremental or triggered
// by allocation pressure.
func (ec *ExecutionContext) PopScope() {
	n := len(ec.scopes)
	popped := ec.scopes[n-1]
	ec.scopes = ec.scopes[:n-1]

	var live []int
	for _, s := range ec.scopes {
		live = append(live, s.liveAddrs(ec.Mem)...)
	}
	ec.Mem.Sweep(live)
	ec.Mem.SetAllocPointer(popped.checkpoint)
}

func (ec *ExecutionContext) CurrentScope() *Scope { return ec.scopes[len(ec.scopes)-1] }

// Resolve walks the scope stack innermost-first, matching lexical
// shadowing rules.
func (ec *ExecutionContext) Resolve(name string) (Variable, bool) {
	for i := len(ec.scopes) - 1; i >= 0; i-- {
		if v, ok := ec.scopes[i].lookup(name); ok {
			return v, true
		}
	}
	return Variable{}, false
}

func (ec *ExecutionContext) Declare(name string, v Variable) error {
	totalVars := 0
	for _, s := range ec.scopes {
		totalVars += len(s.vars)
	}
	if totalVars >= ec.MaxVariables {
		return OutOfMemory{Message: "too many live variables"}
	}
	ec.CurrentScope().declare(name, v)
	return nil
}

// ---- Calls ----

func (ec *ExecutionContext) EnterCall() error {
	ec.callDepth++
	if ec.callDepth > ec.MaxCallDepth {
		ec.callDepth--
		return StackOverflow{Message: fmt.Sprintf("call depth exceeded %d", ec.MaxCallDepth)}
	}
	if len(ec.scopes) >= ec.MaxScopes {
		ec.callDepth--
		return StackOverflow{Message: fmt.Sprintf("scope depth exceeded %d", ec.MaxScopes)}
	}
	return nil
}

func (ec *ExecutionContext) ExitCall() { ec.callDepth-- }

// ---- Functions, types, enums ----

func (ec *ExecutionContext) DeclareFunc(f *Function) { ec.funcs.declare(f) }

func (ec *ExecutionContext) Overloads(name string) []*Function { return ec.funcs.overloads(name) }

func (ec *ExecutionContext) DeclareType(t *TypeDeclNode) { ec.types[t.Name] = t }

func (ec *ExecutionContext) LookupType(name string) (*TypeDeclNode, bool) {
	t, ok := ec.types[name]
	return t, ok
}

func (ec *ExecutionContext) DeclareEnum(e *EnumDeclNode) { ec.enums[e.Name] = e }

func (ec *ExecutionContext) LookupEnum(name string) (*EnumDeclNode, bool) {
	e, ok := ec.enums[name]
	return e, ok
}

// ---- Labels (goto targets) ----

func (ec *ExecutionContext) SetLabels(m map[string]Node) { ec.labels = m }

func (ec *ExecutionContext) LookupLabel(name string) (Node, bool) {
	n, ok := ec.labels[name]
	return n, ok
}

// ---- Dictionaries and closures ----

// newSyntheticAddr allocates a zero-length heap block solely to obtain an
// address that Sweep can mark live/dead like any other reference-kind
// value; the real payload lives in dicts/closures.
func (ec *ExecutionContext) newSyntheticAddr(tag ValueTag) (int, error) {
	return ec.Mem.Malloc(0, tag)
}

func (ec *ExecutionContext) NewDict() (Value, error) {
	addr, err := ec.newSyntheticAddr(TagDictionary)
	if err != nil {
		return Value{}, err
	}
	ec.dicts[addr] = &orderedDict{}
	return Value{Tag: TagDictionary, Addr: addr}, nil
}

func (ec *ExecutionContext) Dict(addr int) *orderedDict { return ec.dicts[addr] }

func (ec *ExecutionContext) NewClosure(lambda *LambdaExprNode) (Value, error) {
	addr, err := ec.newSyntheticAddr(TagObject)
	if err != nil {
		return Value{}, err
	}
	captured := make([]*Scope, len(ec.scopes))
	copy(captured, ec.scopes)
	ec.closures[addr] = &closureVal{Lambda: lambda, Captured: captured}
	return Value{Tag: TagObject, Addr: addr, TypeName: "Func"}, nil
}

func (ec *ExecutionContext) Closure(addr int) *closureVal { return ec.closures[addr] }

func (d *orderedDict) get(key Value, eq func(a, b Value) bool) (Value, bool) {
	for i, k := range d.keys {
		if eq(k, key) {
			return d.vals[i], true
		}
	}
	return Value{}, false
}

func (d *orderedDict) set(key, val Value, eq func(a, b Value) bool) {
	for i, k := range d.keys {
		if eq(k, key) {
			d.vals[i] = val
			return
		}
	}
	d.keys = append(d.keys, key)
	d.vals = append(d.vals, val)
}
