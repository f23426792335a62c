package ember

// Pattern is the closed set of pattern forms matched against a Value
// during `is`/`switch` evaluation. Like Node, each
// variant implements Accept against a narrow PatternVisitor rather than
// exposing its fields to a type switch in the evaluator, mirroring the
// node/visitor split used for statements and expressions.
type Pattern interface {
	Range() Range
	String() string
	Accept(PatternVisitor) (bool, error)
}

// PatternVisitor matches a Value against a Pattern, optionally binding
// names into the current scope. Returning (false, nil) means "no match,
// no error"; (false, err) is reserved for genuine evaluation failures
// (e.g. a `when` guard expression that throws).
type PatternVisitor interface {
	VisitDiscardPattern(*DiscardPattern) (bool, error)
	VisitNullPattern(*NullPattern) (bool, error)
	VisitTypePattern(*TypePattern) (bool, error)
	VisitBindingPattern(*BindingPattern) (bool, error)
	VisitConstPattern(*ConstPattern) (bool, error)
	VisitRelationalPattern(*RelationalPattern) (bool, error)
	VisitLogicalPattern(*LogicalPattern) (bool, error)
	VisitNotPattern(*NotPattern) (bool, error)
	VisitGuardPattern(*GuardPattern) (bool, error)
}

// DiscardPattern is `_`: matches anything, binds nothing.
type DiscardPattern struct{ Rg Range }

func (p *DiscardPattern) Range() Range  { return p.Rg }
func (p *DiscardPattern) String() string { return "_" }
func (p *DiscardPattern) Accept(v PatternVisitor) (bool, error) { return v.VisitDiscardPattern(p) }

// NullPattern is `null`: matches only a null reference.
type NullPattern struct{ Rg Range }

func (p *NullPattern) Range() Range   { return p.Rg }
func (p *NullPattern) String() string { return "null" }
func (p *NullPattern) Accept(v PatternVisitor) (bool, error) { return v.VisitNullPattern(p) }

// TypePattern is `T`: matches a value whose declared/runtime type is T
// (or a subtype, for class hierarchies), without binding.
type TypePattern struct {
	Rg       Range
	TypeName string
}

func (p *TypePattern) Range() Range   { return p.Rg }
func (p *TypePattern) String() string { return p.TypeName }
func (p *TypePattern) Accept(v PatternVisitor) (bool, error) { return v.VisitTypePattern(p) }

// BindingPattern is `T x`: matches like TypePattern and binds the match
// to a new variable named Name in the current scope.
type BindingPattern struct {
	Rg       Range
	TypeName string
	Name     string
}

func (p *BindingPattern) Range() Range   { return p.Rg }
func (p *BindingPattern) String() string { return p.TypeName + " " + p.Name }
func (p *BindingPattern) Accept(v PatternVisitor) (bool, error) { return v.VisitBindingPattern(p) }

// ConstPattern matches a value equal to a constant expression (typically
// a literal node, but any constant-foldable expression is accepted).
type ConstPattern struct {
	Rg   Range
	Expr Node
}

func (p *ConstPattern) Range() Range   { return p.Rg }
func (p *ConstPattern) String() string { return p.Expr.String() }
func (p *ConstPattern) Accept(v PatternVisitor) (bool, error) { return v.VisitConstPattern(p) }

// RelationalOp is the comparison operator of a RelationalPattern.
type RelationalOp int

const (
	RelLt RelationalOp = iota
	RelLe
	RelGt
	RelGe
)

func (op RelationalOp) String() string {
	switch op {
	case RelLt:
		return "<"
	case RelLe:
		return "<="
	case RelGt:
		return ">"
	case RelGe:
		return ">="
	default:
		return "?"
	}
}

// RelationalPattern is `op C`: matches a value satisfying `value op C`.
type RelationalPattern struct {
	Rg   Range
	Op   RelationalOp
	Expr Node
}

func (p *RelationalPattern) Range() Range   { return p.Rg }
func (p *RelationalPattern) String() string { return p.Op.String() + " " + p.Expr.String() }
func (p *RelationalPattern) Accept(v PatternVisitor) (bool, error) {
	return v.VisitRelationalPattern(p)
}

// LogicalOp combines two subpatterns.
type LogicalOp int

const (
	LogicalAnd LogicalOp = iota
	LogicalOr
)

// LogicalPattern is `A and B` / `A or B`.
type LogicalPattern struct {
	Rg          Range
	Op          LogicalOp
	Left, Right Pattern
}

func (p *LogicalPattern) Range() Range { return p.Rg }
func (p *LogicalPattern) String() string {
	sep := " and "
	if p.Op == LogicalOr {
		sep = " or "
	}
	return p.Left.String() + sep + p.Right.String()
}
func (p *LogicalPattern) Accept(v PatternVisitor) (bool, error) { return v.VisitLogicalPattern(p) }

// NotPattern is `not A`.
type NotPattern struct {
	Rg    Range
	Inner Pattern
}

func (p *NotPattern) Range() Range   { return p.Rg }
func (p *NotPattern) String() string { return "not " + p.Inner.String() }
func (p *NotPattern) Accept(v PatternVisitor) (bool, error) { return v.VisitNotPattern(p) }

// GuardPattern is `A when E`: A must match (and bind), then E must
// evaluate truthy with A's bindings visible.
type GuardPattern struct {
	Rg    Range
	Inner Pattern
	Guard Node
}

func (p *GuardPattern) Range() Range   { return p.Rg }
func (p *GuardPattern) String() string { return p.Inner.String() + " when " + p.Guard.String() }
func (p *GuardPattern) Accept(v PatternVisitor) (bool, error) { return v.VisitGuardPattern(p) }
