package ember

// Scope is a single lexical frame: a name table mapping declared
// identifiers to their Variable record, plus the stack checkpoint to
// restore on exit. Scopes nest through ExecutionContext's scope stack
// as a flat slice of frames rather than parent-pointer chaining.
type Scope struct {
	vars      map[string]Variable
	checkpoint int // Memory.AllocPointer() at scope entry
}

func newScope(checkpoint int) *Scope {
	return &Scope{vars: make(map[string]Variable), checkpoint: checkpoint}
}

func (s *Scope) declare(name string, v Variable) { s.vars[name] = v }

func (s *Scope) lookup(name string) (Variable, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// liveAddrs collects heap addresses reachable directly from this scope's
// reference-kind variables, feeding Memory.Sweep.
func (s *Scope) liveAddrs(mem *Memory) []int {
	var out []int
	for _, v := range s.vars {
		if v.Tag.IsReferenceKind() || v.Tag == TagIntPtr {
			if addr, err := mem.ReadRef(v.Address); err == nil && addr != NullAddr {
				out = append(out, addr)
			}
		}
	}
	return out
}
