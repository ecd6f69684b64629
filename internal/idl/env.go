package idl

import "fmt"

// Env is an insertion-ordered table of named type definitions. References
// between definitions are Var names, so recursive and mutually recursive
// types are plain entries.
type Env struct {
	order []string
	types map[string]Type
}

type Entry struct {
	Name string
	Ty   Type
}

func NewEnv() *Env {
	return &Env{types: map[string]Type{}}
}

// Insert adds or replaces a definition. Replacing keeps the original
// position in the order.
func (e *Env) Insert(name string, t Type) {
	if e.types == nil {
		e.types = map[string]Type{}
	}
	if _, ok := e.types[name]; !ok {
		e.order = append(e.order, name)
	}
	e.types[name] = t
}

func (e *Env) Lookup(name string) (Type, bool) {
	if e == nil {
		return Type{}, false
	}
	t, ok := e.types[name]
	return t, ok
}

func (e *Env) Len() int {
	if e == nil {
		return 0
	}
	return len(e.order)
}

func (e *Env) Names() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.order...)
}

func (e *Env) Entries() []Entry {
	if e == nil {
		return nil
	}
	out := make([]Entry, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, Entry{Name: name, Ty: e.types[name]})
	}
	return out
}

// Resolve follows Var indirections until it reaches a non-Var type.
func (e *Env) Resolve(t Type) (Type, error) {
	seen := map[string]bool{}
	for t.K == TVar {
		if seen[t.Name] {
			return Type{}, fmt.Errorf("cyclic type alias: %s", t.Name)
		}
		seen[t.Name] = true
		next, ok := e.Lookup(t.Name)
		if !ok {
			return Type{}, fmt.Errorf("unbound type identifier: %s", t.Name)
		}
		t = next
	}
	return t, nil
}

// AsService returns the methods of the service t denotes. A class resolves
// to the service it constructs.
func (e *Env) AsService(t Type) ([]Method, error) {
	t, err := e.Resolve(t)
	if err != nil {
		return nil, err
	}
	switch t.K {
	case TService:
		return t.Methods, nil
	case TClass:
		return e.AsService(*t.Elem)
	default:
		return nil, fmt.Errorf("not a service type: %s", t.K)
	}
}

func (e *Env) AsFunc(t Type) (*Function, error) {
	t, err := e.Resolve(t)
	if err != nil {
		return nil, err
	}
	if t.K != TFunc {
		return nil, fmt.Errorf("not a function type: %s", t.K)
	}
	return t.Func, nil
}
