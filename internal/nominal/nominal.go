// Package nominal rewrites a structural Candid environment so that every
// record and variant that Rust cannot express inline gets its own named
// definition.
package nominal

import (
	"strconv"
	"strings"

	"didgen/internal/idl"
)

type StepKind int

const (
	StepID StepKind = iota
	StepOpt
	StepVec
	StepRecordField
	StepVariantField
	StepFunc
	StepInit
)

// Step is one segment of the path from a definition root to the current
// position. Name is set for StepID, StepRecordField, StepVariantField and
// StepFunc.
type Step struct {
	K    StepKind
	Name string
}

type Path []Step

func (s Step) token() string {
	switch s.K {
	case StepOpt:
		return "inner"
	case StepVec:
		return "item"
	case StepInit:
		return "init"
	default:
		return s.Name
	}
}

// Name joins the path tokens with underscores. The result is raw: it is
// built from unescaped names and only sanitized when emitted.
func (p Path) Name() string {
	toks := make([]string, len(p))
	for i, s := range p {
		toks[i] = s.token()
	}
	return strings.Join(toks, "_")
}

// IsTuple reports whether fs are labelled exactly 0..n-1 in order. The
// empty record is not a tuple.
func IsTuple(fs []idl.Field) bool {
	if len(fs) == 0 {
		return false
	}
	for i, f := range fs {
		if !f.Label.IsNumeric() || f.Label.N != uint32(i) {
			return false
		}
	}
	return true
}

type nominalizer struct {
	out *idl.Env
	// hoist, when set, observes every synthesized definition.
	hoist func(name string, at Path)
}

// NominalizeAll returns a new environment and actor in which no record or
// variant is nested anywhere except
//   - directly as a definition,
//   - as a tuple-shaped record,
//   - as the payload of a variant field.
//
// env is not modified. A synthesized definition is inserted as soon as it
// is built, so it lands before the definition that needs it; the ones the
// actor needs come last.
func NominalizeAll(env *idl.Env, actor *idl.Type) (*idl.Env, *idl.Type) {
	n := &nominalizer{out: idl.NewEnv()}
	return n.all(env, actor)
}

func (n *nominalizer) all(env *idl.Env, actor *idl.Type) (*idl.Env, *idl.Type) {
	for _, ent := range env.Entries() {
		t := n.nominalize(Path{{K: StepID, Name: ent.Name}}, ent.Ty)
		n.out.Insert(ent.Name, t)
	}
	if actor == nil {
		return n.out, nil
	}
	t := n.nominalize(nil, *actor)
	return n.out, &t
}

func (n *nominalizer) nominalize(path Path, t idl.Type) idl.Type {
	switch t.K {
	case idl.TOpt:
		return idl.Opt(n.nominalize(push(path, Step{K: StepOpt}), *t.Elem))
	case idl.TVec:
		return idl.Vec(n.nominalize(push(path, Step{K: StepVec}), *t.Elem))
	case idl.TRecord:
		if inlineRecord(path) || IsTuple(t.Fields) {
			return idl.Record(n.fields(path, t.Fields, StepRecordField)...)
		}
		return n.hoistDef(path, t)
	case idl.TVariant:
		if inlineVariant(path) {
			return idl.Variant(n.fields(path, t.Fields, StepVariantField)...)
		}
		return n.hoistDef(path, t)
	case idl.TFunc:
		f := idl.Function{
			Modes: append([]idl.FuncMode(nil), t.Func.Modes...),
			Args:  n.params(path, t.Func.Args, "arg"),
			Rets:  n.params(path, t.Func.Rets, "ret"),
		}
		return idl.Func(f)
	case idl.TService:
		var ms []idl.Method
		if len(t.Methods) > 0 {
			ms = make([]idl.Method, len(t.Methods))
		}
		for i, m := range t.Methods {
			ms[i] = idl.Method{Name: m.Name, Ty: n.nominalize(push(path, Step{K: StepID, Name: m.Name}), m.Ty)}
		}
		return idl.Service(ms...)
	case idl.TClass:
		var init []idl.Type
		for _, a := range t.Init {
			init = append(init, n.nominalize(push(path, Step{K: StepInit}), a))
		}
		return idl.Class(init, n.nominalize(path, *t.Elem))
	default:
		return t
	}
}

func (n *nominalizer) fields(path Path, fs []idl.Field, k StepKind) []idl.Field {
	if len(fs) == 0 {
		return nil
	}
	out := make([]idl.Field, len(fs))
	for i, f := range fs {
		out[i] = idl.Field{
			Label: f.Label,
			Ty:    n.nominalize(push(path, Step{K: k, Name: f.Label.String()}), f.Ty),
		}
	}
	return out
}

func (n *nominalizer) params(path Path, ts []idl.Type, prefix string) []idl.Type {
	if len(ts) == 0 {
		return nil
	}
	out := make([]idl.Type, len(ts))
	for i, t := range ts {
		out[i] = n.nominalize(push(path, Step{K: StepFunc, Name: prefix + strconv.Itoa(i)}), t)
	}
	return out
}

// hoistDef moves t into its own definition named after path. A later
// definition with the same name replaces an earlier one.
func (n *nominalizer) hoistDef(path Path, t idl.Type) idl.Type {
	name := path.Name()
	if n.hoist != nil {
		n.hoist(name, path)
	}
	body := n.nominalize(Path{{K: StepID, Name: name}}, t)
	n.out.Insert(name, body)
	return idl.Var(name)
}

func inlineRecord(path Path) bool {
	if len(path) == 0 {
		return true
	}
	last := path[len(path)-1].K
	return last == StepID || last == StepVariantField
}

func inlineVariant(path Path) bool {
	return len(path) == 0 || path[len(path)-1].K == StepID
}

// push returns path extended by s without aliasing the caller's backing
// array.
func push(path Path, s Step) Path {
	out := make(Path, len(path), len(path)+1)
	copy(out, path)
	return append(out, s)
}
