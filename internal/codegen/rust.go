// Package codegen renders a Candid type environment as Rust bindings.
package codegen

import (
	"fmt"
	"strings"

	"didgen/internal/idl"
	"didgen/internal/names"
	"didgen/internal/nominal"
	"didgen/internal/pretty"
)

const header = `// This file was generated from a Candid interface description.
// You may want to manually adjust some of the types.
`

const (
	DefaultTraitName = "SERVICE"
	DefaultLineWidth = 80
	DefaultIndent    = 4
)

var DefaultDerive = []string{"CandidType", "Deserialize"}

// Options tunes the emitted text. The zero value uses the defaults above.
type Options struct {
	TraitName string
	Derive    []string
	LineWidth int
	Indent    int
}

func (o Options) withDefaults() Options {
	if o.TraitName == "" {
		o.TraitName = DefaultTraitName
	}
	if o.Derive == nil {
		o.Derive = DefaultDerive
	}
	if o.LineWidth <= 0 {
		o.LineWidth = DefaultLineWidth
	}
	if o.Indent <= 0 {
		o.Indent = DefaultIndent
	}
	return o
}

type emitter struct {
	env  *idl.Env
	opts Options
}

// EmitRust nominalizes env and actor and renders them as Rust source: a
// header comment, one declaration per definition in environment order, and a
// trait for the actor when there is one.
//
// A *ContractError is returned when the input breaks a precondition the
// type checker guarantees, such as an actor that is not a service.
func EmitRust(env *idl.Env, actor *idl.Type, opts Options) (src string, err error) {
	defer func() {
		if r := recover(); r != nil {
			ce, ok := r.(*ContractError)
			if !ok {
				panic(r)
			}
			src, err = "", ce
		}
	}()

	nenv, nactor := nominal.NominalizeAll(env, actor)
	e := &emitter{env: nenv, opts: opts.withDefaults()}
	doc := pretty.Concat(pretty.Text(header), e.defs())
	if nactor != nil {
		doc = doc.Append(pretty.HardLine(), e.actor(*nactor), pretty.HardLine())
	}
	return pretty.Render(doc, e.opts.LineWidth), nil
}

func (e *emitter) derive() *pretty.Doc {
	if len(e.opts.Derive) == 0 {
		return pretty.Nil()
	}
	return pretty.Concat(
		pretty.Text("#[derive("+strings.Join(e.opts.Derive, ", ")+")]"),
		pretty.HardLine(),
	)
}

func (e *emitter) defs() *pretty.Doc {
	var parts []*pretty.Doc
	for _, ent := range e.env.Entries() {
		parts = append(parts, pretty.HardLine(), e.def(ent.Name, ent.Ty), pretty.HardLine())
	}
	return pretty.Concat(parts...)
}

func (e *emitter) def(name string, t idl.Type) *pretty.Doc {
	id := names.Ident(name)
	switch t.K {
	case idl.TRecord:
		if nominal.IsTuple(t.Fields) {
			return pretty.Concat(e.derive(), pretty.Text("struct "+id), e.tuple(t.Fields, false), pretty.Text(";"))
		}
		return pretty.Concat(e.derive(), pretty.Text("struct "+id+" "), e.structFields(t.Fields))
	case idl.TVariant:
		cases := make([]*pretty.Doc, len(t.Fields))
		for i, f := range t.Fields {
			cases[i] = e.variantCase(f)
		}
		return pretty.Concat(e.derive(), pretty.Text("enum "+id+" "), e.list("{", "}", cases, true, ""))
	default:
		return pretty.Concat(pretty.Text("type "+id+" = "), e.rustType(t), pretty.Text(";"))
	}
}

func (e *emitter) variantCase(f idl.Field) *pretty.Doc {
	tag := pretty.Text(names.Label(f.Label))
	switch {
	case f.Ty.K == idl.TNull:
		return tag
	case f.Ty.K == idl.TRecord && nominal.IsTuple(f.Ty.Fields):
		return pretty.Concat(tag, e.tuple(f.Ty.Fields, false))
	case f.Ty.K == idl.TRecord:
		return pretty.Concat(tag, pretty.Text(" "), e.structFields(f.Ty.Fields))
	default:
		return pretty.Concat(tag, pretty.Text("("), e.rustType(f.Ty), pretty.Text(")"))
	}
}

func (e *emitter) actor(t idl.Type) *pretty.Doc {
	methods, err := e.env.AsService(t)
	if err != nil {
		violation("actor: %v", err)
	}
	head := "pub trait " + names.Ident(e.opts.TraitName) + " "
	if len(methods) == 0 {
		return pretty.Text(head + "{}")
	}
	sigs := make([]*pretty.Doc, len(methods))
	for i, m := range methods {
		f, err := e.env.AsFunc(m.Ty)
		if err != nil {
			violation("method %s: %v", m.Name, err)
		}
		sigs[i] = e.method(m.Name, f)
	}
	return pretty.Concat(
		pretty.Text(head+"{"),
		pretty.Nest(e.opts.Indent, pretty.Concat(pretty.HardLine(), pretty.Intersperse(sigs, pretty.HardLine()))),
		pretty.HardLine(),
		pretty.Text("}"),
	)
}

// method renders "fn name(arg0: A) -> (R);". Candid arguments are unnamed,
// so parameters are always arg0, arg1, ...
func (e *emitter) method(name string, f *idl.Function) *pretty.Doc {
	args := make([]*pretty.Doc, len(f.Args))
	for i, a := range f.Args {
		args[i] = pretty.Concat(pretty.Text(fmt.Sprintf("arg%d: ", i)), e.rustType(a))
	}
	rets := make([]*pretty.Doc, len(f.Rets))
	for i, r := range f.Rets {
		rets[i] = e.rustType(r)
	}
	return pretty.Concat(
		pretty.Text("fn "+names.Ident(name)),
		e.list("(", ")", args, false, ""),
		pretty.Text(" -> "),
		e.list("(", ")", rets, false, ""),
		pretty.Text(";"),
	)
}
