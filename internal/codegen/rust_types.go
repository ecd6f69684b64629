package codegen

import (
	"fmt"

	"didgen/internal/idl"
	"didgen/internal/names"
	"didgen/internal/nominal"
	"didgen/internal/pretty"
)

// ContractError reports input that the type checker should have rejected,
// or a type the nominalizer should have hoisted. It aborts emission.
type ContractError struct {
	Msg string
}

func (e *ContractError) Error() string { return "contract violation: " + e.Msg }

func violation(format string, args ...any) {
	panic(&ContractError{Msg: fmt.Sprintf(format, args...)})
}

var rustPrims = map[idl.Kind]string{
	idl.TNull:      "()",
	idl.TBool:      "bool",
	idl.TNat:       "candid::Nat",
	idl.TInt:       "candid::Int",
	idl.TNat8:      "u8",
	idl.TNat16:     "u16",
	idl.TNat32:     "u32",
	idl.TNat64:     "u64",
	idl.TInt8:      "i8",
	idl.TInt16:     "i16",
	idl.TInt32:     "i32",
	idl.TInt64:     "i64",
	idl.TFloat32:   "f32",
	idl.TFloat64:   "f64",
	idl.TText:      "String",
	idl.TReserved:  "candid::Reserved",
	idl.TEmpty:     "candid::Empty",
	idl.TPrincipal: "candid::Principal",
}

// rustType renders t in type position. Only tuple-shaped records may appear
// inline here; everything else composite must already be a Var.
func (e *emitter) rustType(t idl.Type) *pretty.Doc {
	if s, ok := rustPrims[t.K]; ok {
		return pretty.Text(s)
	}
	switch t.K {
	case idl.TVar:
		return pretty.Text(names.Ident(t.Name))
	case idl.TOpt:
		return pretty.Concat(pretty.Text("Option<"), e.rustType(*t.Elem), pretty.Text(">"))
	case idl.TVec:
		return pretty.Concat(pretty.Text("Vec<"), e.rustType(*t.Elem), pretty.Text(">"))
	case idl.TRecord:
		if !nominal.IsTuple(t.Fields) {
			violation("record %s in type position", t)
		}
		return e.tuple(t.Fields, true)
	case idl.TFunc:
		return pretty.Text("candid::Func")
	case idl.TService:
		return pretty.Text("candid::Service")
	case idl.TVariant:
		violation("variant %s in type position", t)
	case idl.TClass:
		violation("class type %s outside the actor", t)
	case idl.TKnot, idl.TUnknown:
		violation("unresolved type %s", t)
	default:
		violation("unexpected type kind %s", t.K)
	}
	return nil
}

// tuple renders positional fields as "(A, B)". A one-element tuple type
// needs its trailing comma even when flat.
func (e *emitter) tuple(fs []idl.Field, typePos bool) *pretty.Doc {
	items := make([]*pretty.Doc, len(fs))
	for i, f := range fs {
		items[i] = e.rustType(f.Ty)
	}
	flatTrailing := ""
	if typePos && len(fs) == 1 {
		flatTrailing = ","
	}
	return e.list("(", ")", items, false, flatTrailing)
}

// structFields renders "{ a: A, b: B }".
func (e *emitter) structFields(fs []idl.Field) *pretty.Doc {
	items := make([]*pretty.Doc, len(fs))
	for i, f := range fs {
		items[i] = pretty.Concat(pretty.Text(names.Label(f.Label)+": "), e.rustType(f.Ty))
	}
	return e.list("{", "}", items, true, "")
}

// list lays items out between open and close, one per line with a trailing
// comma when the group does not fit. pad puts spaces inside the delimiters
// when flat.
func (e *emitter) list(open, close string, items []*pretty.Doc, pad bool, flatTrailing string) *pretty.Doc {
	if len(items) == 0 {
		return pretty.Text(open + close)
	}
	br := pretty.SoftLine()
	if pad {
		br = pretty.Line()
	}
	body := pretty.Concat(
		br,
		pretty.Intersperse(items, pretty.Concat(pretty.Text(","), pretty.Line())),
		pretty.IfBreak(",", flatTrailing),
	)
	return pretty.Group(pretty.Concat(
		pretty.Text(open),
		pretty.Nest(e.opts.Indent, body),
		br,
		pretty.Text(close),
	))
}
