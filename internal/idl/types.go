package idl

import (
	"strconv"
)

type Kind int

const (
	// TUnknown and TKnot are placeholders the type checker uses while tying
	// recursive knots. They never survive a successful check.
	TUnknown Kind = iota
	TKnot
	TNull
	TBool
	TNat
	TInt
	TNat8
	TNat16
	TNat32
	TNat64
	TInt8
	TInt16
	TInt32
	TInt64
	TFloat32
	TFloat64
	TText
	TReserved
	TEmpty
	TPrincipal
	TVar
	TOpt
	TVec
	TRecord
	TVariant
	TFunc
	TService
	TClass
)

var primNames = map[Kind]string{
	TNull:      "null",
	TBool:      "bool",
	TNat:       "nat",
	TInt:       "int",
	TNat8:      "nat8",
	TNat16:     "nat16",
	TNat32:     "nat32",
	TNat64:     "nat64",
	TInt8:      "int8",
	TInt16:     "int16",
	TInt32:     "int32",
	TInt64:     "int64",
	TFloat32:   "float32",
	TFloat64:   "float64",
	TText:      "text",
	TReserved:  "reserved",
	TEmpty:     "empty",
	TPrincipal: "principal",
}

// PrimByName maps the Candid spelling of a primitive to its kind.
func PrimByName(name string) (Kind, bool) {
	for k, n := range primNames {
		if n == name {
			return k, true
		}
	}
	return TUnknown, false
}

func (k Kind) IsPrimitive() bool {
	_, ok := primNames[k]
	return ok
}

func (k Kind) String() string {
	if n, ok := primNames[k]; ok {
		return n
	}
	switch k {
	case TUnknown:
		return "unknown"
	case TKnot:
		return "knot"
	case TVar:
		return "var"
	case TOpt:
		return "opt"
	case TVec:
		return "vec"
	case TRecord:
		return "record"
	case TVariant:
		return "variant"
	case TFunc:
		return "func"
	case TService:
		return "service"
	case TClass:
		return "class"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Type is a node of the Candid type algebra. Which fields are meaningful
// depends on K:
//
//	TVar      Name
//	TKnot     Name (the id being tied)
//	TOpt      Elem
//	TVec      Elem
//	TRecord   Fields
//	TVariant  Fields
//	TFunc     Func
//	TService  Methods
//	TClass    Init, Elem (the service being constructed)
type Type struct {
	K       Kind
	Name    string
	Elem    *Type
	Fields  []Field
	Func    *Function
	Methods []Method
	Init    []Type
}

type LabelKind int

const (
	LabelNamed LabelKind = iota
	LabelID
	LabelUnnamed
)

// Label identifies a record or variant field. LabelID carries an explicit
// numeric id; LabelUnnamed carries the position of an unlabelled field.
type Label struct {
	K    LabelKind
	Name string
	N    uint32
}

func (l Label) IsNumeric() bool { return l.K == LabelID || l.K == LabelUnnamed }

// ID returns the wire id of the label: the hash of the name for named
// labels, the number otherwise.
func (l Label) ID() uint32 {
	if l.K == LabelNamed {
		return Hash(l.Name)
	}
	return l.N
}

// String is the raw text used when a label becomes part of a synthesized
// name. It is never escaped.
func (l Label) String() string {
	if l.K == LabelNamed {
		return l.Name
	}
	return strconv.FormatUint(uint64(l.N), 10)
}

type Field struct {
	Label Label
	Ty    Type
}

type FuncMode int

const (
	ModeQuery FuncMode = iota
	ModeOneway
	ModeCompositeQuery
)

func (m FuncMode) String() string {
	switch m {
	case ModeQuery:
		return "query"
	case ModeOneway:
		return "oneway"
	case ModeCompositeQuery:
		return "composite_query"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

type Function struct {
	Modes []FuncMode
	Args  []Type
	Rets  []Type
}

type Method struct {
	Name string
	Ty   Type
}

func Prim(k Kind) Type { return Type{K: k} }

func Var(name string) Type { return Type{K: TVar, Name: name} }

func Opt(t Type) Type { return Type{K: TOpt, Elem: &t} }

func Vec(t Type) Type { return Type{K: TVec, Elem: &t} }

func Record(fs ...Field) Type { return Type{K: TRecord, Fields: fs} }

func Variant(fs ...Field) Type { return Type{K: TVariant, Fields: fs} }

func Func(f Function) Type { return Type{K: TFunc, Func: &f} }

func Service(ms ...Method) Type { return Type{K: TService, Methods: ms} }

func Class(init []Type, serv Type) Type { return Type{K: TClass, Init: init, Elem: &serv} }

func Named(name string, t Type) Field { return Field{Label: Label{K: LabelNamed, Name: name}, Ty: t} }

func ID(n uint32, t Type) Field { return Field{Label: Label{K: LabelID, N: n}, Ty: t} }

func Unnamed(n uint32, t Type) Field { return Field{Label: Label{K: LabelUnnamed, N: n}, Ty: t} }

// Tuple builds a record whose fields are labelled 0..n-1.
func Tuple(ts ...Type) Type {
	fs := make([]Field, len(ts))
	for i, t := range ts {
		fs[i] = Unnamed(uint32(i), t)
	}
	return Record(fs...)
}
