package idl

import (
	"strconv"
	"strings"
)

// Format prints env and the optional actor in Candid surface syntax, one
// definition per line, in environment order.
func Format(env *Env, actor *Type) string {
	var sb strings.Builder
	for _, ent := range env.Entries() {
		sb.WriteString("type ")
		sb.WriteString(quoteName(ent.Name))
		sb.WriteString(" = ")
		writeType(&sb, ent.Ty)
		sb.WriteString(";\n")
	}
	if actor != nil {
		sb.WriteString("service : ")
		writeType(&sb, *actor)
		sb.WriteString(";\n")
	}
	return sb.String()
}

func (t Type) String() string {
	var sb strings.Builder
	writeType(&sb, t)
	return sb.String()
}

func writeType(sb *strings.Builder, t Type) {
	switch t.K {
	case TVar:
		sb.WriteString(quoteName(t.Name))
	case TKnot:
		sb.WriteString("<knot ")
		sb.WriteString(t.Name)
		sb.WriteByte('>')
	case TOpt, TVec:
		sb.WriteString(t.K.String())
		sb.WriteByte(' ')
		writeType(sb, *t.Elem)
	case TRecord:
		sb.WriteString("record {")
		writeFields(sb, t.Fields, false)
		sb.WriteByte('}')
	case TVariant:
		sb.WriteString("variant {")
		writeFields(sb, t.Fields, true)
		sb.WriteByte('}')
	case TFunc:
		sb.WriteString("func ")
		writeFunc(sb, *t.Func)
	case TService:
		sb.WriteString("service {")
		for _, m := range t.Methods {
			sb.WriteByte(' ')
			sb.WriteString(quoteName(m.Name))
			sb.WriteString(" : ")
			if m.Ty.K == TFunc {
				writeFunc(sb, *m.Ty.Func)
			} else {
				writeType(sb, m.Ty)
			}
			sb.WriteByte(';')
		}
		if len(t.Methods) > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('}')
	case TClass:
		writeTypeList(sb, t.Init)
		sb.WriteString(" -> ")
		writeType(sb, *t.Elem)
	case TUnknown:
		sb.WriteString("<unknown>")
	default:
		sb.WriteString(t.K.String())
	}
}

func writeFields(sb *strings.Builder, fs []Field, variant bool) {
	positional := true
	for i, f := range fs {
		if f.Label.K != LabelUnnamed || f.Label.N != uint32(i) {
			positional = false
			break
		}
	}
	for _, f := range fs {
		sb.WriteByte(' ')
		switch {
		case positional && !variant:
			writeType(sb, f.Ty)
		case variant && f.Ty.K == TNull:
			writeLabel(sb, f.Label)
		default:
			writeLabel(sb, f.Label)
			sb.WriteString(" : ")
			writeType(sb, f.Ty)
		}
		sb.WriteByte(';')
	}
	if len(fs) > 0 {
		sb.WriteByte(' ')
	}
}

func writeLabel(sb *strings.Builder, l Label) {
	if l.K == LabelNamed {
		sb.WriteString(quoteName(l.Name))
		return
	}
	sb.WriteString(strconv.FormatUint(uint64(l.N), 10))
}

func writeFunc(sb *strings.Builder, f Function) {
	writeTypeList(sb, f.Args)
	sb.WriteString(" -> ")
	writeTypeList(sb, f.Rets)
	for _, m := range f.Modes {
		sb.WriteByte(' ')
		sb.WriteString(m.String())
	}
}

func writeTypeList(sb *strings.Builder, ts []Type) {
	sb.WriteByte('(')
	for i, t := range ts {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeType(sb, t)
	}
	sb.WriteByte(')')
}

func quoteName(s string) string {
	if isCandidIdent(s) {
		return s
	}
	return strconv.Quote(s)
}

func isCandidIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		letter := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
		if i == 0 && !letter {
			return false
		}
		if !letter && !(ch >= '0' && ch <= '9') {
			return false
		}
	}
	return true
}
