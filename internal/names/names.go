package names

import (
	"strconv"

	"didgen/internal/idl"
)

// keywords are the Rust identifiers that need the raw-identifier escape
// (strict, reserved and edition keywords).
var keywords = map[string]bool{}

func init() {
	for _, kw := range []string{
		"as", "break", "const", "continue", "crate", "else", "enum", "extern", "false", "fn", "for",
		"if", "impl", "in", "let", "loop", "match", "mod", "move", "mut", "pub", "ref", "return",
		"self", "Self", "static", "struct", "super", "trait", "true", "type", "unsafe", "use", "where",
		"while", "async", "await", "dyn", "abstract", "become", "box", "do", "final", "macro",
		"override", "priv", "typeof", "unsized", "virtual", "yield", "try",
	} {
		keywords[kw] = true
	}
}

// pathKeywords cannot be written as raw identifiers, so they get a
// trailing underscore instead.
var pathKeywords = map[string]bool{
	"crate": true,
	"self":  true,
	"super": true,
	"Self":  true,
}

func IsKeyword(s string) bool { return keywords[s] }

// Ident turns an arbitrary Candid name into a Rust identifier.
//
// Names that are not plain ASCII identifiers are replaced by "_<hash>_",
// using the Candid field hash. Two such names can collide; that is accepted.
func Ident(raw string) string {
	if !isPlainIdent(raw) {
		return "_" + strconv.FormatUint(uint64(idl.Hash(raw)), 10) + "_"
	}
	if pathKeywords[raw] {
		return raw + "_"
	}
	if keywords[raw] {
		return "r#" + raw
	}
	return raw
}

// Label renders a field label. Numeric labels become "_<n>_".
func Label(l idl.Label) string {
	if l.K == idl.LabelNamed {
		return Ident(l.Name)
	}
	return "_" + strconv.FormatUint(uint64(l.N), 10) + "_"
}

func isPlainIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		letter := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
		if i == 0 {
			if !letter {
				return false
			}
			continue
		}
		if !letter && !(ch >= '0' && ch <= '9') && ch != '_' {
			return false
		}
	}
	return true
}
