// Package pretty is a small Wadler-style document layout engine.
//
// A Doc is built from text, line breaks, nesting and groups. Rendering
// lays each group out on one line when it fits in the remaining width and
// breaks all of its lines otherwise.
package pretty

type docKind int

const (
	kNil docKind = iota
	kText
	kLine
	kSoftLine
	kHardLine
	kConcat
	kNest
	kGroup
	kIfBreak
)

type Doc struct {
	k     docKind
	s     string // text, or the broken form of an IfBreak
	flat  string // flat form of an IfBreak
	n     int
	parts []*Doc
}

var (
	nilDoc   = &Doc{k: kNil}
	lineDoc  = &Doc{k: kLine}
	softDoc  = &Doc{k: kSoftLine}
	hardDoc  = &Doc{k: kHardLine}
	emptyTxt = &Doc{k: kText}
)

func Nil() *Doc { return nilDoc }

func Text(s string) *Doc {
	if s == "" {
		return emptyTxt
	}
	return &Doc{k: kText, s: s}
}

// Line is a space when its group is flat and a newline otherwise.
func Line() *Doc { return lineDoc }

// SoftLine is nothing when its group is flat and a newline otherwise.
func SoftLine() *Doc { return softDoc }

// HardLine always breaks, and forces every enclosing group to break.
func HardLine() *Doc { return hardDoc }

// IfBreak renders broken when the enclosing group is broken and flat
// otherwise.
func IfBreak(broken, flat string) *Doc { return &Doc{k: kIfBreak, s: broken, flat: flat} }

func Concat(ds ...*Doc) *Doc {
	parts := make([]*Doc, 0, len(ds))
	for _, d := range ds {
		if d == nil || d.k == kNil {
			continue
		}
		parts = append(parts, d)
	}
	switch len(parts) {
	case 0:
		return nilDoc
	case 1:
		return parts[0]
	}
	return &Doc{k: kConcat, parts: parts}
}

func Nest(n int, d *Doc) *Doc { return &Doc{k: kNest, n: n, parts: []*Doc{d}} }

func Group(d *Doc) *Doc { return &Doc{k: kGroup, parts: []*Doc{d}} }

// Intersperse joins ds with sep between each adjacent pair.
func Intersperse(ds []*Doc, sep *Doc) *Doc {
	parts := make([]*Doc, 0, 2*len(ds))
	for i, d := range ds {
		if i > 0 {
			parts = append(parts, sep)
		}
		parts = append(parts, d)
	}
	return Concat(parts...)
}

func (d *Doc) Append(ds ...*Doc) *Doc {
	return Concat(append([]*Doc{d}, ds...)...)
}

func (d *Doc) IsNil() bool { return d == nil || d.k == kNil }

type mode int

const (
	modeBreak mode = iota
	modeFlat
)

type item struct {
	indent int
	mode   mode
	d      *Doc
}

// Render lays d out within width columns.
func Render(d *Doc, width int) string {
	var out []byte
	col := 0
	stack := []item{{indent: 0, mode: modeBreak, d: d}}
	newline := func(indent int) {
		for len(out) > 0 && out[len(out)-1] == ' ' {
			out = out[:len(out)-1]
		}
		out = append(out, '\n')
		for i := 0; i < indent; i++ {
			out = append(out, ' ')
		}
		col = indent
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch it.d.k {
		case kNil:
		case kText:
			out = append(out, it.d.s...)
			col += len(it.d.s)
		case kLine, kSoftLine:
			if it.mode == modeFlat {
				if it.d.k == kLine {
					out = append(out, ' ')
					col++
				}
				continue
			}
			newline(it.indent)
		case kHardLine:
			newline(it.indent)
		case kIfBreak:
			s := it.d.flat
			if it.mode == modeBreak {
				s = it.d.s
			}
			out = append(out, s...)
			col += len(s)
		case kConcat:
			for i := len(it.d.parts) - 1; i >= 0; i-- {
				stack = append(stack, item{indent: it.indent, mode: it.mode, d: it.d.parts[i]})
			}
		case kNest:
			stack = append(stack, item{indent: it.indent + it.d.n, mode: it.mode, d: it.d.parts[0]})
		case kGroup:
			m := modeBreak
			if it.mode == modeFlat || fits(width-col, item{indent: it.indent, mode: modeFlat, d: it.d.parts[0]}, stack) {
				m = modeFlat
			}
			stack = append(stack, item{indent: it.indent, mode: m, d: it.d.parts[0]})
		}
	}
	return string(out)
}

// fits reports whether next, laid out flat, plus whatever follows it up to
// the next newline, fits in w columns.
func fits(w int, next item, rest []item) bool {
	pending := []item{next}
	ri := len(rest)
	for w >= 0 {
		if len(pending) == 0 {
			if ri == 0 {
				return true
			}
			ri--
			pending = append(pending, rest[ri])
		}
		it := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		switch it.d.k {
		case kText:
			w -= len(it.d.s)
		case kLine, kSoftLine:
			if it.mode == modeBreak {
				return true
			}
			if it.d.k == kLine {
				w--
			}
		case kHardLine:
			return it.mode == modeBreak
		case kIfBreak:
			if it.mode == modeBreak {
				w -= len(it.d.s)
			} else {
				w -= len(it.d.flat)
			}
		case kConcat:
			for i := len(it.d.parts) - 1; i >= 0; i-- {
				pending = append(pending, item{indent: it.indent, mode: it.mode, d: it.d.parts[i]})
			}
		case kNest:
			pending = append(pending, item{indent: it.indent + it.d.n, mode: it.mode, d: it.d.parts[0]})
		case kGroup:
			pending = append(pending, item{indent: it.indent, mode: it.mode, d: it.d.parts[0]})
		}
	}
	return false
}

// String renders d with no width limit except hard lines.
func (d *Doc) String() string {
	return Render(d, int(^uint(0)>>1))
}
