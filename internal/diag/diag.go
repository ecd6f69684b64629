package diag

import (
	"fmt"
	"io"
	"sort"
)

type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

type Item struct {
	Filename string
	Line     int
	Col      int
	Severity Severity
	Msg      string
}

type Bag struct {
	Items []Item
}

func (b *Bag) Add(filename string, line int, col int, msg string) {
	b.Items = append(b.Items, Item{Filename: filename, Line: line, Col: col, Msg: msg})
}

func (b *Bag) Errorf(loc Loc, format string, args ...any) {
	b.Add(loc.Filename, loc.Line, loc.Col, fmt.Sprintf(format, args...))
}

func (b *Bag) Warnf(loc Loc, format string, args ...any) {
	b.Items = append(b.Items, Item{
		Filename: loc.Filename,
		Line:     loc.Line,
		Col:      loc.Col,
		Severity: Warning,
		Msg:      fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether b holds anything worse than a warning.
func (b *Bag) HasErrors() bool {
	if b == nil {
		return false
	}
	for _, it := range b.Items {
		if it.Severity == Error {
			return true
		}
	}
	return false
}

type Loc struct {
	Filename string
	Line     int
	Col      int
}

func Print(w io.Writer, b *Bag) {
	if b == nil || len(b.Items) == 0 {
		return
	}
	items := make([]Item, 0, len(b.Items))
	items = append(items, b.Items...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Filename != items[j].Filename {
			return items[i].Filename < items[j].Filename
		}
		if items[i].Line != items[j].Line {
			return items[i].Line < items[j].Line
		}
		return items[i].Col < items[j].Col
	})
	for _, it := range items {
		fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", it.Filename, it.Line, it.Col, it.Severity, it.Msg)
	}
}
