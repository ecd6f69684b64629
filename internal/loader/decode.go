package loader

import (
	"strconv"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"didgen/internal/diag"
	"didgen/internal/idl"
)

// SupportedFormats is the range of interchange format versions Decode
// understands.
const SupportedFormats = "^1.0"

// Document is a checked type environment as exported by the Candid type
// checker.
type Document struct {
	Format *semver.Version
	Env    *idl.Env
	Actor  *idl.Type
}

type decoder struct {
	file  string
	diags *diag.Bag
}

// Decode reads a YAML or JSON document. Problems are reported as
// diagnostics; the document is only usable when the bag has no errors.
func Decode(file string, data []byte) (*Document, *diag.Bag) {
	d := &decoder{file: file, diags: &diag.Bag{}}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		d.diags.Add(file, 1, 1, err.Error())
		return nil, d.diags
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		d.diags.Add(file, 1, 1, "empty document")
		return nil, d.diags
	}
	doc := d.document(root.Content[0])
	return doc, d.diags
}

func (d *decoder) loc(n *yaml.Node) diag.Loc {
	return diag.Loc{Filename: d.file, Line: n.Line, Col: n.Column}
}

func (d *decoder) document(n *yaml.Node) *Document {
	doc := &Document{Env: idl.NewEnv()}
	if n.Kind != yaml.MappingNode {
		d.diags.Errorf(d.loc(n), "document must be a mapping")
		return doc
	}
	format := "1.0.0"
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "format":
			format = val.Value
		case "types":
			d.types(doc.Env, val)
		case "actor":
			t := d.typ(val)
			doc.Actor = &t
		default:
			d.diags.Warnf(d.loc(key), "unknown key %q", key.Value)
		}
	}
	doc.Format = d.checkFormat(n, format)
	return doc
}

func (d *decoder) checkFormat(n *yaml.Node, format string) *semver.Version {
	v, err := semver.NewVersion(format)
	if err != nil {
		d.diags.Errorf(d.loc(n), "invalid format version %q: %v", format, err)
		return nil
	}
	c, err := semver.NewConstraint(SupportedFormats)
	if err != nil {
		panic(err)
	}
	if !c.Check(v) {
		d.diags.Errorf(d.loc(n), "unsupported format version %s (want %s)", v, SupportedFormats)
	}
	return v
}

func (d *decoder) types(env *idl.Env, n *yaml.Node) {
	if n.Kind != yaml.MappingNode {
		d.diags.Errorf(d.loc(n), "types must be a mapping from name to type")
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if _, dup := env.Lookup(key.Value); dup {
			d.diags.Errorf(d.loc(key), "duplicate type definition %q", key.Value)
			continue
		}
		env.Insert(key.Value, d.typ(val))
	}
}

func (d *decoder) typ(n *yaml.Node) idl.Type {
	if n.Kind == yaml.AliasNode {
		return d.typ(n.Alias)
	}
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return idl.Prim(idl.TNull)
		}
		k, ok := idl.PrimByName(n.Value)
		if !ok {
			d.diags.Errorf(d.loc(n), "unknown primitive type %q (use {var: %s} for references)", n.Value, n.Value)
			return idl.Type{}
		}
		return idl.Prim(k)
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			d.diags.Errorf(d.loc(n), "a composite type needs exactly one key")
			return idl.Type{}
		}
		return d.composite(n.Content[0], n.Content[1])
	default:
		d.diags.Errorf(d.loc(n), "expected a type")
		return idl.Type{}
	}
}

func (d *decoder) composite(key, val *yaml.Node) idl.Type {
	switch key.Value {
	case "var":
		if val.Kind != yaml.ScalarNode || val.Value == "" {
			d.diags.Errorf(d.loc(val), "var needs a type name")
			return idl.Type{}
		}
		return idl.Var(val.Value)
	case "opt":
		return idl.Opt(d.typ(val))
	case "vec":
		return idl.Vec(d.typ(val))
	case "tuple":
		return idl.Tuple(d.typeList(val)...)
	case "record":
		return idl.Record(d.fields(val)...)
	case "variant":
		return idl.Variant(d.fields(val)...)
	case "func":
		return idl.Func(d.function(val))
	case "service":
		return idl.Service(d.methods(val)...)
	case "class":
		return d.class(val)
	default:
		d.diags.Errorf(d.loc(key), "unknown type constructor %q", key.Value)
		return idl.Type{}
	}
}

func (d *decoder) typeList(n *yaml.Node) []idl.Type {
	if n.Kind != yaml.SequenceNode {
		d.diags.Errorf(d.loc(n), "expected a list of types")
		return nil
	}
	var out []idl.Type
	for _, c := range n.Content {
		out = append(out, d.typ(c))
	}
	return out
}

func (d *decoder) fields(n *yaml.Node) []idl.Field {
	if n.Kind != yaml.SequenceNode {
		d.diags.Errorf(d.loc(n), "expected a list of fields")
		return nil
	}
	var out []idl.Field
	for _, c := range n.Content {
		if f, ok := d.field(c); ok {
			out = append(out, f)
		}
	}
	return out
}

// field decodes {name|id|unnamed: ..., type: T}. A missing type means null,
// the common case for enumeration-like variants.
func (d *decoder) field(n *yaml.Node) (idl.Field, bool) {
	if n.Kind != yaml.MappingNode {
		d.diags.Errorf(d.loc(n), "a field must be a mapping")
		return idl.Field{}, false
	}
	f := idl.Field{Ty: idl.Prim(idl.TNull)}
	labels := 0
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "name":
			f.Label = idl.Label{K: idl.LabelNamed, Name: val.Value}
			labels++
		case "id", "unnamed":
			id, err := strconv.ParseUint(val.Value, 10, 32)
			if err != nil {
				d.diags.Errorf(d.loc(val), "%s must be a 32-bit unsigned integer", key.Value)
				return idl.Field{}, false
			}
			k := idl.LabelID
			if key.Value == "unnamed" {
				k = idl.LabelUnnamed
			}
			f.Label = idl.Label{K: k, N: uint32(id)}
			labels++
		case "type":
			f.Ty = d.typ(val)
		default:
			d.diags.Warnf(d.loc(key), "unknown field key %q", key.Value)
		}
	}
	if labels != 1 {
		d.diags.Errorf(d.loc(n), "a field needs exactly one of name, id or unnamed")
		return idl.Field{}, false
	}
	return f, true
}

func (d *decoder) function(n *yaml.Node) idl.Function {
	var f idl.Function
	if n.Kind != yaml.MappingNode {
		d.diags.Errorf(d.loc(n), "func needs a mapping with args, rets and modes")
		return f
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "args":
			f.Args = d.typeList(val)
		case "rets":
			f.Rets = d.typeList(val)
		case "modes":
			f.Modes = d.modes(val)
		default:
			d.diags.Warnf(d.loc(key), "unknown func key %q", key.Value)
		}
	}
	return f
}

func (d *decoder) modes(n *yaml.Node) []idl.FuncMode {
	if n.Kind != yaml.SequenceNode {
		d.diags.Errorf(d.loc(n), "modes must be a list")
		return nil
	}
	var out []idl.FuncMode
	for _, c := range n.Content {
		switch c.Value {
		case "query":
			out = append(out, idl.ModeQuery)
		case "oneway":
			out = append(out, idl.ModeOneway)
		case "composite_query":
			out = append(out, idl.ModeCompositeQuery)
		default:
			d.diags.Errorf(d.loc(c), "unknown function mode %q", c.Value)
		}
	}
	return out
}

func (d *decoder) methods(n *yaml.Node) []idl.Method {
	if n.Kind != yaml.SequenceNode {
		d.diags.Errorf(d.loc(n), "service needs a list of methods")
		return nil
	}
	var out []idl.Method
	for _, c := range n.Content {
		var m idl.Method
		var ty *yaml.Node
		if c.Kind == yaml.MappingNode {
			for i := 0; i+1 < len(c.Content); i += 2 {
				switch c.Content[i].Value {
				case "name":
					m.Name = c.Content[i+1].Value
				case "type":
					ty = c.Content[i+1]
				}
			}
		}
		if m.Name == "" || ty == nil {
			d.diags.Errorf(d.loc(c), "a method needs a name and a type")
			continue
		}
		m.Ty = d.typ(ty)
		out = append(out, m)
	}
	return out
}

func (d *decoder) class(n *yaml.Node) idl.Type {
	if n.Kind != yaml.MappingNode {
		d.diags.Errorf(d.loc(n), "class needs a mapping with init and type")
		return idl.Type{}
	}
	var init []idl.Type
	var serv *idl.Type
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch key.Value {
		case "init":
			init = d.typeList(val)
		case "type":
			t := d.typ(val)
			serv = &t
		default:
			d.diags.Warnf(d.loc(key), "unknown class key %q", key.Value)
		}
	}
	if serv == nil {
		d.diags.Errorf(d.loc(n), "class needs a type")
		return idl.Type{}
	}
	return idl.Class(init, *serv)
}
