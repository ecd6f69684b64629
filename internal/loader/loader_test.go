package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"didgen/internal/diag"
	"didgen/internal/idl"
	"didgen/internal/manifest"
)

func mustWrite(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func printed(b *diag.Bag) string {
	var sb strings.Builder
	diag.Print(&sb, b)
	return sb.String()
}

func TestDecodeTypesInOrder(t *testing.T) {
	doc, diags := Decode("in.yaml", []byte(`
format: "1.0"
types:
  Foo:
    record:
      - {name: bar, type: {record: [{name: x, type: nat}]}}
      - {id: 3, type: {opt: text}}
  List: {opt: {record: [{unnamed: 0, type: int}, {unnamed: 1, type: {var: List}}]}}
  Color:
    variant:
      - {name: red}
      - {name: green, type: null}
      - {name: custom, type: {tuple: [nat8, nat8, nat8]}}
  Blob: {vec: nat8}
`))
	require.False(t, diags.HasErrors(), printed(diags))
	require.Equal(t, "1.0.0", doc.Format.String())
	require.Nil(t, doc.Actor)
	require.Equal(t, []string{"Foo", "List", "Color", "Blob"}, doc.Env.Names())

	foo, _ := doc.Env.Lookup("Foo")
	require.Equal(t, idl.Record(
		idl.Named("bar", idl.Record(idl.Named("x", idl.Prim(idl.TNat)))),
		idl.ID(3, idl.Opt(idl.Prim(idl.TText))),
	), foo)

	list, _ := doc.Env.Lookup("List")
	require.Equal(t, idl.Opt(idl.Tuple(idl.Prim(idl.TInt), idl.Var("List"))), list)

	color, _ := doc.Env.Lookup("Color")
	require.Equal(t, idl.Variant(
		idl.Named("red", idl.Prim(idl.TNull)),
		idl.Named("green", idl.Prim(idl.TNull)),
		idl.Named("custom", idl.Tuple(idl.Prim(idl.TNat8), idl.Prim(idl.TNat8), idl.Prim(idl.TNat8))),
	), color)

	blob, _ := doc.Env.Lookup("Blob")
	require.Equal(t, idl.Vec(idl.Prim(idl.TNat8)), blob)
}

func TestDecodeActor(t *testing.T) {
	doc, diags := Decode("in.yaml", []byte(`
types:
  S:
    service:
      - name: get
        type: {func: {args: [nat], rets: [text], modes: [query]}}
      - name: ping
        type: {func: {modes: [oneway]}}
actor: {class: {init: [text], type: {var: S}}}
`))
	require.False(t, diags.HasErrors(), printed(diags))
	require.Equal(t, "1.0.0", doc.Format.String())

	s, _ := doc.Env.Lookup("S")
	require.Equal(t, idl.Service(
		idl.Method{Name: "get", Ty: idl.Func(idl.Function{
			Modes: []idl.FuncMode{idl.ModeQuery},
			Args:  []idl.Type{idl.Prim(idl.TNat)},
			Rets:  []idl.Type{idl.Prim(idl.TText)},
		})},
		idl.Method{Name: "ping", Ty: idl.Func(idl.Function{Modes: []idl.FuncMode{idl.ModeOneway}})},
	), s)
	require.NotNil(t, doc.Actor)
	require.Equal(t, idl.Class([]idl.Type{idl.Prim(idl.TText)}, idl.Var("S")), *doc.Actor)
}

func TestDecodeFollowsAnchors(t *testing.T) {
	doc, diags := Decode("in.yaml", []byte(`
types:
  A: &pair {tuple: [nat, nat]}
  B: *pair
`))
	require.False(t, diags.HasErrors(), printed(diags))
	a, _ := doc.Env.Lookup("A")
	b, _ := doc.Env.Lookup("B")
	require.Equal(t, a, b)
}

func TestDecodeJSON(t *testing.T) {
	doc, diags := Decode("in.json", []byte(`{"types": {"T": {"vec": {"var": "T"}}}}`))
	require.False(t, diags.HasErrors(), printed(diags))
	ty, _ := doc.Env.Lookup("T")
	require.Equal(t, idl.Vec(idl.Var("T")), ty)
}

func TestDecodeDiagnostics(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"format", "format: \"2.0\"\n", "in.yaml:1:1: error: unsupported format version 2.0.0 (want ^1.0)\n"},
		{"bad format", "format: banana\n", "in.yaml:1:1: error: invalid format version \"banana\""},
		{"prim", "types:\n  T: natural\n", "in.yaml:2:6: error: unknown primitive type \"natural\""},
		{"ctor", "types:\n  T: {box: nat}\n", "in.yaml:2:7: error: unknown type constructor \"box\"\n"},
		{"two keys", "types:\n  T: {opt: nat, vec: nat}\n", "in.yaml:2:6: error: a composite type needs exactly one key\n"},
		{"dup", "types:\n  T: nat\n  T: int\n", "error: duplicate type definition \"T\""},
		{"label", "types:\n  T: {record: [{type: nat}]}\n", "error: a field needs exactly one of name, id or unnamed\n"},
		{"id", "types:\n  T: {record: [{id: -1}]}\n", "error: id must be a 32-bit unsigned integer\n"},
		{"mode", "actor: {func: {modes: [update]}}\n", "error: unknown function mode \"update\"\n"},
		{"method", "actor: {service: [{name: m}]}\n", "error: a method needs a name and a type\n"},
		{"class", "actor: {class: {init: []}}\n", "error: class needs a type\n"},
		{"scalar doc", "hello\n", "error: document must be a mapping\n"},
		{"yaml", "types: [\n", "in.yaml:1:1: error: yaml:"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, diags := Decode("in.yaml", []byte(tc.in))
			require.True(t, diags.HasErrors())
			require.Contains(t, printed(diags), tc.want)
		})
	}
}

func TestDecodeWarnsOnUnknownKeys(t *testing.T) {
	doc, diags := Decode("in.yaml", []byte(`
generator: other
types:
  T: {record: [{name: a, type: nat, doc: hi}]}
`))
	require.False(t, diags.HasErrors())
	out := printed(diags)
	require.Contains(t, out, "in.yaml:2:1: warning: unknown key \"generator\"\n")
	require.Contains(t, out, "warning: unknown field key \"doc\"\n")
	require.Equal(t, 1, doc.Env.Len())
}

func TestDecodeEmpty(t *testing.T) {
	_, diags := Decode("in.yaml", nil)
	require.True(t, diags.HasErrors())
	require.Contains(t, printed(diags), "empty document")
}

func TestInitThenLoadProject(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))

	res, diags, err := LoadProject(dir)
	require.NoError(t, err)
	require.False(t, diags.HasErrors(), printed(diags))
	require.Equal(t, filepath.Join(dir, "src", "service.rs"), res.Manifest.OutputPath())
	require.Equal(t, []string{"Profile"}, res.Doc.Env.Names())
	require.NotNil(t, res.Doc.Actor)
}

func TestInitKeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, manifest.FileName), "input: api.yaml\n")
	require.NoError(t, Init(dir))

	b, err := os.ReadFile(filepath.Join(dir, manifest.FileName))
	require.NoError(t, err)
	require.Equal(t, "input: api.yaml\n", string(b))
	_, err = os.Stat(filepath.Join(dir, "api.yaml"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "service.did.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadProjectWalksUpToManifest(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, manifest.FileName), "input: idl/api.yaml\ntrait: Api\n")
	mustWrite(t, filepath.Join(dir, "idl", "api.yaml"), "types:\n  T: nat\n")
	sub := filepath.Join(dir, "src", "deep")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	res, diags, err := LoadProject(sub)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	require.Equal(t, "Api", res.Manifest.Trait)
	require.Equal(t, []string{"T"}, res.Doc.Env.Names())
}

func TestLoadProjectReportsDiagnosticsRelativeToRoot(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, manifest.FileName), "input: idl/api.yaml\n")
	mustWrite(t, filepath.Join(dir, "idl", "api.yaml"), "types:\n  T: {box: nat}\n")

	res, diags, err := LoadProject(dir)
	require.NoError(t, err)
	require.Nil(t, res.Doc)
	require.Contains(t, printed(diags), filepath.Join("idl", "api.yaml")+":2:7: error:")
}

func TestLoadMissingInput(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, manifest.FileName), "input: nope.yaml\n")
	_, _, err := LoadProject(dir)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.ErrorContains(t, err, "read input")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "x.did.json")
	mustWrite(t, p, `{"types": {"A": "bool"}}`)

	res, diags, err := LoadFile(p)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	require.Equal(t, p, res.Manifest.InputPath())
	require.Equal(t, []string{"A"}, res.Doc.Env.Names())
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "conf", "gen.yaml")
	mustWrite(t, p, "input: api.yaml\nindent: 2\n")
	mustWrite(t, filepath.Join(dir, "conf", "api.yaml"), "types:\n  T: text\n")

	res, diags, err := LoadManifest(p)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	require.Equal(t, 2, res.Manifest.Indent)
	require.Equal(t, []string{"T"}, res.Doc.Env.Names())

	_, _, err = LoadManifest(filepath.Join(dir, "missing.yaml"))
	require.ErrorContains(t, err, "load manifest")
}
