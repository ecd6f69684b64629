package nominal

import (
	"sort"

	"didgen/internal/idl"
)

// Collision is a synthesized name produced by more than one position, or
// one that shadows a definition of the input environment. NominalizeAll
// keeps only the last definition written under such a name.
type Collision struct {
	Name  string
	Paths []Path
	// Declared is set when the input environment already defines Name.
	Declared bool
}

// Collisions runs the same rewrite as NominalizeAll and reports every name
// that was written more than once, sorted by name.
func Collisions(env *idl.Env, actor *idl.Type) []Collision {
	sites := map[string][]Path{}
	n := &nominalizer{
		out: idl.NewEnv(),
		hoist: func(name string, at Path) {
			sites[name] = append(sites[name], append(Path(nil), at...))
		},
	}
	n.all(env, actor)

	var out []Collision
	for name, paths := range sites {
		_, declared := env.Lookup(name)
		if len(paths) < 2 && !declared {
			continue
		}
		out = append(out, Collision{Name: name, Paths: paths, Declared: declared})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
