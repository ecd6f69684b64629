package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"didgen/internal/codegen"
)

const FileName = "didgen.yaml"

// Manifest is the project file. Relative paths are relative to the
// directory holding it.
type Manifest struct {
	Path      string   `yaml:"-"`
	Input     string   `yaml:"input"`
	Output    string   `yaml:"output,omitempty"`
	Trait     string   `yaml:"trait,omitempty"`
	Derive    []string `yaml:"derive,omitempty"`
	LineWidth int      `yaml:"line_width,omitempty"`
	Indent    int      `yaml:"indent,omitempty"`
}

func Default() *Manifest {
	return &Manifest{Input: "service.did.yaml"}
}

func Load(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	m := Default()
	if err := yaml.Unmarshal(b, m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	m.Path = path
	if m.Input == "" {
		return nil, fmt.Errorf("%s: input must not be empty", path)
	}
	if m.LineWidth < 0 || m.Indent < 0 {
		return nil, fmt.Errorf("%s: line_width and indent must not be negative", path)
	}
	return m, nil
}

// Dir is the directory relative paths resolve against.
func (m *Manifest) Dir() string {
	if m.Path == "" {
		return "."
	}
	return filepath.Dir(m.Path)
}

func (m *Manifest) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir(), p)
}

func (m *Manifest) InputPath() string { return m.resolve(m.Input) }

// OutputPath is empty when output goes to stdout.
func (m *Manifest) OutputPath() string { return m.resolve(m.Output) }

func (m *Manifest) EmitOptions() codegen.Options {
	return codegen.Options{
		TraitName: m.Trait,
		Derive:    m.Derive,
		LineWidth: m.LineWidth,
		Indent:    m.Indent,
	}
}

// Marshal renders m the way Init writes it.
func (m *Manifest) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}
