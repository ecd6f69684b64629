package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"didgen/internal/diag"
	"didgen/internal/manifest"
)

type Result struct {
	Manifest *manifest.Manifest
	Doc      *Document
}

const sampleInput = `format: "1.0"
types:
  Profile:
    record:
      - {name: name, type: text}
      - {name: age, type: {opt: nat8}}
actor:
  service:
    - name: get_profile
      type: {func: {args: [principal], rets: [{var: Profile}], modes: [query]}}
`

// Init writes a manifest and a sample input into dir. Existing files are
// kept; an existing manifest decides where the sample goes.
func Init(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return err
	}
	mani := manifest.Default()
	mani.Output = "src/service.rs"

	mani.Path = filepath.Join(abs, manifest.FileName)
	if _, err := os.Stat(mani.Path); os.IsNotExist(err) {
		b, err := mani.Marshal()
		if err != nil {
			return err
		}
		if err := os.WriteFile(mani.Path, b, 0o644); err != nil {
			return err
		}
	} else if mani, err = manifest.Load(mani.Path); err != nil {
		return err
	}

	inputPath := mani.InputPath()
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(inputPath), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(inputPath, []byte(sampleInput), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// LoadProject finds the nearest didgen.yaml at or above dir and decodes the
// input it names. Without a manifest the default input in dir is used.
func LoadProject(dir string) (*Result, *diag.Bag, error) {
	root, maniPath, err := findProjectRoot(dir)
	if err != nil {
		return nil, nil, err
	}
	var mani *manifest.Manifest
	if maniPath != "" {
		mani, err = manifest.Load(maniPath)
		if err != nil {
			return nil, nil, err
		}
	} else {
		mani = manifest.Default()
		mani.Path = filepath.Join(root, manifest.FileName)
	}
	return load(root, mani)
}

// LoadManifest decodes the input named by an explicit manifest path.
func LoadManifest(path string) (*Result, *diag.Bag, error) {
	mani, err := manifest.Load(path)
	if err != nil {
		return nil, nil, err
	}
	root, err := filepath.Abs(mani.Dir())
	if err != nil {
		return nil, nil, err
	}
	return load(root, mani)
}

// LoadFile decodes a single input document with default settings.
func LoadFile(path string) (*Result, *diag.Bag, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, err
	}
	mani := manifest.Default()
	mani.Path = filepath.Join(filepath.Dir(abs), manifest.FileName)
	mani.Input = filepath.Base(abs)
	return load(filepath.Dir(abs), mani)
}

func load(root string, mani *manifest.Manifest) (*Result, *diag.Bag, error) {
	inputPath := mani.InputPath()
	b, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read input: %w", err)
	}
	name := strings.TrimPrefix(inputPath, root+string(filepath.Separator))
	doc, diags := Decode(name, b)
	res := &Result{Manifest: mani}
	if diags.HasErrors() {
		return res, diags, nil
	}
	res.Doc = doc
	return res, diags, nil
}

func findProjectRoot(dir string) (root string, manifestPath string, err error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", "", err
	}
	cur := abs
	for {
		mp := filepath.Join(cur, manifest.FileName)
		if _, err := os.Stat(mp); err == nil {
			return cur, mp, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return abs, "", nil
}
