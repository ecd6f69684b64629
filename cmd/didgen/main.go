package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"didgen/internal/codegen"
	"didgen/internal/diag"
	"didgen/internal/idl"
	"didgen/internal/loader"
	"didgen/internal/nominal"
)

func usage() {
	fmt.Fprintln(os.Stderr, "didgen - Rust bindings from Candid type environments")
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  didgen init [dir]")
	fmt.Fprintln(os.Stderr, "  didgen rust [flags] [dir|file]")
	fmt.Fprintln(os.Stderr, "  didgen nominal [flags] [dir|file]")
	fmt.Fprintln(os.Stderr, "  didgen help")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "flags:")
	fmt.Fprintln(os.Stderr, "  --config=<file>     manifest to use instead of searching for didgen.yaml")
	fmt.Fprintln(os.Stderr, "  -o <file>           output file, - for stdout (rust only)")
	fmt.Fprintln(os.Stderr, "  --trait=<name>      name of the service trait (rust only)")
	fmt.Fprintln(os.Stderr, "  --watch             regenerate whenever the input changes (rust only)")
	fmt.Fprintln(os.Stderr, "  --verbose, -v       debug logging")
}

var errInvalidInput = errors.New("input has errors")

type options struct {
	path    string
	config  string
	out     string
	trait   string
	watch   bool
	verbose bool
}

func parseOptions(args []string) (opts options, err error) {
	opts.path = "."
	setPath := false
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--watch":
			opts.watch = true
			continue
		case a == "--verbose" || a == "-v":
			opts.verbose = true
			continue
		case a == "-o" || a == "--out" || a == "--config" || a == "--trait":
			if i+1 >= len(args) {
				return options{}, fmt.Errorf("missing value for %s", a)
			}
			i++
			switch a {
			case "--config":
				opts.config = args[i]
			case "--trait":
				opts.trait = args[i]
			default:
				opts.out = args[i]
			}
			continue
		}
		if v, ok := strings.CutPrefix(a, "--out="); ok {
			opts.out = v
			continue
		}
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			opts.config = v
			continue
		}
		if v, ok := strings.CutPrefix(a, "--trait="); ok {
			opts.trait = v
			continue
		}
		if strings.HasPrefix(a, "-") {
			return options{}, fmt.Errorf("unknown flag: %s", a)
		}
		if setPath {
			return options{}, fmt.Errorf("unexpected extra arg: %s", a)
		}
		opts.path = a
		setPath = true
	}
	return opts, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// load picks the input the way the flags ask for: an explicit manifest, a
// single document, or the project enclosing a directory.
func load(opts options) (*loader.Result, *diag.Bag, error) {
	if opts.config != "" {
		return loader.LoadManifest(opts.config)
	}
	st, err := os.Stat(opts.path)
	if err != nil {
		return nil, nil, err
	}
	if st.IsDir() {
		return loader.LoadProject(opts.path)
	}
	return loader.LoadFile(opts.path)
}

func loadChecked(opts options, stderr io.Writer) (*loader.Result, error) {
	res, diags, err := load(opts)
	if err != nil {
		return nil, err
	}
	diag.Print(stderr, diags)
	if diags.HasErrors() {
		return nil, errInvalidInput
	}
	return res, nil
}

func reportCollisions(logger *slog.Logger, env *idl.Env, actor *idl.Type) {
	for _, c := range nominal.Collisions(env, actor) {
		sites := make([]string, len(c.Paths))
		for i, p := range c.Paths {
			sites[i] = p.Name()
		}
		logger.Warn("synthesized type name collides; the last definition wins",
			"name", c.Name, "declared", c.Declared, "sites", strings.Join(sites, ", "))
	}
}

// genRust runs one generation. Output goes to stdout unless the manifest or
// -o names a file.
func genRust(opts options, stdout, stderr io.Writer, logger *slog.Logger) error {
	res, err := loadChecked(opts, stderr)
	if err != nil {
		return err
	}
	doc := res.Doc
	reportCollisions(logger, doc.Env, doc.Actor)

	emitOpts := res.Manifest.EmitOptions()
	if opts.trait != "" {
		emitOpts.TraitName = opts.trait
	}
	src, err := codegen.EmitRust(doc.Env, doc.Actor, emitOpts)
	if err != nil {
		return fmt.Errorf("%s: %w", res.Manifest.InputPath(), err)
	}

	out := res.Manifest.OutputPath()
	if opts.out != "" {
		out = opts.out
	}
	if out == "" || out == "-" {
		_, err := io.WriteString(stdout, src)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(out, []byte(src), 0o644); err != nil {
		return err
	}
	logger.Info("wrote bindings", "out", out, "types", doc.Env.Len())
	return nil
}

// dumpNominal prints the environment after hoisting, in Candid syntax.
func dumpNominal(opts options, stdout, stderr io.Writer, logger *slog.Logger) error {
	res, err := loadChecked(opts, stderr)
	if err != nil {
		return err
	}
	reportCollisions(logger, res.Doc.Env, res.Doc.Actor)
	env, actor := nominal.NominalizeAll(res.Doc.Env, res.Doc.Actor)
	logger.Debug("nominalized", "before", res.Doc.Env.Len(), "after", env.Len())
	_, err = io.WriteString(stdout, idl.Format(env, actor))
	return err
}

// inputPath is the file watch mode follows.
func inputPath(opts options) (string, error) {
	res, _, err := load(opts)
	if err != nil {
		return "", err
	}
	return res.Manifest.InputPath(), nil
}

func rustCommand(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, opts.verbose)
	if !opts.watch {
		return genRust(opts, os.Stdout, os.Stderr, logger)
	}
	path, err := inputPath(opts)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return watch(ctx, logger, path, func() error {
		return genRust(opts, os.Stdout, os.Stderr, logger)
	})
}

func nominalCommand(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	if opts.watch || opts.out != "" || opts.trait != "" {
		return fmt.Errorf("nominal only accepts --config, --verbose and a path")
	}
	return dumpNominal(opts, os.Stdout, os.Stderr, newLogger(os.Stderr, opts.verbose))
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "init":
		dir := "."
		if len(os.Args) >= 3 {
			dir = os.Args[2]
		}
		if err := loader.Init(dir); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	case "rust":
		if err := rustCommand(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	case "nominal":
		if err := nominalCommand(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		os.Exit(1)
	}
}
