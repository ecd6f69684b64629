package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"didgen/internal/loader"
)

// bytesLogger is a goroutine-safe sink for slog output.
type bytesLogger struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *bytesLogger) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *bytesLogger) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"--config", "a.yaml", "-o", "out.rs", "--trait=Api", "--watch", "-v", "proj"})
	require.NoError(t, err)
	require.Equal(t, options{
		path:    "proj",
		config:  "a.yaml",
		out:     "out.rs",
		trait:   "Api",
		watch:   true,
		verbose: true,
	}, opts)

	opts, err = parseOptions(nil)
	require.NoError(t, err)
	require.Equal(t, options{path: "."}, opts)

	opts, err = parseOptions([]string{"--out=-", "--config=x"})
	require.NoError(t, err)
	require.Equal(t, "-", opts.out)
	require.Equal(t, "x", opts.config)
}

func TestParseOptionsErrors(t *testing.T) {
	_, err := parseOptions([]string{"-o"})
	require.EqualError(t, err, "missing value for -o")
	_, err = parseOptions([]string{"--bogus"})
	require.EqualError(t, err, "unknown flag: --bogus")
	_, err = parseOptions([]string{"a", "b"})
	require.EqualError(t, err, "unexpected extra arg: b")
}

func TestGenRustFromInitProject(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, loader.Init(dir))

	logs := &bytesLogger{}
	var stdout, stderr bytes.Buffer
	err := genRust(options{path: dir}, &stdout, &stderr, newLogger(logs, false))
	require.NoError(t, err)
	require.Empty(t, stdout.String())
	require.Contains(t, logs.String(), "wrote bindings")

	b, err := os.ReadFile(filepath.Join(dir, "src", "service.rs"))
	require.NoError(t, err)
	src := string(b)
	require.Contains(t, src, "struct Profile { name: String, age: Option<u8> }\n")
	require.Contains(t, src, "pub trait SERVICE {\n    fn get_profile(arg0: candid::Principal) -> (Profile);\n}\n")
}

func TestGenRustToStdoutWithTraitOverride(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "api.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
actor: {service: [{name: ping, type: {func: {}}}]}
`), 0o644))

	var stdout, stderr bytes.Buffer
	err := genRust(options{path: p, trait: "Pinger"}, &stdout, &stderr, newLogger(io.Discard, false))
	require.NoError(t, err)
	require.Contains(t, stdout.String(), "pub trait Pinger {\n    fn ping() -> ();\n}\n")
}

func TestGenRustReportsDiagnostics(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "api.yaml")
	require.NoError(t, os.WriteFile(p, []byte("types:\n  T: natural\n"), 0o644))

	var stdout, stderr bytes.Buffer
	err := genRust(options{path: p}, &stdout, &stderr, newLogger(io.Discard, false))
	require.ErrorIs(t, err, errInvalidInput)
	require.Contains(t, stderr.String(), "api.yaml:2:6: error: unknown primitive type \"natural\"")
	require.Empty(t, stdout.String())
}

func TestGenRustContractViolation(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "api.yaml")
	require.NoError(t, os.WriteFile(p, []byte("actor: {var: Missing}\n"), 0o644))

	var stdout bytes.Buffer
	err := genRust(options{path: p}, &stdout, io.Discard, newLogger(io.Discard, false))
	require.Error(t, err)
	require.Contains(t, err.Error(), "contract violation")
	require.Contains(t, err.Error(), p)
}

func TestGenRustLogsCollisions(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "api.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
types:
  A_b: {record: [{name: y, type: nat}]}
  A: {record: [{name: b, type: {record: [{name: x, type: nat}]}}]}
`), 0o644))

	logs := &bytesLogger{}
	var stdout bytes.Buffer
	require.NoError(t, genRust(options{path: p, out: "-"}, &stdout, io.Discard, newLogger(logs, false)))
	require.Contains(t, logs.String(), "level=WARN")
	require.Contains(t, logs.String(), "name=A_b")
	require.Contains(t, logs.String(), "declared=true")
}

func TestDumpNominal(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "api.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
types:
  Foo: {record: [{name: bar, type: {vec: {record: [{name: x, type: nat}]}}}]}
`), 0o644))

	var stdout bytes.Buffer
	require.NoError(t, dumpNominal(options{path: p}, &stdout, io.Discard, newLogger(io.Discard, true)))
	require.Equal(t,
		"type Foo_bar_item = record { x : nat; };\n"+
			"type Foo = record { bar : vec Foo_bar_item; };\n",
		stdout.String())
}

func TestLoadMissingPath(t *testing.T) {
	_, _, err := load(options{path: filepath.Join(t.TempDir(), "nope")})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatchRegeneratesOnWrite(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "api.yaml")
	require.NoError(t, os.WriteFile(p, []byte("types: {}\n"), 0o644))

	runs := make(chan struct{}, 16)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, newLogger(io.Discard, false), p, func() error {
			runs <- struct{}{}
			return errors.New("keep going")
		})
	}()

	waitRun := func() {
		t.Helper()
		select {
		case <-runs:
		case <-time.After(5 * time.Second):
			t.Fatal("generation did not run")
		}
	}
	waitRun()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(p, []byte("types: {T: nat}\n"), 0o644))
	waitRun()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
