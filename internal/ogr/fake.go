package ogr

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type (
	// FakeTools are shell scripts standing in for ogr2ogr and ogrinfo in
	// tests. The fake ogr2ogr records its arguments and the fake ogrinfo
	// prints canned output.
	FakeTools struct {
		Config

		argsPath       string
		ogrinfoOutput  string
		ogrinfoExit    int
		ogr2ogrStderr  string
		ogr2ogrFailure bool
	}

	FakeToolsOption func(*FakeTools)
)

// WithOgrinfoOutput sets the output of the fake ogrinfo.
func WithOgrinfoOutput(output string) FakeToolsOption {
	return func(f *FakeTools) {
		f.ogrinfoOutput = output
	}
}

// WithOgrinfoFailure makes the fake ogrinfo fail as it does when it cannot
// open a dataset.
func WithOgrinfoFailure() FakeToolsOption {
	return func(f *FakeTools) {
		f.ogrinfoExit = 1
	}
}

// WithOgr2ogrFailure makes the fake ogr2ogr fail, writing msg to stderr.
func WithOgr2ogrFailure(msg string) FakeToolsOption {
	return func(f *FakeTools) {
		f.ogr2ogrFailure = true
		f.ogr2ogrStderr = msg
	}
}

func NewFakeTools(t *testing.T, opts ...FakeToolsOption) *FakeTools {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake ogr tools are shell scripts")
	}
	dir := t.TempDir()
	f := &FakeTools{
		Config: Config{
			Ogr2ogrPath: filepath.Join(dir, "ogr2ogr"),
			OgrinfoPath: filepath.Join(dir, "ogrinfo"),
		},
		argsPath: filepath.Join(dir, "ogr2ogr.args"),
	}
	for _, fn := range opts {
		fn(f)
	}

	ogr2ogr := fmt.Sprintf("#!/bin/sh\nfor arg in \"$@\"; do printf '%%s\\n' \"$arg\"; done >> %s\necho -- >> %s\n",
		shellQuote(f.argsPath), shellQuote(f.argsPath))
	if f.ogr2ogrFailure {
		ogr2ogr += fmt.Sprintf("echo %s >&2\nexit 1\n", shellQuote(f.ogr2ogrStderr))
	}
	ogrinfo := fmt.Sprintf("#!/bin/sh\ncat <<'EOF'\n%s\nEOF\nexit %d\n", f.ogrinfoOutput, f.ogrinfoExit)

	require.NoError(t, os.WriteFile(f.Ogr2ogrPath, []byte(ogr2ogr), 0o755))
	require.NoError(t, os.WriteFile(f.OgrinfoPath, []byte(ogrinfo), 0o755))
	return f
}

// Invocations returns the arguments of each invocation of the fake ogr2ogr.
func (f *FakeTools) Invocations(t *testing.T) [][]string {
	t.Helper()

	data, err := os.ReadFile(f.argsPath)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	var (
		invocations [][]string
		current     []string
	)
	for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
		if line == "--" {
			invocations = append(invocations, current)
			current = nil
			continue
		}
		current = append(current, line)
	}
	return invocations
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
