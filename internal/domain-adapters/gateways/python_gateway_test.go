package gateways

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ochairo/quizpack/internal/domain/entities"
)

// writeFakePython writes a shell script standing in for the interpreter. It
// logs its arguments to calls.log and answers the probes the gateway sends.
func writeFakePython(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "python3")
	script := "#!/bin/sh\necho \"$@\" >> \"" + filepath.Join(dir, "calls.log") + "\"\n" + body
	//nolint:gosec // G306: fake interpreter must be executable
	if err := os.WriteFile(path, []byte(script), 0700); err != nil {
		t.Fatalf("Failed to write fake interpreter: %v", err)
	}
	return path
}

func readCalls(t *testing.T, python string) string {
	t.Helper()
	//nolint:gosec // G304: test log file
	data, err := os.ReadFile(filepath.Join(filepath.Dir(python), "calls.log"))
	if err != nil {
		return ""
	}
	return string(data)
}

func TestPythonGateway_Locate_Missing(t *testing.T) {
	g := NewPythonGateway("python3-definitely-missing", t.TempDir(), NewCommandRunner(nil), nil)

	_, err := g.Locate()
	if !errors.Is(err, entities.ErrInterpreterNotFound) {
		t.Fatalf("Locate() error = %v, want ErrInterpreterNotFound", err)
	}
}

func TestPythonGateway_InstallPackages(t *testing.T) {
	python := writeFakePython(t, "exit 0\n")
	g := NewPythonGateway(python, t.TempDir(), NewCommandRunner(nil), nil)

	if err := g.InstallPackages(context.Background(), []string{"anthropic", "mcp[cli]"}); err != nil {
		t.Fatalf("InstallPackages() error = %v", err)
	}

	if calls := readCalls(t, python); !strings.Contains(calls, "-m pip install -q anthropic mcp[cli]") {
		t.Errorf("unexpected pip invocation: %q", calls)
	}
}

func TestPythonGateway_InstallPackages_Failure(t *testing.T) {
	python := writeFakePython(t, "echo 'No matching distribution' >&2\nexit 1\n")
	g := NewPythonGateway(python, t.TempDir(), NewCommandRunner(nil), nil)

	err := g.InstallPackages(context.Background(), []string{"groq"})
	var cmdErr *entities.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("InstallPackages() error = %v, want *entities.CommandError", err)
	}
	if !strings.Contains(cmdErr.Stderr, "No matching distribution") {
		t.Errorf("CommandError.Stderr = %q", cmdErr.Stderr)
	}
}

func TestPythonGateway_CollectPackage(t *testing.T) {
	python := writeFakePython(t, `printf '{"datas": [["/site/mcp/py.typed", "mcp"]], "binaries": [], "hiddenimports": ["mcp", "mcp.server"]}'
`)
	g := NewPythonGateway(python, t.TempDir(), NewCommandRunner(nil), nil)

	pkg, err := g.CollectPackage(context.Background(), "mcp")
	if err != nil {
		t.Fatalf("CollectPackage() error = %v", err)
	}

	if pkg.Name != "mcp" || len(pkg.HiddenImports) != 2 {
		t.Errorf("CollectPackage() = %+v", pkg)
	}
	if len(pkg.Datas) != 1 || pkg.Datas[0].Destination != "mcp" {
		t.Errorf("CollectPackage() datas = %+v", pkg.Datas)
	}
}

func TestPythonGateway_CollectPackage_BadOutput(t *testing.T) {
	python := writeFakePython(t, "echo 'Traceback (most recent call last)'\n")
	g := NewPythonGateway(python, t.TempDir(), NewCommandRunner(nil), nil)

	if _, err := g.CollectPackage(context.Background(), "typer"); err == nil {
		t.Error("CollectPackage() should fail on non-JSON output")
	}
}

func TestPythonGateway_ModuleDir(t *testing.T) {
	python := writeFakePython(t, "echo /site-packages/PyInstaller\n")
	g := NewPythonGateway(python, t.TempDir(), NewCommandRunner(nil), nil)

	dir, err := g.ModuleDir(context.Background(), "PyInstaller")
	if err != nil {
		t.Fatalf("ModuleDir() error = %v", err)
	}
	if dir != "/site-packages/PyInstaller" {
		t.Errorf("ModuleDir() = %q", dir)
	}
}

func TestParseCollectOutput_RejectsBadPairs(t *testing.T) {
	_, err := parseCollectOutput("openai", `{"datas": [["only-source"]], "binaries": [], "hiddenimports": []}`)
	if err == nil {
		t.Error("parseCollectOutput() should reject a pair with one element")
	}
}
