package orchestrators

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ochairo/quizpack/internal/domain-adapters/gateways"
)

// fakePython writes a /bin/sh interpreter that answers pip, collect_all,
// module lookup and PyInstaller invocations the way the real toolchain would.
func fakePython(t *testing.T, moduleDir string) string {
	t.Helper()
	script := `#!/bin/sh
case "$1" in
  -m)
    case "$2" in
      pip) exit 0 ;;
      PyInstaller)
        if [ -n "$BUILD_STARTED" ]; then : > "$BUILD_STARTED"; exec sleep 30; fi
        mkdir -p dist
        if [ -n "$SNAPSHOT" ]; then cp "$SNAPSHOT" dist/build_main.snapshot; fi
        printf 'binary' > dist/quiz_generator
        exit 0 ;;
    esac ;;
  -c)
    case "$2" in
      *collect_all*)
        if [ "$3" = "groq" ]; then echo "ModuleNotFoundError: No module named 'groq'" >&2; exit 1; fi
        printf '{"datas": [], "binaries": [], "hiddenimports": ["%s.types"]}' "$3"
        exit 0 ;;
      *importlib*)
        echo "` + moduleDir + `"
        exit 0 ;;
    esac ;;
esac
echo "unexpected invocation: $*" >&2
exit 2
`
	path := filepath.Join(t.TempDir(), "python3")
	//nolint:gosec // G306: fake interpreter must be executable
	if err := os.WriteFile(path, []byte(script), 0700); err != nil {
		t.Fatal(err)
	}
	return path
}

func newE2EOrchestrator(t *testing.T, python string) (*BuildOrchestrator, string) {
	t.Helper()
	root := t.TempDir()
	runner := gateways.NewCommandRunner(nil)
	orch := NewBuildOrchestrator(
		&mockProfileRepository{profile: quizProfile()},
		gateways.NewPythonGateway(python, root, runner, nil),
		gateways.NewWorkspace(root, nil),
		gateways.NewSourcePatcher(nil),
		BuildOrchestratorConfig{},
		nil,
	)
	return orch, root
}

func TestPipeline_CollectBuild_EndToEnd(t *testing.T) {
	orch, root := newE2EOrchestrator(t, fakePython(t, ""))

	result, err := orch.Build(context.Background(), "quiz_generator")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(root, "dist", "quiz_generator"))
	if err != nil {
		t.Fatalf("dist/quiz_generator missing: %v", err)
	}
	if info.Mode().Perm() != 0755 {
		t.Errorf("mode = %v, want 0755", info.Mode().Perm())
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Package != "groq" {
		t.Errorf("Warnings = %v, want groq only", result.Warnings)
	}

	spec, _ := os.ReadFile(filepath.Join(root, "quiz_generator.spec"))
	if !strings.Contains(string(spec), "'typer.types'") {
		t.Error("collected imports should be rendered after the failed probe")
	}
}

func TestPipeline_PatchedBuild_EndToEnd(t *testing.T) {
	moduleDir := installBuildMain(t, buildMainSource)
	target := filepath.Join(moduleDir, "building", "build_main.py")
	t.Setenv("SNAPSHOT", target)

	orch, root := newE2EOrchestrator(t, fakePython(t, moduleDir))

	if _, err := orch.BuildPatched(context.Background(), "quiz_generator"); err != nil {
		t.Fatalf("BuildPatched() error = %v", err)
	}

	snapshot, err := os.ReadFile(filepath.Join(root, "dist", "build_main.snapshot"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(snapshot, []byte(correctedCall)) || bytes.Contains(snapshot, []byte(malformedCall)) {
		t.Errorf("build should run against the patched file:\n%s", snapshot)
	}
	assertRestored(t, target)
}

func TestPipeline_PatchedBuild_InterruptedRestores(t *testing.T) {
	moduleDir := installBuildMain(t, buildMainSource)
	target := filepath.Join(moduleDir, "building", "build_main.py")
	started := filepath.Join(t.TempDir(), "started")
	t.Setenv("BUILD_STARTED", started)

	orch, _ := newE2EOrchestrator(t, fakePython(t, moduleDir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		deadline := time.Now().Add(10 * time.Second)
		for time.Now().Before(deadline) {
			if _, err := os.Stat(started); err == nil {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		cancel()
	}()

	begin := time.Now()
	_, err := orch.BuildPatched(ctx, "quiz_generator")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("BuildPatched() error = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(begin); elapsed > 15*time.Second {
		t.Errorf("BuildPatched() took %v after interrupt", elapsed)
	}
	if _, statErr := os.Stat(started); statErr != nil {
		t.Fatal("packaging tool never started")
	}
	assertRestored(t, target)
}
