package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/quizpack/internal/domain/entities"
)

const (
	malformedCall = `if re.search(r"[\\/]" modnm):`
	correctedCall = `if re.search(r"[\\/]", modnm):`
)

func quizProfile() *entities.BuildProfile {
	return &entities.BuildProfile{
		Name:        "quiz_generator",
		EntryPoint:  "quiz_generator_server.py",
		Interpreter: "python3",
		Install: entities.InstallSets{
			PyInstaller: []string{"anthropic", "mcp[cli]", "openai", "groq", "pyinstaller", "typer"},
			Py2App:      []string{"anthropic", "mcp[cli]", "openai", "groq", "py2app", "typer"},
		},
		Collect: []entities.PackageSpec{
			{Name: "anthropic", CollectAll: true},
			{Name: "mcp", CollectAll: true},
			{Name: "openai", CollectAll: true},
			{Name: "groq", CollectAll: true},
			{Name: "typer", CollectAll: true},
		},
		Hidden: []string{"anthropic", "mcp", "mcp.server.fastmcp", "openai", "groq", "json", "typer"},
		Datas: []entities.DataFileMapping{
			{Source: "logs", Destination: "logs"},
			{Source: "output", Destination: "output"},
		},
		Executable: entities.ExecutableOptions{
			Name:          "quiz_generator",
			OneFile:       true,
			ArgvEmulation: true,
			Console:       true,
			UPX:           true,
		},
		Patch: entities.PatchDescriptor{
			Module:  "PyInstaller",
			Target:  "building/build_main.py",
			Search:  malformedCall,
			Replace: correctedCall,
		},
		App: entities.AppBundleConfig{
			BundleName:       "Quiz Generator",
			BundleIdentifier: "com.quizgenerator",
			Version:          "1.0.0",
		},
		Archive: entities.ArchiveConfig{
			Platform: "mac",
			Variant:  "standalone",
			APIKeys:  []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY"},
		},
	}
}

type mockProfileRepository struct {
	profile *entities.BuildProfile
	err     error
}

func (m *mockProfileRepository) GetProfile(_ context.Context, _ string) (*entities.BuildProfile, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.profile, nil
}

func (m *mockProfileRepository) ListProfiles(_ context.Context) ([]*entities.BuildProfile, error) {
	return []*entities.BuildProfile{m.profile}, nil
}

// mockInterpreter stands in for the Python toolchain. A successful build
// writes dist/<name> under root, or dist/<name>/<name> with a bundled
// library when oneFolder is set.
type mockInterpreter struct {
	root        string
	oneFolder   bool
	locateErr   error
	installErr  error
	buildErr    error
	moduleDir   string
	moduleErr   error
	failProbes  map[string]bool
	installs    int
	builds      int
	probed      []string
	onBuild     func()
	executables []string
}

func (m *mockInterpreter) Locate() (string, error) {
	if m.locateErr != nil {
		return "", m.locateErr
	}
	return "/usr/bin/python3", nil
}

func (m *mockInterpreter) InstallPackages(_ context.Context, _ []string) error {
	m.installs++
	return m.installErr
}

func (m *mockInterpreter) CollectPackage(_ context.Context, name string) (*entities.CollectedPackage, error) {
	m.probed = append(m.probed, name)
	if m.failProbes[name] {
		return nil, fmt.Errorf("No module named '%s'", name)
	}
	return &entities.CollectedPackage{
		Name:          name,
		HiddenImports: []string{name, name + "._internal"},
	}, nil
}

func (m *mockInterpreter) ModuleDir(_ context.Context, _ string) (string, error) {
	return m.moduleDir, m.moduleErr
}

func (m *mockInterpreter) RunPyInstaller(_ context.Context, _ string) error {
	if !m.oneFolder {
		return m.build("quiz_generator")
	}
	if err := m.build(filepath.Join("quiz_generator", "quiz_generator")); err != nil {
		return err
	}
	return writeOneFolderLib(filepath.Join(m.root, "dist", "quiz_generator"))
}

// writeOneFolderLib adds the libraries a one-folder build places next to the executable
func writeOneFolderLib(dir string) error {
	lib := filepath.Join(dir, "_internal", "libpython3.12.dylib")
	if err := os.MkdirAll(filepath.Dir(lib), 0750); err != nil {
		return err
	}
	if err := os.WriteFile(lib, []byte("lib"), 0600); err != nil {
		return err
	}
	return os.Symlink(filepath.Join("_internal", "libpython3.12.dylib"), filepath.Join(dir, "Python"))
}

func (m *mockInterpreter) RunPy2App(_ context.Context, _ string) error {
	return m.build(filepath.Join("quiz_generator_server.app", "Contents", "MacOS", "quiz_generator_server"))
}

func (m *mockInterpreter) build(rel string) error {
	m.builds++
	if m.onBuild != nil {
		m.onBuild()
	}
	if m.buildErr != nil {
		return m.buildErr
	}
	path := filepath.Join(m.root, "dist", rel)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	m.executables = append(m.executables, path)
	return os.WriteFile(path, []byte("binary"), 0600)
}

// countingPatcher wraps a real patcher and records the calls made to it
type countingPatcher struct {
	inner     Patcher
	backupErr error
	backups   int
	applies   int
	restores  int
}

func (c *countingPatcher) Backup(target, backup string) error {
	c.backups++
	if c.backupErr != nil {
		return c.backupErr
	}
	return c.inner.Backup(target, backup)
}

func (c *countingPatcher) Apply(target string, d entities.PatchDescriptor) (entities.PatchState, error) {
	c.applies++
	return c.inner.Apply(target, d)
}

func (c *countingPatcher) Restore(target, backup string) error {
	c.restores++
	return c.inner.Restore(target, backup)
}

var errBuild = errors.New("PyInstaller exited with status 1")
