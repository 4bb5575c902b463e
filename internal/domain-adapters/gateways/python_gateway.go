package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ochairo/quizpack/internal/domain/entities"
	"github.com/ochairo/quizpack/internal/domain/interfaces"
)

// collectAllScript prints the PyInstaller collect_all result for argv[1] as JSON
const collectAllScript = `import json, sys
from PyInstaller.utils.hooks import collect_all
datas, binaries, hiddenimports = collect_all(sys.argv[1])
json.dump({"datas": [list(d) for d in datas], "binaries": [list(b) for b in binaries], "hiddenimports": list(hiddenimports)}, sys.stdout)
`

// moduleDirScript prints the install directory of the package named by argv[1]
const moduleDirScript = `import importlib, sys
print(importlib.import_module(sys.argv[1]).__path__[0])
`

// PythonGateway drives the Python interpreter used to build the application
type PythonGateway struct {
	interpreter string
	resolved    string
	workDir     string
	runner      *CommandRunner
	logger      interfaces.Logger
	lookPath    func(string) (string, error)
}

// NewPythonGateway creates a gateway for interpreter, running commands in workDir
func NewPythonGateway(interpreter, workDir string, runner *CommandRunner, logger interfaces.Logger) *PythonGateway {
	if interpreter == "" {
		interpreter = "python3"
	}
	return &PythonGateway{
		interpreter: interpreter,
		workDir:     workDir,
		runner:      runner,
		logger:      interfaces.OrNoOp(logger),
		lookPath:    exec.LookPath,
	}
}

// Locate resolves the interpreter on PATH
func (g *PythonGateway) Locate() (string, error) {
	if g.resolved != "" {
		return g.resolved, nil
	}

	path, err := g.lookPath(g.interpreter)
	if err != nil {
		return "", fmt.Errorf("%w: %s is not installed or not in PATH: %v", entities.ErrInterpreterNotFound, g.interpreter, err)
	}

	g.resolved = path
	g.logger.Debug("interpreter located", interfaces.F("path", path))
	return path, nil
}

// InstallPackages installs requirement specs quietly with pip
func (g *PythonGateway) InstallPackages(ctx context.Context, packages []string) error {
	if len(packages) == 0 {
		return nil
	}

	args := append([]string{"-m", "pip", "install", "-q"}, packages...)
	_, err := g.run(ctx, "pip install", args...)
	return err
}

// CollectPackage runs a collect-all probe for one installed package
func (g *PythonGateway) CollectPackage(ctx context.Context, name string) (*entities.CollectedPackage, error) {
	stdout, err := g.run(ctx, "collect "+name, "-c", collectAllScript, name)
	if err != nil {
		return nil, err
	}
	return parseCollectOutput(name, stdout)
}

// ModuleDir returns the install directory of an importable package
func (g *PythonGateway) ModuleDir(ctx context.Context, module string) (string, error) {
	stdout, err := g.run(ctx, "locate "+module, "-c", moduleDirScript, module)
	if err != nil {
		return "", err
	}

	dir := strings.TrimSpace(stdout)
	if dir == "" {
		return "", fmt.Errorf("interpreter reported no install directory for %s", module)
	}
	return dir, nil
}

// RunPyInstaller builds the executable described by specPath
func (g *PythonGateway) RunPyInstaller(ctx context.Context, specPath string) error {
	_, err := g.run(ctx, "PyInstaller", "-m", "PyInstaller", "--clean", specPath)
	return err
}

// RunPy2App builds the app bundle described by setupPath
func (g *PythonGateway) RunPy2App(ctx context.Context, setupPath string) error {
	_, err := g.run(ctx, "py2app", setupPath, "py2app")
	return err
}

func (g *PythonGateway) run(ctx context.Context, description string, args ...string) (string, error) {
	python, err := g.Locate()
	if err != nil {
		return "", err
	}

	result := g.runner.Run(ctx, RunConfig{
		Name:        python,
		Args:        args,
		WorkingDir:  g.workDir,
		Description: description,
	})
	if err := result.Err(description); err != nil {
		return result.Stdout, err
	}
	return result.Stdout, nil
}

type collectOutput struct {
	Datas         [][]string `json:"datas"`
	Binaries      [][]string `json:"binaries"`
	HiddenImports []string   `json:"hiddenimports"`
}

func parseCollectOutput(name, stdout string) (*entities.CollectedPackage, error) {
	var out collectOutput
	if err := json.Unmarshal([]byte(strings.TrimSpace(stdout)), &out); err != nil {
		return nil, fmt.Errorf("failed to parse collect output for %s: %w", name, err)
	}

	datas, err := toMappings(out.Datas)
	if err != nil {
		return nil, fmt.Errorf("invalid datas for %s: %w", name, err)
	}
	binaries, err := toMappings(out.Binaries)
	if err != nil {
		return nil, fmt.Errorf("invalid binaries for %s: %w", name, err)
	}

	return &entities.CollectedPackage{
		Name:          name,
		HiddenImports: out.HiddenImports,
		Datas:         datas,
		Binaries:      binaries,
	}, nil
}

func toMappings(pairs [][]string) ([]entities.DataFileMapping, error) {
	mappings := make([]entities.DataFileMapping, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("expected (source, destination) pair, got %v", pair)
		}
		mappings = append(mappings, entities.DataFileMapping{Source: pair[0], Destination: pair[1]})
	}
	return mappings, nil
}
