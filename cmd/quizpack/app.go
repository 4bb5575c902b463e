package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ochairo/quizpack/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/quizpack/internal/domain-orchestrators"
	"github.com/ochairo/quizpack/internal/domain/interfaces"
	"github.com/ochairo/quizpack/internal/external-adapters/yaml"
	"github.com/ochairo/quizpack/internal/external-adapters/zaplog"
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	projectDir string
	profile    string
	logLevel   string
	logFile    string
	jsonOutput string
}

// app wires adapters and orchestrators for one invocation
type app struct {
	opts   globalOptions
	logger interfaces.Logger
	closer func() error
}

func newApp() *app {
	return &app{logger: &interfaces.NoOpLogger{}, closer: func() error { return nil }}
}

// close releases the logger. Cobra skips post-run hooks on failure, so callers
// invoke it after Execute.
func (a *app) close() error {
	return a.closer()
}

func (a *app) rootCommand() *cobra.Command {

	root := &cobra.Command{
		Use:   "quizpack",
		Short: "Build and package the Quiz Generator for macOS",
		Long: `quizpack drives pip, PyInstaller and py2app to build the Quiz Generator
executable, and assembles the distributable archive.

Typical flow:
  quizpack build       # or build-patched / build-app
  quizpack package`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initLogging(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.projectDir, "project-dir", ".", "Project directory containing the application sources")
	flags.StringVar(&a.opts.profile, "profile", "", "Build profile name or path to a profile YAML file (default: built-in quiz_generator)")
	flags.StringVar(&a.opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	flags.StringVar(&a.opts.logFile, "log-file", "", "Also write JSON logs to this file (rotated)")
	flags.StringVar(&a.opts.jsonOutput, "json-output", "", "Write a JSON build report to this file")

	root.AddCommand(
		newBuildCommand(a, orchestrators.PipelineCollect),
		newBuildCommand(a, orchestrators.PipelinePatched),
		newBuildCommand(a, orchestrators.PipelineApp),
		newPackageCommand(a),
		newPatchCommand(a),
		newRenderCommand(a),
		newProfilesCommand(a),
		newVerifyCommand(a),
	)

	return root
}

func (a *app) initLogging(cmd *cobra.Command) error {
	logger, err := zaplog.New(zaplog.Options{
		Level:   a.opts.logLevel,
		Console: cmd.ErrOrStderr(),
		File:    a.opts.logFile,
	})
	if err != nil {
		return err
	}
	a.logger = logger
	a.closer = logger.Close
	return nil
}

// profileSource splits --profile into a repository directory and a profile name
func (a *app) profileSource() (dir, name string) {
	p := a.opts.profile
	if name, ok := yaml.TrimProfileExt(filepath.Base(p)); ok {
		return filepath.Dir(p), name
	}
	return a.opts.projectDir, p
}

func (a *app) profiles() (*yaml.ProfileRepository, string) {
	dir, name := a.profileSource()
	return yaml.NewProfileRepository(dir, a.logger), name
}

func (a *app) workspace() (*gateways.Workspace, error) {
	info, err := os.Stat(a.opts.projectDir)
	if err != nil {
		return nil, fmt.Errorf("project directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project directory %s is not a directory", a.opts.projectDir)
	}
	return gateways.NewWorkspace(a.opts.projectDir, a.logger), nil
}

// buildOrchestrator wires the Python toolchain named by the selected profile
func (a *app) buildOrchestrator(ctx context.Context) (*orchestrators.BuildOrchestrator, string, error) {
	repo, name := a.profiles()
	profile, err := repo.GetProfile(ctx, name)
	if err != nil {
		return nil, "", err
	}

	ws, err := a.workspace()
	if err != nil {
		return nil, "", err
	}

	python := gateways.NewPythonGateway(profile.Interpreter, ws.Root(), gateways.NewCommandRunner(a.logger), a.logger)
	orch := orchestrators.NewBuildOrchestrator(
		repo,
		python,
		ws,
		gateways.NewSourcePatcher(a.logger),
		orchestrators.BuildOrchestratorConfig{},
		a.logger,
	)
	return orch, name, nil
}
