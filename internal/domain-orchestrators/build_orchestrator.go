// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/ochairo/quizpack/internal/domain/entities"
	"github.com/ochairo/quizpack/internal/domain/interfaces"
	"github.com/ochairo/quizpack/internal/domain/interfaces/repositories"
	"github.com/ochairo/quizpack/internal/domain/services"
)

// Interpreter drives the external Python toolchain
type Interpreter interface {
	Locate() (string, error)
	InstallPackages(ctx context.Context, packages []string) error
	CollectPackage(ctx context.Context, name string) (*entities.CollectedPackage, error)
	ModuleDir(ctx context.Context, module string) (string, error)
	RunPyInstaller(ctx context.Context, specPath string) error
	RunPy2App(ctx context.Context, setupPath string) error
}

// Workspace is the project directory builds and archives are produced in
type Workspace interface {
	Path(rel string) string
	Exists(rel string) bool
	IsDir(rel string) bool
	Prepare(runtimeDirs []string) error
	CheckSources(mappings []entities.DataFileMapping) error
	WriteFile(rel, content string) (string, error)
	MarkExecutable(rel string) (string, error)
	ReplaceDir(rel string) (string, error)
	MakeDir(rel string) error
	CopyFile(src, dst string) error
	CopyTree(src, dst string) error
	Remove(rel string) error
}

// Patcher applies and reverts the packaging tool workaround
type Patcher interface {
	Backup(target, backup string) error
	Apply(target string, d entities.PatchDescriptor) (entities.PatchState, error)
	Restore(target, backup string) error
}

// Pipeline names a build variant
type Pipeline string

// Build pipelines
const (
	PipelineCollect Pipeline = "build"
	PipelinePatched Pipeline = "build-patched"
	PipelineApp     Pipeline = "build-app"
)

// DistDir holds the packaging tool's output
const DistDir = "dist"

// DefaultRuntimeDirs are created before every build and bundled as data
var DefaultRuntimeDirs = []string{"logs", "output"}

// BuildOrchestrator coordinates the build pipelines
type BuildOrchestrator struct {
	profiles    repositories.ProfileRepository
	python      Interpreter
	workspace   Workspace
	patcher     Patcher
	logger      interfaces.Logger
	runtimeDirs []string
}

// BuildOrchestratorConfig holds configuration for the orchestrator
type BuildOrchestratorConfig struct {
	RuntimeDirs []string
}

// NewBuildOrchestrator creates a new build orchestrator
func NewBuildOrchestrator(
	profiles repositories.ProfileRepository,
	python Interpreter,
	workspace Workspace,
	patcher Patcher,
	config BuildOrchestratorConfig,
	logger interfaces.Logger,
) *BuildOrchestrator {
	runtimeDirs := config.RuntimeDirs
	if len(runtimeDirs) == 0 {
		runtimeDirs = DefaultRuntimeDirs
	}

	return &BuildOrchestrator{
		profiles:    profiles,
		python:      python,
		workspace:   workspace,
		patcher:     patcher,
		logger:      interfaces.OrNoOp(logger),
		runtimeDirs: runtimeDirs,
	}
}

// BuildResult contains the result of a build operation
type BuildResult struct {
	Pipeline          Pipeline
	Profile           *entities.BuildProfile
	Executable        *entities.Artifact
	ConfigPath        string
	Warnings          []entities.CollectionWarning
	PatchState        *entities.PatchState
	PreflightDuration time.Duration
	BuildDuration     time.Duration
	TotalDuration     time.Duration
	Success           bool
	Error             error
}

func (r *BuildResult) fail(err error) (*BuildResult, error) {
	r.Error = err
	return r, err
}

// Build runs the collect-all pipeline
func (o *BuildOrchestrator) Build(ctx context.Context, profileName string) (*BuildResult, error) {
	start := time.Now()
	result := &BuildResult{Pipeline: PipelineCollect}

	profile, err := o.prepare(ctx, profileName, pyInstallerDeps, result)
	if err != nil {
		return result.fail(err)
	}

	collection := services.CollectDependencies(ctx, o.python, profile, o.logger)
	result.Warnings = collection.Warnings

	specPath, err := o.writeSpec(profile, collection, SpecFileName(profile, false))
	if err != nil {
		return result.fail(err)
	}
	result.ConfigPath = specPath

	buildStart := time.Now()
	if err := o.python.RunPyInstaller(ctx, specPath); err != nil {
		return result.fail(fmt.Errorf("build failed: %w", err))
	}
	result.BuildDuration = time.Since(buildStart)

	return o.finalize(profile, result, start)
}

// BuildPatched runs the patch-and-build pipeline. The packaging tool source
// file is restored on every exit path once its backup exists.
func (o *BuildOrchestrator) BuildPatched(ctx context.Context, profileName string) (*BuildResult, error) {
	start := time.Now()
	result := &BuildResult{Pipeline: PipelinePatched}

	profile, err := o.prepare(ctx, profileName, pyInstallerDeps, result)
	if err != nil {
		return result.fail(err)
	}

	specPath, err := o.writeSpec(profile, services.StaticCollection(profile), SpecFileName(profile, true))
	if err != nil {
		return result.fail(err)
	}
	result.ConfigPath = specPath

	buildStart := time.Now()
	state, err := o.patchAndBuild(ctx, profile.Patch, specPath)
	result.PatchState = state
	if err != nil {
		return result.fail(err)
	}
	result.BuildDuration = time.Since(buildStart)

	return o.finalize(profile, result, start)
}

// BuildApp runs the py2app pipeline and writes a single-file wrapper into dist/
func (o *BuildOrchestrator) BuildApp(ctx context.Context, profileName string) (*BuildResult, error) {
	start := time.Now()
	result := &BuildResult{Pipeline: PipelineApp}

	profile, err := o.prepare(ctx, profileName, py2AppDeps, result)
	if err != nil {
		return result.fail(err)
	}

	setup, err := services.RenderPy2AppSetup(profile)
	if err != nil {
		return result.fail(err)
	}
	setupPath, err := o.workspace.WriteFile("setup.py", setup)
	if err != nil {
		return result.fail(err)
	}
	result.ConfigPath = setupPath

	buildStart := time.Now()
	if err := o.python.RunPy2App(ctx, setupPath); err != nil {
		return result.fail(fmt.Errorf("build failed: %w", err))
	}
	result.BuildDuration = time.Since(buildStart)

	wrapper, err := services.RenderAppWrapper(profile.ExecutableName(), AppBundleBinary(profile))
	if err != nil {
		return result.fail(err)
	}
	if _, err := o.workspace.WriteFile(path.Join(DistDir, profile.ExecutableName()), wrapper); err != nil {
		return result.fail(err)
	}

	return o.finalize(profile, result, start)
}

// Render writes the packaging configuration without building and returns its path.
// The collect-all variant probes the installed packages; nothing is installed.
func (o *BuildOrchestrator) Render(ctx context.Context, profileName string, patched bool) (string, error) {
	profile, err := o.profiles.GetProfile(ctx, profileName)
	if err != nil {
		return "", fmt.Errorf("failed to load profile: %w", err)
	}

	collection := services.StaticCollection(profile)
	if !patched {
		if _, err := o.python.Locate(); err != nil {
			return "", err
		}
		collection = services.CollectDependencies(ctx, o.python, profile, o.logger)
	}

	return o.writeSpec(profile, collection, SpecFileName(profile, patched))
}

// Patch applies the profile's patch persistently, keeping a backup of the original
func (o *BuildOrchestrator) Patch(ctx context.Context, profileName string) (entities.PatchState, error) {
	profile, target, err := o.locatePatchTarget(ctx, profileName)
	if err != nil {
		return entities.PatchNotFound, err
	}
	d := profile.Patch
	backup := d.BackupPath(target)

	if !o.workspace.Exists(backup) {
		if err := o.patcher.Backup(target, backup); err != nil {
			return entities.PatchNotFound, err
		}
	}

	state, err := o.patcher.Apply(target, d)
	if err != nil {
		return state, err
	}
	if state == entities.PatchNotFound {
		return state, fmt.Errorf("%w in %s; the installed version may not need the fix", entities.ErrPatternNotFound, target)
	}

	o.logger.Info("patch state", interfaces.F("file", target), interfaces.F("state", state.String()))
	return state, nil
}

// Unpatch restores the packaging tool file from the backup left by Patch
func (o *BuildOrchestrator) Unpatch(ctx context.Context, profileName string) error {
	profile, target, err := o.locatePatchTarget(ctx, profileName)
	if err != nil {
		return err
	}
	backup := profile.Patch.BackupPath(target)
	if !o.workspace.Exists(backup) {
		return fmt.Errorf("no backup found at %s", backup)
	}
	return o.patcher.Restore(target, backup)
}

func (o *BuildOrchestrator) locatePatchTarget(ctx context.Context, profileName string) (*entities.BuildProfile, string, error) {
	profile, err := o.profiles.GetProfile(ctx, profileName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load profile: %w", err)
	}
	if profile.Patch.IsZero() {
		return nil, "", fmt.Errorf("profile %s defines no patch", profile.Name)
	}
	if _, err := o.python.Locate(); err != nil {
		return nil, "", err
	}

	moduleDir, err := o.python.ModuleDir(ctx, profile.Patch.Module)
	if err != nil {
		return nil, "", fmt.Errorf("failed to locate %s: %w", profile.Patch.Module, err)
	}
	return profile, profile.Patch.TargetPath(moduleDir), nil
}

// prepare loads the profile, installs dependencies and resets the workspace
func (o *BuildOrchestrator) prepare(
	ctx context.Context,
	profileName string,
	install func(*entities.BuildProfile) []string,
	result *BuildResult,
) (*entities.BuildProfile, error) {
	profile, err := o.profiles.GetProfile(ctx, profileName)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	result.Profile = profile

	preflightStart := time.Now()
	if err := o.preflight(ctx, install(profile)); err != nil {
		return nil, err
	}
	result.PreflightDuration = time.Since(preflightStart)

	if err := o.workspace.Prepare(o.runtimeDirs); err != nil {
		return nil, fmt.Errorf("failed to prepare workspace: %w", err)
	}
	if err := o.workspace.CheckSources(profile.Datas); err != nil {
		return nil, err
	}

	return profile, nil
}

func pyInstallerDeps(p *entities.BuildProfile) []string { return p.Install.PyInstaller }

func py2AppDeps(p *entities.BuildProfile) []string { return p.Install.Py2App }

func (o *BuildOrchestrator) preflight(ctx context.Context, packages []string) error {
	interpreter, err := o.python.Locate()
	if err != nil {
		return err
	}

	o.logger.Info("installing dependencies",
		interfaces.F("interpreter", interpreter),
		interfaces.F("packages", strings.Join(packages, " ")),
	)
	if err := o.python.InstallPackages(ctx, packages); err != nil {
		return fmt.Errorf("failed to install dependencies: %w", err)
	}
	return nil
}

// patchAndBuild runs BACKUP, PATCH, BUILD and RESTORE in order
func (o *BuildOrchestrator) patchAndBuild(ctx context.Context, d entities.PatchDescriptor, specPath string) (state *entities.PatchState, err error) {
	if d.IsZero() {
		return nil, o.runPyInstaller(ctx, specPath)
	}

	moduleDir, err := o.python.ModuleDir(ctx, d.Module)
	if err != nil {
		return nil, fmt.Errorf("failed to locate %s: %w", d.Module, err)
	}
	target := d.TargetPath(moduleDir)
	backup := d.BackupPath(target)

	// A backup left by a standalone patch holds the original bytes.
	if o.workspace.Exists(backup) {
		return nil, fmt.Errorf("%w at %s; run 'quizpack patch --restore' first", entities.ErrBackupExists, backup)
	}
	if err := o.patcher.Backup(target, backup); err != nil {
		return nil, err
	}
	defer func() {
		if restoreErr := o.patcher.Restore(target, backup); restoreErr != nil {
			err = errors.Join(err, restoreErr)
		}
	}()

	applied, err := o.patcher.Apply(target, d)
	if err != nil {
		return nil, fmt.Errorf("failed to patch %s: %w", target, err)
	}
	state = &applied

	switch applied {
	case entities.PatchNotFound:
		o.logger.Warn("patch pattern not found, building against the unmodified file",
			interfaces.F("file", target),
		)
	case entities.PatchAlreadyApplied:
		o.logger.Info("file already patched", interfaces.F("file", target))
	}

	return state, o.runPyInstaller(ctx, specPath)
}

func (o *BuildOrchestrator) runPyInstaller(ctx context.Context, specPath string) error {
	if err := o.python.RunPyInstaller(ctx, specPath); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	return nil
}

func (o *BuildOrchestrator) writeSpec(profile *entities.BuildProfile, collection *entities.CollectionResult, name string) (string, error) {
	spec, err := services.RenderPyInstallerSpec(services.NewPayload(profile, collection))
	if err != nil {
		return "", err
	}

	specPath, err := o.workspace.WriteFile(name, spec)
	if err != nil {
		return "", err
	}

	o.logger.Info("wrote packaging configuration",
		interfaces.F("path", specPath),
		interfaces.F("hidden_imports", collection.HiddenImports.Len()),
		interfaces.F("datas", len(collection.Datas)),
	)
	return specPath, nil
}

// finalize marks the built executable runnable and completes the result
func (o *BuildOrchestrator) finalize(profile *entities.BuildProfile, result *BuildResult, start time.Time) (*BuildResult, error) {
	rel := path.Join(DistDir, ExecutableRel(o.workspace, profile))
	if !o.workspace.Exists(rel) {
		return result.fail(fmt.Errorf("build finished but %s was not produced", rel))
	}

	exePath, err := o.workspace.MarkExecutable(rel)
	if err != nil {
		return result.fail(err)
	}

	result.Executable = &entities.Artifact{
		Name:     profile.ExecutableName(),
		Version:  profile.App.Version,
		Platform: profile.Archive.Platform,
		Path:     exePath,
		Type:     "executable",
	}
	result.Success = true
	result.TotalDuration = time.Since(start)

	o.logger.Info("build complete",
		interfaces.F("pipeline", string(result.Pipeline)),
		interfaces.F("executable", exePath),
		interfaces.F("warnings", len(result.Warnings)),
	)
	return result, nil
}

// ExecutableRel returns the executable's path relative to dist/. A one-folder
// build leaves dist/<name>/ as a directory holding <name> and its libraries.
func ExecutableRel(ws Workspace, profile *entities.BuildProfile) string {
	name := profile.ExecutableName()
	if ws.IsDir(path.Join(DistDir, name)) {
		return path.Join(name, name)
	}
	return name
}

// SpecFileName returns the PyInstaller spec file name for a pipeline variant
func SpecFileName(profile *entities.BuildProfile, patched bool) string {
	if patched {
		return profile.ExecutableName() + "_custom.spec"
	}
	return profile.ExecutableName() + ".spec"
}

// AppBundleBinary returns the path of the bundle's main binary relative to dist/
func AppBundleBinary(profile *entities.BuildProfile) string {
	script := strings.TrimSuffix(path.Base(profile.EntryPoint), ".py")
	return path.Join(script+".app", "Contents", "MacOS", script)
}

// GetBuildSummary returns a human-readable summary of the build
func (r *BuildResult) GetBuildSummary() string {
	if !r.Success {
		return fmt.Sprintf("Build failed: %v", r.Error)
	}

	summary := fmt.Sprintf(`Build successful!
Pipeline: %s
Executable: %s
Preflight: %v
Build: %v
Total: %v`,
		r.Pipeline,
		r.Executable.Path,
		r.PreflightDuration.Round(time.Millisecond),
		r.BuildDuration.Round(time.Millisecond),
		r.TotalDuration.Round(time.Millisecond),
	)

	if len(r.Warnings) > 0 {
		summary += fmt.Sprintf("\n\nSkipped %d package(s) during collection:", len(r.Warnings))
		for _, w := range r.Warnings {
			summary += "\n  - " + w.String()
		}
	}

	return summary
}
