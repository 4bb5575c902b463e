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

// Archiver compresses a directory into a zip file
type Archiver interface {
	ZipDirectory(ctx context.Context, sourceDir, zipPath string) error
}

// Signer writes a detached signature next to a file and returns its path
type Signer interface {
	SignFile(filePath string) (string, error)
}

// Archive defaults
const (
	DefaultPlatform = "mac"
	DefaultVariant  = "standalone"
	DefaultHelper   = "run_quiz_generator.sh"
	readmeFile      = "README.md"
	licenseFile     = "LICENSE"
)

// PackageOrchestrator assembles the distributable archive from a finished build
type PackageOrchestrator struct {
	profiles  repositories.ProfileRepository
	workspace Workspace
	archiver  Archiver
	checksums *services.ChecksumService
	signer    Signer
	now       func() time.Time
	logger    interfaces.Logger
}

// PackageOptions overrides the profile's archive naming
type PackageOptions struct {
	Platform string
	Variant  string
}

// PackageResult describes the assembled archive
type PackageResult struct {
	Name          string
	Archive       *entities.Artifact
	Checksums     *services.Checksums
	SignaturePath string
	Warnings      []string
	Duration      time.Duration
}

// NewPackageOrchestrator creates a new package orchestrator. signer may be nil.
func NewPackageOrchestrator(
	profiles repositories.ProfileRepository,
	workspace Workspace,
	archiver Archiver,
	signer Signer,
	logger interfaces.Logger,
) *PackageOrchestrator {
	logger = interfaces.OrNoOp(logger)
	return &PackageOrchestrator{
		profiles:  profiles,
		workspace: workspace,
		archiver:  archiver,
		checksums: services.NewChecksumService(logger),
		signer:    signer,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the clock used to date the archive name
func (o *PackageOrchestrator) WithClock(now func() time.Time) *PackageOrchestrator {
	o.now = now
	return o
}

// ArchiveName returns <name>_<platform>_<variant>_<YYYYMMDD>
func ArchiveName(name, platform, variant string, date time.Time) string {
	return strings.Join([]string{name, platform, variant, date.Format("20060102")}, "_")
}

// Assemble stages the executable with its documentation and helper script,
// compresses the staging directory and removes it. When compression fails the
// directory is kept and an *entities.ArchiveError is returned.
func (o *PackageOrchestrator) Assemble(ctx context.Context, profileName string, opts PackageOptions) (*PackageResult, error) {
	start := time.Now()

	profile, err := o.profiles.GetProfile(ctx, profileName)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	exe := profile.ExecutableName()
	exeRel := path.Join(DistDir, exe)
	if built := path.Join(DistDir, ExecutableRel(o.workspace, profile)); !o.workspace.Exists(built) {
		return nil, fmt.Errorf("%w: %s (run a build first)", entities.ErrExecutableMissing, built)
	}

	platform := firstNonEmpty(opts.Platform, profile.Archive.Platform, DefaultPlatform)
	variant := firstNonEmpty(opts.Variant, profile.Archive.Variant, DefaultVariant)
	name := ArchiveName(exe, platform, variant, o.now())
	result := &PackageResult{Name: name}

	dir, err := o.workspace.ReplaceDir(name)
	if err != nil {
		return nil, err
	}

	warnings, err := o.stage(profile, name, exeRel)
	result.Warnings = warnings
	if err != nil {
		return result, err
	}

	zipRel := name + ".zip"
	zipPath := o.workspace.Path(zipRel)
	o.logger.Info("creating archive", interfaces.F("path", zipPath))
	if err := o.archiver.ZipDirectory(ctx, dir, zipPath); err != nil {
		// No partial archive may survive a failed compression.
		_ = o.workspace.Remove(zipRel)
		return result, &entities.ArchiveError{Dir: dir, Err: err}
	}

	if err := o.workspace.Remove(name); err != nil {
		o.logger.Warn("archive created but package directory could not be removed",
			interfaces.F("dir", dir),
			interfaces.F("error", err.Error()),
		)
	}

	result.Archive = &entities.Artifact{
		Name:     exe,
		Version:  profile.App.Version,
		Platform: platform,
		Path:     zipPath,
		Type:     "archive",
	}

	sums, err := o.checksums.GenerateAll(zipPath)
	if err != nil {
		return result, err
	}
	result.Checksums = sums

	if o.signer != nil {
		sig, err := o.signer.SignFile(zipPath)
		if err != nil {
			return result, fmt.Errorf("failed to sign archive: %w", err)
		}
		result.SignaturePath = sig
	}

	result.Duration = time.Since(start)
	return result, nil
}

// stage populates the package directory
func (o *PackageOrchestrator) stage(profile *entities.BuildProfile, dir, exeRel string) ([]string, error) {
	var warnings []string
	exe := profile.ExecutableName()

	// Relative to the package directory
	launch := exe
	if o.workspace.IsDir(exeRel) {
		if err := o.workspace.CopyTree(exeRel, path.Join(dir, exe)); err != nil {
			return nil, err
		}
		launch = path.Join(exe, exe)
	} else if err := o.workspace.CopyFile(exeRel, path.Join(dir, exe)); err != nil {
		return nil, err
	}

	docs := []struct {
		src, dst, fallback string
	}{
		{firstNonEmpty(profile.Archive.Readme, readmeFile), readmeFile, services.DefaultReadme()},
		{firstNonEmpty(profile.Archive.License, licenseFile), licenseFile, services.DefaultLicense()},
	}
	for _, doc := range docs {
		if o.workspace.Exists(doc.src) {
			if err := o.workspace.CopyFile(doc.src, path.Join(dir, doc.dst)); err != nil {
				return warnings, err
			}
			continue
		}

		msg := fmt.Sprintf("%s not found, shipping the default %s", doc.src, doc.dst)
		o.logger.Warn(msg)
		warnings = append(warnings, msg)
		if _, err := o.workspace.WriteFile(path.Join(dir, doc.dst), doc.fallback); err != nil {
			return warnings, err
		}
	}

	for _, sub := range DefaultRuntimeDirs {
		if err := o.workspace.MakeDir(path.Join(dir, sub)); err != nil {
			return warnings, err
		}
	}

	helper := firstNonEmpty(profile.Archive.HelperScript, DefaultHelper)
	script, err := services.RenderRunHelper(launch, profile.Archive.APIKeys)
	if err != nil {
		return warnings, err
	}
	if _, err := o.workspace.WriteFile(path.Join(dir, helper), script); err != nil {
		return warnings, err
	}

	var errs []error
	for _, rel := range []string{path.Join(dir, launch), path.Join(dir, helper)} {
		if _, err := o.workspace.MarkExecutable(rel); err != nil {
			errs = append(errs, err)
		}
	}
	return warnings, errors.Join(errs...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
