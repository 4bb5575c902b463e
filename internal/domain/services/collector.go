// Package services implements domain logic that does not touch the filesystem
// or external processes directly.
package services

import (
	"context"
	"fmt"

	"github.com/ochairo/quizpack/internal/domain/entities"
	"github.com/ochairo/quizpack/internal/domain/interfaces"
)

// Prober discovers the submodules and data files of a single installed package
type Prober interface {
	CollectPackage(ctx context.Context, name string) (*entities.CollectedPackage, error)
}

// probeOutcome is the captured result of one probe, success or failure
type probeOutcome struct {
	name string
	pkg  *entities.CollectedPackage
	err  error
}

// CollectDependencies probes every collect-all package of the profile and
// merges the discovered imports and data files on top of the profile's static
// configuration. A probe failure is downgraded to a warning; the remaining
// probes still run.
func CollectDependencies(
	ctx context.Context,
	prober Prober,
	profile *entities.BuildProfile,
	logger interfaces.Logger,
) *entities.CollectionResult {
	logger = interfaces.OrNoOp(logger)

	outcomes := make([]probeOutcome, 0, len(profile.Collect))
	for _, name := range profile.CollectAllPackages() {
		outcomes = append(outcomes, runProbe(ctx, prober, name))
	}

	base := &entities.CollectionResult{
		HiddenImports: entities.NewHiddenImportList(profile.Hidden...),
		Datas:         entities.AppendMappings(nil, profile.Datas...),
	}

	return foldOutcomes(base, outcomes, logger)
}

func runProbe(ctx context.Context, prober Prober, name string) (outcome probeOutcome) {
	outcome.name = name
	defer func() {
		if r := recover(); r != nil {
			outcome.pkg = nil
			outcome.err = fmt.Errorf("probe panicked: %v", r)
		}
	}()

	pkg, err := prober.CollectPackage(ctx, name)
	if err == nil && pkg == nil {
		err = fmt.Errorf("probe returned no result")
	}
	outcome.pkg = pkg
	outcome.err = err
	return outcome
}

func foldOutcomes(acc *entities.CollectionResult, outcomes []probeOutcome, logger interfaces.Logger) *entities.CollectionResult {
	for _, o := range outcomes {
		if o.err != nil {
			logger.Warn("could not collect package, continuing without it",
				interfaces.F("package", o.name),
				interfaces.F("error", o.err.Error()),
			)
			acc.Warnings = append(acc.Warnings, entities.CollectionWarning{Package: o.name, Err: o.err})
			continue
		}

		acc.HiddenImports.Add(o.pkg.HiddenImports...)
		acc.Datas = entities.AppendMappings(acc.Datas, o.pkg.Datas...)
		acc.Binaries = entities.AppendMappings(acc.Binaries, o.pkg.Binaries...)
		acc.Collected = append(acc.Collected, o.name)

		logger.Debug("collected package",
			interfaces.F("package", o.name),
			interfaces.F("hiddenimports", len(o.pkg.HiddenImports)),
			interfaces.F("datas", len(o.pkg.Datas)),
		)
	}
	return acc
}

// StaticCollection returns the profile's static imports and mappings without probing
func StaticCollection(profile *entities.BuildProfile) *entities.CollectionResult {
	return &entities.CollectionResult{
		HiddenImports: entities.NewHiddenImportList(profile.Hidden...),
		Datas:         entities.AppendMappings(nil, profile.Datas...),
	}
}

// NewPayload builds the packager payload for a profile and a collection result
func NewPayload(profile *entities.BuildProfile, collection *entities.CollectionResult) entities.PackagingPayload {
	opts := profile.Executable
	opts.Name = profile.ExecutableName()

	return entities.PackagingPayload{
		EntryPoint:    profile.EntryPoint,
		HiddenImports: collection.HiddenImports.Names(),
		Datas:         collection.Datas,
		Binaries:      collection.Binaries,
		Options:       opts,
	}
}
