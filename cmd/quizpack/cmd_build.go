package main

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	orchestrators "github.com/ochairo/quizpack/internal/domain-orchestrators"
	"github.com/ochairo/quizpack/internal/domain/entities"
)

var buildDescriptions = map[orchestrators.Pipeline]string{
	orchestrators.PipelineCollect: "Build the standalone executable, collecting every package's submodules and data files",
	orchestrators.PipelinePatched: "Build the standalone executable with the packaging tool patch applied for the duration of the build",
	orchestrators.PipelineApp:     "Build a macOS .app bundle with py2app plus a single-file wrapper in dist/",
}

func newBuildCommand(a *app, pipeline orchestrators.Pipeline) *cobra.Command {
	return &cobra.Command{
		Use:   string(pipeline),
		Short: buildDescriptions[pipeline],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBuild(cmd, pipeline)
		},
	}
}

func (a *app) runBuild(cmd *cobra.Command, pipeline orchestrators.Pipeline) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	start := time.Now()

	report := &buildReport{BuildID: uuid.NewString(), Pipeline: string(pipeline)}
	result, err := a.build(ctx, pipeline, report)
	if result != nil {
		for _, w := range result.Warnings {
			report.Warnings = append(report.Warnings, w.String())
		}
		if result.PatchState != nil {
			report.PatchState = result.PatchState.String()
		}
		if result.Executable != nil {
			report.Executable = result.Executable.Path
		}
	}
	report.finish(time.Since(start), err)

	if reportErr := writeReport(a.opts.jsonOutput, report); reportErr != nil {
		err = errors.Join(err, reportErr)
	}
	if err != nil {
		printFailure(out, "Build failed")
		return err
	}

	for _, w := range report.Warnings {
		printWarning(out, "Skipped collection: %s", w)
	}
	if result.PatchState != nil && *result.PatchState == entities.PatchNotFound {
		printWarning(out, "Patch pattern not found; built against the unmodified packaging tool")
	}

	fmt.Fprintln(out, result.GetBuildSummary())
	printSuccess(out, "Build completed successfully!")

	exe := path.Join(orchestrators.DistDir, result.Profile.ExecutableName())
	if ws, err := a.workspace(); err == nil {
		exe = path.Join(orchestrators.DistDir, orchestrators.ExecutableRel(ws, result.Profile))
	}
	if pipeline == orchestrators.PipelineApp {
		bundle := path.Dir(path.Dir(path.Dir(orchestrators.AppBundleBinary(result.Profile))))
		printNote(out, "The app bundle is located at %s", path.Join(orchestrators.DistDir, bundle))
	}
	printNote(out, "The executable is located at %s", exe)
	printNote(out, "You can run the application directly with: ./%s", exe)
	return nil
}

func (a *app) build(ctx context.Context, pipeline orchestrators.Pipeline, report *buildReport) (*orchestrators.BuildResult, error) {
	orch, name, err := a.buildOrchestrator(ctx)
	if err != nil {
		return nil, err
	}
	report.Profile = name

	var result *orchestrators.BuildResult
	switch pipeline {
	case orchestrators.PipelineCollect:
		result, err = orch.Build(ctx, name)
	case orchestrators.PipelinePatched:
		result, err = orch.BuildPatched(ctx, name)
	case orchestrators.PipelineApp:
		result, err = orch.BuildApp(ctx, name)
	default:
		return nil, fmt.Errorf("unknown pipeline %q", pipeline)
	}
	if result != nil && result.Profile != nil {
		report.Profile = result.Profile.Name
	}
	return result, err
}
