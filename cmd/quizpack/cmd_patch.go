package main

import (
	"errors"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/ochairo/quizpack/internal/domain/entities"
)

func newPatchCommand(a *app) *cobra.Command {
	var restore bool

	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Apply the packaging tool patch in place, or restore the original with --restore",
		Long: `Apply the profile's search-and-replace fix to the installed packaging tool.
A backup of the original file is written next to it the first time; --restore
copies it back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			orch, name, err := a.buildOrchestrator(ctx)
			if err != nil {
				return err
			}

			if restore {
				if err := orch.Unpatch(ctx, name); err != nil {
					return withPermissionHint(err)
				}
				printSuccess(out, "Original file restored")
				return nil
			}

			state, err := orch.Patch(ctx, name)
			if err != nil {
				if errors.Is(err, entities.ErrPatternNotFound) {
					printFailure(out, "Pattern still not found. Manual intervention may be required.")
				}
				return withPermissionHint(err)
			}
			printSuccess(out, "Patch %s", state)
			return nil
		},
	}

	cmd.Flags().BoolVar(&restore, "restore", false, "Restore the original file from its backup")
	return cmd
}

type permissionError struct {
	err error
}

func (e *permissionError) Error() string {
	return e.err.Error() + "\nPermission denied. Try running with sudo."
}

func (e *permissionError) Unwrap() error {
	return e.err
}

func withPermissionHint(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return &permissionError{err: err}
	}
	return err
}
