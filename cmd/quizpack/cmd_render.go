package main

import (
	"github.com/spf13/cobra"
)

func newRenderCommand(a *app) *cobra.Command {
	var patched bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the PyInstaller spec file without building",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			orch, name, err := a.buildOrchestrator(ctx)
			if err != nil {
				return err
			}

			specPath, err := orch.Render(ctx, name, patched)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Wrote %s", specPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&patched, "patched", false, "Render the static configuration used by build-patched")
	return cmd
}
