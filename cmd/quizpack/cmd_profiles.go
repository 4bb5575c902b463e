package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProfilesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the available build profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			repo, _ := a.profiles()

			profiles, err := repo.ListProfiles(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Available profiles (%d total):\n\n", len(profiles))
			for _, p := range profiles {
				fmt.Fprintf(out, "  %-20s %s\n", p.Name, p.EntryPoint)
				fmt.Fprintf(out, "  %-20s Executable: %s\n", "", p.ExecutableName())
				if !p.Patch.IsZero() {
					fmt.Fprintf(out, "  %-20s 🩹 Patch: %s/%s\n", "", p.Patch.Module, p.Patch.Target)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
