package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ochairo/quizpack/internal/domain-adapters/gateways"
	"github.com/ochairo/quizpack/internal/external-adapters/gpg"
)

func newVerifyCommand(_ *app) *cobra.Command {
	var keyPath string

	cmd := &cobra.Command{
		Use:   "verify <archive>",
		Short: "Verify an archive against its checksum sidecars and optional signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			archive := args[0]

			if _, err := os.Stat(archive); err != nil {
				return fmt.Errorf("archive not found: %w", err)
			}

			verifier := gateways.NewChecksumVerifier()
			checked := 0
			for _, ext := range []string{".sha256", ".sha512"} {
				sidecar := archive + ext
				if _, err := os.Stat(sidecar); err != nil {
					continue
				}
				printStep(out, "Checking %s", sidecar)
				if err := verifier.VerifySidecar(ctx, archive, sidecar); err != nil {
					printFailure(out, "Checksum mismatch")
					return err
				}
				checked++
			}
			if checked == 0 {
				return fmt.Errorf("no checksum sidecars found for %s", archive)
			}
			printSuccess(out, "Checksums verified")

			sig := archive + gpg.SignatureExt
			if _, err := os.Stat(sig); err != nil {
				if keyPath != "" {
					return fmt.Errorf("signature not found: %s", sig)
				}
				return nil
			}
			if keyPath == "" {
				printWarning(out, "Signature %s present but no --key given; skipped", sig)
				return nil
			}

			gpgVerifier := gpg.NewVerifier()
			if err := gpgVerifier.ImportKeyFromFile(keyPath); err != nil {
				return err
			}
			printStep(out, "Checking %s", sig)
			if err := gpgVerifier.VerifySignatureFromFile(archive, sig); err != nil {
				printFailure(out, "Signature verification failed")
				return err
			}
			printSuccess(out, "Signature verified")
			return nil
		},
	}

	cmd.Flags().StringVar(&keyPath, "key", "", "Armored OpenPGP public key to verify the .asc signature with")
	return cmd
}
