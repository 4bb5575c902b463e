package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ochairo/quizpack/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/quizpack/internal/domain-orchestrators"
	"github.com/ochairo/quizpack/internal/external-adapters/gpg"
)

type packageOptions struct {
	platform       string
	variant        string
	signKey        string
	passphraseFile string
}

func newPackageCommand(a *app) *cobra.Command {
	var opts packageOptions

	cmd := &cobra.Command{
		Use:   "package",
		Short: "Assemble the distributable archive from dist/",
		Long: `Stage the built executable together with README.md, LICENSE, the logs/ and
output/ directories and the run helper script, then compress everything into
<name>_<platform>_<variant>_<YYYYMMDD>.zip with .sha256 and .sha512 sidecars.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runPackage(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.platform, "platform", "", "Platform tag in the archive name (default from profile, then \"mac\")")
	cmd.Flags().StringVar(&opts.variant, "variant", "", "Variant tag in the archive name (default from profile, then \"standalone\")")
	cmd.Flags().StringVar(&opts.signKey, "sign-key", "", "Armored OpenPGP private key used to write a detached .asc signature")
	cmd.Flags().StringVar(&opts.passphraseFile, "passphrase-file", "", "File holding the passphrase for --sign-key")

	return cmd
}

func (a *app) runPackage(cmd *cobra.Command, opts packageOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	start := time.Now()

	repo, name := a.profiles()
	report := &buildReport{BuildID: uuid.NewString(), Pipeline: "package", Profile: name}

	result, err := func() (*orchestrators.PackageResult, error) {
		ws, err := a.workspace()
		if err != nil {
			return nil, err
		}
		signer, err := loadSigner(opts)
		if err != nil {
			return nil, err
		}

		orch := orchestrators.NewPackageOrchestrator(
			repo,
			ws,
			gateways.NewArchiver(a.logger, cmd.ErrOrStderr()),
			signer,
			a.logger,
		)
		return orch.Assemble(ctx, name, orchestrators.PackageOptions{
			Platform: opts.platform,
			Variant:  opts.variant,
		})
	}()

	if result != nil {
		report.Warnings = append(report.Warnings, result.Warnings...)
		if result.Archive != nil {
			report.Archive = result.Archive.Path
		}
		if result.Checksums != nil {
			report.Checksums = []string{result.Checksums.SHA256Path, result.Checksums.SHA512Path}
		}
		report.Signature = result.SignaturePath
	}
	report.finish(time.Since(start), err)
	if reportErr := writeReport(a.opts.jsonOutput, report); reportErr != nil {
		err = errors.Join(err, reportErr)
	}
	if err != nil {
		printFailure(out, "Packaging failed")
		return err
	}

	for _, w := range result.Warnings {
		printWarning(out, "%s", w)
	}
	printSuccess(out, "Created %s", result.Archive.Path)
	fmt.Fprintf(out, "   %s\n   %s\n", result.Checksums.SHA256Path, result.Checksums.SHA512Path)
	if result.SignaturePath != "" {
		fmt.Fprintf(out, "   %s\n", result.SignaturePath)
	}
	printNote(out, "Duration: %v", result.Duration.Round(time.Millisecond))
	return nil
}

// loadSigner returns nil when no signing key was requested
func loadSigner(opts packageOptions) (orchestrators.Signer, error) {
	if opts.signKey == "" {
		if opts.passphraseFile != "" {
			return nil, errors.New("--passphrase-file requires --sign-key")
		}
		return nil, nil
	}

	var passphrase []byte
	if opts.passphraseFile != "" {
		data, err := os.ReadFile(opts.passphraseFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read passphrase: %w", err)
		}
		passphrase = []byte(strings.TrimRight(string(data), "\r\n"))
	}

	signer, err := gpg.NewSignerFromFile(opts.signKey, passphrase)
	if err != nil {
		return nil, err
	}
	return signer, nil
}
