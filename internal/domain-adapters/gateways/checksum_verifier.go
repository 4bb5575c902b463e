package gateways

import (
	"bufio"
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ChecksumVerifier checks archives against their checksum sidecars
type ChecksumVerifier struct{}

// NewChecksumVerifier creates a new checksum verifier
func NewChecksumVerifier() *ChecksumVerifier {
	return &ChecksumVerifier{}
}

// VerifySidecar checks filePath against a "<hash>  <name>" sidecar file.
// The algorithm follows the sidecar's extension (.sha256 or .sha512).
func (v *ChecksumVerifier) VerifySidecar(ctx context.Context, filePath, sidecarPath string) error {
	var h hash.Hash
	switch filepath.Ext(sidecarPath) {
	case ".sha256":
		h = sha256.New()
	case ".sha512":
		h = sha512.New()
	default:
		return fmt.Errorf("unsupported checksum file: %s", filepath.Base(sidecarPath))
	}

	expected, err := readSidecar(sidecarPath)
	if err != nil {
		return err
	}

	return v.verify(ctx, filePath, expected, h)
}

// VerifyChecksum verifies a file's SHA256 checksum
func (v *ChecksumVerifier) VerifyChecksum(ctx context.Context, filePath, expectedSum string) error {
	return v.verify(ctx, filePath, expectedSum, sha256.New())
}

// CalculateChecksum calculates the SHA256 checksum of a file
func (v *ChecksumVerifier) CalculateChecksum(filePath string) (string, error) {
	return hashFile(filePath, sha256.New())
}

func (v *ChecksumVerifier) verify(ctx context.Context, filePath, expected string, h hash.Hash) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	actual, err := hashFile(filePath, h)
	if err != nil {
		return err
	}

	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expected, actual)
	}
	return nil
}

func hashFile(filePath string, h hash.Hash) (string, error) {
	//nolint:gosec // G304: File path is user-provided for checksum verification
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func readSidecar(path string) (string, error) {
	//nolint:gosec // G304: sidecar path is derived from the archive path
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open checksum file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		if fields := strings.Fields(scanner.Text()); len(fields) > 0 {
			return fields[0], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read checksum file: %w", err)
	}
	return "", fmt.Errorf("checksum file %s is empty", filepath.Base(path))
}
