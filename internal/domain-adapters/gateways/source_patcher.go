package gateways

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/quizpack/internal/domain/entities"
	"github.com/ochairo/quizpack/internal/domain/interfaces"
)

// SourcePatcher applies reversible textual patches to installed files
type SourcePatcher struct {
	logger interfaces.Logger
}

// NewSourcePatcher creates a new source patcher
func NewSourcePatcher(logger interfaces.Logger) *SourcePatcher {
	return &SourcePatcher{logger: interfaces.OrNoOp(logger)}
}

// Backup copies target to backup, preserving its mode
func (p *SourcePatcher) Backup(target, backup string) error {
	if err := copyFile(target, backup); err != nil {
		return fmt.Errorf("failed to back up %s: %w", target, err)
	}
	p.logger.Info("created backup", interfaces.F("path", backup))
	return nil
}

// Apply replaces every occurrence of the descriptor's search text in target
func (p *SourcePatcher) Apply(target string, d entities.PatchDescriptor) (entities.PatchState, error) {
	if d.Search == "" {
		return entities.PatchNotFound, fmt.Errorf("patch has no search text")
	}

	info, err := os.Stat(target)
	if err != nil {
		return entities.PatchNotFound, fmt.Errorf("failed to stat %s: %w", target, err)
	}

	//nolint:gosec // G304: target is resolved from the interpreter's install directory
	data, err := os.ReadFile(target)
	if err != nil {
		return entities.PatchNotFound, fmt.Errorf("failed to read %s: %w", target, err)
	}
	content := string(data)

	if !strings.Contains(content, d.Search) {
		if d.Replace != "" && strings.Contains(content, d.Replace) {
			return entities.PatchAlreadyApplied, nil
		}
		return entities.PatchNotFound, nil
	}

	patched := strings.ReplaceAll(content, d.Search, d.Replace)
	if err := os.WriteFile(target, []byte(patched), info.Mode().Perm()); err != nil {
		return entities.PatchNotFound, fmt.Errorf("failed to write patched %s: %w", target, err)
	}

	p.logger.Info("patched file", interfaces.F("path", target))
	return entities.PatchApplied, nil
}

// Restore puts the backup's bytes and mode back at target and removes the backup
func (p *SourcePatcher) Restore(target, backup string) error {
	tmp := target + ".restore"
	if err := copyFile(backup, tmp); err != nil {
		return fmt.Errorf("failed to restore %s: %w", target, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to restore %s: %w", target, err)
	}
	if err := os.Remove(backup); err != nil {
		p.logger.Warn("restored file but could not remove backup",
			interfaces.F("backup", backup),
			interfaces.F("error", err.Error()),
		)
	}

	p.logger.Info("restored original file", interfaces.F("path", target))
	return nil
}

// copyFile copies src to dst, replacing dst and preserving src's permissions
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	//nolint:gosec // G304: src is a path chosen by the pipeline
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0750); err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, info.Mode().Perm()); err != nil {
		return err
	}
	// WriteFile keeps the mode of an existing dst
	return os.Chmod(dst, info.Mode().Perm())
}
