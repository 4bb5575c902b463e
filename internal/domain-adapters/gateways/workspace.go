package gateways

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ochairo/quizpack/internal/domain/entities"
	"github.com/ochairo/quizpack/internal/domain/interfaces"
)

// Directories regenerated on every build
const (
	BuildDir = "build"
	DistDir  = "dist"
)

// Workspace manages the project directory a build runs in
type Workspace struct {
	root   string
	logger interfaces.Logger
}

// NewWorkspace creates a workspace rooted at root
func NewWorkspace(root string, logger interfaces.Logger) *Workspace {
	if root == "" {
		root = "."
	}
	return &Workspace{root: root, logger: interfaces.OrNoOp(logger)}
}

// Root returns the workspace directory
func (w *Workspace) Root() string {
	return w.root
}

// Path resolves rel against the workspace root. Absolute paths are returned unchanged.
func (w *Workspace) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(w.root, rel)
}

// Prepare creates the runtime directories if absent and removes previous
// build outputs entirely.
func (w *Workspace) Prepare(runtimeDirs []string) error {
	for _, dir := range runtimeDirs {
		if err := os.MkdirAll(w.Path(dir), 0750); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}

	w.logger.Info("cleaning up previous build", interfaces.F("dirs", []string{BuildDir, DistDir}))
	for _, dir := range []string{BuildDir, DistDir} {
		if err := os.RemoveAll(w.Path(dir)); err != nil {
			return fmt.Errorf("failed to remove %s directory: %w", dir, err)
		}
	}

	return nil
}

// CheckSources verifies that every mapping's source exists
func (w *Workspace) CheckSources(mappings []entities.DataFileMapping) error {
	for _, m := range mappings {
		if _, err := os.Stat(w.Path(m.Source)); err != nil {
			return fmt.Errorf("data source %s for %s is missing: %w", m.Source, m.Destination, err)
		}
	}
	return nil
}

// WriteFile writes content to rel inside the workspace and returns its path
func (w *Workspace) WriteFile(rel, content string) (string, error) {
	path := w.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}
	//nolint:gosec // G306: generated build files are read by the packager
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return path, nil
}

// MarkExecutable sets 0755 on rel and returns its path. Calling it again is harmless.
func (w *Workspace) MarkExecutable(rel string) (string, error) {
	path := w.Path(rel)
	//nolint:gosec // G302: build outputs must be executable
	if err := os.Chmod(path, 0755); err != nil {
		return "", fmt.Errorf("failed to mark %s executable: %w", rel, err)
	}
	return path, nil
}

// Exists reports whether rel exists inside the workspace
func (w *Workspace) Exists(rel string) bool {
	_, err := os.Stat(w.Path(rel))
	return err == nil
}

// IsDir reports whether rel is a directory inside the workspace
func (w *Workspace) IsDir(rel string) bool {
	info, err := os.Stat(w.Path(rel))
	return err == nil && info.IsDir()
}

// ReplaceDir removes rel if present and creates it empty
func (w *Workspace) ReplaceDir(rel string) (string, error) {
	path := w.Path(rel)
	if err := os.RemoveAll(path); err != nil {
		return "", fmt.Errorf("failed to remove existing %s: %w", rel, err)
	}
	if err := os.MkdirAll(path, 0750); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", rel, err)
	}
	return path, nil
}

// CopyFile copies src to dst, both relative to the workspace, keeping the mode
func (w *Workspace) CopyFile(src, dst string) error {
	if err := copyFile(w.Path(src), w.Path(dst)); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return nil
}

// CopyTree copies the directory src to dst, both relative to the workspace.
// File modes are kept and symlinks are recreated, not followed.
func (w *Workspace) CopyTree(src, dst string) error {
	srcPath, dstPath := w.Path(src), w.Path(dst)

	err := filepath.WalkDir(srcPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcPath, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dstPath, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0750)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.Type().IsRegular():
			return copyFile(p, target)
		default:
			w.logger.Warn("skipping special file", interfaces.F("path", p))
			return nil
		}
	})
	if err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return nil
}

// MakeDir creates rel and any missing parents
func (w *Workspace) MakeDir(rel string) error {
	if err := os.MkdirAll(w.Path(rel), 0750); err != nil {
		return fmt.Errorf("failed to create %s: %w", rel, err)
	}
	return nil
}

// Remove deletes rel recursively. A missing path is not an error.
func (w *Workspace) Remove(rel string) error {
	if err := os.RemoveAll(w.Path(rel)); err != nil {
		return fmt.Errorf("failed to remove %s: %w", rel, err)
	}
	return nil
}
