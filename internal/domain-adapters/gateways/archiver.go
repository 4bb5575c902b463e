package gateways

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/schollz/progressbar/v3"

	"github.com/ochairo/quizpack/internal/domain/interfaces"
)

// Archiver packs a release directory into a zip archive
type Archiver struct {
	logger   interfaces.Logger
	progress io.Writer
}

// NewArchiver creates a new archiver. A nil progress writer disables the progress bar.
func NewArchiver(logger interfaces.Logger, progress io.Writer) *Archiver {
	if progress == nil {
		progress = io.Discard
	}
	return &Archiver{logger: interfaces.OrNoOp(logger), progress: progress}
}

// ZipDirectory writes sourceDir to zipPath with the directory itself as the
// top-level entry. A partially written archive is removed on failure.
func (a *Archiver) ZipDirectory(ctx context.Context, sourceDir, zipPath string) (err error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to stat source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", sourceDir)
	}

	entries, err := countEntries(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to scan source directory: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(zipPath), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	//nolint:gosec // G304: zipPath is derived from the archive name
	file, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(zipPath)
		}
	}()

	bar := progressbar.NewOptions(entries,
		progressbar.OptionSetWriter(a.progress),
		progressbar.OptionSetDescription("Compressing "+filepath.Base(sourceDir)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(65*time.Millisecond),
	)

	zw := zip.NewWriter(file)
	walkErr := a.addTree(ctx, zw, sourceDir, bar)
	closeErr := zw.Close()
	fileErr := file.Close()
	_ = bar.Finish()

	switch {
	case walkErr != nil:
		return walkErr
	case closeErr != nil:
		return fmt.Errorf("failed to finalize archive: %w", closeErr)
	case fileErr != nil:
		return fmt.Errorf("failed to close archive file: %w", fileErr)
	}

	a.logger.Info("archive created",
		interfaces.F("path", zipPath),
		interfaces.F("entries", entries),
	)
	return nil
}

func (a *Archiver) addTree(ctx context.Context, zw *zip.Writer, sourceDir string, bar *progressbar.ProgressBar) error {
	parent := filepath.Dir(sourceDir)

	return filepath.Walk(sourceDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, err := filepath.Rel(parent, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return fmt.Errorf("failed to create zip header: %w", err)
		}
		header.Name = filepath.ToSlash(rel)

		switch {
		case info.IsDir():
			header.Name += "/"
			header.Method = zip.Store
		case info.Mode()&os.ModeSymlink != 0:
			header.Method = zip.Store
		default:
			header.Method = zip.Deflate
		}

		w, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to write zip header: %w", err)
		}
		_ = bar.Add(1)

		switch {
		case info.IsDir():
			return nil
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("failed to read symlink %s: %w", rel, err)
			}
			_, err = io.WriteString(w, target)
			return err
		case info.Mode().IsRegular():
			return copyInto(w, path)
		default:
			a.logger.Warn("skipping special file", interfaces.F("path", rel))
			return nil
		}
	})
}

func copyInto(w io.Writer, path string) error {
	//nolint:gosec // G304: path comes from walking the release directory
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", filepath.Base(path), err)
	}
	return nil
}

func countEntries(dir string) (int, error) {
	n := 0
	err := filepath.Walk(dir, func(_ string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}
