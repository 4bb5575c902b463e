package orchestrators

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/ochairo/quizpack/internal/domain-adapters/gateways"
	"github.com/ochairo/quizpack/internal/domain/entities"
)

var packageDate = time.Date(2025, time.March, 7, 15, 4, 5, 0, time.UTC)

const archiveName = "quiz_generator_mac_standalone_20250307"

type failingArchiver struct {
	err error
}

func (f *failingArchiver) ZipDirectory(_ context.Context, _, zipPath string) error {
	// Leave a partial file behind like an interrupted writer would
	_ = os.WriteFile(zipPath, []byte("PK"), 0600)
	return f.err
}

type mockSigner struct {
	signed []string
}

func (m *mockSigner) SignFile(filePath string) (string, error) {
	m.signed = append(m.signed, filePath)
	return filePath + ".asc", os.WriteFile(filePath+".asc", []byte("signature"), 0600)
}

func newPackageOrchestrator(t *testing.T, archiver Archiver, signer Signer) (*PackageOrchestrator, string) {
	t.Helper()
	root := t.TempDir()
	orch := NewPackageOrchestrator(
		&mockProfileRepository{profile: quizProfile()},
		gateways.NewWorkspace(root, nil),
		archiver,
		signer,
		nil,
	).WithClock(func() time.Time { return packageDate })
	return orch, root
}

func writeExecutable(t *testing.T, root string) {
	t.Helper()
	path := filepath.Join(root, "dist", "quiz_generator")
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("binary"), 0600); err != nil {
		t.Fatal(err)
	}
}

func listTree(t *testing.T, dir string) []string {
	t.Helper()
	var names []string
	err := filepath.Walk(dir, func(path string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		if rel != "." {
			names = append(names, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(names)
	return names
}

func TestArchiveName(t *testing.T) {
	got := ArchiveName("quiz_generator", "mac", "standalone", packageDate)
	if got != archiveName {
		t.Errorf("ArchiveName() = %s, want %s", got, archiveName)
	}
}

func TestPackageOrchestrator_Assemble_Success(t *testing.T) {
	signer := &mockSigner{}
	orch, root := newPackageOrchestrator(t, gateways.NewArchiver(nil, nil), signer)
	defer func() {
		if len(signer.signed) != 1 {
			t.Errorf("signed %v, want the archive only", signer.signed)
		}
	}()
	writeExecutable(t, root)
	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte("# project readme\n"), 0600); err != nil {
		t.Fatal(err)
	}

	result, err := orch.Assemble(context.Background(), "quiz_generator", PackageOptions{})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	zipPath := filepath.Join(root, archiveName+".zip")
	if result.Archive.Path != zipPath {
		t.Errorf("archive path = %s, want %s", result.Archive.Path, zipPath)
	}
	if _, err := os.Stat(filepath.Join(root, archiveName)); !os.IsNotExist(err) {
		t.Error("package directory should be removed after compression")
	}
	for _, sidecar := range []string{".sha256", ".sha512", ".asc"} {
		if _, err := os.Stat(zipPath + sidecar); err != nil {
			t.Errorf("missing %s sidecar: %v", sidecar, err)
		}
	}
	if len(result.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one for the missing LICENSE", result.Warnings)
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	//nolint:errcheck // Test cleanup
	defer r.Close()

	modes := map[string]os.FileMode{}
	for _, f := range r.File {
		modes[f.Name] = f.Mode()
	}
	for _, name := range []string{"quiz_generator", "run_quiz_generator.sh"} {
		mode, ok := modes[archiveName+"/"+name]
		if !ok {
			t.Errorf("archive is missing %s", name)
			continue
		}
		if mode.Perm() != 0755 {
			t.Errorf("%s mode = %v, want 0755", name, mode.Perm())
		}
	}
	for _, name := range []string{"README.md", "LICENSE", "logs/", "output/"} {
		if _, ok := modes[archiveName+"/"+name]; !ok {
			t.Errorf("archive is missing %s", name)
		}
	}
}

func TestPackageOrchestrator_MissingExecutable(t *testing.T) {
	orch, root := newPackageOrchestrator(t, gateways.NewArchiver(nil, nil), nil)

	_, err := orch.Assemble(context.Background(), "quiz_generator", PackageOptions{})
	if !errors.Is(err, entities.ErrExecutableMissing) {
		t.Fatalf("Assemble() error = %v, want ErrExecutableMissing", err)
	}

	if _, err := os.Stat(filepath.Join(root, archiveName)); !os.IsNotExist(err) {
		t.Error("no package directory should be created")
	}
	if _, err := os.Stat(filepath.Join(root, archiveName+".zip")); !os.IsNotExist(err) {
		t.Error("no archive should be created")
	}
}

func TestPackageOrchestrator_ArchiveFailureKeepsFreshDirectory(t *testing.T) {
	orch, root := newPackageOrchestrator(t, &failingArchiver{err: errors.New("disk full")}, nil)
	writeExecutable(t, root)

	// A stale same-day directory from an earlier run
	stale := filepath.Join(root, archiveName, "stale.txt")
	if err := os.MkdirAll(filepath.Dir(stale), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("old"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := orch.Assemble(context.Background(), "quiz_generator", PackageOptions{})
	var archiveErr *entities.ArchiveError
	if !errors.As(err, &archiveErr) {
		t.Fatalf("Assemble() error = %v, want ArchiveError", err)
	}
	if archiveErr.Dir != filepath.Join(root, archiveName) {
		t.Errorf("ArchiveError.Dir = %s", archiveErr.Dir)
	}

	want := []string{"LICENSE", "README.md", "logs", "output", "quiz_generator", "run_quiz_generator.sh"}
	got := listTree(t, archiveErr.Dir)
	if len(got) != len(want) {
		t.Fatalf("package directory = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if _, err := os.Stat(filepath.Join(root, archiveName+".zip")); !os.IsNotExist(err) {
		t.Error("partial archive should be removed")
	}
}

func TestPackageOrchestrator_Options(t *testing.T) {
	orch, root := newPackageOrchestrator(t, gateways.NewArchiver(nil, nil), nil)
	writeExecutable(t, root)

	result, err := orch.Assemble(context.Background(), "quiz_generator", PackageOptions{Platform: "macos-arm64", Variant: "patched"})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if result.Name != "quiz_generator_macos-arm64_patched_20250307" {
		t.Errorf("Name = %s", result.Name)
	}
	if result.SignaturePath != "" {
		t.Error("no signature expected without a signer")
	}
}

func writeOneFolderBuild(t *testing.T, root string, withExecutable bool) {
	t.Helper()
	dir := filepath.Join(root, "dist", "quiz_generator")
	if err := writeOneFolderLib(dir); err != nil {
		t.Fatal(err)
	}
	if withExecutable {
		if err := os.WriteFile(filepath.Join(dir, "quiz_generator"), []byte("binary"), 0600); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPackageOrchestrator_Assemble_OneFolder(t *testing.T) {
	orch, root := newPackageOrchestrator(t, gateways.NewArchiver(nil, nil), nil)
	writeOneFolderBuild(t, root, true)

	result, err := orch.Assemble(context.Background(), "quiz_generator", PackageOptions{})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	r, err := zip.OpenReader(result.Archive.Path)
	if err != nil {
		t.Fatal(err)
	}
	//nolint:errcheck // Test cleanup
	defer r.Close()

	files := map[string]*zip.File{}
	for _, f := range r.File {
		files[f.Name] = f
	}

	exe, ok := files[archiveName+"/quiz_generator/quiz_generator"]
	if !ok {
		t.Fatal("archive is missing the one-folder executable")
	}
	if exe.Mode().Perm() != 0755 {
		t.Errorf("executable mode = %v, want 0755", exe.Mode().Perm())
	}
	if _, ok := files[archiveName+"/quiz_generator/_internal/libpython3.12.dylib"]; !ok {
		t.Error("archive is missing the bundled library")
	}
	if link, ok := files[archiveName+"/quiz_generator/Python"]; !ok || link.Mode()&os.ModeSymlink == 0 {
		t.Error("library symlink should be archived as a symlink")
	}

	helper, ok := files[archiveName+"/run_quiz_generator.sh"]
	if !ok {
		t.Fatal("archive is missing the run helper")
	}
	rc, err := helper.Open()
	if err != nil {
		t.Fatal(err)
	}
	script, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(script), "exec './quiz_generator/quiz_generator'") {
		t.Errorf("helper should exec the nested executable:\n%s", script)
	}
}

func TestPackageOrchestrator_OneFolderWithoutExecutable(t *testing.T) {
	orch, root := newPackageOrchestrator(t, gateways.NewArchiver(nil, nil), nil)
	writeOneFolderBuild(t, root, false)

	_, err := orch.Assemble(context.Background(), "quiz_generator", PackageOptions{})
	if !errors.Is(err, entities.ErrExecutableMissing) {
		t.Fatalf("Assemble() error = %v, want ErrExecutableMissing", err)
	}
}
