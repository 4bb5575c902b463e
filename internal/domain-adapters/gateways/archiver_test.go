package gateways

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
)

func makeReleaseDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "quiz_generator_mac_standalone_20250101")
	for _, sub := range []string{"logs", "output"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0750); err != nil {
			t.Fatal(err)
		}
	}
	//nolint:gosec // G306: test executable
	if err := os.WriteFile(filepath.Join(dir, "quiz_generator"), []byte("binary"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Quiz Generator\n"), 0600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestArchiver_ZipDirectory(t *testing.T) {
	dir := makeReleaseDir(t)
	zipPath := dir + ".zip"
	var progress bytes.Buffer

	if err := NewArchiver(nil, &progress).ZipDirectory(context.Background(), dir, zipPath); err != nil {
		t.Fatalf("ZipDirectory() error = %v", err)
	}

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	//nolint:errcheck // Test cleanup
	defer r.Close()

	var names []string
	modes := map[string]os.FileMode{}
	for _, f := range r.File {
		names = append(names, f.Name)
		modes[f.Name] = f.Mode()
	}
	sort.Strings(names)

	want := []string{
		"quiz_generator_mac_standalone_20250101/",
		"quiz_generator_mac_standalone_20250101/README.md",
		"quiz_generator_mac_standalone_20250101/logs/",
		"quiz_generator_mac_standalone_20250101/output/",
		"quiz_generator_mac_standalone_20250101/quiz_generator",
	}
	if len(names) != len(want) {
		t.Fatalf("archive entries = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("entry[%d] = %s, want %s", i, names[i], want[i])
		}
	}

	if perm := modes["quiz_generator_mac_standalone_20250101/quiz_generator"].Perm(); perm != 0755 {
		t.Errorf("executable mode in archive = %v, want 0755", perm)
	}
}

func TestArchiver_MissingSource(t *testing.T) {
	tmp := t.TempDir()
	zipPath := filepath.Join(tmp, "out.zip")

	err := NewArchiver(nil, nil).ZipDirectory(context.Background(), filepath.Join(tmp, "missing"), zipPath)
	if err == nil {
		t.Fatal("ZipDirectory() should fail for a missing directory")
	}
	if _, err := os.Stat(zipPath); !os.IsNotExist(err) {
		t.Error("no archive should be left behind")
	}
}

func TestArchiver_CancelledRemovesPartialZip(t *testing.T) {
	dir := makeReleaseDir(t)
	zipPath := dir + ".zip"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewArchiver(nil, nil).ZipDirectory(ctx, dir, zipPath); err == nil {
		t.Fatal("ZipDirectory() should fail when cancelled")
	}
	if _, err := os.Stat(zipPath); !os.IsNotExist(err) {
		t.Error("partial archive should be removed")
	}
}
