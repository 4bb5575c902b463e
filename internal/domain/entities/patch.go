package entities

import "path/filepath"

// DefaultBackupSuffix is appended to the patched file to form its backup path
const DefaultBackupSuffix = ".bak"

// PatchDescriptor identifies a file inside an installed Python package and a
// textual substitution applied to it for the duration of a build.
type PatchDescriptor struct {
	Module       string // package whose install directory is queried at runtime
	Target       string // path relative to the module directory
	BackupSuffix string
	Search       string
	Replace      string
}

// TargetPath joins the module directory with the relative target
func (d PatchDescriptor) TargetPath(moduleDir string) string {
	return filepath.Join(moduleDir, filepath.FromSlash(d.Target))
}

// BackupPath returns the sibling backup path for target
func (d PatchDescriptor) BackupPath(target string) string {
	suffix := d.BackupSuffix
	if suffix == "" {
		suffix = DefaultBackupSuffix
	}
	return target + suffix
}

// IsZero reports whether no patch is configured
func (d PatchDescriptor) IsZero() bool {
	return d.Search == "" && d.Target == ""
}

// PatchState reports what applying a patch found in the target file
type PatchState int

const (
	// PatchApplied means the malformed text was found and replaced
	PatchApplied PatchState = iota
	// PatchAlreadyApplied means only the corrected text is present
	PatchAlreadyApplied
	// PatchNotFound means neither the malformed nor the corrected text is present
	PatchNotFound
)

func (s PatchState) String() string {
	switch s {
	case PatchApplied:
		return "applied"
	case PatchAlreadyApplied:
		return "already-applied"
	default:
		return "not-found"
	}
}
