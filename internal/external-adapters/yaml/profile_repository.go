package yaml

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ochairo/quizpack/internal/domain/entities"
	"github.com/ochairo/quizpack/internal/domain/interfaces"
)

// DefaultProfileName is the profile used when none is named
const DefaultProfileName = "quiz_generator"

// ProfileExtensions are the file extensions recognised as profiles, in lookup order
var ProfileExtensions = []string{".yml", ".yaml"}

// TrimProfileExt strips a recognised profile extension from file. ok is false
// when file has none.
func TrimProfileExt(file string) (name string, ok bool) {
	for _, ext := range ProfileExtensions {
		if strings.HasSuffix(file, ext) {
			return strings.TrimSuffix(file, ext), true
		}
	}
	return file, false
}

//go:embed profiles/*.yml
var builtinProfiles embed.FS

// ProfileRepository implements repositories.ProfileRepository using YAML files.
// Profiles in profilesDir take precedence over the built-in ones.
type ProfileRepository struct {
	profilesDir string
	parser      *ProfileParser
	logger      interfaces.Logger
}

// NewProfileRepository creates a new YAML-based profile repository. An empty
// profilesDir serves the built-in profiles only.
func NewProfileRepository(profilesDir string, logger interfaces.Logger) *ProfileRepository {
	return &ProfileRepository{
		profilesDir: profilesDir,
		parser:      NewProfileParser(),
		logger:      interfaces.OrNoOp(logger),
	}
}

// GetProfile retrieves a build profile by name
func (r *ProfileRepository) GetProfile(_ context.Context, name string) (*entities.BuildProfile, error) {
	if name == "" {
		name = DefaultProfileName
	}

	if r.profilesDir != "" {
		for _, ext := range ProfileExtensions {
			filePath := filepath.Join(r.profilesDir, name+ext)
			if _, err := os.Stat(filePath); err == nil {
				return r.parser.ParseFile(filePath)
			}
		}
	}

	data, err := builtinProfiles.ReadFile("profiles/" + name + ".yml")
	if err != nil {
		return nil, fmt.Errorf("profile not found: %s", name)
	}
	return r.parser.Parse(data)
}

// ListProfiles returns every available profile, local files first
func (r *ProfileRepository) ListProfiles(ctx context.Context) ([]*entities.BuildProfile, error) {
	names := map[string]bool{}

	if r.profilesDir != "" {
		entries, err := os.ReadDir(r.profilesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read profiles directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if name, ok := TrimProfileExt(entry.Name()); ok {
				names[name] = true
			}
		}
	}

	builtin, err := builtinProfiles.ReadDir("profiles")
	if err != nil {
		return nil, fmt.Errorf("failed to read built-in profiles: %w", err)
	}
	for _, entry := range builtin {
		names[strings.TrimSuffix(entry.Name(), ".yml")] = true
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	profiles := make([]*entities.BuildProfile, 0, len(sorted))
	for _, name := range sorted {
		profile, err := r.GetProfile(ctx, name)
		if err != nil {
			r.logger.Warn("skipping invalid profile",
				interfaces.F("profile", name),
				interfaces.F("error", err.Error()),
			)
			continue
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}
