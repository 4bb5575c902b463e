// Package yaml provides YAML-based build profile parsing and repository implementations.
package yaml

import (
	"fmt"
	"os"

	"github.com/ochairo/quizpack/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlProfile represents the raw YAML structure
type yamlProfile struct {
	Name        string         `yaml:"name"`
	EntryPoint  string         `yaml:"entry_point"`
	Interpreter string         `yaml:"interpreter"`
	Install     yamlInstall    `yaml:"install"`
	Collect     []yamlCollect  `yaml:"collect"`
	Hidden      []string       `yaml:"hidden_imports"`
	Datas       []yamlMapping  `yaml:"datas"`
	Executable  yamlExecutable `yaml:"executable"`
	Patch       *yamlPatch     `yaml:"patch"`
	App         yamlApp        `yaml:"app"`
	Archive     yamlArchive    `yaml:"archive"`
}

type yamlInstall struct {
	PyInstaller []string `yaml:"pyinstaller"`
	Py2App      []string `yaml:"py2app"`
}

type yamlCollect struct {
	Name       string `yaml:"name"`
	CollectAll bool   `yaml:"collect_all"`
}

type yamlMapping struct {
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
}

type yamlExecutable struct {
	Name          string `yaml:"name"`
	OneFile       *bool  `yaml:"onefile"`
	ArgvEmulation bool   `yaml:"argv_emulation"`
	Console       *bool  `yaml:"console"`
	UPX           bool   `yaml:"upx"`
}

type yamlPatch struct {
	Module       string `yaml:"module"`
	Target       string `yaml:"target"`
	BackupSuffix string `yaml:"backup_suffix"`
	Search       string `yaml:"search"`
	Replace      string `yaml:"replace"`
}

type yamlApp struct {
	BundleName       string   `yaml:"bundle_name"`
	BundleIdentifier string   `yaml:"bundle_identifier"`
	Version          string   `yaml:"version"`
	Packages         []string `yaml:"packages"`
	Includes         []string `yaml:"includes"`
}

type yamlArchive struct {
	Platform     string   `yaml:"platform"`
	Variant      string   `yaml:"variant"`
	HelperScript string   `yaml:"helper_script"`
	Readme       string   `yaml:"readme"`
	License      string   `yaml:"license"`
	APIKeys      []string `yaml:"api_keys"`
}

// ProfileParser parses YAML build profiles
type ProfileParser struct{}

// NewProfileParser creates a new YAML parser
func NewProfileParser() *ProfileParser {
	return &ProfileParser{}
}

// ParseFile parses a YAML profile file into a BuildProfile entity
func (p *ProfileParser) ParseFile(filePath string) (*entities.BuildProfile, error) {
	//nolint:gosec // G304: filePath is a profile path chosen by the operator
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	profile, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return profile, nil
}

// Parse validates and parses YAML bytes into a BuildProfile entity
func (p *ProfileParser) Parse(data []byte) (*entities.BuildProfile, error) {
	if err := ValidateProfileYAML(data); err != nil {
		return nil, err
	}

	var raw yamlProfile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if raw.Name == "" {
		return nil, fmt.Errorf("profile must have a name")
	}

	profile := &entities.BuildProfile{
		Name:        raw.Name,
		EntryPoint:  raw.EntryPoint,
		Interpreter: raw.Interpreter,
		Install: entities.InstallSets{
			PyInstaller: raw.Install.PyInstaller,
			Py2App:      raw.Install.Py2App,
		},
		Hidden:     raw.Hidden,
		Executable: convertExecutable(raw.Executable),
		App:        entities.AppBundleConfig(raw.App),
		Archive:    entities.ArchiveConfig(raw.Archive),
	}

	for _, c := range raw.Collect {
		profile.Collect = append(profile.Collect, entities.PackageSpec{Name: c.Name, CollectAll: c.CollectAll})
	}
	for _, m := range raw.Datas {
		profile.Datas = entities.AppendMappings(profile.Datas, entities.DataFileMapping(m))
	}
	if raw.Patch != nil {
		profile.Patch = entities.PatchDescriptor(*raw.Patch)
	}

	return profile, nil
}

// convertExecutable defaults to one-file console mode when unset
func convertExecutable(ye yamlExecutable) entities.ExecutableOptions {
	opts := entities.ExecutableOptions{
		Name:          ye.Name,
		OneFile:       true,
		ArgvEmulation: ye.ArgvEmulation,
		Console:       true,
		UPX:           ye.UPX,
	}
	if ye.OneFile != nil {
		opts.OneFile = *ye.OneFile
	}
	if ye.Console != nil {
		opts.Console = *ye.Console
	}
	return opts
}
