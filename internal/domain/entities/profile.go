package entities

// BuildProfile is the static configuration every pipeline run is built from
type BuildProfile struct {
	Name        string
	EntryPoint  string
	Interpreter string

	// Install lists pip requirement specs installed during preflight.
	Install    InstallSets
	Collect    []PackageSpec
	Hidden     []string
	Datas      []DataFileMapping
	Executable ExecutableOptions
	Patch      PatchDescriptor
	App        AppBundleConfig
	Archive    ArchiveConfig
}

// InstallSets holds the preflight package lists per packaging tool
type InstallSets struct {
	PyInstaller []string
	Py2App      []string
}

// ExecutableOptions controls how the packager emits the executable
type ExecutableOptions struct {
	Name          string
	OneFile       bool
	ArgvEmulation bool // macOS argv emulation
	Console       bool
	UPX           bool
}

// AppBundleConfig holds py2app options for the .app pipeline
type AppBundleConfig struct {
	BundleName       string
	BundleIdentifier string
	Version          string
	Packages         []string
	Includes         []string
}

// ArchiveConfig describes the distributable archive
type ArchiveConfig struct {
	Platform     string
	Variant      string
	HelperScript string
	Readme       string
	License      string
	APIKeys      []string
}

// CollectAllPackages returns the names of packages flagged for collection
func (p *BuildProfile) CollectAllPackages() []string {
	var names []string
	for _, spec := range p.Collect {
		if spec.CollectAll {
			names = append(names, spec.Name)
		}
	}
	return names
}

// ExecutableName returns the configured output name, falling back to the profile name
func (p *BuildProfile) ExecutableName() string {
	if p.Executable.Name != "" {
		return p.Executable.Name
	}
	return p.Name
}

// PackagingPayload is the structured description rendered into a packager spec file
type PackagingPayload struct {
	EntryPoint    string
	HiddenImports []string
	Datas         []DataFileMapping
	Binaries      []DataFileMapping
	Options       ExecutableOptions
}
