package entities

// CollectedPackage is the result of a single collect-all probe
type CollectedPackage struct {
	Name          string
	HiddenImports []string
	Datas         []DataFileMapping
	Binaries      []DataFileMapping
}

// CollectionWarning records a probe that failed and was skipped
type CollectionWarning struct {
	Package string
	Err     error
}

func (w CollectionWarning) String() string {
	return w.Package + ": " + w.Err.Error()
}

// CollectionResult is the aggregate of all probes plus the static configuration
type CollectionResult struct {
	HiddenImports *HiddenImportList
	Datas         []DataFileMapping
	Binaries      []DataFileMapping
	Collected     []string
	Warnings      []CollectionWarning
}
