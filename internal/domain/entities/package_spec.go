package entities

// PackageSpec names an external Python dependency of the bundled application
type PackageSpec struct {
	Name       string
	CollectAll bool // probe the installed package for submodules and data files
}

// DataFileMapping copies Source into the bundle at Destination
type DataFileMapping struct {
	Source      string
	Destination string
}

// HiddenImportList is an ordered set of module names the packager must
// force-include. The zero value is ready to use.
type HiddenImportList struct {
	names []string
	seen  map[string]struct{}
}

// NewHiddenImportList creates a list seeded with names
func NewHiddenImportList(names ...string) *HiddenImportList {
	l := &HiddenImportList{}
	l.Add(names...)
	return l
}

// Add appends names that are not already present, keeping first-seen order
func (l *HiddenImportList) Add(names ...string) {
	if l.seen == nil {
		l.seen = make(map[string]struct{}, len(names))
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, dup := l.seen[name]; dup {
			continue
		}
		l.seen[name] = struct{}{}
		l.names = append(l.names, name)
	}
}

// Contains reports whether name is in the list
func (l *HiddenImportList) Contains(name string) bool {
	_, ok := l.seen[name]
	return ok
}

// Len returns the number of unique names
func (l *HiddenImportList) Len() int {
	return len(l.names)
}

// Names returns a copy of the names in insertion order
func (l *HiddenImportList) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// AppendMappings appends mappings to dst, skipping pairs already present
func AppendMappings(dst []DataFileMapping, mappings ...DataFileMapping) []DataFileMapping {
	for _, m := range mappings {
		dup := false
		for _, existing := range dst {
			if existing == m {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, m)
		}
	}
	return dst
}
