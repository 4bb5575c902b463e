package services

import _ "embed"

//go:embed defaults/README.md
var defaultReadme string

//go:embed defaults/LICENSE
var defaultLicense string

// DefaultReadme is shipped when the project has no README.md
func DefaultReadme() string {
	return defaultReadme
}

// DefaultLicense is shipped when the project has no LICENSE
func DefaultLicense() string {
	return defaultLicense
}
