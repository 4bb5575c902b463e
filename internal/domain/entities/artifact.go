// Package entities defines core domain models and data structures.
package entities

// Artifact represents a build output produced or consumed by a pipeline
type Artifact struct {
	Name     string
	Version  string
	Platform string
	Path     string
	Type     string // "executable", "app-bundle", "archive", etc.
}
