// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/quizpack/internal/domain/entities"
)

// ProfileRepository defines the interface for accessing build profiles
type ProfileRepository interface {
	// GetProfile retrieves a build profile by name
	GetProfile(ctx context.Context, name string) (*entities.BuildProfile, error)

	// ListProfiles returns all available build profiles
	ListProfiles(ctx context.Context) ([]*entities.BuildProfile, error)
}
