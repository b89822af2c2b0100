package providers

import (
	"context"

	"github.com/recipify/diversity-guard/internal/domain/entities"
)

// GenerationRequest carries the inputs for one recipe generation attempt.
type GenerationRequest struct {
	// Ingredients the recipe must be built around
	Ingredients []string

	// Cuisine preference, e.g. "Italian" or "Any"
	Cuisine string

	// Audience the recipe is intended for, e.g. "Baby (9-12 months)"
	Audience string

	// Servings the recipe should yield
	Servings int

	// AvoidTitles lists recently served titles the generator should steer away from
	AvoidTitles []string

	// AttemptIndex is zero for the first attempt and increments on each retry
	AttemptIndex int
}

// RecipeGenerator defines the interface for recipe generation backends
type RecipeGenerator interface {
	// Generate produces a single recipe candidate for the request
	Generate(ctx context.Context, req GenerationRequest) (*entities.Recipe, error)
}
