package generation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recipify/diversity-guard/internal/adapters/providers/generation"
	"github.com/recipify/diversity-guard/internal/domain/entities"
	"github.com/recipify/diversity-guard/internal/domain/providers"
	apperrors "github.com/recipify/diversity-guard/pkg/errors"
)

func TestMockAdapterGenerate(t *testing.T) {
	ctx := context.Background()
	generator := generation.NewMockAdapter()
	base := providers.GenerationRequest{
		Ingredients: []string{"chicken", "rice"},
		Cuisine:     entities.CuisineKorean,
		Audience:    entities.AudienceEveryone,
		Servings:    2,
	}

	t.Run("produces the same recipe for the same request", func(t *testing.T) {
		first, err := generator.Generate(ctx, base)
		assert.NoError(t, err)
		second, err := generator.Generate(ctx, base)
		assert.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("rotates preparation styles across attempts", func(t *testing.T) {
		initial, err := generator.Generate(ctx, base)
		assert.NoError(t, err)

		retry := base
		retry.AttemptIndex = 1
		varied, err := generator.Generate(ctx, retry)
		assert.NoError(t, err)

		assert.Equal(t, "Chicken and Rice Skillet", initial.Title)
		assert.Equal(t, "Baked Chicken with Rice", varied.Title)
		assert.NotEqual(t, initial.Instructions[0], varied.Instructions[0])
	})

	t.Run("skips past avoided titles regardless of case", func(t *testing.T) {
		req := base
		req.AvoidTitles = []string{"CHICKEN AND RICE SKILLET"}

		recipe, err := generator.Generate(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, "Baked Chicken with Rice", recipe.Title)
	})

	t.Run("lists the requested ingredients plus staples", func(t *testing.T) {
		recipe, err := generator.Generate(ctx, base)

		assert.NoError(t, err)
		names := recipe.IngredientNames()
		assert.Contains(t, names, "chicken")
		assert.Contains(t, names, "rice")
		assert.Contains(t, names, "salt")
		assert.Contains(t, names, "vegetable oil")
		assert.NotEmpty(t, recipe.Instructions)
	})

	t.Run("phrases servings for baby audiences", func(t *testing.T) {
		req := base
		req.Audience = entities.AudienceBaby9To12

		recipe, err := generator.Generate(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, "Approx. 2 baby portions", recipe.Servings)
	})

	t.Run("declines when no ingredients are provided", func(t *testing.T) {
		recipe, err := generator.Generate(ctx, providers.GenerationRequest{Servings: 2})

		assert.Nil(t, recipe)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		assert.Contains(t, err.Error(), "declined")
	})
}
