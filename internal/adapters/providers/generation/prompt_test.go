package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recipify/diversity-guard/internal/domain/entities"
	"github.com/recipify/diversity-guard/internal/domain/providers"
	apperrors "github.com/recipify/diversity-guard/pkg/errors"
)

func TestBuildRecipePrompt(t *testing.T) {
	base := providers.GenerationRequest{
		Ingredients: []string{"Chicken", "Rice"},
		Cuisine:     entities.CuisineKorean,
		Audience:    entities.AudienceEveryone,
		Servings:    2,
	}

	t.Run("includes the request inputs", func(t *testing.T) {
		prompt := buildRecipePrompt(base)

		assert.Contains(t, prompt, `User provided ingredients: "Chicken, Rice"`)
		assert.Contains(t, prompt, assumedStaples)
		assert.Contains(t, prompt, "Approximately **2 serving(s)**")
		assert.Contains(t, prompt, `Selected audience: "Everyone"`)
	})

	t.Run("names a specific cuisine style", func(t *testing.T) {
		prompt := buildRecipePrompt(base)

		assert.Contains(t, prompt, "The desired cuisine style is **Korean**")
		assert.NotContains(t, prompt, "has not specified a particular cuisine")
	})

	t.Run("leaves the cuisine flexible when unspecified", func(t *testing.T) {
		req := base
		req.Cuisine = entities.CuisineAny

		prompt := buildRecipePrompt(req)

		assert.Contains(t, prompt, "The user has not specified a particular cuisine")
		assert.NotContains(t, prompt, "desired cuisine style is")
	})

	t.Run("lists titles to steer away from", func(t *testing.T) {
		req := base
		req.AvoidTitles = []string{"Chicken Rice Skillet", "Korean Fried Rice"}

		prompt := buildRecipePrompt(req)

		assert.Contains(t, prompt, `"Chicken Rice Skillet; Korean Fried Rice"`)
		assert.Contains(t, prompt, "Prioritize novelty.")
		assert.Contains(t, prompt, "Avoid these titles if possible:")
		assert.NotContains(t, prompt, "Generate freely.")
	})

	t.Run("invites free generation without avoid titles", func(t *testing.T) {
		prompt := buildRecipePrompt(base)

		assert.Contains(t, prompt, "No specific meals to avoid were provided. Generate freely.")
		assert.NotContains(t, prompt, "Avoid these titles if possible:")
	})

	t.Run("applies baby guidelines for baby audiences", func(t *testing.T) {
		req := base
		req.Audience = entities.AudienceBaby6To8

		prompt := buildRecipePrompt(req)

		assert.Contains(t, prompt, "ABSOLUTELY NO added salt")
		assert.Contains(t, prompt, "SMOOTH PUREE")
		assert.NotContains(t, prompt, "Standard seasoning and preparation.")
	})

	t.Run("uses standard guidelines for adults", func(t *testing.T) {
		prompt := buildRecipePrompt(base)

		assert.Contains(t, prompt, "Standard seasoning and preparation.")
		assert.NotContains(t, prompt, "SMOOTH PUREE")
	})
}

const validRecipePayload = `{
	"title": "Chicken Fried Rice",
	"description": "A quick skillet dinner.",
	"prepTime": "10 minutes",
	"cookTime": "15 minutes",
	"servings": "2 adult servings",
	"ingredientsUsed": [
		{"name": "Chicken", "quantity": "1", "unit": "cup"},
		{"name": "Rice", "quantity": "2", "unit": "cups"},
		{"name": "Salt", "quantity": "1", "unit": "tsp"}
	],
	"instructions": ["Cook the rice.", "Fry the chicken.", "Combine and season."]
}`

func TestParseRecipePayload(t *testing.T) {
	t.Run("decodes a well-formed response", func(t *testing.T) {
		recipe, err := parseRecipePayload(validRecipePayload)

		assert.NoError(t, err)
		assert.Equal(t, "Chicken Fried Rice", recipe.Title)
		assert.Equal(t, []string{"Chicken", "Rice", "Salt"}, recipe.IngredientNames())
		assert.Len(t, recipe.Instructions, 3)
	})

	t.Run("strips markdown code fences", func(t *testing.T) {
		recipe, err := parseRecipePayload("```json\n" + validRecipePayload + "\n```")

		assert.NoError(t, err)
		assert.Equal(t, "Chicken Fried Rice", recipe.Title)
	})

	t.Run("surfaces a declined generation as a validation error", func(t *testing.T) {
		recipe, err := parseRecipePayload(`{"error": "With just water and salt, I can't create a full recipe."}`)

		assert.Nil(t, recipe)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		assert.Contains(t, err.Error(), "recipe generation declined")
	})

	t.Run("treats malformed JSON as an invalid recipe", func(t *testing.T) {
		recipe, err := parseRecipePayload(`{"title": "Chicken`)

		assert.Nil(t, recipe)
		assert.True(t, apperrors.IsInvalidRecipe(err))
	})

	t.Run("treats conversational text as an invalid recipe", func(t *testing.T) {
		recipe, err := parseRecipePayload("Sure! Here is a recipe for you:")

		assert.Nil(t, recipe)
		assert.True(t, apperrors.IsInvalidRecipe(err))
	})

	t.Run("rejects an empty response", func(t *testing.T) {
		recipe, err := parseRecipePayload("   ")

		assert.Nil(t, recipe)
		assert.True(t, apperrors.IsInvalidRecipe(err))
	})

	t.Run("rejects responses missing required fields", func(t *testing.T) {
		cases := map[string]string{
			"no title":        `{"ingredientsUsed": [{"name": "Rice", "quantity": "1", "unit": "cup"}], "instructions": ["Cook."]}`,
			"no ingredients":  `{"title": "Rice", "ingredientsUsed": [], "instructions": ["Cook."]}`,
			"no instructions": `{"title": "Rice", "ingredientsUsed": [{"name": "Rice", "quantity": "1", "unit": "cup"}], "instructions": []}`,
		}

		for name, payload := range cases {
			t.Run(name, func(t *testing.T) {
				recipe, err := parseRecipePayload(payload)

				assert.Nil(t, recipe)
				assert.True(t, apperrors.IsInvalidRecipe(err))
			})
		}
	})
}
