package generation

import (
	"context"
	"fmt"
	"strings"

	"github.com/recipify/diversity-guard/internal/domain/entities"
	"github.com/recipify/diversity-guard/internal/domain/providers"
	apperrors "github.com/recipify/diversity-guard/pkg/errors"
)

// mockForms rotate through distinct techniques so retries land in
// different structural buckets.
var mockForms = []struct {
	title     string
	technique string
}{
	{"%s and %s Skillet", "Heat the oil in a large skillet over medium-high heat."},
	{"Baked %s with %s", "Preheat the oven to 200C and line a sheet pan."},
	{"%s Soup with %s", "Bring a pot of water to a gentle simmer."},
	{"%s and %s Salad", "Rinse everything under cold water and pat dry."},
	{"Grilled %s with %s", "Preheat the grill to medium-high."},
}

// MockAdapter provides deterministic recipes for local development and tests.
type MockAdapter struct{}

// NewMockAdapter creates a mock recipe generator.
func NewMockAdapter() providers.RecipeGenerator {
	return &MockAdapter{}
}

// Generate returns a deterministic recipe derived from the request. The
// attempt index picks the preparation style, skipping past avoided titles.
func (m *MockAdapter) Generate(ctx context.Context, req providers.GenerationRequest) (*entities.Recipe, error) {
	if len(req.Ingredients) == 0 {
		return nil, apperrors.NewValidationError("recipe generation declined: no ingredients were provided")
	}

	first := titleWord(req.Ingredients[0])
	second := first
	if len(req.Ingredients) > 1 {
		second = titleWord(req.Ingredients[1])
	}

	avoided := make(map[string]struct{}, len(req.AvoidTitles))
	for _, title := range req.AvoidTitles {
		avoided[strings.ToLower(title)] = struct{}{}
	}

	form := mockForms[req.AttemptIndex%len(mockForms)]
	title := fmt.Sprintf(form.title, first, second)
	for range mockForms {
		if _, skip := avoided[strings.ToLower(title)]; !skip {
			break
		}
		req.AttemptIndex++
		form = mockForms[req.AttemptIndex%len(mockForms)]
		title = fmt.Sprintf(form.title, first, second)
	}

	used := make([]entities.Ingredient, 0, len(req.Ingredients)+2)
	for _, name := range req.Ingredients {
		used = append(used, entities.Ingredient{Name: name, Quantity: "1", Unit: "cup"})
	}
	used = append(used,
		entities.Ingredient{Name: "salt", Quantity: "1", Unit: "tsp"},
		entities.Ingredient{Name: "vegetable oil", Quantity: "2", Unit: "tbsp"},
	)

	servings := fmt.Sprintf("%d adult servings", req.Servings)
	if strings.HasPrefix(req.Audience, "Baby") {
		servings = fmt.Sprintf("Approx. %d baby portions", req.Servings)
	}

	return &entities.Recipe{
		Title:           title,
		Description:     fmt.Sprintf("A simple %s dish built around %s.", strings.ToLower(req.Cuisine), strings.ToLower(first)),
		Cuisine:         req.Cuisine,
		Audience:        req.Audience,
		PrepTime:        "10 minutes",
		CookTime:        "20 minutes",
		Servings:        servings,
		IngredientsUsed: used,
		Instructions: []string{
			form.technique,
			fmt.Sprintf("Add the %s and cook until tender.", strings.ToLower(first)),
			"Season with salt and combine everything.",
			"Serve warm.",
		},
		Notes: "Leftovers keep for two days refrigerated.",
	}, nil
}

func titleWord(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
