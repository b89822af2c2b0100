package services

import (
	"context"
	"log"

	"github.com/recipify/diversity-guard/internal/domain/entities"
	"github.com/recipify/diversity-guard/internal/domain/providers"
	apperrors "github.com/recipify/diversity-guard/pkg/errors"
	"github.com/recipify/diversity-guard/pkg/utils"
)

// techniqueBuckets maps a coarse cooking-method label to the title words
// that signal it. Detection runs on normalized title tokens, so compound
// forms appear in their tokenized spelling.
var techniqueBuckets = map[string][]string{
	"skillet": {"skillet", "pan", "stirfry", "saute", "saut", "sear"},
	"grill":   {"grill", "grilled", "skewer", "broil", "broiler"},
	"bake":    {"bake", "baked", "roast", "roasted", "sheetpan"},
	"mash":    {"mash", "puree", "whip"},
	"salad":   {"salad", "bowl", "cold"},
	"soup":    {"soup", "stew", "braise"},
	"wrap":    {"wrap", "taco", "sandwich", "pita"},
}

// FingerprintService derives comparable fingerprints from recipes
type FingerprintService struct {
	embedder      providers.EmbeddingProvider
	attachVectors bool
}

// NewFingerprintService creates a new fingerprint service. When embedder is
// nil or attachVectors is false, fingerprints are purely lexical.
func NewFingerprintService(embedder providers.EmbeddingProvider, attachVectors bool) *FingerprintService {
	return &FingerprintService{
		embedder:      embedder,
		attachVectors: attachVectors,
	}
}

// Compute builds the fingerprint for a recipe candidate
func (s *FingerprintService) Compute(ctx context.Context, recipe *entities.Recipe) (*entities.Fingerprint, error) {
	if recipe == nil {
		return nil, apperrors.NewInvalidRecipeError("recipe is missing")
	}
	if len(recipe.IngredientsUsed) == 0 {
		return nil, apperrors.NewInvalidRecipeError("recipe has no ingredients")
	}
	if len(recipe.Instructions) == 0 {
		return nil, apperrors.NewInvalidRecipeError("recipe has no instructions")
	}

	titleTokens := utils.NormalizeTitle(recipe.Title)

	fp := &entities.Fingerprint{
		Ingredients:      utils.NormalizeIngredientSet(recipe.IngredientNames()),
		Tags:             deriveTags(recipe, titleTokens),
		TitleTokens:      titleTokens,
		IngredientBucket: entities.IngredientCountBucket(len(recipe.IngredientsUsed)),
		StepBucket:       entities.StepCountBucket(len(recipe.Instructions)),
	}

	if s.attachVectors && s.embedder != nil {
		vector, err := s.embedder.EmbedText(ctx, fp.EmbeddingText())
		if err != nil {
			// Embedding loss degrades scoring to lexical, it must not block admission
			log.Printf("Warning: failed to embed recipe %q: %v", recipe.Title, err)
		} else {
			fp.Embedding = vector
		}
	}

	return fp, nil
}

// deriveTags collects cuisine, audience and detected technique labels
func deriveTags(recipe *entities.Recipe, titleTokens []string) []string {
	var raw []string

	if recipe.Cuisine != "" && recipe.Cuisine != entities.CuisineAny {
		raw = append(raw, recipe.Cuisine)
	}
	if recipe.Audience != "" && recipe.Audience != entities.AudienceEveryone {
		raw = append(raw, recipe.Audience)
	}

	words := make(map[string]bool, len(titleTokens))
	for _, t := range titleTokens {
		words[t] = true
	}
	for label, keys := range techniqueBuckets {
		for _, k := range keys {
			if words[k] {
				raw = append(raw, label)
				break
			}
		}
	}

	return utils.NormalizeTags(raw)
}
