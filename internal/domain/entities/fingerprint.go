package entities

import (
	"strings"

	"github.com/recipify/diversity-guard/pkg/utils"
)

// SizeBucket is a coarse bucket for structural counts, deliberately lossy
// so near-identical recipes do not escape on an off-by-one ingredient.
type SizeBucket string

const (
	BucketSmall  SizeBucket = "small"
	BucketMedium SizeBucket = "medium"
	BucketLarge  SizeBucket = "large"
)

// IngredientCountBucket buckets an ingredient count
func IngredientCountBucket(n int) SizeBucket {
	switch {
	case n <= 4:
		return BucketSmall
	case n <= 8:
		return BucketMedium
	default:
		return BucketLarge
	}
}

// StepCountBucket buckets an instruction step count
func StepCountBucket(n int) SizeBucket {
	switch {
	case n <= 4:
		return BucketSmall
	case n <= 9:
		return BucketMedium
	default:
		return BucketLarge
	}
}

// ComboKey is the canonical identifier for a requested ingredient
// combination; avoid-list history is scoped by it.
type ComboKey string

// NewComboKey derives the canonical key for a requested ingredient set:
// normalized, identifier-ized, sorted, pipe-joined. Requests for
// ["Eggs", "flour"] and ["flour", "egg"] share a key.
func NewComboKey(ingredients []string) ComboKey {
	normalized := utils.NormalizeIngredientSet(ingredients)
	parts := make([]string, 0, len(normalized))
	for _, name := range normalized {
		if id := utils.NormalizeIdentifier(name); id != "" {
			parts = append(parts, id)
		}
	}
	return ComboKey(strings.Join(parts, "|"))
}

// Fingerprint is the derived, comparable representation of a recipe.
// Immutable once computed.
type Fingerprint struct {
	Ingredients      []string   `json:"ingredients"`
	Tags             []string   `json:"tags"`
	TitleTokens      []string   `json:"title_tokens"`
	IngredientBucket SizeBucket `json:"ingredient_bucket"`
	StepBucket       SizeBucket `json:"step_bucket"`
	Embedding        []float32  `json:"embedding,omitempty"`
}

// Title returns the normalized title as a single string
func (f *Fingerprint) Title() string {
	return strings.Join(f.TitleTokens, " ")
}

// EmbeddingText returns the text an embedding provider should encode for
// this fingerprint
func (f *Fingerprint) EmbeddingText() string {
	return f.Title() + ": " + strings.Join(f.Ingredients, ", ")
}

// HasEmbedding reports whether a vector is attached
func (f *Fingerprint) HasEmbedding() bool {
	return len(f.Embedding) > 0
}
