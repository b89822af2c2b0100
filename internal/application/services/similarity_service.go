package services

import (
	"github.com/recipify/diversity-guard/internal/domain/entities"
	"github.com/recipify/diversity-guard/pkg/config"
	"github.com/recipify/diversity-guard/pkg/utils"
)

// Breakdown component keys reported by SimilarityService.
const (
	ComponentIngredients = "ingredients"
	ComponentTitle       = "title"
	ComponentTags        = "tags"
	ComponentStructure   = "structure"
	ComponentEmbedding   = "embedding"
)

// SimilarityService scores fingerprint pairs on a 0 to 1 scale
type SimilarityService struct {
	weights       config.SimilarityWeights
	threshold     float64
	useEmbeddings bool
}

// NewSimilarityService creates a new similarity service from the guard policy
func NewSimilarityService(policy config.GuardPolicy) *SimilarityService {
	return &SimilarityService{
		weights:       policy.Weights,
		threshold:     policy.SimilarityThreshold,
		useEmbeddings: policy.UseEmbeddings,
	}
}

// Score returns the blended similarity of two fingerprints together with
// the per-component breakdown. The score is symmetric and equals 1 for
// identical fingerprints.
func (s *SimilarityService) Score(a, b *entities.Fingerprint) (float64, map[string]float64) {
	return s.score(a, b, s.useEmbeddings)
}

// ScoreEmbedded scores the pair with the embedding component forced on,
// regardless of policy. Used for shadow comparisons during rollout.
func (s *SimilarityService) ScoreEmbedded(a, b *entities.Fingerprint) (float64, map[string]float64) {
	return s.score(a, b, true)
}

func (s *SimilarityService) score(a, b *entities.Fingerprint, withEmbeddings bool) (float64, map[string]float64) {
	breakdown := make(map[string]float64, 5)

	ingredients := utils.Jaccard(a.Ingredients, b.Ingredients)
	title := utils.TitleSimilarity(a.TitleTokens, b.TitleTokens)
	tags := utils.Jaccard(a.Tags, b.Tags)
	structure := structureSimilarity(a, b)

	breakdown[ComponentIngredients] = ingredients
	breakdown[ComponentTitle] = title
	breakdown[ComponentTags] = tags
	breakdown[ComponentStructure] = structure

	sum := s.weights.Ingredients*ingredients +
		s.weights.Title*title +
		s.weights.Tags*tags +
		s.weights.Structure*structure
	total := s.weights.Ingredients + s.weights.Title + s.weights.Tags + s.weights.Structure

	if withEmbeddings && a.HasEmbedding() && b.HasEmbedding() {
		if cos, err := utils.CosineSimilarity(a.Embedding, b.Embedding); err == nil {
			embedding := utils.ClampUnit(cos)
			breakdown[ComponentEmbedding] = embedding
			sum += s.weights.Embedding * embedding
			total += s.weights.Embedding
		}
	}

	if total == 0 {
		return 0, breakdown
	}
	return utils.ClampUnit(sum / total), breakdown
}

// IsDuplicate reports whether a score crosses the duplicate threshold.
// The threshold itself counts as a duplicate.
func (s *SimilarityService) IsDuplicate(score float64) bool {
	return score >= s.threshold
}

// Threshold returns the configured duplicate threshold
func (s *SimilarityService) Threshold() float64 {
	return s.threshold
}

// MostSimilar scans history and returns the highest score found, the entry
// that produced it and that entry's component breakdown. A nil entry is
// returned for empty history.
func (s *SimilarityService) MostSimilar(candidate *entities.Fingerprint, history []*entities.AvoidListEntry) (float64, *entities.AvoidListEntry, map[string]float64) {
	var (
		best      float64
		bestEntry *entities.AvoidListEntry
		bestParts map[string]float64
	)

	for _, entry := range history {
		score, parts := s.Score(candidate, &entry.Fingerprint)
		if bestEntry == nil || score > best {
			best = score
			bestEntry = entry
			bestParts = parts
		}
	}

	return best, bestEntry, bestParts
}

func structureSimilarity(a, b *entities.Fingerprint) float64 {
	score := 0.0
	if a.IngredientBucket == b.IngredientBucket {
		score += 0.5
	}
	if a.StepBucket == b.StepBucket {
		score += 0.5
	}
	return score
}
