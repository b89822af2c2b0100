package services

import (
	"context"
	"log"
	"time"

	"github.com/recipify/diversity-guard/internal/domain/entities"
	"github.com/recipify/diversity-guard/internal/domain/providers"
	"github.com/recipify/diversity-guard/internal/domain/repositories"
	"github.com/recipify/diversity-guard/internal/infrastructure/observability"
	"github.com/recipify/diversity-guard/pkg/config"
	apperrors "github.com/recipify/diversity-guard/pkg/errors"
)

// GenerateRequest asks for one recipe built around an ingredient combo.
type GenerateRequest struct {
	Ingredients []string
	Cuisine     string
	Audience    string
	Servings    int
	UserID      string
	Kind        entities.RequestKind
}

// GenerateResult is the served recipe plus the guard's final verdict.
// Fallback marks a recipe served despite exhausting the attempt budget.
type GenerateResult struct {
	Recipe   *entities.Recipe `json:"recipe"`
	Decision *Decision        `json:"decision"`
	Attempts int              `json:"attempts"`
	Fallback bool             `json:"fallback,omitempty"`
}

// GenerationService drives the generate-evaluate loop. The guard itself
// never retries or sleeps; all looping lives here on the caller side.
type GenerationService struct {
	guard     *GuardService
	generator providers.RecipeGenerator
	store     repositories.AvoidListRepository
	metrics   *observability.Metrics
	policy    config.GuardPolicy
	now       func() time.Time
}

// NewGenerationService creates a new generation service
func NewGenerationService(
	guard *GuardService,
	generator providers.RecipeGenerator,
	store repositories.AvoidListRepository,
	metrics *observability.Metrics,
	policy config.GuardPolicy,
) *GenerationService {
	return &GenerationService{
		guard:     guard,
		generator: generator,
		store:     store,
		metrics:   metrics,
		policy:    policy,
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *GenerationService) WithClock(now func() time.Time) *GenerationService {
	s.now = now
	return s
}

// GenerateRecipe produces a recipe for the request, regenerating until the
// guard admits a candidate or the attempt budget runs out. On exhaustion
// the configured fallback either serves the last candidate or fails with a
// conflict error.
func (s *GenerationService) GenerateRecipe(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	ctx, span := observability.StartSpan(ctx, "generation.generate")
	defer span.End()

	if req.Cuisine == "" {
		req.Cuisine = entities.CuisineAny
	}
	if req.Audience == "" {
		req.Audience = entities.AudienceEveryone
	}
	if req.Servings <= 0 {
		req.Servings = 1
	}
	if req.Kind == "" {
		req.Kind = entities.RequestKindFresh
	}

	comboKey := entities.NewComboKey(req.Ingredients)
	if comboKey == "" {
		return nil, apperrors.NewValidationError("request has no usable ingredients")
	}

	avoidTitles, err := s.activeTitles(ctx, comboKey)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	budget := s.guard.AttemptBudget(req.Kind, req.Ingredients)
	logger := observability.ComboLogger(ctx, string(comboKey))

	var lastErr error
	for attempt := 0; attempt < budget; attempt++ {
		recipe, err := s.generator.Generate(ctx, providers.GenerationRequest{
			Ingredients:  req.Ingredients,
			Cuisine:      req.Cuisine,
			Audience:     req.Audience,
			Servings:     req.Servings,
			AvoidTitles:  avoidTitles,
			AttemptIndex: attempt,
		})
		if err != nil {
			if apperrors.IsInvalidRecipe(err) {
				// Malformed model output burns the attempt
				logger.Warn().Err(err).Int("attempt_index", attempt).Msg("discarding malformed candidate")
				lastErr = err
				continue
			}
			observability.RecordError(span, err)
			return nil, err
		}

		recipe.Cuisine = req.Cuisine
		recipe.Audience = req.Audience

		decision, err := s.guard.EvaluateCandidate(ctx, EvaluateRequest{
			Candidate:          recipe,
			RequestIngredients: req.Ingredients,
			UserID:             req.UserID,
			Kind:               req.Kind,
			AttemptIndex:       attempt,
		})
		if err != nil {
			if apperrors.IsInvalidRecipe(err) {
				logger.Warn().Err(err).Int("attempt_index", attempt).Msg("discarding invalid candidate")
				lastErr = err
				continue
			}
			observability.RecordError(span, err)
			return nil, err
		}

		switch decision.Outcome {
		case entities.OutcomeAdmitted:
			observability.RecordGenerationAttempts(ctx, s.metrics, attempt+1, true)
			return &GenerateResult{
				Recipe:   recipe,
				Decision: decision,
				Attempts: attempt + 1,
			}, nil

		case entities.OutcomeRejectedRetry:
			avoidTitles = append(avoidTitles, recipe.Title)
			log.Printf("Diversity retry %d/%d for %s: %q too close to %q (score %.2f)",
				attempt+1, budget, comboKey, recipe.Title, decision.MostSimilarTitle, decision.MaxSimilarity)

		case entities.OutcomeRejectedFinal:
			observability.RecordGenerationAttempts(ctx, s.metrics, attempt+1, false)
			if s.policy.ExhaustedFallback == config.ExhaustedFallbackServeLast {
				logger.Warn().
					Float64("max_similarity", decision.MaxSimilarity).
					Msg("attempt budget exhausted, serving last candidate")
				return &GenerateResult{
					Recipe:   recipe,
					Decision: decision,
					Attempts: attempt + 1,
					Fallback: true,
				}, nil
			}
			return nil, apperrors.NewConflictError("could not generate a sufficiently different recipe")
		}
	}

	// Budget consumed without a single evaluable candidate
	observability.RecordGenerationAttempts(ctx, s.metrics, budget, false)
	return nil, apperrors.NewExternalError("generator produced no valid candidate", lastErr)
}

// activeTitles collects the titles currently in the combo's history so the
// generator can steer away from them
func (s *GenerationService) activeTitles(ctx context.Context, comboKey entities.ComboKey) ([]string, error) {
	windowStart := s.now().AddDate(0, 0, -s.policy.WindowDays)

	history, err := s.store.GetActive(ctx, comboKey, windowStart)
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(history))
	for _, entry := range history {
		if title := entry.Fingerprint.Title(); title != "" {
			titles = append(titles, title)
		}
	}
	return titles, nil
}
