package services

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/recipify/diversity-guard/internal/domain/entities"
	"github.com/recipify/diversity-guard/internal/domain/providers"
	"github.com/recipify/diversity-guard/internal/domain/repositories"
	"github.com/recipify/diversity-guard/internal/infrastructure/observability"
	"github.com/recipify/diversity-guard/pkg/config"
	apperrors "github.com/recipify/diversity-guard/pkg/errors"
	"github.com/recipify/diversity-guard/pkg/utils"
)

// EvaluateRequest carries one candidate through the admission decision.
type EvaluateRequest struct {
	// Candidate is the freshly generated recipe under evaluation
	Candidate *entities.Recipe

	// RequestIngredients are the ingredients the user asked for; they
	// determine the combo key, not the candidate's own ingredient list
	RequestIngredients []string

	// UserID is optional and only recorded on history entries and events
	UserID string

	// Kind defaults to a fresh request when empty
	Kind entities.RequestKind

	// AttemptIndex is zero-based within the current generation loop
	AttemptIndex int
}

// Decision is the guard's verdict on one candidate.
type Decision struct {
	Outcome           entities.Outcome      `json:"outcome"`
	ComboKey          entities.ComboKey     `json:"combo_key"`
	MaxSimilarity     float64               `json:"max_similarity"`
	MostSimilarTitle  string                `json:"most_similar_title,omitempty"`
	Breakdown         map[string]float64    `json:"breakdown,omitempty"`
	AttemptsAllowed   int                   `json:"attempts_allowed"`
	AttemptsRemaining int                   `json:"attempts_remaining"`
	HistorySize       int                   `json:"history_size"`
	Fingerprint       *entities.Fingerprint `json:"fingerprint,omitempty"`
}

// Admitted reports whether the candidate may be served
func (d *Decision) Admitted() bool {
	return d.Outcome == entities.OutcomeAdmitted
}

// GuardService decides whether generated recipes are diverse enough to
// serve. Decisions for the same combo key are linearized; different combo
// keys evaluate in parallel.
type GuardService struct {
	store        repositories.AvoidListRepository
	fingerprints *FingerprintService
	similarity   *SimilarityService
	events       providers.EventBus
	flags        *FeatureFlags
	metrics      *observability.Metrics
	policy       config.GuardPolicy
	now          func() time.Time

	comboLocks sync.Map
}

// NewGuardService creates a new guard service. events and metrics may be
// nil for embedded library use.
func NewGuardService(
	store repositories.AvoidListRepository,
	fingerprints *FingerprintService,
	similarity *SimilarityService,
	events providers.EventBus,
	flags *FeatureFlags,
	metrics *observability.Metrics,
	policy config.GuardPolicy,
) *GuardService {
	return &GuardService{
		store:        store,
		fingerprints: fingerprints,
		similarity:   similarity,
		events:       events,
		flags:        flags,
		metrics:      metrics,
		policy:       policy,
		now:          time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *GuardService) WithClock(now func() time.Time) *GuardService {
	s.now = now
	return s
}

// AttemptBudget returns how many attempts the policy allows for a request.
// The reroll cap and the low-entropy cap both lower the budget; whichever
// is lowest wins.
func (s *GuardService) AttemptBudget(kind entities.RequestKind, ingredients []string) int {
	budget := s.policy.MaxAttemptsDefault
	if kind == entities.RequestKindReroll {
		budget = s.policy.MaxAttemptsReroll
	}

	distinct := len(utils.NormalizeIngredientSet(ingredients))
	if distinct <= s.policy.LowEntropyIngredientCount && s.policy.LowEntropyMaxAttempts < budget {
		budget = s.policy.LowEntropyMaxAttempts
	}

	return budget
}

// EvaluateCandidate runs one candidate through the admission state machine.
// Admitted candidates are recorded in the avoid-list history before the
// decision returns, so a later read for the same combo always sees them.
func (s *GuardService) EvaluateCandidate(ctx context.Context, req EvaluateRequest) (*Decision, error) {
	ctx, span := observability.StartSpan(ctx, "guard.evaluate")
	defer span.End()

	kind := req.Kind
	if kind == "" {
		kind = entities.RequestKindFresh
	}
	if req.AttemptIndex < 0 {
		return nil, apperrors.NewValidationError("attempt index must not be negative")
	}

	comboKey := entities.NewComboKey(req.RequestIngredients)
	if comboKey == "" {
		return nil, apperrors.NewValidationError("request has no usable ingredients")
	}

	observability.SetSpanAttributes(span,
		attribute.String("guard.combo_key", string(comboKey)),
		attribute.String("guard.request_kind", string(kind)),
		attribute.Int("guard.attempt_index", req.AttemptIndex),
	)

	// Fingerprinting may call the embedding provider, keep it outside the
	// combo critical section.
	fp, err := s.fingerprints.Compute(ctx, req.Candidate)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	unlock := s.lockCombo(comboKey)
	defer unlock()

	now := s.now()
	windowStart := now.AddDate(0, 0, -s.policy.WindowDays)

	history, err := s.store.GetActive(ctx, comboKey, windowStart)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	maxSim, bestEntry, breakdown := s.similarity.MostSimilar(fp, history)
	s.logShadowScore(ctx, comboKey, fp, history, maxSim)

	allowed := s.AttemptBudget(kind, req.RequestIngredients)
	decision := &Decision{
		ComboKey:        comboKey,
		MaxSimilarity:   maxSim,
		Breakdown:       breakdown,
		AttemptsAllowed: allowed,
		HistorySize:     len(history),
		Fingerprint:     fp,
	}
	if bestEntry != nil {
		decision.MostSimilarTitle = bestEntry.Fingerprint.Title()
	}

	if !s.similarity.IsDuplicate(maxSim) {
		entry := entities.NewAvoidListEntry(comboKey, req.UserID, *fp, now)
		if err := s.store.Append(ctx, entry); err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
		decision.Outcome = entities.OutcomeAdmitted
	} else if req.AttemptIndex+1 >= allowed {
		decision.Outcome = entities.OutcomeRejectedFinal
	} else {
		decision.Outcome = entities.OutcomeRejectedRetry
	}

	decision.AttemptsRemaining = allowed - (req.AttemptIndex + 1)
	if decision.AttemptsRemaining < 0 {
		decision.AttemptsRemaining = 0
	}

	s.publishDecision(ctx, comboKey, req.UserID, kind, req.AttemptIndex, decision)

	observability.SetSpanAttributes(span,
		attribute.String("guard.outcome", string(decision.Outcome)),
		attribute.Float64("guard.max_similarity", maxSim),
	)
	observability.RecordAdmission(ctx, s.metrics, string(decision.Outcome), string(kind), maxSim)

	logger := observability.ComboLogger(ctx, string(comboKey))
	logger.Info().
		Str("outcome", string(decision.Outcome)).
		Str("request_kind", string(kind)).
		Int("attempt_index", req.AttemptIndex).
		Float64("max_similarity", maxSim).
		Str("most_similar_title", decision.MostSimilarTitle).
		Int("history_size", decision.HistorySize).
		Msg("admission decision")

	return decision, nil
}

// lockCombo serializes evaluation per combo key and returns the unlock
func (s *GuardService) lockCombo(comboKey entities.ComboKey) func() {
	v, _ := s.comboLocks.LoadOrStore(comboKey, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// logShadowScore compares embedding-aware scoring against the lexical
// decision when shadow mode is on but embeddings do not yet gate admission
func (s *GuardService) logShadowScore(ctx context.Context, comboKey entities.ComboKey, fp *entities.Fingerprint, history []*entities.AvoidListEntry, lexical float64) {
	if s.flags == nil || !s.flags.EmbeddingShadowEnabled() || s.policy.UseEmbeddings || !fp.HasEmbedding() {
		return
	}

	var shadow float64
	for _, entry := range history {
		score, _ := s.similarity.ScoreEmbedded(fp, &entry.Fingerprint)
		if score > shadow {
			shadow = score
		}
	}

	observability.ComboLogger(ctx, string(comboKey)).Info().
		Float64("lexical_score", lexical).
		Float64("shadow_score", shadow).
		Float64("delta", shadow-lexical).
		Msg("embedding shadow comparison")
}

func (s *GuardService) publishDecision(ctx context.Context, comboKey entities.ComboKey, userID string, kind entities.RequestKind, attemptIndex int, decision *Decision) {
	if s.events == nil {
		return
	}

	event := entities.NewAdmissionEvent(comboKey, userID, decision.Outcome, kind, attemptIndex, decision.MaxSimilarity)
	logger := observability.ComboLogger(ctx, string(comboKey))

	if err := s.events.Publish(ctx, providers.EventChannelAdmissions, event); err != nil {
		logger.Warn().Err(err).Msg("failed to publish admission event")
	}
	if err := s.events.Publish(ctx, providers.GetComboChannel(comboKey), event); err != nil {
		logger.Warn().Err(err).Msg("failed to publish combo admission event")
	}
}
