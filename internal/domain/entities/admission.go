package entities

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the admission state a candidate lands in. Every request
// starts REQUESTED and transitions to exactly one of these.
type Outcome string

const (
	OutcomeAdmitted      Outcome = "ADMITTED"
	OutcomeRejectedRetry Outcome = "REJECTED_RETRY"
	OutcomeRejectedFinal Outcome = "REJECTED_FINAL"
)

// RequestKind distinguishes a first-time generation from a user-initiated
// reroll; the two carry different attempt caps.
type RequestKind string

const (
	RequestKindFresh  RequestKind = "fresh"
	RequestKindReroll RequestKind = "reroll"
)

// AdmissionEvent is the record published after every guard decision
type AdmissionEvent struct {
	ID            string      `json:"id"`
	ComboKey      ComboKey    `json:"combo_key"`
	UserID        string      `json:"user_id,omitempty"`
	Outcome       Outcome     `json:"outcome"`
	RequestKind   RequestKind `json:"request_kind"`
	AttemptIndex  int         `json:"attempt_index"`
	MaxSimilarity float64     `json:"max_similarity"`
	Timestamp     time.Time   `json:"timestamp"`
}

// NewAdmissionEvent creates an admission event for a decision
func NewAdmissionEvent(comboKey ComboKey, userID string, outcome Outcome, kind RequestKind, attemptIndex int, maxSimilarity float64) *AdmissionEvent {
	return &AdmissionEvent{
		ID:            uuid.NewString(),
		ComboKey:      comboKey,
		UserID:        userID,
		Outcome:       outcome,
		RequestKind:   kind,
		AttemptIndex:  attemptIndex,
		MaxSimilarity: maxSimilarity,
		Timestamp:     time.Now(),
	}
}
