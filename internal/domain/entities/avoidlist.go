package entities

import (
	"time"

	"github.com/google/uuid"
)

// AvoidListEntry is one admitted fingerprint in a combo's history. Owned
// by the history store; created once, never mutated, evicted by window
// expiry at read time or cap overflow at write time.
type AvoidListEntry struct {
	ID          string      `json:"id" db:"id"`
	ComboKey    ComboKey    `json:"combo_key" db:"combo_key"`
	UserID      string      `json:"user_id,omitempty" db:"user_id"`
	Fingerprint Fingerprint `json:"fingerprint" db:"-"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// NewAvoidListEntry creates an entry for an admitted fingerprint
func NewAvoidListEntry(comboKey ComboKey, userID string, fingerprint Fingerprint, createdAt time.Time) *AvoidListEntry {
	return &AvoidListEntry{
		ID:          uuid.NewString(),
		ComboKey:    comboKey,
		UserID:      userID,
		Fingerprint: fingerprint,
		CreatedAt:   createdAt,
	}
}
