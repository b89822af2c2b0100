package evaluation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/recipify/diversity-guard/internal/domain/entities"
)

// LoadGoldenScenarios reads and parses a golden scenario set from a JSON file.
func LoadGoldenScenarios(path string) ([]GoldenScenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden scenarios file: %w", err)
	}

	var scenarios []GoldenScenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("failed to parse golden scenarios: %w", err)
	}

	return scenarios, nil
}

func validOutcome(o entities.Outcome) bool {
	switch o {
	case entities.OutcomeAdmitted, entities.OutcomeRejectedRetry, entities.OutcomeRejectedFinal:
		return true
	}
	return false
}

func validKind(k entities.RequestKind) bool {
	switch k {
	case entities.RequestKindFresh, entities.RequestKindReroll:
		return true
	}
	return false
}

// ValidateGoldenScenarios checks that all scenarios have required fields and
// valid values.
func ValidateGoldenScenarios(scenarios []GoldenScenario) error {
	seen := make(map[string]struct{}, len(scenarios))

	for i, sc := range scenarios {
		if sc.ID == "" {
			return fmt.Errorf("scenario at index %d: missing id", i)
		}
		if _, dup := seen[sc.ID]; dup {
			return fmt.Errorf("scenario at index %d: duplicate id %q", i, sc.ID)
		}
		seen[sc.ID] = struct{}{}

		if len(sc.Ingredients) == 0 {
			return fmt.Errorf("scenario %q: missing ingredients", sc.ID)
		}
		if sc.Kind != "" && !validKind(sc.Kind) {
			return fmt.Errorf("scenario %q: invalid kind %q (must be fresh/reroll)", sc.ID, sc.Kind)
		}
		if len(sc.Steps) == 0 {
			return fmt.Errorf("scenario %q: no steps", sc.ID)
		}

		for j, step := range sc.Steps {
			if step.Candidate == nil {
				return fmt.Errorf("scenario %q step %d: missing candidate", sc.ID, j)
			}
			if step.AttemptIndex < 0 {
				return fmt.Errorf("scenario %q step %d: negative attempt index", sc.ID, j)
			}
			if step.ExpectedOutcome != "" && !validOutcome(step.ExpectedOutcome) {
				return fmt.Errorf("scenario %q step %d: invalid expected outcome %q", sc.ID, j, step.ExpectedOutcome)
			}
		}
	}

	return nil
}
