package composite

import (
	"time"

	"github.com/lotus-edu/lotus-backend/internal/apperr"
)

// WeightCap bounds the summed component weights of one composite. Weights
// above 1.0 in total are allowed for extra-credit schemes, up to this cap.
const WeightCap = 2.0

// Composite is a named weighted combination of exam scores, defined per
// cohort by a teacher.
type Composite struct {
	ID          string    `json:"id"`
	CohortID    string    `json:"cohort_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Component is one exam's contribution to a composite.
type Component struct {
	CompositeID string  `json:"composite_id"`
	ExamID      string  `json:"exam_id"`
	Weight      float64 `json:"weight"`
}

// ValidateComponents checks the positive-weight and weight-cap rules against
// the given cap (0 means WeightCap).
func ValidateComponents(comps []Component, cap float64) error {
	if cap <= 0 {
		cap = WeightCap
	}
	if len(comps) == 0 {
		return apperr.Invalid(apperr.ErrInvalidWeight, "composite requires at least one component")
	}
	sum := 0.0
	seen := make(map[string]struct{}, len(comps))
	for _, c := range comps {
		if c.Weight <= 0 {
			return apperr.Invalid(apperr.ErrInvalidWeight, "component weight must be positive, got %v", c.Weight)
		}
		if _, dup := seen[c.ExamID]; dup {
			return apperr.Invalid(apperr.ErrInvalidWeight, "exam %q appears twice", c.ExamID)
		}
		seen[c.ExamID] = struct{}{}
		sum += c.Weight
	}
	if sum > cap {
		return apperr.Invalid(apperr.ErrInvalidWeight, "component weights sum to %v, cap is %v", sum, cap)
	}
	return nil
}

// Result is the materialized composite grade of one student. It is a derived
// cache: recomputation after any release overwrites it.
type Result struct {
	StudentID   string    `json:"student_id"`
	CompositeID string    `json:"composite_id"`
	Value       float64   `json:"value"`
	ComputedAt  time.Time `json:"computed_at"`
}
