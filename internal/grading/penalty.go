package grading

// PenaltyBand is the slack, as a fraction of the individual-phase baseline,
// within which an underperforming group score is left untouched.
const PenaltyBand = 0.10

// DefaultPenaltyFactor is used when an exam has no factor configured.
const DefaultPenaltyFactor = 0.5

// ValidFactor reports whether a penalty factor is in [0, 1].
func ValidFactor(f float64) bool { return f >= 0 && f <= 1 }

// Penalty is the full breakdown of one penalty application, for previews.
type Penalty struct {
	Original   float64 `json:"original"`
	Baseline   float64 `json:"baseline"`
	Adjusted   float64 `json:"adjusted"`
	Adjustment float64 `json:"adjustment"` // fraction removed; 0 when no penalty
}

// Amount is how many points the penalty removed.
func (p Penalty) Amount() float64 { return p.Original - p.Adjusted }

// ApplyPenalty reduces a group score that falls more than PenaltyBand below
// the team's individual-phase average. With no baseline (avg <= 0), or when
// the group already matches or beats the average, the score passes through.
// The caller is responsible for factor being in [0, 1].
func ApplyPenalty(groupScore, individualAvg, factor float64) float64 {
	return PenaltyFor(groupScore, individualAvg, factor).Adjusted
}

// PenaltyFor is ApplyPenalty with the intermediate values exposed.
func PenaltyFor(groupScore, individualAvg, factor float64) Penalty {
	p := Penalty{Original: groupScore, Baseline: individualAvg, Adjusted: groupScore}
	if individualAvg <= 0 || groupScore >= individualAvg {
		return p
	}
	gap := individualAvg - groupScore
	if gap <= PenaltyBand*individualAvg {
		return p
	}
	ratio := gap / individualAvg
	adjustment := factor * ratio
	if adjustment > 1 {
		adjustment = 1
	}
	p.Adjustment = adjustment
	p.Adjusted = groupScore * (1 - adjustment)
	return p
}
