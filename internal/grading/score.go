// Package grading holds the pure scoring rules: per-answer points and the
// group-readiness penalty. Nothing here touches storage.
package grading

// Question kinds understood by the scorer.
const (
	KindChoice    = "mcq_single"
	KindTrueFalse = "true_false"
	KindFreeText  = "free_text"
)

// Option is the view of an answer option needed for scoring.
type Option struct {
	Correct bool
	Points  *float64 // explicit value; nil means split the question total
}

// Question is the view of a question needed for scoring.
type Question struct {
	Kind       string
	TotalValue float64
	Options    []Option
}

// Answer is the view of one submitted answer.
type Answer struct {
	Selected  *Option // nil for free text or when nothing was selected
	Corrected bool
	Awarded   *float64 // set by manual correction
}

// Objective reports whether a question kind requires a selected option.
func Objective(kind string) bool {
	return kind == KindChoice || kind == KindTrueFalse
}

// OptionPoints returns the point value of one option: its explicit value if
// set, otherwise the question total split evenly among the options flagged
// correct. A question with no correct option yields 0 for every option.
func OptionPoints(q Question, o Option) float64 {
	if o.Points != nil {
		return *o.Points
	}
	correct := 0
	for _, opt := range q.Options {
		if opt.Correct {
			correct++
		}
	}
	if correct == 0 {
		return 0
	}
	return q.TotalValue / float64(correct)
}

// Score computes the points for a single answer.
//
// Free-text answers score 0 until corrected, then the manually awarded
// points. Objective answers score the selected option's value when it is
// flagged correct, 0 otherwise.
func Score(q Question, a Answer) float64 {
	if q.Kind == KindFreeText {
		if !a.Corrected || a.Awarded == nil {
			return 0
		}
		return *a.Awarded
	}
	if a.Selected == nil || !a.Selected.Correct {
		return 0
	}
	return OptionPoints(q, *a.Selected)
}
