package exam

import (
	"strings"
	"time"

	"github.com/lotus-edu/lotus-backend/internal/apperr"
	"github.com/lotus-edu/lotus-backend/internal/grading"
)

// Kind discriminates team-based (TBL) from problem-based (PBL) exams.
type Kind string

const (
	KindTBL Kind = "TBL"
	KindPBL Kind = "PBL"
)

// Phase is the readiness-assurance phase of a TBL exam. PBL exams have none.
type Phase string

const (
	PhaseNone       Phase = ""
	PhaseIndividual Phase = "iRAT"
	PhaseGroup      Phase = "gRAT"
)

// Category labels an ExamScore row.
type Category string

const (
	CategoryIRAT Category = "iRAT"
	CategoryGRAT Category = "gRAT"
	CategoryPBL  Category = "PBL"
)

// State is the exam lifecycle position. Released is terminal.
type State string

const (
	StateOpen            State = "open"
	StateAwaitingRelease State = "awaiting_release"
	StateReleased        State = "released"
)

type Exam struct {
	ID          string     `json:"id"`
	CohortID    string     `json:"cohort_id"`
	Kind        Kind       `json:"kind"`
	Phase       Phase      `json:"phase,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Deadline    time.Time  `json:"deadline"`
	ReleasedAt  *time.Time `json:"released_at,omitempty"`

	// PenaltyFactor controls how strongly a group score is reduced when the
	// team underperforms its members' individual average. gRAT only.
	PenaltyFactor float64 `json:"penalty_factor"`

	// IndividualPhaseID links a gRAT exam to the iRAT exam it follows.
	IndividualPhaseID *string `json:"individual_phase_id,omitempty"`

	CreatedBy string `json:"created_by,omitempty"`
}

// Validate checks the kind/phase invariant and the penalty factor bounds.
// Existence and kind of the linked individual-phase exam is checked by the
// service, which can look it up.
func (e Exam) Validate() error {
	switch e.Kind {
	case KindTBL:
		if e.Phase != PhaseIndividual && e.Phase != PhaseGroup {
			return apperr.Invalid(apperr.ErrInvalidAnswer, "TBL exam requires phase iRAT or gRAT")
		}
	case KindPBL:
		if e.Phase != PhaseNone {
			return apperr.Invalid(apperr.ErrInvalidAnswer, "PBL exam cannot have a phase")
		}
	default:
		return apperr.Invalid(apperr.ErrInvalidAnswer, "unknown exam kind %q", e.Kind)
	}
	if e.Phase == PhaseGroup && (e.IndividualPhaseID == nil || *e.IndividualPhaseID == "") {
		return apperr.Invalid(apperr.ErrInvalidAnswer, "group phase requires an associated individual phase exam")
	}
	if !grading.ValidFactor(e.PenaltyFactor) {
		return apperr.Invalid(apperr.ErrInvalidPenaltyFactor, "penalty factor %v outside [0,1]", e.PenaltyFactor)
	}
	return nil
}

// Category maps the exam to the score category it produces on release.
func (e Exam) Category() Category {
	switch {
	case e.Kind == KindPBL:
		return CategoryPBL
	case e.Phase == PhaseGroup:
		return CategoryGRAT
	default:
		return CategoryIRAT
	}
}

func (e Exam) Released() bool { return e.ReleasedAt != nil }

// State derives the lifecycle position at a given instant.
func (e Exam) State(now time.Time) State {
	if e.Released() {
		return StateReleased
	}
	if now.Before(e.Deadline) {
		return StateOpen
	}
	return StateAwaitingRelease
}

// DefaultOptionCount is how many options an objective question gets when
// none are supplied; the first is flagged correct.
const DefaultOptionCount = 4

type Question struct {
	ID         string  `json:"id"`
	ExamID     string  `json:"exam_id"`
	Kind       string  `json:"kind"` // grading.KindChoice | KindTrueFalse | KindFreeText
	Prompt     string  `json:"prompt"`
	TotalValue float64 `json:"total_value"`
}

func (q Question) Validate() error {
	switch q.Kind {
	case grading.KindChoice, grading.KindTrueFalse, grading.KindFreeText:
	default:
		return apperr.Invalid(apperr.ErrInvalidAnswer, "unknown question kind %q", q.Kind)
	}
	if q.TotalValue < 0 {
		return apperr.Invalid(apperr.ErrInvalidAnswer, "question total value must be non-negative")
	}
	return nil
}

type AnswerOption struct {
	ID         string   `json:"id"`
	QuestionID string   `json:"question_id"`
	Label      string   `json:"label"`
	Correct    bool     `json:"correct"`
	Points     *float64 `json:"points,omitempty"` // explicit value; nil = even split
}

// OwnerKind tags the owner of an answer or score.
type OwnerKind string

const (
	OwnerStudent OwnerKind = "student"
	OwnerTeam    OwnerKind = "team"
)

// Owner is who an answer or score belongs to: exactly one student or one
// team. Modelled as a tagged pair so the both-set / both-null states of the
// underlying rows cannot exist in code.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   string    `json:"id"`
}

func StudentOwner(id string) Owner { return Owner{Kind: OwnerStudent, ID: id} }
func TeamOwner(id string) Owner    { return Owner{Kind: OwnerTeam, ID: id} }

func (o Owner) Valid() bool {
	return o.ID != "" && (o.Kind == OwnerStudent || o.Kind == OwnerTeam)
}

type Answer struct {
	ID         string  `json:"id"`
	QuestionID string  `json:"question_id"`
	Owner      Owner   `json:"owner"`
	OptionID   *string `json:"option_id,omitempty"` // objective questions
	Text       string  `json:"text,omitempty"`      // free-text questions

	Corrected     bool     `json:"corrected"`
	AwardedPoints *float64 `json:"awarded_points,omitempty"` // manual correction
	Comment       string   `json:"comment,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"`
}

// ValidateFor checks the answer against its question's required-field
// contract before persistence.
func (a Answer) ValidateFor(q Question) error {
	if !a.Owner.Valid() {
		return apperr.Invalid(apperr.ErrInvalidAnswer, "answer must belong to a student or a team")
	}
	if grading.Objective(q.Kind) {
		if a.OptionID == nil || *a.OptionID == "" {
			return apperr.Invalid(apperr.ErrInvalidAnswer, "objective questions require a selected option")
		}
		return nil
	}
	if strings.TrimSpace(a.Text) == "" {
		return apperr.Invalid(apperr.ErrInvalidAnswer, "free-text questions require response text")
	}
	return nil
}

// ExamScore is one computed score row per (owner, exam, category),
// upserted whenever release or correction triggers scoring.
type ExamScore struct {
	Owner     Owner     `json:"owner"`
	ExamID    string    `json:"exam_id"`
	Category  Category  `json:"category"`
	Value     float64   `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
