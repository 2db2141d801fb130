package composite

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lotus-edu/lotus-backend/internal/apperr"
	"github.com/lotus-edu/lotus-backend/internal/eventlog"
	"github.com/lotus-edu/lotus-backend/internal/exam"
	"github.com/lotus-edu/lotus-backend/internal/grading"
	"github.com/lotus-edu/lotus-backend/internal/logger"
)

// Store persists composite definitions and materialized results.
type Store interface {
	PutComposite(ctx context.Context, c Composite, comps []Component) error
	GetComposite(ctx context.Context, id string) (Composite, []Component, error)
	ListComposites(ctx context.Context, cohortID string) ([]Composite, error)
	ListCompositesByExam(ctx context.Context, examID string) ([]Composite, error)
	UpsertResult(ctx context.Context, r Result) error
	GetResult(ctx context.Context, studentID, compositeID string) (Result, error)
	ListResults(ctx context.Context, compositeID string) ([]Result, error)
}

// GradeSource is the view of the exam domain the engine computes from.
type GradeSource interface {
	GetExam(ctx context.Context, id string) (exam.Exam, error)
	// StoredScore reads a released score row; ok=false when none exists.
	StoredScore(ctx context.Context, owner exam.Owner, examID string, cat exam.Category) (float64, bool, error)
	// RawScore recomputes an owner's score from its answers, pre-penalty.
	RawScore(ctx context.Context, owner exam.Owner, examID string) (float64, error)
	// IndividualAverage averages released individual-phase scores; ok=false
	// when the students have none.
	IndividualAverage(ctx context.Context, examID string, studentIDs []string) (float64, bool, error)
}

// Engine computes composite grades. Group-phase components reapply the
// underperformance penalty from the raw team score rather than reusing the
// released row, so a later correction to the individual phase is reflected.
type Engine struct {
	store     Store
	grades    GradeSource
	roster    exam.Roster
	events    eventlog.Sink
	log       *logger.Logger
	now       exam.Clock
	weightCap float64
}

func NewEngine(store Store, grades GradeSource, roster exam.Roster, events eventlog.Sink, log *logger.Logger, now exam.Clock, weightCap float64) *Engine {
	if events == nil {
		events = eventlog.Nop()
	}
	if log == nil {
		log = logger.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	if weightCap <= 0 {
		weightCap = WeightCap
	}
	return &Engine{
		store:     store,
		grades:    grades,
		roster:    roster,
		events:    events,
		log:       log.With("service", "composite"),
		now:       now,
		weightCap: weightCap,
	}
}

// Create validates the weight rules and that every component exam exists in
// the composite's cohort, then persists the definition.
func (e *Engine) Create(ctx context.Context, c Composite, comps []Component) (Composite, []Component, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Name == "" {
		return Composite{}, nil, apperr.Invalid(apperr.ErrInvalidWeight, "composite requires a name")
	}
	if err := ValidateComponents(comps, e.weightCap); err != nil {
		return Composite{}, nil, err
	}
	for i := range comps {
		ex, err := e.grades.GetExam(ctx, comps[i].ExamID)
		if err != nil {
			return Composite{}, nil, err
		}
		if ex.CohortID != c.CohortID {
			return Composite{}, nil, apperr.Invalid(apperr.ErrInvalidWeight,
				"exam %q belongs to cohort %q, not %q", ex.ID, ex.CohortID, c.CohortID)
		}
		comps[i].CompositeID = c.ID
	}
	c.CreatedAt = e.now()
	if err := e.store.PutComposite(ctx, c, comps); err != nil {
		return Composite{}, nil, err
	}
	return c, comps, nil
}

func (e *Engine) Get(ctx context.Context, id string) (Composite, []Component, error) {
	return e.store.GetComposite(ctx, id)
}

func (e *Engine) List(ctx context.Context, cohortID string) ([]Composite, error) {
	return e.store.ListComposites(ctx, cohortID)
}

func (e *Engine) Results(ctx context.Context, compositeID string) ([]Result, error) {
	if _, _, err := e.store.GetComposite(ctx, compositeID); err != nil {
		return nil, err
	}
	return e.store.ListResults(ctx, compositeID)
}

func (e *Engine) ResultFor(ctx context.Context, studentID, compositeID string) (Result, error) {
	return e.store.GetResult(ctx, studentID, compositeID)
}

// ComputeForStudent evaluates the weighted sum for one student, clamps it to
// [0, 100], and upserts the result row. Components whose exam is unreleased,
// whose score row is missing, or whose team the student does not belong to
// contribute zero.
func (e *Engine) ComputeForStudent(ctx context.Context, studentID, compositeID string) (Result, error) {
	c, comps, err := e.store.GetComposite(ctx, compositeID)
	if err != nil {
		return Result{}, err
	}

	total := 0.0
	for _, comp := range comps {
		value, err := e.componentValue(ctx, studentID, c.CohortID, comp)
		if err != nil {
			return Result{}, err
		}
		total += comp.Weight * value
	}
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}

	r := Result{
		StudentID:   studentID,
		CompositeID: compositeID,
		Value:       total,
		ComputedAt:  e.now(),
	}
	if err := e.store.UpsertResult(ctx, r); err != nil {
		return Result{}, err
	}
	return r, nil
}

func (e *Engine) componentValue(ctx context.Context, studentID, cohortID string, comp Component) (float64, error) {
	ex, err := e.grades.GetExam(ctx, comp.ExamID)
	if err != nil {
		return 0, err
	}
	if !ex.Released() {
		return 0, nil
	}

	if ex.Category() != exam.CategoryGRAT {
		value, ok, err := e.grades.StoredScore(ctx, exam.StudentOwner(studentID), ex.ID, ex.Category())
		if err != nil {
			return 0, err
		}
		if !ok {
			e.log.Warn("released exam has no score row for student",
				"exam_id", ex.ID, "student_id", studentID)
			return 0, nil
		}
		return value, nil
	}

	teamID, err := e.roster.TeamFor(ctx, studentID, cohortID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotAMember) {
			e.log.Warn("student out of any team, group component skipped",
				"exam_id", ex.ID, "student_id", studentID)
			return 0, nil
		}
		return 0, err
	}
	raw, err := e.grades.RawScore(ctx, exam.TeamOwner(teamID), ex.ID)
	if err != nil {
		return 0, err
	}
	avg, err := e.teamBaseline(ctx, ex, teamID)
	if err != nil {
		return 0, err
	}
	return grading.ApplyPenalty(raw, avg, ex.PenaltyFactor), nil
}

func (e *Engine) teamBaseline(ctx context.Context, ex exam.Exam, teamID string) (float64, error) {
	if ex.IndividualPhaseID == nil {
		return 0, nil
	}
	members, err := e.roster.ListTeamMemberIDs(ctx, teamID)
	if err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}
	avg, ok, err := e.grades.IndividualAverage(ctx, *ex.IndividualPhaseID, members)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return avg, nil
}

// ComputeForCohort recomputes one composite for every enrolled student.
func (e *Engine) ComputeForCohort(ctx context.Context, compositeID string) ([]Result, error) {
	c, _, err := e.store.GetComposite(ctx, compositeID)
	if err != nil {
		return nil, err
	}
	studentIDs, err := e.roster.ListStudentIDs(ctx, c.CohortID)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(studentIDs))
	for _, sid := range studentIDs {
		r, err := e.ComputeForStudent(ctx, sid, compositeID)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// RecomputeForExam refreshes every composite that includes the exam. The exam
// service calls this after each release.
func (e *Engine) RecomputeForExam(ctx context.Context, examID string) error {
	composites, err := e.store.ListCompositesByExam(ctx, examID)
	if err != nil {
		return err
	}
	for _, c := range composites {
		if _, err := e.ComputeForCohort(ctx, c.ID); err != nil {
			return err
		}
		_ = e.events.Append(ctx, eventlog.TypeCompositeRecomputed, c.ID, map[string]interface{}{
			"trigger_exam_id": examID,
		})
	}
	return nil
}
