package exam

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lotus-edu/lotus-backend/internal/apperr"
	"github.com/lotus-edu/lotus-backend/internal/eventlog"
	"github.com/lotus-edu/lotus-backend/internal/grading"
	"github.com/lotus-edu/lotus-backend/internal/logger"
)

type Clock func() time.Time

// Service aggregates answers into exam scores and runs the release pipeline.
type Service struct {
	store     Store
	roster    Roster
	recompute Recomputer
	events    eventlog.Sink
	log       *logger.Logger
	now       Clock
}

func NewService(store Store, roster Roster, recompute Recomputer, events eventlog.Sink, log *logger.Logger, now Clock) *Service {
	if events == nil {
		events = eventlog.Nop()
	}
	if log == nil {
		log = logger.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:     store,
		roster:    roster,
		recompute: recompute,
		events:    events,
		log:       log.With("service", "exam"),
		now:       now,
	}
}

// SetRecomputer installs the composite recomputation hook. The composite
// engine reads exam scores, so the two are wired after construction.
func (s *Service) SetRecomputer(r Recomputer) { s.recompute = r }

// CreateExam validates the kind/phase invariant and, for group-phase exams,
// that the linked individual phase exists and is a TBL iRAT exam.
func (s *Service) CreateExam(ctx context.Context, e Exam) (Exam, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if err := e.Validate(); err != nil {
		return Exam{}, err
	}
	if e.Phase == PhaseGroup {
		assoc, err := s.store.GetExam(ctx, *e.IndividualPhaseID)
		if err != nil {
			return Exam{}, err
		}
		if assoc.Kind != KindTBL || assoc.Phase != PhaseIndividual {
			return Exam{}, apperr.Invalid(apperr.ErrInvalidAnswer,
				"associated individual phase %q is not a TBL iRAT exam", assoc.ID)
		}
		if assoc.CohortID != e.CohortID {
			return Exam{}, apperr.Invalid(apperr.ErrInvalidAnswer,
				"associated individual phase belongs to a different cohort")
		}
	}
	if err := s.store.PutExam(ctx, e); err != nil {
		return Exam{}, err
	}
	return e, nil
}

func (s *Service) GetExam(ctx context.Context, id string) (Exam, error) {
	return s.store.GetExam(ctx, id)
}

func (s *Service) ListExams(ctx context.Context, cohortID string) ([]Exam, error) {
	return s.store.ListExams(ctx, cohortID)
}

// CreateQuestion persists a question. Objective questions with no supplied
// options get DefaultOptionCount generated ones, the first flagged correct.
func (s *Service) CreateQuestion(ctx context.Context, q Question, opts []AnswerOption) (Question, []AnswerOption, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if err := q.Validate(); err != nil {
		return Question{}, nil, err
	}
	if _, err := s.store.GetExam(ctx, q.ExamID); err != nil {
		return Question{}, nil, err
	}
	if grading.Objective(q.Kind) && len(opts) == 0 {
		opts = defaultOptions()
	}
	for i := range opts {
		if opts[i].ID == "" {
			opts[i].ID = uuid.NewString()
		}
		opts[i].QuestionID = q.ID
	}
	if err := s.store.PutQuestion(ctx, q, opts); err != nil {
		return Question{}, nil, err
	}
	return q, opts, nil
}

func defaultOptions() []AnswerOption {
	opts := make([]AnswerOption, DefaultOptionCount)
	labels := [DefaultOptionCount]string{"Option 1", "Option 2", "Option 3", "Option 4"}
	for i := range opts {
		opts[i] = AnswerOption{Label: labels[i], Correct: i == 0}
	}
	return opts
}

func (s *Service) Questions(ctx context.Context, examID string) ([]Question, error) {
	if _, err := s.store.GetExam(ctx, examID); err != nil {
		return nil, err
	}
	return s.store.ListQuestions(ctx, examID)
}

// SubmitAnswer records a student's answer. For group-phase exams the answer
// belongs to the student's team in the exam's cohort; a student without a
// team cannot answer (NotAMember). Resubmission overwrites the previous
// answer until the exam is released.
func (s *Service) SubmitAnswer(ctx context.Context, studentID string, a Answer) (Answer, error) {
	q, err := s.store.GetQuestion(ctx, a.QuestionID)
	if err != nil {
		return Answer{}, err
	}
	e, err := s.store.GetExam(ctx, q.ExamID)
	if err != nil {
		return Answer{}, err
	}
	if e.Released() {
		return Answer{}, apperr.ErrAlreadyReleased
	}

	if e.Phase == PhaseGroup {
		teamID, err := s.roster.TeamFor(ctx, studentID, e.CohortID)
		if err != nil {
			return Answer{}, err
		}
		a.Owner = TeamOwner(teamID)
	} else {
		a.Owner = StudentOwner(studentID)
	}

	if err := a.ValidateFor(q); err != nil {
		return Answer{}, err
	}
	if grading.Objective(q.Kind) {
		ok, err := s.optionBelongs(ctx, q.ID, *a.OptionID)
		if err != nil {
			return Answer{}, err
		}
		if !ok {
			return Answer{}, apperr.Invalid(apperr.ErrInvalidAnswer,
				"option %q does not belong to question %q", *a.OptionID, q.ID)
		}
		a.Text = ""
	} else {
		a.OptionID = nil
	}

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.Corrected = false
	a.AwardedPoints = nil
	a.SubmittedAt = s.now()
	return s.store.UpsertAnswer(ctx, a)
}

func (s *Service) optionBelongs(ctx context.Context, questionID, optionID string) (bool, error) {
	opts, err := s.store.ListOptions(ctx, questionID)
	if err != nil {
		return false, err
	}
	for _, o := range opts {
		if o.ID == optionID {
			return true, nil
		}
	}
	return false, nil
}

// ComputeScore sums the scores of all answers by one owner across an exam's
// questions. Missing answers simply contribute nothing.
func (s *Service) ComputeScore(ctx context.Context, owner Owner, examID string) (float64, error) {
	questions, err := s.store.ListQuestions(ctx, examID)
	if err != nil {
		return 0, err
	}
	views := make(map[string]grading.Question, len(questions))
	optByID := make(map[string]grading.Option)
	for _, q := range questions {
		opts, err := s.store.ListOptions(ctx, q.ID)
		if err != nil {
			return 0, err
		}
		gq := grading.Question{Kind: q.Kind, TotalValue: q.TotalValue, Options: make([]grading.Option, len(opts))}
		for i, o := range opts {
			gq.Options[i] = grading.Option{Correct: o.Correct, Points: o.Points}
			optByID[o.ID] = gq.Options[i]
		}
		views[q.ID] = gq
	}

	answers, err := s.store.ListAnswers(ctx, examID, owner)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, a := range answers {
		gq, ok := views[a.QuestionID]
		if !ok {
			continue
		}
		ga := grading.Answer{Corrected: a.Corrected, Awarded: a.AwardedPoints}
		if a.OptionID != nil {
			if sel, ok := optByID[*a.OptionID]; ok {
				ga.Selected = &sel
			}
		}
		total += grading.Score(gq, ga)
	}
	return total, nil
}

// ReleaseResult reports what a release wrote.
type ReleaseResult struct {
	ExamID        string    `json:"exam_id"`
	ReleasedAt    time.Time `json:"released_at"`
	ScoresWritten int       `json:"scores_written"`
}

// Release runs the release protocol: precondition checks, score computation
// per enrolled student or team, the group-phase penalty, then one atomic
// write of all score rows plus the release timestamp. Composite grades that
// include the exam are recomputed afterwards; the recomputation is a derived
// cache, so a failure there is logged and retriable, never a rollback.
func (s *Service) Release(ctx context.Context, examID string) (ReleaseResult, error) {
	e, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return ReleaseResult{}, err
	}
	if e.Released() {
		return ReleaseResult{}, apperr.ErrAlreadyReleased
	}
	if e.Kind == KindPBL {
		pending, err := s.store.CountPendingCorrections(ctx, examID)
		if err != nil {
			return ReleaseResult{}, err
		}
		if pending > 0 {
			return ReleaseResult{}, apperr.Invalid(apperr.ErrPendingCorrections,
				"%d free-text answers uncorrected", pending)
		}
	}

	releasedAt := s.now()
	scores, err := s.computeReleaseScores(ctx, e, releasedAt)
	if err != nil {
		return ReleaseResult{}, err
	}

	if err := s.store.WriteRelease(ctx, examID, releasedAt, scores); err != nil {
		return ReleaseResult{}, err
	}
	_ = s.events.Append(ctx, eventlog.TypeExamReleased, examID, map[string]interface{}{
		"category": e.Category(),
		"scores":   len(scores),
	})

	if s.recompute != nil {
		if err := s.recompute.RecomputeForExam(ctx, examID); err != nil {
			s.log.Error("composite recomputation after release failed",
				"exam_id", examID, "err", err)
		}
	}
	return ReleaseResult{ExamID: examID, ReleasedAt: releasedAt, ScoresWritten: len(scores)}, nil
}

func (s *Service) computeReleaseScores(ctx context.Context, e Exam, at time.Time) ([]ExamScore, error) {
	cat := e.Category()
	var scores []ExamScore

	if cat == CategoryGRAT {
		teamIDs, err := s.roster.ListTeamIDs(ctx, e.CohortID)
		if err != nil {
			return nil, err
		}
		for _, teamID := range teamIDs {
			owner := TeamOwner(teamID)
			raw, err := s.ComputeScore(ctx, owner, e.ID)
			if err != nil {
				return nil, err
			}
			avg, err := s.teamBaseline(ctx, e, teamID)
			if err != nil {
				return nil, err
			}
			scores = append(scores, ExamScore{
				Owner:     owner,
				ExamID:    e.ID,
				Category:  cat,
				Value:     grading.ApplyPenalty(raw, avg, e.PenaltyFactor),
				UpdatedAt: at,
			})
		}
		return scores, nil
	}

	studentIDs, err := s.roster.ListStudentIDs(ctx, e.CohortID)
	if err != nil {
		return nil, err
	}
	for _, studentID := range studentIDs {
		owner := StudentOwner(studentID)
		value, err := s.ComputeScore(ctx, owner, e.ID)
		if err != nil {
			return nil, err
		}
		scores = append(scores, ExamScore{
			Owner:     owner,
			ExamID:    e.ID,
			Category:  cat,
			Value:     value,
			UpdatedAt: at,
		})
	}
	return scores, nil
}

// teamBaseline is the mean individual-phase score of the team's members for
// the exam's associated iRAT. Teams with no members or no scores get 0,
// which disables the penalty.
func (s *Service) teamBaseline(ctx context.Context, e Exam, teamID string) (float64, error) {
	if e.IndividualPhaseID == nil {
		return 0, nil
	}
	members, err := s.roster.ListTeamMemberIDs(ctx, teamID)
	if err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}
	avg, ok, err := s.store.IndividualAverage(ctx, *e.IndividualPhaseID, members)
	if err != nil {
		return 0, err
	}
	if !ok {
		s.log.Warn("team has no individual-phase scores, penalty disabled",
			"team_id", teamID, "exam_id", e.ID)
		return 0, nil
	}
	return avg, nil
}

// PenaltyPreview is one team's would-be penalty application.
type PenaltyPreview struct {
	TeamID        string  `json:"team_id"`
	OriginalScore float64 `json:"original_score"`
	Baseline      float64 `json:"baseline_average"`
	AdjustedScore float64 `json:"adjusted_score"`
	PenaltyAmount float64 `json:"penalty_amount"`
}

// PreviewPenalties computes, without side effects, the penalty every team in
// the cohort would receive if the exam were released now. Group-phase exams
// only.
func (s *Service) PreviewPenalties(ctx context.Context, examID string) ([]PenaltyPreview, error) {
	e, err := s.store.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	if e.Phase != PhaseGroup {
		return nil, apperr.Invalid(apperr.ErrInvalidAnswer,
			"penalty preview only applies to group-readiness exams")
	}
	teamIDs, err := s.roster.ListTeamIDs(ctx, e.CohortID)
	if err != nil {
		return nil, err
	}
	previews := make([]PenaltyPreview, 0, len(teamIDs))
	for _, teamID := range teamIDs {
		raw, err := s.ComputeScore(ctx, TeamOwner(teamID), e.ID)
		if err != nil {
			return nil, err
		}
		avg, err := s.teamBaseline(ctx, e, teamID)
		if err != nil {
			return nil, err
		}
		p := grading.PenaltyFor(raw, avg, e.PenaltyFactor)
		previews = append(previews, PenaltyPreview{
			TeamID:        teamID,
			OriginalScore: p.Original,
			Baseline:      p.Baseline,
			AdjustedScore: p.Adjusted,
			PenaltyAmount: p.Amount(),
		})
	}
	return previews, nil
}

// CorrectionResult reports the correction and how many remain for the exam.
type CorrectionResult struct {
	Answer           Answer `json:"answer"`
	RemainingPending int    `json:"remaining_pending"`
	Releasable       bool   `json:"releasable"`
}

// RecordCorrection stores the manually awarded points for a free-text
// answer. When it was the exam's last pending correction, the result flags
// the exam as releasable; the release itself stays an explicit action.
func (s *Service) RecordCorrection(ctx context.Context, answerID string, points float64, comment string) (CorrectionResult, error) {
	if points < 0 {
		return CorrectionResult{}, apperr.Invalid(apperr.ErrInvalidAnswer, "awarded points must be non-negative")
	}
	a, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		return CorrectionResult{}, err
	}
	q, err := s.store.GetQuestion(ctx, a.QuestionID)
	if err != nil {
		return CorrectionResult{}, err
	}
	if q.Kind != grading.KindFreeText {
		return CorrectionResult{}, apperr.Invalid(apperr.ErrInvalidAnswer,
			"only free-text answers take manual correction")
	}
	e, err := s.store.GetExam(ctx, q.ExamID)
	if err != nil {
		return CorrectionResult{}, err
	}

	if err := s.store.MarkCorrected(ctx, answerID, points, comment); err != nil {
		return CorrectionResult{}, err
	}
	_ = s.events.Append(ctx, eventlog.TypeAnswerCorrected, answerID, map[string]interface{}{
		"exam_id": e.ID,
		"points":  points,
	})

	remaining, err := s.store.CountPendingCorrections(ctx, e.ID)
	if err != nil {
		return CorrectionResult{}, err
	}
	corrected, err := s.store.GetAnswer(ctx, answerID)
	if err != nil {
		return CorrectionResult{}, err
	}
	return CorrectionResult{
		Answer:           corrected,
		RemainingPending: remaining,
		Releasable:       remaining == 0 && !e.Released(),
	}, nil
}

func (s *Service) PendingCorrections(ctx context.Context, examID string) ([]Answer, error) {
	if _, err := s.store.GetExam(ctx, examID); err != nil {
		return nil, err
	}
	return s.store.ListPendingCorrections(ctx, examID)
}

// ScoresForExam lists the released score rows of one exam.
func (s *Service) ScoresForExam(ctx context.Context, examID string) ([]ExamScore, error) {
	if _, err := s.store.GetExam(ctx, examID); err != nil {
		return nil, err
	}
	return s.store.ListScoresForExam(ctx, examID)
}

// ScoresForStudent lists every released score owned by a student.
func (s *Service) ScoresForStudent(ctx context.Context, studentID string) ([]ExamScore, error) {
	return s.store.ListScoresForStudent(ctx, studentID)
}
