package exam_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lotus-edu/lotus-backend/internal/apperr"
	"github.com/lotus-edu/lotus-backend/internal/exam"
	"github.com/lotus-edu/lotus-backend/internal/grading"
)

/* ---------------- in-memory fakes satisfying exam.Store and exam.Roster ---------------- */

type fakeStore struct {
	exams     map[string]exam.Exam
	questions map[string]exam.Question
	options   map[string][]exam.AnswerOption // by question id
	answers   map[string]exam.Answer         // by answer id
	scores    map[string]exam.ExamScore      // by owner|exam|category
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		exams:     map[string]exam.Exam{},
		questions: map[string]exam.Question{},
		options:   map[string][]exam.AnswerOption{},
		answers:   map[string]exam.Answer{},
		scores:    map[string]exam.ExamScore{},
	}
}

func scoreKey(o exam.Owner, examID string, cat exam.Category) string {
	return fmt.Sprintf("%s|%s|%s|%s", o.Kind, o.ID, examID, cat)
}

func (s *fakeStore) PutExam(_ context.Context, e exam.Exam) error {
	s.exams[e.ID] = e
	return nil
}

func (s *fakeStore) GetExam(_ context.Context, id string) (exam.Exam, error) {
	e, ok := s.exams[id]
	if !ok {
		return exam.Exam{}, apperr.NotFound("exam", id)
	}
	return e, nil
}

func (s *fakeStore) ListExams(_ context.Context, cohortID string) ([]exam.Exam, error) {
	var out []exam.Exam
	for _, e := range s.exams {
		if e.CohortID == cohortID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) PutQuestion(_ context.Context, q exam.Question, opts []exam.AnswerOption) error {
	s.questions[q.ID] = q
	s.options[q.ID] = opts
	return nil
}

func (s *fakeStore) GetQuestion(_ context.Context, id string) (exam.Question, error) {
	q, ok := s.questions[id]
	if !ok {
		return exam.Question{}, apperr.NotFound("question", id)
	}
	return q, nil
}

func (s *fakeStore) ListQuestions(_ context.Context, examID string) ([]exam.Question, error) {
	var out []exam.Question
	for _, q := range s.questions {
		if q.ExamID == examID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *fakeStore) ListOptions(_ context.Context, questionID string) ([]exam.AnswerOption, error) {
	return s.options[questionID], nil
}

func (s *fakeStore) UpsertAnswer(_ context.Context, a exam.Answer) (exam.Answer, error) {
	for id, prev := range s.answers {
		if prev.QuestionID == a.QuestionID && prev.Owner == a.Owner {
			a.ID = prev.ID
			s.answers[id] = a
			return a, nil
		}
	}
	s.answers[a.ID] = a
	return a, nil
}

func (s *fakeStore) GetAnswer(_ context.Context, id string) (exam.Answer, error) {
	a, ok := s.answers[id]
	if !ok {
		return exam.Answer{}, apperr.NotFound("answer", id)
	}
	return a, nil
}

func (s *fakeStore) ListAnswers(_ context.Context, examID string, owner exam.Owner) ([]exam.Answer, error) {
	var out []exam.Answer
	for _, a := range s.answers {
		if a.Owner != owner {
			continue
		}
		if q, ok := s.questions[a.QuestionID]; ok && q.ExamID == examID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) ListPendingCorrections(_ context.Context, examID string) ([]exam.Answer, error) {
	var out []exam.Answer
	for _, a := range s.answers {
		q, ok := s.questions[a.QuestionID]
		if ok && q.ExamID == examID && q.Kind == grading.KindFreeText && !a.Corrected {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) CountPendingCorrections(ctx context.Context, examID string) (int, error) {
	pending, _ := s.ListPendingCorrections(ctx, examID)
	return len(pending), nil
}

func (s *fakeStore) MarkCorrected(_ context.Context, answerID string, points float64, comment string) error {
	a, ok := s.answers[answerID]
	if !ok {
		return apperr.NotFound("answer", answerID)
	}
	a.Corrected = true
	a.AwardedPoints = &points
	a.Comment = comment
	s.answers[answerID] = a
	return nil
}

func (s *fakeStore) WriteRelease(_ context.Context, examID string, releasedAt time.Time, scores []exam.ExamScore) error {
	e, ok := s.exams[examID]
	if !ok {
		return apperr.NotFound("exam", examID)
	}
	if e.ReleasedAt != nil {
		return apperr.ErrAlreadyReleased
	}
	e.ReleasedAt = &releasedAt
	s.exams[examID] = e
	for _, sc := range scores {
		s.scores[scoreKey(sc.Owner, sc.ExamID, sc.Category)] = sc
	}
	return nil
}

func (s *fakeStore) GetScore(_ context.Context, owner exam.Owner, examID string, cat exam.Category) (exam.ExamScore, error) {
	sc, ok := s.scores[scoreKey(owner, examID, cat)]
	if !ok {
		return exam.ExamScore{}, apperr.NotFound("exam score", examID)
	}
	return sc, nil
}

func (s *fakeStore) ListScoresForExam(_ context.Context, examID string) ([]exam.ExamScore, error) {
	var out []exam.ExamScore
	for _, sc := range s.scores {
		if sc.ExamID == examID {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s *fakeStore) ListScoresForStudent(_ context.Context, studentID string) ([]exam.ExamScore, error) {
	var out []exam.ExamScore
	for _, sc := range s.scores {
		if sc.Owner == exam.StudentOwner(studentID) {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (s *fakeStore) IndividualAverage(_ context.Context, examID string, studentIDs []string) (float64, bool, error) {
	sum, n := 0.0, 0
	for _, id := range studentIDs {
		if sc, ok := s.scores[scoreKey(exam.StudentOwner(id), examID, exam.CategoryIRAT)]; ok {
			sum += sc.Value
			n++
		}
	}
	if n == 0 {
		return 0, false, nil
	}
	return sum / float64(n), true, nil
}

type fakeRoster struct {
	students map[string][]string // cohort -> students
	teams    map[string][]string // cohort -> teams
	members  map[string][]string // team -> students
}

func (r *fakeRoster) ListStudentIDs(_ context.Context, cohortID string) ([]string, error) {
	return r.students[cohortID], nil
}
func (r *fakeRoster) ListTeamIDs(_ context.Context, cohortID string) ([]string, error) {
	return r.teams[cohortID], nil
}
func (r *fakeRoster) TeamFor(_ context.Context, studentID, cohortID string) (string, error) {
	for _, teamID := range r.teams[cohortID] {
		for _, m := range r.members[teamID] {
			if m == studentID {
				return teamID, nil
			}
		}
	}
	return "", apperr.ErrNotAMember
}
func (r *fakeRoster) ListTeamMemberIDs(_ context.Context, teamID string) ([]string, error) {
	return r.members[teamID], nil
}

type fakeRecomputer struct{ examIDs []string }

func (f *fakeRecomputer) RecomputeForExam(_ context.Context, examID string) error {
	f.examIDs = append(f.examIDs, examID)
	return nil
}

/* ------------------------------------------ seeding ------------------------------------------ */

func sp(v string) *string { return &v }

type fixture struct {
	store  *fakeStore
	roster *fakeRoster
	rec    *fakeRecomputer
	svc    *exam.Service
}

func newFixture() *fixture {
	st := newFakeStore()
	ro := &fakeRoster{
		students: map[string][]string{"cohort-1": {"s1", "s2"}},
		teams:    map[string][]string{"cohort-1": {"t1"}},
		members:  map[string][]string{"t1": {"s1", "s2"}},
	}
	rec := &fakeRecomputer{}
	svc := exam.NewService(st, ro, rec, nil, nil, func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	})
	return &fixture{store: st, roster: ro, rec: rec, svc: svc}
}

// seedChoiceQuestion adds a 4-option single-correct question worth total.
func (f *fixture) seedChoiceQuestion(id, examID string, total float64) (correctOpt, wrongOpt string) {
	q := exam.Question{ID: id, ExamID: examID, Kind: grading.KindChoice, Prompt: "q", TotalValue: total}
	opts := []exam.AnswerOption{
		{ID: id + "-a", QuestionID: id, Label: "A", Correct: true},
		{ID: id + "-b", QuestionID: id, Label: "B"},
		{ID: id + "-c", QuestionID: id, Label: "C"},
		{ID: id + "-d", QuestionID: id, Label: "D"},
	}
	f.store.questions[id] = q
	f.store.options[id] = opts
	return id + "-a", id + "-b"
}

func (f *fixture) seedIRAT(id string) exam.Exam {
	e := exam.Exam{
		ID: id, CohortID: "cohort-1", Kind: exam.KindTBL, Phase: exam.PhaseIndividual,
		Title: "iRAT", Deadline: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		PenaltyFactor: grading.DefaultPenaltyFactor,
	}
	f.store.exams[id] = e
	return e
}

func (f *fixture) seedGRAT(id, iratID string) exam.Exam {
	e := exam.Exam{
		ID: id, CohortID: "cohort-1", Kind: exam.KindTBL, Phase: exam.PhaseGroup,
		Title: "gRAT", Deadline: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		PenaltyFactor: grading.DefaultPenaltyFactor, IndividualPhaseID: sp(iratID),
	}
	f.store.exams[id] = e
	return e
}

/* ------------------------------------------ tests ------------------------------------------ */

func TestRelease_IndividualPhase(t *testing.T) {
	f := newFixture()
	f.seedIRAT("irat-1")
	correct, wrong := f.seedChoiceQuestion("q1", "irat-1", 10)

	ctx := context.Background()
	if _, err := f.svc.SubmitAnswer(ctx, "s1", exam.Answer{QuestionID: "q1", OptionID: &correct}); err != nil {
		t.Fatalf("submit s1: %v", err)
	}
	if _, err := f.svc.SubmitAnswer(ctx, "s2", exam.Answer{QuestionID: "q1", OptionID: &wrong}); err != nil {
		t.Fatalf("submit s2: %v", err)
	}

	res, err := f.svc.Release(ctx, "irat-1")
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if res.ScoresWritten != 2 {
		t.Fatalf("want 2 scores written, got %d", res.ScoresWritten)
	}

	sc1, err := f.store.GetScore(ctx, exam.StudentOwner("s1"), "irat-1", exam.CategoryIRAT)
	if err != nil || sc1.Value != 10.0 {
		t.Fatalf("s1 score: want 10, got %v (err %v)", sc1.Value, err)
	}
	sc2, _ := f.store.GetScore(ctx, exam.StudentOwner("s2"), "irat-1", exam.CategoryIRAT)
	if sc2.Value != 0 {
		t.Fatalf("s2 score: want 0, got %v", sc2.Value)
	}
	if len(f.rec.examIDs) != 1 || f.rec.examIDs[0] != "irat-1" {
		t.Fatalf("expected composite recomputation for irat-1, got %v", f.rec.examIDs)
	}
}

func TestRelease_Twice(t *testing.T) {
	f := newFixture()
	f.seedIRAT("irat-1")
	correct, _ := f.seedChoiceQuestion("q1", "irat-1", 10)
	ctx := context.Background()
	if _, err := f.svc.SubmitAnswer(ctx, "s1", exam.Answer{QuestionID: "q1", OptionID: &correct}); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Release(ctx, "irat-1"); err != nil {
		t.Fatalf("first release: %v", err)
	}
	before, _ := f.store.GetScore(ctx, exam.StudentOwner("s1"), "irat-1", exam.CategoryIRAT)

	_, err := f.svc.Release(ctx, "irat-1")
	if !errors.Is(err, apperr.ErrAlreadyReleased) {
		t.Fatalf("second release: want AlreadyReleased, got %v", err)
	}
	after, _ := f.store.GetScore(ctx, exam.StudentOwner("s1"), "irat-1", exam.CategoryIRAT)
	if before != after {
		t.Fatalf("scores changed by failed release: %+v vs %+v", before, after)
	}
}

func TestRelease_PBLBlocksOnPendingCorrections(t *testing.T) {
	f := newFixture()
	f.store.exams["pbl-1"] = exam.Exam{
		ID: "pbl-1", CohortID: "cohort-1", Kind: exam.KindPBL,
		Deadline: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	f.store.questions["q1"] = exam.Question{
		ID: "q1", ExamID: "pbl-1", Kind: grading.KindFreeText, TotalValue: 10,
	}
	ctx := context.Background()
	if _, err := f.svc.SubmitAnswer(ctx, "s1", exam.Answer{QuestionID: "q1", Text: "an essay"}); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.Release(ctx, "pbl-1")
	if !errors.Is(err, apperr.ErrPendingCorrections) {
		t.Fatalf("want PendingCorrections, got %v", err)
	}
	if len(f.store.scores) != 0 {
		t.Fatalf("no scores should be written, got %d", len(f.store.scores))
	}
	if e := f.store.exams["pbl-1"]; e.ReleasedAt != nil {
		t.Fatal("exam must not be released")
	}
}

func TestRelease_GroupPhaseAppliesPenalty(t *testing.T) {
	f := newFixture()
	f.seedIRAT("irat-1")
	f.seedGRAT("grat-1", "irat-1")

	// Released iRAT baseline: both members at 8.0.
	now := time.Now()
	f.store.exams["irat-1"] = withRelease(f.store.exams["irat-1"], now)
	for _, sid := range []string{"s1", "s2"} {
		f.store.scores[scoreKey(exam.StudentOwner(sid), "irat-1", exam.CategoryIRAT)] = exam.ExamScore{
			Owner: exam.StudentOwner(sid), ExamID: "irat-1", Category: exam.CategoryIRAT, Value: 8.0,
		}
	}

	// Team answers worth 6.0 raw on the gRAT.
	correct, _ := f.seedChoiceQuestion("gq1", "grat-1", 6)
	ctx := context.Background()
	if _, err := f.svc.SubmitAnswer(ctx, "s1", exam.Answer{QuestionID: "gq1", OptionID: &correct}); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Release(ctx, "grat-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	sc, err := f.store.GetScore(ctx, exam.TeamOwner("t1"), "grat-1", exam.CategoryGRAT)
	if err != nil {
		t.Fatalf("team score: %v", err)
	}
	// gap 2 > band 0.8; ratio 0.25; adjusted 6 * (1 - 0.125) = 5.25
	if sc.Value != 5.25 {
		t.Fatalf("penalized team score: want 5.25, got %v", sc.Value)
	}
}

func TestRelease_GroupPhaseNoBaseline(t *testing.T) {
	f := newFixture()
	f.seedIRAT("irat-1")
	f.seedGRAT("grat-1", "irat-1")
	correct, _ := f.seedChoiceQuestion("gq1", "grat-1", 6)
	ctx := context.Background()
	if _, err := f.svc.SubmitAnswer(ctx, "s1", exam.Answer{QuestionID: "gq1", OptionID: &correct}); err != nil {
		t.Fatal(err)
	}

	// No iRAT scores exist: average 0, no penalty.
	if _, err := f.svc.Release(ctx, "grat-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	sc, _ := f.store.GetScore(ctx, exam.TeamOwner("t1"), "grat-1", exam.CategoryGRAT)
	if sc.Value != 6.0 {
		t.Fatalf("want unpenalized 6.0, got %v", sc.Value)
	}
}

func TestSubmitAnswer_GroupPhaseRecordsForTeam(t *testing.T) {
	f := newFixture()
	f.seedIRAT("irat-1")
	f.seedGRAT("grat-1", "irat-1")
	correct, _ := f.seedChoiceQuestion("gq1", "grat-1", 6)

	ctx := context.Background()
	a, err := f.svc.SubmitAnswer(ctx, "s1", exam.Answer{QuestionID: "gq1", OptionID: &correct})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if a.Owner != exam.TeamOwner("t1") {
		t.Fatalf("want team owner t1, got %+v", a.Owner)
	}

	// A student outside any team cannot answer a group-phase exam.
	_, err = f.svc.SubmitAnswer(ctx, "s-loner", exam.Answer{QuestionID: "gq1", OptionID: &correct})
	if !errors.Is(err, apperr.ErrNotAMember) {
		t.Fatalf("want NotAMember, got %v", err)
	}
}

func TestSubmitAnswer_Validation(t *testing.T) {
	f := newFixture()
	f.seedIRAT("irat-1")
	f.seedChoiceQuestion("q1", "irat-1", 10)
	f.store.questions["q2"] = exam.Question{ID: "q2", ExamID: "irat-1", Kind: grading.KindFreeText, TotalValue: 5}

	ctx := context.Background()
	if _, err := f.svc.SubmitAnswer(ctx, "s1", exam.Answer{QuestionID: "q1"}); !errors.Is(err, apperr.ErrInvalidAnswer) {
		t.Fatalf("objective without option: want InvalidAnswer, got %v", err)
	}
	if _, err := f.svc.SubmitAnswer(ctx, "s1", exam.Answer{QuestionID: "q2"}); !errors.Is(err, apperr.ErrInvalidAnswer) {
		t.Fatalf("free text without text: want InvalidAnswer, got %v", err)
	}
	if _, err := f.svc.SubmitAnswer(ctx, "s1", exam.Answer{QuestionID: "q1", OptionID: sp("nope")}); !errors.Is(err, apperr.ErrInvalidAnswer) {
		t.Fatalf("foreign option: want InvalidAnswer, got %v", err)
	}
}

func TestSubmitAnswer_ResubmissionReplaces(t *testing.T) {
	f := newFixture()
	f.seedIRAT("irat-1")
	correct, wrong := f.seedChoiceQuestion("q1", "irat-1", 10)

	ctx := context.Background()
	first, err := f.svc.SubmitAnswer(ctx, "s1", exam.Answer{QuestionID: "q1", OptionID: &wrong})
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.SubmitAnswer(ctx, "s1", exam.Answer{QuestionID: "q1", OptionID: &correct})
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Fatalf("resubmission must keep the row: %s vs %s", first.ID, second.ID)
	}
	got, _ := f.svc.ComputeScore(ctx, exam.StudentOwner("s1"), "irat-1")
	if got != 10.0 {
		t.Fatalf("after resubmission want 10, got %v", got)
	}
}

func TestRecordCorrection(t *testing.T) {
	f := newFixture()
	f.store.exams["pbl-1"] = exam.Exam{
		ID: "pbl-1", CohortID: "cohort-1", Kind: exam.KindPBL,
		Deadline: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	f.store.questions["q1"] = exam.Question{ID: "q1", ExamID: "pbl-1", Kind: grading.KindFreeText, TotalValue: 10}

	ctx := context.Background()
	a, err := f.svc.SubmitAnswer(ctx, "s1", exam.Answer{QuestionID: "q1", Text: "an essay"})
	if err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.RecordCorrection(ctx, a.ID, 8.5, "good structure")
	if err != nil {
		t.Fatalf("correction: %v", err)
	}
	if !res.Releasable || res.RemainingPending != 0 {
		t.Fatalf("want releasable with 0 pending, got %+v", res)
	}
	if res.Answer.AwardedPoints == nil || *res.Answer.AwardedPoints != 8.5 {
		t.Fatalf("awarded points not recorded: %+v", res.Answer)
	}

	if _, err := f.svc.Release(ctx, "pbl-1"); err != nil {
		t.Fatalf("release after correction: %v", err)
	}
	sc, _ := f.store.GetScore(ctx, exam.StudentOwner("s1"), "pbl-1", exam.CategoryPBL)
	if sc.Value != 8.5 {
		t.Fatalf("want corrected 8.5, got %v", sc.Value)
	}

	if _, err := f.svc.RecordCorrection(ctx, a.ID, -1, ""); !errors.Is(err, apperr.ErrInvalidAnswer) {
		t.Fatalf("negative points: want InvalidAnswer, got %v", err)
	}
}

func TestPreviewPenalties(t *testing.T) {
	f := newFixture()
	f.seedIRAT("irat-1")
	f.seedGRAT("grat-1", "irat-1")
	for _, sid := range []string{"s1", "s2"} {
		f.store.scores[scoreKey(exam.StudentOwner(sid), "irat-1", exam.CategoryIRAT)] = exam.ExamScore{
			Owner: exam.StudentOwner(sid), ExamID: "irat-1", Category: exam.CategoryIRAT, Value: 8.0,
		}
	}
	correct, _ := f.seedChoiceQuestion("gq1", "grat-1", 6)
	ctx := context.Background()
	if _, err := f.svc.SubmitAnswer(ctx, "s1", exam.Answer{QuestionID: "gq1", OptionID: &correct}); err != nil {
		t.Fatal(err)
	}

	previews, err := f.svc.PreviewPenalties(ctx, "grat-1")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(previews) != 1 {
		t.Fatalf("want 1 preview, got %d", len(previews))
	}
	p := previews[0]
	if p.TeamID != "t1" || p.OriginalScore != 6.0 || p.Baseline != 8.0 || p.AdjustedScore != 5.25 || p.PenaltyAmount != 0.75 {
		t.Fatalf("unexpected preview: %+v", p)
	}
	// Read-only: nothing released, no gRAT score rows written.
	if f.store.exams["grat-1"].ReleasedAt != nil {
		t.Fatal("preview must not release")
	}
	if _, err := f.store.GetScore(ctx, exam.TeamOwner("t1"), "grat-1", exam.CategoryGRAT); err == nil {
		t.Fatal("preview must not write scores")
	}

	// Only valid for group-phase exams.
	if _, err := f.svc.PreviewPenalties(ctx, "irat-1"); err == nil {
		t.Fatal("preview on iRAT should fail")
	}
}

func TestCreateExam_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	deadline := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.CreateExam(ctx, exam.Exam{
		CohortID: "cohort-1", Kind: exam.KindTBL, Phase: exam.PhaseIndividual,
		Deadline: deadline, PenaltyFactor: 1.5,
	})
	if !errors.Is(err, apperr.ErrInvalidPenaltyFactor) {
		t.Fatalf("want InvalidPenaltyFactor, got %v", err)
	}

	_, err = f.svc.CreateExam(ctx, exam.Exam{
		CohortID: "cohort-1", Kind: exam.KindTBL, Phase: exam.PhaseGroup,
		Deadline: deadline, PenaltyFactor: 0.5,
	})
	if !errors.Is(err, apperr.ErrInvalidAnswer) {
		t.Fatalf("gRAT without individual phase: want invalid, got %v", err)
	}

	f.store.exams["pbl-1"] = exam.Exam{ID: "pbl-1", CohortID: "cohort-1", Kind: exam.KindPBL, Deadline: deadline}
	_, err = f.svc.CreateExam(ctx, exam.Exam{
		CohortID: "cohort-1", Kind: exam.KindTBL, Phase: exam.PhaseGroup,
		Deadline: deadline, PenaltyFactor: 0.5, IndividualPhaseID: sp("pbl-1"),
	})
	if !errors.Is(err, apperr.ErrInvalidAnswer) {
		t.Fatalf("gRAT linked to PBL: want invalid, got %v", err)
	}

	_, err = f.svc.CreateExam(ctx, exam.Exam{
		CohortID: "cohort-1", Kind: exam.KindPBL, Phase: exam.PhaseIndividual,
		Deadline: deadline,
	})
	if !errors.Is(err, apperr.ErrInvalidAnswer) {
		t.Fatalf("PBL with phase: want invalid, got %v", err)
	}
}

func TestCreateQuestion_DefaultOptions(t *testing.T) {
	f := newFixture()
	f.seedIRAT("irat-1")
	ctx := context.Background()

	_, opts, err := f.svc.CreateQuestion(ctx, exam.Question{
		ExamID: "irat-1", Kind: grading.KindChoice, Prompt: "pick one", TotalValue: 10,
	}, nil)
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	if len(opts) != exam.DefaultOptionCount {
		t.Fatalf("want %d generated options, got %d", exam.DefaultOptionCount, len(opts))
	}
	correct := 0
	for i, o := range opts {
		if o.Correct {
			correct++
			if i != 0 {
				t.Fatalf("first option must be the correct one, got index %d", i)
			}
		}
	}
	if correct != 1 {
		t.Fatalf("want exactly 1 correct option, got %d", correct)
	}

	// Free-text questions get no generated options.
	_, opts, err = f.svc.CreateQuestion(ctx, exam.Question{
		ExamID: "irat-1", Kind: grading.KindFreeText, Prompt: "explain", TotalValue: 10,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(opts) != 0 {
		t.Fatalf("free-text question should have no options, got %d", len(opts))
	}
}

func withRelease(e exam.Exam, at time.Time) exam.Exam {
	e.ReleasedAt = &at
	return e
}
