package composite

import (
	"context"
	"errors"

	"github.com/lotus-edu/lotus-backend/internal/apperr"
	"github.com/lotus-edu/lotus-backend/internal/exam"
)

// examGrades adapts the exam service and store to the GradeSource the engine
// computes from.
type examGrades struct {
	store exam.Store
	svc   *exam.Service
}

func NewExamGrades(store exam.Store, svc *exam.Service) GradeSource {
	return examGrades{store: store, svc: svc}
}

func (g examGrades) GetExam(ctx context.Context, id string) (exam.Exam, error) {
	return g.store.GetExam(ctx, id)
}

func (g examGrades) StoredScore(ctx context.Context, owner exam.Owner, examID string, cat exam.Category) (float64, bool, error) {
	sc, err := g.store.GetScore(ctx, owner, examID, cat)
	if errors.Is(err, apperr.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return sc.Value, true, nil
}

func (g examGrades) RawScore(ctx context.Context, owner exam.Owner, examID string) (float64, error) {
	return g.svc.ComputeScore(ctx, owner, examID)
}

func (g examGrades) IndividualAverage(ctx context.Context, examID string, studentIDs []string) (float64, bool, error) {
	return g.store.IndividualAverage(ctx, examID, studentIDs)
}
