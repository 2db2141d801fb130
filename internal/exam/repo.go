package exam

import (
	"context"
	"time"
)

// Store is the persistence surface the exam service needs.
type Store interface {
	PutExam(ctx context.Context, e Exam) error
	GetExam(ctx context.Context, id string) (Exam, error)
	ListExams(ctx context.Context, cohortID string) ([]Exam, error)

	PutQuestion(ctx context.Context, q Question, opts []AnswerOption) error
	GetQuestion(ctx context.Context, id string) (Question, error)
	ListQuestions(ctx context.Context, examID string) ([]Question, error)
	ListOptions(ctx context.Context, questionID string) ([]AnswerOption, error)

	// UpsertAnswer writes the answer, replacing any previous answer by the
	// same owner to the same question (resubmission before release).
	UpsertAnswer(ctx context.Context, a Answer) (Answer, error)
	GetAnswer(ctx context.Context, id string) (Answer, error)
	ListAnswers(ctx context.Context, examID string, owner Owner) ([]Answer, error)
	ListPendingCorrections(ctx context.Context, examID string) ([]Answer, error)
	CountPendingCorrections(ctx context.Context, examID string) (int, error)
	MarkCorrected(ctx context.Context, answerID string, points float64, comment string) error

	// WriteRelease upserts the computed scores and sets the exam's release
	// timestamp in one transaction. Fails with AlreadyReleased when the
	// timestamp is already set; concurrent release attempts are serialized
	// by the store, not by in-process locking.
	WriteRelease(ctx context.Context, examID string, releasedAt time.Time, scores []ExamScore) error

	GetScore(ctx context.Context, owner Owner, examID string, cat Category) (ExamScore, error)
	ListScoresForExam(ctx context.Context, examID string) ([]ExamScore, error)
	ListScoresForStudent(ctx context.Context, studentID string) ([]ExamScore, error)

	// IndividualAverage is the mean individual-readiness score over the
	// given students for an exam. ok is false when no score rows exist.
	IndividualAverage(ctx context.Context, examID string, studentIDs []string) (avg float64, ok bool, err error)
}

// Roster provides cohort membership. Implemented by the roster package;
// declared here so the service can be tested against fakes.
type Roster interface {
	ListStudentIDs(ctx context.Context, cohortID string) ([]string, error)
	ListTeamIDs(ctx context.Context, cohortID string) ([]string, error)
	// TeamFor fails with NotAMember when the student has no team in the cohort.
	TeamFor(ctx context.Context, studentID, cohortID string) (string, error)
	ListTeamMemberIDs(ctx context.Context, teamID string) ([]string, error)
}

// Recomputer is the composite-grade engine hook invoked after release.
type Recomputer interface {
	RecomputeForExam(ctx context.Context, examID string) error
}
