package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lotus-edu/lotus-backend/internal/apperr"
)

// SQLStore implements Store on database/sql; same statements run on both
// the sqlite and postgres drivers.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutExam(ctx context.Context, e Exam) error {
	var releasedAt sql.NullInt64
	if e.ReleasedAt != nil {
		releasedAt = sql.NullInt64{Int64: e.ReleasedAt.Unix(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exams (id, cohort_id, kind, phase, title, description, deadline,
		                   released_at, penalty_factor, individual_phase_id, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			title=EXCLUDED.title,
			description=EXCLUDED.description,
			deadline=EXCLUDED.deadline,
			penalty_factor=EXCLUDED.penalty_factor`,
		e.ID, e.CohortID, string(e.Kind), string(e.Phase), e.Title, e.Description,
		e.Deadline.Unix(), releasedAt, e.PenaltyFactor, e.IndividualPhaseID, e.CreatedBy)
	return err
}

const examColumns = `id, cohort_id, kind, phase, title, description, deadline,
	released_at, penalty_factor, individual_phase_id, created_by`

func scanExam(row interface{ Scan(...interface{}) error }) (Exam, error) {
	var (
		e          Exam
		kind       string
		phase      string
		deadline   int64
		releasedAt sql.NullInt64
		indivID    sql.NullString
	)
	err := row.Scan(&e.ID, &e.CohortID, &kind, &phase, &e.Title, &e.Description,
		&deadline, &releasedAt, &e.PenaltyFactor, &indivID, &e.CreatedBy)
	if err != nil {
		return Exam{}, err
	}
	e.Kind = Kind(kind)
	e.Phase = Phase(phase)
	e.Deadline = time.Unix(deadline, 0).UTC()
	if releasedAt.Valid {
		t := time.Unix(releasedAt.Int64, 0).UTC()
		e.ReleasedAt = &t
	}
	if indivID.Valid && indivID.String != "" {
		v := indivID.String
		e.IndividualPhaseID = &v
	}
	return e, nil
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+examColumns+` FROM exams WHERE id=$1`, id)
	e, err := scanExam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Exam{}, apperr.NotFound("exam", id)
	}
	return e, err
}

func (s *SQLStore) ListExams(ctx context.Context, cohortID string) ([]Exam, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+examColumns+` FROM exams WHERE cohort_id=$1 ORDER BY deadline`, cohortID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutQuestion(ctx context.Context, q Question, opts []AnswerOption) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO questions (id, exam_id, kind, prompt, total_value)
		VALUES ($1,$2,$3,$4,$5)`,
		q.ID, q.ExamID, q.Kind, q.Prompt, q.TotalValue); err != nil {
		return err
	}
	for _, o := range opts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO answer_options (id, question_id, label, correct, points)
			VALUES ($1,$2,$3,$4,$5)`,
			o.ID, o.QuestionID, o.Label, o.Correct, o.Points); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	var q Question
	err := s.db.QueryRowContext(ctx,
		`SELECT id, exam_id, kind, prompt, total_value FROM questions WHERE id=$1`, id).
		Scan(&q.ID, &q.ExamID, &q.Kind, &q.Prompt, &q.TotalValue)
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, apperr.NotFound("question", id)
	}
	return q, err
}

func (s *SQLStore) ListQuestions(ctx context.Context, examID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exam_id, kind, prompt, total_value FROM questions WHERE exam_id=$1 ORDER BY id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Kind, &q.Prompt, &q.TotalValue); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListOptions(ctx context.Context, questionID string) ([]AnswerOption, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question_id, label, correct, points
		FROM answer_options WHERE question_id=$1 ORDER BY id`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AnswerOption
	for rows.Next() {
		var o AnswerOption
		var points sql.NullFloat64
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Label, &o.Correct, &points); err != nil {
			return nil, err
		}
		if points.Valid {
			v := points.Float64
			o.Points = &v
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertAnswer(ctx context.Context, a Answer) (Answer, error) {
	// One answer per question per owner; resubmission replaces in place and
	// keeps the original row id.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO answers (id, question_id, owner_kind, owner_id, option_id, text,
		                     corrected, awarded_points, comment, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (question_id, owner_kind, owner_id) DO UPDATE SET
			option_id=EXCLUDED.option_id,
			text=EXCLUDED.text,
			corrected=EXCLUDED.corrected,
			awarded_points=EXCLUDED.awarded_points,
			comment=EXCLUDED.comment,
			submitted_at=EXCLUDED.submitted_at`,
		a.ID, a.QuestionID, string(a.Owner.Kind), a.Owner.ID, a.OptionID, a.Text,
		a.Corrected, a.AwardedPoints, a.Comment, a.SubmittedAt.Unix())
	if err != nil {
		return Answer{}, err
	}
	row := s.db.QueryRowContext(ctx, answerSelect+
		` WHERE question_id=$1 AND owner_kind=$2 AND owner_id=$3`,
		a.QuestionID, string(a.Owner.Kind), a.Owner.ID)
	return scanAnswer(row)
}

const answerSelect = `SELECT id, question_id, owner_kind, owner_id, option_id, text,
	corrected, awarded_points, comment, submitted_at FROM answers`

func scanAnswer(row interface{ Scan(...interface{}) error }) (Answer, error) {
	var (
		a           Answer
		ownerKind   string
		optionID    sql.NullString
		awarded     sql.NullFloat64
		submittedAt int64
	)
	err := row.Scan(&a.ID, &a.QuestionID, &ownerKind, &a.Owner.ID, &optionID, &a.Text,
		&a.Corrected, &awarded, &a.Comment, &submittedAt)
	if err != nil {
		return Answer{}, err
	}
	a.Owner.Kind = OwnerKind(ownerKind)
	if optionID.Valid && optionID.String != "" {
		v := optionID.String
		a.OptionID = &v
	}
	if awarded.Valid {
		v := awarded.Float64
		a.AwardedPoints = &v
	}
	a.SubmittedAt = time.Unix(submittedAt, 0).UTC()
	return a, nil
}

func (s *SQLStore) GetAnswer(ctx context.Context, id string) (Answer, error) {
	row := s.db.QueryRowContext(ctx, answerSelect+` WHERE id=$1`, id)
	a, err := scanAnswer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Answer{}, apperr.NotFound("answer", id)
	}
	return a, err
}

func (s *SQLStore) ListAnswers(ctx context.Context, examID string, owner Owner) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.question_id, a.owner_kind, a.owner_id, a.option_id, a.text,
		       a.corrected, a.awarded_points, a.comment, a.submitted_at
		FROM answers a
		JOIN questions q ON q.id = a.question_id
		WHERE q.exam_id=$1 AND a.owner_kind=$2 AND a.owner_id=$3`,
		examID, string(owner.Kind), owner.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAnswers(rows)
}

func (s *SQLStore) ListPendingCorrections(ctx context.Context, examID string) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.question_id, a.owner_kind, a.owner_id, a.option_id, a.text,
		       a.corrected, a.awarded_points, a.comment, a.submitted_at
		FROM answers a
		JOIN questions q ON q.id = a.question_id
		WHERE q.exam_id=$1 AND q.kind='free_text' AND a.corrected = FALSE
		ORDER BY a.submitted_at`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAnswers(rows)
}

func collectAnswers(rows *sql.Rows) ([]Answer, error) {
	var out []Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) CountPendingCorrections(ctx context.Context, examID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM answers a
		JOIN questions q ON q.id = a.question_id
		WHERE q.exam_id=$1 AND q.kind='free_text' AND a.corrected = FALSE`, examID).Scan(&n)
	return n, err
}

func (s *SQLStore) MarkCorrected(ctx context.Context, answerID string, points float64, comment string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE answers SET corrected = TRUE, awarded_points=$1, comment=$2
		WHERE id=$3`, points, comment, answerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("answer", answerID)
	}
	return nil
}

// WriteRelease sets the release timestamp with a guarded update, then
// upserts the score rows, all in one transaction. The guard serializes
// concurrent release attempts across service instances.
func (s *SQLStore) WriteRelease(ctx context.Context, examID string, releasedAt time.Time, scores []ExamScore) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE exams SET released_at=$1 WHERE id=$2 AND released_at IS NULL`,
		releasedAt.Unix(), examID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM exams WHERE id=$1`, examID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("exam", examID)
		}
		if err != nil {
			return err
		}
		return apperr.ErrAlreadyReleased
	}

	for _, sc := range scores {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO exam_scores (owner_kind, owner_id, exam_id, category, value, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (owner_kind, owner_id, exam_id, category) DO UPDATE SET
				value=EXCLUDED.value,
				updated_at=EXCLUDED.updated_at`,
			string(sc.Owner.Kind), sc.Owner.ID, sc.ExamID, string(sc.Category),
			sc.Value, sc.UpdatedAt.Unix()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const scoreColumns = `owner_kind, owner_id, exam_id, category, value, updated_at`

func scanScore(row interface{ Scan(...interface{}) error }) (ExamScore, error) {
	var (
		sc        ExamScore
		ownerKind string
		category  string
		updatedAt int64
	)
	err := row.Scan(&ownerKind, &sc.Owner.ID, &sc.ExamID, &category, &sc.Value, &updatedAt)
	if err != nil {
		return ExamScore{}, err
	}
	sc.Owner.Kind = OwnerKind(ownerKind)
	sc.Category = Category(category)
	sc.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return sc, nil
}

func (s *SQLStore) GetScore(ctx context.Context, owner Owner, examID string, cat Category) (ExamScore, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+scoreColumns+` FROM exam_scores
		WHERE owner_kind=$1 AND owner_id=$2 AND exam_id=$3 AND category=$4`,
		string(owner.Kind), owner.ID, examID, string(cat))
	sc, err := scanScore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ExamScore{}, apperr.NotFound("exam score", examID)
	}
	return sc, err
}

func (s *SQLStore) ListScoresForExam(ctx context.Context, examID string) ([]ExamScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+scoreColumns+` FROM exam_scores WHERE exam_id=$1 ORDER BY owner_kind, owner_id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectScores(rows)
}

func (s *SQLStore) ListScoresForStudent(ctx context.Context, studentID string) ([]ExamScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+scoreColumns+` FROM exam_scores
		WHERE owner_kind='student' AND owner_id=$1 ORDER BY exam_id`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectScores(rows)
}

func collectScores(rows *sql.Rows) ([]ExamScore, error) {
	var out []ExamScore
	for rows.Next() {
		sc, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *SQLStore) IndividualAverage(ctx context.Context, examID string, studentIDs []string) (float64, bool, error) {
	if len(studentIDs) == 0 {
		return 0, false, nil
	}
	placeholders := make([]string, len(studentIDs))
	args := make([]interface{}, 0, len(studentIDs)+1)
	args = append(args, examID)
	for i, id := range studentIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}
	var avg sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT AVG(value) FROM exam_scores
		WHERE exam_id=$1 AND category='iRAT' AND owner_kind='student'
		  AND owner_id IN (`+strings.Join(placeholders, ",")+`)`, args...).Scan(&avg)
	if err != nil {
		return 0, false, err
	}
	if !avg.Valid {
		return 0, false, nil
	}
	return avg.Float64, true, nil
}
