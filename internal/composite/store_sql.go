package composite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lotus-edu/lotus-backend/internal/apperr"
)

// SQLStore persists composites on database/sql. The statements stay inside
// the shared SQLite/Postgres dialect subset.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutComposite(ctx context.Context, c Composite, comps []Component) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO composites (id, cohort_id, name, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description`,
		c.ID, c.CohortID, c.Name, c.Description, c.CreatedBy, c.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert composite: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM composite_components WHERE composite_id = $1`, c.ID); err != nil {
		return fmt.Errorf("clear components: %w", err)
	}
	for _, comp := range comps {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO composite_components (composite_id, exam_id, weight)
			VALUES ($1, $2, $3)`,
			c.ID, comp.ExamID, comp.Weight); err != nil {
			return fmt.Errorf("insert component: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) GetComposite(ctx context.Context, id string) (Composite, []Component, error) {
	var (
		c         Composite
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, cohort_id, name, description, created_by, created_at
		FROM composites WHERE id = $1`, id).
		Scan(&c.ID, &c.CohortID, &c.Name, &c.Description, &c.CreatedBy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Composite{}, nil, apperr.NotFound("composite", id)
	}
	if err != nil {
		return Composite{}, nil, fmt.Errorf("get composite: %w", err)
	}
	c.CreatedAt = time.Unix(createdAt, 0).UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT composite_id, exam_id, weight
		FROM composite_components WHERE composite_id = $1`, id)
	if err != nil {
		return Composite{}, nil, fmt.Errorf("list components: %w", err)
	}
	defer rows.Close()
	var comps []Component
	for rows.Next() {
		var comp Component
		if err := rows.Scan(&comp.CompositeID, &comp.ExamID, &comp.Weight); err != nil {
			return Composite{}, nil, fmt.Errorf("scan component: %w", err)
		}
		comps = append(comps, comp)
	}
	return c, comps, rows.Err()
}

func (s *SQLStore) ListComposites(ctx context.Context, cohortID string) ([]Composite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, cohort_id, name, description, created_by, created_at
		FROM composites WHERE cohort_id = $1 ORDER BY created_at, id`, cohortID)
	if err != nil {
		return nil, fmt.Errorf("list composites: %w", err)
	}
	defer rows.Close()
	return scanComposites(rows)
}

func (s *SQLStore) ListCompositesByExam(ctx context.Context, examID string) ([]Composite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.cohort_id, c.name, c.description, c.created_by, c.created_at
		FROM composites c
		JOIN composite_components cc ON cc.composite_id = c.id
		WHERE cc.exam_id = $1 ORDER BY c.created_at, c.id`, examID)
	if err != nil {
		return nil, fmt.Errorf("list composites by exam: %w", err)
	}
	defer rows.Close()
	return scanComposites(rows)
}

func scanComposites(rows *sql.Rows) ([]Composite, error) {
	var out []Composite
	for rows.Next() {
		var (
			c         Composite
			createdAt int64
		)
		if err := rows.Scan(&c.ID, &c.CohortID, &c.Name, &c.Description, &c.CreatedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("scan composite: %w", err)
		}
		c.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO composite_results (student_id, composite_id, value, computed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (student_id, composite_id) DO UPDATE SET
			value = excluded.value,
			computed_at = excluded.computed_at`,
		r.StudentID, r.CompositeID, r.Value, r.ComputedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert result: %w", err)
	}
	return nil
}

func (s *SQLStore) GetResult(ctx context.Context, studentID, compositeID string) (Result, error) {
	var (
		r          Result
		computedAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT student_id, composite_id, value, computed_at
		FROM composite_results WHERE student_id = $1 AND composite_id = $2`,
		studentID, compositeID).
		Scan(&r.StudentID, &r.CompositeID, &r.Value, &computedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, apperr.NotFound("composite result", compositeID)
	}
	if err != nil {
		return Result{}, fmt.Errorf("get result: %w", err)
	}
	r.ComputedAt = time.Unix(computedAt, 0).UTC()
	return r, nil
}

func (s *SQLStore) ListResults(ctx context.Context, compositeID string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT student_id, composite_id, value, computed_at
		FROM composite_results WHERE composite_id = $1 ORDER BY student_id`, compositeID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()
	var out []Result
	for rows.Next() {
		var (
			r          Result
			computedAt int64
		)
		if err := rows.Scan(&r.StudentID, &r.CompositeID, &r.Value, &computedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.ComputedAt = time.Unix(computedAt, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
