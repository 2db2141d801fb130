package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lotus-edu/lotus-backend/internal/apperr"
)

// SQLStore keeps the roster on database/sql, sharing the SQLite/Postgres
// dialect subset used across the stores.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutPerson(ctx context.Context, p Person) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO persons (id, name, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			password_hash = excluded.password_hash`,
		p.ID, p.Name, p.Email, p.PasswordHash, string(p.Role), p.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert person: %w", err)
	}
	return nil
}

const personColumns = `id, name, email, password_hash, role, created_at`

func scanPerson(row *sql.Row) (Person, error) {
	var (
		p         Person
		role      string
		createdAt int64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &role, &createdAt)
	if err != nil {
		return Person{}, err
	}
	p.Role = Role(role)
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	return p, nil
}

func (s *SQLStore) GetPerson(ctx context.Context, id string) (Person, error) {
	p, err := scanPerson(s.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Person{}, apperr.NotFound("person", id)
	}
	if err != nil {
		return Person{}, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

func (s *SQLStore) GetPersonByEmail(ctx context.Context, email string) (Person, error) {
	p, err := scanPerson(s.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return Person{}, apperr.NotFound("person", email)
	}
	if err != nil {
		return Person{}, fmt.Errorf("get person by email: %w", err)
	}
	return p, nil
}

func (s *SQLStore) PutCohort(ctx context.Context, c Cohort) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cohorts (id, name, term, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			term = excluded.term`,
		c.ID, c.Name, c.Term, c.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert cohort: %w", err)
	}
	return nil
}

func (s *SQLStore) GetCohort(ctx context.Context, id string) (Cohort, error) {
	var (
		c         Cohort
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, term, created_at FROM cohorts WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Term, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Cohort{}, apperr.NotFound("cohort", id)
	}
	if err != nil {
		return Cohort{}, fmt.Errorf("get cohort: %w", err)
	}
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	return c, nil
}

func (s *SQLStore) ListCohorts(ctx context.Context) ([]Cohort, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, term, created_at FROM cohorts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list cohorts: %w", err)
	}
	defer rows.Close()
	var out []Cohort
	for rows.Next() {
		var (
			c         Cohort
			createdAt int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Term, &createdAt); err != nil {
			return nil, fmt.Errorf("scan cohort: %w", err)
		}
		c.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) Enroll(ctx context.Context, studentID, cohortID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO enrollments (student_id, cohort_id)
		VALUES ($1, $2)
		ON CONFLICT (student_id, cohort_id) DO NOTHING`,
		studentID, cohortID)
	if err != nil {
		return fmt.Errorf("enroll: %w", err)
	}
	return nil
}

func (s *SQLStore) ListStudentIDs(ctx context.Context, cohortID string) ([]string, error) {
	return s.listIDs(ctx,
		`SELECT student_id FROM enrollments WHERE cohort_id = $1 ORDER BY student_id`, cohortID)
}

func (s *SQLStore) PutTeam(ctx context.Context, t Team) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO teams (id, cohort_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name`,
		t.ID, t.CohortID, t.Name)
	if err != nil {
		return fmt.Errorf("upsert team: %w", err)
	}
	return nil
}

func (s *SQLStore) GetTeam(ctx context.Context, id string) (Team, error) {
	var t Team
	err := s.db.QueryRowContext(ctx,
		`SELECT id, cohort_id, name FROM teams WHERE id = $1`, id).
		Scan(&t.ID, &t.CohortID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return Team{}, apperr.NotFound("team", id)
	}
	if err != nil {
		return Team{}, fmt.Errorf("get team: %w", err)
	}
	return t, nil
}

func (s *SQLStore) ListTeamIDs(ctx context.Context, cohortID string) ([]string, error) {
	return s.listIDs(ctx,
		`SELECT id FROM teams WHERE cohort_id = $1 ORDER BY id`, cohortID)
}

func (s *SQLStore) ListTeams(ctx context.Context, cohortID string) ([]Team, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cohort_id, name FROM teams WHERE cohort_id = $1 ORDER BY name, id`, cohortID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()
	var out []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.CohortID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddTeamMember(ctx context.Context, teamID, studentID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO team_members (team_id, student_id)
		VALUES ($1, $2)
		ON CONFLICT (team_id, student_id) DO NOTHING`,
		teamID, studentID)
	if err != nil {
		return fmt.Errorf("add team member: %w", err)
	}
	return nil
}

func (s *SQLStore) ListTeamMemberIDs(ctx context.Context, teamID string) ([]string, error) {
	return s.listIDs(ctx,
		`SELECT student_id FROM team_members WHERE team_id = $1 ORDER BY student_id`, teamID)
}

// TeamFor resolves a student's team within one cohort. No membership row
// means the student cannot act on group-phase exams there.
func (s *SQLStore) TeamFor(ctx context.Context, studentID, cohortID string) (string, error) {
	var teamID string
	err := s.db.QueryRowContext(ctx, `
		SELECT tm.team_id
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		WHERE tm.student_id = $1 AND t.cohort_id = $2`,
		studentID, cohortID).Scan(&teamID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperr.ErrNotAMember
	}
	if err != nil {
		return "", fmt.Errorf("team for student: %w", err)
	}
	return teamID, nil
}

func (s *SQLStore) listIDs(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
