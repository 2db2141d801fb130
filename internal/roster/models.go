package roster

import (
	"strings"
	"time"

	"github.com/lotus-edu/lotus-backend/internal/apperr"
)

// Role is a person's function in the system. A person holds exactly one.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher || r == RoleAdmin
}

// Person is an account. The role record (student or teacher) hangs off the
// person rather than subclassing it, so profile data lives in one place.
type Person struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (p Person) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Invalid(apperr.ErrInvalidAnswer, "person requires a name")
	}
	if !strings.Contains(p.Email, "@") {
		return apperr.Invalid(apperr.ErrInvalidAnswer, "invalid email %q", p.Email)
	}
	if !p.Role.Valid() {
		return apperr.Invalid(apperr.ErrInvalidAnswer, "unknown role %q", p.Role)
	}
	return nil
}

// Cohort is one offering of a course, the scope for exams, teams and
// composites.
type Cohort struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Term      string    `json:"term,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Team groups students within a cohort for group-phase exams. A student
// belongs to at most one team per cohort.
type Team struct {
	ID       string `json:"id"`
	CohortID string `json:"cohort_id"`
	Name     string `json:"name"`
}
