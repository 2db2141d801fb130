package roster

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lotus-edu/lotus-backend/internal/apperr"
	"github.com/lotus-edu/lotus-backend/internal/logger"
)

// Service manages accounts, cohorts, enrollment and teams.
type Service struct {
	store Store
	log   *logger.Logger
	now   func() time.Time
}

func NewService(store Store, log *logger.Logger, now func() time.Time) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, log: log.With("service", "roster"), now: now}
}

// CreatePerson hashes the password with bcrypt and stores the account.
func (s *Service) CreatePerson(ctx context.Context, name, email, password string, role Role) (Person, error) {
	if len(password) < 8 {
		return Person{}, apperr.Invalid(apperr.ErrInvalidAnswer, "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Person{}, err
	}
	p := Person{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := p.Validate(); err != nil {
		return Person{}, err
	}
	if err := s.store.PutPerson(ctx, p); err != nil {
		return Person{}, err
	}
	s.log.Info("person created", "person_id", p.ID, "role", p.Role)
	return p, nil
}

func (s *Service) GetPerson(ctx context.Context, id string) (Person, error) {
	return s.store.GetPerson(ctx, id)
}

// Authenticate verifies the credentials and returns the account. The same
// NotFound comes back for an unknown email and a wrong password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Person, error) {
	p, err := s.store.GetPersonByEmail(ctx, email)
	if err != nil {
		return Person{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return Person{}, apperr.NotFound("person", email)
	}
	return p, nil
}

func (s *Service) CreateCohort(ctx context.Context, name, term string) (Cohort, error) {
	if name == "" {
		return Cohort{}, apperr.Invalid(apperr.ErrInvalidAnswer, "cohort requires a name")
	}
	c := Cohort{ID: uuid.NewString(), Name: name, Term: term, CreatedAt: s.now()}
	if err := s.store.PutCohort(ctx, c); err != nil {
		return Cohort{}, err
	}
	return c, nil
}

func (s *Service) GetCohort(ctx context.Context, id string) (Cohort, error) {
	return s.store.GetCohort(ctx, id)
}

func (s *Service) ListCohorts(ctx context.Context) ([]Cohort, error) {
	return s.store.ListCohorts(ctx)
}

// Enroll registers a student in a cohort. Teachers and admins cannot enroll.
func (s *Service) Enroll(ctx context.Context, studentID, cohortID string) error {
	p, err := s.store.GetPerson(ctx, studentID)
	if err != nil {
		return err
	}
	if p.Role != RoleStudent {
		return apperr.Invalid(apperr.ErrInvalidAnswer, "only students enroll in cohorts")
	}
	if _, err := s.store.GetCohort(ctx, cohortID); err != nil {
		return err
	}
	return s.store.Enroll(ctx, studentID, cohortID)
}

func (s *Service) ListStudentIDs(ctx context.Context, cohortID string) ([]string, error) {
	return s.store.ListStudentIDs(ctx, cohortID)
}

func (s *Service) CreateTeam(ctx context.Context, cohortID, name string) (Team, error) {
	if name == "" {
		return Team{}, apperr.Invalid(apperr.ErrInvalidAnswer, "team requires a name")
	}
	if _, err := s.store.GetCohort(ctx, cohortID); err != nil {
		return Team{}, err
	}
	t := Team{ID: uuid.NewString(), CohortID: cohortID, Name: name}
	if err := s.store.PutTeam(ctx, t); err != nil {
		return Team{}, err
	}
	return t, nil
}

func (s *Service) ListTeams(ctx context.Context, cohortID string) ([]Team, error) {
	return s.store.ListTeams(ctx, cohortID)
}

// AddTeamMember puts an enrolled student on a team. A student holds one team
// membership per cohort; joining a second team in the same cohort fails.
func (s *Service) AddTeamMember(ctx context.Context, teamID, studentID string) error {
	t, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}
	enrolled, err := s.store.ListStudentIDs(ctx, t.CohortID)
	if err != nil {
		return err
	}
	found := false
	for _, id := range enrolled {
		if id == studentID {
			found = true
			break
		}
	}
	if !found {
		return apperr.Invalid(apperr.ErrNotAMember, "student %q is not enrolled in cohort %q", studentID, t.CohortID)
	}
	if existing, err := s.store.TeamFor(ctx, studentID, t.CohortID); err == nil {
		if existing == teamID {
			return nil
		}
		return apperr.Invalid(apperr.ErrInvalidAnswer,
			"student %q already belongs to team %q in this cohort", studentID, existing)
	}
	return s.store.AddTeamMember(ctx, teamID, studentID)
}

func (s *Service) TeamMembers(ctx context.Context, teamID string) ([]string, error) {
	return s.store.ListTeamMemberIDs(ctx, teamID)
}
