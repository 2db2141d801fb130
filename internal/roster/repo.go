package roster

import "context"

// Store is the roster persistence surface. Its read side doubles as the
// membership source the exam and composite services consult.
type Store interface {
	PutPerson(ctx context.Context, p Person) error
	GetPerson(ctx context.Context, id string) (Person, error)
	GetPersonByEmail(ctx context.Context, email string) (Person, error)

	PutCohort(ctx context.Context, c Cohort) error
	GetCohort(ctx context.Context, id string) (Cohort, error)
	ListCohorts(ctx context.Context) ([]Cohort, error)

	Enroll(ctx context.Context, studentID, cohortID string) error
	ListStudentIDs(ctx context.Context, cohortID string) ([]string, error)

	PutTeam(ctx context.Context, t Team) error
	GetTeam(ctx context.Context, id string) (Team, error)
	ListTeamIDs(ctx context.Context, cohortID string) ([]string, error)
	ListTeams(ctx context.Context, cohortID string) ([]Team, error)

	AddTeamMember(ctx context.Context, teamID, studentID string) error
	ListTeamMemberIDs(ctx context.Context, teamID string) ([]string, error)
	TeamFor(ctx context.Context, studentID, cohortID string) (string, error)
}
