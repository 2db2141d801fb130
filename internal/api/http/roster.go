package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lotus-edu/lotus-backend/internal/roster"
)

type createPersonReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=student teacher admin"`
}

// POST /persons
func CreatePersonHandler(svc *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPersonReq
		if err := decodeValid(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		p, err := svc.CreatePerson(r.Context(), req.Name, req.Email, req.Password, roster.Role(req.Role))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

type createCohortReq struct {
	Name string `json:"name" validate:"required"`
	Term string `json:"term"`
}

// POST /cohorts
func CreateCohortHandler(svc *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCohortReq
		if err := decodeValid(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		c, err := svc.CreateCohort(r.Context(), req.Name, req.Term)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

// GET /cohorts
func ListCohortsHandler(svc *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cohorts, err := svc.ListCohorts(r.Context())
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cohorts)
	}
}

type enrollReq struct {
	StudentID string `json:"student_id" validate:"required"`
}

// POST /cohorts/{cohortID}/enrollments
func EnrollHandler(svc *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req enrollReq
		if err := decodeValid(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		if err := svc.Enroll(r.Context(), req.StudentID, chi.URLParam(r, "cohortID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /cohorts/{cohortID}/students
func ListCohortStudentsHandler(svc *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := svc.ListStudentIDs(r.Context(), chi.URLParam(r, "cohortID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ids)
	}
}

type createTeamReq struct {
	Name string `json:"name" validate:"required"`
}

// POST /cohorts/{cohortID}/teams
func CreateTeamHandler(svc *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTeamReq
		if err := decodeValid(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		t, err := svc.CreateTeam(r.Context(), chi.URLParam(r, "cohortID"), req.Name)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

// GET /cohorts/{cohortID}/teams
func ListTeamsHandler(svc *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teams, err := svc.ListTeams(r.Context(), chi.URLParam(r, "cohortID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, teams)
	}
}

type addMemberReq struct {
	StudentID string `json:"student_id" validate:"required"`
}

// POST /teams/{teamID}/members
func AddTeamMemberHandler(svc *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addMemberReq
		if err := decodeValid(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		if err := svc.AddTeamMember(r.Context(), chi.URLParam(r, "teamID"), req.StudentID); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /teams/{teamID}/members
func ListTeamMembersHandler(svc *roster.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := svc.TeamMembers(r.Context(), chi.URLParam(r, "teamID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ids)
	}
}
