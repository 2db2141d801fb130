package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lotus-edu/lotus-backend/internal/auth"
	"github.com/lotus-edu/lotus-backend/internal/exam"
)

// GET /exams/{examID}/scores
func ListExamScoresHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scores, err := svc.ScoresForExam(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, scores)
	}
}

// GET /students/{studentID}/scores
// Students read their own; scores:view-all covers the rest (see router).
func ListStudentScoresHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scores, err := svc.ScoresForStudent(r.Context(), chi.URLParam(r, "studentID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, scores)
	}
}

// IsSelf reports whether the {studentID} route param is the authenticated
// subject. Router glue for own-resource access.
func IsSelf(r *http.Request) bool {
	return chi.URLParam(r, "studentID") == auth.SubjectFromContext(r.Context())
}
