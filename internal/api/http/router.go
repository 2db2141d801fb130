package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lotus-edu/lotus-backend/internal/auth"
	"github.com/lotus-edu/lotus-backend/internal/composite"
	"github.com/lotus-edu/lotus-backend/internal/exam"
	"github.com/lotus-edu/lotus-backend/internal/rbac"
	"github.com/lotus-edu/lotus-backend/internal/roster"
)

type RouterDeps struct {
	Auth      *auth.AuthService
	Exams     *exam.Service
	Composite *composite.Engine
	Roster    *roster.Service

	CORSOrigins          []string
	DefaultPenaltyFactor float64
}

// NewRouter assembles the API. Everything except /auth/login and /healthz
// sits behind the JWT and the role policy.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Roster))

	r.Group(func(r chi.Router) {
		r.Use(auth.JWTMiddleware(d.Auth))

		// Exams and grading pipeline.
		r.With(rbac.Require("exam:create")).Post("/exams", CreateExamHandler(d.Exams, d.DefaultPenaltyFactor))
		r.With(rbac.Require("exam:view")).Get("/exams", ListExamsHandler(d.Exams))
		r.With(rbac.Require("exam:view")).Get("/exams/{examID}", GetExamHandler(d.Exams))
		r.With(rbac.Require("question:create")).Post("/exams/{examID}/questions", CreateQuestionHandler(d.Exams))
		r.With(rbac.Require("exam:view")).Get("/exams/{examID}/questions", ListQuestionsHandler(d.Exams))
		r.With(rbac.Require("exam:release")).Post("/exams/{examID}/release", ReleaseExamHandler(d.Exams))
		r.With(rbac.Require("penalty:preview")).Get("/exams/{examID}/penalty-preview", PreviewPenaltiesHandler(d.Exams))
		r.With(rbac.Require("scores:view-all")).Get("/exams/{examID}/scores", ListExamScoresHandler(d.Exams))

		// Answers and corrections.
		r.With(rbac.Require("answer:submit")).Post("/questions/{questionID}/answer", SubmitAnswerHandler(d.Exams))
		r.With(rbac.Require("correction:apply")).Get("/exams/{examID}/pending-corrections", ListPendingCorrectionsHandler(d.Exams))
		r.With(rbac.Require("correction:apply")).Post("/answers/{answerID}/correction", ApplyCorrectionHandler(d.Exams))

		// Released grades. Students reach their own rows.
		r.With(rbac.RequireOwnerOr("scores:view-all", IsSelf)).
			Get("/students/{studentID}/scores", ListStudentScoresHandler(d.Exams))
		r.With(rbac.RequireOwnerOr("scores:view-all", IsSelf)).
			Get("/students/{studentID}/composites/{compositeID}", GetStudentCompositeHandler(d.Composite))

		// Composite grades.
		r.With(rbac.Require("composite:create")).Post("/composites", CreateCompositeHandler(d.Composite))
		r.With(rbac.Require("exam:view")).Get("/composites", ListCompositesHandler(d.Composite))
		r.With(rbac.Require("exam:view")).Get("/composites/{compositeID}", GetCompositeHandler(d.Composite))
		r.With(rbac.Require("composite:recompute")).Post("/composites/{compositeID}/recompute", RecomputeCompositeHandler(d.Composite))
		r.With(rbac.Require("scores:view-all")).Get("/composites/{compositeID}/results", ListCompositeResultsHandler(d.Composite))

		// Roster management.
		r.With(rbac.Require("roster:manage")).Post("/persons", CreatePersonHandler(d.Roster))
		r.With(rbac.Require("roster:manage")).Post("/cohorts", CreateCohortHandler(d.Roster))
		r.With(rbac.Require("exam:view")).Get("/cohorts", ListCohortsHandler(d.Roster))
		r.With(rbac.Require("roster:manage")).Post("/cohorts/{cohortID}/enrollments", EnrollHandler(d.Roster))
		r.With(rbac.Require("roster:manage")).Get("/cohorts/{cohortID}/students", ListCohortStudentsHandler(d.Roster))
		r.With(rbac.Require("roster:manage")).Post("/cohorts/{cohortID}/teams", CreateTeamHandler(d.Roster))
		r.With(rbac.Require("exam:view")).Get("/cohorts/{cohortID}/teams", ListTeamsHandler(d.Roster))
		r.With(rbac.Require("roster:manage")).Post("/teams/{teamID}/members", AddTeamMemberHandler(d.Roster))
		r.With(rbac.Require("exam:view")).Get("/teams/{teamID}/members", ListTeamMembersHandler(d.Roster))
	})

	return r
}
