package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lotus-edu/lotus-backend/internal/auth"
	"github.com/lotus-edu/lotus-backend/internal/exam"
)

type createExamReq struct {
	CohortID          string   `json:"cohort_id" validate:"required"`
	Kind              string   `json:"kind" validate:"required,oneof=TBL PBL"`
	Phase             string   `json:"phase" validate:"omitempty,oneof=iRAT gRAT"`
	Title             string   `json:"title" validate:"required"`
	Description       string   `json:"description"`
	Deadline          int64    `json:"deadline" validate:"required"` // unix seconds
	PenaltyFactor     *float64 `json:"penalty_factor" validate:"omitempty,min=0,max=1"`
	IndividualPhaseID *string  `json:"individual_phase_id"`
}

// POST /exams
func CreateExamHandler(svc *exam.Service, defaultPenaltyFactor float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createExamReq
		if err := decodeValid(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		factor := defaultPenaltyFactor
		if req.PenaltyFactor != nil {
			factor = *req.PenaltyFactor
		}
		e, err := svc.CreateExam(r.Context(), exam.Exam{
			CohortID:          req.CohortID,
			Kind:              exam.Kind(req.Kind),
			Phase:             exam.Phase(req.Phase),
			Title:             req.Title,
			Description:       req.Description,
			Deadline:          time.Unix(req.Deadline, 0).UTC(),
			PenaltyFactor:     factor,
			IndividualPhaseID: req.IndividualPhaseID,
			CreatedBy:         auth.SubjectFromContext(r.Context()),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

// GET /exams?cohort_id=...
func ListExamsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cohortID := strings.TrimSpace(r.URL.Query().Get("cohort_id"))
		if cohortID == "" {
			http.Error(w, "cohort_id required", http.StatusBadRequest)
			return
		}
		exams, err := svc.ListExams(r.Context(), cohortID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, exams)
	}
}

// GET /exams/{examID}
func GetExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.GetExam(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			exam.Exam
			State exam.State `json:"state"`
		}{e, e.State(time.Now())})
	}
}

type createQuestionReq struct {
	Kind       string  `json:"kind" validate:"required,oneof=mcq_single true_false free_text"`
	Prompt     string  `json:"prompt" validate:"required"`
	TotalValue float64 `json:"total_value" validate:"min=0"`
	Options    []struct {
		Label   string   `json:"label" validate:"required"`
		Correct bool     `json:"correct"`
		Points  *float64 `json:"points" validate:"omitempty,min=0"`
	} `json:"options" validate:"dive"`
}

// POST /exams/{examID}/questions
func CreateQuestionHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createQuestionReq
		if err := decodeValid(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		opts := make([]exam.AnswerOption, len(req.Options))
		for i, o := range req.Options {
			opts[i] = exam.AnswerOption{Label: o.Label, Correct: o.Correct, Points: o.Points}
		}
		q, created, err := svc.CreateQuestion(r.Context(), exam.Question{
			ExamID:     chi.URLParam(r, "examID"),
			Kind:       req.Kind,
			Prompt:     req.Prompt,
			TotalValue: req.TotalValue,
		}, opts)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, struct {
			Question exam.Question       `json:"question"`
			Options  []exam.AnswerOption `json:"options"`
		}{q, created})
	}
}

// GET /exams/{examID}/questions
func ListQuestionsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := svc.Questions(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, qs)
	}
}

// POST /exams/{examID}/release
func ReleaseExamHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Release(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// GET /exams/{examID}/penalty-preview
func PreviewPenaltiesHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		previews, err := svc.PreviewPenalties(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, previews)
	}
}
