package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lotus-edu/lotus-backend/internal/auth"
	"github.com/lotus-edu/lotus-backend/internal/composite"
)

type createCompositeReq struct {
	CohortID    string `json:"cohort_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Components  []struct {
		ExamID string  `json:"exam_id" validate:"required"`
		Weight float64 `json:"weight" validate:"gt=0"`
	} `json:"components" validate:"min=1,dive"`
}

// POST /composites
func CreateCompositeHandler(engine *composite.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCompositeReq
		if err := decodeValid(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		comps := make([]composite.Component, len(req.Components))
		for i, c := range req.Components {
			comps[i] = composite.Component{ExamID: c.ExamID, Weight: c.Weight}
		}
		created, withIDs, err := engine.Create(r.Context(), composite.Composite{
			CohortID:    req.CohortID,
			Name:        req.Name,
			Description: req.Description,
			CreatedBy:   auth.SubjectFromContext(r.Context()),
		}, comps)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, struct {
			Composite  composite.Composite   `json:"composite"`
			Components []composite.Component `json:"components"`
		}{created, withIDs})
	}
}

// GET /composites?cohort_id=...
func ListCompositesHandler(engine *composite.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cohortID := strings.TrimSpace(r.URL.Query().Get("cohort_id"))
		if cohortID == "" {
			http.Error(w, "cohort_id required", http.StatusBadRequest)
			return
		}
		composites, err := engine.List(r.Context(), cohortID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, composites)
	}
}

// GET /composites/{compositeID}
func GetCompositeHandler(engine *composite.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, comps, err := engine.Get(r.Context(), chi.URLParam(r, "compositeID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Composite  composite.Composite   `json:"composite"`
			Components []composite.Component `json:"components"`
		}{c, comps})
	}
}

// POST /composites/{compositeID}/recompute
func RecomputeCompositeHandler(engine *composite.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := engine.ComputeForCohort(r.Context(), chi.URLParam(r, "compositeID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			ComputedCount int                `json:"computed_count"`
			Results       []composite.Result `json:"results"`
		}{len(results), results})
	}
}

// GET /composites/{compositeID}/results
func ListCompositeResultsHandler(engine *composite.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := engine.Results(r.Context(), chi.URLParam(r, "compositeID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}

// GET /students/{studentID}/composites/{compositeID}
func GetStudentCompositeHandler(engine *composite.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := engine.ResultFor(r.Context(), chi.URLParam(r, "studentID"), chi.URLParam(r, "compositeID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
