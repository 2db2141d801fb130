package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lotus-edu/lotus-backend/internal/exam"
)

// GET /exams/{examID}/pending-corrections
func ListPendingCorrectionsHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pending, err := svc.PendingCorrections(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pending)
	}
}

type correctionReq struct {
	Points  float64 `json:"points" validate:"min=0"`
	Comment string  `json:"comment"`
}

// POST /answers/{answerID}/correction
func ApplyCorrectionHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req correctionReq
		if err := decodeValid(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		res, err := svc.RecordCorrection(r.Context(), chi.URLParam(r, "answerID"), req.Points, req.Comment)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
