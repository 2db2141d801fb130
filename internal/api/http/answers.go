package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lotus-edu/lotus-backend/internal/auth"
	"github.com/lotus-edu/lotus-backend/internal/exam"
)

type submitAnswerReq struct {
	OptionID *string `json:"option_id"`
	Text     string  `json:"text"`
}

// POST /questions/{questionID}/answer
// The acting student comes from the token; for group-phase exams the answer
// lands on the student's team.
func SubmitAnswerHandler(svc *exam.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitAnswerReq
		if err := decodeValid(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		studentID := auth.SubjectFromContext(r.Context())
		if studentID == "" {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		a, err := svc.SubmitAnswer(r.Context(), studentID, exam.Answer{
			QuestionID: chi.URLParam(r, "questionID"),
			OptionID:   req.OptionID,
			Text:       req.Text,
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}
