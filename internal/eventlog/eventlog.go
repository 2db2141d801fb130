// Package eventlog records the grading pipeline's state changes (release,
// correction, composite recomputation) as an append-only sequence, so the
// release → penalty → composite cascade is an explicit, ordered trail.
package eventlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Event types appended by the services.
const (
	TypeExamReleased        = "ExamReleased"
	TypeAnswerCorrected     = "AnswerCorrected"
	TypeCompositeRecomputed = "CompositeRecomputed"
)

type Event struct {
	Offset    int64  `json:"offset"`
	Type      string `json:"type"`
	Key       string `json:"key"` // natural key: exam/answer/composite id
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

// Sink is the append-only surface services write to.
type Sink interface {
	Append(ctx context.Context, typ, key string, data interface{}) error
}

type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Append(ctx context.Context, typ, key string, data interface{}) error {
	payload := "{}"
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		payload = string(b)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		typ, key, payload, time.Now().Unix())
	return err
}

type nopSink struct{}

func (nopSink) Append(context.Context, string, string, interface{}) error { return nil }

// Nop returns a sink that discards events. Used in tests.
func Nop() Sink { return nopSink{} }
