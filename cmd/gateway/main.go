package main

import (
	"context"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	api "github.com/lotus-edu/lotus-backend/internal/api/http"
	"github.com/lotus-edu/lotus-backend/internal/auth"
	"github.com/lotus-edu/lotus-backend/internal/composite"
	"github.com/lotus-edu/lotus-backend/internal/config"
	"github.com/lotus-edu/lotus-backend/internal/db"
	"github.com/lotus-edu/lotus-backend/internal/eventlog"
	"github.com/lotus-edu/lotus-backend/internal/exam"
	"github.com/lotus-edu/lotus-backend/internal/logger"
	"github.com/lotus-edu/lotus-backend/internal/roster"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	log, err := logger.New(string(cfg.Mode))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", "err", err)
	}

	events := eventlog.NewRepo(dbh)
	rosterStore := roster.NewSQLStore(dbh)
	rosterSvc := roster.NewService(rosterStore, log, nil)

	examStore := exam.NewSQLStore(dbh)
	examSvc := exam.NewService(examStore, rosterStore, nil, events, log, nil)

	engine := composite.NewEngine(
		composite.NewSQLStore(dbh),
		composite.NewExamGrades(examStore, examSvc),
		rosterStore,
		events,
		log,
		nil,
		cfg.CompositeWeightCap,
	)
	examSvc.SetRecomputer(engine)

	authSvc := auth.NewAuthService(cfg.JWTSecret, time.Duration(cfg.TokenTTLhr)*time.Hour)

	router := api.NewRouter(api.RouterDeps{
		Auth:                 authSvc,
		Exams:                examSvc,
		Composite:            engine,
		Roster:               rosterSvc,
		CORSOrigins:          cfg.CORSOrigins,
		DefaultPenaltyFactor: cfg.DefaultPenaltyFactor,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("gateway listening", "addr", cfg.HTTPAddr, "db_driver", cfg.DBDriver)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server exited", "err", err)
	}
}
