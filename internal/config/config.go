package config

import (
	"os"
	"strconv"
	"strings"
)

type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	// JWTSecret signs access tokens. The default exists for local runs only.
	JWTSecret  string
	TokenTTLhr int

	CORSOrigins []string

	// DefaultPenaltyFactor seeds group-phase exams that do not set their own.
	DefaultPenaltyFactor float64
	// CompositeWeightCap bounds the summed weights of one composite grade.
	CompositeWeightCap float64
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeDev
	}
	return Config{
		Mode:     mode,
		HTTPAddr: envOr("HTTP_ADDR", ":8080"),
		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		JWTSecret:  envOr("JWT_SECRET", "dev-secret-change-me"),
		TokenTTLhr: envInt("TOKEN_TTL_HOURS", 12),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),

		DefaultPenaltyFactor: envFloat("DEFAULT_PENALTY_FACTOR", 0.5),
		CompositeWeightCap:   envFloat("COMPOSITE_WEIGHT_CAP", 2.0),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
