package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port       string
	DBDSN      string
	LogFile    string
	JWTSecret  string
	JWTTTL     time.Duration
	BcryptCost int
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "lendshelf.db"
	} // sqlite file in project root
	logFile := os.Getenv("LOG_FILE")

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// Dev-only fallback; deployments must set JWT_SECRET.
		secret = "lendshelf-dev-secret"
		log.Printf("[config] JWT_SECRET not set, using insecure dev default")
	}

	ttl := 24 * time.Hour
	if raw := os.Getenv("JWT_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			ttl = d
		} else {
			log.Printf("[config] invalid JWT_TTL %q, keeping %s", raw, ttl)
		}
	}

	cost := 10
	if raw := os.Getenv("BCRYPT_COST"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 4 && n <= 31 {
			cost = n
		}
	}

	cfg := Config{Port: port, DBDSN: dsn, LogFile: logFile, JWTSecret: secret, JWTTTL: ttl, BcryptCost: cost}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s JWT_TTL=%s BCRYPT_COST=%d", cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.JWTTTL, cfg.BcryptCost)
	return cfg
}
