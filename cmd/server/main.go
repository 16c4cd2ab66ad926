// Package main is the entry point for the student portal server.
//
// Its job is deliberately small: load the environment, build a Config,
// hand it to the server package. All actual behavior lives under internal/.
//
// CONFIGURATION (environment variables):
//
//	PORT        HTTP port                      (default 8080)
//	DB_PATH     SQLite database file           (default data/portal.db)
//	JWT_SECRET  token signing key, REQUIRED    (openssl rand -hex 32)
//	SMTP_HOST   mail relay host                (unset = mail disabled)
//	SMTP_PORT   mail relay port                (default 587)
//	SMTP_USER   relay username                 (optional)
//	SMTP_PASS   relay password                 (optional)
//	MAIL_FROM   From address on outbound mail  (required when SMTP_HOST set)
//
// A .env file in the working directory is loaded first, if present, so
// local development doesn't need exported variables.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/rahim/student-portal/internal/notify"
	"github.com/rahim/student-portal/internal/server"
)

func main() {
	// Missing .env is fine — production sets real environment variables.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
		port = p
	}

	dbPath := "data/portal.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// The signing key has no default: a guessable key means forgeable
	// identities, so refusing to start is the only safe behavior.
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	var smtp *notify.SMTPConfig
	if host := os.Getenv("SMTP_HOST"); host != "" {
		smtpPort := 587
		if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
			p, err := strconv.Atoi(portStr)
			if err != nil {
				logger.Error("invalid SMTP_PORT value", slog.String("value", portStr))
				os.Exit(1)
			}
			smtpPort = p
		}
		from := os.Getenv("MAIL_FROM")
		if from == "" {
			logger.Error("MAIL_FROM is required when SMTP_HOST is set")
			os.Exit(1)
		}
		smtp = &notify.SMTPConfig{
			Host:     host,
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     from,
		}
	} else {
		logger.Warn("SMTP_HOST not set — email notifications are disabled")
	}

	srv, err := server.New(server.Config{
		Port:      port,
		DBPath:    dbPath,
		JWTSecret: jwtSecret,
		SMTP:      smtp,
	}, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
