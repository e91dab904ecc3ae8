// Copyright (C) 2025 FocusFlow Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads runtime configuration from the environment.
//
// A .env file in the working directory is loaded first (if present),
// then individual variables override it. Every field has a development
// default so `focusflow serve` works out of the box against a local
// SQLite file.
package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// Port the HTTP server listens on.
	Port string

	// DatabaseURL selects the store: a postgres:// DSN, or empty to
	// use the local SQLite file at SQLitePath.
	DatabaseURL string
	SQLitePath  string

	// JWTSecret signs session tokens. The default is only acceptable
	// for local development.
	JWTSecret string

	// Google OAuth login.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Yandex Disk OAuth.
	YandexClientID     string
	YandexClientSecret string
	YandexRedirectURL  string

	// OTLPEndpoint enables trace export when non-empty.
	OTLPEndpoint string

	LogDir string
}

// Load reads configuration from .env and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
	return Config{
		Port:               getenv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SQLitePath:         getenv("SQLITE_PATH", "focusflow.db"),
		JWTSecret:          getenv("JWT_SECRET", "dev-secret-change-in-production"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  getenv("GOOGLE_REDIRECT_URI", "http://localhost:8080/auth/google/callback"),
		YandexClientID:     os.Getenv("YANDEX_CLIENT_ID"),
		YandexClientSecret: os.Getenv("YANDEX_CLIENT_SECRET"),
		YandexRedirectURL:  getenv("YANDEX_REDIRECT_URI", "http://localhost:8080/auth/yandex/callback"),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogDir:             os.Getenv("LOG_DIR"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
