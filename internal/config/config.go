package config

import (
	"os"
)

type Config struct {
	AppPort string

	// Base URL of the remote Tastoria backend API, e.g. http://localhost:5000/api
	BackendBaseURL string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Optional. When empty the app falls back to the in-memory store.
	RedisAddr     string
	RedisPassword string
}

func Load() Config {

	cfg := Config{

		AppPort: os.Getenv("APP_PORT"),

		BackendBaseURL: os.Getenv("BACKEND_BASE_URL"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
	}

	if cfg.AppPort == "" {
		cfg.AppPort = "8080"
	}

	if cfg.BackendBaseURL == "" {
		cfg.BackendBaseURL = "http://localhost:5000/api"
	}

	return cfg

}
