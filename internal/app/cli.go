package app

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"skillpulse/internal/config"
	"skillpulse/internal/domain/posting"
)

// LoadConfig reads .env (if any) and then the environment.
func LoadConfig(logger *log.Logger) (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil && logger != nil {
		logger.Printf("config level=warn status=dotenv_failed err=%v", err)
	}
	return config.Load()
}

// QueryFromFlags validates raw flag values into an IngestionQuery.
func QueryFromFlags(location, role, level string, days, maxResults int) (posting.IngestionQuery, error) {
	r, err := posting.ParseRoleBucket(role)
	if err != nil {
		return posting.IngestionQuery{}, err
	}
	l, err := posting.ParseLevelBucket(level)
	if err != nil {
		return posting.IngestionQuery{}, err
	}
	return posting.NewIngestionQuery(location, r, l, days, maxResults)
}

// NewLogger writes to stderr and, when path is set, appends to that file too.
// The returned close func is never nil.
func NewLogger(path string) (*log.Logger, func() error, error) {
	flags := log.LstdFlags | log.LUTC
	if path == "" {
		return log.New(os.Stderr, "", flags), func() error { return nil }, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return log.New(io.MultiWriter(os.Stderr, f), "", flags), f.Close, nil
}
