package credentials

import (
	"fmt"
	"strings"

	"linketron/internal/config"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open builds the repository selected by CREDENTIALS_BACKEND.
func Open(cfg *config.Config) (Repository, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.CredentialsBackend)) {
	case "", BackendFile:
		return NewFileRepository(cfg.CredentialsFilePath)
	case BackendSQLite:
		return NewSQLiteRepository(cfg.CredentialsDBPath)
	default:
		return nil, fmt.Errorf("unknown credentials backend: %s", cfg.CredentialsBackend)
	}
}
