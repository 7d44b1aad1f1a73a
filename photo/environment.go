package photo

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v6/osfs"
	"github.com/rs/zerolog"

	"github.com/lewtec/camsave/internal/export"
	"github.com/lewtec/camsave/internal/naming"
	"github.com/lewtec/camsave/internal/repository"
	"github.com/lewtec/camsave/internal/session"
)

// Environment is everything a command needs: the resolved config, the history
// database and a session wired to both.
type Environment struct {
	Config   *Config
	Database *sql.DB
	Session  *session.Session
}

func Open(config *Config, logger zerolog.Logger) (*Environment, error) {
	db, err := GetDatabase(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s, err := NewSession(config, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Environment{Config: config, Database: db, Session: s}, nil
}

func (e *Environment) Close() error {
	return e.Database.Close()
}

// NewSession wires a session over the real filesystem described by config.
func NewSession(config *Config, db *sql.DB, logger zerolog.Logger) (*session.Session, error) {
	if err := os.MkdirAll(config.Storage.PicturesRoot, 0o755); err != nil {
		return nil, fmt.Errorf("while creating pictures root: %w", err)
	}
	pictures := osfs.New(config.Storage.PicturesRoot)
	return &session.Session{
		Captures:     repository.NewCaptureRepository(db),
		Exports:      repository.NewExportRepository(db),
		Exporter:     export.New(pictures, logger.With().Str("component", "export").Logger()),
		Authority:    &session.FilesystemAuthority{Pictures: pictures, TempDir: config.Storage.TempDir},
		Namer:        naming.New(config.Naming.Prefix),
		Logger:       logger.With().Str("component", "session").Logger(),
		TempDir:      config.Storage.TempDir,
		PicturesDir:  config.Storage.Subfolder,
		KeepCaptures: config.Storage.KeepCaptures,
	}, nil
}
