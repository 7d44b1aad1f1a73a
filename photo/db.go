package photo

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/lewtec/camsave/internal/repository"
)

// GetDatabase opens the history database, creating it and bringing its schema
// up to date when needed.
func GetDatabase(filename string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, fmt.Errorf("while creating database directory: %w", err)
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers anyway; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := repository.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
