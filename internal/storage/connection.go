package storage

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/timescope/timescope/internal/models"
)

const defaultDBName = "timescope.db"

// DB wraps the gorm handle together with the file path backing it, so the
// repository can report on-disk size.
type DB struct {
	*gorm.DB
	path string
}

// DefaultDBPath returns the per-user database location under the XDG data
// directory, creating the directory if needed.
func DefaultDBPath() (string, error) {
	dir := filepath.Join(xdg.DataHome, "timescope")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create data directory")
	}
	return filepath.Join(dir, defaultDBName), nil
}

// Connect opens (or creates) the SQLite database at dbPath. An empty path
// selects the default per-user location.
func Connect(dbPath string) (*DB, error) {
	if dbPath == "" {
		var err error
		dbPath, err = DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	return &DB{DB: db, path: dbPath}, nil
}

// Initialize creates the sample table if absent. There is a single schema
// version; no migrations are modeled.
func (db *DB) Initialize() error {
	if err := db.AutoMigrate(&models.ActivitySample{}); err != nil {
		return errors.Wrap(err, "failed to initialize database schema")
	}
	return nil
}

// Path returns the database file location.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get underlying sql.DB")
	}
	return sqlDB.Close()
}
