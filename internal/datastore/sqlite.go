package datastore

import (
	"fmt"

	"github.com/ladyxxa/Web4/internal/conf"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteStore implements the store on a local SQLite file
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the SQLite database connection
func (store *SQLiteStore) Open() error {
	path, err := conf.GetStoragePath(store.Settings.Store.SQLite.Path)
	if err != nil {
		return store.dbError(err, "resolve_sqlite_path")
	}

	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000&_journal_mode=WAL"), &gorm.Config{
		Logger: createGormLogger(store.Settings.Debug),
	})
	if err != nil {
		getLogger().Error("Failed to open SQLite database", "path", path, "error", err)
		return store.dbError(fmt.Errorf("failed to open SQLite database: %w", err), "open")
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "SQLite", path)
}

// Close SQLite database connections
func (store *SQLiteStore) Close() error {
	return closeDB(store.DB)
}
