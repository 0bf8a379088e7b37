package datastore

import (
	"fmt"

	"github.com/ladyxxa/Web4/internal/conf"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// MySQLStore implements the store on a MySQL server
type MySQLStore struct {
	DataStore
	Settings *conf.Settings
}

// dsn builds the MySQL connection string from settings
func (store *MySQLStore) dsn() string {
	m := store.Settings.Store.MySQL
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		m.Username, m.Password, m.Host, m.Port, m.Database)
}

// Open sets up the MySQL database connection
func (store *MySQLStore) Open() error {
	m := store.Settings.Store.MySQL

	db, err := gorm.Open(mysql.Open(store.dsn()), &gorm.Config{
		Logger: createGormLogger(store.Settings.Debug),
	})
	if err != nil {
		getLogger().Error("Failed to open MySQL database",
			"host", m.Host,
			"port", m.Port,
			"database", m.Database,
			"error", err)
		return store.dbError(fmt.Errorf("failed to open MySQL database: %w", err), "open")
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "MySQL", fmt.Sprintf("%s:%s/%s", m.Host, m.Port, m.Database))
}

// Close MySQL database connections
func (store *MySQLStore) Close() error {
	return closeDB(store.DB)
}
