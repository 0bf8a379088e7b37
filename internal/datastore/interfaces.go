// interfaces.go: this code defines the interface for the persistent store
package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ladyxxa/Web4/internal/conf"
	"github.com/ladyxxa/Web4/internal/errors"
	"github.com/ladyxxa/Web4/internal/observability/metrics"
	"github.com/ladyxxa/Web4/internal/weather"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Interface abstracts the persistent store backend.
type Interface interface {
	Open() error
	Close() error
	// LoadState returns the persisted state, or an empty state if none was saved.
	LoadState(ctx context.Context) (*AppState, error)
	SaveState(ctx context.Context, state *AppState) error
	SaveFetchStamp(ctx context.Context, stamp FetchStamp) error
	LoadFetchStamps(ctx context.Context) ([]FetchStamp, error)
	DeleteFetchStamp(ctx context.Context, city string) error
}

// New creates the store selected by settings.Store.Backend.
func New(settings *conf.Settings, m *metrics.WeatherMetrics) (Interface, error) {
	switch settings.Store.Backend {
	case "sqlite":
		return &SQLiteStore{DataStore: DataStore{metrics: m}, Settings: settings}, nil
	case "mysql":
		return &MySQLStore{DataStore: DataStore{metrics: m}, Settings: settings}, nil
	case "redis":
		return NewRedisStore(settings.Store.Redis, m), nil
	default:
		return nil, errors.Newf("unknown store backend %q", settings.Store.Backend).
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Context("backend", settings.Store.Backend).
			Build()
	}
}

// DataStore implements the record operations on a GORM database; the SQL
// backends embed it and provide Open.
type DataStore struct {
	DB      *gorm.DB
	metrics *metrics.WeatherMetrics
}

func (ds *DataStore) dbError(err error, operation string) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Build()
}

// observe records the outcome and duration of a store operation.
func observe(m *metrics.WeatherMetrics, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := metrics.LabelSuccess
	if err != nil {
		status = metrics.LabelError
	}
	m.RecordStoreOperation(operation, status)
	m.RecordStoreDuration(operation, time.Since(start).Seconds())
}

func (ds *DataStore) checkOpen() error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

// LoadState reads the state record.
func (ds *DataStore) LoadState(ctx context.Context) (state *AppState, err error) {
	defer func(start time.Time) { observe(ds.metrics, "load_state", start, err) }(time.Now())

	if err := ds.checkOpen(); err != nil {
		return nil, err
	}

	var record StateRecord
	result := ds.DB.WithContext(ctx).Where(&StateRecord{Key: StateKey}).Limit(1).Find(&record)
	if result.Error != nil {
		return nil, ds.dbError(result.Error, "load_state")
	}
	if result.RowsAffected == 0 {
		return NewAppState(), nil
	}

	state = &AppState{}
	if err := json.Unmarshal(record.Data, state); err != nil {
		return nil, errors.New(fmt.Errorf("decoding state record: %w", err)).
			Component("datastore").
			Category(errors.CategoryFileParsing).
			Context("operation", "load_state").
			Build()
	}
	return state.Normalize(), nil
}

// SaveState upserts the state record.
func (ds *DataStore) SaveState(ctx context.Context, state *AppState) (err error) {
	defer func(start time.Time) { observe(ds.metrics, "save_state", start, err) }(time.Now())

	if err := ds.checkOpen(); err != nil {
		return err
	}

	data, err := json.Marshal(state)
	if err != nil {
		return ds.dbError(fmt.Errorf("encoding state: %w", err), "save_state")
	}

	record := StateRecord{Key: StateKey, Data: datatypes.JSON(data)}
	if err := ds.DB.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error; err != nil {
		return ds.dbError(err, "save_state")
	}
	return nil
}

// SaveFetchStamp upserts the fetch stamp of a city.
func (ds *DataStore) SaveFetchStamp(ctx context.Context, stamp FetchStamp) (err error) {
	defer func(start time.Time) { observe(ds.metrics, "save_fetch_stamp", start, err) }(time.Now())

	if err := ds.checkOpen(); err != nil {
		return err
	}

	record := FetchRecord{
		Key:              FetchStampKey(stamp.City),
		City:             stamp.City,
		FetchedAtEpochMs: stamp.FetchedAtEpochMs,
	}
	if stamp.Snapshot != nil {
		data, err := json.Marshal(stamp.Snapshot)
		if err != nil {
			return ds.dbError(fmt.Errorf("encoding snapshot: %w", err), "save_fetch_stamp")
		}
		record.Snapshot = datatypes.JSON(data)
	}

	if err := ds.DB.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&record).Error; err != nil {
		return ds.dbError(err, "save_fetch_stamp")
	}
	return nil
}

// LoadFetchStamps returns all persisted fetch stamps. Records whose snapshot
// cannot be decoded are returned without a snapshot.
func (ds *DataStore) LoadFetchStamps(ctx context.Context) (stamps []FetchStamp, err error) {
	defer func(start time.Time) { observe(ds.metrics, "load_fetch_stamps", start, err) }(time.Now())

	if err := ds.checkOpen(); err != nil {
		return nil, err
	}

	var records []FetchRecord
	if err := ds.DB.WithContext(ctx).Order("city").Find(&records).Error; err != nil {
		return nil, ds.dbError(err, "load_fetch_stamps")
	}

	stamps = make([]FetchStamp, 0, len(records))
	for i := range records {
		stamp := FetchStamp{City: records[i].City, FetchedAtEpochMs: records[i].FetchedAtEpochMs}
		if len(records[i].Snapshot) > 0 {
			var snap weather.Snapshot
			if err := json.Unmarshal(records[i].Snapshot, &snap); err != nil {
				getLogger().Warn("Discarding undecodable snapshot", "city", records[i].City, "error", err)
			} else {
				stamp.Snapshot = &snap
			}
		}
		stamps = append(stamps, stamp)
	}
	return stamps, nil
}

// DeleteFetchStamp removes the fetch stamp of a city. Missing records are not an error.
func (ds *DataStore) DeleteFetchStamp(ctx context.Context, city string) (err error) {
	defer func(start time.Time) { observe(ds.metrics, "delete_fetch_stamp", start, err) }(time.Now())

	if err := ds.checkOpen(); err != nil {
		return err
	}
	if err := ds.DB.WithContext(ctx).Delete(&FetchRecord{Key: FetchStampKey(city)}).Error; err != nil {
		return ds.dbError(err, "delete_fetch_stamp")
	}
	return nil
}

// closeDB closes the underlying sql.DB of a GORM connection.
func closeDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve generic DB object: %w", err)
	}
	return sqlDB.Close()
}

// performAutoMigration creates or updates the tables used by the store
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&StateRecord{}, &FetchRecord{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}

	if debug {
		getLogger().Debug("Database connection initialized", "type", dbType, "connection", connectionInfo)
	}

	return nil
}
