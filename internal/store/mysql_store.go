package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/evyataryagoni/addresslookup/internal/matcher"
	"github.com/evyataryagoni/addresslookup/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AddressRow is the GORM scan target for the aliased address projection
// Nullable columns are pointers so NULL city/zip values scan cleanly
type AddressRow struct {
	FullAddress string  `gorm:"column:full_address"`
	City        *string `gorm:"column:city"`
	ZipCode     *string `gorm:"column:zip_code"`
}

// toRecord converts the GORM row to our domain model
func (r AddressRow) toRecord() models.AddressRecord {
	rec := models.AddressRecord{FullAddress: r.FullAddress}
	if r.City != nil {
		rec.City = *r.City
	}
	if r.ZipCode != nil {
		rec.ZipCode = *r.ZipCode
	}
	return rec
}

// MySQLStore implements Store on MySQL with GORM
// Statements come pre-built from the matcher, so GORM only runs raw SQL here
type MySQLStore struct {
	db *gorm.DB // GORM database instance
}

// NewMySQLStore creates a new MySQL store using GORM
//
// Parameters:
//   - dsn: Data Source Name (connection string)
//     Format: user:password@tcp(host:port)/dbname?parseTime=true
//
// Returns:
//   - *MySQLStore: pointer to the created store
//   - error: any error that occurred while opening the handle
//
// No connection is made here: GORM's startup ping and version query are
// skipped, so an unreachable server surfaces through Ping instead
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	config := &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent), // Set to Info when debugging queries
		DisableAutomaticPing: true,
	}

	dialector := mysql.New(mysql.Config{
		DSN:                       dsn,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL with GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return &MySQLStore{db: db}, nil
}

// DB exposes the pooled *sql.DB under GORM for connection stats
func (s *MySQLStore) DB() *sql.DB {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil
	}
	return sqlDB
}

// Dialect implements Store
func (s *MySQLStore) Dialect() matcher.Dialect {
	return matcher.MySQL{}
}

// Query runs a raw read-only statement on a dedicated connection
func (s *MySQLStore) Query(ctx context.Context, query string, args ...any) ([]models.AddressRecord, error) {
	var rows []AddressRow

	err := s.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		return tx.Raw(query, args...).Scan(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}

	records := make([]models.AddressRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toRecord())
	}
	return records, nil
}

// Ping runs SELECT 1 on a dedicated connection
func (s *MySQLStore) Ping(ctx context.Context) error {
	err := s.db.WithContext(ctx).Connection(func(tx *gorm.DB) error {
		var one int
		return tx.Raw("SELECT 1").Scan(&one).Error
	})
	if err != nil {
		return fmt.Errorf("health query failed: %w", err)
	}
	return nil
}

// Close closes the database connection
// Should be called when the application shuts down
func (s *MySQLStore) Close() error {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
