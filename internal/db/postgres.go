package db

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"gorm.io/gorm"
)

var DB *sqlx.DB

// InitPostgres opens the sqlx pool used for hand-written read queries,
// retrying while the database container comes up.
func InitPostgres(dsn string) (*sqlx.DB, error) {
	var err error

	for i := 0; i < 10; i++ {
		DB, err = sqlx.Connect("postgres", dsn)
		if err == nil {
			return DB, nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return nil, fmt.Errorf("failed to connect to postgres via sqlx: %w", err)
}

// SQLXFromGorm wraps the pool behind a gorm handle so both layers share
// one set of connections. driverName selects the bind style for Rebind.
func SQLXFromGorm(gdb *gorm.DB, driverName string) (*sqlx.DB, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB from gorm: %w", err)
	}
	return sqlx.NewDb(sqlDB, driverName), nil
}
