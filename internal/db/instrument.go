package db

import (
	"time"

	"roboclub/clubhouse/internal/metrics"

	"gorm.io/gorm"
)

const queryStartKey = "clubhouse:query_start"

// Instrument registers gorm callbacks that feed the DB query metrics.
func Instrument(gdb *gorm.DB, m *metrics.MetricsRegistry) error {
	if m == nil {
		return nil
	}

	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(queryType string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			m.DBQueriesTotal.WithLabelValues(queryType).Inc()
			if v, ok := tx.InstanceGet(queryStartKey); ok {
				if start, ok := v.(time.Time); ok {
					m.DBQueryDuration.WithLabelValues(queryType).Observe(time.Since(start).Seconds())
				}
			}
		}
	}

	cb := gdb.Callback()
	steps := []struct {
		name string
		regB func(string, func(*gorm.DB)) error
		regA func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"select", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, s := range steps {
		if err := s.regB("clubhouse:before_"+s.name, before); err != nil {
			return err
		}
		if err := s.regA("clubhouse:after_"+s.name, after(s.name)); err != nil {
			return err
		}
	}
	return nil
}
