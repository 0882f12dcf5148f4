package database

import (
	"time"

	"example.com/textile/erp/internal/metrics"

	"gorm.io/gorm"
)

const startTimeKey = "metrics:start_time"

// RegisterMetricsHooks times every create, query, update and delete
func RegisterMetricsHooks(db *gorm.DB, m *metrics.Metrics) error {
	start := func(db *gorm.DB) {
		db.InstanceSet(startTimeKey, time.Now())
	}
	finish := func(op string) func(db *gorm.DB) {
		return func(db *gorm.DB) {
			name := metrics.DBQuery + "." + op
			if v, ok := db.InstanceGet(startTimeKey); ok {
				if t, ok := v.(time.Time); ok {
					m.RecordDuration(name, time.Since(t))
				}
			}
			failed := db.Error != nil && db.Error != gorm.ErrRecordNotFound
			m.RecordResult(name, failed)
		}
	}

	cb := db.Callback()
	steps := []struct {
		op       string
		register func(name string, fn func(*gorm.DB)) error
		after    func(name string, fn func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
	}
	for _, s := range steps {
		if err := s.register("metrics:start_"+s.op, start); err != nil {
			return err
		}
		if err := s.after("metrics:finish_"+s.op, finish(s.op)); err != nil {
			return err
		}
	}
	return nil
}
