// Package history persists channel-level write events to SQLite via
// GORM, grounded on the teacher's internal/db/orm.go (gorm.Open +
// AutoMigrate) and internal/model/modbus.go (tagged row types). The
// coupler's own glebarez/sqlite driver is a pure-Go substitute for the
// teacher's gorm.io/driver/sqlite (cgo-based); see DESIGN.md.
package history

import (
	"context"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// WriteEvent is one recorded channel write: who set what, when, and
// through which ownership layer.
type WriteEvent struct {
	ID             uint      `gorm:"column:id;primaryKey;autoIncrement"`
	ModulePosition int       `gorm:"column:module_position;index"`
	Channel        int       `gorm:"column:channel"`
	SourceTag      string    `gorm:"column:source_tag"`
	Value          float64   `gorm:"column:value"`
	BehaviorID     string    `gorm:"column:behavior_id"`
	Timestamp      time.Time `gorm:"column:timestamp;autoCreateTime;index"`
}

func (WriteEvent) TableName() string { return "write_events" }

// Store wraps a GORM SQLite connection recording the simulator's write
// history, best-effort and off the Modbus request hot path.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// migrates its schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&WriteEvent{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying SQL connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record inserts one write event.
func (s *Store) Record(ctx context.Context, ev *WriteEvent) error {
	return s.db.WithContext(ctx).Create(ev).Error
}

// Recent returns the most recent write events for one channel, newest
// first, limited to limit rows (0 for unlimited).
func (s *Store) Recent(ctx context.Context, position, channel, limit int) ([]WriteEvent, error) {
	q := s.db.WithContext(ctx).
		Where("module_position = ? AND channel = ?", position, channel).
		Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []WriteEvent
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
