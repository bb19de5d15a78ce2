package safety

import (
	"context"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// AlertRecord is one dispatch attempt in the audit journal.
type AlertRecord struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Username  string `gorm:"type:varchar(128);index;not null"`
	Excerpt   string `gorm:"type:text;not null"`
	Channel   string `gorm:"type:varchar(32);not null"`
	Error     *string
	CreatedAt time.Time
}

func (AlertRecord) TableName() string { return "alert_records" }

// Journal keeps a local audit trail of alert dispatch attempts. It shares
// the sidecar's error policy: journal failures are logged by the caller and
// never propagate.
type Journal struct {
	db *gorm.DB
}

func OpenJournal(path string) (*Journal, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&AlertRecord{}); err != nil {
		return nil, err
	}
	return &Journal{db: db}, nil
}

func NewJournal(db *gorm.DB) *Journal { return &Journal{db: db} }

func (j *Journal) Record(ctx context.Context, username, excerpt, channel string, dispatchErr error) error {
	rec := AlertRecord{
		Username: username,
		Excerpt:  excerpt,
		Channel:  channel,
	}
	if dispatchErr != nil {
		msg := dispatchErr.Error()
		rec.Error = &msg
	}
	return j.db.WithContext(ctx).Create(&rec).Error
}

// Recent returns the newest dispatch records, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]AlertRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var recs []AlertRecord
	if err := j.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}
