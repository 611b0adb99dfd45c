package cache

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheEntryRow is the persisted form of an Entry.
type CacheEntryRow struct {
	Key       string    `gorm:"column:cache_key;primaryKey;size:191"`
	Value     []byte    `gorm:"not null"`
	StoredAt  time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

func (CacheEntryRow) TableName() string {
	return "aggregation_cache_entries"
}

// GormBackend persists entries in a table so they survive restarts.
type GormBackend struct {
	db *gorm.DB
}

// NewGormBackend creates a database-backed cache store
func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

// AutoMigrate creates the cache table
func (g *GormBackend) AutoMigrate() error {
	if err := g.db.AutoMigrate(&CacheEntryRow{}); err != nil {
		return fmt.Errorf("failed to migrate cache table: %w", err)
	}
	return nil
}

func (g *GormBackend) Load(ctx context.Context, key string) (*Entry, error) {
	var row CacheEntryRow
	err := g.db.WithContext(ctx).Where("cache_key = ?", key).Take(&row).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &Entry{Value: row.Value, StoredAt: row.StoredAt, ExpiresAt: row.ExpiresAt}, nil
}

func (g *GormBackend) Store(ctx context.Context, key string, entry *Entry) error {
	row := CacheEntryRow{
		Key:       key,
		Value:     entry.Value,
		StoredAt:  entry.StoredAt.UTC(),
		ExpiresAt: entry.ExpiresAt.UTC(),
	}
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "stored_at", "expires_at"}),
		}).
		Create(&row).Error
}

func (g *GormBackend) Delete(ctx context.Context, key string) error {
	return g.db.WithContext(ctx).Where("cache_key = ?", key).Delete(&CacheEntryRow{}).Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (g *GormBackend) DeletePrefix(ctx context.Context, prefix string) error {
	return g.db.WithContext(ctx).
		Where(`cache_key LIKE ? ESCAPE '\'`, likeEscaper.Replace(prefix)+"%").
		Delete(&CacheEntryRow{}).Error
}

func (g *GormBackend) Clear(ctx context.Context) error {
	return g.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&CacheEntryRow{}).Error
}
