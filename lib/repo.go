package lib

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fiffu/farewatch/lib/models"
	"github.com/fiffu/farewatch/lib/watcher"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidDateRange = errors.New("watch date range start must not be after its end")

// Repo owns all Watch persistence. The scheduler consumes it through the
// watcher.Repo interface; the chat-facing layer uses it directly.
type Repo struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
}

func NewRepo(db *gorm.DB, log *zap.Logger) *Repo {
	return &Repo{db: db, log: log, now: time.Now}
}

// Create stores a watch and makes it due immediately.
func (r *Repo) Create(ctx context.Context, watch *models.Watch) error {
	if watch.RangeFrom.After(watch.RangeTo) {
		return ErrInvalidDateRange
	}
	if watch.CheckIntervalMinutes <= 0 {
		watch.CheckIntervalMinutes = 5
	}
	watch.Active = true
	watch.NextCheckAt = nullTime(r.now().UTC())
	return r.db.WithContext(ctx).Create(watch).Error
}

// FetchDue returns active watches whose next check time is unset or has
// passed, never-checked ones first, then oldest due first.
func (r *Repo) FetchDue(ctx context.Context, limit int) (models.Watches, error) {
	var due models.Watches
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("next_check_at IS NULL OR next_check_at <= ?", r.now().UTC()).
		Order("(next_check_at IS NULL) DESC, next_check_at ASC").
		Limit(limit).
		InnerJoins("Notifier").
		Find(&due).Error
	return due, err
}

func (r *Repo) ListByUser(ctx context.Context, userID uint) (models.Watches, error) {
	var watches models.Watches
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&watches).Error
	return watches, err
}

func (r *Repo) SetActive(ctx context.Context, id uint, userID uint, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Watch{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("active", active).Error
}

func (r *Repo) UpdateMaxPrice(ctx context.Context, id uint, userID uint, maxPrice *float64) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Watch{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("max_price", maxPrice)
	return tx.RowsAffected > 0, tx.Error
}

// BumpSchedule advances the watch schedule unconditionally, whether or not
// the pass produced notifications.
func (r *Repo) BumpSchedule(ctx context.Context, id uint) error {
	var watch models.Watch
	if err := r.db.WithContext(ctx).Select("id", "check_interval_minutes").First(&watch, id).Error; err != nil {
		return err
	}

	now := r.now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.Watch{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_checked_at": now,
			"next_check_at":   now.Add(watch.CheckInterval()),
		}).Error
}

func (r *Repo) Delete(ctx context.Context, id uint, userID uint) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Watch{}).Error
}

// Transact runs fn against a repo bound to one database transaction. One
// watch pass equals one transaction.
func (r *Repo) Transact(ctx context.Context, fn func(tx watcher.Repo) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repo{db: tx, log: r.log, now: r.now})
	})
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}
