package lib

import (
	"context"

	"github.com/fiffu/farewatch/config"
	"github.com/fiffu/farewatch/lib/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service backs the read-only ops API.
type Service struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func NewService(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, db *gorm.DB) *Service {
	return &Service{cfg, log, db}
}

type Stats struct {
	ActiveWatches int64 `json:"active_watches"`
	DueWatches    int64 `json:"due_watches"`
	Users         int64 `json:"users"`
}

func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	tx := svc.db.WithContext(ctx).Model(&models.Watch{}).
		Where("active = ?", true).
		Count(&stats.ActiveWatches)
	if err := tx.Error; err != nil {
		return stats, err
	}

	tx = svc.db.WithContext(ctx).Model(&models.Watch{}).
		Where("active = ?", true).
		Where("next_check_at IS NULL OR next_check_at <= CURRENT_TIMESTAMP").
		Count(&stats.DueWatches)
	if err := tx.Error; err != nil {
		return stats, err
	}

	tx = svc.db.WithContext(ctx).Model(&models.User{}).Count(&stats.Users)
	return stats, tx.Error
}
