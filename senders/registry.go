package senders

import (
	"context"
	"net/http"

	"github.com/fiffu/farewatch/config"
	"github.com/fiffu/farewatch/lib/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Sender delivers grouped fare alerts and expiry notices to one platform.
// Failures are reported to the caller but are never fatal to a watch pass.
type Sender interface {
	SendAlerts(ctx context.Context, notifier *models.Notifier, watch *models.Watch, batch []models.NotifyCandidate) (string, error)
	SendExpiry(ctx context.Context, notifier *models.Notifier, watch *models.Watch) (string, error)
}

type Registry map[string]Sender

func NewSenderRegistry(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config, transport http.RoundTripper, names NameSource) Registry {
	base := base{log, cfg, transport}
	fmtr := &formatter{names}
	return Registry{
		"telegram": &telegramSender{base, fmtr},
		"email":    &mailgunSender{base, fmtr},
	}
}

type base struct {
	log       *zap.Logger
	cfg       *config.Config
	transport http.RoundTripper
}
