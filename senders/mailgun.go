package senders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fiffu/farewatch/lib/models"
	"github.com/mailgun/mailgun-go/v4"
)

type mailgunSender struct {
	base
	fmtr *formatter
}

func (e *mailgunSender) SendAlerts(ctx context.Context, notifier *models.Notifier, watch *models.Watch, batch []models.NotifyCandidate) (string, error) {
	subject := fmt.Sprintf("farewatch: %s fare update", watch.Route())
	body := htmlBody(e.fmtr.AlertMessage(ctx, watch, batch))
	return e.send(ctx, subject, body, notifier.PlatformIdentifier)
}

func (e *mailgunSender) SendExpiry(ctx context.Context, notifier *models.Notifier, watch *models.Watch) (string, error) {
	subject := fmt.Sprintf("farewatch: %s watch expired", watch.Route())
	body := htmlBody(e.fmtr.ExpiryMessage(ctx, watch))
	return e.send(ctx, subject, body, notifier.PlatformIdentifier)
}

func (e *mailgunSender) send(ctx context.Context, subject, body, recipient string) (string, error) {
	mg := mailgun.NewMailgun(e.cfg.Mailgun.Domain, e.cfg.Mailgun.APIKey)
	mg.Client().Transport = e.transport

	// Create message with empty body first.
	message := mg.NewMessage(e.cfg.Mailgun.SenderFrom, subject, "", recipient)
	// SetHtml with the payload proper. This will assign the MIME type properly.
	message.SetHtml(body)

	timeout := time.Duration(e.cfg.Mailgun.TimeoutSecs) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, id, err := mg.Send(ctx, message)
	return id, err
}

// htmlBody rewrites the chat-oriented markup into something mail clients
// render sanely: newlines become <br>.
func htmlBody(text string) string {
	return strings.ReplaceAll(text, "\n", "<br>")
}
