package senders

import (
	"context"
	"fmt"
	"strconv"

	"github.com/carlmjohnson/requests"
	"github.com/fiffu/farewatch/lib/models"
)

type telegramSender struct {
	base
	fmtr *formatter
}

type inlineButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

type inlineKeyboard struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type sendMessageRequest struct {
	ChatID                string          `json:"chat_id"`
	Text                  string          `json:"text"`
	ParseMode             string          `json:"parse_mode"`
	DisableWebPagePreview bool            `json:"disable_web_page_preview"`
	ReplyMarkup           *inlineKeyboard `json:"reply_markup,omitempty"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int `json:"message_id"`
	} `json:"result"`
}

func (t *telegramSender) SendAlerts(ctx context.Context, notifier *models.Notifier, watch *models.Watch, batch []models.NotifyCandidate) (string, error) {
	text := t.fmtr.AlertMessage(ctx, watch, batch)
	markup := &inlineKeyboard{
		InlineKeyboard: [][]inlineButton{{
			{Text: "🛑 Disable this watch", CallbackData: fmt.Sprintf("watch:disable:%d", watch.ID)},
		}},
	}
	return t.send(ctx, notifier.PlatformIdentifier, text, markup)
}

func (t *telegramSender) SendExpiry(ctx context.Context, notifier *models.Notifier, watch *models.Watch) (string, error) {
	return t.send(ctx, notifier.PlatformIdentifier, t.fmtr.ExpiryMessage(ctx, watch), nil)
}

func (t *telegramSender) send(ctx context.Context, chatID, text string, markup *inlineKeyboard) (string, error) {
	payload := sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
		ReplyMarkup:           markup,
	}

	var resp sendMessageResponse
	err := requests.URL(fmt.Sprintf("%s/bot%s/sendMessage", t.cfg.Telegram.APIBase, t.cfg.Telegram.Token)).
		Transport(t.transport).
		BodyJSON(&payload).
		ToJSON(&resp).
		Fetch(ctx)
	if err != nil {
		return "", err
	}
	if !resp.OK {
		return "", fmt.Errorf("telegram sendMessage rejected: %s", resp.Description)
	}
	return strconv.Itoa(resp.Result.MessageID), nil
}
