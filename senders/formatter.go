package senders

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fiffu/farewatch/lib/models"
)

// NameSource resolves display names for airport/city/airline codes. Absence
// of a key falls back to the raw code.
type NameSource interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

type formatter struct {
	names NameSource
}

func (f *formatter) AlertMessage(ctx context.Context, watch *models.Watch, batch []models.NotifyCandidate) string {
	blocks := make([]string, 0, len(batch))
	for _, cand := range batch {
		blocks = append(blocks, f.alertBlock(ctx, watch, cand))
	}
	return strings.Join(blocks, "\n\n")
}

func (f *formatter) alertBlock(ctx context.Context, watch *models.Watch, cand models.NotifyCandidate) string {
	offer := cand.Offer
	price := *offer.Price

	lines := []string{
		fmt.Sprintf("🛫 <b>%s → %s</b>", f.placeName(ctx, offer.Origin), f.placeName(ctx, offer.Destination)),
	}

	if dep, ok := offer.DepartureTime(); ok {
		lines = append(lines, fmt.Sprintf("📅 %s", dep.Format("02.01 15:04")))
	}

	lines = append(lines,
		fmt.Sprintf("💺 %s", f.airlineName(ctx, offer.Airline)),
		fmt.Sprintf("💰 <b>%s %s</b>", formatPrice(price), watch.Currency),
	)

	if cand.OldPrice != nil {
		savings := *cand.OldPrice - price
		percent := savings / *cand.OldPrice * 100
		lines = append(lines,
			fmt.Sprintf("📉 <b>-%.2f %s (-%.1f%%)</b>", savings, watch.Currency, percent),
			fmt.Sprintf("   Was: %s %s", formatPrice(*cand.OldPrice), watch.Currency),
		)
	} else {
		lines = append(lines, "🆕 <b>New route!</b>")
	}

	lines = append(lines,
		fmt.Sprintf("🔁 %s", stopsText(offer.Transfers)),
		fmt.Sprintf("🕒 %s", humanDuration(offer.Duration)),
	)

	if link := deeplink(offer.Link); link != "" {
		lines = append(lines, fmt.Sprintf(`<a href="%s">🔗 Buy ticket</a>`, link))
	}
	if dep, ok := offer.DepartureTime(); ok {
		lines = append(lines, fmt.Sprintf(`<a href="%s">🔎 Find similar</a>`, searchURL(offer.Origin, offer.Destination, dep)))
	}

	return strings.Join(lines, "\n")
}

func (f *formatter) ExpiryMessage(ctx context.Context, watch *models.Watch) string {
	return strings.Join([]string{
		fmt.Sprintf("⌛ Your watch <b>%s → %s</b> has expired.",
			f.placeName(ctx, watch.Origin), f.placeName(ctx, watch.Destination)),
		fmt.Sprintf("The last departure date %s has passed, so the watch was removed.",
			watch.RangeTo.Format("02.01.2006")),
	}, "\n")
}

func (f *formatter) placeName(ctx context.Context, code string) string {
	if code == "" {
		return "Unknown"
	}
	code = strings.ToUpper(code)
	if name, ok, err := f.names.Get(ctx, "airport:"+code); err == nil && ok {
		return name
	}
	if name, ok, err := f.names.Get(ctx, "city:"+code); err == nil && ok {
		return name
	}
	return code
}

func (f *formatter) airlineName(ctx context.Context, code string) string {
	if code == "" {
		return "Unknown airline"
	}
	code = strings.ToUpper(code)
	if name, ok, err := f.names.Get(ctx, "airline:"+code); err == nil && ok {
		return name
	}
	return code
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

func humanDuration(minutes int) string {
	h, m := minutes/60, minutes%60
	return fmt.Sprintf("%dh %02dm", h, m)
}

func stopsText(transfers int) string {
	switch transfers {
	case 0:
		return "Non-stop"
	case 1:
		return "1 stop"
	default:
		return fmt.Sprintf("%d stops", transfers)
	}
}

func deeplink(path string) string {
	if path == "" {
		return ""
	}
	return "https://aviasales.ru" + path
}

func searchURL(origin, destination string, departure time.Time) string {
	return fmt.Sprintf("https://www.aviasales.com/search/%s%s%s%s21",
		origin, departure.Format("02"), departure.Format("01"), destination)
}
