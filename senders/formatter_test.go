package senders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fiffu/farewatch/lib/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type nameMap map[string]string

func (m nameMap) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok := m[key]
	return value, ok, nil
}

func ptr(v float64) *float64 { return &v }

func testWatch() *models.Watch {
	return &models.Watch{
		Model:       gorm.Model{ID: 42},
		Origin:      "IST",
		Destination: "LED",
		RangeTo:     time.Date(2025, time.December, 20, 0, 0, 0, 0, time.UTC),
		Currency:    "RUB",
	}
}

func testCandidate(price float64, old *float64) models.NotifyCandidate {
	return models.NotifyCandidate{
		Offer: models.Offer{
			Origin:      "IST",
			Destination: "LED",
			DepartureAt: "2025-11-03T09:25:00+03:00",
			Price:       &price,
			Airline:     "TK",
			Transfers:   1,
			Duration:    310,
			Link:        "/search/x",
		},
		Date:     "2025-11-03",
		OldPrice: old,
	}
}

func TestAlertBlockForPriceDrop(t *testing.T) {
	f := &formatter{names: nameMap{
		"airport:IST": "Istanbul Airport",
		"city:LED":    "Saint Petersburg",
		"airline:TK":  "Turkish Airlines",
	}}

	block := f.alertBlock(context.Background(), testWatch(), testCandidate(970, ptr(1000)))

	assert.Contains(t, block, "Istanbul Airport → Saint Petersburg")
	assert.Contains(t, block, "Turkish Airlines")
	assert.Contains(t, block, "<b>970 RUB</b>")
	assert.Contains(t, block, "-30.00 RUB (-3.0%)")
	assert.Contains(t, block, "Was: 1000 RUB")
	assert.Contains(t, block, "1 stop")
	assert.Contains(t, block, "5h 10m")
	assert.Contains(t, block, `href="https://aviasales.ru/search/x"`)
	assert.Contains(t, block, `href="https://www.aviasales.com/search/IST0311LED21"`)
	assert.NotContains(t, block, "New route!")
}

func TestAlertBlockForNewDiscovery(t *testing.T) {
	f := &formatter{names: nameMap{}}

	block := f.alertBlock(context.Background(), testWatch(), testCandidate(4990, nil))

	// Unknown codes fall back to the raw IATA code.
	assert.Contains(t, block, "IST → LED")
	assert.Contains(t, block, "New route!")
	assert.NotContains(t, block, "Was:")
}

func TestAlertMessageJoinsBlocks(t *testing.T) {
	f := &formatter{names: nameMap{}}
	batch := []models.NotifyCandidate{testCandidate(4990, nil), testCandidate(5990, nil)}

	msg := f.AlertMessage(context.Background(), testWatch(), batch)

	assert.Len(t, strings.Split(msg, "\n\n"), 2)
}

func TestExpiryMessage(t *testing.T) {
	f := &formatter{names: nameMap{"city:IST": "Istanbul"}}

	msg := f.ExpiryMessage(context.Background(), testWatch())

	assert.Contains(t, msg, "Istanbul → LED")
	assert.Contains(t, msg, "expired")
	assert.Contains(t, msg, "20.12.2025")
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "1h 05m", humanDuration(65))
	assert.Equal(t, "0h 45m", humanDuration(45))
	assert.Equal(t, "25h 00m", humanDuration(1500))
}

func TestStopsText(t *testing.T) {
	assert.Equal(t, "Non-stop", stopsText(0))
	assert.Equal(t, "1 stop", stopsText(1))
	assert.Equal(t, "2 stops", stopsText(2))
}

func TestDeeplink(t *testing.T) {
	assert.Equal(t, "", deeplink(""))
	assert.Equal(t, "https://aviasales.ru/search/x", deeplink("/search/x"))
}
