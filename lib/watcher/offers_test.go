package watcher

import (
	"testing"
	"time"

	"github.com/fiffu/farewatch/lib/models"
	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func offerAt(departureAt string, price float64) models.Offer {
	return models.Offer{
		Origin:      "IST",
		Destination: "LED",
		DepartureAt: departureAt,
		Price:       ptr(price),
		Airline:     "TK",
		Transfers:   0,
		Duration:    150,
		Link:        "/search/IST0311LED21",
	}
}

func TestFilterGroupOffers(t *testing.T) {
	from := day(2025, time.November, 1)
	to := day(2025, time.November, 30)

	offers := models.Offers{
		offerAt("2025-11-03T09:25:00+03:00", 4990),
		offerAt("2025-11-03T18:40:00+03:00", 5990),
		offerAt("2025-11-10T07:00:00+03:00", 7500),
		offerAt("2025-12-01T07:00:00+03:00", 3000), // outside range
		offerAt("2025-11-05T07:00:00+03:00", 99999), // above ceiling
		{Origin: "IST", Destination: "LED", DepartureAt: "2025-11-06T10:00:00+03:00"}, // no price
		{Origin: "IST", Destination: "LED", Price: ptr(100)},                          // no departure
		{Origin: "IST", Destination: "LED", DepartureAt: "garbage", Price: ptr(100)},
	}

	grouped := FilterGroupOffers(offers, ptr(10000), from, to)

	assert.Len(t, grouped, 2)
	assert.Len(t, grouped["2025-11-03"], 2)
	assert.Len(t, grouped["2025-11-10"], 1)

	for date, offers := range grouped {
		for _, o := range offers {
			assert.LessOrEqual(t, *o.Price, 10000.0)
			dep, ok := o.DepartureTime()
			assert.True(t, ok)
			assert.Equal(t, date, dateOnly(dep).Format("2006-01-02"))
		}
	}
}

func TestFilterGroupOffersNilCeilingMeansUnlimited(t *testing.T) {
	from, to := day(2025, time.November, 1), day(2025, time.November, 30)
	offers := models.Offers{offerAt("2025-11-03T09:25:00+03:00", 1e9)}

	grouped := FilterGroupOffers(offers, nil, from, to)

	assert.Len(t, grouped["2025-11-03"], 1)
}

func TestFilterGroupOffersRangeBoundariesInclusive(t *testing.T) {
	from, to := day(2025, time.November, 3), day(2025, time.November, 10)
	offers := models.Offers{
		offerAt("2025-11-03T00:10:00+03:00", 100),
		offerAt("2025-11-10T23:50:00+03:00", 200),
		offerAt("2025-11-02T23:50:00+03:00", 300),
		offerAt("2025-11-11T00:10:00+03:00", 400),
	}

	grouped := FilterGroupOffers(offers, nil, from, to)

	assert.Len(t, grouped, 2)
	assert.Contains(t, grouped, "2025-11-03")
	assert.Contains(t, grouped, "2025-11-10")
}

func TestCheapestOffer(t *testing.T) {
	offers := models.Offers{
		offerAt("2025-11-03T09:25:00+03:00", 5990),
		offerAt("2025-11-03T11:00:00+03:00", 4990),
		offerAt("2025-11-03T18:40:00+03:00", 6990),
	}

	assert.Equal(t, 4990.0, *cheapestOffer(offers).Price)
}
