package watcher

import (
	"time"

	"github.com/fiffu/farewatch/lib/models"
)

// FilterGroupOffers drops malformed, over-ceiling and out-of-range offers and
// groups the survivors by departure date (YYYY-MM-DD). A nil maxPrice means
// no ceiling. Directness is enforced upstream by the search query, not here.
func FilterGroupOffers(offers models.Offers, maxPrice *float64, from, to time.Time) map[string]models.Offers {
	grouped := make(map[string]models.Offers)

	for _, offer := range offers {
		if offer.Price == nil {
			continue
		}
		if maxPrice != nil && *offer.Price > *maxPrice {
			continue
		}

		dep, ok := offer.DepartureTime()
		if !ok {
			continue
		}
		depDate := dateOnly(dep)
		if depDate.Before(dateOnly(from)) || depDate.After(dateOnly(to)) {
			continue
		}

		key := depDate.Format("2006-01-02")
		grouped[key] = append(grouped[key], offer)
	}

	return grouped
}

// cheapestOffer picks the date's representative offer.
func cheapestOffer(offers models.Offers) models.Offer {
	best := offers[0]
	for _, offer := range offers[1:] {
		if *offer.Price < *best.Price {
			best = offer
		}
	}
	return best
}
