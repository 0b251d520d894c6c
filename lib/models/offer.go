package models

import "time"

// Offer is one fare instance as returned by the pricing API. It is never
// persisted; a nil Price or empty DepartureAt marks the offer as malformed
// and it gets filtered out instead of raising.
type Offer struct {
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	DepartureAt string   `json:"departure_at"`
	Price       *float64 `json:"price"`
	Airline     string   `json:"airline"`
	Transfers   int      `json:"transfers"`
	Duration    int      `json:"duration"`
	Link        string   `json:"link"`
}

type Offers []Offer

func (o Offer) DepartureTime() (time.Time, bool) {
	if o.DepartureAt == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, o.DepartureAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NotifyCandidate is the cheapest qualifying offer for one departure date.
// OldPrice carries the previously notified floor; nil means this date was
// never notified before.
type NotifyCandidate struct {
	Offer    Offer
	Date     string // YYYY-MM-DD
	OldPrice *float64
}
