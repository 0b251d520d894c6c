package watcher

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fiffu/farewatch/lib/models"
	"go.uber.org/zap"
)

const (
	// dropThreshold is the minimum relative price drop worth alerting on.
	dropThreshold = 0.02
	// floorTTL outlives any watch's date range while still bounding the store.
	floorTTL = 90 * 24 * time.Hour
)

// priceFloors records, per watch/route/date/directness, the lowest price
// already notified. Absence of a record means the first qualifying offer is
// always notification-worthy.
type priceFloors struct {
	kv  KV
	log *zap.Logger
}

func floorKey(watch *models.Watch, date string) string {
	directness := "transfer"
	if watch.Direct {
		directness = "direct"
	}
	return fmt.Sprintf("watch:%d:minprice:%s_%s_%s_%s",
		watch.ID, watch.Origin, watch.Destination, date, directness)
}

// decide reports whether price is new information for this date. It returns
// the stored floor when one exists, so the alert can show the saving.
func (p *priceFloors) decide(ctx context.Context, watch *models.Watch, date string, price float64) (bool, *float64, error) {
	stored, ok, err := p.kv.Get(ctx, floorKey(watch, date))
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return true, nil, nil
	}

	old, err := strconv.ParseFloat(stored, 64)
	if err != nil {
		p.log.Sugar().Warnw("unparseable price floor record, overwriting",
			"watch_id", watch.ID, "date", date, "value", stored)
		return true, nil, nil
	}

	if price >= old {
		p.log.Sugar().Debugw("price did not drop, suppressing",
			"watch_id", watch.ID, "date", date, "price", price, "floor", old)
		return false, &old, nil
	}
	if (old-price)/old < dropThreshold {
		p.log.Sugar().Debugw("price drop below threshold, suppressing",
			"watch_id", watch.ID, "date", date, "price", price, "floor", old)
		return false, &old, nil
	}
	return true, &old, nil
}

// commit overwrites the floor with the candidate price and refreshes its
// expiry. Called only after the candidate's batch delivery was attempted.
func (p *priceFloors) commit(ctx context.Context, watch *models.Watch, cand models.NotifyCandidate) error {
	key := floorKey(watch, cand.Date)
	value := strconv.FormatFloat(*cand.Offer.Price, 'f', -1, 64)

	if err := p.kv.Set(ctx, key, value); err != nil {
		return err
	}
	return p.kv.Expire(ctx, key, floorTTL)
}
