package watcher

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/fiffu/farewatch/lib/models"
	"github.com/fiffu/farewatch/lib/pricing"
	"github.com/fiffu/farewatch/senders"
)

// processWatch runs one pass over a single watch inside its transaction:
// expiry check, per-month fare search, filtering, floor decisions, batched
// delivery, then an unconditional schedule bump.
func (w *Watcher) processWatch(ctx context.Context, repo Repo, watch *models.Watch, m *cycleMetrics) error {
	log := w.log.Sugar().With("watch_id", watch.ID, "route", watch.Origin+"-"+watch.Destination)

	today := dateOnly(w.now().UTC())
	if dateOnly(watch.RangeTo).Before(today) {
		log.Infow("watch date range has passed, expiring")
		w.sendExpiry(ctx, watch)
		m.expired++
		return repo.Delete(ctx, watch.ID, watch.UserID)
	}

	candidates := w.collectCandidates(ctx, watch, m)
	w.deliver(ctx, watch, candidates, m)

	return repo.BumpSchedule(ctx, watch.ID)
}

// collectCandidates walks the watch's months in order, gathering at most
// maxNotifies notify-worthy offers. A month that fails to fetch is skipped;
// hitting the cap defers the remaining dates to the next scheduled run.
func (w *Watcher) collectCandidates(ctx context.Context, watch *models.Watch, m *cycleMetrics) []models.NotifyCandidate {
	log := w.log.Sugar().With("watch_id", watch.ID)

	var candidates []models.NotifyCandidate
	months := MonthSpan(watch.RangeFrom, watch.RangeTo)

	for _, month := range months {
		offers, err := w.search.Search(ctx, pricing.Query{
			Origin:      watch.Origin,
			Destination: watch.Destination,
			Month:       month,
			Direct:      watch.Direct,
			Currency:    watch.Currency,
		})
		if err != nil {
			m.skippedMonths++
			var transient *pricing.TransientError
			if errors.As(err, &transient) {
				log.Warnw("fare API unavailable, skipping month", "month", month, "err", err)
			} else {
				log.Warnw("fare search failed, skipping month", "month", month, "err", err)
			}
			continue
		}

		grouped := FilterGroupOffers(offers, watch.MaxPrice, watch.RangeFrom, watch.RangeTo)
		for _, date := range sortedDates(grouped) {
			best := cheapestOffer(grouped[date])

			notify, oldPrice, err := w.floors.decide(ctx, watch, date, *best.Price)
			if err != nil {
				log.Warnw("price floor lookup failed, skipping date", "date", date, "err", err)
				continue
			}
			if !notify {
				m.suppressed++
				continue
			}

			candidates = append(candidates, models.NotifyCandidate{
				Offer:    best,
				Date:     date,
				OldPrice: oldPrice,
			})
			if len(candidates) >= w.maxNotifies {
				log.Infow("notification cap reached, deferring remaining dates to next run",
					"cap", w.maxNotifies)
				return candidates
			}
		}
	}

	return candidates
}

// deliver flushes candidates in batches. A failed batch is logged and does
// not block the rest; floors are committed for every attempted batch so a
// candidate is not re-notified next cycle.
func (w *Watcher) deliver(ctx context.Context, watch *models.Watch, candidates []models.NotifyCandidate, m *cycleMetrics) {
	if len(candidates) == 0 {
		w.log.Sugar().Debugw("no new fare drops", "watch_id", watch.ID)
		return
	}

	log := w.log.Sugar().With("watch_id", watch.ID)
	sender, err := w.notifySender(watch)
	if err != nil {
		log.Errorw("cannot deliver notifications", "err", err)
		return
	}

	for start := 0; start < len(candidates); start += w.batchSize {
		end := start + w.batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		if _, err := sender.SendAlerts(ctx, &watch.Notifier, watch, batch); err != nil {
			log.Errorw("failed to deliver alert batch", "batch_size", len(batch), "err", err)
		} else {
			m.notified += len(batch)
		}

		for _, cand := range batch {
			if err := w.floors.commit(ctx, watch, cand); err != nil {
				log.Warnw("failed to record price floor", "date", cand.Date, "err", err)
			}
		}
	}
}

func (w *Watcher) sendExpiry(ctx context.Context, watch *models.Watch) {
	log := w.log.Sugar().With("watch_id", watch.ID)

	sender, err := w.notifySender(watch)
	if err != nil {
		log.Errorw("cannot deliver expiry notice", "err", err)
		return
	}
	if _, err := sender.SendExpiry(ctx, &watch.Notifier, watch); err != nil {
		log.Errorw("failed to deliver expiry notice", "err", err)
	}
}

func (w *Watcher) notifySender(watch *models.Watch) (senders.Sender, error) {
	sender, ok := w.senders[watch.Notifier.Platform]
	if !ok {
		return nil, fmt.Errorf("unsupported notifier platform: %s", watch.Notifier.Platform)
	}
	return sender, nil
}

func sortedDates(grouped map[string]models.Offers) []string {
	dates := make([]string, 0, len(grouped))
	for date := range grouped {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}
