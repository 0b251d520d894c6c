package watcher

import (
	"context"
	"time"

	"github.com/fiffu/farewatch/lib/models"
	"github.com/fiffu/farewatch/lib/pricing"
	"github.com/fiffu/farewatch/senders"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Repo is the slice of watch persistence the scheduler needs. Implemented by
// lib.Repo; tests substitute an in-memory fake.
type Repo interface {
	FetchDue(ctx context.Context, limit int) (models.Watches, error)
	BumpSchedule(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint, userID uint) error
	Transact(ctx context.Context, fn func(tx Repo) error) error
}

// KV is the key-value store holding price floors.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Searcher fetches fare offers for one route and month.
type Searcher interface {
	Search(ctx context.Context, q pricing.Query) (models.Offers, error)
}

func NewWatcher(lc fx.Lifecycle, log *zap.Logger, repo Repo, kv KV, client *pricing.Client, reg senders.Registry) *Watcher {
	cycleInterval := 5 * time.Minute // sleep between due-watch sweeps
	duePageSize := 200               // watches picked up per cycle
	maxNotifies := 10                // notify candidates collected per watch pass
	batchSize := 5                   // candidates delivered per outbound message
	watchTimeout := 5 * time.Minute  // budget for one watch pass

	w := &Watcher{
		log:     log,
		repo:    repo,
		floors:  &priceFloors{kv: kv, log: log},
		search:  client,
		senders: reg,

		cycleInterval: cycleInterval,
		duePageSize:   duePageSize,
		maxNotifies:   maxNotifies,
		batchSize:     batchSize,
		watchTimeout:  watchTimeout,

		now:   time.Now,
		stopC: make(chan struct{}),
		done:  make(chan struct{}),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go w.Run()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Sugar().Info("Trying to stop watcher")
			w.Stop()
			return nil
		},
	})

	return w
}

type Watcher struct {
	log     *zap.Logger
	repo    Repo
	floors  *priceFloors
	search  Searcher
	senders senders.Registry

	cycleInterval time.Duration
	duePageSize   int
	maxNotifies   int
	batchSize     int
	watchTimeout  time.Duration

	now   func() time.Time
	stopC chan struct{}
	done  chan struct{}
}

// Run loops until Stop. A cycle failure is logged and the loop sleeps and
// carries on; the scheduler never exits on its own.
func (w *Watcher) Run() {
	defer close(w.done)

	for {
		w.runCycle()

		select {
		case <-w.stopC:
			w.log.Sugar().Info("Watcher stopped")
			return
		case <-time.After(w.cycleInterval):
		}
	}
}

// Stop finishes the in-flight watch pass, then shuts the loop down.
func (w *Watcher) Stop() {
	close(w.stopC)
	<-w.done
}

func (w *Watcher) stopping() bool {
	select {
	case <-w.stopC:
		return true
	default:
		return false
	}
}

func (w *Watcher) runCycle() {
	log := w.log.Sugar().With("cycle_id", uuid.NewString()[:8])

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("recovered panic in watcher cycle", "panic", r)
		}
	}()

	started := w.now().UTC()
	ctx := context.Background()

	due, err := w.repo.FetchDue(ctx, w.duePageSize)
	if err != nil {
		log.Errorw("failed to fetch due watches", "err", err)
		return
	}
	if len(due) == 0 {
		log.Debug("no watches due")
		return
	}
	log.Infof("Found %d due watches", len(due))

	m := &cycleMetrics{totalSelected: len(due)}
	for i := range due {
		if w.stopping() {
			log.Info("shutdown requested, deferring remaining watches")
			break
		}

		watch := due[i]
		watchCtx, cancel := context.WithTimeout(ctx, w.watchTimeout)
		err := w.repo.Transact(watchCtx, func(tx Repo) error {
			return w.processWatch(watchCtx, tx, &watch, m)
		})
		cancel()
		if err != nil {
			m.errored++
			log.Errorw("watch pass failed", "watch_id", watch.ID, "err", err)
		}
	}

	elapsed := w.now().UTC().Sub(started)
	log.Infow("Cycle completed", m.fields("elapsed_msecs", int(elapsed.Milliseconds()))...)
}
