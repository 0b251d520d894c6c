package watcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fiffu/farewatch/lib/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeKV struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (kv *fakeKV) Get(ctx context.Context, key string) (string, bool, error) {
	if kv.getErr != nil {
		return "", false, kv.getErr
	}
	value, ok := kv.data[key]
	return value, ok, nil
}

func (kv *fakeKV) Set(ctx context.Context, key, value string) error {
	kv.data[key] = value
	return nil
}

func (kv *fakeKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	kv.ttls[key] = ttl
	return nil
}

func watchFixture(id uint, direct bool) *models.Watch {
	return &models.Watch{
		Model:       gorm.Model{ID: id},
		UserID:      77,
		Origin:      "IST",
		Destination: "LED",
		RangeFrom:   day(2025, time.October, 15),
		RangeTo:     day(2025, time.December, 20),
		Direct:      direct,
		Currency:    "RUB",
		Notifier:    models.Notifier{Platform: "telegram", PlatformIdentifier: "123456"},
	}
}

func TestFloorKeyEncodesDirectness(t *testing.T) {
	assert.Equal(t,
		"watch:9:minprice:IST_LED_2025-11-03_direct",
		floorKey(watchFixture(9, true), "2025-11-03"))
	assert.Equal(t,
		"watch:9:minprice:IST_LED_2025-11-03_transfer",
		floorKey(watchFixture(9, false), "2025-11-03"))
}

func TestDecideFirstSightingAlwaysNotifies(t *testing.T) {
	kv := newFakeKV()
	floors := &priceFloors{kv: kv, log: zap.NewNop()}
	watch := watchFixture(1, false)

	notify, old, err := floors.decide(context.Background(), watch, "2025-11-03", 123456)

	require.NoError(t, err)
	assert.True(t, notify)
	assert.Nil(t, old)
}

func TestDecideAgainstStoredFloor(t *testing.T) {
	tests := []struct {
		name       string
		floor      string
		price      float64
		wantNotify bool
	}{
		{"one percent drop is suppressed", "1000", 990, false},
		{"exactly two percent notifies", "1000", 980, true},
		{"three percent drop notifies", "1000", 970, true},
		{"equal price is suppressed", "1000", 1000, false},
		{"price rise is suppressed", "1000", 1100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := newFakeKV()
			floors := &priceFloors{kv: kv, log: zap.NewNop()}
			watch := watchFixture(1, false)
			kv.data[floorKey(watch, "2025-11-03")] = tt.floor

			notify, old, err := floors.decide(context.Background(), watch, "2025-11-03", tt.price)

			require.NoError(t, err)
			assert.Equal(t, tt.wantNotify, notify)
			require.NotNil(t, old)
			assert.Equal(t, 1000.0, *old)

			// Suppression leaves the record untouched.
			assert.Equal(t, tt.floor, kv.data[floorKey(watch, "2025-11-03")])
		})
	}
}

func TestDecidePropagatesStoreErrors(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection refused")
	floors := &priceFloors{kv: kv, log: zap.NewNop()}

	_, _, err := floors.decide(context.Background(), watchFixture(1, false), "2025-11-03", 100)
	assert.Error(t, err)
}

func TestCommitStoresFloorWithRetention(t *testing.T) {
	kv := newFakeKV()
	floors := &priceFloors{kv: kv, log: zap.NewNop()}
	watch := watchFixture(1, false)

	cand := models.NotifyCandidate{Offer: offerAt("2025-11-03T09:25:00+03:00", 970), Date: "2025-11-03"}
	require.NoError(t, floors.commit(context.Background(), watch, cand))

	key := floorKey(watch, "2025-11-03")
	assert.Equal(t, "970", kv.data[key])
	assert.Equal(t, 90*24*time.Hour, kv.ttls[key])
}
