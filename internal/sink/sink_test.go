package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/staplewatch/grocery-price-tracker/internal/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) UpsertItem(ctx context.Context, item models.Item) (int64, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) InsertPrice(ctx context.Context, rec models.PriceRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

var eggs = models.CanonicalProduct{
	StableID:      "walmart_gv_eggs_12ct",
	Name:          "Great Value Large White Eggs, 12 Count",
	Brand:         "Great Value",
	ExpectedCount: 12,
	UnitSizeStd:   12,
}

func newSink(store Store) *Sink {
	s := New(store, eggs, "walmart", "https://www.walmart.com/ip/145051970")
	s.now = func() time.Time { return time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestRecordOKOutcome(t *testing.T) {
	store := &MockStore{}
	store.On("UpsertItem", mock.Anything, mock.MatchedBy(func(item models.Item) bool {
		return item.StoreItemID == "walmart_gv_eggs_12ct" && item.Brand == "Great Value"
	})).Return(int64(7), nil)

	var got models.PriceRecord
	store.On("InsertPrice", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		got = args.Get(1).(models.PriceRecord)
	}).Return(nil)

	outcome := models.ScrapeOutcome{
		Region:   "30328",
		Status:   models.StatusOK,
		Price:    3.48,
		HasPrice: true,
		Identity: models.ObservedIdentity{SizeHint: "12 Count"},
	}

	require.NoError(t, newSink(store).Record(context.Background(), outcome))

	assert.Equal(t, int64(7), got.ItemID)
	assert.Equal(t, "walmart", got.Store)
	assert.Equal(t, "30328", got.Zip)
	assert.Equal(t, 3.48, got.Price)
	assert.Equal(t, float64(12), got.UnitSizeObserved)
	assert.Equal(t, models.StatusOK, got.Status)
	store.AssertExpectations(t)
}

func TestRecordAbsentPriceStoredAsZero(t *testing.T) {
	store := &MockStore{}
	store.On("UpsertItem", mock.Anything, mock.Anything).Return(int64(7), nil)

	var got models.PriceRecord
	store.On("InsertPrice", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		got = args.Get(1).(models.PriceRecord)
	}).Return(nil)

	outcome := models.ScrapeOutcome{Region: "10001", Status: models.StatusCaptcha}
	require.NoError(t, newSink(store).Record(context.Background(), outcome))

	assert.Equal(t, float64(0), got.Price)
	assert.Equal(t, models.StatusCaptcha, got.Status)
	assert.Equal(t, eggs.UnitSizeStd, got.UnitSizeObserved,
		"unit size falls back to the canonical declared size")
}

func TestRecordAllKeepsGoingPastFailures(t *testing.T) {
	store := &MockStore{}
	store.On("UpsertItem", mock.Anything, mock.Anything).Return(int64(7), nil)

	insertErr := errors.New("db down")
	store.On("InsertPrice", mock.Anything, mock.MatchedBy(func(rec models.PriceRecord) bool {
		return rec.Zip == "30328"
	})).Return(insertErr)
	store.On("InsertPrice", mock.Anything, mock.MatchedBy(func(rec models.PriceRecord) bool {
		return rec.Zip == "10001"
	})).Return(nil)

	outcomes := []models.ScrapeOutcome{
		{Region: "30328", Status: models.StatusOK, Price: 3.48, HasPrice: true},
		{Region: "10001", Status: models.StatusMissing},
	}

	err := newSink(store).RecordAll(context.Background(), outcomes)
	assert.ErrorIs(t, err, insertErr)
	store.AssertNumberOfCalls(t, "InsertPrice", 2)
}
