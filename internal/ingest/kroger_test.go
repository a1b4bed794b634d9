package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/staplewatch/grocery-price-tracker/internal/catalog"
	"github.com/staplewatch/grocery-price-tracker/internal/jsonwalk"
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

const weeklyAd = `{
	"modules": [
		{"cards": [
			{"headline": "Weekly Savings"},
			{"title": "Large Grade A Eggs, 12 count", "price": "$2.49 each"},
			{"title": "Whole Milk, 1 gallon", "pricing": {"sale": 3.19}}
		]}
	]
}`

func TestRunMatchesCatalogEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(weeklyAd))
	}))
	defer server.Close()

	store := &MockStore{}
	store.On("UpsertItem", mock.Anything, mock.Anything).Return(int64(1), nil)

	var recs []models.PriceRecord
	store.On("InsertPrice", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		recs = append(recs, args.Get(1).(models.PriceRecord))
	}).Return(nil)

	entries := []catalog.Entry{
		{Name: "Large White Eggs", MatchAny: []string{"eggs"}, MustHave: []string{"12"}, UnitSizeStd: 12},
		{Name: "Whole Milk", MatchAny: []string{"milk"}, UnitSizeStd: 1},
		{Name: "Bacon", MatchAny: []string{"bacon"}},
	}

	ingester := New(store, "kroger_ad")
	res, err := ingester.Run(context.Background(), server.URL, "30328", entries)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Saved)
	assert.Equal(t, []string{"Bacon"}, res.Misses)

	require.Len(t, recs, 2)
	assert.Equal(t, 2.49, recs[0].Price)
	assert.Equal(t, "30328", recs[0].Zip)
	assert.Equal(t, models.StatusOK, recs[0].Status)
	assert.Equal(t, 3.19, recs[1].Price)
}

func TestRunFeedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	ingester := New(&MockStore{}, "kroger_ad")
	_, err := ingester.Run(context.Background(), server.URL, "30328", nil)
	assert.ErrorContains(t, err, "status 403")
}

func TestFindPriceSkipsNodesWithoutPrice(t *testing.T) {
	var feed any
	require.NoError(t, json.Unmarshal([]byte(`{
		"items": [
			{"name": "eggs 12 count"},
			{"name": "eggs 12 count large", "salePrice": "2.99"}
		]
	}`), &feed))

	entry := catalog.Entry{MatchAny: []string{"eggs"}}
	price, ok := findPrice(jsonwalk.Flatten(feed), entry)
	require.True(t, ok)
	assert.Equal(t, 2.99, price)
}
