package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/creatorly/churnalytics/internal/domain/events"
	"github.com/creatorly/churnalytics/internal/domain/product"
	"github.com/creatorly/churnalytics/internal/logger"
	"github.com/creatorly/churnalytics/internal/testutil"
	"github.com/creatorly/churnalytics/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScope(timezone string, products ...product.Product) *product.AnalyticsScope {
	return &product.AnalyticsScope{
		SellerID:              "seller_1",
		Timezone:              timezone,
		EarliestAnalyticsDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Products:              products,
	}
}

func testWindow(t *testing.T, scope *product.AnalyticsScope, start, end string) *types.DateWindow {
	t.Helper()
	loc, err := scope.Location()
	require.NoError(t, err)
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	w, err := types.NewDateWindow(now, loc, scope.EarliestAnalyticsDate, start, end)
	require.NoError(t, err)
	return w
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestEventsFetcher_PaginationIsTransparent(t *testing.T) {
	store := testutil.NewInMemoryEventStore()
	alpha := product.Product{ID: 1, Permalink: "alpha", Name: "Alpha"}
	beta := product.Product{ID: 2, Permalink: "beta", Name: "Beta"}
	scope := testScope("UTC", alpha, beta)

	// 5 distinct (product, day) churn buckets so a page size of 2 needs
	// three round trips.
	for day := 1; day <= 3; day++ {
		deactivated := time.Date(2024, 5, day, 10, 0, 0, 0, time.UTC)
		store.Add(testutil.SubscriptionRecord{
			SellerID: "seller_1", ProductID: 1,
			SubscriptionID:          fmt.Sprintf("a-%d", day),
			CreatedAt:               time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			DeactivatedAt:           ptrTime(deactivated),
			OriginalRecurrenceCents: 1000,
		})
	}
	for day := 1; day <= 2; day++ {
		deactivated := time.Date(2024, 5, day, 10, 0, 0, 0, time.UTC)
		store.Add(testutil.SubscriptionRecord{
			SellerID: "seller_1", ProductID: 2,
			SubscriptionID:          fmt.Sprintf("b-%d", day),
			CreatedAt:               time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			DeactivatedAt:           ptrTime(deactivated),
			OriginalRecurrenceCents: 500,
		})
	}

	window := testWindow(t, scope, "2024-05-01", "2024-05-03")

	small := NewEventsFetcher(store, logger.GetLogger(), 2)
	paged, err := small.ChurnEvents(context.Background(), scope, window)
	require.NoError(t, err)

	large := NewEventsFetcher(store, logger.GetLogger(), 1000)
	whole, err := large.ChurnEvents(context.Background(), scope, window)
	require.NoError(t, err)

	// Page size never changes the result.
	assert.Equal(t, whole, paged)
	require.Len(t, paged, 5)
	assert.Equal(t, events.ChurnStat{ChurnedCount: 1, RevenueLostCents: 1000},
		paged[events.DayKey{ProductID: 1, Date: "2024-05-02"}])
}

func TestEventsFetcher_BucketsOnTenantLocalDay(t *testing.T) {
	store := testutil.NewInMemoryEventStore()
	alpha := product.Product{ID: 1, Permalink: "alpha", Name: "Alpha"}
	scope := testScope("America/New_York", alpha)

	// Three cancellations around DST transitions. 2024-03-10 06:30 UTC is
	// 01:30 EST (same local day); 2024-03-11 03:30 UTC is 23:30 EDT on
	// 03-10; 2024-11-04 04:30 UTC is 23:30 EST on 11-03.
	deactivations := []time.Time{
		time.Date(2024, 3, 10, 6, 30, 0, 0, time.UTC),
		time.Date(2024, 3, 11, 3, 30, 0, 0, time.UTC),
		time.Date(2024, 11, 4, 4, 30, 0, 0, time.UTC),
	}
	for i, d := range deactivations {
		store.Add(testutil.SubscriptionRecord{
			SellerID: "seller_1", ProductID: 1,
			SubscriptionID:          fmt.Sprintf("s-%d", i),
			CreatedAt:               time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			DeactivatedAt:           ptrTime(d),
			OriginalRecurrenceCents: 700,
		})
	}

	window := testWindow(t, scope, "2024-03-01", "2024-11-30")
	fetcher := NewEventsFetcher(store, logger.GetLogger(), 1000)

	result, err := fetcher.ChurnEvents(context.Background(), scope, window)
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, events.ChurnStat{ChurnedCount: 2, RevenueLostCents: 1400},
		result[events.DayKey{ProductID: 1, Date: "2024-03-10"}])
	assert.Equal(t, events.ChurnStat{ChurnedCount: 1, RevenueLostCents: 700},
		result[events.DayKey{ProductID: 1, Date: "2024-11-03"}])
}

func TestEventsFetcher_NewSubscriptionsAndInitialActives(t *testing.T) {
	store := testutil.NewInMemoryEventStore()
	alpha := product.Product{ID: 1, Permalink: "alpha", Name: "Alpha"}
	scope := testScope("UTC", alpha)

	// Active since before the window.
	store.Add(testutil.SubscriptionRecord{
		SellerID: "seller_1", ProductID: 1, SubscriptionID: "old-1",
		CreatedAt:               time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		OriginalRecurrenceCents: 1000,
	})
	// Deactivated before the window start: not initially active.
	store.Add(testutil.SubscriptionRecord{
		SellerID: "seller_1", ProductID: 1, SubscriptionID: "gone-1",
		CreatedAt:               time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		DeactivatedAt:           ptrTime(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)),
		OriginalRecurrenceCents: 1000,
	})
	// Signs up inside the window.
	store.Add(testutil.SubscriptionRecord{
		SellerID: "seller_1", ProductID: 1, SubscriptionID: "new-1",
		CreatedAt:               time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC),
		OriginalRecurrenceCents: 1500,
	})

	window := testWindow(t, scope, "2024-05-01", "2024-05-05")
	fetcher := NewEventsFetcher(store, logger.GetLogger(), 1000)

	newSubs, err := fetcher.NewSubscriptions(context.Background(), scope, window)
	require.NoError(t, err)
	assert.Equal(t, map[events.DayKey]int{
		{ProductID: 1, Date: "2024-05-02"}: 1,
	}, newSubs)

	actives, err := fetcher.InitialActiveCounts(context.Background(), scope, window)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{1: 1}, actives)
}

func TestEventsFetcher_EmptyScopeSkipsTheIndex(t *testing.T) {
	store := testutil.NewInMemoryEventStore()
	scope := testScope("UTC")
	window := testWindow(t, scope, "2024-05-01", "2024-05-05")
	fetcher := NewEventsFetcher(store, logger.GetLogger(), 1000)

	churned, err := fetcher.ChurnEvents(context.Background(), scope, window)
	require.NoError(t, err)
	assert.Empty(t, churned)

	newSubs, err := fetcher.NewSubscriptions(context.Background(), scope, window)
	require.NoError(t, err)
	assert.Empty(t, newSubs)

	actives, err := fetcher.InitialActiveCounts(context.Background(), scope, window)
	require.NoError(t, err)
	assert.Empty(t, actives)

	assert.Equal(t, 0, store.QueryCount())
}
