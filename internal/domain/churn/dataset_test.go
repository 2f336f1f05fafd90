package churn

import (
	"testing"
	"time"

	"github.com/creatorly/churnalytics/internal/domain/events"
	"github.com/creatorly/churnalytics/internal/domain/product"
	"github.com/creatorly/churnalytics/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWindow(t *testing.T, start, end string) *types.DateWindow {
	t.Helper()
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	earliest := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	w, err := types.NewDateWindow(now, time.UTC, earliest, start, end)
	require.NoError(t, err)
	return w
}

func TestBuildDataset_DailyRatesAndRunningActives(t *testing.T) {
	alpha := product.Product{ID: 1, Permalink: "alpha", Name: "Alpha"}
	window := mustWindow(t, "2024-05-01", "2024-05-02")

	ds := BuildDataset(Inputs{
		Products: []product.Product{alpha},
		Window:   window,
		ChurnEvents: map[events.DayKey]events.ChurnStat{
			{ProductID: 1, Date: "2024-05-01"}: {ChurnedCount: 2, RevenueLostCents: 2000},
			{ProductID: 1, Date: "2024-05-02"}: {ChurnedCount: 1, RevenueLostCents: 900},
		},
		NewSubscriptions: map[events.DayKey]int{
			{ProductID: 1, Date: "2024-05-01"}: 5,
			{ProductID: 1, Date: "2024-05-02"}: 3,
		},
		InitialActiveCounts: map[int64]int{1: 10},
	})

	// Day 1: base 10+5=15, churned 2 -> 13.33. Running drops to 13.
	day1 := ds.Daily["2024-05-01"].ByProduct["alpha"]
	assert.Equal(t, 15, day1.SubscriberBase)
	assert.Equal(t, 2, day1.ChurnedCustomersCount)
	assert.Equal(t, int64(2000), day1.RevenueLostCents)
	assert.InDelta(t, 13.33, day1.ChurnRate, 0.001)

	// Day 2: base 13+3=16, churned 1 -> 6.25.
	day2 := ds.Daily["2024-05-02"].ByProduct["alpha"]
	assert.Equal(t, 16, day2.SubscriberBase)
	assert.InDelta(t, 6.25, day2.ChurnRate, 0.001)
}

func TestBuildDataset_MonthlyRateIsNotAnAverageOfDailyRates(t *testing.T) {
	alpha := product.Product{ID: 1, Permalink: "alpha", Name: "Alpha"}
	window := mustWindow(t, "2024-05-01", "2024-05-02")

	ds := BuildDataset(Inputs{
		Products: []product.Product{alpha},
		Window:   window,
		ChurnEvents: map[events.DayKey]events.ChurnStat{
			{ProductID: 1, Date: "2024-05-01"}: {ChurnedCount: 2, RevenueLostCents: 2000},
			{ProductID: 1, Date: "2024-05-02"}: {ChurnedCount: 1, RevenueLostCents: 900},
		},
		NewSubscriptions: map[events.DayKey]int{
			{ProductID: 1, Date: "2024-05-01"}: 5,
			{ProductID: 1, Date: "2024-05-02"}: 3,
		},
		InitialActiveCounts: map[int64]int{1: 10},
	})

	// Month base = 10 active at month start + 8 new = 18; churned = 3.
	// 3/18 = 16.67, not the 9.79 an average of 13.33 and 6.25 would give.
	month := ds.Monthly["2024-05-01"].ByProduct["alpha"]
	assert.Equal(t, 18, month.SubscriberBase)
	assert.Equal(t, 3, month.ChurnedCustomersCount)
	assert.Equal(t, int64(2900), month.RevenueLostCents)
	assert.InDelta(t, 16.67, month.ChurnRate, 0.001)

	// Summary matches the single month here.
	assert.Equal(t, month, ds.Summary.ByProduct["alpha"])
}

func TestBuildDataset_RunningActiveNeverGoesNegative(t *testing.T) {
	alpha := product.Product{ID: 1, Permalink: "alpha", Name: "Alpha"}
	window := mustWindow(t, "2024-05-01", "2024-05-03")

	ds := BuildDataset(Inputs{
		Products: []product.Product{alpha},
		Window:   window,
		ChurnEvents: map[events.DayKey]events.ChurnStat{
			// Day 1 churns more than the recorded base.
			{ProductID: 1, Date: "2024-05-01"}: {ChurnedCount: 5, RevenueLostCents: 5000},
			{ProductID: 1, Date: "2024-05-03"}: {ChurnedCount: 1, RevenueLostCents: 100},
		},
		NewSubscriptions: map[events.DayKey]int{
			{ProductID: 1, Date: "2024-05-02"}: 4,
		},
		InitialActiveCounts: map[int64]int{1: 2},
	})

	// Day 1: base 2, churned 5. Running floors at 0 instead of -3.
	assert.Equal(t, 2, ds.Daily["2024-05-01"].ByProduct["alpha"].SubscriberBase)

	// Day 2: running 0 + 4 new.
	assert.Equal(t, 4, ds.Daily["2024-05-02"].ByProduct["alpha"].SubscriberBase)

	// Day 3: running carried as 4, not 1.
	assert.Equal(t, 4, ds.Daily["2024-05-03"].ByProduct["alpha"].SubscriberBase)
}

func TestBuildDataset_ZeroBaseMeansZeroRate(t *testing.T) {
	alpha := product.Product{ID: 1, Permalink: "alpha", Name: "Alpha"}
	window := mustWindow(t, "2024-05-01", "2024-05-01")

	ds := BuildDataset(Inputs{
		Products: []product.Product{alpha},
		Window:   window,
		ChurnEvents: map[events.DayKey]events.ChurnStat{
			{ProductID: 1, Date: "2024-05-01"}: {ChurnedCount: 3, RevenueLostCents: 300},
		},
	})

	bucket := ds.Daily["2024-05-01"].ByProduct["alpha"]
	assert.Equal(t, 0, bucket.SubscriberBase)
	assert.Equal(t, 3, bucket.ChurnedCustomersCount)
	assert.Equal(t, 0.0, bucket.ChurnRate)
	assert.Equal(t, 0.0, ds.Summary.Total.ChurnRate)
}

func TestBuildDataset_EveryProductAppearsAtEveryLevel(t *testing.T) {
	alpha := product.Product{ID: 1, Permalink: "alpha", Name: "Alpha"}
	beta := product.Product{ID: 2, Permalink: "beta", Name: "Beta"}
	window := mustWindow(t, "2024-05-01", "2024-05-02")

	ds := BuildDataset(Inputs{
		Products: []product.Product{alpha, beta},
		Window:   window,
		ChurnEvents: map[events.DayKey]events.ChurnStat{
			{ProductID: 1, Date: "2024-05-01"}: {ChurnedCount: 1, RevenueLostCents: 100},
		},
		InitialActiveCounts: map[int64]int{1: 4},
	})

	// Beta had no events at all but still gets explicit zero buckets.
	for _, dateKey := range []string{"2024-05-01", "2024-05-02"} {
		group, ok := ds.Daily[dateKey]
		require.True(t, ok)
		betaBucket, ok := group.ByProduct["beta"]
		require.True(t, ok)
		assert.Equal(t, StatBucket{}, betaBucket)
	}
	assert.Equal(t, StatBucket{}, ds.Monthly["2024-05-01"].ByProduct["beta"])
	assert.Equal(t, StatBucket{}, ds.Summary.ByProduct["beta"])

	require.Len(t, ds.Daily, window.Days())
	require.Len(t, ds.Monthly, 1)
}

func TestBuildDataset_TotalsSumAcrossProducts(t *testing.T) {
	alpha := product.Product{ID: 1, Permalink: "alpha", Name: "Alpha"}
	beta := product.Product{ID: 2, Permalink: "beta", Name: "Beta"}
	window := mustWindow(t, "2024-05-01", "2024-05-01")

	ds := BuildDataset(Inputs{
		Products: []product.Product{alpha, beta},
		Window:   window,
		ChurnEvents: map[events.DayKey]events.ChurnStat{
			{ProductID: 1, Date: "2024-05-01"}: {ChurnedCount: 3, RevenueLostCents: 3000},
			{ProductID: 2, Date: "2024-05-01"}: {ChurnedCount: 2, RevenueLostCents: 500},
		},
		NewSubscriptions: map[events.DayKey]int{
			{ProductID: 1, Date: "2024-05-01"}: 2,
			{ProductID: 2, Date: "2024-05-01"}: 1,
		},
		InitialActiveCounts: map[int64]int{1: 16, 2: 3},
	})

	// Total base = (16+2) + (3+1) = 22, churned = 5 -> 22.73.
	total := ds.Daily["2024-05-01"].Total
	assert.Equal(t, 22, total.SubscriberBase)
	assert.Equal(t, 5, total.ChurnedCustomersCount)
	assert.Equal(t, int64(3500), total.RevenueLostCents)
	assert.InDelta(t, 22.73, total.ChurnRate, 0.001)

	// Alpha alone: 3/18 = 16.67.
	assert.InDelta(t, 16.67, ds.Summary.ByProduct["alpha"].ChurnRate, 0.001)
}

func TestBuildDataset_MonthBoundarySnapshotsActiveStartPerMonth(t *testing.T) {
	alpha := product.Product{ID: 1, Permalink: "alpha", Name: "Alpha"}
	window := mustWindow(t, "2024-04-29", "2024-05-02")

	ds := BuildDataset(Inputs{
		Products: []product.Product{alpha},
		Window:   window,
		ChurnEvents: map[events.DayKey]events.ChurnStat{
			{ProductID: 1, Date: "2024-04-30"}: {ChurnedCount: 2, RevenueLostCents: 200},
			{ProductID: 1, Date: "2024-05-01"}: {ChurnedCount: 1, RevenueLostCents: 100},
		},
		NewSubscriptions: map[events.DayKey]int{
			{ProductID: 1, Date: "2024-04-29"}: 3,
			{ProductID: 1, Date: "2024-05-02"}: 2,
		},
		InitialActiveCounts: map[int64]int{1: 10},
	})

	require.Len(t, ds.Monthly, 2)

	// April: started with 10 active, 3 new, 2 churned.
	april := ds.Monthly["2024-04-01"].ByProduct["alpha"]
	assert.Equal(t, 13, april.SubscriberBase)
	assert.Equal(t, 2, april.ChurnedCustomersCount)

	// May starts from the running count after April: 10+3-2 = 11.
	may := ds.Monthly["2024-05-01"].ByProduct["alpha"]
	assert.Equal(t, 13, may.SubscriberBase) // 11 active + 2 new
	assert.Equal(t, 1, may.ChurnedCustomersCount)

	// Summary spans the whole window from the original snapshot.
	assert.Equal(t, 15, ds.Summary.ByProduct["alpha"].SubscriberBase) // 10 + 5 new
	assert.Equal(t, 3, ds.Summary.ByProduct["alpha"].ChurnedCustomersCount)
}
