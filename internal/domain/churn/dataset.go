package churn

import (
	"time"

	"github.com/creatorly/churnalytics/internal/domain/events"
	"github.com/creatorly/churnalytics/internal/domain/product"
	"github.com/creatorly/churnalytics/internal/types"
	"github.com/shopspring/decimal"
)

// StatBucket is the output unit at every level of the dataset.
type StatBucket struct {
	// ChurnRate is (churned / subscriber base) * 100, rounded to 2 decimals.
	// 0.0 when the base is zero.
	ChurnRate             float64 `json:"churn_rate"`
	ChurnedCustomersCount int     `json:"churned_customers_count"`
	RevenueLostCents      int64   `json:"revenue_lost_cents"`
	// SubscriberBase is the rate denominator: active at the start of the
	// bucket plus new signups within it.
	SubscriberBase int `json:"subscriber_base"`
}

// BucketGroup holds the per-product buckets and the cross-product total for
// one time bucket. ByProduct always carries every in-scope product, keyed by
// permalink, with an all-zero bucket for products without activity.
type BucketGroup struct {
	ByProduct map[string]StatBucket `json:"by_product"`
	Total     StatBucket            `json:"total"`
}

// Dataset is one period's fully populated churn data. Daily keys are
// YYYY-MM-DD dates; monthly keys are the first of the month in the same
// format.
type Dataset struct {
	Daily   map[string]BucketGroup `json:"daily"`
	Monthly map[string]BucketGroup `json:"monthly"`
	Summary BucketGroup            `json:"summary"`
}

// Inputs are the pre-fetched event aggregates BuildDataset consumes. Products
// absent from a mapping are treated as having zero activity.
type Inputs struct {
	Products            []product.Product
	Window              *types.DateWindow
	ChurnEvents         map[events.DayKey]events.ChurnStat
	NewSubscriptions    map[events.DayKey]int
	InitialActiveCounts map[int64]int
}

// periodAccumulator collects one product's counts over a month or over the
// whole window. activeStart is snapshotted exactly once, when the period is
// first touched; everything else accumulates additively.
type periodAccumulator struct {
	activeStart int
	newSubs     int
	churned     int
	revenue     int64
}

// BuildDataset computes the daily, monthly and summary churn statistics in a
// single forward pass over the window's days.
//
// The one rule everything hangs on: rates are always computed from summed
// counts. A monthly or total rate is never an average of finer-grained rates.
func BuildDataset(in Inputs) *Dataset {
	running := make(map[int64]int, len(in.Products))
	for _, p := range in.Products {
		running[p.ID] = in.InitialActiveCounts[p.ID]
	}

	monthly := make(map[string]map[int64]*periodAccumulator, len(in.Window.MonthlyDates()))
	summary := make(map[int64]*periodAccumulator, len(in.Products))

	daily := make(map[string]BucketGroup, in.Window.Days())

	for _, day := range in.Window.DailyDates() {
		dateKey := day.Format(types.DateFormat)
		monthKey := firstOfMonthKey(day)
		if monthly[monthKey] == nil {
			monthly[monthKey] = make(map[int64]*periodAccumulator, len(in.Products))
		}

		group := BucketGroup{ByProduct: make(map[string]StatBucket, len(in.Products))}
		var totalChurned, totalBase int
		var totalRevenue int64

		for _, p := range in.Products {
			key := events.DayKey{ProductID: p.ID, Date: dateKey}
			newCount := in.NewSubscriptions[key]
			churnStat := in.ChurnEvents[key]

			// Active count before today's signups and cancellations.
			activeBase := running[p.ID]
			base := activeBase + newCount

			group.ByProduct[p.Permalink] = StatBucket{
				ChurnRate:             churnRate(churnStat.ChurnedCount, base),
				ChurnedCustomersCount: churnStat.ChurnedCount,
				RevenueLostCents:      churnStat.RevenueLostCents,
				SubscriberBase:        base,
			}

			totalChurned += churnStat.ChurnedCount
			totalBase += base
			totalRevenue += churnStat.RevenueLostCents

			// Never negative, even if churn exceeds the base.
			next := activeBase + newCount - churnStat.ChurnedCount
			if next < 0 {
				next = 0
			}
			running[p.ID] = next

			macc := touchAccumulator(monthly[monthKey], p.ID, activeBase)
			macc.newSubs += newCount
			macc.churned += churnStat.ChurnedCount
			macc.revenue += churnStat.RevenueLostCents

			sacc := touchAccumulator(summary, p.ID, activeBase)
			sacc.newSubs += newCount
			sacc.churned += churnStat.ChurnedCount
			sacc.revenue += churnStat.RevenueLostCents
		}

		group.Total = StatBucket{
			ChurnRate:             churnRate(totalChurned, totalBase),
			ChurnedCustomersCount: totalChurned,
			RevenueLostCents:      totalRevenue,
			SubscriberBase:        totalBase,
		}
		daily[dateKey] = group
	}

	monthlyGroups := make(map[string]BucketGroup, len(monthly))
	for monthKey, accs := range monthly {
		monthlyGroups[monthKey] = groupFromAccumulators(in.Products, accs)
	}

	return &Dataset{
		Daily:   daily,
		Monthly: monthlyGroups,
		Summary: groupFromAccumulators(in.Products, summary),
	}
}

// touchAccumulator returns the accumulator for productID, creating it with
// the activeStart snapshot if this is the first touch of the period.
func touchAccumulator(accs map[int64]*periodAccumulator, productID int64, activeBase int) *periodAccumulator {
	acc, ok := accs[productID]
	if !ok {
		acc = &periodAccumulator{activeStart: activeBase}
		accs[productID] = acc
	}
	return acc
}

func groupFromAccumulators(products []product.Product, accs map[int64]*periodAccumulator) BucketGroup {
	group := BucketGroup{ByProduct: make(map[string]StatBucket, len(products))}
	var totalChurned, totalBase int
	var totalRevenue int64

	for _, p := range products {
		acc := accs[p.ID]
		if acc == nil {
			acc = &periodAccumulator{}
		}
		base := acc.activeStart + acc.newSubs
		group.ByProduct[p.Permalink] = StatBucket{
			ChurnRate:             churnRate(acc.churned, base),
			ChurnedCustomersCount: acc.churned,
			RevenueLostCents:      acc.revenue,
			SubscriberBase:        base,
		}
		totalChurned += acc.churned
		totalBase += base
		totalRevenue += acc.revenue
	}

	group.Total = StatBucket{
		ChurnRate:             churnRate(totalChurned, totalBase),
		ChurnedCustomersCount: totalChurned,
		RevenueLostCents:      totalRevenue,
		SubscriberBase:        totalBase,
	}
	return group
}

// churnRate returns (churned / base) * 100 rounded to 2 decimals, or 0.0 for
// an empty base.
func churnRate(churned, base int) float64 {
	if base <= 0 {
		return 0.0
	}
	return decimal.NewFromInt(int64(churned)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(base))).
		Round(2).
		InexactFloat64()
}

func firstOfMonthKey(d time.Time) string {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).Format(types.DateFormat)
}
