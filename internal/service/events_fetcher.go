package service

import (
	"context"

	"github.com/creatorly/churnalytics/internal/domain/events"
	"github.com/creatorly/churnalytics/internal/domain/product"
	"github.com/creatorly/churnalytics/internal/logger"
	"github.com/creatorly/churnalytics/internal/types"
)

// EventsFetcher reads the three churn-analytics aggregates from the event
// index, paging through grouped results until exhaustion. Errors from the
// index propagate unchanged; there are no retries at this boundary.
type EventsFetcher struct {
	repo     events.Repository
	logger   *logger.Logger
	pageSize int
}

func NewEventsFetcher(repo events.Repository, logger *logger.Logger, pageSize int) *EventsFetcher {
	return &EventsFetcher{
		repo:     repo,
		logger:   logger,
		pageSize: pageSize,
	}
}

func (f *EventsFetcher) queryParams(scope *product.AnalyticsScope, window *types.DateWindow) *events.QueryParams {
	return &events.QueryParams{
		SellerID:      scope.SellerID,
		ProductIDs:    scope.ProductIDs(),
		StartDate:     window.Start,
		EndDate:       window.End,
		Timezone:      types.ResolveTimezone(scope.Timezone),
		StartOfWindow: window.StartOfWindow(),
		MaxBuckets:    f.pageSize,
	}
}

// ChurnEvents returns cancellations keyed by (product, local day).
func (f *EventsFetcher) ChurnEvents(ctx context.Context, scope *product.AnalyticsScope, window *types.DateWindow) (map[events.DayKey]events.ChurnStat, error) {
	result := make(map[events.DayKey]events.ChurnStat)
	if len(scope.Products) == 0 {
		return result, nil
	}

	params := f.queryParams(scope, window)
	var after *events.BucketCursor
	for {
		page, next, err := f.repo.ChurnEventBuckets(ctx, params, after)
		if err != nil {
			return nil, err
		}
		for _, b := range page {
			result[events.DayKey{ProductID: b.ProductID, Date: b.Date}] = events.ChurnStat{
				ChurnedCount:     b.ChurnedCount,
				RevenueLostCents: b.RevenueLostCents,
			}
		}
		// A short page is the last one.
		if len(page) < params.MaxBuckets || next == nil {
			break
		}
		after = next
	}

	f.logger.Debugw("fetched churn events",
		"seller_id", scope.SellerID,
		"buckets", len(result),
	)
	return result, nil
}

// NewSubscriptions returns signup counts keyed by (product, local day).
func (f *EventsFetcher) NewSubscriptions(ctx context.Context, scope *product.AnalyticsScope, window *types.DateWindow) (map[events.DayKey]int, error) {
	result := make(map[events.DayKey]int)
	if len(scope.Products) == 0 {
		return result, nil
	}

	params := f.queryParams(scope, window)
	var after *events.BucketCursor
	for {
		page, next, err := f.repo.NewSubscriptionBuckets(ctx, params, after)
		if err != nil {
			return nil, err
		}
		for _, b := range page {
			result[events.DayKey{ProductID: b.ProductID, Date: b.Date}] = b.Count
		}
		if len(page) < params.MaxBuckets || next == nil {
			break
		}
		after = next
	}

	f.logger.Debugw("fetched new subscriptions",
		"seller_id", scope.SellerID,
		"buckets", len(result),
	)
	return result, nil
}

// InitialActiveCounts returns per-product counts of subscriptions active
// immediately before the window start.
func (f *EventsFetcher) InitialActiveCounts(ctx context.Context, scope *product.AnalyticsScope, window *types.DateWindow) (map[int64]int, error) {
	result := make(map[int64]int)
	if len(scope.Products) == 0 {
		return result, nil
	}

	params := f.queryParams(scope, window)
	var after *events.ProductCursor
	for {
		page, next, err := f.repo.InitialActiveCountBuckets(ctx, params, after)
		if err != nil {
			return nil, err
		}
		for _, b := range page {
			result[b.ProductID] = b.Count
		}
		if len(page) < params.MaxBuckets || next == nil {
			break
		}
		after = next
	}

	f.logger.Debugw("fetched initial active counts",
		"seller_id", scope.SellerID,
		"products", len(result),
	)
	return result, nil
}
