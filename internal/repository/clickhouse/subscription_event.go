package clickhouse

import (
	"context"
	"time"

	"github.com/creatorly/churnalytics/internal/clickhouse"
	"github.com/creatorly/churnalytics/internal/domain/events"
	ierr "github.com/creatorly/churnalytics/internal/errors"
	"github.com/creatorly/churnalytics/internal/logger"
	"github.com/creatorly/churnalytics/internal/types"
)

// SubscriptionEventRepository reads the subscription_events index.
//
// Table layout the queries rely on:
//   - one canonical row per subscription (is_original = 1); replacement rows
//     written after a plan change carry is_original = 0 and are never read here
//   - original_recurrence_cents is denormalized at ingest from the archived
//     original purchase, so revenue lost always reflects the price the
//     subscriber actually signed up at
//   - ORDER BY (seller_id, product_id, created_at, subscription_id)
//   - PARTITION BY toYYYYMM(created_at)
type SubscriptionEventRepository struct {
	store  *clickhouse.ClickHouseStore
	logger *logger.Logger
}

func NewSubscriptionEventRepository(store *clickhouse.ClickHouseStore, logger *logger.Logger) events.Repository {
	return &SubscriptionEventRepository{store: store, logger: logger}
}

// churnEventsQuery groups cancellations by (product, local day of
// deactivation). Day bucketing happens in the tenant's timezone inside
// ClickHouse so DST transitions land events on the correct local day.
func (r *SubscriptionEventRepository) churnEventsQuery(params *events.QueryParams, after *events.BucketCursor) (string, []interface{}) {
	query := `
		SELECT
			product_id,
			toDate(deactivated_at, ?) AS day,
			uniqExact(subscription_id) AS churned_count,
			sum(original_recurrence_cents) AS revenue_lost_cents
		FROM subscription_events
		WHERE seller_id = ?
		AND product_id IN (?)
		AND is_original = 1
		AND deactivated_at IS NOT NULL
		AND toDate(deactivated_at, ?) >= toDate(?)
		AND toDate(deactivated_at, ?) <= toDate(?)
		GROUP BY product_id, day
	`
	args := []interface{}{
		params.Timezone,
		params.SellerID,
		params.ProductIDs,
		params.Timezone, params.StartDate.Format(types.DateFormat),
		params.Timezone, params.EndDate.Format(types.DateFormat),
	}

	if after != nil {
		query += " HAVING (product_id, day) > (?, toDate(?))"
		args = append(args, after.ProductID, after.Date)
	}

	query += " ORDER BY product_id, day LIMIT ?"
	args = append(args, params.MaxBuckets)

	return query, args
}

func (r *SubscriptionEventRepository) ChurnEventBuckets(ctx context.Context, params *events.QueryParams, after *events.BucketCursor) ([]events.ChurnBucket, *events.BucketCursor, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}

	span := StartRepositorySpan(ctx, "subscription_event", "churn_event_buckets", map[string]interface{}{
		"seller_id":   params.SellerID,
		"max_buckets": params.MaxBuckets,
	})
	defer FinishSpan(span)

	query, args := r.churnEventsQuery(params, after)

	rows, err := r.store.GetConn().Query(ctx, query, args...)
	if err != nil {
		SetSpanError(span, err)
		return nil, nil, ierr.WithError(err).
			WithHint("Failed to query churn events").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var buckets []events.ChurnBucket
	for rows.Next() {
		var (
			productID int64
			day       time.Time
			churned   uint64
			revenue   int64
		)
		if err := rows.Scan(&productID, &day, &churned, &revenue); err != nil {
			SetSpanError(span, err)
			return nil, nil, ierr.WithError(err).
				WithHint("Failed to scan churn event bucket").
				Mark(ierr.ErrDatabase)
		}
		buckets = append(buckets, events.ChurnBucket{
			ProductID:        productID,
			Date:             day.Format(types.DateFormat),
			ChurnedCount:     int(churned),
			RevenueLostCents: revenue,
		})
	}
	if err := rows.Err(); err != nil {
		SetSpanError(span, err)
		return nil, nil, ierr.WithError(err).
			WithHint("Failed to read churn event buckets").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return buckets, lastChurnKey(buckets), nil
}

// newSubscriptionsQuery groups subscription starts by (product, local day of
// creation).
func (r *SubscriptionEventRepository) newSubscriptionsQuery(params *events.QueryParams, after *events.BucketCursor) (string, []interface{}) {
	query := `
		SELECT
			product_id,
			toDate(created_at, ?) AS day,
			uniqExact(subscription_id) AS new_count
		FROM subscription_events
		WHERE seller_id = ?
		AND product_id IN (?)
		AND is_original = 1
		AND toDate(created_at, ?) >= toDate(?)
		AND toDate(created_at, ?) <= toDate(?)
		GROUP BY product_id, day
	`
	args := []interface{}{
		params.Timezone,
		params.SellerID,
		params.ProductIDs,
		params.Timezone, params.StartDate.Format(types.DateFormat),
		params.Timezone, params.EndDate.Format(types.DateFormat),
	}

	if after != nil {
		query += " HAVING (product_id, day) > (?, toDate(?))"
		args = append(args, after.ProductID, after.Date)
	}

	query += " ORDER BY product_id, day LIMIT ?"
	args = append(args, params.MaxBuckets)

	return query, args
}

func (r *SubscriptionEventRepository) NewSubscriptionBuckets(ctx context.Context, params *events.QueryParams, after *events.BucketCursor) ([]events.NewSubscriptionBucket, *events.BucketCursor, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}

	span := StartRepositorySpan(ctx, "subscription_event", "new_subscription_buckets", map[string]interface{}{
		"seller_id":   params.SellerID,
		"max_buckets": params.MaxBuckets,
	})
	defer FinishSpan(span)

	query, args := r.newSubscriptionsQuery(params, after)

	rows, err := r.store.GetConn().Query(ctx, query, args...)
	if err != nil {
		SetSpanError(span, err)
		return nil, nil, ierr.WithError(err).
			WithHint("Failed to query new subscriptions").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var buckets []events.NewSubscriptionBucket
	for rows.Next() {
		var (
			productID int64
			day       time.Time
			count     uint64
		)
		if err := rows.Scan(&productID, &day, &count); err != nil {
			SetSpanError(span, err)
			return nil, nil, ierr.WithError(err).
				WithHint("Failed to scan new subscription bucket").
				Mark(ierr.ErrDatabase)
		}
		buckets = append(buckets, events.NewSubscriptionBucket{
			ProductID: productID,
			Date:      day.Format(types.DateFormat),
			Count:     int(count),
		})
	}
	if err := rows.Err(); err != nil {
		SetSpanError(span, err)
		return nil, nil, ierr.WithError(err).
			WithHint("Failed to read new subscription buckets").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return buckets, lastNewSubKey(buckets), nil
}

// initialActiveCountsQuery counts, per product, subscriptions created before
// the window start instant and not deactivated before it.
func (r *SubscriptionEventRepository) initialActiveCountsQuery(params *events.QueryParams, after *events.ProductCursor) (string, []interface{}) {
	query := `
		SELECT
			product_id,
			uniqExact(subscription_id) AS active_count
		FROM subscription_events
		WHERE seller_id = ?
		AND product_id IN (?)
		AND is_original = 1
		AND created_at < ?
		AND (deactivated_at IS NULL OR deactivated_at >= ?)
		GROUP BY product_id
	`
	startOfWindow := params.StartOfWindow.UTC()
	args := []interface{}{
		params.SellerID,
		params.ProductIDs,
		startOfWindow,
		startOfWindow,
	}

	if after != nil {
		query += " HAVING product_id > ?"
		args = append(args, after.ProductID)
	}

	query += " ORDER BY product_id LIMIT ?"
	args = append(args, params.MaxBuckets)

	return query, args
}

func (r *SubscriptionEventRepository) InitialActiveCountBuckets(ctx context.Context, params *events.QueryParams, after *events.ProductCursor) ([]events.ActiveCountBucket, *events.ProductCursor, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}

	span := StartRepositorySpan(ctx, "subscription_event", "initial_active_count_buckets", map[string]interface{}{
		"seller_id":   params.SellerID,
		"max_buckets": params.MaxBuckets,
	})
	defer FinishSpan(span)

	query, args := r.initialActiveCountsQuery(params, after)

	rows, err := r.store.GetConn().Query(ctx, query, args...)
	if err != nil {
		SetSpanError(span, err)
		return nil, nil, ierr.WithError(err).
			WithHint("Failed to query initial active counts").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var buckets []events.ActiveCountBucket
	for rows.Next() {
		var (
			productID int64
			count     uint64
		)
		if err := rows.Scan(&productID, &count); err != nil {
			SetSpanError(span, err)
			return nil, nil, ierr.WithError(err).
				WithHint("Failed to scan initial active count bucket").
				Mark(ierr.ErrDatabase)
		}
		buckets = append(buckets, events.ActiveCountBucket{
			ProductID: productID,
			Count:     int(count),
		})
	}
	if err := rows.Err(); err != nil {
		SetSpanError(span, err)
		return nil, nil, ierr.WithError(err).
			WithHint("Failed to read initial active count buckets").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)

	var next *events.ProductCursor
	if len(buckets) > 0 {
		next = &events.ProductCursor{ProductID: buckets[len(buckets)-1].ProductID}
	}
	return buckets, next, nil
}

func lastChurnKey(buckets []events.ChurnBucket) *events.BucketCursor {
	if len(buckets) == 0 {
		return nil
	}
	last := buckets[len(buckets)-1]
	return &events.BucketCursor{ProductID: last.ProductID, Date: last.Date}
}

func lastNewSubKey(buckets []events.NewSubscriptionBucket) *events.BucketCursor {
	if len(buckets) == 0 {
		return nil
	}
	last := buckets[len(buckets)-1]
	return &events.BucketCursor{ProductID: last.ProductID, Date: last.Date}
}
