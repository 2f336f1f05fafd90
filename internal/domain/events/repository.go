package events

import "context"

// Repository is the query surface of the external subscription event index.
//
// All three reads are grouped aggregations with a page cap (params.MaxBuckets)
// and keyset continuation: each call returns one page of buckets in group-key
// order plus the cursor to resume after. A page shorter than MaxBuckets is the
// last one. Callers own the pagination loop; see service.EventsFetcher.
type Repository interface {
	// ChurnEventBuckets returns cancellations grouped by (product, local day
	// of deactivation), restricted to canonical subscription lifecycle
	// records whose deactivation falls inside [StartDate, EndDate].
	ChurnEventBuckets(ctx context.Context, params *QueryParams, after *BucketCursor) ([]ChurnBucket, *BucketCursor, error)

	// NewSubscriptionBuckets returns subscription starts grouped by
	// (product, local day of creation) within the window.
	NewSubscriptionBuckets(ctx context.Context, params *QueryParams, after *BucketCursor) ([]NewSubscriptionBucket, *BucketCursor, error)

	// InitialActiveCountBuckets returns, per product, the distinct
	// subscriptions created before the window start that were still active
	// at that instant (no deactivation, or deactivated on or after it).
	InitialActiveCountBuckets(ctx context.Context, params *QueryParams, after *ProductCursor) ([]ActiveCountBucket, *ProductCursor, error)
}
