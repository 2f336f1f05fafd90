package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/creatorly/churnalytics/internal/domain/events"
	"github.com/creatorly/churnalytics/internal/types"
	"github.com/samber/lo"
)

// SubscriptionRecord is one canonical subscription row in the fake index.
// OriginalRecurrenceCents mirrors the denormalized original-purchase price:
// plan changes after signup must not alter it.
type SubscriptionRecord struct {
	SellerID                string
	ProductID               int64
	SubscriptionID          string
	CreatedAt               time.Time
	DeactivatedAt           *time.Time
	OriginalRecurrenceCents int64
}

// InMemoryEventStore implements events.Repository with the same grouping,
// timezone bucketing and keyset-pagination semantics as the real index.
type InMemoryEventStore struct {
	mu      sync.RWMutex
	records []SubscriptionRecord
	queries int

	// failWith, when set, is returned by every query. Used to exercise
	// fail-fast propagation.
	failWith error
}

// NewInMemoryEventStore creates a new in-memory event store
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{}
}

// Add inserts subscription records into the fake index.
func (s *InMemoryEventStore) Add(records ...SubscriptionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
}

// QueryCount returns how many queries have been issued against the store.
func (s *InMemoryEventStore) QueryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queries
}

// FailWith makes every subsequent query return err. Pass nil to reset.
func (s *InMemoryEventStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

func (s *InMemoryEventStore) scoped(params *events.QueryParams) ([]SubscriptionRecord, *time.Location, error) {
	loc, err := types.LoadTimezone(params.Timezone)
	if err != nil {
		return nil, nil, err
	}

	inScope := lo.Filter(s.records, func(r SubscriptionRecord, _ int) bool {
		return r.SellerID == params.SellerID && lo.Contains(params.ProductIDs, r.ProductID)
	})
	return inScope, loc, nil
}

func withinWindow(day string, params *events.QueryParams) bool {
	return day >= params.StartDate.Format(types.DateFormat) &&
		day <= params.EndDate.Format(types.DateFormat)
}

func (s *InMemoryEventStore) ChurnEventBuckets(_ context.Context, params *events.QueryParams, after *events.BucketCursor) ([]events.ChurnBucket, *events.BucketCursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries++
	if s.failWith != nil {
		return nil, nil, s.failWith
	}
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}

	records, loc, err := s.scoped(params)
	if err != nil {
		return nil, nil, err
	}

	type group struct {
		subscriptions map[string]struct{}
		revenue       int64
	}
	groups := make(map[events.DayKey]*group)
	for _, r := range records {
		if r.DeactivatedAt == nil {
			continue
		}
		day := r.DeactivatedAt.In(loc).Format(types.DateFormat)
		if !withinWindow(day, params) {
			continue
		}
		key := events.DayKey{ProductID: r.ProductID, Date: day}
		g := groups[key]
		if g == nil {
			g = &group{subscriptions: make(map[string]struct{})}
			groups[key] = g
		}
		// Distinct subscriptions; revenue only counted on first sight.
		if _, seen := g.subscriptions[r.SubscriptionID]; !seen {
			g.subscriptions[r.SubscriptionID] = struct{}{}
			g.revenue += r.OriginalRecurrenceCents
		}
	}

	buckets := make([]events.ChurnBucket, 0, len(groups))
	for key, g := range groups {
		buckets = append(buckets, events.ChurnBucket{
			ProductID:        key.ProductID,
			Date:             key.Date,
			ChurnedCount:     len(g.subscriptions),
			RevenueLostCents: g.revenue,
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].ProductID != buckets[j].ProductID {
			return buckets[i].ProductID < buckets[j].ProductID
		}
		return buckets[i].Date < buckets[j].Date
	})

	buckets = lo.Filter(buckets, func(b events.ChurnBucket, _ int) bool {
		return after == nil || bucketKeyGreater(b.ProductID, b.Date, after)
	})
	if len(buckets) > params.MaxBuckets {
		buckets = buckets[:params.MaxBuckets]
	}
	if len(buckets) == 0 {
		return buckets, nil, nil
	}
	last := buckets[len(buckets)-1]
	return buckets, &events.BucketCursor{ProductID: last.ProductID, Date: last.Date}, nil
}

func (s *InMemoryEventStore) NewSubscriptionBuckets(_ context.Context, params *events.QueryParams, after *events.BucketCursor) ([]events.NewSubscriptionBucket, *events.BucketCursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries++
	if s.failWith != nil {
		return nil, nil, s.failWith
	}
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}

	records, loc, err := s.scoped(params)
	if err != nil {
		return nil, nil, err
	}

	groups := make(map[events.DayKey]map[string]struct{})
	for _, r := range records {
		day := r.CreatedAt.In(loc).Format(types.DateFormat)
		if !withinWindow(day, params) {
			continue
		}
		key := events.DayKey{ProductID: r.ProductID, Date: day}
		if groups[key] == nil {
			groups[key] = make(map[string]struct{})
		}
		groups[key][r.SubscriptionID] = struct{}{}
	}

	buckets := make([]events.NewSubscriptionBucket, 0, len(groups))
	for key, subs := range groups {
		buckets = append(buckets, events.NewSubscriptionBucket{
			ProductID: key.ProductID,
			Date:      key.Date,
			Count:     len(subs),
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].ProductID != buckets[j].ProductID {
			return buckets[i].ProductID < buckets[j].ProductID
		}
		return buckets[i].Date < buckets[j].Date
	})

	buckets = lo.Filter(buckets, func(b events.NewSubscriptionBucket, _ int) bool {
		return after == nil || bucketKeyGreater(b.ProductID, b.Date, after)
	})
	if len(buckets) > params.MaxBuckets {
		buckets = buckets[:params.MaxBuckets]
	}
	if len(buckets) == 0 {
		return buckets, nil, nil
	}
	last := buckets[len(buckets)-1]
	return buckets, &events.BucketCursor{ProductID: last.ProductID, Date: last.Date}, nil
}

func (s *InMemoryEventStore) InitialActiveCountBuckets(_ context.Context, params *events.QueryParams, after *events.ProductCursor) ([]events.ActiveCountBucket, *events.ProductCursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries++
	if s.failWith != nil {
		return nil, nil, s.failWith
	}
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}

	records, _, err := s.scoped(params)
	if err != nil {
		return nil, nil, err
	}

	groups := make(map[int64]map[string]struct{})
	for _, r := range records {
		if !r.CreatedAt.Before(params.StartOfWindow) {
			continue
		}
		if r.DeactivatedAt != nil && r.DeactivatedAt.Before(params.StartOfWindow) {
			continue
		}
		if groups[r.ProductID] == nil {
			groups[r.ProductID] = make(map[string]struct{})
		}
		groups[r.ProductID][r.SubscriptionID] = struct{}{}
	}

	buckets := make([]events.ActiveCountBucket, 0, len(groups))
	for productID, subs := range groups {
		buckets = append(buckets, events.ActiveCountBucket{ProductID: productID, Count: len(subs)})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].ProductID < buckets[j].ProductID
	})

	buckets = lo.Filter(buckets, func(b events.ActiveCountBucket, _ int) bool {
		return after == nil || b.ProductID > after.ProductID
	})
	if len(buckets) > params.MaxBuckets {
		buckets = buckets[:params.MaxBuckets]
	}
	if len(buckets) == 0 {
		return buckets, nil, nil
	}
	return buckets, &events.ProductCursor{ProductID: buckets[len(buckets)-1].ProductID}, nil
}

func bucketKeyGreater(productID int64, date string, after *events.BucketCursor) bool {
	if productID != after.ProductID {
		return productID > after.ProductID
	}
	return date > after.Date
}
