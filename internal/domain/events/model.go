package events

import (
	"time"

	ierr "github.com/creatorly/churnalytics/internal/errors"
)

// DayKey identifies one product's bucket for one tenant-local calendar day.
type DayKey struct {
	ProductID int64
	Date      string // YYYY-MM-DD in the tenant's timezone
}

// ChurnStat aggregates the cancellations attributed to a single day bucket.
type ChurnStat struct {
	// ChurnedCount is the number of distinct subscriptions deactivated that
	// day. Cardinality, not record count: a subscription counts once even if
	// several index records reference it.
	ChurnedCount int
	// RevenueLostCents is the summed monthly recurring revenue of those
	// subscriptions, at their original purchase price.
	RevenueLostCents int64
}

// ChurnBucket is one grouped row from the churn-events query.
type ChurnBucket struct {
	ProductID        int64
	Date             string
	ChurnedCount     int
	RevenueLostCents int64
}

// NewSubscriptionBucket is one grouped row from the new-subscriptions query.
type NewSubscriptionBucket struct {
	ProductID int64
	Date      string
	Count     int
}

// ActiveCountBucket is one grouped row from the initial-active-counts query.
type ActiveCountBucket struct {
	ProductID int64
	Count     int
}

// BucketCursor is the composite after-key for (product, day) grouped queries.
// Opaque to callers: it is returned alongside a page and passed back verbatim
// to fetch the next one.
type BucketCursor struct {
	ProductID int64
	Date      string
}

// ProductCursor is the after-key for product-grouped queries.
type ProductCursor struct {
	ProductID int64
}

// QueryParams scopes a grouped query against the event index.
type QueryParams struct {
	SellerID   string
	ProductIDs []int64

	// StartDate and EndDate are inclusive calendar dates (midnight UTC).
	StartDate time.Time
	EndDate   time.Time

	// Timezone is the IANA zone used for day bucketing. Day boundaries follow
	// the tenant's local calendar, including across DST transitions.
	Timezone string

	// StartOfWindow is the instant the window begins in the tenant's
	// timezone. Used by the initial-active-counts cutoff.
	StartOfWindow time.Time

	// MaxBuckets caps the grouped result size per page.
	MaxBuckets int
}

func (p *QueryParams) Validate() error {
	if p.SellerID == "" {
		return ierr.NewError("seller_id is required").
			WithHint("Event queries must be scoped to a seller").
			Mark(ierr.ErrValidation)
	}
	if p.Timezone == "" {
		return ierr.NewError("timezone is required").
			WithHint("Event queries must specify the tenant timezone").
			Mark(ierr.ErrValidation)
	}
	if p.MaxBuckets <= 0 {
		return ierr.NewError("max_buckets must be positive").
			WithReportableDetails(map[string]interface{}{
				"max_buckets": p.MaxBuckets,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
