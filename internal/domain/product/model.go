package product

import (
	"time"

	"github.com/creatorly/churnalytics/internal/types"
	"github.com/samber/lo"
)

// Product is the projection of a storefront product the analytics core needs.
// Everything else about a product belongs to the storefront service.
type Product struct {
	// ID is the internal numeric identifier used by the event index.
	ID int64
	// ExternalID is the stable public identifier exposed in API responses.
	ExternalID string
	// Permalink is the product's stable URL slug; output maps key on it.
	Permalink string
	// Name is the display name.
	Name string
}

// Ref is the product reference rendered in response metadata.
type Ref struct {
	ExternalID string `json:"external_id"`
	Permalink  string `json:"permalink"`
	Name       string `json:"name"`
}

func (p Product) Ref() Ref {
	return Ref{
		ExternalID: p.ExternalID,
		Permalink:  p.Permalink,
		Name:       p.Name,
	}
}

// AnalyticsScope is everything tenant-specific the churn pipeline needs:
// which products are in scope, the tenant's calendar, and the earliest date
// for which indexed events are trustworthy.
type AnalyticsScope struct {
	SellerID              string
	Timezone              string
	EarliestAnalyticsDate time.Time
	Products              []Product
}

// ProductIDs returns the internal ids of all in-scope products.
func (s *AnalyticsScope) ProductIDs() []int64 {
	return lo.Map(s.Products, func(p Product, _ int) int64 { return p.ID })
}

// Location loads the tenant's timezone.
func (s *AnalyticsScope) Location() (*time.Location, error) {
	return types.LoadTimezone(s.Timezone)
}
