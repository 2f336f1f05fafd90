package product

import "context"

// Repository provides the product scope for a seller.
type Repository interface {
	// GetAnalyticsScope returns the seller's in-scope products, timezone and
	// earliest analyzable date.
	GetAnalyticsScope(ctx context.Context, sellerID string) (*AnalyticsScope, error)
}
