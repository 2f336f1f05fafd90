package testutil

import (
	"context"

	"github.com/creatorly/churnalytics/internal/domain/product"
	ierr "github.com/creatorly/churnalytics/internal/errors"
)

// InMemoryProductStore implements product.Repository
type InMemoryProductStore struct {
	*InMemoryStore[*product.AnalyticsScope]
}

// NewInMemoryProductStore creates a new in-memory product store
func NewInMemoryProductStore() *InMemoryProductStore {
	return &InMemoryProductStore{
		InMemoryStore: NewInMemoryStore[*product.AnalyticsScope](),
	}
}

// SetScope registers the analytics scope returned for a seller.
func (s *InMemoryProductStore) SetScope(ctx context.Context, scope *product.AnalyticsScope) {
	s.Delete(ctx, scope.SellerID)
	_ = s.Create(ctx, scope.SellerID, scope)
}

func (s *InMemoryProductStore) GetAnalyticsScope(ctx context.Context, sellerID string) (*product.AnalyticsScope, error) {
	scope, err := s.Get(ctx, sellerID)
	if err != nil {
		return nil, ierr.NewError("seller not found").
			WithHint("Seller not found").
			WithReportableDetails(map[string]interface{}{
				"seller_id": sellerID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return scope, nil
}
