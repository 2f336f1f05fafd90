package service

import (
	"context"
	"fmt"
	"time"

	"github.com/creatorly/churnalytics/internal/api/dto"
	"github.com/creatorly/churnalytics/internal/cache"
	"github.com/creatorly/churnalytics/internal/domain/churn"
	"github.com/creatorly/churnalytics/internal/domain/product"
	"github.com/creatorly/churnalytics/internal/types"
)

// ChurnAnalyticsService generates the creator-facing churn dataset.
type ChurnAnalyticsService interface {
	GenerateData(ctx context.Context, req *dto.ChurnAnalyticsRequest) (*dto.ChurnAnalyticsResponse, error)
}

type churnAnalyticsService struct {
	ServiceParams
	now func() time.Time
}

// NewChurnAnalyticsService creates a new churn analytics service
func NewChurnAnalyticsService(params ServiceParams) ChurnAnalyticsService {
	return &churnAnalyticsService{
		ServiceParams: params,
		now:           time.Now,
	}
}

// GenerateData computes churn statistics for the requested window plus the
// immediately preceding window of the same length. Historically stable
// windows are served from and written to the cache; anything touching the
// last few days is always computed fresh.
func (s *churnAnalyticsService) GenerateData(ctx context.Context, req *dto.ChurnAnalyticsRequest) (*dto.ChurnAnalyticsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sellerID := types.GetTenantID(ctx)
	scope, err := s.ProductRepo.GetAnalyticsScope(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	loc, err := scope.Location()
	if err != nil {
		return nil, err
	}

	nowT := s.now()
	window, err := types.NewDateWindow(nowT, loc, scope.EarliestAnalyticsDate, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	today := types.DateOnly(nowT, loc)
	stableBefore := today.AddDate(0, 0, -s.Config.Analytics.StableAfterDays)
	cacheable := window.End.Before(stableBefore)
	cacheKey := churnCacheKey(sellerID, window)

	if cacheable {
		if value, found := s.Cache.Get(ctx, cacheKey); found {
			if cached, ok := cache.UnmarshalCacheValue[dto.ChurnAnalyticsResponse](value); ok {
				s.Logger.Debugw("churn analytics cache hit", "seller_id", sellerID, "key", cacheKey)
				return cached, nil
			}
		}
	}

	fetcher := NewEventsFetcher(s.EventRepo, s.Logger, s.Config.Analytics.MaxBucketsPerPage)

	currentData, err := s.buildDataset(ctx, fetcher, scope, window)
	if err != nil {
		return nil, err
	}

	response := &dto.ChurnAnalyticsResponse{
		Metadata: dto.ChurnAnalyticsMetadata{
			CurrentPeriod: dto.PeriodMetadata{
				StartDate: window.StartKey(),
				EndDate:   window.EndKey(),
			},
			Products: productRefs(scope),
		},
		Data: dto.ChurnAnalyticsData{CurrentPeriod: currentData},
	}

	previous, err := s.previousWindow(nowT, loc, scope, window)
	if err != nil {
		return nil, err
	}
	if previous != nil {
		previousData, err := s.buildDataset(ctx, fetcher, scope, previous)
		if err != nil {
			return nil, err
		}
		response.Metadata.PreviousPeriod = &dto.PeriodMetadata{
			StartDate: previous.StartKey(),
			EndDate:   previous.EndKey(),
		}
		response.Data.PreviousPeriod = previousData
	}

	if cacheable {
		s.Cache.Set(ctx, cacheKey, response, cache.ExpiryNever)
	}

	return response, nil
}

func (s *churnAnalyticsService) buildDataset(ctx context.Context, fetcher *EventsFetcher, scope *product.AnalyticsScope, window *types.DateWindow) (*churn.Dataset, error) {
	churnEvents, err := fetcher.ChurnEvents(ctx, scope, window)
	if err != nil {
		return nil, err
	}
	newSubscriptions, err := fetcher.NewSubscriptions(ctx, scope, window)
	if err != nil {
		return nil, err
	}
	initialActive, err := fetcher.InitialActiveCounts(ctx, scope, window)
	if err != nil {
		return nil, err
	}

	return churn.BuildDataset(churn.Inputs{
		Products:            scope.Products,
		Window:              window,
		ChurnEvents:         churnEvents,
		NewSubscriptions:    newSubscriptions,
		InitialActiveCounts: initialActive,
	}), nil
}

// previousWindow derives the comparison window: same length, ending the day
// before the current window starts. Returns nil when it would fall entirely
// before the tenant's earliest analyzable date.
func (s *churnAnalyticsService) previousWindow(now time.Time, loc *time.Location, scope *product.AnalyticsScope, current *types.DateWindow) (*types.DateWindow, error) {
	previousEnd := current.Start.AddDate(0, 0, -1)
	previousStart := previousEnd.AddDate(0, 0, -(current.Days() - 1))

	earliest := types.DateOnly(scope.EarliestAnalyticsDate, time.UTC)
	if previousEnd.Before(earliest) {
		return nil, nil
	}

	return types.NewDateWindow(now, loc, scope.EarliestAnalyticsDate, previousStart, previousEnd)
}

func productRefs(scope *product.AnalyticsScope) []product.Ref {
	refs := make([]product.Ref, 0, len(scope.Products))
	for _, p := range scope.Products {
		refs = append(refs, p.Ref())
	}
	return refs
}

// churnCacheKey is deterministic in the tenant and the clamped window
// boundaries, so identical requests share an entry and different windows
// never collide.
func churnCacheKey(sellerID string, window *types.DateWindow) string {
	return fmt.Sprintf("analytics:churn:v1:%s:%s:%s", sellerID, window.StartKey(), window.EndKey())
}
