package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/creatorly/churnalytics/internal/api/dto"
	"github.com/creatorly/churnalytics/internal/config"
	"github.com/creatorly/churnalytics/internal/domain/product"
	ierr "github.com/creatorly/churnalytics/internal/errors"
	"github.com/creatorly/churnalytics/internal/logger"
	"github.com/creatorly/churnalytics/internal/testutil"
	"github.com/creatorly/churnalytics/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// jsonStringCache stores marshalled JSON strings the way the Redis cache
// does, so round trips exercise the string-unmarshal path rather than
// handing pointers back.
type jsonStringCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newJSONStringCache() *jsonStringCache {
	return &jsonStringCache{entries: make(map[string]string)}
}

func (c *jsonStringCache) Get(_ context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *jsonStringCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.entries[key] = string(data)
}

func (c *jsonStringCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *jsonStringCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

type ChurnServiceSuite struct {
	suite.Suite
	eventStore   *testutil.InMemoryEventStore
	productStore *testutil.InMemoryProductStore
	cache        *jsonStringCache
	service      *churnAnalyticsService
	ctx          context.Context
}

func TestChurnServiceSuite(t *testing.T) {
	suite.Run(t, new(ChurnServiceSuite))
}

func (s *ChurnServiceSuite) SetupTest() {
	s.eventStore = testutil.NewInMemoryEventStore()
	s.productStore = testutil.NewInMemoryProductStore()
	s.cache = newJSONStringCache()
	s.ctx = types.SetTenantID(context.Background(), "seller_1")

	s.service = &churnAnalyticsService{
		ServiceParams: ServiceParams{
			Logger:      logger.GetLogger(),
			Config:      config.GetDefaultConfig(),
			Cache:       s.cache,
			ProductRepo: s.productStore,
			EventRepo:   s.eventStore,
		},
		now: func() time.Time {
			return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
		},
	}

	s.productStore.SetScope(s.ctx, &product.AnalyticsScope{
		SellerID:              "seller_1",
		Timezone:              "UTC",
		EarliestAnalyticsDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Products: []product.Product{
			{ID: 1, ExternalID: "prod_alpha", Permalink: "alpha", Name: "Alpha"},
		},
	})

	s.seedSubscriptions()
}

func (s *ChurnServiceSuite) seedSubscriptions() {
	deactivated := time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC)
	s.eventStore.Add(
		testutil.SubscriptionRecord{
			SellerID: "seller_1", ProductID: 1, SubscriptionID: "sub-1",
			CreatedAt:               time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			OriginalRecurrenceCents: 1000,
		},
		testutil.SubscriptionRecord{
			SellerID: "seller_1", ProductID: 1, SubscriptionID: "sub-2",
			CreatedAt:               time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			DeactivatedAt:           &deactivated,
			OriginalRecurrenceCents: 1500,
		},
		testutil.SubscriptionRecord{
			SellerID: "seller_1", ProductID: 1, SubscriptionID: "sub-3",
			CreatedAt:               time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC),
			OriginalRecurrenceCents: 2000,
		},
	)
}

func (s *ChurnServiceSuite) TestGenerateDataComputesBothPeriods() {
	resp, err := s.service.GenerateData(s.ctx, &dto.ChurnAnalyticsRequest{
		StartDate: "2024-05-01",
		EndDate:   "2024-05-05",
	})
	s.Require().NoError(err)

	s.Equal("2024-05-01", resp.Metadata.CurrentPeriod.StartDate)
	s.Equal("2024-05-05", resp.Metadata.CurrentPeriod.EndDate)

	s.Require().NotNil(resp.Metadata.PreviousPeriod)
	s.Equal("2024-04-26", resp.Metadata.PreviousPeriod.StartDate)
	s.Equal("2024-04-30", resp.Metadata.PreviousPeriod.EndDate)
	s.Require().NotNil(resp.Data.PreviousPeriod)

	s.Require().Len(resp.Metadata.Products, 1)
	s.Equal("alpha", resp.Metadata.Products[0].Permalink)

	// Day 3: 2 active + 1 new signup from day 2 still counted in running,
	// base = 3, one churn, revenue from the original price.
	day3 := resp.Data.CurrentPeriod.Daily["2024-05-03"].ByProduct["alpha"]
	s.Equal(3, day3.SubscriberBase)
	s.Equal(1, day3.ChurnedCustomersCount)
	s.Equal(int64(1500), day3.RevenueLostCents)
	s.InDelta(33.33, day3.ChurnRate, 0.001)
}

func (s *ChurnServiceSuite) TestHistoricalWindowIsServedFromCache() {
	req := &dto.ChurnAnalyticsRequest{StartDate: "2024-05-01", EndDate: "2024-05-05"}

	first, err := s.service.GenerateData(s.ctx, req)
	s.Require().NoError(err)
	s.Equal(1, s.cache.Len())
	queriesAfterFirst := s.eventStore.QueryCount()
	s.Greater(queriesAfterFirst, 0)

	second, err := s.service.GenerateData(s.ctx, req)
	s.Require().NoError(err)

	// Served from cache: the index was not touched again and the payload
	// is identical byte for byte.
	s.Equal(queriesAfterFirst, s.eventStore.QueryCount())

	firstJSON, err := json.Marshal(first)
	s.Require().NoError(err)
	secondJSON, err := json.Marshal(second)
	s.Require().NoError(err)
	s.JSONEq(string(firstJSON), string(secondJSON))
}

func (s *ChurnServiceSuite) TestRecentWindowsAreNeverCached() {
	// now is 2024-06-15; 2024-06-13 is exactly today-2 and still too fresh.
	for _, end := range []string{"2024-06-15", "2024-06-14", "2024-06-13"} {
		_, err := s.service.GenerateData(s.ctx, &dto.ChurnAnalyticsRequest{
			StartDate: "2024-06-01",
			EndDate:   end,
		})
		s.Require().NoError(err)
	}
	s.Equal(0, s.cache.Len())

	// One day older and the window becomes cacheable.
	_, err := s.service.GenerateData(s.ctx, &dto.ChurnAnalyticsRequest{
		StartDate: "2024-06-01",
		EndDate:   "2024-06-12",
	})
	s.Require().NoError(err)
	s.Equal(1, s.cache.Len())
}

func (s *ChurnServiceSuite) TestPreviousPeriodOmittedBeforeEarliestDate() {
	// Previous window would end 2024-12-31 of the prior year, before the
	// seller's earliest analyzable date.
	resp, err := s.service.GenerateData(s.ctx, &dto.ChurnAnalyticsRequest{
		StartDate: "2024-01-01",
		EndDate:   "2024-01-10",
	})
	s.Require().NoError(err)
	s.Nil(resp.Metadata.PreviousPeriod)
	s.Nil(resp.Data.PreviousPeriod)
}

func (s *ChurnServiceSuite) TestIndexErrorsPropagate() {
	storeErr := ierr.NewError("index unavailable").Mark(ierr.ErrDatabase)
	s.eventStore.FailWith(storeErr)

	_, err := s.service.GenerateData(s.ctx, &dto.ChurnAnalyticsRequest{
		StartDate: "2024-05-01",
		EndDate:   "2024-05-05",
	})
	s.Require().Error(err)
	s.True(ierr.IsDatabase(err))
	s.Equal(0, s.cache.Len())
}

func (s *ChurnServiceSuite) TestUnknownSellerFails() {
	ctx := types.SetTenantID(context.Background(), "seller_unknown")
	_, err := s.service.GenerateData(ctx, &dto.ChurnAnalyticsRequest{})
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}

func TestChurnAnalyticsRequest_Validate(t *testing.T) {
	require.NoError(t, (&dto.ChurnAnalyticsRequest{}).Validate())
	require.NoError(t, (&dto.ChurnAnalyticsRequest{StartDate: "2024-05-01"}).Validate())
	require.NoError(t, (&dto.ChurnAnalyticsRequest{EndDate: time.Now()}).Validate())

	err := (&dto.ChurnAnalyticsRequest{StartDate: 12345}).Validate()
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidDateRange(err))
}
