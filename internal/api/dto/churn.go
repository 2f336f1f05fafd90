package dto

import (
	"time"

	"github.com/creatorly/churnalytics/internal/domain/churn"
	"github.com/creatorly/churnalytics/internal/domain/product"
	ierr "github.com/creatorly/churnalytics/internal/errors"
)

// ChurnAnalyticsRequest asks for churn data over a date range. StartDate and
// EndDate each accept nil, a time.Time, or a YYYY-MM-DD string; anything else
// is rejected. Nil falls back to the trailing 30 days.
type ChurnAnalyticsRequest struct {
	StartDate interface{} `json:"start_date,omitempty"`
	EndDate   interface{} `json:"end_date,omitempty"`
}

// Validate rejects unsupported date input types early. Parsing and clamping
// happen during window construction.
func (r *ChurnAnalyticsRequest) Validate() error {
	for _, raw := range []interface{}{r.StartDate, r.EndDate} {
		switch raw.(type) {
		case nil, string, time.Time:
		default:
			return ierr.NewErrorf("unsupported date input of type %T", raw).
				WithHint("Date must be a date, a timestamp, or a YYYY-MM-DD string").
				WithReportableDetails(map[string]interface{}{
					"value": raw,
				}).
				Mark(ierr.ErrInvalidDateRange)
		}
	}
	return nil
}

// PeriodMetadata identifies one analyzed period by its clamped boundaries.
type PeriodMetadata struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ChurnAnalyticsMetadata describes both periods and the product scope.
type ChurnAnalyticsMetadata struct {
	CurrentPeriod PeriodMetadata `json:"current_period"`
	// PreviousPeriod is null when the comparison window would fall entirely
	// before the tenant's earliest analyzable date.
	PreviousPeriod *PeriodMetadata `json:"previous_period"`
	Products       []product.Ref   `json:"products"`
}

// ChurnAnalyticsData carries the datasets for both periods.
type ChurnAnalyticsData struct {
	CurrentPeriod  *churn.Dataset `json:"current_period"`
	PreviousPeriod *churn.Dataset `json:"previous_period"`
}

// ChurnAnalyticsResponse is the full generate-data payload. It is also the
// exact structure cached for historically stable windows.
type ChurnAnalyticsResponse struct {
	Metadata ChurnAnalyticsMetadata `json:"metadata"`
	Data     ChurnAnalyticsData     `json:"data"`
}
