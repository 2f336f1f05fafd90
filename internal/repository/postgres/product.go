package postgres

import (
	"context"
	"time"

	"github.com/creatorly/churnalytics/internal/domain/product"
	ierr "github.com/creatorly/churnalytics/internal/errors"
	"github.com/creatorly/churnalytics/internal/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProductRepository serves the analytics scope from the storefront database.
type ProductRepository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

func NewProductRepository(pool *pgxpool.Pool, logger *logger.Logger) product.Repository {
	return &ProductRepository{pool: pool, logger: logger}
}

func (r *ProductRepository) GetAnalyticsScope(ctx context.Context, sellerID string) (*product.AnalyticsScope, error) {
	var (
		timezone string
		earliest time.Time
	)
	err := r.pool.QueryRow(ctx, `
		SELECT timezone, earliest_analytics_date
		FROM sellers
		WHERE id = $1
	`, sellerID).Scan(&timezone, &earliest)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ierr.NewError("seller not found").
				WithHint("Seller not found").
				WithReportableDetails(map[string]interface{}{
					"seller_id": sellerID,
				}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load seller").
			Mark(ierr.ErrDatabase)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, external_id, permalink, name
		FROM products
		WHERE seller_id = $1
		AND is_recurring_billing = true
		AND deleted_at IS NULL
		ORDER BY id
	`, sellerID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load products").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var products []product.Product
	for rows.Next() {
		var p product.Product
		if err := rows.Scan(&p.ID, &p.ExternalID, &p.Permalink, &p.Name); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to scan product").
				Mark(ierr.ErrDatabase)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read products").
			Mark(ierr.ErrDatabase)
	}

	return &product.AnalyticsScope{
		SellerID:              sellerID,
		Timezone:              timezone,
		EarliestAnalyticsDate: earliest,
		Products:              products,
	}, nil
}
