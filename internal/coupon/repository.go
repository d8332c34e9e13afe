package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var ErrCouponNotFound = errors.New("coupon not found")

type Repository interface {
	CreateCoupon(ctx context.Context, c *Coupon) (uuid.UUID, error)
	GetCouponsByOrderID(ctx context.Context, orderID string) ([]Coupon, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateCoupon(ctx context.Context, c *Coupon) (uuid.UUID, error) {
	finalID := c.ID
	if finalID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			log.Error().Err(genErr).Msg("repository: failed to generate coupon ID")
			return uuid.Nil, fmt.Errorf("repository: failed to generate coupon ID: %w", genErr)
		}
		finalID = genID
	}
	c.ID = finalID

	createdAt := time.Now().UTC()
	c.CreatedAt = createdAt
	c.UpdatedAt = createdAt

	query := `
		INSERT INTO coupon_service.coupons
			(id, code, discount_type, amount, usage_limit, usage_limit_per_user,
			 email_restrictions, individual_use, description, order_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.Code,
		c.DiscountType,
		c.Amount,
		c.UsageLimit,
		c.UsageLimitPerUser,
		c.EmailRestrictions,
		c.IndividualUse,
		c.Description,
		c.OrderID,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to insert coupon %s: %w", c.Code, err)
	}

	return finalID, nil
}

func (r *postgresRepository) GetCouponsByOrderID(ctx context.Context, orderID string) ([]Coupon, error) {
	query := `
		SELECT id, code, discount_type, amount, usage_limit, usage_limit_per_user,
		       email_restrictions, individual_use, description, order_id, created_at, updated_at
		FROM coupon_service.coupons
		WHERE order_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query coupons for order id %s: %w", orderID, err)
	}
	defer rows.Close()

	coupons := make([]Coupon, 0)
	for rows.Next() {
		var c Coupon
		err := rows.Scan(
			&c.ID,
			&c.Code,
			&c.DiscountType,
			&c.Amount,
			&c.UsageLimit,
			&c.UsageLimitPerUser,
			&c.EmailRestrictions,
			&c.IndividualUse,
			&c.Description,
			&c.OrderID,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan coupon for order id %s: %w", orderID, err)
		}
		coupons = append(coupons, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating coupons for order id %s: %w", orderID, err)
	}

	return coupons, nil
}

func (r *postgresRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM coupon_service.coupons WHERE code = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("repository: failed to check coupon code %s: %w", code, err)
	}

	return exists, nil
}
