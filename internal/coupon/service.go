package coupon

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/order"
)

var (
	ErrOrderNotFound = order.ErrOrderNotFound
	// ErrAlreadyIssued is returned when the order already carries generated
	// codes. Payment webhooks get retried, so a second delivery must not mint
	// a fresh coupon set and overwrite the first one.
	ErrAlreadyIssued = errors.New("coupon codes already issued for order")
)

// maxGenerateAttempts bounds the retry loop on code collision. The code space
// is 36^6, so a second attempt is already rare.
const maxGenerateAttempts = 3

type Service interface {
	// IssueForOrder creates one coupon per virtual-coupon line item of the
	// order and stores the generated codes in the order metadata. Returns the
	// generated codes in line-item order.
	IssueForOrder(ctx context.Context, orderID string) ([]string, error)
}

type service struct {
	repo       Repository
	orders     order.Service
	generate   func() (string, error)
	productSKU string
	amount     float64
}

func NewService(repo Repository, orders order.Service, generate func() (string, error), productSKU string, amount float64) Service {
	return &service{
		repo:       repo,
		orders:     orders,
		generate:   generate,
		productSKU: productSKU,
		amount:     amount,
	}
}

func (s *service) IssueForOrder(ctx context.Context, orderID string) ([]string, error) {
	ord, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			log.Warn().Str("order_id", orderID).Msg("service: order not found, no coupons issued")
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Str("order_id", orderID).Msg("service: failed to resolve order")
		return nil, fmt.Errorf("service: failed to resolve order: %w", err)
	}

	if existing := ord.CouponCodes(); len(existing) > 0 {
		log.Info().Str("order_id", orderID).Int("codes", len(existing)).Msg("service: coupons already issued, skipping generation")
		return existing, ErrAlreadyIssued
	}

	var codes []string
	for _, item := range ord.Items {
		if item.Product == nil {
			continue
		}
		if item.Product.SKU != s.productSKU {
			continue
		}

		code, err := s.generateUnique(ctx)
		if err != nil {
			return nil, err
		}

		c := &Coupon{
			Code:              code,
			DiscountType:      DiscountTypeFixedCart,
			Amount:            s.amount,
			UsageLimit:        1,
			UsageLimitPerUser: 1,
			EmailRestrictions: []string{},
			IndividualUse:     true,
			Description:       fmt.Sprintf("Order #%s", ord.ID),
			OrderID:           ord.ID,
		}
		if _, err := s.repo.CreateCoupon(ctx, c); err != nil {
			log.Error().Err(err).Str("order_id", ord.ID).Msg("service: failed to create coupon")
			return nil, fmt.Errorf("service: failed to create coupon for order %s: %w", ord.ID, err)
		}

		codes = append(codes, code)
	}

	if len(codes) == 0 {
		return nil, nil
	}

	if err := s.orders.SetMetadata(ctx, ord.ID, order.MetadataCouponCodes, codes); err != nil {
		// Coupon rows are already committed at this point. The codes are
		// recoverable from the coupons table by order id, so surface the
		// error instead of deleting anything.
		log.Error().Err(err).Str("order_id", ord.ID).Msg("service: coupons created but metadata write failed")
		return nil, fmt.Errorf("service: failed to store coupon codes on order %s: %w", ord.ID, err)
	}

	log.Info().Str("order_id", ord.ID).Int("codes", len(codes)).Msg("service: coupons issued")

	return codes, nil
}

func (s *service) generateUnique(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := s.generate()
		if err != nil {
			return "", fmt.Errorf("service: failed to generate coupon code: %w", err)
		}

		exists, err := s.repo.ExistsByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("service: failed to check coupon code uniqueness: %w", err)
		}
		if !exists {
			return code, nil
		}

		log.Warn().Str("code", code).Msg("service: coupon code collision, regenerating")
	}

	return "", fmt.Errorf("service: failed to generate a unique coupon code after %d attempts", maxGenerateAttempts)
}
