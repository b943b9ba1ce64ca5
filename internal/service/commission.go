package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/brechodigital/brecho-core/internal/domain"
)

// ComputeSettlement splits a sale into seller payout, platform commission,
// processor fee and buyer cashback. All inputs and outputs are integer cents.
//
// Each derived field is rounded half-up exactly once; sellerReceives is the
// exact difference gross − commission, so the seller side never leaks cents,
// and totalCharged is the exact sum gross + shipping.
//
// The commission rate is taken from the given schedule for the seller's tier
// at order-creation time; later tier changes do not touch existing orders.
func ComputeSettlement(
	grossCents int64,
	shippingCents int64,
	tier domain.SellerTier,
	method domain.PaymentMethod,
	schedule *domain.FeeSchedule,
) (*domain.SettlementBreakdown, error) {
	if schedule == nil {
		return nil, fmt.Errorf("computing settlement: %w: schedule is missing", domain.ErrInvalidRateConfig)
	}
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("computing settlement: %w", err)
	}
	if grossCents < 0 || shippingCents < 0 {
		return nil, fmt.Errorf("computing settlement: negative amount (gross=%d shipping=%d)", grossCents, shippingCents)
	}

	paymentFee, feeErr := paymentFeeCents(grossCents, method, schedule)
	if feeErr != nil {
		return nil, fmt.Errorf("computing settlement: %w", feeErr)
	}

	commission := roundShare(grossCents, schedule.CommissionRate(tier))

	return &domain.SettlementBreakdown{
		GrossCents:          grossCents,
		ShippingCents:       shippingCents,
		CommissionCents:     commission,
		PaymentFeeCents:     paymentFee,
		CashbackCents:       roundShare(grossCents, schedule.CashbackBuyerRate),
		SellerReceivesCents: grossCents - commission,
		TotalChargedCents:   grossCents + shippingCents,
		FeeScheduleVersion:  schedule.Version,
		SellerTier:          tier,
	}, nil
}

func paymentFeeCents(grossCents int64, method domain.PaymentMethod, schedule *domain.FeeSchedule) (int64, error) {
	switch method {
	case domain.PaymentMethodPix:
		return roundShare(grossCents, schedule.PixFeeRate), nil
	case domain.PaymentMethodCard:
		return roundShare(grossCents, schedule.CardFeePercent) + schedule.CardFeeFixed, nil
	case domain.PaymentMethodBoleto:
		return schedule.BoletoFeeFixed, nil
	default:
		return 0, fmt.Errorf("unsupported payment method `%s`", method)
	}
}

// roundShare applies rate to an amount of cents and rounds half-up to the
// nearest cent. Callers never re-round the result.
func roundShare(cents int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(cents).Mul(rate).Round(0).IntPart()
}
