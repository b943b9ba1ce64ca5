package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSchedule() FeeSchedule {
	return FeeSchedule{
		Version:               1,
		CommissionFreeRate:    decimal.NewFromFloat(0.12),
		CommissionPremiumRate: decimal.NewFromFloat(0.07),
		PixFeeRate:            decimal.NewFromFloat(0.0099),
		CardFeePercent:        decimal.NewFromFloat(0.0499),
		CashbackBuyerRate:     decimal.NewFromFloat(0.01),
		CardFeeFixed:          49,
		BoletoFeeFixed:        349,
		WithdrawalFeeFixed:    200,
		MinWithdrawal:         2000,
		ReleaseDays:           7,
	}
}

func TestFeeScheduleValidate(t *testing.T) {
	schedule := validSchedule()
	require.NoError(t, schedule.Validate())
}

func TestFeeScheduleValidate_RateOutOfRange(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*FeeSchedule)
	}{
		{"negative rate", func(f *FeeSchedule) { f.CommissionFreeRate = decimal.NewFromFloat(-0.01) }},
		{"rate above one", func(f *FeeSchedule) { f.PixFeeRate = decimal.NewFromFloat(1.01) }},
		{"negative fixed fee", func(f *FeeSchedule) { f.BoletoFeeFixed = -1 }},
		{"negative release days", func(f *FeeSchedule) { f.ReleaseDays = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			schedule := validSchedule()
			tc.mutate(&schedule)

			err := schedule.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRateConfig))

			var rateErr *RateConfigError
			assert.True(t, errors.As(err, &rateErr))
		})
	}
}

func TestCommissionRate(t *testing.T) {
	schedule := validSchedule()
	assert.True(t, schedule.CommissionRate(SellerTierFree).Equal(schedule.CommissionFreeRate))
	assert.True(t, schedule.CommissionRate(SellerTierPremium).Equal(schedule.CommissionPremiumRate))
}

func TestPaymentIntentActive(t *testing.T) {
	assert.True(t, (&PaymentIntent{Status: IntentStatusCreated}).Active())
	assert.True(t, (&PaymentIntent{Status: IntentStatusConfirmed}).Active())
	assert.False(t, (&PaymentIntent{Status: IntentStatusFailed}).Active())
	assert.False(t, (&PaymentIntent{Status: IntentStatusExpired}).Active())
}

func TestWebhookActor(t *testing.T) {
	assert.Equal(t, Actor("webhook:pix"), WebhookActor("pix"))
}
