package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeSchedule is one immutable version of the platform rate table. Updating a
// setting publishes a new version; orders keep the version they were settled
// under so the split stays reproducible for audits.
type FeeSchedule struct {
	Version   int64
	CreatedAt time.Time

	// Rates are fractions of 1 (0.12 means 12%).
	CommissionFreeRate    decimal.Decimal
	CommissionPremiumRate decimal.Decimal
	PixFeeRate            decimal.Decimal
	CardFeePercent        decimal.Decimal
	CashbackBuyerRate     decimal.Decimal

	// Fixed amounts are integer cents.
	CardFeeFixed       int64
	BoletoFeeFixed     int64
	WithdrawalFeeFixed int64
	MinWithdrawal      int64

	ReleaseDays int
}

// Validate checks every rate is within [0, 1] and every fixed amount is
// non-negative. A schedule failing validation must never reach checkout.
func (f *FeeSchedule) Validate() error {
	rates := map[string]decimal.Decimal{
		"commission_free":    f.CommissionFreeRate,
		"commission_premium": f.CommissionPremiumRate,
		"pix_fee":            f.PixFeeRate,
		"card_fee_percent":   f.CardFeePercent,
		"cashback_buyer":     f.CashbackBuyerRate,
	}
	one := decimal.NewFromInt(1)
	for name, rate := range rates {
		if rate.IsNegative() || rate.GreaterThan(one) {
			return &RateConfigError{Field: name, Reason: "rate must be within [0, 1]"}
		}
	}

	fixed := map[string]int64{
		"card_fee_fixed": f.CardFeeFixed,
		"boleto_fee":     f.BoletoFeeFixed,
		"withdrawal_fee": f.WithdrawalFeeFixed,
		"min_withdrawal": f.MinWithdrawal,
	}
	for name, amount := range fixed {
		if amount < 0 {
			return &RateConfigError{Field: name, Reason: "amount must be non-negative"}
		}
	}

	if f.ReleaseDays < 0 {
		return &RateConfigError{Field: "release_days", Reason: "must be non-negative"}
	}
	return nil
}

// CommissionRate returns the commission rate for a seller tier.
func (f *FeeSchedule) CommissionRate(tier SellerTier) decimal.Decimal {
	if tier == SellerTierPremium {
		return f.CommissionPremiumRate
	}
	return f.CommissionFreeRate
}

// SettlementBreakdown is the monetary split of one order, computed once at
// checkout and frozen. All amounts are integer cents.
type SettlementBreakdown struct {
	GrossCents          int64
	ShippingCents       int64
	CommissionCents     int64
	PaymentFeeCents     int64
	CashbackCents       int64
	SellerReceivesCents int64
	TotalChargedCents   int64

	// FeeScheduleVersion and SellerTier pin the inputs the split was derived
	// from at order-creation time.
	FeeScheduleVersion int64
	SellerTier         SellerTier
}

type Order struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time

	OrderNumber string
	BuyerID     int64
	SellerID    int64
	ProductID   int64

	Status        OrderStatus
	PaymentMethod PaymentMethod
	TrackingCode  string
	Settlement    SettlementBreakdown

	DeliveredAt       *time.Time
	PayoutAvailableAt *time.Time
}

// StatusChange is one immutable entry of an order's status history.
type StatusChange struct {
	ID      int64
	OrderID int64
	From    OrderStatus
	To      OrderStatus
	Actor   Actor
	Note    string
	At      time.Time
}

// PaymentIntent is the normalized provider charge for an order. At most one
// intent per order is active (created or confirmed) at a time.
type PaymentIntent struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time

	OrderID           int64
	Provider          PaymentMethod
	ProviderReference string
	Status            IntentStatus
	// Payload carries whatever the buyer needs to pay: the QR code for pix,
	// the barcode/URL for boleto. Empty for card.
	Payload        string
	IdempotencyKey string
}

// Active reports whether the intent still counts against the one-active-intent
//-per-order rule.
func (p *PaymentIntent) Active() bool {
	return p.Status == IntentStatusCreated || p.Status == IntentStatusConfirmed
}

// ShippingQuote is an ephemeral carrier option. The chosen quote's price is
// copied into the settlement at checkout and never recomputed.
type ShippingQuote struct {
	ServiceID       string
	CarrierName     string
	PriceCents      int64
	DeliveryMinDays int
	DeliveryMaxDays int
	FetchedAt       time.Time
}

// CartItem is the slice of the product catalog checkout needs. The catalog
// itself lives outside the engine.
type CartItem struct {
	ProductID  int64
	SellerID   int64
	SellerTier SellerTier
	PriceCents int64
}

// Address as returned by the external address book. Only ownership and the
// zipcode matter to the engine.
type Address struct {
	ID      int64
	UserID  int64
	Zipcode string
}

// WalletTransaction is one wallet ledger entry. Direction follows the account
// convention documented on DirectionType: debits add funds to the user's
// balance, credits take funds out. Payout entries become spendable only at
// AvailableAt.
type WalletTransaction struct {
	ID        int64
	CreatedAt time.Time

	UserID      int64
	OrderID     int64 // zero for withdrawals
	Direction   DirectionType
	Kind        WalletTxKind
	AmountCents int64
	AvailableAt time.Time
}
