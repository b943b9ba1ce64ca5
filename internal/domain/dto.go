package domain

import "fmt"

type OrderStatus string

const (
	OrderStatusPendingPayment  OrderStatus = "pending_payment"
	OrderStatusPaid            OrderStatus = "paid"
	OrderStatusPendingShipment OrderStatus = "pending_shipment"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCompleted       OrderStatus = "completed"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRefunded        OrderStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodPix    PaymentMethod = "pix"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodBoleto PaymentMethod = "boleto"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodPix, PaymentMethodCard, PaymentMethodBoleto:
		return true
	}
	return false
}

type SellerTier string

const (
	SellerTierFree    SellerTier = "free"
	SellerTierPremium SellerTier = "premium"
)

type IntentStatus string

const (
	IntentStatusCreated   IntentStatus = "created"
	IntentStatusConfirmed IntentStatus = "confirmed"
	IntentStatusFailed    IntentStatus = "failed"
	IntentStatusExpired   IntentStatus = "expired"
)

// Actor identifies who requested a status transition. Stored verbatim in the
// status history for the audit trail.
type Actor string

const (
	ActorBuyer  Actor = "buyer"
	ActorSeller Actor = "seller"
	ActorAdmin  Actor = "admin"
	ActorSystem Actor = "system"
)

// WebhookActor builds the actor identity for an inbound provider callback,
// e.g. "webhook:pix".
func WebhookActor(provider string) Actor {
	return Actor(fmt.Sprintf("webhook:%s", provider))
}

// DirectionType is the side of a wallet ledger entry, named from the user's
// wallet account: a debit adds funds to the balance (cashback, payouts), a
// credit takes funds out (withdrawals and their fees). Balance is the sum of
// debits minus the sum of credits; every balance query must keep this
// orientation.
type DirectionType string

const (
	DirectionDebit  DirectionType = "debit"
	DirectionCredit DirectionType = "credit"
)

// WalletTxKind classifies wallet ledger entries.
type WalletTxKind string

const (
	WalletTxCashback      WalletTxKind = "cashback"
	WalletTxPayout        WalletTxKind = "payout"
	WalletTxWithdrawal    WalletTxKind = "withdrawal"
	WalletTxWithdrawalFee WalletTxKind = "withdrawal_fee"
)
