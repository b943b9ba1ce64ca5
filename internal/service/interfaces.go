package service

import (
	"context"
	"time"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/internal/repository/repoargs"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type OrderRepository interface {
	Create(ctx context.Context, args repoargs.CreateOrder) (*domain.Order, error)
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	FindByOrderNumber(ctx context.Context, number string) (*domain.Order, error)
	GetByBuyerID(ctx context.Context, buyerID int64) ([]domain.Order, error)
	GetBySellerID(ctx context.Context, sellerID int64) ([]domain.Order, error)
	List(ctx context.Context, args repoargs.ListOrders) ([]domain.Order, error)
	GetStats(ctx context.Context) (*repoargs.OrderStats, error)
	UpdateStatusCAS(ctx context.Context, args repoargs.StatusCAS) (bool, error)
	Delete(ctx context.Context, id int64) error
	GetDeliveredDue(ctx context.Context, now time.Time, limit int) ([]domain.Order, error)
	GetExpiredPendingPayment(ctx context.Context, cutoff time.Time, limit int) ([]domain.Order, error)
}

type StatusHistoryRepository interface {
	Append(ctx context.Context, change domain.StatusChange) (*domain.StatusChange, error)
	GetByOrderID(ctx context.Context, orderID int64) ([]domain.StatusChange, error)
}

type PaymentIntentRepository interface {
	Create(ctx context.Context, args repoargs.CreatePaymentIntent) (*domain.PaymentIntent, error)
	FindActiveByOrder(ctx context.Context, orderID int64) (*domain.PaymentIntent, error)
	FindByProviderReference(ctx context.Context, provider domain.PaymentMethod, reference string) (*domain.PaymentIntent, error)
	UpdateStatus(ctx context.Context, id int64, status domain.IntentStatus) error
	ExpireActiveByOrder(ctx context.Context, orderID int64) error
}

type FeeScheduleRepository interface {
	Insert(ctx context.Context, schedule domain.FeeSchedule) (*domain.FeeSchedule, error)
	GetCurrent(ctx context.Context) (*domain.FeeSchedule, error)
	GetByVersion(ctx context.Context, version int64) (*domain.FeeSchedule, error)
}

type WalletRepository interface {
	Create(ctx context.Context, args repoargs.CreateWalletTransaction) (*domain.WalletTransaction, error)
	GetBalance(ctx context.Context, userID int64, at time.Time) (*repoargs.WalletBalance, error)
	GetByUserID(ctx context.Context, userID int64) ([]domain.WalletTransaction, error)
	HasEntry(ctx context.Context, orderID int64, kind domain.WalletTxKind) (bool, error)
}

// RawIntent is what a provider adapter hands back before normalization.
type RawIntent struct {
	ProviderReference string
	Payload           string
}

// ProviderAdapter is the narrow contract every payment rail (pix, card,
// boleto) implements. Implementations map their wire failures onto
// domain.ErrPaymentRejected and domain.ErrProviderUnavailable; nothing
// provider-specific leaks past this interface.
type ProviderAdapter interface {
	CreateIntent(ctx context.Context, amountCents int64, orderRef string) (*RawIntent, error)
	Refund(ctx context.Context, providerReference string) error
}

// PaymentIntents is the orchestrator surface the order façade consumes.
type PaymentIntents interface {
	CreateIntent(ctx context.Context, order *domain.Order, method domain.PaymentMethod) (*domain.PaymentIntent, error)
	Refund(ctx context.Context, orderID int64) (string, error)
}

// FeeProvider serves immutable fee schedule snapshots.
type FeeProvider interface {
	Current(ctx context.Context) (*domain.FeeSchedule, error)
	ByVersion(ctx context.Context, version int64) (*domain.FeeSchedule, error)
}

// AddressBook is the external address collaborator. The engine trusts the
// returned zipcode for shipping quotes.
type AddressBook interface {
	GetAddress(ctx context.Context, addressID int64) (*domain.Address, error)
}

// ShippingQuoter serves carrier quotes. Quotes may come from a short-lived
// cache; FreshQuotes always hits the carrier API.
type ShippingQuoter interface {
	Quotes(ctx context.Context, productID int64, destinationZip string) ([]domain.ShippingQuote, error)
	FreshQuotes(ctx context.Context, productID int64, destinationZip string) ([]domain.ShippingQuote, error)
}
