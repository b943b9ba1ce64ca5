package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/internal/repository/repoargs"
	"github.com/brechodigital/brecho-core/internal/service"
)

type OrderServicer interface {
	Checkout(ctx context.Context, args service.CheckoutArgs) (*service.CheckoutResult, error)
	RetryPayment(
		ctx context.Context,
		buyerID int64,
		orderID int64,
		method domain.PaymentMethod,
	) (*domain.PaymentIntent, error)
	ApplyStatusUpdate(
		ctx context.Context,
		orderID int64,
		target domain.OrderStatus,
		actor domain.Actor,
		extra service.StatusUpdateExtra,
	) (*domain.Order, error)
	HandlePaymentEvent(
		ctx context.Context,
		provider domain.PaymentMethod,
		reference string,
		succeeded bool,
	) (*domain.Order, error)
	GetByID(ctx context.Context, orderID int64) (*domain.Order, error)
	GetByBuyerID(ctx context.Context, buyerID int64) ([]domain.Order, error)
	GetBySellerID(ctx context.Context, sellerID int64) ([]domain.Order, error)
	List(ctx context.Context, args repoargs.ListOrders) ([]domain.Order, error)
	GetStats(ctx context.Context) (*repoargs.OrderStats, error)
	AllowedActions(ctx context.Context, orderID int64) ([]domain.OrderStatus, error)
	GetHistory(ctx context.Context, orderID int64) ([]domain.StatusChange, error)
}

type WalletServicer interface {
	GetBalance(ctx context.Context, userID int64) (*repoargs.WalletBalance, error)
	GetTransactions(ctx context.Context, userID int64) ([]domain.WalletTransaction, error)
	Withdraw(ctx context.Context, userID, amountCents int64) (*domain.WalletTransaction, error)
}

type SettingsServicer interface {
	Current(ctx context.Context) (*domain.FeeSchedule, error)
	UpdateSetting(ctx context.Context, key, value string) (*domain.FeeSchedule, error)
}

type ShippingServicer interface {
	Quotes(ctx context.Context, productID int64, destinationZip string) ([]domain.ShippingQuote, error)
}
