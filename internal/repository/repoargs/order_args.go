package repoargs

import (
	"time"

	"github.com/brechodigital/brecho-core/internal/domain"
)

type CreateOrder struct {
	OrderNumber   string
	BuyerID       int64
	SellerID      int64
	ProductID     int64
	PaymentMethod domain.PaymentMethod
	Settlement    domain.SettlementBreakdown
}

// StatusCAS is a compare-and-set status update. The update applies only if
// the order still is in From; Applied is false otherwise.
type StatusCAS struct {
	OrderID int64
	From    domain.OrderStatus
	To      domain.OrderStatus

	// TrackingCode is set together with the shipped transition.
	TrackingCode string
	// PayoutAvailableAt is set together with the delivered transition.
	PayoutAvailableAt *time.Time
}

type ListOrders struct {
	Status  domain.OrderStatus // empty means all
	Page    int
	PerPage int
}

// OrderStats is the admin dashboard aggregate. Derived, never authoritative.
type OrderStats struct {
	CountByStatus        map[domain.OrderStatus]int64
	TotalRevenueCents    int64
	TotalCommissionCents int64
}
