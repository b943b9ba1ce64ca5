package repoargs

import (
	"time"

	"github.com/brechodigital/brecho-core/internal/domain"
)

type CreateWalletTransaction struct {
	UserID      int64
	OrderID     int64
	Direction   domain.DirectionType
	Kind        domain.WalletTxKind
	AmountCents int64
	AvailableAt time.Time
}

// WalletBalance aggregates a user's ledger. AvailableCents excludes payout
// debits still inside their release hold.
type WalletBalance struct {
	AvailableCents int64
	PendingCents   int64
	WithdrawnCents int64
}
