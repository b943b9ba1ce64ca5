package pgrepo

import (
	"context"
	"time"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/internal/repository/repoargs"
	"github.com/brechodigital/brecho-core/pkg/uow"
)

type WalletRepository struct {
	db uow.DBTX
}

func NewWalletRepository(db uow.DBTX) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) Create(ctx context.Context, args repoargs.CreateWalletTransaction) (*domain.WalletTransaction, error) {
	availableAt := args.AvailableAt
	if availableAt.IsZero() {
		availableAt = time.Now()
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO wallet_transactions (user_id, order_id, direction, kind, amount_cents, available_at)
		VALUES ($1, NULLIF($2, 0), $3, $4, $5, $6)
		RETURNING id, created_at, user_id, COALESCE(order_id, 0), direction, kind, amount_cents, available_at`,
		args.UserID, args.OrderID, args.Direction, args.Kind, args.AmountCents, availableAt,
	)

	var tx domain.WalletTransaction
	if err := row.Scan(&tx.ID, &tx.CreatedAt, &tx.UserID, &tx.OrderID,
		&tx.Direction, &tx.Kind, &tx.AmountCents, &tx.AvailableAt); err != nil {
		return nil, convertErr(err, "creating wallet transaction for user `%d`", args.UserID)
	}
	return &tx, nil
}

// GetBalance aggregates a user's ledger at the given instant. Debits not yet
// past their available_at count as pending, not available.
func (r *WalletRepository) GetBalance(ctx context.Context, userID int64, at time.Time) (*repoargs.WalletBalance, error) {
	row := r.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN direction = 'debit' AND available_at <= $2 THEN amount_cents ELSE 0 END), 0)
				- COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN direction = 'debit' AND available_at > $2 THEN amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN direction = 'credit' AND kind = 'withdrawal' THEN amount_cents ELSE 0 END), 0)
		FROM wallet_transactions WHERE user_id = $1`,
		userID, at,
	)

	var balance repoargs.WalletBalance
	if err := row.Scan(&balance.AvailableCents, &balance.PendingCents, &balance.WithdrawnCents); err != nil {
		return nil, convertErr(err, "aggregating wallet balance for user `%d`", userID)
	}
	return &balance, nil
}

func (r *WalletRepository) GetByUserID(ctx context.Context, userID int64) ([]domain.WalletTransaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, created_at, user_id, COALESCE(order_id, 0), direction, kind, amount_cents, available_at
		FROM wallet_transactions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, convertErr(err, "getting wallet transactions for user `%d`", userID)
	}
	defer rows.Close()

	var txs []domain.WalletTransaction
	for rows.Next() {
		var tx domain.WalletTransaction
		if scanErr := rows.Scan(&tx.ID, &tx.CreatedAt, &tx.UserID, &tx.OrderID,
			&tx.Direction, &tx.Kind, &tx.AmountCents, &tx.AvailableAt); scanErr != nil {
			return nil, convertErr(scanErr, "getting wallet transactions for user `%d`", userID)
		}
		txs = append(txs, tx)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting wallet transactions for user `%d`", userID)
	}
	return txs, nil
}

// HasEntry reports whether the order already produced a ledger entry of the
// given kind. Guards double accrual when a webhook retries.
func (r *WalletRepository) HasEntry(ctx context.Context, orderID int64, kind domain.WalletTxKind) (bool, error) {
	row := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM wallet_transactions WHERE order_id = $1 AND kind = $2)`,
		orderID, kind)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, convertErr(err, "checking wallet entry for order `%d`", orderID)
	}
	return exists, nil
}
