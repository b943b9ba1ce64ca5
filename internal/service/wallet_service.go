package service

import (
	"context"
	"fmt"
	"time"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/internal/repository/repoargs"
	"github.com/brechodigital/brecho-core/pkg/uow"
)

// WalletService reads the wallet ledger and executes withdrawals. Ledger
// writes tied to the order lifecycle (cashback, payouts) happen inside
// OrderService transitions, not here.
type WalletService struct {
	uow        uow.UOW
	walletRepo WalletRepository
	fees       FeeProvider
}

func NewWalletService(u uow.UOW, fees FeeProvider) (*WalletService, error) {
	walletRepo, err := uow.GetRepositoryAs[WalletRepository](u, uow.RepositoryName(repoargs.WalletRepoName))
	if err != nil {
		return nil, err
	}
	return &WalletService{
		uow:        u,
		walletRepo: walletRepo,
		fees:       fees,
	}, nil
}

func (w *WalletService) GetBalance(ctx context.Context, userID int64) (*repoargs.WalletBalance, error) {
	balance, err := w.walletRepo.GetBalance(ctx, userID, time.Now())
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return balance, nil
}

func (w *WalletService) GetTransactions(ctx context.Context, userID int64) ([]domain.WalletTransaction, error) {
	txs, err := w.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return txs, nil
}

// Withdraw debits amountCents plus the fixed withdrawal fee from the user's
// available balance. ErrBelowMinWithdrawal and ErrNotEnoughBalance are
// user-correctable; nothing is written when either fires.
func (w *WalletService) Withdraw(ctx context.Context, userID, amountCents int64) (*domain.WalletTransaction, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("withdraw: non-positive amount %d", amountCents)
	}

	schedule, feesErr := w.fees.Current(ctx)
	if feesErr != nil {
		return nil, fmt.Errorf("withdraw: %w", feesErr)
	}
	if amountCents < schedule.MinWithdrawal {
		return nil, domain.ErrBelowMinWithdrawal
	}

	balance, balanceErr := w.walletRepo.GetBalance(ctx, userID, time.Now())
	if balanceErr != nil {
		return nil, fmt.Errorf("withdraw: %w", balanceErr)
	}
	if balance.AvailableCents < amountCents+schedule.WithdrawalFeeFixed {
		return nil, domain.ErrNotEnoughBalance
	}

	var withdrawal *domain.WalletTransaction
	txErr := w.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		repo, repoErr := uow.GetAs[WalletRepository](tx, uow.RepositoryName(repoargs.WalletRepoName))
		if repoErr != nil {
			return repoErr
		}

		created, createErr := repo.Create(c, repoargs.CreateWalletTransaction{
			UserID:      userID,
			Direction:   domain.DirectionCredit,
			Kind:        domain.WalletTxWithdrawal,
			AmountCents: amountCents,
		})
		if createErr != nil {
			return createErr
		}
		withdrawal = created

		if schedule.WithdrawalFeeFixed > 0 {
			if _, feeErr := repo.Create(c, repoargs.CreateWalletTransaction{
				UserID:      userID,
				Direction:   domain.DirectionCredit,
				Kind:        domain.WalletTxWithdrawalFee,
				AmountCents: schedule.WithdrawalFeeFixed,
			}); feeErr != nil {
				return feeErr
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, fmt.Errorf("withdraw: %w", txErr)
	}
	return withdrawal, nil
}
