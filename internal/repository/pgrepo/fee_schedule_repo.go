package pgrepo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/pkg/uow"
)

const feeScheduleColumns = `version, created_at, commission_free_rate, commission_premium_rate,
	pix_fee_rate, card_fee_percent, cashback_buyer_rate,
	card_fee_fixed_cents, boleto_fee_fixed_cents, withdrawal_fee_fixed_cents,
	min_withdrawal_cents, release_days`

type FeeScheduleRepository struct {
	db uow.DBTX
}

func NewFeeScheduleRepository(db uow.DBTX) *FeeScheduleRepository {
	return &FeeScheduleRepository{db: db}
}

// Insert appends a new schedule version. The table is append-only: rows are
// never updated, so settlements stay reproducible.
func (r *FeeScheduleRepository) Insert(ctx context.Context, schedule domain.FeeSchedule) (*domain.FeeSchedule, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO fee_schedules (
			commission_free_rate, commission_premium_rate, pix_fee_rate, card_fee_percent,
			cashback_buyer_rate, card_fee_fixed_cents, boleto_fee_fixed_cents,
			withdrawal_fee_fixed_cents, min_withdrawal_cents, release_days
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+feeScheduleColumns,
		schedule.CommissionFreeRate, schedule.CommissionPremiumRate, schedule.PixFeeRate,
		schedule.CardFeePercent, schedule.CashbackBuyerRate,
		schedule.CardFeeFixed, schedule.BoletoFeeFixed, schedule.WithdrawalFeeFixed,
		schedule.MinWithdrawal, schedule.ReleaseDays,
	)
	out, err := scanFeeSchedule(row)
	if err != nil {
		return nil, convertErr(err, "inserting fee schedule version")
	}
	return out, nil
}

// GetCurrent returns the latest published version.
func (r *FeeScheduleRepository) GetCurrent(ctx context.Context) (*domain.FeeSchedule, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+feeScheduleColumns+` FROM fee_schedules ORDER BY version DESC LIMIT 1`)
	out, err := scanFeeSchedule(row)
	if err != nil {
		return nil, convertErr(err, "getting current fee schedule")
	}
	return out, nil
}

func (r *FeeScheduleRepository) GetByVersion(ctx context.Context, version int64) (*domain.FeeSchedule, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+feeScheduleColumns+` FROM fee_schedules WHERE version = $1`, version)
	out, err := scanFeeSchedule(row)
	if err != nil {
		return nil, convertErr(err, "getting fee schedule version `%d`", version)
	}
	return out, nil
}

func scanFeeSchedule(row pgx.Row) (*domain.FeeSchedule, error) {
	var s domain.FeeSchedule
	err := row.Scan(
		&s.Version, &s.CreatedAt,
		&s.CommissionFreeRate, &s.CommissionPremiumRate,
		&s.PixFeeRate, &s.CardFeePercent, &s.CashbackBuyerRate,
		&s.CardFeeFixed, &s.BoletoFeeFixed, &s.WithdrawalFeeFixed,
		&s.MinWithdrawal, &s.ReleaseDays,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
