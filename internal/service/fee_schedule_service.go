package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/atomic"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/internal/repository/repoargs"
	"github.com/brechodigital/brecho-core/pkg/uow"
)

var ErrUnknownSetting = errors.New("unknown setting key")

// FeeScheduleService serves immutable fee schedule versions. Writes publish a
// new version; in-flight checkouts keep the snapshot they started with, so no
// locking is needed on the read path.
type FeeScheduleService struct {
	repo    FeeScheduleRepository
	current atomic.Pointer[domain.FeeSchedule]
}

func NewFeeScheduleService(u uow.UOW) (*FeeScheduleService, error) {
	repo, err := uow.GetRepositoryAs[FeeScheduleRepository](u, uow.RepositoryName(repoargs.FeeScheduleRepoName))
	if err != nil {
		return nil, err
	}
	return &FeeScheduleService{repo: repo}, nil
}

// Current returns the latest published schedule. The cached snapshot is
// refreshed only when a write goes through this process; the schedule table
// is append-only so a stale snapshot is still a valid version.
func (s *FeeScheduleService) Current(ctx context.Context) (*domain.FeeSchedule, error) {
	if cached := s.current.Load(); cached != nil {
		return cached, nil
	}

	schedule, err := s.repo.GetCurrent(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting current fee schedule: %w", err)
	}
	if validateErr := schedule.Validate(); validateErr != nil {
		return nil, fmt.Errorf("getting current fee schedule: %w", validateErr)
	}
	s.current.Store(schedule)
	return schedule, nil
}

// ByVersion returns the schedule an existing order was settled under.
func (s *FeeScheduleService) ByVersion(ctx context.Context, version int64) (*domain.FeeSchedule, error) {
	if cached := s.current.Load(); cached != nil && cached.Version == version {
		return cached, nil
	}
	schedule, err := s.repo.GetByVersion(ctx, version)
	if err != nil {
		return nil, fmt.Errorf("getting fee schedule version %d: %w", version, err)
	}
	return schedule, nil
}

// UpdateSetting publishes a new schedule version with a single key changed,
// matching the admin settings screen which writes one field at a time. The
// value is parsed according to the key: rates as decimal fractions, fixed
// fees as integer cents, release_days as an integer.
func (s *FeeScheduleService) UpdateSetting(ctx context.Context, key, value string) (*domain.FeeSchedule, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	next := *current
	if applyErr := applySetting(&next, key, value); applyErr != nil {
		return nil, fmt.Errorf("updating setting `%s`: %w", key, applyErr)
	}
	if validateErr := next.Validate(); validateErr != nil {
		return nil, fmt.Errorf("updating setting `%s`: %w", key, validateErr)
	}

	published, insertErr := s.repo.Insert(ctx, next)
	if insertErr != nil {
		return nil, fmt.Errorf("publishing fee schedule: %w", insertErr)
	}
	s.current.Store(published)
	return published, nil
}

func applySetting(schedule *domain.FeeSchedule, key, value string) error {
	switch key {
	case "commission_free", "commission_premium", "pix_fee", "card_fee_percent", "cashback_buyer":
		rate, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("parsing rate: %s", err.Error())
		}
		switch key {
		case "commission_free":
			schedule.CommissionFreeRate = rate
		case "commission_premium":
			schedule.CommissionPremiumRate = rate
		case "pix_fee":
			schedule.PixFeeRate = rate
		case "card_fee_percent":
			schedule.CardFeePercent = rate
		case "cashback_buyer":
			schedule.CashbackBuyerRate = rate
		}
	case "card_fee_fixed", "boleto_fee", "withdrawal_fee", "min_withdrawal", "release_days":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing integer: %s", err.Error())
		}
		switch key {
		case "card_fee_fixed":
			schedule.CardFeeFixed = n
		case "boleto_fee":
			schedule.BoletoFeeFixed = n
		case "withdrawal_fee":
			schedule.WithdrawalFeeFixed = n
		case "min_withdrawal":
			schedule.MinWithdrawal = n
		case "release_days":
			schedule.ReleaseDays = int(n)
		}
	default:
		return ErrUnknownSetting
	}
	return nil
}
