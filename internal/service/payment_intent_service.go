package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/internal/repository/repoargs"
	"github.com/brechodigital/brecho-core/pkg/uow"
)

const defaultProviderTimeout = 10 * time.Second

// PaymentIntentService dispatches intent creation to the adapter matching the
// chosen payment method and normalizes the result. Creation is idempotent per
// (order, method): a retried call returns the stored intent instead of
// charging twice.
type PaymentIntentService struct {
	intentRepo PaymentIntentRepository
	adapters   map[domain.PaymentMethod]ProviderAdapter
	timeout    time.Duration
}

func NewPaymentIntentService(
	u uow.UOW,
	adapters map[domain.PaymentMethod]ProviderAdapter,
	timeout time.Duration,
) (*PaymentIntentService, error) {
	intentRepo, err := uow.GetRepositoryAs[PaymentIntentRepository](u, uow.RepositoryName(repoargs.PaymentIntentRepoName))
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &PaymentIntentService{
		intentRepo: intentRepo,
		adapters:   adapters,
		timeout:    timeout,
	}, nil
}

// CreateIntent returns the order's payment intent, creating one with the
// provider when needed.
//
//   - An active intent for the same method is returned as-is (mobile clients
//     retry on timeout; the provider must not be charged twice).
//   - A confirmed intent is returned regardless of the requested method: the
//     money already moved, switching rails is no longer possible.
//   - An active intent for a different method is expired before the new one
//     is created, keeping one active intent per order.
func (s *PaymentIntentService) CreateIntent(
	ctx context.Context,
	order *domain.Order,
	method domain.PaymentMethod,
) (*domain.PaymentIntent, error) {
	adapter, ok := s.adapters[method]
	if !ok {
		return nil, fmt.Errorf("creating intent: unsupported payment method `%s`", method)
	}

	existing, findErr := s.intentRepo.FindActiveByOrder(ctx, order.ID)
	if findErr != nil && !stderrors.Is(findErr, domain.ErrRecordNotFound) {
		return nil, fmt.Errorf("creating intent: %w", findErr)
	}
	if existing != nil {
		if existing.Status == domain.IntentStatusConfirmed || existing.Provider == method {
			return existing, nil
		}
		if expireErr := s.intentRepo.ExpireActiveByOrder(ctx, order.ID); expireErr != nil {
			return nil, fmt.Errorf("creating intent: %w", expireErr)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, callErr := adapter.CreateIntent(callCtx, order.Settlement.TotalChargedCents, order.OrderNumber)
	if callErr != nil {
		return nil, classifyProviderErr(callErr, "creating intent for order %s", order.OrderNumber)
	}

	intent, createErr := s.intentRepo.Create(ctx, repoargs.CreatePaymentIntent{
		OrderID:           order.ID,
		Provider:          method,
		ProviderReference: raw.ProviderReference,
		Status:            domain.IntentStatusCreated,
		Payload:           raw.Payload,
		IdempotencyKey:    uuid.NewString(),
	})
	if createErr != nil {
		if stderrors.Is(createErr, domain.ErrDuplicateKey) {
			// A concurrent request inserted its intent between our read and
			// this write; the partial unique index on active intents picked
			// the winner. Serve that one.
			winner, winnerErr := s.intentRepo.FindActiveByOrder(ctx, order.ID)
			if winnerErr != nil {
				return nil, fmt.Errorf("storing intent for order %s: %w", order.OrderNumber, winnerErr)
			}
			return winner, nil
		}
		return nil, fmt.Errorf("storing intent for order %s: %w", order.OrderNumber, createErr)
	}
	return intent, nil
}

// Refund reverses the order's confirmed payment with its provider and returns
// the refunded provider reference. ErrIntentNotConfirmed when the order has
// no captured payment to reverse.
func (s *PaymentIntentService) Refund(ctx context.Context, orderID int64) (string, error) {
	intent, findErr := s.intentRepo.FindActiveByOrder(ctx, orderID)
	if findErr != nil {
		if stderrors.Is(findErr, domain.ErrRecordNotFound) {
			return "", domain.ErrIntentNotConfirmed
		}
		return "", fmt.Errorf("refunding order %d: %w", orderID, findErr)
	}
	if intent.Status != domain.IntentStatusConfirmed {
		return "", domain.ErrIntentNotConfirmed
	}

	adapter, ok := s.adapters[intent.Provider]
	if !ok {
		return "", fmt.Errorf("refunding order %d: no adapter for provider `%s`", orderID, intent.Provider)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if refundErr := adapter.Refund(callCtx, intent.ProviderReference); refundErr != nil {
		return "", classifyProviderErr(refundErr, "refunding order %d", orderID)
	}
	return intent.ProviderReference, nil
}

// classifyProviderErr keeps the domain sentinels adapters already attach and
// folds everything else (timeouts, broken pipes, unexpected payloads) into
// ErrProviderUnavailable so callers treat the unknown as retryable rather
// than as a rejected payment.
func classifyProviderErr(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if stderrors.Is(err, domain.ErrPaymentRejected) || stderrors.Is(err, domain.ErrProviderUnavailable) {
		return errors.Wrap(err, msg)
	}
	return fmt.Errorf("%s: %w: %s", msg, domain.ErrProviderUnavailable, err.Error())
}
