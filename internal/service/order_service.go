package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/internal/repository/repoargs"
	"github.com/brechodigital/brecho-core/pkg/uow"
)

// OrderService composes the settlement calculator, the transition table, the
// payment orchestrator and the shipping cache into the two public workflows:
// Checkout and ApplyStatusUpdate. Every order mutation funnels through
// ApplyStatusUpdate; nothing else writes order status.
type OrderService struct {
	uow       uow.UOW
	orderRepo OrderRepository

	intents   PaymentIntents
	fees      FeeProvider
	quotes    ShippingQuoter
	addresses AddressBook
}

type OrderServiceArgs struct {
	Intents   PaymentIntents
	Fees      FeeProvider
	Quotes    ShippingQuoter
	Addresses AddressBook
}

func NewOrderService(u uow.UOW, args OrderServiceArgs) (*OrderService, error) {
	orderRepo, err := uow.GetRepositoryAs[OrderRepository](u, uow.RepositoryName(repoargs.OrderRepoName))
	if err != nil {
		return nil, err
	}
	return &OrderService{
		uow:       u,
		orderRepo: orderRepo,
		intents:   args.Intents,
		fees:      args.Fees,
		quotes:    args.Quotes,
		addresses: args.Addresses,
	}, nil
}

type CheckoutArgs struct {
	BuyerID   int64
	Item      domain.CartItem
	AddressID int64
	// ServiceID names the carrier service the buyer picked from the quote
	// listing. The price is resolved server-side, never taken from the client.
	ServiceID string
	Method    domain.PaymentMethod
}

type CheckoutResult struct {
	Order  *domain.Order
	Intent *domain.PaymentIntent
}

// Checkout turns a cart item, a shipping quote and a payment method into an
// order with a provider payment intent.
//
// The order row is written before the provider call. When the provider
// rejects the payment the row is removed again: a rejected checkout must not
// leave an orphaned pending_payment order. When the provider is merely
// unavailable the order is kept so the client can retry the intent within the
// bounded window; the sweeper cancels it once the window lapses.
func (o *OrderService) Checkout(ctx context.Context, args CheckoutArgs) (*CheckoutResult, error) {
	if !args.Method.Valid() {
		return nil, fmt.Errorf("checkout: unsupported payment method `%s`", args.Method)
	}

	address, addrErr := o.addresses.GetAddress(ctx, args.AddressID)
	if addrErr != nil {
		return nil, fmt.Errorf("checkout: %w", addrErr)
	}
	if address.UserID != args.BuyerID {
		return nil, domain.ErrAddressNotOwned
	}

	quote, quoteErr := o.resolveQuote(ctx, args.Item.ProductID, address.Zipcode, args.ServiceID)
	if quoteErr != nil {
		return nil, fmt.Errorf("checkout: %w", quoteErr)
	}

	schedule, feesErr := o.fees.Current(ctx)
	if feesErr != nil {
		return nil, fmt.Errorf("checkout: %w", feesErr)
	}

	settlement, settleErr := ComputeSettlement(
		args.Item.PriceCents, quote.PriceCents, args.Item.SellerTier, args.Method, schedule)
	if settleErr != nil {
		return nil, fmt.Errorf("checkout: %w", settleErr)
	}

	order, createErr := o.createDraft(ctx, args, *settlement)
	if createErr != nil {
		return nil, fmt.Errorf("checkout: %w", createErr)
	}

	intent, intentErr := o.intents.CreateIntent(ctx, order, args.Method)
	if intentErr != nil {
		if errors.Is(intentErr, domain.ErrProviderUnavailable) {
			// Keep the draft: the caller retries with backoff.
			return &CheckoutResult{Order: order}, intentErr
		}
		if deleteErr := o.orderRepo.Delete(ctx, order.ID); deleteErr != nil {
			return nil, errors.Join(intentErr, deleteErr)
		}
		return nil, intentErr
	}

	return &CheckoutResult{Order: order, Intent: intent}, nil
}

// RetryPayment creates (or returns) the payment intent for an existing
// pending_payment order. This is the path a client takes after a checkout
// kept its draft through a provider outage; retrying through Checkout would
// mint a second order.
func (o *OrderService) RetryPayment(
	ctx context.Context,
	buyerID int64,
	orderID int64,
	method domain.PaymentMethod,
) (*domain.PaymentIntent, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("retry payment: unsupported payment method `%s`", method)
	}

	order, findErr := o.orderRepo.FindByID(ctx, orderID)
	if findErr != nil {
		return nil, fmt.Errorf("retry payment: %w", findErr)
	}
	if order.BuyerID != buyerID {
		// Someone else's order looks exactly like a missing one.
		return nil, domain.ErrRecordNotFound
	}
	if err := domain.CheckTransition(order.Status, domain.OrderStatusPaid); err != nil {
		return nil, err
	}

	intent, intentErr := o.intents.CreateIntent(ctx, order, method)
	if intentErr != nil {
		return nil, intentErr
	}
	return intent, nil
}

func (o *OrderService) createDraft(
	ctx context.Context,
	args CheckoutArgs,
	settlement domain.SettlementBreakdown,
) (*domain.Order, error) {
	var order *domain.Order
	txErr := o.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		orderRepo, repoErr := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
		if repoErr != nil {
			return repoErr
		}
		historyRepo, repoErr := uow.GetAs[StatusHistoryRepository](tx, uow.RepositoryName(repoargs.StatusHistoryRepoName))
		if repoErr != nil {
			return repoErr
		}

		created, createErr := orderRepo.Create(c, repoargs.CreateOrder{
			OrderNumber:   newOrderNumber(),
			BuyerID:       args.BuyerID,
			SellerID:      args.Item.SellerID,
			ProductID:     args.Item.ProductID,
			PaymentMethod: args.Method,
			Settlement:    settlement,
		})
		if createErr != nil {
			return createErr
		}

		if _, histErr := historyRepo.Append(c, domain.StatusChange{
			OrderID: created.ID,
			To:      domain.OrderStatusPendingPayment,
			Actor:   domain.ActorBuyer,
			Note:    "checkout",
		}); histErr != nil {
			return histErr
		}

		order = created
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return order, nil
}

// resolveQuote prices the selected carrier service from the engine's own
// quote source; the client never supplies the shipping price. The quoter
// bounds staleness with its TTL, so the settled price is at most one TTL
// behind the carrier. A service missing from the cached set is re-checked
// against the carrier once, then the checkout is rejected so the buyer
// re-picks.
func (o *OrderService) resolveQuote(
	ctx context.Context,
	productID int64,
	destinationZip string,
	serviceID string,
) (*domain.ShippingQuote, error) {
	quotes, err := o.quotes.Quotes(ctx, productID, destinationZip)
	if err != nil {
		return nil, err
	}
	if match := pickQuote(quotes, serviceID); match != nil {
		return match, nil
	}

	fresh, freshErr := o.quotes.FreshQuotes(ctx, productID, destinationZip)
	if freshErr != nil {
		return nil, freshErr
	}
	if match := pickQuote(fresh, serviceID); match != nil {
		return match, nil
	}
	return nil, domain.ErrQuoteExpired
}

func pickQuote(quotes []domain.ShippingQuote, serviceID string) *domain.ShippingQuote {
	for i := range quotes {
		if quotes[i].ServiceID == serviceID {
			return &quotes[i]
		}
	}
	return nil
}

type StatusUpdateExtra struct {
	TrackingCode string
	Note         string
}

// ApplyStatusUpdate is the single entry point for every status change, used
// by the admin console, inbound webhooks and the release worker alike.
//
// The transition table decides legality; the update itself is a
// compare-and-set against the status the request observed, so of two racing
// updates exactly one wins and the loser gets StaleTransitionError. Guards:
// paid needs a confirmed payment intent, shipped needs a tracking code, and
// cancelling a captured payment refunds it inside the same transaction, after
// the compare-and-set has won.
func (o *OrderService) ApplyStatusUpdate(
	ctx context.Context,
	orderID int64,
	target domain.OrderStatus,
	actor domain.Actor,
	extra StatusUpdateExtra,
) (*domain.Order, error) {
	order, findErr := o.orderRepo.FindByID(ctx, orderID)
	if findErr != nil {
		return nil, fmt.Errorf("status update: %w", findErr)
	}

	if err := domain.CheckTransition(order.Status, target); err != nil {
		return nil, err
	}

	note := extra.Note
	casArgs := repoargs.StatusCAS{
		OrderID:      orderID,
		From:         order.Status,
		To:           target,
		TrackingCode: extra.TrackingCode,
	}

	var refund bool

	switch target {
	case domain.OrderStatusPaid:
		if err := o.requireConfirmedIntent(ctx, orderID); err != nil {
			return nil, err
		}
	case domain.OrderStatusShipped:
		if extra.TrackingCode == "" && order.TrackingCode == "" {
			return nil, domain.ErrTrackingCodeRequired
		}
	case domain.OrderStatusDelivered:
		schedule, schedErr := o.fees.ByVersion(ctx, order.Settlement.FeeScheduleVersion)
		if schedErr != nil {
			return nil, fmt.Errorf("status update: %w", schedErr)
		}
		availableAt := time.Now().AddDate(0, 0, schedule.ReleaseDays)
		casArgs.PayoutAvailableAt = &availableAt
	case domain.OrderStatusCancelled, domain.OrderStatusRefunded:
		// The refund itself happens inside commitTransition, once the
		// compare-and-set has won. A stale loser must never reach the
		// provider.
		refund = domain.RefundRequired(order.Status) || target == domain.OrderStatusRefunded
	}

	txErr := o.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		return o.commitTransition(c, tx, order, casArgs, actor, note, refund)
	})
	if txErr != nil {
		return nil, txErr
	}

	updated, reloadErr := o.orderRepo.FindByID(ctx, orderID)
	if reloadErr != nil {
		return nil, fmt.Errorf("status update: %w", reloadErr)
	}
	return updated, nil
}

func (o *OrderService) commitTransition(
	ctx context.Context,
	tx uow.TX,
	order *domain.Order,
	casArgs repoargs.StatusCAS,
	actor domain.Actor,
	note string,
	refund bool,
) error {
	orderRepo, repoErr := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
	if repoErr != nil {
		return repoErr
	}
	historyRepo, repoErr := uow.GetAs[StatusHistoryRepository](tx, uow.RepositoryName(repoargs.StatusHistoryRepoName))
	if repoErr != nil {
		return repoErr
	}

	applied, casErr := orderRepo.UpdateStatusCAS(ctx, casArgs)
	if casErr != nil {
		return casErr
	}
	if !applied {
		return &domain.StaleTransitionError{OrderID: order.ID, Expected: casArgs.From}
	}

	if refund {
		reference, refundErr := o.intents.Refund(ctx, order.ID)
		if refundErr != nil {
			// Rolls the transition back; the money stays put until the
			// provider answers.
			return fmt.Errorf("reversing payment: %w", refundErr)
		}
		note = appendNote(note, "refund issued "+reference)
	}

	if _, histErr := historyRepo.Append(ctx, domain.StatusChange{
		OrderID: order.ID,
		From:    casArgs.From,
		To:      casArgs.To,
		Actor:   actor,
		Note:    note,
	}); histErr != nil {
		return histErr
	}

	switch casArgs.To {
	case domain.OrderStatusDelivered:
		return o.accrueCashback(ctx, tx, order)
	case domain.OrderStatusCompleted:
		return o.releasePayout(ctx, tx, order)
	}
	return nil
}

// accrueCashback credits the buyer's wallet on delivery confirmation. Accrual
// waits for delivery so cancelled and refunded orders never pay cashback.
func (o *OrderService) accrueCashback(ctx context.Context, tx uow.TX, order *domain.Order) error {
	if order.Settlement.CashbackCents <= 0 {
		return nil
	}
	walletRepo, repoErr := uow.GetAs[WalletRepository](tx, uow.RepositoryName(repoargs.WalletRepoName))
	if repoErr != nil {
		return repoErr
	}

	exists, existsErr := walletRepo.HasEntry(ctx, order.ID, domain.WalletTxCashback)
	if existsErr != nil {
		return existsErr
	}
	if exists {
		return nil
	}

	_, createErr := walletRepo.Create(ctx, repoargs.CreateWalletTransaction{
		UserID:      order.BuyerID,
		OrderID:     order.ID,
		Direction:   domain.DirectionDebit,
		Kind:        domain.WalletTxCashback,
		AmountCents: order.Settlement.CashbackCents,
	})
	return createErr
}

// releasePayout writes the seller's payout ledger entry when the order
// completes. The entry becomes spendable at the release date frozen when the
// order was delivered, even when the buyer confirmed completion early.
func (o *OrderService) releasePayout(ctx context.Context, tx uow.TX, order *domain.Order) error {
	walletRepo, repoErr := uow.GetAs[WalletRepository](tx, uow.RepositoryName(repoargs.WalletRepoName))
	if repoErr != nil {
		return repoErr
	}

	exists, existsErr := walletRepo.HasEntry(ctx, order.ID, domain.WalletTxPayout)
	if existsErr != nil {
		return existsErr
	}
	if exists {
		return nil
	}

	availableAt := time.Now()
	if order.PayoutAvailableAt != nil {
		availableAt = *order.PayoutAvailableAt
	}
	_, createErr := walletRepo.Create(ctx, repoargs.CreateWalletTransaction{
		UserID:      order.SellerID,
		OrderID:     order.ID,
		Direction:   domain.DirectionDebit,
		Kind:        domain.WalletTxPayout,
		AmountCents: order.Settlement.SellerReceivesCents,
		AvailableAt: availableAt,
	})
	return createErr
}

func (o *OrderService) requireConfirmedIntent(ctx context.Context, orderID int64) error {
	intentRepo, repoErr := uow.GetRepositoryAs[PaymentIntentRepository](o.uow, uow.RepositoryName(repoargs.PaymentIntentRepoName))
	if repoErr != nil {
		return repoErr
	}
	intent, findErr := intentRepo.FindActiveByOrder(ctx, orderID)
	if findErr != nil {
		if errors.Is(findErr, domain.ErrRecordNotFound) {
			return domain.ErrIntentNotConfirmed
		}
		return fmt.Errorf("status update: %w", findErr)
	}
	if intent.Status != domain.IntentStatusConfirmed {
		return domain.ErrIntentNotConfirmed
	}
	return nil
}

// HandlePaymentEvent translates a provider callback into the matching intent
// and order updates. Replayed confirmations are idempotent: once the intent
// is confirmed and the order left pending_payment the event is a no-op.
func (o *OrderService) HandlePaymentEvent(
	ctx context.Context,
	provider domain.PaymentMethod,
	reference string,
	succeeded bool,
) (*domain.Order, error) {
	intentRepo, repoErr := uow.GetRepositoryAs[PaymentIntentRepository](o.uow, uow.RepositoryName(repoargs.PaymentIntentRepoName))
	if repoErr != nil {
		return nil, repoErr
	}

	intent, findErr := intentRepo.FindByProviderReference(ctx, provider, reference)
	if findErr != nil {
		return nil, fmt.Errorf("payment event: %w", findErr)
	}

	if !succeeded {
		if intent.Status == domain.IntentStatusCreated {
			if updErr := intentRepo.UpdateStatus(ctx, intent.ID, domain.IntentStatusFailed); updErr != nil {
				return nil, fmt.Errorf("payment event: %w", updErr)
			}
		}
		// The order stays pending_payment; the buyer may retry with another
		// method.
		return o.orderRepo.FindByID(ctx, intent.OrderID)
	}

	if intent.Status != domain.IntentStatusConfirmed {
		if updErr := intentRepo.UpdateStatus(ctx, intent.ID, domain.IntentStatusConfirmed); updErr != nil {
			return nil, fmt.Errorf("payment event: %w", updErr)
		}
	}

	order, orderErr := o.orderRepo.FindByID(ctx, intent.OrderID)
	if orderErr != nil {
		return nil, fmt.Errorf("payment event: %w", orderErr)
	}
	if order.Status != domain.OrderStatusPendingPayment {
		return order, nil
	}

	return o.ApplyStatusUpdate(ctx, intent.OrderID, domain.OrderStatusPaid,
		domain.WebhookActor(string(provider)), StatusUpdateExtra{Note: "payment confirmed " + reference})
}

// GetStats aggregates the admin dashboard counters.
func (o *OrderService) GetStats(ctx context.Context) (*repoargs.OrderStats, error) {
	stats, err := o.orderRepo.GetStats(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return stats, nil
}

func (o *OrderService) List(ctx context.Context, args repoargs.ListOrders) ([]domain.Order, error) {
	orders, err := o.orderRepo.List(ctx, args)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return orders, nil
}

func (o *OrderService) GetByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := o.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return order, nil
}

func (o *OrderService) GetByBuyerID(ctx context.Context, buyerID int64) ([]domain.Order, error) {
	orders, err := o.orderRepo.GetByBuyerID(ctx, buyerID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return orders, nil
}

func (o *OrderService) GetBySellerID(ctx context.Context, sellerID int64) ([]domain.Order, error) {
	orders, err := o.orderRepo.GetBySellerID(ctx, sellerID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return orders, nil
}

// AllowedActions returns the legal next statuses for an order, derived from
// the transition table so action menus cannot drift from the engine.
func (o *OrderService) AllowedActions(ctx context.Context, orderID int64) ([]domain.OrderStatus, error) {
	order, err := o.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return domain.AllowedNext(order.Status), nil
}

func (o *OrderService) GetHistory(ctx context.Context, orderID int64) ([]domain.StatusChange, error) {
	historyRepo, repoErr := uow.GetRepositoryAs[StatusHistoryRepository](o.uow, uow.RepositoryName(repoargs.StatusHistoryRepoName))
	if repoErr != nil {
		return nil, repoErr
	}
	changes, err := historyRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return changes, nil
}

// ReleaseDuePayouts promotes delivered orders whose release hold lapsed to
// completed. Called by the release worker. Stale races with a concurrent
// buyer confirmation are skipped, not failed.
func (o *OrderService) ReleaseDuePayouts(ctx context.Context, limit int) (int, error) {
	due, dueErr := o.orderRepo.GetDeliveredDue(ctx, time.Now(), limit)
	if dueErr != nil {
		return 0, fmt.Errorf("releasing due payouts: %w", dueErr)
	}

	var done int
	var lastErr error
	for _, order := range due {
		_, err := o.ApplyStatusUpdate(ctx, order.ID, domain.OrderStatusCompleted,
			domain.ActorSystem, StatusUpdateExtra{Note: "release window elapsed"})
		if err != nil {
			var stale *domain.StaleTransitionError
			if errors.As(err, &stale) {
				continue
			}
			lastErr = err
			continue
		}
		done++
	}
	return done, lastErr
}

// SweepExpiredDrafts cancels pending_payment orders that outlived the retry
// window without a confirmed payment.
func (o *OrderService) SweepExpiredDrafts(ctx context.Context, window time.Duration, limit int) (int, error) {
	expired, listErr := o.orderRepo.GetExpiredPendingPayment(ctx, time.Now().Add(-window), limit)
	if listErr != nil {
		return 0, fmt.Errorf("sweeping expired drafts: %w", listErr)
	}

	var done int
	var lastErr error
	for _, order := range expired {
		if err := o.requireConfirmedIntent(ctx, order.ID); err == nil {
			// Confirmation raced in; the webhook path owns this order now.
			continue
		}
		_, err := o.ApplyStatusUpdate(ctx, order.ID, domain.OrderStatusCancelled,
			domain.ActorSystem, StatusUpdateExtra{Note: "payment window expired"})
		if err != nil {
			var stale *domain.StaleTransitionError
			if errors.As(err, &stale) {
				continue
			}
			lastErr = err
			continue
		}
		done++
	}
	return done, lastErr
}

func appendNote(note, extra string) string {
	if note == "" {
		return extra
	}
	return note + "; " + extra
}
