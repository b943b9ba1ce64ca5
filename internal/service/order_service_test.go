package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/internal/repository/repoargs"
	"github.com/brechodigital/brecho-core/internal/service"
	"github.com/brechodigital/brecho-core/internal/service/mocks"
	"github.com/brechodigital/brecho-core/pkg/uow"
	uowmocks "github.com/brechodigital/brecho-core/pkg/uow/mocks"
)

type OrderServiceTestSuite struct {
	suite.Suite
	mockCtrl        *gomock.Controller
	mockUOW         *uowmocks.MockUOW
	mockTX          *uowmocks.MockTX
	mockOrderRepo   *mocks.MockOrderRepository
	mockHistoryRepo *mocks.MockStatusHistoryRepository
	mockIntentRepo  *mocks.MockPaymentIntentRepository
	mockWalletRepo  *mocks.MockWalletRepository
	mockIntents     *mocks.MockPaymentIntents
	mockFees        *mocks.MockFeeProvider
	mockQuotes      *mocks.MockShippingQuoter
	mockAddresses   *mocks.MockAddressBook
	svc             *service.OrderService
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}

func (s *OrderServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(s.mockCtrl)
	s.mockTX = uowmocks.NewMockTX(s.mockCtrl)
	s.mockOrderRepo = mocks.NewMockOrderRepository(s.mockCtrl)
	s.mockHistoryRepo = mocks.NewMockStatusHistoryRepository(s.mockCtrl)
	s.mockIntentRepo = mocks.NewMockPaymentIntentRepository(s.mockCtrl)
	s.mockWalletRepo = mocks.NewMockWalletRepository(s.mockCtrl)
	s.mockIntents = mocks.NewMockPaymentIntents(s.mockCtrl)
	s.mockFees = mocks.NewMockFeeProvider(s.mockCtrl)
	s.mockQuotes = mocks.NewMockShippingQuoter(s.mockCtrl)
	s.mockAddresses = mocks.NewMockAddressBook(s.mockCtrl)

	s.mockUOW.EXPECT().
		GetRepository(uow.RepositoryName(repoargs.OrderRepoName)).
		Return(s.mockOrderRepo, nil).AnyTimes()
	s.mockUOW.EXPECT().
		GetRepository(uow.RepositoryName(repoargs.StatusHistoryRepoName)).
		Return(s.mockHistoryRepo, nil).AnyTimes()
	s.mockUOW.EXPECT().
		GetRepository(uow.RepositoryName(repoargs.PaymentIntentRepoName)).
		Return(s.mockIntentRepo, nil).AnyTimes()

	var err error
	s.svc, err = service.NewOrderService(s.mockUOW, service.OrderServiceArgs{
		Intents:   s.mockIntents,
		Fees:      s.mockFees,
		Quotes:    s.mockQuotes,
		Addresses: s.mockAddresses,
	})
	s.Require().NoError(err)
}

func (s *OrderServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

// expectUOWDo wires the UOW mock to run the transactional closure against the
// TX mock.
func (s *OrderServiceTestSuite) expectUOWDo(times int) {
	s.mockUOW.EXPECT().Do(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, s.mockTX)
		},
	).Times(times)
}

func (s *OrderServiceTestSuite) checkoutArgs() service.CheckoutArgs {
	return service.CheckoutArgs{
		BuyerID: 100,
		Item: domain.CartItem{
			ProductID:  55,
			SellerID:   200,
			SellerTier: domain.SellerTierFree,
			PriceCents: 10000,
		},
		AddressID: 5,
		ServiceID: "sedex",
		Method:    domain.PaymentMethodPix,
	}
}

func (s *OrderServiceTestSuite) expectBuyerAddress() {
	s.mockAddresses.EXPECT().
		GetAddress(gomock.Any(), int64(5)).
		Return(&domain.Address{ID: 5, UserID: 100, Zipcode: "01310000"}, nil)
}

func (s *OrderServiceTestSuite) expectQuotes(quotes ...domain.ShippingQuote) {
	s.mockQuotes.EXPECT().
		Quotes(gomock.Any(), int64(55), "01310000").
		Return(quotes, nil)
}

func (s *OrderServiceTestSuite) expectDraftCreation(shippingCents int64) *domain.Order {
	created := &domain.Order{
		ID:            1,
		OrderNumber:   "BR-TEST-0001",
		BuyerID:       100,
		SellerID:      200,
		ProductID:     55,
		Status:        domain.OrderStatusPendingPayment,
		PaymentMethod: domain.PaymentMethodPix,
	}

	s.expectUOWDo(1)
	s.mockTX.EXPECT().
		Get(uow.RepositoryName(repoargs.OrderRepoName)).
		Return(s.mockOrderRepo, nil)
	s.mockTX.EXPECT().
		Get(uow.RepositoryName(repoargs.StatusHistoryRepoName)).
		Return(s.mockHistoryRepo, nil)

	s.mockOrderRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.CreateOrder) (*domain.Order, error) {
			s.Equal(int64(100), args.BuyerID)
			s.Equal(int64(200), args.SellerID)
			s.Equal(int64(55), args.ProductID)
			s.NotEmpty(args.OrderNumber)
			s.Equal(int64(10000), args.Settlement.GrossCents)
			s.Equal(shippingCents, args.Settlement.ShippingCents)
			s.Equal(int64(1200), args.Settlement.CommissionCents)
			s.Equal(int64(8800), args.Settlement.SellerReceivesCents)
			s.Equal(10000+shippingCents, args.Settlement.TotalChargedCents)
			created.Settlement = args.Settlement
			return created, nil
		})

	s.mockHistoryRepo.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, change domain.StatusChange) (*domain.StatusChange, error) {
			s.Equal(created.ID, change.OrderID)
			s.Equal(domain.OrderStatusPendingPayment, change.To)
			s.Equal(domain.ActorBuyer, change.Actor)
			return &change, nil
		})

	return created
}

func (s *OrderServiceTestSuite) TestCheckout_Success() {
	args := s.checkoutArgs()

	s.expectBuyerAddress()
	// The settled shipping price comes from the quoter, not from anything the
	// client sent.
	s.expectQuotes(
		domain.ShippingQuote{ServiceID: "pac", PriceCents: 900, FetchedAt: time.Now()},
		domain.ShippingQuote{ServiceID: "sedex", PriceCents: 1500, FetchedAt: time.Now()},
	)
	s.mockFees.EXPECT().Current(gomock.Any()).Return(testSchedule(), nil)

	created := s.expectDraftCreation(1500)

	intent := &domain.PaymentIntent{ID: 10, OrderID: 1, ProviderReference: "txid-123"}
	s.mockIntents.EXPECT().
		CreateIntent(gomock.Any(), created, domain.PaymentMethodPix).
		Return(intent, nil)

	result, err := s.svc.Checkout(context.Background(), args)
	s.Require().NoError(err)
	s.Equal(created, result.Order)
	s.Equal(intent, result.Intent)
}

func (s *OrderServiceTestSuite) TestCheckout_RejectedPaymentRemovesDraft() {
	args := s.checkoutArgs()

	s.expectBuyerAddress()
	s.expectQuotes(domain.ShippingQuote{ServiceID: "sedex", PriceCents: 1500, FetchedAt: time.Now()})
	s.mockFees.EXPECT().Current(gomock.Any()).Return(testSchedule(), nil)

	created := s.expectDraftCreation(1500)

	s.mockIntents.EXPECT().
		CreateIntent(gomock.Any(), created, domain.PaymentMethodPix).
		Return(nil, domain.ErrPaymentRejected)
	s.mockOrderRepo.EXPECT().
		Delete(gomock.Any(), created.ID).
		Return(nil)

	result, err := s.svc.Checkout(context.Background(), args)
	s.Require().ErrorIs(err, domain.ErrPaymentRejected)
	s.Nil(result)
}

func (s *OrderServiceTestSuite) TestCheckout_ProviderDownKeepsDraft() {
	args := s.checkoutArgs()

	s.expectBuyerAddress()
	s.expectQuotes(domain.ShippingQuote{ServiceID: "sedex", PriceCents: 1500, FetchedAt: time.Now()})
	s.mockFees.EXPECT().Current(gomock.Any()).Return(testSchedule(), nil)

	created := s.expectDraftCreation(1500)

	// no Delete expectation: the draft stays for the retry window.
	s.mockIntents.EXPECT().
		CreateIntent(gomock.Any(), created, domain.PaymentMethodPix).
		Return(nil, domain.ErrProviderUnavailable)

	result, err := s.svc.Checkout(context.Background(), args)
	s.Require().ErrorIs(err, domain.ErrProviderUnavailable)
	s.Require().NotNil(result)
	s.Equal(created, result.Order)
	s.Nil(result.Intent)
}

func (s *OrderServiceTestSuite) TestCheckout_ServiceMissingFromCacheRepriced() {
	args := s.checkoutArgs()

	s.expectBuyerAddress()
	// The cached set predates the buyer's view; one reprice against the
	// carrier finds the service at its current price.
	s.expectQuotes(domain.ShippingQuote{ServiceID: "pac", PriceCents: 900, FetchedAt: time.Now()})
	s.mockQuotes.EXPECT().
		FreshQuotes(gomock.Any(), int64(55), "01310000").
		Return([]domain.ShippingQuote{
			{ServiceID: "pac", PriceCents: 900, FetchedAt: time.Now()},
			{ServiceID: "sedex", PriceCents: 1700, FetchedAt: time.Now()},
		}, nil)
	s.mockFees.EXPECT().Current(gomock.Any()).Return(testSchedule(), nil)

	created := s.expectDraftCreation(1700)

	s.mockIntents.EXPECT().
		CreateIntent(gomock.Any(), created, domain.PaymentMethodPix).
		Return(&domain.PaymentIntent{ID: 10}, nil)

	_, err := s.svc.Checkout(context.Background(), args)
	s.Require().NoError(err)
}

func (s *OrderServiceTestSuite) TestCheckout_QuoteServiceVanished() {
	args := s.checkoutArgs()

	s.expectBuyerAddress()
	s.expectQuotes(domain.ShippingQuote{ServiceID: "pac", PriceCents: 900, FetchedAt: time.Now()})
	s.mockQuotes.EXPECT().
		FreshQuotes(gomock.Any(), int64(55), "01310000").
		Return([]domain.ShippingQuote{
			{ServiceID: "pac", PriceCents: 900, FetchedAt: time.Now()},
		}, nil)

	_, err := s.svc.Checkout(context.Background(), args)
	s.Require().ErrorIs(err, domain.ErrQuoteExpired)
}

func (s *OrderServiceTestSuite) TestCheckout_AddressNotOwned() {
	args := s.checkoutArgs()

	s.mockAddresses.EXPECT().
		GetAddress(gomock.Any(), int64(5)).
		Return(&domain.Address{ID: 5, UserID: 999, Zipcode: "01310000"}, nil)

	_, err := s.svc.Checkout(context.Background(), args)
	s.Require().ErrorIs(err, domain.ErrAddressNotOwned)
}

func (s *OrderServiceTestSuite) TestCheckout_UnsupportedMethod() {
	args := s.checkoutArgs()
	args.Method = domain.PaymentMethod("voucher")

	_, err := s.svc.Checkout(context.Background(), args)
	s.Require().Error(err)
}

func (s *OrderServiceTestSuite) TestRetryPayment_KeptDraft() {
	draft := &domain.Order{ID: 7, BuyerID: 100, Status: domain.OrderStatusPendingPayment}
	intent := &domain.PaymentIntent{ID: 11, OrderID: 7, ProviderReference: "txid-456"}

	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(7)).Return(draft, nil)
	s.mockIntents.EXPECT().
		CreateIntent(gomock.Any(), draft, domain.PaymentMethodPix).
		Return(intent, nil)

	got, err := s.svc.RetryPayment(context.Background(), 100, 7, domain.PaymentMethodPix)
	s.Require().NoError(err)
	s.Equal(intent, got)
}

func (s *OrderServiceTestSuite) TestRetryPayment_ForeignOrderHidden() {
	draft := &domain.Order{ID: 7, BuyerID: 999, Status: domain.OrderStatusPendingPayment}
	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(7)).Return(draft, nil)

	_, err := s.svc.RetryPayment(context.Background(), 100, 7, domain.PaymentMethodPix)
	s.Require().ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *OrderServiceTestSuite) TestRetryPayment_OrderNoLongerPayable() {
	cancelled := &domain.Order{ID: 7, BuyerID: 100, Status: domain.OrderStatusCancelled}
	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(7)).Return(cancelled, nil)

	_, err := s.svc.RetryPayment(context.Background(), 100, 7, domain.PaymentMethodPix)

	var illegal *domain.IllegalTransitionError
	s.Require().ErrorAs(err, &illegal)
	s.Equal(domain.OrderStatusCancelled, illegal.From)
}

func (s *OrderServiceTestSuite) expectCommit() {
	s.expectUOWDo(1)
	s.mockTX.EXPECT().
		Get(uow.RepositoryName(repoargs.OrderRepoName)).
		Return(s.mockOrderRepo, nil)
	s.mockTX.EXPECT().
		Get(uow.RepositoryName(repoargs.StatusHistoryRepoName)).
		Return(s.mockHistoryRepo, nil)
}

func (s *OrderServiceTestSuite) TestApplyStatusUpdate_ShippedNeedsTracking() {
	order := &domain.Order{ID: 1, Status: domain.OrderStatusPendingShipment}
	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(order, nil)

	_, err := s.svc.ApplyStatusUpdate(context.Background(), 1,
		domain.OrderStatusShipped, domain.ActorSeller, service.StatusUpdateExtra{})
	s.Require().ErrorIs(err, domain.ErrTrackingCodeRequired)
}

func (s *OrderServiceTestSuite) TestApplyStatusUpdate_Shipped() {
	order := &domain.Order{ID: 1, Status: domain.OrderStatusPendingShipment}
	shipped := &domain.Order{ID: 1, Status: domain.OrderStatusShipped, TrackingCode: "BR123"}

	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(order, nil)

	s.expectCommit()
	s.mockOrderRepo.EXPECT().
		UpdateStatusCAS(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.StatusCAS) (bool, error) {
			s.Equal(domain.OrderStatusPendingShipment, args.From)
			s.Equal(domain.OrderStatusShipped, args.To)
			s.Equal("BR123", args.TrackingCode)
			return true, nil
		})
	s.mockHistoryRepo.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, change domain.StatusChange) (*domain.StatusChange, error) {
			s.Equal(domain.ActorSeller, change.Actor)
			return &change, nil
		})
	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(shipped, nil)

	updated, err := s.svc.ApplyStatusUpdate(context.Background(), 1,
		domain.OrderStatusShipped, domain.ActorSeller, service.StatusUpdateExtra{TrackingCode: "BR123"})
	s.Require().NoError(err)
	s.Equal(shipped, updated)
}

func (s *OrderServiceTestSuite) TestApplyStatusUpdate_IllegalTransition() {
	order := &domain.Order{ID: 1, Status: domain.OrderStatusDelivered}
	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(order, nil)

	_, err := s.svc.ApplyStatusUpdate(context.Background(), 1,
		domain.OrderStatusRefunded, domain.ActorAdmin, service.StatusUpdateExtra{})

	var illegal *domain.IllegalTransitionError
	s.Require().ErrorAs(err, &illegal)
	s.Equal(domain.OrderStatusDelivered, illegal.From)
	s.Equal(domain.OrderStatusRefunded, illegal.To)
}

func (s *OrderServiceTestSuite) TestApplyStatusUpdate_StaleLoserGetsConflict() {
	order := &domain.Order{ID: 1, Status: domain.OrderStatusPendingShipment}
	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(order, nil)

	s.expectCommit()
	// a concurrent update moved the order first; zero rows matched.
	s.mockOrderRepo.EXPECT().
		UpdateStatusCAS(gomock.Any(), gomock.Any()).
		Return(false, nil)

	_, err := s.svc.ApplyStatusUpdate(context.Background(), 1,
		domain.OrderStatusShipped, domain.ActorSeller, service.StatusUpdateExtra{TrackingCode: "BR123"})

	var stale *domain.StaleTransitionError
	s.Require().ErrorAs(err, &stale)
	s.Equal(int64(1), stale.OrderID)
}

func (s *OrderServiceTestSuite) TestApplyStatusUpdate_PaidRequiresConfirmedIntent() {
	order := &domain.Order{ID: 1, Status: domain.OrderStatusPendingPayment}
	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(order, nil)
	s.mockIntentRepo.EXPECT().
		FindActiveByOrder(gomock.Any(), int64(1)).
		Return(&domain.PaymentIntent{Status: domain.IntentStatusCreated}, nil)

	_, err := s.svc.ApplyStatusUpdate(context.Background(), 1,
		domain.OrderStatusPaid, domain.ActorAdmin, service.StatusUpdateExtra{})
	s.Require().ErrorIs(err, domain.ErrIntentNotConfirmed)
}

func (s *OrderServiceTestSuite) TestApplyStatusUpdate_CancelPaidRefunds() {
	order := &domain.Order{ID: 1, Status: domain.OrderStatusPaid}
	cancelled := &domain.Order{ID: 1, Status: domain.OrderStatusCancelled}

	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(order, nil)

	s.expectCommit()
	s.mockOrderRepo.EXPECT().
		UpdateStatusCAS(gomock.Any(), gomock.Any()).
		Return(true, nil)
	s.mockIntents.EXPECT().Refund(gomock.Any(), int64(1)).Return("charge-9", nil)
	s.mockHistoryRepo.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, change domain.StatusChange) (*domain.StatusChange, error) {
			s.Contains(change.Note, "refund issued charge-9")
			return &change, nil
		})
	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(cancelled, nil)

	updated, err := s.svc.ApplyStatusUpdate(context.Background(), 1,
		domain.OrderStatusCancelled, domain.ActorAdmin, service.StatusUpdateExtra{})
	s.Require().NoError(err)
	s.Equal(cancelled, updated)
}

func (s *OrderServiceTestSuite) TestApplyStatusUpdate_CancelStaleLoserNeverRefunds() {
	order := &domain.Order{ID: 7, Status: domain.OrderStatusPaid}
	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(7)).Return(order, nil)

	s.expectCommit()
	// A racing webhook moved the order first. No Refund expectation: the
	// losing cancellation must not send the buyer's money back.
	s.mockOrderRepo.EXPECT().
		UpdateStatusCAS(gomock.Any(), gomock.Any()).
		Return(false, nil)

	_, err := s.svc.ApplyStatusUpdate(context.Background(), 7,
		domain.OrderStatusCancelled, domain.ActorAdmin, service.StatusUpdateExtra{})

	var stale *domain.StaleTransitionError
	s.Require().ErrorAs(err, &stale)
	s.Equal(int64(7), stale.OrderID)
}

func (s *OrderServiceTestSuite) TestApplyStatusUpdate_CancelRefundFailureKeepsStatus() {
	order := &domain.Order{ID: 1, Status: domain.OrderStatusPaid}
	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(order, nil)

	s.expectCommit()
	s.mockOrderRepo.EXPECT().
		UpdateStatusCAS(gomock.Any(), gomock.Any()).
		Return(true, nil)
	// The provider is down; the transaction rolls back and no history entry
	// is written.
	s.mockIntents.EXPECT().
		Refund(gomock.Any(), int64(1)).
		Return("", domain.ErrProviderUnavailable)

	_, err := s.svc.ApplyStatusUpdate(context.Background(), 1,
		domain.OrderStatusCancelled, domain.ActorAdmin, service.StatusUpdateExtra{})
	s.Require().ErrorIs(err, domain.ErrProviderUnavailable)
}

func (s *OrderServiceTestSuite) TestApplyStatusUpdate_CancelPendingPaymentSkipsRefund() {
	order := &domain.Order{ID: 1, Status: domain.OrderStatusPendingPayment}
	cancelled := &domain.Order{ID: 1, Status: domain.OrderStatusCancelled}

	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(order, nil)
	// nothing was captured: no refund call expected.

	s.expectCommit()
	s.mockOrderRepo.EXPECT().
		UpdateStatusCAS(gomock.Any(), gomock.Any()).
		Return(true, nil)
	s.mockHistoryRepo.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, change domain.StatusChange) (*domain.StatusChange, error) {
			return &change, nil
		})
	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(cancelled, nil)

	_, err := s.svc.ApplyStatusUpdate(context.Background(), 1,
		domain.OrderStatusCancelled, domain.ActorSystem, service.StatusUpdateExtra{})
	s.Require().NoError(err)
}

func (s *OrderServiceTestSuite) TestApplyStatusUpdate_DeliveredFreezesPayoutDateAndAccruesCashback() {
	order := &domain.Order{
		ID:       1,
		BuyerID:  100,
		SellerID: 200,
		Status:   domain.OrderStatusShipped,
		Settlement: domain.SettlementBreakdown{
			CashbackCents:      100,
			FeeScheduleVersion: 1,
		},
	}
	delivered := &domain.Order{ID: 1, Status: domain.OrderStatusDelivered}

	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(order, nil)
	s.mockFees.EXPECT().ByVersion(gomock.Any(), int64(1)).Return(testSchedule(), nil)

	s.expectCommit()
	s.mockOrderRepo.EXPECT().
		UpdateStatusCAS(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.StatusCAS) (bool, error) {
			s.Require().NotNil(args.PayoutAvailableAt)
			wantAt := time.Now().AddDate(0, 0, 7)
			s.WithinDuration(wantAt, *args.PayoutAvailableAt, time.Minute)
			return true, nil
		})
	s.mockHistoryRepo.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, change domain.StatusChange) (*domain.StatusChange, error) {
			return &change, nil
		})

	s.mockTX.EXPECT().
		Get(uow.RepositoryName(repoargs.WalletRepoName)).
		Return(s.mockWalletRepo, nil)
	s.mockWalletRepo.EXPECT().
		HasEntry(gomock.Any(), int64(1), domain.WalletTxCashback).
		Return(false, nil)
	s.mockWalletRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.CreateWalletTransaction) (*domain.WalletTransaction, error) {
			s.Equal(int64(100), args.UserID)
			s.Equal(domain.DirectionDebit, args.Direction)
			s.Equal(domain.WalletTxCashback, args.Kind)
			s.Equal(int64(100), args.AmountCents)
			return &domain.WalletTransaction{ID: 1}, nil
		})

	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(delivered, nil)

	_, err := s.svc.ApplyStatusUpdate(context.Background(), 1,
		domain.OrderStatusDelivered, domain.WebhookActor("carrier"), service.StatusUpdateExtra{})
	s.Require().NoError(err)
}

func (s *OrderServiceTestSuite) TestApplyStatusUpdate_CompletedReleasesPayoutOnce() {
	availableAt := time.Now().AddDate(0, 0, 3)
	order := &domain.Order{
		ID:                1,
		SellerID:          200,
		Status:            domain.OrderStatusDelivered,
		PayoutAvailableAt: &availableAt,
		Settlement: domain.SettlementBreakdown{
			SellerReceivesCents: 8800,
		},
	}
	completed := &domain.Order{ID: 1, Status: domain.OrderStatusCompleted}

	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(order, nil)

	s.expectCommit()
	s.mockOrderRepo.EXPECT().
		UpdateStatusCAS(gomock.Any(), gomock.Any()).
		Return(true, nil)
	s.mockHistoryRepo.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, change domain.StatusChange) (*domain.StatusChange, error) {
			return &change, nil
		})

	s.mockTX.EXPECT().
		Get(uow.RepositoryName(repoargs.WalletRepoName)).
		Return(s.mockWalletRepo, nil)
	s.mockWalletRepo.EXPECT().
		HasEntry(gomock.Any(), int64(1), domain.WalletTxPayout).
		Return(false, nil)
	s.mockWalletRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.CreateWalletTransaction) (*domain.WalletTransaction, error) {
			s.Equal(int64(200), args.UserID)
			s.Equal(domain.WalletTxPayout, args.Kind)
			s.Equal(int64(8800), args.AmountCents)
			// the release date frozen at delivery wins over early confirmation.
			s.Equal(availableAt, args.AvailableAt)
			return &domain.WalletTransaction{ID: 2}, nil
		})

	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(completed, nil)

	_, err := s.svc.ApplyStatusUpdate(context.Background(), 1,
		domain.OrderStatusCompleted, domain.ActorBuyer, service.StatusUpdateExtra{})
	s.Require().NoError(err)
}

func (s *OrderServiceTestSuite) TestHandlePaymentEvent_FailureKeepsOrderPending() {
	intent := &domain.PaymentIntent{ID: 10, OrderID: 1, Status: domain.IntentStatusCreated}
	order := &domain.Order{ID: 1, Status: domain.OrderStatusPendingPayment}

	s.mockIntentRepo.EXPECT().
		FindByProviderReference(gomock.Any(), domain.PaymentMethodPix, "txid-123").
		Return(intent, nil)
	s.mockIntentRepo.EXPECT().
		UpdateStatus(gomock.Any(), int64(10), domain.IntentStatusFailed).
		Return(nil)
	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(order, nil)

	got, err := s.svc.HandlePaymentEvent(context.Background(), domain.PaymentMethodPix, "txid-123", false)
	s.Require().NoError(err)
	s.Equal(domain.OrderStatusPendingPayment, got.Status)
}

func (s *OrderServiceTestSuite) TestHandlePaymentEvent_ReplayedConfirmationIsNoop() {
	intent := &domain.PaymentIntent{ID: 10, OrderID: 1, Status: domain.IntentStatusConfirmed}
	order := &domain.Order{ID: 1, Status: domain.OrderStatusPaid}

	s.mockIntentRepo.EXPECT().
		FindByProviderReference(gomock.Any(), domain.PaymentMethodPix, "txid-123").
		Return(intent, nil)
	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(order, nil)

	got, err := s.svc.HandlePaymentEvent(context.Background(), domain.PaymentMethodPix, "txid-123", true)
	s.Require().NoError(err)
	s.Equal(order, got)
}

func (s *OrderServiceTestSuite) TestReleaseDuePayouts_SkipsStaleRaces() {
	due := []domain.Order{
		{ID: 1, Status: domain.OrderStatusDelivered},
		{ID: 2, Status: domain.OrderStatusDelivered},
	}
	s.mockOrderRepo.EXPECT().
		GetDeliveredDue(gomock.Any(), gomock.Any(), 10).
		Return(due, nil)

	// order 1 completes; order 2 was confirmed by the buyer a moment earlier.
	completedFirst := &domain.Order{ID: 1, Status: domain.OrderStatusDelivered}
	s.mockOrderRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(completedFirst, nil)
	s.expectCommit()
	s.mockOrderRepo.EXPECT().UpdateStatusCAS(gomock.Any(), gomock.Any()).Return(true, nil)
	s.mockHistoryRepo.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, change domain.StatusChange) (*domain.StatusChange, error) {
			return &change, nil
		})
	s.mockTX.EXPECT().
		Get(uow.RepositoryName(repoargs.WalletRepoName)).
		Return(s.mockWalletRepo, nil)
	s.mockWalletRepo.EXPECT().
		HasEntry(gomock.Any(), int64(1), domain.WalletTxPayout).
		Return(true, nil)
	s.mockOrderRepo.EXPECT().
		FindByID(gomock.Any(), int64(1)).
		Return(&domain.Order{ID: 1, Status: domain.OrderStatusCompleted}, nil)

	s.mockOrderRepo.EXPECT().
		FindByID(gomock.Any(), int64(2)).
		Return(&domain.Order{ID: 2, Status: domain.OrderStatusDelivered}, nil)
	s.expectCommit()
	s.mockOrderRepo.EXPECT().UpdateStatusCAS(gomock.Any(), gomock.Any()).Return(false, nil)

	done, err := s.svc.ReleaseDuePayouts(context.Background(), 10)
	s.Require().NoError(err)
	s.Equal(1, done)
}
