package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/internal/service"
	"github.com/brechodigital/brecho-core/internal/transport/api/mocks"
	"github.com/brechodigital/brecho-core/internal/transport/api/testutils"
	"github.com/brechodigital/brecho-core/internal/transport/api/tokens"
)

var (
	testJWTSecret     = []byte("test-jwt-secret")
	testWebhookSecret = []byte("test-webhook-secret")
)

type OrdersHandlerTestSuite struct {
	suite.Suite
	mockCtrl        *gomock.Controller
	mockOrderSvs    *mocks.MockOrderServicer
	mockShippingSvs *mocks.MockShippingServicer
	router          *gin.Engine
}

func TestOrdersHandlerSuite(t *testing.T) {
	suite.Run(t, new(OrdersHandlerTestSuite))
}

func (s *OrdersHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.mockCtrl = gomock.NewController(s.T())
	s.mockOrderSvs = mocks.NewMockOrderServicer(s.mockCtrl)
	s.mockShippingSvs = mocks.NewMockShippingServicer(s.mockCtrl)

	var err error
	s.router, err = New(RouterArgs{
		OrderService:    s.mockOrderSvs,
		WalletService:   mocks.NewMockWalletServicer(s.mockCtrl),
		SettingsService: mocks.NewMockSettingsServicer(s.mockCtrl),
		ShippingService: s.mockShippingSvs,
		JWTSecretKey:    testJWTSecret,
		WebhookSecret:   testWebhookSecret,
	})
	s.Require().NoError(err)
}

func (s *OrdersHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *OrdersHandlerTestSuite) buyerToken(id int64) string {
	token, err := tokens.GenerateActorJWT(id, tokens.RoleUser, time.Hour, testJWTSecret)
	s.Require().NoError(err)
	return token
}

func (s *OrdersHandlerTestSuite) checkoutBody() string {
	return `{
		"product_id": 55,
		"seller_id": 200,
		"seller_tier": "free",
		"price_cents": 10000,
		"address_id": 5,
		"payment_method": "pix",
		"shipping": {"service_id": "sedex"}
	}`
}

func (s *OrdersHandlerTestSuite) TestCheckout_Unauthorized() {
	resp, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + CheckoutRoute,
		Body:   strings.NewReader(s.checkoutBody()),
	})
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *OrdersHandlerTestSuite) TestCheckout_Created() {
	s.mockOrderSvs.EXPECT().
		Checkout(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args service.CheckoutArgs) (*service.CheckoutResult, error) {
			s.Equal(int64(100), args.BuyerID)
			s.Equal(int64(55), args.Item.ProductID)
			s.Equal(domain.SellerTierFree, args.Item.SellerTier)
			s.Equal(domain.PaymentMethodPix, args.Method)
			s.Equal("sedex", args.ServiceID)
			return &service.CheckoutResult{
				Order: &domain.Order{
					ID:            1,
					OrderNumber:   "BR-TEST-0001",
					Status:        domain.OrderStatusPendingPayment,
					PaymentMethod: domain.PaymentMethodPix,
					Settlement: domain.SettlementBreakdown{
						GrossCents:        10000,
						TotalChargedCents: 11500,
					},
				},
				Intent: &domain.PaymentIntent{
					Provider:          domain.PaymentMethodPix,
					ProviderReference: "txid-123",
					Status:            domain.IntentStatusCreated,
					Payload:           "qr-code",
				},
			}, nil
		})

	resp, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + CheckoutRoute,
		Body:   strings.NewReader(s.checkoutBody()),
	}, testutils.WithBearerToken(s.buyerToken(100)))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var body CheckoutResponse
	raw, _ := io.ReadAll(resp.Body)
	s.Require().NoError(json.Unmarshal(raw, &body))
	s.Equal("BR-TEST-0001", body.Order.OrderNumber)
	s.Equal("txid-123", body.Payment.Reference)
	s.Equal("qr-code", body.Payment.Payload)
}

func (s *OrdersHandlerTestSuite) TestCheckout_RejectedPayment() {
	s.mockOrderSvs.EXPECT().
		Checkout(gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrPaymentRejected)

	resp, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + CheckoutRoute,
		Body:   strings.NewReader(s.checkoutBody()),
	}, testutils.WithBearerToken(s.buyerToken(100)))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusPaymentRequired, resp.StatusCode)
}

func (s *OrdersHandlerTestSuite) TestCheckout_ProviderDownReturnsDraft() {
	// The service keeps the draft through the outage; the 502 body carries it
	// so the client can retry via the pay route.
	s.mockOrderSvs.EXPECT().
		Checkout(gomock.Any(), gomock.Any()).
		Return(&service.CheckoutResult{
			Order: &domain.Order{
				ID:          7,
				OrderNumber: "BR-TEST-0007",
				Status:      domain.OrderStatusPendingPayment,
			},
		}, domain.ErrProviderUnavailable)

	resp, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + CheckoutRoute,
		Body:   strings.NewReader(s.checkoutBody()),
	}, testutils.WithBearerToken(s.buyerToken(100)))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Require().Equal(http.StatusBadGateway, resp.StatusCode)

	var body CheckoutRetryResponse
	raw, _ := io.ReadAll(resp.Body)
	s.Require().NoError(json.Unmarshal(raw, &body))
	s.Equal("BR-TEST-0007", body.Order.OrderNumber)
	s.Equal(int64(7), body.Order.ID)
	s.NotEmpty(body.Error)
}

func (s *OrdersHandlerTestSuite) TestPay_CreatesIntent() {
	s.mockOrderSvs.EXPECT().
		RetryPayment(gomock.Any(), int64(100), int64(7), domain.PaymentMethodPix).
		Return(&domain.PaymentIntent{
			Provider:          domain.PaymentMethodPix,
			ProviderReference: "txid-456",
			Status:            domain.IntentStatusCreated,
			Payload:           "qr-code",
		}, nil)

	resp, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + "/orders/7/pay",
		Body:   strings.NewReader(`{"payment_method": "pix"}`),
	}, testutils.WithBearerToken(s.buyerToken(100)))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var body PaymentResponse
	raw, _ := io.ReadAll(resp.Body)
	s.Require().NoError(json.Unmarshal(raw, &body))
	s.Equal("txid-456", body.Reference)
	s.Equal("qr-code", body.Payload)
}

func (s *OrdersHandlerTestSuite) TestPay_OrderNoLongerPayable() {
	s.mockOrderSvs.EXPECT().
		RetryPayment(gomock.Any(), int64(100), int64(7), domain.PaymentMethodPix).
		Return(nil, &domain.IllegalTransitionError{
			From: domain.OrderStatusCancelled,
			To:   domain.OrderStatusPaid,
		})

	resp, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + "/orders/7/pay",
		Body:   strings.NewReader(`{"payment_method": "pix"}`),
	}, testutils.WithBearerToken(s.buyerToken(100)))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusConflict, resp.StatusCode)
}

func (s *OrdersHandlerTestSuite) TestPay_UnknownMethodRejected() {
	resp, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + "/orders/7/pay",
		Body:   strings.NewReader(`{"payment_method": "voucher"}`),
	}, testutils.WithBearerToken(s.buyerToken(100)))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
}

func (s *OrdersHandlerTestSuite) TestPay_BadOrderID() {
	resp, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + "/orders/not-a-number/pay",
		Body:   strings.NewReader(`{"payment_method": "pix"}`),
	}, testutils.WithBearerToken(s.buyerToken(100)))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *OrdersHandlerTestSuite) TestCheckout_ExpiredQuote() {
	s.mockOrderSvs.EXPECT().
		Checkout(gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrQuoteExpired)

	resp, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + CheckoutRoute,
		Body:   strings.NewReader(s.checkoutBody()),
	}, testutils.WithBearerToken(s.buyerToken(100)))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
}

func (s *OrdersHandlerTestSuite) TestCheckout_InvalidBody() {
	// unknown payment method fails binding before the service is touched.
	resp, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + CheckoutRoute,
		Body:   strings.NewReader(`{"product_id": 55, "payment_method": "voucher"}`),
	}, testutils.WithBearerToken(s.buyerToken(100)))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
}

func (s *OrdersHandlerTestSuite) TestOrders_ReturnsBuyerOrders() {
	s.mockOrderSvs.EXPECT().
		GetByBuyerID(gomock.Any(), int64(100)).
		Return([]domain.Order{
			{ID: 1, OrderNumber: "BR-TEST-0001", Status: domain.OrderStatusPaid},
			{ID: 2, OrderNumber: "BR-TEST-0002", Status: domain.OrderStatusShipped},
		}, nil)

	resp, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodGet,
		URL:    RouteGroup + OrdersRoute,
	}, testutils.WithBearerToken(s.buyerToken(100)))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var body []OrderResponse
	raw, _ := io.ReadAll(resp.Body)
	s.Require().NoError(json.Unmarshal(raw, &body))
	s.Len(body, 2)
	s.Equal("BR-TEST-0001", body[0].OrderNumber)
}

func (s *OrdersHandlerTestSuite) TestOrders_NoContent() {
	s.mockOrderSvs.EXPECT().
		GetByBuyerID(gomock.Any(), int64(100)).
		Return(nil, nil)

	resp, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodGet,
		URL:    RouteGroup + OrdersRoute,
	}, testutils.WithBearerToken(s.buyerToken(100)))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusNoContent, resp.StatusCode)
}

func (s *OrdersHandlerTestSuite) TestSales_ReturnsSellerOrders() {
	s.mockOrderSvs.EXPECT().
		GetBySellerID(gomock.Any(), int64(200)).
		Return([]domain.Order{{ID: 3, OrderNumber: "BR-TEST-0003"}}, nil)

	resp, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodGet,
		URL:    RouteGroup + SalesRoute,
	}, testutils.WithBearerToken(s.buyerToken(200)))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *OrdersHandlerTestSuite) TestShippingQuotes() {
	s.mockShippingSvs.EXPECT().
		Quotes(gomock.Any(), int64(55), "01310000").
		Return([]domain.ShippingQuote{
			{ServiceID: "sedex", CarrierName: "Correios", PriceCents: 1500, FetchedAt: time.Now()},
		}, nil)

	resp, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodGet,
		URL:    RouteGroup + ShippingQuotesRoute + "?product_id=55&zip=01310000",
	}, testutils.WithBearerToken(s.buyerToken(100)))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var body []ShippingQuoteResponse
	raw, _ := io.ReadAll(resp.Body)
	s.Require().NoError(json.Unmarshal(raw, &body))
	s.Require().Len(body, 1)
	s.Equal("sedex", body[0].ServiceID)
}

func (s *OrdersHandlerTestSuite) TestShippingQuotes_BadZip() {
	resp, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodGet,
		URL:    RouteGroup + ShippingQuotesRoute + "?product_id=55&zip=1310-000",
	}, testutils.WithBearerToken(s.buyerToken(100)))
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
}
