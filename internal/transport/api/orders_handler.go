package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/internal/service"
)

// checkoutTimeout leaves room for the payment provider round trip on top of
// the usual service budget.
const checkoutTimeout = 15 * time.Second

type OrdersHandler struct {
	orderSvs    OrderServicer
	shippingSvs ShippingServicer
}

func NewOrdersHandler(orderSvs OrderServicer, shippingSvs ShippingServicer) *OrdersHandler {
	return &OrdersHandler{
		orderSvs:    orderSvs,
		shippingSvs: shippingSvs,
	}
}

// ShippingSelection names the carrier service the buyer picked. The engine
// reprices it from its own quote source; a price sent by the client would be
// ignored, so none is accepted.
type ShippingSelection struct {
	ServiceID string `json:"service_id" binding:"required"`
}

type CheckoutRequest struct {
	ProductID     int64             `json:"product_id" binding:"required"`
	SellerID      int64             `json:"seller_id" binding:"required"`
	SellerTier    string            `json:"seller_tier" binding:"required,oneof=free premium"`
	PriceCents    int64             `json:"price_cents" binding:"required,gt=0"`
	AddressID     int64             `json:"address_id" binding:"required"`
	PaymentMethod string            `json:"payment_method" binding:"required,oneof=pix card boleto"`
	Shipping      ShippingSelection `json:"shipping" binding:"required"`
}

type SettlementResponse struct {
	GrossCents          int64 `json:"gross_cents"`
	ShippingCents       int64 `json:"shipping_cents"`
	CommissionCents     int64 `json:"commission_cents"`
	PaymentFeeCents     int64 `json:"payment_fee_cents"`
	CashbackCents       int64 `json:"cashback_cents"`
	SellerReceivesCents int64 `json:"seller_receives_cents"`
	TotalChargedCents   int64 `json:"total_charged_cents"`
	FeeScheduleVersion  int64 `json:"fee_schedule_version"`
}

type OrderResponse struct {
	ID            int64              `json:"id"`
	OrderNumber   string             `json:"order_number"`
	Status        domain.OrderStatus `json:"status"`
	PaymentMethod string             `json:"payment_method"`
	TrackingCode  string             `json:"tracking_code,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	Settlement    SettlementResponse `json:"settlement"`
}

type PaymentResponse struct {
	Provider  string `json:"provider"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Payload   string `json:"payload,omitempty"`
}

type CheckoutResponse struct {
	Order   OrderResponse   `json:"order"`
	Payment PaymentResponse `json:"payment"`
}

// CheckoutRetryResponse is the 502 body when the provider was down but the
// order draft survived. The client retries via POST /orders/:id/pay.
type CheckoutRetryResponse struct {
	Error string        `json:"error"`
	Order OrderResponse `json:"order"`
}

func orderToResponse(order *domain.Order) OrderResponse {
	return OrderResponse{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentMethod: string(order.PaymentMethod),
		TrackingCode:  order.TrackingCode,
		CreatedAt:     order.CreatedAt,
		Settlement: SettlementResponse{
			GrossCents:          order.Settlement.GrossCents,
			ShippingCents:       order.Settlement.ShippingCents,
			CommissionCents:     order.Settlement.CommissionCents,
			PaymentFeeCents:     order.Settlement.PaymentFeeCents,
			CashbackCents:       order.Settlement.CashbackCents,
			SellerReceivesCents: order.Settlement.SellerReceivesCents,
			TotalChargedCents:   order.Settlement.TotalChargedCents,
			FeeScheduleVersion:  order.Settlement.FeeScheduleVersion,
		},
	}
}

func ordersToResponse(orders []domain.Order) []OrderResponse {
	response := make([]OrderResponse, len(orders))
	for i := range orders {
		response[i] = orderToResponse(&orders[i])
	}
	return response
}

// Checkout POST RouteGroup + CheckoutRoute.
func (o *OrdersHandler) Checkout(c *gin.Context) {
	currentActorID := getActorIDFromContext(c)

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortPublic(c, http.StatusUnprocessableEntity, err)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, checkoutTimeout)
	defer cancel()

	result, err := o.orderSvs.Checkout(reqCtx, service.CheckoutArgs{
		BuyerID: currentActorID,
		Item: domain.CartItem{
			ProductID:  req.ProductID,
			SellerID:   req.SellerID,
			SellerTier: domain.SellerTier(req.SellerTier),
			PriceCents: req.PriceCents,
		},
		AddressID: req.AddressID,
		ServiceID: req.Shipping.ServiceID,
		Method:    domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		if errors.Is(err, domain.ErrProviderUnavailable) && result != nil && result.Order != nil {
			// The draft outlives the outage; hand it back so the client
			// retries the payment on this order instead of checking out a
			// second one.
			c.AbortWithStatusJSON(http.StatusBadGateway, CheckoutRetryResponse{
				Error: domain.ErrProviderUnavailable.Error(),
				Order: orderToResponse(result.Order),
			})
			return
		}
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CheckoutResponse{
		Order: orderToResponse(result.Order),
		Payment: PaymentResponse{
			Provider:  string(result.Intent.Provider),
			Reference: result.Intent.ProviderReference,
			Status:    string(result.Intent.Status),
			Payload:   result.Intent.Payload,
		},
	})
}

type PayOrderRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required,oneof=pix card boleto"`
}

// Pay POST RouteGroup + PayOrderRoute.
func (o *OrdersHandler) Pay(c *gin.Context) {
	currentActorID := getActorIDFromContext(c)

	orderID, idErr := strconv.ParseInt(c.Param("id"), 10, 64)
	if idErr != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	var req PayOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortPublic(c, http.StatusUnprocessableEntity, err)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, checkoutTimeout)
	defer cancel()

	intent, err := o.orderSvs.RetryPayment(reqCtx, currentActorID, orderID,
		domain.PaymentMethod(req.PaymentMethod))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, PaymentResponse{
		Provider:  string(intent.Provider),
		Reference: intent.ProviderReference,
		Status:    string(intent.Status),
		Payload:   intent.Payload,
	})
}

// Orders GET RouteGroup + OrdersRoute.
func (o *OrdersHandler) Orders(c *gin.Context) {
	currentActorID := getActorIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	orders, err := o.orderSvs.GetByBuyerID(reqCtx, currentActorID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	if len(orders) == 0 {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, ordersToResponse(orders))
}

// Sales GET RouteGroup + SalesRoute.
func (o *OrdersHandler) Sales(c *gin.Context) {
	currentActorID := getActorIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	orders, err := o.orderSvs.GetBySellerID(reqCtx, currentActorID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	if len(orders) == 0 {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, ordersToResponse(orders))
}

type ShippingQuotesRequest struct {
	ProductID int64  `form:"product_id" binding:"required"`
	Zip       string `form:"zip" binding:"required,cep"`
}

type ShippingQuoteResponse struct {
	ServiceID       string `json:"service_id"`
	Carrier         string `json:"carrier"`
	PriceCents      int64  `json:"price_cents"`
	DeliveryMinDays int    `json:"delivery_min_days"`
	DeliveryMaxDays int    `json:"delivery_max_days"`
	FetchedAt       string `json:"fetched_at"`
}

// ShippingQuotes GET RouteGroup + ShippingQuotesRoute.
func (o *OrdersHandler) ShippingQuotes(c *gin.Context) {
	var req ShippingQuotesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		abortPublic(c, http.StatusUnprocessableEntity, err)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, checkoutTimeout)
	defer cancel()

	quotes, err := o.shippingSvs.Quotes(reqCtx, req.ProductID, req.Zip)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	response := make([]ShippingQuoteResponse, len(quotes))
	for i, quote := range quotes {
		response[i] = ShippingQuoteResponse{
			ServiceID:       quote.ServiceID,
			Carrier:         quote.CarrierName,
			PriceCents:      quote.PriceCents,
			DeliveryMinDays: quote.DeliveryMinDays,
			DeliveryMaxDays: quote.DeliveryMaxDays,
			FetchedAt:       quote.FetchedAt.Format(time.RFC3339),
		}
	}
	c.JSON(http.StatusOK, response)
}
