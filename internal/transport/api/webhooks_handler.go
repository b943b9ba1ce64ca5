package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/internal/service"
)

const (
	EventPaymentConfirmed  = "payment.confirmed"
	EventPaymentFailed     = "payment.failed"
	EventShipmentDelivered = "shipment.delivered"
)

var errUnknownWebhook = errors.New("unknown webhook payload")

type WebhooksHandler struct {
	orderSvs OrderServicer
}

func NewWebhooksHandler(orderSvs OrderServicer) *WebhooksHandler {
	return &WebhooksHandler{
		orderSvs: orderSvs,
	}
}

type WebhookRequest struct {
	Event        string `json:"event" binding:"required"`
	Reference    string `json:"reference"`
	OrderID      int64  `json:"order_id"`
	TrackingCode string `json:"tracking_code"`
}

// Receive POST RouteGroup + WebhookRoute. Payment providers send
// payment.confirmed / payment.failed with their charge reference; the carrier
// sends shipment.delivered with the order id. Replays are idempotent.
func (w *WebhooksHandler) Receive(c *gin.Context) {
	provider := c.Param("provider")

	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortPublic(c, http.StatusUnprocessableEntity, err)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, checkoutTimeout)
	defer cancel()

	switch req.Event {
	case EventPaymentConfirmed, EventPaymentFailed:
		method := domain.PaymentMethod(provider)
		if !method.Valid() || req.Reference == "" {
			abortPublic(c, http.StatusUnprocessableEntity, errUnknownWebhook)
			return
		}
		_, err := w.orderSvs.HandlePaymentEvent(reqCtx, method, req.Reference,
			req.Event == EventPaymentConfirmed)
		if err != nil {
			abortWithServiceError(c, err)
			return
		}
	case EventShipmentDelivered:
		if req.OrderID == 0 {
			abortPublic(c, http.StatusUnprocessableEntity, errUnknownWebhook)
			return
		}
		_, err := w.orderSvs.ApplyStatusUpdate(reqCtx, req.OrderID,
			domain.OrderStatusDelivered, domain.WebhookActor(provider),
			service.StatusUpdateExtra{TrackingCode: req.TrackingCode})
		if err != nil {
			// A replayed delivery notice for an already delivered order is a
			// no-op, not a conflict.
			var illegal *domain.IllegalTransitionError
			if errors.As(err, &illegal) && deliveredAlready(illegal.From) {
				break
			}
			abortWithServiceError(c, err)
			return
		}
	default:
		abortPublic(c, http.StatusUnprocessableEntity, errUnknownWebhook)
		return
	}

	c.Status(http.StatusOK)
}

func deliveredAlready(status domain.OrderStatus) bool {
	return status == domain.OrderStatusDelivered || status == domain.OrderStatusCompleted
}
