package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/internal/repository/repoargs"
	"github.com/brechodigital/brecho-core/internal/service"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type AdminHandler struct {
	orderSvs OrderServicer
}

func NewAdminHandler(orderSvs OrderServicer) *AdminHandler {
	return &AdminHandler{
		orderSvs: orderSvs,
	}
}

type AdminListRequest struct {
	Status  string `form:"status"`
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
}

// Index GET RouteGroup + AdminOrdersRoute.
func (a *AdminHandler) Index(c *gin.Context) {
	var req AdminListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		abortPublic(c, http.StatusUnprocessableEntity, err)
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > maxPerPage {
		req.PerPage = defaultPerPage
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	orders, err := a.orderSvs.List(reqCtx, repoargs.ListOrders{
		Status:  domain.OrderStatus(req.Status),
		Page:    req.Page,
		PerPage: req.PerPage,
	})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersToResponse(orders))
}

type StatusChangeResponse struct {
	From  domain.OrderStatus `json:"from"`
	To    domain.OrderStatus `json:"to"`
	Actor string             `json:"actor"`
	Note  string             `json:"note,omitempty"`
	At    time.Time          `json:"at"`
}

type AdminOrderResponse struct {
	Order          OrderResponse          `json:"order"`
	AllowedActions []domain.OrderStatus   `json:"allowed_actions"`
	History        []StatusChangeResponse `json:"history"`
}

// Show GET RouteGroup + AdminOrderRoute.
func (a *AdminHandler) Show(c *gin.Context) {
	orderID, idErr := strconv.ParseInt(c.Param("id"), 10, 64)
	if idErr != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	order, orderErr := a.orderSvs.GetByID(reqCtx, orderID)
	if orderErr != nil {
		abortWithServiceError(c, orderErr)
		return
	}

	actions, actionsErr := a.orderSvs.AllowedActions(reqCtx, orderID)
	if actionsErr != nil {
		abortWithServiceError(c, actionsErr)
		return
	}

	history, histErr := a.orderSvs.GetHistory(reqCtx, orderID)
	if histErr != nil {
		abortWithServiceError(c, histErr)
		return
	}

	changes := make([]StatusChangeResponse, len(history))
	for i, change := range history {
		changes[i] = StatusChangeResponse{
			From:  change.From,
			To:    change.To,
			Actor: string(change.Actor),
			Note:  change.Note,
			At:    change.At,
		}
	}

	c.JSON(http.StatusOK, AdminOrderResponse{
		Order:          orderToResponse(order),
		AllowedActions: actions,
		History:        changes,
	})
}

// Actions GET RouteGroup + AdminOrderActionsRoute.
func (a *AdminHandler) Actions(c *gin.Context) {
	orderID, idErr := strconv.ParseInt(c.Param("id"), 10, 64)
	if idErr != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	actions, err := a.orderSvs.AllowedActions(reqCtx, orderID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"allowed_actions": actions})
}

type StatusUpdateRequest struct {
	Status       string `json:"status" binding:"required"`
	TrackingCode string `json:"tracking_code"`
	Note         string `json:"note"`
}

// UpdateStatus POST RouteGroup + AdminOrderStatusRoute.
func (a *AdminHandler) UpdateStatus(c *gin.Context) {
	orderID, idErr := strconv.ParseInt(c.Param("id"), 10, 64)
	if idErr != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortPublic(c, http.StatusUnprocessableEntity, err)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, checkoutTimeout)
	defer cancel()

	order, err := a.orderSvs.ApplyStatusUpdate(reqCtx, orderID,
		domain.OrderStatus(req.Status), domain.ActorAdmin, service.StatusUpdateExtra{
			TrackingCode: req.TrackingCode,
			Note:         req.Note,
		})
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderToResponse(order))
}

type StatsResponse struct {
	CountByStatus        map[domain.OrderStatus]int64 `json:"count_by_status"`
	TotalRevenueCents    int64                        `json:"total_revenue_cents"`
	TotalCommissionCents int64                        `json:"total_commission_cents"`
}

// Stats GET RouteGroup + AdminOrderStatsRoute.
func (a *AdminHandler) Stats(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	stats, err := a.orderSvs.GetStats(reqCtx)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, StatsResponse{
		CountByStatus:        stats.CountByStatus,
		TotalRevenueCents:    stats.TotalRevenueCents,
		TotalCommissionCents: stats.TotalCommissionCents,
	})
}
