package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brechodigital/brecho-core/internal/domain"
)

type WalletHandler struct {
	walletSvs WalletServicer
}

func NewWalletHandler(walletSvs WalletServicer) *WalletHandler {
	return &WalletHandler{
		walletSvs: walletSvs,
	}
}

type WalletTransactionResponse struct {
	ID          int64     `json:"id"`
	OrderID     int64     `json:"order_id,omitempty"`
	Direction   string    `json:"direction"`
	Kind        string    `json:"kind"`
	AmountCents int64     `json:"amount_cents"`
	AvailableAt time.Time `json:"available_at"`
	CreatedAt   time.Time `json:"created_at"`
}

type WalletResponse struct {
	AvailableCents int64                       `json:"available_cents"`
	PendingCents   int64                       `json:"pending_cents"`
	WithdrawnCents int64                       `json:"withdrawn_cents"`
	Transactions   []WalletTransactionResponse `json:"transactions"`
}

func walletTxToResponse(tx *domain.WalletTransaction) WalletTransactionResponse {
	return WalletTransactionResponse{
		ID:          tx.ID,
		OrderID:     tx.OrderID,
		Direction:   string(tx.Direction),
		Kind:        string(tx.Kind),
		AmountCents: tx.AmountCents,
		AvailableAt: tx.AvailableAt,
		CreatedAt:   tx.CreatedAt,
	}
}

// Index GET RouteGroup + WalletRoute.
func (w *WalletHandler) Index(c *gin.Context) {
	currentActorID := getActorIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	balance, balanceErr := w.walletSvs.GetBalance(reqCtx, currentActorID)
	if balanceErr != nil {
		abortWithServiceError(c, balanceErr)
		return
	}

	transactions, txErr := w.walletSvs.GetTransactions(reqCtx, currentActorID)
	if txErr != nil {
		abortWithServiceError(c, txErr)
		return
	}

	response := WalletResponse{
		AvailableCents: balance.AvailableCents,
		PendingCents:   balance.PendingCents,
		WithdrawnCents: balance.WithdrawnCents,
		Transactions:   make([]WalletTransactionResponse, len(transactions)),
	}
	for i := range transactions {
		response.Transactions[i] = walletTxToResponse(&transactions[i])
	}
	c.JSON(http.StatusOK, response)
}

type WithdrawRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required,gt=0"`
}

// Withdraw POST RouteGroup + WalletWithdrawRoute.
func (w *WalletHandler) Withdraw(c *gin.Context) {
	currentActorID := getActorIDFromContext(c)

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortPublic(c, http.StatusUnprocessableEntity, err)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	tx, err := w.walletSvs.Withdraw(reqCtx, currentActorID, req.AmountCents)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, walletTxToResponse(tx))
}
