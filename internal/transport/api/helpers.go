package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/internal/service"
	"github.com/brechodigital/brecho-core/internal/transport/api/middlewares"
)

func getActorIDFromContext(c *gin.Context) int64 {
	return c.GetInt64(middlewares.CurrentActorIDKey)
}

// abortWithServiceError maps a service layer error onto the HTTP contract:
// 404 missing, 402 payment or balance problems, 409 lifecycle conflicts,
// 422 rejected input, 502 when a provider is down. Anything unclassified is a
// private 500.
func abortWithServiceError(c *gin.Context, err error) {
	var illegal *domain.IllegalTransitionError
	var stale *domain.StaleTransitionError

	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		c.AbortWithStatus(http.StatusNotFound)
	case errors.Is(err, domain.ErrPaymentRejected),
		errors.Is(err, domain.ErrNotEnoughBalance):
		abortPublic(c, http.StatusPaymentRequired, err)
	case errors.Is(err, domain.ErrProviderUnavailable):
		abortPublic(c, http.StatusBadGateway, err)
	case errors.As(err, &illegal),
		errors.As(err, &stale),
		errors.Is(err, domain.ErrIntentNotConfirmed),
		errors.Is(err, domain.ErrDuplicateKey):
		abortPublic(c, http.StatusConflict, err)
	case errors.Is(err, domain.ErrTrackingCodeRequired),
		errors.Is(err, domain.ErrQuoteExpired),
		errors.Is(err, domain.ErrAddressNotOwned),
		errors.Is(err, domain.ErrBelowMinWithdrawal),
		errors.Is(err, domain.ErrInvalidRateConfig),
		errors.Is(err, service.ErrUnknownSetting):
		abortPublic(c, http.StatusUnprocessableEntity, err)
	default:
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
	}
}

func abortPublic(c *gin.Context, status int, err error) {
	_ = c.AbortWithError(status, err).SetType(gin.ErrorTypePublic)
}
