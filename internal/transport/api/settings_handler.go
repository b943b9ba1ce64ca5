package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brechodigital/brecho-core/internal/domain"
)

type SettingsHandler struct {
	settingsSvs SettingsServicer
}

func NewSettingsHandler(settingsSvs SettingsServicer) *SettingsHandler {
	return &SettingsHandler{
		settingsSvs: settingsSvs,
	}
}

// FeeScheduleResponse mirrors the settings screen: rates are decimal strings,
// fixed amounts are integer cents.
type FeeScheduleResponse struct {
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`

	CommissionFree    string `json:"commission_free"`
	CommissionPremium string `json:"commission_premium"`
	PixFee            string `json:"pix_fee"`
	CardFeePercent    string `json:"card_fee_percent"`
	CashbackBuyer     string `json:"cashback_buyer"`

	CardFeeFixed  int64 `json:"card_fee_fixed"`
	BoletoFee     int64 `json:"boleto_fee"`
	WithdrawalFee int64 `json:"withdrawal_fee"`
	MinWithdrawal int64 `json:"min_withdrawal"`
	ReleaseDays   int   `json:"release_days"`
}

func scheduleToResponse(schedule *domain.FeeSchedule) FeeScheduleResponse {
	return FeeScheduleResponse{
		Version:           schedule.Version,
		CreatedAt:         schedule.CreatedAt,
		CommissionFree:    schedule.CommissionFreeRate.String(),
		CommissionPremium: schedule.CommissionPremiumRate.String(),
		PixFee:            schedule.PixFeeRate.String(),
		CardFeePercent:    schedule.CardFeePercent.String(),
		CashbackBuyer:     schedule.CashbackBuyerRate.String(),
		CardFeeFixed:      schedule.CardFeeFixed,
		BoletoFee:         schedule.BoletoFeeFixed,
		WithdrawalFee:     schedule.WithdrawalFeeFixed,
		MinWithdrawal:     schedule.MinWithdrawal,
		ReleaseDays:       schedule.ReleaseDays,
	}
}

// Show GET RouteGroup + AdminSettingsRoute.
func (s *SettingsHandler) Show(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	schedule, err := s.settingsSvs.Current(reqCtx)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scheduleToResponse(schedule))
}

type SettingUpdateRequest struct {
	Value string `json:"value" binding:"required"`
}

// Update PUT RouteGroup + AdminSettingRoute. Publishes a new schedule version
// with a single key changed.
func (s *SettingsHandler) Update(c *gin.Context) {
	key := c.Param("key")

	var req SettingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortPublic(c, http.StatusUnprocessableEntity, err)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	schedule, err := s.settingsSvs.UpdateSetting(reqCtx, key, req.Value)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scheduleToResponse(schedule))
}
