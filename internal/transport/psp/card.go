package psp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/brechodigital/brecho-core/internal/service"
)

const (
	routeCardCharges = "/v1/card/charges"
	routeCardRefunds = "/v1/card/refunds"
)

// CardAdapter authorizes card charges. Capture is asynchronous: the order
// stays pending_payment until the processor's confirmation webhook lands, so
// the intent carries no payload, only the charge token reference.
type CardAdapter struct {
	baseURL    string
	httpClient *http.Client
}

func NewCardAdapter(baseURL string) *CardAdapter {
	return &CardAdapter{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

type cardChargeRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Reference   string `json:"reference"`
}

type cardChargeResponse struct {
	ChargeID string `json:"charge_id"`
	Status   string `json:"status"`
}

func (a *CardAdapter) CreateIntent(ctx context.Context, amountCents int64, orderRef string) (*service.RawIntent, error) {
	var resp cardChargeResponse
	err := postJSON(ctx, a.httpClient, a.baseURL+routeCardCharges,
		cardChargeRequest{AmountCents: amountCents, Reference: orderRef}, &resp)
	if err != nil {
		return nil, fmt.Errorf("card charge for `%s`: %w", orderRef, err)
	}

	return &service.RawIntent{
		ProviderReference: resp.ChargeID,
	}, nil
}

func (a *CardAdapter) Refund(ctx context.Context, providerReference string) error {
	err := postJSON(ctx, a.httpClient, a.baseURL+routeCardRefunds,
		map[string]string{"charge_id": providerReference}, nil)
	if err != nil {
		return fmt.Errorf("card refund for `%s`: %w", providerReference, err)
	}
	return nil
}
