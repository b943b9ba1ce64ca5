package psp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/brechodigital/brecho-core/internal/service"
)

const (
	routeBoletoCharges = "/v1/boleto/charges"
	routeBoletoRefunds = "/v1/boleto/refunds"
)

// BoletoAdapter issues boletos. The provider answers synchronously with the
// barcode and the printable URL; both travel in the intent payload.
type BoletoAdapter struct {
	baseURL    string
	httpClient *http.Client
}

func NewBoletoAdapter(baseURL string) *BoletoAdapter {
	return &BoletoAdapter{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

type boletoChargeRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Reference   string `json:"reference"`
}

type boletoChargeResponse struct {
	ID      string `json:"id"`
	Barcode string `json:"barcode"`
	URL     string `json:"url"`
}

// BoletoPayload is the normalized payload stored on the intent.
type BoletoPayload struct {
	Barcode string `json:"barcode"`
	URL     string `json:"url"`
}

func (a *BoletoAdapter) CreateIntent(ctx context.Context, amountCents int64, orderRef string) (*service.RawIntent, error) {
	var resp boletoChargeResponse
	err := postJSON(ctx, a.httpClient, a.baseURL+routeBoletoCharges,
		boletoChargeRequest{AmountCents: amountCents, Reference: orderRef}, &resp)
	if err != nil {
		return nil, fmt.Errorf("boleto charge for `%s`: %w", orderRef, err)
	}

	payload, marshalErr := json.Marshal(BoletoPayload{Barcode: resp.Barcode, URL: resp.URL})
	if marshalErr != nil {
		return nil, fmt.Errorf("boleto charge for `%s`: marshal payload: %s", orderRef, marshalErr.Error())
	}

	return &service.RawIntent{
		ProviderReference: resp.ID,
		Payload:           string(payload),
	}, nil
}

func (a *BoletoAdapter) Refund(ctx context.Context, providerReference string) error {
	err := postJSON(ctx, a.httpClient, a.baseURL+routeBoletoRefunds,
		map[string]string{"id": providerReference}, nil)
	if err != nil {
		return fmt.Errorf("boleto refund for `%s`: %w", providerReference, err)
	}
	return nil
}
