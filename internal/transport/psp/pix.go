package psp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/brechodigital/brecho-core/internal/service"
)

const (
	routePixCharges = "/v1/pix/charges"
	routePixRefunds = "/v1/pix/refunds"
)

// PixAdapter creates instant pix charges. The provider answers synchronously
// with the QR payload the buyer scans.
type PixAdapter struct {
	baseURL    string
	httpClient *http.Client
}

func NewPixAdapter(baseURL string) *PixAdapter {
	return &PixAdapter{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

type pixChargeRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Reference   string `json:"reference"`
}

type pixChargeResponse struct {
	TxID         string `json:"txid"`
	QRCodeBase64 string `json:"qr_code_base64"`
}

func (a *PixAdapter) CreateIntent(ctx context.Context, amountCents int64, orderRef string) (*service.RawIntent, error) {
	var resp pixChargeResponse
	err := postJSON(ctx, a.httpClient, a.baseURL+routePixCharges,
		pixChargeRequest{AmountCents: amountCents, Reference: orderRef}, &resp)
	if err != nil {
		return nil, fmt.Errorf("pix charge for `%s`: %w", orderRef, err)
	}

	return &service.RawIntent{
		ProviderReference: resp.TxID,
		Payload:           resp.QRCodeBase64,
	}, nil
}

func (a *PixAdapter) Refund(ctx context.Context, providerReference string) error {
	err := postJSON(ctx, a.httpClient, a.baseURL+routePixRefunds,
		map[string]string{"txid": providerReference}, nil)
	if err != nil {
		return fmt.Errorf("pix refund for `%s`: %w", providerReference, err)
	}
	return nil
}
