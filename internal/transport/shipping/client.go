// Package shipping fetches carrier quotes and caches them for the checkout
// window.
package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/brechodigital/brecho-core/internal/domain"
)

const routeQuotes = "/v1/quotes"

const maxResponseBytes = 1 << 20

// Quoter fetches quotes from the carrier aggregator.
type Quoter interface {
	Quote(ctx context.Context, productID int64, destinationZip string) ([]domain.ShippingQuote, error)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ Quoter = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

type quoteItem struct {
	ServiceID       string `json:"service_id"`
	Carrier         string `json:"carrier"`
	PriceCents      int64  `json:"price_cents"`
	DeliveryMinDays int    `json:"delivery_min_days"`
	DeliveryMaxDays int    `json:"delivery_max_days"`
}

func (c *HTTPClient) Quote(ctx context.Context, productID int64, destinationZip string) (_ []domain.ShippingQuote, err error) {
	endpoint := fmt.Sprintf("%s%s?product_id=%d&zip=%s",
		c.baseURL, routeQuotes, productID, url.QueryEscape(destinationZip))

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if reqErr != nil {
		return nil, fmt.Errorf("create request: %s", reqErr.Error())
	}

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("fetch quotes: %s", doErr.Error())
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch quotes: unexpected status code %d", resp.StatusCode)
	}

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if readErr != nil {
		return nil, fmt.Errorf("read quotes: %s", readErr.Error())
	}

	var items []quoteItem
	if jsonErr := json.Unmarshal(raw, &items); jsonErr != nil {
		return nil, fmt.Errorf("parse quotes: %s", jsonErr.Error())
	}

	now := time.Now()
	quotes := make([]domain.ShippingQuote, 0, len(items))
	for _, item := range items {
		quotes = append(quotes, domain.ShippingQuote{
			ServiceID:       item.ServiceID,
			CarrierName:     item.Carrier,
			PriceCents:      item.PriceCents,
			DeliveryMinDays: item.DeliveryMinDays,
			DeliveryMaxDays: item.DeliveryMaxDays,
			FetchedAt:       now,
		})
	}
	return quotes, nil
}
