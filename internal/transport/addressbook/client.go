// Package addressbook is the read-only client for the external address
// service. The engine only needs ownership and the destination zipcode.
package addressbook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/internal/service"
)

const routeAddresses = "/v1/addresses"

const maxResponseBytes = 1 << 20

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ service.AddressBook = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

type addressResponse struct {
	ID      int64  `json:"id"`
	UserID  int64  `json:"user_id"`
	Zipcode string `json:"zipcode"`
}

func (c *HTTPClient) GetAddress(ctx context.Context, addressID int64) (_ *domain.Address, err error) {
	endpoint := fmt.Sprintf("%s%s/%d", c.baseURL, routeAddresses, addressID)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if reqErr != nil {
		return nil, fmt.Errorf("create request: %s", reqErr.Error())
	}

	resp, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("fetch address %d: %s", addressID, doErr.Error())
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("fetch address %d: %w", addressID, domain.ErrRecordNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch address %d: unexpected status code %d", addressID, resp.StatusCode)
	}

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if readErr != nil {
		return nil, fmt.Errorf("read address %d: %s", addressID, readErr.Error())
	}

	var parsed addressResponse
	if jsonErr := json.Unmarshal(raw, &parsed); jsonErr != nil {
		return nil, fmt.Errorf("parse address %d: %s", addressID, jsonErr.Error())
	}

	return &domain.Address{
		ID:      parsed.ID,
		UserID:  parsed.UserID,
		Zipcode: parsed.Zipcode,
	}, nil
}
