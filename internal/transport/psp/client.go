// Package psp holds the payment provider adapters (pix, card, boleto). Each
// adapter implements service.ProviderAdapter and maps its wire failures onto
// the domain sentinels, so callers never see provider-specific errors.
package psp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/brechodigital/brecho-core/internal/domain"
)

const maxResponseBytes = 1 << 20

// postJSON sends body to url and decodes the response into out. Non-2xx
// statuses come back as domain sentinels: 402/422 are a rejection, anything
// else (429, 5xx, transport failures) is retryable unavailability.
func postJSON(ctx context.Context, client *http.Client, url string, body any, out any) (err error) {
	payload, marshalErr := json.Marshal(body)
	if marshalErr != nil {
		return fmt.Errorf("marshal request: %s", marshalErr.Error())
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if reqErr != nil {
		return fmt.Errorf("create request: %s", reqErr.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, doErr := client.Do(req)
	if doErr != nil {
		return fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, doErr.Error())
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if readErr != nil {
		return fmt.Errorf("%w: read response: %s", domain.ErrProviderUnavailable, readErr.Error())
	}

	if convertedErr := convertStatusErr(resp.StatusCode, raw); convertedErr != nil {
		return convertedErr
	}

	if out == nil {
		return nil
	}
	if jsonErr := json.Unmarshal(raw, out); jsonErr != nil {
		return fmt.Errorf("%w: parse response: %s", domain.ErrProviderUnavailable, jsonErr.Error())
	}
	return nil
}

func convertStatusErr(statusCode int, body []byte) error {
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	reason := rejectionReason(body)
	switch statusCode {
	case http.StatusPaymentRequired, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrPaymentRejected, reason)
	default:
		return fmt.Errorf("%w: unexpected status code %d", domain.ErrProviderUnavailable, statusCode)
	}
}

func rejectionReason(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return "payment declined"
}
