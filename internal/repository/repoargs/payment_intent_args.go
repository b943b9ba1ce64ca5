package repoargs

import "github.com/brechodigital/brecho-core/internal/domain"

type CreatePaymentIntent struct {
	OrderID           int64
	Provider          domain.PaymentMethod
	ProviderReference string
	Status            domain.IntentStatus
	Payload           string
	IdempotencyKey    string
}
