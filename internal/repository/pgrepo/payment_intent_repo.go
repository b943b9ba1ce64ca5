package pgrepo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/internal/repository/repoargs"
	"github.com/brechodigital/brecho-core/pkg/uow"
)

const intentColumns = `id, created_at, updated_at, order_id, provider, provider_reference,
	status, payload, idempotency_key`

type PaymentIntentRepository struct {
	db uow.DBTX
}

func NewPaymentIntentRepository(db uow.DBTX) *PaymentIntentRepository {
	return &PaymentIntentRepository{db: db}
}

func (r *PaymentIntentRepository) Create(ctx context.Context, args repoargs.CreatePaymentIntent) (*domain.PaymentIntent, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO payment_intents (order_id, provider, provider_reference, status, payload, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+intentColumns,
		args.OrderID, args.Provider, args.ProviderReference, args.Status, args.Payload, args.IdempotencyKey,
	)
	intent, err := scanIntent(row)
	if err != nil {
		return nil, convertErr(err, "creating payment intent for order `%d`", args.OrderID)
	}
	return intent, nil
}

// FindActiveByOrder returns the order's created or confirmed intent.
// domain.ErrRecordNotFound when the order has none.
func (r *PaymentIntentRepository) FindActiveByOrder(ctx context.Context, orderID int64) (*domain.PaymentIntent, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+intentColumns+` FROM payment_intents
		WHERE order_id = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC LIMIT 1`,
		orderID, domain.IntentStatusCreated, domain.IntentStatusConfirmed,
	)
	intent, err := scanIntent(row)
	if err != nil {
		return nil, convertErr(err, "finding active intent for order `%d`", orderID)
	}
	return intent, nil
}

func (r *PaymentIntentRepository) FindByProviderReference(ctx context.Context, provider domain.PaymentMethod, reference string) (*domain.PaymentIntent, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+intentColumns+` FROM payment_intents
		WHERE provider = $1 AND provider_reference = $2`,
		provider, reference,
	)
	intent, err := scanIntent(row)
	if err != nil {
		return nil, convertErr(err, "finding intent by reference `%s/%s`", provider, reference)
	}
	return intent, nil
}

func (r *PaymentIntentRepository) UpdateStatus(ctx context.Context, id int64, status domain.IntentStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE payment_intents SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return convertErr(err, "updating intent `%d` to `%s`", id, status)
	}
	if tag.RowsAffected() == 0 {
		return convertErr(pgx.ErrNoRows, "updating intent `%d` to `%s`", id, status)
	}
	return nil
}

// ExpireActiveByOrder invalidates the order's prior intents. Re-checkout with
// a different method calls this before creating the replacement.
func (r *PaymentIntentRepository) ExpireActiveByOrder(ctx context.Context, orderID int64) error {
	if _, err := r.db.Exec(ctx, `
		UPDATE payment_intents SET status = $1, updated_at = now()
		WHERE order_id = $2 AND status = $3`,
		domain.IntentStatusExpired, orderID, domain.IntentStatusCreated); err != nil {
		return convertErr(err, "expiring intents for order `%d`", orderID)
	}
	return nil
}

func scanIntent(row pgx.Row) (*domain.PaymentIntent, error) {
	var intent domain.PaymentIntent
	err := row.Scan(
		&intent.ID, &intent.CreatedAt, &intent.UpdatedAt, &intent.OrderID,
		&intent.Provider, &intent.ProviderReference, &intent.Status,
		&intent.Payload, &intent.IdempotencyKey,
	)
	if err != nil {
		return nil, err
	}
	return &intent, nil
}
