package pgrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/internal/repository/repoargs"
	"github.com/brechodigital/brecho-core/pkg/uow"
)

const orderColumns = `id, created_at, updated_at, order_number, buyer_id, seller_id, product_id,
	status, payment_method, tracking_code,
	gross_cents, shipping_cents, commission_cents, payment_fee_cents, cashback_cents,
	seller_receives_cents, total_charged_cents, fee_schedule_version, seller_tier,
	delivered_at, payout_available_at`

type OrderRepository struct {
	db uow.DBTX
}

func NewOrderRepository(db uow.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

func (o *OrderRepository) Create(ctx context.Context, args repoargs.CreateOrder) (*domain.Order, error) {
	row := o.db.QueryRow(ctx, `
		INSERT INTO orders (
			order_number, buyer_id, seller_id, product_id, status, payment_method,
			gross_cents, shipping_cents, commission_cents, payment_fee_cents, cashback_cents,
			seller_receives_cents, total_charged_cents, fee_schedule_version, seller_tier
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+orderColumns,
		args.OrderNumber, args.BuyerID, args.SellerID, args.ProductID,
		domain.OrderStatusPendingPayment, args.PaymentMethod,
		args.Settlement.GrossCents, args.Settlement.ShippingCents, args.Settlement.CommissionCents,
		args.Settlement.PaymentFeeCents, args.Settlement.CashbackCents,
		args.Settlement.SellerReceivesCents, args.Settlement.TotalChargedCents,
		args.Settlement.FeeScheduleVersion, args.Settlement.SellerTier,
	)

	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "creating order `%s`", args.OrderNumber)
	}
	return order, nil
}

func (o *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	row := o.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "finding order by id `%d`", id)
	}
	return order, nil
}

func (o *OrderRepository) FindByOrderNumber(ctx context.Context, number string) (*domain.Order, error) {
	row := o.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, number)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "finding order by number `%s`", number)
	}
	return order, nil
}

// UpdateStatusCAS applies a compare-and-set status update. Returns false with
// a nil error when the order is no longer in args.From; the caller turns that
// into a stale-transition conflict.
func (o *OrderRepository) UpdateStatusCAS(ctx context.Context, args repoargs.StatusCAS) (bool, error) {
	tag, err := o.db.Exec(ctx, `
		UPDATE orders SET
			status = $1,
			updated_at = now(),
			tracking_code = CASE WHEN $2 <> '' THEN $2 ELSE tracking_code END,
			delivered_at = CASE WHEN $1 = 'delivered' THEN now() ELSE delivered_at END,
			payout_available_at = COALESCE($3, payout_available_at)
		WHERE id = $4 AND status = $5`,
		args.To, args.TrackingCode, args.PayoutAvailableAt, args.OrderID, args.From,
	)
	if err != nil {
		return false, convertErr(err, "updating status of order `%d` to `%s`", args.OrderID, args.To)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes a draft that never became an order (the provider rejected
// the intent). Completed orders are never deleted.
func (o *OrderRepository) Delete(ctx context.Context, id int64) error {
	if _, err := o.db.Exec(ctx, `DELETE FROM orders WHERE id = $1 AND status = $2`,
		id, domain.OrderStatusPendingPayment); err != nil {
		return convertErr(err, "deleting draft order `%d`", id)
	}
	return nil
}

func (o *OrderRepository) GetByBuyerID(ctx context.Context, buyerID int64) ([]domain.Order, error) {
	rows, err := o.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE buyer_id = $1 ORDER BY created_at DESC`, buyerID)
	if err != nil {
		return nil, convertErr(err, "getting orders by buyer `%d`", buyerID)
	}
	return collectOrders(rows, "getting orders by buyer `%d`", buyerID)
}

func (o *OrderRepository) GetBySellerID(ctx context.Context, sellerID int64) ([]domain.Order, error) {
	rows, err := o.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE seller_id = $1 ORDER BY created_at DESC`, sellerID)
	if err != nil {
		return nil, convertErr(err, "getting orders by seller `%d`", sellerID)
	}
	return collectOrders(rows, "getting orders by seller `%d`", sellerID)
}

func (o *OrderRepository) List(ctx context.Context, args repoargs.ListOrders) ([]domain.Order, error) {
	offset := (args.Page - 1) * args.PerPage
	var rows pgx.Rows
	var err error
	if args.Status == "" {
		rows, err = o.db.Query(ctx,
			`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			args.PerPage, offset)
	} else {
		rows, err = o.db.Query(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			args.Status, args.PerPage, offset)
	}
	if err != nil {
		return nil, convertErr(err, "listing orders page `%d`", args.Page)
	}
	return collectOrders(rows, "listing orders page `%d`", args.Page)
}

// GetStats aggregates the admin dashboard numbers. Revenue and commission
// count orders with a captured payment (paid and later, excluding cancelled
// and refunded).
func (o *OrderRepository) GetStats(ctx context.Context) (*repoargs.OrderStats, error) {
	rows, err := o.db.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total_charged_cents), 0), COALESCE(SUM(commission_cents), 0)
		FROM orders GROUP BY status`)
	if err != nil {
		return nil, convertErr(err, "aggregating order stats")
	}
	defer rows.Close()

	stats := repoargs.OrderStats{CountByStatus: make(map[domain.OrderStatus]int64)}
	for rows.Next() {
		var status domain.OrderStatus
		var count, revenue, commission int64
		if scanErr := rows.Scan(&status, &count, &revenue, &commission); scanErr != nil {
			return nil, convertErr(scanErr, "aggregating order stats")
		}
		stats.CountByStatus[status] = count
		switch status {
		case domain.OrderStatusPaid, domain.OrderStatusPendingShipment, domain.OrderStatusShipped,
			domain.OrderStatusDelivered, domain.OrderStatusCompleted:
			stats.TotalRevenueCents += revenue
			stats.TotalCommissionCents += commission
		}
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "aggregating order stats")
	}
	return &stats, nil
}

// GetDeliveredDue returns delivered orders whose release hold has lapsed.
func (o *OrderRepository) GetDeliveredDue(ctx context.Context, now time.Time, limit int) ([]domain.Order, error) {
	rows, err := o.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE status = $1 AND payout_available_at IS NOT NULL AND payout_available_at <= $2
		ORDER BY payout_available_at LIMIT $3`,
		domain.OrderStatusDelivered, now, limit)
	if err != nil {
		return nil, convertErr(err, "getting delivered orders due for completion")
	}
	return collectOrders(rows, "getting delivered orders due for completion")
}

// GetExpiredPendingPayment returns pending_payment drafts created before
// cutoff, i.e. past the bounded retry window.
func (o *OrderRepository) GetExpiredPendingPayment(ctx context.Context, cutoff time.Time, limit int) ([]domain.Order, error) {
	rows, err := o.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at LIMIT $3`,
		domain.OrderStatusPendingPayment, cutoff, limit)
	if err != nil {
		return nil, convertErr(err, "getting expired pending_payment orders")
	}
	return collectOrders(rows, "getting expired pending_payment orders")
}

func collectOrders(rows pgx.Rows, errFormat string, errArgs ...any) ([]domain.Order, error) {
	defer rows.Close()
	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, convertErr(err, errFormat, errArgs...)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, convertErr(err, errFormat, errArgs...)
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID, &order.CreatedAt, &order.UpdatedAt, &order.OrderNumber,
		&order.BuyerID, &order.SellerID, &order.ProductID,
		&order.Status, &order.PaymentMethod, &order.TrackingCode,
		&order.Settlement.GrossCents, &order.Settlement.ShippingCents,
		&order.Settlement.CommissionCents, &order.Settlement.PaymentFeeCents,
		&order.Settlement.CashbackCents, &order.Settlement.SellerReceivesCents,
		&order.Settlement.TotalChargedCents, &order.Settlement.FeeScheduleVersion,
		&order.Settlement.SellerTier,
		&order.DeliveredAt, &order.PayoutAvailableAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}
