package pgrepo

import (
	"context"

	"github.com/brechodigital/brecho-core/internal/domain"
	"github.com/brechodigital/brecho-core/pkg/uow"
)

type StatusHistoryRepository struct {
	db uow.DBTX
}

func NewStatusHistoryRepository(db uow.DBTX) *StatusHistoryRepository {
	return &StatusHistoryRepository{db: db}
}

// Append records one transition. History rows are never updated or deleted.
func (r *StatusHistoryRepository) Append(ctx context.Context, change domain.StatusChange) (*domain.StatusChange, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO order_status_history (order_id, from_status, to_status, actor, note)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, order_id, from_status, to_status, actor, note, at`,
		change.OrderID, change.From, change.To, change.Actor, change.Note,
	)

	var out domain.StatusChange
	if err := row.Scan(&out.ID, &out.OrderID, &out.From, &out.To, &out.Actor, &out.Note, &out.At); err != nil {
		return nil, convertErr(err, "appending status history for order `%d`", change.OrderID)
	}
	return &out, nil
}

func (r *StatusHistoryRepository) GetByOrderID(ctx context.Context, orderID int64) ([]domain.StatusChange, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, from_status, to_status, actor, note, at
		FROM order_status_history WHERE order_id = $1 ORDER BY at, id`, orderID)
	if err != nil {
		return nil, convertErr(err, "getting status history for order `%d`", orderID)
	}
	defer rows.Close()

	var changes []domain.StatusChange
	for rows.Next() {
		var change domain.StatusChange
		if scanErr := rows.Scan(&change.ID, &change.OrderID, &change.From, &change.To,
			&change.Actor, &change.Note, &change.At); scanErr != nil {
			return nil, convertErr(scanErr, "getting status history for order `%d`", orderID)
		}
		changes = append(changes, change)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting status history for order `%d`", orderID)
	}
	return changes, nil
}
