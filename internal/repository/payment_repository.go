package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/paydesk/internal/domain"
)

const paymentColumns = `id, type, amount, reason, paid_on, condition_validated, agent_id, created_at`

type paymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository builds the postgres payment repository.
func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepository{pool: pool}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	const query = `
        INSERT INTO payments (type, amount, reason, paid_on, condition_validated, agent_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		payment.Type,
		payment.Amount,
		payment.Reason,
		payment.Date,
		payment.ConditionValidated,
		payment.AgentID,
	).Scan(&payment.ID, &payment.CreatedAt)
}

func (r *paymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	if !validID(payment.ID) {
		return ErrNotFound
	}
	const query = `
        UPDATE payments SET type=$1, amount=$2, reason=$3, paid_on=$4, condition_validated=$5
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		payment.Type,
		payment.Amount,
		payment.Reason,
		payment.Date,
		payment.ConditionValidated,
		payment.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *paymentRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM payments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	payment, err := scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return payment, nil
}

func (r *paymentRepository) List(ctx context.Context) ([]domain.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY created_at, id`)
}

func (r *paymentRepository) ListByAgent(ctx context.Context, agentID string) ([]domain.Payment, error) {
	if !validID(agentID) {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE agent_id=$1 ORDER BY created_at, id`, agentID)
}

func (r *paymentRepository) ListByType(ctx context.Context, paymentType domain.PaymentType) ([]domain.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE type=$1 ORDER BY created_at, id`, paymentType)
}

func (r *paymentRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]domain.Payment, error) {
	return r.list(ctx, `
        SELECT `+paymentColumns+` FROM payments
        WHERE paid_on BETWEEN $1 AND $2
        ORDER BY created_at, id`,
		domain.CalendarDate(start), domain.CalendarDate(end))
}

func (r *paymentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *payment)
	}
	return result, rows.Err()
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var payment domain.Payment
	if err := row.Scan(
		&payment.ID,
		&payment.Type,
		&payment.Amount,
		&payment.Reason,
		&payment.Date,
		&payment.ConditionValidated,
		&payment.AgentID,
		&payment.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &payment, nil
}
