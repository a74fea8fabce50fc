// Package sqlite implements the record store on an embedded SQLite database.
// Full scans follow rowid order, which is creation order.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/paydesk/internal/domain"
	"github.com/spec-kit/paydesk/internal/repository"
)

const (
	timestampLayout = time.RFC3339Nano
	dateLayout      = "2006-01-02"
)

// New wires the three repositories over db. The schema must already be migrated.
func New(db *sql.DB) repository.Store {
	clock := time.Now
	return repository.Store{
		Agents:      &agentRepository{db: db, now: clock},
		Departments: &departmentRepository{db: db, now: clock},
		Payments:    &paymentRepository{db: db, now: clock},
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nullable(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func fromNullable(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func parseTimestamp(v string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", v, err)
	}
	return t, nil
}

const agentColumns = `id, last_name, first_name, email, credential, role, department_id, created_at, updated_at`

type agentRepository struct {
	db  *sql.DB
	now func() time.Time
}

func (r *agentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	const query = `
        INSERT INTO agents (id, last_name, first_name, email, credential, role, department_id, created_at, updated_at)
        VALUES (?,?,?,?,?,?,?,?,?)`
	id := uuid.NewString()
	now := r.now().UTC()
	stamp := now.Format(timestampLayout)
	if _, err := r.db.ExecContext(ctx, query,
		id,
		agent.LastName,
		agent.FirstName,
		agent.Email,
		agent.Credential,
		string(agent.Role),
		nullable(agent.DepartmentID),
		stamp,
		stamp,
	); err != nil {
		return err
	}
	agent.ID = id
	agent.CreatedAt, agent.UpdatedAt = now, now
	return nil
}

func (r *agentRepository) Update(ctx context.Context, agent *domain.Agent) error {
	const query = `
        UPDATE agents
        SET last_name=?, first_name=?, email=?, credential=?, role=?, department_id=?, updated_at=?
        WHERE id=?`
	now := r.now().UTC()
	if err := affected(r.db.ExecContext(ctx, query,
		agent.LastName,
		agent.FirstName,
		agent.Email,
		agent.Credential,
		string(agent.Role),
		nullable(agent.DepartmentID),
		now.Format(timestampLayout),
		agent.ID,
	)); err != nil {
		return err
	}
	agent.UpdatedAt = now
	return nil
}

func (r *agentRepository) Delete(ctx context.Context, id string) error {
	return affected(r.db.ExecContext(ctx, `DELETE FROM agents WHERE id=?`, id))
}

func (r *agentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	agent, err := scanAgent(r.db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE id=?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return agent, nil
}

func (r *agentRepository) GetByEmail(ctx context.Context, email string) (*domain.Agent, error) {
	agent, err := scanAgent(r.db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE email=?`, email))
	if err != nil {
		return nil, notFound(err)
	}
	return agent, nil
}

func (r *agentRepository) List(ctx context.Context) ([]domain.Agent, error) {
	return r.list(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY rowid`)
}

func (r *agentRepository) ListByDepartment(ctx context.Context, departmentID string) ([]domain.Agent, error) {
	return r.list(ctx, `SELECT `+agentColumns+` FROM agents WHERE department_id=? ORDER BY rowid`, departmentID)
}

func (r *agentRepository) ListByRole(ctx context.Context, role domain.AgentRole) ([]domain.Agent, error) {
	return r.list(ctx, `SELECT `+agentColumns+` FROM agents WHERE role=? ORDER BY rowid`, string(role))
}

func (r *agentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Agent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []domain.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *agent)
	}
	return result, rows.Err()
}

func scanAgent(row scanner) (*domain.Agent, error) {
	var (
		agent                domain.Agent
		role                 string
		departmentID         sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&agent.ID,
		&agent.LastName,
		&agent.FirstName,
		&agent.Email,
		&agent.Credential,
		&role,
		&departmentID,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	agent.Role = domain.AgentRole(role)
	agent.DepartmentID = fromNullable(departmentID)
	var err error
	if agent.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if agent.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}
	return &agent, nil
}

const departmentColumns = `id, name, responsible_id, created_at, updated_at`

type departmentRepository struct {
	db  *sql.DB
	now func() time.Time
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (id, name, responsible_id, created_at, updated_at)
        VALUES (?,?,?,?,?)`
	id := uuid.NewString()
	now := r.now().UTC()
	stamp := now.Format(timestampLayout)
	if _, err := r.db.ExecContext(ctx, query, id, dept.Name, nullable(dept.ResponsibleID), stamp, stamp); err != nil {
		return err
	}
	dept.ID = id
	dept.CreatedAt, dept.UpdatedAt = now, now
	return nil
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	const query = `UPDATE departments SET name=?, responsible_id=?, updated_at=? WHERE id=?`
	now := r.now().UTC()
	if err := affected(r.db.ExecContext(ctx, query,
		dept.Name,
		nullable(dept.ResponsibleID),
		now.Format(timestampLayout),
		dept.ID,
	)); err != nil {
		return err
	}
	dept.UpdatedAt = now
	return nil
}

func (r *departmentRepository) Delete(ctx context.Context, id string) error {
	return affected(r.db.ExecContext(ctx, `DELETE FROM departments WHERE id=?`, id))
}

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	dept, err := scanDepartment(r.db.QueryRowContext(ctx, `SELECT `+departmentColumns+` FROM departments WHERE id=?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return dept, nil
}

func (r *departmentRepository) GetByName(ctx context.Context, name string) (*domain.Department, error) {
	dept, err := scanDepartment(r.db.QueryRowContext(ctx, `SELECT `+departmentColumns+` FROM departments WHERE name=?`, name))
	if err != nil {
		return nil, notFound(err)
	}
	return dept, nil
}

func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	return r.list(ctx, `SELECT `+departmentColumns+` FROM departments ORDER BY rowid`)
}

func (r *departmentRepository) ListByResponsible(ctx context.Context, agentID string) ([]domain.Department, error) {
	return r.list(ctx, `SELECT `+departmentColumns+` FROM departments WHERE responsible_id=? ORDER BY rowid`, agentID)
}

func (r *departmentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Department, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []domain.Department
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *dept)
	}
	return result, rows.Err()
}

func scanDepartment(row scanner) (*domain.Department, error) {
	var (
		dept                 domain.Department
		responsibleID        sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&dept.ID, &dept.Name, &responsibleID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	dept.ResponsibleID = fromNullable(responsibleID)
	var err error
	if dept.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if dept.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}
	return &dept, nil
}

const paymentColumns = `id, type, amount, reason, paid_on, condition_validated, agent_id, created_at`

type paymentRepository struct {
	db  *sql.DB
	now func() time.Time
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	const query = `
        INSERT INTO payments (id, type, amount, reason, paid_on, condition_validated, agent_id, created_at)
        VALUES (?,?,?,?,?,?,?,?)`
	id := uuid.NewString()
	now := r.now().UTC()
	if _, err := r.db.ExecContext(ctx, query,
		id,
		string(payment.Type),
		payment.Amount,
		payment.Reason,
		payment.Date.Format(dateLayout),
		boolInt(payment.ConditionValidated),
		payment.AgentID,
		now.Format(timestampLayout),
	); err != nil {
		return err
	}
	payment.ID = id
	payment.CreatedAt = now
	return nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	const query = `
        UPDATE payments SET type=?, amount=?, reason=?, paid_on=?, condition_validated=?
        WHERE id=?`
	return affected(r.db.ExecContext(ctx, query,
		string(payment.Type),
		payment.Amount,
		payment.Reason,
		payment.Date.Format(dateLayout),
		boolInt(payment.ConditionValidated),
		payment.ID,
	))
}

func (r *paymentRepository) Delete(ctx context.Context, id string) error {
	return affected(r.db.ExecContext(ctx, `DELETE FROM payments WHERE id=?`, id))
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	payment, err := scanPayment(r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=?`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return payment, nil
}

func (r *paymentRepository) List(ctx context.Context) ([]domain.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY rowid`)
}

func (r *paymentRepository) ListByAgent(ctx context.Context, agentID string) ([]domain.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE agent_id=? ORDER BY rowid`, agentID)
}

func (r *paymentRepository) ListByType(ctx context.Context, paymentType domain.PaymentType) ([]domain.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE type=? ORDER BY rowid`, string(paymentType))
}

func (r *paymentRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]domain.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM payments WHERE paid_on BETWEEN ? AND ? ORDER BY rowid`,
		start.Format(dateLayout), end.Format(dateLayout))
}

func (r *paymentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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

func scanPayment(row scanner) (*domain.Payment, error) {
	var (
		payment        domain.Payment
		paymentType    string
		paidOn, stamp  string
		conditionValid int64
	)
	if err := row.Scan(
		&payment.ID,
		&paymentType,
		&payment.Amount,
		&payment.Reason,
		&paidOn,
		&conditionValid,
		&payment.AgentID,
		&stamp,
	); err != nil {
		return nil, err
	}
	payment.Type = domain.PaymentType(paymentType)
	payment.ConditionValidated = conditionValid != 0
	date, err := time.Parse(dateLayout, paidOn)
	if err != nil {
		return nil, fmt.Errorf("parse paid_on %q: %w", paidOn, err)
	}
	payment.Date = date
	if payment.CreatedAt, err = parseTimestamp(stamp); err != nil {
		return nil, err
	}
	return &payment, nil
}
