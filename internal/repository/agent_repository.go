package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/paydesk/internal/domain"
)

const agentColumns = `id, last_name, first_name, email, credential, role, department_id, created_at, updated_at`

type agentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository instantiates the postgres agent repository.
func NewAgentRepository(pool *pgxpool.Pool) AgentRepository {
	return &agentRepository{pool: pool}
}

func (r *agentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	const query = `
        INSERT INTO agents (last_name, first_name, email, credential, role, department_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		agent.LastName,
		agent.FirstName,
		agent.Email,
		agent.Credential,
		agent.Role,
		agent.DepartmentID,
	).Scan(&agent.ID, &agent.CreatedAt, &agent.UpdatedAt)
}

func (r *agentRepository) Update(ctx context.Context, agent *domain.Agent) error {
	if !validID(agent.ID) {
		return ErrNotFound
	}
	const query = `
        UPDATE agents
        SET last_name=$1, first_name=$2, email=$3, credential=$4, role=$5, department_id=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		agent.LastName,
		agent.FirstName,
		agent.Email,
		agent.Credential,
		agent.Role,
		agent.DepartmentID,
		agent.ID,
	).Scan(&agent.UpdatedAt)
	return notFound(err)
}

func (r *agentRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM agents WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *agentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+agentColumns+` FROM agents WHERE id=$1`, id)
}

func (r *agentRepository) GetByEmail(ctx context.Context, email string) (*domain.Agent, error) {
	return r.getOne(ctx, `SELECT `+agentColumns+` FROM agents WHERE email=$1`, email)
}

func (r *agentRepository) List(ctx context.Context) ([]domain.Agent, error) {
	return r.list(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY created_at, id`)
}

func (r *agentRepository) ListByDepartment(ctx context.Context, departmentID string) ([]domain.Agent, error) {
	if !validID(departmentID) {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+agentColumns+` FROM agents WHERE department_id=$1 ORDER BY created_at, id`, departmentID)
}

func (r *agentRepository) ListByRole(ctx context.Context, role domain.AgentRole) ([]domain.Agent, error) {
	return r.list(ctx, `SELECT `+agentColumns+` FROM agents WHERE role=$1 ORDER BY created_at, id`, role)
}

func (r *agentRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Agent, error) {
	agent, err := scanAgent(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return agent, nil
}

func (r *agentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Agent, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

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

func scanAgent(row pgx.Row) (*domain.Agent, error) {
	var agent domain.Agent
	if err := row.Scan(
		&agent.ID,
		&agent.LastName,
		&agent.FirstName,
		&agent.Email,
		&agent.Credential,
		&agent.Role,
		&agent.DepartmentID,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &agent, nil
}

// notFound maps pgx.ErrNoRows onto ErrNotFound and passes every other error through.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// validID reports whether id can be bound to a UUID column. Anything else
// cannot name a stored row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
