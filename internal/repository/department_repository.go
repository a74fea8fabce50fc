package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/paydesk/internal/domain"
)

const departmentColumns = `id, name, responsible_id, created_at, updated_at`

type departmentRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentRepository builds the postgres department repository.
func NewDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &departmentRepository{pool: pool}
}

func (r *departmentRepository) Create(ctx context.Context, dept *domain.Department) error {
	const query = `
        INSERT INTO departments (name, responsible_id)
        VALUES ($1,$2)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		dept.Name,
		dept.ResponsibleID,
	).Scan(&dept.ID, &dept.CreatedAt, &dept.UpdatedAt)
}

func (r *departmentRepository) Update(ctx context.Context, dept *domain.Department) error {
	if !validID(dept.ID) {
		return ErrNotFound
	}
	const query = `
        UPDATE departments SET name=$1, responsible_id=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		dept.Name,
		dept.ResponsibleID,
		dept.ID,
	).Scan(&dept.UpdatedAt)
	return notFound(err)
}

func (r *departmentRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM departments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *departmentRepository) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+departmentColumns+` FROM departments WHERE id=$1`, id)
}

func (r *departmentRepository) GetByName(ctx context.Context, name string) (*domain.Department, error) {
	return r.getOne(ctx, `SELECT `+departmentColumns+` FROM departments WHERE name=$1`, name)
}

func (r *departmentRepository) List(ctx context.Context) ([]domain.Department, error) {
	return r.list(ctx, `SELECT `+departmentColumns+` FROM departments ORDER BY created_at, id`)
}

func (r *departmentRepository) ListByResponsible(ctx context.Context, agentID string) ([]domain.Department, error) {
	if !validID(agentID) {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+departmentColumns+` FROM departments WHERE responsible_id=$1 ORDER BY created_at, id`, agentID)
}

func (r *departmentRepository) getOne(ctx context.Context, query string, args ...any) (*domain.Department, error) {
	dept, err := scanDepartment(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return dept, nil
}

func (r *departmentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Department, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

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

func scanDepartment(row pgx.Row) (*domain.Department, error) {
	var dept domain.Department
	if err := row.Scan(&dept.ID, &dept.Name, &dept.ResponsibleID, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
		return nil, err
	}
	return &dept, nil
}
