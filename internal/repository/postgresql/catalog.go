package postgresql

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kurochkinivan/shipment_tracker/internal/domain"
)

const (
	TableItems       = "items"
	TableDepartments = "departments"
	TableUsers       = "users"
)

// CatalogRepository serves the import validator's name-based reference
// lookups over items, departments and users.
type CatalogRepository struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{
		pool: pool,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *CatalogRepository) ItemByName(ctx context.Context, name string, departmentID *uuid.UUID) (*domain.Item, error) {
	db := extractDB(ctx, r.pool)

	builder := r.qb.
		Select("id", "name", "department_id").
		From(TableItems).
		Where(sq.Eq{"name": name})

	if departmentID != nil {
		builder = builder.Where(sq.Eq{"department_id": *departmentID})
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	item, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByNameLax[domain.Item])
	if err != nil {
		return nil, collectOneError(err)
	}

	return item, nil
}

func (r *CatalogRepository) DepartmentByName(ctx context.Context, name string) (*domain.Department, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select("id", "name").
		From(TableDepartments).
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	department, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByNameLax[domain.Department])
	if err != nil {
		return nil, collectOneError(err)
	}

	return department, nil
}

func (r *CatalogRepository) DepartmentByID(ctx context.Context, id uuid.UUID) (*domain.Department, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select("id", "name").
		From(TableDepartments).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	department, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByNameLax[domain.Department])
	if err != nil {
		return nil, collectOneError(err)
	}

	return department, nil
}

func (r *CatalogRepository) UserByNameInDepartment(ctx context.Context, name string, departmentID uuid.UUID) (*domain.User, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select("id", "name", "role", "department_id").
		From(TableUsers).
		Where(sq.Eq{"name": name, "department_id": departmentID}).
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	user, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByNameLax[domain.User])
	if err != nil {
		return nil, collectOneError(err)
	}

	return user, nil
}
