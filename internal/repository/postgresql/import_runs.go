package postgresql

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kurochkinivan/shipment_tracker/internal/domain"
)

const (
	TableImportRuns      = "import_runs"
	TableImportRowErrors = "import_row_errors"
)

type ImportRunsRepository struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType
}

func NewImportRunsRepository(pool *pgxpool.Pool) *ImportRunsRepository {
	return &ImportRunsRepository{
		pool: pool,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ImportRunsRepository) CreateRun(ctx context.Context, run *domain.ImportRun) error {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Insert(TableImportRuns).
		Columns(
			"id",
			"file_name",
			"total_records",
			"success_records",
			"error_records",
			"uploaded_by",
			"status",
		).
		Values(
			run.ID,
			run.FileName,
			run.TotalRecords,
			run.SuccessRecords,
			run.ErrorRecords,
			run.UploadedBy,
			run.Status,
		).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	_, err = db.Exec(ctx, sql, args...)
	if err != nil {
		return executeQueryError(err)
	}

	return nil
}

// FinishRun moves a run to its terminal state. The status guard keeps the
// transition one-shot: a run that already completed or failed is never
// rewritten.
func (r *ImportRunsRepository) FinishRun(
	ctx context.Context,
	id uuid.UUID,
	status domain.ImportRunStatus,
	successRecords, errorRecords int,
) error {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Update(TableImportRuns).
		Set("status", status).
		Set("success_records", successRecords).
		Set("error_records", errorRecords).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id, "status": domain.ImportRunProcessing}).
		ToSql()
	if err != nil {
		return createQueryError(err)
	}

	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return executeQueryError(err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("import run %s is not in %s state", id, domain.ImportRunProcessing)
	}

	return nil
}

func (r *ImportRunsRepository) SaveRowErrors(ctx context.Context, rowErrors []*domain.ImportRowError) error {
	db := extractDB(ctx, r.pool)

	copied, err := db.CopyFrom(ctx, pgx.Identifier{TableImportRowErrors}, []string{
		"id",
		"bulk_import_id",
		"row_number",
		"error_message",
		"row_data",
	}, pgx.CopyFromSlice(len(rowErrors), func(i int) ([]any, error) {
		return []any{
			rowErrors[i].ID,
			rowErrors[i].BulkImportID,
			rowErrors[i].RowNumber,
			rowErrors[i].ErrorMessage,
			rowErrors[i].RowData,
		}, nil
	}))
	if err != nil {
		return fmt.Errorf("failed to save row errors: %w", err)
	}

	if copied != int64(len(rowErrors)) {
		return fmt.Errorf("failed to save row errors: copied %d rows, expected %d", copied, len(rowErrors))
	}

	return nil
}

func (r *ImportRunsRepository) RunByID(ctx context.Context, id uuid.UUID) (*domain.ImportRun, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select(
			"id",
			"file_name",
			"total_records",
			"success_records",
			"error_records",
			"uploaded_by",
			"status",
			"created_at",
			"updated_at",
		).
		From(TableImportRuns).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	run, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByNameLax[domain.ImportRun])
	if err != nil {
		return nil, collectOneError(err)
	}

	return run, nil
}

// Runs lists import history, newest first. A non-nil uploadedBy restricts the
// listing to that uploader.
func (r *ImportRunsRepository) Runs(ctx context.Context, uploadedBy *uuid.UUID, limit, offset uint64) ([]*domain.ImportRun, int, error) {
	db := extractDB(ctx, r.pool)

	countBuilder := r.qb.
		Select("COUNT(*)").
		From(TableImportRuns)
	if uploadedBy != nil {
		countBuilder = countBuilder.Where(sq.Eq{"uploaded_by": *uploadedBy})
	}

	sql, args, err := countBuilder.ToSql()
	if err != nil {
		return nil, -1, createQueryError(err)
	}

	var total int
	if err := db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, -1, scanRowError(err)
	}

	builder := r.qb.
		Select(
			"id",
			"file_name",
			"total_records",
			"success_records",
			"error_records",
			"uploaded_by",
			"status",
			"created_at",
			"updated_at",
		).
		From(TableImportRuns).
		OrderBy("created_at DESC").
		Limit(limit).
		Offset(offset)
	if uploadedBy != nil {
		builder = builder.Where(sq.Eq{"uploaded_by": *uploadedBy})
	}

	sql, args, err = builder.ToSql()
	if err != nil {
		return nil, -1, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, -1, executeQueryError(err)
	}

	runs, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.ImportRun])
	if err != nil {
		return nil, -1, collectRowsError(err)
	}

	return runs, total, nil
}

func (r *ImportRunsRepository) RowErrors(ctx context.Context, runID uuid.UUID) ([]*domain.ImportRowError, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select(
			"id",
			"bulk_import_id",
			"row_number",
			"error_message",
			"row_data",
			"created_at",
		).
		From(TableImportRowErrors).
		Where(sq.Eq{"bulk_import_id": runID}).
		OrderBy("row_number ASC").
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	rowErrors, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.ImportRowError])
	if err != nil {
		return nil, collectRowsError(err)
	}

	return rowErrors, nil
}
