package postgresql

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kurochkinivan/shipment_tracker/internal/domain"
)

const TableShipments = "shipments"

var shipmentColumns = []string{
	"s.id",
	"s.item_id",
	"s.quantity",
	"s.sender_id",
	"s.shipment_department_id",
	"s.destination_department_id",
	"s.shipment_user_id",
	"s.tracking_number",
	"s.notes",
	"s.shipped_at",
	"s.created_by",
	"s.updated_by",
	"s.created_at",
	"s.updated_at",
}

type ShipmentsRepository struct {
	pool *pgxpool.Pool
	qb   sq.StatementBuilderType
}

func NewShipmentsRepository(pool *pgxpool.Pool) *ShipmentsRepository {
	return &ShipmentsRepository{
		pool: pool,
		qb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ShipmentsRepository) SaveShipment(ctx context.Context, shipment *domain.Shipment) error {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Insert(TableShipments).
		Columns(
			"id",
			"item_id",
			"quantity",
			"sender_id",
			"shipment_department_id",
			"destination_department_id",
			"shipment_user_id",
			"tracking_number",
			"notes",
			"shipped_at",
			"created_by",
			"updated_by",
		).
		Values(
			shipment.ID,
			shipment.ItemID,
			shipment.Quantity,
			shipment.SenderID,
			shipment.ShipmentDepartmentID,
			shipment.DestinationDepartmentID,
			shipment.ShipmentUserID,
			shipment.TrackingNumber,
			shipment.Notes,
			shipment.ShippedAt,
			shipment.CreatedBy,
			shipment.UpdatedBy,
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

func (r *ShipmentsRepository) ShipmentByID(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Select(shipmentColumns...).
		From(TableShipments + " s").
		Where(sq.Eq{"s.id": id}).
		ToSql()
	if err != nil {
		return nil, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, executeQueryError(err)
	}

	shipment, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByNameLax[domain.Shipment])
	if err != nil {
		return nil, collectOneError(err)
	}

	return shipment, nil
}

func (r *ShipmentsRepository) UpdateShipment(ctx context.Context, shipment *domain.Shipment) error {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Update(TableShipments).
		Set("item_id", shipment.ItemID).
		Set("quantity", shipment.Quantity).
		Set("destination_department_id", shipment.DestinationDepartmentID).
		Set("shipment_department_id", shipment.ShipmentDepartmentID).
		Set("shipment_user_id", shipment.ShipmentUserID).
		Set("tracking_number", shipment.TrackingNumber).
		Set("notes", shipment.Notes).
		Set("shipped_at", shipment.ShippedAt).
		Set("updated_by", shipment.UpdatedBy).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": shipment.ID}).
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

func (r *ShipmentsRepository) DeleteShipment(ctx context.Context, id uuid.UUID) error {
	db := extractDB(ctx, r.pool)

	sql, args, err := r.qb.
		Delete(TableShipments).
		Where(sq.Eq{"id": id}).
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

// Shipments returns the filtered page plus the total match count. Role
// visibility is enforced here, before any explicit filter: a department user
// only ever sees shipments originating from their own department.
func (r *ShipmentsRepository) Shipments(
	ctx context.Context,
	viewer *domain.User,
	filter domain.ShipmentFilter,
) ([]*domain.Shipment, int, error) {
	db := extractDB(ctx, r.pool)

	filter = filter.Normalize(time.Now())
	conditions := shipmentConditions(viewer, filter)

	sql, args, err := r.qb.
		Select("COUNT(*)").
		From(TableShipments + " s").
		Join(TableItems + " i ON i.id = s.item_id").
		Where(conditions).
		ToSql()
	if err != nil {
		return nil, -1, createQueryError(err)
	}

	var total int
	if err := db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return nil, -1, scanRowError(err)
	}

	sql, args, err = r.qb.
		Select(shipmentColumns...).
		From(TableShipments + " s").
		Join(TableItems + " i ON i.id = s.item_id").
		Where(conditions).
		OrderBy("s.shipped_at DESC NULLS LAST", "s.created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		ToSql()
	if err != nil {
		return nil, -1, createQueryError(err)
	}

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, -1, executeQueryError(err)
	}

	shipments, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByNameLax[domain.Shipment])
	if err != nil {
		return nil, -1, collectRowsError(err)
	}

	return shipments, total, nil
}

// shipmentConditions builds the predicate tree. Shipped records match on
// shipped_at, unshipped records match on created_at; the two branches form a
// top-level OR that every additional filter is ANDed against as a whole.
func shipmentConditions(viewer *domain.User, filter domain.ShipmentFilter) sq.And {
	window := sq.Or{
		sq.And{
			sq.NotEq{"s.shipped_at": nil},
			sq.GtOrEq{"s.shipped_at": *filter.From},
			sq.LtOrEq{"s.shipped_at": *filter.To},
		},
		sq.And{
			sq.Eq{"s.shipped_at": nil},
			sq.GtOrEq{"s.created_at": *filter.From},
			sq.LtOrEq{"s.created_at": *filter.To},
		},
	}

	conditions := sq.And{window}

	if viewer.Role.ScopedToOwnDepartment() {
		conditions = append(conditions, sq.Eq{"s.shipment_department_id": viewer.DepartmentID})
	} else {
		if filter.ShipmentDepartmentID != nil {
			conditions = append(conditions, sq.Eq{"s.shipment_department_id": *filter.ShipmentDepartmentID})
		}
		if filter.DestinationDepartmentID != nil {
			conditions = append(conditions, sq.Eq{"s.destination_department_id": *filter.DestinationDepartmentID})
		}
	}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conditions = append(conditions, sq.Or{
			sq.ILike{"s.tracking_number": pattern},
			sq.ILike{"s.notes": pattern},
			sq.ILike{"i.name": pattern},
		})
	}

	return conditions
}
