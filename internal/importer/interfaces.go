package importer

import (
	"context"

	"github.com/google/uuid"
	"github.com/kurochkinivan/shipment_tracker/internal/domain"
)

type ItemFinder interface {
	// ItemByName resolves an item by exact trimmed name. A non-nil
	// departmentID additionally scopes the lookup to that department.
	ItemByName(ctx context.Context, name string, departmentID *uuid.UUID) (*domain.Item, error)
}

type DepartmentFinder interface {
	DepartmentByName(ctx context.Context, name string) (*domain.Department, error)
	DepartmentByID(ctx context.Context, id uuid.UUID) (*domain.Department, error)
}

type UserFinder interface {
	UserByNameInDepartment(ctx context.Context, name string, departmentID uuid.UUID) (*domain.User, error)
}

type ShipmentsSaver interface {
	SaveShipment(ctx context.Context, shipment *domain.Shipment) error
}

type RunLedger interface {
	CreateRun(ctx context.Context, run *domain.ImportRun) error
	FinishRun(ctx context.Context, id uuid.UUID, status domain.ImportRunStatus, successRecords, errorRecords int) error
	SaveRowErrors(ctx context.Context, rowErrors []*domain.ImportRowError) error
}

type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
