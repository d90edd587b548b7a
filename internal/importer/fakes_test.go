package importer_test

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/kurochkinivan/shipment_tracker/internal/domain"
)

// fakeCatalog is an in-memory stand-in for the catalog repository. Lookups
// follow the store contract: misses return domain.ErrNotFound.
type fakeCatalog struct {
	items       []*domain.Item
	departments []*domain.Department
	users       []*domain.User
}

func (f *fakeCatalog) ItemByName(_ context.Context, name string, departmentID *uuid.UUID) (*domain.Item, error) {
	for _, item := range f.items {
		if item.Name != name {
			continue
		}
		if departmentID != nil && item.DepartmentID != *departmentID {
			continue
		}
		return item, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCatalog) DepartmentByName(_ context.Context, name string) (*domain.Department, error) {
	for _, department := range f.departments {
		if department.Name == name {
			return department, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCatalog) DepartmentByID(_ context.Context, id uuid.UUID) (*domain.Department, error) {
	for _, department := range f.departments {
		if department.ID == id {
			return department, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCatalog) UserByNameInDepartment(_ context.Context, name string, departmentID uuid.UUID) (*domain.User, error) {
	for _, user := range f.users {
		if user.Name == name && user.DepartmentID == departmentID {
			return user, nil
		}
	}
	return nil, domain.ErrNotFound
}

// fakeShipmentsSaver collects saved shipments and can be told to fail after a
// number of successful inserts.
type fakeShipmentsSaver struct {
	mu        sync.Mutex
	shipments []*domain.Shipment
	failAfter int
}

func newFakeShipmentsSaver() *fakeShipmentsSaver {
	return &fakeShipmentsSaver{failAfter: -1}
}

func (f *fakeShipmentsSaver) SaveShipment(_ context.Context, shipment *domain.Shipment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAfter >= 0 && len(f.shipments) >= f.failAfter {
		return errors.New("insert failed")
	}

	f.shipments = append(f.shipments, shipment)

	return nil
}

func (f *fakeShipmentsSaver) saved() []*domain.Shipment {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*domain.Shipment(nil), f.shipments...)
}

// fakeTransactor mimics transactional semantics over the fake saver: a failed
// callback discards everything saved inside it.
type fakeTransactor struct {
	saver *fakeShipmentsSaver
}

func (f *fakeTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.saver.mu.Lock()
	snapshot := len(f.saver.shipments)
	f.saver.mu.Unlock()

	if err := fn(ctx); err != nil {
		f.saver.mu.Lock()
		f.saver.shipments = f.saver.shipments[:snapshot]
		f.saver.mu.Unlock()

		return err
	}

	return nil
}

type finishCall struct {
	status         domain.ImportRunStatus
	successRecords int
	errorRecords   int
}

// fakeRunLedger records ledger writes for assertions.
type fakeRunLedger struct {
	mu        sync.Mutex
	created   []*domain.ImportRun
	finished  map[uuid.UUID]finishCall
	rowErrors []*domain.ImportRowError
}

func newFakeRunLedger() *fakeRunLedger {
	return &fakeRunLedger{finished: make(map[uuid.UUID]finishCall)}
}

func (f *fakeRunLedger) CreateRun(_ context.Context, run *domain.ImportRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := *run
	f.created = append(f.created, &copied)

	return nil
}

func (f *fakeRunLedger) FinishRun(_ context.Context, id uuid.UUID, status domain.ImportRunStatus, successRecords, errorRecords int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.finished[id]; ok {
		return errors.New("run already finished")
	}

	f.finished[id] = finishCall{
		status:         status,
		successRecords: successRecords,
		errorRecords:   errorRecords,
	}

	return nil
}

func (f *fakeRunLedger) SaveRowErrors(_ context.Context, rowErrors []*domain.ImportRowError) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.rowErrors = append(f.rowErrors, rowErrors...)

	return nil
}
