package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kurochkinivan/shipment_tracker/internal/domain"
	"golang.org/x/sync/errgroup"
)

// lookupConcurrency bounds the validator's parallel reference lookups. Rows
// are independent, so ordering only matters when results are collected.
const lookupConcurrency = 8

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

// RowError is one rejected row together with its verbatim cell data.
type RowError struct {
	RowNumber    int
	ErrorMessage string
	RowData      domain.RawRow
}

type Validator struct {
	log         *slog.Logger
	items       ItemFinder
	departments DepartmentFinder
	users       UserFinder
}

func NewValidator(log *slog.Logger, items ItemFinder, departments DepartmentFinder, users UserFinder) *Validator {
	return &Validator{
		log:         log,
		items:       items,
		departments: departments,
		users:       users,
	}
}

// Validate resolves every row against the store and splits the batch into
// drafts and row errors. It performs reads only; the all-or-nothing commit
// decision is made by the caller. A non-nil error means an infrastructure
// failure, not a bad row: bad rows never abort scanning of the rest.
//
// Reported row numbers match the file's visual rows, header included, so the
// first data row is row 2.
func (v *Validator) Validate(ctx context.Context, uploader *domain.User, rows []Row) ([]*domain.ShipmentDraft, []RowError, error) {
	type slot struct {
		draft  *domain.ShipmentDraft
		rowErr *RowError
	}

	slots := make([]slot, len(rows))

	erg, ctx := errgroup.WithContext(ctx)
	erg.SetLimit(lookupConcurrency)

	for i, row := range rows {
		erg.Go(func() error {
			draft, message, err := v.validateRow(ctx, uploader, row.Fields)
			if err != nil {
				return err
			}

			if message != "" {
				slots[i].rowErr = &RowError{
					RowNumber:    i + 2,
					ErrorMessage: message,
					RowData:      row.Raw,
				}
				return nil
			}

			slots[i].draft = draft

			return nil
		})
	}

	if err := erg.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		drafts    []*domain.ShipmentDraft
		rowErrors []RowError
	)

	for _, s := range slots {
		switch {
		case s.rowErr != nil:
			rowErrors = append(rowErrors, *s.rowErr)
		case s.draft != nil:
			drafts = append(drafts, s.draft)
		}
	}

	v.log.Debug("validated rows",
		slog.Int("drafts", len(drafts)),
		slog.Int("row_errors", len(rowErrors)),
	)

	return drafts, rowErrors, nil
}

// validateRow returns either a draft or a row-level failure message. An error
// return aborts the whole batch and is reserved for store failures.
func (v *Validator) validateRow(ctx context.Context, uploader *domain.User, fields ImportRow) (*domain.ShipmentDraft, string, error) {
	itemName := strings.TrimSpace(fields.ItemName)
	quantityRaw := strings.TrimSpace(fields.Quantity)
	destinationName := strings.TrimSpace(fields.DestinationDepartmentName)

	if itemName == "" || quantityRaw == "" || destinationName == "" {
		return nil, "required fields missing", nil
	}

	var itemScope *uuid.UUID
	if uploader.Role.ScopedToOwnDepartment() {
		itemScope = &uploader.DepartmentID
	}

	item, err := v.items.ItemByName(ctx, itemName, itemScope)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Sprintf("item not found: %s", itemName), nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up item: %w", err)
	}

	quantity, err := strconv.Atoi(quantityRaw)
	if err != nil || quantity < 1 {
		return nil, fmt.Sprintf("invalid quantity: %s", quantityRaw), nil
	}

	destination, err := v.departments.DepartmentByName(ctx, destinationName)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Sprintf("destination department not found: %s", destinationName), nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up destination department: %w", err)
	}

	shipmentDepartmentID := uploader.DepartmentID
	if name := strings.TrimSpace(fields.ShipmentDepartmentName); name != "" {
		if !uploader.Role.CanOverrideShipmentDepartment() {
			return nil, "regular users cannot specify a shipment department", nil
		}

		department, err := v.departments.DepartmentByName(ctx, name)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Sprintf("shipment department not found: %s", name), nil
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to look up shipment department: %w", err)
		}

		shipmentDepartmentID = department.ID
	}

	draft := &domain.ShipmentDraft{
		ItemID:                  item.ID,
		Quantity:                quantity,
		DestinationDepartmentID: destination.ID,
		ShipmentDepartmentID:    shipmentDepartmentID,
		TrackingNumber:          strings.TrimSpace(fields.TrackingNumber),
		Notes:                   strings.TrimSpace(fields.Notes),
	}

	// The named recipient contact must belong to the destination department,
	// not the shipment department.
	if name := strings.TrimSpace(fields.ShipmentUserName); name != "" {
		shipmentUser, err := v.users.UserByNameInDepartment(ctx, name, destination.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Sprintf("user %s not found in department %s", name, destination.Name), nil
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to look up shipment user: %w", err)
		}

		draft.ShipmentUserID = &shipmentUser.ID
	}

	if raw := strings.TrimSpace(fields.ShippedAt); raw != "" {
		shippedAt, err := parseTimestamp(raw)
		if err != nil {
			return nil, fmt.Sprintf("invalid shipped_at: %s", raw), nil
		}

		draft.ShippedAt = &shippedAt
	}

	return draft, "", nil
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp format %q", raw)
}
