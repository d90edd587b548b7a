package importer_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kurochkinivan/shipment_tracker/internal/domain"
	"github.com/kurochkinivan/shipment_tracker/internal/importer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogFixture struct {
	catalog *fakeCatalog

	tokyo *domain.Department
	osaka *domain.Department

	desk  *domain.Item
	chair *domain.Item

	tanaka *domain.User
}

// newCatalogFixture builds a small two-department world: Tokyo owns a desk,
// Osaka owns a chair, Tanaka works in Tokyo.
func newCatalogFixture() *catalogFixture {
	tokyo := &domain.Department{ID: uuid.New(), Name: "Tokyo"}
	osaka := &domain.Department{ID: uuid.New(), Name: "Osaka"}

	desk := &domain.Item{ID: uuid.New(), Name: "Desk", DepartmentID: tokyo.ID}
	chair := &domain.Item{ID: uuid.New(), Name: "Chair", DepartmentID: osaka.ID}

	tanaka := &domain.User{ID: uuid.New(), Name: "Tanaka", Role: domain.RoleDepartment, DepartmentID: tokyo.ID}

	return &catalogFixture{
		catalog: &fakeCatalog{
			items:       []*domain.Item{desk, chair},
			departments: []*domain.Department{tokyo, osaka},
			users:       []*domain.User{tanaka},
		},
		tokyo:  tokyo,
		osaka:  osaka,
		desk:   desk,
		chair:  chair,
		tanaka: tanaka,
	}
}

func (f *catalogFixture) validator() *importer.Validator {
	return importer.NewValidator(slog.New(slog.DiscardHandler), f.catalog, f.catalog, f.catalog)
}

func (f *catalogFixture) departmentUser() *domain.User {
	return &domain.User{ID: uuid.New(), Name: "Sato", Role: domain.RoleDepartment, DepartmentID: f.tokyo.ID}
}

func (f *catalogFixture) managementUser() *domain.User {
	return &domain.User{ID: uuid.New(), Name: "Suzuki", Role: domain.RoleManagement, DepartmentID: f.osaka.ID}
}

func row(fields importer.ImportRow) importer.Row {
	return importer.Row{
		Fields: fields,
		Raw: domain.RawRow{
			"item_name":                   fields.ItemName,
			"quantity":                    fields.Quantity,
			"destination_department_name": fields.DestinationDepartmentName,
		},
	}
}

func TestValidator_Validate_HappyPath(t *testing.T) {
	t.Parallel()

	fixture := newCatalogFixture()
	uploader := fixture.departmentUser()

	rows := []importer.Row{row(importer.ImportRow{
		ItemName:                  "Desk",
		Quantity:                  "3",
		DestinationDepartmentName: "Tokyo",
		ShipmentUserName:          "Tanaka",
		TrackingNumber:            "TRK-9",
		Notes:                     "handle with care",
		ShippedAt:                 "2025-01-15 09:30",
	})}

	drafts, rowErrors, err := fixture.validator().Validate(t.Context(), uploader, rows)
	require.NoError(t, err)
	require.Empty(t, rowErrors)
	require.Len(t, drafts, 1)

	draft := drafts[0]
	assert.Equal(t, fixture.desk.ID, draft.ItemID)
	assert.Equal(t, 3, draft.Quantity)
	assert.Equal(t, fixture.tokyo.ID, draft.DestinationDepartmentID)
	assert.Equal(t, uploader.DepartmentID, draft.ShipmentDepartmentID)
	require.NotNil(t, draft.ShipmentUserID)
	assert.Equal(t, fixture.tanaka.ID, *draft.ShipmentUserID)
	assert.Equal(t, "TRK-9", draft.TrackingNumber)
	require.NotNil(t, draft.ShippedAt)
	assert.Equal(t, time.Date(2025, time.January, 15, 9, 30, 0, 0, time.UTC), *draft.ShippedAt)
}

func TestValidator_Validate_RowNumbersSkipHeader(t *testing.T) {
	t.Parallel()

	fixture := newCatalogFixture()

	rows := []importer.Row{
		row(importer.ImportRow{ItemName: "Desk", Quantity: "1", DestinationDepartmentName: "Tokyo"}),
		row(importer.ImportRow{ItemName: "Desk", Quantity: "zero", DestinationDepartmentName: "Tokyo"}),
		row(importer.ImportRow{ItemName: "Desk", Quantity: "1", DestinationDepartmentName: "Tokyo"}),
	}

	drafts, rowErrors, err := fixture.validator().Validate(t.Context(), fixture.departmentUser(), rows)
	require.NoError(t, err)
	assert.Len(t, drafts, 2)
	require.Len(t, rowErrors, 1)

	// The second data row is row 3 of the file, after the header.
	assert.Equal(t, 3, rowErrors[0].RowNumber)
	assert.Equal(t, "invalid quantity: zero", rowErrors[0].ErrorMessage)
	assert.Equal(t, "zero", rowErrors[0].RowData["quantity"])
}

func TestValidator_Validate_RequiredFields(t *testing.T) {
	t.Parallel()

	fixture := newCatalogFixture()

	rows := []importer.Row{
		row(importer.ImportRow{Quantity: "1", DestinationDepartmentName: "Tokyo"}),
		row(importer.ImportRow{ItemName: "Desk", DestinationDepartmentName: "Tokyo"}),
		row(importer.ImportRow{ItemName: "Desk", Quantity: "1"}),
		row(importer.ImportRow{ItemName: "  ", Quantity: "1", DestinationDepartmentName: "Tokyo"}),
	}

	drafts, rowErrors, err := fixture.validator().Validate(t.Context(), fixture.departmentUser(), rows)
	require.NoError(t, err)
	assert.Empty(t, drafts)
	require.Len(t, rowErrors, 4)

	for _, rowErr := range rowErrors {
		assert.Equal(t, "required fields missing", rowErr.ErrorMessage)
	}
}

func TestValidator_Validate_ItemScopedToUploaderDepartment(t *testing.T) {
	t.Parallel()

	fixture := newCatalogFixture()

	// Chair belongs to Osaka, so a Tokyo department user cannot reference it.
	rows := []importer.Row{row(importer.ImportRow{ItemName: "Chair", Quantity: "1", DestinationDepartmentName: "Tokyo"})}

	_, rowErrors, err := fixture.validator().Validate(t.Context(), fixture.departmentUser(), rows)
	require.NoError(t, err)
	require.Len(t, rowErrors, 1)
	assert.Equal(t, "item not found: Chair", rowErrors[0].ErrorMessage)

	// Management sees the whole catalog.
	drafts, rowErrors, err := fixture.validator().Validate(t.Context(), fixture.managementUser(), rows)
	require.NoError(t, err)
	require.Empty(t, rowErrors)
	require.Len(t, drafts, 1)
	assert.Equal(t, fixture.chair.ID, drafts[0].ItemID)
}

func TestValidator_Validate_InvalidQuantity(t *testing.T) {
	t.Parallel()

	fixture := newCatalogFixture()

	rows := []importer.Row{
		row(importer.ImportRow{ItemName: "Desk", Quantity: "0", DestinationDepartmentName: "Tokyo"}),
		row(importer.ImportRow{ItemName: "Desk", Quantity: "-1", DestinationDepartmentName: "Tokyo"}),
		row(importer.ImportRow{ItemName: "Desk", Quantity: "many", DestinationDepartmentName: "Tokyo"}),
	}

	_, rowErrors, err := fixture.validator().Validate(t.Context(), fixture.departmentUser(), rows)
	require.NoError(t, err)
	require.Len(t, rowErrors, 3)
	assert.Equal(t, "invalid quantity: 0", rowErrors[0].ErrorMessage)
	assert.Equal(t, "invalid quantity: -1", rowErrors[1].ErrorMessage)
	assert.Equal(t, "invalid quantity: many", rowErrors[2].ErrorMessage)
}

func TestValidator_Validate_UnknownDestination(t *testing.T) {
	t.Parallel()

	fixture := newCatalogFixture()

	rows := []importer.Row{row(importer.ImportRow{ItemName: "Desk", Quantity: "1", DestinationDepartmentName: "Nagoya"})}

	_, rowErrors, err := fixture.validator().Validate(t.Context(), fixture.departmentUser(), rows)
	require.NoError(t, err)
	require.Len(t, rowErrors, 1)
	assert.Equal(t, "destination department not found: Nagoya", rowErrors[0].ErrorMessage)
}

func TestValidator_Validate_ShipmentDepartmentOverride(t *testing.T) {
	t.Parallel()

	fixture := newCatalogFixture()

	rows := []importer.Row{row(importer.ImportRow{
		ItemName:                  "Desk",
		Quantity:                  "1",
		DestinationDepartmentName: "Tokyo",
		ShipmentDepartmentName:    "Osaka",
	})}

	// A department user may not redirect the shipment source.
	_, rowErrors, err := fixture.validator().Validate(t.Context(), fixture.departmentUser(), rows)
	require.NoError(t, err)
	require.Len(t, rowErrors, 1)
	assert.Equal(t, "regular users cannot specify a shipment department", rowErrors[0].ErrorMessage)

	// Management may, and the named department must exist.
	drafts, rowErrors, err := fixture.validator().Validate(t.Context(), fixture.managementUser(), rows)
	require.NoError(t, err)
	require.Empty(t, rowErrors)
	require.Len(t, drafts, 1)
	assert.Equal(t, fixture.osaka.ID, drafts[0].ShipmentDepartmentID)

	rows = []importer.Row{row(importer.ImportRow{
		ItemName:                  "Desk",
		Quantity:                  "1",
		DestinationDepartmentName: "Tokyo",
		ShipmentDepartmentName:    "Nagoya",
	})}

	_, rowErrors, err = fixture.validator().Validate(t.Context(), fixture.managementUser(), rows)
	require.NoError(t, err)
	require.Len(t, rowErrors, 1)
	assert.Equal(t, "shipment department not found: Nagoya", rowErrors[0].ErrorMessage)
}

func TestValidator_Validate_ShipmentUserScopedToDestination(t *testing.T) {
	t.Parallel()

	fixture := newCatalogFixture()

	// Tanaka works in Tokyo, not Osaka, so naming them for an Osaka-bound
	// shipment fails even though the user exists.
	rows := []importer.Row{row(importer.ImportRow{
		ItemName:                  "Chair",
		Quantity:                  "1",
		DestinationDepartmentName: "Osaka",
		ShipmentUserName:          "Tanaka",
	})}

	_, rowErrors, err := fixture.validator().Validate(t.Context(), fixture.managementUser(), rows)
	require.NoError(t, err)
	require.Len(t, rowErrors, 1)
	assert.Equal(t, "user Tanaka not found in department Osaka", rowErrors[0].ErrorMessage)
}

func TestValidator_Validate_InvalidShippedAt(t *testing.T) {
	t.Parallel()

	fixture := newCatalogFixture()

	rows := []importer.Row{row(importer.ImportRow{
		ItemName:                  "Desk",
		Quantity:                  "1",
		DestinationDepartmentName: "Tokyo",
		ShippedAt:                 "next tuesday",
	})}

	_, rowErrors, err := fixture.validator().Validate(t.Context(), fixture.departmentUser(), rows)
	require.NoError(t, err)
	require.Len(t, rowErrors, 1)
	assert.Equal(t, "invalid shipped_at: next tuesday", rowErrors[0].ErrorMessage)
}
