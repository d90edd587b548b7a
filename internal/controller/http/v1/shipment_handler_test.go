package v1

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kurochkinivan/shipment_tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShipmentFilter_Defaults(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shipments", nil)

	filter, err := parseShipmentFilter(req)
	require.NoError(t, err)

	assert.Nil(t, filter.From)
	assert.Nil(t, filter.To)
	assert.Empty(t, filter.Search)
	assert.Equal(t, uint64(1), filter.Page)
	assert.Equal(t, domain.DefaultPageLimit, filter.Limit)
}

func TestParseShipmentFilter_DateRange(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shipments?from=2025-01-01&to=2025-01-31", nil)

	filter, err := parseShipmentFilter(req)
	require.NoError(t, err)

	require.NotNil(t, filter.From)
	require.NotNil(t, filter.To)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), *filter.From)

	// The to date is inclusive through the end of the day.
	assert.Equal(t, time.Date(2025, time.January, 31, 23, 59, 59, 999_000_000, time.UTC), *filter.To)
}

func TestParseShipmentFilter_Invalid(t *testing.T) {
	t.Parallel()

	for _, query := range []string{
		"from=01.01.2025",
		"to=yesterday",
		"shipment_department_id=abc",
		"destination_department_id=123",
		"page=0",
		"page=-1",
		"limit=0",
		"limit=101",
		"limit=ten",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/shipments?"+query, nil)

		_, err := parseShipmentFilter(req)
		assert.Error(t, err, "query %q must be rejected", query)
	}
}

func TestParseShipmentFilter_FullQuery(t *testing.T) {
	t.Parallel()

	shipmentDept := uuid.New()
	destinationDept := uuid.New()

	target := "/api/v1/shipments?shipment_department_id=" + shipmentDept.String() +
		"&destination_department_id=" + destinationDept.String() +
		"&search=TRK-42&page=3&limit=50"

	filter, err := parseShipmentFilter(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)

	require.NotNil(t, filter.ShipmentDepartmentID)
	assert.Equal(t, shipmentDept, *filter.ShipmentDepartmentID)
	require.NotNil(t, filter.DestinationDepartmentID)
	assert.Equal(t, destinationDept, *filter.DestinationDepartmentID)
	assert.Equal(t, "TRK-42", filter.Search)
	assert.Equal(t, uint64(3), filter.Page)
	assert.Equal(t, uint64(50), filter.Limit)
}

func TestResolveShipmentDepartment(t *testing.T) {
	t.Parallel()

	ownDept := uuid.New()
	otherDept := uuid.New()

	regular := &domain.User{Role: domain.RoleDepartment, DepartmentID: ownDept}
	manager := &domain.User{Role: domain.RoleManagement, DepartmentID: ownDept}

	// Omitted: defaults to the caller's department.
	id, err := resolveShipmentDepartment(regular, nil)
	require.NoError(t, err)
	assert.Equal(t, ownDept, id)

	// Naming your own department is not an override.
	id, err = resolveShipmentDepartment(regular, &ownDept)
	require.NoError(t, err)
	assert.Equal(t, ownDept, id)

	_, err = resolveShipmentDepartment(regular, &otherDept)
	require.EqualError(t, err, "regular users cannot specify a shipment department")

	id, err = resolveShipmentDepartment(manager, &otherDept)
	require.NoError(t, err)
	assert.Equal(t, otherDept, id)
}

func TestNewPagination(t *testing.T) {
	t.Parallel()

	p := NewPagination(2, 20, 45)
	assert.Equal(t, uint64(2), p.Page)
	assert.Equal(t, uint64(20), p.Limit)
	assert.Equal(t, 45, p.Total)
	assert.Equal(t, 3, p.TotalPages)

	p = NewPagination(1, 20, 0)
	assert.Equal(t, 0, p.TotalPages)
}
