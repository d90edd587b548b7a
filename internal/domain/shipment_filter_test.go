package domain_test

import (
	"testing"
	"time"

	"github.com/kurochkinivan/shipment_tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShipmentFilter_Normalize_DefaultWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 15, 13, 45, 12, 0, time.UTC)

	filter := domain.ShipmentFilter{}.Normalize(now)

	require.NotNil(t, filter.From)
	require.NotNil(t, filter.To)

	assert.Equal(t, time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC), *filter.From)
	assert.Equal(t, time.Date(2025, time.March, 22, 23, 59, 59, 999_000_000, time.UTC), *filter.To)
}

func TestShipmentFilter_Normalize_PartialRangeFallsBack(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 15, 8, 0, 0, 0, time.UTC)
	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	// Only one bound set: both get replaced by the default window.
	filter := domain.ShipmentFilter{From: &from}.Normalize(now)

	assert.Equal(t, time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC), *filter.From)
	assert.Equal(t, time.Date(2025, time.March, 22, 23, 59, 59, 999_000_000, time.UTC), *filter.To)
}

func TestShipmentFilter_Normalize_ExplicitRangePreserved(t *testing.T) {
	t.Parallel()

	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

	filter := domain.ShipmentFilter{From: &from, To: &to}.Normalize(time.Now())

	assert.Equal(t, from, *filter.From)
	assert.Equal(t, to, *filter.To)
}

func TestShipmentFilter_Normalize_Idempotent(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 15, 8, 0, 0, 0, time.UTC)

	once := domain.ShipmentFilter{}.Normalize(now)
	twice := once.Normalize(now.Add(time.Hour))

	assert.Equal(t, once, twice)
}

func TestShipmentFilter_Normalize_Pagination(t *testing.T) {
	t.Parallel()

	filter := domain.ShipmentFilter{Page: 0, Limit: 0}.Normalize(time.Now())
	assert.Equal(t, uint64(1), filter.Page)
	assert.Equal(t, domain.DefaultPageLimit, filter.Limit)
	assert.Equal(t, uint64(0), filter.Offset())

	filter = domain.ShipmentFilter{Page: 3, Limit: 500}.Normalize(time.Now())
	assert.Equal(t, domain.MaxPageLimit, filter.Limit)
	assert.Equal(t, uint64(200), filter.Offset())
}
