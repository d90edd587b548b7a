package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPageLimit uint64 = 20
	MaxPageLimit     uint64 = 100

	recentWindow = 7 * 24 * time.Hour
)

// ShipmentFilter describes one shipment listing query before role visibility
// rules are applied by the repository.
type ShipmentFilter struct {
	From                    *time.Time
	To                      *time.Time
	ShipmentDepartmentID    *uuid.UUID
	DestinationDepartmentID *uuid.UUID
	Search                  string
	Page                    uint64
	Limit                   uint64
}

// Normalize fills the date-range fallback and clamps pagination. When the
// caller supplies no explicit range the window defaults to
// [today-7d 00:00:00, today+7d 23:59:59.999] in now's location.
func (f ShipmentFilter) Normalize(now time.Time) ShipmentFilter {
	if f.From == nil || f.To == nil {
		year, month, day := now.Date()
		today := time.Date(year, month, day, 0, 0, 0, 0, now.Location())

		from := today.Add(-recentWindow)
		to := today.Add(recentWindow).Add(24*time.Hour - time.Millisecond)

		f.From = &from
		f.To = &to
	}

	if f.Page < 1 {
		f.Page = 1
	}

	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}

	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}

	return f
}

func (f ShipmentFilter) Offset() uint64 {
	return (f.Page - 1) * f.Limit
}
