package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Shipment struct {
	ID                      uuid.UUID  `db:"id"                        json:"id"`
	ItemID                  uuid.UUID  `db:"item_id"                   json:"item_id"`
	Quantity                int        `db:"quantity"                  json:"quantity"`
	SenderID                uuid.UUID  `db:"sender_id"                 json:"sender_id"`
	ShipmentDepartmentID    uuid.UUID  `db:"shipment_department_id"    json:"shipment_department_id"`
	DestinationDepartmentID uuid.UUID  `db:"destination_department_id" json:"destination_department_id"`
	ShipmentUserID          *uuid.UUID `db:"shipment_user_id"          json:"shipment_user_id,omitempty"`
	TrackingNumber          string     `db:"tracking_number"           json:"tracking_number"`
	Notes                   string     `db:"notes"                     json:"notes"`
	ShippedAt               *time.Time `db:"shipped_at"                json:"shipped_at,omitempty"`
	CreatedBy               uuid.UUID  `db:"created_by"                json:"created_by"`
	UpdatedBy               uuid.UUID  `db:"updated_by"                json:"updated_by"`
	CreatedAt               time.Time  `db:"created_at"                json:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at"                json:"updated_at"`
}

func (s *Shipment) Validate() error {
	if s.ItemID == uuid.Nil {
		return fmt.Errorf("item_id is required")
	}

	if s.Quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}

	if s.DestinationDepartmentID == uuid.Nil {
		return fmt.Errorf("destination_department_id is required")
	}

	return nil
}

// Locked reports whether the shipment is immutable via the edit/delete
// surfaces. A shipment locks once its shipped_at timestamp passes; an
// unshipped record never locks. The property is dynamic and must be
// recomputed at request time.
func (s *Shipment) Locked(now time.Time) bool {
	return s.ShippedAt != nil && s.ShippedAt.Before(now)
}

// ShipmentDraft is the validator's output for one accepted import row. Every
// reference has been existence-checked at validation time.
type ShipmentDraft struct {
	ItemID                  uuid.UUID
	Quantity                int
	DestinationDepartmentID uuid.UUID
	ShipmentDepartmentID    uuid.UUID
	ShipmentUserID          *uuid.UUID
	TrackingNumber          string
	Notes                   string
	ShippedAt               *time.Time
}
