package domain

import "errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")

	// ErrShipmentLockedEdit and ErrShipmentLockedDelete are returned by the
	// mutation surfaces once a shipment's shipped_at has passed.
	ErrShipmentLockedEdit   = errors.New("cannot edit a shipment that has already been shipped")
	ErrShipmentLockedDelete = errors.New("cannot delete a shipment that has already been shipped")
)
