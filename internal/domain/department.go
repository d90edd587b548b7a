package domain

import "github.com/google/uuid"

type Department struct {
	ID   uuid.UUID `db:"id"   json:"id"`
	Name string    `db:"name" json:"name"`
}
