package domain

import "github.com/google/uuid"

type Item struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	Name         string    `db:"name"          json:"name"`
	DepartmentID uuid.UUID `db:"department_id" json:"department_id"`
}
