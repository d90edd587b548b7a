package domain

import "github.com/google/uuid"

type Role string

const (
	// RoleDepartment is a regular user scoped to a single department.
	RoleDepartment Role = "department"
	// RoleManagement has cross-department visibility and override privileges.
	RoleManagement Role = "management"
)

func (r Role) Valid() bool {
	return r == RoleDepartment || r == RoleManagement
}

// ScopedToOwnDepartment reports whether lookups and listing queries for the
// role are restricted to the user's own department.
func (r Role) ScopedToOwnDepartment() bool {
	return r == RoleDepartment
}

// CanOverrideShipmentDepartment reports whether the role may name an arbitrary
// source department instead of defaulting to its own.
func (r Role) CanOverrideShipmentDepartment() bool {
	return r == RoleManagement
}

type User struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	Name         string    `db:"name"          json:"name"`
	Role         Role      `db:"role"          json:"role"`
	DepartmentID uuid.UUID `db:"department_id" json:"department_id"`
}

// CanViewRun reports whether the user may read the run and its row errors.
func (u *User) CanViewRun(run *ImportRun) bool {
	return u.Role == RoleManagement || run.UploadedBy == u.ID
}
