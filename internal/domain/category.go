package domain

import "time"

// Category classifies tickets and is linked to the departments that handle it.
type Category struct {
	ID            ID
	Name          string
	Description   string
	DepartmentIDs []ID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
