package domain

import "time"

// Department groups users; a ticket is routed to one department.
type Department struct {
	ID          ID
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
