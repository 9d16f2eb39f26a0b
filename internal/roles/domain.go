// Package roles is the role store: the seeded four-role table and its
// permission sets.
package roles

import "time"

// Role represents a named permission grouping assigned to users.
type Role struct {
	ID          int64
	Name        string
	Permissions []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Has reports whether the role grants the named permission.
func (r Role) Has(permission string) bool {
	for _, p := range r.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
