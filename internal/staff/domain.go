// Package staff manages staff records and mirrors their credentials into
// the login accounts table.
package staff

import "time"

// Staff is one staff record. The mirrored users row carries the derived
// role, the staff row keeps the raw position.
type Staff struct {
	ID        int64     `json:"staff_id"`
	Position  string    `json:"position"`
	Name      string    `json:"name"`
	WorkingID string    `json:"working_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RoleForPosition maps a staff position to a login role. Plant managers
// get the manager role, everyone else logs in as a worker.
func RoleForPosition(position string) string {
	if position == "PM" {
		return "manager"
	}
	return "worker"
}
