// Package masterdata manages the color and material master lists shared by
// all raw stock entries: resolve-or-create with reactivation, soft delete
// for referenced rows, and rename cascades into denormalized history.
package masterdata

import "time"

// Color is a master row referenced by raw stock detail lines. Custom colors
// are created ad hoc from stock entry payloads; inactive colors stay behind
// for historical joins.
type Color struct {
	ID        int64     `json:"color_id"`
	Name      string    `json:"color_name"`
	IsCustom  bool      `json:"is_custom"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Material is a master row identified by the (grade, code) pair. Code may be
// absent; two materials may share a grade when their codes differ.
type Material struct {
	ID        int64     `json:"material_id"`
	Grade     string    `json:"material_grade"`
	Code      *string   `json:"material_code"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// DeleteOutcome reports how a master-data delete was applied.
type DeleteOutcome int

const (
	// OutcomeDeactivated means the row was still referenced and was soft
	// deleted so historical entries keep resolving.
	OutcomeDeactivated DeleteOutcome = iota
	// OutcomeRemoved means the row was unreferenced and hard deleted.
	OutcomeRemoved
)
