package types

import "time"

// MinRosterSize is the minimum number of personas a meeting must reference.
const MinRosterSize = 2

// Meeting is a named conversation scoped to a fixed roster of personas.
// The description doubles as the standing task framing handed to a crew.
//
// Roster entries are validated against existing active personas at creation
// time only; a persona deactivated afterward stays listed until it is
// deleted outright, at which point roster maintenance scrubs it.
type Meeting struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	PersonaIDs  []string  `json:"persona_ids"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}
