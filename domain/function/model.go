package function

import "time"

// Definition is a named, storable script: the unit an operator edits and
// saves, and that an automation registration request may reference by name
// (function_name); its Source is then written under the scripts directory
// and the Automation's Param names that file.
type Definition struct {
	ID          string
	Name        string
	Description string
	Source      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
