// internal/models/traveler.go
package models

// PreferenceDimensions is the fixed set of vibe categories every traveler
// weight vector and every activity tag vector is expressed over.
var PreferenceDimensions = []string{"nightlife", "adventure", "shopping", "food", "urban"}

// DateWindow is one candidate trip date range with inclusive endpoints.
type DateWindow struct {
	Start string `json:"start"` // YYYY-MM-DD
	End   string `json:"end"`   // YYYY-MM-DD
}

// Complete reports whether both endpoints are set.
func (w DateWindow) Complete() bool {
	return w.Start != "" && w.End != ""
}

// Traveler is one member of the planning group. Windows keeps the snake_case
// key the intake payload uses.
type Traveler struct {
	ID          string             `json:"id"`
	Name        string             `json:"name,omitempty"`
	Email       string             `json:"email,omitempty"`
	Phone       string             `json:"phone,omitempty"`
	OriginCity  string             `json:"originCity,omitempty"`
	Budget      float64            `json:"budget"`
	Preferences map[string]float64 `json:"preferences"`
	Notes       string             `json:"notes,omitempty"`

	// Windows lists the traveler's candidate trip windows in preference order.
	Windows []DateWindow `json:"preferred_windows,omitempty"`
}
