package race

import (
	"encoding/json"
	"time"
)

// Source identifies where a race record came from.
type Source string

const (
	SourceDatabase Source = "database"
	SourceRunReg   Source = "runreg"
)

// TypeList holds one or more race category labels. The database stores a single
// label while the external source may supply several, so the JSON form is either
// a string or an array of strings; both decode into the same list.
type TypeList []string

func (t *TypeList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*t = nil
		} else {
			*t = TypeList{single}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*t = TypeList(many)
	return nil
}

// Contains reports whether label appears anywhere in the list.
func (t TypeList) Contains(label string) bool {
	for _, l := range t {
		if l == label {
			return true
		}
	}
	return false
}

// Race is the normalized, provenance-tagged event record used by the whole
// pipeline regardless of which source produced it.
//
// IDs are strings: database rows render their serial id as a decimal string and
// external ids carry a source prefix, so uniqueness holds across the combined set.
// RaceDate is a pointer because the external source sometimes ships an event with
// no extractable date; such records are still emitted and callers must tolerate
// a nil date downstream.
type Race struct {
	ID          string     `json:"id"`
	Name        string     `json:"race_name"`
	Types       TypeList   `json:"race_type"`
	RaceDate    *time.Time `json:"race_date"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	City        string     `json:"city,omitempty"`
	State       string     `json:"state,omitempty"`
	Address     string     `json:"address,omitempty"`
	Description string     `json:"description,omitempty"`
	WebsiteURL  string     `json:"website_url,omitempty"`
	Image       string     `json:"image,omitempty"`
	Source      Source     `json:"source"`
}
