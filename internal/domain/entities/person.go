package entities

import "time"

// Person represents a canonical identity: the single profile a dashboard
// user expects to see for one real-world individual. Persons are created
// when an individual first appears in either source dataset and are only
// ever destroyed by being merged into another Person.
type Person struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// NormalizedName returns the comparison key for the person's display name.
func (p *Person) NormalizedName() string {
	return NormalizeName(p.DisplayName)
}
