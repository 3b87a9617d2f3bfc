package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses import rows from a JSON array of objects matching the
// target dataset's entity shape.
type JSONParser struct {
	Dataset Dataset
}

// Parse reads JSON from the reader and returns the parsed rows.
func (p *JSONParser) Parse(r io.Reader) (*ImportSet, error) {
	decoder := json.NewDecoder(r)
	set := &ImportSet{}

	switch p.Dataset {
	case DatasetPersons:
		if err := decoder.Decode(&set.Persons); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	case DatasetLegislators:
		if err := decoder.Decode(&set.Legislators); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	default:
		if err := decoder.Decode(&set.FinanceEntities); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	}

	return set, nil
}
