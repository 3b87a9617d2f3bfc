// Package parsers provides parsers for importing source records from
// various formats. Parsed rows are raw ingestion data; the engine treats
// them as upstream-owned once saved.
package parsers

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/civicgraph/civlink/internal/domain/entities"
)

// Dataset identifies which population an import file feeds.
type Dataset string

const (
	// DatasetPersons imports canonical person seeds.
	DatasetPersons Dataset = "persons"
	// DatasetLegislators imports legislator roll records.
	DatasetLegislators Dataset = "legislators"
	// DatasetFinanceEntities imports campaign-finance entity records.
	DatasetFinanceEntities Dataset = "finance"
)

// ParseDataset validates a dataset name from user input.
func ParseDataset(name string) (Dataset, error) {
	switch Dataset(strings.ToLower(name)) {
	case DatasetPersons:
		return DatasetPersons, nil
	case DatasetLegislators:
		return DatasetLegislators, nil
	case DatasetFinanceEntities:
		return DatasetFinanceEntities, nil
	default:
		return "", fmt.Errorf("unknown dataset %q (expected persons, legislators, or finance)", name)
	}
}

// ImportSet holds the rows parsed from one import file. Only the slice
// matching the requested dataset is populated.
type ImportSet struct {
	Persons         []entities.Person
	Legislators     []entities.LegislatorRecord
	FinanceEntities []entities.FinanceEntityRecord
}

// Len returns the number of parsed rows.
func (s *ImportSet) Len() int {
	return len(s.Persons) + len(s.Legislators) + len(s.FinanceEntities)
}

// Parser defines the interface for parsing import rows from a format.
type Parser interface {
	Parse(r io.Reader) (*ImportSet, error)
}

// ForFile returns the appropriate parser based on file extension.
// Supported extensions: ".json", ".csv".
func ForFile(filename string, dataset Dataset) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{Dataset: dataset}
	case ".csv":
		return &CSVParser{Dataset: dataset}
	default:
		return nil
	}
}
