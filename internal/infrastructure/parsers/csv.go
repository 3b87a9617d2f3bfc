package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/civicgraph/civlink/internal/domain/entities"
)

// CSVParser parses import rows from CSV format. Required columns depend
// on the dataset:
//
//	persons:     display_name (id optional)
//	legislators: id, full_name (party, chamber, district optional)
//	finance:     id, entity_name (candidate_name, committee_name, entity_type optional)
type CSVParser struct {
	Dataset Dataset
}

// Parse reads CSV from the reader and returns the parsed rows.
func (p *CSVParser) Parse(r io.Reader) (*ImportSet, error) {
	reader := csv.NewReader(r)

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	set := &ImportSet{}
	lineNum := 1 // Header is line 1
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if err := p.parseRecord(set, record, colIndex, lineNum); err != nil {
			return nil, err
		}
	}

	return set, nil
}

// requiredColumns returns the columns the dataset cannot do without.
func (p *CSVParser) requiredColumns() []string {
	switch p.Dataset {
	case DatasetPersons:
		return []string{"display_name"}
	case DatasetLegislators:
		return []string{"id", "full_name"}
	default:
		return []string{"id", "entity_name"}
	}
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[col] = i
	}

	for _, col := range p.requiredColumns() {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// parseRecord converts one CSV record into a row of the target dataset.
func (p *CSVParser) parseRecord(set *ImportSet, record []string, colIndex map[string]int, lineNum int) error {
	switch p.Dataset {
	case DatasetPersons:
		person := entities.Person{
			DisplayName: getColumn(record, colIndex, "display_name"),
		}
		if person.DisplayName == "" {
			return fmt.Errorf("line %d: display_name is required", lineNum)
		}
		if idStr := getColumn(record, colIndex, "id"); idStr != "" {
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				return fmt.Errorf("line %d: invalid id %q: %w", lineNum, idStr, err)
			}
			person.ID = id
		}
		set.Persons = append(set.Persons, person)

	case DatasetLegislators:
		id, err := parseID(record, colIndex, lineNum)
		if err != nil {
			return err
		}
		rec := entities.LegislatorRecord{
			ID:       id,
			FullName: getColumn(record, colIndex, "full_name"),
			Party:    getColumn(record, colIndex, "party"),
			Chamber:  getColumn(record, colIndex, "chamber"),
			District: getColumn(record, colIndex, "district"),
		}
		if rec.FullName == "" {
			return fmt.Errorf("line %d: full_name is required", lineNum)
		}
		set.Legislators = append(set.Legislators, rec)

	default:
		id, err := parseID(record, colIndex, lineNum)
		if err != nil {
			return err
		}
		rec := entities.FinanceEntityRecord{
			ID:            id,
			EntityName:    getColumn(record, colIndex, "entity_name"),
			CandidateName: getColumn(record, colIndex, "candidate_name"),
			CommitteeName: getColumn(record, colIndex, "committee_name"),
			EntityType:    getColumn(record, colIndex, "entity_type"),
		}
		if rec.EntityName == "" {
			return fmt.Errorf("line %d: entity_name is required", lineNum)
		}
		set.FinanceEntities = append(set.FinanceEntities, rec)
	}

	return nil
}

// parseID reads the required integer id column.
func parseID(record []string, colIndex map[string]int, lineNum int) (int64, error) {
	idStr := getColumn(record, colIndex, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid id %q: %w", lineNum, idStr, err)
	}
	return id, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return record[idx]
	}
	return ""
}
