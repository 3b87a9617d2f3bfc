package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicgraph/civlink/internal/domain/entities"
)

func TestCandidateGenerator_Generate_SharedToken(t *testing.T) {
	gen := NewCandidateGenerator()

	persons := []entities.Person{
		{ID: 1, DisplayName: "Daniel Hernandez"},
		{ID: 2, DisplayName: "Wendy Rogers"},
	}
	records := []entities.ExternalRecord{
		&entities.LegislatorRecord{ID: 500, FullName: "Daniel Hernandez Cortez"},
	}

	candidates := gen.Generate(persons, records)

	require.Len(t, candidates, 1)
	assert.Equal(t, int64(1), candidates[0].PersonID)
	assert.Equal(t, int64(500), candidates[0].RecordID)
	assert.Equal(t, entities.KindLegislator, candidates[0].Kind)
	assert.Equal(t, "Daniel Hernandez", candidates[0].PersonName)
	assert.Equal(t, "Daniel Hernandez Cortez", candidates[0].RecordName)
}

func TestCandidateGenerator_Generate_NoSharedToken(t *testing.T) {
	gen := NewCandidateGenerator()

	persons := []entities.Person{{ID: 1, DisplayName: "Daniel Hernandez"}}
	records := []entities.ExternalRecord{
		&entities.LegislatorRecord{ID: 500, FullName: "Wendy Rogers"},
	}

	assert.Empty(t, gen.Generate(persons, records))
}

func TestCandidateGenerator_Generate_ReversedOrder(t *testing.T) {
	gen := NewCandidateGenerator()

	// Reversed rendering with a suffix: the token index alone would still
	// find it, but the equality hatch guarantees it.
	persons := []entities.Person{{ID: 126, DisplayName: "Daniel Hernandez, Jr."}}
	records := []entities.ExternalRecord{
		&entities.FinanceEntityRecord{ID: 900, EntityName: "Friends of Hernandez", CandidateName: "Hernandez, Daniel"},
	}

	candidates := gen.Generate(persons, records)

	require.Len(t, candidates, 1)
	assert.Equal(t, int64(126), candidates[0].PersonID)
	assert.Equal(t, "Hernandez, Daniel", candidates[0].RecordName)
	assert.Equal(t, entities.KindFinance, candidates[0].Kind)
}

func TestCandidateGenerator_Generate_NoDuplicatePairs(t *testing.T) {
	gen := NewCandidateGenerator()

	// Person shares both tokens with the record; the pair must still be
	// emitted once.
	persons := []entities.Person{{ID: 1, DisplayName: "John Smith"}}
	records := []entities.ExternalRecord{
		&entities.LegislatorRecord{ID: 500, FullName: "John Smith"},
	}

	assert.Len(t, gen.Generate(persons, records), 1)
}

func TestCandidateGenerator_Generate_EmptyPopulations(t *testing.T) {
	gen := NewCandidateGenerator()

	records := []entities.ExternalRecord{
		&entities.LegislatorRecord{ID: 500, FullName: "Daniel Hernandez"},
	}

	assert.Nil(t, gen.Generate(nil, records))
	assert.Nil(t, gen.Generate([]entities.Person{{ID: 1, DisplayName: "Daniel Hernandez"}}, nil))
}

func TestCandidateGenerator_Generate_MultipleRecords(t *testing.T) {
	gen := NewCandidateGenerator()

	persons := []entities.Person{
		{ID: 1, DisplayName: "John Smith"},
		{ID: 2, DisplayName: "Jane Smith"},
	}
	records := []entities.ExternalRecord{
		&entities.LegislatorRecord{ID: 500, FullName: "John Smith"},
		&entities.LegislatorRecord{ID: 501, FullName: "Jane Smith"},
	}

	candidates := gen.Generate(persons, records)

	// Both persons share the "smith" token with both records.
	assert.Len(t, candidates, 4)
}
