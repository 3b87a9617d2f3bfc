package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicgraph/civlink/internal/domain/entities"
	"github.com/civicgraph/civlink/internal/domain/mocks"
	"github.com/civicgraph/civlink/internal/infrastructure/config"
)

func newTestMatchHandler(store *mocks.Store) (*MatchHandler, *mocks.Refresher) {
	refresher := &mocks.Refresher{}
	return NewMatchHandler(store, refresher, config.Default().Matching), refresher
}

func TestMatchHandler_HandleRun_Legislators(t *testing.T) {
	store := mocks.NewStore()
	store.Persons[126] = entities.Person{ID: 126, DisplayName: "Daniel Hernandez, Jr."}
	store.Persons[2] = entities.Person{ID: 2, DisplayName: "Wendy Rogers"}
	store.Legislators[500] = entities.LegislatorRecord{ID: 500, FullName: "Daniel Hernandez"}
	store.Legislators[501] = entities.LegislatorRecord{ID: 501, FullName: "Wendy Rogers"}

	handler, refresher := newTestMatchHandler(store)

	result, err := handler.HandleRun(context.Background(), MatchOptions{
		Kind:          entities.KindLegislator,
		MinConfidence: 0.8,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.Persons)
	assert.Equal(t, 2, result.Records)
	assert.Equal(t, 2, result.Links.Created)
	assert.True(t, store.HasRelation("person_legislators", 126, 500))
	assert.True(t, store.HasRelation("person_legislators", 2, 501))
	assert.NotEmpty(t, refresher.Scopes)

	require.Len(t, store.AuditEntries, 1)
	assert.Equal(t, entities.ActionMatchRun, store.AuditEntries[0].Action)
	assert.Equal(t, "legislator", store.AuditEntries[0].Details["kind"])
}

func TestMatchHandler_HandleRun_ReversedFinanceName(t *testing.T) {
	store := mocks.NewStore()
	store.Persons[126] = entities.Person{ID: 126, DisplayName: "Daniel Hernandez, Jr."}
	store.FinanceEntities[900] = entities.FinanceEntityRecord{
		ID:            900,
		EntityName:    "Friends of Daniel Hernandez",
		CandidateName: "Hernandez, Daniel",
	}

	handler, _ := newTestMatchHandler(store)

	result, err := handler.HandleRun(context.Background(), MatchOptions{
		Kind:          entities.KindFinance,
		MinConfidence: 0.8,
	})
	require.NoError(t, err)

	require.Len(t, result.Selection.Selected, 1)
	best := result.Selection.Selected[0]
	assert.Equal(t, int64(126), best.PersonID)
	assert.Equal(t, 0.95, best.Score)
	assert.Equal(t, entities.RuleReversedExact, best.Rule)
	assert.True(t, store.HasRelation("person_finance_entities", 126, 900))
}

func TestMatchHandler_HandleRun_Idempotent(t *testing.T) {
	store := mocks.NewStore()
	store.Persons[1] = entities.Person{ID: 1, DisplayName: "Daniel Hernandez"}
	store.Legislators[500] = entities.LegislatorRecord{ID: 500, FullName: "Daniel Hernandez"}

	handler, _ := newTestMatchHandler(store)
	opts := MatchOptions{Kind: entities.KindLegislator, MinConfidence: 0.8}

	first, err := handler.HandleRun(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Links.Created)

	second, err := handler.HandleRun(context.Background(), opts)
	require.NoError(t, err)
	assert.Zero(t, second.Links.Created)
	assert.Equal(t, 1, second.Links.Skipped)
}

func TestMatchHandler_HandleRun_DryRun(t *testing.T) {
	store := mocks.NewStore()
	store.Persons[1] = entities.Person{ID: 1, DisplayName: "Daniel Hernandez"}
	store.Legislators[500] = entities.LegislatorRecord{ID: 500, FullName: "Daniel Hernandez"}

	handler, refresher := newTestMatchHandler(store)

	result, err := handler.HandleRun(context.Background(), MatchOptions{
		Kind:          entities.KindLegislator,
		MinConfidence: 0.4,
		DryRun:        true,
	})
	require.NoError(t, err)

	require.Len(t, result.Selection.Selected, 1)
	assert.Zero(t, result.Links.Created)
	assert.False(t, store.HasRelation("person_legislators", 1, 500))
	assert.Empty(t, refresher.Scopes)
	assert.Empty(t, store.AuditEntries)
}

func TestMatchHandler_HandleRun_EmptyPopulations(t *testing.T) {
	store := mocks.NewStore()
	handler, _ := newTestMatchHandler(store)

	result, err := handler.HandleRun(context.Background(), MatchOptions{
		Kind:          entities.KindLegislator,
		MinConfidence: 0.8,
	})
	require.NoError(t, err)

	assert.Zero(t, result.Candidates)
	assert.Empty(t, result.Selection.Selected)
	assert.Zero(t, result.Links.Created)
}

func TestMatchHandler_HandleRun_UnknownKind(t *testing.T) {
	handler, _ := newTestMatchHandler(mocks.NewStore())

	_, err := handler.HandleRun(context.Background(), MatchOptions{Kind: "committee"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown record kind")
}
