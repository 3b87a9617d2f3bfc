package handlers

import (
	"context"

	"github.com/civicgraph/civlink/internal/domain/entities"
	"github.com/civicgraph/civlink/internal/domain/ports"
)

// PersonHandler serves person listing and search at the application layer.
type PersonHandler struct {
	store  ports.Store
	tables []entities.RelationTable
}

// NewPersonHandler creates a new PersonHandler.
func NewPersonHandler(store ports.Store, tables []entities.RelationTable) *PersonHandler {
	return &PersonHandler{store: store, tables: tables}
}

// PersonSummary is a person with their relation-row count.
type PersonSummary struct {
	Person entities.Person `json:"person"`
	Links  int             `json:"links"`
}

// HandleList returns all persons with link counts.
func (h *PersonHandler) HandleList(ctx context.Context) ([]PersonSummary, error) {
	persons, err := h.store.ListPersons(ctx)
	if err != nil {
		return nil, err
	}
	return h.summarize(ctx, persons)
}

// HandleSearch returns persons matching the query with link counts.
func (h *PersonHandler) HandleSearch(ctx context.Context, query string, limit int) ([]PersonSummary, error) {
	persons, err := h.store.SearchPersons(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return h.summarize(ctx, persons)
}

func (h *PersonHandler) summarize(ctx context.Context, persons []entities.Person) ([]PersonSummary, error) {
	result := make([]PersonSummary, 0, len(persons))
	for _, p := range persons {
		count, err := h.store.CountLinksByPerson(ctx, p.ID, h.tables)
		if err != nil {
			return nil, err
		}
		result = append(result, PersonSummary{Person: p, Links: count})
	}
	return result, nil
}
