package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicgraph/civlink/internal/domain/entities"
	"github.com/civicgraph/civlink/internal/infrastructure/config"
)

// addRelation inserts a raw relation row, bypassing the link layer, so
// merge tests can seed tables with no record kind (sessions, reports).
func addRelation(t *testing.T, repo *Repository, table string, personID, refID int64) {
	t.Helper()
	tbl := findTable(t, table)
	query := "INSERT INTO " + tbl.Name + " (" + tbl.PersonColumn + ", " + tbl.RefColumn + ", created_at) VALUES (?, ?, ?)"
	_, err := repo.db.Exec(query, personID, refID, time.Now())
	require.NoError(t, err)
}

func findTable(t *testing.T, name string) entities.RelationTable {
	t.Helper()
	for _, tbl := range config.DefaultRelationTables() {
		if tbl.Name == name {
			return tbl
		}
	}
	t.Fatalf("unknown relation table %s", name)
	return entities.RelationTable{}
}

func countRelations(t *testing.T, repo *Repository, table string) int {
	t.Helper()
	var count int
	require.NoError(t, repo.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
	return count
}

func TestRepository_ValidateRelationTables(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	t.Run("standard schema validates", func(t *testing.T) {
		assert.NoError(t, repo.ValidateRelationTables(ctx, config.DefaultRelationTables()))
	})

	t.Run("missing table", func(t *testing.T) {
		err := repo.ValidateRelationTables(ctx, []entities.RelationTable{
			{Name: "person_votes", PersonColumn: "person_id", RefColumn: "vote_id"},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSchemaMismatch)
		assert.Contains(t, err.Error(), "person_votes")
	})

	t.Run("missing column", func(t *testing.T) {
		err := repo.ValidateRelationTables(ctx, []entities.RelationTable{
			{Name: "person_legislators", PersonColumn: "person_id", RefColumn: "roll_id"},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})

	t.Run("unsafe identifier", func(t *testing.T) {
		err := repo.ValidateRelationTables(ctx, []entities.RelationTable{
			{Name: "persons; DROP TABLE persons", PersonColumn: "person_id", RefColumn: "ref_id"},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSchemaMismatch)
	})
}

func TestRepository_MergePersons(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	tables := config.DefaultRelationTables()

	survivor, err := repo.SavePerson(ctx, &entities.Person{ID: 10, DisplayName: "John Smith"})
	require.NoError(t, err)
	duplicate, err := repo.SavePerson(ctx, &entities.Person{ID: 55, DisplayName: "john smith"})
	require.NoError(t, err)

	// Survivor: legislator 500, finance entity 900.
	addRelation(t, repo, "person_legislators", survivor, 500)
	addRelation(t, repo, "person_finance_entities", survivor, 900)
	// Duplicate: legislator 501, the colliding finance entity 900, a
	// session and a report.
	addRelation(t, repo, "person_legislators", duplicate, 501)
	addRelation(t, repo, "person_finance_entities", duplicate, 900)
	addRelation(t, repo, "person_sessions", duplicate, 77)
	addRelation(t, repo, "person_reports", duplicate, 88)

	totalBefore := 0
	for _, tbl := range tables {
		totalBefore += countRelations(t, repo, tbl.Name)
	}

	group := entities.MergeGroup{
		NormalizedName: "john smith",
		SurvivorID:     survivor,
		DuplicateIDs:   []int64{duplicate},
	}

	summary, err := repo.MergePersons(ctx, group, tables)
	require.NoError(t, err)

	assert.Equal(t, survivor, summary.SurvivorID)
	assert.Equal(t, []int64{duplicate}, summary.AbsorbedIDs)
	assert.Equal(t, 3, summary.Moved())
	assert.Equal(t, 1, summary.Dropped())
	assert.Equal(t, entities.RelationCounts{Moved: 1}, summary.Relations["person_legislators"])
	assert.Equal(t, entities.RelationCounts{Dropped: 1}, summary.Relations["person_finance_entities"])

	// The duplicate person is gone.
	found, err := repo.FindPersonByID(ctx, duplicate)
	require.NoError(t, err)
	assert.Nil(t, found)

	// Every surviving row points at the survivor; exactly the one
	// colliding row disappeared.
	totalAfter := 0
	for _, tbl := range tables {
		totalAfter += countRelations(t, repo, tbl.Name)

		var orphaned int
		query := "SELECT COUNT(*) FROM " + tbl.Name + " WHERE " + tbl.PersonColumn + " = ?"
		require.NoError(t, repo.db.QueryRow(query, duplicate).Scan(&orphaned))
		assert.Zero(t, orphaned, "table %s still references the absorbed person", tbl.Name)
	}
	assert.Equal(t, totalBefore-1, totalAfter)

	links, err := repo.ListLinks(ctx, entities.KindLegislator)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, survivor, links[0].PersonID)
	assert.Equal(t, survivor, links[1].PersonID)
}

func TestRepository_MergePersons_AbsorbsAllLinks(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	tables := config.DefaultRelationTables()

	survivor, err := repo.SavePerson(ctx, &entities.Person{ID: 10, DisplayName: "John Smith"})
	require.NoError(t, err)
	duplicate, err := repo.SavePerson(ctx, &entities.Person{ID: 55, DisplayName: "john smith"})
	require.NoError(t, err)

	// The duplicate holds three legislator links and two finance links;
	// the survivor holds none, so nothing collides.
	for _, ref := range []int64{500, 501, 502} {
		addRelation(t, repo, "person_legislators", duplicate, ref)
	}
	for _, ref := range []int64{900, 901} {
		addRelation(t, repo, "person_finance_entities", duplicate, ref)
	}

	group := entities.MergeGroup{
		NormalizedName: "john smith",
		SurvivorID:     survivor,
		DuplicateIDs:   []int64{duplicate},
	}

	summary, err := repo.MergePersons(ctx, group, tables)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Moved())
	assert.Zero(t, summary.Dropped())

	count, err := repo.CountLinksByPerson(ctx, survivor, tables)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	found, err := repo.FindPersonByID(ctx, duplicate)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRepository_MergePersons_MultipleDuplicatesShareRef(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	tables := config.DefaultRelationTables()

	survivor, err := repo.SavePerson(ctx, &entities.Person{ID: 10, DisplayName: "John Smith"})
	require.NoError(t, err)
	dup1, err := repo.SavePerson(ctx, &entities.Person{ID: 55, DisplayName: "john smith"})
	require.NoError(t, err)
	dup2, err := repo.SavePerson(ctx, &entities.Person{ID: 70, DisplayName: "JOHN SMITH"})
	require.NoError(t, err)

	// Both duplicates reference transaction 42, which the survivor
	// lacks. The first move wins; the second collides and drops.
	addRelation(t, repo, "person_transactions", dup1, 42)
	addRelation(t, repo, "person_transactions", dup2, 42)

	group := entities.MergeGroup{
		NormalizedName: "john smith",
		SurvivorID:     survivor,
		DuplicateIDs:   []int64{dup1, dup2},
	}

	summary, err := repo.MergePersons(ctx, group, tables)
	require.NoError(t, err)

	counts := summary.Relations["person_transactions"]
	assert.Equal(t, 1, counts.Moved)
	assert.Equal(t, 1, counts.Dropped)
	assert.Equal(t, 1, countRelations(t, repo, "person_transactions"))
}

func TestRepository_MergePersons_SurvivorMissing(t *testing.T) {
	repo := setupTestRepo(t)

	group := entities.MergeGroup{SurvivorID: 9999, DuplicateIDs: []int64{1}}
	_, err := repo.MergePersons(context.Background(), group, config.DefaultRelationTables())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "survivor")
}

func TestRepository_MergePersons_NoRelations(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	survivor, err := repo.SavePerson(ctx, &entities.Person{ID: 10, DisplayName: "John Smith"})
	require.NoError(t, err)
	duplicate, err := repo.SavePerson(ctx, &entities.Person{ID: 55, DisplayName: "john smith"})
	require.NoError(t, err)

	group := entities.MergeGroup{
		NormalizedName: "john smith",
		SurvivorID:     survivor,
		DuplicateIDs:   []int64{duplicate},
	}

	summary, err := repo.MergePersons(ctx, group, config.DefaultRelationTables())
	require.NoError(t, err)
	assert.Zero(t, summary.Moved())
	assert.Zero(t, summary.Dropped())

	found, err := repo.FindPersonByID(ctx, duplicate)
	require.NoError(t, err)
	assert.Nil(t, found)
}
