// Package integration exercises the whole resolution pipeline against a
// real SQLite database: import, match, merge, and the audit trail.
package integration

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicgraph/civlink/internal/application/handlers"
	"github.com/civicgraph/civlink/internal/domain/entities"
	"github.com/civicgraph/civlink/internal/domain/ports"
	"github.com/civicgraph/civlink/internal/infrastructure/config"
	"github.com/civicgraph/civlink/internal/infrastructure/parsers"
	"github.com/civicgraph/civlink/internal/infrastructure/relationaldb/sqlite"
)

type pipeline struct {
	repo   *sqlite.Repository
	cfg    *config.Config
	match  *handlers.MatchHandler
	merge  *handlers.MergeHandler
	imp    *handlers.ImportHandler
	report *handlers.ReportHandler
}

func setupPipeline(t *testing.T) *pipeline {
	t.Helper()

	cfg := config.Default()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "civlink.db")

	repo, err := sqlite.NewRepository(cfg.SQLite)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, repo.ValidateRelationTables(context.Background(), cfg.Merge.RelationTables))

	return &pipeline{
		repo:   repo,
		cfg:    cfg,
		match:  handlers.NewMatchHandler(repo, repo, cfg.Matching),
		merge:  handlers.NewMergeHandler(repo, repo, cfg.Merge.RelationTables),
		imp:    handlers.NewImportHandler(repo),
		report: handlers.NewReportHandler(repo),
	}
}

func (p *pipeline) importCSV(t *testing.T, dataset parsers.Dataset, filename, content string) {
	t.Helper()
	_, err := p.imp.HandleImport(context.Background(), dataset, filename, strings.NewReader(content))
	require.NoError(t, err)
}

const (
	personsCSV = `display_name,id
"Daniel Hernandez, Jr.",126
John Smith,10
John Smith,55
Wendy Rogers,3
`
	legislatorsCSV = `id,full_name,party,chamber,district
500,Daniel Hernandez,D,house,2
501,Wendy Rogers,R,senate,6
502,John Smith,I,house,11
`
	financeCSV = `id,entity_name,candidate_name,entity_type
900,Friends of Daniel Hernandez,"Hernandez, Daniel",candidate_committee
901,Rogers for Arizona,"Wendy Rogers",candidate_committee
902,Clean Water PAC,,pac
`
)

func TestPipeline_ImportMatchMerge(t *testing.T) {
	p := setupPipeline(t)
	ctx := context.Background()

	p.importCSV(t, parsers.DatasetPersons, "persons.csv", personsCSV)
	p.importCSV(t, parsers.DatasetLegislators, "legislators.csv", legislatorsCSV)
	p.importCSV(t, parsers.DatasetFinanceEntities, "finance.csv", financeCSV)

	// Match the legislator roll: three exact matches.
	legResult, err := p.match.HandleRun(ctx, handlers.MatchOptions{
		Kind:          entities.KindLegislator,
		MinConfidence: p.cfg.Matching.AutoConfidence,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, legResult.Links.Created)

	// Match finance entities: the reversed candidate name still links;
	// the PAC with no candidate name matches nobody.
	finResult, err := p.match.HandleRun(ctx, handlers.MatchOptions{
		Kind:          entities.KindFinance,
		MinConfidence: p.cfg.Matching.AutoConfidence,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, finResult.Links.Created)

	links, err := p.repo.ListLinks(ctx, entities.KindFinance)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, int64(3), links[0].PersonID)
	assert.Equal(t, int64(901), links[0].RecordID)
	assert.Equal(t, int64(126), links[1].PersonID)
	assert.Equal(t, int64(900), links[1].RecordID)

	// Re-running creates nothing new.
	rerun, err := p.match.HandleRun(ctx, handlers.MatchOptions{
		Kind:          entities.KindLegislator,
		MinConfidence: p.cfg.Matching.AutoConfidence,
	})
	require.NoError(t, err)
	assert.Zero(t, rerun.Links.Created)
	assert.Equal(t, 3, rerun.Links.Skipped)

	// The two John Smiths collapse into the lower ID. Person 55 had no
	// links of its own, so nothing moves, but the duplicate disappears.
	mergeResult, err := p.merge.HandleRun(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, mergeResult.Summary.PersonsAbsorbed)
	require.Len(t, mergeResult.Summary.Groups, 1)
	assert.Equal(t, int64(10), mergeResult.Summary.Groups[0].SurvivorID)

	gone, err := p.repo.FindPersonByID(ctx, 55)
	require.NoError(t, err)
	assert.Nil(t, gone)

	count, err := p.repo.CountPersons(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Both write paths flagged their view scopes.
	for _, scope := range []string{ports.ScopeLinks, ports.ScopePersons} {
		dirty, err := p.repo.ViewDirty(ctx, scope)
		require.NoError(t, err)
		assert.True(t, dirty, "scope %s should be dirty", scope)
	}

	// Every run is on the audit trail: three imports, two effective
	// match passes, one no-op rerun, one merge.
	runs, err := p.report.HandleRecent(ctx, 20)
	require.NoError(t, err)
	assert.Len(t, runs, 7)
	assert.Equal(t, entities.ActionMergeRun, runs[0].Action)
}

func TestPipeline_MergeMovesAndDropsLinks(t *testing.T) {
	p := setupPipeline(t)
	ctx := context.Background()

	survivor, err := p.repo.SavePerson(ctx, &entities.Person{ID: 10, DisplayName: "John Smith"})
	require.NoError(t, err)
	duplicate, err := p.repo.SavePerson(ctx, &entities.Person{ID: 55, DisplayName: "JOHN  SMITH"})
	require.NoError(t, err)

	require.NoError(t, p.repo.SaveFinanceEntity(ctx, &entities.FinanceEntityRecord{ID: 900, EntityName: "Smith for Senate", CandidateName: "John Smith"}))
	require.NoError(t, p.repo.SaveFinanceEntity(ctx, &entities.FinanceEntityRecord{ID: 901, EntityName: "Friends of John Smith", CandidateName: "John Smith"}))

	// Survivor holds 900; duplicate holds the colliding 900 plus 901.
	_, err = p.repo.InsertLinks(ctx, []entities.Link{
		{PersonID: survivor, RecordID: 900, Kind: entities.KindFinance},
		{PersonID: duplicate, RecordID: 900, Kind: entities.KindFinance},
		{PersonID: duplicate, RecordID: 901, Kind: entities.KindFinance},
	})
	require.NoError(t, err)

	result, err := p.merge.HandleRun(ctx, false)
	require.NoError(t, err)
	require.Len(t, result.Summary.Groups, 1)

	group := result.Summary.Groups[0]
	assert.Equal(t, 1, group.Relations["person_finance_entities"].Moved)
	assert.Equal(t, 1, group.Relations["person_finance_entities"].Dropped)

	links, err := p.repo.ListLinks(ctx, entities.KindFinance)
	require.NoError(t, err)
	require.Len(t, links, 2)
	for _, link := range links {
		assert.Equal(t, survivor, link.PersonID)
	}
}

func TestPipeline_ReviewTierSurfacesWithoutLinking(t *testing.T) {
	p := setupPipeline(t)
	ctx := context.Background()

	_, err := p.repo.SavePerson(ctx, &entities.Person{DisplayName: "Katharine Hoffman"})
	require.NoError(t, err)
	require.NoError(t, p.repo.SaveLegislator(ctx, &entities.LegislatorRecord{ID: 500, FullName: "Katherine Hoffman"}))

	// At the auto threshold the fuzzy pair is dropped.
	auto, err := p.match.HandleRun(ctx, handlers.MatchOptions{
		Kind:          entities.KindLegislator,
		MinConfidence: p.cfg.Matching.AutoConfidence,
	})
	require.NoError(t, err)
	assert.Empty(t, auto.Selection.Selected)
	assert.Equal(t, 1, auto.Selection.BelowThreshold)

	// The review tier surfaces it read-only.
	review, err := p.match.HandleRun(ctx, handlers.MatchOptions{
		Kind:          entities.KindLegislator,
		MinConfidence: p.cfg.Matching.ReviewConfidence,
		DryRun:        true,
	})
	require.NoError(t, err)
	require.Len(t, review.Selection.Selected, 1)
	assert.Equal(t, entities.RuleFuzzy, review.Selection.Selected[0].Rule)

	links, err := p.repo.ListLinks(ctx, entities.KindLegislator)
	require.NoError(t, err)
	assert.Empty(t, links)
}
