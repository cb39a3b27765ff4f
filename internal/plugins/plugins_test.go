package plugins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/taxacurator/internal/console"
	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
)

func testStore(t *testing.T) *gateway.SQLiteStore {
	t.Helper()
	store, err := gateway.ConnectSQLite(context.Background(), t.TempDir(), "plugins.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func insert(t *testing.T, store gateway.Gateway, table string, rows ...domain.Record) {
	t.Helper()
	_, err := store.Insert(context.Background(), table, rows...)
	require.NoError(t, err)
}

// seedCatalogue loads a small genus with two researchers, two repositories,
// one journal and one publication.
func seedCatalogue(t *testing.T, store gateway.Gateway) {
	t.Helper()
	insert(t, store, "researchers",
		domain.Record{"id": "r1", "last_name": "Smith", "first_name": "Ann", "orcid": "0000-0001"},
		domain.Record{"id": "r2", "last_name": "Yamane", "first_name": "Seiki"},
		domain.Record{"id": "r3", "last_name": "Brown", "first_name": "Cal"},
	)
	insert(t, store, "researcher_aliases", domain.Record{"researcher_id": "r2", "alias_name": "Yamane Sk."})
	insert(t, store, "Repositories",
		domain.Record{"uuid": "repo-1", "acronym": "NHM", "name_en": "Natural History Museum", "city": "London", "country": "UK", "parent_id": "repo-1"},
		domain.Record{"uuid": "repo-2", "acronym": "BMNH", "name_en": "British Museum", "country": "UK", "parent_id": "repo-1"},
		domain.Record{"uuid": "repo-3", "acronym": "OMNH", "name_en": "Osaka Museum", "city": "Osaka", "country": "Japan"},
	)
	insert(t, store, "scientific_names",
		domain.Record{"id": "Xus", "name_spell_valid": "Xus", "current_rank": "genus", "current_parent": "Xidae", "valid_name_id": "Xus"},
		domain.Record{
			"id": "Xus yus", "name_spell_valid": "Xus yus", "current_rank": "species", "current_parent": "Xus",
			"valid_name_id": "Xus yus", "type_repository_id": "repo-1", "authority_year": "2024",
			"last_update": "2024-03-05T10:20:00Z",
		},
		domain.Record{"id": "Xus zus", "name_spell_valid": "Xus zus", "current_rank": "species", "current_parent": "Xus", "valid_name_id": "Xus yus"},
		domain.Record{"id": "Xus aus", "name_spell_valid": "Xus aus", "current_rank": "Junior Synonym", "current_parent": "Xus", "type_repository": "Kyoto"},
	)
	insert(t, store, "scientific_name_and_author",
		domain.Record{"scientific_name_id": "Xus yus", "researcher_id": "r2", "author_order": 2},
		domain.Record{"scientific_name_id": "Xus yus", "researcher_id": "r1", "author_order": 1},
		domain.Record{"scientific_name_id": "Xus", "researcher_id": "r3", "author_order": 1},
	)
	insert(t, store, "journals", domain.Record{"id": "j1", "name_english": "Journal of Xus"})
	insert(t, store, "publications",
		domain.Record{
			"id": "pub-1", "title_english": "<i>Xus</i> revisited", "publication_date": "2023-06-01",
			"journal_id": "j1", "volume": "12", "number": "3", "page": "45-50", "doi": "10.1/xus", "is_open_access": true,
		},
		domain.Record{"id": "pub-2", "title_english": "Notes on Zus", "publication_date": "2021-01-01"},
	)
	insert(t, store, "publications_authors",
		domain.Record{"publication_id": "pub-1", "researcher_id": "r1", "author_order": 2},
		domain.Record{"publication_id": "pub-1", "researcher_id": "r2", "author_order": 1},
	)
}

func names(rows []domain.ScientificName) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestPluginDescriptorsAreValid(t *testing.T) {
	assert.NoError(t, ScientificNames().Validate())
	assert.NoError(t, TaxonomicActs().Validate())
	assert.NoError(t, BionomicRecords().Validate())
	assert.NoError(t, Repositories().Validate())
	assert.NoError(t, Researchers().Validate())
	assert.NoError(t, Publications().Validate())
}

func TestScientificNamesConsole(t *testing.T) {
	store := testStore(t)
	seedCatalogue(t, store)
	plugin := ScientificNames()
	ctx := context.Background()

	all := console.List(ctx, store, plugin, console.ListParams{PageSize: 10})
	require.NoError(t, all.Err)
	require.Equal(t, 4, all.Total)
	assert.Equal(t, []string{"Xus", "Xus aus", "Xus yus", "Xus zus"}, names(all.Rows))

	byID := map[string]domain.ScientificName{}
	for _, r := range all.Rows {
		byID[r.ID] = r
	}
	yus := byID["Xus yus"]
	assert.Equal(t, "Smith & Yamane", yus.AuthorsDisplay)
	assert.False(t, yus.IsSynonym)
	assert.Equal(t, "NHM — Natural History Museum (London, UK)", yus.TypeRepoDisplay)
	assert.Equal(t, "2024/03/05 10:20", yus.LastUpdateDisplay)

	zus := byID["Xus zus"]
	assert.True(t, zus.IsSynonym)
	assert.Equal(t, "Xus yus", zus.ValidName)
	assert.Equal(t, "—", zus.AuthorsDisplay)

	aus := byID["Xus aus"]
	assert.True(t, aus.IsSynonym, "synonym by rank")
	assert.Empty(t, aus.ValidName)
	assert.Equal(t, "Kyoto", aus.TypeRepoDisplay)

	t.Run("paging", func(t *testing.T) {
		first := console.List(ctx, store, plugin, console.ListParams{Page: 0, PageSize: 3})
		second := console.List(ctx, store, plugin, console.ListParams{Page: 1, PageSize: 3})
		assert.Len(t, first.Rows, 3)
		assert.Equal(t, []string{"Xus zus"}, names(second.Rows))
		assert.Equal(t, 4, second.Total)
	})

	t.Run("search over derived fields", func(t *testing.T) {
		for term, want := range map[string][]string{
			"smith":   {"Xus yus"},
			"LONDON":  {"Xus yus"},
			"xidae":   {"Xus"},
			"no such": {},
		} {
			res := console.List(ctx, store, plugin, console.ListParams{PageSize: 10, Search: term})
			assert.Equal(t, want, names(res.Rows), term)
			assert.LessOrEqual(t, res.Total, all.Total)
		}
	})

	t.Run("sort by status", func(t *testing.T) {
		res := console.List(ctx, store, plugin, console.ListParams{PageSize: 10, SortModel: []console.SortItem{{Field: "status", Sort: console.SortAsc}}})
		assert.Equal(t, []string{"Xus", "Xus yus", "Xus aus", "Xus zus"}, names(res.Rows))
	})

	t.Run("sort reverses", func(t *testing.T) {
		desc := console.List(ctx, store, plugin, console.ListParams{PageSize: 10, SortModel: []console.SortItem{{Field: "id", Sort: console.SortDesc}}})
		assert.Equal(t, []string{"Xus zus", "Xus yus", "Xus aus", "Xus"}, names(desc.Rows))
	})
}

func TestRepositoriesConsoleStrategies(t *testing.T) {
	store := testStore(t)
	seedCatalogue(t, store)
	plugin := Repositories()
	ctx := context.Background()

	check := func(t *testing.T, res console.ListResult[domain.Repository], source string) {
		t.Helper()
		require.NoError(t, res.Err)
		assert.Equal(t, source, res.Source)
		require.Equal(t, 3, res.Total)
		byAcronym := map[string]domain.Repository{}
		for _, r := range res.Rows {
			byAcronym[r.Acronym] = r
		}
		bmnh := byAcronym["BMNH"]
		assert.Equal(t, "repo-2", bmnh.ID)
		assert.True(t, bmnh.IsSynonym)
		assert.Equal(t, "NHM — Natural History Museum", bmnh.ParentDisplay)
		assert.False(t, byAcronym["NHM"].IsSynonym)
		assert.False(t, byAcronym["OMNH"].IsSynonym)
		assert.Equal(t, "Osaka Museum", byAcronym["OMNH"].Name)
	}

	rpc := console.List(ctx, store, plugin, console.ListParams{PageSize: 10})
	check(t, rpc, "rpc")
	assert.Equal(t, "BMNH", rpc.Rows[0].Acronym)

	store.Unregister("search_repositories")
	fallback := console.List(ctx, store, plugin, console.ListParams{PageSize: 10})
	check(t, fallback, "table")

	searched := console.List(ctx, store, plugin, console.ListParams{PageSize: 10, Search: "museum", SortModel: []console.SortItem{{Field: "name", Sort: console.SortDesc}}})
	require.Len(t, searched.Rows, 3)
	assert.Equal(t, "Osaka Museum", searched.Rows[0].Name)

	byUUID := console.List(ctx, store, plugin, console.ListParams{PageSize: 10, SortModel: []console.SortItem{{Field: "uuid", Sort: console.SortAsc}}})
	require.NoError(t, byUUID.Err)
	require.Len(t, byUUID.Rows, 3)
	assert.Equal(t, []string{"repo-1", "repo-2", "repo-3"}, []string{byUUID.Rows[0].UUID, byUUID.Rows[1].UUID, byUUID.Rows[2].UUID})
}

func TestResearchersConsoleStrategies(t *testing.T) {
	store := testStore(t)
	seedCatalogue(t, store)
	plugin := Researchers()
	ctx := context.Background()

	rpc := console.List(ctx, store, plugin, console.ListParams{PageSize: 2})
	require.NoError(t, rpc.Err)
	assert.Equal(t, "rpc", rpc.Source)
	assert.Equal(t, 3, rpc.Total)
	require.Len(t, rpc.Rows, 2)
	assert.Equal(t, "Brown, Cal", rpc.Rows[0].Name)
	assert.Equal(t, "Smith, Ann", rpc.Rows[1].Name)

	alias := console.List(ctx, store, plugin, console.ListParams{PageSize: 10, Search: "sk."})
	require.Len(t, alias.Rows, 1)
	assert.Equal(t, "Yamane Sk.", alias.Rows[0].AliasesText)
	assert.Equal(t, 1, alias.Total)

	store.Unregister("search_researchers")
	fallback := console.List(ctx, store, plugin, console.ListParams{Page: 1, PageSize: 2})
	require.NoError(t, fallback.Err)
	assert.Equal(t, "table", fallback.Source)
	assert.Equal(t, 3, fallback.Total)
	require.Len(t, fallback.Rows, 1)
	assert.Equal(t, "r3", fallback.Rows[0].ID)
	assert.Equal(t, "—", fallback.Rows[0].AliasesText)

	first := console.List(ctx, store, plugin, console.ListParams{Page: 0, PageSize: 2})
	require.Len(t, first.Rows, 2)
	assert.Equal(t, "Yamane Sk.", first.Rows[1].AliasesText)
}

func TestBionomicRecordsConsole(t *testing.T) {
	store := testStore(t)
	seedCatalogue(t, store)
	insert(t, store, "bionomic_records",
		domain.Record{
			"source_publication_id": "pub-1", "target_taxa_id": "Xus yus", "data_type": "distribution",
			"page_start": 45, "created_at": "2024-01-01 00:00:00",
			"distribution": []any{map[string]any{"country": "Japan", "city": "Osaka", "latitude": 34.7, "longitude": 135.5}},
		},
		domain.Record{"target_taxa_id": "Unknown taxon", "data_type": "ecology", "remark": "on leaves", "created_at": "2024-02-01 00:00:00"},
	)
	plugin := BionomicRecords()
	ctx := context.Background()

	res := console.List(ctx, store, plugin, console.ListParams{PageSize: 10})
	require.NoError(t, res.Err)
	require.Equal(t, 2, res.Total)
	require.Len(t, res.Rows, 2)

	latest, oldest := res.Rows[0], res.Rows[1]
	assert.Equal(t, "Unknown taxon", latest.TaxonLabel)
	assert.Equal(t, "—", latest.PubLabel)
	assert.Equal(t, "[pub-1] <i>Xus</i> revisited (2023) — Journal of Xus 12(3): 45-50", oldest.PubLabel)
	assert.Equal(t, "Xus yus", oldest.TaxonLabel)
	assert.Equal(t, "Japan, Osaka, (34.7, 135.5)", DistributionSummary(oldest.Distribution))

	searched := console.List(ctx, store, plugin, console.ListParams{PageSize: 10, Search: "leaves"})
	assert.Equal(t, 1, searched.Total)

	byLabel := console.List(ctx, store, plugin, console.ListParams{PageSize: 10, SortModel: []console.SortItem{{Field: "_taxon_label", Sort: console.SortAsc}}})
	require.NoError(t, byLabel.Err)
	assert.Equal(t, "Unknown taxon", byLabel.Rows[0].TaxonLabel)
	assert.Equal(t, "Xus yus", byLabel.Rows[1].TaxonLabel)
}

func TestPublicationsConsole(t *testing.T) {
	store := testStore(t)
	seedCatalogue(t, store)
	plugin := Publications()
	ctx := context.Background()

	res := console.List(ctx, store, plugin, console.ListParams{PageSize: 10})
	require.NoError(t, res.Err)
	require.Len(t, res.Rows, 2)
	pub := res.Rows[0]
	assert.Equal(t, "pub-1", pub.ID, "newest first")
	assert.Equal(t, "Yamane, Seiki; Smith, Ann", pub.AuthorsText)
	assert.Equal(t, "Journal of Xus", pub.JournalName)
	assert.Equal(t, " Xus  revisited", pub.TitleEnglishText)
	assert.True(t, pub.IsOpenAccess)

	searched := console.List(ctx, store, plugin, console.ListParams{PageSize: 10, Search: "revisited"})
	require.Len(t, searched.Rows, 1)
	assert.Equal(t, "pub-1", searched.Rows[0].ID)
}

func TestTaxonomicActsConsole(t *testing.T) {
	store := testStore(t)
	insert(t, store, "taxonomic_acts",
		domain.Record{"id": "act-1", "scientific_name_id": "Xus yus", "act_type_id": "new_species", "created_at": "2024-01-01 00:00:00"},
		domain.Record{"id": "act-2", "scientific_name_id": "Xus zus", "act_type_id": "synonymy", "created_at": "2024-02-01 00:00:00"},
	)
	res := console.List(context.Background(), store, TaxonomicActs(), console.ListParams{PageSize: 10, Search: "zus"})
	require.NoError(t, res.Err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "act-2", res.Rows[0].ID)
	assert.True(t, res.Rows[0].Logged)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	valid := "Xus yus"
	update := "2024-03-05T10:20:00Z"
	parent := "repo-1"

	sn := domain.ScientificName{ID: "Xus yus", LastUpdate: &update, ValidNameID: &valid,
		Authors: []domain.AuthorLink{{LastName: "Smith", Order: 1}}}
	once := normalizeScientificName(sn)
	assert.Equal(t, once, normalizeScientificName(once))

	repo := domain.Repository{UUID: "repo-2", Acronym: "BMNH", ParentID: &parent, Parent: &domain.RepositoryRef{Acronym: "NHM"}}
	assert.Equal(t, normalizeRepository(repo), normalizeRepository(normalizeRepository(repo)))

	person := domain.Researcher{ID: "r1", LastName: "Smith", Aliases: []string{"A. Smith"}}
	assert.Equal(t, normalizeResearcher(person), normalizeResearcher(normalizeResearcher(person)))

	pub := domain.Publication{ID: "pub-1", TitleEnglish: "<b>X</b>", Authors: []domain.PersonName{{LastName: "Smith"}}}
	assert.Equal(t, normalizePublication(pub), normalizePublication(normalizePublication(pub)))

	act := domain.TaxonomicAct{ID: "act-1"}
	first := normalizeTaxonomicAct(act)
	second := normalizeTaxonomicAct(first)
	first.Logged, second.Logged = false, false
	assert.Equal(t, first, second)
}

func TestRegistry(t *testing.T) {
	store := testStore(t)
	reg := NewRegistry(store, DefaultEditLinks)
	assert.Equal(t, []string{
		BionomicRecordsConsole, PublicationsConsole, RepositoriesConsole,
		ResearchersConsole, ScientificNamesConsole, TaxonomicActsConsole,
	}, reg.Names())

	seedCatalogue(t, store)
	c, err := reg.Get(ScientificNamesConsole)
	require.NoError(t, err)
	view := c.Load(context.Background(), console.ListParams{PageSize: 1})
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "/api/v1/scientific-names/Xus/draft", view.Rows[0].Cells[console.ActionsField])

	repos, err := reg.Get(RepositoriesConsole)
	require.NoError(t, err)
	view = repos.Load(context.Background(), console.ListParams{PageSize: 1})
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "/api/v1/repositories/repo-2/draft", view.Rows[0].Cells[console.ActionsField])

	noLinks := NewRegistry(store, EditLinks{})
	acts, err := noLinks.Get(TaxonomicActsConsole)
	require.NoError(t, err)
	for _, row := range acts.Load(context.Background(), console.ListParams{PageSize: 5}).Rows {
		assert.Empty(t, row.Cells[console.ActionsField])
	}
}
