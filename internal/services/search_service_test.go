package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/perfumatch/internal/models"
	"github.com/example/perfumatch/internal/services"
	"github.com/example/perfumatch/internal/testutil"
)

func newSearch(t *testing.T, cache services.Cache) (*services.SearchService, catalog, *services.SimilarityService) {
	t.Helper()
	db := testutil.DB(t)
	c := seedCatalog(t, db)
	log := testutil.Logger(t)
	finder := services.NewAlternativeFinder(db, log, nil, 0)
	return services.NewSearchService(db, log, cache, nil, finder), c,
		services.NewSimilarityService(db, log, cache, 100, 30)
}

func names(ps []services.Projection) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestSearchByName(t *testing.T) {
	svc, _, _ := newSearch(t, nil)
	ctx := context.Background()

	got, err := svc.SearchByName(ctx, "BARGELLO", services.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bargello 122", "Bargello 515", "Bargello 700"}, names(got))

	got, err = svc.SearchByName(ctx, "chanel", services.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bleu de Chanel"}, names(got))

	got, err = svc.SearchByName(ctx, "bargello", services.Filter{Gender: models.GenderWomen})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bargello 122"}, names(got))

	got, err = svc.SearchByName(ctx, "bargello", services.Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = svc.SearchByName(ctx, "100%", services.Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = svc.SearchByName(ctx, "  ", services.Filter{})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestSearchByNotes_StrictMajority(t *testing.T) {
	db := testutil.DB(t)
	brand := testutil.Brand(t, db, "Muscent", models.BrandAlternative)
	testutil.Perfume(t, db, brand, "Only Rose", models.GenderWomen, testutil.PerfumeOpts{
		Notes: []testutil.NoteSpec{testutil.Middle("Gül")},
	})
	testutil.Perfume(t, db, brand, "Rose Vanilla Musk", models.GenderWomen, testutil.PerfumeOpts{
		Notes: []testutil.NoteSpec{testutil.Top("Gül"), testutil.Middle("Vanilya"), testutil.Base("Misk")},
	})
	svc := services.NewSearchService(db, testutil.Logger(t), nil, nil, nil)
	ctx := context.Background()

	tests := []struct {
		query []string
		want  []string
	}{
		{[]string{"Gül", "Vanilya"}, []string{"Rose Vanilla Musk"}},
		{[]string{"Gül"}, []string{"Only Rose", "Rose Vanilla Musk"}},
		{[]string{"Gül", "Gül", " Vanilya "}, []string{"Rose Vanilla Musk"}},
		{[]string{"Gül", "Oud", "Amber"}, []string{}},
		{[]string{"gül"}, []string{}},
	}
	for _, tt := range tests {
		got, err := svc.SearchByNotes(ctx, tt.query, services.Filter{})
		require.NoError(t, err)
		assert.Equal(t, tt.want, names(got), "%v", tt.query)
	}

	_, err := svc.SearchByNotes(ctx, []string{" ", ""}, services.Filter{})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestMajorityOf(t *testing.T) {
	assert.Equal(t, 1, services.MajorityOf(1))
	assert.Equal(t, 2, services.MajorityOf(2))
	assert.Equal(t, 2, services.MajorityOf(3))
	assert.Equal(t, 3, services.MajorityOf(4))
}

func TestSearch_Dispatch(t *testing.T) {
	svc, _, _ := newSearch(t, nil)
	ctx := context.Background()

	got, err := svc.Search(ctx, services.SearchQuery{Term: "wood", Type: services.SearchByFamily})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bargello 515", "Bleu de Chanel"}, names(got))

	got, err = svc.Search(ctx, services.SearchQuery{Term: "Bergamot, Sandalwood", Type: services.SearchByNotes, Gender: "men"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bleu de Chanel"}, names(got))

	got, err = svc.Search(ctx, services.SearchQuery{Term: "bleu", Gender: "all"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.Search(ctx, services.SearchQuery{Term: "x", Gender: "kids"})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = svc.Search(ctx, services.SearchQuery{Term: "x", Type: "price"})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestGetPerfume(t *testing.T) {
	cache := newMemCache()
	svc, c, _ := newSearch(t, cache)
	ctx := context.Background()

	p, err := svc.GetPerfume(ctx, c.luxury.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bleu de Chanel", p.Name)
	assert.Equal(t, "Chanel", p.Brand.Name)
	require.NotNil(t, p.Family)
	assert.Equal(t, "Woody", p.Family.Name)
	require.NotNil(t, p.Price)
	assert.InDelta(t, 3500, *p.Price, 1e-9)
	assert.Equal(t, []services.NoteRef{{Name: "Bergamot"}}, p.Notes.Top)
	assert.Equal(t, []services.NoteRef{{Name: "Rose"}}, p.Notes.Middle)
	assert.Equal(t, []services.NoteRef{{Name: "Sandalwood"}}, p.Notes.Base)
	assert.Contains(t, cache.keys(), "perfume:"+c.luxury.ID.String())

	_, err = svc.GetPerfume(ctx, uuid.New())
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestGetAlternatives_Stored(t *testing.T) {
	svc, c, sims := newSearch(t, nil)
	ctx := context.Background()

	_, err := sims.ComputeAll(ctx)
	require.NoError(t, err)

	alts, err := svc.GetAlternatives(ctx, c.luxury.ID, 10)
	require.NoError(t, err)
	require.Len(t, alts, 2)

	assert.Equal(t, "Bargello 515", alts[0].Perfume.Name)
	assert.InDelta(t, 77.5, alts[0].SimilarityScore, 1e-9)
	assert.Equal(t, []string{"Bergamot", "Rose"}, alts[0].CommonNotes)
	assert.Equal(t, services.AlternativeStored, alts[0].Source)
	require.NotNil(t, alts[0].SimilarityID)
	require.NotNil(t, alts[0].PriceDifference)
	assert.InDelta(t, 3180, *alts[0].PriceDifference, 1e-9)

	assert.Equal(t, "Bargello 700", alts[1].Perfume.Name)
	assert.Empty(t, alts[1].CommonNotes)

	limited, err := svc.GetAlternatives(ctx, c.luxury.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = svc.GetAlternatives(ctx, uuid.New(), 5)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestGetAlternatives_FallsBackToOnlineRanking(t *testing.T) {
	svc, c, _ := newSearch(t, nil)

	alts, err := svc.GetAlternatives(context.Background(), c.luxury.ID, 10)
	require.NoError(t, err)
	require.Len(t, alts, 1)

	assert.Equal(t, "Bargello 515", alts[0].Perfume.Name)
	assert.Equal(t, services.AlternativeComputed, alts[0].Source)
	assert.InDelta(t, 50, alts[0].SimilarityScore, 1e-9)
	require.NotNil(t, alts[0].NoteSimilarity)
	assert.InDelta(t, 22.5, *alts[0].NoteSimilarity, 1e-9)
	assert.True(t, alts[0].GenderMatch)
	assert.Nil(t, alts[0].SimilarityID)
}

func TestGetAlternatives_CachedUntilRecompute(t *testing.T) {
	cache := newMemCache()
	svc, c, sims := newSearch(t, cache)
	ctx := context.Background()

	first, err := svc.GetAlternatives(ctx, c.luxury.ID, 10)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, services.AlternativeComputed, first[0].Source)

	_, err = sims.ComputeAll(ctx)
	require.NoError(t, err)

	second, err := svc.GetAlternatives(ctx, c.luxury.ID, 10)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, services.AlternativeStored, second[0].Source)
}
