package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/perfumatch/internal/models"
	"github.com/example/perfumatch/internal/services"
	"github.com/example/perfumatch/internal/similarity"
	"github.com/example/perfumatch/internal/testutil"
)

func TestComputeAll_ReferenceScenario(t *testing.T) {
	db := testutil.DB(t)
	c := seedCatalog(t, db)
	svc := services.NewSimilarityService(db, testutil.Logger(t), nil, 100, 30)

	res, err := svc.ComputeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, services.ComputeResult{Pairs: 3, NewEdges: 2, BelowThreshold: 1}, res)

	var edge models.PerfumeSimilarity
	require.NoError(t, db.Where("luxury_perfume_id = ? AND alternative_perfume_id = ?", c.luxury.ID, c.twin.ID).First(&edge).Error)
	assert.InDelta(t, 77.5, edge.SimilarityScore, 1e-9)
	require.NotNil(t, edge.NoteSimilarity)
	assert.InDelta(t, 22.5, *edge.NoteSimilarity, 1e-9)
	require.NotNil(t, edge.FamilySimilarity)
	assert.InDelta(t, 25.0, *edge.FamilySimilarity, 1e-9)
	assert.True(t, edge.GenderMatch)
	require.True(t, edge.PriceDifference.Valid)
	assert.True(t, decimal.NewFromInt(3180).Equal(edge.PriceDifference.Decimal))

	var missing int64
	require.NoError(t, db.Model(&models.PerfumeSimilarity{}).Where("alternative_perfume_id = ?", c.opposite.ID).Count(&missing).Error)
	assert.Zero(t, missing)
}

func TestComputeAll_BoundaryScoreUsesLenientGenderButStoresStrictMatch(t *testing.T) {
	db := testutil.DB(t)
	c := seedCatalog(t, db)
	svc := services.NewSimilarityService(db, testutil.Logger(t), nil, 100, 30)

	_, err := svc.ComputeAll(context.Background())
	require.NoError(t, err)

	var edge models.PerfumeSimilarity
	require.NoError(t, db.Where("alternative_perfume_id = ?", c.borderRef.ID).First(&edge).Error)
	assert.InDelta(t, similarity.Threshold, edge.SimilarityScore, 1e-9)
	assert.False(t, edge.GenderMatch)
}

func TestComputeAll_Idempotent(t *testing.T) {
	db := testutil.DB(t)
	seedCatalog(t, db)
	svc := services.NewSimilarityService(db, testutil.Logger(t), nil, 1, 30)
	ctx := context.Background()

	_, err := svc.ComputeAll(ctx)
	require.NoError(t, err)

	var before []models.PerfumeSimilarity
	require.NoError(t, db.Order("id").Find(&before).Error)

	res, err := svc.ComputeAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.NewEdges)
	assert.Equal(t, 2, res.SkippedExisting)
	assert.Equal(t, 1, res.BelowThreshold)

	var after []models.PerfumeSimilarity
	require.NoError(t, db.Order("id").Find(&after).Error)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].ID, after[i].ID)
		assert.Equal(t, before[i].SimilarityScore, after[i].SimilarityScore)
	}
}

func TestComputeAll_NoEdgeBelowThreshold(t *testing.T) {
	db := testutil.DB(t)
	seedCatalog(t, db)

	lux := testutil.Brand(t, db, "Dior", models.BrandLuxury)
	alt := testutil.Brand(t, db, "Muscent", models.BrandAlternative)
	for _, g := range []models.Gender{models.GenderMen, models.GenderWomen, models.GenderUnisex} {
		testutil.Perfume(t, db, lux, "Lux "+string(g), g, testutil.PerfumeOpts{Notes: []testutil.NoteSpec{testutil.Middle("Oud")}})
		testutil.Perfume(t, db, alt, "Alt "+string(g), g, testutil.PerfumeOpts{Notes: []testutil.NoteSpec{testutil.Middle("Iris")}})
	}

	// A lower configured threshold never lets weaker edges through.
	svc := services.NewSimilarityService(db, testutil.Logger(t), nil, 100, 5)
	_, err := svc.ComputeAll(context.Background())
	require.NoError(t, err)

	var weak int64
	require.NoError(t, db.Model(&models.PerfumeSimilarity{}).Where("similarity_score < ?", similarity.Threshold).Count(&weak).Error)
	assert.Zero(t, weak)
}

func TestComputeAll_InvalidatesAlternativesCache(t *testing.T) {
	db := testutil.DB(t)
	seedCatalog(t, db)
	cache := newMemCache()
	require.NoError(t, cache.Set(context.Background(), "alternatives:x:10", []string{"stale"}))

	svc := services.NewSimilarityService(db, testutil.Logger(t), cache, 100, 30)
	_, err := svc.ComputeAll(context.Background())
	require.NoError(t, err)

	assert.Contains(t, cache.deletes, "alternatives:")
	assert.Empty(t, cache.keys())
}

func TestDeleteAllAndTop(t *testing.T) {
	db := testutil.DB(t)
	c := seedCatalog(t, db)
	svc := services.NewSimilarityService(db, testutil.Logger(t), nil, 100, 30)
	ctx := context.Background()

	_, err := svc.ComputeAll(ctx)
	require.NoError(t, err)

	top, err := svc.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, c.twin.Name, top[0].Alternative)
	assert.Equal(t, "Chanel", top[0].LuxuryBrand)
	assert.Equal(t, "Bargello", top[0].AlternativeBrand)
	assert.GreaterOrEqual(t, top[0].SimilarityScore, top[1].SimilarityScore)

	ratings := services.NewRatingService(db, testutil.Logger(t))
	edgeID := top[0].ID
	_, err = ratings.Rate(ctx, services.RatingInput{PerfumeID: c.twin.ID, SimilarityID: &edgeID, Rating: 4})
	require.NoError(t, err)

	deleted, err := svc.DeleteAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	var left int64
	require.NoError(t, db.Model(&models.PerfumeSimilarity{}).Count(&left).Error)
	assert.Zero(t, left)

	res, err := svc.ComputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.NewEdges)
}
