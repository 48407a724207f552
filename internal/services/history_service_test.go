package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/perfumatch/internal/models"
	"github.com/example/perfumatch/internal/services"
	"github.com/example/perfumatch/internal/testutil"
)

func TestRecordAndPopular(t *testing.T) {
	db := testutil.DB(t)
	c := seedCatalog(t, db)
	svc := services.NewHistoryService(db, testutil.Logger(t), nil)
	ctx := context.Background()

	for _, term := range []string{"bleu", "bleu", "bleu", "sauvage", "sauvage", "aventus"} {
		svc.Record(ctx, models.SearchHistory{SearchTerm: term, ResultsCount: 1})
	}
	svc.Record(ctx, models.SearchHistory{SearchTerm: "Gül,Vanilya", SearchType: string(services.SearchByNotes)})
	svc.Record(ctx, models.SearchHistory{SearchTerm: strings.Repeat("ş", 250)})

	var long models.SearchHistory
	require.NoError(t, db.Where("search_term LIKE ?", "ş%").First(&long).Error)
	assert.Equal(t, 200, len([]rune(long.SearchTerm)))

	r1, r2 := 4.8, 4.1
	require.NoError(t, db.Model(c.twin).Update("rating", r1).Error)
	require.NoError(t, db.Model(c.luxury).Update("rating", r2).Error)

	pop, err := svc.Popular(ctx, 3)
	require.NoError(t, err)

	require.Len(t, pop.PopularSearches, 3)
	assert.Equal(t, services.TermCount{Term: "bleu", Count: 3}, pop.PopularSearches[0])
	assert.Equal(t, services.TermCount{Term: "sauvage", Count: 2}, pop.PopularSearches[1])
	assert.Equal(t, "aventus", pop.PopularSearches[2].Term)

	require.Len(t, pop.TopRated, 2)
	assert.Equal(t, "Bargello 515", pop.TopRated[0].Name)
	assert.Equal(t, "Bleu de Chanel", pop.TopRated[1].Name)
}

func TestPopular_Empty(t *testing.T) {
	svc := services.NewHistoryService(testutil.DB(t), testutil.Logger(t), nil)

	pop, err := svc.Popular(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, pop.PopularSearches)
	assert.Empty(t, pop.TopRated)
}
