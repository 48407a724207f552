package services_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/perfumatch/internal/models"
	"github.com/example/perfumatch/internal/services"
)

func perfumeWithNotes() *models.Perfume {
	link := func(name string, stored, listed models.NoteType) models.PerfumeNote {
		return models.PerfumeNote{Layer: listed, Note: &models.Note{Name: name, Type: stored}}
	}
	return &models.Perfume{
		Name:     "Sauvage",
		Gender:   models.GenderMen,
		Currency: "TRY",
		Price:    decimal.NewNullDecimal(decimal.RequireFromString("4250.50")),
		Brand:    &models.Brand{Name: "Dior", Type: models.BrandLuxury},
		Notes: []models.PerfumeNote{
			link("Pepper", models.NoteMiddle, models.NoteTop),
			link("Bergamot", models.NoteTop, models.NoteTop),
			link("Ambroxan", models.NoteBase, models.NoteBase),
			{Layer: models.NoteTop},
		},
	}
}

func TestProject_FirstSeenLayer(t *testing.T) {
	out := services.Project(perfumeWithNotes(), nil)

	assert.Equal(t, "Sauvage", out.Name)
	assert.Equal(t, services.BrandRef{Name: "Dior", Type: models.BrandLuxury}, out.Brand)
	assert.Nil(t, out.Family)
	require.NotNil(t, out.Price)
	assert.InDelta(t, 4250.5, *out.Price, 1e-9)

	assert.Equal(t, []services.NoteRef{{Name: "Bergamot"}}, out.Notes.Top)
	assert.Equal(t, []services.NoteRef{{Name: "Pepper"}}, out.Notes.Middle)
	assert.Equal(t, []services.NoteRef{{Name: "Ambroxan"}}, out.Notes.Base)
	assert.ElementsMatch(t, []string{"Bergamot", "Pepper", "Ambroxan"}, out.Notes.Names())
}

func TestProject_PerPerfumeLayer(t *testing.T) {
	out := services.Project(perfumeWithNotes(), services.LayerResolverFor("per_perfume"))

	assert.Equal(t, []services.NoteRef{{Name: "Bergamot"}, {Name: "Pepper"}}, out.Notes.Top)
	assert.Empty(t, out.Notes.Middle)
	assert.Equal(t, []services.NoteRef{{Name: "Ambroxan"}}, out.Notes.Base)
}

func TestProject_JSONShape(t *testing.T) {
	p := &models.Perfume{Name: "Bare", Gender: models.GenderUnisex, Brand: &models.Brand{Name: "X"}}
	raw, err := json.Marshal(services.Project(p, nil))
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Nil(t, doc["price"])
	assert.Nil(t, doc["family"])
	assert.Contains(t, doc, "notes")
	notes := doc["notes"].(map[string]interface{})
	assert.Equal(t, []interface{}{}, notes["top"])
}

func TestLayerResolverFor(t *testing.T) {
	assert.IsType(t, services.FirstSeenLayer{}, services.LayerResolverFor(""))
	assert.IsType(t, services.FirstSeenLayer{}, services.LayerResolverFor("first_seen"))
	assert.IsType(t, services.PerPerfumeLayer{}, services.LayerResolverFor("per_perfume"))
}
