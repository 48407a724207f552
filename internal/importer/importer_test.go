package importer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/perfumatch/internal/importer"
	"github.com/example/perfumatch/internal/models"
	"github.com/example/perfumatch/internal/testutil"
)

func bargelloRecords() []importer.Record {
	return []importer.Record{
		{
			"isim":  "Bargello 515",
			"fiyat": "320,00₺",
			"notalar": map[string]interface{}{
				"üst_notlar":  "Bergamot, Limon",
				"orta_notlar": "Gül",
				"alt_notlar":  "Misk",
				"cinsiyet":    "Erkek",
			},
		},
		{
			"isim":  "Bargello 122",
			"fiyat": "290,00₺",
			"notalar": map[string]interface{}{
				"üst_notlar":  "Gül",
				"orta_notlar": "Vanilya, Gül",
				"alt_notlar":  "Amber",
			},
		},
		{
			"isim": "Bargello 333 Kadın",
		},
	}
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestImportSource_CreatesCatalog(t *testing.T) {
	db := testutil.DB(t)
	im := importer.New(db, testutil.Logger(t), 100)

	res, err := im.ImportSource(context.Background(), "bargello", bargelloRecords())
	require.NoError(t, err)
	assert.Equal(t, importer.Result{Source: "bargello", Created: 3}, res)

	var brand models.Brand
	require.NoError(t, db.Where("name = ?", "Bargello").First(&brand).Error)
	assert.Equal(t, models.BrandAlternative, brand.Type)

	var perfume models.Perfume
	require.NoError(t, db.Preload("Notes.Note").Where("name = ?", "Bargello 515").First(&perfume).Error)
	assert.Equal(t, models.GenderMen, perfume.Gender)
	assert.Equal(t, "TRY", perfume.Currency)
	assert.Equal(t, "bargello", perfume.Source)
	assert.ElementsMatch(t, []string{"Bergamot", "Limon", "Gül", "Misk"}, perfume.NoteNames())

	var bergamot models.Note
	require.NoError(t, db.Where("name = ?", "Bergamot").First(&bergamot).Error)
	assert.Equal(t, "citrus", bergamot.Category)
	assert.Equal(t, models.NoteTop, bergamot.Type)

	var women models.Perfume
	require.NoError(t, db.Where("name = ?", "Bargello 333 Kadın").First(&women).Error)
	assert.Equal(t, models.GenderWomen, women.Gender)
	assert.False(t, women.Price.Valid)
}

func TestImportSource_FirstLayerWinsAndLinksAreUnique(t *testing.T) {
	db := testutil.DB(t)
	im := importer.New(db, testutil.Logger(t), 100)

	_, err := im.ImportSource(context.Background(), "bargello", bargelloRecords())
	require.NoError(t, err)

	// "Gül" is middle for the first perfume, so it stays middle even though
	// the second perfume lists it as top first.
	var rose models.Note
	require.NoError(t, db.Where("name = ?", "Gül").First(&rose).Error)
	assert.Equal(t, models.NoteMiddle, rose.Type)

	var perfume models.Perfume
	require.NoError(t, db.Preload("Notes").Where("name = ?", "Bargello 122").First(&perfume).Error)
	assert.Len(t, perfume.Notes, 3)
	for _, pn := range perfume.Notes {
		assert.Equal(t, models.DefaultIntensity, pn.Intensity)
		if pn.NoteID == rose.ID {
			assert.Equal(t, models.NoteTop, pn.Layer)
		}
	}
}

func TestImportSource_Idempotent(t *testing.T) {
	db := testutil.DB(t)
	im := importer.New(db, testutil.Logger(t), 2)
	ctx := context.Background()

	_, err := im.ImportSource(ctx, "bargello", bargelloRecords())
	require.NoError(t, err)

	perfumes := count(t, db, &models.Perfume{})
	notes := count(t, db, &models.Note{})
	links := count(t, db, &models.PerfumeNote{})
	brands := count(t, db, &models.Brand{})

	res, err := im.ImportSource(ctx, "bargello", bargelloRecords())
	require.NoError(t, err)
	assert.Equal(t, importer.Result{Source: "bargello", Skipped: 3}, res)

	assert.Equal(t, perfumes, count(t, db, &models.Perfume{}))
	assert.Equal(t, notes, count(t, db, &models.Note{}))
	assert.Equal(t, links, count(t, db, &models.PerfumeNote{}))
	assert.Equal(t, brands, count(t, db, &models.Brand{}))
}

func TestImportSource_DuplicateNameInSameRun(t *testing.T) {
	db := testutil.DB(t)
	im := importer.New(db, testutil.Logger(t), 100)

	res, err := im.ImportSource(context.Background(), "zara", []importer.Record{
		{"name": "Vibrant Leather"},
		{"name": "  Vibrant   Leather "},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Skipped)
}

func TestImportSource_MalformedRecordsDoNotAbort(t *testing.T) {
	db := testutil.DB(t)
	im := importer.New(db, testutil.Logger(t), 100)

	records := []importer.Record{
		{"name": "Tobacco Collection"},
		{"price": "100 TL"},
		{"name": false, "description": true},
		{"name": "Fruity Lagoon", "price": "abc"},
	}

	res, err := im.ImportSource(context.Background(), "zara", records)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 2, res.Failed)
}

func TestImportSource_StorageFailureRollsBackRecord(t *testing.T) {
	db := testutil.DB(t)
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("fail_note", func(tx *gorm.DB) {
		if n, ok := tx.Statement.Dest.(*models.Note); ok && n.Name == "Bozuk" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))
	im := importer.New(db, testutil.Logger(t), 100)

	res, err := im.ImportSource(context.Background(), "bargello", []importer.Record{
		{
			"isim": "Bargello A",
			"notalar": map[string]interface{}{
				"üst_notlar":  "Gül",
				"orta_notlar": "Bozuk",
			},
		},
		{
			"isim": "Bargello B",
			"notalar": map[string]interface{}{
				"üst_notlar": "Yeni",
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, importer.Result{Source: "bargello", Created: 1, Failed: 1}, res)

	var perfumes []models.Perfume
	require.NoError(t, db.Find(&perfumes).Error)
	require.Len(t, perfumes, 1)
	assert.Equal(t, "Bargello B", perfumes[0].Name)

	var names []string
	require.NoError(t, db.Model(&models.Note{}).Pluck("name", &names).Error)
	assert.Equal(t, []string{"Yeni"}, names)
	assert.EqualValues(t, 1, count(t, db, &models.PerfumeNote{}))
	assert.EqualValues(t, 1, count(t, db, &models.Brand{}))
}

type prefixRecorder struct {
	prefixes []string
}

func (r *prefixRecorder) DeletePrefix(_ context.Context, prefix string) error {
	r.prefixes = append(r.prefixes, prefix)
	return nil
}

func TestImportSource_InvalidatesAlternativesCache(t *testing.T) {
	db := testutil.DB(t)
	cache := &prefixRecorder{}
	im := importer.New(db, testutil.Logger(t), 100).WithCache(cache)

	_, err := im.ImportSource(context.Background(), "bargello", bargelloRecords())
	require.NoError(t, err)
	assert.Equal(t, []string{"alternatives:"}, cache.prefixes)

	res, err := im.ImportSource(context.Background(), "bargello", bargelloRecords())
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	assert.Len(t, cache.prefixes, 1)
}

func TestImportSource_UnknownSource(t *testing.T) {
	db := testutil.DB(t)
	im := importer.New(db, testutil.Logger(t), 100)

	_, err := im.ImportSource(context.Background(), "nope", nil)
	assert.Error(t, err)
}

func TestImportSource_CancelledContext(t *testing.T) {
	db := testutil.DB(t)
	im := importer.New(db, testutil.Logger(t), 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := im.ImportSource(ctx, "bargello", bargelloRecords())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, count(t, db, &models.Perfume{}))
}

func TestImportAll_LuxuryCatalog(t *testing.T) {
	db := testutil.DB(t)
	im := importer.New(db, testutil.Logger(t), 100)

	records, err := importer.LoadRecords("../../data/luxury_perfumes.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, records)

	results, err := im.ImportAll(context.Background(), []importer.Batch{
		{Source: "luxury", Records: records},
		{Source: "bargello", Records: bargelloRecords()},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, len(records), results[0].Created)
	assert.Equal(t, 3, results[1].Created)

	var chanel models.Brand
	require.NoError(t, db.Where("name = ?", "Chanel").First(&chanel).Error)
	assert.Equal(t, models.BrandLuxury, chanel.Type)

	var no5 models.Perfume
	require.NoError(t, db.Preload("Family").Where("name = ?", "Chanel No. 5").First(&no5).Error)
	require.NotNil(t, no5.Family)
	assert.Equal(t, "Floral", no5.Family.Name)
	assert.Equal(t, models.GenderWomen, no5.Gender)
}
