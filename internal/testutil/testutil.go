// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/perfumatch/internal/database"
	"github.com/example/perfumatch/internal/models"
	plog "github.com/example/perfumatch/internal/pkg/logger"
)

// DB returns a migrated in-memory SQLite database private to t.
func DB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := database.Open(":memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(conn))

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// Logger returns a logger that discards output.
func Logger(t *testing.T) *plog.Logger {
	t.Helper()
	return plog.Nop()
}

// Brand creates a brand.
func Brand(t *testing.T, db *gorm.DB, name string, typ models.BrandType) *models.Brand {
	t.Helper()
	b := &models.Brand{Name: name, Type: typ}
	require.NoError(t, db.Create(b).Error)
	return b
}

// Family creates a perfume family.
func Family(t *testing.T, db *gorm.DB, name string) *models.PerfumeFamily {
	t.Helper()
	f := &models.PerfumeFamily{Name: name}
	require.NoError(t, db.Create(f).Error)
	return f
}

// NoteSpec names a note and the layer it is listed under.
type NoteSpec struct {
	Name  string
	Layer models.NoteType
}

// Top, Middle and Base are shorthands for NoteSpec.
func Top(name string) NoteSpec    { return NoteSpec{Name: name, Layer: models.NoteTop} }
func Middle(name string) NoteSpec { return NoteSpec{Name: name, Layer: models.NoteMiddle} }
func Base(name string) NoteSpec   { return NoteSpec{Name: name, Layer: models.NoteBase} }

// PerfumeOpts are the optional fields of a seeded perfume.
type PerfumeOpts struct {
	Family *models.PerfumeFamily
	Price  string
	Notes  []NoteSpec
}

// Perfume creates a perfume with its note links. Notes are created on first use.
func Perfume(t *testing.T, db *gorm.DB, brand *models.Brand, name string, gender models.Gender, opts PerfumeOpts) *models.Perfume {
	t.Helper()

	p := &models.Perfume{
		Name:     name,
		BrandID:  brand.ID,
		Gender:   gender,
		Currency: "TRY",
		Source:   "test",
	}
	if opts.Family != nil {
		id := opts.Family.ID
		p.FamilyID = &id
	}
	if opts.Price != "" {
		p.Price = decimal.NewNullDecimal(decimal.RequireFromString(opts.Price))
	}
	require.NoError(t, db.Create(p).Error)

	for _, spec := range opts.Notes {
		note := Note(t, db, spec.Name, spec.Layer)
		link := &models.PerfumeNote{
			PerfumeID: p.ID,
			NoteID:    note.ID,
			Intensity: models.DefaultIntensity,
			Layer:     spec.Layer,
		}
		require.NoError(t, db.Create(link).Error)
	}
	return p
}

// Note returns the note called name, creating it with layer when missing.
func Note(t *testing.T, db *gorm.DB, name string, layer models.NoteType) *models.Note {
	t.Helper()
	var note models.Note
	err := db.Where("name = ?", name).First(&note).Error
	if err == nil {
		return &note
	}
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	note = models.Note{Name: name, Type: layer, Category: "other"}
	require.NoError(t, db.Create(&note).Error)
	return &note
}

// Similarity stores an edge directly.
func Similarity(t *testing.T, db *gorm.DB, luxury, alternative *models.Perfume, score float64) *models.PerfumeSimilarity {
	t.Helper()
	edge := &models.PerfumeSimilarity{
		LuxuryPerfumeID:      luxury.ID,
		AlternativePerfumeID: alternative.ID,
		SimilarityScore:      score,
	}
	require.NoError(t, db.Create(edge).Error)
	return edge
}

// MustUUID parses s or fails the test.
func MustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}
