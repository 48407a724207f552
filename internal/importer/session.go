package importer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/perfumatch/internal/models"
	"github.com/example/perfumatch/internal/notes"
)

type linkKey struct {
	perfume uuid.UUID
	note    uuid.UUID
}

type cacheKind int

const (
	kindBrand cacheKind = iota
	kindFamily
	kindNote
)

type created struct {
	kind cacheKind
	key  string
}

// Session memoizes brand, family and note lookups for a single import call.
// Rows created inside a record that is later rolled back are evicted so the
// cache never hands out an id that does not exist. Its methods accept either
// an open transaction or a plain handle.
type Session struct {
	brands   map[string]*models.Brand
	families map[string]*models.PerfumeFamily
	notes    map[string]*models.Note
	links    map[linkKey]struct{}

	journal []created
	pending []linkKey
}

// NewSession returns an empty session.
func NewSession() *Session {
	s := &Session{}
	s.Reset()
	return s
}

// Reset drops every cached entry.
func (s *Session) Reset() {
	s.brands = make(map[string]*models.Brand)
	s.families = make(map[string]*models.PerfumeFamily)
	s.notes = make(map[string]*models.Note)
	s.links = make(map[linkKey]struct{})
	s.journal = nil
	s.pending = nil
}

func (s *Session) begin() {
	s.journal = s.journal[:0]
	s.pending = s.pending[:0]
}

func (s *Session) discard() {
	for _, c := range s.journal {
		switch c.kind {
		case kindBrand:
			delete(s.brands, c.key)
		case kindFamily:
			delete(s.families, c.key)
		case kindNote:
			delete(s.notes, c.key)
		}
	}
	for _, k := range s.pending {
		delete(s.links, k)
	}
	s.begin()
}

// Brand resolves or creates the brand called name.
func (s *Session) Brand(tx *gorm.DB, name string, typ models.BrandType) (*models.Brand, error) {
	if b, ok := s.brands[name]; ok {
		return b, nil
	}

	var brand models.Brand
	err := tx.Where("name = ?", name).First(&brand).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		brand = models.Brand{Name: name, Type: typ}
		if err := createOrRequery(tx, &brand, "name = ?", name); err != nil {
			return nil, fmt.Errorf("brand %q: %w", name, err)
		}
		s.journal = append(s.journal, created{kindBrand, name})
	default:
		return nil, err
	}

	s.brands[name] = &brand
	return &brand, nil
}

// Family resolves or creates the family for a raw name. Empty names yield nil.
func (s *Session) Family(tx *gorm.DB, raw string) (*models.PerfumeFamily, error) {
	name := NormalizeFamily(raw)
	if name == "" {
		return nil, nil
	}
	if f, ok := s.families[name]; ok {
		return f, nil
	}

	var family models.PerfumeFamily
	err := tx.Where("name = ?", name).First(&family).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		family = models.PerfumeFamily{Name: name}
		if err := createOrRequery(tx, &family, "name = ?", name); err != nil {
			return nil, fmt.Errorf("family %q: %w", name, err)
		}
		s.journal = append(s.journal, created{kindFamily, name})
	default:
		return nil, err
	}

	s.families[name] = &family
	return &family, nil
}

// Note resolves or creates a note. The layer is only recorded on creation.
func (s *Session) Note(tx *gorm.DB, name string, layer models.NoteType) (*models.Note, error) {
	if n, ok := s.notes[name]; ok {
		return n, nil
	}

	var note models.Note
	err := tx.Where("name = ?", name).First(&note).Error
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		note = models.Note{Name: name, Type: layer, Category: string(notes.Classify(name))}
		if err := createOrRequery(tx, &note, "name = ?", name); err != nil {
			return nil, fmt.Errorf("note %q: %w", name, err)
		}
		s.journal = append(s.journal, created{kindNote, name})
	default:
		return nil, err
	}

	s.notes[name] = &note
	return &note, nil
}

// Link attaches note to perfume unless the pair already exists in this run or
// in storage. It reports whether a row was written.
func (s *Session) Link(tx *gorm.DB, perfumeID uuid.UUID, note *models.Note, layer models.NoteType) (bool, error) {
	key := linkKey{perfume: perfumeID, note: note.ID}
	if _, ok := s.links[key]; ok {
		return false, nil
	}

	var count int64
	if err := tx.Model(&models.PerfumeNote{}).
		Where("perfume_id = ? AND note_id = ?", perfumeID, note.ID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		s.links[key] = struct{}{}
		return false, nil
	}

	link := models.PerfumeNote{
		PerfumeID: perfumeID,
		NoteID:    note.ID,
		Intensity: models.DefaultIntensity,
		Layer:     layer,
	}
	if err := tx.Create(&link).Error; err != nil {
		return false, err
	}
	s.links[key] = struct{}{}
	s.pending = append(s.pending, key)
	return true, nil
}

// createOrRequery inserts row through a nested gorm transaction, which is a
// savepoint when tx is already a transaction and a fresh BEGIN otherwise. A
// unique conflict means another writer got there first; the insert is rolled
// back and the canonical row is loaded into row instead.
func createOrRequery(tx *gorm.DB, row interface{}, query string, args ...interface{}) error {
	err := tx.Transaction(func(inner *gorm.DB) error {
		return inner.Create(row).Error
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}

	resetID(row)
	return tx.Where(query, args...).First(row).Error
}

func resetID(row interface{}) {
	if r, ok := row.(models.Identified); ok {
		r.Forget()
	}
}
