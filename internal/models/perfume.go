package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Gender is the audience a perfume is marketed to.
type Gender string

const (
	GenderMen    Gender = "men"
	GenderWomen  Gender = "women"
	GenderUnisex Gender = "unisex"
)

// ParseGender maps a stored or requested gender string onto a Gender.
func ParseGender(s string) (Gender, bool) {
	switch Gender(s) {
	case GenderMen, GenderWomen, GenderUnisex:
		return Gender(s), true
	}
	return "", false
}

// NoteType is the evaporation layer a note belongs to.
type NoteType string

const (
	NoteTop    NoteType = "top"
	NoteMiddle NoteType = "middle"
	NoteBase   NoteType = "base"
)

// ParseNoteType returns the layer for s, defaulting to middle.
func ParseNoteType(s string) NoteType {
	switch NoteType(s) {
	case NoteTop, NoteMiddle, NoteBase:
		return NoteType(s)
	}
	return NoteMiddle
}

// Note is a single scent ingredient. Type holds the layer the note was first
// seen in and is never updated afterwards.
type Note struct {
	BaseModel
	Name     string   `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Type     NoteType `gorm:"size:20;not null;index" json:"type"`
	Category string   `gorm:"size:50;index" json:"category"`
}

// Perfume is a catalog entry. Name is unique per brand at the application level.
type Perfume struct {
	BaseModel
	Name            string              `gorm:"size:200;not null;index" json:"name"`
	BrandID         uuid.UUID           `gorm:"type:uuid;not null;index" json:"brand_id"`
	Brand           *Brand              `json:"brand,omitempty"`
	FamilyID        *uuid.UUID          `gorm:"type:uuid;index" json:"family_id"`
	Family          *PerfumeFamily      `gorm:"foreignKey:FamilyID" json:"family,omitempty"`
	Gender          Gender              `gorm:"size:20;not null;index" json:"gender"`
	Price           decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"price"`
	Currency        string              `gorm:"size:3" json:"currency"`
	Volume          *int                `json:"volume"`
	Concentration   string              `gorm:"size:20" json:"concentration"`
	Description     string              `gorm:"type:text" json:"description"`
	ImageURL        string              `gorm:"type:text" json:"image_url"`
	ProductURL      string              `gorm:"type:text" json:"product_url"`
	StockStatus     bool                `json:"stock_status"`
	Rating          *float64            `gorm:"type:numeric(3,2)" json:"rating"`
	LongevityRating *float64            `gorm:"type:numeric(3,2)" json:"longevity_rating"`
	SillageRating   *float64            `gorm:"type:numeric(3,2)" json:"sillage_rating"`
	BottleRating    *float64            `gorm:"type:numeric(3,2)" json:"bottle_rating"`
	ValueRating     *float64            `gorm:"type:numeric(3,2)" json:"value_rating"`
	Perfumer        string              `gorm:"size:100" json:"perfumer"`
	ReleaseYear     *int                `json:"release_year"`
	Source          string              `gorm:"size:50;index" json:"source"`
	Notes           []PerfumeNote       `gorm:"constraint:OnDelete:CASCADE" json:"notes,omitempty"`
}

// NoteNames returns the distinct names of the notes linked to p.
// Notes must be preloaded.
func (p *Perfume) NoteNames() []string {
	names := make([]string, 0, len(p.Notes))
	seen := make(map[string]struct{}, len(p.Notes))
	for _, pn := range p.Notes {
		if pn.Note == nil {
			continue
		}
		if _, ok := seen[pn.Note.Name]; ok {
			continue
		}
		seen[pn.Note.Name] = struct{}{}
		names = append(names, pn.Note.Name)
	}
	return names
}

// PerfumeNote links a perfume to a note. A perfume references a note at most once.
type PerfumeNote struct {
	BaseModel
	PerfumeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_perfume_note" json:"perfume_id"`
	NoteID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_perfume_note" json:"note_id"`
	Note      *Note     `json:"note,omitempty"`
	Intensity int       `gorm:"not null" json:"intensity"`
	Layer     NoteType  `gorm:"size:20" json:"layer"`
}

// DefaultIntensity is used when a source carries no intensity.
const DefaultIntensity = 5
