package services

import (
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/perfumatch/internal/models"
)

// NoteRef is a note as callers see it.
type NoteRef struct {
	Name string `json:"name"`
}

// NoteGroups holds a perfume's notes grouped by layer.
type NoteGroups struct {
	Top    []NoteRef `json:"top"`
	Middle []NoteRef `json:"middle"`
	Base   []NoteRef `json:"base"`
}

// Names returns every note name across layers.
func (g NoteGroups) Names() []string {
	out := make([]string, 0, len(g.Top)+len(g.Middle)+len(g.Base))
	for _, group := range [][]NoteRef{g.Top, g.Middle, g.Base} {
		for _, n := range group {
			out = append(out, n.Name)
		}
	}
	return out
}

type BrandRef struct {
	Name string           `json:"name"`
	Type models.BrandType `json:"type,omitempty"`
}

type FamilyRef struct {
	Name string `json:"name"`
}

// Projection is the serialized shape of a perfume handed to callers.
type Projection struct {
	ID              uuid.UUID     `json:"id"`
	Name            string        `json:"name"`
	Brand           BrandRef      `json:"brand"`
	Family          *FamilyRef    `json:"family"`
	Gender          models.Gender `json:"gender"`
	Price           *float64      `json:"price"`
	Currency        string        `json:"currency"`
	Notes           NoteGroups    `json:"notes"`
	Rating          *float64      `json:"rating,omitempty"`
	LongevityRating *float64      `json:"longevity_rating,omitempty"`
	SillageRating   *float64      `json:"sillage_rating,omitempty"`
	BottleRating    *float64      `json:"bottle_rating,omitempty"`
	ValueRating     *float64      `json:"value_rating,omitempty"`
	Volume          *int          `json:"volume,omitempty"`
	Concentration   string        `json:"concentration,omitempty"`
	ImageURL        string        `json:"image_url,omitempty"`
	ProductURL      string        `json:"product_url,omitempty"`
	Perfumer        string        `json:"perfumer,omitempty"`
	ReleaseYear     *int          `json:"release_year,omitempty"`
}

// LayerResolver decides which layer a perfume's note is shown under.
type LayerResolver interface {
	Layer(link models.PerfumeNote) models.NoteType
}

// FirstSeenLayer groups notes by the layer stored on the note itself, which
// is the layer of the first perfume that introduced it.
type FirstSeenLayer struct{}

func (FirstSeenLayer) Layer(link models.PerfumeNote) models.NoteType {
	if link.Note == nil {
		return models.NoteMiddle
	}
	return models.ParseNoteType(string(link.Note.Type))
}

// PerPerfumeLayer groups notes by the layer each perfume listed them under.
type PerPerfumeLayer struct{}

func (PerPerfumeLayer) Layer(link models.PerfumeNote) models.NoteType {
	if link.Layer != "" {
		return models.ParseNoteType(string(link.Layer))
	}
	return FirstSeenLayer{}.Layer(link)
}

// LayerResolverFor maps a configuration value onto a resolver.
func LayerResolverFor(name string) LayerResolver {
	if name == "per_perfume" {
		return PerPerfumeLayer{}
	}
	return FirstSeenLayer{}
}

// Project converts a perfume with Brand, Family and Notes.Note preloaded.
func Project(p *models.Perfume, layers LayerResolver) Projection {
	if layers == nil {
		layers = FirstSeenLayer{}
	}

	out := Projection{
		ID:              p.ID,
		Name:            p.Name,
		Gender:          p.Gender,
		Currency:        p.Currency,
		Rating:          p.Rating,
		LongevityRating: p.LongevityRating,
		SillageRating:   p.SillageRating,
		BottleRating:    p.BottleRating,
		ValueRating:     p.ValueRating,
		Volume:          p.Volume,
		Concentration:   p.Concentration,
		ImageURL:        p.ImageURL,
		ProductURL:      p.ProductURL,
		Perfumer:        p.Perfumer,
		ReleaseYear:     p.ReleaseYear,
		Notes: NoteGroups{
			Top:    []NoteRef{},
			Middle: []NoteRef{},
			Base:   []NoteRef{},
		},
	}
	if p.Brand != nil {
		out.Brand = BrandRef{Name: p.Brand.Name, Type: p.Brand.Type}
	}
	if p.Family != nil {
		out.Family = &FamilyRef{Name: p.Family.Name}
	}
	out.Price = decimalPtr(p.Price)

	for _, link := range p.Notes {
		if link.Note == nil {
			continue
		}
		ref := NoteRef{Name: link.Note.Name}
		switch layers.Layer(link) {
		case models.NoteTop:
			out.Notes.Top = append(out.Notes.Top, ref)
		case models.NoteBase:
			out.Notes.Base = append(out.Notes.Base, ref)
		default:
			out.Notes.Middle = append(out.Notes.Middle, ref)
		}
	}
	for _, group := range [][]NoteRef{out.Notes.Top, out.Notes.Middle, out.Notes.Base} {
		sort.Slice(group, func(i, j int) bool { return group[i].Name < group[j].Name })
	}
	return out
}

// ProjectAll projects a slice of perfumes.
func ProjectAll(perfumes []models.Perfume, layers LayerResolver) []Projection {
	out := make([]Projection, 0, len(perfumes))
	for i := range perfumes {
		out = append(out, Project(&perfumes[i], layers))
	}
	return out
}

// withPerfumeDetails preloads everything Project needs.
func withPerfumeDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Brand").Preload("Family").Preload("Notes.Note")
}
