package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/perfumatch/internal/models"
	"github.com/example/perfumatch/internal/pkg/logger"
	"github.com/example/perfumatch/internal/similarity"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// SearchType selects what a search term is matched against.
type SearchType string

const (
	SearchByName   SearchType = "name"
	SearchByNotes  SearchType = "notes"
	SearchByFamily SearchType = "family"
)

// SearchQuery is a façade search request. For note searches Notes wins over
// Term; otherwise Term is split on commas.
type SearchQuery struct {
	Term   string
	Notes  []string
	Type   SearchType
	Gender string
	Limit  int
}

// Filter narrows a search.
type Filter struct {
	Gender models.Gender
	Limit  int
}

// Alternative is a ranked alternative to a luxury perfume.
type Alternative struct {
	SimilarityID     *uuid.UUID `json:"similarity_id,omitempty"`
	Perfume          Projection `json:"alternative_perfume"`
	SimilarityScore  float64    `json:"similarity_score"`
	NoteSimilarity   *float64   `json:"note_similarity,omitempty"`
	FamilySimilarity *float64   `json:"family_similarity,omitempty"`
	GenderMatch      bool       `json:"gender_match"`
	PriceDifference  *float64   `json:"price_difference"`
	CommonNotes      []string   `json:"common_notes"`
	Source           string     `json:"source"`
}

const (
	AlternativeStored   = "stored"
	AlternativeComputed = "computed"
)

// SearchService answers read queries over the catalog.
type SearchService struct {
	db     *gorm.DB
	log    *logger.Logger
	cache  Cache
	layers LayerResolver
	finder *AlternativeFinder
}

// NewSearchService wires a SearchService. A nil cache disables caching.
func NewSearchService(db *gorm.DB, log *logger.Logger, cache Cache, layers LayerResolver, finder *AlternativeFinder) *SearchService {
	if cache == nil {
		cache = NoopCache{}
	}
	if layers == nil {
		layers = FirstSeenLayer{}
	}
	return &SearchService{
		db:     db,
		log:    log.With("service", "search"),
		cache:  cache,
		layers: layers,
		finder: finder,
	}
}

// ParseGenderFilter accepts "", "all" or a gender.
func ParseGenderFilter(s string) (models.Gender, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "all" {
		return "", nil
	}
	g, ok := models.ParseGender(s)
	if !ok {
		return "", fmt.Errorf("%w: unknown gender %q", ErrInvalidInput, s)
	}
	return g, nil
}

// Search dispatches on q.Type. An empty type searches by name.
func (s *SearchService) Search(ctx context.Context, q SearchQuery) ([]Projection, error) {
	gender, err := ParseGenderFilter(q.Gender)
	if err != nil {
		return nil, err
	}
	f := Filter{Gender: gender, Limit: q.Limit}

	switch SearchType(strings.ToLower(string(q.Type))) {
	case "", SearchByName:
		return s.SearchByName(ctx, q.Term, f)
	case SearchByNotes:
		names := q.Notes
		if len(names) == 0 {
			names = strings.Split(q.Term, ",")
		}
		return s.SearchByNotes(ctx, names, f)
	case SearchByFamily:
		return s.SearchByFamily(ctx, q.Term, f)
	}
	return nil, fmt.Errorf("%w: unknown search type %q", ErrInvalidInput, q.Type)
}

// SearchByName matches term against perfume and brand names, case-insensitively.
func (s *SearchService) SearchByName(ctx context.Context, term string, f Filter) ([]Projection, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: empty search term", ErrInvalidInput)
	}
	like := "%" + escapeLike(strings.ToLower(term)) + "%"

	q := s.db.WithContext(ctx).Model(&models.Perfume{}).
		Joins("JOIN brands ON brands.id = perfumes.brand_id").
		Where("(LOWER(perfumes.name) LIKE ? ESCAPE '\\' OR LOWER(brands.name) LIKE ? ESCAPE '\\')", like, like)
	return s.findPerfumes(q, f)
}

// SearchByNotes returns perfumes carrying a strict majority of the distinct
// requested note names. Names match exactly.
func (s *SearchService) SearchByNotes(ctx context.Context, names []string, f Filter) ([]Projection, error) {
	wanted := distinctNames(names)
	if len(wanted) == 0 {
		return nil, fmt.Errorf("%w: no notes given", ErrInvalidInput)
	}
	required := MajorityOf(len(wanted))

	matching := s.db.WithContext(ctx).Model(&models.PerfumeNote{}).
		Select("perfume_notes.perfume_id").
		Joins("JOIN notes ON notes.id = perfume_notes.note_id").
		Where("notes.name IN ?", wanted).
		Group("perfume_notes.perfume_id").
		Having("COUNT(DISTINCT notes.name) >= ?", required)

	q := s.db.WithContext(ctx).Model(&models.Perfume{}).
		Where("perfumes.id IN (?)", matching)
	return s.findPerfumes(q, f)
}

// MajorityOf is the number of matches needed out of n requested notes.
func MajorityOf(n int) int {
	return n/2 + 1
}

// SearchByFamily matches term against family names, case-insensitively.
func (s *SearchService) SearchByFamily(ctx context.Context, term string, f Filter) ([]Projection, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: empty family", ErrInvalidInput)
	}
	like := "%" + escapeLike(strings.ToLower(term)) + "%"

	q := s.db.WithContext(ctx).Model(&models.Perfume{}).
		Joins("JOIN perfume_families ON perfume_families.id = perfumes.family_id").
		Where("LOWER(perfume_families.name) LIKE ? ESCAPE '\\'", like)
	return s.findPerfumes(q, f)
}

func (s *SearchService) findPerfumes(q *gorm.DB, f Filter) ([]Projection, error) {
	if f.Gender != "" {
		q = q.Where("perfumes.gender = ?", f.Gender)
	}

	var perfumes []models.Perfume
	err := withPerfumeDetails(q).
		Select("perfumes.*").
		Order("perfumes.name ASC, perfumes.id ASC").
		Limit(NormalizeLimit(f.Limit)).
		Find(&perfumes).Error
	if err != nil {
		return nil, err
	}
	return ProjectAll(perfumes, s.layers), nil
}

// GetPerfume returns the projection of one perfume.
func (s *SearchService) GetPerfume(ctx context.Context, id uuid.UUID) (*Projection, error) {
	key := "perfume:" + id.String()

	var cached Projection
	if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn("cache read failed", "key", key, "error", err)
	} else if ok {
		return &cached, nil
	}

	p, err := loadPerfume(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	out := Project(p, s.layers)

	if err := s.cache.Set(ctx, key, out); err != nil {
		s.log.Warn("cache write failed", "key", key, "error", err)
	}
	return &out, nil
}

// GetAlternatives returns stored edges for a luxury perfume ordered by score.
// When nothing is stored the online note-overlap ranking is used instead.
func (s *SearchService) GetAlternatives(ctx context.Context, id uuid.UUID, limit int) ([]Alternative, error) {
	limit = NormalizeLimit(limit)
	key := fmt.Sprintf("alternatives:%s:%d", id, limit)

	var cached []Alternative
	if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn("cache read failed", "key", key, "error", err)
	} else if ok {
		return cached, nil
	}

	target, err := loadPerfume(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	var edges []models.PerfumeSimilarity
	err = s.db.WithContext(ctx).
		Preload("AlternativePerfume.Brand").
		Preload("AlternativePerfume.Family").
		Preload("AlternativePerfume.Notes.Note").
		Select("perfume_similarities.*").
		Joins("JOIN perfumes alt ON alt.id = perfume_similarities.alternative_perfume_id").
		Where("perfume_similarities.luxury_perfume_id = ?", id).
		Order("perfume_similarities.similarity_score DESC, alt.name ASC").
		Limit(limit).
		Find(&edges).Error
	if err != nil {
		return nil, err
	}

	var out []Alternative
	if len(edges) > 0 {
		targetNotes := similarity.NewNoteSet(target.NoteNames()...)
		out = make([]Alternative, 0, len(edges))
		for _, e := range edges {
			if e.AlternativePerfume == nil {
				continue
			}
			edgeID := e.ID
			out = append(out, Alternative{
				SimilarityID:     &edgeID,
				Perfume:          Project(e.AlternativePerfume, s.layers),
				SimilarityScore:  e.SimilarityScore,
				NoteSimilarity:   e.NoteSimilarity,
				FamilySimilarity: e.FamilySimilarity,
				GenderMatch:      e.GenderMatch,
				PriceDifference:  decimalPtr(e.PriceDifference),
				CommonNotes:      commonNotes(targetNotes, e.AlternativePerfume),
				Source:           AlternativeStored,
			})
		}
	} else if s.finder != nil {
		matches, err := s.finder.FindOnline(ctx, OnlineQuery{PerfumeID: &id, Limit: limit})
		if err != nil {
			return nil, err
		}
		out = make([]Alternative, 0, len(matches))
		for _, m := range matches {
			out = append(out, m.Alternative(target))
		}
	}
	if out == nil {
		out = []Alternative{}
	}

	if err := s.cache.Set(ctx, key, out); err != nil {
		s.log.Warn("cache write failed", "key", key, "error", err)
	}
	return out, nil
}

func loadPerfume(ctx context.Context, db *gorm.DB, id uuid.UUID) (*models.Perfume, error) {
	var p models.Perfume
	err := withPerfumeDetails(db.WithContext(ctx)).First(&p, "perfumes.id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("perfume %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// NormalizeLimit clamps limit into [1, MaxLimit], defaulting to DefaultLimit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func distinctNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.Join(strings.Fields(n), " ")
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func commonNotes(target similarity.NoteSet, p *models.Perfume) []string {
	common := target.Intersect(similarity.NewNoteSet(p.NoteNames()...))
	sort.Strings(common)
	return common
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
