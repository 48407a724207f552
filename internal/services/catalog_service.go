package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/example/perfumatch/internal/database"
	"github.com/example/perfumatch/internal/models"
	"github.com/example/perfumatch/internal/pkg/logger"
)

// CatalogService serves listings and maintenance operations on the catalog.
type CatalogService struct {
	db    *gorm.DB
	log   *logger.Logger
	cache Cache
}

func NewCatalogService(db *gorm.DB, log *logger.Logger, cache Cache) *CatalogService {
	if cache == nil {
		cache = NoopCache{}
	}
	return &CatalogService{db: db, log: log.With("service", "catalog"), cache: cache}
}

// BrandSummary is a brand with the size of its catalog.
type BrandSummary struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Type         models.BrandType `json:"type"`
	PerfumeCount int64            `json:"perfume_count"`
}

// ListBrands returns brands ordered by name, optionally restricted to a tier.
func (s *CatalogService) ListBrands(ctx context.Context, typ string) ([]BrandSummary, error) {
	q := s.db.WithContext(ctx).Model(&models.Brand{}).
		Select("brands.id, brands.name, brands.type, COUNT(perfumes.id) AS perfume_count").
		Joins("LEFT JOIN perfumes ON perfumes.brand_id = brands.id").
		Group("brands.id, brands.name, brands.type").
		Order("brands.name")

	if typ != "" {
		t := models.BrandType(strings.ToLower(typ))
		if !t.Valid() {
			return nil, fmt.Errorf("%w: unknown brand type %q", ErrInvalidInput, typ)
		}
		q = q.Where("brands.type = ?", t)
	}

	var out []BrandSummary
	if err := q.Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListFamilies returns families ordered by name.
func (s *CatalogService) ListFamilies(ctx context.Context) ([]models.PerfumeFamily, error) {
	var families []models.PerfumeFamily
	err := s.db.WithContext(ctx).Order("name").Find(&families).Error
	return families, err
}

// ListNotes returns notes ordered by name, optionally of a single layer.
func (s *CatalogService) ListNotes(ctx context.Context, layer string) ([]models.Note, error) {
	q := s.db.WithContext(ctx).Order("name")
	if layer != "" {
		switch t := models.NoteType(strings.ToLower(layer)); t {
		case models.NoteTop, models.NoteMiddle, models.NoteBase:
			q = q.Where("type = ?", t)
		default:
			return nil, fmt.Errorf("%w: unknown note type %q", ErrInvalidInput, layer)
		}
	}

	var notes []models.Note
	err := q.Find(&notes).Error
	return notes, err
}

// NoteSuggestion is a note name close to what the user typed.
type NoteSuggestion struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

const minSuggestionScore = 0.5

// SuggestNotes ranks stored note names by edit-distance similarity to q.
// Diacritics and case are ignored; containing q counts as a full match.
func (s *CatalogService) SuggestNotes(ctx context.Context, q string, limit int) ([]NoteSuggestion, error) {
	needle := foldNote(q)
	if needle == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidInput)
	}

	var notes []models.Note
	if err := s.db.WithContext(ctx).Select("name, category").Find(&notes).Error; err != nil {
		return nil, err
	}

	metric := metrics.NewLevenshtein()
	out := make([]NoteSuggestion, 0)
	for _, n := range notes {
		folded := foldNote(n.Name)
		score := strutil.Similarity(needle, folded, metric)
		if strings.Contains(folded, needle) {
			score = 1
		}
		if score < minSuggestionScore {
			continue
		}
		out = append(out, NoteSuggestion{Name: n.Name, Category: n.Category, Score: score})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	if limit = NormalizeLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var dotlessI = strings.NewReplacer("ı", "i", "İ", "i")

func foldNote(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, dotlessI.Replace(s))
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}

// ResetResult counts the rows removed by Reset.
type ResetResult struct {
	Ratings      int64 `json:"ratings"`
	Similarities int64 `json:"similarities"`
	PerfumeNotes int64 `json:"perfume_notes"`
	Perfumes     int64 `json:"perfumes"`
	Notes        int64 `json:"notes"`
	Families     int64 `json:"families"`
	Brands       int64 `json:"brands"`
}

// Reset empties the catalog in dependency order inside one transaction.
// Search history is kept.
func (s *CatalogService) Reset(ctx context.Context) (ResetResult, error) {
	var res ResetResult
	steps := []struct {
		model interface{}
		count *int64
	}{
		{&models.UserRating{}, &res.Ratings},
		{&models.PerfumeSimilarity{}, &res.Similarities},
		{&models.PerfumeNote{}, &res.PerfumeNotes},
		{&models.Perfume{}, &res.Perfumes},
		{&models.Note{}, &res.Notes},
		{&models.PerfumeFamily{}, &res.Families},
		{&models.Brand{}, &res.Brands},
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		global := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, step := range steps {
			result := global.Delete(step.model)
			if result.Error != nil {
				return fmt.Errorf("delete %T: %w", step.model, result.Error)
			}
			*step.count = result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return ResetResult{}, err
	}

	for _, prefix := range []string{"perfume:", "alternatives:"} {
		if err := s.cache.DeletePrefix(ctx, prefix); err != nil {
			s.log.Warn("cache invalidation failed", "prefix", prefix, "error", err)
		}
	}
	s.log.Info("catalog reset", "perfumes", res.Perfumes, "similarities", res.Similarities)
	return res, nil
}

// Stats are catalog row counts.
type Stats struct {
	Perfumes            int64 `json:"perfumes"`
	LuxuryPerfumes      int64 `json:"luxury_perfumes"`
	AlternativePerfumes int64 `json:"alternative_perfumes"`
	Brands              int64 `json:"brands"`
	Families            int64 `json:"families"`
	Notes               int64 `json:"notes"`
	Similarities        int64 `json:"similarities"`
	Ratings             int64 `json:"ratings"`
	Searches            int64 `json:"searches"`
}

// Stats counts the rows of every catalog table.
func (s *CatalogService) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx)

	counts := []struct {
		model interface{}
		dst   *int64
	}{
		{&models.Perfume{}, &st.Perfumes},
		{&models.Brand{}, &st.Brands},
		{&models.PerfumeFamily{}, &st.Families},
		{&models.Note{}, &st.Notes},
		{&models.PerfumeSimilarity{}, &st.Similarities},
		{&models.UserRating{}, &st.Ratings},
		{&models.SearchHistory{}, &st.Searches},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dst).Error; err != nil {
			return st, err
		}
	}

	for typ, dst := range map[models.BrandType]*int64{
		models.BrandLuxury:      &st.LuxuryPerfumes,
		models.BrandAlternative: &st.AlternativePerfumes,
	} {
		err := db.Model(&models.Perfume{}).
			Joins("JOIN brands ON brands.id = perfumes.brand_id").
			Where("brands.type = ?", typ).
			Count(dst).Error
		if err != nil {
			return st, err
		}
	}
	return st, nil
}

// Health reports database reachability and catalog counts.
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Stats    *Stats `json:"stats,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Health never returns an error; failures are reported in the result.
func (s *CatalogService) Health(ctx context.Context) Health {
	if err := database.Ping(s.db.WithContext(ctx)); err != nil {
		return Health{Status: "unhealthy", Database: "disconnected", Error: err.Error()}
	}
	st, err := s.Stats(ctx)
	if err != nil {
		return Health{Status: "unhealthy", Database: "connected", Error: err.Error()}
	}
	return Health{Status: "healthy", Database: "connected", Stats: &st}
}
