package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/example/perfumatch/internal/models"
	"github.com/example/perfumatch/internal/pkg/logger"
)

// HistoryService records searches and derives popularity from them.
type HistoryService struct {
	db     *gorm.DB
	log    *logger.Logger
	layers LayerResolver
}

func NewHistoryService(db *gorm.DB, log *logger.Logger, layers LayerResolver) *HistoryService {
	if layers == nil {
		layers = FirstSeenLayer{}
	}
	return &HistoryService{db: db, log: log.With("service", "history"), layers: layers}
}

// Record stores one search. Failures are logged and swallowed.
func (s *HistoryService) Record(ctx context.Context, entry models.SearchHistory) {
	entry.SearchTerm = truncate(strings.TrimSpace(entry.SearchTerm), 200)
	if entry.SearchType == "" {
		entry.SearchType = string(SearchByName)
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.log.Warn("search history not saved", "term", entry.SearchTerm, "error", err)
	}
}

// TermCount is a search term with how often it was searched.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Popular is the most searched names and the best rated perfumes.
type Popular struct {
	PopularSearches []TermCount  `json:"popular_searches"`
	TopRated        []Projection `json:"top_rated"`
}

// Popular returns up to limit entries of each list.
func (s *HistoryService) Popular(ctx context.Context, limit int) (Popular, error) {
	limit = NormalizeLimit(limit)
	db := s.db.WithContext(ctx)
	out := Popular{PopularSearches: []TermCount{}, TopRated: []Projection{}}

	err := db.Model(&models.SearchHistory{}).
		Select("search_term AS term, COUNT(*) AS count").
		Where("search_type = ? AND search_term <> ''", SearchByName).
		Group("search_term").
		Order("count DESC, term ASC").
		Limit(limit).
		Scan(&out.PopularSearches).Error
	if err != nil {
		return out, err
	}

	var perfumes []models.Perfume
	err = withPerfumeDetails(db).
		Where("rating IS NOT NULL").
		Order("rating DESC, name ASC").
		Limit(limit).
		Find(&perfumes).Error
	if err != nil {
		return out, err
	}
	out.TopRated = ProjectAll(perfumes, s.layers)
	return out, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
