package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/perfumatch/internal/models"
	"github.com/example/perfumatch/internal/pkg/logger"
	"github.com/example/perfumatch/internal/pricing"
	"github.com/example/perfumatch/internal/similarity"
)

// DefaultMinSimilarity is the Jaccard cut-off of the online ranking.
const DefaultMinSimilarity = 0.3

// OnlineQuery asks for alternatives to a stored perfume or to a bare note
// list. MinSimilarity above 1 is read as a percentage.
type OnlineQuery struct {
	PerfumeID     *uuid.UUID
	Notes         []string
	Gender        string
	MinSimilarity float64
	Limit         int
}

// OnlineMatch is one candidate ranked by note overlap.
type OnlineMatch struct {
	Perfume     Projection `json:"perfume"`
	Jaccard     float64    `json:"jaccard"`
	Similarity  float64    `json:"similarity"`
	CommonNotes []string   `json:"common_notes"`

	model *models.Perfume
}

// Alternative converts the match into the shape of a stored edge relative to target.
func (m OnlineMatch) Alternative(target *models.Perfume) Alternative {
	notePoints := similarity.Round2(similarity.NotePoints * m.Jaccard)
	alt := Alternative{
		Perfume:         m.Perfume,
		SimilarityScore: m.Similarity,
		NoteSimilarity:  &notePoints,
		CommonNotes:     m.CommonNotes,
		Source:          AlternativeComputed,
	}
	if target != nil && m.model != nil {
		alt.GenderMatch = target.Gender == m.model.Gender
		alt.PriceDifference = decimalPtr(pricing.Difference(target.Price, m.model.Price))
	}
	return alt
}

// AlternativeFinder ranks alternative-brand perfumes against a note set at
// request time. It never reads or writes stored edges.
type AlternativeFinder struct {
	db            *gorm.DB
	log           *logger.Logger
	layers        LayerResolver
	minSimilarity float64
}

func NewAlternativeFinder(db *gorm.DB, log *logger.Logger, layers LayerResolver, minSimilarity float64) *AlternativeFinder {
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}
	if layers == nil {
		layers = FirstSeenLayer{}
	}
	return &AlternativeFinder{
		db:            db,
		log:           log.With("service", "alternative_finder"),
		layers:        layers,
		minSimilarity: minSimilarity,
	}
}

// FindOnline returns alternative-brand perfumes whose note Jaccard with the
// target is at least the minimum, best first. Candidates must be gender
// compatible with the target (unisex matches anything).
func (f *AlternativeFinder) FindOnline(ctx context.Context, q OnlineQuery) ([]OnlineMatch, error) {
	minSim := q.MinSimilarity
	switch {
	case minSim <= 0:
		minSim = f.minSimilarity
	case minSim > 1:
		minSim /= 100
	}
	if minSim > 1 {
		return nil, fmt.Errorf("%w: min similarity %v", ErrInvalidInput, q.MinSimilarity)
	}

	gender, err := ParseGenderFilter(q.Gender)
	if err != nil {
		return nil, err
	}

	var (
		targetNotes similarity.NoteSet
		excludeID   uuid.UUID
	)
	if q.PerfumeID != nil {
		target, err := loadPerfume(ctx, f.db, *q.PerfumeID)
		if err != nil {
			return nil, err
		}
		targetNotes = similarity.NewNoteSet(target.NoteNames()...)
		excludeID = target.ID
		if gender == "" {
			gender = target.Gender
		}
	} else {
		targetNotes = similarity.NewNoteSet(distinctNames(q.Notes)...)
		if len(targetNotes) == 0 {
			return nil, fmt.Errorf("%w: no notes given", ErrInvalidInput)
		}
	}
	if len(targetNotes) == 0 {
		return []OnlineMatch{}, nil
	}

	var candidates []models.Perfume
	err = withPerfumeDetails(f.db.WithContext(ctx).Model(&models.Perfume{})).
		Select("perfumes.*").
		Joins("JOIN brands ON brands.id = perfumes.brand_id").
		Where("brands.type = ?", models.BrandAlternative).
		Where("perfumes.id <> ?", excludeID).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	matches := make([]OnlineMatch, 0)
	for i := range candidates {
		c := &candidates[i]
		if gender != "" && !similarity.GenderCompatible(gender, c.Gender) {
			continue
		}
		notes := similarity.NewNoteSet(c.NoteNames()...)
		j := similarity.Jaccard(targetNotes, notes)
		if j < minSim {
			continue
		}
		common := targetNotes.Intersect(notes)
		sort.Strings(common)
		matches = append(matches, OnlineMatch{
			Perfume:     Project(c, f.layers),
			Jaccard:     j,
			Similarity:  similarity.Round2(j * 100),
			CommonNotes: common,
			model:       c,
		})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Jaccard != matches[b].Jaccard {
			return matches[a].Jaccard > matches[b].Jaccard
		}
		if matches[a].Perfume.Name != matches[b].Perfume.Name {
			return matches[a].Perfume.Name < matches[b].Perfume.Name
		}
		return matches[a].Perfume.ID.String() < matches[b].Perfume.ID.String()
	})

	if limit := NormalizeLimit(q.Limit); len(matches) > limit {
		matches = matches[:limit]
	}
	f.log.Debug("online alternatives ranked", "candidates", len(candidates), "matches", len(matches), "min_similarity", minSim)
	return matches, nil
}
