package services

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/perfumatch/internal/models"
	"github.com/example/perfumatch/internal/pkg/logger"
	"github.com/example/perfumatch/internal/pricing"
	"github.com/example/perfumatch/internal/similarity"
)

// DefaultSimilarityBatchSize is the number of new edges per committed chunk.
const DefaultSimilarityBatchSize = 100

// ComputeResult summarizes one batch run.
type ComputeResult struct {
	Pairs           int `json:"pairs"`
	NewEdges        int `json:"new_edges"`
	SkippedExisting int `json:"skipped_existing"`
	BelowThreshold  int `json:"below_threshold"`
}

// EdgeSummary is a flattened edge for reports.
type EdgeSummary struct {
	ID               uuid.UUID `json:"id"`
	LuxuryPerfume    string    `json:"luxury_perfume"`
	LuxuryBrand      string    `json:"luxury_brand"`
	Alternative      string    `json:"alternative_perfume"`
	AlternativeBrand string    `json:"alternative_brand"`
	SimilarityScore  float64   `json:"similarity_score"`
	GenderMatch      bool      `json:"gender_match"`
	PriceDifference  *float64  `json:"price_difference"`
}

type pairKey struct {
	luxury      uuid.UUID
	alternative uuid.UUID
}

// SimilarityService scores every luxury perfume against every alternative
// perfume and stores the pairs that clear the threshold.
type SimilarityService struct {
	db        *gorm.DB
	log       *logger.Logger
	cache     Cache
	batchSize int
	threshold float64
}

// NewSimilarityService builds the batch job. Thresholds below
// similarity.Threshold are raised to it.
func NewSimilarityService(db *gorm.DB, log *logger.Logger, cache Cache, batchSize int, threshold float64) *SimilarityService {
	if cache == nil {
		cache = NoopCache{}
	}
	if batchSize <= 0 {
		batchSize = DefaultSimilarityBatchSize
	}
	return &SimilarityService{
		db:        db,
		log:       log.With("service", "similarity"),
		cache:     cache,
		batchSize: batchSize,
		threshold: math.Max(threshold, similarity.Threshold),
	}
}

// ComputeAll scores the luxury x alternative cross product. Existing edges
// are left untouched, so running it twice adds nothing the second time.
// Every committed chunk survives a later failure.
func (s *SimilarityService) ComputeAll(ctx context.Context) (ComputeResult, error) {
	var res ComputeResult

	luxury, err := s.perfumesOfType(ctx, models.BrandLuxury)
	if err != nil {
		return res, fmt.Errorf("load luxury perfumes: %w", err)
	}
	alternatives, err := s.perfumesOfType(ctx, models.BrandAlternative)
	if err != nil {
		return res, fmt.Errorf("load alternative perfumes: %w", err)
	}

	existing, err := s.existingPairs(ctx)
	if err != nil {
		return res, fmt.Errorf("load existing edges: %w", err)
	}

	altProfiles := make([]similarity.Profile, len(alternatives))
	for i := range alternatives {
		altProfiles[i] = similarity.ProfileOf(&alternatives[i])
	}

	pending := make([]models.PerfumeSimilarity, 0, s.batchSize)
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		var inserted int64
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&pending)
			inserted = result.RowsAffected
			return result.Error
		})
		if err != nil {
			return err
		}
		res.NewEdges += int(inserted)
		s.log.Info("similarity chunk committed", "edges", inserted, "total", res.NewEdges)
		pending = pending[:0]
		return nil
	}

	for i := range luxury {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		lux := &luxury[i]
		luxProfile := similarity.ProfileOf(lux)

		for j := range alternatives {
			alt := &alternatives[j]
			res.Pairs++

			if _, ok := existing[pairKey{lux.ID, alt.ID}]; ok {
				res.SkippedExisting++
				continue
			}

			bd := similarity.Score(luxProfile, altProfiles[j])
			if bd.Total < s.threshold {
				res.BelowThreshold++
				continue
			}

			notePoints := similarity.Round2(bd.Notes)
			familyPoints := bd.Family
			pending = append(pending, models.PerfumeSimilarity{
				LuxuryPerfumeID:      lux.ID,
				AlternativePerfumeID: alt.ID,
				SimilarityScore:      similarity.Round2(bd.Total),
				NoteSimilarity:       &notePoints,
				FamilySimilarity:     &familyPoints,
				GenderMatch:          bd.GenderMatch,
				PriceDifference:      pricing.Difference(lux.Price, alt.Price),
			})
			existing[pairKey{lux.ID, alt.ID}] = struct{}{}

			if len(pending) >= s.batchSize {
				if err := flush(); err != nil {
					return res, fmt.Errorf("commit similarity chunk: %w", err)
				}
			}
		}
	}
	if err := flush(); err != nil {
		return res, fmt.Errorf("commit similarity chunk: %w", err)
	}

	if res.NewEdges > 0 {
		s.invalidate(ctx)
	}
	s.log.Info("similarities computed",
		"luxury", len(luxury),
		"alternatives", len(alternatives),
		"pairs", res.Pairs,
		"new_edges", res.NewEdges,
		"skipped_existing", res.SkippedExisting,
		"below_threshold", res.BelowThreshold,
	)
	return res, nil
}

// DeleteAll wipes every stored edge and returns how many were removed.
func (s *SimilarityService) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Ratings may point at edges.
		if err := tx.Model(&models.UserRating{}).
			Where("similarity_id IS NOT NULL").
			Update("similarity_id", nil).Error; err != nil {
			return err
		}
		result := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.PerfumeSimilarity{})
		deleted = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx)
	s.log.Info("similarities deleted", "count", deleted)
	return deleted, nil
}

// Top returns the highest scoring edges.
func (s *SimilarityService) Top(ctx context.Context, limit int) ([]EdgeSummary, error) {
	var edges []models.PerfumeSimilarity
	err := s.db.WithContext(ctx).
		Preload("LuxuryPerfume.Brand").
		Preload("AlternativePerfume.Brand").
		Order("similarity_score DESC, id ASC").
		Limit(NormalizeLimit(limit)).
		Find(&edges).Error
	if err != nil {
		return nil, err
	}

	out := make([]EdgeSummary, 0, len(edges))
	for _, e := range edges {
		row := EdgeSummary{
			ID:              e.ID,
			SimilarityScore: e.SimilarityScore,
			GenderMatch:     e.GenderMatch,
			PriceDifference: decimalPtr(e.PriceDifference),
		}
		if p := e.LuxuryPerfume; p != nil {
			row.LuxuryPerfume = p.Name
			if p.Brand != nil {
				row.LuxuryBrand = p.Brand.Name
			}
		}
		if p := e.AlternativePerfume; p != nil {
			row.Alternative = p.Name
			if p.Brand != nil {
				row.AlternativeBrand = p.Brand.Name
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *SimilarityService) perfumesOfType(ctx context.Context, typ models.BrandType) ([]models.Perfume, error) {
	var perfumes []models.Perfume
	err := s.db.WithContext(ctx).
		Preload("Notes.Note").
		Select("perfumes.*").
		Joins("JOIN brands ON brands.id = perfumes.brand_id").
		Where("brands.type = ?", typ).
		Order("perfumes.id").
		Find(&perfumes).Error
	return perfumes, err
}

func (s *SimilarityService) existingPairs(ctx context.Context) (map[pairKey]struct{}, error) {
	var rows []struct {
		LuxuryPerfumeID      uuid.UUID
		AlternativePerfumeID uuid.UUID
	}
	err := s.db.WithContext(ctx).Model(&models.PerfumeSimilarity{}).
		Select("luxury_perfume_id, alternative_perfume_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[pairKey]struct{}, len(rows))
	for _, r := range rows {
		out[pairKey{r.LuxuryPerfumeID, r.AlternativePerfumeID}] = struct{}{}
	}
	return out, nil
}

func (s *SimilarityService) invalidate(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, "alternatives:"); err != nil {
		s.log.Warn("cache invalidation failed", "error", err)
	}
}
