package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/perfumatch/internal/models"
	"github.com/example/perfumatch/internal/pkg/logger"
)

// RatingInput is a visitor's rating request.
type RatingInput struct {
	PerfumeID    uuid.UUID
	SimilarityID *uuid.UUID
	Rating       int
	Comment      string
	IPAddress    string
}

// RatingService stores visitor ratings.
type RatingService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRatingService(db *gorm.DB, log *logger.Logger) *RatingService {
	return &RatingService{db: db, log: log.With("service", "rating")}
}

// Rate stores a 1-5 rating for a perfume. A similarity id, when given, must
// name an edge that involves the perfume.
func (s *RatingService) Rate(ctx context.Context, in RatingInput) (*models.UserRating, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Perfume{}).Where("id = ?", in.PerfumeID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("perfume %s: %w", in.PerfumeID, ErrNotFound)
	}

	if in.SimilarityID != nil {
		err := db.Model(&models.PerfumeSimilarity{}).
			Where("id = ? AND (luxury_perfume_id = ? OR alternative_perfume_id = ?)", *in.SimilarityID, in.PerfumeID, in.PerfumeID).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, fmt.Errorf("similarity %s: %w", *in.SimilarityID, ErrNotFound)
		}
	}

	rating := models.UserRating{
		PerfumeID:    in.PerfumeID,
		SimilarityID: in.SimilarityID,
		Rating:       in.Rating,
		Comment:      strings.TrimSpace(in.Comment),
		IPAddress:    in.IPAddress,
	}
	if err := db.Create(&rating).Error; err != nil {
		return nil, err
	}

	s.log.Debug("rating stored", "perfume_id", in.PerfumeID, "rating", in.Rating)
	return &rating, nil
}

// MarkHelpful increments a rating's helpful counter and returns the new value.
func (s *RatingService) MarkHelpful(ctx context.Context, id uuid.UUID) (int, error) {
	db := s.db.WithContext(ctx)

	result := db.Model(&models.UserRating{}).
		Where("id = ?", id).
		UpdateColumn("helpful_count", gorm.Expr("helpful_count + ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, fmt.Errorf("rating %s: %w", id, ErrNotFound)
	}

	var rating models.UserRating
	if err := db.First(&rating, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("rating %s: %w", id, ErrNotFound)
		}
		return 0, err
	}
	return rating.HelpfulCount, nil
}

// ForPerfume lists the most recent ratings of a perfume.
func (s *RatingService) ForPerfume(ctx context.Context, perfumeID uuid.UUID, limit int) ([]models.UserRating, error) {
	var ratings []models.UserRating
	err := s.db.WithContext(ctx).
		Where("perfume_id = ?", perfumeID).
		Order("created_at DESC").
		Limit(NormalizeLimit(limit)).
		Find(&ratings).Error
	return ratings, err
}
