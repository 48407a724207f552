package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PerfumeSimilarity is a scored edge from a luxury perfume to an alternative.
type PerfumeSimilarity struct {
	BaseModel
	LuxuryPerfumeID      uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_similarity_pair" json:"luxury_perfume_id"`
	LuxuryPerfume        *Perfume            `gorm:"foreignKey:LuxuryPerfumeID" json:"luxury_perfume,omitempty"`
	AlternativePerfumeID uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_similarity_pair;index" json:"alternative_perfume_id"`
	AlternativePerfume   *Perfume            `gorm:"foreignKey:AlternativePerfumeID" json:"alternative_perfume,omitempty"`
	SimilarityScore      float64             `gorm:"type:numeric(5,2);not null;index" json:"similarity_score"`
	NoteSimilarity       *float64            `gorm:"type:numeric(5,2)" json:"note_similarity"`
	FamilySimilarity     *float64            `gorm:"type:numeric(5,2)" json:"family_similarity"`
	GenderMatch          bool                `json:"gender_match"`
	PriceDifference      decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"price_difference"`
}

// TableName keeps the table name stable regardless of naming strategy.
func (PerfumeSimilarity) TableName() string {
	return "perfume_similarities"
}
