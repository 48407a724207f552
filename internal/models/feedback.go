package models

import "github.com/google/uuid"

// UserRating is a visitor's 1-5 verdict on a perfume or on a suggested alternative.
type UserRating struct {
	BaseModel
	PerfumeID    uuid.UUID          `gorm:"type:uuid;not null;index" json:"perfume_id"`
	Perfume      *Perfume           `json:"perfume,omitempty"`
	SimilarityID *uuid.UUID         `gorm:"type:uuid;index" json:"similarity_id"`
	Similarity   *PerfumeSimilarity `gorm:"foreignKey:SimilarityID" json:"similarity,omitempty"`
	Rating       int                `gorm:"not null" json:"rating"`
	Comment      string             `gorm:"type:text" json:"comment"`
	HelpfulCount int                `gorm:"not null" json:"helpful_count"`
	IPAddress    string             `gorm:"size:45" json:"-"`
}

// SearchHistory records one façade search.
type SearchHistory struct {
	BaseModel
	SearchTerm   string `gorm:"size:200;index" json:"search_term"`
	SearchType   string `gorm:"size:20;index" json:"search_type"`
	ResultsCount int    `json:"results_count"`
	IPAddress    string `gorm:"size:45" json:"-"`
	UserAgent    string `gorm:"type:text" json:"-"`
}

// TableName matches the singular table used by the reporting queries.
func (SearchHistory) TableName() string {
	return "search_history"
}
