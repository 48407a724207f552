package models

// BrandType is the price tier of a brand.
type BrandType string

const (
	BrandLuxury      BrandType = "luxury"
	BrandAlternative BrandType = "alternative"
)

// Valid reports whether t is one of the known tiers.
func (t BrandType) Valid() bool {
	return t == BrandLuxury || t == BrandAlternative
}

// Brand owns perfumes. Created on first reference during import.
type Brand struct {
	BaseModel
	Name     string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Type     BrandType `gorm:"size:20;not null;index" json:"type"`
	Perfumes []Perfume `json:"perfumes,omitempty"`
}

// PerfumeFamily is a broad fragrance classification such as Woody or Floral.
type PerfumeFamily struct {
	BaseModel
	Name        string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Perfumes    []Perfume `gorm:"foreignKey:FamilyID" json:"perfumes,omitempty"`
}
