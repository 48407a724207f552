package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel provides the shared identity and timestamp columns.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not pick one. The importer
// relies on this to reference a perfume before its notes are written.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Forget clears the assigned ID so the row can be reloaded or re-created,
// e.g. after its insert was rolled back.
func (b *BaseModel) Forget() {
	b.ID = uuid.Nil
}

// Identified is implemented by every model embedding BaseModel.
type Identified interface {
	Forget()
}
