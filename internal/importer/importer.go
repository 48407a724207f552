// Package importer loads scraped perfume listings into the catalog.
package importer

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/example/perfumatch/internal/models"
	"github.com/example/perfumatch/internal/pkg/logger"
	"github.com/example/perfumatch/internal/pricing"
)

// DefaultBatchSize is the number of created perfumes per committed chunk.
const DefaultBatchSize = 100

// Result counts what happened to the records of one source.
type Result struct {
	Source  string `json:"source"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

type outcome int

const (
	outcomeCreated outcome = iota
	outcomeSkipped
	outcomeFailed
)

// CacheInvalidator drops cached entries by key prefix.
type CacheInvalidator interface {
	DeletePrefix(ctx context.Context, prefix string) error
}

// Importer writes normalized perfumes, brands, families and notes.
type Importer struct {
	db        *gorm.DB
	log       *logger.Logger
	cache     CacheInvalidator
	batchSize int
}

// New returns an Importer committing every batchSize created perfumes.
func New(db *gorm.DB, log *logger.Logger, batchSize int) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{
		db:        db,
		log:       log.With("service", "importer"),
		batchSize: batchSize,
	}
}

// WithCache makes the importer drop cached alternative lists after a run that
// created perfumes. A nil cache is ignored.
func (im *Importer) WithCache(cache CacheInvalidator) *Importer {
	if cache != nil {
		im.cache = cache
	}
	return im
}

// ImportSource imports records with the parser registered for source.
// Record-level failures are logged and counted; only storage failures that
// abort a chunk are returned. Chunks committed before such a failure stay.
func (im *Importer) ImportSource(ctx context.Context, source string, records []Record) (Result, error) {
	src, err := SourceFor(source)
	if err != nil {
		return Result{Source: source}, err
	}

	res, err := im.importChunks(ctx, src, records)
	if res.Created > 0 {
		im.invalidate(context.WithoutCancel(ctx))
	}
	return res, err
}

func (im *Importer) importChunks(ctx context.Context, src Source, records []Record) (Result, error) {
	res := Result{Source: src.Name()}
	sess := NewSession()
	pos := 0

	for pos < len(records) {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		chunk := res
		err := im.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			created := 0
			for pos < len(records) && created < im.batchSize {
				rec := records[pos]
				pos++

				switch im.importRecord(tx, sess, src, rec) {
				case outcomeCreated:
					created++
					chunk.Created++
				case outcomeSkipped:
					chunk.Skipped++
				case outcomeFailed:
					chunk.Failed++
				}
			}
			return nil
		})
		if err != nil {
			sess.Reset()
			return res, fmt.Errorf("import %s: commit chunk: %w", src.Name(), err)
		}

		res = chunk
		im.log.Info("chunk committed", "source", src.Name(), "created", res.Created, "skipped", res.Skipped, "failed", res.Failed)
	}

	im.log.Info("source imported", "source", src.Name(), "created", res.Created, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}

func (im *Importer) invalidate(ctx context.Context) {
	if im.cache == nil {
		return
	}
	if err := im.cache.DeletePrefix(ctx, "alternatives:"); err != nil {
		im.log.Warn("cache invalidation failed", "error", err)
	}
}

// ImportAll imports every loaded source in order.
func (im *Importer) ImportAll(ctx context.Context, batches []Batch) ([]Result, error) {
	results := make([]Result, 0, len(batches))
	for _, b := range batches {
		res, err := im.ImportSource(ctx, b.Source, b.Records)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

const recordSavepoint = "import_record"

func (im *Importer) importRecord(tx *gorm.DB, sess *Session, src Source, rec Record) outcome {
	in, err := src.Extract(rec)
	if err != nil {
		im.log.Warn("record rejected", "source", src.Name(), "error", err)
		return outcomeFailed
	}

	if err := tx.SavePoint(recordSavepoint).Error; err != nil {
		im.log.Error("savepoint failed", "source", src.Name(), "perfume", in.Name, "error", err)
		return outcomeFailed
	}
	sess.begin()

	out, err := im.writePerfume(tx, sess, src.Name(), in)
	if err != nil {
		im.log.Error("record failed", "source", src.Name(), "perfume", in.Name, "error", err)
		if rbErr := tx.RollbackTo(recordSavepoint).Error; rbErr != nil {
			im.log.Error("rollback failed", "source", src.Name(), "error", rbErr)
		}
		sess.discard()
		return outcomeFailed
	}
	return out
}

func (im *Importer) writePerfume(tx *gorm.DB, sess *Session, source string, in PerfumeInput) (outcome, error) {
	brand, err := sess.Brand(tx, in.Brand, in.BrandType)
	if err != nil {
		return outcomeFailed, err
	}

	var existing int64
	if err := tx.Model(&models.Perfume{}).
		Where("name = ? AND brand_id = ?", in.Name, brand.ID).
		Count(&existing).Error; err != nil {
		return outcomeFailed, err
	}
	if existing > 0 {
		return outcomeSkipped, nil
	}

	family, err := sess.Family(tx, in.Family)
	if err != nil {
		return outcomeFailed, err
	}

	perfume := models.Perfume{
		Name:          in.Name,
		BrandID:       brand.ID,
		Gender:        in.Gender,
		Price:         in.Price,
		Currency:      in.Currency,
		Volume:        in.Volume,
		Concentration: in.Concentration,
		Description:   in.Description,
		ImageURL:      in.ImageURL,
		ProductURL:    in.ProductURL,
		StockStatus:   in.StockStatus,
		Rating:        in.Rating,
		Perfumer:      in.Perfumer,
		ReleaseYear:   in.ReleaseYear,
		Source:        source,
	}
	if perfume.Gender == "" {
		perfume.Gender = models.GenderUnisex
	}
	if perfume.Currency == "" {
		perfume.Currency = pricing.DefaultCurrency
	}
	if family != nil {
		id := family.ID
		perfume.FamilyID = &id
	}
	if err := tx.Create(&perfume).Error; err != nil {
		return outcomeFailed, err
	}

	for _, n := range in.Notes {
		note, err := sess.Note(tx, n.Name, n.Layer)
		if err != nil {
			return outcomeFailed, err
		}
		if _, err := sess.Link(tx, perfume.ID, note, n.Layer); err != nil {
			return outcomeFailed, err
		}
	}
	return outcomeCreated, nil
}
