package services

import (
	"context"
	"fmt"

	"github.com/meilisearch/meilisearch-go"
	"gorm.io/gorm"

	"github.com/example/perfumatch/internal/models"
	"github.com/example/perfumatch/internal/pkg/logger"
)

const perfumeIndex = "perfumes"

// IndexDocument is a perfume as stored in the search index.
type IndexDocument struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	BrandType   string   `json:"brand_type"`
	Family      string   `json:"family,omitempty"`
	Gender      string   `json:"gender"`
	Price       *float64 `json:"price,omitempty"`
	Currency    string   `json:"currency"`
	Notes       []string `json:"notes"`
	TopNotes    []string `json:"top_notes"`
	MiddleNotes []string `json:"middle_notes"`
	BaseNotes   []string `json:"base_notes"`
}

// NewIndexDocument flattens a projection for indexing.
func NewIndexDocument(p Projection) IndexDocument {
	doc := IndexDocument{
		ID:          p.ID.String(),
		Name:        p.Name,
		Brand:       p.Brand.Name,
		BrandType:   string(p.Brand.Type),
		Gender:      string(p.Gender),
		Price:       p.Price,
		Currency:    p.Currency,
		Notes:       p.Notes.Names(),
		TopNotes:    refNames(p.Notes.Top),
		MiddleNotes: refNames(p.Notes.Middle),
		BaseNotes:   refNames(p.Notes.Base),
	}
	if p.Family != nil {
		doc.Family = p.Family.Name
	}
	return doc
}

func refNames(refs []NoteRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Name)
	}
	return out
}

// SearchIndexer pushes the catalog into a Meilisearch index.
type SearchIndexer struct {
	db        *gorm.DB
	log       *logger.Logger
	client    meilisearch.ServiceManager
	layers    LayerResolver
	batchSize int
}

// NewSearchIndexer returns nil when url is empty.
func NewSearchIndexer(db *gorm.DB, log *logger.Logger, url, apiKey string, layers LayerResolver) *SearchIndexer {
	if url == "" {
		return nil
	}
	if layers == nil {
		layers = FirstSeenLayer{}
	}
	return &SearchIndexer{
		db:        db,
		log:       log.With("service", "search_indexer"),
		client:    meilisearch.New(url, meilisearch.WithAPIKey(apiKey)),
		layers:    layers,
		batchSize: 500,
	}
}

// Reindex recreates the perfumes index and uploads every perfume.
func (s *SearchIndexer) Reindex(ctx context.Context) (int, error) {
	_, _ = s.client.DeleteIndex(perfumeIndex)
	if _, err := s.client.CreateIndex(&meilisearch.IndexConfig{Uid: perfumeIndex, PrimaryKey: "id"}); err != nil {
		s.log.Warn("could not create index", "index", perfumeIndex, "error", err)
	}

	index := s.client.Index(perfumeIndex)
	settings := meilisearch.Settings{
		SearchableAttributes: []string{"name", "brand", "notes", "family"},
		FilterableAttributes: []string{"brand", "brand_type", "gender", "family", "notes", "price"},
		SortableAttributes:   []string{"price", "name"},
	}
	if _, err := index.UpdateSettings(&settings); err != nil {
		s.log.Warn("could not update index settings", "error", err)
	}

	indexed := 0
	var batch []models.Perfume
	err := withPerfumeDetails(s.db.WithContext(ctx).Model(&models.Perfume{})).
		FindInBatches(&batch, s.batchSize, func(tx *gorm.DB, _ int) error {
			docs := make([]IndexDocument, 0, len(batch))
			for i := range batch {
				docs = append(docs, NewIndexDocument(Project(&batch[i], s.layers)))
			}
			if _, err := index.AddDocuments(docs, nil); err != nil {
				return fmt.Errorf("add documents: %w", err)
			}
			indexed += len(docs)
			return nil
		}).Error
	if err != nil {
		return indexed, err
	}

	s.log.Info("search index rebuilt", "index", perfumeIndex, "documents", indexed)
	return indexed, nil
}
