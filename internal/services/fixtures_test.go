package services_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/example/perfumatch/internal/models"
	"github.com/example/perfumatch/internal/testutil"
)

type catalog struct {
	luxury    *models.Perfume
	twin      *models.Perfume // 77.5 against luxury
	opposite  *models.Perfume // 22.5 against luxury
	borderRef *models.Perfume // exactly 30 against luxury
	woody     *models.PerfumeFamily
	floral    *models.PerfumeFamily
}

// seedCatalog builds one luxury perfume and three alternatives around the
// reference scores.
func seedCatalog(t *testing.T, db *gorm.DB) catalog {
	t.Helper()

	chanel := testutil.Brand(t, db, "Chanel", models.BrandLuxury)
	bargello := testutil.Brand(t, db, "Bargello", models.BrandAlternative)
	woody := testutil.Family(t, db, "Woody")
	floral := testutil.Family(t, db, "Floral")

	c := catalog{woody: woody, floral: floral}
	c.luxury = testutil.Perfume(t, db, chanel, "Bleu de Chanel", models.GenderMen, testutil.PerfumeOpts{
		Family: woody,
		Price:  "3500",
		Notes:  []testutil.NoteSpec{testutil.Top("Bergamot"), testutil.Middle("Rose"), testutil.Base("Sandalwood")},
	})
	c.twin = testutil.Perfume(t, db, bargello, "Bargello 515", models.GenderMen, testutil.PerfumeOpts{
		Family: woody,
		Price:  "320",
		Notes:  []testutil.NoteSpec{testutil.Top("Bergamot"), testutil.Middle("Rose"), testutil.Base("Musk")},
	})
	c.opposite = testutil.Perfume(t, db, bargello, "Bargello 122", models.GenderWomen, testutil.PerfumeOpts{
		Family: floral,
		Notes:  []testutil.NoteSpec{testutil.Top("Bergamot"), testutil.Middle("Rose"), testutil.Base("Musk")},
	})
	c.borderRef = testutil.Perfume(t, db, bargello, "Bargello 700", models.GenderUnisex, testutil.PerfumeOpts{
		Family: floral,
		Price:  "290",
		Notes:  []testutil.NoteSpec{testutil.Base("Vanilla")},
	})
	return c
}

// memCache is an in-process Cache used to observe caching behavior.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes []string
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, dst interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *memCache) Set(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *memCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes = append(c.deletes, prefix)
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

func (c *memCache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	return out
}
