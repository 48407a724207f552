package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/example/perfumatch/internal/config"
	"github.com/example/perfumatch/internal/pkg/logger"
)

// Batch is the decoded content of one source file.
type Batch struct {
	Source  string
	Path    string
	Records []Record
}

// LoadRecords reads a JSON array of objects, a single JSON object, or the
// YAML equivalent. A missing file yields no records. Elements that are not
// objects are dropped.
func LoadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var decoded interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &decoded)
	default:
		err = json.Unmarshal(data, &decoded)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return toRecords(decoded), nil
}

func toRecords(v interface{}) []Record {
	switch t := v.(type) {
	case map[string]interface{}:
		return []Record{Record(t)}
	case []interface{}:
		out := make([]Record, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]interface{}); ok {
				out = append(out, Record(m))
			}
		}
		return out
	}
	return nil
}

// LoadAll reads every configured file concurrently. Files that fail to decode
// are logged and contribute no records; the order of files is preserved.
func LoadAll(ctx context.Context, files []config.SourceFile, log *logger.Logger) ([]Batch, error) {
	batches := make([]Batch, len(files))
	g, ctx := errgroup.WithContext(ctx)

	for i, f := range files {
		i, f := i, f
		if _, err := SourceFor(f.Source); err != nil {
			return nil, err
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := LoadRecords(f.Path)
			if err != nil {
				log.Warn("source file unreadable", "source", f.Source, "path", f.Path, "error", err)
				records = nil
			}
			batches[i] = Batch{Source: f.Source, Path: f.Path, Records: records}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batches, nil
}
