package importer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/perfumatch/internal/config"
	"github.com/example/perfumatch/internal/importer"
	"github.com/example/perfumatch/internal/testutil"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRecords(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		want    int
		wantErr bool
	}{
		{"array", "a.json", `[{"isim":"A"},{"isim":"B"}]`, 2, false},
		{"single object", "b.json", `{"name":"Solo"}`, 1, false},
		{"non objects dropped", "c.json", `[{"name":"A"}, 3, "x", null]`, 1, false},
		{"scalar", "d.json", `"hello"`, 0, false},
		{"yaml", "e.yaml", "- name: A\n  brand: B\n- name: C\n  brand: D\n", 2, false},
		{"broken", "f.json", `[{"name":`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := importer.LoadRecords(writeFile(t, dir, tt.file, tt.content))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tt.want)
		})
	}
}

func TestLoadRecords_MissingFile(t *testing.T) {
	records, err := importer.LoadRecords(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	files := []config.SourceFile{
		{Source: "bargello", Path: writeFile(t, dir, "bargello.json", `[{"isim":"A"}]`)},
		{Source: "zara", Path: writeFile(t, dir, "zara.json", `not json`)},
		{Source: "muscent", Path: filepath.Join(dir, "absent.json")},
		{Source: "luxury", Path: writeFile(t, dir, "lux.yaml", "- {brand: X, name: Y}\n")},
	}

	batches, err := importer.LoadAll(context.Background(), files, testutil.Logger(t))
	require.NoError(t, err)
	require.Len(t, batches, 4)

	assert.Equal(t, "bargello", batches[0].Source)
	assert.Len(t, batches[0].Records, 1)
	assert.Empty(t, batches[1].Records)
	assert.Empty(t, batches[2].Records)
	assert.Len(t, batches[3].Records, 1)
}

func TestLoadAll_UnknownSource(t *testing.T) {
	_, err := importer.LoadAll(context.Background(), []config.SourceFile{{Source: "ebay", Path: "x.json"}}, testutil.Logger(t))
	assert.Error(t, err)
}
