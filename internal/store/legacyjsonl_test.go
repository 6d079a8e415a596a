package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLegacyEntries_MissingDirReturnsEmpty(t *testing.T) {
	entries, err := ReadLegacyEntries(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadLegacyEntries_ParsesJSONLFiles(t *testing.T) {
	dir := t.TempDir()
	content := `{"gh_id":"IC_1","repo":"acme/widgets","pr":1,"type":"comment"}
{"gh_id":"IC_2","repo":"acme/widgets","pr":1,"type":"comment"}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme-widgets.jsonl"), []byte(content), 0o644))

	entries, err := ReadLegacyEntries(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "IC_1", entries[0].ID)
}
