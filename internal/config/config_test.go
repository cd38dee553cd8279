package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLocalPath(t *testing.T) {
	assert.Equal(t, "conf/stores.local.json5", LocalPath("conf/stores.json5"))
}

func TestLoadStores_AppliesLocalOverrides(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "stores.json5")
	writeFile(t, name, `{
		// comments and trailing commas are allowed
		stores: [
			{id: "shop-a", kind: "shopify", base_url: "https://a.example.com", gender: "women"},
			{id: "shop-b", kind: "search", base_url: "https://b.example.com", endpoint: "https://b.example.com/search"},
		],
	}`)
	writeFile(t, filepath.Join(dir, "stores.local.json5"), `{
		stores: [
			{id: "shop-b", api_key: "secret", max_pages: 2},
			{id: "shop-c", kind: "html", base_url: "https://c.example.com", collections: ["/collections/all"]},
		],
	}`)

	stores, err := LoadStores(name)

	require.NoError(t, err)
	require.Len(t, stores, 3)
	assert.Equal(t, "women", stores[0].Gender)
	assert.Equal(t, "search", stores[1].Kind)
	assert.Equal(t, "https://b.example.com/search", stores[1].Endpoint)
	assert.Equal(t, "secret", stores[1].APIKey)
	assert.Equal(t, 2, stores[1].MaxPages)
	assert.Equal(t, []string{"/collections/all"}, stores[2].Collections)
}

func TestLoadStores_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadStores(filepath.Join(dir, "missing.json5"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	dup := filepath.Join(dir, "dup.json5")
	writeFile(t, dup, `{stores: [{id: "a"}, {id: "a"}]}`)
	_, err = LoadStores(dup)
	assert.ErrorContains(t, err, "duplicate store id")

	bad := filepath.Join(dir, "bad.json5")
	writeFile(t, bad, `{stores: [`)
	_, err = LoadStores(bad)
	assert.ErrorContains(t, err, "failed to parse")
}
