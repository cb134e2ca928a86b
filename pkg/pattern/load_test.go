package pattern

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privaxis/doublefetch/pkg/common"
)

func writePatternFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writePatternFile(t, dir, "serp.yaml", `
serp:
  output:
    result:
      fields:
        - key: query
`)

	set, err := LoadFile(nil, path)
	require.NoError(t, err)
	require.Contains(t, set, "serp")
	assert.Equal(t, "result", set["serp"].Output[0].Action)
}

func TestLoadFile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writePatternFile(t, dir, "serp.json", `{
  "serp": {
    "output": {
      "result": {
        "fields": [{"key": "query"}]
      }
    }
  }
}`)

	set, err := LoadFile(nil, path)
	require.NoError(t, err)
	require.Contains(t, set, "serp")
	assert.Equal(t, "result", set["serp"].Output[0].Action)
}

func TestLoadFile_MalformedYAMLIsPermanent(t *testing.T) {
	dir := t.TempDir()
	path := writePatternFile(t, dir, "broken.yaml", "serp: [this is not a rule")

	_, err := LoadFile(nil, path)
	require.Error(t, err)
	assert.True(t, common.IsPermanent(err))
}

func TestLoadGlob_MergesFilesAndSkipsUnsupportedExtensions(t *testing.T) {
	dir := t.TempDir()
	writePatternFile(t, dir, "a.yaml", `
serp:
  output:
    result:
      fields:
        - key: query
`)
	writePatternFile(t, dir, "b.yaml", `
images:
  output:
    result:
      fields:
        - key: query
`)
	writePatternFile(t, dir, "notes.txt", "ignore me")

	set, err := LoadGlob(nil, filepath.Join(dir, "*"))
	require.NoError(t, err)
	assert.Contains(t, set, "serp")
	assert.Contains(t, set, "images")
}

func TestLoadGlob_NoMatchesIsError(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadGlob(nil, filepath.Join(dir, "*.yaml"))
	assert.Error(t, err)
}
