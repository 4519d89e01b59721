package producer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestListVideos(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "alpha.mp4")
	b := writeFile(t, dir, "Bravo.MOV")
	c := writeFile(t, dir, "charlie.webm")
	writeFile(t, dir, "notes.txt")
	writeFile(t, dir, "script.json")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested.mp4"), 0o755))

	got, err := ListVideos(dir)
	require.NoError(t, err)

	// Case-insensitive extension match, subdirectories skipped, sorted
	assert.Equal(t, []string{b, a, c}, got)
}

func TestListVideosEmptyDir(t *testing.T) {
	got, err := ListVideos(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListVideosMissingDir(t *testing.T) {
	_, err := ListVideos(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestStreamerName(t *testing.T) {
	assert.Equal(t, "xqc_fail", StreamerName("input/xqc_fail.mp4"))
	assert.Equal(t, "clip", StreamerName("clip.webm"))
	assert.Equal(t, "no_ext", StreamerName("dir/no_ext"))
}
