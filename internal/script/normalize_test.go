package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEnvelope(t *testing.T) {
	raw := []byte(`{"script": [
		{"timestamp": 1.5, "text": "bro is lost", "mood": "calm"},
		{"timestamp": 4.0, "text": "HE FELL!", "mood": "scream", "visual_effect": "explosion"}
	]}`)

	lines := Normalize(raw)
	require.Len(t, lines, 2)
	assert.Equal(t, 1.5, lines[0].Timestamp)
	assert.Equal(t, "bro is lost", lines[0].Text)
	assert.Equal(t, "scream", lines[1].Mood)
	assert.Equal(t, "explosion", lines[1].VisualEffect)
}

func TestNormalizeBareList(t *testing.T) {
	raw := []byte(`[{"timestamp": 2.0, "text": "no envelope"}]`)

	lines := Normalize(raw)
	require.Len(t, lines, 1)
	assert.Equal(t, "no envelope", lines[0].Text)
}

func TestNormalizeStringItems(t *testing.T) {
	raw := []byte(`{"script": ["first roast", "second roast", "third roast"]}`)

	lines := Normalize(raw)
	require.Len(t, lines, 3)

	// Plain strings get spaced default timestamps
	assert.Equal(t, 0.0, lines[0].Timestamp)
	assert.Equal(t, 5.0, lines[1].Timestamp)
	assert.Equal(t, 10.0, lines[2].Timestamp)
	assert.Equal(t, "second roast", lines[1].Text)
}

func TestNormalizeMixedItems(t *testing.T) {
	raw := []byte(`["plain string", {"timestamp": 3.0, "text": "object"}]`)

	lines := Normalize(raw)
	require.Len(t, lines, 2)
	assert.Equal(t, "plain string", lines[0].Text)
	assert.Equal(t, 3.0, lines[1].Timestamp)
}

func TestNormalizeGarbage(t *testing.T) {
	assert.Empty(t, Normalize([]byte(`not json at all`)))
	assert.Empty(t, Normalize([]byte(`{"wrong": "shape"}`)))
	assert.Empty(t, Normalize([]byte(`{"script": []}`)))
}

func TestCleanJSON(t *testing.T) {
	fenced := "```json\n{\"script\": []}\n```"
	assert.Equal(t, `{"script": []}`, cleanJSON(fenced))

	bare := `{"script": []}`
	assert.Equal(t, bare, cleanJSON(bare))
}
