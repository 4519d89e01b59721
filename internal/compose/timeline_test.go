package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWords int
		want     []string
	}{
		{"short line stays whole", "BRO WHAT", 3, []string{"BRO WHAT"}},
		{"exact multiple", "ONE TWO THREE FOUR FIVE SIX", 3, []string{"ONE TWO THREE", "FOUR FIVE SIX"}},
		{"remainder chunk", "A B C D", 3, []string{"A B C", "D"}},
		{"empty text", "", 3, nil},
		{"collapses whitespace", "  HE   IS  DONE ", 3, []string{"HE IS DONE"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitChunks(tt.text, tt.maxWords))
		})
	}
}

func TestShockTreatment(t *testing.T) {
	assert.True(t, shockTreatment("scream", "HE FELL", ""))
	assert.True(t, shockTreatment("calm", "NO WAY!", ""))
	assert.False(t, shockTreatment("calm", "HE FELL", ""))

	// A visual effect always wins over the shock grade
	assert.False(t, shockTreatment("scream", "NO WAY!", "explosion"))
}

func TestNearJumpscare(t *testing.T) {
	tl := &Timeline{JumpscareAt: 10}

	assert.True(t, tl.nearJumpscare(9.5, 1.0, 1.0))
	assert.True(t, tl.nearJumpscare(10.5, 1.0, 1.0))
	assert.False(t, tl.nearJumpscare(8.9, 1.0, 1.0))
	assert.False(t, tl.nearJumpscare(11.1, 1.0, 1.0))

	// Asymmetric window
	assert.True(t, tl.nearJumpscare(11.4, 0.5, 1.5))
	assert.False(t, tl.nearJumpscare(9.4, 0.5, 1.5))

	none := &Timeline{JumpscareAt: -1}
	assert.False(t, none.nearJumpscare(10, 100, 100))
}

func TestLayerAccessors(t *testing.T) {
	tl := &Timeline{
		Visual: []VisualLayer{
			{Kind: VisualBase},
			{Kind: VisualCaption, Text: "A"},
			{Kind: VisualPatch},
			{Kind: VisualCaption, Text: "B"},
		},
		Audio: []AudioLayer{
			{Kind: AudioBase},
			{Kind: AudioVoice, Start: 1},
			{Kind: AudioSFX},
			{Kind: AudioVoice, Start: 4},
		},
	}

	caps := tl.LayersOf(VisualCaption)
	assert.Len(t, caps, 2)
	assert.Equal(t, "A", caps[0].Text)
	assert.Equal(t, "B", caps[1].Text)

	voices := tl.VoiceLayers()
	assert.Len(t, voices, 2)
	assert.Equal(t, 1.0, voices[0].Start)
	assert.Equal(t, 4.0, voices[1].Start)
}
