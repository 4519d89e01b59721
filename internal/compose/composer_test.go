package compose

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roast-pipeline/config"
	"roast-pipeline/types"
)

type fakeAssets struct {
	greenScreens map[string]string
	sfx          []string
	sfxCalls     int
	adlib        string
	jumpscare    string
	overlay      string
	deck         []string
}

func (f *fakeAssets) ResolveFuzzy(tag, category string) string { return f.greenScreens[tag] }
func (f *fakeAssets) RandomSFX() string {
	if len(f.sfx) == 0 {
		return ""
	}
	s := f.sfx[f.sfxCalls%len(f.sfx)]
	f.sfxCalls++
	return s
}
func (f *fakeAssets) Adlib() string         { return f.adlib }
func (f *fakeAssets) Jumpscare() string     { return f.jumpscare }
func (f *fakeAssets) RandomOverlay() string { return f.overlay }
func (f *fakeAssets) ImageDeck() []string   { return append([]string(nil), f.deck...) }
func (f *fakeAssets) Font() string          { return "font.ttf" }

type fakeImages struct {
	results map[string]string
	calls   int
}

func (f *fakeImages) Fetch(ctx context.Context, query string) string {
	f.calls++
	return f.results[query]
}

func testComposer(t *testing.T, lib *fakeAssets, images *fakeImages, total float64, durations map[string]float64) *Composer {
	t.Helper()
	if images == nil {
		images = &fakeImages{}
	}
	c := New(config.Default().Compose, lib, images, rand.New(rand.NewSource(1)))
	c.probeDims = func(path string) (int, int, error) { return 608, 1080, nil }
	c.probeDuration = func(path string) (float64, error) {
		if d, ok := durations[path]; ok {
			return d, nil
		}
		return total, nil
	}
	c.probeHasAudio = func(path string) bool { return true }
	return c
}

func TestBuildVoicePlacement(t *testing.T) {
	c := testComposer(t, &fakeAssets{}, nil, 20, nil)

	// Second line's timestamp collides with the first line's tail
	script := []types.ScriptLine{
		{Timestamp: 1.0, Text: "first line here"},
		{Timestamp: 2.0, Text: "second line here"},
		{Timestamp: 9.0, Text: "third line here"},
	}
	voices := []types.VoiceTrack{
		{Index: 0, Path: "v0.mp3", Duration: 3.0},
		{Index: 1, Path: "v1.mp3", Duration: 2.0},
		{Index: 2, Path: "v2.mp3", Duration: 2.0},
	}

	tl, err := c.Build(context.Background(), "base.mp4", script, voices)
	require.NoError(t, err)

	placed := tl.VoiceLayers()
	require.Len(t, placed, 3)
	assert.InDelta(t, 1.0, placed[0].Start, 1e-9)
	assert.InDelta(t, 4.1, placed[1].Start, 1e-9) // pushed past first line's end plus gap
	assert.InDelta(t, 9.0, placed[2].Start, 1e-9) // its own timestamp is already clear

	for i := 1; i < len(placed); i++ {
		prevEnd := placed[i-1].Start + voices[i-1].Duration
		assert.GreaterOrEqual(t, placed[i].Start, prevEnd, "voice lines must not overlap")
	}
	for _, v := range placed {
		assert.Equal(t, 1.6, v.Gain)
	}
}

func TestBuildFirstLineStartsAtGap(t *testing.T) {
	c := testComposer(t, &fakeAssets{}, nil, 10, nil)

	script := []types.ScriptLine{{Timestamp: 0, Text: "BRO IS DONE", Mood: "scream"}}
	voices := []types.VoiceTrack{{Index: 0, Path: "v0.mp3", Duration: 1.2}}

	tl, err := c.Build(context.Background(), "base.mp4", script, voices)
	require.NoError(t, err)

	placed := tl.VoiceLayers()
	require.Len(t, placed, 1)
	assert.InDelta(t, 0.1, placed[0].Start, 1e-9, "timestamp 0 still honors the minimum gap")

	patches := tl.LayersOf(VisualPatch)
	require.Len(t, patches, 1)
	assert.True(t, patches[0].Shock)

	caps := tl.LayersOf(VisualCaption)
	require.Len(t, caps, 1)
	assert.Equal(t, "BRO IS DONE", caps[0].Text)
	assert.InDelta(t, 1.2, caps[0].Duration, 1e-9)
}

func TestBuildDropsOverflowingLine(t *testing.T) {
	c := testComposer(t, &fakeAssets{}, nil, 10, nil)

	script := []types.ScriptLine{
		{Timestamp: 1.0, Text: "keeps this one"},
		{Timestamp: 9.0, Text: "this one runs long"},
	}
	voices := []types.VoiceTrack{
		{Index: 0, Path: "v0.mp3", Duration: 2.0},
		{Index: 1, Path: "v1.mp3", Duration: 3.0},
	}

	tl, err := c.Build(context.Background(), "base.mp4", script, voices)
	require.NoError(t, err)

	// The overflowing line disappears entirely: no voice, no captions
	placed := tl.VoiceLayers()
	require.Len(t, placed, 1)
	assert.Equal(t, "v0.mp3", placed[0].Source)

	for _, cap := range tl.LayersOf(VisualCaption) {
		assert.Less(t, cap.Start, 4.0)
	}
}

func TestBuildRejectsMismatchedVoices(t *testing.T) {
	c := testComposer(t, &fakeAssets{}, nil, 10, nil)

	_, err := c.Build(context.Background(), "base.mp4",
		[]types.ScriptLine{{Text: "a"}, {Text: "b"}},
		[]types.VoiceTrack{{Path: "v0.mp3"}})
	assert.Error(t, err)
}

func TestBuildCaptionsPerLine(t *testing.T) {
	c := testComposer(t, &fakeAssets{}, nil, 30, nil)

	script := []types.ScriptLine{
		{Timestamp: 1.0, Text: "one two three four five"},
		{Timestamp: 10.0, Text: "six seven"},
	}
	voices := []types.VoiceTrack{
		{Index: 0, Path: "v0.mp3", Duration: 2.0},
		{Index: 1, Path: "v1.mp3", Duration: 1.0},
	}

	tl, err := c.Build(context.Background(), "base.mp4", script, voices)
	require.NoError(t, err)

	caps := tl.LayersOf(VisualCaption)
	require.Len(t, caps, 3) // 5 words -> 2 chunks, 2 words -> 1 chunk

	assert.Equal(t, "ONE TWO THREE", caps[0].Text)
	assert.Equal(t, "FOUR FIVE", caps[1].Text)
	assert.Equal(t, "SIX SEVEN", caps[2].Text)

	// Chunks split the voice duration evenly
	assert.InDelta(t, 1.0, caps[0].Start, 1e-9)
	assert.InDelta(t, 2.0, caps[1].Start, 1e-9)
	assert.InDelta(t, 1.0, caps[0].Duration, 1e-9)
}

func TestBuildPatchShock(t *testing.T) {
	c := testComposer(t, &fakeAssets{}, nil, 30, nil)

	script := []types.ScriptLine{
		{Timestamp: 1.0, Text: "calm words", Mood: "calm"},
		{Timestamp: 10.0, Text: "HE IS DONE!", Mood: "calm"},
		{Timestamp: 20.0, Text: "screaming", Mood: "scream"},
	}
	voices := []types.VoiceTrack{
		{Index: 0, Path: "v0.mp3", Duration: 2.0},
		{Index: 1, Path: "v1.mp3", Duration: 2.0},
		{Index: 2, Path: "v2.mp3", Duration: 2.0},
	}

	tl, err := c.Build(context.Background(), "base.mp4", script, voices)
	require.NoError(t, err)

	patches := tl.LayersOf(VisualPatch)
	require.Len(t, patches, 3)
	assert.False(t, patches[0].Shock)
	assert.True(t, patches[1].Shock, "exclamation text gets the shock grade")
	assert.True(t, patches[2].Shock, "scream mood gets the shock grade")

	// Patch clips cap at one second regardless of voice length
	for _, p := range patches {
		assert.LessOrEqual(t, p.Duration, 1.0)
	}
}

func TestBuildOverlaySplit(t *testing.T) {
	lib := &fakeAssets{overlay: "cam.mp4"}
	c := testComposer(t, lib, nil, 20, nil)

	tl, err := c.Build(context.Background(), "base.mp4", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 756, tl.SplitH) // 70% of 1080
	require.Len(t, tl.LayersOf(VisualOverlay), 1)
}

func TestBuildOverlaySkippedForShortClip(t *testing.T) {
	lib := &fakeAssets{overlay: "cam.mp4"}
	c := testComposer(t, lib, nil, 4, nil)

	tl, err := c.Build(context.Background(), "base.mp4", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, tl.Height, tl.SplitH)
	assert.Empty(t, tl.LayersOf(VisualOverlay))
}

func TestBuildJumpscareWindowAndZOrder(t *testing.T) {
	lib := &fakeAssets{jumpscare: "scare.mov"}
	c := testComposer(t, lib, nil, 20, map[string]float64{"scare.mov": 0.8})

	tl, err := c.Build(context.Background(), "base.mp4", nil, nil)
	require.NoError(t, err)

	// Scheduled inside the middle 60% of the clip
	assert.GreaterOrEqual(t, tl.JumpscareAt, 20*0.2)
	assert.LessOrEqual(t, tl.JumpscareAt, 20*0.8)

	// Jumpscare composites above everything else
	last := tl.Visual[len(tl.Visual)-1]
	assert.Equal(t, VisualJumpscare, last.Kind)
	assert.Equal(t, 0.8, last.Duration)

	// Its audio layer rides hot
	var scareAudio *AudioLayer
	for i := range tl.Audio {
		if tl.Audio[i].Kind == AudioJumpscare {
			scareAudio = &tl.Audio[i]
		}
	}
	require.NotNil(t, scareAudio)
	assert.Equal(t, 2.0, scareAudio.Gain)
}

func TestGreenScreenAvoidsJumpscare(t *testing.T) {
	lib := &fakeAssets{greenScreens: map[string]string{"explosion": "gs/explosion.mp4"}}
	c := testComposer(t, lib, nil, 20, map[string]float64{"gs/explosion.mp4": 3.0})
	c.cfg.EffectChance = 1.0 // take the chance roll out of the picture

	tl := &Timeline{Total: 20, Height: 1080, SplitH: 1080, JumpscareAt: 10}

	c.placeGreenScreen(tl, "explosion", 10.5)
	assert.Empty(t, tl.LayersOf(VisualGreenScreen), "inside the exclusion window")

	c.placeGreenScreen(tl, "explosion", 5.0)
	layers := tl.LayersOf(VisualGreenScreen)
	require.Len(t, layers, 1)
	assert.Equal(t, 0.1, layers[0].TrimFrom)
	assert.Equal(t, 1.5, layers[0].Duration)
}

func TestImageFlashPlacement(t *testing.T) {
	images := &fakeImages{results: map[string]string{"skull": "cache/skull.jpg"}}
	lib := &fakeAssets{deck: []string{"deck/a.jpg", "deck/b.jpg"}}
	c := testComposer(t, lib, images, 20, nil)

	script := []types.ScriptLine{
		{Timestamp: 2.0, Text: "with a query", VisualSearch: "skull"},
		{Timestamp: 8.0, Text: "deck fallback"},
	}
	voices := []types.VoiceTrack{
		{Index: 0, Path: "v0.mp3", Duration: 2.0},
		{Index: 1, Path: "v1.mp3", Duration: 2.0},
	}

	tl, err := c.Build(context.Background(), "base.mp4", script, voices)
	require.NoError(t, err)

	flashes := tl.LayersOf(VisualImage)
	require.Len(t, flashes, 2)
	assert.Equal(t, "cache/skull.jpg", flashes[0].Source)
	assert.InDelta(t, 3.8, flashes[0].Start, 1e-9) // 0.2s before the voice line ends
	assert.Equal(t, "deck/a.jpg", flashes[1].Source)
	assert.Equal(t, 1, images.calls)
}

func TestImageFlashSkippedNearClipEnd(t *testing.T) {
	lib := &fakeAssets{deck: []string{"deck/a.jpg"}}
	c := testComposer(t, lib, nil, 10, nil)

	script := []types.ScriptLine{{Timestamp: 7.0, Text: "late line"}}
	voices := []types.VoiceTrack{{Index: 0, Path: "v0.mp3", Duration: 2.9}}

	tl, err := c.Build(context.Background(), "base.mp4", script, voices)
	require.NoError(t, err)
	assert.Empty(t, tl.LayersOf(VisualImage))
}

func TestBuildStingersAndAdlib(t *testing.T) {
	lib := &fakeAssets{
		sfx:   []string{"sfx/boom.mp3", "sfx/vine.mp3"},
		adlib: "sfx/adlib.mp3",
	}
	c := testComposer(t, lib, nil, 20, map[string]float64{"sfx/adlib.mp3": 1.5})

	script := []types.ScriptLine{{Timestamp: 2.0, Text: "line"}}
	voices := []types.VoiceTrack{{Index: 0, Path: "v0.mp3", Duration: 2.0}}

	tl, err := c.Build(context.Background(), "base.mp4", script, voices)
	require.NoError(t, err)

	var sfx []AudioLayer
	for _, a := range tl.Audio {
		if a.Kind == AudioSFX {
			sfx = append(sfx, a)
		}
	}
	require.GreaterOrEqual(t, len(sfx), 2)
	assert.InDelta(t, 2.0, sfx[0].Start, 1e-9)
	assert.Equal(t, 0.95, sfx[0].Gain)
	assert.InDelta(t, 2.2, sfx[1].Start, 1e-9)
	assert.Equal(t, 0.7, sfx[1].Gain)

	var adlib *AudioLayer
	for i := range tl.Audio {
		if tl.Audio[i].Kind == AudioAdlib {
			adlib = &tl.Audio[i]
		}
	}
	require.NotNil(t, adlib)
	assert.InDelta(t, 18.5, adlib.Start, 1e-9) // ends exactly at the clip end
	assert.Equal(t, 1.2, adlib.Gain)
}
