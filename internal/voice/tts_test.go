package voice

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roast-pipeline/types"
)

func testSynthesizer(t *testing.T) *Synthesizer {
	t.Helper()
	s := NewSynthesizer(t.TempDir(), 4, rand.New(rand.NewSource(1)))
	s.runTTS = func(ctx context.Context, text string, v voiceVariant, outFile string) error {
		return os.WriteFile(outFile, []byte(text), 0o644)
	}
	s.probeDuration = func(path string) (float64, error) { return 1.5, nil }
	return s
}

func TestSynthesizeAllJoinsByIndex(t *testing.T) {
	s := testSynthesizer(t)
	script := []types.ScriptLine{
		{Text: "first"},
		{Text: "second"},
		{Text: "third"},
	}

	tracks, err := s.SynthesizeAll(context.Background(), script, "WARLORD")
	require.NoError(t, err)
	require.Len(t, tracks, 3)

	for i, tr := range tracks {
		assert.Equal(t, i, tr.Index)
		assert.Equal(t, 1.5, tr.Duration)
		assert.Contains(t, tr.Path, "line_")
		_, err := os.Stat(tr.Path)
		assert.NoError(t, err)
	}
}

func TestSynthesizeAllFailureCleansUp(t *testing.T) {
	s := testSynthesizer(t)
	var mu sync.Mutex
	written := []string{}
	s.runTTS = func(ctx context.Context, text string, v voiceVariant, outFile string) error {
		if strings.Contains(text, "bad") {
			return errors.New("tts refused")
		}
		mu.Lock()
		written = append(written, outFile)
		mu.Unlock()
		return os.WriteFile(outFile, []byte(text), 0o644)
	}

	script := []types.ScriptLine{{Text: "fine"}, {Text: "bad line"}}
	_, err := s.SynthesizeAll(context.Background(), script, "WARLORD")
	require.Error(t, err)

	for _, path := range written {
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr), "partial track %s should be removed", path)
	}
}

func TestSynthesizeLineStripsAsterisks(t *testing.T) {
	s := testSynthesizer(t)
	var got string
	s.runTTS = func(ctx context.Context, text string, v voiceVariant, outFile string) error {
		got = text
		return os.WriteFile(outFile, nil, 0o644)
	}

	_, err := s.synthesizeLine(context.Background(), "*BRO* IS *DONE*", 0, "WARLORD")
	require.NoError(t, err)
	assert.Equal(t, "BRO IS DONE", got)
}

func TestZestyAdlibPrefixes(t *testing.T) {
	s := testSynthesizer(t)
	var mu sync.Mutex
	prefixed := 0
	s.runTTS = func(ctx context.Context, text string, v voiceVariant, outFile string) error {
		mu.Lock()
		if strings.HasPrefix(text, "Ahhh! ") || strings.HasPrefix(text, "Mmm... ") || strings.HasPrefix(text, "Slay! ") {
			prefixed++
		}
		mu.Unlock()
		return os.WriteFile(outFile, nil, 0o644)
	}

	for i := 0; i < 40; i++ {
		_, err := s.synthesizeLine(context.Background(), "line", i, "ZESTY")
		require.NoError(t, err)
	}
	assert.Greater(t, prefixed, 0, "ad-lib prefixes appear over many lines")
	assert.Less(t, prefixed, 40, "some lines stay clean")
}

func TestUnknownPersonaDefaults(t *testing.T) {
	s := testSynthesizer(t)
	var variant voiceVariant
	s.runTTS = func(ctx context.Context, text string, v voiceVariant, outFile string) error {
		variant = v
		return os.WriteFile(outFile, nil, 0o644)
	}

	_, err := s.synthesizeLine(context.Background(), "line", 0, "NOT_A_PERSONA")
	require.NoError(t, err)

	names := make([]string, 0, len(voicePool["WARLORD"]))
	for _, v := range voicePool["WARLORD"] {
		names = append(names, v.name)
	}
	assert.Contains(t, names, variant.name)
}

func TestCleanupTracksIgnoresBlanks(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/line_0.mp3"
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	CleanupTracks([]types.VoiceTrack{{Path: path}, {Path: ""}, {Path: dir + "/missing.mp3"}})

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
