package voice

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"roast-pipeline/internal/media"
	"roast-pipeline/types"
)

type voiceVariant struct {
	name  string
	rate  string
	pitch string
}

// Persona voice pools: (voice, rate, pitch) variants picked at random per line
var voicePool = map[string][]voiceVariant{
	"WARLORD": {
		{"en-NG-AbeoNeural", "-5%", "-10Hz"},
		{"en-NG-EzinneNeural", "-5%", "-10Hz"},
		{"en-GB-RyanNeural", "-5%", "-5Hz"},
	},
	"ZESTY": {
		{"en-US-GuyNeural", "+30%", "+70Hz"},
		{"en-US-JennyNeural", "+25%", "+60Hz"},
		{"en-US-AriaNeural", "+20%", "+50Hz"},
	},
}

// Synthesizer turns script lines into per-line voice tracks via edge-tts
type Synthesizer struct {
	tempDir     string
	concurrency int

	mu  sync.Mutex
	rng *rand.Rand

	probeDuration func(path string) (float64, error)
	runTTS        func(ctx context.Context, text string, v voiceVariant, outFile string) error
}

// NewSynthesizer writes temp audio under tempDir and issues at most
// concurrency TTS calls at once
func NewSynthesizer(tempDir string, concurrency int, rng *rand.Rand) *Synthesizer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Synthesizer{
		tempDir:       tempDir,
		concurrency:   concurrency,
		rng:           rng,
		probeDuration: media.Duration,
		runTTS:        runEdgeTTS,
	}
}

// SynthesizeAll fans out one TTS call per line and joins results by index.
// Any line failure fails the whole batch: composition requires full voice
// coverage, unlike the tolerant visual path.
func (s *Synthesizer) SynthesizeAll(ctx context.Context, script []types.ScriptLine, persona string) ([]types.VoiceTrack, error) {
	if err := os.MkdirAll(s.tempDir, 0755); err != nil {
		return nil, fmt.Errorf("create tts temp dir: %w", err)
	}

	tracks := make([]types.VoiceTrack, len(script))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, line := range script {
		i, line := i, line
		g.Go(func() error {
			track, err := s.synthesizeLine(ctx, line.Text, i, persona)
			if err != nil {
				return fmt.Errorf("line %d: %w", i, err)
			}
			tracks[i] = track
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		CleanupTracks(tracks)
		return nil, err
	}
	return tracks, nil
}

func (s *Synthesizer) synthesizeLine(ctx context.Context, text string, index int, persona string) (types.VoiceTrack, error) {
	text = strings.ReplaceAll(text, "*", "")

	pool, ok := voicePool[persona]
	if !ok {
		pool = voicePool["WARLORD"]
	}

	s.mu.Lock()
	variant := pool[s.rng.Intn(len(pool))]
	if persona == "ZESTY" {
		// Inject ad-libs for extra chaos
		switch r := s.rng.Float64(); {
		case r < 0.25:
			text = "Ahhh! " + text
		case r < 0.5:
			text = "Mmm... " + text
		case r < 0.75:
			text = "Slay! " + text
		}
	}
	s.mu.Unlock()

	outFile := filepath.Join(s.tempDir, fmt.Sprintf("line_%d.mp3", index))
	if err := s.runTTS(ctx, text, variant, outFile); err != nil {
		return types.VoiceTrack{}, err
	}

	dur, err := s.probeDuration(outFile)
	if err != nil {
		return types.VoiceTrack{}, fmt.Errorf("probe voice duration: %w", err)
	}

	return types.VoiceTrack{Index: index, Path: outFile, Duration: dur}, nil
}

func runEdgeTTS(ctx context.Context, text string, v voiceVariant, outFile string) error {
	cmd := exec.CommandContext(ctx, "edge-tts",
		"--voice", v.name,
		"--rate", v.rate,
		"--pitch", v.pitch,
		"--text", text,
		"--write-media", outFile,
	)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("edge-tts: %w", err)
	}
	return nil
}

// CleanupTracks removes temp voice files; called on every exit path of a
// production run so partial failures never leak disk
func CleanupTracks(tracks []types.VoiceTrack) {
	for _, t := range tracks {
		if t.Path == "" {
			continue
		}
		if err := os.Remove(t.Path); err != nil && !os.IsNotExist(err) {
			log.Printf("[voice] Warning: could not remove %s: %v", t.Path, err)
		}
	}
}
