package compose

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"roast-pipeline/config"
	"roast-pipeline/internal/assets"
	"roast-pipeline/internal/media"
	"roast-pipeline/types"
)

// AssetSource supplies the composer with local assets
type AssetSource interface {
	ResolveFuzzy(tag, category string) string
	RandomSFX() string
	Adlib() string
	Jumpscare() string
	RandomOverlay() string
	ImageDeck() []string
	Font() string
}

// ImageFetcher resolves a free-text query to a local image, "" on failure
type ImageFetcher interface {
	Fetch(ctx context.Context, query string) string
}

// Composer builds a Timeline from a base clip, a roast script and the
// synthesized voice tracks. Placement is deterministic given the rand source.
type Composer struct {
	cfg    config.ComposeConfig
	assets AssetSource
	images ImageFetcher
	rng    *rand.Rand

	// probe hooks so placement logic is testable without ffprobe
	probeDuration func(path string) (float64, error)
	probeDims     func(path string) (int, int, error)
	probeHasAudio func(path string) bool
}

// New creates a Composer backed by ffprobe
func New(cfg config.ComposeConfig, lib AssetSource, images ImageFetcher, rng *rand.Rand) *Composer {
	return &Composer{
		cfg:           cfg,
		assets:        lib,
		images:        images,
		rng:           rng,
		probeDuration: media.Duration,
		probeDims:     media.Dimensions,
		probeHasAudio: media.HasAudio,
	}
}

// Build assembles the timeline for one clip. Preconditions: one voice track
// per script line. Secondary asset failures degrade to omitted elements;
// only base clip probing is fatal.
// The minimum voice gap applies before the first line too: a line with
// timestamp 0 starts at MinVoiceGap, never at 0.
func (c *Composer) Build(ctx context.Context, basePath string, script []types.ScriptLine, voices []types.VoiceTrack) (*Timeline, error) {
	if len(voices) != len(script) {
		return nil, fmt.Errorf("voice track count %d does not match script length %d", len(voices), len(script))
	}

	w, h, err := c.probeDims(basePath)
	if err != nil {
		return nil, fmt.Errorf("probe base video: %w", err)
	}
	total, err := c.probeDuration(basePath)
	if err != nil {
		return nil, fmt.Errorf("probe base duration: %w", err)
	}

	tl := &Timeline{
		BasePath:    basePath,
		Width:       w,
		Height:      h,
		SplitH:      h,
		Total:       total,
		JumpscareAt: -1,
	}
	tl.Visual = append(tl.Visual, VisualLayer{Kind: VisualBase, Source: basePath, Duration: total})
	if c.probeHasAudio(basePath) {
		tl.Audio = append(tl.Audio, AudioLayer{Kind: AudioBase, Source: basePath, Gain: c.cfg.BaseAudioGain})
	}

	c.placeOverlay(tl)
	jumpscare := c.placeJumpscare(tl)

	deck := c.assets.ImageDeck()
	lastVoiceEnd := 0.0

	for i, line := range script {
		text := strings.ToUpper(line.Text)
		start := line.Timestamp
		if min := lastVoiceEnd + c.cfg.MinVoiceGap; start < min {
			start = min
		}
		voiceDur := voices[i].Duration

		// Duration-overflow policy: drop the whole line, nothing partial
		if start+voiceDur > total {
			log.Printf("[compose] line %d (%q) would run past %.1fs; dropped", i, truncate(text, 30), total)
			continue
		}
		lastVoiceEnd = start + voiceDur

		tl.Audio = append(tl.Audio, AudioLayer{Kind: AudioVoice, Source: voices[i].Path, Start: start, Gain: c.cfg.VoiceGain})

		c.placePatch(tl, start, voiceDur, line.Mood, text, line.VisualEffect)

		if line.VisualEffect != "" {
			c.placeGreenScreen(tl, line.VisualEffect, start)
		} else {
			c.placeImageFlash(ctx, tl, line.VisualSearch, start, voiceDur, &deck)
		}

		c.placeCaptions(tl, text, start, voiceDur)
		c.placeStingers(tl, start)
	}

	c.placeAdlib(tl)

	// Jumpscare composites above everything else
	if jumpscare != nil {
		tl.Visual = append(tl.Visual, *jumpscare)
	}

	return tl, nil
}

// placeOverlay splits the frame 70/30 with a looping bottom cam when an
// overlay asset exists and the clip is long enough
func (c *Composer) placeOverlay(tl *Timeline) {
	ov := c.assets.RandomOverlay()
	if ov == "" || tl.Total <= c.cfg.OverlayMinSec {
		return
	}
	tl.SplitH = int(float64(tl.Height) * c.cfg.OverlaySplit)
	tl.Visual = append(tl.Visual, VisualLayer{Kind: VisualOverlay, Source: ov, Duration: tl.Total})
}

func (c *Composer) placeJumpscare(tl *Timeline) *VisualLayer {
	js := c.assets.Jumpscare()
	if js == "" {
		return nil
	}
	at := tl.Total*0.2 + c.rng.Float64()*tl.Total*0.6
	dur := c.cfg.JumpscareMax
	if probed, err := c.probeDuration(js); err == nil && probed < dur {
		dur = probed
	}
	tl.JumpscareAt = at
	if c.probeHasAudio(js) {
		tl.Audio = append(tl.Audio, AudioLayer{Kind: AudioJumpscare, Source: js, Start: at, Gain: 2.0})
	}
	return &VisualLayer{Kind: VisualJumpscare, Source: js, Start: at, Duration: dur}
}

func (c *Composer) placePatch(tl *Timeline, start, voiceDur float64, mood, text, visualEffect string) {
	dur := voiceDur
	if dur > 1.0 {
		dur = 1.0
	}
	shock := shockTreatment(mood, text, visualEffect)
	var offX, offY int
	if shock {
		offX, offY = c.rng.Intn(81)-40, c.rng.Intn(41)-20
	} else {
		offX, offY = c.rng.Intn(31)-15, c.rng.Intn(21)-10
	}
	tl.Visual = append(tl.Visual, VisualLayer{
		Kind:     VisualPatch,
		Start:    start,
		Duration: dur,
		TrimFrom: start,
		Shock:    shock,
		OffsetX:  offX,
		OffsetY:  offY,
	})
}

func (c *Composer) placeGreenScreen(tl *Timeline, effect string, start float64) {
	if c.rng.Float64() >= c.cfg.EffectChance {
		return
	}
	gs := c.assets.ResolveFuzzy(effect, assets.CategoryGreenScreen)
	if gs == "" {
		return
	}
	// Never collide with the jumpscare window
	if tl.nearJumpscare(start, 1.0, 1.0) {
		return
	}
	trim := 0.0
	dur := 1.5
	if probed, err := c.probeDuration(gs); err == nil {
		if probed > 0.2 {
			trim = 0.1 // skip leading white-flash frames
		}
		if remaining := probed - trim; remaining < dur {
			dur = remaining
		}
	}
	tl.Visual = append(tl.Visual, VisualLayer{
		Kind:     VisualGreenScreen,
		Source:   gs,
		Start:    start,
		Duration: dur,
		TrimFrom: trim,
	})
}

func (c *Composer) placeImageFlash(ctx context.Context, tl *Timeline, query string, start, voiceDur float64, deck *[]string) {
	imageStart := start + voiceDur - 0.2
	if imageStart >= tl.Total-0.5 {
		return
	}
	if tl.nearJumpscare(imageStart, 0.5, 1.5) {
		return
	}

	var img string
	if query != "" {
		img = c.images.Fetch(ctx, query)
	} else if len(*deck) > 0 {
		img = (*deck)[0]
		*deck = (*deck)[1:]
	}
	if img == "" {
		return
	}
	tl.Visual = append(tl.Visual, VisualLayer{
		Kind:     VisualImage,
		Source:   img,
		Start:    imageStart,
		Duration: c.cfg.ImageFlashSec,
	})
}

func (c *Composer) placeCaptions(tl *Timeline, text string, start, voiceDur float64) {
	chunks := splitChunks(text, c.cfg.CaptionWords)
	if len(chunks) == 0 {
		return
	}
	per := voiceDur / float64(len(chunks))
	for k, chunk := range chunks {
		tl.Visual = append(tl.Visual, VisualLayer{
			Kind:     VisualCaption,
			Text:     chunk,
			Start:    start + float64(k)*per,
			Duration: per,
		})
	}
}

// placeStingers layers 2-3 short randomized sound effects at the line start
func (c *Composer) placeStingers(tl *Timeline, start float64) {
	first := c.assets.RandomSFX()
	if first == "" {
		return
	}
	tl.Audio = append(tl.Audio, AudioLayer{Kind: AudioSFX, Source: first, Start: start, Gain: 0.95})
	if second := c.assets.RandomSFX(); second != "" {
		tl.Audio = append(tl.Audio, AudioLayer{Kind: AudioSFX, Source: second, Start: start + 0.2, Gain: 0.7})
	}
	if c.rng.Float64() < 0.5 {
		if third := c.assets.RandomSFX(); third != "" {
			tl.Audio = append(tl.Audio, AudioLayer{Kind: AudioSFX, Source: third, Start: start + 0.45, Gain: 0.6})
		}
	}
}

// placeAdlib schedules the outro line so it ends exactly at the clip end
func (c *Composer) placeAdlib(tl *Timeline) {
	path := c.assets.Adlib()
	if path == "" {
		return
	}
	dur, err := c.probeDuration(path)
	if err != nil {
		log.Printf("[compose] Warning: could not probe adlib %s: %v", path, err)
		return
	}
	start := tl.Total - dur
	if start < 0 {
		start = 0
	}
	tl.Audio = append(tl.Audio, AudioLayer{Kind: AudioAdlib, Source: path, Start: start, Gain: 1.2})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
