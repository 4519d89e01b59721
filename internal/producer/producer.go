package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"roast-pipeline/config"
	"roast-pipeline/internal/assets"
	"roast-pipeline/internal/compose"
	"roast-pipeline/internal/discovery"
	"roast-pipeline/internal/ledger"
	"roast-pipeline/internal/script"
	"roast-pipeline/internal/voice"
	"roast-pipeline/types"
)

// Producer runs one clip through the full pipeline: download, script,
// voice, composition, render. It owns the working directories and the
// run-state log; the ledger is only touched after a successful render.
type Producer struct {
	cfg      *config.Config
	store    *ledger.Store
	library  *assets.Library
	images   *assets.ImageCache
	director *script.Director
	rng      *rand.Rand
}

func New(cfg *config.Config, store *ledger.Store) *Producer {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Producer{
		cfg:      cfg,
		store:    store,
		library:  assets.NewLibrary(cfg.Assets.Dir, rng),
		images:   assets.NewImageCache(cfg.Assets.ImageCacheDir),
		director: script.NewDirector(),
		rng:      rng,
	}
}

// Produce turns one candidate into a rendered short and returns the output
// path. The raw download and voice tracks are removed on every exit path.
func (p *Producer) Produce(ctx context.Context, cand types.ClipCandidate, persona string) (string, error) {
	runID := uuid.New().String()
	state := &types.ProductionState{
		RunID:     runID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Persona:   persona,
		Candidate: &cand,
	}
	defer p.saveState(state)

	log.Printf("[producer] Run %s: %s clip from %s", runID[:8], cand.Platform, cand.CreatorName)

	rawPath := filepath.Join(p.cfg.Paths.Input, fmt.Sprintf("raw_%s.mp4", runID[:8]))
	if err := p.download(ctx, cand.ClipURL, rawPath); err != nil {
		state.Error = err.Error()
		return "", fmt.Errorf("downloading clip: %w", err)
	}
	defer os.Remove(rawPath)

	out, err := p.produceFrom(ctx, rawPath, cand.CreatorName, persona, state)
	if err != nil {
		state.Error = err.Error()
		return "", err
	}
	return out, nil
}

// ProduceLocal runs the pipeline on an already-downloaded file. The input
// is kept; only intermediate artifacts are cleaned up. An empty streamer
// derives the display name from the file name.
func (p *Producer) ProduceLocal(ctx context.Context, inputPath, streamer, persona string) (string, error) {
	runID := uuid.New().String()
	state := &types.ProductionState{
		RunID:     runID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Persona:   persona,
	}
	defer p.saveState(state)

	if streamer == "" {
		streamer = StreamerName(inputPath)
	}
	log.Printf("[producer] Run %s: local file %s", runID[:8], filepath.Base(inputPath))

	out, err := p.produceFrom(ctx, inputPath, streamer, persona, state)
	if err != nil {
		state.Error = err.Error()
		return "", err
	}
	return out, nil
}

func (p *Producer) produceFrom(ctx context.Context, basePath, streamer, persona string, state *types.ProductionState) (string, error) {
	if persona == "" {
		persona = p.cfg.Voice.DefaultPersona
	}

	lines, err := p.director.Roast(ctx, basePath, persona)
	if err != nil {
		return "", fmt.Errorf("generating script: %w", err)
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("director returned an empty script")
	}
	state.Script = lines
	log.Printf("[producer] Script ready: %d line(s)", len(lines))

	synth := voice.NewSynthesizer(p.cfg.Paths.Temp, p.cfg.Voice.Concurrency, p.rng)
	tracks, err := synth.SynthesizeAll(ctx, lines, persona)
	if err != nil {
		return "", fmt.Errorf("synthesizing voice: %w", err)
	}
	defer voice.CleanupTracks(tracks)

	composer := compose.New(p.cfg.Compose, p.library, p.images, p.rng)
	tl, err := composer.Build(ctx, basePath, lines, tracks)
	if err != nil {
		return "", fmt.Errorf("building timeline: %w", err)
	}

	outPath := filepath.Join(p.cfg.Paths.Output, fmt.Sprintf("%s_%s.mp4", streamer, state.RunID[:8]))
	renderer := compose.NewRenderer(p.cfg.Compose, p.library.Font(), p.cfg.Paths.Temp)
	if err := renderer.Render(ctx, tl, outPath); err != nil {
		return "", fmt.Errorf("rendering video: %w", err)
	}

	state.OutputFile = outPath
	state.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	log.Printf("[producer] Done: %s", outPath)
	return outPath, nil
}

// RunDiscovery finds candidates, produces each one, and records the results
// in the queue ledger. One candidate failing never stops the batch. With
// dryRun set, candidates are only listed.
func (p *Producer) RunDiscovery(ctx context.Context, dryRun bool) error {
	twitch, err := discovery.NewTwitchClient(ctx)
	if err != nil {
		return fmt.Errorf("creating twitch client: %w", err)
	}
	var shorts discovery.ShortsSource
	if p.cfg.Discovery.UseYouTube {
		yt, err := discovery.NewYouTubeClient(ctx, p.cfg.Discovery.ShortsMaxSeconds, p.cfg.Discovery.SubscriberMax)
		if err != nil {
			log.Printf("[producer] Warning: YouTube client unavailable: %v", err)
		} else {
			shorts = yt
		}
	}

	selector := discovery.NewSelector(p.cfg.Discovery, twitch, shorts, p.store, p.rng)
	candidates, err := selector.Discover(ctx, p.cfg.Discovery.TargetCount)
	if err != nil {
		return fmt.Errorf("discovering clips: %w", err)
	}
	if len(candidates) == 0 {
		log.Printf("[producer] No eligible clips found")
		return nil
	}

	if dryRun {
		for _, c := range candidates {
			log.Printf("[producer] Candidate: %s | %s | %s", c.CreatorName, c.Platform, c.ClipURL)
		}
		return nil
	}

	produced := 0
	for _, cand := range candidates {
		outPath, err := p.Produce(ctx, cand, p.cfg.Voice.DefaultPersona)
		if err != nil {
			log.Printf("[producer] Warning: %s failed: %v", cand.CreatorName, err)
			continue
		}
		if _, err := p.store.Enqueue(outPath, cand.CreatorName); err != nil {
			log.Printf("[producer] Warning: enqueue failed for %s: %v", outPath, err)
			continue
		}
		if err := p.store.MarkCreatorUsed(cand.Platform, cand.CreatorID, cand.CreatorName); err != nil {
			log.Printf("[producer] Warning: recording creator failed: %v", err)
		}
		if err := p.store.MarkClipUsed(cand.Platform, cand.ClipID, cand.ClipURL, cand.CreatorID); err != nil {
			log.Printf("[producer] Warning: recording clip failed: %v", err)
		}
		produced++
	}

	log.Printf("[producer] Batch complete: %d/%d produced", produced, len(candidates))
	return nil
}

// download fetches a clip URL with yt-dlp, forcing mp4 output
func (p *Producer) download(ctx context.Context, url, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, "yt-dlp",
		"-f", "mp4/bestvideo*+bestaudio/best",
		"--no-playlist",
		"-o", outPath,
		url,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("yt-dlp failed: %v: %s", err, tail(out, 400))
	}
	return nil
}

func (p *Producer) saveState(state *types.ProductionState) {
	if err := os.MkdirAll(p.cfg.Paths.Logs, 0o755); err != nil {
		log.Printf("[producer] Warning: could not create log dir: %v", err)
		return
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return
	}
	path := filepath.Join(p.cfg.Paths.Logs, fmt.Sprintf("run_%s.json", state.RunID[:8]))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("[producer] Warning: could not save run state: %v", err)
	}
}

var videoExtensions = []string{".mp4", ".mov", ".mkv", ".avi", ".webm"}

// ListVideos returns the video files directly under dir, sorted by name.
// Subdirectories and non-video files are skipped.
func ListVideos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, v := range videoExtensions {
			if ext == v {
				files = append(files, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// StreamerName derives a queue display name from a local input file
func StreamerName(inputPath string) string {
	return trimExt(filepath.Base(inputPath))
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[len(b)-n:])
}
