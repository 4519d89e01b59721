package compose

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"roast-pipeline/config"
)

// Renderer turns a built Timeline into the final video file with ffmpeg.
// Rendering is staged like the rest of the pipeline: silent visual
// composite, audio mix, then mux + 9:16 normalize. A failure in any stage
// is fatal and propagates.
type Renderer struct {
	cfg     config.ComposeConfig
	font    string
	workDir string
}

// NewRenderer creates a Renderer writing intermediates under workDir
func NewRenderer(cfg config.ComposeConfig, font, workDir string) *Renderer {
	return &Renderer{cfg: cfg, font: font, workDir: workDir}
}

// Render composites all layers and writes the normalized output video
func (r *Renderer) Render(ctx context.Context, tl *Timeline, outputPath string) error {
	if err := os.MkdirAll(r.workDir, 0755); err != nil {
		return fmt.Errorf("create render work dir: %w", err)
	}

	visual, err := r.renderVisuals(ctx, tl)
	if err != nil {
		return fmt.Errorf("visual composite: %w", err)
	}
	audio, err := r.renderAudio(ctx, tl)
	if err != nil {
		return fmt.Errorf("audio mix: %w", err)
	}
	if err := r.mux(ctx, tl, visual, audio, outputPath); err != nil {
		return fmt.Errorf("mux: %w", err)
	}
	return nil
}

// renderVisuals builds one filter_complex over all visual layers and renders
// a silent composite at the base clip's geometry
func (r *Renderer) renderVisuals(ctx context.Context, tl *Timeline) (string, error) {
	outFile := filepath.Join(r.workDir, "visuals.mp4")

	args := []string{"-y", "-i", tl.BasePath}
	inputIdx := 1
	inputFor := make(map[int]int) // visual layer index -> ffmpeg input index

	for li, v := range tl.Visual {
		switch v.Kind {
		case VisualBase, VisualPatch, VisualCaption:
			// derived from input 0 or drawn, no extra input
		case VisualOverlay:
			args = append(args, "-stream_loop", "-1", "-t", fmt.Sprintf("%.3f", tl.Total), "-i", v.Source)
			inputFor[li] = inputIdx
			inputIdx++
		case VisualImage:
			args = append(args, "-loop", "1", "-t", fmt.Sprintf("%.3f", v.Duration+0.1), "-i", v.Source)
			inputFor[li] = inputIdx
			inputIdx++
		default:
			args = append(args, "-i", v.Source)
			inputFor[li] = inputIdx
			inputIdx++
		}
	}

	var filters []string
	w, splitH := tl.Width, tl.SplitH

	// Base region, split once per patch clip that reuses it
	patches := tl.LayersOf(VisualPatch)
	splitCount := len(patches) + 1
	if splitCount > 1 {
		names := make([]string, splitCount)
		for i := range names {
			names[i] = fmt.Sprintf("[b%d]", i)
		}
		filters = append(filters, fmt.Sprintf("[0:v]split=%d%s", splitCount, strings.Join(names, "")))
	} else {
		filters = append(filters, "[0:v]null[b0]")
	}

	cur := "[b0]"
	// 70/30 split with the bottom overlay cam
	if splitH < tl.Height {
		overlayH := tl.Height - splitH
		filters = append(filters, fmt.Sprintf("%scrop=%d:%d:0:0[basetop]", cur, w, splitH))
		for li, v := range tl.Visual {
			if v.Kind != VisualOverlay {
				continue
			}
			in := inputFor[li]
			filters = append(filters,
				fmt.Sprintf("[%d:v]scale=%d:-2,crop=%d:%d[cam]", in, w, w, overlayH),
				"[basetop][cam]vstack=inputs=2[canvas0]",
			)
		}
		cur = "[canvas0]"
	}

	step := 0
	next := func() string {
		step++
		return fmt.Sprintf("[v%d]", step)
	}

	// Patch clips: reused snippets of the base, regraded and jittered
	for pi, p := range patches {
		src := fmt.Sprintf("[b%d]", pi+1)
		grade := "scale=iw*1.3:-2"
		if p.Shock {
			grade = "eq=saturation=3.0:contrast=1.2"
		}
		cx := w/2 + p.OffsetX
		cy := splitH/2 + p.OffsetY
		lbl := fmt.Sprintf("[patch%d]", pi)
		filters = append(filters, fmt.Sprintf(
			"%strim=%.3f:%.3f,setpts=PTS-STARTPTS+%.3f/TB,%s,scale=iw*1.4:-2,crop=%d:%d:%d:%d%s",
			src, p.TrimFrom, p.TrimFrom+p.Duration, p.Start, grade,
			w, splitH, cx-w/2, cy-splitH/2, lbl,
		))
		out := next()
		filters = append(filters, fmt.Sprintf(
			"%s%soverlay=0:0:enable='between(t,%.3f,%.3f)'%s",
			cur, lbl, p.Start, p.Start+p.Duration, out,
		))
		cur = out
	}

	// Green screens, image flashes, jumpscare: full-frame overlays in z-order
	for li, v := range tl.Visual {
		switch v.Kind {
		case VisualGreenScreen:
			in := inputFor[li]
			lbl := fmt.Sprintf("[gs%d]", li)
			filters = append(filters, fmt.Sprintf(
				"[%d:v]trim=%.3f:%.3f,setpts=PTS-STARTPTS+%.3f/TB,colorkey=0x00FF00:0.42:0.05,scale=%d:%d%s",
				in, v.TrimFrom, v.TrimFrom+v.Duration, v.Start, tl.Width, tl.Height, lbl,
			))
			out := next()
			filters = append(filters, fmt.Sprintf(
				"%s%soverlay=0:0:enable='between(t,%.3f,%.3f)'%s",
				cur, lbl, v.Start, v.Start+v.Duration, out,
			))
			cur = out
		case VisualImage:
			in := inputFor[li]
			lbl := fmt.Sprintf("[img%d]", li)
			filters = append(filters, fmt.Sprintf(
				"[%d:v]setpts=PTS-STARTPTS+%.3f/TB,scale=%d:%d%s",
				in, v.Start, tl.Width, tl.Height, lbl,
			))
			out := next()
			filters = append(filters, fmt.Sprintf(
				"%s%soverlay=0:0:enable='between(t,%.3f,%.3f)'%s",
				cur, lbl, v.Start, v.Start+v.Duration, out,
			))
			cur = out
		case VisualJumpscare:
			in := inputFor[li]
			lbl := fmt.Sprintf("[js%d]", li)
			filters = append(filters, fmt.Sprintf(
				"[%d:v]trim=0:%.3f,setpts=PTS-STARTPTS+%.3f/TB,scale=%d:%d%s",
				in, v.Duration, v.Start, tl.Width, tl.Height, lbl,
			))
			out := next()
			filters = append(filters, fmt.Sprintf(
				"%s%soverlay=0:0:enable='between(t,%.3f,%.3f)'%s",
				cur, lbl, v.Start, v.Start+v.Duration, out,
			))
			cur = out
		}
	}

	// Captions drawn last so they sit above every overlay except none
	for _, v := range tl.LayersOf(VisualCaption) {
		out := next()
		filters = append(filters, fmt.Sprintf(
			"%sdrawtext=fontfile='%s':text='%s':fontcolor=yellow:fontsize=%d:x=(w-text_w)/2:y=h*0.75:enable='between(t,%.3f,%.3f)'%s",
			cur, r.font, escapeDrawtext(v.Text), r.cfg.CaptionSize, v.Start, v.Start+v.Duration, out,
		))
		cur = out
	}

	filters = append(filters, fmt.Sprintf("%sfps=%d[out]", cur, r.cfg.FPS))

	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", "[out]",
		"-t", fmt.Sprintf("%.3f", tl.Total),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-pix_fmt", "yuv420p",
		"-an",
		outFile,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg visuals: %w", err)
	}
	return outFile, nil
}

// renderAudio mixes the base track, voice lines, stingers and the ad-lib
func (r *Renderer) renderAudio(ctx context.Context, tl *Timeline) (string, error) {
	outFile := filepath.Join(r.workDir, "audio_mix.m4a")

	if len(tl.Audio) == 0 {
		// Silent clip: synthesize empty audio for the mux stage
		cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
			"-f", "lavfi",
			"-i", fmt.Sprintf("anullsrc=r=44100:cl=stereo:d=%.3f", tl.Total),
			"-c:a", "aac",
			outFile,
		)
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return "", fmt.Errorf("ffmpeg silent track: %w", err)
		}
		return outFile, nil
	}

	var args []string
	args = append(args, "-y")
	for _, a := range tl.Audio {
		args = append(args, "-i", a.Source)
	}

	var filters, mixIn []string
	for i, a := range tl.Audio {
		lbl := fmt.Sprintf("[m%d]", i)
		delayMs := int(a.Start * 1000)
		filters = append(filters, fmt.Sprintf(
			"[%d:a]adelay=%d|%d,volume=%.2f%s", i, delayMs, delayMs, a.Gain, lbl,
		))
		mixIn = append(mixIn, lbl)
	}
	filters = append(filters, fmt.Sprintf(
		"%samix=inputs=%d:duration=longest:normalize=0,atrim=0:%.3f[aout]",
		strings.Join(mixIn, ""), len(mixIn), tl.Total,
	))

	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", "[aout]",
		"-c:a", "aac",
		"-b:a", "192k",
		outFile,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg audio mix: %w", err)
	}
	return outFile, nil
}

// mux joins video and audio and normalizes to the 9:16 output frame:
// scale to target height, center-crop wide frames, pad narrow ones
func (r *Renderer) mux(ctx context.Context, tl *Timeline, videoFile, audioFile, outputPath string) error {
	tw, th := r.cfg.OutputWidth, r.cfg.OutputHeight
	vf := fmt.Sprintf(
		"scale=-2:%d,crop='min(iw,%d)':%d,pad=%d:%d:(ow-iw)/2:0,setsar=1",
		th, tw, th, tw, th,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", videoFile,
		"-i", audioFile,
		"-vf", vf,
		"-r", fmt.Sprintf("%d", r.cfg.FPS),
		"-t", fmt.Sprintf("%.3f", tl.Total),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		outputPath,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg combine: %w", err)
	}
	return nil
}

func escapeDrawtext(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	s = strings.ReplaceAll(s, ":", `\:`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return s
}
