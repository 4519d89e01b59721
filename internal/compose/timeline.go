package compose

import "strings"

// VisualKind tags a visual layer for the renderer
type VisualKind string

const (
	VisualBase        VisualKind = "base"
	VisualOverlay     VisualKind = "overlay"
	VisualPatch       VisualKind = "patch"
	VisualGreenScreen VisualKind = "greenscreen"
	VisualImage       VisualKind = "image"
	VisualJumpscare   VisualKind = "jumpscare"
	VisualCaption     VisualKind = "caption"
)

// AudioKind tags an audio layer
type AudioKind string

const (
	AudioBase      AudioKind = "base"
	AudioVoice     AudioKind = "voice"
	AudioSFX       AudioKind = "sfx"
	AudioJumpscare AudioKind = "jumpscare"
	AudioAdlib     AudioKind = "adlib"
)

// VisualLayer is one placed visual element. Z-order is insertion order.
type VisualLayer struct {
	Kind     VisualKind
	Source   string // file path; empty for patch (derived from base) and caption
	Start    float64
	Duration float64
	Text     string // caption text
	Shock    bool   // patch: color boost + contrast instead of mild zoom
	OffsetX  int    // patch jitter
	OffsetY  int
	TrimFrom float64 // patch/greenscreen: source in-point
}

// AudioLayer is one placed audio element
type AudioLayer struct {
	Kind   AudioKind
	Source string
	Start  float64
	Gain   float64
}

// Timeline is the working state of one composition: every placed visual and
// audio layer plus the base clip geometry the renderer needs.
type Timeline struct {
	BasePath string
	Width    int
	Height   int
	SplitH   int // base region height when the overlay cam is active, else Height
	Total    float64

	JumpscareAt float64 // <0 when no jumpscare scheduled

	Visual []VisualLayer
	Audio  []AudioLayer
}

// VoiceLayers returns the voice audio layers in placement order
func (t *Timeline) VoiceLayers() []AudioLayer {
	var out []AudioLayer
	for _, a := range t.Audio {
		if a.Kind == AudioVoice {
			out = append(out, a)
		}
	}
	return out
}

// LayersOf returns visual layers of one kind in z-order
func (t *Timeline) LayersOf(kind VisualKind) []VisualLayer {
	var out []VisualLayer
	for _, v := range t.Visual {
		if v.Kind == kind {
			out = append(out, v)
		}
	}
	return out
}

// splitChunks breaks caption text into runs of at most maxWords words
func splitChunks(text string, maxWords int) []string {
	words := strings.Fields(text)
	var chunks []string
	for len(words) > maxWords {
		chunks = append(chunks, strings.Join(words[:maxWords], " "))
		words = words[maxWords:]
	}
	if len(words) > 0 {
		chunks = append(chunks, strings.Join(words, " "))
	}
	return chunks
}

// shockTreatment reports whether a line's patch clip gets the shock grade.
// Mutually exclusive with a visual effect to avoid clipping artifacts.
func shockTreatment(mood, text, visualEffect string) bool {
	if visualEffect != "" {
		return false
	}
	return mood == "scream" || strings.Contains(text, "!")
}

// nearJumpscare reports whether t falls within pre/post seconds of the
// jumpscare start; always false when no jumpscare is scheduled
func (t *Timeline) nearJumpscare(at, pre, post float64) bool {
	if t.JumpscareAt < 0 {
		return false
	}
	return at > t.JumpscareAt-pre && at < t.JumpscareAt+post
}
