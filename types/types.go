package types

// Platform identifies the upstream source of a discovered clip
type Platform string

const (
	PlatformTwitch  Platform = "twitch"
	PlatformYouTube Platform = "youtube"
)

// Mood values the director AI emits for a script line
const (
	MoodCalm   = "calm"
	MoodScream = "scream"
)

// ScriptLine is one narration beat from the director AI.
// Timestamp is the target placement in seconds; advisory, not guaranteed.
type ScriptLine struct {
	Timestamp    float64 `json:"timestamp"`
	Text         string  `json:"text"`
	Mood         string  `json:"mood"`
	VisualEffect string  `json:"visual_effect"`
	VisualSearch string  `json:"visual_search"`
}

// VoiceTrack is the synthesized audio for one ScriptLine, joined by index.
// Ephemeral: deleted after the render.
type VoiceTrack struct {
	Index    int     `json:"index"`
	Path     string  `json:"path"`
	Duration float64 `json:"duration_sec"`
}

// ClipCandidate is one discovered source clip, produced by the discovery
// selector and consumed by the producer. Never persisted directly; only its
// used-state goes into the ledger.
type ClipCandidate struct {
	Platform    Platform `json:"platform"`
	ClipID      string   `json:"clip_id"`
	ClipURL     string   `json:"clip_url"`
	CreatorID   string   `json:"creator_id"`
	CreatorName string   `json:"creator_name"`
	Title       string   `json:"title,omitempty"`
	GameName    string   `json:"game_name,omitempty"`
	ViewerCount int      `json:"viewer_count,omitempty"`
}

// ProductionState tracks one clip's trip through the pipeline for the run log
type ProductionState struct {
	RunID       string         `json:"run_id"`
	StartedAt   string         `json:"started_at"`
	CompletedAt string         `json:"completed_at"`
	Persona     string         `json:"persona"`
	Candidate   *ClipCandidate `json:"candidate,omitempty"`
	Script      []ScriptLine   `json:"script,omitempty"`
	OutputFile  string         `json:"output_file,omitempty"`
	Error       string         `json:"error,omitempty"`
}
