package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Discovery DiscoveryConfig `yaml:"discovery"`
	Compose   ComposeConfig   `yaml:"compose"`
	Assets    AssetsConfig    `yaml:"assets"`
	Voice     VoiceConfig     `yaml:"voice"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Upload    UploadConfig    `yaml:"upload"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Paths     PathsConfig     `yaml:"paths"`
}

type DiscoveryConfig struct {
	TargetCount      int      `yaml:"target_count"`
	LookbackHours    int      `yaml:"lookback_hours"`
	UniqueDays       int      `yaml:"unique_days"`
	UseTwitch        bool     `yaml:"use_twitch"`
	UseYouTube       bool     `yaml:"use_youtube"`
	Language         string   `yaml:"language"`
	ViewerMin        int      `yaml:"viewer_min"`
	FollowerMax      int      `yaml:"follower_max"`
	SubscriberMax    uint64   `yaml:"subscriber_max"`
	StreamsPerPage   int      `yaml:"streams_per_page"`
	StreamPages      int      `yaml:"stream_pages"`
	ShortsMaxSeconds int      `yaml:"shorts_max_seconds"`
	ValidCategories  []string `yaml:"valid_categories"`
	BannedCategories []string `yaml:"banned_categories"`
}

type ComposeConfig struct {
	FPS            int     `yaml:"fps"`
	OutputWidth    int     `yaml:"output_width"`
	OutputHeight   int     `yaml:"output_height"`
	VoiceGain      float64 `yaml:"voice_gain"`
	BaseAudioGain  float64 `yaml:"base_audio_gain"`
	MinVoiceGap    float64 `yaml:"min_voice_gap"`
	CaptionWords   int     `yaml:"caption_words"`
	CaptionSize    int     `yaml:"caption_fontsize"`
	OverlaySplit   float64 `yaml:"overlay_split"`
	OverlayMinSec  float64 `yaml:"overlay_min_sec"`
	EffectChance   float64 `yaml:"effect_chance"`
	JumpscareMax   float64 `yaml:"jumpscare_max_sec"`
	ImageFlashSec  float64 `yaml:"image_flash_sec"`
}

type AssetsConfig struct {
	Dir           string `yaml:"dir"`
	ImageCacheDir string `yaml:"image_cache_dir"`
}

type VoiceConfig struct {
	DefaultPersona string `yaml:"default_persona"`
	Concurrency    int    `yaml:"concurrency"`
}

type LedgerConfig struct {
	DBPath string `yaml:"db_path"`
}

type UploadConfig struct {
	CategoryID     string `yaml:"category_id"`
	PrivacyStatus  string `yaml:"privacy_status"`
	MadeForKids    bool   `yaml:"made_for_kids"`
	DeleteAfterUp  bool   `yaml:"delete_after_upload"`
}

type ScheduleConfig struct {
	UploadCrons   []string `yaml:"upload_crons"`
	DiscoveryCron string   `yaml:"discovery_cron"`
}

type PathsConfig struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
	Temp   string `yaml:"temp"`
	Logs   string `yaml:"logs"`
}

// Load reads config.yaml and returns a Config struct
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when config.yaml omits a value
func Default() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			TargetCount:      3,
			LookbackHours:    24,
			UniqueDays:       7,
			UseTwitch:        true,
			UseYouTube:       true,
			Language:         "en",
			ViewerMin:        10,
			FollowerMax:      50000,
			SubscriberMax:    100000,
			StreamsPerPage:   100,
			StreamPages:      3,
			ShortsMaxSeconds: 75,
		},
		Compose: ComposeConfig{
			FPS:           24,
			OutputWidth:   1080,
			OutputHeight:  1920,
			VoiceGain:     1.6,
			BaseAudioGain: 0.6,
			MinVoiceGap:   0.1,
			CaptionWords:  3,
			CaptionSize:   60,
			OverlaySplit:  0.7,
			OverlayMinSec: 5.0,
			EffectChance:  0.9,
			JumpscareMax:  1.5,
			ImageFlashSec: 0.6,
		},
		Assets: AssetsConfig{
			Dir:           "assets",
			ImageCacheDir: "assets/downloads",
		},
		Voice: VoiceConfig{
			DefaultPersona: "WARLORD",
			Concurrency:    4,
		},
		Ledger: LedgerConfig{DBPath: "roast.db"},
		Upload: UploadConfig{
			CategoryID:    "20",
			PrivacyStatus: "public",
			DeleteAfterUp: true,
		},
		Schedule: ScheduleConfig{
			UploadCrons:   []string{"0 10 * * *", "0 14 * * *", "0 18 * * *"},
			DiscoveryCron: "0 1 * * *",
		},
		Paths: PathsConfig{
			Input:  "input",
			Output: "output",
			Temp:   "temp",
			Logs:   "logs",
		},
	}
}
