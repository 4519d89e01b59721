package assets

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

// Asset category subdirectories under the library root
const (
	CategoryGreenScreen = "green_screen"
	CategorySFX         = "sfx"
	CategoryOverlay     = "overlay"
	CategoryImages      = "images"
)

var categoryExtensions = map[string][]string{
	CategoryGreenScreen: {".mp4", ".mov"},
	CategorySFX:         {".mp3", ".wav"},
	CategoryOverlay:     {".mp4", ".mov"},
	CategoryImages:      {".jpg", ".jpeg", ".png"},
}

// Library resolves symbolic cues ("clown", "adlib") to local asset files.
// Jumpscare-tagged files are excluded from every general pool so the
// jumpscare only ever fires through its dedicated slot.
type Library struct {
	root string
	rng  *rand.Rand
}

// NewLibrary opens an asset library rooted at dir
func NewLibrary(dir string, rng *rand.Rand) *Library {
	return &Library{root: dir, rng: rng}
}

// ResolveFuzzy picks a file from a category whose name contains tag
// (case-insensitive). With no tag match it falls back to a random file from
// the whole category. Returns "" when the category has no usable files.
func (l *Library) ResolveFuzzy(tag, category string) string {
	dir := filepath.Join(l.root, category)
	files := listFiles(dir, categoryExtensions[category], true)
	if len(files) == 0 {
		return ""
	}
	if tag != "" {
		var matches []string
		for _, f := range files {
			if strings.Contains(strings.ToLower(f), strings.ToLower(tag)) {
				matches = append(matches, f)
			}
		}
		if len(matches) > 0 {
			return filepath.Join(dir, matches[l.rng.Intn(len(matches))])
		}
	}
	return filepath.Join(dir, files[l.rng.Intn(len(files))])
}

// RandomSFX returns a random stinger, excluding ad-lib files
func (l *Library) RandomSFX() string {
	dir := filepath.Join(l.root, CategorySFX)
	var pool []string
	for _, f := range listFiles(dir, categoryExtensions[CategorySFX], true) {
		if strings.Contains(strings.ToLower(f), "adlib") {
			continue
		}
		pool = append(pool, f)
	}
	if len(pool) == 0 {
		return ""
	}
	return filepath.Join(dir, pool[l.rng.Intn(len(pool))])
}

// Adlib returns the end-of-video ad-lib audio, if present
func (l *Library) Adlib() string {
	files := listFiles(l.root, []string{".mp3", ".wav"}, false)
	var matches []string
	for _, f := range files {
		if strings.Contains(strings.ToLower(f), "adlib") {
			matches = append(matches, f)
		}
	}
	if len(matches) == 0 {
		return ""
	}
	return filepath.Join(l.root, matches[l.rng.Intn(len(matches))])
}

// Jumpscare returns the dedicated jumpscare clip, if present
func (l *Library) Jumpscare() string {
	path := filepath.Join(l.root, "jumpscare.mov")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// RandomOverlay returns a random bottom-cam overlay clip, if any
func (l *Library) RandomOverlay() string {
	return l.ResolveFuzzy("", CategoryOverlay)
}

// ImageDeck returns a shuffled list of local image paths
func (l *Library) ImageDeck() []string {
	dir := filepath.Join(l.root, CategoryImages)
	files := listFiles(dir, categoryExtensions[CategoryImages], true)
	deck := make([]string, len(files))
	for i, f := range files {
		deck[i] = filepath.Join(dir, f)
	}
	l.rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// Font returns the caption font path, falling back to a system font
func (l *Library) Font() string {
	path := filepath.Join(l.root, "font", "Impact.ttf")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"
}

func listFiles(dir string, exts []string, excludeJumpscare bool) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if excludeJumpscare && strings.Contains(name, "jumpscare") {
			continue
		}
		for _, ext := range exts {
			if strings.HasSuffix(name, ext) {
				files = append(files, e.Name())
				break
			}
		}
	}
	return files
}
