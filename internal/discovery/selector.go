package discovery

import (
	"context"
	"log"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"roast-pipeline/config"
	"roast-pipeline/types"
)

// Default category filters, used when config.yaml does not override them
var defaultValidCategories = []string{
	"League of Legends", "Dota 2", "Counter-Strike", "Valorant", "Fortnite",
	"Minecraft", "Grand Theft Auto V", "Call of Duty", "Apex Legends",
	"PUBG: BATTLEGROUNDS", "Overwatch 2", "Rocket League", "Rainbow Six Siege",
	"Dead by Daylight", "World of Warcraft", "FIFA", "NBA 2K", "Madden NFL",
	"EA Sports FC", "Roblox", "Among Us", "Fall Guys", "Rust", "ARK",
	"Baldur's Gate 3", "Elden Ring", "Dark Souls", "Warzone", "Escape from Tarkov",
	"Just Chatting", "Talk Shows & Podcasts", "ASMR", "Travel & Outdoors",
	"Fitness & Health", "Food & Drink", "Music", "Sports", "Chess",
	"Poker", "Slots", "Retro", "Speedrunning",
}

var defaultBannedCategories = []string{
	"Pools, Hot Tubs, and Beaches", "Art", "Makers & Crafting", "Beauty & Body Art",
	"Software and Game Development", "Science & Technology", "Animals, Aquariums, and Zoos",
	"Special Events", "Always On", "I'm Only Sleeping", "Sleep", "Meditation",
}

var broadcasterName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// StreamSource is the primary platform (Twitch Helix in production)
type StreamSource interface {
	Streams(ctx context.Context, first int, language, after string) ([]Stream, string, error)
	FollowerTotal(ctx context.Context, broadcasterID string) (int, error)
	Clips(ctx context.Context, broadcasterID, creatorName string, startedAt time.Time) ([]types.ClipCandidate, error)
}

// ShortsSource is the secondary platform fallback (YouTube shorts search)
type ShortsSource interface {
	ShortsByCreator(ctx context.Context, creatorName string, publishedAfter time.Time) ([]types.ClipCandidate, error)
}

// History is the ledger view discovery needs for dedup
type History interface {
	IsCreatorRecent(platform types.Platform, creatorID string, windowDays int) (bool, error)
	IsClipUsed(platform types.Platform, clipID string) (bool, error)
}

// Selector finds eligible source clips from small, not-recently-used
// creators. One upstream failure never aborts a run; the failed unit is
// skipped and discovery continues with partial results.
type Selector struct {
	cfg     config.DiscoveryConfig
	streams StreamSource
	shorts  ShortsSource
	history History
	rng     *rand.Rand
}

// NewSelector wires a Selector; shorts may be nil when the secondary
// platform is disabled
func NewSelector(cfg config.DiscoveryConfig, streams StreamSource, shorts ShortsSource, history History, rng *rand.Rand) *Selector {
	return &Selector{cfg: cfg, streams: streams, shorts: shorts, history: history, rng: rng}
}

type creator struct {
	id          string
	name        string
	gameName    string
	viewerCount int
}

// Discover returns at most targetCount candidates, at most one per creator
func (s *Selector) Discover(ctx context.Context, targetCount int) ([]types.ClipCandidate, error) {
	if targetCount <= 0 {
		targetCount = s.cfg.TargetCount
	}

	var creators []creator
	if s.cfg.UseTwitch && s.streams != nil {
		creators = s.qualifyCreators(ctx)
	}
	s.rng.Shuffle(len(creators), func(i, j int) { creators[i], creators[j] = creators[j], creators[i] })

	clipsByCreator := s.fetchClipLists(ctx, creators)

	var selected []types.ClipCandidate
	seen := map[string]bool{}

	for _, cr := range creators {
		if len(selected) >= targetCount {
			break
		}
		if seen[cr.id] {
			continue
		}

		clips := clipsByCreator[cr.id]
		s.rng.Shuffle(len(clips), func(i, j int) { clips[i], clips[j] = clips[j], clips[i] })
		for _, c := range clips {
			if len(selected) >= targetCount {
				break
			}
			if seen[c.CreatorID] {
				continue
			}
			c.GameName = cr.gameName
			c.ViewerCount = cr.viewerCount
			selected = append(selected, c)
			seen[c.CreatorID] = true
		}

		// Secondary platform: correlate by creator name when under-supplied
		if s.cfg.UseYouTube && s.shorts != nil && len(selected) < targetCount {
			after := time.Now().Add(-time.Duration(s.cfg.LookbackHours) * time.Hour)
			ytClips, err := s.shorts.ShortsByCreator(ctx, cr.name, after)
			if err != nil {
				log.Printf("[discovery] Warning: YouTube fallback for %s failed: %v", cr.name, err)
				continue
			}
			ytClips = s.filterUsed(ytClips)
			s.rng.Shuffle(len(ytClips), func(i, j int) { ytClips[i], ytClips[j] = ytClips[j], ytClips[i] })
			for _, c := range ytClips {
				if len(selected) >= targetCount {
					break
				}
				if seen[c.CreatorID] {
					continue
				}
				selected = append(selected, c)
				seen[c.CreatorID] = true
			}
		}
	}

	log.Printf("[discovery] Selected %d candidate(s)", len(selected))
	return selected, nil
}

// qualifyCreators pages through live streams and keeps small, eligible,
// not-recently-used creators
func (s *Selector) qualifyCreators(ctx context.Context) []creator {
	var creators []creator
	seen := map[string]bool{}
	after := ""

	log.Printf("[discovery] Searching for %s gaming/chat streamers...", s.cfg.Language)

	for page := 0; page < s.cfg.StreamPages; page++ {
		streams, cursor, err := s.streams.Streams(ctx, s.cfg.StreamsPerPage, s.cfg.Language, after)
		if err != nil {
			log.Printf("[discovery] Warning: streams page %d failed: %v", page+1, err)
			break
		}
		if len(streams) == 0 {
			break
		}

		for _, st := range streams {
			if st.UserID == "" || seen[st.UserID] {
				continue
			}
			if !broadcasterName.MatchString(st.UserName) {
				continue
			}
			if !s.validCategory(st.GameName) {
				continue
			}
			if st.ViewerCount < s.cfg.ViewerMin {
				continue
			}

			followers, err := s.streams.FollowerTotal(ctx, st.UserID)
			if err != nil {
				log.Printf("[discovery] Warning: follower lookup for %s failed: %v", st.UserName, err)
				continue
			}
			if followers > s.cfg.FollowerMax {
				continue
			}

			recent, err := s.history.IsCreatorRecent(types.PlatformTwitch, st.UserID, s.cfg.UniqueDays)
			if err != nil {
				log.Printf("[discovery] Warning: history lookup for %s failed: %v", st.UserName, err)
				continue
			}
			if recent {
				continue
			}

			log.Printf("[discovery] Found: %s | %s | %d viewers | %d followers",
				st.UserName, st.GameName, st.ViewerCount, followers)
			creators = append(creators, creator{
				id:          st.UserID,
				name:        st.UserName,
				gameName:    st.GameName,
				viewerCount: st.ViewerCount,
			})
			seen[st.UserID] = true
		}

		if cursor == "" {
			break
		}
		after = cursor
	}

	log.Printf("[discovery] %d valid streamer(s) found", len(creators))
	return creators
}

// fetchClipLists pulls per-creator clip lists concurrently; failures drop
// the creator's list, never the run
func (s *Selector) fetchClipLists(ctx context.Context, creators []creator) map[string][]types.ClipCandidate {
	lists := make(map[string][]types.ClipCandidate, len(creators))
	if s.streams == nil {
		return lists
	}
	startedAt := time.Now().Add(-time.Duration(s.cfg.LookbackHours) * time.Hour)

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, cr := range creators {
		cr := cr
		g.Go(func() error {
			clips, err := s.streams.Clips(ctx, cr.id, cr.name, startedAt)
			if err != nil {
				log.Printf("[discovery] Warning: clips fetch for %s failed: %v", cr.name, err)
				return nil
			}
			clips = s.filterUsed(clips)
			mu.Lock()
			lists[cr.id] = clips
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return lists
}

func (s *Selector) filterUsed(clips []types.ClipCandidate) []types.ClipCandidate {
	var out []types.ClipCandidate
	for _, c := range clips {
		used, err := s.history.IsClipUsed(c.Platform, c.ClipID)
		if err != nil {
			log.Printf("[discovery] Warning: clip history lookup failed: %v", err)
			continue
		}
		if used {
			continue
		}
		out = append(out, c)
	}
	return out
}

// validCategory keeps gaming and chat categories, drops the deny list.
// Unknown categories containing "game" pass: likely a game we don't list.
func (s *Selector) validCategory(name string) bool {
	if name == "" {
		return false
	}
	lower := strings.ToLower(name)

	banned := s.cfg.BannedCategories
	if len(banned) == 0 {
		banned = defaultBannedCategories
	}
	for _, b := range banned {
		if strings.Contains(lower, strings.ToLower(b)) {
			return false
		}
	}

	valid := s.cfg.ValidCategories
	if len(valid) == 0 {
		valid = defaultValidCategories
	}
	for _, v := range valid {
		if strings.Contains(lower, strings.ToLower(v)) {
			return true
		}
	}

	return strings.Contains(lower, "game")
}
