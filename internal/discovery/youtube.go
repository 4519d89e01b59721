package discovery

import (
	"context"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"roast-pipeline/types"
)

var iso8601Duration = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// YouTubeClient wraps the Data API v3 for shorts discovery
type YouTubeClient struct {
	svc        *youtube.Service
	maxSeconds int
	subMax     uint64
}

// NewYouTubeClient builds a client from YOUTUBE_DATA_API_KEY
func NewYouTubeClient(ctx context.Context, maxSeconds int, subMax uint64) (*YouTubeClient, error) {
	apiKey := os.Getenv("YOUTUBE_DATA_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("YOUTUBE_DATA_API_KEY not set")
	}
	svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return &YouTubeClient{svc: svc, maxSeconds: maxSeconds, subMax: subMax}, nil
}

// ShortsByCreator searches recent shorts whose channel title matches the
// creator name, filtered by duration ceiling and subscriber ceiling
func (c *YouTubeClient) ShortsByCreator(ctx context.Context, creatorName string, publishedAfter time.Time) ([]types.ClipCandidate, error) {
	query := creatorName
	if query == "" {
		query = "shorts"
	}

	searchRes, err := c.svc.Search.List([]string{"snippet"}).
		Context(ctx).
		Type("video").
		Order("date").
		Q(query).
		VideoDuration("short").
		MaxResults(25).
		PublishedAfter(publishedAfter.UTC().Format(time.RFC3339)).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	var videoIDs []string
	for _, item := range searchRes.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			videoIDs = append(videoIDs, item.Id.VideoId)
		}
	}
	if len(videoIDs) == 0 {
		return nil, nil
	}

	videoRes, err := c.svc.Videos.List([]string{"contentDetails", "snippet"}).
		Context(ctx).
		Id(videoIDs...).
		MaxResults(25).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube videos: %w", err)
	}

	var candidates []types.ClipCandidate
	channelSet := map[string]bool{}
	for _, item := range videoRes.Items {
		seconds, ok := parseISO8601Duration(item.ContentDetails.Duration)
		if !ok || seconds > c.maxSeconds {
			continue
		}
		channelSet[item.Snippet.ChannelId] = true
		candidates = append(candidates, types.ClipCandidate{
			Platform:    types.PlatformYouTube,
			ClipID:      item.Id,
			ClipURL:     "https://www.youtube.com/watch?v=" + item.Id,
			CreatorID:   item.Snippet.ChannelId,
			CreatorName: item.Snippet.ChannelTitle,
			Title:       item.Snippet.Title,
		})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	var channelIDs []string
	for id := range channelSet {
		channelIDs = append(channelIDs, id)
	}
	channelRes, err := c.svc.Channels.List([]string{"statistics"}).
		Context(ctx).
		Id(channelIDs...).
		MaxResults(50).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube channels: %w", err)
	}
	subsByChannel := map[string]uint64{}
	for _, item := range channelRes.Items {
		if item.Statistics != nil {
			subsByChannel[item.Id] = item.Statistics.SubscriberCount
		}
	}

	var filtered []types.ClipCandidate
	for _, cand := range candidates {
		if subsByChannel[cand.CreatorID] >= c.subMax {
			continue
		}
		// Creator-name correlation: the query is fuzzy, keep only real matches
		if creatorName != "" && !strings.Contains(strings.ToLower(cand.CreatorName), strings.ToLower(creatorName)) {
			continue
		}
		filtered = append(filtered, cand)
	}

	log.Printf("[discovery] YouTube: %d shorts candidates for %q", len(filtered), creatorName)
	return filtered, nil
}

// parseISO8601Duration converts durations like PT1M2S into seconds
func parseISO8601Duration(s string) (int, bool) {
	m := iso8601Duration.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	atoi := func(v string) int {
		if v == "" {
			return 0
		}
		n, _ := strconv.Atoi(v)
		return n
	}
	return atoi(m[1])*3600 + atoi(m[2])*60 + atoi(m[3]), true
}
