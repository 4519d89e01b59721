package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"roast-pipeline/types"
)

const helixBase = "https://api.twitch.tv/helix"

// Stream is one live broadcast from the Helix streams listing
type Stream struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	GameName    string `json:"game_name"`
	ViewerCount int    `json:"viewer_count"`
	Language    string `json:"language"`
}

// TwitchClient is a minimal Helix API client authenticated with an app
// access token (client-credentials grant, auto-refreshed)
type TwitchClient struct {
	clientID   string
	httpClient *http.Client
}

// NewTwitchClient reads TWITCH_CLIENT_ID / TWITCH_CLIENT_SECRET from the
// environment. Returns an error when credentials are missing.
func NewTwitchClient(ctx context.Context) (*TwitchClient, error) {
	clientID := os.Getenv("TWITCH_CLIENT_ID")
	clientSecret := os.Getenv("TWITCH_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("TWITCH_CLIENT_ID or TWITCH_CLIENT_SECRET not set")
	}

	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     "https://id.twitch.tv/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	client := conf.Client(ctx)
	client.Timeout = 15 * time.Second

	return &TwitchClient{clientID: clientID, httpClient: client}, nil
}

func (c *TwitchClient) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", helixBase+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Client-ID", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("helix %s: HTTP %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Streams lists live streams in one language, paginated by cursor
func (c *TwitchClient) Streams(ctx context.Context, first int, language, after string) ([]Stream, string, error) {
	if first > 100 {
		first = 100
	}
	params := url.Values{}
	params.Set("first", strconv.Itoa(first))
	params.Set("language", language)
	if after != "" {
		params.Set("after", after)
	}

	var payload struct {
		Data       []Stream `json:"data"`
		Pagination struct {
			Cursor string `json:"cursor"`
		} `json:"pagination"`
	}
	if err := c.get(ctx, "/streams", params, &payload); err != nil {
		return nil, "", err
	}
	return payload.Data, payload.Pagination.Cursor, nil
}

// FollowerTotal returns a broadcaster's follower count
func (c *TwitchClient) FollowerTotal(ctx context.Context, broadcasterID string) (int, error) {
	params := url.Values{}
	params.Set("broadcaster_id", broadcasterID)
	params.Set("first", "1")

	var payload struct {
		Total int `json:"total"`
	}
	if err := c.get(ctx, "/channels/followers", params, &payload); err != nil {
		return 0, err
	}
	return payload.Total, nil
}

// Clips lists a broadcaster's recent clips as candidates
func (c *TwitchClient) Clips(ctx context.Context, broadcasterID, creatorName string, startedAt time.Time) ([]types.ClipCandidate, error) {
	params := url.Values{}
	params.Set("broadcaster_id", broadcasterID)
	params.Set("started_at", startedAt.UTC().Format(time.RFC3339))
	params.Set("first", "10")

	var payload struct {
		Data []struct {
			ID    string `json:"id"`
			URL   string `json:"url"`
			Title string `json:"title"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/clips", params, &payload); err != nil {
		return nil, err
	}

	var out []types.ClipCandidate
	for _, clip := range payload.Data {
		if clip.ID == "" || clip.URL == "" {
			continue
		}
		out = append(out, types.ClipCandidate{
			Platform:    types.PlatformTwitch,
			ClipID:      clip.ID,
			ClipURL:     clip.URL,
			CreatorID:   broadcasterID,
			CreatorName: creatorName,
			Title:       clip.Title,
		})
	}
	return out, nil
}
