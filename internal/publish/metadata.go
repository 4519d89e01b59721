package publish

import (
	"fmt"
	"math/rand"
	"strings"
)

// Metadata is the upload-time packaging for one video. TagStrategy records
// which hashtag set was used so performance can be compared later.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	TagStrategy string
}

// GenerateMetadata builds a title, description, and tag set around the
// streamer's name. Two tag strategies run as an ongoing A/B split: A uses
// broad meme hashtags, B uses streamer-specific ones.
func GenerateMetadata(streamerName string, rng *rand.Rand) Metadata {
	titles := []string{
		fmt.Sprintf("%s IS ACTUALLY COOKED 💀 #shorts", streamerName),
		fmt.Sprintf("BRO %s WHAT WAS THAT?! 😭 #shorts", streamerName),
		fmt.Sprintf("%s EXPOSED IN 4K 📸 #shorts", streamerName),
		fmt.Sprintf("The Downfall of %s 📉 #shorts", streamerName),
	}

	hashtags := "#brainrot #memes #gaming #funny #fails"
	strategy := "A"
	if rng.Float64() <= 0.5 {
		strategy = "B"
		hashtags = fmt.Sprintf("#%s #streamer #clips #twitchfails #fyp", streamerName)
	}

	title := titles[rng.Intn(len(titles))]
	return Metadata{
		Title:       title,
		Description: fmt.Sprintf("%s\n\nSub for more brainrot! 🧠\n%s", title, hashtags),
		Tags:        strings.Fields(strings.ReplaceAll(hashtags, "#", "")),
		TagStrategy: strategy,
	}
}
