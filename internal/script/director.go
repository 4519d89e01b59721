package script

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"roast-pipeline/types"
)

const basePrompt = `You are a BRAINROT VIDEO EDITOR with ZERO CHILL.
You are watching the video. Make every line react to what is actually happening on screen.

CORE RULES:
1. SHORT LINES ONLY. (e.g. "BRO IS DONE.", "THIS AIN'T REAL.")
2. BE BRUTAL: roast skills, decisions, posture, timing, awareness.
3. SWEAR NATURALLY. No slurs. No protected-group attacks.
4. Meme logic > reality.
5. Ground each line in a visible action or moment.
6. Avoid generic roasts that could fit any clip.

VISUALS:
- visual_search examples: "clown", "windows error", "npc glitch", "dumpster fire"

OUTPUT FORMAT (JSON ONLY):
{"script": [{"timestamp": 1.5, "text": "BRO IS ACTUALLY FINISHED.", "mood": "scream", "visual_effect": "explosion", "visual_search": "dumpster fire"}]}`

const zestyPrompt = `
PERSONA: ZESTY CHAOS GREMLIN
TONE: Extremely flamboyant, dramatic, theatrical.
ENERGY: Extra. Camp. Over-the-top sass.
DELIVERY: stretched vowels, mocking gasps, fake praise followed by immediate destruction.`

const ragePrompt = `
PERSONA: RAGE DIRECTOR
TONE: Shouting, disappointed coach energy.
ENERGY: Furious but comedic.`

// Director asks the scripting model for timestamped roast lines over a clip.
// Treated as a collaborator: the only contract is the JSON script shape.
type Director struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
}

// NewDirector reads GEMINI_API_KEY from the environment
func NewDirector() *Director {
	return &Director{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		endpoint:   "https://generativelanguage.googleapis.com/v1beta",
		apiKey:     os.Getenv("GEMINI_API_KEY"),
		model:      "gemini-flash-latest",
	}
}

type generateRequest struct {
	Contents []struct {
		Parts []part `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseMimeType string `json:"response_mime_type"`
	} `json:"generationConfig"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Roast generates the roast script for a raw clip. A transport or API error
// is returned to the caller; malformed model output degrades to an empty
// script instead.
func (d *Director) Roast(ctx context.Context, videoPath, persona string) ([]types.ScriptLine, error) {
	if d.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	videoBytes, err := os.ReadFile(videoPath)
	if err != nil {
		return nil, fmt.Errorf("read clip: %w", err)
	}

	prompt := basePrompt
	if persona == "ZESTY" {
		prompt += zestyPrompt
	} else {
		prompt += ragePrompt
	}

	var req generateRequest
	req.Contents = make([]struct {
		Parts []part `json:"parts"`
	}, 1)
	req.Contents[0].Parts = []part{
		{InlineData: &inlineData{MimeType: "video/mp4", Data: base64.StdEncoding.EncodeToString(videoBytes)}},
		{Text: prompt},
	}
	req.GenerationConfig.ResponseMimeType = "application/json"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", d.endpoint, d.model, d.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	log.Printf("[script] Director AI (%s) engaging...", persona)
	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBytes, &genResp); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}
	if genResp.Error != nil {
		return nil, fmt.Errorf("gemini error: %s", genResp.Error.Message)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		log.Println("[script] Warning: model returned no candidates; empty script")
		return nil, nil
	}

	content := cleanJSON(genResp.Candidates[0].Content.Parts[0].Text)
	lines := Normalize([]byte(content))
	log.Printf("[script] Generated %d lines", len(lines))
	return lines, nil
}

// cleanJSON strips markdown fences if the model wraps its response
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
