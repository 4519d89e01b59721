package script

import (
	"encoding/json"
	"log"

	"roast-pipeline/types"
)

// The model's output shape drifts: sometimes {"script": [...]}, sometimes a
// bare list, and items are sometimes plain strings. Normalize converts all
// of it into []ScriptLine at the boundary so nothing deeper in the pipeline
// branches on shape. Unparseable input yields an empty script, never an
// error.

type scriptEnvelope struct {
	Script []json.RawMessage `json:"script"`
}

// Normalize parses raw model JSON into an ordered script. Plain-string items
// get a default timestamp of index*5 seconds.
func Normalize(raw []byte) []types.ScriptLine {
	var items []json.RawMessage

	var envelope scriptEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Script != nil {
		items = envelope.Script
	} else if err := json.Unmarshal(raw, &items); err != nil {
		log.Printf("[script] Warning: unparseable script output; treating as empty")
		return nil
	}

	var lines []types.ScriptLine
	for i, item := range items {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			lines = append(lines, types.ScriptLine{Text: text, Timestamp: float64(i) * 5.0})
			continue
		}
		var line types.ScriptLine
		if err := json.Unmarshal(item, &line); err == nil {
			lines = append(lines, line)
			continue
		}
		log.Printf("[script] Warning: skipping malformed script item %d", i)
	}
	return lines
}
