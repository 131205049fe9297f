package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

const symptomSystemPrompt = `You map a patient's free-text description onto a fixed list of symptom phrases.
Answer with a JSON array of strings only, no prose. Every string must be copied exactly from the list.
Include a phrase only when the patient clearly reports having that symptom. Answer [] when nothing matches.

Symptom phrases:
%s`

// InterpretSymptoms asks the model which of phrases the text describes.
// Answers not present in phrases are discarded.
func (c *Client) InterpretSymptoms(ctx context.Context, text string, phrases []string) ([]string, error) {
	if strings.TrimSpace(text) == "" || len(phrases) == 0 {
		return nil, nil
	}
	out, err := c.GeneratePrompt(ctx, fmt.Sprintf(symptomSystemPrompt, strings.Join(phrases, "\n")), text)
	if err != nil {
		return nil, fmt.Errorf("failed to interpret symptoms: %w", err)
	}
	return parsePhraseList(out, phrases)
}

// parsePhraseList decodes a JSON array, tolerating a surrounding code fence,
// and keeps only members of allowed.
func parsePhraseList(raw string, allowed []string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var got []string
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		return nil, fmt.Errorf("model answer is not a JSON string array: %w", err)
	}
	known := make(map[string]bool, len(allowed))
	for _, p := range allowed {
		known[p] = true
	}
	var out []string
	seen := map[string]bool{}
	for _, p := range got {
		p = strings.ToLower(strings.TrimSpace(p))
		if !known[p] {
			slog.Warn("genai.InterpretSymptoms: model returned unknown phrase, ignoring", "phrase", p)
			continue
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, nil
}
