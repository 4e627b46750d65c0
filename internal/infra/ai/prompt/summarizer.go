package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	domai "github.com/Timtech4u/ai-file-analyzer/internal/domain/ai"
)

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a document analyst. Create a concise but informative summary of the content you are given. You must produce one valid JSON object only (no markdown, no commentary, no code fences).

Requirements:
- Output must be a single JSON object.
- summary is a short paragraph (3-6 sentences) capturing what the content is about.
- key_points is an array of the most important facts or figures, each a single sentence. Use an empty array when the content has no distinct points.
- Preserve concrete names, numbers, and dates from the content; never invent facts.

Schema (example with empty values):
{
  "summary": "<string>",
  "key_points": ["<string>"]
}`
}

// GetUserPrompt builds the user message around the canonical text and
// its provenance.
func GetUserPrompt(text, format, filename string) string {
	return fmt.Sprintf("Summarize the following content extracted from %q (format: %s) and respond with the JSON per schema.\n\n%s", filename, format, text)
}

// GetVisionPrompt asks for an image description that includes any
// visible text, so recognition output can serve as canonical text.
func GetVisionPrompt() string {
	return "Describe this image in detail. If the image contains text, transcribe all of it verbatim after the description."
}

// ParseSummary decodes the model's JSON response. Code fences are
// tolerated; a response that is not valid JSON falls back to treating
// the whole body as the summary rather than failing the invocation.
func ParseSummary(raw string) (domai.Summary, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return domai.Summary{}, fmt.Errorf("empty summarization response")
	}

	var s domai.Summary
	if err := json.Unmarshal([]byte(cleaned), &s); err != nil {
		return domai.Summary{Summary: cleaned}, nil
	}
	if strings.TrimSpace(s.Summary) == "" {
		return domai.Summary{}, fmt.Errorf("summarization response missing summary field")
	}
	return s, nil
}
