package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSummary(t *testing.T) {
	s, err := ParseSummary(`{"summary":"A report.","key_points":["Revenue up","Costs flat"]}`)
	require.NoError(t, err)
	assert.Equal(t, "A report.", s.Summary)
	assert.Equal(t, []string{"Revenue up", "Costs flat"}, s.KeyPoints)
}

func TestParseSummaryStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"summary\":\"Fenced.\",\"key_points\":[]}\n```"
	s, err := ParseSummary(raw)
	require.NoError(t, err)
	assert.Equal(t, "Fenced.", s.Summary)
	assert.Empty(t, s.KeyPoints)
}

func TestParseSummaryPlainTextFallback(t *testing.T) {
	s, err := ParseSummary("The model ignored the schema and wrote prose.")
	require.NoError(t, err)
	assert.Equal(t, "The model ignored the schema and wrote prose.", s.Summary)
}

func TestParseSummaryEmpty(t *testing.T) {
	_, err := ParseSummary("   ")
	require.Error(t, err)
}

func TestParseSummaryMissingSummaryField(t *testing.T) {
	_, err := ParseSummary(`{"key_points":["only points"]}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing summary")
}

func TestGetUserPromptCarriesProvenance(t *testing.T) {
	p := GetUserPrompt("body text", "document", "report.pdf")
	assert.Contains(t, p, `"report.pdf"`)
	assert.Contains(t, p, "format: document")
	assert.Contains(t, p, "body text")
}
