package extractors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Timtech4u/ai-file-analyzer/internal/domain/extract"
	"github.com/Timtech4u/ai-file-analyzer/internal/domain/files"
)

func TestExtractHTML(t *testing.T) {
	html := `<!DOCTYPE html><html><head><title>Release Notes</title>` +
		`<script>alert("xss")</script></head>` +
		`<body><h1>Version 2.0</h1><p>Faster parsing and <b>new</b> formats.</p></body></html>`

	w := NewWeb()
	res, err := w.Extract(context.Background(), files.SourceFile{Name: "notes.html", Content: []byte(html)})
	require.NoError(t, err)

	assert.Contains(t, res.Text, "Version 2.0")
	assert.Contains(t, res.Text, "Faster parsing")
	assert.NotContains(t, res.Text, "alert")
	require.Len(t, res.Notes, 1)
	assert.Equal(t, extract.Note{Kind: "title", Value: "Release Notes"}, res.Notes[0])
}

func TestExtractJSON(t *testing.T) {
	w := NewWeb()
	res, err := w.Extract(context.Background(), files.SourceFile{
		Name:    "config.json",
		Content: []byte(`{"service":"analyzer","replicas":3}`),
	})
	require.NoError(t, err)

	assert.Contains(t, res.Text, `"service": "analyzer"`)
	assert.Contains(t, res.Text, `"replicas": 3`)
	require.Len(t, res.Notes, 1)
	assert.Equal(t, extract.Note{Kind: "format", Value: "json"}, res.Notes[0])
}

func TestExtractJSONMalformed(t *testing.T) {
	w := NewWeb()
	_, err := w.Extract(context.Background(), files.SourceFile{
		Name:    "bad.json",
		Content: []byte(`{"unterminated`),
	})
	require.Error(t, err)
}

func TestExtractXML(t *testing.T) {
	w := NewWeb()
	res, err := w.Extract(context.Background(), files.SourceFile{
		Name: "feed.xml",
		Content: []byte(`<?xml version="1.0"?><feed>` +
			`<title>Status Feed</title><entry>All systems go</entry></feed>`),
	})
	require.NoError(t, err)

	assert.Contains(t, res.Text, "title: Status Feed")
	assert.Contains(t, res.Text, "entry: All systems go")
}

func TestExtractWebEmpty(t *testing.T) {
	w := NewWeb()
	_, err := w.Extract(context.Background(), files.SourceFile{Name: "empty.html", Content: []byte("   ")})
	require.Error(t, err)
}

func TestHTMLTitle(t *testing.T) {
	assert.Equal(t, "Hi", htmlTitle([]byte(`<html><head><TITLE>Hi</TITLE></head></html>`)))
	assert.Equal(t, "", htmlTitle([]byte(`<html><body>no title</body></html>`)))
}
