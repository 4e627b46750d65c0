package extractors

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/microcosm-cc/bluemonday"

	"github.com/Timtech4u/ai-file-analyzer/internal/domain/extract"
	"github.com/Timtech4u/ai-file-analyzer/internal/domain/files"
)

// Web handles the web/structured-data family: HTML, JSON, and XML.
// HTML is sanitized before conversion so script and style payloads
// never reach the canonical text.
type Web struct {
	sanitizer *bluemonday.Policy
}

func NewWeb() *Web {
	return &Web{sanitizer: bluemonday.UGCPolicy()}
}

func (w *Web) Extract(ctx context.Context, f files.SourceFile) (extract.Result, error) {
	trimmed := bytes.TrimSpace(f.Content)
	if len(trimmed) == 0 {
		return extract.Result{}, fmt.Errorf("empty input")
	}

	switch {
	case looksLikeHTML(trimmed) || f.Ext() == "html" || f.Ext() == "htm":
		return w.extractHTML(trimmed)
	case trimmed[0] == '{' || trimmed[0] == '[':
		return extractJSON(trimmed)
	default:
		return extractXML(trimmed)
	}
}

func looksLikeHTML(b []byte) bool {
	lower := bytes.ToLower(b[:min(len(b), 256)])
	return bytes.Contains(lower, []byte("<html")) || bytes.Contains(lower, []byte("<!doctype html"))
}

func (w *Web) extractHTML(content []byte) (extract.Result, error) {
	clean := w.sanitizer.SanitizeBytes(content)
	md, err := htmltomarkdown.ConvertString(string(clean))
	if err != nil {
		return extract.Result{}, fmt.Errorf("convert html: %w", err)
	}
	text := normalize(md)
	if text == "" {
		return extract.Result{}, fmt.Errorf("no text content found in html")
	}
	var notes []extract.Note
	if title := htmlTitle(content); title != "" {
		notes = append(notes, extract.Note{Kind: "title", Value: title})
	}
	return extract.Result{Text: text, Notes: notes}, nil
}

func htmlTitle(content []byte) string {
	lower := bytes.ToLower(content)
	start := bytes.Index(lower, []byte("<title"))
	if start < 0 {
		return ""
	}
	open := bytes.IndexByte(lower[start:], '>')
	if open < 0 {
		return ""
	}
	rest := content[start+open+1:]
	end := bytes.Index(bytes.ToLower(rest), []byte("</title>"))
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(string(rest[:end]))
}

// extractJSON validates and pretty-prints, which both normalizes
// whitespace and rejects malformed payloads early.
func extractJSON(content []byte) (extract.Result, error) {
	var v any
	if err := json.Unmarshal(content, &v); err != nil {
		return extract.Result{}, fmt.Errorf("parse json: %w", err)
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return extract.Result{}, fmt.Errorf("render json: %w", err)
	}
	notes := []extract.Note{{Kind: "format", Value: "json"}}
	return extract.Result{Text: normalize(string(pretty)), Notes: notes}, nil
}

// extractXML walks the token stream and emits "element: value" lines
// for leaf text, so flat values stay interpretable.
func extractXML(content []byte) (extract.Result, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	var parts []string
	var current string
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			current = t.Name.Local
		case xml.CharData:
			if s := strings.TrimSpace(string(t)); s != "" {
				if current != "" {
					parts = append(parts, current+": "+s)
				} else {
					parts = append(parts, s)
				}
			}
		case xml.EndElement:
			current = ""
		}
	}
	if len(parts) == 0 {
		return extract.Result{}, fmt.Errorf("no text content found in xml")
	}
	notes := []extract.Note{
		{Kind: "format", Value: "xml"},
		{Kind: "values", Value: strconv.Itoa(len(parts))},
	}
	return extract.Result{Text: normalize(strings.Join(parts, "\n")), Notes: notes}, nil
}
