package files

import (
	"path/filepath"
	"strings"
)

// SourceFile is an uploaded file as received from the front-end.
// Content is never mutated after receipt.
type SourceFile struct {
	Name    string
	Content []byte
}

// Size in bytes of the raw content.
func (f SourceFile) Size() int64 { return int64(len(f.Content)) }

// Ext returns the lowercase extension without the leading dot, or "".
func (f SourceFile) Ext() string {
	ext := filepath.Ext(f.Name)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// FormatKind is the classified family of a file, driving extraction
// strategy selection.
type FormatKind string

const (
	FormatDocument     FormatKind = "document"     // pdf, docx
	FormatSpreadsheet  FormatKind = "spreadsheet"  // xlsx, csv
	FormatPresentation FormatKind = "presentation" // pptx
	FormatImage        FormatKind = "image"        // jpg, jpeg, png
	FormatAudio        FormatKind = "audio"        // mp3, wav (transcription not implemented)
	FormatWeb          FormatKind = "web"          // html, json, xml
	FormatArchive      FormatKind = "archive"      // zip
	FormatUnsupported  FormatKind = "unsupported"
)

// TypeInfo describes a supported file extension for display purposes.
type TypeInfo struct {
	Ext  string     `json:"ext"`
	Name string     `json:"name"`
	MIME string     `json:"mime"`
	Kind FormatKind `json:"kind"`
}

// SupportedTypes lists every extension the analyzer accepts.
func SupportedTypes() []TypeInfo {
	return []TypeInfo{
		{"pdf", "PDF Document", "application/pdf", FormatDocument},
		{"docx", "Word Document", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", FormatDocument},
		{"pptx", "PowerPoint", "application/vnd.openxmlformats-officedocument.presentationml.presentation", FormatPresentation},
		{"xlsx", "Excel Spreadsheet", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FormatSpreadsheet},
		{"csv", "CSV File", "text/csv", FormatSpreadsheet},
		{"jpg", "JPEG Image", "image/jpeg", FormatImage},
		{"jpeg", "JPEG Image", "image/jpeg", FormatImage},
		{"png", "PNG Image", "image/png", FormatImage},
		{"mp3", "Audio File", "audio/mpeg", FormatAudio},
		{"wav", "Audio File", "audio/wav", FormatAudio},
		{"html", "HTML Document", "text/html", FormatWeb},
		{"json", "JSON File", "application/json", FormatWeb},
		{"xml", "XML File", "application/xml", FormatWeb},
		{"zip", "ZIP Archive", "application/zip", FormatArchive},
	}
}
