package files

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"strings"
)

var extKinds = func() map[string]FormatKind {
	m := make(map[string]FormatKind)
	for _, t := range SupportedTypes() {
		m[t.Ext] = t.Kind
	}
	return m
}()

// Classify determines the FormatKind of a file from its name and content.
// The extension is consulted first; when it is missing, unknown, or
// contradicted by the magic bytes, classification falls back to content
// sniffing. Classification is pure: identical name+content always yield
// the same kind. Unknown files classify as FormatUnsupported, never as
// an error.
func Classify(filename string, content []byte) FormatKind {
	if sniffed := sniff(content); sniffed != FormatUnsupported {
		// Container formats need the extension (or internal layout) to
		// distinguish office documents from plain archives.
		if sniffed != FormatArchive {
			return sniffed
		}
		if kind, ok := extKinds[SourceFile{Name: filename}.Ext()]; ok && isZipBacked(kind) {
			return kind
		}
		return classifyZip(content)
	}
	if kind, ok := extKinds[SourceFile{Name: filename}.Ext()]; ok {
		return kind
	}
	return sniffText(content)
}

func isZipBacked(k FormatKind) bool {
	return k == FormatDocument || k == FormatSpreadsheet || k == FormatPresentation || k == FormatArchive
}

// sniff inspects magic bytes for binary formats.
func sniff(content []byte) FormatKind {
	switch {
	case bytes.HasPrefix(content, []byte("%PDF-")):
		return FormatDocument
	case bytes.HasPrefix(content, []byte{0x50, 0x4B, 0x03, 0x04}):
		return FormatArchive // zip container; refined by classifyZip
	case bytes.HasPrefix(content, []byte{0x89, 'P', 'N', 'G'}):
		return FormatImage
	case bytes.HasPrefix(content, []byte{0xFF, 0xD8, 0xFF}):
		return FormatImage
	case bytes.HasPrefix(content, []byte("ID3")):
		return FormatAudio
	case len(content) > 2 && content[0] == 0xFF && content[1]&0xE0 == 0xE0:
		return FormatAudio // raw MPEG frame sync
	case bytes.HasPrefix(content, []byte("RIFF")) && len(content) >= 12 && bytes.Equal(content[8:12], []byte("WAVE")):
		return FormatAudio
	}
	return FormatUnsupported
}

// classifyZip tells OOXML documents apart from plain archives by their
// internal directory layout.
func classifyZip(content []byte) FormatKind {
	r, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return FormatArchive
	}
	for _, f := range r.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			return FormatDocument
		case strings.HasPrefix(f.Name, "xl/"):
			return FormatSpreadsheet
		case strings.HasPrefix(f.Name, "ppt/"):
			return FormatPresentation
		}
	}
	return FormatArchive
}

// sniffText recognizes structured text content when the extension gave
// no answer.
func sniffText(content []byte) FormatKind {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return FormatUnsupported
	}
	switch {
	case bytes.HasPrefix(trimmed, []byte("<?xml")):
		return FormatWeb
	case bytes.HasPrefix(trimmed, []byte("<!DOCTYPE html")), bytes.HasPrefix(trimmed, []byte("<html")):
		return FormatWeb
	case trimmed[0] == '{' || trimmed[0] == '[':
		if json.Valid(trimmed) {
			return FormatWeb
		}
	}
	return FormatUnsupported
}
