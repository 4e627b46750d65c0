package extractors

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/Timtech4u/ai-file-analyzer/internal/domain/extract"
	"github.com/Timtech4u/ai-file-analyzer/internal/domain/files"
)

// maxArchiveEntryBytes bounds how much of any single entry is inlined
// into the canonical text, guarding against zip bombs.
const maxArchiveEntryBytes = 1 << 20

// textualEntryExts lists archive entries whose content is inlined.
var textualEntryExts = map[string]bool{
	".txt": true, ".md": true, ".csv": true,
	".json": true, ".xml": true, ".html": true, ".htm": true,
	".log": true, ".yaml": true, ".yml": true,
}

// Archive handles ZIP files: the entry listing itself is the primary
// structure, and small textual entries are inlined so the summarizer
// sees actual content, not just filenames.
type Archive struct{}

func NewArchive() *Archive { return &Archive{} }

func (a *Archive) Extract(ctx context.Context, f files.SourceFile) (extract.Result, error) {
	zr, err := openZip(f.Content)
	if err != nil {
		return extract.Result{}, fmt.Errorf("open zip: %w", err)
	}
	if len(zr.File) == 0 {
		return extract.Result{}, fmt.Errorf("empty archive")
	}

	var sb strings.Builder
	var notes []extract.Note
	sb.WriteString("Archive contents:\n")
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		notes = append(notes, extract.Note{Kind: "entry", Value: zf.Name})
		fmt.Fprintf(&sb, "- %s (%d bytes)\n", zf.Name, zf.UncompressedSize64)
	}

	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || !textualEntryExts[strings.ToLower(path.Ext(zf.Name))] {
			continue
		}
		if zf.UncompressedSize64 > maxArchiveEntryBytes {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(io.LimitReader(rc, maxArchiveEntryBytes))
		rc.Close()
		if err != nil || !utf8.Valid(data) {
			continue
		}
		if text := normalize(string(data)); text != "" {
			fmt.Fprintf(&sb, "\n## %s\n%s\n", zf.Name, text)
		}
	}

	return extract.Result{Text: normalize(sb.String()), Notes: notes}, nil
}
