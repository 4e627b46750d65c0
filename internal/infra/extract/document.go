package extractors

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Timtech4u/ai-file-analyzer/internal/domain/extract"
	"github.com/Timtech4u/ai-file-analyzer/internal/domain/files"
)

// Document handles the document family: PDF and Word (.docx).
type Document struct{}

func NewDocument() *Document { return &Document{} }

func (d *Document) Extract(ctx context.Context, f files.SourceFile) (extract.Result, error) {
	if bytes.HasPrefix(f.Content, []byte("%PDF-")) {
		return extractPDF(f.Content)
	}
	return extractDocx(f.Content)
}

// extractPDF parses the PDF cross-reference table with pdfcpu and scans
// each page's content stream for text-showing operators.
func extractPDF(content []byte) (extract.Result, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(content), conf)
	if err != nil {
		return extract.Result{}, fmt.Errorf("read pdf: %w", err)
	}

	var sb strings.Builder
	var notes []extract.Note
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		pageText := extractPDFPage(pdfCtx, pageNr)
		if pageText == "" {
			continue
		}
		notes = append(notes, extract.Note{Kind: "page", Value: strconv.Itoa(pageNr)})
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(pageText)
	}
	if sb.Len() == 0 {
		return extract.Result{}, fmt.Errorf("no text content found in pdf (%d pages)", pdfCtx.PageCount)
	}
	return extract.Result{Text: normalize(sb.String()), Notes: notes}, nil
}

func extractPDFPage(pdfCtx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return textFromContentStream(data)
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// textFromContentStream scans content stream lines for the Tj, TJ, '
// and T* operators.
func textFromContentStream(data []byte) string {
	var sb strings.Builder
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
			sb.WriteByte(' ')
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}
	return squeezePDFText(sb.String())
}

// decodePDFString handles basic PDF escape sequences, including octal.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 == len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for n := 0; n < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; n++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}

func squeezePDFText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case r == '\n':
			sb.WriteRune(r)
			prevSpace = true
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}

// extractDocx reads word/document.xml from the OOXML container and
// walks its paragraphs. Heading paragraphs become structural notes.
func extractDocx(content []byte) (extract.Result, error) {
	zr, err := openZip(content)
	if err != nil {
		return extract.Result{}, fmt.Errorf("open docx container: %w", err)
	}
	doc, err := readZipFile(zr, "word/document.xml")
	if err != nil {
		return extract.Result{}, err
	}

	dec := xml.NewDecoder(bytes.NewReader(doc))
	var sb strings.Builder
	var notes []extract.Note
	var para strings.Builder
	var inPara bool
	var style string

	flush := func() {
		text := strings.TrimSpace(para.String())
		para.Reset()
		if text == "" {
			return
		}
		if docxHeadingLevel(style) > 0 {
			notes = append(notes, extract.Note{Kind: "heading", Value: text})
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(text)
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				style = ""
			case "pStyle":
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" {
						style = attr.Value
					}
				}
			case "tab":
				if inPara {
					para.WriteByte('\t')
				}
			case "br":
				if inPara {
					para.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inPara {
				para.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inPara {
				inPara = false
				flush()
			}
		}
	}

	if sb.Len() == 0 {
		return extract.Result{}, fmt.Errorf("no text content found in document")
	}
	return extract.Result{Text: normalize(sb.String()), Notes: notes}, nil
}

// docxHeadingLevel maps a paragraph style name to a heading level
// ("Heading1" → 1, "Title" → 1), or 0 for body text.
func docxHeadingLevel(style string) int {
	lower := strings.ToLower(style)
	switch lower {
	case "title":
		return 1
	case "subtitle":
		return 2
	}
	if strings.HasPrefix(lower, "heading") {
		rest := strings.TrimPrefix(lower, "heading")
		if len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
			return int(rest[0] - '0')
		}
	}
	return 0
}
