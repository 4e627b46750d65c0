package extractors

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Timtech4u/ai-file-analyzer/internal/domain/extract"
	"github.com/Timtech4u/ai-file-analyzer/internal/domain/files"
)

// Spreadsheet handles the spreadsheet family: Excel (.xlsx) and CSV.
type Spreadsheet struct{}

func NewSpreadsheet() *Spreadsheet { return &Spreadsheet{} }

func (s *Spreadsheet) Extract(ctx context.Context, f files.SourceFile) (extract.Result, error) {
	if bytes.HasPrefix(f.Content, []byte{0x50, 0x4B, 0x03, 0x04}) {
		return extractXLSX(f.Content)
	}
	return extractCSV(f.Content)
}

func extractCSV(content []byte) (extract.Result, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1 // ragged rows are common in exported data

	records, err := r.ReadAll()
	if err != nil {
		return extract.Result{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return extract.Result{}, fmt.Errorf("no rows in csv")
	}

	var sb strings.Builder
	for _, rec := range records {
		sb.WriteString(strings.Join(rec, " | "))
		sb.WriteByte('\n')
	}
	notes := []extract.Note{{Kind: "rows", Value: strconv.Itoa(len(records))}}
	return extract.Result{Text: normalize(sb.String()), Notes: notes}, nil
}

// extractXLSX walks every worksheet in the OOXML container. Cell values
// referencing the shared string table are resolved; each sheet gets a
// structural note with its name.
func extractXLSX(content []byte) (extract.Result, error) {
	zr, err := openZip(content)
	if err != nil {
		return extract.Result{}, fmt.Errorf("open xlsx container: %w", err)
	}

	shared := sharedStrings(zr)
	names := sheetNames(zr)

	var sheets []string
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "xl/worksheets/sheet") && strings.HasSuffix(f.Name, ".xml") {
			sheets = append(sheets, f.Name)
		}
	}
	if len(sheets) == 0 {
		return extract.Result{}, fmt.Errorf("no worksheets in archive")
	}
	sort.Slice(sheets, func(i, j int) bool {
		return sheetIndex(sheets[i]) < sheetIndex(sheets[j])
	})

	var sb strings.Builder
	var notes []extract.Note
	for i, name := range sheets {
		data, err := readZipFile(zr, name)
		if err != nil {
			continue
		}
		label := fmt.Sprintf("Sheet%d", i+1)
		if i < len(names) {
			label = names[i]
		}
		notes = append(notes, extract.Note{Kind: "sheet", Value: label})

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("## " + label + "\n")
		sb.WriteString(worksheetText(data, shared))
	}

	text := normalize(sb.String())
	if text == "" {
		return extract.Result{}, fmt.Errorf("no cell content found in workbook")
	}
	return extract.Result{Text: text, Notes: notes}, nil
}

func sheetIndex(name string) int {
	base := strings.TrimSuffix(strings.TrimPrefix(name, "xl/worksheets/sheet"), ".xml")
	n, _ := strconv.Atoi(base)
	return n
}

// sharedStrings loads xl/sharedStrings.xml; a missing table is fine
// for workbooks with only inline or numeric cells.
func sharedStrings(zr *zip.Reader) []string {
	data, err := readZipFile(zr, "xl/sharedStrings.xml")
	if err != nil {
		return nil
	}
	return xmlCharData(data, map[string]bool{"si": true})
}

// sheetNames reads worksheet names from xl/workbook.xml in declaration
// order.
func sheetNames(zr *zip.Reader) []string {
	data, err := readZipFile(zr, "xl/workbook.xml")
	if err != nil {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var names []string
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		if t, ok := tok.(xml.StartElement); ok && t.Name.Local == "sheet" {
			for _, attr := range t.Attr {
				if attr.Name.Local == "name" {
					names = append(names, attr.Value)
				}
			}
		}
	}
	return names
}

// worksheetText renders one worksheet as pipe-separated rows. Cells of
// type "s" index the shared string table; everything else (numbers,
// inline strings, formula results) is taken verbatim from <v>/<t>.
func worksheetText(data []byte, shared []string) string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var sb strings.Builder
	var row []string
	var cellType string
	var inValue bool
	var value strings.Builder

	flushCell := func() {
		v := value.String()
		value.Reset()
		if cellType == "s" {
			if idx, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && idx >= 0 && idx < len(shared) {
				v = shared[idx]
			}
		}
		row = append(row, v)
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "row":
				row = row[:0]
			case "c":
				cellType = ""
				for _, attr := range t.Attr {
					if attr.Name.Local == "t" {
						cellType = attr.Value
					}
				}
			case "v", "t":
				inValue = true
			}
		case xml.CharData:
			if inValue {
				value.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "v", "t":
				inValue = false
			case "c":
				flushCell()
			case "row":
				if line := strings.TrimSpace(strings.Join(row, " | ")); line != "" {
					sb.WriteString(line)
					sb.WriteByte('\n')
				}
			}
		}
	}
	return sb.String()
}
