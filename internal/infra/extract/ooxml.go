package extractors

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// openZip wraps an in-memory zip container.
func openZip(content []byte) (*zip.Reader, error) {
	return zip.NewReader(bytes.NewReader(content), int64(len(content)))
}

// readZipFile returns the decompressed contents of one archive entry.
func readZipFile(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", name, err)
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("%s not found in archive", name)
}

// xmlCharData walks an XML document and collects character data of
// every element whose local name is in want (all elements when want is
// empty). OOXML text always lives in leaf elements such as w:t or a:t.
func xmlCharData(data []byte, want map[string]bool) []string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var depth int
	var capturing bool
	var buf bytes.Buffer

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if len(want) == 0 || want[t.Name.Local] {
				capturing = true
				depth++
			}
		case xml.EndElement:
			if capturing && (len(want) == 0 || want[t.Name.Local]) {
				depth--
				if depth == 0 {
					capturing = false
					if buf.Len() > 0 {
						out = append(out, buf.String())
						buf.Reset()
					}
				}
			}
		case xml.CharData:
			if capturing {
				buf.Write(t)
			}
		}
	}
	return out
}
