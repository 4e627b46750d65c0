package files

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipWith(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte("x"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestClassifyByExtension(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    FormatKind
	}{
		{"report.pdf", []byte("%PDF-1.7 etc"), FormatDocument},
		{"data.csv", []byte("a,b,c\n1,2,3"), FormatSpreadsheet},
		{"photo.png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A}, FormatImage},
		{"photo.jpg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, FormatImage},
		{"song.mp3", []byte("ID3\x04\x00"), FormatAudio},
		{"page.html", []byte("<html><body>hi</body></html>"), FormatWeb},
		{"config.json", []byte(`{"a":1}`), FormatWeb},
		{"feed.xml", []byte(`<?xml version="1.0"?><r/>`), FormatWeb},
		{"binary.exe", []byte{0x4D, 0x5A, 0x00}, FormatUnsupported},
		{"notes.txt", []byte("plain text"), FormatUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.name, tt.content))
		})
	}
}

func TestClassifyZipContainers(t *testing.T) {
	t.Run("docx layout", func(t *testing.T) {
		content := zipWith(t, "[Content_Types].xml", "word/document.xml")
		assert.Equal(t, FormatDocument, Classify("unknown.bin", content))
	})
	t.Run("xlsx layout", func(t *testing.T) {
		content := zipWith(t, "[Content_Types].xml", "xl/workbook.xml")
		assert.Equal(t, FormatSpreadsheet, Classify("unknown.bin", content))
	})
	t.Run("pptx layout", func(t *testing.T) {
		content := zipWith(t, "[Content_Types].xml", "ppt/presentation.xml")
		assert.Equal(t, FormatPresentation, Classify("unknown.bin", content))
	})
	t.Run("plain zip", func(t *testing.T) {
		content := zipWith(t, "readme.txt", "data/values.csv")
		assert.Equal(t, FormatArchive, Classify("bundle.zip", content))
	})
	t.Run("extension hint wins for zip-backed kinds", func(t *testing.T) {
		content := zipWith(t, "something.txt")
		assert.Equal(t, FormatDocument, Classify("letter.docx", content))
	})
}

func TestClassifyMagicBytesBeatExtension(t *testing.T) {
	// A PDF renamed to .csv is still a document
	assert.Equal(t, FormatDocument, Classify("data.csv", []byte("%PDF-1.4")))
	// A JPEG renamed to .html is still an image
	assert.Equal(t, FormatImage, Classify("page.html", []byte{0xFF, 0xD8, 0xFF, 0xDB}))
}

func TestClassifySniffsContentWithoutExtension(t *testing.T) {
	assert.Equal(t, FormatWeb, Classify("download", []byte("  <!DOCTYPE html><html></html>")))
	assert.Equal(t, FormatWeb, Classify("download", []byte(`[1,2,3]`)))
	assert.Equal(t, FormatUnsupported, Classify("download", []byte("{not json")))
	assert.Equal(t, FormatUnsupported, Classify("download", nil))
}

func TestClassifyAudioSniffing(t *testing.T) {
	wav := append([]byte("RIFF"), 0, 0, 0, 0)
	wav = append(wav, []byte("WAVE")...)
	assert.Equal(t, FormatAudio, Classify("clip", wav))
	assert.Equal(t, FormatAudio, Classify("clip", []byte{0xFF, 0xFB, 0x90, 0x00}))
}

func TestClassifyDeterministic(t *testing.T) {
	content := zipWith(t, "xl/workbook.xml")
	first := Classify("report.xlsx", content)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify("report.xlsx", content))
	}
}

func TestSourceFileExt(t *testing.T) {
	assert.Equal(t, "pdf", SourceFile{Name: "A.PDF"}.Ext())
	assert.Equal(t, "", SourceFile{Name: "noext"}.Ext())
	assert.Equal(t, "gz", SourceFile{Name: "a.tar.gz"}.Ext())
}
