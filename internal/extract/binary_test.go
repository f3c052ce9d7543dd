package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF assembles a one-page PDF showing line with Helvetica, computing
// the cross-reference offsets.
func buildPDF(line string) []byte {
	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", line)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// buildDocx zips a minimal WordprocessingML package around body.
func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`,
		"_rels/.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(parts[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestPDFExtractor(t *testing.T) {
	path := writeFile(t, "report.pdf", buildPDF("Alpha beta gamma."))

	got, err := NewPDFExtractor().Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Alpha beta gamma.", got)
}

func TestDocxExtractor(t *testing.T) {
	body := `<w:p><w:r><w:t>Alpha beta</w:t></w:r><w:r><w:t xml:space="preserve"> gamma.</w:t></w:r></w:p>` +
		`<w:p/>` +
		`<w:p><w:r><w:t xml:space="preserve">  Delta epsilon.  </w:t></w:r></w:p>`
	path := writeFile(t, "report.docx", buildDocx(t, body))

	got, err := NewDocxExtractor().Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Alpha beta gamma.\n\nDelta epsilon.", got)
}

func TestDocxExtractorTabsAndBreaks(t *testing.T) {
	body := `<w:p><w:r><w:t>name</w:t><w:tab/><w:t>value</w:t><w:br/><w:t>next</w:t></w:r></w:p>`
	path := writeFile(t, "table.docx", buildDocx(t, body))

	got, err := NewDocxExtractor().Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "name\tvalue next", got)
}

func TestDocxExtractorMissingDocumentPart(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "empty.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	_, err = NewDocxExtractor().Extract(path)
	assert.ErrorContains(t, err, "word/document.xml not found")
}
