package docx

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestDOCX creates a minimal DOCX file on disk.
func writeTestDOCX(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.docx")

	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)

	contentTypes, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))
	require.NoError(t, err)

	if documentXML != "" {
		doc, err := w.Create("word/document.xml")
		require.NoError(t, err)
		_, err = doc.Write([]byte(documentXML))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestReadText_Paragraphs(t *testing.T) {
	path := writeTestDOCX(t, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Marathon plan</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Week 1: </w:t></w:r><w:r><w:t>30 km</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>Week 2: 35 km</w:t></w:r></w:p>
</w:body>
</w:document>`)

	text, err := NewReader().ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "Marathon plan\nWeek 1: 30 km\n\nWeek 2: 35 km", text)
}

func TestReadText_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.docx")
	require.NoError(t, os.WriteFile(path, []byte("plain text pretending"), 0644))

	_, err := NewReader().ReadText(path)
	assert.Error(t, err)
}

func TestReadText_MissingDocumentPart(t *testing.T) {
	path := writeTestDOCX(t, "")

	_, err := NewReader().ReadText(path)
	assert.ErrorIs(t, err, errNoDocumentPart)
}

func TestReadText_BadXML(t *testing.T) {
	path := writeTestDOCX(t, "<w:document><w:body><w:p>")

	_, err := NewReader().ReadText(path)
	assert.Error(t, err)
}
