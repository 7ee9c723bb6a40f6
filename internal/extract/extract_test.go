package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildDocx assembles a minimal docx archive whose word/document.xml
// contains the given body markup.
func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	doc := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>%s</w:body>
</w:document>`, body)
	_, err = w.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func coverRow(label, value string) string {
	return fmt.Sprintf(`<w:tr>
<w:tc><w:p><w:r><w:t>%s</w:t></w:r></w:p></w:tc>
<w:tc><w:p><w:r><w:t>%s</w:t></w:r></w:p></w:tc>
</w:tr>`, label, value)
}

func TestFromDocx_TitleAndAbstract(t *testing.T) {
	data := buildDocx(t, `<w:tbl>`+
		coverRow("Title:", "Neural codec improvements")+
		coverRow("Abstract:", "Describes rate savings on class B sequences.")+
		`</w:tbl>`)

	info, err := FromDocx(data)
	require.NoError(t, err)
	require.Equal(t, "Neural codec improvements", info.Title)
	require.Equal(t, "Describes rate savings on class B sequences.", info.Abstract)
}

func TestFromDocx_LabelVariants(t *testing.T) {
	// no colon, mixed case
	data := buildDocx(t, `<w:tbl>`+
		coverRow("TITLE", "Upper case label")+
		coverRow("abstract", "lower case label")+
		`</w:tbl>`)

	info, err := FromDocx(data)
	require.NoError(t, err)
	require.Equal(t, "Upper case label", info.Title)
	require.Equal(t, "lower case label", info.Abstract)
}

func TestFromDocx_FirstMatchWins(t *testing.T) {
	data := buildDocx(t, `<w:tbl>`+
		coverRow("Title:", "first")+
		`</w:tbl><w:tbl>`+
		coverRow("Title:", "second")+
		`</w:tbl>`)

	info, err := FromDocx(data)
	require.NoError(t, err)
	require.Equal(t, "first", info.Title)
}

func TestFromDocx_SplitRuns(t *testing.T) {
	// Word splits cell text across several runs; the cell text is the
	// concatenation.
	body := `<w:tbl><w:tr>
<w:tc><w:p><w:r><w:t>Ti</w:t></w:r><w:r><w:t>tle:</w:t></w:r></w:p></w:tc>
<w:tc><w:p><w:r><w:t>Split </w:t></w:r><w:r><w:t>value</w:t></w:r></w:p></w:tc>
</w:tr></w:tbl>`
	info, err := FromDocx(buildDocx(t, body))
	require.NoError(t, err)
	require.Equal(t, "Split value", info.Title)
}

func TestFromDocx_NoCoverTable(t *testing.T) {
	data := buildDocx(t, `<w:p><w:r><w:t>plain paragraph text</w:t></w:r></w:p>`)
	info, err := FromDocx(data)
	require.NoError(t, err)
	require.Empty(t, info.Title)
	require.Empty(t, info.Abstract)
}

func TestFromDocx_MissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = FromDocx(buf.Bytes())
	require.ErrorIs(t, err, errNoDocumentXML)
}

func TestFromDocx_NotAZip(t *testing.T) {
	_, err := FromDocx([]byte("this is not a zip archive"))
	require.Error(t, err)
}
