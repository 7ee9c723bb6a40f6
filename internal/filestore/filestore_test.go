package filestore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateUpload_Extensions(t *testing.T) {
	for _, name := range []string{"doc.pdf", "doc.doc", "doc.docx", "notes.txt", "UPPER.PDF"} {
		require.NoError(t, ValidateUpload(name, 1024), name)
	}
	for _, name := range []string{"archive.zip", "slides.pptx", "tool.exe", "noext", "doc.docx.sh"} {
		require.ErrorIs(t, ValidateUpload(name, 1024), ErrUnsupportedFileType, name)
	}
}

func TestValidateUpload_Size(t *testing.T) {
	require.NoError(t, ValidateUpload("doc.pdf", MaxUploadSize))
	require.ErrorIs(t, ValidateUpload("doc.pdf", MaxUploadSize+1), ErrFileTooLarge)
}

func TestSanitizePathSegment(t *testing.T) {
	require.Equal(t, "a_b_c", SanitizePathSegment(`a/b\c`))
	require.Equal(t, "2508-Plenary (2)", SanitizePathSegment("2508-Plenary (2)"))
	require.Equal(t, "what_", SanitizePathSegment("what?"))
}

func TestObjectKey_Layout(t *testing.T) {
	cases := []struct {
		kind string
		want string
	}{
		{"proposal", "data/VVC/2508-Plenary/C/1700000000000_a.docx"},
		{"revision", "data/VVC/2508-Plenary/C/revision_1700000000000_a.docx"},
		{"result", "data/VVC/2508-Plenary/OD/output_1700000000000_a.docx"},
		{"result-revision", "data/VVC/2508-Plenary/OD/output_rev_1700000000000_a.docx"},
		{"base", "data/VVC/2508-Plenary/base_1700000000000_a.docx"},
	}
	for _, tc := range cases {
		got := ObjectKey("VVC", "2508-Plenary", tc.kind, "a.docx", 1700000000000)
		require.Equal(t, tc.want, got, tc.kind)
	}
}

func TestObjectKey_SanitizesSegments(t *testing.T) {
	got := ObjectKey("V/VC", "25:08", "proposal", "a b?.docx", 1)
	require.False(t, strings.Contains(got[len("data/"):], ":"))
	require.Equal(t, "data/V_VC/25_08/C/1_a b_.docx", got)
}
