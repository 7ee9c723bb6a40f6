// Package extract pulls the title and abstract out of uploaded Word
// documents. Contribution templates carry a cover table whose labelled
// cells ("Title:", "Abstract:") hold the values; extraction scans the
// document tables for those labels and takes the neighbouring cell.
//
// Extraction is best effort. A document without the cover table, or a
// payload that is not a real docx archive, yields empty results and no
// error worth failing an upload over.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// DocumentInfo holds the fields recovered from a docx payload. Either
// field may be empty when the document carries no matching cell.
type DocumentInfo struct {
	Title    string
	Abstract string
}

var errNoDocumentXML = errors.New("docx: word/document.xml not found")

// FromDocx parses a .docx payload and scans its tables for the title
// and abstract cells.
func FromDocx(data []byte) (DocumentInfo, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return DocumentInfo{}, err
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return DocumentInfo{}, err
		}
		defer rc.Close()
		return scanTables(rc)
	}
	return DocumentInfo{}, errNoDocumentXML
}

// scanTables walks the WordprocessingML token stream collecting table
// cell texts row by row. A cell whose text is "title" or "title:"
// (case-insensitive) names the next cell in the row as the title, and
// likewise for the abstract. The first match of each wins.
func scanTables(r io.Reader) (DocumentInfo, error) {
	var info DocumentInfo
	dec := xml.NewDecoder(r)

	var (
		cellDepth int
		cell      strings.Builder
		row       []string
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return info, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tc":
				cellDepth++
				if cellDepth == 1 {
					cell.Reset()
				}
			case "tr":
				if cellDepth == 0 {
					row = row[:0]
				}
			}
		case xml.CharData:
			if cellDepth > 0 {
				cell.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tc":
				if cellDepth == 1 {
					row = append(row, strings.TrimSpace(cell.String()))
				}
				if cellDepth > 0 {
					cellDepth--
				}
			case "tr":
				if cellDepth == 0 {
					applyRow(&info, row)
					if info.Title != "" && info.Abstract != "" {
						return info, nil
					}
				}
			}
		}
	}
	return info, nil
}

func applyRow(info *DocumentInfo, cells []string) {
	for i := 0; i+1 < len(cells); i++ {
		switch strings.ToLower(cells[i]) {
		case "title", "title:":
			if info.Title == "" {
				info.Title = cells[i+1]
			}
		case "abstract", "abstract:":
			if info.Abstract == "" {
				info.Abstract = cells[i+1]
			}
		}
	}
}
