package extract

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/bid-docs/constants"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// WordExtractor reads body paragraphs and tables from a .docx package.
type WordExtractor struct {
	logger *slog.Logger
}

func NewWordExtractor(logger *slog.Logger) *WordExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &WordExtractor{logger: logger}
}

func (x *WordExtractor) Extract(ctx context.Context, path string) (ParsedDocument, error) {
	body, err := readDocx(path)
	if err != nil {
		return ParsedDocument{}, err
	}

	var content []string
	for _, p := range body.paragraphs {
		if strings.TrimSpace(p) != "" {
			content = append(content, p)
		}
	}
	if len(body.tables) > 0 {
		content = append(content, "\n--- 表格内容 ---")
		for i, table := range body.tables {
			content = append(content, fmt.Sprintf("\n表格 %d:", i+1))
			for _, row := range table {
				content = append(content, joinCells(row))
			}
		}
	}

	x.logger.Debug("docx parsed", "path", path, "paragraphs", len(body.paragraphs), "tables", len(body.tables))
	return ParsedDocument{
		Content: strings.Join(content, "\n"),
		Metadata: Metadata{
			Type:        constants.Word,
			FileName:    filepath.Base(path),
			Paragraphs:  len(body.paragraphs),
			TablesCount: len(body.tables),
		},
	}, nil
}

type docxBody struct {
	paragraphs []string    // every top-level body paragraph, empty ones included
	tables     []TableGrid // top-level tables; nested table text stays in its cell
}

func readDocx(path string) (docxBody, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return docxBody{}, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return docxBody{}, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return docxBody{}, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	return parseDocumentXML(rc)
}

func parseDocumentXML(r io.Reader) (docxBody, error) {
	var (
		body      docxBody
		para      strings.Builder
		cellParas []string
		row       []string
		table     TableGrid
		tblDepth  int
		inText    bool
	)

	decoder := xml.NewDecoder(r)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return docxBody{}, fmt.Errorf("decode document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				para.Reset()
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			case "tbl":
				tblDepth++
				if tblDepth == 1 {
					table = nil
				}
			case "tr":
				if tblDepth == 1 {
					row = nil
				}
			case "tc":
				if tblDepth == 1 {
					cellParas = nil
				}
			}

		case xml.CharData:
			if inText {
				para.Write(t)
			}

		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tblDepth == 0 {
					body.paragraphs = append(body.paragraphs, para.String())
				} else {
					cellParas = append(cellParas, para.String())
				}
				para.Reset()
			case "tc":
				if tblDepth == 1 {
					row = append(row, strings.Join(cellParas, "\n"))
				}
			case "tr":
				if tblDepth == 1 {
					table = append(table, row)
				}
			case "tbl":
				if tblDepth == 1 {
					body.tables = append(body.tables, table)
				}
				tblDepth--
			}
		}
	}
	return body, nil
}
