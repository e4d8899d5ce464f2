package extract

import (
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"docanswer/internal/common"
)

// extractDOCX concatenates paragraph text in document order, then appends
// table rows as pipe-delimited cell joins. Empty paragraphs and rows are
// skipped.
func (e *Extractor) extractDOCX(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, common.WrapError(err, "open docx")
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return Result{}, common.WrapError(err, "stat docx")
	}

	doc, err := docx.Parse(f, st.Size())
	if err != nil {
		return Result{}, common.NewAppError("DOCX_PARSE",
			"cannot parse word document", common.ErrExtraction)
	}

	var b strings.Builder
	for _, it := range doc.Document.Body.Items {
		p, ok := it.(*docx.Paragraph)
		if !ok {
			continue
		}
		if s := strings.TrimSpace(p.String()); s != "" {
			b.WriteString(s)
			b.WriteByte('\n')
		}
	}
	for _, it := range doc.Document.Body.Items {
		tbl, ok := it.(*docx.Table)
		if !ok {
			continue
		}
		for _, row := range tbl.TableRows {
			cells := make([]string, 0, len(row.TableCells))
			for _, cell := range row.TableCells {
				var cb strings.Builder
				for _, p := range cell.Paragraphs {
					cb.WriteString(p.String())
				}
				cells = append(cells, strings.TrimSpace(cb.String()))
			}
			line := strings.Join(cells, " | ")
			if strings.TrimSpace(strings.ReplaceAll(line, "|", "")) == "" {
				continue
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return Result{}, common.NewAppError("DOCX_EMPTY",
			"word document contains no text", common.ErrExtraction)
	}
	return Result{Text: text, Method: MethodDOCX, Pages: 1}, nil
}
