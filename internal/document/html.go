package document

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"doc2db/internal/errs"
)

// htmlTable reads the first <table> of an HTML page. Text is the whole
// page's visible text with white space collapsed.
func htmlTable(data []byte) (string, [][]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, errs.Wrap(errs.ErrKindInvalidInput, "parse html", err)
	}
	doc.Find("script, style").Remove()

	var rows [][]string
	doc.Find("table").First().Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, c *goquery.Selection) {
			cells = append(cells, collapse(c.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	return collapse(doc.Find("body").Text()), rows, nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
