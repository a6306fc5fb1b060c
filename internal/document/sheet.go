package document

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"doc2db/internal/errs"
)

// sheetRows returns the rows of the workbook's active sheet, every row padded
// with "" to the width of the widest one. GetRows drops trailing empty cells,
// which would otherwise make rows with a blank last column look short.
func sheetRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "open workbook", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if sheet == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "read sheet "+sheet, err)
	}
	return padRows(rows), nil
}

func padRows(rows [][]string) [][]string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	for i, r := range rows {
		for len(r) < width {
			r = append(r, "")
		}
		rows[i] = r
	}
	return rows
}
