package sheet

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the active worksheet of an Office Open XML workbook.
// Hyperlinks come from the sheet's relationship parts; a cell whose formula
// is HYPERLINK(...) without a stored link keeps the formula text so the
// importer can still recover the target.
func ReadXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, err
	}

	grid := make([][]Cell, len(rows))
	for r, values := range rows {
		cells := make([]Cell, len(values))
		for c, v := range values {
			cells[c] = Cell{Text: v}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			ok, target, err := f.GetCellHyperLink(name, ref)
			if err != nil {
				return nil, err
			}
			if ok {
				cells[c].Link = &target
				continue
			}
			if formula, err := f.GetCellFormula(name, ref); err == nil &&
				strings.HasPrefix(strings.ToUpper(strings.TrimPrefix(formula, "=")), "HYPERLINK(") {
				cells[c].Text = "=" + strings.TrimPrefix(formula, "=")
			}
		}
		grid[r] = cells
	}
	return fromGrid(grid, nil), nil
}
