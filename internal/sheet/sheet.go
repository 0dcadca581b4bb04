// internal/sheet/sheet.go
//
// Tabular input for the importer.
//
// Context
// -------
// Operators maintain the catalog in office spreadsheets.  Every supported
// format is reduced to the same Table: a header row and data rows whose
// cells keep both the visible text and, where the format has one, the
// hyperlink target attached to the cell.  Normalisation happens elsewhere;
// readers only extract.
//
// Notes
// -----
//   - Row.Line is the 1-based line in the source, header included, so
//     diagnostics point at what the operator sees.
//   - Oxford commas, two spaces after periods.
package sheet

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned by Open for unknown file extensions.
var ErrUnsupportedFormat = errors.New("sheet: unsupported format")

// Cell is one spreadsheet cell.  Link is nil when the cell carries no
// structured hyperlink and points at "" when it carries an empty one.
type Cell struct {
	Text string
	Link *string
}

// Empty reports whether the cell has neither text nor link.
func (c Cell) Empty() bool {
	return strings.TrimSpace(c.Text) == "" && (c.Link == nil || *c.Link == "")
}

// Row is one data row.
type Row struct {
	Line  int
	Cells []Cell
}

// Cell returns the cell at column i, or the zero Cell when the row is
// shorter.
func (r Row) Cell(i int) Cell {
	if i < 0 || i >= len(r.Cells) {
		return Cell{}
	}
	return r.Cells[i]
}

// Empty reports whether every cell is empty.
func (r Row) Empty() bool {
	for _, c := range r.Cells {
		if !c.Empty() {
			return false
		}
	}
	return true
}

// Table is a header row followed by data rows.
type Table struct {
	Headers []string
	Rows    []Row
}

// Column returns the index of the header equal to label after trimming, or
// -1 when absent.
func (t *Table) Column(label string) int {
	label = strings.TrimSpace(label)
	for i, h := range t.Headers {
		if strings.TrimSpace(h) == label {
			return i
		}
	}
	return -1
}

// Open reads path with the reader matching its extension.
func Open(path string) (*Table, error) {
	var (
		t   *Table
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		t, err = ReadXLSX(path)
	case ".ods":
		t, err = ReadODS(path)
	case ".csv":
		t, err = ReadCSVFile(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// fromGrid turns a ragged grid into a Table: the first row becomes headers
// and trailing empty rows are dropped.  lines[i] is the source line of
// grid[i]; nil means grid rows are consecutive from line 1.
func fromGrid(grid [][]Cell, lines []int) *Table {
	t := &Table{}
	if len(grid) == 0 {
		return t
	}
	for _, c := range grid[0] {
		t.Headers = append(t.Headers, strings.TrimSpace(c.Text))
	}
	last := len(grid) - 1
	for last > 0 && (Row{Cells: grid[last]}).Empty() {
		last--
	}
	for i := 1; i <= last; i++ {
		line := i + 1
		if lines != nil {
			line = lines[i]
		}
		t.Rows = append(t.Rows, Row{Line: line, Cells: grid[i]})
	}
	return t
}
