package sheet

import (
	"encoding/csv"
	"io"
	"os"
	"strings"
)

const bom = "\ufeff"

// ReadCSVFile opens path and hands it to ReadCSV.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads comma-separated values exported from a spreadsheet.  CSV
// has no hyperlinks, so every Cell.Link is nil.  A UTF-8 byte order mark on
// the first header is removed.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		grid  [][]Cell
		lines []int
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(grid) == 0 && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], bom)
		}
		cells := make([]Cell, len(rec))
		for i, v := range rec {
			cells[i] = Cell{Text: v}
		}
		line, _ := cr.FieldPos(0)
		grid = append(grid, cells)
		lines = append(lines, line)
	}
	return fromGrid(grid, lines), nil
}
