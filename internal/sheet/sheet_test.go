package sheet

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	in := "\ufeffХостинг,Минимальная цена,Статус\n" +
		"Alpha,\"1 200,50 ₽\",ok\n" +
		"\n" +
		"Bravo \"the\" host,5,\n" +
		",,\n"
	tbl, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"Хостинг", "Минимальная цена", "Статус"}, tbl.Headers)
	assert.Equal(t, 0, tbl.Column("Хостинг"))
	assert.Equal(t, -1, tbl.Column("Недостатки"))

	require.Len(t, tbl.Rows, 2, "trailing empty record dropped")
	assert.Equal(t, 2, tbl.Rows[0].Line)
	assert.Equal(t, "1 200,50 ₽", tbl.Rows[0].Cell(1).Text)
	assert.Equal(t, 4, tbl.Rows[1].Line, "blank source line still counted")
	assert.Equal(t, `Bravo "the" host`, tbl.Rows[1].Cell(0).Text)
	assert.Nil(t, tbl.Rows[1].Cell(0).Link)
	assert.Equal(t, Cell{}, tbl.Rows[1].Cell(9))
}

const odsContent = `<?xml version="1.0" encoding="UTF-8"?>
<office:document-content
  xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
  xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0"
  xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0"
  xmlns:xlink="http://www.w3.org/1999/xlink">
 <office:body><office:spreadsheet>
  <table:table table:name="Hostings">
   <table:table-column table:number-columns-repeated="3"/>
   <table:table-row>
    <table:table-cell><text:p>Хостинг</text:p></table:table-cell>
    <table:table-cell><text:p>Статус</text:p></table:table-cell>
    <table:table-cell table:number-columns-repeated="16381"/>
   </table:table-row>
   <table:table-row>
    <table:table-cell><text:p><text:a xlink:href="https://alpha.example">Alpha</text:a></text:p></table:table-cell>
    <table:table-cell><text:p>ok</text:p></table:table-cell>
   </table:table-row>
   <table:table-row table:number-rows-repeated="2">
    <table:table-cell table:number-columns-repeated="3"/>
   </table:table-row>
   <table:table-row>
    <table:table-cell/>
    <table:table-cell><text:p>two<text:s text:c="2"/>spaces</text:p><text:p>second</text:p></table:table-cell>
   </table:table-row>
   <table:table-row table:number-rows-repeated="1048570">
    <table:table-cell table:number-columns-repeated="16384"/>
   </table:table-row>
  </table:table>
  <table:table table:name="Ignored">
   <table:table-row><table:table-cell><text:p>nope</text:p></table:table-cell></table:table-row>
  </table:table>
 </office:spreadsheet></office:body>
</office:document-content>`

func writeODS(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.ods")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("mimetype")
	require.NoError(t, err)
	_, err = w.Write([]byte("application/vnd.oasis.opendocument.spreadsheet"))
	require.NoError(t, err)
	w, err = zw.Create("content.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestReadODS(t *testing.T) {
	tbl, err := Open(writeODS(t, odsContent))
	require.NoError(t, err)

	assert.Equal(t, []string{"Хостинг", "Статус"}, tbl.Headers)
	require.Len(t, tbl.Rows, 4)

	alpha := tbl.Rows[0]
	assert.Equal(t, 2, alpha.Line)
	assert.Equal(t, "Alpha", alpha.Cell(0).Text)
	require.NotNil(t, alpha.Cell(0).Link)
	assert.Equal(t, "https://alpha.example", *alpha.Cell(0).Link)

	assert.True(t, tbl.Rows[1].Empty())
	assert.True(t, tbl.Rows[2].Empty())

	last := tbl.Rows[3]
	assert.Equal(t, 5, last.Line)
	assert.Equal(t, "", last.Cell(0).Text)
	assert.Equal(t, "two  spaces\nsecond", last.Cell(1).Text)
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	f := excelize.NewFile()
	sh := f.GetSheetName(f.GetActiveSheetIndex())
	require.NoError(t, f.SetCellValue(sh, "A1", "Хостинг"))
	require.NoError(t, f.SetCellValue(sh, "B1", "Минимальная цена"))
	require.NoError(t, f.SetCellValue(sh, "A2", "Alpha"))
	require.NoError(t, f.SetCellHyperLink(sh, "A2", "https://alpha.example", "External"))
	require.NoError(t, f.SetCellValue(sh, "B2", "4.5"))
	require.NoError(t, f.SetCellValue(sh, "A3", "Bravo"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Хостинг", "Минимальная цена"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)

	require.NotNil(t, tbl.Rows[0].Cell(0).Link)
	assert.Equal(t, "https://alpha.example", *tbl.Rows[0].Cell(0).Link)
	assert.Equal(t, "Alpha", tbl.Rows[0].Cell(0).Text)
	assert.Equal(t, "4.5", tbl.Rows[0].Cell(1).Text)

	assert.Equal(t, 3, tbl.Rows[1].Line)
	assert.Nil(t, tbl.Rows[1].Cell(0).Link)
}

func TestOpen_UnsupportedFormat(t *testing.T) {
	_, err := Open("catalog.numbers")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
