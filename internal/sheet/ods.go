package sheet

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
)

const (
	nsTable = "urn:oasis:names:tc:opendocument:xmlns:table:1.0"
	nsText  = "urn:oasis:names:tc:opendocument:xmlns:text:1.0"
	nsXlink = "http://www.w3.org/1999/xlink"
)

// ReadODS reads the first table of an OpenDocument spreadsheet.
func ReadODS(path string) (*Table, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "content.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return readODSContent(rc)
	}
	return nil, errors.New("ods: content.xml not found")
}

// odsParser streams content.xml.  Repeated rows and columns are expanded
// only when something non-empty follows them, so the 1M-row filler that
// office suites write at the end of a sheet costs nothing.
type odsParser struct {
	grid      [][]Cell
	emptyRows int

	row       []Cell
	rowRepeat int
	emptyCols int

	inCell    bool
	inPara    int
	text      strings.Builder
	paras     int
	link      *string
	colRepeat int
}

func readODSContent(r io.Reader) (*Table, error) {
	dec := xml.NewDecoder(r)
	p := &odsParser{}
	depth, tableDepth := 0, 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Space == nsTable && t.Name.Local == "table" {
				if tableDepth == 0 {
					tableDepth = depth
				}
				continue
			}
			if tableDepth > 0 {
				p.start(t)
			}
		case xml.EndElement:
			if tableDepth > 0 && depth == tableDepth {
				return fromGrid(p.grid, nil), nil
			}
			if tableDepth > 0 {
				p.end(t)
			}
			depth--
		case xml.CharData:
			if p.inCell && p.inPara > 0 {
				p.text.Write(t)
			}
		}
	}
	return fromGrid(p.grid, nil), nil
}

func attr(e xml.StartElement, space, local string) (string, bool) {
	for _, a := range e.Attr {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

func repeat(e xml.StartElement, local string) int {
	v, ok := attr(e, nsTable, local)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (p *odsParser) start(e xml.StartElement) {
	switch {
	case e.Name.Space == nsTable && e.Name.Local == "table-row":
		p.row = nil
		p.emptyCols = 0
		p.rowRepeat = repeat(e, "number-rows-repeated")
	case e.Name.Space == nsTable && (e.Name.Local == "table-cell" || e.Name.Local == "covered-table-cell"):
		p.inCell = true
		p.text.Reset()
		p.paras = 0
		p.link = nil
		p.colRepeat = repeat(e, "number-columns-repeated")
	case !p.inCell:
	case e.Name.Space == nsText && e.Name.Local == "p":
		if p.paras > 0 {
			p.text.WriteByte('\n')
		}
		p.paras++
		p.inPara++
	case e.Name.Space == nsText && e.Name.Local == "a":
		if href, ok := attr(e, nsXlink, "href"); ok && p.link == nil {
			p.link = &href
		}
	case e.Name.Space == nsText && e.Name.Local == "s":
		n := 1
		if v, ok := attr(e, nsText, "c"); ok {
			if c, err := strconv.Atoi(v); err == nil && c > 0 {
				n = c
			}
		}
		p.text.WriteString(strings.Repeat(" ", n))
	case e.Name.Space == nsText && e.Name.Local == "tab":
		p.text.WriteByte('\t')
	case e.Name.Space == nsText && e.Name.Local == "line-break":
		p.text.WriteByte('\n')
	}
}

func (p *odsParser) end(e xml.EndElement) {
	if e.Name.Space == nsText && e.Name.Local == "p" && p.inPara > 0 {
		p.inPara--
		return
	}
	if e.Name.Space != nsTable {
		return
	}
	switch e.Name.Local {
	case "table-cell", "covered-table-cell":
		p.inCell = false
		p.inPara = 0
		c := Cell{Text: p.text.String(), Link: p.link}
		if c.Empty() {
			p.emptyCols += p.colRepeat
			return
		}
		for ; p.emptyCols > 0; p.emptyCols-- {
			p.row = append(p.row, Cell{})
		}
		for i := 0; i < p.colRepeat; i++ {
			p.row = append(p.row, c)
		}
	case "table-row":
		if len(p.row) == 0 {
			p.emptyRows += p.rowRepeat
			return
		}
		for ; p.emptyRows > 0; p.emptyRows-- {
			p.grid = append(p.grid, nil)
		}
		for i := 0; i < p.rowRepeat; i++ {
			p.grid = append(p.grid, p.row)
		}
	}
}
