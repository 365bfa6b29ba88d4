// Package flatfile reads and writes the comma-delimited location record and
// floor-plate files. Rows keep their raw text so anything the parser does
// not understand passes through unmodified: the codec favors data-loss
// avoidance over normalization.
package flatfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"scenecore/pkg/domain"
)

// Location record column layout.
const (
	ColTag       = 0
	ColFloor     = 1
	ColOffsetX   = 2
	ColOffsetY   = 3
	ColOffsetZ   = 4
	ColPosX      = 5
	ColPosY      = 6
	ColPosZ      = 7
	ColRotX      = 8
	ColRotY      = 9
	ColRotZ      = 10
	ColBrand     = 11
	ColCount     = 12
	ColHierarchy = 13
	ColExternal  = 14

	// MinLocationColumns is the minimum accepted column count; shorter rows
	// are preserved verbatim.
	MinLocationColumns = 14
	// LocationColumns is the guaranteed output column count.
	LocationColumns = 15
)

// Row is one flat-file line. Malformed rows carry only Raw and are written
// back byte for byte.
type Row struct {
	Fields    []string
	Raw       string
	Malformed bool
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	cp := r
	cp.Fields = append([]string(nil), r.Fields...)
	return cp
}

// Float parses the field at index i.
func (r Row) Float(i int) (float64, bool) {
	if i >= len(r.Fields) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(r.Fields[i]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Int parses the field at index i.
func (r Row) Int(i int) (int, bool) {
	if i >= len(r.Fields) {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(r.Fields[i]))
	if err != nil {
		return 0, false
	}
	return v, true
}

// Text returns the field at index i, or "" when absent.
func (r Row) Text(i int) string {
	if i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// Document is a parsed flat file: a header line plus data rows.
type Document struct {
	Header Row
	Rows   []Row
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	cp := Document{Header: d.Header.Clone(), Rows: make([]Row, 0, len(d.Rows))}
	for _, r := range d.Rows {
		cp.Rows = append(cp.Rows, r.Clone())
	}
	return cp
}

func parseRow(line string, minColumns int) Row {
	row := Row{Raw: line}
	fields := strings.Split(line, ",")
	if len(fields) < minColumns {
		row.Malformed = true
		return row
	}
	row.Fields = fields
	return row
}

// ParseLocation reads a location record file. The first line is the header.
func ParseLocation(r io.Reader) (Document, error) {
	return parseDocument(r, MinLocationColumns, validLocationRow)
}

func parseDocument(r io.Reader, minColumns int, valid func(Row) bool) (Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var doc Document
	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if first {
			doc.Header = parseRow(line, 0)
			first = false
			continue
		}
		if line == "" {
			continue
		}
		row := parseRow(line, minColumns)
		if !row.Malformed && !valid(row) {
			row = Row{Raw: line, Malformed: true}
		}
		doc.Rows = append(doc.Rows, row)
	}
	if err := scanner.Err(); err != nil {
		return Document{}, fmt.Errorf("scan flat file: %w", err)
	}
	return doc, nil
}

// validLocationRow checks that the numeric columns parse; rows that fail are
// treated as malformed and preserved verbatim.
func validLocationRow(r Row) bool {
	if _, ok := r.Int(ColFloor); !ok {
		return false
	}
	for i := ColOffsetX; i <= ColRotZ; i++ {
		if _, ok := r.Float(i); !ok {
			return false
		}
	}
	if _, ok := r.Int(ColCount); !ok {
		return false
	}
	if _, ok := r.Int(ColHierarchy); !ok {
		return false
	}
	return true
}

// Write serializes the document. Malformed rows are written from Raw.
func (d Document) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := writeRow(bw, d.Header); err != nil {
		return err
	}
	for _, row := range d.Rows {
		if err := writeRow(bw, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeRow(w *bufio.Writer, r Row) error {
	line := r.Raw
	if !r.Malformed {
		line = strings.Join(r.Fields, ",")
	}
	if _, err := w.WriteString(line); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

// PadLocationHeader extends the header to the guaranteed 15-column layout,
// naming the appended external identifier column.
func PadLocationHeader(h Row) Row {
	out := h.Clone()
	if out.Malformed {
		out = Row{Fields: strings.Split(out.Raw, ","), Raw: out.Raw}
	}
	for len(out.Fields) < MinLocationColumns {
		out.Fields = append(out.Fields, "")
	}
	if len(out.Fields) < LocationColumns {
		out.Fields = append(out.Fields, "external_id")
	}
	return out
}

// FormatCoord renders a coordinate with the high fractional precision the
// fingerprint match depends on.
func FormatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 12, 64)
}

// ItemFromRow builds a placed item from a well-formed location row. The item
// carries no identifier; the identity manager assigns one at import.
func ItemFromRow(r Row) (domain.PlacedItem, bool) {
	if r.Malformed {
		return domain.PlacedItem{}, false
	}
	floor, _ := r.Int(ColFloor)
	count, _ := r.Int(ColCount)
	hierarchy, _ := r.Int(ColHierarchy)
	read := func(i int) float64 { v, _ := r.Float(i); return v }
	it := domain.PlacedItem{
		Tag:          r.Text(ColTag),
		Floor:        floor,
		OriginOffset: domain.Vec3{X: read(ColOffsetX), Y: read(ColOffsetY), Z: read(ColOffsetZ)},
		Position:     domain.Vec3{X: read(ColPosX), Y: read(ColPosY), Z: read(ColPosZ)},
		Rotation:     domain.Vec3{X: read(ColRotX), Y: read(ColRotY), Z: read(ColRotZ)},
		Brand:        r.Text(ColBrand),
		Count:        count,
		Hierarchy:    hierarchy,
		ExternalID:   r.Text(ColExternal),
		FromImport:   true,
	}
	it.SeedBaseline()
	return it, true
}

// RowFromItem synthesizes a full-width location row for a newly created item.
func RowFromItem(it domain.PlacedItem) Row {
	fields := make([]string, LocationColumns)
	fields[ColTag] = it.Tag
	fields[ColFloor] = strconv.Itoa(it.Floor)
	fields[ColOffsetX] = FormatCoord(it.OriginOffset.X)
	fields[ColOffsetY] = FormatCoord(it.OriginOffset.Y)
	fields[ColOffsetZ] = FormatCoord(it.OriginOffset.Z)
	fields[ColPosX] = FormatCoord(it.Position.X)
	fields[ColPosY] = FormatCoord(it.Position.Y)
	fields[ColPosZ] = FormatCoord(it.Position.Z)
	fields[ColRotX] = FormatCoord(it.Rotation.X)
	fields[ColRotY] = FormatCoord(it.Rotation.Y)
	fields[ColRotZ] = FormatCoord(it.Rotation.Z)
	fields[ColBrand] = it.Brand
	fields[ColCount] = strconv.Itoa(it.Count)
	fields[ColHierarchy] = strconv.Itoa(it.Hierarchy)
	fields[ColExternal] = it.ExternalID
	return Row{Fields: fields}
}
