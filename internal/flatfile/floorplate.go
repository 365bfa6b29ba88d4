package flatfile

import (
	"io"
	"strconv"

	"scenecore/pkg/domain"
)

// Floor-plate column layout. Only the floor index and brand are ever
// rewritten; all other columns pass through.
const (
	ColPlateFloor   = 0
	ColPlateSurface = 1
	ColPlateBrand   = 2

	// MinPlateColumns is the minimum accepted floor-plate column count.
	MinPlateColumns = 12
)

// ParsePlates reads a floor-plate file. The first line is the header.
func ParsePlates(r io.Reader) (Document, error) {
	return parseDocument(r, MinPlateColumns, validPlateRow)
}

func validPlateRow(r Row) bool {
	_, ok := r.Int(ColPlateFloor)
	return ok
}

// PlateFromRow builds a floor plate record from a well-formed plate row.
func PlateFromRow(r Row) (domain.FloorPlate, bool) {
	if r.Malformed {
		return domain.FloorPlate{}, false
	}
	floor, _ := r.Int(ColPlateFloor)
	return domain.FloorPlate{
		Floor:     floor,
		SurfaceID: r.Text(ColPlateSurface),
		Brand:     r.Text(ColPlateBrand),
		Fields:    append([]string(nil), r.Fields...),
	}, true
}

// RewritePlates re-derives the floor-plate rows: the brand column is
// rewritten for user-modified plates, floor indexes are substituted under a
// remap (rows on deleted floors are dropped), and everything else passes
// through. Malformed rows are preserved verbatim. remap may be nil.
func RewritePlates(doc Document, plates map[int][]domain.FloorPlate, remap map[int]int) Document {
	modified := make(map[string]domain.FloorPlate)
	for _, row := range plates {
		for _, p := range row {
			if p.BrandModified {
				modified[p.SurfaceID] = p
			}
		}
	}
	out := Document{Header: doc.Header.Clone()}
	for _, row := range doc.Rows {
		if row.Malformed {
			out.Rows = append(out.Rows, row.Clone())
			continue
		}
		cp := row.Clone()
		if remap != nil {
			floor, _ := cp.Int(ColPlateFloor)
			mapped, ok := remap[floor]
			if !ok {
				continue
			}
			cp.Fields[ColPlateFloor] = strconv.Itoa(mapped)
		}
		if p, ok := modified[cp.Text(ColPlateSurface)]; ok {
			cp.Fields[ColPlateBrand] = p.Brand
		}
		out.Rows = append(out.Rows, cp)
	}
	return out
}
