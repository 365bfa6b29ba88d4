package flatfile

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"scenecore/pkg/domain"
)

const sampleHeader = "tag,floor,offx,offy,offz,posx,posy,posz,rotx,roty,rotz,brand,count,hierarchy"

func sampleLine(tag string, floor int, x, y, z string) string {
	return strings.Join([]string{
		tag, strconv.Itoa(floor),
		"0.000000000000", "0.000000000000", "0.000000000000",
		x, y, z,
		"0.000000000000", "0.000000000000", "90.000000000000",
		"oak", "1", "2",
	}, ",")
}

func TestParseLocation(t *testing.T) {
	input := sampleHeader + "\n" +
		sampleLine("chair.standard", 0, "1.250000000000", "2.500000000000", "0.000000000000") + "\n" +
		"garbage,row\n" +
		sampleLine("desk.corner", 1, "5.000000000000", "5.000000000000", "3.000000000000") + "\n"
	doc, err := ParseLocation(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(doc.Rows))
	}
	if doc.Rows[0].Malformed {
		t.Fatalf("valid row flagged malformed")
	}
	if !doc.Rows[1].Malformed || doc.Rows[1].Raw != "garbage,row" {
		t.Fatalf("short row not preserved: %+v", doc.Rows[1])
	}
}

func TestParseRejectsNonNumericRow(t *testing.T) {
	bad := sampleLine("chair", 0, "not-a-number", "2", "3")
	doc, err := ParseLocation(strings.NewReader(sampleHeader + "\n" + bad + "\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !doc.Rows[0].Malformed {
		t.Fatalf("non-numeric row not flagged")
	}
	if doc.Rows[0].Raw != bad {
		t.Fatalf("raw text lost")
	}
}

func TestWriteRoundTripsVerbatim(t *testing.T) {
	input := sampleHeader + "\n" +
		sampleLine("chair.standard", 0, "1.250000000000", "2.500000000000", "0.000000000000") + "\n" +
		"short,malformed,row\n"
	doc, err := ParseLocation(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var out bytes.Buffer
	if err := doc.Write(&out); err != nil {
		t.Fatalf("write: %v", err)
	}
	if out.String() != input {
		t.Fatalf("round trip differs:\n%q\n%q", input, out.String())
	}
}

func TestPadLocationHeader(t *testing.T) {
	doc, _ := ParseLocation(strings.NewReader(sampleHeader + "\n"))
	padded := PadLocationHeader(doc.Header)
	if len(padded.Fields) != LocationColumns {
		t.Fatalf("padded to %d columns", len(padded.Fields))
	}
	if padded.Fields[ColExternal] != "external_id" {
		t.Fatalf("external column named %q", padded.Fields[ColExternal])
	}
	// already-padded headers are left alone
	again := PadLocationHeader(padded)
	if len(again.Fields) != LocationColumns || again.Fields[ColExternal] != "external_id" {
		t.Fatalf("double padding changed header")
	}
}

func TestItemFromRowRoundTrip(t *testing.T) {
	line := sampleLine("chair.standard", 1, "1.250000000000", "2.500000000000", "3.000000000000")
	doc, _ := ParseLocation(strings.NewReader(sampleHeader + "\n" + line + "\n"))
	it, ok := ItemFromRow(doc.Rows[0])
	if !ok {
		t.Fatalf("item rejected")
	}
	if it.Tag != "chair.standard" || it.Floor != 1 || it.Brand != "oak" || it.Count != 1 || it.Hierarchy != 2 {
		t.Fatalf("item = %+v", it)
	}
	if !it.FromImport {
		t.Fatalf("imported item not flagged FromImport")
	}
	if !it.Baseline.Seeded || it.Baseline.Position != it.Position {
		t.Fatalf("baseline not frozen at parse: %+v", it.Baseline)
	}

	row := RowFromItem(it)
	if len(row.Fields) != LocationColumns {
		t.Fatalf("synthesized row has %d columns", len(row.Fields))
	}
	if row.Fields[ColPosX] != "1.250000000000" {
		t.Fatalf("position formatting = %q", row.Fields[ColPosX])
	}
	if row.Fields[ColExternal] != "" {
		t.Fatalf("fresh item carries external id %q", row.Fields[ColExternal])
	}
}

func TestFormatCoord(t *testing.T) {
	if got := FormatCoord(1.25); got != "1.250000000000" {
		t.Fatalf("FormatCoord(1.25) = %q", got)
	}
	if got := FormatCoord(-0.5); got != "-0.500000000000" {
		t.Fatalf("FormatCoord(-0.5) = %q", got)
	}
}

func TestRewritePlates(t *testing.T) {
	header := "floor,surface,brand,a,b,c,d,e,f,g,h,i"
	rows := []string{
		"0,srf-1,oak,1,2,3,4,5,6,7,8,9",
		"1,srf-2,pine,1,2,3,4,5,6,7,8,9",
		"2,srf-3,ash,1,2,3,4,5,6,7,8,9",
		"bad-row",
	}
	doc, err := ParsePlates(strings.NewReader(header + "\n" + strings.Join(rows, "\n") + "\n"))
	if err != nil {
		t.Fatalf("parse plates: %v", err)
	}

	plates := map[int][]domain.FloorPlate{
		0: {{Floor: 0, SurfaceID: "srf-1", Brand: "walnut", BrandModified: true}},
	}
	remap := map[int]int{0: 0, 2: 1}
	out := RewritePlates(doc, plates, remap)

	if len(out.Rows) != 3 {
		t.Fatalf("rows = %d, want 3 (floor 1 dropped, malformed kept)", len(out.Rows))
	}
	if out.Rows[0].Fields[ColPlateBrand] != "walnut" {
		t.Fatalf("modified brand not rewritten: %v", out.Rows[0].Fields)
	}
	if out.Rows[1].Fields[ColPlateFloor] != "1" || out.Rows[1].Fields[ColPlateSurface] != "srf-3" {
		t.Fatalf("floor not remapped: %v", out.Rows[1].Fields)
	}
	if !out.Rows[2].Malformed {
		t.Fatalf("malformed plate row lost")
	}
	// untouched brands pass through
	if out.Rows[1].Fields[ColPlateBrand] != "ash" {
		t.Fatalf("unmodified brand rewritten: %v", out.Rows[1].Fields)
	}
}
