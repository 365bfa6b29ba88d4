package reconcile

import (
	"bytes"
	"strings"
	"testing"

	"scenecore/internal/flatfile"
	"scenecore/pkg/domain"
)

const header = "tag,floor,offx,offy,offz,posx,posy,posz,rotx,roty,rotz,brand,count,hierarchy"

func line(tag string, floor int, x, y string) string {
	return lineCount(tag, floor, x, y, 1)
}

func lineCount(tag string, floor int, x, y string, count int) string {
	return tag + "," + itoa(floor) +
		",0.000000000000,0.000000000000,0.000000000000," +
		x + "," + y + ",0.000000000000" +
		",0.000000000000,0.000000000000,0.000000000000,oak," + itoa(count) + ",2"
}

func itoa(i int) string {
	if i < 0 || i > 9 {
		panic("single digit only")
	}
	return string(rune('0' + i))
}

func parse(t *testing.T, lines ...string) flatfile.Document {
	t.Helper()
	doc, err := flatfile.ParseLocation(strings.NewReader(header + "\n" + strings.Join(lines, "\n") + "\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func itemOf(t *testing.T, doc flatfile.Document, i int) domain.PlacedItem {
	t.Helper()
	it, ok := flatfile.ItemFromRow(doc.Rows[i])
	if !ok {
		t.Fatalf("row %d not itemizable", i)
	}
	it.ID = "item-" + itoa(i)
	return it
}

func render(t *testing.T, doc flatfile.Document) string {
	t.Helper()
	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	return buf.String()
}

func TestUntouchedRowsRoundTripByteForByte(t *testing.T) {
	l0 := line("chair.standard", 0, "1.250000000000", "2.500000000000")
	l1 := line("desk.corner", 1, "5.000000000000", "6.000000000000")
	doc := parse(t, l0, l1)
	items := []domain.PlacedItem{itemOf(t, doc, 0), itemOf(t, doc, 1)}

	out := Reconcile(Input{Document: doc, Items: items}, Options{})
	got := render(t, out)
	// Each pre-existing 14-column row gains exactly one empty trailing column.
	want := header + ",external_id\n" + l0 + ",\n" + l1 + ",\n"
	if got != want {
		t.Fatalf("output differs:\n got %q\nwant %q", got, want)
	}
}

func TestDivergedColumnsRewritten(t *testing.T) {
	l0 := line("chair.standard", 0, "1.250000000000", "2.500000000000")
	doc := parse(t, l0)
	it := itemOf(t, doc, 0)
	it.Position = domain.Vec3{X: 9, Y: 9, Z: 0}
	it.Flags.Moved = true
	it.Brand = "walnut" // diverged without a flag; rewritten all the same
	it.ExternalID = "ext-7"

	out := Reconcile(Input{Document: doc, Items: []domain.PlacedItem{it}}, Options{})
	row := out.Rows[0]
	if row.Fields[flatfile.ColPosX] != "9.000000000000" {
		t.Fatalf("position not rewritten: %v", row.Fields)
	}
	if row.Fields[flatfile.ColBrand] != "walnut" {
		t.Fatalf("diverged brand not rewritten: %v", row.Fields)
	}
	// Columns that still equal the baseline keep the source bytes.
	if row.Fields[flatfile.ColRotZ] != "0.000000000000" {
		t.Fatalf("rotation disturbed: %v", row.Fields)
	}
	if row.Fields[flatfile.ColCount] != "1" {
		t.Fatalf("count disturbed: %v", row.Fields)
	}
	if row.Fields[flatfile.ColExternal] != "ext-7" {
		t.Fatalf("external id missing: %v", row.Fields)
	}
}

func TestSplitPartsCarryReducedCounts(t *testing.T) {
	l0 := lineCount("desk.corner", 1, "5.000000000000", "6.000000000000", 2)
	doc := parse(t, l0)
	src := itemOf(t, doc, 0)

	// A stack split leaves the source tombstoned and the parts carrying the
	// source's frozen baseline, so one part reclaims the row and the other
	// is appended.
	retired := src
	retired.ForDelete = true
	retired.Flags = domain.ChangeFlags{Split: true}
	items := []domain.PlacedItem{retired}
	for i := 0; i < 2; i++ {
		part := src
		part.ID = "part-" + itoa(i)
		part.Count = 1
		part.FromImport = false
		part.ExternalID = ""
		part.Flags = domain.ChangeFlags{Split: true, CountChanged: true}
		items = append(items, part)
	}

	out := Reconcile(Input{Document: doc, Items: items}, Options{})
	if len(out.Rows) != 2 {
		t.Fatalf("rows = %d, want matched row plus one appended part", len(out.Rows))
	}
	total := 0
	for _, row := range out.Rows {
		if got := row.Fields[flatfile.ColCount]; got != "1" {
			t.Fatalf("part count column = %q, want 1 (%v)", got, row.Fields)
		}
		n, _ := row.Int(flatfile.ColCount)
		total += n
	}
	if total != 2 {
		t.Fatalf("total count = %d, want the pre-split quantity 2", total)
	}
}

func TestMatchingSurvivesEdits(t *testing.T) {
	l0 := line("chair.standard", 0, "1.250000000000", "2.500000000000")
	doc := parse(t, l0)
	it := itemOf(t, doc, 0)
	// Every live field drifts; the baseline fingerprint still keys the row.
	it.Position = domain.Vec3{X: -4, Y: 12, Z: 3}
	it.Rotation = domain.Vec3{Z: 180}
	it.Floor = 2
	it.Flags = domain.ChangeFlags{Moved: true, Rotated: true, FloorChanged: true}

	out := Reconcile(Input{Document: doc, Items: []domain.PlacedItem{it}}, Options{})
	if len(out.Rows) != 1 {
		t.Fatalf("rows = %d, want matched update", len(out.Rows))
	}
	if out.Rows[0].Fields[flatfile.ColFloor] != "2" {
		t.Fatalf("floor not rewritten: %v", out.Rows[0].Fields)
	}
}

func TestDeletedRowDropped(t *testing.T) {
	l0 := line("chair.standard", 0, "1.250000000000", "2.500000000000")
	l1 := line("desk.corner", 1, "5.000000000000", "6.000000000000")
	doc := parse(t, l0, l1)
	gone := itemOf(t, doc, 0)
	kept := itemOf(t, doc, 1)

	out := Reconcile(Input{
		Document: doc,
		Items:    []domain.PlacedItem{kept},
		Deleted:  []domain.PlacedItem{gone},
	}, Options{})
	if len(out.Rows) != 1 || out.Rows[0].Fields[flatfile.ColTag] != "desk.corner" {
		t.Fatalf("deleted row survived: %+v", out.Rows)
	}
}

func TestTombstonedRowDropped(t *testing.T) {
	l0 := line("chair.standard", 0, "1.250000000000", "2.500000000000")
	doc := parse(t, l0)
	it := itemOf(t, doc, 0)
	it.ForDelete = true

	out := Reconcile(Input{Document: doc, Items: []domain.PlacedItem{it}}, Options{})
	if len(out.Rows) != 0 {
		t.Fatalf("tombstoned row survived: %+v", out.Rows)
	}
}

func TestUnknownRowsPreservedVerbatim(t *testing.T) {
	known := line("chair.standard", 0, "1.250000000000", "2.500000000000")
	stranger := line("plant.ficus", 0, "8.000000000000", "8.000000000000")
	malformed := "short,row"
	doc := parse(t, known, stranger, malformed)
	it := itemOf(t, doc, 0)

	out := Reconcile(Input{Document: doc, Items: []domain.PlacedItem{it}}, Options{})
	got := render(t, out)
	if !strings.Contains(got, stranger+"\n") {
		t.Fatalf("unknown row altered:\n%s", got)
	}
	if !strings.Contains(got, malformed+"\n") {
		t.Fatalf("malformed row lost:\n%s", got)
	}
}

func TestMigratedTagsDropped(t *testing.T) {
	migrated := line("door.single", 0, "3.000000000000", "3.000000000000")
	doc := parse(t, migrated)

	out := Reconcile(Input{Document: doc}, Options{
		MigratedTags: map[string]bool{"door.single": true},
	})
	if len(out.Rows) != 0 {
		t.Fatalf("migrated row survived: %+v", out.Rows)
	}
}

func TestRemapDropsAndRewritesFloors(t *testing.T) {
	onKept := line("chair.standard", 2, "1.000000000000", "1.000000000000")
	onGone := line("desk.corner", 1, "2.000000000000", "2.000000000000")
	doc := parse(t, onKept, onGone)
	it := itemOf(t, doc, 0)

	out := Reconcile(Input{Document: doc, Items: []domain.PlacedItem{it}}, Options{
		Remap: map[int]int{0: 0, 2: 1},
	})
	if len(out.Rows) != 1 {
		t.Fatalf("rows = %d, want row on deleted floor dropped", len(out.Rows))
	}
	if out.Rows[0].Fields[flatfile.ColFloor] != "1" {
		t.Fatalf("floor not remapped: %v", out.Rows[0].Fields)
	}
}

func TestCreatedItemsAppended(t *testing.T) {
	existing := line("chair.standard", 0, "1.250000000000", "2.500000000000")
	doc := parse(t, existing)
	imported := itemOf(t, doc, 0)

	created := domain.PlacedItem{
		ID:       "fresh-1",
		Tag:      "lamp.floor",
		Floor:    0,
		Position: domain.Vec3{X: 4, Y: 4},
		Brand:    "brass",
		Count:    1,
	}
	created.SeedBaseline()

	out := Reconcile(Input{Document: doc, Items: []domain.PlacedItem{imported, created}}, Options{})
	if len(out.Rows) != 2 {
		t.Fatalf("rows = %d, want appended creation", len(out.Rows))
	}
	appended := out.Rows[1]
	if appended.Fields[flatfile.ColTag] != "lamp.floor" {
		t.Fatalf("appended row = %v", appended.Fields)
	}
	if len(appended.Fields) != flatfile.LocationColumns {
		t.Fatalf("appended row has %d columns", len(appended.Fields))
	}
}

func TestCreatedItemsFollowRemap(t *testing.T) {
	doc := parse(t, line("chair.standard", 0, "1.000000000000", "1.000000000000"))
	imported := itemOf(t, doc, 0)

	onKept := domain.PlacedItem{ID: "a", Tag: "lamp.floor", Floor: 2, Count: 1}
	onKept.SeedBaseline()
	onGone := domain.PlacedItem{ID: "b", Tag: "lamp.desk", Floor: 1, Count: 1}
	onGone.SeedBaseline()

	out := Reconcile(Input{Document: doc, Items: []domain.PlacedItem{imported, onKept, onGone}}, Options{
		Remap: map[int]int{0: 0, 2: 1},
	})
	if len(out.Rows) != 2 {
		t.Fatalf("rows = %d, want creation on deleted floor skipped", len(out.Rows))
	}
	if out.Rows[1].Fields[flatfile.ColFloor] != "1" {
		t.Fatalf("synthesized floor not remapped: %v", out.Rows[1].Fields)
	}
}

func TestStaleTombstoneBeatsUnknownAndPasteGetsOwnRow(t *testing.T) {
	l0 := line("chair.standard", 0, "1.250000000000", "2.500000000000")
	doc := parse(t, l0)

	// The import was tombstoned, then a paste landed a copy nearby. The
	// original row drops instead of surviving as an unknown stranger; the
	// copy, carrying its own baseline, is appended fresh.
	tomb := itemOf(t, doc, 0)
	tomb.ForDelete = true
	pasted := tomb
	pasted.ID = "pasted-1"
	pasted.ForDelete = false
	pasted.FromImport = false
	pasted.ExternalID = ""
	pasted.Position.X += 0.5
	pasted.Rebaseline()

	out := Reconcile(Input{Document: doc, Items: []domain.PlacedItem{tomb, pasted}}, Options{})
	if len(out.Rows) != 1 {
		t.Fatalf("rows = %d, want original dropped and copy appended", len(out.Rows))
	}
	got := out.Rows[0]
	if got.Fields[flatfile.ColPosX] != "1.750000000000" || got.Fields[flatfile.ColExternal] != "" {
		t.Fatalf("expected synthesized row for the paste, got %v", got.Fields)
	}
}

func TestDuplicateFingerprintsMatchOneEach(t *testing.T) {
	same := line("chair.standard", 0, "1.000000000000", "1.000000000000")
	doc := parse(t, same, same)
	a := itemOf(t, doc, 0)
	b := itemOf(t, doc, 1)
	b.Brand = "walnut"
	b.Flags.BrandChanged = true

	out := Reconcile(Input{Document: doc, Items: []domain.PlacedItem{a, b}}, Options{})
	if len(out.Rows) != 2 {
		t.Fatalf("rows = %d", len(out.Rows))
	}
	if out.Rows[0].Fields[flatfile.ColBrand] != "oak" || out.Rows[1].Fields[flatfile.ColBrand] != "walnut" {
		t.Fatalf("candidates not consumed in order: %v / %v",
			out.Rows[0].Fields, out.Rows[1].Fields)
	}
}

func TestFingerprintToleratesCoarseZ(t *testing.T) {
	a := fingerprintOf("tag", 1, 2, 3.04)
	b := fingerprintOf("tag", 1, 2, 2.96)
	if a != b {
		t.Fatalf("z within a tenth should collide: %s vs %s", a, b)
	}
	if fingerprintOf("tag", 1, 2, 3) == fingerprintOf("tag", 1.0000001, 2, 3) {
		t.Fatalf("x must match at full precision")
	}
}
