package clipboard

import (
	"fmt"
	"testing"

	"scenecore/pkg/domain"
)

func TestCopyEmpty(t *testing.T) {
	if _, ok := Copy(nil); ok {
		t.Fatalf("empty copy succeeded")
	}
}

func TestCopyIsValueSnapshot(t *testing.T) {
	src := domain.PlacedItem{ID: "a", Tag: "chair", Position: domain.Vec3{X: 1}}
	payload, ok := Copy([]domain.PlacedItem{src})
	if !ok {
		t.Fatalf("copy failed")
	}
	src.Position.X = 99
	if payload.Items[0].Position.X != 1 {
		t.Fatalf("payload tracks later edits to the source")
	}
}

func TestTransformForPaste(t *testing.T) {
	src := domain.PlacedItem{
		ID:         "orig",
		Tag:        "chair",
		Floor:      0,
		Position:   domain.Vec3{X: 1, Y: 2},
		ExternalID: "ext-7",
		FromImport: true,
	}
	src.SeedBaseline()
	payload, _ := Copy([]domain.PlacedItem{src})

	seq := 0
	assign := func() string { seq++; return fmt.Sprintf("id-%d", seq) }
	out := TransformForPaste(payload, PasteOptions{TargetFloor: 2, Offset: domain.Vec3{X: 10}}, nil, assign)
	if len(out) != 1 {
		t.Fatalf("got %d items", len(out))
	}
	it := out[0]
	if it.ID == "orig" {
		t.Fatalf("source identifier reused")
	}
	if it.Floor != 2 {
		t.Fatalf("floor = %d, want 2", it.Floor)
	}
	if it.Position != (domain.Vec3{X: 11, Y: 2}) {
		t.Fatalf("position = %v", it.Position)
	}
	if it.FromImport || it.ExternalID != "" {
		t.Fatalf("import markers survived paste: %+v", it)
	}
	if !it.Baseline.Seeded || it.Baseline.Position != it.Position || it.Baseline.Floor != 2 {
		t.Fatalf("baseline not reseeded from pasted values: %+v", it.Baseline)
	}
}

func TestTransformForPasteSkipsCollidingIDs(t *testing.T) {
	payload, _ := Copy([]domain.PlacedItem{{ID: "a", Tag: "chair"}})
	existing := map[string]struct{}{"id-1": {}, "id-2": {}}
	seq := 0
	assign := func() string { seq++; return fmt.Sprintf("id-%d", seq) }
	out := TransformForPaste(payload, PasteOptions{}, existing, assign)
	if out[0].ID != "id-3" {
		t.Fatalf("id = %s, want id-3", out[0].ID)
	}
}
