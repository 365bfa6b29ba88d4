package artifact

import (
	"bytes"
	"strings"
	"testing"

	"scenecore/pkg/domain"
)

func testElements() []domain.ArchitecturalObject {
	door := domain.NewPointObject(domain.ElementDoor, 1, domain.PointPlacement{
		Anchor: domain.Vec3{X: 1, Y: 2},
	})
	door.ID = "el-door"
	stair := domain.NewPointObject(domain.ElementStair, 0, domain.PointPlacement{
		Anchor: domain.Vec3{X: 3, Y: 4},
	})
	stair.ID = "el-stair"
	wall := domain.NewSpanObject(domain.ElementPartition, 0, domain.SpanPlacement{
		Start: domain.Vec3{X: 0, Y: 0},
		End:   domain.Vec3{X: 5, Y: 0},
	})
	wall.ID = "el-wall"
	return []domain.ArchitecturalObject{door, stair, wall}
}

func TestBuildElementManifestGroupsDeterministically(t *testing.T) {
	m := BuildElementManifest("scene-1", testElements())
	if m.Version != ElementManifestVersion || m.SceneID != "scene-1" {
		t.Fatalf("manifest = %+v", m)
	}
	if len(m.Floors) != 2 || m.Floors[0].Floor != 0 || m.Floors[1].Floor != 1 {
		t.Fatalf("floors = %+v", m.Floors)
	}
	g0 := m.Floors[0].Elements
	if len(g0) != 2 || g0[0].ID != "el-stair" || g0[1].ID != "el-wall" {
		t.Fatalf("floor 0 ordering = %+v", g0)
	}
}

func TestElementManifestRoundTrip(t *testing.T) {
	m := BuildElementManifest("scene-1", testElements())
	var buf bytes.Buffer
	if err := EncodeElements(&buf, m); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeElements(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SceneID != m.SceneID || len(got.Floors) != len(m.Floors) {
		t.Fatalf("round trip = %+v", got)
	}
	if got.Floors[1].Elements[0].Point == nil {
		t.Fatalf("placement lost: %+v", got.Floors[1].Elements[0])
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	_, err := DecodeElements(strings.NewReader(`{"version":99,"scene_id":"s","floors":[]}`))
	if err == nil || !strings.Contains(err.Error(), "version 99") {
		t.Fatalf("err = %v", err)
	}
}

func TestDecodeRejectsInvalidElements(t *testing.T) {
	// A point element carrying a span placement is malformed.
	bad := `{"version":1,"scene_id":"s","floors":[{"floor":0,"elements":[
		{"id":"el-1","type":"door","kind":"point","floor":0,
		 "span":{"start":{"x":0,"y":0,"z":0},"end":{"x":1,"y":0,"z":0}}}
	]}]}`
	_, err := DecodeElements(strings.NewReader(bad))
	if err == nil || !strings.Contains(err.Error(), "el-1") {
		t.Fatalf("err = %v", err)
	}
}
