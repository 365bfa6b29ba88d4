package artifact

import (
	"errors"
	"strings"
	"testing"

	"scenecore/internal/core"
	"scenecore/pkg/domain"
)

func validSnapshot() core.Snapshot {
	spawn := domain.Vec3{X: 1, Y: 2, Z: 0}
	return core.Snapshot{
		Floors: []domain.Floor{
			{Index: 0, Name: "Ground", SourceFile: "Floor_00.txt", Spawn: &spawn},
			{Index: 1, Name: "First", SourceFile: "Floor_01.txt", Spawn: &spawn},
		},
	}
}

func TestDescribeSceneRespectsFloorOrder(t *testing.T) {
	snap := validSnapshot()
	snap.FloorOrder = []int{1}
	desc := DescribeScene("scene-1", snap)
	if len(desc.Floors) != 1 || desc.Floors[0].Index != 1 {
		t.Fatalf("desc = %+v", desc)
	}
}

func TestPreconditionsPassOnValidScene(t *testing.T) {
	desc := DescribeScene("scene-1", validSnapshot())
	if err := CheckPreconditions(desc); err != nil {
		t.Fatalf("valid scene blocked: %v", err)
	}
}

func TestMissingSpawnBlocksWholeExport(t *testing.T) {
	snap := validSnapshot()
	snap.Floors[1].Spawn = nil
	err := CheckPreconditions(DescribeScene("scene-1", snap))
	var perr PreconditionError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v", err)
	}
	if len(perr.Problems) != 1 || !strings.Contains(perr.Problems[0], "floor 1 (First): missing spawn point") {
		t.Fatalf("problems = %v", perr.Problems)
	}
}

func TestPreconditionsReportEveryViolation(t *testing.T) {
	snap := validSnapshot()
	snap.Floors[0].Spawn = nil
	snap.Floors[1].SourceFile = ""
	err := CheckPreconditions(DescribeScene("", snap))
	var perr PreconditionError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v", err)
	}
	if len(perr.Problems) != 3 {
		t.Fatalf("problems = %v", perr.Problems)
	}
	joined := err.Error()
	for _, want := range []string{"scene id is empty", "missing spawn point", "missing source file"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in %q", want, joined)
		}
	}
}

func TestEmptySceneBlocked(t *testing.T) {
	err := CheckPreconditions(DescribeScene("scene-1", core.Snapshot{}))
	var perr PreconditionError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "scene has no floors") {
		t.Fatalf("err = %v", err)
	}
}
