package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"scenecore/internal/core"
	"scenecore/pkg/domain"
)

func seededScene() *core.SceneStore {
	scene := core.NewSceneStore()
	spawn := domain.Vec3{X: 1, Y: 1}
	item := domain.PlacedItem{
		ID:         "item-1",
		Tag:        "chair.standard",
		Floor:      0,
		Position:   domain.Vec3{X: 1.25, Y: 2.5},
		Brand:      "oak",
		Count:      1,
		FromImport: true,
	}
	item.SeedBaseline()
	door := domain.NewPointObject(domain.ElementDoor, 0, domain.PointPlacement{Anchor: domain.Vec3{X: 3}})
	door.ID = "el-1"
	scene.Seed(
		[]domain.PlacedItem{item},
		[]domain.ArchitecturalObject{door},
		[]domain.Floor{{Index: 0, Name: "Ground", SourceFile: "Floor_00.txt", Spawn: &spawn}},
		map[int][]domain.FloorPlate{0: {{Floor: 0, SurfaceID: "srf-1", Brand: "oak"}}},
	)
	return scene
}

func TestPersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.db")

	store, err := NewStore(path, seededScene())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Persist(context.Background()); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// A fresh scene bound to the same file hydrates from it.
	reloaded, err := NewStore(path, core.NewSceneStore())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reloaded.Close()

	scene := reloaded.Scene()
	it, ok := scene.GetItem("item-1")
	if !ok {
		t.Fatalf("item lost across reload")
	}
	if it.Tag != "chair.standard" || !it.Baseline.Seeded || it.Baseline.Position.X != 1.25 {
		t.Fatalf("item = %+v", it)
	}
	if _, ok := scene.GetElement("el-1"); !ok {
		t.Fatalf("element lost")
	}
	if f, ok := scene.FindFloor(0); !ok || f.SourceFile != "Floor_00.txt" {
		t.Fatalf("floor lost: %+v", f)
	}
	if len(scene.Plates()[0]) != 1 {
		t.Fatalf("plates lost: %+v", scene.Plates())
	}
}

func TestPersistOverwritesPreviousState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.db")
	store, err := NewStore(path, seededScene())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()
	ctx := context.Background()
	if err := store.Persist(ctx); err != nil {
		t.Fatalf("persist: %v", err)
	}

	// Mutate and persist again; the saved state must be the latest one.
	snap := store.Scene().Snapshot()
	snap.Items[0].Brand = "walnut"
	snap.Items[0].Flags.BrandChanged = true
	store.Scene().Restore(snap)
	if err := store.Persist(ctx); err != nil {
		t.Fatalf("second persist: %v", err)
	}
	store.Close()

	reloaded, err := NewStore(path, core.NewSceneStore())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reloaded.Close()
	it, ok := reloaded.Scene().GetItem("item-1")
	if !ok {
		t.Fatalf("item lost across reload")
	}
	if it.Brand != "walnut" || !it.Flags.BrandChanged {
		t.Fatalf("stale state reloaded: %+v", it)
	}
}

func TestNewStoreOnEmptyFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.db")
	store, err := NewStore(path, core.NewSceneStore())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()
	if items := store.Scene().ListItems(); len(items) != 0 {
		t.Fatalf("items = %+v", items)
	}
	if store.Path() != path {
		t.Fatalf("path = %q", store.Path())
	}
}
