package artifact

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"scenecore/pkg/domain"
)

// ElementManifestVersion is bumped when the manifest shape changes.
const ElementManifestVersion = 1

// ElementManifest is the JSON artifact carrying architectural objects,
// grouped by floor for consumers that render one floor at a time.
type ElementManifest struct {
	Version int                 `json:"version"`
	SceneID string              `json:"scene_id"`
	Floors  []ElementFloorGroup `json:"floors"`
}

// ElementFloorGroup holds the objects of one floor.
type ElementFloorGroup struct {
	Floor    int                          `json:"floor"`
	Elements []domain.ArchitecturalObject `json:"elements"`
}

// BuildElementManifest groups elements by floor in deterministic order.
func BuildElementManifest(sceneID string, elements []domain.ArchitecturalObject) ElementManifest {
	byFloor := make(map[int][]domain.ArchitecturalObject)
	for _, obj := range elements {
		byFloor[obj.Floor] = append(byFloor[obj.Floor], obj)
	}
	floors := make([]int, 0, len(byFloor))
	for f := range byFloor {
		floors = append(floors, f)
	}
	sort.Ints(floors)
	m := ElementManifest{Version: ElementManifestVersion, SceneID: sceneID}
	for _, f := range floors {
		group := byFloor[f]
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
		m.Floors = append(m.Floors, ElementFloorGroup{Floor: f, Elements: group})
	}
	return m
}

// EncodeElements writes the manifest as indented JSON.
func EncodeElements(w io.Writer, m ElementManifest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// DecodeElements reads a manifest, rejecting unknown versions.
func DecodeElements(r io.Reader) (ElementManifest, error) {
	var m ElementManifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return ElementManifest{}, fmt.Errorf("decode element manifest: %w", err)
	}
	if m.Version != ElementManifestVersion {
		return ElementManifest{}, fmt.Errorf("unsupported element manifest version %d", m.Version)
	}
	for _, g := range m.Floors {
		for _, obj := range g.Elements {
			if err := obj.Validate(); err != nil {
				return ElementManifest{}, fmt.Errorf("element %s: %w", obj.ID, err)
			}
		}
	}
	return m, nil
}
