// Package floorremap computes old-to-new floor index mappings when floors
// are reordered or deleted, and applies them to floor-keyed collections.
// Every applier is pure: callers keep both the pre- and post-remap versions
// while building export artifacts.
package floorremap

import (
	"fmt"
	"regexp"
	"strconv"

	"scenecore/pkg/domain"
)

// Mapping maps original floor indexes to their post-remap indexes. A floor
// absent from the mapping was deleted.
type Mapping map[int]int

// Compute derives the mapping from a display order over original indexes.
// It returns nil for an untouched identity order with no deletions, so
// callers can skip rewriting downstream structures on every export.
func Compute(displayOrder []int, initialCount int) Mapping {
	if len(displayOrder) == initialCount {
		identity := true
		for i, old := range displayOrder {
			if old != i {
				identity = false
				break
			}
		}
		if identity {
			return nil
		}
	}
	m := make(Mapping, len(displayOrder))
	for newIndex, oldIndex := range displayOrder {
		m[oldIndex] = newIndex
	}
	return m
}

// ApplyItems relabels item floor indexes and drops items whose floor has no
// mapping entry.
func (m Mapping) ApplyItems(items []domain.PlacedItem) []domain.PlacedItem {
	out := make([]domain.PlacedItem, 0, len(items))
	for _, it := range items {
		mapped, ok := m[it.Floor]
		if !ok {
			continue
		}
		cp := it.Clone()
		cp.Floor = mapped
		out = append(out, cp)
	}
	return out
}

// ApplyElements relabels architectural object floor indexes, dropping
// objects on deleted floors.
func (m Mapping) ApplyElements(elements []domain.ArchitecturalObject) []domain.ArchitecturalObject {
	out := make([]domain.ArchitecturalObject, 0, len(elements))
	for _, obj := range elements {
		mapped, ok := m[obj.Floor]
		if !ok {
			continue
		}
		cp := obj.Clone()
		cp.Floor = mapped
		out = append(out, cp)
	}
	return out
}

// ApplyPlates rekeys the per-floor plate map, relabeling the floor column of
// each surviving plate.
func (m Mapping) ApplyPlates(plates map[int][]domain.FloorPlate) map[int][]domain.FloorPlate {
	out := make(map[int][]domain.FloorPlate, len(plates))
	for old, row := range plates {
		mapped, ok := m[old]
		if !ok {
			continue
		}
		cp := make([]domain.FloorPlate, 0, len(row))
		for _, p := range row {
			pc := p.Clone()
			pc.Floor = mapped
			cp = append(cp, pc)
		}
		out[mapped] = cp
	}
	return out
}

// ApplyKeyed rekeys any single-floor-keyed scalar map (spawn points, floor
// names), dropping entries for deleted floors.
func ApplyKeyed[T any](m Mapping, in map[int]T) map[int]T {
	out := make(map[int]T, len(in))
	for old, v := range in {
		if mapped, ok := m[old]; ok {
			out[mapped] = v
		}
	}
	return out
}

// ApplyFloors rebuilds the floor list in display order with relabeled
// indexes and renamed floor-qualified source files.
func (m Mapping) ApplyFloors(floors []domain.Floor) []domain.Floor {
	out := make([]domain.Floor, 0, len(floors))
	for _, f := range floors {
		mapped, ok := m[f.Index]
		if !ok {
			continue
		}
		cp := f.Clone()
		cp.Index = mapped
		cp.SourceFile = m.RenameFloorFile(f.SourceFile)
		out = append(out, cp)
	}
	// display order: sort by new index
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Index > out[j].Index; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

var floorToken = regexp.MustCompile(`\d+`)

// RenameFloorFile replaces the embedded floor number token of a
// floor-qualified file name, preserving the surrounding text and separator
// style. Names whose token does not resolve to a mapped floor are returned
// unchanged.
func (m Mapping) RenameFloorFile(name string) string {
	loc := floorToken.FindStringIndex(name)
	if loc == nil {
		return name
	}
	old, err := strconv.Atoi(name[loc[0]:loc[1]])
	if err != nil {
		return name
	}
	mapped, ok := m[old]
	if !ok {
		return name
	}
	// keep the original token width so zero-padded names stay padded
	token := fmt.Sprintf("%0*d", loc[1]-loc[0], mapped)
	return name[:loc[0]] + token + name[loc[1]:]
}
