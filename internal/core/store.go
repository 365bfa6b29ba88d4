package core

import (
	"sort"
	"sync"

	"scenecore/pkg/domain"
)

type sceneState struct {
	items     map[string]domain.PlacedItem
	elements  map[string]domain.ArchitecturalObject
	floors    []domain.Floor
	plates    map[int][]domain.FloorPlate
	selection []string
	// floorOrder is the display order over original floor indexes; floors
	// absent from it are deleted at export time.
	floorOrder []int
	// graveyard keeps hard-deleted imported items so the reconciliation pass
	// can still drop their source rows.
	graveyard map[string]domain.PlacedItem
}

func newSceneState() sceneState {
	return sceneState{
		items:     make(map[string]domain.PlacedItem),
		elements:  make(map[string]domain.ArchitecturalObject),
		plates:    make(map[int][]domain.FloorPlate),
		graveyard: make(map[string]domain.PlacedItem),
	}
}

func (s sceneState) clone() sceneState {
	cloned := newSceneState()
	for k, v := range s.items {
		cloned.items[k] = v.Clone()
	}
	for k, v := range s.elements {
		cloned.elements[k] = v.Clone()
	}
	cloned.floors = make([]domain.Floor, 0, len(s.floors))
	for _, f := range s.floors {
		cloned.floors = append(cloned.floors, f.Clone())
	}
	for k, v := range s.plates {
		row := make([]domain.FloorPlate, 0, len(v))
		for _, p := range v {
			row = append(row, p.Clone())
		}
		cloned.plates[k] = row
	}
	cloned.selection = append([]string(nil), s.selection...)
	cloned.floorOrder = append([]int(nil), s.floorOrder...)
	for k, v := range s.graveyard {
		cloned.graveyard[k] = v.Clone()
	}
	return cloned
}

// Snapshot is an immutable copy of the full scene state, used by export and
// by the persistence layer.
type Snapshot struct {
	Items      []domain.PlacedItem          `json:"items"`
	Elements   []domain.ArchitecturalObject `json:"elements"`
	Floors     []domain.Floor               `json:"floors"`
	Plates     map[int][]domain.FloorPlate  `json:"plates,omitempty"`
	Graveyard  []domain.PlacedItem          `json:"graveyard,omitempty"`
	Selection  []string                     `json:"selection,omitempty"`
	FloorOrder []int                        `json:"floor_order,omitempty"`
}

// SceneStore holds the editable scene. All mutation flows through the command
// history; direct writes bypassing it break the undo invariant.
type SceneStore struct {
	mu    sync.RWMutex
	state sceneState
}

// NewSceneStore constructs an empty scene store.
func NewSceneStore() *SceneStore {
	return &SceneStore{state: newSceneState()}
}

// Seed loads imported records into an empty store. Items and elements must
// already carry identifiers and seeded baselines; Seed is an import-time
// operation, not an edit, and records no history.
func (s *SceneStore) Seed(items []domain.PlacedItem, elements []domain.ArchitecturalObject, floors []domain.Floor, plates map[int][]domain.FloorPlate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := newSceneState()
	for _, it := range items {
		state.items[it.ID] = it.Clone()
	}
	for _, obj := range elements {
		state.elements[obj.ID] = obj.Clone()
	}
	for _, f := range floors {
		state.floors = append(state.floors, f.Clone())
	}
	for k, v := range plates {
		row := make([]domain.FloorPlate, 0, len(v))
		for _, p := range v {
			row = append(row, p.Clone())
		}
		state.plates[k] = row
	}
	for _, f := range floors {
		state.floorOrder = append(state.floorOrder, f.Index)
	}
	s.state = state
}

// applyChanges applies a patch list to the state. Patches referencing entities
// that no longer exist apply as no-ops so undo always succeeds.
func (s *SceneStore) applyChanges(changes []domain.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range changes {
		s.applyChange(c)
	}
}

func (s *SceneStore) applyChange(c domain.Change) {
	switch c.Entity {
	case domain.EntityPlacedItem:
		switch c.Action {
		case domain.ActionDelete:
			if it, ok := s.state.items[c.ID]; ok {
				delete(s.state.items, c.ID)
				if it.FromImport {
					s.state.graveyard[c.ID] = it
				}
			}
		default:
			var it domain.PlacedItem
			if ok, err := c.After.Decode(&it); err != nil || !ok {
				return
			}
			if c.Action == domain.ActionUpdate {
				if _, exists := s.state.items[c.ID]; !exists {
					return
				}
			}
			s.state.items[it.ID] = it
			delete(s.state.graveyard, it.ID)
		}
	case domain.EntityArchObject:
		switch c.Action {
		case domain.ActionDelete:
			delete(s.state.elements, c.ID)
		default:
			var obj domain.ArchitecturalObject
			if ok, err := c.After.Decode(&obj); err != nil || !ok {
				return
			}
			if c.Action == domain.ActionUpdate {
				if _, exists := s.state.elements[c.ID]; !exists {
					return
				}
			}
			s.state.elements[obj.ID] = obj
		}
	case domain.EntityFloors:
		var floors []domain.Floor
		if ok, err := c.After.Decode(&floors); err != nil || !ok {
			return
		}
		s.state.floors = floors
	case domain.EntityPlates:
		var plates map[int][]domain.FloorPlate
		if ok, err := c.After.Decode(&plates); err != nil || !ok {
			return
		}
		if plates == nil {
			plates = make(map[int][]domain.FloorPlate)
		}
		s.state.plates = plates
	case domain.EntityFloorOrder:
		var order []int
		if ok, err := c.After.Decode(&order); err != nil || !ok {
			return
		}
		s.state.floorOrder = order
	case domain.EntitySelection:
		var sel []string
		if ok, err := c.After.Decode(&sel); err != nil || !ok {
			s.state.selection = nil
			return
		}
		s.state.selection = sel
	}
}

// GetItem retrieves an item by identifier.
func (s *SceneStore) GetItem(id string) (domain.PlacedItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.state.items[id]
	if !ok {
		return domain.PlacedItem{}, false
	}
	return it.Clone(), true
}

// ListItems returns every item, tombstoned included, in a deterministic
// hierarchy-then-identifier order.
func (s *SceneStore) ListItems() []domain.PlacedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedItems(s.state.items)
}

// ActiveItems returns items not flagged for delete.
func (s *SceneStore) ActiveItems() []domain.PlacedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PlacedItem, 0, len(s.state.items))
	for _, it := range s.state.items {
		if it.ForDelete {
			continue
		}
		out = append(out, it.Clone())
	}
	sortItems(out)
	return out
}

// ActiveItemsOnFloor returns non-tombstoned items for a floor. Tombstoned
// items are excluded from every floor-scoped derived view.
func (s *SceneStore) ActiveItemsOnFloor(index int) []domain.PlacedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PlacedItem
	for _, it := range s.state.items {
		if it.ForDelete || it.Floor != index {
			continue
		}
		out = append(out, it.Clone())
	}
	sortItems(out)
	return out
}

// DeletedItems returns hard-deleted imported items still tracked for export.
func (s *SceneStore) DeletedItems() []domain.PlacedItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedItems(s.state.graveyard)
}

// GetElement retrieves an architectural object by identifier.
func (s *SceneStore) GetElement(id string) (domain.ArchitecturalObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.state.elements[id]
	if !ok {
		return domain.ArchitecturalObject{}, false
	}
	return obj.Clone(), true
}

// ListElements returns every architectural object in identifier order.
func (s *SceneStore) ListElements() []domain.ArchitecturalObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ArchitecturalObject, 0, len(s.state.elements))
	for _, obj := range s.state.elements {
		out = append(out, obj.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Floors returns the floor list.
func (s *SceneStore) Floors() []domain.Floor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Floor, 0, len(s.state.floors))
	for _, f := range s.state.floors {
		out = append(out, f.Clone())
	}
	return out
}

// FindFloor retrieves a floor by index.
func (s *SceneStore) FindFloor(index int) (domain.Floor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.state.floors {
		if f.Index == index {
			return f.Clone(), true
		}
	}
	return domain.Floor{}, false
}

// Plates returns the per-floor plate map.
func (s *SceneStore) Plates() map[int][]domain.FloorPlate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int][]domain.FloorPlate, len(s.state.plates))
	for k, v := range s.state.plates {
		row := make([]domain.FloorPlate, 0, len(v))
		for _, p := range v {
			row = append(row, p.Clone())
		}
		out[k] = row
	}
	return out
}

// FloorOrder returns the display order over original floor indexes.
func (s *SceneStore) FloorOrder() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int(nil), s.state.floorOrder...)
}

// Selection returns the current selection identifiers.
func (s *SceneStore) Selection() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.state.selection...)
}

// Snapshot returns an immutable copy of the full state. Export works from a
// snapshot so continued editing cannot interleave with artifact generation.
func (s *SceneStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Items:      sortedItems(s.state.items),
		Graveyard:  sortedItems(s.state.graveyard),
		Selection:  append([]string(nil), s.state.selection...),
		FloorOrder: append([]int(nil), s.state.floorOrder...),
	}
	for _, obj := range s.state.elements {
		snap.Elements = append(snap.Elements, obj.Clone())
	}
	sort.Slice(snap.Elements, func(i, j int) bool { return snap.Elements[i].ID < snap.Elements[j].ID })
	for _, f := range s.state.floors {
		snap.Floors = append(snap.Floors, f.Clone())
	}
	if len(s.state.plates) > 0 {
		snap.Plates = make(map[int][]domain.FloorPlate, len(s.state.plates))
		for k, v := range s.state.plates {
			row := make([]domain.FloorPlate, 0, len(v))
			for _, p := range v {
				row = append(row, p.Clone())
			}
			snap.Plates[k] = row
		}
	}
	return snap
}

// Restore replaces the full state from a snapshot. Used by the persistence
// layer on open.
func (s *SceneStore) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := newSceneState()
	for _, it := range snap.Items {
		state.items[it.ID] = it.Clone()
	}
	for _, obj := range snap.Elements {
		state.elements[obj.ID] = obj.Clone()
	}
	for _, f := range snap.Floors {
		state.floors = append(state.floors, f.Clone())
	}
	for k, v := range snap.Plates {
		row := make([]domain.FloorPlate, 0, len(v))
		for _, p := range v {
			row = append(row, p.Clone())
		}
		state.plates[k] = row
	}
	for _, it := range snap.Graveyard {
		state.graveyard[it.ID] = it.Clone()
	}
	state.selection = append([]string(nil), snap.Selection...)
	state.floorOrder = append([]int(nil), snap.FloorOrder...)
	s.state = state
}

func sortedItems(m map[string]domain.PlacedItem) []domain.PlacedItem {
	out := make([]domain.PlacedItem, 0, len(m))
	for _, it := range m {
		out = append(out, it.Clone())
	}
	sortItems(out)
	return out
}

func sortItems(items []domain.PlacedItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Hierarchy != items[j].Hierarchy {
			return items[i].Hierarchy < items[j].Hierarchy
		}
		return items[i].ID < items[j].ID
	})
}
