package core

import (
	"context"
	"fmt"

	"scenecore/internal/clipboard"
	"scenecore/internal/floorremap"
	"scenecore/pkg/domain"
)

// Patch constructors. Commands are assembled from plain value patches whose
// before snapshots are captured here, at construction time, never recomputed
// at undo time.

func itemPatch(action Action, before, after *domain.PlacedItem) (domain.Change, error) {
	c := domain.Change{Entity: EntityPlacedItem, Action: action}
	if before != nil {
		c.ID = before.ID
		payload, err := domain.NewChangePayloadFromValue(*before)
		if err != nil {
			return domain.Change{}, fmt.Errorf("encode item before: %w", err)
		}
		c.Before = payload
	}
	if after != nil {
		c.ID = after.ID
		payload, err := domain.NewChangePayloadFromValue(*after)
		if err != nil {
			return domain.Change{}, fmt.Errorf("encode item after: %w", err)
		}
		c.After = payload
	}
	return c, nil
}

func elementPatch(action Action, before, after *domain.ArchitecturalObject) (domain.Change, error) {
	c := domain.Change{Entity: EntityArchObject, Action: action}
	if before != nil {
		c.ID = before.ID
		payload, err := domain.NewChangePayloadFromValue(*before)
		if err != nil {
			return domain.Change{}, fmt.Errorf("encode element before: %w", err)
		}
		c.Before = payload
	}
	if after != nil {
		c.ID = after.ID
		payload, err := domain.NewChangePayloadFromValue(*after)
		if err != nil {
			return domain.Change{}, fmt.Errorf("encode element after: %w", err)
		}
		c.After = payload
	}
	return c, nil
}

func selectionPatch(before, after []string) (domain.Change, error) {
	b, err := domain.NewChangePayloadFromValue(before)
	if err != nil {
		return domain.Change{}, err
	}
	a, err := domain.NewChangePayloadFromValue(after)
	if err != nil {
		return domain.Change{}, err
	}
	return domain.Change{Entity: EntitySelection, Action: ActionUpdate, Before: b, After: a}, nil
}

func floorOrderPatch(before, after []int) (domain.Change, error) {
	b, err := domain.NewChangePayloadFromValue(before)
	if err != nil {
		return domain.Change{}, err
	}
	a, err := domain.NewChangePayloadFromValue(after)
	if err != nil {
		return domain.Change{}, err
	}
	return domain.Change{Entity: EntityFloorOrder, Action: ActionUpdate, Before: b, After: a}, nil
}

func platesPatch(before, after map[int][]domain.FloorPlate) (domain.Change, error) {
	b, err := domain.NewChangePayloadFromValue(before)
	if err != nil {
		return domain.Change{}, err
	}
	a, err := domain.NewChangePayloadFromValue(after)
	if err != nil {
		return domain.Change{}, err
	}
	return domain.Change{Entity: EntityPlates, Action: ActionUpdate, Before: b, After: a}, nil
}

// mutateItem builds and executes a single-item update command.
func (s *Service) mutateItem(name, id string, mutate func(*domain.PlacedItem)) error {
	before, ok := s.store.GetItem(id)
	if !ok {
		return ErrNotFound{Entity: EntityPlacedItem, ID: id}
	}
	after := before.Clone()
	after.SeedBaseline()
	mutate(&after)
	change, err := itemPatch(ActionUpdate, &before, &after)
	if err != nil {
		return err
	}
	s.history.Execute(NewCommand(name, change))
	return nil
}

// MoveItem repositions an item.
func (s *Service) MoveItem(id string, pos domain.Vec3) error {
	return s.mutateItem("move item", id, func(it *domain.PlacedItem) {
		it.Position = pos
		it.Flags.Moved = true
	})
}

// RotateItem re-orients an item.
func (s *Service) RotateItem(id string, rot domain.Vec3) error {
	return s.mutateItem("rotate item", id, func(it *domain.PlacedItem) {
		it.Rotation = rot
		it.Flags.Rotated = true
	})
}

// SetItemBrand rewrites the brand tag.
func (s *Service) SetItemBrand(id, brand string) error {
	return s.mutateItem("set brand", id, func(it *domain.PlacedItem) {
		it.Brand = brand
		it.Flags.BrandChanged = true
	})
}

// SetItemCount rewrites the count column.
func (s *Service) SetItemCount(id string, count int) error {
	return s.mutateItem("set count", id, func(it *domain.PlacedItem) {
		it.Count = count
		it.Flags.CountChanged = true
	})
}

// SetItemHierarchy rewrites the hierarchy-order column.
func (s *Service) SetItemHierarchy(id string, hierarchy int) error {
	return s.mutateItem("set hierarchy", id, func(it *domain.PlacedItem) {
		it.Hierarchy = hierarchy
		it.Flags.HierarchyChanged = true
	})
}

// MoveItemToFloor relocates an item to another floor.
func (s *Service) MoveItemToFloor(id string, floor int) error {
	if _, ok := s.store.FindFloor(floor); !ok {
		return ErrNotFound{Entity: EntityFloors, ID: fmt.Sprint(floor)}
	}
	return s.mutateItem("move item to floor", id, func(it *domain.PlacedItem) {
		it.Floor = floor
		it.Flags.FloorChanged = true
	})
}

// ResetItem restores an item's mutable fields from its baseline.
func (s *Service) ResetItem(id string) error {
	return s.mutateItem("reset item", id, func(it *domain.PlacedItem) {
		it.ResetToBaseline()
	})
}

// RebaselineItem re-baselines an item: its current values become the new
// original snapshot.
func (s *Service) RebaselineItem(id string) error {
	return s.mutateItem("re-baseline item", id, func(it *domain.PlacedItem) {
		it.Rebaseline()
	})
}

// CreateItem adds a brand-new item, assigning its identifier and seeding the
// baseline from the supplied values.
func (s *Service) CreateItem(it domain.PlacedItem) (string, error) {
	it = s.ids.EnsureItem(it)
	it.FromImport = false
	it.SeedBaseline()
	change, err := itemPatch(ActionCreate, nil, &it)
	if err != nil {
		return "", err
	}
	sel, err := selectionPatch(s.store.Selection(), []string{it.ID})
	if err != nil {
		return "", err
	}
	s.history.Execute(NewCommand("create item", change, sel))
	return it.ID, nil
}

// DuplicateItem clones an item at an offset. The duplicate receives a fresh
// identifier and a baseline seeded from its own values.
func (s *Service) DuplicateItem(id string, offset domain.Vec3) (string, error) {
	src, ok := s.store.GetItem(id)
	if !ok {
		return "", ErrNotFound{Entity: EntityPlacedItem, ID: id}
	}
	dup := src.Clone()
	dup.ID = s.ids.Assign()
	dup.Position.X += offset.X
	dup.Position.Y += offset.Y
	dup.Position.Z += offset.Z
	dup.ForDelete = false
	dup.FromImport = false
	dup.ExternalID = ""
	dup.Flags = domain.ChangeFlags{Duplicated: true}
	dup.Baseline.Seeded = false
	dup.SeedBaseline()
	change, err := itemPatch(ActionCreate, nil, &dup)
	if err != nil {
		return "", err
	}
	sel, err := selectionPatch(s.store.Selection(), []string{dup.ID})
	if err != nil {
		return "", err
	}
	s.history.Execute(NewCommand("duplicate item", change, sel))
	return dup.ID, nil
}

// SplitItem divides an item's count across new records. The original is
// tombstoned, not removed, so reconciliation can suppress its source row.
func (s *Service) SplitItem(id string, counts []int) ([]string, error) {
	if len(counts) < 2 {
		return nil, fmt.Errorf("split needs at least two parts, got %d", len(counts))
	}
	src, ok := s.store.GetItem(id)
	if !ok {
		return nil, ErrNotFound{Entity: EntityPlacedItem, ID: id}
	}
	if src.ForDelete {
		return nil, fmt.Errorf("item %q is already superseded", id)
	}
	retired := src.Clone()
	retired.ForDelete = true
	retired.Flags.Split = true
	changes := make([]domain.Change, 0, len(counts)+2)
	change, err := itemPatch(ActionUpdate, &src, &retired)
	if err != nil {
		return nil, err
	}
	changes = append(changes, change)
	ids := make([]string, 0, len(counts))
	for _, count := range counts {
		// Parts keep the source's frozen baseline so reconciliation can
		// match one of them back to the source row and rewrite its count;
		// the rest are appended as new rows.
		part := src.Clone()
		part.ID = s.ids.Assign()
		part.Count = count
		part.ForDelete = false
		part.FromImport = false
		part.ExternalID = ""
		part.Flags = domain.ChangeFlags{Split: true, CountChanged: count != part.Baseline.Count}
		change, err := itemPatch(ActionCreate, nil, &part)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
		ids = append(ids, part.ID)
	}
	sel, err := selectionPatch(s.store.Selection(), ids)
	if err != nil {
		return nil, err
	}
	changes = append(changes, sel)
	s.history.Execute(NewCommand("split item", changes...))
	return ids, nil
}

// ChangeItemType replaces an item's classification tag. The visual-asset
// reference for the new tag is resolved before any command is constructed;
// a failed lookup abandons the operation with no state mutation and no
// history entry. The original record is tombstoned and a replacement with a
// fresh identifier takes its place.
func (s *Service) ChangeItemType(ctx context.Context, id, newTag string) (string, error) {
	src, ok := s.store.GetItem(id)
	if !ok {
		return "", ErrNotFound{Entity: EntityPlacedItem, ID: id}
	}
	var asset string
	if s.resolver != nil {
		resolved, err := s.resolver.AssetForTag(ctx, newTag)
		if err != nil {
			s.log.Warn("type change abandoned, asset lookup failed", "tag", newTag, "error", err)
			return "", fmt.Errorf("resolve asset for %q: %w", newTag, err)
		}
		asset = resolved
	}
	retired := src.Clone()
	retired.ForDelete = true
	retired.Flags.TypeChanged = true
	replacement := src.Clone()
	replacement.ID = s.ids.Assign()
	replacement.Tag = newTag
	replacement.AssetRef = asset
	replacement.ForDelete = false
	replacement.FromImport = false
	replacement.ExternalID = ""
	replacement.Flags = domain.ChangeFlags{TypeChanged: true}
	replacement.Baseline.Seeded = false
	replacement.SeedBaseline()
	retire, err := itemPatch(ActionUpdate, &src, &retired)
	if err != nil {
		return "", err
	}
	create, err := itemPatch(ActionCreate, nil, &replacement)
	if err != nil {
		return "", err
	}
	sel, err := selectionPatch(s.store.Selection(), []string{replacement.ID})
	if err != nil {
		return "", err
	}
	s.history.Execute(NewCommand("change item type", retire, create, sel))
	return replacement.ID, nil
}

// DeleteItems hard-removes items. Imported records move to the graveyard so
// reconciliation drops their source rows.
func (s *Service) DeleteItems(ids ...string) error {
	changes := make([]domain.Change, 0, len(ids)+1)
	for _, id := range ids {
		before, ok := s.store.GetItem(id)
		if !ok {
			continue
		}
		change, err := itemPatch(ActionDelete, &before, nil)
		if err != nil {
			return err
		}
		changes = append(changes, change)
	}
	if len(changes) == 0 {
		return nil
	}
	sel, err := selectionPatch(s.store.Selection(), nil)
	if err != nil {
		return err
	}
	changes = append(changes, sel)
	s.history.Execute(NewCommand("delete items", changes...))
	return nil
}

// Select replaces the current selection.
func (s *Service) Select(ids ...string) error {
	sel, err := selectionPatch(s.store.Selection(), ids)
	if err != nil {
		return err
	}
	s.history.Execute(NewCommand("select", sel))
	return nil
}

// CopySelection projects the current selection into a clipboard payload. It
// reports false when the selection is empty.
func (s *Service) CopySelection() (clipboard.Payload, bool) {
	var items []domain.PlacedItem
	for _, id := range s.store.Selection() {
		if it, ok := s.store.GetItem(id); ok && !it.ForDelete {
			items = append(items, it)
		}
	}
	return clipboard.Copy(items)
}

// PasteItems validates the paste target against the rules engine, then
// re-materializes the payload with fresh identifiers. Blocking violations
// abort the paste before any command is constructed.
func (s *Service) PasteItems(ctx context.Context, payload clipboard.Payload, opts clipboard.PasteOptions) ([]string, error) {
	res, err := s.rules.Evaluate(ctx, s.store, opts.TargetFloor, payload.Items)
	if err != nil {
		return nil, fmt.Errorf("evaluate paste rules: %w", err)
	}
	if res.HasBlocking() {
		return nil, RuleViolationError{Result: res}
	}
	existing := make(map[string]struct{})
	for _, it := range s.store.ListItems() {
		existing[it.ID] = struct{}{}
	}
	pasted := clipboard.TransformForPaste(payload, opts, existing, s.ids.Assign)
	changes := make([]domain.Change, 0, len(pasted)+1)
	ids := make([]string, 0, len(pasted))
	for i := range pasted {
		change, err := itemPatch(ActionCreate, nil, &pasted[i])
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
		ids = append(ids, pasted[i].ID)
	}
	sel, err := selectionPatch(s.store.Selection(), ids)
	if err != nil {
		return nil, err
	}
	changes = append(changes, sel)
	s.history.Execute(NewCommand("paste items", changes...))
	return ids, nil
}

// DeleteFloor removes a floor from the display order. Items stay in place
// until export, where the remap drops them; undo restores the floor.
func (s *Service) DeleteFloor(index int) error {
	before := s.store.FloorOrder()
	after := make([]int, 0, len(before))
	found := false
	for _, idx := range before {
		if idx == index {
			found = true
			continue
		}
		after = append(after, idx)
	}
	if !found {
		return ErrNotFound{Entity: EntityFloors, ID: fmt.Sprint(index)}
	}
	change, err := floorOrderPatch(before, after)
	if err != nil {
		return err
	}
	s.history.Execute(NewCommand("delete floor", change))
	return nil
}

// ReorderFloors replaces the floor display order. The new order must be a
// permutation of a subset of the current one.
func (s *Service) ReorderFloors(order []int) error {
	current := s.store.FloorOrder()
	allowed := make(map[int]bool, len(current))
	for _, idx := range current {
		allowed[idx] = true
	}
	seen := make(map[int]bool, len(order))
	for _, idx := range order {
		if !allowed[idx] || seen[idx] {
			return fmt.Errorf("invalid floor order entry %d", idx)
		}
		seen[idx] = true
	}
	change, err := floorOrderPatch(current, append([]int(nil), order...))
	if err != nil {
		return err
	}
	s.history.Execute(NewCommand("reorder floors", change))
	return nil
}

// FloorMapping computes the remap implied by the current display order, or
// nil when the order is untouched.
func (s *Service) FloorMapping() floorremap.Mapping {
	return floorremap.Compute(s.store.FloorOrder(), len(s.store.Floors()))
}

// SetPlateBrand rewrites a floor plate's brand tag.
func (s *Service) SetPlateBrand(floor int, surfaceID, brand string) error {
	before := s.store.Plates()
	after := s.store.Plates()
	found := false
	for i, p := range after[floor] {
		if p.SurfaceID == surfaceID {
			after[floor][i].Brand = brand
			after[floor][i].BrandModified = true
			found = true
		}
	}
	if !found {
		return ErrNotFound{Entity: EntityPlates, ID: surfaceID}
	}
	change, err := platesPatch(before, after)
	if err != nil {
		return err
	}
	s.history.Execute(NewCommand("set plate brand", change))
	return nil
}

// CreateElement adds an architectural object.
func (s *Service) CreateElement(obj domain.ArchitecturalObject) (string, error) {
	if err := obj.Validate(); err != nil {
		return "", err
	}
	obj = s.ids.EnsureObject(obj)
	obj.SeedBaseline()
	change, err := elementPatch(ActionCreate, nil, &obj)
	if err != nil {
		return "", err
	}
	s.history.Execute(NewCommand("create element", change))
	return obj.ID, nil
}

// DeleteElement removes an architectural object.
func (s *Service) DeleteElement(id string) error {
	before, ok := s.store.GetElement(id)
	if !ok {
		return ErrNotFound{Entity: EntityArchObject, ID: id}
	}
	change, err := elementPatch(ActionDelete, &before, nil)
	if err != nil {
		return err
	}
	s.history.Execute(NewCommand("delete element", change))
	return nil
}

// SetElementProp sets an entry in an element's extensible property bag.
func (s *Service) SetElementProp(id, key, value string) error {
	before, ok := s.store.GetElement(id)
	if !ok {
		return ErrNotFound{Entity: EntityArchObject, ID: id}
	}
	after := before.Clone()
	if after.Props == nil {
		after.Props = make(map[string]string)
	}
	after.Props[key] = value
	change, err := elementPatch(ActionUpdate, &before, &after)
	if err != nil {
		return err
	}
	s.history.Execute(NewCommand("set element property", change))
	return nil
}
