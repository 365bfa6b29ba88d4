// Package domain defines the persistent scene entities, value types, and
// paste-rule primitives used by scenecore.
package domain

import "fmt"

// EntityType identifies the type of record stored in the scene state.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityPlacedItem identifies a fixture-like placed item record.
	EntityPlacedItem EntityType = "placed_item"
	// EntityArchObject identifies an architectural element record.
	EntityArchObject EntityType = "architectural_object"
	// EntityFloors identifies the ordered floor list, patched as a unit.
	EntityFloors EntityType = "floors"
	// EntityPlates identifies the per-floor plate map, patched as a unit.
	EntityPlates EntityType = "floor_plates"
	// EntitySelection identifies the current selection, patched as a unit.
	EntitySelection EntityType = "selection"
	// EntityFloorOrder identifies the floor display order, patched as a unit.
	EntityFloorOrder EntityType = "floor_order"
)

// Action enumerates the mutation kinds carried by a Change record.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Vec3 is a coordinate triple in source-file space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ChangeFlags records which mutable fields of an item diverged from its
// baseline. The reconciliation pass rewrites only flagged columns so an
// untouched row round-trips byte for byte.
type ChangeFlags struct {
	Moved            bool `json:"moved,omitempty"`
	Rotated          bool `json:"rotated,omitempty"`
	TypeChanged      bool `json:"type_changed,omitempty"`
	BrandChanged     bool `json:"brand_changed,omitempty"`
	CountChanged     bool `json:"count_changed,omitempty"`
	HierarchyChanged bool `json:"hierarchy_changed,omitempty"`
	FloorChanged     bool `json:"floor_changed,omitempty"`
	Duplicated       bool `json:"duplicated,omitempty"`
	Split            bool `json:"split,omitempty"`
}

// Any reports whether at least one flag is set.
func (f ChangeFlags) Any() bool {
	return f.Moved || f.Rotated || f.TypeChanged || f.BrandChanged ||
		f.CountChanged || f.HierarchyChanged || f.FloorChanged || f.Duplicated || f.Split
}

// ItemBaseline is the original-value snapshot of a placed item's mutable
// fields. It is seeded exactly once (at import or at creation) and is only
// replaced by an explicit re-baseline; routine mutations never touch a seeded
// baseline.
type ItemBaseline struct {
	Tag          string `json:"tag"`
	Floor        int    `json:"floor"`
	OriginOffset Vec3   `json:"origin_offset"`
	Position     Vec3   `json:"position"`
	Rotation     Vec3   `json:"rotation"`
	Brand        string `json:"brand,omitempty"`
	Count        int    `json:"count"`
	Hierarchy    int    `json:"hierarchy"`
	Seeded       bool   `json:"seeded"`
}

// PlacedItem is a fixture-like record with a position and rotation in
// floor-local space. The identifier is assigned once at creation and never
// reused; ForDelete marks the record superseded by a structural operation
// while keeping it addressable for export reconciliation.
type PlacedItem struct {
	ID           string       `json:"id"`
	Tag          string       `json:"tag"`
	Floor        int          `json:"floor"`
	OriginOffset Vec3         `json:"origin_offset"`
	Position     Vec3         `json:"position"`
	Rotation     Vec3         `json:"rotation"`
	Brand        string       `json:"brand,omitempty"`
	Count        int          `json:"count"`
	Hierarchy    int          `json:"hierarchy"`
	AssetRef     string       `json:"asset_ref,omitempty"`
	// ExternalID is the optional external record identifier carried in the
	// location file's 15th column. Distinct from the stable identifier.
	ExternalID string       `json:"external_id,omitempty"`
	Baseline   ItemBaseline `json:"baseline"`
	Flags      ChangeFlags  `json:"flags"`
	ForDelete  bool         `json:"for_delete,omitempty"`
	// FromImport marks records whose baseline was read from the location
	// record file, as opposed to records created in-editor. Only imported
	// records have a source row to reconcile against.
	FromImport bool `json:"from_import,omitempty"`
}

// SeedBaseline populates the baseline from the item's current fields unless a
// baseline has already been seeded (first write wins).
func (it *PlacedItem) SeedBaseline() {
	if it.Baseline.Seeded {
		return
	}
	it.Baseline = ItemBaseline{
		Tag:          it.Tag,
		Floor:        it.Floor,
		OriginOffset: it.OriginOffset,
		Position:     it.Position,
		Rotation:     it.Rotation,
		Brand:        it.Brand,
		Count:        it.Count,
		Hierarchy:    it.Hierarchy,
		Seeded:       true,
	}
}

// Rebaseline overwrites the baseline from current values. This is the only
// sanctioned way to replace a seeded baseline.
func (it *PlacedItem) Rebaseline() {
	it.Baseline.Seeded = false
	it.SeedBaseline()
	it.Flags = ChangeFlags{}
}

// ResetToBaseline restores every mutable field from the seeded baseline and
// clears the change flags. It is a no-op when no baseline was seeded.
func (it *PlacedItem) ResetToBaseline() {
	if !it.Baseline.Seeded {
		return
	}
	b := it.Baseline
	it.Tag = b.Tag
	it.Floor = b.Floor
	it.OriginOffset = b.OriginOffset
	it.Position = b.Position
	it.Rotation = b.Rotation
	it.Brand = b.Brand
	it.Count = b.Count
	it.Hierarchy = b.Hierarchy
	it.Flags = ChangeFlags{}
}

// Clone returns a deep copy of the item.
func (it PlacedItem) Clone() PlacedItem { return it }

// ElementKind discriminates the two architectural element shapes.
type ElementKind string

const (
	// ElementPoint anchors the element at a single point with extents.
	ElementPoint ElementKind = "point"
	// ElementSpan stretches the element between two points.
	ElementSpan ElementKind = "span"
)

// ElementType is the closed set of architectural element types.
type ElementType string

const (
	ElementDoor      ElementType = "door"
	ElementStair     ElementType = "stair"
	ElementLift      ElementType = "lift"
	ElementColumn    ElementType = "column"
	ElementGlazing   ElementType = "glazing"
	ElementPartition ElementType = "partition"
)

// KindOf reports the placement kind a type uses.
func (t ElementType) KindOf() ElementKind {
	switch t {
	case ElementGlazing, ElementPartition:
		return ElementSpan
	default:
		return ElementPoint
	}
}

// PointPlacement anchors an element at a single point.
type PointPlacement struct {
	Anchor   Vec3    `json:"anchor"`
	Rotation Vec3    `json:"rotation"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Depth    float64 `json:"depth"`
}

// SpanPlacement stretches an element between two points with an in-plane
// rotation.
type SpanPlacement struct {
	Start    Vec3    `json:"start"`
	End      Vec3    `json:"end"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

// ElementBaseline is the original-value snapshot of an architectural object.
type ElementBaseline struct {
	Type   ElementType     `json:"type"`
	Floor  int             `json:"floor"`
	Point  *PointPlacement `json:"point,omitempty"`
	Span   *SpanPlacement  `json:"span,omitempty"`
	Seeded bool            `json:"seeded"`
}

// ArchitecturalObject is a door/wall/glazing-like element. Exactly one of
// Point and Span is populated, matching Kind; constructors enforce this.
type ArchitecturalObject struct {
	ID        string            `json:"id"`
	Type      ElementType       `json:"type"`
	Kind      ElementKind       `json:"kind"`
	Floor     int               `json:"floor"`
	Point     *PointPlacement   `json:"point,omitempty"`
	Span      *SpanPlacement    `json:"span,omitempty"`
	Baseline  ElementBaseline   `json:"baseline"`
	Flags     ChangeFlags       `json:"flags"`
	ForDelete bool              `json:"for_delete,omitempty"`
	Props     map[string]string `json:"props,omitempty"`
}

// NewPointObject builds a point-anchored architectural object.
func NewPointObject(typ ElementType, floor int, placement PointPlacement) ArchitecturalObject {
	obj := ArchitecturalObject{
		Type:  typ,
		Kind:  ElementPoint,
		Floor: floor,
		Point: &placement,
	}
	obj.SeedBaseline()
	return obj
}

// NewSpanObject builds a two-point architectural object.
func NewSpanObject(typ ElementType, floor int, placement SpanPlacement) ArchitecturalObject {
	obj := ArchitecturalObject{
		Type:  typ,
		Kind:  ElementSpan,
		Floor: floor,
		Span:  &placement,
	}
	obj.SeedBaseline()
	return obj
}

// Validate checks the single-point/two-point exclusivity invariant.
func (o ArchitecturalObject) Validate() error {
	switch o.Kind {
	case ElementPoint:
		if o.Point == nil || o.Span != nil {
			return fmt.Errorf("point element %q must carry anchor placement only", o.ID)
		}
	case ElementSpan:
		if o.Span == nil || o.Point != nil {
			return fmt.Errorf("span element %q must carry span placement only", o.ID)
		}
	default:
		return fmt.Errorf("element %q has unknown kind %q", o.ID, o.Kind)
	}
	return nil
}

// SeedBaseline populates the baseline from current values unless already seeded.
func (o *ArchitecturalObject) SeedBaseline() {
	if o.Baseline.Seeded {
		return
	}
	o.Baseline = ElementBaseline{Type: o.Type, Floor: o.Floor, Seeded: true}
	if o.Point != nil {
		p := *o.Point
		o.Baseline.Point = &p
	}
	if o.Span != nil {
		s := *o.Span
		o.Baseline.Span = &s
	}
}

// Clone returns a deep copy of the object.
func (o ArchitecturalObject) Clone() ArchitecturalObject {
	cp := o
	if o.Point != nil {
		p := *o.Point
		cp.Point = &p
	}
	if o.Span != nil {
		s := *o.Span
		cp.Span = &s
	}
	if o.Baseline.Point != nil {
		p := *o.Baseline.Point
		cp.Baseline.Point = &p
	}
	if o.Baseline.Span != nil {
		s := *o.Baseline.Span
		cp.Baseline.Span = &s
	}
	if o.Props != nil {
		cp.Props = make(map[string]string, len(o.Props))
		for k, v := range o.Props {
			cp.Props[k] = v
		}
	}
	return cp
}

// Floor describes a scene floor and its export metadata.
type Floor struct {
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	SourceFile string  `json:"source_file"`
	Spawn      *Vec3   `json:"spawn,omitempty"`
	Height     float64 `json:"height"`
}

// Clone returns a deep copy of the floor.
func (f Floor) Clone() Floor {
	cp := f
	if f.Spawn != nil {
		s := *f.Spawn
		cp.Spawn = &s
	}
	return cp
}

// FloorPlate is one row of the floor-plate flat file. Only the floor index
// and brand are rewritten on export; the remaining columns pass through via
// Fields.
type FloorPlate struct {
	Floor         int      `json:"floor"`
	SurfaceID     string   `json:"surface_id"`
	Brand         string   `json:"brand,omitempty"`
	BrandModified bool     `json:"brand_modified,omitempty"`
	Fields        []string `json:"fields,omitempty"`
}

// Clone returns a deep copy of the plate.
func (p FloorPlate) Clone() FloorPlate {
	cp := p
	cp.Fields = append([]string(nil), p.Fields...)
	return cp
}

// ErrNotFound reports a missing entity.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}
