// Package clipboard projects a selection into a portable payload and
// re-materializes it into a target context with fresh identities.
package clipboard

import "scenecore/pkg/domain"

// Payload is a portable representation of copied items. It holds value
// copies so later edits to the source scene cannot leak into a paste.
type Payload struct {
	Items []domain.PlacedItem `json:"items"`
}

// PasteOptions controls how a payload is re-materialized.
type PasteOptions struct {
	TargetFloor int
	Offset      domain.Vec3
}

// Copy projects a selection into a payload. It reports false when the
// selection is empty.
func Copy(items []domain.PlacedItem) (Payload, bool) {
	if len(items) == 0 {
		return Payload{}, false
	}
	p := Payload{Items: make([]domain.PlacedItem, 0, len(items))}
	for _, it := range items {
		p.Items = append(p.Items, it.Clone())
	}
	return p, true
}

// TransformForPaste re-keys the payload onto the target floor and assigns
// brand-new identifiers through assign, skipping any value that collides
// with an existing identifier. Source identifiers are never reused. Target
// validation is the caller's responsibility and must run before this.
func TransformForPaste(p Payload, opts PasteOptions, existing map[string]struct{}, assign func() string) []domain.PlacedItem {
	out := make([]domain.PlacedItem, 0, len(p.Items))
	for _, src := range p.Items {
		it := src.Clone()
		id := assign()
		for {
			if _, taken := existing[id]; !taken {
				break
			}
			id = assign()
		}
		it.ID = id
		it.Floor = opts.TargetFloor
		it.Position.X += opts.Offset.X
		it.Position.Y += opts.Offset.Y
		it.Position.Z += opts.Offset.Z
		it.ForDelete = false
		it.FromImport = false
		it.ExternalID = ""
		it.Flags = domain.ChangeFlags{}
		it.Baseline.Seeded = false
		it.SeedBaseline()
		out = append(out, it)
	}
	return out
}
