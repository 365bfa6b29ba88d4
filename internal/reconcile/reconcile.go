// Package reconcile re-derives an edited location record file from the
// current scene state plus the original file. Matching is keyed by a
// geometric fingerprint computed from values frozen at creation time, so it
// survives every later edit.
package reconcile

import (
	"fmt"
	"strconv"

	"scenecore/internal/flatfile"
	"scenecore/pkg/domain"
)

// Fingerprint keys an item to its source row: original classification tag
// plus original X/Y at high precision and original Z at coarse precision.
// Horizontal placement must be exact for matching; vertical placement
// tolerates floor-height rounding.
type Fingerprint string

func fingerprintOf(tag string, x, y, z float64) Fingerprint {
	return Fingerprint(tag + "|" + flatfile.FormatCoord(x) + "|" + flatfile.FormatCoord(y) + "|" + fmt.Sprintf("%.1f", z))
}

// ItemFingerprint computes the fingerprint from an item's baseline snapshot.
func ItemFingerprint(it domain.PlacedItem) Fingerprint {
	b := it.Baseline
	return fingerprintOf(b.Tag, b.Position.X, b.Position.Y, b.Position.Z)
}

func rowFingerprint(r flatfile.Row) (Fingerprint, bool) {
	x, okX := r.Float(flatfile.ColPosX)
	y, okY := r.Float(flatfile.ColPosY)
	z, okZ := r.Float(flatfile.ColPosZ)
	if !okX || !okY || !okZ {
		return "", false
	}
	return fingerprintOf(r.Text(flatfile.ColTag), x, y, z), true
}

// Options tunes a reconciliation pass.
type Options struct {
	// MigratedTags are classification tags whose records now live in a
	// different artifact; unmatched rows carrying them are dropped.
	MigratedTags map[string]bool
	// Remap substitutes floor indexes; rows whose floor has no entry are
	// dropped before matching. Nil means no remap is in effect.
	Remap map[int]int
}

// Input carries the original document and the current item set.
type Input struct {
	Document flatfile.Document
	// Items is the full current set, tombstoned records included.
	Items []domain.PlacedItem
	// Deleted holds hard-deleted imported items whose rows must be dropped.
	Deleted []domain.PlacedItem
}

// Reconcile regenerates the location record file: matched rows are updated
// in place, rows of deleted or superseded items are dropped, rows it cannot
// confidently match are preserved verbatim, and one synthesized row is
// appended per newly created item.
func Reconcile(in Input, opts Options) flatfile.Document {
	live := make(map[Fingerprint][]*domain.PlacedItem)
	tombstoned := make(map[Fingerprint]bool)
	for i := range in.Items {
		it := &in.Items[i]
		fp := ItemFingerprint(*it)
		if it.ForDelete {
			tombstoned[fp] = true
			continue
		}
		live[fp] = append(live[fp], it)
	}
	deleted := make(map[Fingerprint]bool)
	for _, it := range in.Deleted {
		deleted[ItemFingerprint(it)] = true
	}

	matched := make(map[string]bool)
	out := flatfile.Document{Header: flatfile.PadLocationHeader(in.Document.Header)}
	for _, row := range in.Document.Rows {
		if row.Malformed {
			out.Rows = append(out.Rows, row.Clone())
			continue
		}
		if opts.Remap != nil {
			floor, _ := row.Int(flatfile.ColFloor)
			if _, ok := opts.Remap[floor]; !ok {
				continue
			}
		}
		fp, ok := rowFingerprint(row)
		if !ok {
			out.Rows = append(out.Rows, row.Clone())
			continue
		}
		if candidates := live[fp]; len(candidates) > 0 {
			it := candidates[0]
			live[fp] = candidates[1:]
			matched[it.ID] = true
			out.Rows = append(out.Rows, updateRow(row, *it, opts.Remap))
			continue
		}
		if deleted[fp] {
			continue
		}
		if opts.MigratedTags[row.Text(flatfile.ColTag)] {
			continue
		}
		// A stale tombstone beats treating the row as unknown; a colliding
		// pasted item still gets its own appended row below.
		if tombstoned[fp] {
			continue
		}
		out.Rows = append(out.Rows, row.Clone())
	}

	for i := range in.Items {
		it := in.Items[i]
		if it.ForDelete || it.FromImport || matched[it.ID] {
			continue
		}
		synthesized := it
		if opts.Remap != nil {
			mapped, ok := opts.Remap[it.Floor]
			if !ok {
				continue
			}
			synthesized.Floor = mapped
		}
		out.Rows = append(out.Rows, flatfile.RowFromItem(synthesized))
	}
	return out
}

// updateRow overwrites a column when the item flagged it or when the live
// value diverged from the frozen baseline, so an untouched row round-trips
// byte for byte apart from the identifier column. The divergence check
// catches edits that arrive without a flag, such as the reduced count on a
// split part that inherited the source's baseline.
func updateRow(row flatfile.Row, it domain.PlacedItem, remap map[int]int) flatfile.Row {
	cp := row.Clone()
	for len(cp.Fields) < flatfile.LocationColumns {
		cp.Fields = append(cp.Fields, "")
	}
	b := it.Baseline
	if it.Flags.TypeChanged || it.Tag != b.Tag {
		cp.Fields[flatfile.ColTag] = it.Tag
	}
	switch {
	case remap != nil:
		if mapped, ok := remap[it.Floor]; ok {
			cp.Fields[flatfile.ColFloor] = strconv.Itoa(mapped)
		} else {
			floor, _ := row.Int(flatfile.ColFloor)
			cp.Fields[flatfile.ColFloor] = strconv.Itoa(remap[floor])
		}
	case it.Flags.FloorChanged || it.Floor != b.Floor:
		cp.Fields[flatfile.ColFloor] = strconv.Itoa(it.Floor)
	}
	if it.Flags.Moved || it.Position != b.Position {
		cp.Fields[flatfile.ColPosX] = flatfile.FormatCoord(it.Position.X)
		cp.Fields[flatfile.ColPosY] = flatfile.FormatCoord(it.Position.Y)
		cp.Fields[flatfile.ColPosZ] = flatfile.FormatCoord(it.Position.Z)
	}
	if it.Flags.Rotated || it.Rotation != b.Rotation {
		cp.Fields[flatfile.ColRotX] = flatfile.FormatCoord(it.Rotation.X)
		cp.Fields[flatfile.ColRotY] = flatfile.FormatCoord(it.Rotation.Y)
		cp.Fields[flatfile.ColRotZ] = flatfile.FormatCoord(it.Rotation.Z)
	}
	if it.Flags.BrandChanged || it.Brand != b.Brand {
		cp.Fields[flatfile.ColBrand] = it.Brand
	}
	if it.Flags.CountChanged || it.Count != b.Count {
		cp.Fields[flatfile.ColCount] = strconv.Itoa(it.Count)
	}
	if it.Flags.HierarchyChanged || it.Hierarchy != b.Hierarchy {
		cp.Fields[flatfile.ColHierarchy] = strconv.Itoa(it.Hierarchy)
	}
	cp.Fields[flatfile.ColExternal] = it.ExternalID
	return cp
}
