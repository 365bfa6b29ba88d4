package artifact

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"scenecore/internal/blob"
	"scenecore/internal/core"
	"scenecore/internal/flatfile"
	"scenecore/internal/floorremap"
	"scenecore/internal/reconcile"
	"scenecore/pkg/domain"
)

// Request carries everything an export needs besides the scene itself: the
// original source documents to reconcile against and the destination prefix.
type Request struct {
	SceneID string
	// Prefix is the blob key prefix artifacts are published under.
	Prefix string
	// Locations maps source floor index to its parsed location document.
	Locations map[int]flatfile.Document
	// Plates is the parsed floor-plate document, if the scene has one.
	Plates *flatfile.Document
	// MigratedTags are classification tags whose records moved to another
	// artifact; their unmatched rows are dropped from location files.
	MigratedTags map[string]bool
	// Previous is the descriptor published by the last export, if any. Its
	// tag/type/asset mappings and direct-render list carry over.
	Previous *SceneDescriptor
}

// Result reports what an export published.
type Result struct {
	Artifacts []blob.Info
	Remapped  bool
	Duration  time.Duration
}

// Exporter drives the snapshot-remap-reconcile-publish pipeline.
type Exporter struct {
	store    blob.Store
	resolver core.TypeResolver
	log      core.Logger
	metrics  core.MetricsRecorder
}

// ExporterOption customizes an Exporter.
type ExporterOption func(*Exporter)

// WithExportResolver attaches the lookup resolver used to annotate element
// manifests. Lookup failures degrade the annotation, never the export.
func WithExportResolver(r core.TypeResolver) ExporterOption {
	return func(e *Exporter) { e.resolver = r }
}

// WithExportLogger attaches a logger.
func WithExportLogger(log core.Logger) ExporterOption {
	return func(e *Exporter) {
		if log != nil {
			e.log = log
		}
	}
}

// WithExportMetrics attaches a metrics recorder.
func WithExportMetrics(rec core.MetricsRecorder) ExporterOption {
	return func(e *Exporter) {
		if rec != nil {
			e.metrics = rec
		}
	}
}

// NewExporter constructs an exporter publishing to store.
func NewExporter(store blob.Store, opts ...ExporterOption) *Exporter {
	e := &Exporter{store: store, log: core.NoopLogger(), metrics: core.NoopMetrics()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export validates preconditions, reconciles every source document against
// the snapshot, and publishes the resulting artifacts. Either every artifact
// is published or none is: precondition and write failures abort the run.
func (e *Exporter) Export(ctx context.Context, snap core.Snapshot, req Request) (Result, error) {
	started := time.Now()
	res, err := e.export(ctx, snap, req)
	res.Duration = time.Since(started)
	e.metrics.Observe("export", res.Duration, err)
	return res, err
}

func (e *Exporter) export(ctx context.Context, snap core.Snapshot, req Request) (Result, error) {
	desc := DescribeScene(req.SceneID, snap)
	if err := CheckPreconditions(desc); err != nil {
		e.log.Warn("export blocked", "scene", req.SceneID, "error", err)
		return Result{}, err
	}

	remap := floorremap.Compute(snap.FloorOrder, len(snap.Floors))
	finalName := make(map[int]string, len(snap.Floors)) // source index -> output file name
	for _, f := range snap.Floors {
		name := f.SourceFile
		if remap != nil {
			if _, ok := remap[f.Index]; !ok {
				continue
			}
			name = remap.RenameFloorFile(f.SourceFile)
		}
		finalName[f.Index] = name
	}

	type pending struct {
		key         string
		contentType string
		body        []byte
	}
	var outputs []pending

	itemsByFloor, deletedByFloor := PartitionItems(snap)
	for _, f := range snap.Floors {
		doc, ok := req.Locations[f.Index]
		if !ok {
			continue
		}
		name, live := finalName[f.Index]
		if !live {
			// The floor was removed from the display order; its file is
			// not republished.
			continue
		}
		merged := reconcile.Reconcile(reconcile.Input{
			Document: doc,
			Items:    itemsByFloor[f.Index],
			Deleted:  deletedByFloor[f.Index],
		}, reconcile.Options{MigratedTags: req.MigratedTags, Remap: remap})
		var buf bytes.Buffer
		if err := merged.Write(&buf); err != nil {
			return Result{}, fmt.Errorf("write location file for floor %d: %w", f.Index, err)
		}
		outputs = append(outputs, pending{
			key:         path.Join(req.Prefix, name),
			contentType: "text/csv",
			body:        buf.Bytes(),
		})
	}

	if req.Plates != nil {
		rewritten := flatfile.RewritePlates(*req.Plates, snap.Plates, remap)
		var buf bytes.Buffer
		if err := rewritten.Write(&buf); err != nil {
			return Result{}, fmt.Errorf("write plate file: %w", err)
		}
		outputs = append(outputs, pending{
			key:         path.Join(req.Prefix, "floor_plates.txt"),
			contentType: "text/csv",
			body:        buf.Bytes(),
		})
	}

	elements := snap.Elements
	if remap != nil {
		elements = remap.ApplyElements(elements)
	}
	manifest := BuildElementManifest(req.SceneID, e.annotate(ctx, elements))
	var buf bytes.Buffer
	if err := EncodeElements(&buf, manifest); err != nil {
		return Result{}, fmt.Errorf("encode element manifest: %w", err)
	}
	outputs = append(outputs, pending{
		key:         path.Join(req.Prefix, "elements.json"),
		contentType: "application/json",
		body:        buf.Bytes(),
	})

	outDesc := desc
	if remap != nil {
		outDesc = DescribeScene(req.SceneID, core.Snapshot{
			Floors:     remap.ApplyFloors(snap.Floors),
			FloorOrder: nil,
		})
	}
	e.enrichDescriptor(ctx, &outDesc, req.Previous, snap)
	var descBuf bytes.Buffer
	if err := EncodeDescriptor(&descBuf, outDesc); err != nil {
		return Result{}, fmt.Errorf("encode scene descriptor: %w", err)
	}
	outputs = append(outputs, pending{
		key:         path.Join(req.Prefix, "scene_descriptor.json"),
		contentType: "application/json",
		body:        descBuf.Bytes(),
	})

	result := Result{Remapped: remap != nil}
	for _, out := range outputs {
		info, err := e.store.Put(ctx, out.key, bytes.NewReader(out.body), blob.PutOptions{
			ContentType: out.contentType,
			Metadata:    map[string]string{"scene": req.SceneID},
		})
		if err != nil {
			return Result{}, fmt.Errorf("publish %s: %w", out.key, err)
		}
		result.Artifacts = append(result.Artifacts, info)
	}
	e.log.Info("scene exported", "scene", req.SceneID, "artifacts", len(result.Artifacts), "remapped", result.Remapped)
	return result, nil
}

// enrichDescriptor fills the descriptor's mapping fields: the previous
// export's values survive, and missing entries are resolved for the tags the
// scene currently uses. A failed lookup leaves its entry absent.
func (e *Exporter) enrichDescriptor(ctx context.Context, desc *SceneDescriptor, prev *SceneDescriptor, snap core.Snapshot) {
	desc.TagTypes = make(map[string]string)
	desc.TypeAssets = make(map[string]string)
	if prev != nil {
		for tag, typ := range prev.TagTypes {
			desc.TagTypes[tag] = typ
		}
		for typ, asset := range prev.TypeAssets {
			desc.TypeAssets[typ] = asset
		}
		desc.DirectRender = append(desc.DirectRender, prev.DirectRender...)
	}
	if e.resolver == nil {
		return
	}
	seen := make(map[string]bool)
	for _, it := range snap.Items {
		if it.ForDelete || seen[it.Tag] {
			continue
		}
		seen[it.Tag] = true
		typ, ok := desc.TagTypes[it.Tag]
		if !ok {
			resolved, err := e.resolver.TypeForTag(ctx, it.Tag)
			if err != nil || resolved == "" {
				if err != nil {
					e.log.Warn("tag type lookup failed", "tag", it.Tag, "error", err)
				}
				continue
			}
			typ = resolved
			desc.TagTypes[it.Tag] = typ
		}
		if _, ok := desc.TypeAssets[typ]; !ok {
			asset, err := e.resolver.AssetForTag(ctx, it.Tag)
			if err != nil {
				e.log.Warn("asset lookup failed", "tag", it.Tag, "error", err)
				continue
			}
			desc.TypeAssets[typ] = asset
		}
	}
}

// annotate resolves display type names for element tags where a resolver is
// configured. A failed lookup leaves the element as-is.
func (e *Exporter) annotate(ctx context.Context, elements []domain.ArchitecturalObject) []domain.ArchitecturalObject {
	if e.resolver == nil {
		return elements
	}
	out := make([]domain.ArchitecturalObject, len(elements))
	for i, obj := range elements {
		obj = obj.Clone()
		typ, err := e.resolver.TypeForTag(ctx, string(obj.Type))
		if err != nil {
			e.log.Warn("element type lookup failed", "element", obj.ID, "type", obj.Type, "error", err)
		} else if typ != "" {
			if obj.Props == nil {
				obj.Props = make(map[string]string, 1)
			}
			obj.Props["display_type"] = typ
		}
		out[i] = obj
	}
	return out
}

// PartitionItems splits the snapshot's item set per source floor: live and
// tombstoned records go to the file their baseline row lives in, in-editor
// creations to the file of their current floor. The diff command reuses it
// so previews bucket items the same way export does.
func PartitionItems(snap core.Snapshot) (items, deleted map[int][]domain.PlacedItem) {
	items = make(map[int][]domain.PlacedItem)
	deleted = make(map[int][]domain.PlacedItem)
	for _, it := range snap.Items {
		items[homeFloor(it)] = append(items[homeFloor(it)], it)
	}
	for _, it := range snap.Graveyard {
		deleted[homeFloor(it)] = append(deleted[homeFloor(it)], it)
	}
	return items, deleted
}

func homeFloor(it domain.PlacedItem) int {
	if it.FromImport && it.Baseline.Seeded {
		return it.Baseline.Floor
	}
	return it.Floor
}
