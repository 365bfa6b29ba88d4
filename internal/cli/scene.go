package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"scenecore/internal/artifact"
	"scenecore/internal/flatfile"
	"scenecore/pkg/domain"
)

// SceneManifest describes a scene directory: the floor metadata plus the
// flat files that make it up. It lives as scene.json next to the sources.
type SceneManifest struct {
	SceneID      string         `json:"scene_id"`
	Floors       []domain.Floor `json:"floors"`
	PlatesFile   string         `json:"plates_file,omitempty"`
	ElementsFile string         `json:"elements_file,omitempty"`
}

// LoadManifest reads scene.json from dir.
func LoadManifest(dir string) (SceneManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "scene.json"))
	if err != nil {
		return SceneManifest{}, fmt.Errorf("read scene manifest: %w", err)
	}
	var m SceneManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return SceneManifest{}, fmt.Errorf("decode scene manifest: %w", err)
	}
	if m.SceneID == "" {
		return SceneManifest{}, fmt.Errorf("scene manifest missing scene_id")
	}
	return m, nil
}

// sceneSources holds the parsed flat files of a scene directory.
type sceneSources struct {
	manifest  SceneManifest
	locations map[int]flatfile.Document
	plates    *flatfile.Document
	items     []domain.PlacedItem
	plateSet  map[int][]domain.FloorPlate
	elements  []domain.ArchitecturalObject
}

// loadSceneSources parses every source file the manifest names.
func loadSceneSources(dir string) (sceneSources, error) {
	m, err := LoadManifest(dir)
	if err != nil {
		return sceneSources{}, err
	}
	src := sceneSources{manifest: m, locations: make(map[int]flatfile.Document)}
	for _, f := range m.Floors {
		doc, items, err := loadLocationFile(filepath.Join(dir, f.SourceFile))
		if err != nil {
			return sceneSources{}, fmt.Errorf("floor %d: %w", f.Index, err)
		}
		src.locations[f.Index] = doc
		src.items = append(src.items, items...)
	}
	if m.PlatesFile != "" {
		f, err := os.Open(filepath.Join(dir, m.PlatesFile))
		if err != nil {
			return sceneSources{}, fmt.Errorf("open plates file: %w", err)
		}
		doc, perr := flatfile.ParsePlates(f)
		f.Close()
		if perr != nil {
			return sceneSources{}, fmt.Errorf("parse plates file: %w", perr)
		}
		src.plates = &doc
		src.plateSet = make(map[int][]domain.FloorPlate)
		for _, row := range doc.Rows {
			if p, ok := flatfile.PlateFromRow(row); ok {
				src.plateSet[p.Floor] = append(src.plateSet[p.Floor], p)
			}
		}
	}
	if m.ElementsFile != "" {
		f, err := os.Open(filepath.Join(dir, m.ElementsFile))
		if err != nil {
			return sceneSources{}, fmt.Errorf("open elements file: %w", err)
		}
		manifest, derr := artifact.DecodeElements(f)
		f.Close()
		if derr != nil {
			return sceneSources{}, fmt.Errorf("parse elements file: %w", derr)
		}
		for _, group := range manifest.Floors {
			src.elements = append(src.elements, group.Elements...)
		}
	}
	return src, nil
}

func loadLocationFile(path string) (flatfile.Document, []domain.PlacedItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return flatfile.Document{}, nil, err
	}
	defer f.Close()
	doc, err := flatfile.ParseLocation(f)
	if err != nil {
		return flatfile.Document{}, nil, err
	}
	var items []domain.PlacedItem
	for _, row := range doc.Rows {
		if it, ok := flatfile.ItemFromRow(row); ok {
			items = append(items, it)
		}
	}
	return doc, items, nil
}
