// Package artifact turns a scene snapshot into its published export
// artifacts: per-floor location files, the floor-plate file, and the element
// manifest. Export is all-or-nothing; a failed precondition publishes
// nothing.
package artifact

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"scenecore/internal/core"
	"scenecore/pkg/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FloorDescriptor summarizes one floor of the scene descriptor artifact.
type FloorDescriptor struct {
	Index      int          `json:"index"`
	Name       string       `json:"name" validate:"required"`
	SourceFile string       `json:"source_file" validate:"required"`
	Spawn      *domain.Vec3 `json:"spawn" validate:"required"`
	Height     float64      `json:"height"`
}

// SceneDescriptor is the scene descriptor artifact. The floor list is also
// the validated shape a scene must satisfy before any artifact is written.
// The mapping fields are carried across re-exports: values present in the
// previous descriptor survive unless the current export resolves a
// replacement.
type SceneDescriptor struct {
	SceneID string            `json:"scene_id" validate:"required"`
	Floors  []FloorDescriptor `json:"floors" validate:"required,min=1,dive"`
	// TagTypes maps classification tag to semantic type.
	TagTypes map[string]string `json:"tag_types,omitempty" validate:"-"`
	// TypeAssets maps semantic type to visual-asset reference.
	TypeAssets map[string]string `json:"type_assets,omitempty" validate:"-"`
	// DirectRender lists types rendered without an asset lookup.
	DirectRender []string `json:"direct_render,omitempty" validate:"-"`
}

// PreconditionError aggregates the descriptor violations that blocked an
// export.
type PreconditionError struct {
	Problems []string
}

func (e PreconditionError) Error() string {
	return fmt.Sprintf("export preconditions failed: %s", strings.Join(e.Problems, "; "))
}

// DescribeScene builds the descriptor for the floors that survive the remap.
func DescribeScene(sceneID string, snap core.Snapshot) SceneDescriptor {
	visible := make(map[int]bool, len(snap.FloorOrder))
	for _, idx := range snap.FloorOrder {
		visible[idx] = true
	}
	desc := SceneDescriptor{SceneID: sceneID}
	for _, f := range snap.Floors {
		if len(snap.FloorOrder) > 0 && !visible[f.Index] {
			continue
		}
		desc.Floors = append(desc.Floors, FloorDescriptor{
			Index:      f.Index,
			Name:       f.Name,
			SourceFile: f.SourceFile,
			Spawn:      f.Spawn,
			Height:     f.Height,
		})
	}
	return desc
}

// EncodeDescriptor writes the descriptor as indented JSON.
func EncodeDescriptor(w io.Writer, desc SceneDescriptor) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(desc)
}

// DecodeDescriptor reads a previously published descriptor.
func DecodeDescriptor(r io.Reader) (SceneDescriptor, error) {
	var desc SceneDescriptor
	if err := json.NewDecoder(r).Decode(&desc); err != nil {
		return SceneDescriptor{}, fmt.Errorf("decode scene descriptor: %w", err)
	}
	return desc, nil
}

// CheckPreconditions validates the descriptor. Every violation is reported,
// not just the first; a single missing spawn point blocks the whole export.
func CheckPreconditions(desc SceneDescriptor) error {
	err := validate.Struct(desc)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	perr := PreconditionError{}
	for _, fe := range verrs {
		switch {
		case strings.HasSuffix(fe.Namespace(), ".Spawn"):
			perr.Problems = append(perr.Problems, fmt.Sprintf("%s: missing spawn point", floorLabel(desc, fe)))
		case strings.HasSuffix(fe.Namespace(), ".SourceFile"):
			perr.Problems = append(perr.Problems, fmt.Sprintf("%s: missing source file", floorLabel(desc, fe)))
		case strings.HasSuffix(fe.Namespace(), ".Name"):
			perr.Problems = append(perr.Problems, fmt.Sprintf("%s: missing name", floorLabel(desc, fe)))
		case fe.Field() == "SceneID":
			perr.Problems = append(perr.Problems, "scene id is empty")
		case fe.Field() == "Floors":
			perr.Problems = append(perr.Problems, "scene has no floors")
		default:
			perr.Problems = append(perr.Problems, fe.Error())
		}
	}
	return perr
}

func floorLabel(desc SceneDescriptor, fe validator.FieldError) string {
	// Namespace looks like SceneDescriptor.Floors[2].Spawn.
	ns := fe.Namespace()
	open := strings.Index(ns, "[")
	closeIdx := strings.Index(ns, "]")
	if open >= 0 && closeIdx > open {
		var i int
		if _, err := fmt.Sscanf(ns[open+1:closeIdx], "%d", &i); err == nil && i < len(desc.Floors) {
			f := desc.Floors[i]
			if f.Name != "" {
				return fmt.Sprintf("floor %d (%s)", f.Index, f.Name)
			}
			return fmt.Sprintf("floor %d", f.Index)
		}
	}
	return "floor"
}
