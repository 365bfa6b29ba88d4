package core

import (
	"context"
	"fmt"

	"scenecore/pkg/domain"
)

// FloorExistsRule blocks pastes targeting a floor the scene does not have.
type FloorExistsRule struct{}

func (FloorExistsRule) Name() string { return "floor-exists" }

func (FloorExistsRule) Evaluate(_ context.Context, view domain.PasteView, targetFloor int, _ []domain.PlacedItem) (domain.Result, error) {
	if _, ok := view.FindFloor(targetFloor); !ok {
		return domain.Result{Violations: []domain.Violation{{
			Rule:     "floor-exists",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("floor %d does not exist", targetFloor),
		}}}, nil
	}
	return domain.Result{}, nil
}

// DuplicateTagRule warns when the paste would stack an item on a floor that
// already carries another item with the same tag at the same position. The
// paste still proceeds; the warning is surfaced to the caller.
type DuplicateTagRule struct{}

func (DuplicateTagRule) Name() string { return "duplicate-tag" }

func (DuplicateTagRule) Evaluate(_ context.Context, view domain.PasteView, targetFloor int, items []domain.PlacedItem) (domain.Result, error) {
	type key struct {
		tag string
		pos domain.Vec3
	}
	occupied := make(map[key]bool)
	for _, it := range view.ActiveItemsOnFloor(targetFloor) {
		occupied[key{it.Tag, it.Position}] = true
	}
	var res domain.Result
	for _, it := range items {
		if occupied[key{it.Tag, it.Position}] {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "duplicate-tag",
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("item %q already present at the same position on floor %d", it.Tag, targetFloor),
			})
		}
	}
	return res, nil
}

// EmptyPayloadRule blocks pastes carrying no items.
type EmptyPayloadRule struct{}

func (EmptyPayloadRule) Name() string { return "non-empty-payload" }

func (EmptyPayloadRule) Evaluate(_ context.Context, _ domain.PasteView, _ int, items []domain.PlacedItem) (domain.Result, error) {
	if len(items) == 0 {
		return domain.Result{Violations: []domain.Violation{{
			Rule:     "non-empty-payload",
			Severity: domain.SeverityBlock,
			Message:  "clipboard payload is empty",
		}}}, nil
	}
	return domain.Result{}, nil
}

// DefaultRulesEngine returns the engine with the stock paste rules
// registered. Callers can extend it or swap it out entirely.
func DefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(EmptyPayloadRule{})
	engine.Register(FloorExistsRule{})
	engine.Register(DuplicateTagRule{})
	return engine
}
