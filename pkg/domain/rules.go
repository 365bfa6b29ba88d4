package domain

import (
	"context"
	"fmt"
	"strings"
)

// Severity ranks a rule violation.
type Severity string

const (
	SeverityBlock Severity = "block"
	SeverityWarn  Severity = "warn"
	SeverityLog   Severity = "log"
)

// Violation describes a single paste-rule finding.
type Violation struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	ItemID   string   `json:"item_id,omitempty"`
}

// Result aggregates violations from rule evaluation.
type Result struct {
	Violations []Violation `json:"violations,omitempty"`
}

// Merge appends the violations of other into the result.
func (r *Result) Merge(other Result) {
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking reports whether any violation blocks the operation.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError signals that blocking violations prevented a paste.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	var names []string
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			names = append(names, v.Rule)
		}
	}
	return fmt.Sprintf("blocked by rules: %s", strings.Join(names, ", "))
}

// PasteView provides read-only access to the paste target for rule evaluation.
type PasteView interface {
	Floors() []Floor
	FindFloor(index int) (Floor, bool)
	ActiveItemsOnFloor(index int) []PlacedItem
}

// PasteRule validates a pending paste against the target scene.
type PasteRule interface {
	Name() string
	Evaluate(ctx context.Context, view PasteView, targetFloor int, items []PlacedItem) (Result, error)
}

// RulesEngine orchestrates paste-rule evaluation.
type RulesEngine struct {
	rules []PasteRule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule PasteRule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view PasteView, targetFloor int, items []PlacedItem) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, targetFloor, items)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
