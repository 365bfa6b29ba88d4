package core

import (
	"time"

	"scenecore/pkg/domain"
)

// DefaultHistoryDepth bounds the undo stack; the oldest command is dropped
// when the bound is exceeded.
const DefaultHistoryDepth = 100

// Command is a reversible edit expressed as plain value patches. Forward and
// Backward are captured at construction time from immutable before/after
// snapshots, so reverting never recomputes state that concurrent edits may
// have moved. Apply is not idempotent: callers must not apply twice without
// an intervening revert.
type Command struct {
	Name     string
	Forward  []domain.Change
	Backward []domain.Change
}

// backwardOf derives the revert patch list from a forward list: inverse
// changes in reverse order.
func backwardOf(forward []domain.Change) []domain.Change {
	out := make([]domain.Change, 0, len(forward))
	for i := len(forward) - 1; i >= 0; i-- {
		out = append(out, forward[i].Inverse())
	}
	return out
}

// NewCommand builds a command from its forward patches, deriving the
// backward patches automatically.
func NewCommand(name string, forward ...domain.Change) Command {
	return Command{Name: name, Forward: forward, Backward: backwardOf(forward)}
}

// History is the command engine: two stacks of executed and undone commands.
type History struct {
	store   *SceneStore
	done    []Command
	undone  []Command
	depth   int
	metrics MetricsRecorder
	log     Logger
}

// HistoryOption customizes a History.
type HistoryOption func(*History)

// WithHistoryDepth overrides the undo stack bound.
func WithHistoryDepth(depth int) HistoryOption {
	return func(h *History) {
		if depth > 0 {
			h.depth = depth
		}
	}
}

// WithHistoryMetrics attaches a metrics recorder.
func WithHistoryMetrics(rec MetricsRecorder) HistoryOption {
	return func(h *History) {
		if rec != nil {
			h.metrics = rec
		}
	}
}

// WithHistoryLogger attaches a logger.
func WithHistoryLogger(log Logger) HistoryOption {
	return func(h *History) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHistory constructs a command engine bound to a store.
func NewHistory(store *SceneStore, opts ...HistoryOption) *History {
	h := &History{
		store:   store,
		depth:   DefaultHistoryDepth,
		metrics: noopMetrics{},
		log:     noopLogger{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Execute applies the command, pushes it onto the done stack, and clears the
// redo stack: a new edit branches history, so prior undos are unreachable.
func (h *History) Execute(cmd Command) {
	start := time.Now()
	h.store.applyChanges(cmd.Forward)
	h.done = append(h.done, cmd)
	if len(h.done) > h.depth {
		h.done = h.done[len(h.done)-h.depth:]
	}
	h.undone = nil
	h.log.Debug("command executed", "name", cmd.Name, "patches", len(cmd.Forward))
	h.metrics.Observe("execute", time.Since(start), nil)
}

// Undo reverts the most recent command. It reports the command name and
// false when there is nothing to undo. Undo never fails: patches targeting
// vanished entities apply as no-ops.
func (h *History) Undo() (string, bool) {
	if len(h.done) == 0 {
		return "", false
	}
	start := time.Now()
	cmd := h.done[len(h.done)-1]
	h.done = h.done[:len(h.done)-1]
	h.store.applyChanges(cmd.Backward)
	h.undone = append(h.undone, cmd)
	h.log.Debug("command undone", "name", cmd.Name)
	h.metrics.Observe("undo", time.Since(start), nil)
	return cmd.Name, true
}

// Redo re-applies the most recently undone command.
func (h *History) Redo() (string, bool) {
	if len(h.undone) == 0 {
		return "", false
	}
	start := time.Now()
	cmd := h.undone[len(h.undone)-1]
	h.undone = h.undone[:len(h.undone)-1]
	h.store.applyChanges(cmd.Forward)
	h.done = append(h.done, cmd)
	h.log.Debug("command redone", "name", cmd.Name)
	h.metrics.Observe("redo", time.Since(start), nil)
	return cmd.Name, true
}

// CanUndo reports whether the done stack is non-empty.
func (h *History) CanUndo() bool { return len(h.done) > 0 }

// CanRedo reports whether the undone stack is non-empty.
func (h *History) CanRedo() bool { return len(h.undone) > 0 }

// UndoName returns the name of the command Undo would revert.
func (h *History) UndoName() string {
	if len(h.done) == 0 {
		return ""
	}
	return h.done[len(h.done)-1].Name
}

// RedoName returns the name of the command Redo would re-apply.
func (h *History) RedoName() string {
	if len(h.undone) == 0 {
		return ""
	}
	return h.undone[len(h.undone)-1].Name
}
