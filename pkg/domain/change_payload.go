package domain

import "encoding/json"

// ChangePayload wraps a JSON snapshot of a change's before/after state. The
// bytes are cloned on the way in and out so patches stay immutable once a
// command has been constructed.
type ChangePayload struct {
	defined bool
	raw     json.RawMessage
}

// NewChangePayload builds a payload wrapper from raw JSON. Passing nil yields
// a defined but empty payload; use UndefinedChangePayload for "not set".
func NewChangePayload(raw json.RawMessage) ChangePayload {
	payload := ChangePayload{defined: true}
	if raw != nil {
		payload.raw = cloneRawMessage(raw)
	}
	return payload
}

// NewChangePayloadFromValue marshals a typed value into a ChangePayload.
func NewChangePayloadFromValue[T any](value T) (ChangePayload, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return ChangePayload{}, err
	}
	return NewChangePayload(raw), nil
}

// UndefinedChangePayload returns an uninitialized payload wrapper.
func UndefinedChangePayload() ChangePayload {
	return ChangePayload{}
}

// Defined reports whether the payload has been initialized.
func (p ChangePayload) Defined() bool {
	return p.defined
}

// Decode unmarshals the payload into out. It reports false when the payload
// is undefined or empty.
func (p ChangePayload) Decode(out any) (bool, error) {
	if !p.defined || len(p.raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(p.raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// Raw returns a cloned copy of the underlying JSON bytes, or nil when the
// payload is undefined or empty.
func (p ChangePayload) Raw() json.RawMessage {
	if !p.defined || len(p.raw) == 0 {
		return nil
	}
	return cloneRawMessage(p.raw)
}

func cloneRawMessage(raw json.RawMessage) json.RawMessage {
	cloned := make(json.RawMessage, len(raw))
	copy(cloned, raw)
	return cloned
}

// Change is one plain-value patch entry: an entity reference plus before and
// after snapshots. Commands are built from Change lists so they stay
// serializable and cannot capture live references.
type Change struct {
	Entity EntityType    `json:"entity"`
	Action Action        `json:"action"`
	ID     string        `json:"id,omitempty"`
	Before ChangePayload `json:"-"`
	After  ChangePayload `json:"-"`
}

// Inverse returns the change that undoes this one.
func (c Change) Inverse() Change {
	inv := Change{Entity: c.Entity, ID: c.ID, Before: c.After, After: c.Before}
	switch c.Action {
	case ActionCreate:
		inv.Action = ActionDelete
	case ActionDelete:
		inv.Action = ActionCreate
	default:
		inv.Action = ActionUpdate
	}
	return inv
}
