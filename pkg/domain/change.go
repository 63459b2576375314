package domain

import "strings"

// ChangeType discriminates which graph a change targets.
type ChangeType string

// Change targets: the canonical schema graph or the live state graph.
const (
	ChangeSchema ChangeType = "schema"
	ChangeState  ChangeType = "state"
)

// Action names a mutation. The canonical vocabulary is lowercase
// create/update/delete; producers using the historical capitalized bulk
// spellings are normalized at the boundary.
type Action string

// Canonical change actions.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Normalize folds an action to its canonical lowercase form.
func (a Action) Normalize() Action { return Action(strings.ToLower(string(a))) }

// Change is a queued change record. Exactly one of Payload (targeted
// single-node/edge mutation) or Data (bulk node-map plus link list) is set.
type Change struct {
	Timestamp int64      `json:"timestamp"`
	Type      ChangeType `json:"type"`
	Action    Action     `json:"action"`
	Version   string     `json:"version,omitempty"`
	Payload   *Payload   `json:"payload,omitempty"`
	Data      *BulkData  `json:"data,omitempty"`
}

// Payload is a targeted mutation. Node operations name NodeID; edge
// operations name SourceID and TargetID. Update operations carry the merged
// properties under Updates.
type Payload struct {
	NodeID     string     `json:"node_id,omitempty"`
	NodeType   NodeType   `json:"node_type,omitempty"`
	SourceID   string     `json:"source_id,omitempty"`
	TargetID   string     `json:"target_id,omitempty"`
	EdgeType   string     `json:"edge_type,omitempty"`
	Cascade    bool       `json:"cascade,omitempty"`
	Properties Properties `json:"properties,omitempty"`
	Updates    *UpdateSet `json:"updates,omitempty"`
}

// UpdateSet carries the property overlay of an update payload.
type UpdateSet struct {
	Properties Properties `json:"properties"`
}

// IsEdge reports whether the payload addresses an edge rather than a node.
func (p *Payload) IsEdge() bool { return p.SourceID != "" && p.TargetID != "" }

// BulkData is the bulk-apply shape: a node map grouped by type and a link
// list, applied with additive-merge semantics.
type BulkData struct {
	Nodes map[NodeType]map[string]Properties `json:"nodes"`
	Links []Edge                             `json:"links"`
}

// Validate checks the structural invariants of a dequeued change record.
func (c *Change) Validate() error {
	if c.Timestamp <= 0 {
		return ValidationError{Field: "timestamp", Reason: "must be a positive integer"}
	}
	if c.Type != ChangeSchema && c.Type != ChangeState {
		return ValidationError{Field: "type", Reason: "must be schema or state"}
	}
	switch c.Action.Normalize() {
	case ActionCreate, ActionUpdate, ActionDelete:
	default:
		return ValidationError{Field: "action", Reason: "unknown action " + string(c.Action)}
	}
	if c.Payload == nil && c.Data == nil {
		return ValidationError{Field: "payload", Reason: "change carries neither payload nor data"}
	}
	if c.Payload != nil && c.Data != nil {
		return ValidationError{Field: "payload", Reason: "change carries both payload and data"}
	}
	return nil
}
