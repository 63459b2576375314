// Package graph implements the mutation semantics of the schema and state
// graphs: targeted create/update/delete payload operations, cascading node
// deletion over directed reachability, bulk additive merge, and the
// reconciliation of synthesized instance nodes against declared unit counts.
package graph

import (
	"chaincore/pkg/domain"
)

// Create applies a creation payload to a copy of g and returns the copy.
// Edge payloads require both endpoints to exist; node payloads require the id
// to be free. The input graph is never mutated, so a failed create leaves the
// caller's graph untouched.
func Create(g *domain.Graph, p *domain.Payload) (*domain.Graph, error) {
	next := g.Clone()
	if p.IsEdge() {
		if p.EdgeType == "" {
			return nil, domain.ValidationError{Field: "edge_type", Reason: "required for edge create"}
		}
		err := next.AddEdge(domain.Edge{
			Source: p.SourceID,
			Target: p.TargetID,
			Key:    p.EdgeType,
			Props:  p.Properties.Clone(),
		})
		if err != nil {
			return nil, err
		}
		return next, nil
	}
	if p.NodeID == "" {
		return nil, domain.ValidationError{Field: "node_id", Reason: "required for node create"}
	}
	if p.NodeType == "" {
		return nil, domain.ValidationError{Field: "node_type", Reason: "required for node create"}
	}
	err := next.AddNode(domain.Node{ID: p.NodeID, Type: p.NodeType, Props: p.Properties.Clone()})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// Update merges the properties named in the payload's update set into an
// existing node's bag; unnamed properties are untouched. Edge updates are not
// a primitive: callers delete-then-create instead.
func Update(g *domain.Graph, p *domain.Payload) (*domain.Graph, error) {
	if p.NodeID == "" {
		return nil, domain.ValidationError{Field: "node_id", Reason: "required for update"}
	}
	if p.Updates == nil {
		return nil, domain.ValidationError{Field: "updates", Reason: "required for update"}
	}
	next := g.Clone()
	if err := next.MergeNodeProps(p.NodeID, p.Updates.Properties); err != nil {
		return nil, err
	}
	return next, nil
}

// Delete removes an edge or a node from a copy of g.
//
// Edge payloads fail when no edge connects the pair at all; when an edge-type
// filter is supplied only an edge carrying that tag is removed, and a present
// pair with a non-matching tag is left alone without error. Node payloads
// with cascade remove the node's full descendant set (directed reachability,
// not just immediate children) before the node itself; incident edges go with
// each removed node.
func Delete(g *domain.Graph, p *domain.Payload) (*domain.Graph, error) {
	next := g.Clone()
	if p.IsEdge() {
		if !next.HasEdge(p.SourceID, p.TargetID, "") {
			return nil, domain.NotFoundError{Kind: "edge", ID: p.SourceID + "->" + p.TargetID}
		}
		if p.EdgeType != "" {
			// Filter miss is not an error; only a matching edge is removed.
			_ = next.RemoveEdge(p.SourceID, p.TargetID, p.EdgeType)
			return next, nil
		}
		if err := next.RemoveEdge(p.SourceID, p.TargetID, ""); err != nil {
			return nil, err
		}
		return next, nil
	}
	if p.NodeID == "" {
		return nil, domain.ValidationError{Field: "node_id", Reason: "required for node delete"}
	}
	if !next.HasNode(p.NodeID) {
		return nil, domain.NotFoundError{Kind: "node", ID: p.NodeID}
	}
	if p.Cascade {
		for id := range next.Descendants(p.NodeID) {
			_ = next.RemoveNode(id)
		}
	}
	if err := next.RemoveNode(p.NodeID); err != nil {
		return nil, err
	}
	return next, nil
}

// Apply dispatches a targeted payload to the operation named by action. The
// action is expected in canonical lowercase form.
func Apply(g *domain.Graph, action domain.Action, p *domain.Payload) (*domain.Graph, error) {
	switch action {
	case domain.ActionCreate:
		return Create(g, p)
	case domain.ActionUpdate:
		return Update(g, p)
	case domain.ActionDelete:
		return Delete(g, p)
	default:
		return nil, domain.ValidationError{Field: "action", Reason: "unknown action " + string(action)}
	}
}

// ApplyBulk merges a bulk node-map and link list into a copy of g. Nodes are
// upserted wholesale by id (new ids added, existing ids overwritten); links
// are appended only when no structurally identical link is already present.
func ApplyBulk(g *domain.Graph, data *domain.BulkData) *domain.Graph {
	next := g.Clone()
	for t, group := range data.Nodes {
		for id, props := range group {
			next.PutNode(domain.Node{ID: id, Type: t, Props: props.Clone()})
		}
	}
	for _, link := range data.Links {
		next.AppendEdgeIfAbsent(link.Clone())
	}
	return next
}
