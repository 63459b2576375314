// Package domain defines the supply-chain graph model shared by the change
// pipeline: typed nodes and edges, scalar property bags, queued change
// records, and the error taxonomy raised by graph mutations.
package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// NodeType identifies the kind of a graph node.
type NodeType string

// Canonical supply-chain node types carried in schema and state graphs.
const (
	NodeBusinessUnit    NodeType = "BusinessUnit"
	NodeProductFamily   NodeType = "ProductFamily"
	NodeProductOffering NodeType = "ProductOffering"
	NodeFacility        NodeType = "Facility"
	NodeSupplier        NodeType = "Supplier"
	NodeWarehouse       NodeType = "Warehouse"
	NodeParts           NodeType = "Parts"
)

// Instance derives the synthesized-instance type for a parent type,
// e.g. Parts -> PartsInstance.
func (t NodeType) Instance() NodeType { return t + "Instance" }

// IsInstance reports whether the type names synthesized instance records.
func (t NodeType) IsInstance() bool { return strings.HasSuffix(string(t), "Instance") }

// Relationship tags from the fixed edge vocabulary. Arbitrary tags are also
// accepted; these are the ones the seeded model uses.
const (
	EdgeSupplierToWarehouse         = "SupplierToWarehouse"
	EdgeWarehouseToParts            = "WarehouseToParts"
	EdgePartsToFacility             = "PartsToFacility"
	EdgeFacilityToProductOfferings  = "FacilityToProductOfferings"
	EdgeWarehouseToProductOfferings = "WarehouseToProductOfferings"
	EdgeOfferingsToFamilies         = "ProductOfferingsToProductFamilies"
	EdgeFamiliesToBusinessUnit      = "ProductFamiliesToBusinessUnit"
	EdgePartComposition             = "PartComposition"
)

// Well-known property keys.
const (
	PropUnitsInChain = "units_in_chain"
	PropParentID     = "parent_id"
	PropStatus       = "status"
	PropCreatedAt    = "created_at"
	PropUpdatedAt    = "updated_at"
)

// StatusAvailable is the initial status of a synthesized instance node.
const StatusAvailable = "available"

// LineageParent strips the last dash-joined segment of a hierarchical ordinal
// id ("2-1-3" -> "2-1"). Ids without a dash have no parent and return "".
func LineageParent(id string) string {
	i := strings.LastIndex(id, "-")
	if i < 0 {
		return ""
	}
	return id[:i]
}

// Node is a typed graph node with an open scalar property bag.
type Node struct {
	ID    string
	Type  NodeType
	Props Properties
}

// Clone returns a copy with an independent property bag.
func (n Node) Clone() Node {
	n.Props = n.Props.Clone()
	return n
}

// Edge is a directed, typed link between two node ids. Key carries the
// relationship tag; Props holds the per-relationship attributes.
type Edge struct {
	Source string
	Target string
	Key    string
	Props  Properties
}

// Clone returns a copy with an independent property bag.
func (e Edge) Clone() Edge {
	e.Props = e.Props.Clone()
	return e
}

// Equal reports full structural equality, property bags included.
func (e Edge) Equal(o Edge) bool {
	return e.Source == o.Source && e.Target == o.Target && e.Key == o.Key && e.Props.Equal(o.Props)
}

// MarshalJSON flattens the edge into a single object carrying source, target,
// key, and the property bag inline, matching the node-link wire form.
func (e Edge) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(e.Props)+3)
	for k, v := range e.Props {
		doc[k] = v
	}
	doc["source"] = e.Source
	doc["target"] = e.Target
	doc["key"] = e.Key
	return json.Marshal(doc)
}

// UnmarshalJSON reverses MarshalJSON: source/target/key are lifted out and
// every remaining field becomes a property.
func (e *Edge) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	take := func(field string) (string, error) {
		raw, ok := doc[field]
		if !ok {
			return "", nil
		}
		delete(doc, field)
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var err error
	if e.Source, err = take("source"); err != nil {
		return err
	}
	if e.Target, err = take("target"); err != nil {
		return err
	}
	if e.Key, err = take("key"); err != nil {
		return err
	}
	if len(doc) > 0 {
		e.Props = make(Properties, len(doc))
		for k, raw := range doc {
			var v Value
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			if v.Defined() {
				e.Props[k] = v
			}
		}
	}
	return nil
}

// Graph is an owned directed graph: a node table keyed by id plus an ordered
// edge list. Duplicate edges between the same pair are allowed; node ids are
// unique across all types.
type Graph struct {
	nodes map[string]Node
	edges []Edge
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]Node)}
}

// Len returns the node count.
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount returns the edge count.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// HasNode reports whether a node id is present.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node for id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// AddNode inserts a node; the id must not already exist.
func (g *Graph) AddNode(n Node) error {
	if _, ok := g.nodes[n.ID]; ok {
		return DuplicateError{ID: n.ID}
	}
	g.nodes[n.ID] = n
	return nil
}

// PutNode inserts or wholesale-replaces a node (bulk-apply semantics).
func (g *Graph) PutNode(n Node) {
	g.nodes[n.ID] = n
}

// MergeNodeProps overlays props onto an existing node's bag, leaving keys not
// named in props untouched.
func (g *Graph) MergeNodeProps(id string, props Properties) error {
	n, ok := g.nodes[id]
	if !ok {
		return NotFoundError{Kind: "node", ID: id}
	}
	if n.Props == nil {
		n.Props = make(Properties, len(props))
	}
	n.Props.Merge(props)
	g.nodes[id] = n
	return nil
}

// RemoveNode deletes a node and every edge incident to it.
func (g *Graph) RemoveNode(id string) error {
	if _, ok := g.nodes[id]; !ok {
		return NotFoundError{Kind: "node", ID: id}
	}
	delete(g.nodes, id)
	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	g.edges = kept
	return nil
}

// AddEdge appends an edge after verifying both endpoints exist. Duplicate
// edges of the same key between the same pair are allowed.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.Source]; !ok {
		return ReferentialError{NodeID: e.Source, Role: "source"}
	}
	if _, ok := g.nodes[e.Target]; !ok {
		return ReferentialError{NodeID: e.Target, Role: "target"}
	}
	g.edges = append(g.edges, e)
	return nil
}

// AppendEdgeIfAbsent adds an edge only when no structurally identical edge is
// already present (bulk-apply de-duplication). Endpoints are not validated;
// bulk payloads carry nodes and links together.
func (g *Graph) AppendEdgeIfAbsent(e Edge) bool {
	for _, existing := range g.edges {
		if existing.Equal(e) {
			return false
		}
	}
	g.edges = append(g.edges, e)
	return true
}

// HasEdge reports whether any edge connects source to target, optionally
// restricted to a relationship tag (empty key matches any).
func (g *Graph) HasEdge(source, target, key string) bool {
	for _, e := range g.edges {
		if e.Source == source && e.Target == target && (key == "" || e.Key == key) {
			return true
		}
	}
	return false
}

// RemoveEdge deletes the first edge from source to target. A non-empty key
// restricts removal to edges carrying that tag.
func (g *Graph) RemoveEdge(source, target, key string) error {
	for i, e := range g.edges {
		if e.Source == source && e.Target == target && (key == "" || e.Key == key) {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			return nil
		}
	}
	return NotFoundError{Kind: "edge", ID: source + "->" + target}
}

// Edges returns a copy of the edge list.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	for i, e := range g.edges {
		out[i] = e.Clone()
	}
	return out
}

// Nodes returns all nodes sorted by id.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NodesOfType returns nodes of one type sorted by id.
func (g *Graph) NodesOfType(t NodeType) []Node {
	var out []Node
	for _, n := range g.nodes {
		if n.Type == t {
			out = append(out, n.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Descendants returns the set of node ids reachable from id by a directed
// path, computed by breadth-first traversal of the edge list. The start node
// itself is not included.
func (g *Graph) Descendants(id string) map[string]bool {
	out := make(map[string]bool)
	frontier := []string{id}
	for len(frontier) > 0 {
		next := frontier[:0:0]
		for _, e := range g.edges {
			for _, cur := range frontier {
				if e.Source == cur && !out[e.Target] && e.Target != id {
					out[e.Target] = true
					next = append(next, e.Target)
				}
			}
		}
		frontier = next
	}
	return out
}

// Clone deep-copies the graph.
func (g *Graph) Clone() *Graph {
	cp := &Graph{nodes: make(map[string]Node, len(g.nodes)), edges: make([]Edge, len(g.edges))}
	for id, n := range g.nodes {
		cp.nodes[id] = n.Clone()
	}
	for i, e := range g.edges {
		cp.edges[i] = e.Clone()
	}
	return cp
}

// nodeLinkDoc is the plain node-link wire form used for live files:
// nodes grouped by type then keyed by id, links as flattened edge objects.
type nodeLinkDoc struct {
	Nodes map[NodeType]map[string]Properties `json:"nodes"`
	Links []Edge                             `json:"links"`
}

// MarshalJSON renders the node-link form. Map keys are emitted sorted by
// encoding/json, so output is deterministic.
func (g *Graph) MarshalJSON() ([]byte, error) {
	doc := nodeLinkDoc{Nodes: make(map[NodeType]map[string]Properties), Links: g.edges}
	if doc.Links == nil {
		doc.Links = []Edge{}
	}
	for _, n := range g.nodes {
		group, ok := doc.Nodes[n.Type]
		if !ok {
			group = make(map[string]Properties)
			doc.Nodes[n.Type] = group
		}
		props := n.Props
		if props == nil {
			props = Properties{}
		}
		group[n.ID] = props
	}
	return json.Marshal(doc)
}

// UnmarshalJSON parses the node-link form.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var doc nodeLinkDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	g.nodes = make(map[string]Node)
	g.edges = doc.Links
	for t, group := range doc.Nodes {
		for id, props := range group {
			g.nodes[id] = Node{ID: id, Type: t, Props: props}
		}
	}
	return nil
}
