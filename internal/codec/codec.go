// Package codec implements the columnar archive encoding of a node-link
// graph. For every node type the property keys of a template node are
// recorded once, and each node of the type is stored as a value row in
// template order.
//
// Two lossy boundaries are deliberate and pinned by tests: nodes whose key
// sets differ from their type's template lose the keys the template lacks,
// and links keep only the fixed source/target/key triple, dropping any
// further edge properties.
package codec

import (
	"fmt"
	"sort"

	"chaincore/pkg/domain"
)

// LinkTemplate is the fixed field set a link row carries.
var LinkTemplate = []string{"source", "target", "key"}

// Row is one encoded node or link: a flat list of scalar values.
type Row []domain.Value

// Archive is the columnar snapshot document written per (version, timestamp).
type Archive struct {
	Metadata Metadata `json:"metadata"`
	Data     Data     `json:"data"`
}

// Metadata records the per-type key templates and the link template.
type Metadata struct {
	NodeTypes map[domain.NodeType][]string `json:"node_types"`
	Keys      TemplateKeys                 `json:"keys"`
}

// TemplateKeys holds the link row template.
type TemplateKeys struct {
	Links []string `json:"links"`
}

// Data holds the encoded rows: node rows grouped by type (first element is
// the node id, then values in template order) and link rows.
type Data struct {
	Nodes map[domain.NodeType][]Row `json:"nodes"`
	Links []Row                     `json:"links"`
}

// Encode lowers a graph into columnar form. The template for a type is taken
// from its lexicographically first node, with keys sorted, so output is
// deterministic. A node missing a template key encodes a null in its place;
// keys outside the template are dropped.
func Encode(g *domain.Graph) *Archive {
	out := &Archive{
		Metadata: Metadata{
			NodeTypes: make(map[domain.NodeType][]string),
			Keys:      TemplateKeys{Links: LinkTemplate},
		},
		Data: Data{
			Nodes: make(map[domain.NodeType][]Row),
			Links: []Row{},
		},
	}

	byType := make(map[domain.NodeType][]domain.Node)
	for _, n := range g.Nodes() {
		byType[n.Type] = append(byType[n.Type], n)
	}
	for t, nodes := range byType {
		// Nodes() is id-sorted, so nodes[0] is the template node.
		template := make([]string, 0, len(nodes[0].Props))
		for k := range nodes[0].Props {
			template = append(template, k)
		}
		sort.Strings(template)
		out.Metadata.NodeTypes[t] = template

		rows := make([]Row, 0, len(nodes))
		for _, n := range nodes {
			row := make(Row, 0, len(template)+1)
			row = append(row, domain.String(n.ID))
			for _, key := range template {
				row = append(row, n.Props[key])
			}
			rows = append(rows, row)
		}
		out.Data.Nodes[t] = rows
	}

	for _, e := range g.Edges() {
		out.Data.Links = append(out.Data.Links, Row{
			domain.String(e.Source),
			domain.String(e.Target),
			domain.String(e.Key),
		})
	}
	return out
}

// Decode reverses Encode, zipping each row against its type's template to
// rebuild the property bags. Nulls decode to absent keys.
func Decode(a *Archive) (*domain.Graph, error) {
	g := domain.NewGraph()
	for t, template := range a.Metadata.NodeTypes {
		for _, row := range a.Data.Nodes[t] {
			if len(row) != len(template)+1 {
				return nil, domain.CodecError{Op: "decode", Err: fmt.Errorf("%s row has %d values, template wants %d", t, len(row), len(template))}
			}
			id, ok := row[0].AsString()
			if !ok {
				return nil, domain.CodecError{Op: "decode", Err: fmt.Errorf("%s row id is not a string", t)}
			}
			props := make(domain.Properties, len(template))
			for i, key := range template {
				if v := row[i+1]; v.Defined() {
					props[key] = v
				}
			}
			if err := g.AddNode(domain.Node{ID: id, Type: t, Props: props}); err != nil {
				return nil, domain.CodecError{Op: "decode", Err: err}
			}
		}
	}

	template := a.Metadata.Keys.Links
	if len(template) == 0 {
		template = LinkTemplate
	}
	for _, row := range a.Data.Links {
		if len(row) != len(template) {
			return nil, domain.CodecError{Op: "decode", Err: fmt.Errorf("link row has %d values, template wants %d", len(row), len(template))}
		}
		var e domain.Edge
		for i, field := range template {
			s, ok := row[i].AsString()
			if !ok {
				return nil, domain.CodecError{Op: "decode", Err: fmt.Errorf("link %s is not a string", field)}
			}
			switch field {
			case "source":
				e.Source = s
			case "target":
				e.Target = s
			case "key":
				e.Key = s
			}
		}
		if err := g.AddEdge(e); err != nil {
			return nil, domain.CodecError{Op: "decode", Err: err}
		}
	}
	return g, nil
}
