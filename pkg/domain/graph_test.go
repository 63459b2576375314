package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	require.NoError(t, g.AddNode(Node{ID: "bu-1", Type: NodeBusinessUnit, Props: Properties{"name": String("BU")}}))
	require.NoError(t, g.AddNode(Node{ID: "pf-1", Type: NodeProductFamily}))
	require.NoError(t, g.AddNode(Node{ID: "po-1", Type: NodeProductOffering}))
	require.NoError(t, g.AddEdge(Edge{Source: "pf-1", Target: "bu-1", Key: EdgeFamiliesToBusinessUnit}))
	require.NoError(t, g.AddEdge(Edge{Source: "po-1", Target: "pf-1", Key: EdgeOfferingsToFamilies}))
	return g
}

func TestAddNodeRejectsDuplicateID(t *testing.T) {
	g := testGraph(t)
	err := g.AddNode(Node{ID: "bu-1", Type: NodeBusinessUnit})
	var dup DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "bu-1", dup.ID)
}

func TestAddEdgeRequiresBothEndpoints(t *testing.T) {
	g := testGraph(t)

	err := g.AddEdge(Edge{Source: "ghost", Target: "bu-1", Key: "X"})
	var ref ReferentialError
	require.ErrorAs(t, err, &ref)
	assert.Equal(t, "source", ref.Role)

	err = g.AddEdge(Edge{Source: "bu-1", Target: "ghost", Key: "X"})
	require.ErrorAs(t, err, &ref)
	assert.Equal(t, "target", ref.Role)
}

func TestRemoveNodeDropsIncidentEdges(t *testing.T) {
	g := testGraph(t)
	require.NoError(t, g.RemoveNode("pf-1"))

	assert.False(t, g.HasNode("pf-1"))
	assert.Equal(t, 0, g.EdgeCount())
	assert.True(t, g.HasNode("bu-1"))
	assert.True(t, g.HasNode("po-1"))
}

func TestRemoveEdgeKeyFilter(t *testing.T) {
	g := testGraph(t)
	require.NoError(t, g.AddEdge(Edge{Source: "pf-1", Target: "bu-1", Key: "Other"}))

	require.NoError(t, g.RemoveEdge("pf-1", "bu-1", "Other"))
	assert.True(t, g.HasEdge("pf-1", "bu-1", EdgeFamiliesToBusinessUnit))
	assert.False(t, g.HasEdge("pf-1", "bu-1", "Other"))

	// Empty key matches any remaining edge between the pair.
	require.NoError(t, g.RemoveEdge("pf-1", "bu-1", ""))
	assert.False(t, g.HasEdge("pf-1", "bu-1", ""))

	var nf NotFoundError
	require.ErrorAs(t, g.RemoveEdge("pf-1", "bu-1", ""), &nf)
}

func TestAppendEdgeIfAbsent(t *testing.T) {
	g := testGraph(t)
	e := Edge{Source: "pf-1", Target: "bu-1", Key: EdgeFamiliesToBusinessUnit}

	assert.False(t, g.AppendEdgeIfAbsent(e))
	assert.Equal(t, 2, g.EdgeCount())

	withProps := e
	withProps.Props = Properties{"weight": Int(3)}
	assert.True(t, g.AppendEdgeIfAbsent(withProps))
	assert.Equal(t, 3, g.EdgeCount())
}

func TestDescendantsFollowsDirectedPaths(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, g.AddNode(Node{ID: id, Type: NodeParts}))
	}
	require.NoError(t, g.AddEdge(Edge{Source: "a", Target: "b", Key: EdgePartComposition}))
	require.NoError(t, g.AddEdge(Edge{Source: "b", Target: "c", Key: EdgePartComposition}))
	require.NoError(t, g.AddEdge(Edge{Source: "c", Target: "d", Key: EdgePartComposition}))
	require.NoError(t, g.AddEdge(Edge{Source: "e", Target: "a", Key: EdgePartComposition}))

	got := g.Descendants("a")
	assert.Equal(t, map[string]bool{"b": true, "c": true, "d": true}, got)
	assert.Empty(t, g.Descendants("d"))
}

func TestDescendantsHandlesCycles(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b"} {
		require.NoError(t, g.AddNode(Node{ID: id, Type: NodeParts}))
	}
	require.NoError(t, g.AddEdge(Edge{Source: "a", Target: "b", Key: "X"}))
	require.NoError(t, g.AddEdge(Edge{Source: "b", Target: "a", Key: "X"}))

	assert.Equal(t, map[string]bool{"b": true}, g.Descendants("a"))
}

func TestGraphCloneIsIndependent(t *testing.T) {
	g := testGraph(t)
	cp := g.Clone()

	require.NoError(t, cp.MergeNodeProps("bu-1", Properties{"name": String("changed")}))
	require.NoError(t, cp.RemoveNode("po-1"))

	n, ok := g.Node("bu-1")
	require.True(t, ok)
	assert.True(t, n.Props["name"].Equal(String("BU")))
	assert.True(t, g.HasNode("po-1"))
	assert.Equal(t, 2, g.EdgeCount())
}

func TestGraphJSONRoundTrip(t *testing.T) {
	g := testGraph(t)
	g.edges[0].Props = Properties{"weight": Number(1.5)}

	data, err := json.Marshal(g)
	require.NoError(t, err)

	decoded := NewGraph()
	require.NoError(t, json.Unmarshal(data, decoded))

	assert.Equal(t, g.Len(), decoded.Len())
	assert.Equal(t, g.EdgeCount(), decoded.EdgeCount())
	n, ok := decoded.Node("bu-1")
	require.True(t, ok)
	assert.Equal(t, NodeBusinessUnit, n.Type)
	assert.True(t, n.Props["name"].Equal(String("BU")))
	require.True(t, decoded.HasEdge("pf-1", "bu-1", EdgeFamiliesToBusinessUnit))
	assert.True(t, decoded.Edges()[0].Props["weight"].Equal(Number(1.5)))
}

func TestEmptyGraphMarshalsEmptyDoc(t *testing.T) {
	data, err := json.Marshal(NewGraph())
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":{},"links":[]}`, string(data))
}

func TestEdgeJSONFlattensProps(t *testing.T) {
	e := Edge{Source: "s", Target: "t", Key: "K", Props: Properties{"lead_time": Int(4)}}
	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":"s","target":"t","key":"K","lead_time":4}`, string(data))

	var decoded Edge
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, e.Equal(decoded))
}

func TestInstanceTypeDerivation(t *testing.T) {
	assert.Equal(t, NodeType("PartsInstance"), NodeParts.Instance())
	assert.True(t, NodeParts.Instance().IsInstance())
	assert.False(t, NodeParts.IsInstance())
}

func TestLineageParent(t *testing.T) {
	assert.Equal(t, "2-1", LineageParent("2-1-3"))
	assert.Equal(t, "2", LineageParent("2-1"))
	assert.Equal(t, "", LineageParent("2"))
}
