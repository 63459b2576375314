package graph

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chaincore/pkg/domain"
)

func partsParent(id string, units int) domain.Node {
	return domain.Node{
		ID:    id,
		Type:  domain.NodeParts,
		Props: domain.Properties{domain.PropUnitsInChain: domain.Int(units)},
	}
}

func ownedInstances(state *domain.Graph, parentID string) []domain.Node {
	var out []domain.Node
	for _, n := range state.NodesOfType(domain.NodeParts.Instance()) {
		if pid, _ := n.Props[domain.PropParentID].AsString(); pid == parentID {
			out = append(out, n)
		}
	}
	return out
}

func TestReconcileCreatesMissingInstances(t *testing.T) {
	state := domain.NewGraph()
	now := time.Unix(1700000000, 0)

	created, retired := Reconcile(state, partsParent("p1", 3), 3, now)
	assert.Equal(t, 3, created)
	assert.Equal(t, 0, retired)

	owned := ownedInstances(state, "p1")
	require.Len(t, owned, 3)
	for _, n := range owned {
		assert.True(t, strings.HasPrefix(n.ID, "p1-i-"))
		status, _ := n.Props[domain.PropStatus].AsString()
		assert.Equal(t, domain.StatusAvailable, status)
		createdAt, _ := n.Props[domain.PropCreatedAt].AsInt()
		assert.Equal(t, int(now.Unix()), createdAt)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	state := domain.NewGraph()
	now := time.Unix(1700000000, 0)
	parent := partsParent("p1", 5)

	Reconcile(state, parent, 5, now)
	created, retired := Reconcile(state, parent, 5, now.Add(time.Hour))
	assert.Equal(t, 0, created)
	assert.Equal(t, 0, retired)
	assert.Len(t, ownedInstances(state, "p1"), 5)
}

func TestReconcileGrowsAndShrinks(t *testing.T) {
	state := domain.NewGraph()
	parent := partsParent("p1", 3)
	base := time.Unix(1700000000, 0)

	Reconcile(state, parent, 3, base)

	created, retired := Reconcile(state, parent, 7, base.Add(time.Hour))
	assert.Equal(t, 4, created)
	assert.Equal(t, 0, retired)
	assert.Len(t, ownedInstances(state, "p1"), 7)

	created, retired = Reconcile(state, parent, 2, base.Add(2*time.Hour))
	assert.Equal(t, 0, created)
	assert.Equal(t, 5, retired)
	assert.Len(t, ownedInstances(state, "p1"), 2)
}

func TestReconcileRetiresNewestFirst(t *testing.T) {
	state := domain.NewGraph()
	parent := partsParent("p1", 1)
	base := time.Unix(1700000000, 0)

	// Two generations; the later one must go first.
	Reconcile(state, parent, 1, base)
	oldest := ownedInstances(state, "p1")[0].ID
	Reconcile(state, parent, 2, base.Add(time.Hour))

	_, retired := Reconcile(state, parent, 1, base.Add(2*time.Hour))
	assert.Equal(t, 1, retired)

	owned := ownedInstances(state, "p1")
	require.Len(t, owned, 1)
	assert.Equal(t, oldest, owned[0].ID)
}

func TestReconcileScopesToParent(t *testing.T) {
	state := domain.NewGraph()
	now := time.Unix(1700000000, 0)

	Reconcile(state, partsParent("p1", 2), 2, now)
	Reconcile(state, partsParent("p2", 3), 3, now)

	Reconcile(state, partsParent("p1", 0), 0, now.Add(time.Hour))
	assert.Empty(t, ownedInstances(state, "p1"))
	assert.Len(t, ownedInstances(state, "p2"), 3)
}

func TestReconcileClampsNegativeUnits(t *testing.T) {
	state := domain.NewGraph()
	now := time.Unix(1700000000, 0)

	Reconcile(state, partsParent("p1", 2), 2, now)
	_, retired := Reconcile(state, partsParent("p1", -4), -4, now.Add(time.Hour))
	assert.Equal(t, 2, retired)
	assert.Empty(t, ownedInstances(state, "p1"))
}

func TestReconcileAll(t *testing.T) {
	schema := domain.NewGraph()
	require.NoError(t, schema.AddNode(partsParent("p1", 2)))
	require.NoError(t, schema.AddNode(partsParent("p2", 3)))
	require.NoError(t, schema.AddNode(domain.Node{ID: "w1", Type: domain.NodeWarehouse}))

	state := domain.NewGraph()
	created, retired := ReconcileAll(state, schema, time.Unix(1700000000, 0))
	assert.Equal(t, 5, created)
	assert.Equal(t, 0, retired)
	assert.Len(t, state.NodesOfType(domain.NodeParts.Instance()), 5)
}
