package graph

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"chaincore/pkg/domain"
)

// Reconcile adjusts the state graph so the number of instance nodes owned by
// parent equals units. Excess instances retire newest-first (highest
// created_at, then id descending); missing instances are synthesized with a
// fresh unique id, status "available", and timestamps set to now. Applying
// the same unit count twice is a no-op the second time.
func Reconcile(state *domain.Graph, parent domain.Node, units int, now time.Time) (created, retired int) {
	if units < 0 {
		units = 0
	}
	instanceType := parent.Type.Instance()
	var owned []domain.Node
	for _, n := range state.NodesOfType(instanceType) {
		if pid, _ := n.Props[domain.PropParentID].AsString(); pid == parent.ID {
			owned = append(owned, n)
		}
	}

	switch {
	case len(owned) > units:
		sort.Slice(owned, func(i, j int) bool {
			ci, _ := owned[i].Props[domain.PropCreatedAt].AsNumber()
			cj, _ := owned[j].Props[domain.PropCreatedAt].AsNumber()
			if ci != cj {
				return ci > cj
			}
			return owned[i].ID > owned[j].ID
		})
		for _, n := range owned[:len(owned)-units] {
			if err := state.RemoveNode(n.ID); err == nil {
				retired++
			}
		}
	case len(owned) < units:
		for i := len(owned); i < units; i++ {
			state.PutNode(domain.Node{
				ID:   parent.ID + "-i-" + uuid.NewString(),
				Type: instanceType,
				Props: domain.Properties{
					domain.PropParentID:  domain.String(parent.ID),
					domain.PropStatus:    domain.String(domain.StatusAvailable),
					domain.PropCreatedAt: domain.Int(int(now.Unix())),
					domain.PropUpdatedAt: domain.Int(int(now.Unix())),
				},
			})
			created++
		}
	}
	return created, retired
}

// ReconcileAll runs Reconcile for every node in the schema graph that
// declares units_in_chain, returning totals.
func ReconcileAll(state *domain.Graph, schema *domain.Graph, now time.Time) (created, retired int) {
	for _, n := range schema.Nodes() {
		units, ok := n.Props[domain.PropUnitsInChain].AsInt()
		if !ok {
			continue
		}
		c, r := Reconcile(state, n, units, now)
		created += c
		retired += r
	}
	return created, retired
}
