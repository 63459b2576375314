// Command seed generates a synthetic supply-chain model and posts it to a
// running chaincore server as bulk schema changes.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chaincore/internal/logging"
	"chaincore/pkg/domain"
)

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "chaincore server base URL")
	version := flag.String("version", "", "version namespace (server default when empty)")
	businessUnits := flag.Int("business-units", 2, "number of business units to generate")
	partLevels := flag.Int("part-levels", 3, "depth of the part composition tree")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	logger, err := logging.New("development")
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = logger.Sync() }()

	rng := rand.New(rand.NewSource(*seed))
	data := generateModel(rng, *businessUnits, *partLevels)

	change := domain.Change{
		Timestamp: time.Now().Unix(),
		Action:    domain.ActionCreate,
		Version:   *version,
		Data:      data,
	}
	body, err := json.Marshal(&change)
	if err != nil {
		logger.Fatal("failed to encode change", zap.Error(err))
	}

	resp, err := http.Post(*apiURL+"/schema/live/update", "application/json", bytes.NewReader(body))
	if err != nil {
		logger.Fatal("failed to post seed change", zap.Error(err))
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		logger.Fatal("server rejected seed change", zap.Int("status", resp.StatusCode))
	}

	nodes := 0
	for _, group := range data.Nodes {
		nodes += len(group)
	}
	logger.Info("seed change queued",
		zap.Int("nodes", nodes),
		zap.Int("links", len(data.Links)),
		zap.Int64("timestamp", change.Timestamp))
}

// generateModel builds the full node map and link list. The business-unit
// hierarchy uses dash-joined ordinal ids so a node's lineage is readable from
// its id; facilities, suppliers, and warehouses use opaque uuid ids like
// independently sourced records would.
func generateModel(rng *rand.Rand, businessUnits, partLevels int) *domain.BulkData {
	data := &domain.BulkData{Nodes: make(map[domain.NodeType]map[string]domain.Properties)}
	put := func(t domain.NodeType, id string, props domain.Properties) {
		group, ok := data.Nodes[t]
		if !ok {
			group = make(map[string]domain.Properties)
			data.Nodes[t] = group
		}
		props["node_type"] = domain.String(string(t))
		group[id] = props
	}
	link := func(source, target, key string, props domain.Properties) {
		data.Links = append(data.Links, domain.Edge{Source: source, Target: target, Key: key, Props: props})
	}

	var facilities, warehouses []string
	for f := 0; f < 2; f++ {
		id := uuid.NewString()
		facilities = append(facilities, id)
		put(domain.NodeFacility, id, domain.Properties{
			"name":           domain.String(fmt.Sprintf("Facility_%04d", rng.Intn(9000)+1000)),
			"type":           domain.String(pick(rng, "Assembly", "Manufacturing", "Distribution")),
			"location":       domain.String(fmt.Sprintf("Location_%d", rng.Intn(5)+1)),
			"max_capacity":   domain.Int(rng.Intn(5000) + 5000),
			"operating_cost": domain.Number(round2(rng.Float64()*40000 + 10000)),
		})
	}
	for wh := 0; wh < 2; wh++ {
		id := uuid.NewString()
		warehouses = append(warehouses, id)
		put(domain.NodeWarehouse, id, domain.Properties{
			"name":             domain.String(fmt.Sprintf("WH_%04d", rng.Intn(9000)+1000)),
			"type":             domain.String(pick(rng, "Raw", "WIP", "Finished")),
			"size":             domain.String(pick(rng, "Small", "Medium", "Large")),
			"location":         domain.String(fmt.Sprintf("Location_%d", rng.Intn(5)+1)),
			"max_capacity":     domain.Int(rng.Intn(5000) + 5000),
			"current_capacity": domain.Int(rng.Intn(4000) + 1000),
			"safety_stock":     domain.Int(rng.Intn(400) + 100),
		})
	}

	for s := 0; s < 2; s++ {
		id := uuid.NewString()
		put(domain.NodeSupplier, id, domain.Properties{
			"name":        domain.String(fmt.Sprintf("Supplier_%04d", rng.Intn(9000)+1000)),
			"location":    domain.String(fmt.Sprintf("Location_%d", rng.Intn(5)+1)),
			"reliability": domain.Number(round2(rng.Float64()*0.3 + 0.7)),
			"size":        domain.String(pick(rng, "Small", "Medium", "Large")),
		})
		for _, wh := range warehouses {
			link(id, wh, domain.EdgeSupplierToWarehouse, domain.Properties{
				"transportation_cost": domain.Number(round2(rng.Float64()*900 + 100)),
				"lead_time":           domain.Int(rng.Intn(14) + 1),
			})
		}
	}

	for bu := 1; bu <= businessUnits; bu++ {
		buID := fmt.Sprintf("%d", bu)
		put(domain.NodeBusinessUnit, buID, domain.Properties{
			"name":        domain.String(fmt.Sprintf("BU_%04d", rng.Intn(9000)+1000)),
			"description": domain.String(fmt.Sprintf("Business Unit %d", bu)),
			"revenue":     domain.Number(round2(rng.Float64()*4000000 + 1000000)),
		})
		for pf := 1; pf <= 2; pf++ {
			pfID := fmt.Sprintf("%s-%d", buID, pf)
			put(domain.NodeProductFamily, pfID, domain.Properties{
				"name":    domain.String(fmt.Sprintf("PF_%04d", rng.Intn(9000)+1000)),
				"revenue": domain.Number(round2(rng.Float64()*900000 + 100000)),
			})
			link(pfID, buID, domain.EdgeFamiliesToBusinessUnit, domain.Properties{})
			for po := 1; po <= 2; po++ {
				poID := fmt.Sprintf("%s-%d", pfID, po)
				put(domain.NodeProductOffering, poID, domain.Properties{
					"name":   domain.String(fmt.Sprintf("PO_%04d", rng.Intn(9000)+1000)),
					"cost":   domain.Number(round2(rng.Float64()*9000 + 1000)),
					"demand": domain.Int(rng.Intn(900) + 100),
				})
				link(poID, pfID, domain.EdgeOfferingsToFamilies, domain.Properties{})
				link(facilities[rng.Intn(len(facilities))], poID, domain.EdgeFacilityToProductOfferings, domain.Properties{
					"product_cost":      domain.Number(round2(rng.Float64()*4500 + 500)),
					"lead_time":         domain.Int(rng.Intn(30) + 1),
					"quantity_produced": domain.Int(rng.Intn(900) + 100),
				})
				link(warehouses[rng.Intn(len(warehouses))], poID, domain.EdgeWarehouseToProductOfferings, domain.Properties{
					"inventory_level": domain.Int(rng.Intn(450) + 50),
					"storage_cost":    domain.Number(round2(rng.Float64()*90 + 10)),
				})
			}
		}
	}

	// Part composition tree: level ids extend their parent's id, so lineage
	// is recoverable by stripping the last segment.
	var buildParts func(parentID string, level int)
	buildParts = func(parentID string, level int) {
		if level > partLevels {
			return
		}
		for p := 1; p <= 2; p++ {
			id := fmt.Sprintf("%s-%d", parentID, p)
			put(domain.NodeParts, id, domain.Properties{
				"name":           domain.String(fmt.Sprintf("Part_L%d_%04d", level, rng.Intn(9000)+1000)),
				"description":    domain.String(fmt.Sprintf("Manufacturing part level %d", level)),
				"type":           domain.String(pick(rng, "Assembly", "Component", "Raw")),
				"cost":           domain.Number(round2(rng.Float64()*900 + 100)),
				"importance":     domain.Int(rng.Intn(10) + 1),
				"level":          domain.Int(level),
				"units_in_chain": domain.Int(rng.Intn(900) + 100),
			})
			if level > 1 {
				link(parentID, id, domain.EdgePartComposition, domain.Properties{})
			} else {
				wh := warehouses[rng.Intn(len(warehouses))]
				link(wh, id, domain.EdgeWarehouseToParts, domain.Properties{
					"inventory_level": domain.Int(rng.Intn(450) + 50),
					"storage_cost":    domain.Number(round2(rng.Float64()*90 + 10)),
				})
				link(id, facilities[rng.Intn(len(facilities))], domain.EdgePartsToFacility, domain.Properties{
					"quantity":                domain.Int(rng.Intn(90) + 10),
					"distance_from_warehouse": domain.Number(round2(rng.Float64()*49 + 1)),
					"transport_cost":          domain.Number(round2(rng.Float64()*450 + 50)),
					"lead_time":               domain.Int(rng.Intn(7) + 1),
				})
			}
			buildParts(id, level+1)
		}
	}
	buildParts("p", 1)

	return data
}

func pick(rng *rand.Rand, options ...string) string {
	return options[rng.Intn(len(options))]
}

func round2(f float64) float64 {
	return float64(int(f*100)) / 100
}
