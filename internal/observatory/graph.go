package observatory

import (
	"fmt"
	"math"
	"sort"
)

// Node is one vertex of a run graph.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// Edge connects two nodes by id.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Point is a layout position in the unit square.
type Point struct {
	X float64
	Y float64
}

// RingLayout places nodes evenly on a circle inside the unit square,
// ordered by id starting at the top. Deterministic for a given input.
func RingLayout(nodes []Node) map[string]Point {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	sort.Strings(ids)

	pos := make(map[string]Point, len(ids))
	if len(ids) == 1 {
		pos[ids[0]] = Point{X: 0.5, Y: 0.5}
		return pos
	}
	for i, id := range ids {
		angle := 2*math.Pi*float64(i)/float64(len(ids)) - math.Pi/2
		pos[id] = Point{
			X: 0.5 + 0.4*math.Cos(angle),
			Y: 0.5 + 0.4*math.Sin(angle),
		}
	}
	return pos
}

// TopoLayers orders DAG nodes into dependency layers: a node sits one
// layer below its deepest predecessor. Nodes within a layer sort by
// id, so the layout is deterministic. Returns an error for edges that
// reference unknown nodes or form a cycle.
func TopoLayers(nodes []Node, edges []Edge) ([][]string, error) {
	known := make(map[string]struct{}, len(nodes))
	indegree := make(map[string]int, len(nodes))
	succ := make(map[string][]string)
	for _, n := range nodes {
		known[n.ID] = struct{}{}
		indegree[n.ID] = 0
	}
	for _, e := range edges {
		if _, ok := known[e.From]; !ok {
			return nil, fmt.Errorf("edge from unknown node %q", e.From)
		}
		if _, ok := known[e.To]; !ok {
			return nil, fmt.Errorf("edge to unknown node %q", e.To)
		}
		succ[e.From] = append(succ[e.From], e.To)
		indegree[e.To]++
	}

	var layers [][]string
	placed := 0
	frontier := make([]string, 0, len(nodes))
	for id, deg := range indegree {
		if deg == 0 {
			frontier = append(frontier, id)
		}
	}

	for len(frontier) > 0 {
		sort.Strings(frontier)
		layers = append(layers, frontier)
		placed += len(frontier)

		var next []string
		for _, id := range frontier {
			for _, to := range succ[id] {
				indegree[to]--
				if indegree[to] == 0 {
					next = append(next, to)
				}
			}
		}
		frontier = next
	}

	if placed != len(nodes) {
		return nil, fmt.Errorf("graph has a cycle: %d of %d nodes placed", placed, len(nodes))
	}
	return layers, nil
}

// ActiveNode maps the playback pointer onto a layered layout: the
// pointer walks layers in order, one node per step. Returns the empty
// string past the end.
func ActiveNode(layers [][]string, step int) string {
	if step < 0 {
		return ""
	}
	for _, layer := range layers {
		if step < len(layer) {
			return layer[step]
		}
		step -= len(layer)
	}
	return ""
}
