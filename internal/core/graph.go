package core

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
)

// Graph depth limits for ObjectGraph.
const (
	DefaultGraphDepth = 1
	MaxGraphDepth     = 5
)

// Graph node kinds.
const (
	NodeObject   = "object"
	NodeVariant  = "variant"
	NodeVariable = "variable"
	NodeList     = "list"
)

// GraphNode is one vertex of a relationship graph.
type GraphNode struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Depth int    `json:"depth"`
}

// GraphEdge is a directed, labelled edge.
type GraphEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

// Graph is a node/edge view rooted at one entity.
type Graph struct {
	RootID string      `json:"rootId"`
	Nodes  []GraphNode `json:"nodes"`
	Edges  []GraphEdge `json:"edges"`
}

// ObjectGraph walks relationships in both directions from id up to depth
// hops. Visited objects contribute their variants; variables linked to the
// root object are included.
func (s *Service) ObjectGraph(ctx context.Context, id string, depth int) (Graph, error) {
	if depth <= 0 {
		depth = DefaultGraphDepth
	}
	depth = min(depth, MaxGraphDepth)

	snap, err := loadSnapshot(ctx, s.store)
	if err != nil {
		return Graph{}, err
	}
	root, ok := snap.objects[id]
	if !ok {
		return Graph{}, notFound(KindObjects, id)
	}

	neighbors := make(map[string][]string)
	for _, o := range snap.objects {
		for _, r := range o.Relationships {
			neighbors[o.ID] = append(neighbors[o.ID], r.ObjectID)
			neighbors[r.ObjectID] = append(neighbors[r.ObjectID], o.ID)
		}
	}

	g := Graph{RootID: id}
	depthOf := map[string]int{root.ID: 0}
	queue := []string{root.ID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		o := snap.objects[cur]
		g.Nodes = append(g.Nodes, GraphNode{ID: o.ID, Kind: NodeObject, Label: o.Object, Depth: depthOf[cur]})

		if depthOf[cur] == depth {
			continue
		}
		next := slices.Clone(neighbors[cur])
		slices.SortFunc(next, func(a, b string) int {
			return cmp.Or(compareValues(snap.objects[a].Object, snap.objects[b].Object), strings.Compare(a, b))
		})
		for _, n := range next {
			if _, seen := depthOf[n]; seen {
				continue
			}
			if _, exists := snap.objects[n]; !exists {
				continue
			}
			depthOf[n] = depthOf[cur] + 1
			queue = append(queue, n)
		}
	}

	for _, node := range slices.Clone(g.Nodes) {
		o := snap.objects[node.ID]
		for _, r := range o.Relationships {
			if _, ok := depthOf[r.ObjectID]; ok {
				g.Edges = append(g.Edges, GraphEdge{From: o.ID, To: r.ObjectID, Label: string(r.Type)})
			}
		}
		for _, v := range o.Variants {
			g.Nodes = append(g.Nodes, GraphNode{ID: v.ID, Kind: NodeVariant, Label: v.Name, Depth: node.Depth})
			g.Edges = append(g.Edges, GraphEdge{From: o.ID, To: v.ID, Label: NodeVariant})
		}
	}

	var vars []Variable
	for _, v := range snap.variables {
		if slices.Contains(v.ObjectRelationships, root.ID) {
			vars = append(vars, v)
		}
	}
	slices.SortFunc(vars, func(a, b Variable) int {
		return cmp.Or(compareValues(a.Variable, b.Variable), strings.Compare(a.ID, b.ID))
	})
	for _, v := range vars {
		g.Nodes = append(g.Nodes, GraphNode{ID: v.ID, Kind: NodeVariable, Label: v.Variable, Depth: 1})
		g.Edges = append(g.Edges, GraphEdge{From: v.ID, To: root.ID, Label: NodeVariable})
	}

	g.sortEdges()
	return g, nil
}

// ListGraph returns the tier tree of a list. A list reached twice is linked
// but not expanded again.
func (s *Service) ListGraph(ctx context.Context, id string) (Graph, error) {
	snap, err := loadSnapshot(ctx, s.store)
	if err != nil {
		return Graph{}, err
	}
	if _, ok := snap.lists[id]; !ok {
		return Graph{}, notFound(KindLists, id)
	}

	g := Graph{RootID: id}
	visited := make(map[string]bool)
	var walk func(listID string, depth int)
	walk = func(listID string, depth int) {
		visited[listID] = true
		l := snap.lists[listID]
		g.Nodes = append(g.Nodes, GraphNode{ID: l.ID, Kind: NodeList, Label: l.List, Depth: depth})

		tiers := slices.Clone(l.Tiers)
		slices.SortFunc(tiers, func(a, b ListTier) int { return a.Tier - b.Tier })
		for _, t := range tiers {
			if _, ok := snap.lists[t.ListID]; !ok {
				continue
			}
			g.Edges = append(g.Edges, GraphEdge{From: l.ID, To: t.ListID, Label: fmt.Sprintf("tier %d", t.Tier)})
			if !visited[t.ListID] {
				walk(t.ListID, depth+1)
			}
		}
	}
	walk(id, 0)
	return g, nil
}

func (g *Graph) sortEdges() {
	slices.SortFunc(g.Edges, func(a, b GraphEdge) int {
		return cmp.Or(strings.Compare(a.From, b.From), strings.Compare(a.To, b.To), strings.Compare(a.Label, b.Label))
	})
	g.Edges = slices.Compact(g.Edges)
}

// Label returns the label of node id, or id itself.
func (g Graph) Label(id string) string {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n.Label
		}
	}
	return id
}

// DOT renders the graph in Graphviz syntax.
func (g Graph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph G {\n")
	b.WriteString("  rankdir=LR;\n")
	for _, n := range g.Nodes {
		shape := "box"
		switch n.Kind {
		case NodeVariant:
			shape = "ellipse"
		case NodeVariable:
			shape = "note"
		}
		style := ""
		if n.ID == g.RootID {
			style = ", style=bold"
		}
		fmt.Fprintf(&b, "  %s [label=%s, shape=%s%s];\n", dotQuote(n.ID), dotQuote(n.Label), shape, style)
	}
	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %s -> %s [label=%s];\n", dotQuote(e.From), dotQuote(e.To), dotQuote(e.Label))
	}
	b.WriteString("}\n")
	return b.String()
}

func dotQuote(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(s) + `"`
}
