// Package graph holds the ordering relations between the packages a
// transaction changes.
package graph

import (
	"sort"

	"github.com/ralt/rpmorder/internal/models"
	"github.com/ralt/rpmorder/internal/transaction"
)

// Strength tells whether a relation must be honoured or may be broken to
// resolve a cycle
type Strength int

const (
	Soft Strength = iota
	Hard
)

// String returns the string representation of Strength
func (s Strength) String() string {
	if s == Hard {
		return "hard"
	}
	return "soft"
}

// Node is one package of the graph. Preds holds the packages that must be
// handled before it, Succs the inverse relation.
type Node struct {
	Pkg   *models.Package
	preds map[int]Strength
	succs map[int]Strength
}

// Graph is an index-addressed set of nodes. Node indices are stable for the
// life of the graph.
type Graph struct {
	nodes []Node
	byPkg map[*models.Package]int
	edges int
}

// New creates a graph with one node per package and no relations
func New(pkgs []*models.Package) *Graph {
	g := &Graph{
		nodes: make([]Node, 0, len(pkgs)),
		byPkg: make(map[*models.Package]int, len(pkgs)),
	}
	for _, pkg := range pkgs {
		if _, dup := g.byPkg[pkg]; dup {
			continue
		}
		g.byPkg[pkg] = len(g.nodes)
		g.nodes = append(g.nodes, Node{
			Pkg:   pkg,
			preds: make(map[int]Strength),
			succs: make(map[int]Strength),
		})
	}
	return g
}

// Build creates the relation graph of pkgs from resolved requirements. A
// requirement provided by another package of the set makes the provider a
// predecessor of the requiring package: hard for ordinary requirements,
// soft for scriptlet-only ones.
func Build(pkgs []*models.Package, resolutions []transaction.Resolution) *Graph {
	g := New(pkgs)
	for _, res := range resolutions {
		if _, ok := g.byPkg[res.Package]; !ok {
			continue
		}
		strength := Hard
		if res.Dep.Flags.ScriptletOnly() {
			strength = Soft
		}
		for _, provider := range res.Providers {
			g.AddRelation(res.Package, provider, strength)
		}
	}
	return g
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Edges returns the number of relations
func (g *Graph) Edges() int {
	return g.edges
}

// Node returns the node at index i
func (g *Graph) Node(i int) *Node {
	return &g.nodes[i]
}

// Index returns the node index of pkg
func (g *Graph) Index(pkg *models.Package) (int, bool) {
	i, ok := g.byPkg[pkg]
	return i, ok
}

// AddRelation records that pre must be handled before pkg. Self relations
// and packages outside the graph are ignored. An existing hard relation is
// never downgraded. It reports whether the graph changed.
func (g *Graph) AddRelation(pkg, pre *models.Package, strength Strength) bool {
	i, ok := g.byPkg[pkg]
	if !ok {
		return false
	}
	j, ok := g.byPkg[pre]
	if !ok || i == j {
		return false
	}
	current, exists := g.nodes[i].preds[j]
	if exists && current >= strength {
		return false
	}
	if !exists {
		g.edges++
	}
	g.nodes[i].preds[j] = strength
	g.nodes[j].succs[i] = strength
	return true
}

// RemoveRelation drops the relation making pred a predecessor of node i
func (g *Graph) RemoveRelation(i, pred int) bool {
	if _, ok := g.nodes[i].preds[pred]; !ok {
		return false
	}
	delete(g.nodes[i].preds, pred)
	delete(g.nodes[pred].succs, i)
	g.edges--
	return true
}

// Detach removes every relation of node i
func (g *Graph) Detach(i int) {
	for pred := range g.nodes[i].preds {
		g.RemoveRelation(i, pred)
	}
	for succ := range g.nodes[i].succs {
		g.RemoveRelation(succ, i)
	}
}

// Strength returns the strength of the relation making pred a predecessor of i
func (g *Graph) Strength(i, pred int) (Strength, bool) {
	s, ok := g.nodes[i].preds[pred]
	return s, ok
}

// NumPreds returns the number of predecessors of node i
func (g *Graph) NumPreds(i int) int {
	return len(g.nodes[i].preds)
}

// NumSuccs returns the number of successors of node i
func (g *Graph) NumSuccs(i int) int {
	return len(g.nodes[i].succs)
}

// Preds returns the predecessors of node i in package identity order
func (g *Graph) Preds(i int) []int {
	return g.sorted(g.nodes[i].preds)
}

// Less orders nodes by package identity
func (g *Graph) Less(i, j int) bool {
	a, b := g.nodes[i].Pkg.NEVRA(), g.nodes[j].Pkg.NEVRA()
	if a != b {
		return a < b
	}
	return i < j
}

func (g *Graph) sorted(m map[int]Strength) []int {
	idx := make([]int, 0, len(m))
	for k := range m {
		idx = append(idx, k)
	}
	sort.Slice(idx, func(a, b int) bool { return g.Less(idx[a], idx[b]) })
	return idx
}
