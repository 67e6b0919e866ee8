// Package order turns a resolved transaction into a linear sequence of
// operations.
package order

import (
	"errors"
	"fmt"

	"github.com/ralt/rpmorder/internal/config"
	"github.com/ralt/rpmorder/internal/graph"
	"github.com/ralt/rpmorder/internal/models"
	"github.com/ralt/rpmorder/internal/transaction"
	"github.com/sirupsen/logrus"
)

var (
	// ErrCycleBreakExhausted means a cycle was found with no relation left
	// to remove. The graph builder produced an inconsistent graph.
	ErrCycleBreakExhausted = errors.New("cycle has no removable relation")
	ErrNotResolved         = errors.New("transaction is not resolved")
)

// Stats counts the work done while breaking cycles
type Stats struct {
	Cycles     int
	SoftBroken int
	HardZapped int
}

// Orderer sorts packages so that every package comes after the packages it
// requires, breaking dependency cycles when needed
type Orderer struct {
	cfg   *config.Config
	log   *logrus.Entry
	stats Stats
}

// New creates an Orderer
func New(cfg *config.Config) *Orderer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Orderer{cfg: cfg, log: cfg.Log()}
}

// Stats returns the cycle counters of the last Order call, or accumulated
// by Sort and EraseOrder since then
func (o *Orderer) Stats() Stats {
	return o.stats
}

func orderError(err error) error {
	return &models.TxnError{Type: models.ErrOrder, Err: err}
}

// Order computes the execution order of a resolved transaction. Installs
// and updates come first, each immediately followed by the erases of the
// packages it replaces; explicit erases come last, in the reverse of the
// order they would be installed in. A set is ordered once.
func (o *Orderer) Order(ts *transaction.Set) ([]models.Operation, error) {
	switch ts.State() {
	case transaction.StateResolved:
	case transaction.StateOrdered:
		return nil, orderError(transaction.ErrAlreadyOrdered)
	default:
		return nil, orderError(ErrNotResolved)
	}
	o.stats = Stats{}
	log := o.log.WithField("txn", ts.ID())

	pending := ts.Pending()
	g := graph.Build(pending, ts.Resolutions())
	log.Debugf("Ordering %d packages with %d relations", g.Len(), g.Edges())
	seq, err := o.Sort(g)
	if err != nil {
		return nil, orderError(err)
	}

	var ops []models.Operation
	for _, pkg := range seq {
		kind, _ := ts.Kind(pkg)
		ops = append(ops, models.Operation{Kind: kind, Package: pkg})

		replaced, err := o.EraseOrder(ts.Replaces(pkg))
		if err != nil {
			return nil, orderError(fmt.Errorf("ordering packages replaced by %s: %w", pkg, err))
		}
		for _, r := range replaced {
			ops = append(ops, models.Operation{Kind: models.OpErase, Package: r, ReplacedBy: pkg})
		}
	}

	erased, err := o.EraseOrder(ts.Erased())
	if err != nil {
		return nil, orderError(fmt.Errorf("ordering erases: %w", err))
	}
	for _, pkg := range erased {
		ops = append(ops, models.Operation{Kind: models.OpErase, Package: pkg})
	}

	if err := ts.MarkOrdered(); err != nil {
		return nil, err
	}
	log.Infof("Ordered %d operations (%d cycles, %d soft relations broken, %d hard relations zapped)",
		len(ops), o.stats.Cycles, o.stats.SoftBroken, o.stats.HardZapped)
	return ops, nil
}

// EraseOrder orders packages for removal: the exact reverse of the order
// the same packages would be installed in, using only their relations to
// each other.
func (o *Orderer) EraseOrder(pkgs []*models.Package) ([]*models.Package, error) {
	if len(pkgs) < 2 {
		return pkgs, nil
	}
	seq, err := o.Sort(graph.Build(pkgs, transaction.Relate(o.cfg, pkgs)))
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(seq)-1; i < j; i, j = i+1, j-1 {
		seq[i], seq[j] = seq[j], seq[i]
	}
	return seq, nil
}

// Sort topologically sorts the graph, consuming it. Among the packages
// whose predecessors are all handled, the one with the most successors goes
// first; ties go to the lowest package identity. When only cycles remain,
// one relation of a cycle is removed and sorting resumes.
func (o *Orderer) Sort(g *graph.Graph) ([]*models.Package, error) {
	n := g.Len()
	done := make([]bool, n)
	seq := make([]*models.Package, 0, n)

	for len(seq) < n {
		best := -1
		for i := 0; i < n; i++ {
			if done[i] || g.NumPreds(i) > 0 {
				continue
			}
			if best < 0 || g.NumSuccs(i) > g.NumSuccs(best) ||
				(g.NumSuccs(i) == g.NumSuccs(best) && g.Less(i, best)) {
				best = i
			}
		}

		if best >= 0 {
			seq = append(seq, g.Node(best).Pkg)
			done[best] = true
			g.Detach(best)
			continue
		}

		cycle := o.findCycle(g, done)
		if err := o.breakCycle(g, cycle); err != nil {
			return nil, err
		}
	}
	return seq, nil
}

// findCycle walks predecessor relations from the pending node with the
// fewest predecessors until a node repeats, and returns the repeating part
// of the walk. Each node of the result has the next one (wrapping around)
// as predecessor.
func (o *Orderer) findCycle(g *graph.Graph, done []bool) []int {
	seed := -1
	for i := 0; i < g.Len(); i++ {
		if done[i] {
			continue
		}
		if seed < 0 || g.NumPreds(i) < g.NumPreds(seed) ||
			(g.NumPreds(i) == g.NumPreds(seed) && g.Less(i, seed)) {
			seed = i
		}
	}
	if seed < 0 {
		return nil
	}

	pos := make(map[int]int)
	var walk []int
	for cur := seed; ; {
		if at, seen := pos[cur]; seen {
			return walk[at:]
		}
		pos[cur] = len(walk)
		walk = append(walk, cur)

		preds := g.Preds(cur)
		if len(preds) == 0 {
			return nil
		}
		cur = preds[0]
	}
}

// breakCycle removes one relation of the cycle: a soft one if there is
// any, otherwise a hard one. Among candidates the relation held by the node
// with the fewest predecessors wins.
func (o *Orderer) breakCycle(g *graph.Graph, cycle []int) error {
	if len(cycle) == 0 {
		return ErrCycleBreakExhausted
	}
	o.stats.Cycles++

	pick := func(want graph.Strength) (node, pred int, found bool) {
		for k, i := range cycle {
			p := cycle[(k+1)%len(cycle)]
			s, ok := g.Strength(i, p)
			if !ok || s != want {
				continue
			}
			if !found || g.NumPreds(i) < g.NumPreds(node) {
				node, pred, found = i, p, true
			}
		}
		return node, pred, found
	}

	if node, pred, ok := pick(graph.Soft); ok {
		g.RemoveRelation(node, pred)
		o.stats.SoftBroken++
		o.log.Debugf("Breaking soft relation %s -> %s", g.Node(pred).Pkg, g.Node(node).Pkg)
		return nil
	}
	if node, pred, ok := pick(graph.Hard); ok {
		g.RemoveRelation(node, pred)
		o.stats.HardZapped++
		o.log.Warnf("Zapping hard relation %s -> %s to break a dependency loop", g.Node(pred).Pkg, g.Node(node).Pkg)
		return nil
	}
	return ErrCycleBreakExhausted
}
