package order

import (
	"errors"
	"testing"

	"github.com/ralt/rpmorder/internal/graph"
	"github.com/ralt/rpmorder/internal/models"
	"github.com/ralt/rpmorder/internal/testutil"
	"github.com/ralt/rpmorder/internal/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolved(t *testing.T, installed []*models.Package, kind models.OpKind, pkgs ...*models.Package) *transaction.Set {
	t.Helper()
	ts := transaction.New(nil, installed)
	for _, p := range pkgs {
		require.NoError(t, ts.Append(kind, p))
	}
	require.NoError(t, ts.Resolve())
	return ts
}

func opNames(ops []models.Operation) []string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Kind.String() + " " + op.Package.Name
	}
	return names
}

func scriptletDep(t *testing.T, s string) models.Dependency {
	dep := testutil.Dep(t, s)
	dep.Flags |= models.FlagScriptPost
	return dep
}

func TestOrderChain(t *testing.T) {
	a := testutil.With(t, testutil.Pkg("a", "1-1", "noarch"), models.DepRequires, "b")
	b := testutil.With(t, testutil.Pkg("b", "1-1", "noarch"), models.DepRequires, "c")
	c := testutil.Pkg("c", "1-1", "noarch")
	ts := resolved(t, nil, models.OpInstall, a, b, c)

	ops, err := New(nil).Order(ts)
	require.NoError(t, err)
	assert.Equal(t, []string{"install c", "install b", "install a"}, opNames(ops))
}

func TestOrderNeverBeforeHardPredecessor(t *testing.T) {
	libc := testutil.Pkg("libc", "1-1", "x86_64")
	ssl := testutil.With(t, testutil.Pkg("ssl", "1-1", "x86_64"), models.DepRequires, "libc")
	curl := testutil.With(t, testutil.Pkg("curl", "1-1", "x86_64"), models.DepRequires, "libc", "ssl")
	git := testutil.With(t, testutil.Pkg("git", "1-1", "x86_64"), models.DepRequires, "curl", "libc", "zlib")
	zlib := testutil.With(t, testutil.Pkg("zlib", "1-1", "x86_64"), models.DepRequires, "libc")
	doc := testutil.Pkg("doc", "1-1", "noarch")
	ts := resolved(t, nil, models.OpInstall, git, doc, curl, ssl, zlib, libc)

	ops, err := New(nil).Order(ts)
	require.NoError(t, err)
	require.Len(t, ops, 6)

	pos := make(map[*models.Package]int)
	for i, op := range ops {
		pos[op.Package] = i
	}
	for _, res := range ts.Resolutions() {
		for _, p := range res.Providers {
			if p != res.Package {
				assert.Less(t, pos[p], pos[res.Package], "%s before %s", p, res.Package)
			}
		}
	}
	assert.Equal(t, "libc", ops[0].Package.Name, "most depended upon first")
}

func TestOrderSoftCycle(t *testing.T) {
	a := testutil.Pkg("a", "1-1", "noarch")
	b := testutil.Pkg("b", "1-1", "noarch")
	c := testutil.Pkg("c", "1-1", "noarch")
	a.Requires = []models.Dependency{scriptletDep(t, "b")}
	b.Requires = []models.Dependency{scriptletDep(t, "c")}
	c.Requires = []models.Dependency{scriptletDep(t, "a")}
	ts := resolved(t, nil, models.OpInstall, a, b, c)

	o := New(nil)
	ops, err := o.Order(ts)
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.ElementsMatch(t, []string{"install a", "install b", "install c"}, opNames(ops))
	assert.Equal(t, Stats{Cycles: 1, SoftBroken: 1, HardZapped: 0}, o.Stats())
}

func TestOrderHardCycleIsZapped(t *testing.T) {
	a := testutil.With(t, testutil.Pkg("a", "1-1", "noarch"), models.DepRequires, "b")
	b := testutil.With(t, testutil.Pkg("b", "1-1", "noarch"), models.DepRequires, "a")
	ts := resolved(t, nil, models.OpInstall, a, b)

	o := New(nil)
	ops, err := o.Order(ts)
	require.NoError(t, err)
	assert.Len(t, ops, 2)
	assert.Equal(t, 1, o.Stats().HardZapped)
	assert.Equal(t, 0, o.Stats().SoftBroken)
}

func TestOrderPrefersSoftOverHard(t *testing.T) {
	a := testutil.Pkg("a", "1-1", "noarch")
	b := testutil.Pkg("b", "1-1", "noarch")
	a.Requires = []models.Dependency{testutil.Dep(t, "b")}
	b.Requires = []models.Dependency{scriptletDep(t, "a")}
	ts := resolved(t, nil, models.OpInstall, a, b)

	o := New(nil)
	ops, err := o.Order(ts)
	require.NoError(t, err)
	assert.Equal(t, []string{"install b", "install a"}, opNames(ops), "hard relation a needs b kept")
	assert.Equal(t, Stats{Cycles: 1, SoftBroken: 1}, o.Stats())
}

func TestOrderObsoletes(t *testing.T) {
	y := testutil.Installed(testutil.Pkg("y", "1.0-1", "x86_64"))
	x := testutil.With(t, testutil.Pkg("x", "2.0-1", "x86_64"), models.DepObsoletes, "y")
	other := testutil.Pkg("other", "1.0-1", "x86_64")
	ts := resolved(t, []*models.Package{y}, models.OpInstall, x, other)

	ops, err := New(nil).Order(ts)
	require.NoError(t, err)
	require.Len(t, ops, 3)

	for i, op := range ops {
		if op.Package == x {
			require.Less(t, i+1, len(ops))
			assert.Equal(t, models.OpErase, ops[i+1].Kind)
			assert.Same(t, y, ops[i+1].Package)
			assert.Same(t, x, ops[i+1].ReplacedBy)
		}
	}
}

func TestOrderUpdateErasesOldRightAfter(t *testing.T) {
	old := testutil.Installed(testutil.Pkg("a", "1.0-1", "x86_64"))
	upd := testutil.Pkg("a", "2.0-1", "x86_64")
	ts := resolved(t, []*models.Package{old}, models.OpUpdate, upd)

	ops, err := New(nil).Order(ts)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, models.Operation{Kind: models.OpUpdate, Package: upd}, ops[0])
	assert.Equal(t, models.Operation{Kind: models.OpErase, Package: old, ReplacedBy: upd}, ops[1])
}

func TestOrderMultipleObsoletedAreOrdered(t *testing.T) {
	z := testutil.Installed(testutil.Pkg("z", "1-1", "noarch"))
	y := testutil.Installed(testutil.With(t, testutil.Pkg("y", "1-1", "noarch"), models.DepRequires, "z"))
	x := testutil.With(t, testutil.Pkg("x", "2-1", "noarch"), models.DepObsoletes, "z", "y")
	ts := resolved(t, []*models.Package{z, y}, models.OpInstall, x)

	ops, err := New(nil).Order(ts)
	require.NoError(t, err)
	assert.Equal(t, []string{"install x", "erase y", "erase z"}, opNames(ops))
}

func TestOrderDeterministic(t *testing.T) {
	run := func() []string {
		p := testutil.Pkg("p", "1-1", "noarch")
		q := testutil.Pkg("q", "1-1", "noarch")
		ops, err := New(nil).Order(resolved(t, nil, models.OpInstall, q, p))
		require.NoError(t, err)
		return opNames(ops)
	}
	first := run()
	assert.ElementsMatch(t, []string{"install p", "install q"}, first)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, run())
	}
}

func TestPureEraseIsReverseOfInstall(t *testing.T) {
	mk := func() []*models.Package {
		c := testutil.Pkg("c", "1-1", "noarch")
		b := testutil.With(t, testutil.Pkg("b", "1-1", "noarch"), models.DepRequires, "c")
		a := testutil.With(t, testutil.Pkg("a", "1-1", "noarch"), models.DepRequires, "b", "c")
		d := testutil.Pkg("d", "1-1", "noarch")
		return []*models.Package{a, b, c, d}
	}

	install, err := New(nil).Order(resolved(t, nil, models.OpInstall, mk()...))
	require.NoError(t, err)

	installed := mk()
	for _, p := range installed {
		testutil.Installed(p)
	}
	erase, err := New(nil).Order(resolved(t, installed, models.OpErase, installed...))
	require.NoError(t, err)

	require.Len(t, erase, len(install))
	for i := range install {
		assert.Equal(t, install[len(install)-1-i].Package.Name, erase[i].Package.Name)
		assert.Equal(t, models.OpErase, erase[i].Kind)
	}
}

func TestOrderMixedErasesLast(t *testing.T) {
	old := testutil.Installed(testutil.Pkg("old", "1-1", "noarch"))
	a := testutil.Pkg("a", "1-1", "noarch")
	ts := transaction.New(nil, []*models.Package{old})
	require.NoError(t, ts.Append(models.OpErase, old))
	require.NoError(t, ts.Append(models.OpInstall, a))
	require.NoError(t, ts.Resolve())

	ops, err := New(nil).Order(ts)
	require.NoError(t, err)
	assert.Equal(t, []string{"install a", "erase old"}, opNames(ops))
}

func TestOrderRequiresResolved(t *testing.T) {
	ts := transaction.New(nil, nil)
	_, err := New(nil).Order(ts)
	assert.ErrorIs(t, err, ErrNotResolved)

	var txnErr *models.TxnError
	require.True(t, errors.As(err, &txnErr))
	assert.Equal(t, models.ErrOrder, txnErr.Type)
}

func TestBreakCycleExhausted(t *testing.T) {
	a := testutil.Pkg("a", "1-1", "noarch")
	b := testutil.Pkg("b", "1-1", "noarch")
	g := graph.New([]*models.Package{a, b})
	o := New(nil)

	assert.ErrorIs(t, o.breakCycle(g, nil), ErrCycleBreakExhausted)
	assert.ErrorIs(t, o.breakCycle(g, []int{0, 1}), ErrCycleBreakExhausted, "no relation between the nodes")
}

func TestOrderStatsPerCall(t *testing.T) {
	cycle := func() *transaction.Set {
		a := testutil.Pkg("a", "1-1", "noarch")
		b := testutil.Pkg("b", "1-1", "noarch")
		a.Requires = []models.Dependency{scriptletDep(t, "b")}
		b.Requires = []models.Dependency{scriptletDep(t, "a")}
		return resolved(t, nil, models.OpInstall, a, b)
	}

	o := New(nil)
	for i := 0; i < 2; i++ {
		_, err := o.Order(cycle())
		require.NoError(t, err)
		assert.Equal(t, Stats{Cycles: 1, SoftBroken: 1}, o.Stats())
	}
}

func TestOrderConsumesSet(t *testing.T) {
	ts := resolved(t, nil, models.OpInstall, testutil.Pkg("a", "1-1", "noarch"))
	_, err := New(nil).Order(ts)
	require.NoError(t, err)
	assert.Equal(t, transaction.StateOrdered, ts.State())

	_, err = New(nil).Order(ts)
	assert.ErrorIs(t, err, transaction.ErrAlreadyOrdered)
	assert.ErrorIs(t, ts.Append(models.OpInstall, testutil.Pkg("b", "1-1", "noarch")), transaction.ErrSealed)
	require.NoError(t, ts.Resolve())
}

func TestFindCycleSkipsTail(t *testing.T) {
	tail := testutil.Pkg("tail", "1-1", "noarch")
	x := testutil.Pkg("x", "1-1", "noarch")
	y := testutil.Pkg("y", "1-1", "noarch")
	g := graph.New([]*models.Package{tail, x, y})
	g.AddRelation(tail, x, graph.Hard)
	g.AddRelation(x, y, graph.Soft)
	g.AddRelation(y, x, graph.Hard)

	cycle := New(nil).findCycle(g, make([]bool, g.Len()))
	ix, _ := g.Index(x)
	iy, _ := g.Index(y)
	assert.Equal(t, []int{ix, iy}, cycle, "the walk starts at tail but only the loop is returned")
}
