package graph

import (
	"testing"

	"github.com/ralt/rpmorder/internal/models"
	"github.com/ralt/rpmorder/internal/testutil"
	"github.com/ralt/rpmorder/internal/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertConsistent checks that every predecessor entry has its mirrored
// successor entry and the other way round
func assertConsistent(t *testing.T, g *Graph) {
	t.Helper()
	edges := 0
	for i := 0; i < g.Len(); i++ {
		for pred, s := range g.nodes[i].preds {
			edges++
			got, ok := g.nodes[pred].succs[i]
			require.True(t, ok, "missing successor %d->%d", pred, i)
			assert.Equal(t, s, got)
		}
		for succ, s := range g.nodes[i].succs {
			got, ok := g.nodes[succ].preds[i]
			require.True(t, ok, "missing predecessor %d->%d", i, succ)
			assert.Equal(t, s, got)
		}
	}
	assert.Equal(t, edges, g.Edges())
}

func TestBuild(t *testing.T) {
	a := testutil.With(t, testutil.Pkg("a", "1-1", "noarch"), models.DepRequires, "b", "c", "external")
	b := testutil.With(t, testutil.Pkg("b", "1-1", "noarch"), models.DepRequires, "b")
	c := testutil.Pkg("c", "1-1", "noarch")
	d := testutil.Pkg("d", "1-1", "noarch")
	ext := testutil.Pkg("external", "1-1", "noarch")
	pkgs := []*models.Package{a, b, c, d}

	post := testutil.Dep(t, "c")
	post.Flags |= models.FlagScriptPost
	res := []transaction.Resolution{
		{Package: a, Dep: testutil.Dep(t, "b"), Providers: []*models.Package{b}},
		{Package: a, Dep: post, Providers: []*models.Package{c}},
		{Package: a, Dep: testutil.Dep(t, "external"), Providers: []*models.Package{ext}},
		{Package: b, Dep: testutil.Dep(t, "b"), Providers: []*models.Package{b}},
	}
	g := Build(pkgs, res)

	require.Equal(t, 4, g.Len())
	assert.Equal(t, 2, g.Edges())
	ia, _ := g.Index(a)
	ib, _ := g.Index(b)
	ic, _ := g.Index(c)
	id, _ := g.Index(d)

	s, ok := g.Strength(ia, ib)
	require.True(t, ok)
	assert.Equal(t, Hard, s)
	s, ok = g.Strength(ia, ic)
	require.True(t, ok)
	assert.Equal(t, Soft, s)

	assert.Equal(t, 0, g.NumPreds(ib), "self requirement dropped")
	assert.Equal(t, 0, g.NumPreds(id))
	assert.Equal(t, 0, g.NumSuccs(id))
	assert.Equal(t, []int{ib, ic}, g.Preds(ia))
	assertConsistent(t, g)
}

func TestHardWins(t *testing.T) {
	a := testutil.Pkg("a", "1-1", "noarch")
	b := testutil.Pkg("b", "1-1", "noarch")
	g := New([]*models.Package{a, b})

	assert.True(t, g.AddRelation(a, b, Soft))
	assert.True(t, g.AddRelation(a, b, Hard))
	assert.False(t, g.AddRelation(a, b, Soft))
	assert.False(t, g.AddRelation(a, a, Hard))

	ia, _ := g.Index(a)
	ib, _ := g.Index(b)
	s, _ := g.Strength(ia, ib)
	assert.Equal(t, Hard, s)
	assert.Equal(t, 1, g.Edges())
	assertConsistent(t, g)
}

func TestRemoveAndDetach(t *testing.T) {
	a := testutil.Pkg("a", "1-1", "noarch")
	b := testutil.Pkg("b", "1-1", "noarch")
	c := testutil.Pkg("c", "1-1", "noarch")
	g := New([]*models.Package{a, b, c})
	g.AddRelation(a, b, Hard)
	g.AddRelation(b, c, Soft)
	g.AddRelation(c, a, Hard)
	require.Equal(t, 3, g.Edges())

	ia, _ := g.Index(a)
	ib, _ := g.Index(b)
	assert.True(t, g.RemoveRelation(ia, ib))
	assert.False(t, g.RemoveRelation(ia, ib))
	assert.Equal(t, 2, g.Edges())
	assertConsistent(t, g)

	ic, _ := g.Index(c)
	g.Detach(ic)
	assert.Equal(t, 0, g.Edges())
	assertConsistent(t, g)
}
