package graph

import (
	"testing"

	"github.com/leapstack-labs/dbschema/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_AddNodeAndEdge(t *testing.T) {
	g := NewGraph()

	g.AddNode("SalesTable", nil)
	g.AddNode("SalesLine", nil)
	g.AddNode("CustTable", nil)

	assert.Equal(t, 3, g.NodeCount())

	g.AddEdge("SalesLine", "SalesTable")
	g.AddEdge("SalesTable", "CustTable")

	assert.Equal(t, 2, g.EdgeCount())
}

func TestGraph_CaseInsensitiveKeys(t *testing.T) {
	g := NewGraph()
	g.AddNode("CustTable", "first")
	g.AddNode("CUSTTABLE", "second")

	require.Equal(t, 1, g.NodeCount())
	node, ok := g.GetNode("custtable")
	require.True(t, ok)
	assert.Equal(t, "CustTable", node.Name)
	assert.Equal(t, "second", node.Data)
}

func TestGraph_PlaceholderNodes(t *testing.T) {
	g := NewGraph()
	g.AddNode("SalesLine", nil)
	g.AddEdge("SalesLine", "InventTable")

	node, ok := g.GetNode("InventTable")
	require.True(t, ok)
	assert.True(t, node.Placeholder)
	assert.Equal(t, []string{"SalesLine"}, g.Inward("inventtable"))

	g.AddNode("INVENTTABLE", "declared")
	node, _ = g.GetNode("InventTable")
	assert.False(t, node.Placeholder)
	assert.Equal(t, "INVENTTABLE", node.Name)
}

func TestGraph_SelfLoop(t *testing.T) {
	g := NewGraph()
	g.AddNode("LedgerAccount", nil)
	g.AddEdge("LedgerAccount", "ledgeraccount")

	assert.Equal(t, 1, g.NodeCount())
	assert.Equal(t, []string{"LedgerAccount"}, g.Outward("LedgerAccount"))
	assert.Equal(t, []string{"LedgerAccount"}, g.Inward("LedgerAccount"))
}

func TestGraph_InwardOutward(t *testing.T) {
	g := NewGraph()
	g.AddEdge("SalesLine", "SalesTable")
	g.AddEdge("SalesLine", "InventTable")
	g.AddEdge("SalesTable", "CustTable")
	g.AddEdge("CustTrans", "CustTable")

	tests := []struct {
		name    string
		table   string
		inward  []string
		outward []string
	}{
		{name: "leaf", table: "CustTable", inward: []string{"SalesTable", "CustTrans"}},
		{name: "middle", table: "SalesTable", inward: []string{"SalesLine"}, outward: []string{"CustTable"}},
		{name: "root", table: "salesline", outward: []string{"SalesTable", "InventTable"}},
		{name: "unknown", table: "Nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.inward, g.Inward(tt.table))
			assert.Equal(t, tt.outward, g.Outward(tt.table))
			assert.Equal(t, tt.inward, g.Direction(tt.table, core.Inward))
			assert.Equal(t, tt.outward, g.Direction(tt.table, core.Outward))
		})
	}
}

func TestGraph_InwardOutwardAreInverse(t *testing.T) {
	g := NewGraph()
	g.AddEdge("A", "B")
	g.AddEdge("A", "C")
	g.AddEdge("C", "B")
	g.AddEdge("B", "A")

	for _, name := range []string{"A", "B", "C"} {
		for _, out := range g.Outward(name) {
			assert.Contains(t, g.Inward(out), name, "%s -> %s", name, out)
		}
	}
}

func TestGraph_DuplicateEdges(t *testing.T) {
	g := NewGraph()
	g.AddEdge("a", "b")
	g.AddEdge("A", "B")
	g.AddEdge("a", "b")

	assert.Equal(t, 1, g.EdgeCount())
	assert.Len(t, g.Inward("b"), 1)
}
