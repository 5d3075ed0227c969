package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/dbschema/pkg/core"
	"gopkg.in/yaml.v3"
)

// SampleTables returns a small order-to-cash catalog spread over three modules.
//
//	SalesLine -> SalesTable -> CustTable -> CustGroup
//	SalesLine -> InventTable -> InventTable
//	CustTrans -> CustTable
//	SalesTableStaging -> SalesTable
//
// CustTrans has no primary key and SalesTableStaging is a staging table.
func SampleTables() []core.Table {
	return []core.Table{
		{
			Name:       "CustGroup",
			Label:      "Customer groups",
			Module:     "Customer",
			PrimaryKey: []string{"CustGroup"},
			Fields: []core.Field{
				{Name: "CustGroup", Type: "CustGroupId", BaseType: "String", Mandatory: true},
				{Name: "Name", Type: "Description", BaseType: "String"},
			},
		},
		{
			Name:       "CustTable",
			Label:      "Customers",
			Module:     "Customer",
			PrimaryKey: []string{"AccountNum"},
			Fields: []core.Field{
				{Name: "AccountNum", Type: "CustAccount", BaseType: "String", Mandatory: true},
				{Name: "CustGroup", Type: "CustGroupId", BaseType: "String", Mandatory: true},
				{Name: "CreditMax", Type: "AmountMST", BaseType: "Real"},
				{Name: "LoyaltyTier", Type: "String", Extension: "Contoso"},
			},
			Relations: []core.Relation{
				{Name: "CustGroup", RelatedTable: "CustGroup", Constraints: []core.Constraint{{Field: "CustGroup", RelatedField: "CustGroup"}}},
			},
		},
		{
			Name:   "CustTrans",
			Module: "Customer",
			Fields: []core.Field{
				{Name: "AccountNum", Type: "CustAccount", BaseType: "String"},
				{Name: "AmountCur", Type: "AmountCur", BaseType: "Real"},
			},
			Relations: []core.Relation{
				{Name: "CustTable", RelatedTable: "CustTable", Constraints: []core.Constraint{{Field: "AccountNum", RelatedField: "AccountNum"}}},
			},
		},
		{
			Name:       "SalesTable",
			Label:      "Sales orders",
			Module:     "Sales",
			PrimaryKey: []string{"SalesId"},
			Fields: []core.Field{
				{Name: "SalesId", Type: "SalesId", BaseType: "String", Mandatory: true},
				{Name: "CustAccount", Type: "CustAccount", BaseType: "String", Mandatory: true},
				{Name: "DeliveryDate", Type: "TransDate", BaseType: "Date"},
			},
			Relations: []core.Relation{
				{Name: "CustTable", RelatedTable: "CustTable", Constraints: []core.Constraint{{Field: "CustAccount", RelatedField: "AccountNum"}}},
			},
		},
		{
			Name:       "SalesLine",
			Label:      "Sales order lines",
			Module:     "Sales",
			PrimaryKey: []string{"SalesId", "LineNum"},
			Fields: []core.Field{
				{Name: "SalesId", Type: "SalesId", BaseType: "String", Mandatory: true},
				{Name: "LineNum", Type: "LineNum", BaseType: "Real", Mandatory: true},
				{Name: "ItemId", Type: "ItemId", BaseType: "String"},
				{Name: "SalesQty", Type: "SalesQty", BaseType: "Real"},
			},
			Relations: []core.Relation{
				{Name: "SalesTable", RelatedTable: "SalesTable", Constraints: []core.Constraint{{Field: "SalesId", RelatedField: "SalesId"}}},
				{Name: "InventTable", RelatedTable: "InventTable", Constraints: []core.Constraint{{Field: "ItemId", RelatedField: "ItemId"}}},
			},
		},
		{
			Name:       "SalesTableStaging",
			Module:     "Sales",
			Staging:    true,
			PrimaryKey: []string{"SalesId"},
			Fields: []core.Field{
				{Name: "SalesId", Type: "SalesId", BaseType: "String"},
			},
			Relations: []core.Relation{
				{Name: "SalesTable", RelatedTable: "SalesTable", Constraints: []core.Constraint{{Field: "SalesId", RelatedField: "SalesId"}}},
			},
		},
		{
			Name:       "InventTable",
			Label:      "Released products",
			Module:     "Inventory",
			PrimaryKey: []string{"ItemId"},
			Fields: []core.Field{
				{Name: "ItemId", Type: "ItemId", BaseType: "String", Mandatory: true},
				{Name: "ParentItemId", Type: "ItemId", BaseType: "String"},
			},
			Relations: []core.Relation{
				{Name: "Parent", RelatedTable: "InventTable", Constraints: []core.Constraint{{Field: "ParentItemId", RelatedField: "ItemId"}}},
			},
		},
	}
}

// WriteTable writes table as <dir>/<module>/tables/<name>.yaml.
func WriteTable(t testing.TB, dir string, table core.Table) string {
	t.Helper()

	tablesDir := filepath.Join(dir, table.Module, "tables")
	if err := os.MkdirAll(tablesDir, 0o750); err != nil {
		t.Fatalf("failed to create %s: %v", tablesDir, err)
	}

	table.Module = ""
	data, err := yaml.Marshal(table)
	if err != nil {
		t.Fatalf("failed to marshal %s: %v", table.Name, err)
	}

	path := filepath.Join(tablesDir, table.Name+".yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// WriteCatalog writes SampleTables below a fresh temp directory and returns it.
func WriteCatalog(t testing.TB) string {
	t.Helper()

	dir := t.TempDir()
	for _, table := range SampleTables() {
		WriteTable(t, dir, table)
	}
	return dir
}
