// Package selection builds the set of tables a schema document describes.
//
// A Selector resolves a candidate universe from a metadata source, expands
// literal and wildcard table patterns against it, and grows the result along
// inward, outward and related relationship edges:
//
//	sel := selection.NewSelector(src, selection.Options{Module: "ApplicationSuite"})
//	set, err := sel.Select(ctx, selection.Request{
//	    Tables:  []string{"Cust*"},
//	    Inward:  "SalesLine",
//	})
//
// All expansion is single hop. Names are compared with Unicode case folding,
// so CustTable and custtable select one table.
package selection
