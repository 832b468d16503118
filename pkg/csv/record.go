package csv

import "github.com/shapestone/shape-csvstream/internal/parser"

// Record is one parsed row. Fields holds the values in column order after
// column count reconciliation; Header is the resolved header shared by all
// records of one parse and must not be modified.
//
//	name, ok := rec.GetByName("name")
//	first := rec.Get(0)
//	m := rec.Map()
type Record = parser.Record
