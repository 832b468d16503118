package csv

import (
	"context"
	"fmt"
	"io"

	"github.com/shapestone/shape-core/pkg/ast"
)

// ParseAST parses r into a shape-core AST.
//
// The result is an *ast.ArrayDataNode with one element per record:
//   - with ObjectOutput, an *ast.ObjectNode keyed by header name
//   - with ArrayOutput, an *ast.ArrayDataNode in column order
//
// Values are *ast.LiteralNode strings. Cells marked missing by the Sparse
// strategy are *ast.LiteralNode nil values.
func ParseAST(ctx context.Context, reader io.Reader, opts Options) (ast.SchemaNode, error) {
	opts = opts.withDefaults()
	records, err := ParseReaderWithOptions(ctx, reader, opts)
	if err != nil {
		return nil, err
	}

	pos := ast.ZeroPosition()
	nodes := make([]ast.SchemaNode, len(records))
	for i, rec := range records {
		if opts.OutputFormat == ArrayOutput {
			nodes[i] = arrayNode(rec, pos)
		} else {
			nodes[i] = objectNode(rec, pos)
		}
	}
	return ast.NewArrayDataNode(nodes, pos), nil
}

func arrayNode(rec Record, pos ast.Position) ast.SchemaNode {
	fields := make([]ast.SchemaNode, len(rec.Fields))
	for i, v := range rec.Fields {
		if rec.IsMissing(i) {
			fields[i] = ast.NewLiteralNode(nil, pos)
			continue
		}
		fields[i] = ast.NewLiteralNode(v, pos)
	}
	return ast.NewArrayDataNode(fields, pos)
}

func objectNode(rec Record, pos ast.Position) ast.SchemaNode {
	props := make(map[string]ast.SchemaNode, len(rec.Header))
	for i, name := range rec.Header {
		props[name] = ast.NewLiteralNode(rec.Get(i), pos)
	}
	return ast.NewObjectNode(props, pos)
}

// NodeToInterface converts a ParseAST result back to Go values.
//
//   - a document of ObjectNode rows becomes []map[string]string
//   - a document of ArrayDataNode rows becomes [][]string
//   - an ObjectNode becomes map[string]string, without missing cells
//   - an ArrayDataNode of literals becomes []string, with "" for missing cells
//   - a LiteralNode becomes its string value, or nil when missing
func NodeToInterface(node ast.SchemaNode) interface{} {
	switch n := node.(type) {
	case *ast.LiteralNode:
		switch v := n.Value().(type) {
		case nil:
			return nil
		case string:
			return v
		default:
			return fmt.Sprintf("%v", v)
		}

	case *ast.ObjectNode:
		m := make(map[string]string, len(n.Properties()))
		for name, prop := range n.Properties() {
			if s, ok := NodeToInterface(prop).(string); ok {
				m[name] = s
			}
		}
		return m

	case *ast.ArrayDataNode:
		elements := n.Elements()
		if len(elements) == 0 {
			return [][]string{}
		}
		switch elements[0].(type) {
		case *ast.ObjectNode:
			rows := make([]map[string]string, len(elements))
			for i, elem := range elements {
				rows[i], _ = NodeToInterface(elem).(map[string]string)
			}
			return rows
		case *ast.ArrayDataNode:
			rows := make([][]string, len(elements))
			for i, elem := range elements {
				rows[i], _ = NodeToInterface(elem).([]string)
			}
			return rows
		default:
			fields := make([]string, len(elements))
			for i, elem := range elements {
				fields[i], _ = NodeToInterface(elem).(string)
			}
			return fields
		}
	}
	return nil
}

// NodeToRecords returns the rows of an array-output ParseAST result.
//
//	node, _ := csv.ParseAST(ctx, strings.NewReader("name,age\nAlice,30\n"), opts)
//	rows := csv.NodeToRecords(node)
//	// rows is [][]string{{"Alice", "30"}}
func NodeToRecords(node ast.SchemaNode) [][]string {
	switch v := NodeToInterface(node).(type) {
	case [][]string:
		return v
	case []string:
		return [][]string{v}
	}
	return [][]string{}
}

// NodeToMaps returns the rows of an object-output ParseAST result.
func NodeToMaps(node ast.SchemaNode) []map[string]string {
	switch v := NodeToInterface(node).(type) {
	case []map[string]string:
		return v
	case map[string]string:
		return []map[string]string{v}
	}
	return []map[string]string{}
}
