// Package operations is the catalog of named pipeline operations.
//
// Operations are labels with parameter schemas; nothing here transforms
// data. The catalog backs entity creation, manifest validation and the
// validating Evaluator used by recompute.
package operations

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ParamKind is how a parameter is entered.
type ParamKind string

const (
	ParamText   ParamKind = "text"
	ParamSelect ParamKind = "select"
)

// Param describes one operation parameter.
type Param struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Kind        ParamKind `json:"kind"`
	Placeholder string    `json:"placeholder,omitempty"`
	Options     []string  `json:"options,omitempty"`
}

// Operation is a named step an entity can be produced by.
type Operation struct {
	Name                string  `json:"name"`
	Category            string  `json:"category"`
	Description         string  `json:"description"`
	Params              []Param `json:"params"`
	RequiresSecondInput bool    `json:"requiresSecondInput,omitempty"`
}

// Category groups operations for display.
type Category struct {
	Name       string      `json:"name"`
	Operations []Operation `json:"operations"`
}

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrUnknownParam     = errors.New("unknown parameter")
	ErrInvalidOption    = errors.New("value not among options")
)

var catalog = []Category{
	{
		Name: "Data Transformation",
		Operations: []Operation{
			{
				Name:        "Join Tables",
				Description: "Combine two tables on matching keys",
				Params: []Param{
					{Name: "joinKey", Label: "Join Key", Kind: ParamText, Placeholder: "e.g., id"},
					{Name: "joinType", Label: "Join Type", Kind: ParamSelect, Options: []string{"inner", "left", "right", "outer"}},
				},
				RequiresSecondInput: true,
			},
			{
				Name:        "Filter Rows",
				Description: "Filter rows based on conditions",
				Params: []Param{
					{Name: "condition", Label: "Condition", Kind: ParamText, Placeholder: "e.g., x > 10"},
				},
			},
			{
				Name:        "Sort Data",
				Description: "Sort rows by one or more columns",
				Params: []Param{
					{Name: "column", Label: "Sort Column", Kind: ParamText, Placeholder: "e.g., name"},
					{Name: "order", Label: "Order", Kind: ParamSelect, Options: []string{"ascending", "descending"}},
				},
			},
			{
				Name:        "Aggregate",
				Description: "Group and aggregate data",
				Params: []Param{
					{Name: "groupBy", Label: "Group By", Kind: ParamText, Placeholder: "e.g., category"},
					{Name: "aggregation", Label: "Aggregation", Kind: ParamSelect, Options: []string{"sum", "avg", "count", "min", "max"}},
				},
			},
		},
	},
	{
		Name: "Math & Logic",
		Operations: []Operation{
			{
				Name:        "Calculate Column",
				Description: "Add computed column",
				Params: []Param{
					{Name: "columnName", Label: "New Column", Kind: ParamText, Placeholder: "e.g., total"},
					{Name: "formula", Label: "Formula", Kind: ParamText, Placeholder: "e.g., price * quantity"},
				},
			},
			{
				Name:        "Binary Operation",
				Description: "Apply binary operations",
				Params: []Param{
					{Name: "operation", Label: "Operation", Kind: ParamSelect, Options: []string{"add", "subtract", "multiply", "divide"}},
				},
				RequiresSecondInput: true,
			},
			{
				Name:        "Conditional Logic",
				Description: "If-then-else transformations",
				Params: []Param{
					{Name: "condition", Label: "If", Kind: ParamText, Placeholder: `e.g., status == "active"`},
					{Name: "thenValue", Label: "Then", Kind: ParamText, Placeholder: "value if true"},
					{Name: "elseValue", Label: "Else", Kind: ParamText, Placeholder: "value if false"},
				},
			},
		},
	},
	{
		Name: "Text Processing",
		Operations: []Operation{
			{
				Name:        "Summarize Text",
				Description: "Generate text summaries",
				Params: []Param{
					{Name: "maxLength", Label: "Max Length", Kind: ParamText, Placeholder: "e.g., 100"},
				},
			},
			{
				Name:        "Extract Entities",
				Description: "Extract named entities",
				Params: []Param{
					{Name: "entityTypes", Label: "Entity Types", Kind: ParamText, Placeholder: "e.g., person, org"},
				},
			},
		},
	},
	{
		Name: "I/O",
		Operations: []Operation{
			{
				Name:        "Load CSV",
				Description: "Import data from CSV",
				Params: []Param{
					{Name: "filePath", Label: "File Path", Kind: ParamText, Placeholder: "path/to/file.csv"},
				},
			},
			{
				Name:        "Export Data",
				Description: "Export to various formats",
				Params: []Param{
					{Name: "format", Label: "Format", Kind: ParamSelect, Options: []string{"csv", "json", "parquet"}},
				},
			},
		},
	},
}

var byName = func() map[string]Operation {
	m := make(map[string]Operation)
	for _, c := range catalog {
		for _, op := range c.Operations {
			op.Category = c.Name
			m[op.Name] = op
		}
	}
	return m
}()

// Categories returns the catalog grouped by category, in display order.
func Categories() []Category {
	out := make([]Category, len(catalog))
	for i, c := range catalog {
		ops := make([]Operation, len(c.Operations))
		for j, op := range c.Operations {
			ops[j] = byName[op.Name]
		}
		out[i] = Category{Name: c.Name, Operations: ops}
	}
	return out
}

// All returns every operation in display order.
func All() []Operation {
	var out []Operation
	for _, c := range Categories() {
		out = append(out, c.Operations...)
	}
	return out
}

// Lookup returns the operation with the given name.
func Lookup(name string) (Operation, bool) {
	op, ok := byName[name]
	return op, ok
}

// Validate checks params against the operation's schema. Empty values are
// allowed; select values must be one of the options.
func (op Operation) Validate(params map[string]string) error {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		i := slices.IndexFunc(op.Params, func(p Param) bool { return p.Name == k })
		if i < 0 {
			return fmt.Errorf("%s: %q: %w", op.Name, k, ErrUnknownParam)
		}
		p := op.Params[i]
		v := params[k]
		if p.Kind == ParamSelect && v != "" && !slices.Contains(p.Options, v) {
			return fmt.Errorf("%s: %s=%q: %w", op.Name, k, v, ErrInvalidOption)
		}
	}
	return nil
}
