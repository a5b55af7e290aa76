// Package schema reconciles flow record tables from different capture tool
// versions to the exact ordered feature set a classifier was trained on
package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/flowguard/flowguard/pkg/dataset"
)

// MaxDropSamples bounds how many drop reasons a Result keeps
const MaxDropSamples = 25

type (
	// Reconciler renames, filters and reorders columns
	Reconciler struct {
		aliases map[string]string
		dropped map[string]bool
	}

	// MissingFeatureError is the schema fault raised when a feature the
	// classifier expects is absent from the input
	MissingFeatureError struct {
		Missing []string
	}

	// Drop records why a row was discarded during numeric coercion
	Drop struct {
		Row    int
		Column string
		Value  string
		Reason string
	}

	// Matrix is a dense numeric table
	Matrix struct {
		Columns []string
		Rows    [][]float64
	}

	// Result is the outcome of reconciling a table. Kept holds the source row
	// index of every row in the matrix.
	Result struct {
		Matrix
		Kept    []int
		Dropped int
		Samples []Drop
	}

	// Projection maps normalized input columns onto a target schema
	Projection struct {
		columns   []string
		positions []int
	}
)

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("missing %d feature column(s): %s", len(e.Missing), strings.Join(e.Missing, ", "))
}

func (d Drop) String() string {
	return fmt.Sprintf("row %d column %q value %q: %s", d.Row, d.Column, d.Value, d.Reason)
}

// New creates a Reconciler. A nil alias table or drop list selects the
// built in defaults.
func New(aliases map[string]string, dropColumns []string) *Reconciler {
	if aliases == nil {
		aliases = DefaultAliases
	}
	if dropColumns == nil {
		dropColumns = DefaultDropColumns
	}

	r := &Reconciler{
		aliases: make(map[string]string, len(aliases)),
		dropped: make(map[string]bool, len(dropColumns)),
	}
	for from, to := range aliases {
		r.aliases[from] = to
	}
	for _, name := range dropColumns {
		r.dropped[name] = true
	}
	return r
}

// Normalize strips whitespace from every column name, applies the alias table
// and disambiguates repeated names with .1, .2, ... suffixes. The result has
// the same length and order as header.
func (r *Reconciler) Normalize(header []string) []string {
	normalized := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if canonical, ok := r.aliases[name]; ok {
			name = canonical
		}
		candidate := name
		for counter := 1; seen[candidate]; counter++ {
			candidate = name + "." + strconv.Itoa(counter)
		}
		seen[candidate] = true
		normalized[i] = candidate
	}
	return normalized
}

// Dropped reports whether a normalized column name is an identifying column
func (r *Reconciler) Dropped(name string) bool {
	return r.dropped[name]
}

// DeriveSchema returns the feature schema implied by a raw header: every
// normalized column that is neither dropped nor excluded, in header order
func (r *Reconciler) DeriveSchema(header []string, exclude ...string) []string {
	excluded := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		excluded[name] = true
	}

	var features []string
	for _, name := range r.Normalize(header) {
		if r.dropped[name] || excluded[name] {
			continue
		}
		features = append(features, name)
	}
	return features
}

// Plan matches a raw header against the target schema. Every target column
// must be present after normalization, otherwise a *MissingFeatureError is
// returned naming all of the absent columns.
func (r *Reconciler) Plan(header []string, target []string) (*Projection, error) {
	index := make(map[string]int, len(header))
	for i, name := range r.Normalize(header) {
		if r.dropped[name] {
			continue
		}
		index[name] = i
	}

	projection := &Projection{
		columns:   append([]string(nil), target...),
		positions: make([]int, len(target)),
	}
	var missing []string
	for i, name := range target {
		position, ok := index[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		projection.positions[i] = position
	}
	if len(missing) > 0 {
		return nil, &MissingFeatureError{Missing: missing}
	}
	return projection, nil
}

// Columns returns the target schema of the projection
func (p *Projection) Columns() []string {
	return p.columns
}

// Coerce projects a raw row onto the target schema and parses every cell. The
// returned Drop is non nil when the row has to be discarded.
func (p *Projection) Coerce(row []string) ([]float64, *Drop) {
	values := make([]float64, len(p.positions))
	for i, position := range p.positions {
		if position >= len(row) {
			return nil, &Drop{Column: p.columns[i], Reason: "missing cell"}
		}
		value, reason := parseCell(row[position])
		if reason != "" {
			return nil, &Drop{Column: p.columns[i], Value: row[position], Reason: reason}
		}
		values[i] = value
	}
	return values, nil
}

// parseCell converts a cell to a finite float, returning a reason on failure
func parseCell(cell string) (float64, string) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, "empty cell"
	}
	value, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, "not a number"
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, "not finite"
	}
	return value, ""
}

// Reconcile projects every row of the table onto the target schema. Rows with
// a cell that is not a finite number are discarded and counted.
func (r *Reconciler) Reconcile(table *dataset.Table, target []string) (*Result, error) {
	projection, err := r.Plan(table.Header, target)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Matrix: Matrix{
			Columns: projection.Columns(),
			Rows:    make([][]float64, 0, len(table.Rows)),
		},
		Kept: make([]int, 0, len(table.Rows)),
	}
	for i, row := range table.Rows {
		values, drop := projection.Coerce(row)
		if drop != nil {
			result.Dropped++
			if len(result.Samples) < MaxDropSamples {
				drop.Row = i
				result.Samples = append(result.Samples, *drop)
			}
			continue
		}
		result.Rows = append(result.Rows, values)
		result.Kept = append(result.Kept, i)
	}
	return result, nil
}

// Column returns the normalized position of name in header, or -1
func (r *Reconciler) Column(header []string, name string) int {
	for i, normalized := range r.Normalize(header) {
		if normalized == name {
			return i
		}
	}
	return -1
}
