package domain

// Result is a tabular, columnar dataset returned by a query.
//
// Column names and cell values follow the engine's schema for the query
// type; the client never interprets them beyond renaming and sanitizing.
type Result struct {
	// Columns holds the ordered column names.
	Columns []string `json:"columns" yaml:"columns"`

	// Rows holds the ordered rows; each row has one cell per column.
	Rows [][]any `json:"rows" yaml:"rows"`
}

// NewResult creates a result with the given columns and no rows.
func NewResult(columns ...string) *Result {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Result{
		Columns: cols,
		Rows:    make([][]any, 0),
	}
}

// EmptyResult returns a result with no columns and no rows.
func EmptyResult() *Result {
	return &Result{
		Columns: make([]string, 0),
		Rows:    make([][]any, 0),
	}
}

// AddRow appends a row to the result.
func (r *Result) AddRow(cells ...any) {
	r.Rows = append(r.Rows, cells)
}

// Len returns the number of rows.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// IsEmpty returns true if the result has no rows.
func (r *Result) IsEmpty() bool {
	return r.Len() == 0
}

// ColumnIndex returns the position of a column, or -1 if absent.
func (r *Result) ColumnIndex(name string) int {
	for i, c := range r.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn returns true if the column exists.
func (r *Result) HasColumn(name string) bool {
	return r.ColumnIndex(name) >= 0
}

// Column returns all values of a column in row order.
func (r *Result) Column(name string) ([]any, bool) {
	idx := r.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	values := make([]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		if idx < len(row) {
			values = append(values, row[idx])
		} else {
			values = append(values, nil)
		}
	}
	return values, true
}

// Clone returns a copy of the result. Rows are copied; cell values are shared.
func (r *Result) Clone() *Result {
	if r == nil {
		return EmptyResult()
	}
	out := &Result{
		Columns: append(make([]string, 0, len(r.Columns)), r.Columns...),
		Rows:    make([][]any, len(r.Rows)),
	}
	for i, row := range r.Rows {
		out.Rows[i] = append(make([]any, 0, len(row)), row...)
	}
	return out
}

// Records returns the rows as column-keyed maps, in row order.
func (r *Result) Records() []map[string]any {
	records := make([]map[string]any, 0, r.Len())
	if r == nil {
		return records
	}
	for _, row := range r.Rows {
		rec := make(map[string]any, len(r.Columns))
		for i, col := range r.Columns {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = nil
			}
		}
		records = append(records, rec)
	}
	return records
}
