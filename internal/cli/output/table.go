package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/yndnr/netverify-go/internal/core/domain"
)

// EmptyMarker is printed for a table with no rows.
const EmptyMarker = "(no rows)"

// TableFormatter formats data as an aligned text table.
type TableFormatter struct {
	NoHeaders bool
}

// Format formats data as a table.
// Supports *Table, *domain.Result, []string, slices of structs, maps and
// single structs. Anything else falls back to JSON.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}

	var (
		table *Table
		err   error
	)
	switch v := prepare(data).(type) {
	case *Table:
		table = v
	case Table:
		table = &v
	case *domain.Result:
		table = ResultTable(v)
	case []string:
		table = List("NAME", v)
	case string:
		_, err := fmt.Fprintln(w, v)
		return err
	default:
		table, err = toTable(v)
		if err != nil {
			return (&JSONFormatter{}).Format(w, data)
		}
	}

	if len(table.Rows) == 0 {
		_, err := fmt.Fprintln(w, EmptyMarker)
		return err
	}
	return table.RenderWithOptions(w, f.NoHeaders)
}

// ResultTable converts a query result to a table. Column names become
// upper-case headers.
func ResultTable(r *domain.Result) *Table {
	t := &Table{}
	if r == nil {
		return t
	}
	for _, col := range r.Columns {
		t.Headers = append(t.Headers, strings.ToUpper(col))
	}
	for _, row := range r.Rows {
		cells := make([]string, len(r.Columns))
		for i := range cells {
			if i < len(row) {
				cells[i] = formatCell(row[i])
			} else {
				cells[i] = "-"
			}
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// List builds a single-column table.
func List(header string, items []string) *Table {
	t := &Table{Headers: []string{header}}
	for _, item := range items {
		t.AddRow(item)
	}
	return t
}

// formatCell renders one result cell. Structured cells (engine objects
// such as flows and traces) are shown as compact JSON.
func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return "-"
	case string:
		if c == "" {
			return "-"
		}
		return c
	case bool:
		return fmt.Sprintf("%t", c)
	case float64:
		if c == float64(int64(c)) {
			return fmt.Sprintf("%d", int64(c))
		}
		return fmt.Sprintf("%g", c)
	case []any, map[string]any:
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Sprintf("%v", c)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", c)
	}
}

// toTable converts various data types to a Table.
func toTable(data any) (*Table, error) {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return &Table{}, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return sliceToTable(v)
	case reflect.Map:
		return mapToTable(v)
	case reflect.Struct:
		return structToTable(v)
	default:
		return nil, fmt.Errorf("unsupported type: %s", v.Kind())
	}
}

// sliceToTable converts a slice of structs or scalars to a table.
func sliceToTable(v reflect.Value) (*Table, error) {
	elemType := v.Type().Elem()
	if elemType.Kind() == reflect.Ptr {
		elemType = elemType.Elem()
	}

	if elemType.Kind() != reflect.Struct {
		table := &Table{Headers: []string{"VALUE"}}
		for i := 0; i < v.Len(); i++ {
			table.AddRow(formatValue(v.Index(i)))
		}
		return table, nil
	}

	fields := tableFields(elemType)
	table := &Table{}
	for _, f := range fields {
		table.Headers = append(table.Headers, strings.ToUpper(f.name))
	}
	for i := 0; i < v.Len(); i++ {
		elem := v.Index(i)
		if elem.Kind() == reflect.Ptr {
			if elem.IsNil() {
				continue
			}
			elem = elem.Elem()
		}
		row := make([]string, len(fields))
		for j, f := range fields {
			row[j] = formatValue(elem.Field(f.index))
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

type tableField struct {
	index int
	name  string
}

// tableFields lists the exported fields of t named by their json tag.
// A `table:"-"` tag hides a field.
func tableFields(t reflect.Type) []tableField {
	var fields []tableField
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Tag.Get("table") == "-" {
			continue
		}
		fields = append(fields, tableField{index: i, name: fieldName(field)})
	}
	return fields
}

func fieldName(field reflect.StructField) string {
	if tag := field.Tag.Get("json"); tag != "" {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}
	return toSnakeCase(field.Name)
}

// mapToTable converts a map to a key-value table sorted by key.
func mapToTable(v reflect.Value) (*Table, error) {
	table := &Table{Headers: []string{"KEY", "VALUE"}}

	iter := v.MapRange()
	for iter.Next() {
		table.AddRow(formatValue(iter.Key()), formatValue(iter.Value()))
	}
	slices.SortFunc(table.Rows, func(a, b []string) int {
		return strings.Compare(a[0], b[0])
	})
	return table, nil
}

// structToTable converts a single struct to a field-value table.
func structToTable(v reflect.Value) (*Table, error) {
	table := &Table{Headers: []string{"FIELD", "VALUE"}}
	for _, f := range tableFields(v.Type()) {
		table.AddRow(f.name, formatValue(v.Field(f.index)))
	}
	return table, nil
}

// formatValue formats a reflect.Value for display.
func formatValue(v reflect.Value) string {
	if !v.IsValid() {
		return "-"
	}
	if v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "-"
		}
		v = v.Elem()
	}

	if t, ok := v.Interface().(time.Time); ok {
		if t.IsZero() {
			return "-"
		}
		return t.Local().Format("2006-01-02 15:04:05")
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return formatCell(s.String())
	}

	switch v.Kind() {
	case reflect.String:
		return formatCell(v.String())
	case reflect.Bool:
		return fmt.Sprintf("%t", v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d", v.Uint())
	case reflect.Float32, reflect.Float64:
		return formatCell(v.Float())
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "-"
		}
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = formatValue(v.Index(i))
		}
		return strings.Join(parts, ",")
	default:
		return formatCell(v.Interface())
	}
}

// toSnakeCase converts CamelCase to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteByte('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table with options.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}
