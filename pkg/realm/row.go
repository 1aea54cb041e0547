package realm

import "fmt"

// Row is one scanned result row with positional and named access.
type Row struct {
	columns []string
	values  []any
}

// NextRow advances rs and scans the current row. It returns (nil, nil)
// when the result set is exhausted without error.
func NextRow(rs ResultSet) (*Row, error) {
	if !rs.Next() {
		return nil, rs.Err()
	}

	columns, err := rs.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading result columns: %w", err)
	}

	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := rs.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scanning result row: %w", err)
	}

	return &Row{columns: columns, values: values}, nil
}

// Len returns the number of columns.
func (r *Row) Len() int {
	return len(r.values)
}

// Value returns the value at the 1-based ordinal.
func (r *Row) Value(ordinal int) (any, error) {
	if ordinal < 1 || ordinal > len(r.values) {
		return nil, fmt.Errorf("column %d out of range (row has %d columns)", ordinal, len(r.values))
	}
	return r.values[ordinal-1], nil
}

// Named returns the value of the column called name.
func (r *Row) Named(name string) (any, error) {
	for i, c := range r.columns {
		if c == name {
			return r.values[i], nil
		}
	}
	return nil, fmt.Errorf("no column named %q", name)
}
