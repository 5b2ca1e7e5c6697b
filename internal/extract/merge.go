package extract

import "fmt"

// Dataset is the merged row-oriented output of one extraction.
type Dataset struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// textColumns is the fixed schema for structured-text rows.
var textColumns = []string{"Source", "Field", "Value"}

// fragment is one schema-tagged piece of the merge input: either a raw
// table (arbitrary width) or the structured-text rows (fixed width 3).
type fragment struct {
	columns []string
	rows    [][]string
}

// Merge unions raw tables and structured text rows into one dataset.
// When every fragment has the same width the rows are concatenated.
// When widths differ the fragments are placed side by side instead,
// padded with empty cells to the longest fragment. An all-empty input
// produces an empty dataset; Merge never fails.
func Merge(tables []RawTable, rows []Row) Dataset {
	var fragments []fragment
	for _, t := range tables {
		if f, ok := tableFragment(t); ok {
			fragments = append(fragments, f)
		}
	}
	if len(rows) > 0 {
		fragments = append(fragments, textFragment(rows))
	}
	if len(fragments) == 0 {
		return Dataset{}
	}
	if compatible(fragments) {
		return mergeRows(fragments)
	}
	return mergeColumns(fragments)
}

// tableFragment normalizes a raw table into a rectangular fragment with
// generic column names. Ragged rows are padded to the widest row.
func tableFragment(t RawTable) (fragment, bool) {
	width := 0
	for _, row := range t {
		if len(row) > width {
			width = len(row)
		}
	}
	if width == 0 {
		return fragment{}, false
	}

	columns := make([]string, width)
	for i := range columns {
		columns[i] = fmt.Sprintf("Column %d", i+1)
	}

	padded := make([][]string, 0, len(t))
	for _, row := range t {
		cells := make([]string, width)
		copy(cells, row)
		padded = append(padded, cells)
	}
	return fragment{columns: columns, rows: padded}, true
}

func textFragment(rows []Row) fragment {
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, []string{r.Source, r.Field, r.Value})
	}
	return fragment{columns: textColumns, rows: cells}
}

// compatible reports whether every fragment has the same column count.
func compatible(fragments []fragment) bool {
	width := len(fragments[0].columns)
	for _, f := range fragments[1:] {
		if len(f.columns) != width {
			return false
		}
	}
	return true
}

// mergeRows concatenates fragment rows under the first fragment's
// column names.
func mergeRows(fragments []fragment) Dataset {
	ds := Dataset{Columns: fragments[0].columns}
	for _, f := range fragments {
		ds.Rows = append(ds.Rows, f.rows...)
	}
	return ds
}

// mergeColumns places fragments side by side. The dataset has as many
// rows as the longest fragment; shorter fragments are padded with empty
// cells.
func mergeColumns(fragments []fragment) Dataset {
	var ds Dataset
	height := 0
	for _, f := range fragments {
		ds.Columns = append(ds.Columns, f.columns...)
		if len(f.rows) > height {
			height = len(f.rows)
		}
	}

	ds.Rows = make([][]string, height)
	for i := range ds.Rows {
		for _, f := range fragments {
			cells := make([]string, len(f.columns))
			if i < len(f.rows) {
				copy(cells, f.rows[i])
			}
			ds.Rows[i] = append(ds.Rows[i], cells...)
		}
	}
	return ds
}
