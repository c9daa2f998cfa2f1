package export

// Table defines tabular export content with positional rows.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}
