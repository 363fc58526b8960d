package domain

// Table is an uploaded tabular dataset: an ordered header and row-major cells.
// Every row has exactly len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of the first column named name.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, col := range t.Columns {
		if col == name {
			return i, true
		}
	}
	return -1, false
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// Clone deep-copies the table so callers can append columns without touching the upload.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

// FeatureManifest is the ordered list of feature names the classifier was trained on.
type FeatureManifest []string

func (m FeatureManifest) Names() []string {
	return append([]string(nil), m...)
}
