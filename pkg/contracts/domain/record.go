package domain

// Record is one row of a dataset: an ordered mapping of column name to
// cell value. Fields that were never set are reported as absent by Get,
// which keeps "missing" distinct from "present but empty".
type Record struct {
	columns []string
	values  map[string]string
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]string)}
}

// RecordFrom builds a record from parallel header and cell slices.
// Cells beyond the header are ignored; missing trailing cells stay unset.
func RecordFrom(header, cells []string) *Record {
	r := NewRecord()
	for i, col := range header {
		if i >= len(cells) {
			break
		}
		r.Set(col, cells[i])
	}
	return r
}

// Set assigns a value, appending the column if it is new.
func (r *Record) Set(column, value string) {
	if _, ok := r.values[column]; !ok {
		r.columns = append(r.columns, column)
	}
	r.values[column] = value
}

// Get returns the value for column and whether it is set.
func (r *Record) Get(column string) (string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Value returns the value for column, or "" when unset.
func (r *Record) Value(column string) string {
	return r.values[column]
}

// Has reports whether column is set.
func (r *Record) Has(column string) bool {
	_, ok := r.values[column]
	return ok
}

// Delete unsets column.
func (r *Record) Delete(column string) {
	if _, ok := r.values[column]; !ok {
		return
	}
	delete(r.values, column)
	for i, c := range r.columns {
		if c == column {
			r.columns = append(r.columns[:i:i], r.columns[i+1:]...)
			break
		}
	}
}

// Columns returns the set columns in insertion order.
func (r *Record) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Len returns the number of set fields.
func (r *Record) Len() int {
	return len(r.columns)
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := &Record{
		columns: make([]string, len(r.columns)),
		values:  make(map[string]string, len(r.values)),
	}
	copy(c.columns, r.columns)
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

// Cells renders the record against a column order; unset fields become "".
func (r *Record) Cells(columns []string) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = r.values[col]
	}
	return out
}

// Dataset is an ordered collection of records with a stable column order.
// It serves both as the normalized form of an export table and as the
// in-memory image of a persisted dataset file.
type Dataset struct {
	Columns []string
	Rows    []*Record
}

// NewDataset creates an empty dataset with the given column order.
func NewDataset(columns ...string) *Dataset {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Dataset{Columns: cols}
}

// Append adds a record and extends the column order with any columns
// the dataset has not seen yet.
func (d *Dataset) Append(r *Record) {
	d.AddColumns(r.Columns()...)
	d.Rows = append(d.Rows, r)
}

// AddColumns appends columns that are not yet part of the dataset.
func (d *Dataset) AddColumns(columns ...string) {
	for _, col := range columns {
		if !d.HasColumn(col) {
			d.Columns = append(d.Columns, col)
		}
	}
}

// HasColumn reports whether column belongs to the dataset.
func (d *Dataset) HasColumn(column string) bool {
	for _, c := range d.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// DropColumn removes a column from the column order and from every row.
func (d *Dataset) DropColumn(column string) {
	for i, c := range d.Columns {
		if c == column {
			d.Columns = append(d.Columns[:i:i], d.Columns[i+1:]...)
			break
		}
	}
	for _, r := range d.Rows {
		r.Delete(column)
	}
}

// SetAll sets column to value on every row, adding the column if needed.
func (d *Dataset) SetAll(column, value string) {
	d.AddColumns(column)
	for _, r := range d.Rows {
		r.Set(column, value)
	}
}

// Filter returns a new dataset holding the rows for which keep returns true.
// Rows are shared with the receiver, not copied.
func (d *Dataset) Filter(keep func(*Record) bool) *Dataset {
	out := NewDataset(d.Columns...)
	for _, r := range d.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	out := NewDataset(d.Columns...)
	out.Rows = make([]*Record, len(d.Rows))
	for i, r := range d.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}
