package parser

// Record is one assembled row.
type Record struct {
	// Header is the resolved header, shared by every record of an
	// assembler. It must not be modified.
	Header []string
	// Fields holds the values after column count reconciliation.
	Fields []string
	// Missing is non-nil only under the Sparse strategy when the row was
	// short; Missing[i] marks a padded cell.
	Missing []bool
	// Row is the 1-based row number in the input.
	Row int
	// IsHeader is set on the header row emitted under IncludeHeader.
	IsHeader bool
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.Fields)
}

// Get returns the field at index i, or "" when out of range.
func (r Record) Get(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// IsMissing reports whether the cell at index i was absent from the input
// (Sparse strategy) or lies beyond the record.
func (r Record) IsMissing(i int) bool {
	if i < 0 || i >= len(r.Fields) {
		return true
	}
	return r.Missing != nil && r.Missing[i]
}

// GetByName returns the field under the named column.
func (r Record) GetByName(name string) (string, bool) {
	for i, h := range r.Header {
		if h == name {
			if r.IsMissing(i) {
				return "", false
			}
			return r.Fields[i], true
		}
	}
	return "", false
}

// Map returns the record keyed by column name. Missing cells are left out.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r.Header))
	for i, h := range r.Header {
		if r.IsMissing(i) {
			continue
		}
		m[h] = r.Fields[i]
	}
	return m
}
