// Package tabular models an external worksheet as an ordered sequence of
// string rows with a header-derived column index. All cells are strings;
// numeric or date parsing is the caller's problem.
package tabular

import "strings"

// Sheet is one fetched worksheet. Header holds row 1, Rows holds rows 2..N
// in sheet order. Nothing enforces unique header names or consistent row
// arity; short rows read as empty cells.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Record maps column name to cell value for one data row.
type Record map[string]string

// ColumnIndex returns the position of a header column.
func (s *Sheet) ColumnIndex(name string) (int, bool) {
	for i, h := range s.Header {
		if h == name {
			return i, true
		}
	}
	return 0, false
}

// RequireColumns validates up front that every named column exists, so a
// join fails at its boundary instead of deep inside a row loop.
func (s *Sheet) RequireColumns(names ...string) error {
	for _, name := range names {
		if _, ok := s.ColumnIndex(name); !ok {
			return &NotFoundError{Sheet: s.Name, Column: name}
		}
	}
	return nil
}

// Cell returns the value at a column for the given data row, or "" when the
// row is shorter than the header.
func (s *Sheet) Cell(row []string, col int) string {
	if col < len(row) {
		return row[col]
	}
	return ""
}

// record zips the header with one data row.
func (s *Sheet) record(row []string) Record {
	rec := make(Record, len(s.Header))
	for i, h := range s.Header {
		rec[h] = s.Cell(row, i)
	}
	return rec
}

// RecordList materializes every data row as a Record, preserving row order.
// A header-only sheet yields an empty list.
func RecordList(s *Sheet) []Record {
	recs := make([]Record, 0, len(s.Rows))
	for _, row := range s.Rows {
		recs = append(recs, s.record(row))
	}
	return recs
}

// KeyedRecords indexes every data row by the value of indexColumn. When fold
// is true the stored key is lowercased; duplicate detection runs on the raw
// cell value in scan order, before folding. The first duplicate invalidates
// the whole build.
func KeyedRecords(s *Sheet, indexColumn string, fold bool) (map[string]Record, error) {
	col, ok := s.ColumnIndex(indexColumn)
	if !ok {
		return nil, &NotFoundError{Sheet: s.Name, Column: indexColumn}
	}

	keyed := make(map[string]Record, len(s.Rows))
	seen := make(map[string]bool, len(s.Rows))
	for i, row := range s.Rows {
		raw := s.Cell(row, col)
		if seen[raw] {
			return nil, &NonUniqueKeyError{
				Sheet:  s.Name,
				Column: indexColumn,
				Value:  raw,
				Row:    i + 2,
			}
		}
		seen[raw] = true

		key := raw
		if fold {
			key = strings.ToLower(raw)
		}
		keyed[key] = s.record(row)
	}
	return keyed, nil
}
