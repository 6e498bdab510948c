// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"regexp"
	"strings"
)

// HeaderScanLimit bounds how many lines are searched for the header row.
const HeaderScanLimit = 50

var separatorRow = regexp.MustCompile(`^[-=_]+$`)

// Column declares one named column of a report layout.
type Column struct {
	Name     string
	Required bool
}

// Layout describes the shape of one vendor report.
type Layout struct {
	// Report names the layout in errors and logs.
	Report string

	// HeaderMarker identifies the header row: some cell contains it,
	// case-insensitively.
	HeaderMarker string

	// Columns lists every column the importer reads by name.
	Columns []Column

	// FooterMarkers end processing when the first cell contains one of
	// them, case-insensitively.
	FooterMarkers []string

	// DecorativeRows is how many decorative rows directly after the header
	// may be skipped.
	DecorativeRows int

	// StopOnBlankFirstCell ends processing at the first row whose first
	// cell is empty.
	StopOnBlankFirstCell bool
}

// Header maps normalized column names to positions.
type Header struct {
	names []string
	index map[string]int
}

func newHeader(cells []string) *Header {
	h := &Header{names: make([]string, len(cells)), index: make(map[string]int, len(cells))}
	for i, c := range cells {
		name := strings.TrimSpace(c)
		h.names[i] = name
		key := normalizeName(name)
		if key == "" {
			continue
		}
		if _, dup := h.index[key]; !dup {
			h.index[key] = i
		}
	}
	return h
}

// Index returns the position of name.
func (h *Header) Index(name string) (int, bool) {
	i, ok := h.index[normalizeName(name)]
	return i, ok
}

// Names returns the trimmed header cells in file order.
func (h *Header) Names() []string {
	return append([]string(nil), h.names...)
}

func normalizeName(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// Row is one data row bound to the layout that produced it.
type Row struct {
	Line   int
	Cells  []string
	reader *Reader
}

// At returns the trimmed cell at position i, or "" past the end.
func (r Row) At(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i]
}

// First returns the first cell.
func (r Row) First() string { return r.At(0) }

// Required returns the value of a required column. A blank value yields a
// *ValidationError. Reading a column the layout does not declare returns
// ErrUndeclaredColumn.
func (r Row) Required(name string) (string, error) {
	i, err := r.reader.position(name)
	if err != nil {
		return "", err
	}
	v := r.At(i)
	if v == "" {
		return "", &ValidationError{Line: r.Line, Field: name, Reason: ReasonMissingField}
	}
	return v, nil
}

// Optional returns the value of an optional column, or "" when the file
// does not carry it.
func (r Row) Optional(name string) string {
	i, err := r.reader.position(name)
	if err != nil {
		return ""
	}
	return r.At(i)
}

// Reader yields data rows of a vendor report. It locates the header by
// marker, validates required columns, and stops at footer rows.
type Reader struct {
	csv       *csv.Reader
	layout    Layout
	header    *Header
	declared  map[string]int
	pending   *Row
	line      int
	done      bool
	rowsRead  int
	decorated int
}

// NewReader scans for the header and prepares the reader. It fails with a
// *FormatError when the header is missing or required columns are absent,
// and an *IOError when the stream cannot be read.
func NewReader(src io.Reader, layout Layout) (*Reader, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	r := &Reader{csv: cr, layout: layout}

	if err := r.findHeader(); err != nil {
		return nil, err
	}
	if err := r.bindColumns(); err != nil {
		return nil, err
	}
	if err := r.skipDecorative(); err != nil {
		return nil, err
	}
	return r, nil
}

// Header returns the parsed header.
func (r *Reader) Header() *Header { return r.header }

// DecorativeSkipped returns how many rows after the header were skipped as
// decoration.
func (r *Reader) DecorativeSkipped() int { return r.decorated }

// RowsRead returns how many data rows Next has returned.
func (r *Reader) RowsRead() int { return r.rowsRead }

// Next returns the next data row, or io.EOF at a footer or end of input.
func (r *Reader) Next() (Row, error) {
	if r.pending != nil {
		row := *r.pending
		r.pending = nil
		r.rowsRead++
		return row, nil
	}
	for !r.done {
		cells, err := r.read()
		if err != nil {
			return Row{}, err
		}
		if cells == nil {
			r.done = true
			break
		}

		first := firstCell(cells)
		if separatorRow.MatchString(first) {
			continue
		}
		if r.isFooter(first) {
			r.done = true
			break
		}
		if r.layout.StopOnBlankFirstCell && first == "" {
			r.done = true
			break
		}
		if blank(cells) {
			continue
		}

		r.rowsRead++
		return Row{Line: r.line, Cells: cells, reader: r}, nil
	}
	return Row{}, io.EOF
}

func (r *Reader) findHeader() error {
	marker := strings.ToUpper(r.layout.HeaderMarker)
	for scanned := 0; scanned < HeaderScanLimit; scanned++ {
		cells, err := r.read()
		if err != nil {
			return err
		}
		if cells == nil {
			break
		}
		for _, c := range cells {
			if strings.Contains(strings.ToUpper(c), marker) {
				r.header = newHeader(cells)
				return nil
			}
		}
	}
	return &FormatError{Report: r.layout.Report, Err: ErrHeaderNotFound}
}

func (r *Reader) bindColumns() error {
	r.declared = make(map[string]int, len(r.layout.Columns))
	var missing []string
	for _, col := range r.layout.Columns {
		i, ok := r.header.Index(col.Name)
		if !ok {
			if col.Required {
				missing = append(missing, col.Name)
			}
			continue
		}
		r.declared[normalizeName(col.Name)] = i
	}
	if len(missing) > 0 {
		return &FormatError{Report: r.layout.Report, Missing: missing, Err: ErrMissingColumns}
	}
	return nil
}

// skipDecorative drops up to DecorativeRows rows after the header. The
// first real row is buffered so Next still returns it.
func (r *Reader) skipDecorative() error {
	for r.decorated < r.layout.DecorativeRows {
		cells, err := r.read()
		if err != nil {
			return err
		}
		if cells == nil {
			r.done = true
			return nil
		}
		first := firstCell(cells)
		if first == "" || separatorRow.MatchString(first) {
			r.decorated++
			continue
		}
		if r.isFooter(first) {
			r.done = true
			return nil
		}
		r.pending = &Row{Line: r.line, Cells: cells, reader: r}
		return nil
	}
	return nil
}

func (r *Reader) position(name string) (int, error) {
	i, ok := r.declared[normalizeName(name)]
	if ok {
		return i, nil
	}
	for _, col := range r.layout.Columns {
		if normalizeName(col.Name) == normalizeName(name) {
			// Declared but absent from this file.
			return -1, nil
		}
	}
	return -1, ErrUndeclaredColumn
}

func (r *Reader) isFooter(first string) bool {
	if first == "" {
		return false
	}
	upper := strings.ToUpper(first)
	for _, m := range r.layout.FooterMarkers {
		if strings.Contains(upper, strings.ToUpper(m)) {
			return true
		}
	}
	return false
}

// read returns the next trimmed record, nil at end of input.
func (r *Reader) read() ([]string, error) {
	rec, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) && errors.Is(pe.Err, csv.ErrFieldCount) {
			// FieldsPerRecord is -1, so this cannot happen; keep the row.
			return rec, nil
		}
		return nil, &IOError{Op: "read " + r.layout.Report, Err: err}
	}
	line, _ := r.csv.FieldPos(0)
	r.line = line
	cells := make([]string, len(rec))
	for i, c := range rec {
		if i == 0 {
			c = strings.TrimPrefix(c, "\ufeff")
		}
		cells[i] = strings.TrimSpace(c)
	}
	return cells, nil
}

func firstCell(cells []string) string {
	if len(cells) == 0 {
		return ""
	}
	return cells[0]
}

func blank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
