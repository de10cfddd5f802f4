// Package sheet reads and writes the single-table spreadsheets harvest uses
// for input lists and reports. The format follows the file extension:
// .xlsx through excelize, .csv through encoding/csv.
package sheet

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/teranos/harvest/errors"
)

// Format is a supported table file format.
type Format string

const (
	XLSX Format = "xlsx"
	CSV  Format = "csv"
)

// FormatOf returns the format implied by path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return XLSX, nil
	case ".csv":
		return CSV, nil
	default:
		return "", errors.WithHint(
			errors.Newf("unsupported table format %q", filepath.Ext(path)),
			"use a .xlsx or .csv file")
	}
}

// Table is a header row plus data rows. Rows may be shorter than the header
// when trailing cells are empty.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the column named exactly name, or -1.
func (t Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Read loads the first sheet of an xlsx file, or a csv file. The first row is
// the header. A missing file wraps errors.ErrNotFound.
func Read(path string) (Table, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Table{}, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Table{}, errors.NewNotFoundError("table file %s", path)
		}
		return Table{}, errors.Wrapf(err, "failed to stat %s", path)
	}

	var rows [][]string
	switch format {
	case XLSX:
		rows, err = readXLSX(path)
	case CSV:
		rows, err = readCSV(path)
	}
	if err != nil {
		return Table{}, err
	}
	if len(rows) == 0 {
		return Table{}, nil
	}
	return Table{Header: rows[0], Rows: rows[1:]}, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open workbook %s", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read sheet %q of %s", sheets[0], path)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse csv %s", path)
	}
	// Excel-exported csv files often start with a UTF-8 BOM
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\uFEFF")
	}
	return rows, nil
}

// Write creates path (and its directory) holding header and rows. Cells are
// written with their Go types so numbers stay numeric in xlsx. An existing
// file is replaced; callers that must not overwrite pick a fresh name first.
func Write(path string, header []string, rows [][]interface{}, widths ...float64) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}
	switch format {
	case XLSX:
		return writeXLSX(path, header, rows, widths)
	default:
		return writeCSV(path, header, rows)
	}
}

func writeXLSX(path string, header []string, rows [][]interface{}, widths []float64) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Sheet1"
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return errors.Wrap(err, "failed to create stream writer")
	}

	// Column widths must be set before the first row
	for i, w := range widths {
		if err := sw.SetColWidth(i+1, i+1, w); err != nil {
			return errors.Wrapf(err, "failed to set width of column %d", i+1)
		}
	}

	headerCells := make([]interface{}, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	if err := sw.SetRow("A1", headerCells); err != nil {
		return errors.Wrap(err, "failed to write header row")
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrapf(err, "invalid row %d", i+2)
		}
		if err := sw.SetRow(cell, row); err != nil {
			return errors.Wrapf(err, "failed to write row %d", i+2)
		}
	}

	if err := sw.Flush(); err != nil {
		return errors.Wrap(err, "failed to flush workbook")
	}
	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "failed to save workbook %s", path)
	}
	return nil
}

func writeCSV(path string, header []string, rows [][]interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write header to %s", path)
	}
	record := make([]string, len(header))
	for _, row := range rows {
		record = record[:0]
		for _, cell := range row {
			record = append(record, cellString(cell))
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return errors.Wrapf(err, "failed to write row to %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to flush %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", path)
	}
	return nil
}

func cellString(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return fmt.Sprint(c)
	}
}
