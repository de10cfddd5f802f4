// Package report writes the per-run outcome table and summarizes it.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/internal/sheet"
	"github.com/teranos/harvest/logger"
)

// Columns of a report, in order.
const (
	ColumnContractID = "Contract_ID"
	ColumnStatus     = "Status"
	ColumnDuration   = "Duration"
	ColumnFilePath   = "File_Path"
)

// Header is the report header row.
var Header = []string{ColumnContractID, ColumnStatus, ColumnDuration, ColumnFilePath}

var widths = []float64{24, 28, 12, 80}

// FileName returns the report name for a run finishing at now.
func FileName(now time.Time, format sheet.Format) string {
	return fmt.Sprintf("report_%s.%s", now.Format("20060102_150405"), format)
}

// Save writes outcomes to a new report in dir and returns its path. An
// existing report is never appended to or overwritten: a numeric suffix is
// added to the name instead.
func Save(dir string, outcomes []contract.Outcome, format sheet.Format, now time.Time) (string, error) {
	if format == "" {
		format = sheet.XLSX
	}
	if format != sheet.XLSX && format != sheet.CSV {
		return "", errors.WithHint(errors.Newf("unsupported report format %q", format),
			"report.format must be xlsx or csv")
	}

	path, err := freePath(dir, FileName(now, format))
	if err != nil {
		return "", err
	}

	rows := make([][]interface{}, 0, len(outcomes))
	for _, o := range outcomes {
		var duration interface{} = o.Seconds()
		if format == sheet.CSV {
			duration = strconv.FormatFloat(o.Seconds(), 'f', 2, 64)
		}
		rows = append(rows, []interface{}{o.ID.String(), o.Status.String(), duration, o.FilePath})
	}

	if err := sheet.Write(path, Header, rows, widths...); err != nil {
		return "", errors.Wrapf(err, "failed to save report with %d outcomes", len(outcomes))
	}
	logger.Infow("Report saved", logger.FieldPath, path, logger.FieldCount, len(outcomes))
	return path, nil
}

func freePath(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	path := filepath.Join(dir, name)
	for n := 1; ; n++ {
		_, err := os.Stat(path)
		if os.IsNotExist(err) {
			return path, nil
		}
		if err != nil {
			return "", errors.Wrapf(err, "failed to check %s", path)
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, n, ext))
	}
}

// Load reads a report written by Save back into outcomes.
func Load(path string) ([]contract.Outcome, error) {
	table, err := sheet.Read(path)
	if err != nil {
		return nil, err
	}

	cols := make(map[string]int, len(Header))
	for _, name := range Header {
		idx := table.Column(name)
		if idx < 0 {
			return nil, errors.WithHintf(
				errors.Wrapf(errors.ErrColumnMissing, "column %q in %s", name, path),
				"a report has the columns %s", strings.Join(Header, ", "))
		}
		cols[name] = idx
	}

	cell := func(row []string, name string) string {
		if i := cols[name]; i < len(row) {
			return row[i]
		}
		return ""
	}

	outcomes := make([]contract.Outcome, 0, len(table.Rows))
	for i, row := range table.Rows {
		id := cell(row, ColumnContractID)
		if id == "" {
			continue
		}
		status, err := contract.ParseStatus(cell(row, ColumnStatus))
		if err != nil {
			return nil, errors.Wrapf(err, "%s row %d", path, i+2)
		}
		var d time.Duration
		if raw := strings.TrimSpace(cell(row, ColumnDuration)); raw != "" {
			secs, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "%s row %d: invalid duration %q", path, i+2, raw)
			}
			d = time.Duration(secs * float64(time.Second))
		}
		outcomes = append(outcomes, contract.NewOutcome(contract.ID(id), status, d, cell(row, ColumnFilePath)))
	}
	return outcomes, nil
}
