package plan

import (
	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/internal/sheet"
)

// IDColumn is the required header of the input sheet.
const IDColumn = "Contract_ID"

// Load reads the ordered identifier list from an .xlsx or .csv input file.
//
// Row order is processing order. Empty cells are skipped; all other values
// are kept exactly as the sheet renders them, duplicates included. A missing
// file wraps errors.ErrNotFound and a sheet without the Contract_ID column
// wraps errors.ErrColumnMissing.
func Load(path string) ([]contract.ID, error) {
	table, err := sheet.Read(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load input")
	}

	col := table.Column(IDColumn)
	if col < 0 {
		return nil, errors.WithHintf(
			errors.Wrapf(errors.ErrColumnMissing, "%s has no %s column", path, IDColumn),
			"the first row of the input sheet must contain a %s header", IDColumn)
	}

	ids := make([]contract.ID, 0, len(table.Rows))
	for _, row := range table.Rows {
		if col >= len(row) || row[col] == "" {
			continue
		}
		ids = append(ids, contract.ID(row[col]))
	}
	return ids, nil
}

// IsPlanningError reports whether err from Load means "nothing to plan"
// rather than an infrastructure failure: the input file or its identifier
// column is missing.
func IsPlanningError(err error) bool {
	return errors.IsAny(err, errors.ErrNotFound, errors.ErrColumnMissing)
}
