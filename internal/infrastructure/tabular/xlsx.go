package tabular

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
)

const xlsxSheet = "Predictions"

// XLSXEncoder writes the table to a single worksheet. Cells that parse as
// numbers are stored as numbers so spreadsheets can compute on them.
type XLSXEncoder struct{}

func (XLSXEncoder) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXEncoder) Extension() string { return ".xlsx" }

func (XLSXEncoder) Encode(w io.Writer, table *domain.Table) (err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", closeErr)
		}
	}()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range table.Rows {
		cells := make([]any, len(row))
		for j, cell := range row {
			cells[j] = xlsxValue(cell)
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(xlsxSheet, axis, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func xlsxValue(cell string) any {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return cell
	}
	if v, err := strconv.ParseFloat(trimmed, 64); err == nil && !isNonFinite(trimmed) {
		return v
	}
	return cell
}

func isNonFinite(s string) bool {
	lower := strings.ToLower(strings.TrimLeft(s, "+-"))
	return strings.HasPrefix(lower, "inf") || lower == "nan"
}
