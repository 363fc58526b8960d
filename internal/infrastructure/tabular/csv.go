// Package tabular converts uploaded files to tables and tables to downloads.
package tabular

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/kirillkom/parkinsons-screening/internal/core/domain"
)

// CSVDecoder reads comma-separated UTF-8 text with a header row.
// A leading byte order mark is dropped.
type CSVDecoder struct{}

func NewCSVDecoder() CSVDecoder {
	return CSVDecoder{}
}

func (CSVDecoder) Decode(ctx context.Context, r io.Reader) (*domain.Table, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &domain.InputError{Reason: "the file is empty"}
		}
		return nil, &domain.InputError{Reason: "could not read the header row", Err: err}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	table := &domain.Table{Columns: header}
	for {
		if len(table.Rows)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.InputError{Reason: "malformed CSV", Err: err}
		}
		if len(record) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, &domain.InputError{
				Reason: fmt.Sprintf("line %d has %d fields but the header has %d", line, len(record), len(header)),
			}
		}
		for len(record) < len(header) {
			record = append(record, "")
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

// CSVEncoder writes a header row and every data row, without an index column.
type CSVEncoder struct{}

func (CSVEncoder) ContentType() string { return "text/csv; charset=utf-8" }

func (CSVEncoder) Extension() string { return ".csv" }

func (CSVEncoder) Encode(w io.Writer, table *domain.Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := writer.WriteAll(table.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}
