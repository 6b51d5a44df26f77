package ingestion

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

const propertyColumnPrefix = "prop."

type tableData struct {
	name    string
	headers []string
	rows    []tableRow
}

type tableRow struct {
	number int
	values map[string]string
	props  map[string]string
}

func (r tableRow) get(column string) string {
	return strings.TrimSpace(r.values[column])
}

func parseCSV(payload []byte) (tableData, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read csv: %w", err)
	}
	return normalizeTable(sheetDatasets, records)
}

// parseExcel returns one table per sheet, keyed by normalized sheet name.
func parseExcel(payload []byte) ([]tableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}

	tables := make([]tableData, 0, len(sheets))
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		table, err := normalizeTable(normalizeHeader(sheet), rows)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		tables = append(tables, table)
	}
	return tables, nil
}

// normalizeTable treats the first non-empty record as the header row.
func normalizeTable(name string, records [][]string) (tableData, error) {
	if len(records) == 0 {
		return tableData{}, errors.New("no rows found in file")
	}

	var headers []string
	var rows []tableRow
	for idx, record := range records {
		if isEmptyRow(record) {
			continue
		}
		if headers == nil {
			headers = make([]string, len(record))
			for i, cell := range record {
				headers[i] = normalizeHeader(cell)
			}
			continue
		}

		row := tableRow{number: idx + 1, values: map[string]string{}, props: map[string]string{}}
		for i, header := range headers {
			if header == "" || i >= len(record) {
				continue
			}
			if key, ok := strings.CutPrefix(header, propertyColumnPrefix); ok {
				if value := strings.TrimSpace(record[i]); value != "" {
					row.props[key] = value
				}
				continue
			}
			row.values[header] = record[i]
		}
		rows = append(rows, row)
	}

	if headers == nil {
		return tableData{}, errors.New("header row could not be detected")
	}
	return tableData{name: name, headers: headers, rows: rows}, nil
}

// normalizeHeader lowercases and snake-cases a header. Custom property
// columns keep their key verbatim after the prefix.
func normalizeHeader(raw string) string {
	name := strings.TrimSpace(raw)
	if len(name) > len(propertyColumnPrefix) && strings.EqualFold(name[:len(propertyColumnPrefix)], propertyColumnPrefix) {
		return propertyColumnPrefix + strings.TrimSpace(name[len(propertyColumnPrefix):])
	}
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	return strings.Trim(name, "_")
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// splitList splits a list cell on commas or semicolons.
func splitList(cell string) []string {
	fields := strings.FieldsFunc(cell, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if value := strings.TrimSpace(field); value != "" {
			out = append(out, value)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func optionalString(cell string) *string {
	value := strings.TrimSpace(cell)
	if value == "" {
		return nil
	}
	return &value
}
