package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

type excelAdapter struct{}

// Extract reads the first worksheet of an Excel workbook into a tabular
// payload. The first row supplies headers.
func (excelAdapter) Extract(ctx context.Context, path string) (*Payload, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	sheet := book.GetSheetName(0)
	if sheet == "" {
		return &Payload{Kind: KindTabular}, nil
	}

	raw, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read worksheet %q: %w", sheet, err)
	}
	if len(raw) == 0 {
		return &Payload{Kind: KindTabular}, nil
	}

	headers := make([]string, len(raw[0]))
	for i, h := range raw[0] {
		headers[i] = strings.TrimSpace(h)
	}

	var rows []map[string]string
	for _, record := range raw[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if header == "" {
				continue
			}
			if i < len(record) {
				row[header] = record[i]
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}

	return &Payload{Kind: KindTabular, Headers: headers, Rows: rows}, nil
}
