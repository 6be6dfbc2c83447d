package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"narrative-backend/internal/models"
)

// ParseError reports a CSV stream that could not be decoded into a
// dataset. Upload handling captures it per file instead of failing
// the whole batch.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("csv parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseCSV decodes a CSV stream into a Dataset. The first row is the
// header; ragged rows are tolerated, with missing trailing fields
// mapped to empty strings and extra fields ignored.
func ParseCSV(r io.Reader) (models.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable fields
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return models.Dataset{}, &ParseError{Err: fmt.Errorf("empty file")}
		}
		return models.Dataset{}, &ParseError{Err: fmt.Errorf("failed to read headers: %v", err)}
	}

	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	var records []models.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.Dataset{}, &ParseError{Err: err}
		}

		rec := make(models.Record, len(headers))
		for i, h := range headers {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		records = append(records, rec)
	}

	return models.Dataset{Columns: headers, Records: records}, nil
}
