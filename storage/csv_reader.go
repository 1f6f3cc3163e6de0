package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"housing-explorer/models"
)

// LoadError reports that a dataset could not be turned into a table: the file
// is missing or unreadable, or its contents are not a well-formed CSV table.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ReadCSV reads the delimited file at path into a Table. Any failure is
// returned as a *LoadError and no partial table is produced.
func ReadCSV(path string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	table, err := ParseCSV(f)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return table, nil
}

// ParseCSV reads a header row followed by data rows. Every row must have as
// many fields as the header. Column kinds are inferred from the values; a
// column without any values takes its declared listing kind.
func ParseCSV(r io.Reader) (*models.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 0
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	names, err := headerNames(header)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row: %w", err)
		}
		rows = append(rows, record)
	}

	columns := make([]models.Column, len(names))
	for i, name := range names {
		columns[i] = models.Column{Name: name, Kind: inferKind(name, rows, i)}
	}

	return models.NewTable(columns, rows), nil
}

func headerNames(header []string) ([]string, error) {
	names := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		name := strings.TrimSpace(h)
		if name == "" {
			return nil, fmt.Errorf("csv: header column %d is empty", i+1)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("csv: duplicate header column %q", name)
		}
		seen[name] = struct{}{}
		names[i] = name
	}
	return names, nil
}

// inferKind treats a column as numeric when every present value parses as a
// number.
func inferKind(name string, rows [][]string, col int) models.Kind {
	present := 0
	for _, row := range rows {
		v := row[col]
		if models.IsMissing(v) {
			continue
		}
		present++
		if _, ok := models.ParseNumber(v); !ok {
			return models.KindCategorical
		}
	}
	if present == 0 {
		kind, _ := models.DeclaredKind(name)
		return kind
	}
	return models.KindNumeric
}
