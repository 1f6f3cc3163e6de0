package storage

import (
	"encoding/csv"
	"fmt"
	"io"

	"housing-explorer/models"
)

// WriteCSV writes a view as CSV: the header row, then every row of the view.
func WriteCSV(w io.Writer, v models.View) error {
	writer := csv.NewWriter(w)

	cols := v.Columns()
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for i := 0; i < v.Len(); i++ {
		if err := writer.Write(models.Row(v, i)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
