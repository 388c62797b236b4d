package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"ragpipe/internal/domain"
)

// LoadCSV reads rows from a CSV file and turns the value of the given column
// into one document per row. Rows with an empty column value are skipped.
func LoadCSV(path, column string) ([]domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return parseCSV(f, path, column)
}

func parseCSV(r io.Reader, path, column string) ([]domain.Document, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), column) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("csv is missing required column %q", column)
	}

	var documents []domain.Document
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row+1, err)
		}
		row++
		if col >= len(record) {
			continue
		}
		text := strings.TrimSpace(record[col])
		if text == "" {
			continue
		}
		documents = append(documents, domain.Document{
			ID:      uuid.NewString(),
			Path:    fmt.Sprintf("%s#%d", path, row),
			Content: text,
		})
	}
	if len(documents) == 0 {
		return nil, fmt.Errorf("no rows with a non-empty %q column in %s", column, path)
	}
	return documents, nil
}
