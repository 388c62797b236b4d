package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"ragpipe/internal/domain"
)

// LoadDocuments reads the given paths (glob patterns allowed) into documents.
// Supported formats: .txt (read as-is) and .pdf (plain text extraction).
func LoadDocuments(paths []string) ([]domain.Document, error) {
	var documents []domain.Document
	for _, p := range paths {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", p, err)
		}
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			var content string
			var err error
			switch strings.ToLower(filepath.Ext(m)) {
			case ".txt":
				content, err = readText(m)
			case ".pdf":
				content, err = readPDF(m)
			default:
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("load %s: %w", m, err)
			}
			if strings.TrimSpace(content) == "" {
				continue
			}
			documents = append(documents, domain.Document{
				ID:      uuid.NewString(),
				Path:    m,
				Content: content,
			})
		}
	}
	if len(documents) == 0 {
		return nil, fmt.Errorf("no .txt or .pdf documents found")
	}
	return documents, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func readPDF(path string) (string, error) {
	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	b, err := rdr.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", err
	}
	return buf.String(), nil
}
