package kb

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// extractText converts a stored file into plain text for chunking. CSV rows
// become "header: value" lines so tabular knowledge stays queryable.
func extractText(fileType string, data []byte) (string, error) {
	switch fileType {
	case "txt", "md":
		return string(data), nil
	case "csv":
		return extractCSV(data)
	default:
		return "", fmt.Errorf("unsupported file type %q", fileType)
	}
}

func extractCSV(data []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return "", errors.New("csv file is empty or malformed")
	}

	var b strings.Builder
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		var row strings.Builder
		for i, value := range record {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			name := fmt.Sprintf("column%d", i+1)
			if i < len(header) {
				name = strings.TrimSpace(header[i])
			}
			fmt.Fprintf(&row, "%s: %s\n", name, value)
		}
		if row.Len() > 0 {
			b.WriteString(row.String())
			b.WriteString("\n")
		}
	}
	if b.Len() == 0 {
		return "", errors.New("csv file has no data rows")
	}
	return b.String(), nil
}
