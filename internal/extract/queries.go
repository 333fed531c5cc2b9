package extract

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ParseQueries splits a comma-separated query list, trimming whitespace and
// dropping empty entries.
func ParseQueries(s string) []string {
	var queries []string
	for _, q := range strings.Split(s, ",") {
		q = strings.TrimSpace(q)
		if q != "" {
			queries = append(queries, q)
		}
	}
	return queries
}

// LoadQueries reads target queries from a file. Plain text files hold one
// query per line; CSV and Excel files (such as Search Console exports) are
// read from the first column, with a "query"/"queries" header row skipped.
func LoadQueries(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadQueriesCSV(path)
	case ".xlsx":
		return loadQueriesExcel(path)
	default:
		return loadQueriesText(path)
	}
}

func loadQueriesText(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query file: %w", err)
	}
	var queries []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			queries = append(queries, line)
		}
	}
	return queries, nil
}

func loadQueriesCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open query file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	return queriesFromRows(rows), nil
}

func loadQueriesExcel(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets in %s", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return queriesFromRows(rows), nil
}

// queriesFromRows takes the first cell of each row, skipping a header row
// labeled "query"/"queries" and empty cells.
func queriesFromRows(rows [][]string) []string {
	var queries []string
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if cell == "" {
			continue
		}
		if i == 0 {
			switch strings.ToLower(cell) {
			case "query", "queries", "top queries":
				continue
			}
		}
		queries = append(queries, cell)
	}
	return queries
}
