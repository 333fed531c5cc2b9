package extract

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParseQueries(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple", "a,b,c", []string{"a", "b", "c"}},
		{"whitespace", " ai video , free ai video ", []string{"ai video", "free ai video"}},
		{"empty entries", "a,,b,", []string{"a", "b"}},
		{"empty string", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseQueries(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseQueries(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadQueriesText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")
	content := "ai video generator\n\n  free ai video generator  \nbest ai video generator\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := LoadQueries(path)
	if err != nil {
		t.Fatalf("LoadQueries failed: %v", err)
	}
	want := []string{"ai video generator", "free ai video generator", "best ai video generator"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadQueries = %v, want %v", got, want)
	}
}

func TestLoadQueriesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.csv")
	content := "Top queries,Clicks,Impressions\nai video generator,120,4000\nfree ai video generator,80,2500\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := LoadQueries(path)
	if err != nil {
		t.Fatalf("LoadQueries failed: %v", err)
	}
	want := []string{"ai video generator", "free ai video generator"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadQueries = %v, want %v", got, want)
	}
}

func TestLoadQueriesExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Query"},
		{"ai video generator"},
		{""},
		{"best ai video generator"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save xlsx: %v", err)
	}

	got, err := LoadQueries(path)
	if err != nil {
		t.Fatalf("LoadQueries failed: %v", err)
	}
	want := []string{"ai video generator", "best ai video generator"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadQueries = %v, want %v", got, want)
	}
}

func TestLoadQueriesMissingFile(t *testing.T) {
	if _, err := LoadQueries("/nonexistent/queries.txt"); err == nil {
		t.Error("LoadQueries of missing file should fail")
	}
}
