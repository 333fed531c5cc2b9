package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestResolveQueries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queries.txt")
	if err := os.WriteFile(path, []byte("from file one\nfrom file two\n"), 0600); err != nil {
		t.Fatalf("write query file: %v", err)
	}

	tests := []struct {
		name    string
		flag    string
		file    string
		want    []string
		wantErr bool
	}{
		{"flag only", "a, b", "", []string{"a", "b"}, false},
		{"file only", "", path, []string{"from file one", "from file two"}, false},
		{"flag and file", "a", path, []string{"a", "from file one", "from file two"}, false},
		{"missing file", "", "/nonexistent/queries.txt", nil, true},
		{"neither", "", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveQueries(tt.flag, tt.file)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("resolveQueries = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadConfigPrefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	content := "debug: true\nembedding:\n  provider: mock\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWd) })

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if !cfg.Debug {
		t.Error("cwd config should be loaded")
	}
	if filepath.Base(resolved) != "config.yaml" || filepath.Dir(resolved) == filepath.Dir(defaultConfigPath) {
		t.Errorf("resolved path = %s, want cwd config", resolved)
	}
}

func TestLoadConfigUsesExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Server.Port)
	}
	if resolved != path {
		t.Errorf("resolved = %s, want %s", resolved, path)
	}
}
