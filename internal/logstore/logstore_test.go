package logstore

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, base, rel string, size int) {
	t.Helper()
	path := filepath.Join(base, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDiscover(t *testing.T) {
	base := t.TempDir()
	touch(t, base, "year=2025/month=01/day=02/logs_b.parquet", 20)
	touch(t, base, "year=2025/month=01/day=01/logs_a.parquet", 10)
	touch(t, base, "top.parquet", 5)
	touch(t, base, "year=2025/notes.txt", 3)

	files, err := Discover(base)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("files = %d, want 3: %+v", len(files), files)
	}

	wantOrder := []string{
		"top.parquet",
		"year=2025/month=01/day=01/logs_a.parquet",
		"year=2025/month=01/day=02/logs_b.parquet",
	}
	for i, want := range wantOrder {
		if files[i].RelPath != want {
			t.Errorf("files[%d] = %q, want %q", i, files[i].RelPath, want)
		}
	}
	if files[1].Size != 10 {
		t.Errorf("size = %d, want 10", files[1].Size)
	}
	if files[1].Path != filepath.Join(base, "year=2025", "month=01", "day=01", "logs_a.parquet") {
		t.Errorf("path = %q", files[1].Path)
	}
	if got := TotalSize(files); got != 35 {
		t.Errorf("TotalSize = %d, want 35", got)
	}
	if got := PartitionKeys(files); !reflect.DeepEqual(got, []string{"day", "month", "year"}) {
		t.Errorf("PartitionKeys = %v", got)
	}
}

func TestDiscoverMissingDir(t *testing.T) {
	files, err := Discover(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("files = %v, want none", files)
	}
}

func TestDiscoverNotADirectory(t *testing.T) {
	base := t.TempDir()
	touch(t, base, "file.parquet", 1)
	if _, err := Discover(filepath.Join(base, "file.parquet")); err == nil {
		t.Error("expected error for non-directory base")
	}
}

func TestParsePartitions(t *testing.T) {
	tests := []struct {
		rel  string
		want map[string]string
	}{
		{"year=2025/month=01/logs.parquet", map[string]string{"year": "2025", "month": "01"}},
		{"host=web1/raw/logs.parquet", map[string]string{"host": "web1"}},
		{"logs.parquet", nil},
		{"raw/logs.parquet", nil},
		{"=bad/logs.parquet", nil},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			got := ParsePartitions(tt.rel)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParsePartitions(%q) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}
}

func TestHumanSize(t *testing.T) {
	if got := HumanSize(0); got != "0 B" {
		t.Errorf("HumanSize(0) = %q", got)
	}
	if got := HumanSize(2_000_000); got != "2.0 MB" {
		t.Errorf("HumanSize(2e6) = %q", got)
	}
}
