// Package parquettest writes hive-partitioned Parquet log fixtures for tests.
package parquettest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
)

// Row mirrors the column layout of the log files LogIQ browses.
type Row struct {
	FilePath  string `parquet:"file_path"`
	LineNum   int32  `parquet:"line_num"`
	Content   string `parquet:"content"`
	Timestamp string `parquet:"timestamp"`
}

// SeverityRow is a log row that carries its own severity column.
type SeverityRow struct {
	Content   string `parquet:"content"`
	Severity  string `parquet:"severity"`
	Timestamp string `parquet:"timestamp"`
}

// Build encodes rows as a Parquet file.
func Build[T any](rows []T) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[T](buf)
	if _, err := writer.Write(rows); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes rows into baseDir/relPath, creating partition directories.
// It returns the absolute path of the written file.
func Write[T any](t testing.TB, baseDir, relPath string, rows []T) string {
	t.Helper()
	data, err := Build(rows)
	if err != nil {
		t.Fatalf("build parquet: %v", err)
	}
	path := filepath.Join(baseDir, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("create partition dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write parquet: %v", err)
	}
	return path
}

// SampleRows returns a small day of mixed-severity log lines.
func SampleRows(filePath, day string) []Row {
	return []Row{
		{FilePath: filePath, LineNum: 1, Content: "INFO service started", Timestamp: day + " 08:00:00"},
		{FilePath: filePath, LineNum: 2, Content: "WARNING disk usage at 91%", Timestamp: day + " 09:30:00"},
		{FilePath: filePath, LineNum: 3, Content: "ERROR connection refused", Timestamp: day + " 10:15:00"},
		{FilePath: filePath, LineNum: 4, Content: "CRITICAL ERROR data loss", Timestamp: day + " 11:45:00"},
		{FilePath: filePath, LineNum: 5, Content: "cache warmed", Timestamp: day + " 12:00:00"},
	}
}
