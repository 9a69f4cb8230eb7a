// Package logstore discovers the Parquet log files behind the logs view.
package logstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
)

// Pattern is the file pattern, relative to the base directory, that the logs
// view reads.
const Pattern = "**/*.parquet"

// File is one Parquet file under the base directory.
type File struct {
	Path       string            `json:"path"`
	RelPath    string            `json:"rel_path"`
	Size       int64             `json:"size"`
	ModTime    time.Time         `json:"mod_time"`
	Partitions map[string]string `json:"partitions,omitempty"`
}

// Discover lists every Parquet file under baseDir, sorted by relative path.
// A missing base directory yields no files and no error.
func Discover(baseDir string) ([]File, error) {
	info, err := os.Stat(baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat base dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("base dir %q is not a directory", baseDir)
	}

	fsys := os.DirFS(baseDir)
	var files []File
	err = doublestar.GlobWalk(fsys, Pattern, func(rel string, d fs.DirEntry) error {
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, File{
			Path:       filepath.Join(baseDir, filepath.FromSlash(rel)),
			RelPath:    rel,
			Size:       fi.Size(),
			ModTime:    fi.ModTime(),
			Partitions: ParsePartitions(rel),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover parquet files: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// ParsePartitions extracts hive key=value segments from a slash-separated
// relative path, e.g. year=2025/month=01/logs.parquet.
func ParsePartitions(rel string) map[string]string {
	dir := path.Dir(filepath.ToSlash(rel))
	if dir == "." || dir == "/" {
		return nil
	}
	var partitions map[string]string
	for _, segment := range strings.Split(dir, "/") {
		key, value, ok := strings.Cut(segment, "=")
		if !ok || key == "" {
			continue
		}
		if partitions == nil {
			partitions = make(map[string]string)
		}
		partitions[key] = value
	}
	return partitions
}

// PartitionKeys returns the sorted set of partition keys seen across files.
func PartitionKeys(files []File) []string {
	seen := make(map[string]struct{})
	for _, f := range files {
		for k := range f.Partitions {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TotalSize sums file sizes in bytes.
func TotalSize(files []File) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}

// HumanSize formats a byte count for display (e.g. "1.2 MB").
func HumanSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.Bytes(uint64(bytes))
}
