package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"metaorder/internal/errors"
)

// Format identifies how a trade file is encoded
type Format string

const (
	FormatParquet Format = "parquet"
	FormatCSVGzip Format = "csv.gz"
	FormatCSV     Format = "csv"
)

// Extension returns the file suffix of the format, including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// formatPreference lists the formats tried for an instrument folder, best first
var formatPreference = []Format{FormatParquet, FormatCSVGzip, FormatCSV}

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Discovery finds instruments and their trade files below a base path
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if dir == "" {
		return d.basePath
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindInstruments lists instrument names, one per sub-directory of the
// base path, in lexical order
func (d *Discovery) FindInstruments() ([]string, error) {
	dirs, err := d.ListDirectories("")
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if strings.HasPrefix(dir.Name, ".") {
			continue
		}
		names = append(names, dir.Name)
	}
	sort.Strings(names)
	return names, nil
}

// FindTradeFiles returns the trade files of one instrument folder. Only the
// best available format is used: all parquet files if any, else all csv.gz
// files, else all csv files. Files are sorted by name.
func (d *Discovery) FindTradeFiles(dir string) ([]FileInfo, Format, error) {
	fullPath := d.resolve(dir)

	for _, format := range formatPreference {
		files, err := d.FindFilesBySuffix(fullPath, format.Extension())
		if err != nil {
			return nil, "", err
		}
		if len(files) > 0 {
			return files, format, nil
		}
	}

	return nil, "", errors.NewNotFoundError(fmt.Sprintf("trade files in %s", fullPath))
}

// FindFilesBySuffix finds regular files whose name ends with suffix
// (case-insensitive), sorted by name
func (d *Discovery) FindFilesBySuffix(dir, suffix string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	suffix = strings.ToLower(suffix)
	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(strings.ToLower(name), suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// ListDirectories lists all subdirectories in the specified directory
func (d *Discovery) ListDirectories(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var dirs []FileInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		dirs = append(dirs, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			ModTime: info.ModTime(),
			IsDir:   true,
		})
	}

	return dirs, nil
}

// InstrumentName strips the trade file suffix from a file name
func InstrumentName(fileName string) string {
	base := filepath.Base(fileName)
	lower := strings.ToLower(base)
	for _, format := range formatPreference {
		if strings.HasSuffix(lower, format.Extension()) {
			return base[:len(base)-len(format.Extension())]
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
