package files

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"metaorder/internal/errors"
)

// Archive gives access to instrument files packed in a tar archive.
// Members are extracted one at a time into extractDir. The archive is
// scanned once; extraction seeks straight to the member's data.
type Archive struct {
	path       string
	extractDir string
	logger     *slog.Logger

	mu      sync.Mutex
	members []member
	listed  bool
}

// member locates the data of one regular file inside the archive
type member struct {
	name   string
	offset int64
	size   int64
}

// NewArchive creates an archive reader
func NewArchive(path, extractDir string, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{
		path:       path,
		extractDir: extractDir,
		logger:     logger.With("component", "archive"),
	}
}

// Path returns the archive location
func (a *Archive) Path() string {
	return a.path
}

// ListMembers returns the names of all regular files in the archive
func (a *Archive) ListMembers() ([]string, error) {
	index, err := a.index(context.Background())
	if err != nil {
		return nil, err
	}
	names := make([]string, len(index))
	for i, m := range index {
		names[i] = m.name
	}
	return names, nil
}

// index scans the archive on first use and caches member locations.
// A failed scan is retried on the next call.
func (a *Archive) index(ctx context.Context) ([]member, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.listed {
		return a.members, nil
	}

	var members []member
	err := a.walk(ctx, func(hdr *tar.Header, offset int64) error {
		members = append(members, member{name: hdr.Name, offset: offset, size: hdr.Size})
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.members = members
	a.listed = true
	a.logger.DebugContext(ctx, "Indexed archive",
		slog.String("archive", a.path),
		slog.Int("members", len(members)))
	return members, nil
}

// Instruments lists instrument names of all trade file members, sorted
func (a *Archive) Instruments() ([]string, error) {
	members, err := a.ListMembers()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var instruments []string
	for _, m := range members {
		if _, ok := memberFormat(m); !ok {
			continue
		}
		name := InstrumentName(m)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		instruments = append(instruments, name)
	}
	sort.Strings(instruments)
	return instruments, nil
}

// ExtractInstrument extracts the trade file of one instrument, preferring
// parquet over csv.gz over csv, and returns its path and format
func (a *Archive) ExtractInstrument(ctx context.Context, instrument string) (string, Format, error) {
	members, err := a.ListMembers()
	if err != nil {
		return "", "", err
	}

	for _, format := range formatPreference {
		want := instrument + format.Extension()
		for _, m := range members {
			if filepath.Base(m) == want {
				path, err := a.ExtractMember(ctx, m)
				return path, format, err
			}
		}
	}

	return "", "", errors.NewNotFoundError(fmt.Sprintf("instrument %s in archive %s", instrument, a.path))
}

// ExtractMember copies one archive member into the extraction directory and
// returns the extracted path. Only the base name of the member is used.
func (a *Archive) ExtractMember(ctx context.Context, name string) (string, error) {
	index, err := a.index(ctx)
	if err != nil {
		return "", err
	}

	var target *member
	for i := range index {
		if index[i].name == name {
			target = &index[i]
			break
		}
	}
	if target == nil {
		return "", errors.NewNotFoundError(fmt.Sprintf("member %s in archive %s", name, a.path))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(a.extractDir, 0755); err != nil {
		return "", errors.NewStorageError("failed to create extract directory", err)
	}

	file, err := os.Open(a.path)
	if err != nil {
		return "", errors.NewStorageError(fmt.Sprintf("failed to open archive %s", a.path), err)
	}
	defer file.Close()

	dst := filepath.Join(a.extractDir, filepath.Base(name))
	data := io.NewSectionReader(file, target.offset, target.size)
	if err := writeAtomically(dst, data); err != nil {
		return "", err
	}

	a.logger.DebugContext(ctx, "Extracted archive member",
		slog.String("member", name),
		slog.String("path", dst))
	return dst, nil
}

// Cleanup removes one extracted file
func (a *Archive) Cleanup(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError(fmt.Sprintf("failed to remove %s", path), err)
	}
	return nil
}

// CleanExtracts removes everything in the extraction directory
func (a *Archive) CleanExtracts() error {
	entries, err := os.ReadDir(a.extractDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.NewStorageError("failed to read extract directory", err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(a.extractDir, entry.Name())); err != nil {
			return errors.NewStorageError("failed to clean extract directory", err)
		}
	}
	return nil
}

// walk calls fn for each regular file with the offset of its data
func (a *Archive) walk(ctx context.Context, fn func(hdr *tar.Header, offset int64) error) error {
	file, err := os.Open(a.path)
	if err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to open archive %s", a.path), err)
	}
	defer file.Close()

	tr := tar.NewReader(file)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.NewParsingError(fmt.Sprintf("failed to read archive %s", a.path), err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		// the reader leaves the file positioned at the start of the entry's data
		offset, err := file.Seek(0, io.SeekCurrent)
		if err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to read archive %s", a.path), err)
		}
		if err := fn(hdr, offset); err != nil {
			return err
		}
	}
}

func memberFormat(name string) (Format, bool) {
	lower := strings.ToLower(name)
	for _, format := range formatPreference {
		if strings.HasSuffix(lower, format.Extension()) {
			return format, true
		}
	}
	return "", false
}

// writeAtomically streams r into a temporary file next to dst and renames it
func writeAtomically(dst string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return errors.NewStorageError("failed to create temporary file", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewStorageError(fmt.Sprintf("failed to extract %s", dst), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewStorageError(fmt.Sprintf("failed to extract %s", dst), err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return errors.NewStorageError(fmt.Sprintf("failed to extract %s", dst), err)
	}
	return nil
}
