package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/gchung00/daily-qt/internal/archive"
	"github.com/gchung00/daily-qt/internal/sermon"
)

const textExt = ".txt"

// FileArchive keeps one <date>.txt file per sermon under a directory.
type FileArchive struct {
	dir string
}

// NewFileArchive creates a file archive rooted at dir
func NewFileArchive(dir string) *FileArchive {
	return &FileArchive{dir: dir}
}

func (a *FileArchive) path(date string) string {
	return filepath.Join(a.dir, date+textExt)
}

// Get returns the transcript stored at date.
func (a *FileArchive) Get(_ context.Context, date string) (string, error) {
	data, err := os.ReadFile(a.path(date))
	if errors.Is(err, fs.ErrNotExist) {
		return "", archive.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read sermon %s: %w", date, err)
	}
	return string(data), nil
}

// List returns every date, newest first. A missing directory is an empty
// archive.
func (a *FileArchive) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list sermons: %w", err)
	}

	dates := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		date, ok := strings.CutSuffix(e.Name(), textExt)
		if !ok || archive.ValidateDate(date) != nil {
			continue
		}
		dates = append(dates, date)
	}
	slices.Sort(dates)
	slices.Reverse(dates)
	return dates, nil
}

// Put stores text at date. Creation uses O_EXCL so only one of two
// concurrent creates for a date succeeds.
func (a *FileArchive) Put(_ context.Context, date, text string, overwrite bool) error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create archive dir: %w", err)
	}

	if overwrite {
		return writeFileAtomic(a.path(date), []byte(text))
	}

	f, err := os.OpenFile(a.path(date), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return archive.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create sermon %s: %w", date, err)
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("failed to write sermon %s: %w", date, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write sermon %s: %w", date, err)
	}
	return nil
}

// Delete removes the transcript at date.
func (a *FileArchive) Delete(_ context.Context, date string) error {
	err := os.Remove(a.path(date))
	if errors.Is(err, fs.ErrNotExist) {
		return archive.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete sermon %s: %w", date, err)
	}
	return nil
}

// FileIndex keeps the parsed archive as a single JSON array, newest first.
// Every change rewrites the whole file.
type FileIndex struct {
	mu   sync.Mutex
	path string
}

// NewFileIndex creates a file index at path
func NewFileIndex(path string) *FileIndex {
	return &FileIndex{path: path}
}

// ReadAll returns every indexed sermon. A missing file is an empty index.
func (x *FileIndex) ReadAll(_ context.Context) ([]sermon.Parsed, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.read()
}

// Upsert inserts or replaces the entry for p.Date.
func (x *FileIndex) Upsert(_ context.Context, p sermon.Parsed) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	all, err := x.read()
	if err != nil {
		return err
	}
	all = slices.DeleteFunc(all, func(e sermon.Parsed) bool { return e.Date == p.Date })
	return x.write(append(all, p))
}

// Remove drops the entry for date.
func (x *FileIndex) Remove(_ context.Context, date string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	all, err := x.read()
	if err != nil {
		return err
	}
	return x.write(slices.DeleteFunc(all, func(e sermon.Parsed) bool { return e.Date == date }))
}

// Replace swaps the whole index for all.
func (x *FileIndex) Replace(_ context.Context, all []sermon.Parsed) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.write(slices.Clone(all))
}

func (x *FileIndex) read() ([]sermon.Parsed, error) {
	data, err := os.ReadFile(x.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []sermon.Parsed{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sermon index: %w", err)
	}
	var all []sermon.Parsed
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to decode sermon index: %w", err)
	}
	return all, nil
}

func (x *FileIndex) write(all []sermon.Parsed) error {
	slices.SortFunc(all, func(a, b sermon.Parsed) int { return strings.Compare(b.Date, a.Date) })
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sermon index: %w", err)
	}
	return writeFileAtomic(x.path, data)
}

// FileDrafts keeps pending drafts in one JSON object keyed by submitter.
type FileDrafts struct {
	mu   sync.Mutex
	path string
}

// NewFileDrafts creates a file draft store at path
func NewFileDrafts(path string) *FileDrafts {
	return &FileDrafts{path: path}
}

// Get returns the draft of submitterID, if any.
func (d *FileDrafts) Get(_ context.Context, submitterID int64) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	drafts, err := d.read()
	if err != nil {
		return "", false, err
	}
	text, ok := drafts[strconv.FormatInt(submitterID, 10)]
	return text, ok, nil
}

// Put replaces the draft of submitterID.
func (d *FileDrafts) Put(_ context.Context, submitterID int64, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	drafts, err := d.read()
	if err != nil {
		return err
	}
	drafts[strconv.FormatInt(submitterID, 10)] = text
	return d.write(drafts)
}

// Delete discards the draft of submitterID.
func (d *FileDrafts) Delete(_ context.Context, submitterID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	drafts, err := d.read()
	if err != nil {
		return err
	}
	key := strconv.FormatInt(submitterID, 10)
	if _, ok := drafts[key]; !ok {
		return nil
	}
	delete(drafts, key)
	return d.write(drafts)
}

func (d *FileDrafts) read() (map[string]string, error) {
	drafts := make(map[string]string)
	data, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return drafts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read drafts: %w", err)
	}
	if err := json.Unmarshal(data, &drafts); err != nil {
		return nil, fmt.Errorf("failed to decode drafts: %w", err)
	}
	return drafts, nil
}

func (d *FileDrafts) write(drafts map[string]string) error {
	data, err := json.Marshal(drafts)
	if err != nil {
		return fmt.Errorf("failed to encode drafts: %w", err)
	}
	return writeFileAtomic(d.path, data)
}

// writeFileAtomic replaces path through a rename so readers never see a
// partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
