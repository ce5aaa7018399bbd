package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// dayLayout is the suffix of rotated files: alert.log.2006-01-02
const dayLayout = "2006-01-02"

// DailyFile is an append-only log file that rolls over once per calendar day
// and keeps a bounded number of dated backups, or all of them when backups is 0.
// Several processes may share the same file; rotation is serialized through a
// lock file next to it.
type DailyFile struct {
	path    string
	backups int
	now     func() time.Time
	lock    *flock.Flock

	mu   sync.Mutex
	file *os.File
	day  string
}

// OpenDailyFile opens path for appending, rotating it first if it was last written on an earlier day
func OpenDailyFile(path string, backups int) (*DailyFile, error) {
	return openDailyFile(path, backups, time.Now)
}

func openDailyFile(path string, backups int, now func() time.Time) (*DailyFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	d := &DailyFile{
		path:    path,
		backups: backups,
		now:     now,
		lock:    flock.New(path + ".lock"),
	}
	if err := d.open(); err != nil {
		return nil, err
	}
	return d, nil
}

// Write appends p, rolling the file over first when the day has changed
func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return 0, os.ErrClosed
	}

	if d.now().Format(dayLayout) != d.day {
		if err := d.file.Close(); err != nil {
			return 0, fmt.Errorf("failed to close log file: %w", err)
		}
		d.file = nil
		if err := d.open(); err != nil {
			return 0, err
		}
	}

	return d.file.Write(p)
}

// Close closes the underlying file
func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// open rotates a stale file and opens the current one; callers hold d.mu or own d exclusively
func (d *DailyFile) open() error {
	if err := d.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock log file: %w", err)
	}
	defer d.lock.Unlock()

	today := d.now().Format(dayLayout)

	if info, err := os.Stat(d.path); err == nil {
		written := info.ModTime().Format(dayLayout)
		if written < today {
			if err := d.rotate(written); err != nil {
				return err
			}
		}
	}

	file, err := os.OpenFile(d.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", d.path, err)
	}

	d.file = file
	d.day = today
	return nil
}

// rotate renames the live file to its dated backup and prunes old backups
func (d *DailyFile) rotate(day string) error {
	backup := d.path + "." + day
	if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to replace log backup %s: %w", backup, err)
	}
	if err := os.Rename(d.path, backup); err != nil {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}
	return d.prune()
}

// prune keeps the newest d.backups dated files. Zero keeps every backup.
func (d *DailyFile) prune() error {
	if d.backups <= 0 {
		return nil
	}

	backups, err := d.listBackups()
	if err != nil {
		return err
	}
	if len(backups) <= d.backups {
		return nil
	}

	for _, name := range backups[:len(backups)-d.backups] {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove old log backup %s: %w", name, err)
		}
	}
	return nil
}

// listBackups returns dated backups of d.path, oldest first
func (d *DailyFile) listBackups() ([]string, error) {
	dir := filepath.Dir(d.path)
	prefix := filepath.Base(d.path) + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list log directory: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		suffix := strings.TrimPrefix(entry.Name(), prefix)
		if _, err := time.Parse(dayLayout, suffix); err != nil {
			continue
		}
		backups = append(backups, filepath.Join(dir, entry.Name()))
	}

	// Dated suffixes sort chronologically
	sort.Strings(backups)
	return backups, nil
}
