package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// DefaultMaxSize is the rotation threshold used when none is configured.
const DefaultMaxSize int64 = 10 * 1024 * 1024

// backupStamp is inserted before the extension of rotated files, so
// lexical order of backups is also chronological.
const backupStamp = "2006-01-02-150405.000"

// RotationConfig controls when the log file is rotated and how many
// rotated files are kept. Zero MaxAge or MaxBackups disables that limit.
type RotationConfig struct {
	MaxSize    int64 // bytes; zero means DefaultMaxSize
	MaxAge     int   // days
	MaxBackups int
	Daily      bool
}

// DefaultRotationConfig matches the defaults written to new config files.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{MaxSize: DefaultMaxSize, MaxAge: 30, MaxBackups: 5, Daily: true}
}

// ParseMaxSize parses a human size such as "10MB" or "1GiB".
// Empty, zero or unparseable values give DefaultMaxSize.
func ParseMaxSize(s string) int64 {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil || n == 0 {
		return DefaultMaxSize
	}
	return int64(n)
}

// RotatingWriter appends to a log file under an advisory lock, moving the
// file aside when it would exceed MaxSize or, with Daily, when the date changes.
type RotatingWriter struct {
	mu   sync.Mutex
	path string
	cfg  RotationConfig
	file *os.File
	size int64
	day  string // date of the data in file
}

// NewRotatingWriter opens path for appending, creating parent directories,
// and prunes old backups.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	w := &RotatingWriter{path: path, cfg: cfg}
	if err := w.open(); err != nil {
		return nil, err
	}
	w.prune()
	return w, nil
}

func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}

	overflow := w.size > 0 && w.size+int64(len(p)) > w.cfg.MaxSize
	newDay := w.cfg.Daily && w.day != dayOf(time.Now())
	if overflow || newDay {
		if err := w.rotate(); err != nil {
			return 0, fmt.Errorf("rotating log file: %w", err)
		}
	}

	if err := lockFile(w.file); err != nil {
		return 0, fmt.Errorf("acquiring file lock: %w", err)
	}
	defer unlockFile(w.file)

	n, err := w.file.Write(p)
	w.size += int64(n)
	if err != nil {
		return n, fmt.Errorf("writing to log file: %w", err)
	}
	return n, nil
}

// Close syncs and closes the file. Later writes fail with os.ErrClosed.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	f := w.file
	w.file = nil

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("syncing log file: %w", err)
	}
	return f.Close()
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	w.file = f
	w.size = info.Size()
	w.day = dayOf(time.Now())
	if w.size > 0 {
		w.day = dayOf(info.ModTime())
	}
	return nil
}

func (w *RotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing current file: %w", err)
	}
	w.file = nil

	stem, ext := splitExt(w.path)
	backup := stem + "." + time.Now().Format(backupStamp) + ext
	if err := os.Rename(w.path, backup); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("renaming log file: %w", err)
	}

	if err := w.open(); err != nil {
		return err
	}
	w.prune()
	return nil
}

// prune deletes backups past MaxBackups (newest kept) or older than MaxAge.
// Errors are ignored.
func (w *RotatingWriter) prune() {
	stem, ext := splitExt(w.path)
	backups, err := filepath.Glob(stem + ".*" + ext)
	if err != nil {
		return
	}
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))

	cutoff := time.Now().AddDate(0, 0, -w.cfg.MaxAge)
	for i, path := range backups {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		expired := w.cfg.MaxAge > 0 && info.ModTime().Before(cutoff)
		surplus := w.cfg.MaxBackups > 0 && i >= w.cfg.MaxBackups
		if expired || surplus {
			_ = os.Remove(path)
		}
	}
}

func splitExt(path string) (stem, ext string) {
	ext = filepath.Ext(path)
	return strings.TrimSuffix(path, ext), ext
}

func dayOf(t time.Time) string {
	return t.Format("2006-01-02")
}
