package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMaxSize(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{input: "", want: DefaultMaxSize},
		{input: "garbage", want: DefaultMaxSize},
		{input: "0", want: DefaultMaxSize},
		{input: "10MiB", want: 10 * 1024 * 1024},
		{input: "1GiB", want: 1024 * 1024 * 1024},
		{input: "5MB", want: 5 * 1000 * 1000},
		{input: "2048", want: 2048},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMaxSize(tt.input))
		})
	}
}

func TestRotatingWriterCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "primes.log")

	w, err := NewRotatingWriter(path, RotationConfig{})
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, DefaultMaxSize, w.cfg.MaxSize)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestRotatingWriterRotatesOnSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "primes.log")

	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 64})
	require.NoError(t, err)
	defer w.Close()

	line := []byte(strings.Repeat("x", 40) + "\n")
	for i := 0; i < 3; i++ {
		_, err := w.Write(line)
		require.NoError(t, err)
		// Rotated names carry millisecond timestamps.
		time.Sleep(2 * time.Millisecond)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(entries), 2, "expected a rotated backup next to the active log")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.LessOrEqual(t, info.Size(), int64(64))
}

func TestRotatingWriterPrunesBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "primes.log")

	for i, name := range []string{"primes.2024-01-01-000000.000.log", "primes.2024-01-02-000000.000.log", "primes.2024-01-03-000000.000.log"} {
		backup := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(backup, []byte("old"), 0o644))
		mod := time.Now().Add(-time.Duration(3-i) * time.Hour)
		require.NoError(t, os.Chtimes(backup, mod, mod))
	}

	w, err := NewRotatingWriter(path, RotationConfig{MaxBackups: 1})
	require.NoError(t, err)
	defer w.Close()

	_, err = os.Stat(filepath.Join(dir, "primes.2024-01-03-000000.000.log"))
	assert.NoError(t, err, "newest backup should survive")
	_, err = os.Stat(filepath.Join(dir, "primes.2024-01-01-000000.000.log"))
	assert.True(t, os.IsNotExist(err), "oldest backup should be pruned")
}

func TestRotatingWriterPrunesByAge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "primes.log")

	stale := filepath.Join(dir, "primes.2020-01-01-000000.000.log")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	old := time.Now().Add(-10 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	w, err := NewRotatingWriter(path, RotationConfig{MaxAge: 7})
	require.NoError(t, err)
	defer w.Close()

	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestRotatingWriterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "primes.log"), RotationConfig{})
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestRotatingWriterRotatesOnNewDay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "primes.log")
	require.NoError(t, os.WriteFile(path, []byte("yesterday\n"), 0o644))
	yesterday := time.Now().Add(-36 * time.Hour)
	require.NoError(t, os.Chtimes(path, yesterday, yesterday))

	w, err := NewRotatingWriter(path, RotationConfig{Daily: true})
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("today\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "today\n", string(data))

	backups, err := filepath.Glob(filepath.Join(dir, "primes.*.log"))
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}
