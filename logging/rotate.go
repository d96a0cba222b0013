package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const filePrefix = "medsummary-"

var numberedFile = regexp.MustCompile(`^medsummary-\d{4}-W\d{2}_(\d{2})\.log$`)

// RotatingFile is an io.Writer that starts a new file every ISO week and
// whenever the current file would grow past maxSize. Files older than the
// retention window are removed by Cleanup.
type RotatingFile struct {
	dir       string
	retention time.Duration
	maxSize   int64
	now       func() time.Time

	mu   sync.Mutex
	file *os.File
	week string
	size int64
}

// NewRotatingFile opens (or creates) this week's log file in dir.
// maxSize <= 0 disables size rotation.
func NewRotatingFile(dir string, retentionWeeks int, maxSize int64) (*RotatingFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir %s: %w", dir, err)
	}
	rf := &RotatingFile{
		dir:       dir,
		retention: time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxSize:   maxSize,
		now:       time.Now,
	}
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if err := rf.open(weekKey(rf.now()), false); err != nil {
		return nil, err
	}
	return rf, nil
}

func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// open switches to the file for week; full forces a new numbered file
func (rf *RotatingFile) open(week string, full bool) error {
	current := ""
	if rf.file != nil {
		current = filepath.Base(rf.file.Name())
		_ = rf.file.Close()
		rf.file = nil
	}

	name := filePrefix + week + ".log"
	if full || rf.tooBig(name) {
		name = rf.nextNumbered(week, current)
	}

	path := filepath.Join(rf.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat log file %s: %w", path, err)
	}

	rf.file = f
	rf.week = week
	rf.size = info.Size()
	return nil
}

func (rf *RotatingFile) tooBig(name string) bool {
	if rf.maxSize <= 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(rf.dir, name))
	return err == nil && info.Size() >= rf.maxSize
}

// nextNumbered returns the last numbered file of week if it still has room
// and is not the one being rotated away from, otherwise the next free number
func (rf *RotatingFile) nextNumbered(week, current string) string {
	matches, _ := filepath.Glob(filepath.Join(rf.dir, filePrefix+week+"_??.log"))
	highest := 0
	for _, m := range matches {
		sub := numberedFile.FindStringSubmatch(filepath.Base(m))
		if len(sub) < 2 {
			continue
		}
		if n, _ := strconv.Atoi(sub[1]); n > highest {
			highest = n
		}
	}
	if highest > 0 {
		last := fmt.Sprintf("%s%s_%02d.log", filePrefix, week, highest)
		if last != current && !rf.tooBig(last) {
			return last
		}
	}
	return fmt.Sprintf("%s%s_%02d.log", filePrefix, week, highest+1)
}

// Write appends p, rotating first if the week changed or the size cap would be hit
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	week := weekKey(rf.now())
	switch {
	case week != rf.week:
		if err := rf.open(week, false); err != nil {
			return 0, err
		}
	case rf.maxSize > 0 && rf.size > 0 && rf.size+int64(len(p)) > rf.maxSize:
		if err := rf.open(week, true); err != nil {
			return 0, err
		}
	}
	if rf.file == nil {
		return 0, errors.New("no log file open")
	}

	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

// Cleanup removes log files last modified before the retention window and
// returns how many were deleted
func (rf *RotatingFile) Cleanup() (int, error) {
	entries, err := os.ReadDir(rf.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log dir: %w", err)
	}

	cutoff := rf.now().Add(-rf.retention)
	var stale []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := e.Info()
		if err == nil && info.ModTime().Before(cutoff) {
			stale = append(stale, name)
		}
	}
	sort.Strings(stale)

	deleted := 0
	for _, name := range stale {
		if err := os.Remove(filepath.Join(rf.dir, name)); err == nil {
			deleted++
		}
	}
	return deleted, nil
}

// Close closes the current file
func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}
