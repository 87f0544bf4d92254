package events

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/agentstation/orgscan/pkg/errors"
	"github.com/agentstation/orgscan/pkg/scm"
)

const (
	// rotateSize is the size in bytes past which the log rotates on the
	// next open.
	rotateSize = 30 * 1024

	// keepArchives is how many rotated archives are retained.
	keepArchives = 5
)

// EventLog is the best-effort global narrative log for events that could
// not be attributed to a folder-scoped log. The live file rotates once
// it passes a size threshold; rotated archives are gzip-compressed and
// the oldest is dropped beyond the retention count.
type EventLog struct {
	path string
}

// NewEventLog creates an EventLog writing to path.
func NewEventLog(path string) *EventLog {
	return &EventLog{path: path}
}

// Path returns the path of the live log file.
func (l *EventLog) Path() string {
	return l.path
}

// Open rotates the log if needed and returns a listener appending to it.
// The caller owns the returned closer.
func (l *EventLog) Open() (scm.Listener, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, nil, errors.NewPersistError("write", l.path, err)
	}
	if info, err := os.Stat(l.path); err == nil && info.Size() > rotateSize {
		if err := l.rotate(); err != nil {
			// keep appending to the oversized file rather than lose events
			return l.open()
		}
	}
	return l.open()
}

func (l *EventLog) open() (scm.Listener, io.Closer, error) {
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, errors.NewPersistError("write", l.path, err)
	}
	return scm.NewListener(file), file, nil
}

// rotate shifts the archives up one slot, compresses the live file into
// the first slot and truncates the live file.
func (l *EventLog) rotate() error {
	oldest := l.archivePath(keepArchives)
	if _, err := os.Stat(oldest); err == nil {
		if err := os.Remove(oldest); err != nil {
			return errors.NewPersistError("write", oldest, err)
		}
	}
	for i := keepArchives - 1; i >= 1; i-- {
		from := l.archivePath(i)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		if err := os.Rename(from, l.archivePath(i+1)); err != nil {
			return errors.NewPersistError("write", from, err)
		}
	}
	if err := l.compress(l.path, l.archivePath(1)); err != nil {
		return err
	}
	if err := os.Remove(l.path); err != nil {
		return errors.NewPersistError("write", l.path, err)
	}
	return nil
}

func (l *EventLog) archivePath(i int) string {
	return fmt.Sprintf("%s.%d.gz", l.path, i)
}

func (l *EventLog) compress(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.NewPersistError("read", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.NewPersistError("write", dst, err)
	}

	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		zw.Close()
		out.Close()
		return errors.NewPersistError("write", dst, err)
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return errors.NewPersistError("write", dst, err)
	}
	return out.Close()
}
