package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/teranos/harvest/errors"
)

// Human-readable timestamp layout used in the process log
const readableTimeLayout = "02/01/2006 15:04:05"

// DailyFile is an append-only zapcore.WriteSyncer that writes to one file per
// calendar day (process_log_DD_MM_YYYY.txt) and rolls over at midnight, so a
// multi-day run spreads its log across the days it touched.
type DailyFile struct {
	dir string
	now func() time.Time

	mu   sync.Mutex
	day  string
	path string
	f    *os.File
}

// OpenDailyFile opens (or creates) today's log file in dir
func OpenDailyFile(dir string) (*DailyFile, error) {
	return openDailyFile(dir, time.Now)
}

func openDailyFile(dir string, now func() time.Time) (*DailyFile, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create log directory %s", dir)
	}
	d := &DailyFile{dir: dir, now: now}
	if err := d.rotate(now()); err != nil {
		return nil, err
	}
	return d, nil
}

// DailyFileName returns the log file name for the day containing t
func DailyFileName(t time.Time) string {
	return "process_log_" + t.Format("02_01_2006") + ".txt"
}

// Write appends p to the file of the current day
func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t := d.now()
	if t.Format("2006-01-02") != d.day {
		if err := d.rotate(t); err != nil {
			return 0, err
		}
	}
	return d.f.Write(p)
}

// Sync flushes the current file
func (d *DailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return nil
	}
	return d.f.Sync()
}

// Close closes the current file
func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}

// Path returns the file currently written to
func (d *DailyFile) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path
}

// rotate switches to the file for t's day. Caller holds mu (or owns d).
func (d *DailyFile) rotate(t time.Time) error {
	if d.f != nil {
		d.f.Close()
		d.f = nil
	}

	path := filepath.Join(d.dir, DailyFileName(t))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "failed to open log file %s", path)
	}

	header := fmt.Sprintf("=== processing log - %s ===\n%s\n", t.Format(readableTimeLayout), strings.Repeat("=", 50))
	if _, err := f.WriteString(header); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write log header to %s", path)
	}

	d.f = f
	d.path = path
	d.day = t.Format("2006-01-02")
	return nil
}

// newFileEncoder renders plain text lines for the process log:
// "02/01/2006 15:04:05  INFO  pulse.runner  Contract processed  {...}"
func newFileEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(readableTimeLayout)
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.ConsoleSeparator = "  "
	cfg.CallerKey = zapcore.OmitKey
	cfg.StacktraceKey = zapcore.OmitKey
	return zapcore.NewConsoleEncoder(cfg)
}
