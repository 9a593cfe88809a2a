package journal

import (
	"bufio"
	"fmt"
	"os"
	"sync/atomic"
)

// Logger appends one line per entry to the run's events log. The engine
// advances the iteration counter once per main-loop iteration and every line
// is prefixed with it.
type Logger struct {
	path      string
	file      *os.File
	writer    *bufio.Writer
	iteration atomic.Uint64
}

func New(path string) *Logger {
	return &Logger{path: path}
}

func (l *Logger) Open() error {
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("unable to open journal %q: %w", l.path, err)
	}
	l.file = file
	l.writer = bufio.NewWriter(file)
	return nil
}

func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	if err := l.writer.Flush(); err != nil {
		_ = l.file.Close()
		return err
	}
	err := l.file.Close()
	l.file = nil
	l.writer = nil
	return err
}

func (l *Logger) Advance() {
	l.iteration.Add(1)
}

func (l *Logger) Iteration() uint64 {
	return l.iteration.Load()
}

// Write appends a single iteration-prefixed line. Lines are dropped silently
// when the journal is not open; a run without an events log is valid.
func (l *Logger) Write(message string) {
	if l.writer == nil || message == "" {
		return
	}
	_, _ = fmt.Fprintf(l.writer, "#%d - %s\n", l.iteration.Load(), message)
}

func (l *Logger) Writef(format string, args ...interface{}) {
	l.Write(fmt.Sprintf(format, args...))
}
