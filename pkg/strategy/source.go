package strategy

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// SignalSource is a poll-based oracle. Reset rewinds to the start, Next
// returns the current token. The oracle strategy calls Reset then Next on
// every tick, so whatever is at the head of the source right now wins.
type SignalSource interface {
	Reset() error
	Next() (string, error)
}

// FileSource reads its token from the first line of a file. The file is
// re-read every tick, so an operator can steer the strategy by overwriting
// it while the engine runs.
type FileSource struct {
	file *os.File
}

func OpenFileSource(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open signal file %q: %w", path, err)
	}
	return &FileSource{file: file}, nil
}

func (s *FileSource) Reset() error {
	_, err := s.file.Seek(0, 0)
	return err
}

func (s *FileSource) Next() (string, error) {
	scanner := bufio.NewScanner(s.file)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func (s *FileSource) Close() error {
	return s.file.Close()
}
