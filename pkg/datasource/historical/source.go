package historical

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/exp/mmap"
)

// Source reads fixed-size records from a memory-mapped binary file. Records
// are stored little-endian regardless of the host, so files written on one
// machine replay on any other.
type Source[T any] struct {
	dataSourceName string
	reader         *mmap.ReaderAt
	recordSize     int64
	bufferPool     *sync.Pool
}

func NewSource[T any](dataSourceName string) *Source[T] {
	recordSize := binary.Size(*new(T))
	return &Source[T]{
		dataSourceName: dataSourceName,
		recordSize:     int64(recordSize),
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buffer := make([]byte, recordSize)
				return &buffer
			},
		},
	}
}

func (s *Source[T]) Open() error {
	if s.recordSize <= 0 {
		return fmt.Errorf("record type has no fixed binary size")
	}
	var err error
	s.reader, err = mmap.Open(s.dataSourceName)
	if err != nil {
		return fmt.Errorf("unable to open data source %q: %w", s.dataSourceName, err)
	}
	return nil
}

func (s *Source[T]) Close() {
	_ = s.reader.Close()
}

func (s *Source[T]) Read(index int64, data *T) error {
	buffer := s.bufferPool.Get().(*[]byte)
	defer s.bufferPool.Put(buffer)

	n, err := s.reader.ReadAt(*buffer, index*s.recordSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("unable to read: %w", err)
	}
	if int64(n) < s.recordSize {
		return io.EOF
	}

	if err := binary.Read(bytes.NewReader(*buffer), binary.LittleEndian, data); err != nil {
		return fmt.Errorf("unable to decode record %d: %w", index, err)
	}
	return nil
}

func (s *Source[T]) EntryCount() (int64, error) {
	if s.recordSize <= 0 {
		return 0, fmt.Errorf("record type has no fixed binary size")
	}

	fileInfo, err := os.Stat(s.dataSourceName)
	if err != nil {
		return 0, fmt.Errorf("unable to get data source %q stats: %w", s.dataSourceName, err)
	}

	totalSize := fileInfo.Size()
	if totalSize%s.recordSize != 0 {
		return 0, fmt.Errorf("file size %d is not a multiple of record size %d", totalSize, s.recordSize)
	}

	return totalSize / s.recordSize, nil
}
