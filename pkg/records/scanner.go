// Package records provides a bounded tokenizer that splits a byte
// stream into delimiter-terminated records with an explicit capacity
// ceiling per record.
package records

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// ErrTooLong indicates a single record exceeded the scanner capacity
// before its terminator was seen.
var ErrTooLong = errors.New("records: record exceeds capacity")

const initialBufferSize = 4096

// Scanner yields successive records from a reader. Each record is
// terminated by the delimiter byte; a non-empty final record before
// EOF does not need one. A record that does not fit the capacity
// (terminator included) aborts the scan with ErrTooLong.
type Scanner struct {
	s *bufio.Scanner
}

// New creates a Scanner reading records from r, split at delim, with
// max bytes of buffer capacity per record.
func New(r io.Reader, delim byte, max int) *Scanner {
	s := bufio.NewScanner(r)
	initial := initialBufferSize
	if max < initial {
		initial = max
	}
	s.Buffer(make([]byte, 0, initial), max)
	s.Split(splitAt(delim))
	return &Scanner{s: s}
}

// Scan advances to the next record. It returns false at end of input
// or on error; Err tells the two apart.
func (s *Scanner) Scan() bool {
	return s.s.Scan()
}

// Bytes returns the current record without its terminator. The slice
// is only valid until the next call to Scan.
func (s *Scanner) Bytes() []byte {
	return s.s.Bytes()
}

// Text returns the current record without its terminator as a string.
func (s *Scanner) Text() string {
	return s.s.Text()
}

// Err returns the first error encountered, or nil at clean end of
// input. Capacity violations are reported as ErrTooLong.
func (s *Scanner) Err() error {
	err := s.s.Err()
	if errors.Is(err, bufio.ErrTooLong) {
		return ErrTooLong
	}
	return err
}

func splitAt(delim byte) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.IndexByte(data, delim); i >= 0 {
			return i + 1, data[:i], nil
		}
		if atEOF {
			// final record has no terminator
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}
