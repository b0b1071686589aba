package core

// streaming.go cleans uploaded CSV bytes while they are read:
//
//   - sizeCapReader fails with ErrFileTooLarge past the configured size
//   - a UTF-8 BOM written by spreadsheet exports is dropped
//   - invalid UTF-8 bytes become '?'

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sizeCapReader reports ErrFileTooLarge once more than max bytes were read.
// A max of zero disables the check.
type sizeCapReader struct {
	r    io.Reader
	read int64
	max  int64
}

func (c *sizeCapReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	if c.max > 0 && c.read > c.max {
		return 0, ErrFileTooLarge
	}
	return n, err
}

// sanitizingReader decodes runes from a buffered reader, skipping a leading
// BOM and replacing invalid bytes.
type sanitizingReader struct {
	br         *bufio.Reader
	bomChecked bool
	pending    []byte
}

// newUploadReader applies the size cap, BOM skipping and UTF-8 sanitizing.
func newUploadReader(r io.Reader, maxBytes int64) io.Reader {
	return &sanitizingReader{br: bufio.NewReader(&sizeCapReader{r: r, max: maxBytes})}
}

func (s *sanitizingReader) Read(p []byte) (int, error) {
	if !s.bomChecked {
		s.bomChecked = true
		head, err := s.br.Peek(len(utf8BOM))
		if bytes.Equal(head, utf8BOM) {
			_, _ = s.br.Discard(len(utf8BOM))
		} else if err != nil && err != io.EOF {
			return 0, err
		}
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]

	var buf [utf8.UTFMax]byte
	for n < len(p) {
		r, size, err := s.br.ReadRune()
		if err != nil {
			if n > 0 && err == io.EOF {
				return n, nil
			}
			return n, err
		}
		if r == utf8.RuneError && size == 1 {
			r = '?'
		}
		w := utf8.EncodeRune(buf[:], r)
		c := copy(p[n:], buf[:w])
		n += c
		if c < w {
			s.pending = append(s.pending[:0], buf[c:w]...)
		}
	}
	return n, nil
}
