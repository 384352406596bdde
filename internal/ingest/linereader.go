package ingest

import (
	"bufio"
	"bytes"
	"io"
)

// lineReader splits input into lines without a trailing "\n" or "\r\n".
// A line longer than limit is drained up to its newline and reported as too
// long, keeping its first limit bytes, so one oversized record never stops the
// reader.
type lineReader struct {
	br    *bufio.Reader
	limit int
	buf   []byte
}

func newLineReader(r io.Reader, limit int) *lineReader {
	return &lineReader{
		br:    bufio.NewReaderSize(r, min(4096, limit)),
		limit: limit,
	}
}

// next returns io.EOF once the input is exhausted. A final line without a
// newline is still returned.
func (lr *lineReader) next() (string, bool, error) {
	lr.buf = lr.buf[:0]
	tooLong := false
	read := 0

	for {
		chunk, err := lr.br.ReadSlice('\n')
		read += len(chunk)
		if !tooLong {
			lr.buf = append(lr.buf, chunk...)
			// Room for the limit content bytes plus "\r\n"
			if len(lr.buf) > lr.limit+2 {
				lr.buf = lr.buf[:lr.limit]
				tooLong = true
			}
		}

		switch err {
		case nil:
			return lr.line(tooLong)
		case bufio.ErrBufferFull:
			continue
		case io.EOF:
			if read == 0 {
				return "", false, io.EOF
			}
			return lr.line(tooLong)
		default:
			return "", false, err
		}
	}
}

func (lr *lineReader) line(tooLong bool) (string, bool, error) {
	if tooLong {
		return string(lr.buf), true, nil
	}
	b := bytes.TrimSuffix(lr.buf, []byte("\n"))
	b = bytes.TrimSuffix(b, []byte("\r"))
	if len(b) > lr.limit {
		return string(b[:lr.limit]), true, nil
	}
	return string(b), false, nil
}
