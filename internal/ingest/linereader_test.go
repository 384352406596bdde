package ingest

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineResult struct {
	line    string
	tooLong bool
}

func readAllLines(t *testing.T, r io.Reader, limit int) []lineResult {
	t.Helper()
	lr := newLineReader(r, limit)
	var out []lineResult
	for {
		line, tooLong, err := lr.next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, lineResult{line, tooLong})
	}
}

func TestLineReader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []lineResult
	}{
		{"empty", "", nil},
		{"no trailing newline", "a\nb", []lineResult{{"a", false}, {"b", false}}},
		{"crlf", "a\r\nb\r\n", []lineResult{{"a", false}, {"b", false}}},
		{"blank lines kept", "a\n\nb\n", []lineResult{{"a", false}, {"", false}, {"b", false}}},
		{"exactly at limit", strings.Repeat("x", 64) + "\r\n", []lineResult{{strings.Repeat("x", 64), false}}},
		{"one over limit", strings.Repeat("x", 65) + "\nok\n", []lineResult{{strings.Repeat("x", 64), true}, {"ok", false}}},
		{"far over limit at eof", "ok\n" + strings.Repeat("z", 10_000), []lineResult{{"ok", false}, {strings.Repeat("z", 64), true}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, readAllLines(t, strings.NewReader(tt.input), 64))
		})
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestLineReader_ReadError(t *testing.T) {
	_, _, err := newLineReader(brokenReader{}, 64).next()
	assert.EqualError(t, err, "disk gone")
}
