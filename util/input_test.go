package util

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArbitrary(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantSize uint64
		wantPath string
		wantErr  error
	}{
		{name: "simple", line: "100 file", wantSize: 100, wantPath: "file"},
		{name: "path with spaces", line: "42 my file name", wantSize: 42, wantPath: "my file name"},
		{name: "leading blanks", line: "  \t7\t\tx", wantSize: 7, wantPath: "x"},
		{name: "zero size", line: "0 empty", wantSize: 0, wantPath: "empty"},
		{name: "max size", line: "18446744073709551615 huge", wantSize: 18446744073709551615, wantPath: "huge"},
		{name: "missing path", line: "12", wantErr: ErrInvalidValueLine},
		{name: "blank path", line: "12   ", wantErr: ErrEmptyPath},
		{name: "not a number", line: "abc def", wantErr: ErrInvalidValueLine},
		{name: "negative", line: "-1 file", wantErr: ErrInvalidValueLine},
		{name: "empty", line: "", wantErr: ErrInvalidValueLine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, path, err := ParseArbitrary(tt.line)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSize, size)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestReadLines(t *testing.T) {
	input := "a\n\nb c\r\n/d/e/\nlast"
	var got []string
	err := ReadLines(strings.NewReader(input), func(line string) error {
		got = append(got, line)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b c", "/d/e/", "last"}, got)

	errStop := errors.New("stop")
	calls := 0
	err = ReadLines(strings.NewReader(input), func(string) error {
		calls++
		return errStop
	})
	require.ErrorIs(t, err, errStop)
	assert.Equal(t, 1, calls)
}

func TestReadLines_LongLine(t *testing.T) {
	long := strings.Repeat("p", 200*1024)
	var got []string
	require.NoError(t, ReadLines(strings.NewReader(long+"\n"), func(line string) error {
		got = append(got, line)
		return nil
	}))
	require.Len(t, got, 1)
	assert.Len(t, got[0], len(long))
}

func TestOpenInput(t *testing.T) {
	name := filepath.Join(t.TempDir(), "list")
	require.NoError(t, os.WriteFile(name, []byte("x\n"), 0o644))

	r, err := OpenInput(name)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	r, err = OpenInput("-")
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = OpenInput(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCleanArgument(t *testing.T) {
	tests := map[string]string{
		"dir":     "dir",
		"dir/":    "dir/",
		"dir///":  "dir/",
		"/":       "/",
		"///":     "/",
		"a//b///": "a//b/",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanArgument(in), "CleanArgument(%q)", in)
	}
}
