package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"golang.org/x/xerrors"
)

const outputDirTimeFormat = "20060102_150405"

// OutputDirName returns the per-run directory name, e.g. output_20240102_030405.
func OutputDirName(t time.Time) string {
	return fmt.Sprintf("output_%s", t.Format(outputDirTimeFormat))
}

// ParseTimestamp accepts any layout dateparse understands. An empty value
// yields now.
func ParseTimestamp(s string, now func() time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return now(), nil
	}
	t, err := dateparse.ParseLocal(s)
	if err != nil {
		return time.Time{}, xerrors.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// Preview returns at most n characters of the indented body, or of the raw
// body when it is not JSON.
func Preview(body []byte, n int) string {
	var buf bytes.Buffer
	s := string(body)
	if err := json.Indent(&buf, body, "", "  "); err == nil {
		s = buf.String()
	}
	return Truncate(s, n)
}

// Truncate cuts s to n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// FileName maps an arbitrary string to something usable as a file name.
func FileName(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '.' {
			return r
		}
		return '_'
	}, s)
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}
