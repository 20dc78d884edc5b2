package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fatih/color"
	"github.com/huangsam/caliper/schema"
)

// Color variables for console output.
var (
	ErrorColor   = color.New(color.FgRed, color.Bold) // ErrorColor marks failed conditions and gates.
	OKColor      = color.New(color.FgGreen)           // OKColor marks passed conditions and gates.
	NoValueColor = color.New(color.FgYellow)          // NoValueColor marks conditions without a measure.
)

// GetColorStatus returns a colored status label for console output (table).
func GetColorStatus(status schema.EvaluationStatus) string {
	text := string(status)
	switch status {
	case schema.ErrorStatus:
		return ErrorColor.Sprint(text)
	case schema.OKStatus:
		return OKColor.Sprint(text)
	case schema.NoValueStatus:
		return NoValueColor.Sprint(text)
	default:
		return text
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ShouldIgnore returns true if the given path matches any of the exclude patterns.
// Patterns are doublestar globs ("**/generated/**", "*.min.js"). Patterns without a
// slash are also tried against the base name. Patterns ending with '/' match a prefix.
func ShouldIgnore(path string, excludes []string) bool {
	path = filepath.ToSlash(path)
	for _, ex := range excludes {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}
		if strings.HasSuffix(ex, "/") {
			if strings.HasPrefix(path, ex) {
				return true
			}
			continue
		}
		if ok, err := doublestar.Match(ex, path); err == nil && ok {
			return true
		}
		if !strings.Contains(ex, "/") {
			if ok, err := doublestar.Match(ex, filepath.Base(path)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for analysis history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".caliper_history.db"
	}
	return filepath.Join(homeDir, ".caliper_history.db")
}

// TruncatePath truncates a component key to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to leave room for the "..." prefix.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// Millis converts a time to epoch milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FormatDate renders epoch milliseconds as yyyy-MM-dd.
func FormatDate(ms int64) string {
	return FromMillis(ms).Format(time.DateOnly)
}
