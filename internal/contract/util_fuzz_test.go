package contract

import (
	"strings"
	"testing"
)

// FuzzShouldIgnore fuzzes the ShouldIgnore function with random paths and exclude patterns.
func FuzzShouldIgnore(f *testing.F) {
	seeds := []struct {
		path     string
		excludes string // comma-separated
	}{
		{"src/main.go", "*.log"},
		{"vendor/package/file.go", "vendor/"},
		{"web/app.min.js", "*.min.js"},
		{"", ""},
		{"very/long/path/to/generated/file.go", "**/generated/**"},
		{"src/[broken", "[,**"},
	}
	for _, seed := range seeds {
		f.Add(seed.path, seed.excludes)
	}

	f.Fuzz(func(_ *testing.T, path string, excludesStr string) {
		var excludes []string
		for ex := range strings.SplitSeq(excludesStr, ",") {
			if trimmed := strings.TrimSpace(ex); trimmed != "" {
				excludes = append(excludes, trimmed)
			}
		}
		_ = ShouldIgnore(path, excludes)
	})
}

// FuzzTruncatePath checks that truncation never exceeds the requested width.
func FuzzTruncatePath(f *testing.F) {
	f.Add("my-project:src/main/java/Foo.java", 10)
	f.Add("short", 40)
	f.Add("ünïcödé/pàth", 5)

	f.Fuzz(func(t *testing.T, path string, width int) {
		out := TruncatePath(path, width)
		if width > 3 && len([]rune(out)) > width {
			t.Fatalf("TruncatePath(%q, %d) = %q exceeds width", path, width, out)
		}
	})
}
