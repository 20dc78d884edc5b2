package outwriter

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/caliper/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFormatters(t *testing.T) {
	fmtNumber, fmtDelta := createFormatters(2)
	assert.Equal(t, "30", fmtNumber(30))
	assert.Equal(t, "66.67", fmtNumber(66.666))
	assert.Equal(t, "+2", fmtDelta(2))
	assert.Equal(t, "-1.50", fmtDelta(-1.5))
}

func TestOptional(t *testing.T) {
	fmtNumber, _ := createFormatters(1)
	v := 3.0
	assert.Equal(t, "", optional(nil, fmtNumber))
	assert.Equal(t, "3", optional(&v, fmtNumber))
}

func TestWriteWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, writeWithFile(path, func(w io.Writer) error {
		_, err := w.Write([]byte("hello"))
		return err
	}, "Wrote text"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	err = writeWithFile(path, func(io.Writer) error { return assert.AnError }, "Wrote text")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeCSVWithHeader(&buf, []string{"a", "b"}, func(w *csv.Writer) error {
		return w.Write([]string{"1", "2"})
	}))
	assert.Equal(t, "a,b\n1,2\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"ncloc": 30}))
	assert.Equal(t, "{\n  \"ncloc\": 30\n}\n", buf.String())

	assert.Error(t, writeJSON(&buf, func() {}))
}

func TestIndentKey(t *testing.T) {
	assert.Equal(t, "    acme:core/src", indentKey("acme:core/src", 2, 40))
	assert.Equal(t, "...c/Foo.java", indentKey("acme:core/src/Foo.java", 0, 13))
	assert.Equal(t, 20, getMaxTableKeyWidth(&contract.Config{Width: 50}))
	assert.Equal(t, 80, getMaxTableKeyWidth(&contract.Config{Width: 400}))
}
