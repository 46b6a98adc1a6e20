package bench

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

const bellRecords = `[
	{"name": "h", "obj": [0], "ctrl": []},
	{"name": "x", "obj": [1], "ctrl": [0]}
]`

const ringEdges = `[[0, 1], [1, 2], [2, 3], [3, 0]]`

func writeData(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	var w io.WriteCloser
	switch filepath.Ext(name) {
	case ".gz":
		w = gzip.NewWriter(f)
	case ".zst":
		w, err = zstd.NewWriter(f, zstd.WithEncoderConcurrency(1))
		require.NoError(t, err)
	default:
		_, err = f.WriteString(content)
		require.NoError(t, err)
		return path
	}
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return path
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}
