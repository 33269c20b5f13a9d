package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type passthroughUnfurler struct{}

func (passthroughUnfurler) Unfurl(_ context.Context, _ string, contents []byte) ([]byte, error) {
	return contents, nil
}

func writeTestTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mod.ts"), []byte("export const x = 1;\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "util.ts"), []byte("export function f() {}\n"), 0o644))
	return dir
}

func TestBuildIsDeterministic(t *testing.T) {
	dir := writeTestTree(t)

	first, err := DefaultBuilder{}.Build(context.Background(), dir, FilePatterns{}, passthroughUnfurler{}, nil)
	require.NoError(t, err)

	second, err := DefaultBuilder{}.Build(context.Background(), dir, FilePatterns{}, passthroughUnfurler{}, nil)
	require.NoError(t, err)

	require.Equal(t, first.SHA256, second.SHA256)
	require.Equal(t, first.Bytes, second.Bytes)
}

func TestBuildOrdersFilesByPath(t *testing.T) {
	dir := writeTestTree(t)

	tb, err := DefaultBuilder{}.Build(context.Background(), dir, FilePatterns{}, passthroughUnfurler{}, nil)
	require.NoError(t, err)
	require.Len(t, tb.Files, 2)
	require.Equal(t, "mod.ts", tb.Files[0].PathStr)
	require.Equal(t, "sub/util.ts", tb.Files[1].PathStr)
	for i := 1; i < len(tb.Files); i++ {
		require.Less(t, tb.Files[i-1].PathStr, tb.Files[i].PathStr)
	}
}

func TestBuildExcludePattern(t *testing.T) {
	dir := writeTestTree(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mod.test.ts"), []byte("test"), 0o644))

	tb, err := DefaultBuilder{}.Build(context.Background(), dir, FilePatterns{Exclude: []string{"*.test.ts"}}, passthroughUnfurler{}, nil)
	require.NoError(t, err)
	_, found := tb.FindFile("mod.test.ts")
	require.False(t, found)
}
