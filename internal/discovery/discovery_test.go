package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root, name string) {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("// sample"), 0644))
}

func names(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func TestListSourceFilesSkipsDependencyDirs(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "main.go")
	touch(t, root, "src/app.ts")
	touch(t, root, "node_modules/dep/index.js")
	touch(t, root, "vendor/lib/lib.go")
	touch(t, root, ".git/hooks/sample.py")
	touch(t, root, "notes.md")

	files, err := ListSourceFiles(root, Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go", "app.ts"}, names(files))
}

func TestListSourceFilesExcludesTestsByDefault(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "app.go")
	touch(t, root, "app_test.go")
	touch(t, root, "widget.spec.js")
	touch(t, root, "test_models.py")

	files, err := ListSourceFiles(root, Options{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"app.go"}, names(files))

	all, err := ListSourceFiles(root, Options{IncludeTest: true})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestListSourceFilesCustomExtensions(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.go")
	touch(t, root, "b.rb")

	files, err := ListSourceFiles(root, Options{Extensions: []string{".rb"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b.rb"}, names(files))
}

func TestListSourceFilesSorted(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "z.go")
	touch(t, root, "a.go")
	touch(t, root, "m/b.go")

	files, err := ListSourceFiles(root, Options{})
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.True(t, sortedStrings(files))
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] < s[i-1] {
			return false
		}
	}
	return true
}

func TestReadFileNotFound(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.go"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestIsTestFile(t *testing.T) {
	assert.True(t, isTestFile("engine_test.go"))
	assert.True(t, isTestFile("widget.test.ts"))
	assert.True(t, isTestFile("test_models.py"))
	assert.False(t, isTestFile("testing.go"))
	assert.False(t, isTestFile("contest.py"))
}
