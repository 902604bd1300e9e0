package pathresolve

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeFS struct {
	files map[string][]byte
	dirs  map[string][]string
}

func (f *fakeFS) Exists(path string) bool                   { _, ok := f.files[path]; return ok }
func (f *fakeFS) Read(path string) ([]byte, error)          { return f.files[path], nil }
func (f *fakeFS) Write(path string, data []byte) error      { f.files[path] = data; return nil }
func (f *fakeFS) Mkdir(string, bool) error                  { return nil }
func (f *fakeFS) Stat(string) (fs.FileInfo, error)          { return nil, nil }
func (f *fakeFS) ReadDirNames(dir string) ([]string, error) { return f.dirs[dir], nil }

func TestProjectRootFindsMarker(t *testing.T) {
	fsys := &fakeFS{files: map[string][]byte{
		"/repo/.git": {},
	}}
	got := ProjectRoot(fsys, "/repo/src/pkg")
	require.Equal(t, "/repo", got)
}

func TestProjectRootFallsBackToBasePath(t *testing.T) {
	fsys := &fakeFS{files: map[string][]byte{}}
	got := ProjectRoot(fsys, "/no/markers/here")
	require.Equal(t, "/no/markers/here", got)
}

func TestResolveLocalExactMatch(t *testing.T) {
	fsys := &fakeFS{files: map[string][]byte{"/base/doc.md": {}}}
	got, err := ResolveLocal(fsys, "/base", "doc.md", true, 3, 0.8)
	require.NoError(t, err)
	require.Equal(t, "/base/doc.md", got)
}

func TestResolveLocalFuzzyTypo(t *testing.T) {
	fsys := &fakeFS{
		files: map[string][]byte{"/base/Installation.md": {}},
		dirs:  map[string][]string{"/base": {"Installation.md"}},
	}
	got, err := ResolveLocal(fsys, "/base", "Instalation.md", true, 3, 0.7)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/base", "Installation.md"), got)
}

func TestResolveLocalFuzzyThresholdTooStrict(t *testing.T) {
	fsys := &fakeFS{
		files: map[string][]byte{"/base/Installation.md": {}},
		dirs:  map[string][]string{"/base": {"Installation.md"}},
	}
	_, err := ResolveLocal(fsys, "/base", "Instalation.md", true, 3, 0.99)
	require.Error(t, err)
}

func TestExpandPrefixProjectAlias(t *testing.T) {
	got, ok := ExpandPrefix("@.", nil, "proj", "/root/proj")
	require.True(t, ok)
	require.Equal(t, "/root/proj", got)
}

func TestExpandPrefixUserPrefix(t *testing.T) {
	got, ok := ExpandPrefix("@work/foo.mld", map[string]string{"@work/": "/srv/work"}, "proj", "/root/proj")
	require.True(t, ok)
	require.Equal(t, filepath.Join("/srv/work", "foo.mld"), got)
}
