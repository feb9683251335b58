package fshelper

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}
}

func TestCollect_Directory(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.jpg", "a.PNG", "notes.txt", "2013/07/c.jpeg", ".cache/d.jpg", ".hidden.jpg")

	sources, err := Collect([]string{dir})
	require.NoError(t, err)
	defer CloseAll(sources)

	require.Len(t, sources, 1)
	assert.Equal(t, []string{"2013/07/c.jpeg", "a.PNG", "b.jpg"}, sources[0].Paths)

	abs, _ := filepath.Abs(dir)
	assert.Equal(t, abs+"!b.jpg", sources[0].Key("b.jpg"))
}

func TestCollect_SingleFile(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "photo.jpg", "clip.mp4")

	sources, err := Collect([]string{filepath.Join(dir, "photo.jpg")})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, []string{"photo.jpg"}, sources[0].Paths)

	_, err = Collect([]string{filepath.Join(dir, "clip.mp4")})
	assert.ErrorContains(t, err, "unsupported file type")
}

func TestCollect_Glob(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "trip/day1/a.jpg", "trip/day2/b.jpg", "trip/day2/c.png", "other/d.jpg")

	sources, err := Collect([]string{filepath.Join(dir, "trip/**/*.jpg")})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, []string{"day1/a.jpg", "day2/b.jpg"}, sources[0].Paths)
}

func TestCollect_Zip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "export.zip")

	f, err := os.Create(archive)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, name := range []string{"Photos/IMG_1.jpg", "Photos/IMG_1.jpg.json", "Photos/IMG_2.webp"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte("x"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	sources, err := Collect([]string{archive})
	require.NoError(t, err)
	defer CloseAll(sources)

	require.Len(t, sources, 1)
	assert.Equal(t, []string{"Photos/IMG_1.jpg", "Photos/IMG_2.webp"}, sources[0].Paths)
	_, isZip := sources[0].FS.(*ZipFS)
	assert.True(t, isZip)
}

func TestCollect_Errors(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "notes.txt")

	_, err := Collect([]string{filepath.Join(dir, "missing.jpg")})
	assert.ErrorContains(t, err, "does not exist")

	_, err = Collect([]string{dir})
	assert.ErrorContains(t, err, "no images found")

	_, err = Collect([]string{filepath.Join(dir, "*.jpg")})
	assert.ErrorContains(t, err, "no images found")
}
