package fshelper

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bstardust/piclabel/internal/fileinfo"
)

// NameFS is a filesystem that has a name
type NameFS interface {
	fs.FS
	Name() string
}

// DirFS represents a directory filesystem with a name
type DirFS struct {
	fs.FS
	name string
}

// NewDirFS returns a DirFS rooted at dir, named by its absolute path
func NewDirFS(dir string) *DirFS {
	name, err := filepath.Abs(dir)
	if err != nil {
		name = dir
	}
	return &DirFS{FS: os.DirFS(dir), name: name}
}

// Name returns the name of the filesystem
func (d *DirFS) Name() string {
	return d.name
}

// ZipFS represents a zip filesystem with a name
type ZipFS struct {
	*zip.Reader
	name string
	rc   io.Closer
}

// Name returns the name of the filesystem
func (z *ZipFS) Name() string {
	return z.name
}

// Close closes the zip file
func (z *ZipFS) Close() error {
	if z.rc != nil {
		return z.rc.Close()
	}
	return nil
}

// Source is a filesystem together with the image files selected in it
type Source struct {
	FS    NameFS
	Paths []string
}

// Close releases the underlying archive, if any
func (s *Source) Close() error {
	if c, ok := s.FS.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Key identifies path within the source across runs
func (s *Source) Key(path string) string {
	return s.FS.Name() + "!" + path
}

// Collect resolves command line arguments into image sources. Each
// argument is an image file, a directory, a zip archive, or a doublestar
// glob such as "photos/**/*.jpg".
func Collect(args []string) ([]*Source, error) {
	var sources []*Source
	fail := func(err error) ([]*Source, error) {
		CloseAll(sources)
		return nil, err
	}

	for _, arg := range args {
		src, err := collect(arg)
		if err != nil {
			return fail(err)
		}
		if len(src.Paths) == 0 {
			src.Close()
			return fail(fmt.Errorf("no images found in %s", arg))
		}
		sources = append(sources, src)
	}

	return sources, nil
}

func collect(arg string) (*Source, error) {
	info, err := os.Stat(arg)
	switch {
	case err == nil && info.IsDir():
		fsys := NewDirFS(arg)
		paths, err := Images(fsys, "**/*")
		if err != nil {
			return nil, err
		}
		return &Source{FS: fsys, Paths: paths}, nil

	case err == nil && strings.HasSuffix(strings.ToLower(arg), ".zip"):
		zipFS, err := OpenZip(arg)
		if err != nil {
			return nil, fmt.Errorf("error opening zip file %s: %w", arg, err)
		}
		paths, err := Images(zipFS, "**/*")
		if err != nil {
			zipFS.Close()
			return nil, err
		}
		return &Source{FS: zipFS, Paths: paths}, nil

	case err == nil:
		if !fileinfo.IsImageFile(arg) {
			return nil, fmt.Errorf("unsupported file type: %s", arg)
		}
		return &Source{FS: NewDirFS(filepath.Dir(arg)), Paths: []string{filepath.Base(arg)}}, nil

	case errors.Is(err, fs.ErrNotExist):
		base, pattern := doublestar.SplitPattern(filepath.ToSlash(arg))
		if !strings.ContainsAny(pattern, "*?[{") || !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("path does not exist: %s", arg)
		}
		fsys := NewDirFS(base)
		paths, err := Images(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %s: %w", arg, err)
		}
		return &Source{FS: fsys, Paths: paths}, nil

	default:
		return nil, fmt.Errorf("error accessing path %s: %w", arg, err)
	}
}

// Images returns the sorted image files in fsys matching pattern,
// skipping hidden files and directories.
func Images(fsys fs.FS, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, m := range matches {
		if hiddenPath(m) || !fileinfo.IsImageFile(m) {
			continue
		}
		paths = append(paths, m)
	}
	sort.Strings(paths)
	return paths, nil
}

func hiddenPath(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if fileinfo.IsHidden(part) {
			return true
		}
	}
	return false
}

// CloseAll closes every source, ignoring errors
func CloseAll(sources []*Source) {
	for _, s := range sources {
		s.Close()
	}
}

// OpenZip opens a zip file and returns a filesystem
func OpenZip(path string) (*ZipFS, error) {
	zipFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening zip file: %w", err)
	}

	info, err := zipFile.Stat()
	if err != nil {
		zipFile.Close()
		return nil, fmt.Errorf("error getting zip file info: %w", err)
	}

	zipReader, err := zip.NewReader(zipFile, info.Size())
	if err != nil {
		zipFile.Close()
		return nil, fmt.Errorf("error creating zip reader: %w", err)
	}

	name, err := filepath.Abs(path)
	if err != nil {
		name = path
	}
	return &ZipFS{
		Reader: zipReader,
		name:   name,
		rc:     zipFile,
	}, nil
}
