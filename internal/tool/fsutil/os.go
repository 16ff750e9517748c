package fsutil

import (
	"io"
	"os"
)

// OSFileSystem implements the read-only filesystem operations the search and
// process tools need, backed by the local OS.
type OSFileSystem struct{}

// NewOSFileSystem creates a new OSFileSystem.
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

// Stat returns file info for a path (follows symlinks).
func (r *OSFileSystem) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// ReadDir lists the entries of a directory in lexical order.
func (r *OSFileSystem) ReadDir(path string) ([]os.DirEntry, error) {
	return os.ReadDir(path)
}

// ReadFile reads the whole file.
func (r *OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// ReadFileLimit reads the whole file unless it is larger than maxBytes, in
// which case it returns a *FileTooLargeError without reading the content.
func (r *OSFileSystem) ReadFileLimit(path string, maxBytes int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() > maxBytes {
		return nil, &FileTooLargeError{Path: path, Size: info.Size(), Max: maxBytes}
	}

	// The file may grow between Stat and Read; never buffer more than the limit.
	content, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > maxBytes {
		return nil, &FileTooLargeError{Path: path, Size: int64(len(content)), Max: maxBytes}
	}
	return content, nil
}

// UserHomeDir returns the current user's home directory.
func (r *OSFileSystem) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}
