package http

import (
	"net/http"
	"os"
)

// fileSystem serves regular files only. Directories are reported as missing,
// so nothing under the static prefix is ever listed.
type fileSystem struct {
	fs http.FileSystem
}

// Open implements http.FileSystem
func (f fileSystem) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, os.ErrNotExist
	}

	return file, nil
}
