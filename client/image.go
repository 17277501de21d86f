package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// OpenImage opens the file to upload and reports its size for progress bars.
func OpenImage(path string) (*os.File, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, err
	}
	if info.IsDir() {
		file.Close()
		return nil, 0, fmt.Errorf("%s is a directory", path)
	}
	return file, info.Size(), nil
}

// SaveImage writes png to path. An empty path saves under name in the
// working directory.
func SaveImage(path, name string, png []byte) (string, error) {
	if len(png) == 0 {
		return "", errors.New("nothing to save")
	}
	if path == "" {
		path = filepath.Clean(name)
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
