// Package filestore keeps uploaded files on the local disk
package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Daskott/raksha/server/apperr"
	"github.com/Daskott/raksha/utils"
)

type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	err := utils.CreateDirIfNotExist(dir)
	if err != nil {
		return nil, fmt.Errorf("NewLocal: %v", err)
	}

	return &Local{dir: dir}, nil
}

// Save writes r to a file called name in the store's directory & returns its path
func (l *Local) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	filePath, err := l.path(name)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("os.OpenFile: %v", err)
	}

	if _, err = io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(filePath)
		return "", fmt.Errorf("io.Copy: %v", err)
	}

	if err = f.Close(); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("f.Close: %v", err)
	}

	return filePath, nil
}

func (l *Local) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	f, err := os.Open(ref)
	if os.IsNotExist(err) {
		return nil, apperr.Wrap(err, apperr.NotFound, "document file not found")
	}
	if err != nil {
		return nil, fmt.Errorf("os.Open: %v", err)
	}

	return f, nil
}

// Delete removes the file at ref. Deleting a missing file is not an error.
func (l *Local) Delete(ctx context.Context, ref string) error {
	err := os.Remove(ref)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("os.Remove: %v", err)
	}

	return nil
}

// List returns the path of every file in the store's directory
func (l *Local) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("os.ReadDir: %v", err)
	}

	paths := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(l.dir, entry.Name()))
	}

	return paths, nil
}

func (l *Local) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", apperr.Errorf(apperr.Validation, "invalid file name %q", name)
	}

	return filepath.Join(l.dir, name), nil
}
