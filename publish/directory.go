package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Directory 'publishes' files to a local directory, for dry runs and for previewing
// the generated site data.
type Directory struct {
	root string
}

func NewDirectory(root string) *Directory {
	return &Directory{
		root: root,
	}
}

func (d *Directory) Publish(ctx context.Context, path string, content []byte) Result {
	path = strings.TrimPrefix(path, "/")
	file := filepath.Join(d.root, filepath.FromSlash(path))

	if rel, err := filepath.Rel(d.root, file); err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return Result{Path: path, Status: Failed, Err: fmt.Errorf("path '%s' is outside of %s", path, d.root)}
	}

	status := Created
	if _, err := os.Stat(file); err == nil {
		status = Updated
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Result{Path: path, Status: Failed, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(file), 0770); err != nil {
		return Result{Path: path, Status: Failed, Err: err}
	}

	if err := os.WriteFile(file, content, 0660); err != nil {
		return Result{Path: path, Status: Failed, Err: err}
	}

	return Result{Path: path, Status: status}
}
