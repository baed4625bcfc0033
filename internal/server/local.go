package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "comfyui-data-manager/internal/errors"
	"comfyui-data-manager/internal/logging"
	"comfyui-data-manager/internal/models"
)

// localFS serves the local side of /dm/*. Relative paths resolve against
// baseDir and "~" against the user's home directory.
type localFS struct {
	baseDir  string
	trashDir string
}

func newLocalFS(baseDir, trashDir string) (*localFS, error) {
	base, err := expandHome(baseDir)
	if err != nil {
		return nil, err
	}
	base, err = filepath.Abs(base)
	if err != nil {
		return nil, apperrors.NewConfigError("server", "invalid base directory", err)
	}
	return &localFS{baseDir: base, trashDir: trashDir}, nil
}

func expandHome(p string) (string, error) {
	if p == "~" {
		return os.UserHomeDir()
	}
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, p[2:]), nil
	}
	return p, nil
}

// resolve maps a request path onto the filesystem.
func (l *localFS) resolve(p string) (string, error) {
	if p == "" {
		p = "."
	}
	p, err := expandHome(p)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(l.baseDir, p)
	}
	return filepath.Clean(p), nil
}

func fsError(op, p string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return apperrors.NewFileSystemError(op, p, notFoundMessage(op), err)
	case errors.Is(err, fs.ErrPermission):
		return apperrors.NewFileSystemError(op, p, "Permission denied", err)
	case errors.Is(err, fs.ErrExist):
		return apperrors.NewFileSystemError(op, p, "Already exists", err)
	}
	return apperrors.NewFileSystemError(op, p, fmt.Sprintf("%s failed: %v", op, err), err)
}

func notFoundMessage(op string) string {
	if op == "list" {
		return "Directory not found"
	}
	return "File not found"
}

func itemFor(p string, fi os.FileInfo) models.FileItem {
	item := models.FileItem{
		Name:     fi.Name(),
		Path:     p,
		Size:     fi.Size(),
		Modified: fi.ModTime(),
		IsDir:    fi.IsDir(),
	}
	if !item.IsDir {
		item.Type = strings.TrimPrefix(filepath.Ext(fi.Name()), ".")
	}
	return item
}

func (l *localFS) list(p string) (string, []models.FileItem, error) {
	dir, err := l.resolve(p)
	if err != nil {
		return "", nil, err
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return "", nil, fsError("list", dir, err)
	}
	if !fi.IsDir() {
		return "", nil, apperrors.NewValidationError("list", "Path is not a directory")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", nil, fsError("list", dir, err)
	}
	files := make([]models.FileItem, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, itemFor(filepath.Join(dir, e.Name()), info))
	}
	return dir, files, nil
}

func (l *localFS) info(p string) (models.FileItem, error) {
	target, err := l.resolve(p)
	if err != nil {
		return models.FileItem{}, err
	}
	fi, err := os.Stat(target)
	if err != nil {
		return models.FileItem{}, fsError("info", target, err)
	}
	return itemFor(target, fi), nil
}

// open returns a regular file for preview.
func (l *localFS) open(p string) (*os.File, os.FileInfo, error) {
	target, err := l.resolve(p)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		return nil, nil, fsError("preview", target, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fsError("preview", target, err)
	}
	if fi.IsDir() {
		f.Close()
		return nil, nil, apperrors.NewValidationError("preview", "Path is a directory")
	}
	return f, fi, nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return apperrors.NewValidationError("create", fmt.Sprintf("Invalid name: %q", name))
	}
	return nil
}

func (l *localFS) createFile(dir, name, content string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	parent, err := l.resolve(dir)
	if err != nil {
		return "", err
	}
	target := filepath.Join(parent, name)
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fsError("create file", target, err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return "", fsError("create file", target, err)
	}
	return target, nil
}

func (l *localFS) createDirectory(dir, name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	parent, err := l.resolve(dir)
	if err != nil {
		return "", err
	}
	target := filepath.Join(parent, name)
	if err := os.Mkdir(target, 0755); err != nil {
		return "", fsError("create directory", target, err)
	}
	return target, nil
}

// remove deletes p, or moves it under trashDir when useTrash is set.
func (l *localFS) remove(p string, useTrash bool) error {
	target, err := l.resolve(p)
	if err != nil {
		return err
	}
	if target == l.baseDir || target == filepath.Dir(target) {
		return apperrors.NewValidationError("delete", "Refusing to delete the base directory")
	}
	if _, err := os.Lstat(target); err != nil {
		return fsError("delete", target, err)
	}

	if !useTrash || l.trashDir == "" {
		if err := os.RemoveAll(target); err != nil {
			return fsError("delete", target, err)
		}
		return nil
	}

	if err := os.MkdirAll(l.trashDir, 0755); err != nil {
		return fsError("delete", l.trashDir, err)
	}
	dst := filepath.Join(l.trashDir, filepath.Base(target))
	if _, err := os.Lstat(dst); err == nil {
		dst = uniquePath(dst)
	}
	if err := os.Rename(target, dst); err != nil {
		return fsError("delete", target, err)
	}
	logging.Debug("moved to trash", logging.String("path", target), logging.String("trash", dst))
	return nil
}

// uniquePath appends " (1)", " (2)", ... before the extension until the
// name is free.
func uniquePath(p string) string {
	dir := filepath.Dir(p)
	base := filepath.Base(p)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	for i := 1; i < 1000; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", name, i, ext))
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%d%s", name, time.Now().UnixNano(), ext))
}
