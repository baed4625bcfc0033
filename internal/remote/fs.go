package remote

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/pkg/sftp"

	apperrors "comfyui-data-manager/internal/errors"
	"comfyui-data-manager/internal/logging"
	"comfyui-data-manager/internal/models"
)

// resolvePath expands "", ".", "~" and "~/..." against the session's
// working directory.
func resolvePath(c *sftp.Client, p string) (string, error) {
	switch {
	case p == "" || p == "." || p == "~":
		return c.Getwd()
	case strings.HasPrefix(p, "~/"), strings.HasPrefix(p, "./"):
		wd, err := c.Getwd()
		if err != nil {
			return "", err
		}
		return path.Join(wd, p[2:]), nil
	}
	return path.Clean(p), nil
}

func toItem(dir string, fi os.FileInfo) models.FileItem {
	item := models.FileItem{
		Name:     fi.Name(),
		Path:     path.Join(dir, fi.Name()),
		Size:     fi.Size(),
		Modified: fi.ModTime(),
		IsDir:    fi.IsDir(),
	}
	if !item.IsDir {
		item.Type = strings.TrimPrefix(path.Ext(fi.Name()), ".")
	}
	return item
}

func wrapFSError(op, p string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return apperrors.NewRemoteError(op, p, "Path not found", err)
	}
	if errors.Is(err, fs.ErrPermission) {
		return apperrors.NewRemoteError(op, p, "Permission denied", err)
	}
	return apperrors.NewRemoteError(op, p, fmt.Sprintf("%s failed: %v", op, err), err)
}

// List reads a remote directory and returns its resolved path.
func (m *Manager) List(id, dir string) (string, []models.FileItem, error) {
	c, err := m.sftpClient(id)
	if err != nil {
		return "", nil, err
	}
	resolved, err := resolvePath(c, dir)
	if err != nil {
		return "", nil, wrapFSError("list", dir, err)
	}
	entries, err := c.ReadDir(resolved)
	if err != nil {
		return "", nil, wrapFSError("list", resolved, err)
	}

	files := make([]models.FileItem, 0, len(entries))
	for _, e := range entries {
		if e.Name() == "." || e.Name() == ".." {
			continue
		}
		files = append(files, toItem(resolved, e))
	}
	return resolved, files, nil
}

// Stat returns metadata for a remote path.
func (m *Manager) Stat(id, p string) (models.FileItem, error) {
	c, err := m.sftpClient(id)
	if err != nil {
		return models.FileItem{}, err
	}
	resolved, err := resolvePath(c, p)
	if err != nil {
		return models.FileItem{}, wrapFSError("info", p, err)
	}
	fi, err := c.Stat(resolved)
	if err != nil {
		return models.FileItem{}, wrapFSError("info", resolved, err)
	}
	item := toItem(path.Dir(resolved), fi)
	item.Path = resolved
	return item, nil
}

// Open opens a remote file for reading. The caller closes it.
func (m *Manager) Open(id, p string) (*sftp.File, os.FileInfo, error) {
	c, err := m.sftpClient(id)
	if err != nil {
		return nil, nil, err
	}
	resolved, err := resolvePath(c, p)
	if err != nil {
		return nil, nil, wrapFSError("preview", p, err)
	}
	f, err := c.Open(resolved)
	if err != nil {
		return nil, nil, wrapFSError("preview", resolved, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, wrapFSError("preview", resolved, err)
	}
	if fi.IsDir() {
		f.Close()
		return nil, nil, apperrors.NewRemoteError("preview", resolved, "Path is a directory", nil)
	}
	return f, fi, nil
}

// CreateFile writes a new file; an existing file is an error.
func (m *Manager) CreateFile(id, dir, name, content string) (string, error) {
	c, err := m.sftpClient(id)
	if err != nil {
		return "", err
	}
	resolved, err := resolvePath(c, dir)
	if err != nil {
		return "", wrapFSError("create file", dir, err)
	}
	target := path.Join(resolved, name)
	if _, err := c.Stat(target); err == nil {
		return "", apperrors.NewRemoteError("create file", target, "File already exists", fs.ErrExist)
	}

	f, err := c.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL)
	if err != nil {
		return "", wrapFSError("create file", target, err)
	}
	defer f.Close()
	if _, err := f.Write([]byte(content)); err != nil {
		return "", wrapFSError("create file", target, err)
	}
	return target, nil
}

// Mkdir creates a new directory; an existing entry is an error.
func (m *Manager) Mkdir(id, dir, name string) (string, error) {
	c, err := m.sftpClient(id)
	if err != nil {
		return "", err
	}
	resolved, err := resolvePath(c, dir)
	if err != nil {
		return "", wrapFSError("create directory", dir, err)
	}
	target := path.Join(resolved, name)
	if _, err := c.Stat(target); err == nil {
		return "", apperrors.NewRemoteError("create directory", target, "Directory already exists", fs.ErrExist)
	}
	if err := c.Mkdir(target); err != nil {
		return "", wrapFSError("create directory", target, err)
	}
	return target, nil
}

// Remove deletes a file, or a directory with everything under it.
func (m *Manager) Remove(id, p string) error {
	c, err := m.sftpClient(id)
	if err != nil {
		return err
	}
	resolved, err := resolvePath(c, p)
	if err != nil {
		return wrapFSError("delete", p, err)
	}
	if resolved == "/" {
		return apperrors.NewValidationError("delete", "Refusing to delete the root directory")
	}
	fi, err := c.Stat(resolved)
	if err != nil {
		return wrapFSError("delete", resolved, err)
	}
	if !fi.IsDir() {
		if err := c.Remove(resolved); err != nil {
			return wrapFSError("delete", resolved, err)
		}
		return nil
	}

	var files, dirs []string
	walker := c.Walk(resolved)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			logging.Warn("remote walk error", logging.String("path", walker.Path()), logging.Err(err))
			continue
		}
		if walker.Path() == resolved {
			continue
		}
		if walker.Stat().IsDir() {
			// deepest first
			dirs = append([]string{walker.Path()}, dirs...)
		} else {
			files = append(files, walker.Path())
		}
	}
	for _, f := range files {
		if err := c.Remove(f); err != nil {
			logging.Warn("failed to delete remote file", logging.String("path", f), logging.Err(err))
		}
	}
	for _, d := range dirs {
		if err := c.RemoveDirectory(d); err != nil {
			logging.Warn("failed to delete remote directory", logging.String("path", d), logging.Err(err))
		}
	}
	if err := c.RemoveDirectory(resolved); err != nil {
		return wrapFSError("delete", resolved, err)
	}
	return nil
}
