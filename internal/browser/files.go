package browser

import (
	"context"
	"fmt"
	"strings"

	"comfyui-data-manager/internal/i18n"
	"comfyui-data-manager/internal/logging"
	"comfyui-data-manager/internal/models"
	"comfyui-data-manager/internal/state"
	"comfyui-data-manager/internal/store"
)

// PromptNewFile asks for a name and creates an empty file.
func (c *Controller) PromptNewFile() {
	c.prompt("new_file", "prompt_file_name", func(name string) { c.CreateFile(name) })
}

// PromptNewFolder asks for a name and creates a directory.
func (c *Controller) PromptNewFolder() {
	c.prompt("new_folder", "prompt_folder_name", func(name string) { c.CreateFolder(name) })
}

// CreateFile creates an empty file in the current directory and
// refreshes the listing.
func (c *Controller) CreateFile(name string) <-chan struct{} {
	req := models.CreateFileRequest{
		Directory:    c.state.CurrentPath,
		Filename:     name,
		ConnectionID: c.conns.ActiveID(),
	}
	return c.async(func(ctx context.Context) error {
		_, err := c.api.CreateFile(ctx, req)
		return err
	}, c.created("create file", name))
}

// CreateFolder creates a directory in the current directory.
func (c *Controller) CreateFolder(name string) <-chan struct{} {
	req := models.CreateDirectoryRequest{
		Directory:    c.state.CurrentPath,
		Dirname:      name,
		ConnectionID: c.conns.ActiveID(),
	}
	return c.async(func(ctx context.Context) error {
		_, err := c.api.CreateDirectory(ctx, req)
		return err
	}, c.created("create directory", name))
}

func (c *Controller) created(op, name string) func(error) <-chan struct{} {
	return func(err error) <-chan struct{} {
		if err != nil {
			c.log.Warn(op+" failed", logging.String("name", name), logging.Err(err))
			c.reportError(err)
			return nil
		}
		c.log.Info(op, logging.String("dir", c.state.CurrentPath), logging.String("name", name))
		c.toast(c.tr.T("created", i18n.D{"Name": name}), "success")
		return c.Refresh()
	}
}

// PromptDelete confirms and deletes the selection.
func (c *Controller) PromptDelete() {
	paths := append([]string(nil), c.state.SelectedFiles...)
	if len(paths) == 0 {
		c.setStatus(c.tr.T("nothing_selected"))
		return
	}
	c.confirm("delete", c.tr.T("confirm_delete", i18n.D{"Count": len(paths)}), func() {
		c.Delete(paths)
	})
}

// Delete removes paths, moving them to the trash when enabled. Floating
// windows and the preview of deleted files are closed. The listing is
// refreshed even after a partial failure.
func (c *Controller) Delete(paths []string) <-chan struct{} {
	if len(paths) == 0 {
		return closed()
	}
	connID := c.conns.ActiveID()
	useTrash := c.useTrash && connID == ""
	var removed []string
	return c.async(func(ctx context.Context) error {
		for _, p := range paths {
			if err := c.api.Delete(ctx, p, useTrash, connID); err != nil {
				return fmt.Errorf("%s: %w", state.BaseName(p), err)
			}
			removed = append(removed, p)
		}
		return nil
	}, func(err error) <-chan struct{} {
		for _, p := range removed {
			if w := c.windows.FindOn(connID, p); w != nil {
				c.windows.Close(w)
			}
			if c.state.CurrentPreviewFile == p {
				c.clearPreview()
			}
		}
		if len(removed) > 0 {
			c.log.Info("deleted", logging.Int("count", len(removed)), logging.String("dir", c.state.CurrentPath))
			c.toast(c.tr.T("deleted", i18n.D{"Count": len(removed)}), "success")
		}
		if err != nil {
			c.log.Warn("delete failed", logging.Err(err))
			c.reportError(err)
		}
		return c.Refresh()
	})
}

// CopyPaths puts the selected paths, or the current directory when
// nothing is selected, on the clipboard one per line.
func (c *Controller) CopyPaths() <-chan struct{} {
	if c.clipboard == nil {
		return closed()
	}
	paths := c.state.SelectedFiles
	if len(paths) == 0 {
		paths = []string{c.state.CurrentPath}
	}
	text := strings.Join(paths, "\n")
	return c.async(func(context.Context) error {
		return c.clipboard(text)
	}, func(err error) <-chan struct{} {
		if err != nil {
			c.log.Warn("clipboard write failed", logging.Err(err))
			c.reportError(err)
			return nil
		}
		c.toast(c.tr.T("copied_path", i18n.D{"Count": len(paths)}), "success")
		return nil
	})
}

// UseTrash reports whether local deletes go to the trash.
func (c *Controller) UseTrash() bool { return c.useTrash }

// SetUseTrash changes and persists the trash preference.
func (c *Controller) SetUseTrash(on bool) {
	c.useTrash = on
	c.persist(store.KeyUseTrash, on)
}
