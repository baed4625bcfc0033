package browser

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"comfyui-data-manager/internal/connections"
	"comfyui-data-manager/internal/i18n"
	"comfyui-data-manager/internal/logging"
	"comfyui-data-manager/internal/models"
	"comfyui-data-manager/internal/state"
	"comfyui-data-manager/internal/store"
	"comfyui-data-manager/internal/watcher"
)

// historyMode says how a successful load updates the history.
type historyMode int

const (
	pushHistory historyMode = iota
	jumpHistory
	keepHistory
)

// LoadDirectory lists path on the active connection, or locally, and
// records it in the history. Failures leave the state untouched. The
// channel closes once the response is applied or dropped.
func (c *Controller) LoadDirectory(path string) <-chan struct{} {
	return c.load(path, pushHistory, 0)
}

func (c *Controller) list(ctx context.Context, connID, path string) (*models.ListResponse, error) {
	if connID != "" {
		return c.api.SSHList(ctx, connID, path)
	}
	return c.api.List(ctx, path)
}

func (c *Controller) load(path string, mode historyMode, index int) <-chan struct{} {
	done := make(chan struct{})
	if c.ui == nil {
		close(done)
		return done
	}
	c.gen++
	gen := c.gen
	c.jumping, c.jumpIndex = mode == jumpHistory, index
	ctx := c.mountCtx
	connID := c.conns.ActiveID()
	c.setStatus(c.tr.T("status_loading", i18n.D{"Path": path}))

	go func() {
		resp, err := c.list(ctx, connID, path)
		posted := c.loop.Post(func() {
			defer close(done)
			if gen == c.gen {
				c.jumping = false
			}
			if gen != c.gen || ctx.Err() != nil || c.ui == nil {
				c.log.Debug("dropped superseded listing", logging.String("path", path))
				return
			}
			if err != nil {
				c.log.Warn("failed to load directory", logging.String("path", path), logging.Err(err))
				c.reportError(err)
				return
			}
			c.applyListing(resp, path, connID, mode, index)
		})
		if !posted {
			close(done)
		}
	}()
	return done
}

func (c *Controller) applyListing(resp *models.ListResponse, requested, connID string, mode historyMode, index int) {
	dir := resp.Path
	if dir == "" {
		dir = requested
	}
	changedDir := dir != c.state.CurrentPath
	c.state.SetFiles(resp.Files)
	c.state.CurrentPath = dir
	switch {
	case mode == jumpHistory:
		c.state.SetHistoryIndex(index)
	case mode == pushHistory, len(c.state.History) == 0:
		c.state.PushHistory(dir)
	}
	if changedDir {
		c.state.ClearSelection()
	} else {
		c.pruneSelection()
	}
	if connID == "" {
		if err := c.prefs.Put(store.KeyLastPath, dir); err != nil {
			c.log.Warn("failed to persist last path", logging.Err(err))
		}
	}
	if p := c.state.CurrentPreviewFile; p != "" {
		if _, ok := c.state.FindFile(p); !ok {
			c.clearPreview()
		}
	}

	c.renderListing()
	c.updateNav()
	c.listingStatus()
	c.watchCurrent(dir, connID)
	c.log.Debug("directory loaded", logging.String("path", dir), logging.Int("count", len(resp.Files)))
}

// pruneSelection drops selected paths that are no longer listed.
func (c *Controller) pruneSelection() {
	kept := c.state.SelectedFiles[:0]
	for _, p := range c.state.SelectedFiles {
		if _, ok := c.state.FindFile(p); ok {
			kept = append(kept, p)
		}
	}
	c.state.SelectedFiles = kept
}

func (c *Controller) listingStatus() {
	total := len(c.state.Files)
	if c.filter != "" {
		c.setStatus(c.tr.T("status_filtered", i18n.D{"Shown": len(c.visibleFiles()), "Count": total, "Pattern": c.filter}))
		return
	}
	c.setStatus(c.tr.T("status_loaded", i18n.D{"Count": total, "Path": c.state.CurrentPath}))
}

// resume lists the home of a connection persisted by an earlier run. If
// the backend no longer knows it, browsing falls back to fallback.
func (c *Controller) resume(active connections.Connection, fallback string) <-chan struct{} {
	home := active.HomeDir
	if home == "" {
		home = "."
	}
	c.gen++
	gen := c.gen
	c.jumping = false
	var resp *models.ListResponse
	return c.async(func(ctx context.Context) error {
		var err error
		resp, err = c.api.SSHList(ctx, active.ConnectionID, home)
		return err
	}, func(err error) <-chan struct{} {
		if gen != c.gen {
			return nil
		}
		if err != nil {
			c.log.Info("saved connection is no longer live", logging.String("host", active.Host), logging.Err(err))
			if err := c.conns.ClearActive(); err != nil {
				c.log.Warn("failed to clear active connection", logging.Err(err))
			}
			c.updateConnectionStatus()
			return c.LoadDirectory(fallback)
		}
		c.applyListing(resp, home, active.ConnectionID, pushHistory, 0)
		return nil
	})
}

// NavigateUp loads the parent directory. It does nothing at a root.
func (c *Controller) NavigateUp() <-chan struct{} {
	cur := c.state.CurrentPath
	if cur == "" || cur == "." || cur == "/" {
		return closed()
	}
	parent := state.ParentPath(cur)
	if parent == cur {
		return closed()
	}
	return c.LoadDirectory(parent)
}

// NavigateBack loads the previous history entry without changing the
// history itself. Steps taken while a jump is in flight count from that
// jump's target.
func (c *Controller) NavigateBack() <-chan struct{} {
	idx, ok := c.state.BackFrom(c.historyCursor())
	if !ok {
		return closed()
	}
	return c.load(c.state.History[idx], jumpHistory, idx)
}

// NavigateForward loads the next history entry.
func (c *Controller) NavigateForward() <-chan struct{} {
	idx, ok := c.state.ForwardFrom(c.historyCursor())
	if !ok {
		return closed()
	}
	return c.load(c.state.History[idx], jumpHistory, idx)
}

func (c *Controller) historyCursor() int {
	if c.jumping {
		return c.jumpIndex
	}
	return c.state.HistoryIndex
}

// NavigateHome loads the remote home directory, or the local base.
func (c *Controller) NavigateHome() <-chan struct{} {
	return c.LoadDirectory(c.homePath())
}

func (c *Controller) homePath() string {
	if active := c.conns.Active(); active != nil && active.HomeDir != "" {
		return active.HomeDir
	}
	return "."
}

// Refresh reloads the current directory.
func (c *Controller) Refresh() <-chan struct{} {
	if c.state.CurrentPath == "" {
		return c.LoadDirectory(c.homePath())
	}
	return c.load(c.state.CurrentPath, keepHistory, 0)
}

// ToggleSort sorts by column, flipping the order when it already is the
// sort column.
func (c *Controller) ToggleSort(column state.SortColumn) {
	c.state.ToggleSort(column)
	c.persist(store.KeySortBy, string(c.state.SortBy))
	c.persist(store.KeySortOrder, string(c.state.SortOrder))
	c.renderListing()
}

// ToggleViewMode switches between list and grid.
func (c *Controller) ToggleViewMode() {
	if c.state.ViewMode == state.ViewGrid {
		c.state.ViewMode = state.ViewList
	} else {
		c.state.ViewMode = state.ViewGrid
	}
	c.persist(store.KeyViewMode, string(c.state.ViewMode))
	c.renderListing()
	c.updateNav()
}

func (c *Controller) persist(key string, v any) {
	if err := c.prefs.Put(key, v); err != nil {
		c.log.Warn("failed to persist preference", logging.String("key", key), logging.Err(err))
	}
}

// SetFilter narrows the listing to names matching a glob pattern. A
// pattern without glob characters matches as a substring. Invalid
// patterns show every file.
func (c *Controller) SetFilter(pattern string) {
	pattern = strings.TrimSpace(pattern)
	if pattern != "" && !doublestar.ValidatePattern(expandFilter(pattern)) {
		c.filter = ""
		c.renderListing()
		c.setStatus(c.tr.T("invalid_filter"))
		return
	}
	c.filter = pattern
	c.renderListing()
	c.listingStatus()
}

func expandFilter(pattern string) string {
	p := strings.ToLower(pattern)
	if !strings.ContainsAny(p, "*?[{") {
		p = "*" + p + "*"
	}
	return p
}

// visibleFiles returns the listing after the filter.
func (c *Controller) visibleFiles() []models.FileItem {
	if c.filter == "" {
		return c.state.Files
	}
	pattern := expandFilter(c.filter)
	var out []models.FileItem
	for _, f := range c.state.Files {
		if ok, err := doublestar.Match(pattern, strings.ToLower(f.Name)); err == nil && ok {
			out = append(out, f)
		}
	}
	return out
}

// SetAutoRefresh turns directory watching on or off.
func (c *Controller) SetAutoRefresh(on bool) {
	c.autoRefresh = on
	c.persist(store.KeyAutoRefresh, on)
	if on {
		c.startWatcher()
		return
	}
	if c.watch != nil {
		c.watch.Stop()
	}
}

func (c *Controller) startWatcher() {
	if c.watch == nil {
		w, err := watcher.New(func(dir string) {
			c.loop.Post(func() { c.onDirChanged(dir) })
		}, c.watchOpts)
		if err != nil {
			c.log.Warn("auto refresh unavailable", logging.Err(err))
			return
		}
		c.watch = w
	}
	if c.ui != nil && c.state.CurrentPath != "" {
		c.watchCurrent(c.state.CurrentPath, c.conns.ActiveID())
	}
}

func (c *Controller) watchCurrent(dir, connID string) {
	if c.watch == nil || !c.autoRefresh {
		return
	}
	if connID != "" {
		c.watch.WatchRemote(dir, func(ctx context.Context) ([]models.FileItem, error) {
			resp, err := c.api.SSHList(ctx, connID, dir)
			if err != nil {
				return nil, err
			}
			return resp.Files, nil
		})
		return
	}
	if err := c.watch.WatchLocal(dir); err != nil {
		c.log.Warn("failed to watch directory", logging.String("dir", dir), logging.Err(err))
	}
}

func (c *Controller) onDirChanged(dir string) {
	if c.ui == nil {
		return
	}
	cur := c.state.CurrentPath
	if c.conns.ActiveID() == "" {
		if abs, err := filepath.Abs(cur); err == nil {
			cur = abs
		}
	}
	if cur != dir {
		return
	}
	c.log.Debug("directory changed", logging.String("dir", dir))
	c.Refresh()
}

// OpenPath shows path in the main window: a directory is listed, a file
// is listed with its directory and previewed.
func (c *Controller) OpenPath(path string) <-chan struct{} {
	mounted := c.Mount()
	connID := c.conns.ActiveID()
	var info *models.FileItem
	return c.async(func(ctx context.Context) error {
		<-mounted
		var err error
		info, err = c.api.Info(ctx, path, connID)
		return err
	}, func(err error) <-chan struct{} {
		if err != nil {
			c.log.Warn("failed to open path", logging.String("path", path), logging.Err(err))
			c.reportError(err)
			return nil
		}
		if info.IsDir {
			return c.LoadDirectory(info.Path)
		}
		target := info.Path
		if target == "" {
			target = path
		}
		loaded := c.LoadDirectory(state.ParentPath(target))
		done := make(chan struct{})
		go func() {
			<-loaded
			posted := c.loop.Post(func() {
				defer close(done)
				if c.ui != nil {
					c.selectAndPreview(target)
				}
			})
			if !posted {
				close(done)
			}
		}()
		return done
	})
}
