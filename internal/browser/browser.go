// Package browser is the main data manager window: the directory listing
// with its navigation and sorting, file operations, the inline preview
// pane and the SSH and settings dialogs. Floating previews are delegated
// to the window manager.
package browser

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"comfyui-data-manager/internal/connections"
	"comfyui-data-manager/internal/dom"
	apperrors "comfyui-data-manager/internal/errors"
	"comfyui-data-manager/internal/i18n"
	"comfyui-data-manager/internal/logging"
	"comfyui-data-manager/internal/models"
	"comfyui-data-manager/internal/preview"
	"comfyui-data-manager/internal/state"
	"comfyui-data-manager/internal/store"
	"comfyui-data-manager/internal/theme"
	"comfyui-data-manager/internal/watcher"
	"comfyui-data-manager/internal/window"
)

const toastDuration = 4 * time.Second

// Backend is the subset of the /dm/* client the browser uses.
type Backend interface {
	List(ctx context.Context, path string) (*models.ListResponse, error)
	SSHList(ctx context.Context, connectionID, path string) (*models.ListResponse, error)
	PreviewURL(path, connectionID string) string
	FetchBytes(ctx context.Context, path, connectionID string) ([]byte, error)
	Info(ctx context.Context, path, connectionID string) (*models.FileItem, error)
	CreateFile(ctx context.Context, req models.CreateFileRequest) (*models.CreateResponse, error)
	CreateDirectory(ctx context.Context, req models.CreateDirectoryRequest) (*models.CreateResponse, error)
	Delete(ctx context.Context, path string, useTrash bool, connectionID string) error
	SSHConnect(ctx context.Context, req models.SSHConnectRequest) (*models.SSHConnection, error)
	SSHDisconnect(ctx context.Context, connectionID string) error
}

// Prefs is the persisted preference store.
type Prefs interface {
	connections.Prefs
	GetString(key, def string) string
	GetBool(key string, def bool) bool
}

// Options wires a Controller.
type Options struct {
	Document    *dom.Document
	Loop        *dom.Loop
	Backend     Backend
	Prefs       Prefs
	Connections *connections.State
	Translator  *i18n.Localizer
	Limits      preview.Limits

	// Defaults used until the user changes them.
	DefaultView state.ViewMode
	UseTrash    bool
	AutoRefresh bool

	// ThemePollInterval is how often host colors are re-read; zero
	// reads them only at mount.
	ThemePollInterval time.Duration
	Watch             watcher.Options

	// SSHHosts are offered in the connect dialog next to saved
	// connections, typically parsed from ~/.ssh/config.
	SSHHosts []connections.Connection

	// Clipboard writes text to the system clipboard. Nil disables
	// copying paths.
	Clipboard func(text string) error
}

// Controller owns the main window. Every method must run on the loop.
type Controller struct {
	ctx       context.Context
	doc       *dom.Document
	loop      *dom.Loop
	api       Backend
	prefs     Prefs
	conns     *connections.State
	tr        *i18n.Localizer
	log       *zap.Logger
	themePoll time.Duration
	watchOpts watcher.Options
	sshHosts  []connections.Connection
	clipboard func(string) error

	state    *state.FileManagerState
	renderer *preview.Renderer
	windows  *window.Manager
	watch    *watcher.Watcher
	theme    theme.Snapshot

	gen           uint64
	jumping       bool // a back/forward load is in flight
	jumpIndex     int
	mountCtx      context.Context
	unmount       context.CancelFunc
	previewCancel context.CancelFunc
	filter        string
	useTrash      bool
	autoRefresh   bool

	ui     *chrome
	dialog *dialog
}

// New creates the controller and the floating window layer. The main
// window itself is built by Mount.
func New(ctx context.Context, opts Options) *Controller {
	c := &Controller{
		ctx:       ctx,
		doc:       opts.Document,
		loop:      opts.Loop,
		api:       opts.Backend,
		prefs:     opts.Prefs,
		conns:     opts.Connections,
		tr:        opts.Translator,
		log:       logging.Named("browser"),
		themePoll: opts.ThemePollInterval,
		watchOpts: opts.Watch,
		sshHosts:  opts.SSHHosts,
		clipboard: opts.Clipboard,
		state:     state.New(),
		theme:     theme.Default,
	}

	if opts.DefaultView == state.ViewGrid {
		c.state.ViewMode = state.ViewGrid
	}
	if v := state.ViewMode(c.prefs.GetString(store.KeyViewMode, "")); v == state.ViewList || v == state.ViewGrid {
		c.state.ViewMode = v
	}
	if by := state.SortColumn(c.prefs.GetString(store.KeySortBy, "")); by == state.SortName || by == state.SortSize || by == state.SortModified {
		c.state.SortBy = by
	}
	if order := state.SortOrder(c.prefs.GetString(store.KeySortOrder, "")); order == state.Asc || order == state.Desc {
		c.state.SortOrder = order
	}
	c.useTrash = c.prefs.GetBool(store.KeyUseTrash, opts.UseTrash)
	c.autoRefresh = c.prefs.GetBool(store.KeyAutoRefresh, opts.AutoRefresh)

	c.renderer = preview.New(c.doc, c.loop, c.tr, opts.Limits)
	c.windows = window.NewManager(ctx, window.Options{
		Document:   c.doc,
		Renderer:   c.renderer,
		Translator: c.tr,
		Source:     c.source,
		Connection: c.conns.ActiveID,
		Status:     c.setStatus,
	})
	return c
}

// State exposes the file manager state for inspection.
func (c *Controller) State() *state.FileManagerState { return c.state }

// Windows returns the floating window manager.
func (c *Controller) Windows() *window.Manager { return c.windows }

// Mounted reports whether the main window is shown.
func (c *Controller) Mounted() bool { return c.ui != nil }

// Main returns the main window element, or nil when unmounted.
func (c *Controller) Main() *html.Node {
	if c.ui == nil {
		return nil
	}
	return c.ui.main
}

// Mount builds and shows the main window, then loads the starting
// directory: the remote home of a still-live connection, or the last
// local path. The channel closes when that load settles.
func (c *Controller) Mount() <-chan struct{} {
	if c.ui != nil {
		c.doc.Focus(c.ui.pathInput)
		return closed()
	}
	c.mountCtx, c.unmount = context.WithCancel(c.ctx)
	c.build()
	c.theme.Apply(c.doc.Root())
	c.requestTheme()
	if c.themePoll > 0 {
		go theme.Poll(c.mountCtx, c.themePoll, func() { c.loop.Post(c.requestTheme) })
	}
	c.updateConnectionStatus()
	if c.autoRefresh {
		c.startWatcher()
	}
	c.log.Info("main window mounted")

	last := c.prefs.GetString(store.KeyLastPath, ".")
	if active := c.conns.Active(); active != nil {
		return c.resume(*active, last)
	}
	return c.LoadDirectory(last)
}

// Unmount removes the main window and cancels its in-flight requests.
// Floating windows stay open.
func (c *Controller) Unmount() {
	if c.ui == nil {
		return
	}
	c.unmount()
	if c.previewCancel != nil {
		c.previewCancel()
		c.previewCancel = nil
	}
	c.closeDialog()
	if c.watch != nil {
		c.watch.Stop()
	}
	c.doc.Remove(c.ui.main)
	c.ui = nil
	c.state.CurrentPreviewFile = ""
	c.log.Info("main window unmounted")
}

// Toggle mounts the main window, or unmounts it when shown.
func (c *Controller) Toggle() <-chan struct{} {
	if c.ui != nil {
		c.Unmount()
		return closed()
	}
	return c.Mount()
}

// Close tears everything down, floating windows included.
func (c *Controller) Close() {
	c.Unmount()
	c.windows.CloseAll()
	if c.watch != nil {
		if err := c.watch.Close(); err != nil {
			c.log.Warn("failed to close watcher", logging.Err(err))
		}
		c.watch = nil
	}
}

// ApplyTheme recomputes the theme from host CSS custom properties.
func (c *Controller) ApplyTheme(vars map[string]string) {
	c.theme = theme.FromVars(vars)
	c.theme.Apply(c.doc.Root())
}

// Theme returns the current theme snapshot.
func (c *Controller) Theme() theme.Snapshot { return c.theme }

func (c *Controller) requestTheme() {
	c.doc.Exec(c.doc.Root(), "readTheme", strings.Join(theme.HostVars, ","))
}

func (c *Controller) setStatus(msg string) {
	if c.ui == nil {
		return
	}
	c.doc.SetText(c.ui.status, msg)
}

// Status returns the status line text.
func (c *Controller) Status() string {
	if c.ui == nil {
		return ""
	}
	return dom.TextContent(c.ui.status)
}

// toast shows a transient message; kind is "info", "success" or "error".
func (c *Controller) toast(msg, kind string) {
	if c.ui == nil {
		return
	}
	n := c.doc.El("div", dom.Class("dm-toast", "dm-toast-"+kind), dom.Text(msg))
	c.doc.Append(c.ui.toasts, n)
	time.AfterFunc(toastDuration, func() {
		c.loop.Post(func() { c.doc.Remove(n) })
	})
}

func (c *Controller) reportError(err error) {
	msg := apperrors.UserMessage(err)
	c.setStatus(c.tr.T("status_error", i18n.D{"Error": msg}))
	c.toast(msg, "error")
}

// async runs work off the loop and hands its error to apply on the loop.
// apply may return a follow-up the result channel also waits for. Results
// arriving after unmount are dropped.
func (c *Controller) async(work func(ctx context.Context) error, apply func(err error) <-chan struct{}) <-chan struct{} {
	done := make(chan struct{})
	if c.ui == nil {
		close(done)
		return done
	}
	ctx := c.mountCtx
	go func() {
		err := work(ctx)
		posted := c.loop.Post(func() {
			if ctx.Err() != nil || c.ui == nil {
				close(done)
				return
			}
			next := apply(err)
			if next == nil {
				close(done)
				return
			}
			go func() {
				<-next
				close(done)
			}()
		})
		if !posted {
			close(done)
		}
	}()
	return done
}

func closed() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
