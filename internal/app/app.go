// Package app binds the data manager to the Wails runtime. It owns the
// backend, the UI loop and the browser controller, forwards shell events
// onto the loop and emits a render frame after each batch of work.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"comfyui-data-manager/internal/api"
	"comfyui-data-manager/internal/browser"
	"comfyui-data-manager/internal/config"
	"comfyui-data-manager/internal/connections"
	"comfyui-data-manager/internal/dom"
	"comfyui-data-manager/internal/extension"
	"comfyui-data-manager/internal/i18n"
	"comfyui-data-manager/internal/logging"
	"comfyui-data-manager/internal/preview"
	"comfyui-data-manager/internal/remote"
	"comfyui-data-manager/internal/secret"
	"comfyui-data-manager/internal/server"
	"comfyui-data-manager/internal/state"
	"comfyui-data-manager/internal/store"
)

const (
	// RenderEvent carries a dom.Frame to the shell.
	RenderEvent = "dm:render"

	// ThemeEvent is the shell's reply to the readTheme command.
	ThemeEvent = "theme"

	shutdownTimeout = 5 * time.Second
)

// Options overrides parts of the wiring. Zero values use the real thing.
type Options struct {
	Secrets secret.Store
}

// App struct. Every exported method is bound to the shell.
type App struct {
	// Menu is the application menu carrying the registered commands.
	Menu *menu.Menu

	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config
	log    *zap.Logger

	prefs   *store.Store
	srv     *server.Server
	baseURL string
	tr      *i18n.Localizer

	loop     *dom.Loop
	doc      *dom.Document
	browser  *browser.Controller
	ext      *extension.Extension
	host     *extension.MenuHost
	emit     func(dom.Frame)
	lastHTML string

	mu         sync.Mutex
	runtimeCtx context.Context
}

// NewApp opens the preference store, starts the backend and the UI loop,
// and registers the extension. The application menu is ready before
// Startup so it can be passed to wails.Run.
func NewApp(cfg *config.Config, opts Options) (*App, error) {
	a := &App{cfg: cfg, log: logging.Named("app")}

	prefs, err := store.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	a.prefs = prefs

	secrets := opts.Secrets
	if secrets == nil {
		var keyring bool
		secrets, keyring = secret.Open()
		if !keyring {
			a.log.Warn("OS keyring unavailable, SSH passwords are kept in memory")
		}
	}
	conns, err := connections.Load(prefs, secrets)
	if err != nil {
		a.log.Warn("failed to restore connections", logging.Err(err))
	}

	a.srv, err = server.New(server.Options{
		BaseDir:  cfg.Server.BaseDir,
		TrashDir: cfg.Server.TrashDir,
		Origins:  cfg.Server.AllowedOrigins,
		Remote: remote.NewManager(remote.Options{
			KnownHostsPath: cfg.SSH.KnownHosts,
			ConnectTimeout: cfg.SSH.ConnectTimeout,
		}),
	})
	if err != nil {
		prefs.Close()
		return nil, err
	}
	a.baseURL, err = a.srv.Start(cfg.Server.Listen)
	if err != nil {
		prefs.Close()
		return nil, err
	}

	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.tr = i18n.New(prefs.GetString(store.KeyLocale, cfg.UI.Locale))
	a.doc = dom.NewDocument()
	a.loop = dom.NewLoop()
	a.loop.Idle = a.flush
	a.browser = browser.New(a.ctx, browser.Options{
		Document:    a.doc,
		Loop:        a.loop,
		Backend:     api.New(api.Config{BaseURL: a.baseURL}),
		Prefs:       prefs,
		Connections: conns,
		Translator:  a.tr,
		Limits: preview.Limits{
			PanelMaxChars:    cfg.Preview.PanelMaxChars,
			FloatingMaxChars: cfg.Preview.FloatingMaxChars,
			TableMaxRows:     cfg.Preview.TableMaxRows,
		},
		DefaultView:       state.ViewMode(cfg.UI.DefaultView),
		UseTrash:          cfg.UI.UseTrash,
		ThemePollInterval: cfg.UI.ThemePollInterval,
		SSHHosts:          connections.LoadSSHConfig(cfg.SSH.ConfigFile),
		Clipboard:         a.copyText,
	})
	go a.loop.Run(a.ctx)

	a.ext = extension.New(opener{a}, a.tr)
	a.host = extension.NewMenuHost(a.tr.T("app_title"))
	a.ext.Register(a.host)
	a.Menu = a.host.Menu()
	return a, nil
}

// Startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	a.runtimeCtx = ctx
	a.mu.Unlock()
	a.setEmitter(func(f dom.Frame) {
		runtime.EventsEmit(ctx, RenderEvent, f)
	})
	a.log.Info("app started", logging.String("backend", a.baseURL))
}

// DomReady opens the main window once the shell can receive frames.
func (a *App) DomReady(ctx context.Context) {
	a.Open()
}

// Shutdown closes every window, the backend and the preference store.
func (a *App) Shutdown(ctx context.Context) {
	a.loop.Call(a.browser.Close)
	a.cancel()

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.srv.Shutdown(sctx); err != nil {
		a.log.Warn("backend shutdown failed", logging.Err(err))
	}
	if err := a.prefs.Close(); err != nil {
		a.log.Warn("failed to close preferences", logging.Err(err))
	}
	a.log.Info("app stopped")
}

// setEmitter replaces the frame sink and forces a full frame.
func (a *App) setEmitter(emit func(dom.Frame)) {
	a.loop.Post(func() {
		a.emit = emit
		a.lastHTML = ""
		a.flush()
	})
}

// BackendURL is the root of the /dm/* API.
func (a *App) BackendURL() string {
	return a.baseURL
}

// HighlightCSS returns the stylesheet for highlighted code.
func (a *App) HighlightCSS() string {
	return preview.HighlightCSS()
}

// Resync asks for a full frame, e.g. after the shell reloaded.
func (a *App) Resync() {
	a.loop.Post(func() {
		a.lastHTML = ""
		a.flush()
	})
}

// Dispatch forwards a shell event to the document.
func (a *App) Dispatch(ev dom.Event) {
	a.loop.Post(func() {
		if ev.Type == ThemeEvent {
			a.applyTheme(ev.Value)
			return
		}
		if !a.doc.Dispatch(ev) {
			a.log.Debug("unhandled event", logging.String("target", ev.Target), logging.String("type", ev.Type))
		}
	})
}

func (a *App) applyTheme(raw string) {
	var vars map[string]string
	if err := json.Unmarshal([]byte(raw), &vars); err != nil {
		a.log.Warn("bad theme payload", logging.Err(err))
		return
	}
	a.browser.ApplyTheme(vars)
}

// Open shows the main window.
func (a *App) Open() {
	a.loop.Post(func() { a.browser.Mount() })
}

// OpenPath shows the main window at path, previewing it when it is a file.
func (a *App) OpenPath(path string) {
	a.loop.Post(func() { a.browser.OpenPath(path) })
}

// Toggle shows or hides the main window.
func (a *App) Toggle() {
	a.loop.Post(func() { a.browser.Toggle() })
}

// RunCommand runs a registered command by id.
func (a *App) RunCommand(id string) error {
	if !a.host.Run(id) {
		return fmt.Errorf("unknown command %q", id)
	}
	return nil
}

// NodeMenu lists the node context menu entries.
func (a *App) NodeMenu() []string {
	return a.host.NodeMenuLabels()
}

// RunNodeMenu runs entry index of the node context menu for nodeID.
func (a *App) RunNodeMenu(index int, nodeID string) error {
	if !a.host.RunNodeItem(index, nodeID) {
		return fmt.Errorf("no node menu entry %d", index)
	}
	return nil
}

// NodeCreated reports a new graph node and returns it decorated.
func (a *App) NodeCreated(n extension.Node) extension.Node {
	return *a.ext.NodeCreated(&n)
}

// NodeRemoved reports a deleted graph node.
func (a *App) NodeRemoved(id string) {
	a.ext.NodeRemoved(id)
}

// NodeConnected reports a new input link and returns the format the
// node switched to, or "".
func (a *App) NodeConnected(nodeID string, input int, link extension.Link) string {
	return a.ext.Connect(nodeID, input, link)
}

// WidgetPressed reports a click on a node button widget.
func (a *App) WidgetPressed(nodeID, widget string) {
	a.ext.WidgetPressed(nodeID, widget)
}

// flush renders the document when it changed or has pending commands.
// It runs on the loop.
func (a *App) flush() {
	if a.emit == nil {
		return
	}
	if len(a.doc.Pending()) == 0 {
		html := dom.OuterHTML(a.doc.Root())
		if html == a.lastHTML {
			return
		}
	}
	f, err := a.doc.Render()
	if err != nil {
		a.log.Error("render failed", logging.Err(err))
		return
	}
	a.lastHTML = f.HTML
	a.emit(f)
}

func (a *App) copyText(text string) error {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx == nil {
		return errors.New("clipboard is not available before startup")
	}
	return runtime.ClipboardSetText(ctx, text)
}

// opener moves extension callbacks, which arrive on host threads, onto
// the loop.
type opener struct{ a *App }

func (o opener) Open() { o.a.Open() }

func (o opener) OpenPath(path string) { o.a.OpenPath(path) }
