// Package window manages floating preview windows: opening (at most one
// per connection and path), z-order, minimize/restore through the dock,
// fullscreen and close.
package window

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"comfyui-data-manager/internal/dom"
	"comfyui-data-manager/internal/i18n"
	"comfyui-data-manager/internal/logging"
	"comfyui-data-manager/internal/preview"
)

const (
	baseZ         = 1000
	cascadeStep   = 30
	cascadeSlots  = 8
	defaultWidth  = "720px"
	defaultHeight = "520px"
	dockHeight    = "56px"
	dockPadding   = "6px 10px"
)

// Window is one floating preview. The pointer stays valid as a handle
// after Close, but every operation on a closed window is a no-op.
type Window struct {
	ID        string
	Path      string
	FileName  string
	Category  preview.Category
	Config    preview.FileConfig
	Minimized bool

	// ConnectionID is the SSH connection Path lives on, "" when local.
	ConnectionID string

	node     *html.Node
	content  *html.Node
	toolbar  *html.Node
	fsButton *html.Node

	fullscreen bool
	saved      styleSnapshot
	reflowed   []styleSnapshot
	removeEsc  func()

	z      int
	cancel context.CancelFunc
	loaded <-chan struct{}
	closed bool
}

// Node returns the window element.
func (w *Window) Node() *html.Node { return w.node }

// Content returns the content area.
func (w *Window) Content() *html.Node { return w.content }

// Fullscreen reports whether the window is in fullscreen mode.
func (w *Window) Fullscreen() bool { return w.fullscreen }

// Closed reports whether the window has been closed.
func (w *Window) Closed() bool { return w.closed }

// Loaded is closed once the initial content has been rendered.
func (w *Window) Loaded() <-chan struct{} { return w.loaded }

type styleSnapshot struct {
	node    *html.Node
	raw     string
	present bool
}

func snapshot(n *html.Node) styleSnapshot {
	raw, present := dom.StyleText(n)
	return styleSnapshot{node: n, raw: raw, present: present}
}

func (s styleSnapshot) restore() {
	dom.SetStyleText(s.node, s.raw, s.present)
}

// Options wires a Manager to the rest of the panel.
type Options struct {
	Document   *dom.Document
	Renderer   *preview.Renderer
	Translator *i18n.Localizer
	// Source returns the content source for the active connection.
	Source func() preview.Source
	// Connection returns the active connection id, "" for local files.
	Connection func() string
	// Status receives status-line messages.
	Status func(string)
}

// Manager owns every floating window. All methods must be called on the
// loop that owns the document.
type Manager struct {
	ctx      context.Context
	doc      *dom.Document
	renderer *preview.Renderer
	tr       *i18n.Localizer
	source   func() preview.Source
	conn     func() string
	status   func(string)
	log      *zap.Logger

	layer   *html.Node
	dock    *html.Node
	windows []*Window
	topZ    int
	opened  int
}

// NewManager creates the window layer and the dock under the document
// root. Content loads are cancelled when ctx ends.
func NewManager(ctx context.Context, opts Options) *Manager {
	m := &Manager{
		ctx:      ctx,
		doc:      opts.Document,
		renderer: opts.Renderer,
		tr:       opts.Translator,
		source:   opts.Source,
		conn:     opts.Connection,
		status:   opts.Status,
		log:      logging.Named("window"),
		topZ:     baseZ,
	}
	if m.status == nil {
		m.status = func(string) {}
	}
	if m.conn == nil {
		m.conn = func() string { return "" }
	}
	m.layer = m.doc.El("div", dom.Class("dm-floating-layer"))
	m.dock = m.doc.El("div", dom.Class("dm-dock"))
	m.doc.Append(m.doc.Root(), m.layer)
	m.doc.Append(m.doc.Root(), m.dock)
	m.UpdateDock()
	return m
}

// Dock returns the dock element.
func (m *Manager) Dock() *html.Node { return m.dock }

// Find returns the open window for path on the active connection, or nil.
func (m *Manager) Find(path string) *Window {
	return m.FindOn(m.conn(), path)
}

// FindOn returns the open window for path on connection connID, or nil.
func (m *Manager) FindOn(connID, path string) *Window {
	for _, w := range m.windows {
		if w.ConnectionID == connID && w.Path == path {
			return w
		}
	}
	return nil
}

// Windows returns the open windows in opening order.
func (m *Manager) Windows() []*Window {
	return append([]*Window(nil), m.windows...)
}

// Open shows path in a floating window. A path already open on the active
// connection is brought to the front instead of opening a second window.
func (m *Manager) Open(path, fileName string) *Window {
	if w := m.Find(path); w != nil {
		if w.Minimized {
			m.Restore(w)
		} else {
			m.Focus(w)
		}
		return w
	}
	if fileName == "" {
		fileName = baseName(path)
	}

	cat := preview.Detect(path)
	w := &Window{
		Path:         path,
		ConnectionID: m.conn(),
		FileName:     fileName,
		Category:     cat,
		Config:       preview.ConfigFor(cat),
	}
	m.build(w)
	m.doc.Append(m.layer, w.node)
	m.windows = append(m.windows, w)
	m.opened++

	m.status(m.tr.T("opened_preview", i18n.D{"Name": fileName}))
	m.log.Debug("window opened", logging.String("path", path), logging.String("category", string(cat)))
	m.Focus(w)

	ctx, cancel := context.WithCancel(m.ctx)
	w.cancel = cancel
	var src preview.Source
	if m.source != nil {
		src = m.source()
	}
	w.loaded = m.renderer.Render(ctx, src, path, preview.Target{
		Content: w.content,
		Toolbar: w.toolbar,
		Mode:    preview.Floating,
		Loaded: func() {
			if w.fullscreen && !w.closed {
				m.reflow(w)
			}
		},
	})
	return w
}

func (m *Manager) build(w *Window) {
	offset := strconv.Itoa(m.opened%cascadeSlots*cascadeStep) + "px"
	w.node = m.doc.El("div",
		dom.Class("dm-floating-window", "dm-floating-"+string(w.Category)),
		dom.Attr("role", "dialog"),
		dom.Attr("tabindex", "-1"),
		dom.Style("left", "calc(12vw + "+offset+")"),
		dom.Style("top", "calc(10vh + "+offset+")"),
		dom.Style("width", defaultWidth),
		dom.Style("height", defaultHeight),
	)
	w.ID = dom.ID(w.node)

	title := m.doc.El("div", dom.Class("dm-floating-titlebar"),
		dom.Children(
			m.doc.El("span", dom.Class("dm-floating-icon"), dom.Style("color", w.Config.Color), dom.Text(w.Config.Icon)),
			m.doc.El("span", dom.Class("dm-floating-title"), dom.Attr("title", w.Path), dom.Text(w.FileName)),
		))
	actions := m.doc.El("div", dom.Class("dm-floating-actions"))
	if preview.SupportsFullscreen(w.Category) {
		w.fsButton = m.button("⛶", m.tr.T("fullscreen"), func(dom.Event) { m.ToggleFullscreen(w) })
		m.doc.Append(actions, w.fsButton)
		m.doc.On(title, "dblclick", func(dom.Event) { m.ToggleFullscreen(w) })
	}
	m.doc.Append(actions, m.button("—", m.tr.T("minimize"), func(dom.Event) { m.Minimize(w) }))
	m.doc.Append(actions, m.button("✕", m.tr.T("close"), func(dom.Event) { m.Close(w) }))
	m.doc.Append(title, actions)

	// the shell reports a finished title-bar drag as "left,top"
	m.doc.On(title, "move", func(ev dom.Event) { m.move(w, ev.Value) })

	w.content = m.doc.El("div", dom.Class("dm-floating-content"))
	w.toolbar = m.doc.El("div", dom.Class("dm-floating-toolbar"))
	m.doc.Append(w.node, title)
	m.doc.Append(w.node, w.content)
	m.doc.Append(w.node, w.toolbar)

	m.doc.On(w.node, "mousedown", func(dom.Event) { m.raise(w) })
}

func (m *Manager) button(label, title string, onClick dom.Handler) *html.Node {
	b := m.doc.El("button", dom.Class("dm-floating-btn"), dom.Attr("title", title), dom.Text(label))
	m.doc.On(b, "click", onClick)
	return b
}

func (m *Manager) move(w *Window, value string) {
	if w.closed || w.fullscreen {
		return
	}
	left, top, ok := strings.Cut(value, ",")
	if !ok {
		return
	}
	x, errX := strconv.Atoi(strings.TrimSpace(left))
	y, errY := strconv.Atoi(strings.TrimSpace(top))
	if errX != nil || errY != nil {
		return
	}
	dom.SetStyle(w.node, "left", strconv.Itoa(max(x, 0))+"px")
	dom.SetStyle(w.node, "top", strconv.Itoa(max(y, 0))+"px")
}

// raise puts w on top of every other window.
func (m *Manager) raise(w *Window) {
	if w.closed {
		return
	}
	if w.z != m.topZ || w.z == 0 {
		m.topZ++
		w.z = m.topZ
		dom.SetStyle(w.node, "z-index", strconv.Itoa(w.z))
	}
	for _, o := range m.windows {
		dom.ToggleClass(o.node, "dm-active", o == w)
	}
}

// Focus raises w and gives it input focus.
func (m *Manager) Focus(w *Window) {
	if w.closed || w.Minimized {
		return
	}
	m.raise(w)
	m.doc.Focus(w.node)
}

// Minimize hides w and adds it to the dock.
func (m *Manager) Minimize(w *Window) {
	if w.closed || w.Minimized {
		return
	}
	if w.fullscreen {
		m.exitFullscreen(w)
	}
	w.Minimized = true
	dom.Hide(w.node)
	m.UpdateDock()
}

// Restore shows a minimized window again and focuses it.
func (m *Manager) Restore(w *Window) {
	if w.closed || !w.Minimized {
		return
	}
	w.Minimized = false
	dom.Show(w.node)
	m.Focus(w)
	m.UpdateDock()
}

// Close removes w for good.
func (m *Manager) Close(w *Window) {
	if w.closed {
		return
	}
	for i, o := range m.windows {
		if o == w {
			m.windows = append(m.windows[:i], m.windows[i+1:]...)
			break
		}
	}
	w.closed = true
	if w.removeEsc != nil {
		w.removeEsc()
		w.removeEsc = nil
	}
	if w.cancel != nil {
		w.cancel()
	}
	m.doc.Remove(w.node)
	m.log.Debug("window closed", logging.String("path", w.Path))
	m.UpdateDock()
}

// CloseAll closes every window.
func (m *Manager) CloseAll() {
	for _, w := range m.Windows() {
		m.Close(w)
	}
}

// ToggleFullscreen enters or leaves fullscreen. Leaving restores the
// window's style attribute exactly as it was.
func (m *Manager) ToggleFullscreen(w *Window) {
	if w.closed || w.Minimized || !preview.SupportsFullscreen(w.Category) {
		return
	}
	if w.fullscreen {
		m.exitFullscreen(w)
	} else {
		m.enterFullscreen(w)
	}
}

func (m *Manager) enterFullscreen(w *Window) {
	m.Focus(w)
	w.saved = snapshot(w.node)
	w.fullscreen = true

	dom.SetStyle(w.node, "left", "2vw")
	dom.SetStyle(w.node, "top", "2vh")
	dom.SetStyle(w.node, "width", "96vw")
	dom.SetStyle(w.node, "height", "96vh")
	dom.AddClass(w.node, "dm-fullscreen")
	m.reflow(w)

	if w.fsButton != nil {
		dom.SetAttr(w.fsButton, "title", m.tr.T("exit_fullscreen"))
	}
	if w.removeEsc == nil {
		w.removeEsc = m.doc.AddKeyListener(func(ev dom.Event) {
			if ev.Key == "Escape" && w.fullscreen {
				m.exitFullscreen(w)
			}
		})
	}
}

func (m *Manager) exitFullscreen(w *Window) {
	w.fullscreen = false
	z := w.z
	w.saved.restore()
	if z != 0 && dom.GetStyle(w.node, "z-index") != strconv.Itoa(z) {
		dom.SetStyle(w.node, "z-index", strconv.Itoa(z))
	}
	dom.RemoveClass(w.node, "dm-fullscreen")
	for i := len(w.reflowed) - 1; i >= 0; i-- {
		w.reflowed[i].restore()
	}
	w.reflowed = nil

	if w.fsButton != nil {
		dom.SetAttr(w.fsButton, "title", m.tr.T("fullscreen"))
	}
	if w.removeEsc != nil {
		w.removeEsc()
		w.removeEsc = nil
	}
}

// reflow lets code blocks and tables use the whole window.
func (m *Manager) reflow(w *Window) {
	for _, n := range dom.ByClass(w.content, preview.CodeClass) {
		w.reflowed = append(w.reflowed, snapshot(n))
		dom.SetStyle(n, "max-height", "")
	}
	for _, n := range dom.ByClass(w.content, preview.TableWrapperClass) {
		w.reflowed = append(w.reflowed, snapshot(n))
		dom.SetStyle(n, "max-height", "")
		dom.SetStyle(n, "height", "100%")
		dom.SetStyle(n, "width", "100%")
	}
	for _, n := range dom.ByClass(w.content, preview.TableScaleClass) {
		w.reflowed = append(w.reflowed, snapshot(n))
		dom.SetStyle(n, "transform-origin", "top left")
	}
}

// UpdateDock rebuilds the dock from the current set of minimized
// windows.
func (m *Manager) UpdateDock() {
	m.doc.Clear(m.dock)
	var minimized []*Window
	for _, w := range m.windows {
		if w.Minimized {
			minimized = append(minimized, w)
		}
	}
	if len(minimized) == 0 {
		dom.SetStyle(m.dock, "height", "0")
		dom.SetStyle(m.dock, "padding", "0")
		return
	}
	dom.SetStyle(m.dock, "height", dockHeight)
	dom.SetStyle(m.dock, "padding", dockPadding)
	for _, w := range minimized {
		item := m.doc.El("div",
			dom.Class("dm-dock-item"),
			dom.Attr("title", w.Path),
			dom.Style("border-color", w.Config.Color),
			dom.Children(
				m.doc.El("span", dom.Class("dm-dock-icon"), dom.Style("color", w.Config.Color), dom.Text(w.Config.Icon)),
				m.doc.El("span", dom.Class("dm-dock-name"), dom.Text(w.FileName)),
			))
		m.doc.On(item, "click", func(dom.Event) { m.Restore(w) })
		m.doc.Append(m.dock, item)
	}
}

func baseName(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}
