package browser

import (
	"golang.org/x/net/html"

	"comfyui-data-manager/internal/dom"
	"comfyui-data-manager/internal/i18n"
	"comfyui-data-manager/internal/state"
)

// chrome holds the main window elements.
type chrome struct {
	main       *html.Node
	title      *html.Node
	connStatus *html.Node

	back, forward, up, home, refresh *html.Node
	pathInput, filterInput           *html.Node
	viewBtn                          *html.Node
	newFile, newFolder, del, copy    *html.Node
	connectBtn, settingsBtn          *html.Node

	header *html.Node
	list   *html.Node

	previewName    *html.Node
	previewOpen    *html.Node
	previewToolbar *html.Node
	previewContent *html.Node

	status      *html.Node
	toasts      *html.Node
	dialogLayer *html.Node
}

func (c *Controller) toolButton(icon, titleID string, onClick func()) *html.Node {
	b := c.doc.El("button", dom.Class("dm-btn", "dm-tool-btn"), dom.Attr("title", c.tr.T(titleID)), dom.Text(icon))
	c.doc.On(b, "click", func(dom.Event) { onClick() })
	return b
}

// build creates the main window and appends it to the document root.
func (c *Controller) build() {
	ui := &chrome{}
	c.ui = ui
	d := c.doc

	ui.title = d.El("span", dom.Class("dm-title"), dom.Text(c.tr.T("app_title")))
	ui.connStatus = d.El("span", dom.Class("dm-conn-status"))
	closeBtn := c.toolButton("✕", "close", c.Unmount)
	titlebar := d.El("div", dom.Class("dm-titlebar"), dom.Children(ui.title, ui.connStatus, closeBtn))

	ui.back = c.toolButton("←", "back", func() { c.NavigateBack() })
	ui.forward = c.toolButton("→", "forward", func() { c.NavigateForward() })
	ui.up = c.toolButton("↑", "up", func() { c.NavigateUp() })
	ui.home = c.toolButton("🏠", "home", func() { c.NavigateHome() })
	ui.refresh = c.toolButton("⟳", "refresh", func() { c.Refresh() })

	ui.pathInput = d.El("input", dom.Class("dm-input", "dm-path-input"),
		dom.Attr("type", "text"), dom.Attr("title", c.tr.T("path")), dom.Attr("spellcheck", "false"))
	d.On(ui.pathInput, "change", func(ev dom.Event) {
		if ev.Value != "" {
			c.LoadDirectory(ev.Value)
		}
	})

	ui.filterInput = d.El("input", dom.Class("dm-input", "dm-filter-input"),
		dom.Attr("type", "search"), dom.Attr("placeholder", c.tr.T("filter")), dom.Attr("value", c.filter))
	d.On(ui.filterInput, "input", func(ev dom.Event) {
		dom.SetAttr(ui.filterInput, "value", ev.Value)
		c.SetFilter(ev.Value)
	})

	ui.viewBtn = c.toolButton("", "view_grid", c.ToggleViewMode)
	ui.newFile = c.toolButton("📄", "new_file", c.PromptNewFile)
	ui.newFolder = c.toolButton("📁", "new_folder", c.PromptNewFolder)
	ui.del = c.toolButton("🗑", "delete", c.PromptDelete)
	ui.copy = c.toolButton("📋", "copy_path", func() { c.CopyPaths() })
	ui.connectBtn = c.toolButton("🔌", "connect", c.toggleConnection)
	ui.settingsBtn = c.toolButton("⚙", "settings", c.ShowSettings)

	toolbar := d.El("div", dom.Class("dm-toolbar"), dom.Children(
		ui.back, ui.forward, ui.up, ui.home, ui.refresh,
		ui.pathInput, ui.filterInput, ui.viewBtn,
		d.El("span", dom.Class("dm-toolbar-sep")),
		ui.newFile, ui.newFolder, ui.del, ui.copy,
		d.El("span", dom.Class("dm-toolbar-sep")),
		ui.connectBtn, ui.settingsBtn,
	))

	ui.header = d.El("div", dom.Class("dm-header"))
	ui.list = d.El("div", dom.Class("dm-file-list"))
	browserPane := d.El("div", dom.Class("dm-browser"), dom.Children(ui.header, ui.list))

	ui.previewName = d.El("span", dom.Class("dm-preview-name"))
	ui.previewOpen = c.toolButton("⧉", "open_floating", func() {
		if p := c.state.CurrentPreviewFile; p != "" {
			c.OpenFloating(p)
		}
	})
	ui.previewToolbar = d.El("div", dom.Class("dm-preview-toolbar"))
	ui.previewContent = d.El("div", dom.Class("dm-preview-content"))
	previewPane := d.El("div", dom.Class("dm-preview-pane"), dom.Children(
		d.El("div", dom.Class("dm-preview-header"), dom.Children(ui.previewName, ui.previewOpen)),
		ui.previewToolbar,
		ui.previewContent,
	))

	ui.status = d.El("div", dom.Class("dm-status"))
	ui.toasts = d.El("div", dom.Class("dm-toasts"))
	ui.dialogLayer = d.El("div", dom.Class("dm-dialog-layer"))
	dom.Hide(ui.dialogLayer)

	ui.main = d.El("div", dom.Class("dm-main-window"), dom.Attr("role", "dialog"), dom.Children(
		titlebar,
		toolbar,
		d.El("div", dom.Class("dm-body"), dom.Children(browserPane, previewPane)),
		ui.status,
		ui.toasts,
		ui.dialogLayer,
	))
	d.Append(d.Root(), ui.main)

	c.showPreviewPlaceholder()
	c.renderListing()
	c.updateNav()
}

// rebuild recreates the chrome in the current language, keeping state.
func (c *Controller) rebuild() {
	if c.ui == nil {
		return
	}
	previewing := c.state.CurrentPreviewFile
	if c.previewCancel != nil {
		c.previewCancel()
		c.previewCancel = nil
	}
	c.closeDialog()
	c.doc.Remove(c.ui.main)
	c.build()
	c.updateConnectionStatus()
	c.listingStatus()
	if previewing != "" {
		c.PreviewFile(previewing)
	}
}

func (c *Controller) updateNav() {
	ui := c.ui
	if ui == nil {
		return
	}
	setDisabled(ui.back, !c.state.CanGoBack())
	setDisabled(ui.forward, !c.state.CanGoForward())
	cur := c.state.CurrentPath
	setDisabled(ui.up, cur == "" || cur == "." || cur == "/" || state.ParentPath(cur) == cur)
	setDisabled(ui.del, len(c.state.SelectedFiles) == 0)
	setDisabled(ui.copy, c.clipboard == nil)
	dom.SetAttr(ui.pathInput, "value", cur)

	if c.state.ViewMode == state.ViewGrid {
		c.doc.SetText(ui.viewBtn, "☰")
		dom.SetAttr(ui.viewBtn, "title", c.tr.T("view_list"))
	} else {
		c.doc.SetText(ui.viewBtn, "▦")
		dom.SetAttr(ui.viewBtn, "title", c.tr.T("view_grid"))
	}
}

func setDisabled(n *html.Node, disabled bool) {
	if disabled {
		dom.SetAttr(n, "disabled", "")
	} else {
		dom.RemoveAttr(n, "disabled")
	}
}

func (c *Controller) updateConnectionStatus() {
	if c.ui == nil {
		return
	}
	active := c.conns.Active()
	if active == nil {
		c.doc.SetText(c.ui.connStatus, c.tr.T("conn_local"))
		dom.RemoveClass(c.ui.connStatus, "dm-remote")
		dom.SetAttr(c.ui.connectBtn, "title", c.tr.T("connect"))
		return
	}
	c.doc.SetText(c.ui.connStatus, c.tr.T("conn_remote", i18n.D{"User": active.Username, "Host": active.Host}))
	dom.AddClass(c.ui.connStatus, "dm-remote")
	dom.SetAttr(c.ui.connectBtn, "title", c.tr.T("disconnect"))
}
