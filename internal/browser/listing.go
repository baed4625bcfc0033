package browser

import (
	"context"

	"github.com/dustin/go-humanize"
	"golang.org/x/net/html"

	"comfyui-data-manager/internal/dom"
	"comfyui-data-manager/internal/models"
	"comfyui-data-manager/internal/preview"
	"comfyui-data-manager/internal/state"
	"comfyui-data-manager/internal/window"
)

const timeLayout = "2006-01-02 15:04"

var columns = []struct {
	col   state.SortColumn
	label string
}{
	{state.SortName, "col_name"},
	{state.SortSize, "col_size"},
	{state.SortModified, "col_modified"},
}

// renderListing rebuilds the header and the file list from the state.
func (c *Controller) renderListing() {
	if c.ui == nil {
		return
	}
	c.renderHeader()

	list := c.ui.list
	c.doc.Clear(list)
	grid := c.state.ViewMode == state.ViewGrid
	dom.ToggleClass(list, "dm-file-grid", grid)
	dom.ToggleClass(list, "dm-file-rows", !grid)

	files := c.visibleFiles()
	if len(files) == 0 {
		c.doc.Append(list, c.doc.El("div", dom.Class("dm-empty"), dom.Text(c.tr.T("empty_dir"))))
		return
	}
	for _, f := range files {
		var item *html.Node
		if grid {
			item = c.tile(f)
		} else {
			item = c.row(f)
		}
		c.attachItem(item, f)
		c.doc.Append(list, item)
	}
}

func (c *Controller) renderHeader() {
	h := c.ui.header
	c.doc.Clear(h)
	for _, col := range columns {
		label := c.tr.T(col.label)
		cell := c.doc.El("div", dom.Class("dm-header-cell", "dm-col-"+string(col.col)))
		if c.state.SortBy == col.col {
			dom.AddClass(cell, "dm-sort-active")
			if c.state.SortOrder == state.Asc {
				label += " ▲"
			} else {
				label += " ▼"
			}
		}
		c.doc.SetText(cell, label)
		column := col.col
		c.doc.On(cell, "click", func(dom.Event) { c.ToggleSort(column) })
		c.doc.Append(h, cell)
	}
}

func iconFor(f models.FileItem) preview.FileConfig {
	if f.IsDir {
		return preview.DirectoryConfig
	}
	return preview.ConfigFor(preview.Detect(f.Name))
}

func (c *Controller) row(f models.FileItem) *html.Node {
	cfg := iconFor(f)
	size, modified := "", ""
	if !f.IsDir {
		size = humanize.IBytes(uint64(max(f.Size, 0)))
	}
	if !f.Modified.IsZero() {
		modified = f.Modified.Format(timeLayout)
	}
	n := c.doc.El("div", dom.Class("dm-file-item", "dm-file-row"), dom.Children(
		c.doc.El("span", dom.Class("dm-file-icon"), dom.Style("color", cfg.Color), dom.Text(cfg.Icon)),
		c.doc.El("span", dom.Class("dm-file-name", "dm-col-name"), dom.Text(f.Name)),
		c.doc.El("span", dom.Class("dm-file-size", "dm-col-size"), dom.Text(size)),
		c.doc.El("span", dom.Class("dm-file-modified", "dm-col-modified"), dom.Text(modified)),
	))
	if !f.Modified.IsZero() {
		dom.SetAttr(n, "title", humanize.Time(f.Modified))
	}
	return n
}

func (c *Controller) tile(f models.FileItem) *html.Node {
	cfg := iconFor(f)
	thumb := c.doc.El("div", dom.Class("dm-file-thumb"))
	if !f.IsDir && preview.Detect(f.Name) == preview.Image {
		c.doc.Append(thumb, c.doc.El("img",
			dom.Attr("src", c.source().PreviewURL(f.Path)),
			dom.Attr("alt", f.Name),
			dom.Attr("loading", "lazy")))
	} else {
		c.doc.Append(thumb, c.doc.El("span", dom.Class("dm-file-icon"), dom.Style("color", cfg.Color), dom.Text(cfg.Icon)))
	}
	return c.doc.El("div", dom.Class("dm-file-item", "dm-file-tile"), dom.Attr("title", f.Name), dom.Children(
		thumb,
		c.doc.El("div", dom.Class("dm-file-name"), dom.Text(f.Name)),
	))
}

func (c *Controller) attachItem(n *html.Node, f models.FileItem) {
	dom.SetAttr(n, "data-path", f.Path)
	if f.IsDir {
		dom.AddClass(n, "dm-dir")
	}
	dom.ToggleClass(n, "dm-selected", c.state.IsSelected(f.Path))
	path := f.Path
	c.doc.On(n, "click", func(ev dom.Event) {
		c.Select(path, ev.Ctrl || ev.Meta || ev.Shift)
	})
	c.doc.On(n, "dblclick", func(dom.Event) { c.Activate(path) })
}

// Select selects path, or toggles it in the selection when additive. A
// single selected file is previewed in the panel.
func (c *Controller) Select(path string, additive bool) {
	c.state.Select(path, additive)
	c.markSelection()
	c.updateNav()
	if additive {
		return
	}
	if f, ok := c.state.FindFile(path); ok && !f.IsDir {
		c.PreviewFile(path)
	}
}

func (c *Controller) markSelection() {
	if c.ui == nil {
		return
	}
	for _, n := range dom.ByClass(c.ui.list, "dm-file-item") {
		dom.ToggleClass(n, "dm-selected", c.state.IsSelected(dom.GetAttr(n, "data-path")))
	}
}

func (c *Controller) selectAndPreview(path string) {
	c.state.Select(path, false)
	c.markSelection()
	c.updateNav()
	c.PreviewFile(path)
}

// Activate opens a listed entry: directories are entered, files open in
// a floating window.
func (c *Controller) Activate(path string) <-chan struct{} {
	f, ok := c.state.FindFile(path)
	if !ok {
		return closed()
	}
	if f.IsDir {
		return c.LoadDirectory(f.Path)
	}
	if w := c.OpenFloating(f.Path); w != nil {
		return w.Loaded()
	}
	return closed()
}

// OpenFloating shows path in a floating preview window.
func (c *Controller) OpenFloating(path string) *window.Window {
	name := state.BaseName(path)
	if f, ok := c.state.FindFile(path); ok {
		name = f.Name
	}
	return c.windows.Open(path, name)
}

// PreviewFile renders path into the preview pane, replacing and
// cancelling any earlier preview.
func (c *Controller) PreviewFile(path string) <-chan struct{} {
	if c.ui == nil {
		return closed()
	}
	if c.previewCancel != nil {
		c.previewCancel()
	}
	ctx, cancel := context.WithCancel(c.mountCtx)
	c.previewCancel = cancel
	c.state.CurrentPreviewFile = path

	cfg := preview.ConfigFor(preview.Detect(path))
	c.doc.SetText(c.ui.previewName, cfg.Icon+" "+state.BaseName(path))
	dom.Show(c.ui.previewOpen)
	return c.renderer.Render(ctx, c.source(), path, preview.Target{
		Content: c.ui.previewContent,
		Toolbar: c.ui.previewToolbar,
		Mode:    preview.Panel,
	})
}

func (c *Controller) clearPreview() {
	if c.previewCancel != nil {
		c.previewCancel()
		c.previewCancel = nil
	}
	c.state.CurrentPreviewFile = ""
	c.showPreviewPlaceholder()
}

func (c *Controller) showPreviewPlaceholder() {
	if c.ui == nil {
		return
	}
	c.doc.Clear(c.ui.previewToolbar)
	c.doc.Clear(c.ui.previewContent)
	c.doc.SetText(c.ui.previewName, "")
	dom.Hide(c.ui.previewOpen)
	c.doc.Append(c.ui.previewContent, c.doc.El("div", dom.Class("dm-preview-placeholder"), dom.Text(c.tr.T("no_preview"))))
}
