package browser

import (
	"strings"

	"golang.org/x/net/html"

	"comfyui-data-manager/internal/dom"
)

// dialog is the single modal shown over the main window.
type dialog struct {
	node      *html.Node
	body      *html.Node
	fields    map[string]*field
	submit    func()
	removeKey func()
}

// field mirrors an input's live value, reported by input and change
// events.
type field struct {
	node  *html.Node
	value string
}

func (f *field) text() string { return strings.TrimSpace(f.value) }

func (f *field) checked() bool { return f.value == "true" }

// set replaces the value both here and in the rendered element.
func (f *field) set(v string) {
	f.value = v
	if dom.GetAttr(f.node, "type") == "checkbox" {
		if v == "true" {
			dom.SetAttr(f.node, "checked", "")
		} else {
			dom.RemoveAttr(f.node, "checked")
		}
		return
	}
	dom.SetAttr(f.node, "value", v)
}

// Dialog returns the open dialog element, or nil.
func (c *Controller) Dialog() *html.Node {
	if c.dialog == nil {
		return nil
	}
	return c.dialog.node
}

func (c *Controller) openDialog(titleID string) *dialog {
	c.closeDialog()
	d := &dialog{fields: make(map[string]*field)}
	d.body = c.doc.El("div", dom.Class("dm-dialog-body"))
	d.node = c.doc.El("div", dom.Class("dm-dialog"), dom.Children(
		c.doc.El("div", dom.Class("dm-dialog-title"), dom.Text(c.tr.T(titleID))),
		d.body,
	))
	c.doc.Append(c.ui.dialogLayer, d.node)
	dom.Show(c.ui.dialogLayer)
	d.removeKey = c.doc.AddKeyListener(func(ev dom.Event) {
		if ev.Key == "Escape" {
			c.closeDialog()
		}
	})
	c.dialog = d
	return d
}

func (c *Controller) closeDialog() {
	d := c.dialog
	if d == nil {
		return
	}
	c.dialog = nil
	d.removeKey()
	c.doc.Remove(d.node)
	if c.ui != nil {
		dom.Hide(c.ui.dialogLayer)
	}
}

func (c *Controller) addRow(d *dialog, labelID string, control *html.Node) {
	c.doc.Append(d.body, c.doc.El("label", dom.Class("dm-field"), dom.Children(
		c.doc.El("span", dom.Class("dm-field-label"), dom.Text(c.tr.T(labelID))),
		control,
	)))
}

func (c *Controller) textField(d *dialog, name, labelID, typ, value string) *field {
	f := &field{}
	f.node = c.doc.El("input", dom.Class("dm-input"), dom.Attr("type", typ), dom.Attr("name", name))
	f.set(value)
	c.doc.On(f.node, "input", func(ev dom.Event) { f.set(ev.Value) })
	c.doc.On(f.node, "keydown", func(ev dom.Event) {
		if ev.Key == "Enter" && d.submit != nil {
			f.set(ev.Value)
			d.submit()
		}
	})
	c.addRow(d, labelID, f.node)
	d.fields[name] = f
	return f
}

func (c *Controller) checkbox(d *dialog, name, labelID string, on bool) *field {
	f := &field{}
	f.node = c.doc.El("input", dom.Attr("type", "checkbox"), dom.Attr("name", name))
	if on {
		f.set("true")
	} else {
		f.set("false")
	}
	c.doc.On(f.node, "change", func(ev dom.Event) { f.set(ev.Value) })
	c.addRow(d, labelID, f.node)
	d.fields[name] = f
	return f
}

// option is one choice of a select field.
type option struct {
	value, label string
}

func (c *Controller) selectField(d *dialog, name, labelID, value string, options []option) *field {
	f := &field{value: value}
	f.node = c.doc.El("select", dom.Class("dm-input"), dom.Attr("name", name))
	for _, o := range options {
		opt := c.doc.El("option", dom.Attr("value", o.value), dom.Text(o.label))
		if o.value == value {
			dom.SetAttr(opt, "selected", "")
		}
		c.doc.Append(f.node, opt)
	}
	c.doc.On(f.node, "change", func(ev dom.Event) {
		f.value = ev.Value
		for _, opt := range dom.ChildElements(f.node) {
			if dom.GetAttr(opt, "value") == ev.Value {
				dom.SetAttr(opt, "selected", "")
			} else {
				dom.RemoveAttr(opt, "selected")
			}
		}
	})
	c.addRow(d, labelID, f.node)
	d.fields[name] = f
	return f
}

// actions adds the cancel and confirm buttons; confirm runs submit.
func (c *Controller) actions(d *dialog, okID string, submit func()) {
	d.submit = submit
	cancel := c.doc.El("button", dom.Class("dm-btn"), dom.Text(c.tr.T("cancel")))
	c.doc.On(cancel, "click", func(dom.Event) { c.closeDialog() })
	ok := c.doc.El("button", dom.Class("dm-btn", "dm-btn-primary"), dom.Attr("data-dm-submit", ""), dom.Text(c.tr.T(okID)))
	c.doc.On(ok, "click", func(dom.Event) { submit() })
	c.doc.Append(d.node, c.doc.El("div", dom.Class("dm-dialog-actions"), dom.Children(cancel, ok)))
}

// prompt asks for a single line of text.
func (c *Controller) prompt(titleID, labelID string, onOK func(value string)) {
	if c.ui == nil {
		return
	}
	d := c.openDialog(titleID)
	f := c.textField(d, "value", labelID, "text", "")
	c.actions(d, "ok", func() {
		v := f.text()
		if v == "" {
			return
		}
		c.closeDialog()
		onOK(v)
	})
	c.doc.Focus(f.node)
}

// confirm asks a yes/no question.
func (c *Controller) confirm(titleID, message string, onOK func()) {
	if c.ui == nil {
		return
	}
	d := c.openDialog(titleID)
	c.doc.Append(d.body, c.doc.El("p", dom.Class("dm-dialog-message"), dom.Text(message)))
	c.actions(d, "ok", func() {
		c.closeDialog()
		onOK()
	})
}
