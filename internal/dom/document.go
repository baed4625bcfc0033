// Package dom is the panel's document model: an x/net/html node tree
// with element ids, event handlers, key listeners, focus and queued
// element commands. A Document is owned by one goroutine (see Loop).
package dom

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IDAttr carries the element id the shell reports events against.
const IDAttr = "data-dm-id"

// OnAttr lists the event types an element has handlers for.
const OnAttr = "data-dm-on"

// Event is a UI event forwarded by the shell.
type Event struct {
	Target      string  `json:"target"`
	Type        string  `json:"type"`
	Key         string  `json:"key,omitempty"`
	Value       string  `json:"value,omitempty"`
	Ctrl        bool    `json:"ctrl,omitempty"`
	Shift       bool    `json:"shift,omitempty"`
	Meta        bool    `json:"meta,omitempty"`
	CurrentTime float64 `json:"currentTime,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
	Paused      bool    `json:"paused,omitempty"`
	Muted       bool    `json:"muted,omitempty"`
}

// Handler reacts to an event on one element.
type Handler func(Event)

// Command is an imperative action the shell applies to a live element
// after the next render, such as focus or play.
type Command struct {
	Target string `json:"target,omitempty"`
	Name   string `json:"name"`
	Arg    string `json:"arg,omitempty"`
}

// Frame is one render of the document.
type Frame struct {
	HTML     string    `json:"html"`
	Commands []Command `json:"commands,omitempty"`
}

// Document is the tree plus everything attached to its elements.
type Document struct {
	root     *html.Node
	byID     map[string]*html.Node
	handlers map[string]map[string][]Handler
	keys     map[int]Handler
	keyOrder []int
	nextKey  int
	nextID   int
	focused  string
	commands []Command
}

// NewDocument creates an empty document with a root container.
func NewDocument() *Document {
	d := &Document{
		byID:     make(map[string]*html.Node),
		handlers: make(map[string]map[string][]Handler),
		keys:     make(map[int]Handler),
	}
	d.root = d.El("div", Attr("id", "dm-root"))
	return d
}

// Root returns the top-level container.
func (d *Document) Root() *html.Node {
	return d.root
}

// Option configures an element built by El.
type Option func(*html.Node)

// Attr sets an attribute.
func Attr(key, val string) Option {
	return func(n *html.Node) { SetAttr(n, key, val) }
}

// Class adds classes.
func Class(classes ...string) Option {
	return func(n *html.Node) {
		for _, c := range classes {
			AddClass(n, c)
		}
	}
}

// Style sets one style property.
func Style(prop, val string) Option {
	return func(n *html.Node) { SetStyle(n, prop, val) }
}

// Text appends a text node. Text is escaped when rendered.
func Text(s string) Option {
	return func(n *html.Node) {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
	}
}

// Children appends nodes.
func Children(children ...*html.Node) Option {
	return func(n *html.Node) {
		for _, c := range children {
			if c != nil {
				n.AppendChild(c)
			}
		}
	}
}

// El creates an element with a fresh id.
func (d *Document) El(tag string, opts ...Option) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	d.nextID++
	id := "e" + strconv.Itoa(d.nextID)
	SetAttr(n, IDAttr, id)
	d.byID[id] = n
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ID returns the element id of n.
func ID(n *html.Node) string {
	return GetAttr(n, IDAttr)
}

// Find returns the element with id, or nil.
func (d *Document) Find(id string) *html.Node {
	return d.byID[id]
}

// Attached reports whether n is in the document tree.
func (d *Document) Attached(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

// Append adds child under parent.
func (d *Document) Append(parent, child *html.Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	parent.AppendChild(child)
}

// Remove detaches n and forgets every handler registered in its subtree.
func (d *Document) Remove(n *html.Node) {
	if n == nil {
		return
	}
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	d.forget(n)
}

// Clear removes every child of n.
func (d *Document) Clear(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		d.Remove(c)
		c = next
	}
}

func (d *Document) forget(n *html.Node) {
	if id := ID(n); id != "" {
		delete(d.byID, id)
		delete(d.handlers, id)
		if d.focused == id {
			d.focused = ""
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.forget(c)
	}
}

// SetText replaces the children of n with a single text node.
func (d *Document) SetText(n *html.Node, s string) {
	d.Clear(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

// SetHTML replaces the children of n with a parsed fragment. Only pass
// markup produced by a trusted renderer.
func (d *Document) SetHTML(n *html.Node, fragment string) error {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return err
	}
	d.Clear(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// On registers h for events of type typ on n.
func (d *Document) On(n *html.Node, typ string, h Handler) {
	id := ID(n)
	if id == "" {
		return
	}
	if d.handlers[id] == nil {
		d.handlers[id] = make(map[string][]Handler)
	}
	d.handlers[id][typ] = append(d.handlers[id][typ], h)

	types := strings.Fields(GetAttr(n, OnAttr))
	for _, t := range types {
		if t == typ {
			return
		}
	}
	SetAttr(n, OnAttr, strings.Join(append(types, typ), " "))
}

// Off drops every handler of type typ on n.
func (d *Document) Off(n *html.Node, typ string) {
	id := ID(n)
	if hs, ok := d.handlers[id]; ok {
		delete(hs, typ)
	}
	var kept []string
	for _, t := range strings.Fields(GetAttr(n, OnAttr)) {
		if t != typ {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		RemoveAttr(n, OnAttr)
	} else {
		SetAttr(n, OnAttr, strings.Join(kept, " "))
	}
}

// Dispatch delivers ev to the target's handlers. Key events without a
// target go to the document key listeners. It reports whether anything
// handled the event.
func (d *Document) Dispatch(ev Event) bool {
	if ev.Type == "keydown" && ev.Target == "" {
		return d.DispatchKey(ev)
	}
	hs := d.handlers[ev.Target][ev.Type]
	if len(hs) == 0 {
		return false
	}
	// copy: a handler may remove its own element
	for _, h := range append([]Handler(nil), hs...) {
		h(ev)
	}
	return true
}

// Click dispatches a click on n.
func (d *Document) Click(n *html.Node) bool {
	return d.Dispatch(Event{Target: ID(n), Type: "click"})
}

// AddKeyListener registers a document-level key handler and returns the
// function that removes it.
func (d *Document) AddKeyListener(h Handler) (remove func()) {
	d.nextKey++
	k := d.nextKey
	d.keys[k] = h
	d.keyOrder = append(d.keyOrder, k)
	return func() {
		if _, ok := d.keys[k]; !ok {
			return
		}
		delete(d.keys, k)
		for i, o := range d.keyOrder {
			if o == k {
				d.keyOrder = append(d.keyOrder[:i], d.keyOrder[i+1:]...)
				break
			}
		}
	}
}

// KeyListeners returns the number of registered key listeners.
func (d *Document) KeyListeners() int {
	return len(d.keys)
}

// DispatchKey delivers a key event to every document key listener.
func (d *Document) DispatchKey(ev Event) bool {
	order := append([]int(nil), d.keyOrder...)
	handled := false
	for _, k := range order {
		if h, ok := d.keys[k]; ok {
			h(ev)
			handled = true
		}
	}
	return handled
}

// Focus gives n input focus.
func (d *Document) Focus(n *html.Node) {
	d.focused = ID(n)
	d.Exec(n, "focus", "")
}

// Focused returns the id of the focused element.
func (d *Document) Focused() string {
	return d.focused
}

// Exec queues a command for the live element behind n.
func (d *Document) Exec(n *html.Node, name, arg string) {
	d.commands = append(d.commands, Command{Target: ID(n), Name: name, Arg: arg})
}

// Alert queues a blocking message dialog.
func (d *Document) Alert(msg string) {
	d.commands = append(d.commands, Command{Name: "alert", Arg: msg})
}

// Pending returns the queued commands without draining them.
func (d *Document) Pending() []Command {
	return append([]Command(nil), d.commands...)
}

// Render serializes the tree and drains the command queue.
func (d *Document) Render() (Frame, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.root); err != nil {
		return Frame{}, err
	}
	f := Frame{HTML: buf.String(), Commands: d.commands}
	d.commands = nil
	return f, nil
}

// OuterHTML renders a single node.
func OuterHTML(n *html.Node) string {
	var buf bytes.Buffer
	html.Render(&buf, n)
	return buf.String()
}
