package extension

import (
	"comfyui-data-manager/internal/logging"
)

// WidgetKind is how a widget is drawn on a node.
type WidgetKind string

const (
	WidgetButton WidgetKind = "button"
	WidgetCombo  WidgetKind = "combo"
	WidgetText   WidgetKind = "text"
)

// Widget is one control on a node.
type Widget struct {
	Name    string     `json:"name"`
	Kind    WidgetKind `json:"kind"`
	Label   string     `json:"label,omitempty"`
	Value   string     `json:"value,omitempty"`
	Options []string   `json:"options,omitempty"`
}

// Link connects an input to an upstream node's output.
type Link struct {
	OriginID   string `json:"origin_id"`
	OriginSlot int    `json:"origin_slot"`
}

// Slot is a node input or output.
type Slot struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Link *Link  `json:"link,omitempty"`
}

// Node is a host graph node as the extension sees it.
type Node struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Widgets []*Widget `json:"widgets"`
	Inputs  []Slot    `json:"inputs"`
	Outputs []Slot    `json:"outputs"`
}

// Widget returns the widget called name, or nil.
func (n *Node) Widget(name string) *Widget {
	for _, w := range n.Widgets {
		if w.Name == name {
			return w
		}
	}
	return nil
}

// outputFormats maps an upstream output type to the file format a data
// manager node saves it as.
var outputFormats = map[string]string{
	"IMAGE":  "png",
	"VIDEO":  "mp4",
	"AUDIO":  "wav",
	"STRING": "txt",
	"LATENT": "latent",
	"MASK":   "png",
}

// FormatFor returns the default format for an output type.
func FormatFor(outputType string) (string, bool) {
	f, ok := outputFormats[outputType]
	return f, ok
}

// NodeCreated records n and, for data manager nodes, adds the open
// button. The decorated node is returned.
func (e *Extension) NodeCreated(n *Node) *Node {
	if n == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nodes[n.ID] = n
	if !IsDataManagerNode(n.Type) || n.Widget(OpenWidget) != nil {
		return n
	}
	n.Widgets = append(n.Widgets, &Widget{
		Name:  OpenWidget,
		Kind:  WidgetButton,
		Label: e.tr.T("node_open"),
	})
	e.log.Debug("decorated node", logging.String("id", n.ID), logging.String("type", n.Type))
	return n
}

// NodeRemoved forgets a node.
func (e *Extension) NodeRemoved(id string) {
	e.mu.Lock()
	delete(e.nodes, id)
	e.mu.Unlock()
}

// Node returns a recorded node.
func (e *Extension) Node(id string) *Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nodes[id]
}

// WidgetPressed runs a button widget. Only the open button does anything.
func (e *Extension) WidgetPressed(nodeID, widget string) {
	if widget != OpenWidget {
		return
	}
	e.openNode(nodeID)
}

// Connect links input of node id to an upstream output and, for data
// manager nodes, selects the format matching the upstream type. It
// returns the selected format, or "" when nothing changed.
func (e *Extension) Connect(nodeID string, input int, link Link) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.nodes[nodeID]
	if n == nil || input < 0 || input >= len(n.Inputs) {
		return ""
	}
	n.Inputs[input].Link = &link
	if !IsDataManagerNode(n.Type) {
		return ""
	}

	origin := e.nodes[link.OriginID]
	if origin == nil || link.OriginSlot < 0 || link.OriginSlot >= len(origin.Outputs) {
		return ""
	}
	format, ok := FormatFor(origin.Outputs[link.OriginSlot].Type)
	if !ok {
		return ""
	}
	w := n.Widget(FormatWidget)
	if w == nil || !contains(w.Options, format) {
		return ""
	}
	w.Value = format
	e.log.Debug("selected format", logging.String("id", n.ID), logging.String("format", format))
	return format
}

func contains(options []string, v string) bool {
	if len(options) == 0 {
		return true
	}
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
