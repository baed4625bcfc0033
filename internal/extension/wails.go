package extension

import (
	"fmt"
	goruntime "runtime"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
)

type command struct {
	id, label string
	run       func()
}

type nodeItem struct {
	label string
	run   func(nodeID string)
}

// MenuHost is the Host of the desktop app: commands and canvas entries
// become application menu items, keybindings their accelerators. Node
// menu entries are run through RunNodeItem by the shell.
type MenuHost struct {
	title   string
	cmds    []command
	accels  map[string]*keys.Accelerator
	actions []command
	canvas  []command
	nodes   []nodeItem
}

// NewMenuHost creates a host whose entries live in a submenu called title.
func NewMenuHost(title string) *MenuHost {
	return &MenuHost{title: title, accels: make(map[string]*keys.Accelerator)}
}

func (h *MenuHost) RegisterCommand(id, label string, run func()) {
	h.cmds = append(h.cmds, command{id: id, label: label, run: run})
}

func (h *MenuHost) RegisterKeybinding(combo, commandID string) {
	acc, err := ParseAccelerator(combo)
	if err != nil {
		return
	}
	h.accels[commandID] = acc
}

func (h *MenuHost) AddActionButton(id, icon, tooltip string, run func()) {
	h.actions = append(h.actions, command{id: id, label: strings.TrimSpace(icon + " " + tooltip), run: run})
}

func (h *MenuHost) AddNodeMenuItem(label string, run func(nodeID string)) {
	h.nodes = append(h.nodes, nodeItem{label: label, run: run})
}

func (h *MenuHost) AddCanvasMenuItem(label string, run func()) {
	h.canvas = append(h.canvas, command{label: label, run: run})
}

// Run executes a registered command.
func (h *MenuHost) Run(commandID string) bool {
	for _, c := range h.cmds {
		if c.id == commandID {
			c.run()
			return true
		}
	}
	return false
}

// NodeMenuLabels lists the node context menu entries.
func (h *MenuHost) NodeMenuLabels() []string {
	labels := make([]string, 0, len(h.nodes))
	for _, n := range h.nodes {
		labels = append(labels, n.label)
	}
	return labels
}

// RunNodeItem runs the node menu entry at index for nodeID.
func (h *MenuHost) RunNodeItem(index int, nodeID string) bool {
	if index < 0 || index >= len(h.nodes) {
		return false
	}
	h.nodes[index].run(nodeID)
	return true
}

// Menu builds the application menu.
func (h *MenuHost) Menu() *menu.Menu {
	root := menu.NewMenu()
	if goruntime.GOOS == "darwin" {
		root.Append(menu.AppMenu())
	}
	root.Append(menu.EditMenu())

	sub := root.AddSubmenu(h.title)
	seen := make(map[string]bool)
	for _, c := range h.cmds {
		run := c.run
		sub.AddText(c.label, h.accels[c.id], func(*menu.CallbackData) { run() })
		seen[c.id] = true
	}
	for _, a := range h.actions {
		if seen[a.id] {
			continue
		}
		run := a.run
		sub.AddText(a.label, nil, func(*menu.CallbackData) { run() })
	}
	if len(h.canvas) > 0 {
		sub.AddSeparator()
		for _, c := range h.canvas {
			run := c.run
			sub.AddText(c.label, nil, func(*menu.CallbackData) { run() })
		}
	}
	return root
}

// ParseAccelerator turns a combo such as "Ctrl+Shift+D" into a menu
// accelerator. Ctrl maps to Cmd on macOS.
func ParseAccelerator(combo string) (*keys.Accelerator, error) {
	parts := strings.Split(combo, "+")
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty key combo")
	}
	key := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	if key == "" {
		return nil, fmt.Errorf("key combo %q has no key", combo)
	}
	acc := &keys.Accelerator{Key: key}
	for _, p := range parts[:len(parts)-1] {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "ctrl", "control", "cmd", "cmdorctrl":
			acc.Modifiers = append(acc.Modifiers, keys.CmdOrCtrlKey)
		case "shift":
			acc.Modifiers = append(acc.Modifiers, keys.ShiftKey)
		case "alt", "option":
			acc.Modifiers = append(acc.Modifiers, keys.OptionOrAltKey)
		default:
			return nil, fmt.Errorf("unknown modifier %q in %q", p, combo)
		}
	}
	return acc, nil
}
