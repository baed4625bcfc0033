// Package extension registers the data manager with its host: the open
// command and its keybinding, menu entries, and the hooks that decorate
// data manager nodes in the host graph.
package extension

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"comfyui-data-manager/internal/i18n"
	"comfyui-data-manager/internal/logging"
)

const (
	Name        = "Comfy.DataManager"
	CommandOpen = "Comfy.DataManager.Open"
	Keybinding  = "Ctrl+Shift+D"

	// OpenWidget is the button added to data manager nodes.
	OpenWidget = "open_data_manager"
	// FormatWidget is the combo selecting a node's output format.
	FormatWidget = "format"
	// PathWidget holds the file or directory a node points at.
	PathWidget = "path"

	nodeTypePrefix = "DataManager"
)

// Host is the registration surface of the host application.
type Host interface {
	RegisterCommand(id, label string, run func())
	RegisterKeybinding(combo, commandID string)
	AddActionButton(id, icon, tooltip string, run func())
	AddNodeMenuItem(label string, run func(nodeID string))
	AddCanvasMenuItem(label string, run func())
}

// Opener is the panel the extension opens.
type Opener interface {
	Open()
	OpenPath(path string)
}

// Extension tracks the data manager nodes it has seen.
type Extension struct {
	opener Opener
	tr     *i18n.Localizer
	log    *zap.Logger

	mu    sync.Mutex
	nodes map[string]*Node
}

// New creates the extension.
func New(opener Opener, tr *i18n.Localizer) *Extension {
	return &Extension{
		opener: opener,
		tr:     tr,
		log:    logging.Named("extension"),
		nodes:  make(map[string]*Node),
	}
}

// Register installs every entry point on host.
func (e *Extension) Register(host Host) {
	host.RegisterCommand(CommandOpen, e.tr.T("cmd_open"), e.opener.Open)
	host.RegisterKeybinding(Keybinding, CommandOpen)
	host.AddActionButton(CommandOpen, "📁", e.tr.T("cmd_open"), e.opener.Open)
	host.AddNodeMenuItem(e.tr.T("node_open"), e.openNode)
	host.AddCanvasMenuItem(e.tr.T("cmd_open"), e.opener.Open)
	e.log.Info("registered", logging.String("name", Name), logging.String("keybinding", Keybinding))
}

// IsDataManagerNode reports whether nodes of typ get the data manager
// decorations.
func IsDataManagerNode(typ string) bool {
	return strings.HasPrefix(typ, nodeTypePrefix)
}

func (e *Extension) openNode(nodeID string) {
	e.mu.Lock()
	n := e.nodes[nodeID]
	var path string
	if n != nil {
		if w := n.Widget(PathWidget); w != nil {
			path = strings.TrimSpace(w.Value)
		}
	}
	e.mu.Unlock()

	if path != "" {
		e.opener.OpenPath(path)
		return
	}
	e.opener.Open()
}
