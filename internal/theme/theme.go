// Package theme derives the panel colors from the host's CSS custom
// properties. The shell reports the properties; Poll asks for them again
// on an interval so host theme switches are picked up.
package theme

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"comfyui-data-manager/internal/dom"
)

// HostVars are the host properties the shell is asked to read.
var HostVars = []string{
	"--comfy-menu-bg",
	"--comfy-input-bg",
	"--input-text",
	"--descrip-text",
	"--border-color",
	"--p-button-text-primary-color",
}

// Snapshot is a read-only view of the current theme.
type Snapshot struct {
	Background string
	Surface    string
	Text       string
	Muted      string
	Border     string
	Accent     string
	Dark       bool
}

// Default is used for properties the host does not define.
var Default = Snapshot{
	Background: "#202020",
	Surface:    "#2b2b2b",
	Text:       "#dddddd",
	Muted:      "#999999",
	Border:     "#4e4e4e",
	Accent:     "#4a90e2",
	Dark:       true,
}

// FromVars builds a snapshot from reported property values.
func FromVars(vars map[string]string) Snapshot {
	pick := func(name, def string) string {
		if v := strings.TrimSpace(vars[name]); v != "" {
			return v
		}
		return def
	}
	s := Snapshot{
		Background: pick("--comfy-menu-bg", Default.Background),
		Surface:    pick("--comfy-input-bg", Default.Surface),
		Text:       pick("--input-text", Default.Text),
		Muted:      pick("--descrip-text", Default.Muted),
		Border:     pick("--border-color", Default.Border),
		Accent:     pick("--p-button-text-primary-color", Default.Accent),
	}
	if lum, ok := luminance(s.Background); ok {
		s.Dark = lum < 0.5
	} else {
		s.Dark = Default.Dark
	}
	return s
}

// Apply writes the snapshot as --dm-* properties on n.
func (s Snapshot) Apply(n *html.Node) {
	dom.SetStyle(n, "--dm-bg", s.Background)
	dom.SetStyle(n, "--dm-surface", s.Surface)
	dom.SetStyle(n, "--dm-text", s.Text)
	dom.SetStyle(n, "--dm-muted", s.Muted)
	dom.SetStyle(n, "--dm-border", s.Border)
	dom.SetStyle(n, "--dm-accent", s.Accent)
	scheme := "light"
	if s.Dark {
		scheme = "dark"
	}
	dom.SetAttr(n, "data-dm-theme", scheme)
}

// luminance returns the relative brightness (0..1) of a #rgb, #rrggbb or
// rgb()/rgba() color.
func luminance(color string) (float64, bool) {
	c := strings.ToLower(strings.TrimSpace(color))
	var r, g, b int64
	switch {
	case strings.HasPrefix(c, "#") && len(c) == 4:
		for i, dst := range []*int64{&r, &g, &b} {
			v, err := strconv.ParseInt(strings.Repeat(string(c[i+1]), 2), 16, 64)
			if err != nil {
				return 0, false
			}
			*dst = v
		}
	case strings.HasPrefix(c, "#") && len(c) == 7:
		for i, dst := range []*int64{&r, &g, &b} {
			v, err := strconv.ParseInt(c[1+2*i:3+2*i], 16, 64)
			if err != nil {
				return 0, false
			}
			*dst = v
		}
	case strings.HasPrefix(c, "rgb"):
		open, end := strings.IndexByte(c, '('), strings.IndexByte(c, ')')
		if open < 0 || end < open {
			return 0, false
		}
		parts := strings.FieldsFunc(c[open+1:end], func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
		if len(parts) < 3 {
			return 0, false
		}
		for i, dst := range []*int64{&r, &g, &b} {
			v, err := strconv.ParseFloat(parts[i], 64)
			if err != nil {
				return 0, false
			}
			*dst = int64(v)
		}
	default:
		return 0, false
	}
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255, true
}

// Poll calls request every interval until ctx ends.
func Poll(ctx context.Context, interval time.Duration, request func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			request()
		}
	}
}
