package dom

import (
	"strings"

	"golang.org/x/net/html"
)

type declaration struct {
	prop, val string
}

func parseStyle(s string) []declaration {
	var decls []declaration
	for _, part := range strings.Split(s, ";") {
		prop, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.TrimSpace(prop)
		if prop == "" {
			continue
		}
		decls = append(decls, declaration{prop: prop, val: strings.TrimSpace(val)})
	}
	return decls
}

func formatStyle(decls []declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.prop+": "+d.val)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "; ") + ";"
}

// GetStyle returns one inline style property of n.
func GetStyle(n *html.Node, prop string) string {
	for _, d := range parseStyle(GetAttr(n, "style")) {
		if d.prop == prop {
			return d.val
		}
	}
	return ""
}

// SetStyle sets one inline style property of n, keeping the order of
// the others. An empty value removes the property.
func SetStyle(n *html.Node, prop, val string) {
	decls := parseStyle(GetAttr(n, "style"))
	out := decls[:0]
	replaced := false
	for _, d := range decls {
		if d.prop == prop {
			if val != "" && !replaced {
				out = append(out, declaration{prop: prop, val: val})
				replaced = true
			}
			continue
		}
		out = append(out, d)
	}
	if !replaced && val != "" {
		out = append(out, declaration{prop: prop, val: val})
	}
	if s := formatStyle(out); s != "" {
		SetAttr(n, "style", s)
	} else {
		RemoveAttr(n, "style")
	}
}

// StyleText returns the raw style attribute and whether it was present.
func StyleText(n *html.Node) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == "style" {
			return a.Val, true
		}
	}
	return "", false
}

// SetStyleText restores a raw style attribute captured by StyleText.
func SetStyleText(n *html.Node, s string, present bool) {
	if !present {
		RemoveAttr(n, "style")
		return
	}
	SetAttr(n, "style", s)
}
