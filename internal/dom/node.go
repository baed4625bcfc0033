package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// GetAttr returns the value of key on n, or "".
func GetAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether n carries key.
func HasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return true
		}
	}
	return false
}

// SetAttr sets key on n.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes key from n.
func RemoveAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// HasClass reports whether n has class c.
func HasClass(n *html.Node, c string) bool {
	for _, f := range strings.Fields(GetAttr(n, "class")) {
		if f == c {
			return true
		}
	}
	return false
}

// AddClass adds c to n's class list.
func AddClass(n *html.Node, c string) {
	if c == "" || HasClass(n, c) {
		return
	}
	cur := GetAttr(n, "class")
	if cur == "" {
		SetAttr(n, "class", c)
		return
	}
	SetAttr(n, "class", cur+" "+c)
}

// RemoveClass removes c from n's class list.
func RemoveClass(n *html.Node, c string) {
	var kept []string
	for _, f := range strings.Fields(GetAttr(n, "class")) {
		if f != c {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// ToggleClass sets or clears c.
func ToggleClass(n *html.Node, c string, on bool) {
	if on {
		AddClass(n, c)
	} else {
		RemoveClass(n, c)
	}
}

// Hide marks n hidden.
func Hide(n *html.Node) {
	SetAttr(n, "hidden", "")
}

// Show clears the hidden mark.
func Show(n *html.Node) {
	RemoveAttr(n, "hidden")
}

// Hidden reports whether n is hidden.
func Hidden(n *html.Node) bool {
	return HasAttr(n, "hidden")
}

// TextContent concatenates the text under n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Query returns every element under n (n included) matching pred, in
// document order.
func Query(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && pred(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// ByClass returns the elements under n with class c.
func ByClass(n *html.Node, c string) []*html.Node {
	return Query(n, func(e *html.Node) bool { return HasClass(e, c) })
}

// FirstByClass returns the first element under n with class c, or nil.
func FirstByClass(n *html.Node, c string) *html.Node {
	if found := ByClass(n, c); len(found) > 0 {
		return found[0]
	}
	return nil
}

// ByTag returns the elements under n with the given tag.
func ByTag(n *html.Node, tag string) []*html.Node {
	return Query(n, func(e *html.Node) bool { return e.Data == tag })
}

// ChildElements returns n's element children.
func ChildElements(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}
