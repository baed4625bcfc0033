// Package preview renders file content into a dom container: images,
// audio and video with custom controls, highlighted code, documents and
// spreadsheets.
package preview

import (
	"path"
	"strings"
)

// Category is the coarse file type used to pick a renderer.
type Category string

const (
	Image       Category = "image"
	Video       Category = "video"
	Audio       Category = "audio"
	Code        Category = "code"
	Document    Category = "document"
	Spreadsheet Category = "spreadsheet"
	Unsupported Category = "unsupported"
)

// Kind refines documents and spreadsheets.
type Kind string

const (
	KindNone     Kind = ""
	KindPDF      Kind = "pdf"
	KindMarkdown Kind = "markdown"
	KindText     Kind = "text"
	KindDocx     Kind = "docx"
	KindDoc      Kind = "doc"
	KindCSV      Kind = "csv"
	KindXLSX     Kind = "xlsx"
	KindXLS      Kind = "xls"
)

var extensions = map[Category][]string{
	Image:       {"png", "jpg", "jpeg", "gif", "webp", "bmp", "svg", "ico", "avif"},
	Video:       {"mp4", "webm", "mov", "mkv", "avi", "m4v", "ogv"},
	Audio:       {"mp3", "wav", "flac", "ogg", "aac", "m4a", "opus"},
	Code:        {"py", "js", "mjs", "ts", "jsx", "tsx", "json", "html", "htm", "css", "scss", "yaml", "yml", "xml", "sh", "bash", "go", "rs", "java", "c", "cpp", "h", "hpp", "toml", "ini", "cfg", "sql", "lua", "rb", "php"},
	Document:    {"pdf", "md", "markdown", "txt", "log", "docx", "doc"},
	Spreadsheet: {"csv", "xlsx", "xls"},
}

var byExtension = func() map[string]Category {
	m := make(map[string]Category)
	for c, exts := range extensions {
		for _, e := range exts {
			m[e] = c
		}
	}
	return m
}()

// Ext returns the lower-case extension of p without the dot.
func Ext(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
}

// Detect returns the category for p by extension.
func Detect(p string) Category {
	if c, ok := byExtension[Ext(p)]; ok {
		return c
	}
	return Unsupported
}

// KindOf returns the document or spreadsheet kind of p.
func KindOf(p string) Kind {
	switch Ext(p) {
	case "pdf":
		return KindPDF
	case "md", "markdown":
		return KindMarkdown
	case "txt", "log":
		return KindText
	case "docx":
		return KindDocx
	case "doc":
		return KindDoc
	case "csv":
		return KindCSV
	case "xlsx":
		return KindXLSX
	case "xls":
		return KindXLS
	}
	return KindNone
}

// FileConfig is the icon and accent color shown for a category.
type FileConfig struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

var configs = map[Category]FileConfig{
	Image:       {Icon: "🖼️", Color: "#4CAF50"},
	Video:       {Icon: "🎬", Color: "#E91E63"},
	Audio:       {Icon: "🎵", Color: "#9C27B0"},
	Code:        {Icon: "📝", Color: "#2196F3"},
	Document:    {Icon: "📄", Color: "#FF9800"},
	Spreadsheet: {Icon: "📊", Color: "#009688"},
	Unsupported: {Icon: "📦", Color: "#9E9E9E"},
}

// ConfigFor returns the icon and color for c.
func ConfigFor(c Category) FileConfig {
	if fc, ok := configs[c]; ok {
		return fc
	}
	return configs[Unsupported]
}

// DirectoryConfig is used for folders in listings.
var DirectoryConfig = FileConfig{Icon: "📁", Color: "#FFC107"}

// SupportsFullscreen reports whether a floating window for c offers the
// window-level fullscreen toggle.
func SupportsFullscreen(c Category) bool {
	return c != Audio && c != Unsupported
}
