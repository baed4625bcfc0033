package preview

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const highlightStyle = "github"

var lexerNames = map[string]string{
	"json": "json",
	"py":   "python",
	"js":   "javascript",
	"mjs":  "javascript",
	"jsx":  "javascript",
	"ts":   "typescript",
	"tsx":  "typescript",
	"html": "html",
	"htm":  "html",
	"css":  "css",
	"scss": "css",
	"yaml": "yaml",
	"yml":  "yaml",
	"xml":  "xml",
}

// genericLexer colors strings, numbers and comments only.
var genericLexer = chroma.MustNewLexer(
	&chroma.Config{Name: "generic"},
	func() chroma.Rules {
		return chroma.Rules{
			"root": {
				{Pattern: `/\*[\s\S]*?\*/`, Type: chroma.CommentMultiline},
				{Pattern: `//.*?$`, Type: chroma.CommentSingle},
				{Pattern: `#.*?$`, Type: chroma.CommentSingle},
				{Pattern: `"(?:\\.|[^"\\\n])*"`, Type: chroma.LiteralStringDouble},
				{Pattern: `'(?:\\.|[^'\\\n])*'`, Type: chroma.LiteralStringSingle},
				{Pattern: `\b\d+(?:\.\d+)?\b`, Type: chroma.LiteralNumber},
				{Pattern: `\w+`, Type: chroma.Text},
				{Pattern: `\s+`, Type: chroma.Text},
				{Pattern: `.`, Type: chroma.Text},
			},
		}
	},
)

var formatter = chromahtml.New(
	chromahtml.WithClasses(true),
	chromahtml.PreventSurroundingPre(true),
)

// lexerFor picks the lexer for a file extension.
func lexerFor(ext string) chroma.Lexer {
	if name, ok := lexerNames[ext]; ok {
		if l := lexers.Get(name); l != nil {
			return chroma.Coalesce(l)
		}
	}
	return genericLexer
}

// highlight returns class-annotated markup for text. The result is
// meant to be placed inside a <code> element.
func highlight(ext, text string) (string, error) {
	it, err := lexerFor(ext).Tokenise(nil, text)
	if err != nil {
		return "", fmt.Errorf("failed to tokenise: %w", err)
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, styles.Get(highlightStyle), it); err != nil {
		return "", fmt.Errorf("failed to format: %w", err)
	}
	return buf.String(), nil
}

// HighlightCSS returns the stylesheet for highlighted code.
func HighlightCSS() string {
	var buf bytes.Buffer
	if err := formatter.WriteCSS(&buf, styles.Get(highlightStyle)); err != nil {
		return ""
	}
	return buf.String()
}
