package preview

import (
	"bytes"
	"context"
	"strconv"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"comfyui-data-manager/internal/dom"
	apperrors "comfyui-data-manager/internal/errors"
	"comfyui-data-manager/internal/i18n"
)

// Raw HTML in markdown is omitted; only goldmark's own output is trusted.
var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle(highlightStyle),
			highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
		),
	),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

func renderMarkdown(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Renderer) renderDocument(ctx context.Context, src Source, path string, t Target) <-chan struct{} {
	switch KindOf(path) {
	case KindPDF:
		r.doc.Append(t.Content, r.doc.El("embed",
			dom.Class("dm-preview-pdf"),
			dom.Attr("src", src.PreviewURL(path)),
			dom.Attr("type", "application/pdf"),
		))
		return closed()
	case KindDoc:
		cfg := ConfigFor(Document)
		r.doc.Append(t.Content, r.doc.El("div", dom.Class("dm-preview-unsupported"),
			dom.Children(
				r.doc.El("div", dom.Class("dm-preview-unsupported-icon"), dom.Style("color", cfg.Color), dom.Text(cfg.Icon)),
				r.doc.El("div", dom.Class("dm-preview-file-name"), dom.Text(baseName(path))),
				r.doc.El("div", dom.Class("dm-preview-message"), dom.Text(r.tr.T("doc_unsupported"))),
			)))
		return closed()
	case KindDocx:
		return r.renderDocx(ctx, src, path, t)
	case KindMarkdown:
		return r.renderMarkdown(ctx, src, path, t)
	default:
		return r.renderText(ctx, src, path, t)
	}
}

func (r *Renderer) renderText(ctx context.Context, src Source, path string, t Target) <-chan struct{} {
	limit := r.maxChars(t.Mode)
	return r.load(ctx, path, t, func(ctx context.Context) (func(), error) {
		data, err := src.FetchBytes(ctx, path)
		if err != nil {
			return nil, err
		}
		text, truncated := clip(data, limit)
		return func() {
			if truncated {
				r.doc.Append(t.Content, r.notice(r.tr.T("truncated_chars", i18n.D{"Count": limit})))
			}
			pre := r.doc.El("pre", dom.Class(CodeClass, "dm-preview-text"),
				dom.Style("max-height", codeMaxHeight),
				dom.Style("font-size", strconv.Itoa(defaultFontSize)+"px"),
				dom.Text(text))
			r.doc.Append(t.Content, pre)
			r.fontStepper(t, pre)
		}, nil
	})
}

func (r *Renderer) renderMarkdown(ctx context.Context, src Source, path string, t Target) <-chan struct{} {
	limit := r.maxChars(t.Mode)
	return r.load(ctx, path, t, func(ctx context.Context) (func(), error) {
		data, err := src.FetchBytes(ctx, path)
		if err != nil {
			return nil, err
		}
		text, truncated := clip(data, limit)
		markup, err := renderMarkdown([]byte(text))
		if err != nil {
			return nil, apperrors.NewContentError("markdown", path, "Failed to render markdown", err)
		}
		return func() {
			if truncated {
				r.doc.Append(t.Content, r.notice(r.tr.T("truncated_chars", i18n.D{"Count": limit})))
			}
			body := r.doc.El("div", dom.Class("dm-preview-markdown"),
				dom.Style("font-size", strconv.Itoa(defaultFontSize+1)+"px"))
			if err := r.doc.SetHTML(body, markup); err != nil {
				r.doc.Append(body, r.doc.El("pre", dom.Text(text)))
			}
			r.doc.Append(t.Content, body)
			r.fontStepper(t, body)
		}, nil
	})
}

// docxStyles keep converted images and tables inside the preview.
const docxStyles = `.dm-preview-docx img{max-width:100%;height:auto}` +
	`.dm-preview-docx table{border-collapse:collapse;max-width:100%;margin:8px 0}` +
	`.dm-preview-docx td{border:1px solid var(--border-color,#444);padding:4px 8px;vertical-align:top}`

func (r *Renderer) renderDocx(ctx context.Context, src Source, path string, t Target) <-chan struct{} {
	return r.load(ctx, path, t, func(ctx context.Context) (func(), error) {
		data, err := src.FetchBytes(ctx, path)
		if err != nil {
			return nil, err
		}
		markup, err := convertDocx(data)
		if err != nil {
			return nil, apperrors.NewContentError("docx", path, "Failed to convert document", err)
		}
		return func() {
			r.doc.Append(t.Content, r.doc.El("style", dom.Text(docxStyles)))
			body := r.doc.El("div", dom.Class("dm-preview-docx"))
			if err := r.doc.SetHTML(body, markup); err != nil {
				r.showError(t, apperrors.NewContentError("docx", path, "Failed to convert document", err))
				return
			}
			r.doc.Append(t.Content, body)
		}, nil
	})
}
