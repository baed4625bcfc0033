package preview

import (
	"context"
	"strconv"

	"golang.org/x/net/html"

	"comfyui-data-manager/internal/dom"
	apperrors "comfyui-data-manager/internal/errors"
	"comfyui-data-manager/internal/i18n"
)

const (
	defaultFontSize = 13
	minFontSize     = 8
	maxFontSize     = 32
)

// codeMaxHeight is the clamp a floating window drops in fullscreen.
const codeMaxHeight = "60vh"

func (r *Renderer) renderCode(ctx context.Context, src Source, path string, t Target) <-chan struct{} {
	limit := r.maxChars(t.Mode)
	ext := Ext(path)
	return r.load(ctx, path, t, func(ctx context.Context) (func(), error) {
		data, err := src.FetchBytes(ctx, path)
		if err != nil {
			return nil, err
		}
		text, truncated := clip(data, limit)
		markup, err := highlight(ext, text)
		if err != nil {
			return nil, apperrors.NewContentError("highlight", path, "Failed to highlight code", err)
		}
		return func() {
			if truncated {
				r.doc.Append(t.Content, r.notice(r.tr.T("truncated_chars", i18n.D{"Count": limit})))
			}
			code := r.doc.El("code", dom.Class("chroma", "language-"+ext))
			pre := r.doc.El("pre", dom.Class(CodeClass),
				dom.Style("max-height", codeMaxHeight),
				dom.Style("font-size", strconv.Itoa(defaultFontSize)+"px"),
				dom.Children(code))
			if err := r.doc.SetHTML(code, markup); err != nil {
				r.doc.SetText(code, text)
			}
			r.doc.Append(t.Content, pre)
			r.fontStepper(t, pre)
		}, nil
	})
}

// fontStepper adds smaller/larger text buttons acting on target.
func (r *Renderer) fontStepper(t Target, target *html.Node) {
	size := defaultFontSize
	label := r.doc.El("span", dom.Class("dm-font-size"), dom.Text(strconv.Itoa(size)+"px"))
	set := func(n int) {
		if n < minFontSize || n > maxFontSize {
			return
		}
		size = n
		dom.SetStyle(target, "font-size", strconv.Itoa(size)+"px")
		r.doc.SetText(label, strconv.Itoa(size)+"px")
	}
	bar := r.controls(t)
	r.doc.Append(bar, r.button("A−", r.tr.T("font_smaller"), func(dom.Event) { set(size - 1) }))
	r.doc.Append(bar, label)
	r.doc.Append(bar, r.button("A+", r.tr.T("font_larger"), func(dom.Event) { set(size + 1) }))
}
